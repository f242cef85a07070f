package classfile

import (
	"bytes"
	"encoding/binary"
)

// ExceptionTableEntry is one row of a Code attribute's exception table.
type ExceptionTableEntry struct {
	StartPC   uint16
	EndPC     uint16
	HandlerPC uint16
	CatchType uint16 // 0 means catch-all (used for finally blocks)
}

// LineNumberEntry maps a bytecode offset back to a source line, used by
// the LineNumberTable attribute for stack traces and debugging.
type LineNumberEntry struct {
	StartPC uint16
	Line    uint16
}

// CodeAttribute builds the Code attribute of a method. Pool must be the
// same constant pool the owning class serializes with, since nested
// attribute names (LineNumberTable, StackMapTable) are themselves
// pool-indexed per the JVM spec's attribute_info layout.
type CodeAttribute struct {
	Pool           *ConstantPool
	MaxStack       uint16
	MaxLocals      uint16
	Code           []byte
	ExceptionTable []ExceptionTableEntry
	LineNumbers    []LineNumberEntry
	Attributes     []Attribute // nested attributes, e.g. StackMapTable
}

func (c *CodeAttribute) AttrName() string { return "Code" }

func (c *CodeAttribute) AttrBody() []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, c.MaxStack)
	binary.Write(&buf, binary.BigEndian, c.MaxLocals)
	binary.Write(&buf, binary.BigEndian, uint32(len(c.Code)))
	buf.Write(c.Code)
	binary.Write(&buf, binary.BigEndian, uint16(len(c.ExceptionTable)))
	for _, e := range c.ExceptionTable {
		binary.Write(&buf, binary.BigEndian, e.StartPC)
		binary.Write(&buf, binary.BigEndian, e.EndPC)
		binary.Write(&buf, binary.BigEndian, e.HandlerPC)
		binary.Write(&buf, binary.BigEndian, e.CatchType)
	}
	nested := c.Attributes
	if len(c.LineNumbers) > 0 {
		nested = append(append([]Attribute{}, nested...), lineNumberTableAttribute{c.LineNumbers})
	}
	_ = writeAttributes(&buf, c.Pool, nested) // bytes.Buffer writes never fail
	return buf.Bytes()
}

type lineNumberTableAttribute struct {
	entries []LineNumberEntry
}

func (l lineNumberTableAttribute) AttrName() string { return "LineNumberTable" }
func (l lineNumberTableAttribute) AttrBody() []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint16(len(l.entries)))
	for _, e := range l.entries {
		binary.Write(&buf, binary.BigEndian, e.StartPC)
		binary.Write(&buf, binary.BigEndian, e.Line)
	}
	return buf.Bytes()
}

// ConstantValueAttribute attaches a compile-time constant to a static final
// field.
type ConstantValueAttribute struct {
	ValueIdx uint16 // constant pool index of the Integer/Float/Long/Double/String entry
}

func (c ConstantValueAttribute) AttrName() string { return "ConstantValue" }
func (c ConstantValueAttribute) AttrBody() []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, c.ValueIdx)
	return b
}

// ExceptionsAttribute lists the checked exception types a method's throws
// clause declares.
type ExceptionsAttribute struct {
	ClassIndices []uint16
}

func (e ExceptionsAttribute) AttrName() string { return "Exceptions" }
func (e ExceptionsAttribute) AttrBody() []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint16(len(e.ClassIndices)))
	for _, idx := range e.ClassIndices {
		binary.Write(&buf, binary.BigEndian, idx)
	}
	return buf.Bytes()
}

// InnerClassEntry is one row of the InnerClasses attribute, used for every
// static nested class a compilation unit defines.
type InnerClassEntry struct {
	InnerClassInfoIdx   uint16
	OuterClassInfoIdx   uint16 // 0 if not a member of another class
	InnerNameIdx        uint16 // 0 if anonymous
	InnerClassAccessFlags uint16
}

// InnerClassesAttribute lists nested-class relationships visible from this
// class file.
type InnerClassesAttribute struct {
	Classes []InnerClassEntry
}

func (i InnerClassesAttribute) AttrName() string { return "InnerClasses" }
func (i InnerClassesAttribute) AttrBody() []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint16(len(i.Classes)))
	for _, e := range i.Classes {
		binary.Write(&buf, binary.BigEndian, e.InnerClassInfoIdx)
		binary.Write(&buf, binary.BigEndian, e.OuterClassInfoIdx)
		binary.Write(&buf, binary.BigEndian, e.InnerNameIdx)
		binary.Write(&buf, binary.BigEndian, e.InnerClassAccessFlags)
	}
	return buf.Bytes()
}

// BootstrapMethod is one entry of the BootstrapMethods attribute, used by
// invokedynamic call sites (lambda metafactory calls).
type BootstrapMethod struct {
	MethodRefIdx uint16 // MethodHandle constant pool index
	Arguments    []uint16
}

// BootstrapMethodsAttribute is attached once per class, at class level, and
// shared by every invokedynamic instruction the class's methods emit.
type BootstrapMethodsAttribute struct {
	Methods []BootstrapMethod
}

func (b BootstrapMethodsAttribute) AttrName() string { return "BootstrapMethods" }
func (b BootstrapMethodsAttribute) AttrBody() []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint16(len(b.Methods)))
	for _, m := range b.Methods {
		binary.Write(&buf, binary.BigEndian, m.MethodRefIdx)
		binary.Write(&buf, binary.BigEndian, uint16(len(m.Arguments)))
		for _, arg := range m.Arguments {
			binary.Write(&buf, binary.BigEndian, arg)
		}
	}
	return buf.Bytes()
}

// SignatureAttribute carries generic type information not representable in
// a plain descriptor (used for generic classes/methods/fields).
type SignatureAttribute struct {
	SignatureIdx uint16
}

func (s SignatureAttribute) AttrName() string { return "Signature" }
func (s SignatureAttribute) AttrBody() []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, s.SignatureIdx)
	return b
}

// SourceFileAttribute records the originating source file name for stack
// traces.
type SourceFileAttribute struct {
	SourceFileIdx uint16
}

func (s SourceFileAttribute) AttrName() string { return "SourceFile" }
func (s SourceFileAttribute) AttrBody() []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, s.SourceFileIdx)
	return b
}

// MethodParameterEntry names one formal parameter with access flags
// (e.g. ACC_SYNTHETIC for captured-variable parameters on lambda bodies).
type MethodParameterEntry struct {
	NameIdx     uint16
	AccessFlags uint16
}

// MethodParametersAttribute records formal parameter names, when compiled
// with -parameters-equivalent debug info retained.
type MethodParametersAttribute struct {
	Parameters []MethodParameterEntry
}

func (m MethodParametersAttribute) AttrName() string { return "MethodParameters" }
func (m MethodParametersAttribute) AttrBody() []byte {
	var buf bytes.Buffer
	buf.WriteByte(byte(len(m.Parameters)))
	for _, p := range m.Parameters {
		binary.Write(&buf, binary.BigEndian, p.NameIdx)
		binary.Write(&buf, binary.BigEndian, p.AccessFlags)
	}
	return buf.Bytes()
}

// ElementValuePair is one name=value entry of an annotation, per the JVM
// spec's element_value_pairs table. Tag selects which element_value union
// member follows; this compiler only ever emits 's' (String) and 'Z'/'C'/
// 'I'/'J'/'F'/'D' (primitive constants via a ConstantValue-style pool
// index), since its own annotation values never carry class literals,
// nested annotations, arrays, or enum constants.
type ElementValuePair struct {
	NameIdx uint16
	Tag     byte
	ValIdx  uint16 // constant pool index, meaning depends on Tag
}

// AnnotationEntry is one @Type(...) occurrence, per the JVM spec's
// annotation structure.
type AnnotationEntry struct {
	TypeIdx uint16 // Utf8 index holding the annotation type's descriptor
	Values  []ElementValuePair
}

func writeAnnotationEntry(buf *bytes.Buffer, a AnnotationEntry) {
	binary.Write(buf, binary.BigEndian, a.TypeIdx)
	binary.Write(buf, binary.BigEndian, uint16(len(a.Values)))
	for _, v := range a.Values {
		binary.Write(buf, binary.BigEndian, v.NameIdx)
		buf.WriteByte(v.Tag)
		binary.Write(buf, binary.BigEndian, v.ValIdx)
	}
}

// RuntimeVisibleAnnotationsAttribute carries every annotation attached to
// a class, field, or method, per JVM spec §4.7.16.
type RuntimeVisibleAnnotationsAttribute struct {
	Annotations []AnnotationEntry
}

func (r RuntimeVisibleAnnotationsAttribute) AttrName() string { return "RuntimeVisibleAnnotations" }
func (r RuntimeVisibleAnnotationsAttribute) AttrBody() []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint16(len(r.Annotations)))
	for _, a := range r.Annotations {
		writeAnnotationEntry(&buf, a)
	}
	return buf.Bytes()
}

// RuntimeVisibleParameterAnnotationsAttribute carries the annotations on
// each formal parameter of a method, per JVM spec §4.7.18. Entries are
// positional: ParameterAnnotations[i] holds parameter i's annotations,
// including an empty slice for an unannotated parameter.
type RuntimeVisibleParameterAnnotationsAttribute struct {
	ParameterAnnotations [][]AnnotationEntry
}

func (r RuntimeVisibleParameterAnnotationsAttribute) AttrName() string {
	return "RuntimeVisibleParameterAnnotations"
}
func (r RuntimeVisibleParameterAnnotationsAttribute) AttrBody() []byte {
	var buf bytes.Buffer
	buf.WriteByte(byte(len(r.ParameterAnnotations)))
	for _, annots := range r.ParameterAnnotations {
		binary.Write(&buf, binary.BigEndian, uint16(len(annots)))
		for _, a := range annots {
			writeAnnotationEntry(&buf, a)
		}
	}
	return buf.Bytes()
}

// DeprecatedAttribute is a marker attribute with no payload.
type DeprecatedAttribute struct{}

func (DeprecatedAttribute) AttrName() string { return "Deprecated" }
func (DeprecatedAttribute) AttrBody() []byte { return nil }

// SyntheticAttribute is a marker attribute with no payload, used on members
// the compiler introduces (lambda impl methods, enum $VALUES, bridges).
type SyntheticAttribute struct{}

func (SyntheticAttribute) AttrName() string { return "Synthetic" }
func (SyntheticAttribute) AttrBody() []byte { return nil }
