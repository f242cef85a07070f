// Package classfile implements the JVM class file format: the constant
// pool, the class/field/method/attribute tables, and their binary
// serialization. It generalizes the layout used by jvmgen in the original
// tree to the full tag set a Java 8 source compiler needs, including
// MethodHandle, MethodType, and InvokeDynamic entries for lambda lowering.
package classfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Constant pool tags, per the JVM specification §4.4.
const (
	TagUtf8              = 1
	TagInteger           = 3
	TagFloat             = 4
	TagLong              = 5
	TagDouble            = 6
	TagClass             = 7
	TagString            = 8
	TagFieldref          = 9
	TagMethodref         = 10
	TagInterfaceMethodref = 11
	TagNameAndType       = 12
	TagMethodHandle      = 15
	TagMethodType        = 16
	TagInvokeDynamic     = 18
)

// Reference kinds for MethodHandle entries, per Table 5.4.3.5-A.
const (
	RefGetField         = 1
	RefGetStatic        = 2
	RefPutField         = 3
	RefPutStatic        = 4
	RefInvokeVirtual    = 5
	RefInvokeStatic     = 6
	RefInvokeSpecial    = 7
	RefNewInvokeSpecial = 8
	RefInvokeInterface  = 9
)

// entry is the internal representation of one constant pool slot. Exactly
// one field group is populated, selected by tag.
type entry struct {
	tag uint8

	utf8 string

	i32 int32
	f32 float32
	i64 int64
	f64 float64

	// Class, String, MethodType: single name/descriptor index.
	nameIdx uint16

	// Fieldref, Methodref, InterfaceMethodref: class + NameAndType.
	classIdx       uint16
	nameAndTypeIdx uint16

	// NameAndType: name + descriptor.
	descIdx uint16

	// MethodHandle.
	refKind  uint8
	refIndex uint16

	// InvokeDynamic: bootstrap method attr index + NameAndType index.
	bootstrapIdx uint16
}

// ConstantPool owns the 1-based, deduplicated constant pool for a single
// class file. Long and Double entries occupy two consecutive indices, as
// required by the JVM spec; slot index 0 is unused and the second slot of
// a Long/Double entry is an empty placeholder that Write skips.
type ConstantPool struct {
	entries []entry // entries[0] is the unused index-0 placeholder
	cache   map[string]uint16
}

// NewConstantPool returns an empty pool, already seeded with the unused
// zero index.
func NewConstantPool() *ConstantPool {
	return &ConstantPool{
		entries: []entry{{}}, // index 0 placeholder
		cache:   make(map[string]uint16),
	}
}

func (p *ConstantPool) add(key string, e entry) uint16 {
	if idx, ok := p.cache[key]; ok {
		return idx
	}
	idx := uint16(len(p.entries))
	p.entries = append(p.entries, e)
	p.cache[key] = idx
	if e.tag == TagLong || e.tag == TagDouble {
		p.entries = append(p.entries, entry{}) // second slot, per spec
	}
	return idx
}

// Utf8 adds a CONSTANT_Utf8 entry. It writes s's raw UTF-8 bytes rather
// than the JVM's modified UTF-8 (no embedded NUL, no supplementary-plane
// surrogate encoding); harmless for this compiler's ASCII-only identifier
// and literal subset, but not a general-purpose encoder.
func (p *ConstantPool) Utf8(s string) uint16 {
	return p.add("utf8:"+s, entry{tag: TagUtf8, utf8: s})
}

func (p *ConstantPool) Integer(v int32) uint16 {
	return p.add(fmt.Sprintf("int:%d", v), entry{tag: TagInteger, i32: v})
}

func (p *ConstantPool) Float(v float32) uint16 {
	return p.add(fmt.Sprintf("float:%x", v), entry{tag: TagFloat, f32: v})
}

func (p *ConstantPool) Long(v int64) uint16 {
	return p.add(fmt.Sprintf("long:%d", v), entry{tag: TagLong, i64: v})
}

func (p *ConstantPool) Double(v float64) uint16 {
	return p.add(fmt.Sprintf("double:%x", v), entry{tag: TagDouble, f64: v})
}

// Class returns the index of a CONSTANT_Class entry for an internal name
// such as "java/lang/Object" or "[I".
func (p *ConstantPool) Class(internalName string) uint16 {
	nameIdx := p.Utf8(internalName)
	return p.add("class:"+internalName, entry{tag: TagClass, nameIdx: nameIdx})
}

func (p *ConstantPool) String(s string) uint16 {
	valIdx := p.Utf8(s)
	return p.add("string:"+s, entry{tag: TagString, nameIdx: valIdx})
}

func (p *ConstantPool) NameAndType(name, descriptor string) uint16 {
	nameIdx := p.Utf8(name)
	descIdx := p.Utf8(descriptor)
	key := "nat:" + name + ":" + descriptor
	return p.add(key, entry{tag: TagNameAndType, nameIdx: nameIdx, descIdx: descIdx})
}

func (p *ConstantPool) Fieldref(className, name, descriptor string) uint16 {
	classIdx := p.Class(className)
	natIdx := p.NameAndType(name, descriptor)
	key := "fieldref:" + className + "." + name + ":" + descriptor
	return p.add(key, entry{tag: TagFieldref, classIdx: classIdx, nameAndTypeIdx: natIdx})
}

func (p *ConstantPool) Methodref(className, name, descriptor string) uint16 {
	classIdx := p.Class(className)
	natIdx := p.NameAndType(name, descriptor)
	key := "methodref:" + className + "." + name + ":" + descriptor
	return p.add(key, entry{tag: TagMethodref, classIdx: classIdx, nameAndTypeIdx: natIdx})
}

func (p *ConstantPool) InterfaceMethodref(className, name, descriptor string) uint16 {
	classIdx := p.Class(className)
	natIdx := p.NameAndType(name, descriptor)
	key := "imethodref:" + className + "." + name + ":" + descriptor
	return p.add(key, entry{tag: TagInterfaceMethodref, classIdx: classIdx, nameAndTypeIdx: natIdx})
}

func (p *ConstantPool) MethodType(descriptor string) uint16 {
	descIdx := p.Utf8(descriptor)
	return p.add("methodtype:"+descriptor, entry{tag: TagMethodType, nameIdx: descIdx})
}

// MethodHandle adds a CONSTANT_MethodHandle referring to a field or method
// identified by refKind (one of the RefXxx constants) and refIndex (a
// Fieldref/Methodref/InterfaceMethodref index, chosen per refKind).
func (p *ConstantPool) MethodHandle(refKind uint8, refIndex uint16) uint16 {
	key := fmt.Sprintf("mh:%d:%d", refKind, refIndex)
	return p.add(key, entry{tag: TagMethodHandle, refKind: refKind, refIndex: refIndex})
}

// InvokeDynamic adds a CONSTANT_InvokeDynamic entry. bootstrapIdx indexes
// into the class's BootstrapMethods attribute table.
func (p *ConstantPool) InvokeDynamic(bootstrapIdx uint16, name, descriptor string) uint16 {
	natIdx := p.NameAndType(name, descriptor)
	key := fmt.Sprintf("indy:%d:%s:%s", bootstrapIdx, name, descriptor)
	return p.add(key, entry{tag: TagInvokeDynamic, bootstrapIdx: bootstrapIdx, nameAndTypeIdx: natIdx})
}

// Count returns constant_pool_count: one more than the highest valid index,
// per the JVM spec's historical quirk.
func (p *ConstantPool) Count() uint16 {
	return uint16(len(p.entries))
}

// Utf8At returns the string held by the Utf8 entry at idx. Panics if idx
// is not a Utf8 entry — callers only ever pass indices they themselves
// allocated via Utf8/Class/NameAndType, so this is a programmer error if
// it ever fires.
func (p *ConstantPool) Utf8At(idx uint16) string {
	e := p.entries[idx]
	if e.tag != TagUtf8 {
		panic(fmt.Sprintf("classfile: entry %d is not Utf8 (tag %d)", idx, e.tag))
	}
	return e.utf8
}

// ClassNameAt returns the internal name of the Class entry at idx.
func (p *ConstantPool) ClassNameAt(idx uint16) string {
	e := p.entries[idx]
	if e.tag != TagClass {
		panic(fmt.Sprintf("classfile: entry %d is not Class (tag %d)", idx, e.tag))
	}
	return p.Utf8At(e.nameIdx)
}

// Write serializes every non-placeholder entry in index order.
func (p *ConstantPool) Write(buf *bytes.Buffer) error {
	for i := 1; i < len(p.entries); i++ {
		e := &p.entries[i]
		if e.tag == 0 {
			continue // second slot of a preceding Long/Double
		}
		if err := writeEntry(buf, e); err != nil {
			return fmt.Errorf("constant pool entry %d: %w", i, err)
		}
	}
	return nil
}

func writeEntry(buf *bytes.Buffer, e *entry) error {
	buf.WriteByte(e.tag)
	switch e.tag {
	case TagUtf8:
		b := []byte(e.utf8)
		if err := binary.Write(buf, binary.BigEndian, uint16(len(b))); err != nil {
			return err
		}
		buf.Write(b)
		return nil
	case TagInteger:
		return binary.Write(buf, binary.BigEndian, e.i32)
	case TagFloat:
		return binary.Write(buf, binary.BigEndian, e.f32)
	case TagLong:
		return binary.Write(buf, binary.BigEndian, e.i64)
	case TagDouble:
		return binary.Write(buf, binary.BigEndian, e.f64)
	case TagClass, TagString, TagMethodType:
		return binary.Write(buf, binary.BigEndian, e.nameIdx)
	case TagFieldref, TagMethodref, TagInterfaceMethodref:
		if err := binary.Write(buf, binary.BigEndian, e.classIdx); err != nil {
			return err
		}
		return binary.Write(buf, binary.BigEndian, e.nameAndTypeIdx)
	case TagNameAndType:
		if err := binary.Write(buf, binary.BigEndian, e.nameIdx); err != nil {
			return err
		}
		return binary.Write(buf, binary.BigEndian, e.descIdx)
	case TagMethodHandle:
		buf.WriteByte(e.refKind)
		return binary.Write(buf, binary.BigEndian, e.refIndex)
	case TagInvokeDynamic:
		if err := binary.Write(buf, binary.BigEndian, e.bootstrapIdx); err != nil {
			return err
		}
		return binary.Write(buf, binary.BigEndian, e.nameAndTypeIdx)
	}
	return fmt.Errorf("unknown constant pool tag %d", e.tag)
}
