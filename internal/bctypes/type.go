// Package bctypes implements the JVM-visible type model: primitives, class
// references, arrays, and void. It is the leaf dependency of the rest of the
// compiler — the bcbuild, classpath, resolve and codegen packages import
// it, and it imports nothing of its own.
package bctypes

import "strings"

// Kind distinguishes the variants of Type.
type Kind int

const (
	KindPrimitive Kind = iota
	KindReference
	KindArray
	KindVoid
)

// PrimitiveKind enumerates the eight JVM primitive types.
type PrimitiveKind int

const (
	Boolean PrimitiveKind = iota
	Byte
	Short
	Char
	Int
	Long
	Float
	Double
)

var primitiveNames = map[PrimitiveKind]string{
	Boolean: "boolean",
	Byte:    "byte",
	Short:   "short",
	Char:    "char",
	Int:     "int",
	Long:    "long",
	Float:   "float",
	Double:  "double",
}

var primitiveDescriptors = map[PrimitiveKind]byte{
	Boolean: 'Z',
	Byte:    'B',
	Short:   'S',
	Char:    'C',
	Int:     'I',
	Long:    'J',
	Float:   'F',
	Double:  'D',
}

// Type is a closed sum: exactly one of the four constructors below produced
// it. Callers distinguish variants with Kind(), never by inspecting fields
// directly — the zero value is the primitive kind 0 (Boolean), which is
// intentional: Type is only ever meaningful when built through one of the
// constructors.
type Type struct {
	kind      Kind
	prim      PrimitiveKind
	className string // internal name, reference kind only
	elem      *Type  // array kind only; never Void
}

var Void = Type{kind: KindVoid}

func Primitive(k PrimitiveKind) Type { return Type{kind: KindPrimitive, prim: k} }

// Reference builds a class or interface reference type from an internal name
// (slash-separated, e.g. "java/lang/String").
func Reference(internalName string) Type {
	return Type{kind: KindReference, className: internalName}
}

// Array builds an array type of the given element type and dimension count.
// Panics if elem is Void or dims < 1, mirroring the invariant in spec.md §3.
func Array(elem Type, dims int) Type {
	if elem.kind == KindVoid {
		panic("bctypes: array element type may not be void")
	}
	if dims < 1 {
		panic("bctypes: array dimension must be >= 1")
	}
	e := elem
	return Type{kind: KindArray, elem: &e, prim: PrimitiveKind(dims)}
}

func (t Type) Kind() Kind { return t.kind }

func (t Type) IsVoid() bool      { return t.kind == KindVoid }
func (t Type) IsPrimitive() bool { return t.kind == KindPrimitive }
func (t Type) IsArray() bool     { return t.kind == KindArray }

// IsReference is true for class, interface, and array types (everything
// the JVM verifier tracks as a reference kind) and for the null type, which
// callers represent as Reference("") by convention.
func (t Type) IsReference() bool { return t.kind == KindReference || t.kind == KindArray }

func (t Type) PrimitiveKind() PrimitiveKind {
	if t.kind != KindPrimitive {
		panic("bctypes: PrimitiveKind on non-primitive type")
	}
	return t.prim
}

// ClassName returns the internal name of a reference type.
func (t Type) ClassName() string {
	if t.kind != KindReference {
		panic("bctypes: ClassName on non-reference type")
	}
	return t.className
}

// Dimensions returns the array rank.
func (t Type) Dimensions() int {
	if t.kind != KindArray {
		panic("bctypes: Dimensions on non-array type")
	}
	return int(t.prim)
}

// ElementType returns the type of one index into the array (for
// multi-dimensional arrays this is itself an array type one rank lower).
func (t Type) ElementType() Type {
	if t.kind != KindArray {
		panic("bctypes: ElementType on non-array type")
	}
	if t.Dimensions() == 1 {
		return *t.elem
	}
	return Array(*t.elem, t.Dimensions()-1)
}

// ComponentType returns the innermost, non-array element type.
func (t Type) ComponentType() Type {
	if t.kind != KindArray {
		return t
	}
	return *t.elem
}

// Descriptor returns the JVM type descriptor, e.g. "I", "Ljava/lang/String;",
// "[[I", "V".
func (t Type) Descriptor() string {
	switch t.kind {
	case KindVoid:
		return "V"
	case KindPrimitive:
		return string(primitiveDescriptors[t.prim])
	case KindReference:
		return "L" + t.className + ";"
	case KindArray:
		return strings.Repeat("[", t.Dimensions()) + t.elem.Descriptor()
	}
	panic("bctypes: unreachable")
}

// Category returns the JVM computational category: 2 for long and double,
// 1 for everything else (including void, by convention — callers never push
// a void value so the category is moot but must not be zero).
func (t Type) Category() int {
	if t.kind == KindPrimitive && (t.prim == Long || t.prim == Double) {
		return 2
	}
	return 1
}

// DefaultValue reports the JVM default (zero) value's descriptor-compatible
// representation: for primitives, the Go zero value of the matching width;
// for references, nil.
func (t Type) DefaultValue() any {
	if t.kind != KindPrimitive {
		return nil
	}
	switch t.prim {
	case Boolean:
		return false
	case Byte:
		return int8(0)
	case Short:
		return int16(0)
	case Char:
		return uint16(0)
	case Int:
		return int32(0)
	case Long:
		return int64(0)
	case Float:
		return float32(0)
	case Double:
		return float64(0)
	}
	return nil
}

// String renders a human-readable form, used only in diagnostics.
func (t Type) String() string {
	switch t.kind {
	case KindVoid:
		return "void"
	case KindPrimitive:
		return primitiveNames[t.prim]
	case KindReference:
		return strings.ReplaceAll(t.className, "/", ".")
	case KindArray:
		return t.elem.String() + strings.Repeat("[]", t.Dimensions())
	}
	return "?"
}

// Equal compares two types structurally.
func (t Type) Equal(o Type) bool {
	if t.kind != o.kind {
		return false
	}
	switch t.kind {
	case KindVoid:
		return true
	case KindPrimitive:
		return t.prim == o.prim
	case KindReference:
		return t.className == o.className
	case KindArray:
		return t.Dimensions() == o.Dimensions() && t.elem.Equal(*o.elem)
	}
	return false
}

// Well-known primitive types, used pervasively by the resolver and codegen.
var (
	BooleanType = Primitive(Boolean)
	ByteType    = Primitive(Byte)
	ShortType   = Primitive(Short)
	CharType    = Primitive(Char)
	IntType     = Primitive(Int)
	LongType    = Primitive(Long)
	FloatType   = Primitive(Float)
	DoubleType  = Primitive(Double)

	ObjectType = Reference("java/lang/Object")
	StringType = Reference("java/lang/String")
	NullType   = Reference("")
)

// IsIntegral reports whether t is one of the JVM's integral primitive kinds.
func (t Type) IsIntegral() bool {
	if t.kind != KindPrimitive {
		return false
	}
	switch t.prim {
	case Byte, Short, Char, Int, Long:
		return true
	}
	return false
}

// IsFloatingPoint reports whether t is float or double.
func (t Type) IsFloatingPoint() bool {
	return t.kind == KindPrimitive && (t.prim == Float || t.prim == Double)
}

// IsNumeric reports whether t participates in arithmetic promotion.
func (t Type) IsNumeric() bool {
	return t.IsIntegral() || t.IsFloatingPoint()
}

// PrimitiveKindOrZero returns t's primitive kind, or Boolean (the zero
// value) if t is not a primitive. Callers that have already branched on
// IsPrimitive/IsReference use this to avoid a second, panicking accessor
// call in a type switch.
func (t Type) PrimitiveKindOrZero() PrimitiveKind {
	if t.kind != KindPrimitive {
		return Boolean
	}
	return t.prim
}

// ParseDescriptor parses a single JVM type descriptor starting at pos and
// returns the decoded type and the number of bytes consumed.
func ParseDescriptor(desc string, pos int) (Type, int) {
	switch desc[pos] {
	case 'Z':
		return BooleanType, 1
	case 'B':
		return ByteType, 1
	case 'S':
		return ShortType, 1
	case 'C':
		return CharType, 1
	case 'I':
		return IntType, 1
	case 'J':
		return LongType, 1
	case 'F':
		return FloatType, 1
	case 'D':
		return DoubleType, 1
	case 'V':
		return Void, 1
	case 'L':
		end := strings.IndexByte(desc[pos:], ';')
		name := desc[pos+1 : pos+end]
		return Reference(name), end + 1
	case '[':
		elem, n := ParseDescriptor(desc, pos+1)
		if elem.kind == KindArray {
			return Array(*elem.elem, elem.Dimensions()+1), n + 1
		}
		return Array(elem, 1), n + 1
	}
	panic("bctypes: invalid descriptor byte " + string(desc[pos]))
}

// ParseMethodDescriptor splits a method descriptor "(params)return" into its
// parameter types and return type.
func ParseMethodDescriptor(desc string) (params []Type, ret Type) {
	i := 1 // skip '('
	for desc[i] != ')' {
		t, n := ParseDescriptor(desc, i)
		params = append(params, t)
		i += n
	}
	i++ // skip ')'
	ret, _ = ParseDescriptor(desc, i)
	return params, ret
}

// MethodDescriptor composes a method descriptor from parameter types and a
// return type.
func MethodDescriptor(params []Type, ret Type) string {
	var b strings.Builder
	b.WriteByte('(')
	for _, p := range params {
		b.WriteString(p.Descriptor())
	}
	b.WriteByte(')')
	b.WriteString(ret.Descriptor())
	return b.String()
}
