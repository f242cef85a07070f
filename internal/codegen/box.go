package codegen

import "github.com/aoki-yuta/javac8/internal/bctypes"

type boxInfo struct {
	wrapper   string // internal name, e.g. "java/lang/Integer"
	unboxName string // e.g. "intValue"
}

var boxTable = map[bctypes.PrimitiveKind]boxInfo{
	bctypes.Boolean: {"java/lang/Boolean", "booleanValue"},
	bctypes.Byte:    {"java/lang/Byte", "byteValue"},
	bctypes.Short:   {"java/lang/Short", "shortValue"},
	bctypes.Char:    {"java/lang/Character", "charValue"},
	bctypes.Int:     {"java/lang/Integer", "intValue"},
	bctypes.Long:    {"java/lang/Long", "longValue"},
	bctypes.Float:   {"java/lang/Float", "floatValue"},
	bctypes.Double:  {"java/lang/Double", "doubleValue"},
}

func wrapperFor(k bctypes.PrimitiveKind) (string, bool) {
	info, ok := boxTable[k]
	return info.wrapper, ok
}

// box emits "Wrapper.valueOf(prim)" against the value on top of the
// stack, given its primitive static type t.
func (mc *methodCtx) box(t bctypes.Type) bctypes.Type {
	info, ok := boxTable[t.PrimitiveKindOrZero()]
	if !ok {
		return t
	}
	mc.b.InvokeStatic(info.wrapper, "valueOf", bctypes.MethodDescriptor([]bctypes.Type{t}, bctypes.Reference(info.wrapper)), []bctypes.Type{t}, bctypes.Reference(info.wrapper))
	return bctypes.Reference(info.wrapper)
}

// unbox emits "boxed.xxxValue()" against a reference value of a known
// wrapper class, given the target primitive kind it must produce.
func (mc *methodCtx) unbox(boxedClass string, want bctypes.PrimitiveKind) bctypes.Type {
	for k, info := range boxTable {
		if info.wrapper == boxedClass {
			result := primitiveTypeFor(k)
			mc.b.InvokeVirtual(boxedClass, info.unboxName, bctypes.MethodDescriptor(nil, result), nil, result)
			if k != want {
				mc.convertCategory(categoryOf(result), categoryOf(primitiveTypeFor(want)))
			}
			return primitiveTypeFor(want)
		}
	}
	return primitiveTypeFor(want)
}

func primitiveTypeFor(k bctypes.PrimitiveKind) bctypes.Type {
	switch k {
	case bctypes.Boolean:
		return bctypes.BooleanType
	case bctypes.Byte:
		return bctypes.ByteType
	case bctypes.Short:
		return bctypes.ShortType
	case bctypes.Char:
		return bctypes.CharType
	case bctypes.Int:
		return bctypes.IntType
	case bctypes.Long:
		return bctypes.LongType
	case bctypes.Float:
		return bctypes.FloatType
	case bctypes.Double:
		return bctypes.DoubleType
	default:
		return bctypes.IntType
	}
}

// adaptTo makes the value of static type have sit on the stack as a value
// assignable to want, inserting a boxing or unboxing conversion when the
// two sides disagree on primitive-vs-reference.
func (mc *methodCtx) adaptTo(have, want bctypes.Type) bctypes.Type {
	if have.IsPrimitive() && want.IsReference() && !want.Equal(bctypes.ObjectType) {
		return mc.box(have)
	}
	if have.IsPrimitive() && want.Equal(bctypes.ObjectType) {
		return mc.box(have)
	}
	if have.IsReference() && want.IsPrimitive() {
		return mc.unbox(have.ClassName(), want.PrimitiveKindOrZero())
	}
	if have.IsPrimitive() && want.IsPrimitive() && have.PrimitiveKindOrZero() != want.PrimitiveKindOrZero() {
		mc.convertCategory(categoryOf(have), categoryOf(want))
		return want
	}
	return have
}
