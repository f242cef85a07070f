package codegen

import "github.com/aoki-yuta/javac8/internal/bctypes"

// numCategory is one of the four arithmetic-op families the JVM's binary
// numeric operators come in; byte/short/char/boolean all share "int",
// since they already occupy an int-sized stack slot.
type numCategory int

const (
	catInt numCategory = iota
	catLong
	catFloat
	catDouble
)

func categoryOf(t bctypes.Type) numCategory {
	switch t.PrimitiveKindOrZero() {
	case bctypes.Long:
		return catLong
	case bctypes.Float:
		return catFloat
	case bctypes.Double:
		return catDouble
	default:
		return catInt
	}
}

func categoryType(c numCategory) bctypes.Type {
	switch c {
	case catLong:
		return bctypes.LongType
	case catFloat:
		return bctypes.FloatType
	case catDouble:
		return bctypes.DoubleType
	default:
		return bctypes.IntType
	}
}

// widerCategory returns the result category of Java's binary numeric
// promotion between a and b: double beats float beats long beats int.
func widerCategory(a, b numCategory) numCategory {
	if a > b {
		return a
	}
	return b
}

// convertCategory emits the conversion opcode, if any, moving the value on
// top of the stack from one arithmetic category to another.
func (mc *methodCtx) convertCategory(from, to numCategory) {
	if from == to {
		return
	}
	b := mc.b
	switch {
	case from == catInt && to == catLong:
		b.Op(OpI2l)
	case from == catInt && to == catFloat:
		b.Op(OpI2f)
	case from == catInt && to == catDouble:
		b.Op(OpI2d)
	case from == catLong && to == catInt:
		b.Op(OpL2i)
	case from == catLong && to == catFloat:
		b.Op(OpL2f)
	case from == catLong && to == catDouble:
		b.Op(OpL2d)
	case from == catFloat && to == catInt:
		b.Op(OpF2i)
	case from == catFloat && to == catLong:
		b.Op(OpF2l)
	case from == catFloat && to == catDouble:
		b.Op(OpF2d)
	case from == catDouble && to == catInt:
		b.Op(OpD2i)
	case from == catDouble && to == catLong:
		b.Op(OpD2l)
	case from == catDouble && to == catFloat:
		b.Op(OpD2f)
	}
}

// narrowToPrimitive emits the extra truncation opcode a cast to byte, short
// or char needs after the value is already sitting in an int-sized slot.
func (mc *methodCtx) narrowToPrimitive(k bctypes.PrimitiveKind) {
	switch k {
	case bctypes.Byte:
		mc.b.Op(OpI2b)
	case bctypes.Char:
		mc.b.Op(OpI2c)
	case bctypes.Short:
		mc.b.Op(OpI2s)
	}
}

func isNumericPrimitive(t bctypes.Type) bool {
	return t.IsPrimitive() && t.IsNumeric()
}
