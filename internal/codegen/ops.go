package codegen

import "github.com/aoki-yuta/javac8/internal/bcbuild"

// Local, unqualified names for the bcbuild opcodes the expression and
// statement compilers pass to Builder.Op. Builder itself owns dedicated
// methods for anything that needs an operand (branches, loads, field and
// method references); these are only the bare, operand-less instructions.
const (
	OpPop   = bcbuild.OpPop
	OpPop2  = bcbuild.OpPop2
	OpDup   = bcbuild.OpDup
	OpDupX1 = bcbuild.OpDupX1
	OpDupX2 = bcbuild.OpDupX2
	OpDup2  = bcbuild.OpDup2
	OpDup2X1 = bcbuild.OpDup2X1
	OpDup2X2 = bcbuild.OpDup2X2
	OpSwap  = bcbuild.OpSwap

	OpIadd = bcbuild.OpIadd
	OpLadd = bcbuild.OpLadd
	OpFadd = bcbuild.OpFadd
	OpDadd = bcbuild.OpDadd
	OpIsub = bcbuild.OpIsub
	OpLsub = bcbuild.OpLsub
	OpFsub = bcbuild.OpFsub
	OpDsub = bcbuild.OpDsub
	OpImul = bcbuild.OpImul
	OpLmul = bcbuild.OpLmul
	OpFmul = bcbuild.OpFmul
	OpDmul = bcbuild.OpDmul
	OpIdiv = bcbuild.OpIdiv
	OpLdiv = bcbuild.OpLdiv
	OpFdiv = bcbuild.OpFdiv
	OpDdiv = bcbuild.OpDdiv
	OpIrem = bcbuild.OpIrem
	OpLrem = bcbuild.OpLrem
	OpFrem = bcbuild.OpFrem
	OpDrem = bcbuild.OpDrem
	OpIneg = bcbuild.OpIneg
	OpLneg = bcbuild.OpLneg
	OpFneg = bcbuild.OpFneg
	OpDneg = bcbuild.OpDneg

	OpIshl  = bcbuild.OpIshl
	OpLshl  = bcbuild.OpLshl
	OpIshr  = bcbuild.OpIshr
	OpLshr  = bcbuild.OpLshr
	OpIushr = bcbuild.OpIushr
	OpLushr = bcbuild.OpLushr
	OpIand  = bcbuild.OpIand
	OpLand  = bcbuild.OpLand
	OpIor   = bcbuild.OpIor
	OpLor   = bcbuild.OpLor
	OpIxor  = bcbuild.OpIxor
	OpLxor  = bcbuild.OpLxor

	OpI2l = bcbuild.OpI2l
	OpI2f = bcbuild.OpI2f
	OpI2d = bcbuild.OpI2d
	OpL2i = bcbuild.OpL2i
	OpL2f = bcbuild.OpL2f
	OpL2d = bcbuild.OpL2d
	OpF2i = bcbuild.OpF2i
	OpF2l = bcbuild.OpF2l
	OpF2d = bcbuild.OpF2d
	OpD2i = bcbuild.OpD2i
	OpD2l = bcbuild.OpD2l
	OpD2f = bcbuild.OpD2f
	OpI2b = bcbuild.OpI2b
	OpI2c = bcbuild.OpI2c
	OpI2s = bcbuild.OpI2s

	OpArraylength = bcbuild.OpArraylength
)
