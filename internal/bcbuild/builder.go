package bcbuild

import (
	"fmt"

	"github.com/aoki-yuta/javac8/internal/bctypes"
	"github.com/aoki-yuta/javac8/internal/classfile"
)

// Label is an opaque forward/backward branch target. Callers obtain one
// from NewLabel and bind it to a byte offset with Bind; branch
// instructions emitted before the bind are patched once the offset is
// known.
type Label struct {
	id int
}

type patch struct {
	label Label
	at    int // offset of the operand to patch
	base  int // opcode address the branch offset is relative to
	wide  bool
}

// Builder accumulates the instruction stream of a single method body,
// tracking stack depth and local variable slot usage as it goes so that
// max_stack and max_locals fall out of emission instead of a separate
// data-flow pass.
type Builder struct {
	pool *classfile.ConstantPool

	code []byte

	curStack int
	maxStack int

	maxLocals int

	nextLabel int
	labelPos  map[int]int // label id -> bound offset, once known
	patches   []patch

	exceptions []classfile.ExceptionTableEntry
	lines      []classfile.LineNumberEntry
}

// New creates a builder that allocates constant pool entries against pool
// (the owning class's pool) as instructions reference literals and
// members.
func New(pool *classfile.ConstantPool) *Builder {
	return &Builder{
		pool:     pool,
		labelPos: make(map[int]int),
	}
}

// Pool exposes the constant pool the builder emits references against.
func (b *Builder) Pool() *classfile.ConstantPool { return b.pool }

// Offset returns the current bytecode offset, i.e. the offset the next
// emitted instruction will start at.
func (b *Builder) Offset() int { return len(b.code) }

// NewLabel allocates an unbound label.
func (b *Builder) NewLabel() Label {
	b.nextLabel++
	return Label{id: b.nextLabel}
}

// Bind fixes label at the current offset. Every branch emitted referencing
// label, whether before or after Bind, resolves to this offset.
func (b *Builder) Bind(l Label) {
	b.labelPos[l.id] = b.Offset()
}

// ReserveLocal bumps max_locals to account for a slot at index idx
// occupying width 1 or 2 words (2 for long/double).
func (b *Builder) ReserveLocal(idx int, width int) {
	if idx+width > b.maxLocals {
		b.maxLocals = idx + width
	}
}

// adjustStack applies a stack-unit delta and tracks the running maximum.
func (b *Builder) adjustStack(delta int) {
	b.curStack += delta
	if b.curStack < 0 {
		panic(fmt.Sprintf("bcbuild: stack underflow (depth %d)", b.curStack))
	}
	if b.curStack > b.maxStack {
		b.maxStack = b.curStack
	}
}

// CurrentStackDepth exposes the running stack depth, used by statement
// compilation when a control-flow merge point needs the depth reset (e.g.
// the top of a loop, or the start of a catch handler, where the JVM
// requires the operand stack to be in a known, fixed state).
func (b *Builder) CurrentStackDepth() int { return b.curStack }

// SetStackDepth forcibly resets the tracked depth, used when emission
// resumes at a label whose incoming stack depth is known by construction
// (catch handlers always start with exactly one value, the exception, on
// the stack).
func (b *Builder) SetStackDepth(depth int) { b.curStack = depth }

func (b *Builder) emitByte(v byte) { b.code = append(b.code, v) }

func (b *Builder) emitU16(v uint16) {
	b.code = append(b.code, byte(v>>8), byte(v))
}

func (b *Builder) emitU32(v uint32) {
	b.code = append(b.code, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// Op emits a zero-operand opcode with a statically known stack effect.
func (b *Builder) Op(op Op) {
	eff, ok := stackEffect[op]
	if !ok {
		panic(fmt.Sprintf("bcbuild: opcode %#x requires a typed emit helper, not Op()", op))
	}
	b.emitByte(byte(op))
	b.adjustStack(eff[1] - eff[0])
}

// rawOp emits the opcode byte with an explicit stack delta, for opcodes
// whose effect depends on operands (load/store families, field/method
// instructions).
func (b *Builder) rawOp(op Op, delta int) {
	b.emitByte(byte(op))
	b.adjustStack(delta)
}

// --- constants ---

// Iconst pushes an int constant using the most compact available form.
func (b *Builder) Iconst(v int32) {
	switch {
	case v >= -1 && v <= 5:
		b.Op(Op(int(OpIconst0) + int(v)))
	case v >= -128 && v <= 127:
		b.rawOp(OpBipush, 1)
		b.emitByte(byte(v))
	case v >= -32768 && v <= 32767:
		b.rawOp(OpSipush, 1)
		b.emitU16(uint16(int16(v)))
	default:
		idx := b.pool.Integer(v)
		b.ldc(idx, 1)
	}
}

func (b *Builder) Lconst(v int64) {
	if v == 0 {
		b.Op(OpLconst0)
		return
	}
	if v == 1 {
		b.Op(OpLconst1)
		return
	}
	idx := b.pool.Long(v)
	b.ldc2(idx)
}

func (b *Builder) Fconst(v float32) {
	switch v {
	case 0:
		b.Op(OpFconst0)
	case 1:
		b.Op(OpFconst1)
	case 2:
		b.Op(OpFconst2)
	default:
		idx := b.pool.Float(v)
		b.ldc(idx, 1)
	}
}

func (b *Builder) Dconst(v float64) {
	switch v {
	case 0:
		b.Op(OpDconst0)
	case 1:
		b.Op(OpDconst1)
	default:
		idx := b.pool.Double(v)
		b.ldc2(idx)
	}
}

func (b *Builder) AconstNull() { b.Op(OpAconstNull) }

// Ldc pushes a String, Class, or other single-slot constant pool entry.
func (b *Builder) Ldc(poolIdx uint16) { b.ldc(poolIdx, 1) }

func (b *Builder) ldc(poolIdx uint16, push int) {
	if poolIdx <= 0xff {
		b.rawOp(OpLdc, push)
		b.emitByte(byte(poolIdx))
	} else {
		b.rawOp(OpLdcW, push)
		b.emitU16(poolIdx)
	}
}

func (b *Builder) ldc2(poolIdx uint16) {
	b.rawOp(OpLdc2W, 2)
	b.emitU16(poolIdx)
}

// --- locals ---

// Load emits the typed load instruction for local slot idx, given the
// static type stored there.
func (b *Builder) Load(idx int, t bctypes.Type) {
	cat := t.Category()
	var base, fixed0, fixed1, fixed2, fixed3 Op
	switch {
	case t.IsReference():
		base, fixed0, fixed1, fixed2, fixed3 = OpAload, OpAload0, OpAload1, OpAload2, OpAload3
	case t.PrimitiveKindOrZero() == bctypes.Long:
		base, fixed0, fixed1, fixed2, fixed3 = OpLload, OpLload0, OpLload1, OpLload2, OpLload3
	case t.PrimitiveKindOrZero() == bctypes.Float:
		base, fixed0, fixed1, fixed2, fixed3 = OpFload, OpFload0, OpFload1, OpFload2, OpFload3
	case t.PrimitiveKindOrZero() == bctypes.Double:
		base, fixed0, fixed1, fixed2, fixed3 = OpDload, OpDload0, OpDload1, OpDload2, OpDload3
	default:
		base, fixed0, fixed1, fixed2, fixed3 = OpIload, OpIload0, OpIload1, OpIload2, OpIload3
	}
	b.emitIndexedLocalOp(idx, cat, base, fixed0, fixed1, fixed2, fixed3, cat)
}

// Store emits the typed store instruction for local slot idx.
func (b *Builder) Store(idx int, t bctypes.Type) {
	cat := t.Category()
	var base, fixed0, fixed1, fixed2, fixed3 Op
	switch {
	case t.IsReference():
		base, fixed0, fixed1, fixed2, fixed3 = OpAstore, OpAstore0, OpAstore1, OpAstore2, OpAstore3
	case t.PrimitiveKindOrZero() == bctypes.Long:
		base, fixed0, fixed1, fixed2, fixed3 = OpLstore, OpLstore0, OpLstore1, OpLstore2, OpLstore3
	case t.PrimitiveKindOrZero() == bctypes.Float:
		base, fixed0, fixed1, fixed2, fixed3 = OpFstore, OpFstore0, OpFstore1, OpFstore2, OpFstore3
	case t.PrimitiveKindOrZero() == bctypes.Double:
		base, fixed0, fixed1, fixed2, fixed3 = OpDstore, OpDstore0, OpDstore1, OpDstore2, OpDstore3
	default:
		base, fixed0, fixed1, fixed2, fixed3 = OpIstore, OpIstore0, OpIstore1, OpIstore2, OpIstore3
	}
	b.emitIndexedLocalOp(idx, -cat, base, fixed0, fixed1, fixed2, fixed3, cat)
}

func (b *Builder) emitIndexedLocalOp(idx int, delta int, base, f0, f1, f2, f3 Op, width int) {
	b.ReserveLocal(idx, width)
	switch idx {
	case 0:
		b.rawOp(f0, delta)
	case 1:
		b.rawOp(f1, delta)
	case 2:
		b.rawOp(f2, delta)
	case 3:
		b.rawOp(f3, delta)
	default:
		if idx <= 0xff {
			b.rawOp(base, delta)
			b.emitByte(byte(idx))
		} else {
			b.emitByte(byte(OpWide))
			b.emitByte(byte(base))
			b.emitU16(uint16(idx))
			b.adjustStack(delta)
		}
	}
}

// Iinc emits the local-variable increment instruction.
func (b *Builder) Iinc(idx int, delta int8) {
	b.ReserveLocal(idx, 1)
	if idx <= 0xff {
		b.emitByte(byte(OpIinc))
		b.emitByte(byte(idx))
		b.emitByte(byte(delta))
	} else {
		b.emitByte(byte(OpWide))
		b.emitByte(byte(OpIinc))
		b.emitU16(uint16(idx))
		b.emitU16(uint16(int16(delta)))
	}
}

// --- fields and methods ---

func (b *Builder) GetStatic(className, name string, t bctypes.Type) {
	idx := b.pool.Fieldref(className, name, t.Descriptor())
	b.rawOp(OpGetstatic, t.Category())
	b.emitU16(idx)
}

func (b *Builder) PutStatic(className, name string, t bctypes.Type) {
	idx := b.pool.Fieldref(className, name, t.Descriptor())
	b.rawOp(OpPutstatic, -t.Category())
	b.emitU16(idx)
}

func (b *Builder) GetField(className, name string, t bctypes.Type) {
	idx := b.pool.Fieldref(className, name, t.Descriptor())
	b.rawOp(OpGetfield, t.Category()-1)
	b.emitU16(idx)
}

func (b *Builder) PutField(className, name string, t bctypes.Type) {
	idx := b.pool.Fieldref(className, name, t.Descriptor())
	b.rawOp(OpPutfield, -t.Category()-1)
	b.emitU16(idx)
}

func invokeDelta(params []bctypes.Type, ret bctypes.Type, hasReceiver bool) int {
	pop := 0
	for _, p := range params {
		pop += p.Category()
	}
	if hasReceiver {
		pop++
	}
	push := 0
	if !ret.IsVoid() {
		push = ret.Category()
	}
	return push - pop
}

func (b *Builder) InvokeVirtual(className, name, descriptor string, params []bctypes.Type, ret bctypes.Type) {
	idx := b.pool.Methodref(className, name, descriptor)
	b.rawOp(OpInvokevirtual, invokeDelta(params, ret, true))
	b.emitU16(idx)
}

func (b *Builder) InvokeSpecial(className, name, descriptor string, params []bctypes.Type, ret bctypes.Type) {
	idx := b.pool.Methodref(className, name, descriptor)
	b.rawOp(OpInvokespecial, invokeDelta(params, ret, true))
	b.emitU16(idx)
}

func (b *Builder) InvokeStatic(className, name, descriptor string, params []bctypes.Type, ret bctypes.Type) {
	idx := b.pool.Methodref(className, name, descriptor)
	b.rawOp(OpInvokestatic, invokeDelta(params, ret, false))
	b.emitU16(idx)
}

func (b *Builder) InvokeInterface(className, name, descriptor string, params []bctypes.Type, ret bctypes.Type) {
	idx := b.pool.InterfaceMethodref(className, name, descriptor)
	argCount := 1
	for _, p := range params {
		argCount += p.Category()
	}
	b.rawOp(OpInvokeinterface, invokeDelta(params, ret, true))
	b.emitU16(idx)
	b.emitByte(byte(argCount))
	b.emitByte(0)
}

// InvokeDynamic emits an invokedynamic call site for a lambda or other
// call-site factory. bootstrapIdx indexes the class's BootstrapMethods
// attribute.
func (b *Builder) InvokeDynamic(bootstrapIdx uint16, name, descriptor string, params []bctypes.Type, ret bctypes.Type) {
	idx := b.pool.InvokeDynamic(bootstrapIdx, name, descriptor)
	b.rawOp(OpInvokedynamic, invokeDelta(params, ret, false))
	b.emitU16(idx)
	b.emitU16(0)
}

// --- objects and arrays ---

func (b *Builder) New(className string) {
	idx := b.pool.Class(className)
	b.rawOp(OpNew, 1)
	b.emitU16(idx)
}

func (b *Builder) Newarray(elemType bctypes.PrimitiveKind) {
	code := map[bctypes.PrimitiveKind]byte{
		bctypes.Boolean: ArrayTypeBoolean, bctypes.Char: ArrayTypeChar,
		bctypes.Float: ArrayTypeFloat, bctypes.Double: ArrayTypeDouble,
		bctypes.Byte: ArrayTypeByte, bctypes.Short: ArrayTypeShort,
		bctypes.Int: ArrayTypeInt, bctypes.Long: ArrayTypeLong,
	}[elemType]
	b.Op(OpNewarray)
	b.emitByte(code)
}

func (b *Builder) Anewarray(className string) {
	idx := b.pool.Class(className)
	b.Op(OpAnewarray)
	b.emitU16(idx)
}

func (b *Builder) Multianewarray(arrayClassName string, dims int) {
	idx := b.pool.Class(arrayClassName)
	b.emitByte(byte(OpMultianewarray))
	b.adjustStack(1 - dims)
	b.emitU16(idx)
	b.emitByte(byte(dims))
}

func (b *Builder) Checkcast(className string) {
	idx := b.pool.Class(className)
	b.Op(OpCheckcast)
	b.emitU16(idx)
}

func (b *Builder) Instanceof(className string) {
	idx := b.pool.Class(className)
	b.Op(OpInstanceof)
	b.emitU16(idx)
}

// --- array load/store by element category ---

func (b *Builder) ArrayLoad(elem bctypes.Type) {
	switch {
	case elem.IsReference():
		b.Op(OpAaload)
	case elem.Equal(bctypes.LongType):
		b.Op(OpLaload)
	case elem.Equal(bctypes.FloatType):
		b.Op(OpFaload)
	case elem.Equal(bctypes.DoubleType):
		b.Op(OpDaload)
	case elem.Equal(bctypes.ByteType), elem.Equal(bctypes.BooleanType):
		b.Op(OpBaload)
	case elem.Equal(bctypes.CharType):
		b.Op(OpCaload)
	case elem.Equal(bctypes.ShortType):
		b.Op(OpSaload)
	default:
		b.Op(OpIaload)
	}
}

func (b *Builder) ArrayStore(elem bctypes.Type) {
	switch {
	case elem.IsReference():
		b.Op(OpAastore)
	case elem.Equal(bctypes.LongType):
		b.Op(OpLastore)
	case elem.Equal(bctypes.FloatType):
		b.Op(OpFastore)
	case elem.Equal(bctypes.DoubleType):
		b.Op(OpDastore)
	case elem.Equal(bctypes.ByteType), elem.Equal(bctypes.BooleanType):
		b.Op(OpBastore)
	case elem.Equal(bctypes.CharType):
		b.Op(OpCastore)
	case elem.Equal(bctypes.ShortType):
		b.Op(OpSastore)
	default:
		b.Op(OpIastore)
	}
}

// --- returns ---

func (b *Builder) Return(t bctypes.Type) {
	switch {
	case t.IsVoid():
		b.Op(OpReturn)
	case t.IsReference():
		b.Op(OpAreturn)
	case t.Equal(bctypes.LongType):
		b.Op(OpLreturn)
	case t.Equal(bctypes.FloatType):
		b.Op(OpFreturn)
	case t.Equal(bctypes.DoubleType):
		b.Op(OpDreturn)
	default:
		b.Op(OpIreturn)
	}
}

// --- branches ---

// branch emits a two-byte-offset conditional/unconditional jump opcode
// and registers a patch for l's eventual offset.
func (b *Builder) branch(op Op, l Label) {
	eff := stackEffect[op]
	opcodeAddr := len(b.code)
	b.emitByte(byte(op))
	b.adjustStack(eff[1] - eff[0])
	at := len(b.code)
	b.emitU16(0) // placeholder
	b.patches = append(b.patches, patch{label: l, at: at, base: opcodeAddr})
}

func (b *Builder) Goto(l Label)      { b.branch(OpGoto, l) }
func (b *Builder) IfEq(l Label)      { b.branch(OpIfeq, l) }
func (b *Builder) IfNe(l Label)      { b.branch(OpIfne, l) }
func (b *Builder) IfLt(l Label)      { b.branch(OpIflt, l) }
func (b *Builder) IfGe(l Label)      { b.branch(OpIfge, l) }
func (b *Builder) IfGt(l Label)      { b.branch(OpIfgt, l) }
func (b *Builder) IfLe(l Label)      { b.branch(OpIfle, l) }
func (b *Builder) IfICmpEq(l Label)  { b.branch(OpIfIcmpeq, l) }
func (b *Builder) IfICmpNe(l Label)  { b.branch(OpIfIcmpne, l) }
func (b *Builder) IfICmpLt(l Label)  { b.branch(OpIfIcmplt, l) }
func (b *Builder) IfICmpGe(l Label)  { b.branch(OpIfIcmpge, l) }
func (b *Builder) IfICmpGt(l Label)  { b.branch(OpIfIcmpgt, l) }
func (b *Builder) IfICmpLe(l Label)  { b.branch(OpIfIcmple, l) }
func (b *Builder) IfACmpEq(l Label)  { b.branch(OpIfAcmpeq, l) }
func (b *Builder) IfACmpNe(l Label)  { b.branch(OpIfAcmpne, l) }
func (b *Builder) IfNull(l Label)    { b.branch(OpIfnull, l) }
func (b *Builder) IfNonNull(l Label) { b.branch(OpIfnonnull, l) }

// Comparisons that push an int comparison result rather than branching.
func (b *Builder) Lcmp()  { b.Op(OpLcmp) }
func (b *Builder) Fcmpl() { b.Op(OpFcmpl) }
func (b *Builder) Fcmpg() { b.Op(OpFcmpg) }
func (b *Builder) Dcmpl() { b.Op(OpDcmpl) }
func (b *Builder) Dcmpg() { b.Op(OpDcmpg) }

// Tableswitch emits a dense integer switch, one target per contiguous key
// from low to high, plus a default target.
func (b *Builder) Tableswitch(low, high int32, targets []Label, def Label) {
	opcodeAddr := len(b.code)
	b.emitByte(byte(OpTableswitch))
	b.adjustStack(-1)
	start := len(b.code)
	pad := (4 - (start % 4)) % 4
	for i := 0; i < pad; i++ {
		b.emitByte(0)
	}
	defAt := len(b.code)
	b.emitU32(0)
	b.patches = append(b.patches, patch{label: def, at: defAt, base: opcodeAddr, wide: true})
	b.emitU32(uint32(low))
	b.emitU32(uint32(high))
	for _, t := range targets {
		at := len(b.code)
		b.emitU32(0)
		b.patches = append(b.patches, patch{label: t, at: at, base: opcodeAddr, wide: true})
	}
}

// Lookupswitch emits a sparse integer/enum-ordinal switch. keys must be
// sorted ascending, matching targets 1:1.
func (b *Builder) Lookupswitch(keys []int32, targets []Label, def Label) {
	opcodeAddr := len(b.code)
	b.emitByte(byte(OpLookupswitch))
	b.adjustStack(-1)
	start := len(b.code)
	pad := (4 - (start % 4)) % 4
	for i := 0; i < pad; i++ {
		b.emitByte(0)
	}
	defAt := len(b.code)
	b.emitU32(0)
	b.patches = append(b.patches, patch{label: def, at: defAt, base: opcodeAddr, wide: true})
	b.emitU32(uint32(len(keys)))
	for i, k := range keys {
		b.emitU32(uint32(k))
		at := len(b.code)
		b.emitU32(0)
		b.patches = append(b.patches, patch{label: targets[i], at: at, base: opcodeAddr, wide: true})
	}
}

// --- exceptions ---

func (b *Builder) Athrow() { b.Op(OpAthrow) }

// AddExceptionHandler registers a range [start,end) whose exceptions of
// catchType (0 for catch-all, used by inlined finally blocks) transfer
// control to handler.
func (b *Builder) AddExceptionHandler(start, end, handler int, catchType uint16) {
	b.exceptions = append(b.exceptions, classfile.ExceptionTableEntry{
		StartPC:   uint16(start),
		EndPC:     uint16(end),
		HandlerPC: uint16(handler),
		CatchType: catchType,
	})
}

// LabelOffset returns a bound label's resolved offset, used by callers
// that need to record exception table boundaries referencing labels
// directly.
func (b *Builder) LabelOffset(l Label) int {
	off, ok := b.labelPos[l.id]
	if !ok {
		panic("bcbuild: label used before being bound")
	}
	return off
}

// MarkLine records a source-line mapping for the instruction about to be
// emitted at the current offset.
func (b *Builder) MarkLine(line int) {
	b.lines = append(b.lines, classfile.LineNumberEntry{StartPC: uint16(b.Offset()), Line: uint16(line)})
}

// Finish resolves every pending branch patch and returns the completed
// Code attribute. No further instructions may be emitted afterward.
func (b *Builder) Finish() *classfile.CodeAttribute {
	for _, p := range b.patches {
		target, ok := b.labelPos[p.label.id]
		if !ok {
			panic("bcbuild: branch to unbound label")
		}
		offset := target - p.base // relative to the branch instruction's own opcode address
		if p.wide {
			writeU32At(b.code, p.at, uint32(int32(offset)))
		} else {
			writeU16At(b.code, p.at, uint16(int16(offset)))
		}
	}
	return &classfile.CodeAttribute{
		Pool:           b.pool,
		MaxStack:       uint16(b.maxStack),
		MaxLocals:      uint16(b.maxLocals),
		Code:           b.code,
		ExceptionTable: b.exceptions,
		LineNumbers:    b.lines,
	}
}

func writeU16At(code []byte, at int, v uint16) {
	code[at] = byte(v >> 8)
	code[at+1] = byte(v)
}

func writeU32At(code []byte, at int, v uint32) {
	code[at] = byte(v >> 24)
	code[at+1] = byte(v >> 16)
	code[at+2] = byte(v >> 8)
	code[at+3] = byte(v)
}
