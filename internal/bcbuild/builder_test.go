package bcbuild

import (
	"testing"

	"github.com/aoki-yuta/javac8/internal/bctypes"
	"github.com/aoki-yuta/javac8/internal/classfile"
)

func TestIconstPicksCompactForm(t *testing.T) {
	b := New(classfile.NewConstantPool())
	b.Iconst(3)
	code := b.Finish().Code
	if len(code) != 1 || code[0] != byte(OpIconst3) {
		t.Errorf("expected single-byte iconst_3, got %v", code)
	}
}

func TestMaxStackTracksPeak(t *testing.T) {
	b := New(classfile.NewConstantPool())
	b.Iconst(1)
	b.Iconst(2)
	b.Op(OpIadd)
	attr := b.Finish()
	if attr.MaxStack != 2 {
		t.Errorf("MaxStack = %d, want 2", attr.MaxStack)
	}
}

func TestLoadStoreReservesLocals(t *testing.T) {
	b := New(classfile.NewConstantPool())
	b.Iconst(5)
	b.Store(3, bctypes.IntType)
	b.Load(3, bctypes.IntType)
	attr := b.Finish()
	if attr.MaxLocals != 4 {
		t.Errorf("MaxLocals = %d, want 4", attr.MaxLocals)
	}
}

func TestLongLocalReservesTwoSlots(t *testing.T) {
	b := New(classfile.NewConstantPool())
	b.Lconst(1)
	b.Store(0, bctypes.LongType)
	attr := b.Finish()
	if attr.MaxLocals != 2 {
		t.Errorf("MaxLocals = %d, want 2", attr.MaxLocals)
	}
}

func TestForwardBranchPatchesCorrectOffset(t *testing.T) {
	b := New(classfile.NewConstantPool())
	end := b.NewLabel()
	b.Iconst(1)
	b.IfEq(end) // opcode at offset 1, operand at offset 2
	b.Iconst(2)
	b.Bind(end)
	b.Op(OpReturn)
	code := b.Finish().Code

	// ifeq at index 1: opcode byte, then 2-byte offset at index 2-3.
	if Op(code[1]) != OpIfeq {
		t.Fatalf("expected ifeq at index 1, got %#x", code[1])
	}
	offset := int16(uint16(code[2])<<8 | uint16(code[3]))
	targetAddr := 1 + int(offset)
	if targetAddr != len(code)-1 { // return is the last byte, bound label's offset
		t.Errorf("branch target = %d, want %d", targetAddr, len(code)-1)
	}
}

func TestBackwardBranchPatchesNegativeOffset(t *testing.T) {
	b := New(classfile.NewConstantPool())
	top := b.NewLabel()
	b.Bind(top)
	b.Iconst(0)
	b.Op(OpPop)
	b.Goto(top)
	code := b.Finish().Code

	gotoAddr := len(code) - 3
	offset := int16(uint16(code[gotoAddr+1])<<8 | uint16(code[gotoAddr+2]))
	if gotoAddr+int(offset) != 0 {
		t.Errorf("backward branch target = %d, want 0", gotoAddr+int(offset))
	}
}

func TestInvokeVirtualStackDelta(t *testing.T) {
	pool := classfile.NewConstantPool()
	b := New(pool)
	b.AconstNull() // receiver
	b.Iconst(1)    // one int arg
	b.InvokeVirtual("java/lang/Object", "foo", "(I)I", []bctypes.Type{bctypes.IntType}, bctypes.IntType)
	attr := b.Finish()
	if attr.MaxStack != 2 {
		t.Errorf("MaxStack = %d, want 2", attr.MaxStack)
	}
}

func TestTableswitchAlignment(t *testing.T) {
	b := New(classfile.NewConstantPool())
	b.Iconst(0) // push selector, offset 0-0, opcode at 1
	a, c, def := b.NewLabel(), b.NewLabel(), b.NewLabel()
	b.Tableswitch(0, 1, []Label{a, c}, def)
	b.Bind(a)
	b.Op(OpReturn)
	b.Bind(c)
	b.Op(OpReturn)
	b.Bind(def)
	b.Op(OpReturn)
	code := b.Finish().Code
	// tableswitch opcode is at index 1 (after the 1-byte iconst_0).
	opcodeAddr := 1
	afterOpcode := opcodeAddr + 1
	pad := (4 - afterOpcode%4) % 4
	defAt := afterOpcode + pad
	if defAt%4 != 0 {
		t.Errorf("default offset field not 4-aligned: at %d", defAt)
	}
	_ = code
}
