package classfile

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestConstantPoolDedup(t *testing.T) {
	p := NewConstantPool()
	a := p.Utf8("hello")
	b := p.Utf8("hello")
	if a != b {
		t.Errorf("expected dedup, got indices %d and %d", a, b)
	}
	c := p.Utf8("world")
	if c == a {
		t.Errorf("distinct strings should get distinct indices")
	}
}

func TestConstantPoolLongTakesTwoSlots(t *testing.T) {
	p := NewConstantPool()
	longIdx := p.Long(123456789)
	nextIdx := p.Utf8("after")
	if nextIdx != longIdx+2 {
		t.Errorf("expected next entry at %d, got %d", longIdx+2, nextIdx)
	}
}

func TestConstantPoolMethodref(t *testing.T) {
	p := NewConstantPool()
	idx := p.Methodref("java/lang/Object", "<init>", "()V")
	idx2 := p.Methodref("java/lang/Object", "<init>", "()V")
	if idx != idx2 {
		t.Errorf("expected methodref dedup")
	}
}

func TestClassFileHeader(t *testing.T) {
	c := NewClass()
	c.AccessFlags = AccPublic | AccSuper
	c.ThisClass = c.Pool.Class("Example")
	c.SuperClass = c.Pool.Class("java/lang/Object")

	data, err := c.ToBytes()
	if err != nil {
		t.Fatalf("ToBytes: %v", err)
	}
	if len(data) < 10 {
		t.Fatalf("class file too short: %d bytes", len(data))
	}
	magic := binary.BigEndian.Uint32(data[0:4])
	if magic != Magic {
		t.Errorf("magic = %#x, want %#x", magic, Magic)
	}
	major := binary.BigEndian.Uint16(data[6:8])
	if major != Java8Major {
		t.Errorf("major version = %d, want %d", major, Java8Major)
	}
}

func TestCodeAttributeBodyLength(t *testing.T) {
	pool := NewConstantPool()
	code := &CodeAttribute{
		Pool:      pool,
		MaxStack:  2,
		MaxLocals: 1,
		Code:      []byte{0xb1}, // return
	}
	body := code.AttrBody()
	var buf bytes.Buffer
	buf.Write(body)
	// max_stack, max_locals, code_length, code, exception_table_count,
	// attributes_count should all be present and well-formed.
	if len(body) < 8+len(code.Code)+2+2 {
		t.Fatalf("code attribute body too short: %d bytes", len(body))
	}
}

func TestBootstrapMethodsAttribute(t *testing.T) {
	attr := BootstrapMethodsAttribute{
		Methods: []BootstrapMethod{
			{MethodRefIdx: 5, Arguments: []uint16{1, 2, 3}},
		},
	}
	body := attr.AttrBody()
	if len(body) != 2+2+2+3*2 {
		t.Errorf("unexpected body length %d", len(body))
	}
}

func TestRuntimeVisibleAnnotationsAttribute(t *testing.T) {
	pool := NewConstantPool()
	entry := AnnotationEntry{
		TypeIdx: pool.Utf8("Ljava/lang/Deprecated;"),
		Values: []ElementValuePair{
			{NameIdx: pool.Utf8("value"), Tag: 's', ValIdx: pool.Utf8("x")},
		},
	}
	attr := RuntimeVisibleAnnotationsAttribute{Annotations: []AnnotationEntry{entry}}
	if attr.AttrName() != "RuntimeVisibleAnnotations" {
		t.Errorf("AttrName = %q", attr.AttrName())
	}
	body := attr.AttrBody()
	// num_annotations(2) + type_index(2) + num_pairs(2) + name_index(2) + tag(1) + val_index(2)
	if len(body) != 2+2+2+2+1+2 {
		t.Fatalf("unexpected body length %d: %x", len(body), body)
	}
	if binary.BigEndian.Uint16(body[0:2]) != 1 {
		t.Errorf("num_annotations = %d, want 1", binary.BigEndian.Uint16(body[0:2]))
	}
}

func TestRuntimeVisibleParameterAnnotationsAttribute(t *testing.T) {
	pool := NewConstantPool()
	annotated := AnnotationEntry{TypeIdx: pool.Utf8("Ljava/lang/Deprecated;")}
	attr := RuntimeVisibleParameterAnnotationsAttribute{
		ParameterAnnotations: [][]AnnotationEntry{{annotated}, nil},
	}
	body := attr.AttrBody()
	if body[0] != 2 {
		t.Fatalf("num_parameters = %d, want 2", body[0])
	}
	// parameter 0: num_annotations(2) + type_index(2) + num_pairs(2); parameter 1: num_annotations(2)
	if len(body) != 1+(2+2+2)+2 {
		t.Fatalf("unexpected body length %d: %x", len(body), body)
	}
}

// TestWriteIndexesAttributeNamesBeforePool is a regression test for the
// constant_pool_count/pool-vs-attribute-table ordering: every attribute
// name interned during attribute serialization must still land inside the
// written pool, so an independent reader can dereference every
// attribute_name_index the file contains.
func TestWriteIndexesAttributeNamesBeforePool(t *testing.T) {
	c := NewClass()
	c.AccessFlags = AccPublic | AccSuper
	c.ThisClass = c.Pool.Class("Example")
	c.SuperClass = c.Pool.Class("java/lang/Object")
	c.Attributes = append(c.Attributes, SourceFileAttribute{SourceFileIdx: c.Pool.Utf8("Example.java")})

	data, err := c.ToBytes()
	if err != nil {
		t.Fatalf("ToBytes: %v", err)
	}

	pos := 8 // magic(4) + minor(2) + major(2)
	count := binary.BigEndian.Uint16(data[pos:])
	pos += 2

	// Collect every Utf8 string actually present in the written pool.
	utf8s := make(map[string]bool)
	for i := 1; i < int(count); i++ {
		tag := data[pos]
		pos++
		switch tag {
		case TagUtf8:
			n := int(binary.BigEndian.Uint16(data[pos:]))
			pos += 2
			utf8s[string(data[pos:pos+n])] = true
			pos += n
		case TagClass, TagString, TagMethodType:
			pos += 2
		default:
			t.Fatalf("unexpected tag %d while walking pool", tag)
		}
	}
	if !utf8s["SourceFile"] {
		t.Fatalf("attribute name %q interned during writeAttributes was not present in the written pool; utf8s=%v", "SourceFile", utf8s)
	}
	if !utf8s["Example.java"] {
		t.Fatalf("SourceFile attribute's own value was not present in the written pool")
	}
}
