package classpath

import (
	"encoding/binary"
	"fmt"

	"github.com/aoki-yuta/javac8/internal/bctypes"
	"github.com/aoki-yuta/javac8/internal/classfile"
)

// ResolvedClass is the subset of a class file's structure the resolver
// needs: its name, superclass, interfaces, and member signatures. It is
// produced either by decoding archive/directory bytes (Decode) or by
// summarizing a class this compilation just produced in memory
// (summarizeInProcess) — callers never need to know which.
type ResolvedClass struct {
	Name        string
	AccessFlags uint16
	SuperName   string // "" for java/lang/Object itself
	Interfaces  []string
	Fields      []ResolvedField
	Methods     []ResolvedMethod
}

type ResolvedField struct {
	Name        string
	Type        bctypes.Type
	AccessFlags uint16
}

type ResolvedMethod struct {
	Name        string
	Descriptor  string
	Params      []bctypes.Type
	Return      bctypes.Type
	AccessFlags uint16
}

func (r *ResolvedClass) IsInterface() bool { return r.AccessFlags&classfile.AccInterface != 0 }

// reader walks a class file's byte layout sequentially.
type reader struct {
	data []byte
	pos  int
}

func (r *reader) u8() uint8 {
	v := r.data[r.pos]
	r.pos++
	return v
}

func (r *reader) u16() uint16 {
	v := binary.BigEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v
}

func (r *reader) u32() uint32 {
	v := binary.BigEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v
}

func (r *reader) skip(n int) { r.pos += n }

// poolEntry mirrors the on-disk shape of one constant pool slot just
// enough to resolve Utf8/Class/NameAndType/Fieldref/Methodref chains back
// to strings; it does not need the literal numeric constants' values.
type poolEntry struct {
	tag             uint8
	utf8            string
	nameIdx         uint16 // Class, String: points at a Utf8
	classIdx        uint16 // Fieldref/Methodref: points at a Class
	natIdx          uint16 // Fieldref/Methodref: points at a NameAndType
	descIdx         uint16 // NameAndType: points at a Utf8 descriptor
}

// Decode parses raw class file bytes into a ResolvedClass.
func Decode(data []byte) (*ResolvedClass, error) {
	r := &reader{data: data}
	magic := r.u32()
	if magic != classfile.Magic {
		return nil, fmt.Errorf("bad magic %#x", magic)
	}
	r.u16() // minor
	r.u16() // major

	count := int(r.u16())
	pool := make([]poolEntry, count) // index 0 unused
	for i := 1; i < count; i++ {
		tag := r.u8()
		pool[i].tag = tag
		switch tag {
		case classfile.TagUtf8:
			n := int(r.u16())
			pool[i].utf8 = string(r.data[r.pos : r.pos+n])
			r.skip(n)
		case classfile.TagInteger, classfile.TagFloat:
			r.skip(4)
		case classfile.TagLong, classfile.TagDouble:
			r.skip(8)
			i++ // occupies two slots
		case classfile.TagClass, classfile.TagString, classfile.TagMethodType:
			pool[i].nameIdx = r.u16()
		case classfile.TagFieldref, classfile.TagMethodref, classfile.TagInterfaceMethodref:
			pool[i].classIdx = r.u16()
			pool[i].natIdx = r.u16()
		case classfile.TagNameAndType:
			pool[i].nameIdx = r.u16()
			pool[i].descIdx = r.u16()
		case classfile.TagMethodHandle:
			r.skip(1)
			r.skip(2)
		case classfile.TagInvokeDynamic:
			r.skip(2)
			r.skip(2)
		default:
			return nil, fmt.Errorf("unknown constant pool tag %d at index %d", tag, i)
		}
	}

	utf8 := func(idx uint16) string { return pool[idx].utf8 }
	className := func(classIdx uint16) string { return utf8(pool[classIdx].nameIdx) }

	rc := &ResolvedClass{}
	rc.AccessFlags = r.u16()
	thisClassIdx := r.u16()
	superClassIdx := r.u16()
	rc.Name = className(thisClassIdx)
	if superClassIdx != 0 {
		rc.SuperName = className(superClassIdx)
	}

	ifaceCount := int(r.u16())
	for i := 0; i < ifaceCount; i++ {
		rc.Interfaces = append(rc.Interfaces, className(r.u16()))
	}

	fieldCount := int(r.u16())
	for i := 0; i < fieldCount; i++ {
		access := r.u16()
		nameIdx := r.u16()
		descIdx := r.u16()
		typ, _ := bctypes.ParseDescriptor(utf8(descIdx), 0)
		rc.Fields = append(rc.Fields, ResolvedField{Name: utf8(nameIdx), Type: typ, AccessFlags: access})
		skipAttributes(r)
	}

	methodCount := int(r.u16())
	for i := 0; i < methodCount; i++ {
		access := r.u16()
		nameIdx := r.u16()
		descIdx := r.u16()
		desc := utf8(descIdx)
		params, ret := bctypes.ParseMethodDescriptor(desc)
		rc.Methods = append(rc.Methods, ResolvedMethod{
			Name: utf8(nameIdx), Descriptor: desc, Params: params, Return: ret, AccessFlags: access,
		})
		skipAttributes(r)
	}
	return rc, nil
}

func skipAttributes(r *reader) {
	n := int(r.u16())
	for i := 0; i < n; i++ {
		r.u16() // name index
		length := r.u32()
		r.skip(int(length))
	}
}

// summarizeInProcess extracts the same ResolvedClass shape directly from
// an in-memory Class the current compilation produced, without a
// serialize/deserialize round trip.
func summarizeInProcess(c *classfile.Class) *ResolvedClass {
	rc := &ResolvedClass{AccessFlags: c.AccessFlags}
	rc.Name = poolClassName(c, c.ThisClass)
	if c.SuperClass != 0 {
		rc.SuperName = poolClassName(c, c.SuperClass)
	}
	for _, idx := range c.Interfaces {
		rc.Interfaces = append(rc.Interfaces, poolClassName(c, idx))
	}
	for _, f := range c.Fields {
		typ, _ := bctypes.ParseDescriptor(poolUtf8(c, f.DescIdx), 0)
		rc.Fields = append(rc.Fields, ResolvedField{
			Name: poolUtf8(c, f.NameIdx), Type: typ, AccessFlags: f.AccessFlags,
		})
	}
	for _, m := range c.Methods {
		desc := poolUtf8(c, m.DescIdx)
		params, ret := bctypes.ParseMethodDescriptor(desc)
		rc.Methods = append(rc.Methods, ResolvedMethod{
			Name: poolUtf8(c, m.NameIdx), Descriptor: desc, Params: params, Return: ret, AccessFlags: m.AccessFlags,
		})
	}
	return rc
}

// poolUtf8/poolClassName read back strings the generator itself just
// wrote into c.Pool, via Pool.Utf8At and Pool.ClassNameAt. Since the
// generator always calls Pool.Utf8/Pool.Class before recording an index
// anywhere in the Class, the index is guaranteed already present.
func poolUtf8(c *classfile.Class, idx uint16) string {
	return c.Pool.Utf8At(idx)
}

func poolClassName(c *classfile.Class, idx uint16) string {
	return c.Pool.ClassNameAt(idx)
}
