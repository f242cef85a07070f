package classfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const Magic = 0xCAFEBABE

// Major version numbers for the class file versions this package targets.
const (
	Java6Major = 50
	Java7Major = 51
	Java8Major = 52
)

// Access flags, per JVM spec Table 4.1-A and friends. Not every flag is
// legal on every structure; callers combine the ones that apply.
const (
	AccPublic       = 0x0001
	AccPrivate      = 0x0002
	AccProtected    = 0x0004
	AccStatic       = 0x0008
	AccFinal        = 0x0010
	AccSuper        = 0x0020
	AccSynchronized = 0x0020
	AccVolatile     = 0x0040
	AccBridge       = 0x0040
	AccTransient    = 0x0080
	AccVarargs      = 0x0080
	AccNative       = 0x0100
	AccInterface    = 0x0200
	AccAbstract     = 0x0400
	AccStrict       = 0x0800
	AccSynthetic    = 0x1000
	AccAnnotation   = 0x2000
	AccEnum         = 0x4000
)

// Class is the in-memory model of one class file, built up by the code
// generator and serialized by Write.
type Class struct {
	MinorVersion uint16
	MajorVersion uint16

	Pool *ConstantPool

	AccessFlags uint16
	ThisClass   uint16 // constant pool index
	SuperClass  uint16 // 0 for java/lang/Object itself

	Interfaces []uint16

	Fields  []*Field
	Methods []*Method

	Attributes []Attribute
}

// NewClass allocates a Class with a fresh constant pool and Java 8 version
// numbers, ready for the generator to populate.
func NewClass() *Class {
	return &Class{
		MinorVersion: 0,
		MajorVersion: Java8Major,
		Pool:         NewConstantPool(),
	}
}

// Field is one entry of the fields table.
type Field struct {
	AccessFlags uint16
	NameIdx     uint16
	DescIdx     uint16
	Attributes  []Attribute
}

// Method is one entry of the methods table.
type Method struct {
	AccessFlags uint16
	NameIdx     uint16
	DescIdx     uint16
	Attributes  []Attribute
}

// Attribute is anything that can serialize itself into an attribute_info
// entry (name index resolved against the owning class's pool, plus a
// length-prefixed payload).
type Attribute interface {
	AttrName() string
	AttrBody() []byte
}

// rawAttribute wraps an already-encoded payload under a given name; used by
// attribute builders in attributes.go so Class/Field/Method need not know
// about each attribute kind's internals.
type rawAttribute struct {
	name string
	body []byte
}

func (a rawAttribute) AttrName() string { return a.name }
func (a rawAttribute) AttrBody() []byte { return a.body }

func writeAttributes(buf *bytes.Buffer, pool *ConstantPool, attrs []Attribute) error {
	if err := binary.Write(buf, binary.BigEndian, uint16(len(attrs))); err != nil {
		return err
	}
	for _, a := range attrs {
		nameIdx := pool.Utf8(a.AttrName())
		body := a.AttrBody()
		if err := binary.Write(buf, binary.BigEndian, nameIdx); err != nil {
			return err
		}
		if err := binary.Write(buf, binary.BigEndian, uint32(len(body))); err != nil {
			return err
		}
		buf.Write(body)
	}
	return nil
}

// Write serializes the complete class file in JVM binary layout.
//
// The body (everything from access_flags through the class attribute
// table) is rendered into a scratch buffer first, because writeAttributes
// interns attribute names ("Code", "SourceFile", "BootstrapMethods", ...)
// into the pool lazily, on first use. Writing constant_pool_count and the
// pool bytes before that pass ran would leave those interned entries
// unwritten while attribute_name_index fields still pointed past the end
// of the serialized pool.
func (c *Class) Write(buf *bytes.Buffer) error {
	var body bytes.Buffer
	if err := binary.Write(&body, binary.BigEndian, c.AccessFlags); err != nil {
		return err
	}
	if err := binary.Write(&body, binary.BigEndian, c.ThisClass); err != nil {
		return err
	}
	if err := binary.Write(&body, binary.BigEndian, c.SuperClass); err != nil {
		return err
	}
	if err := binary.Write(&body, binary.BigEndian, uint16(len(c.Interfaces))); err != nil {
		return err
	}
	for _, iface := range c.Interfaces {
		if err := binary.Write(&body, binary.BigEndian, iface); err != nil {
			return err
		}
	}
	if err := binary.Write(&body, binary.BigEndian, uint16(len(c.Fields))); err != nil {
		return err
	}
	for _, f := range c.Fields {
		if err := writeMember(&body, c.Pool, f.AccessFlags, f.NameIdx, f.DescIdx, f.Attributes); err != nil {
			return fmt.Errorf("writing field: %w", err)
		}
	}
	if err := binary.Write(&body, binary.BigEndian, uint16(len(c.Methods))); err != nil {
		return err
	}
	for _, m := range c.Methods {
		if err := writeMember(&body, c.Pool, m.AccessFlags, m.NameIdx, m.DescIdx, m.Attributes); err != nil {
			return fmt.Errorf("writing method: %w", err)
		}
	}
	if err := writeAttributes(&body, c.Pool, c.Attributes); err != nil {
		return err
	}

	if err := binary.Write(buf, binary.BigEndian, uint32(Magic)); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.BigEndian, c.MinorVersion); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.BigEndian, c.MajorVersion); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.BigEndian, c.Pool.Count()); err != nil {
		return err
	}
	if err := c.Pool.Write(buf); err != nil {
		return fmt.Errorf("writing constant pool: %w", err)
	}
	_, err := body.WriteTo(buf)
	return err
}

func writeMember(buf *bytes.Buffer, pool *ConstantPool, access, nameIdx, descIdx uint16, attrs []Attribute) error {
	if err := binary.Write(buf, binary.BigEndian, access); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.BigEndian, nameIdx); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.BigEndian, descIdx); err != nil {
		return err
	}
	return writeAttributes(buf, pool, attrs)
}

// ToBytes renders the class file to a byte slice.
func (c *Class) ToBytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
