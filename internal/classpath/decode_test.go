package classpath

import (
	"testing"

	"github.com/aoki-yuta/javac8/internal/classfile"
)

func buildTestClass(t *testing.T) *classfile.Class {
	c := classfile.NewClass()
	c.AccessFlags = classfile.AccPublic | classfile.AccSuper
	c.ThisClass = c.Pool.Class("com/example/Greeter")
	c.SuperClass = c.Pool.Class("java/lang/Object")
	c.Fields = append(c.Fields, &classfile.Field{
		AccessFlags: classfile.AccPrivate,
		NameIdx:     c.Pool.Utf8("name"),
		DescIdx:     c.Pool.Utf8("Ljava/lang/String;"),
	})
	c.Methods = append(c.Methods, &classfile.Method{
		AccessFlags: classfile.AccPublic,
		NameIdx:     c.Pool.Utf8("greet"),
		DescIdx:     c.Pool.Utf8("(I)Ljava/lang/String;"),
	})
	return c
}

func TestDecodeRoundTrip(t *testing.T) {
	c := buildTestClass(t)
	data, err := c.ToBytes()
	if err != nil {
		t.Fatalf("ToBytes: %v", err)
	}
	rc, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if rc.Name != "com/example/Greeter" {
		t.Errorf("Name = %q", rc.Name)
	}
	if rc.SuperName != "java/lang/Object" {
		t.Errorf("SuperName = %q", rc.SuperName)
	}
	if len(rc.Fields) != 1 || rc.Fields[0].Name != "name" {
		t.Errorf("Fields = %+v", rc.Fields)
	}
	if len(rc.Methods) != 1 || rc.Methods[0].Name != "greet" {
		t.Errorf("Methods = %+v", rc.Methods)
	}
	if rc.Methods[0].Descriptor != "(I)Ljava/lang/String;" {
		t.Errorf("Descriptor = %q", rc.Methods[0].Descriptor)
	}
}

func TestSummarizeInProcessMatchesDecode(t *testing.T) {
	c := buildTestClass(t)
	viaSummarize := summarizeInProcess(c)

	data, err := c.ToBytes()
	if err != nil {
		t.Fatalf("ToBytes: %v", err)
	}
	viaDecode, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if viaSummarize.Name != viaDecode.Name || viaSummarize.SuperName != viaDecode.SuperName {
		t.Errorf("summarize/decode mismatch: %+v vs %+v", viaSummarize, viaDecode)
	}
}

func TestHashSourceDeterministic(t *testing.T) {
	a := HashSource([]byte("class Foo {}"))
	b := HashSource([]byte("class Foo {}"))
	if a != b {
		t.Errorf("hash not deterministic: %s vs %s", a, b)
	}
	c := HashSource([]byte("class Bar {}"))
	if a == c {
		t.Errorf("distinct inputs hashed to the same value")
	}
}
