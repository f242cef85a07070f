package classpath

import (
	"testing"

	"github.com/aoki-yuta/javac8/internal/classfile"
)

func buildTestClassNamed(internalName string) *classfile.Class {
	c := classfile.NewClass()
	c.AccessFlags = classfile.AccPublic | classfile.AccSuper
	c.ThisClass = c.Pool.Class(internalName)
	c.SuperClass = c.Pool.Class("java/lang/Object")
	return c
}

func TestClasspath_InProcessShadowsEntries(t *testing.T) {
	cp := New(nil)
	cp.AddEntry(stubEntry{name: "com/example/Greeter"})

	inProcess := buildTestClass(t)
	cp.RegisterInProcess("com/example/Greeter", inProcess)

	rc, ok, err := cp.Find("com/example/Greeter")
	if err != nil {
		t.Fatalf("Find returned error: %v", err)
	}
	if !ok {
		t.Fatal("expected the in-process class to resolve")
	}
	if len(rc.Methods) != 1 || rc.Methods[0].Name != "greet" {
		t.Errorf("Methods = %v, want one method named greet", rc.Methods)
	}
}

func TestClasspath_NotFound(t *testing.T) {
	cp := New(nil)
	_, ok, err := cp.Find("com/example/Nonexistent")
	if err != nil {
		t.Fatalf("Find returned error: %v", err)
	}
	if ok {
		t.Error("expected Find to report not-found for an unregistered class")
	}
}

func TestClasspath_AddEntryIsConsulted(t *testing.T) {
	cp := New(nil)
	cp.AddEntry(stubEntry{name: "com/example/FromEntry"})

	_, ok, err := cp.Find("com/example/FromEntry")
	if err != nil {
		t.Fatalf("Find returned error: %v", err)
	}
	if !ok {
		t.Error("expected a class added via AddEntry to resolve")
	}

	if _, ok, _ := cp.Find("com/example/NotInEntry"); ok {
		t.Error("expected a name the entry doesn't have to miss")
	}
}

// stubEntry is a minimal entrySource for exercising AddEntry without a
// real archive or directory on disk.
type stubEntry struct {
	name string
}

func (s stubEntry) Has(internalName string) bool { return internalName == s.name }

func (s stubEntry) Lookup(internalName string) (RawClass, bool, error) {
	if internalName != s.name {
		return RawClass{}, false, nil
	}
	c := buildTestClassNamed(s.name)
	data, err := c.ToBytes()
	if err != nil {
		return RawClass{}, false, err
	}
	return RawClass{Name: s.name, Bytes: data}, true, nil
}
