package codegen

import (
	"testing"

	"github.com/aoki-yuta/javac8/internal/classfile"
	"github.com/aoki-yuta/javac8/internal/classpath"
	"github.com/aoki-yuta/javac8/internal/parser"
)

// newObjectOnlyClasspath returns a classpath whose only registered class
// is a minimal java/lang/Object, enough for every class compiled in these
// tests to resolve its implicit superclass and default constructor call.
func newObjectOnlyClasspath() *classpath.Classpath {
	cp := classpath.New(nil)
	object := classfile.NewClass()
	object.AccessFlags = classfile.AccPublic | classfile.AccSuper
	object.ThisClass = object.Pool.Class("java/lang/Object")
	object.Methods = append(object.Methods, &classfile.Method{
		AccessFlags: classfile.AccPublic,
		NameIdx:     object.Pool.Utf8("<init>"),
		DescIdx:     object.Pool.Utf8("()V"),
	})
	cp.RegisterInProcess("java/lang/Object", object)
	return cp
}

func compileSource(t *testing.T, source string) []CompiledClass {
	t.Helper()
	p := parser.New(source, "Test.java")
	file := p.Parse()
	if p.HasErrors() {
		for _, e := range p.Errors() {
			t.Fatalf("parse error: %v", e)
		}
	}

	gen := NewGenerator(newObjectOnlyClasspath())
	classes, errs := gen.CompileFile(file)
	for _, err := range errs {
		t.Fatalf("compile error: %v", err)
	}
	return classes
}

// decodeCompiled re-parses one compiled class's bytes through
// classpath.Decode, the same summarizing decoder the resolver itself
// uses against classpath entries, so these tests exercise the same
// round trip a second file compiled against the first one would.
func decodeCompiled(t *testing.T, classes []CompiledClass, internalName string) *classpath.ResolvedClass {
	t.Helper()
	for _, cc := range classes {
		if cc.InternalName == internalName {
			rc, err := classpath.Decode(cc.Bytes)
			if err != nil {
				t.Fatalf("decoding %s: %v", internalName, err)
			}
			return rc
		}
	}
	t.Fatalf("no compiled class named %q", internalName)
	return nil
}

func findResolvedMethod(t *testing.T, c *classpath.ResolvedClass, name string) classpath.ResolvedMethod {
	t.Helper()
	for _, m := range c.Methods {
		if m.Name == name {
			return m
		}
	}
	t.Fatalf("no method named %q in compiled class %s", name, c.Name)
	return classpath.ResolvedMethod{}
}

func TestCompileClassWithConstructorAndFieldAccessors(t *testing.T) {
	source := `
class Counter {
    private int value;

    Counter(int start) {
        this.value = start;
    }

    int get() {
        return this.value;
    }

    static int zero() {
        return 0;
    }
}
`
	classes := compileSource(t, source)
	if len(classes) != 1 {
		t.Fatalf("got %d compiled classes, want 1", len(classes))
	}

	c := decodeCompiled(t, classes, "Counter")

	ctor := findResolvedMethod(t, c, "<init>")
	if ctor.Descriptor != "(I)V" {
		t.Errorf("constructor descriptor = %q, want (I)V", ctor.Descriptor)
	}

	get := findResolvedMethod(t, c, "get")
	if get.Descriptor != "()I" {
		t.Errorf("get descriptor = %q, want ()I", get.Descriptor)
	}

	zero := findResolvedMethod(t, c, "zero")
	if zero.AccessFlags&classfile.AccStatic == 0 {
		t.Error("zero() should be static")
	}

	if len(c.Fields) != 1 || c.Fields[0].Name != "value" {
		t.Errorf("Fields = %v, want a single field named value", c.Fields)
	}
}

func TestCompileInterfaceImplicitModifiers(t *testing.T) {
	source := `
interface Greeter {
    String PREFIX = "Hello, ";

    String greet(String name);
}
`
	classes := compileSource(t, source)
	c := decodeCompiled(t, classes, "Greeter")

	if !c.IsInterface() {
		t.Error("expected the interface access flag to be set")
	}

	var field *classpath.ResolvedField
	for i, f := range c.Fields {
		if f.Name == "PREFIX" {
			field = &c.Fields[i]
		}
	}
	if field == nil {
		t.Fatal("expected a PREFIX field")
	}
	want := uint16(classfile.AccPublic | classfile.AccStatic | classfile.AccFinal)
	if field.AccessFlags&want != want {
		t.Errorf("PREFIX access flags = %#x, want public static final bits set", field.AccessFlags)
	}

	greet := findResolvedMethod(t, c, "greet")
	if greet.AccessFlags&classfile.AccPublic == 0 {
		t.Error("expected an implicit interface method to be public")
	}
}

func TestCompileEnumValuesAndValueOf(t *testing.T) {
	source := `
enum Direction {
    NORTH, SOUTH, EAST, WEST
}
`
	classes := compileSource(t, source)
	c := decodeCompiled(t, classes, "Direction")

	values := findResolvedMethod(t, c, "values")
	if values.Descriptor != "()[LDirection;" {
		t.Errorf("values() descriptor = %q, want ()[LDirection;", values.Descriptor)
	}

	valueOf := findResolvedMethod(t, c, "valueOf")
	if valueOf.Descriptor != "(Ljava/lang/String;)LDirection;" {
		t.Errorf("valueOf() descriptor = %q", valueOf.Descriptor)
	}

	clinit := findResolvedMethod(t, c, "<clinit>")
	if clinit.AccessFlags&classfile.AccStatic == 0 {
		t.Error("<clinit> should be static")
	}
}

func TestCompileAnnotatedSource(t *testing.T) {
	source := `
@Deprecated
class Widget {
    @SuppressWarnings("unchecked")
    void run(@Deprecated int x, int y) {
    }
}
`
	classes := compileSource(t, source)
	c := decodeCompiled(t, classes, "Widget")
	run := findResolvedMethod(t, c, "run")
	if run.Descriptor != "(II)V" {
		t.Errorf("run descriptor = %q, want (II)V", run.Descriptor)
	}
}
