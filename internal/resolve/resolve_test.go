package resolve

import (
	"testing"

	"github.com/aoki-yuta/javac8/internal/bctypes"
	"github.com/aoki-yuta/javac8/internal/classfile"
	"github.com/aoki-yuta/javac8/internal/classpath"
)

// buildClass constructs a minimal classfile.Class for use as an
// in-process classpath entry in resolver tests.
func buildClass(t *testing.T, name, super string, methods []struct {
	name string
	desc string
}) *classfile.Class {
	c := classfile.NewClass()
	c.AccessFlags = classfile.AccPublic | classfile.AccSuper
	c.ThisClass = c.Pool.Class(name)
	if super != "" {
		c.SuperClass = c.Pool.Class(super)
	}
	for _, m := range methods {
		c.Methods = append(c.Methods, &classfile.Method{
			AccessFlags: classfile.AccPublic,
			NameIdx:     c.Pool.Utf8(m.name),
			DescIdx:     c.Pool.Utf8(m.desc),
		})
	}
	return c
}

func newTestClasspath(t *testing.T) *classpath.Classpath {
	cp := classpath.New(nil)
	object := buildClass(t, "java/lang/Object", "", nil)
	cp.RegisterInProcess("java/lang/Object", object)
	return cp
}

func TestResolveClassNameJavaLangFallback(t *testing.T) {
	cp := newTestClasspath(t)
	r := New(cp, "", nil, nil)
	name, ok, err := r.ResolveClassName("Object")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || name != "java/lang/Object" {
		t.Errorf("ResolveClassName(Object) = %q, %v", name, ok)
	}
}

func TestIsAssignablePrimitiveWidening(t *testing.T) {
	cp := newTestClasspath(t)
	r := New(cp, "", nil, nil)
	ok, err := r.IsAssignable(bctypes.IntType, bctypes.LongType)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("int should widen to long")
	}
	ok, err = r.IsAssignable(bctypes.LongType, bctypes.IntType)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("long should not narrow to int")
	}
}

func TestIsSubclass(t *testing.T) {
	cp := newTestClasspath(t)
	child := buildClass(t, "com/example/Child", "java/lang/Object", nil)
	cp.RegisterInProcess("com/example/Child", child)
	r := New(cp, "", nil, nil)
	ok, err := r.IsSubclass("com/example/Child", "java/lang/Object")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("Child should be a subclass of Object")
	}
}

func TestFindMethodExactArity(t *testing.T) {
	cp := newTestClasspath(t)
	c := buildClass(t, "com/example/Calc", "java/lang/Object", []struct{ name, desc string }{
		{"add", "(II)I"},
		{"add", "(Ljava/lang/String;Ljava/lang/String;)Ljava/lang/String;"},
	})
	cp.RegisterInProcess("com/example/Calc", c)
	r := New(cp, "", nil, nil)

	cand, err := r.FindMethod("com/example/Calc", "add", []bctypes.Type{bctypes.IntType, bctypes.IntType})
	if err != nil {
		t.Fatal(err)
	}
	if cand.Method.Descriptor != "(II)I" {
		t.Errorf("selected %q, want (II)I", cand.Method.Descriptor)
	}
}

// TestFindMethodAmbiguousOverloadRejected exercises two overloads whose
// sole parameter types are unrelated interfaces, both implemented by the
// call argument's type. Neither moreSpecific(a,b) nor moreSpecific(b,a)
// holds for a bare reference-type mismatch outside the reference-vs-Object
// case, so the call must be rejected rather than silently resolved to
// whichever overload happened to be declared first.
func TestFindMethodAmbiguousOverloadRejected(t *testing.T) {
	cp := newTestClasspath(t)
	ifaceA := buildClass(t, "com/example/IfaceA", "", nil)
	ifaceA.AccessFlags = classfile.AccPublic | classfile.AccInterface | classfile.AccAbstract
	cp.RegisterInProcess("com/example/IfaceA", ifaceA)
	ifaceB := buildClass(t, "com/example/IfaceB", "", nil)
	ifaceB.AccessFlags = classfile.AccPublic | classfile.AccInterface | classfile.AccAbstract
	cp.RegisterInProcess("com/example/IfaceB", ifaceB)

	impl := buildClass(t, "com/example/Impl", "java/lang/Object", nil)
	impl.Interfaces = []uint16{impl.Pool.Class("com/example/IfaceA"), impl.Pool.Class("com/example/IfaceB")}
	cp.RegisterInProcess("com/example/Impl", impl)

	c := buildClass(t, "com/example/Calc", "java/lang/Object", []struct{ name, desc string }{
		{"f", "(Lcom/example/IfaceA;)V"},
		{"f", "(Lcom/example/IfaceB;)V"},
	})
	cp.RegisterInProcess("com/example/Calc", c)
	r := New(cp, "", nil, nil)

	_, err := r.FindMethod("com/example/Calc", "f", []bctypes.Type{bctypes.Reference("com/example/Impl")})
	if err == nil {
		t.Fatal("expected ambiguous overload to be rejected, got nil error")
	}
}

func TestFindMethodWideningPrefersNarrower(t *testing.T) {
	cp := newTestClasspath(t)
	c := buildClass(t, "com/example/Calc", "java/lang/Object", []struct{ name, desc string }{
		{"f", "(I)V"},
		{"f", "(J)V"},
	})
	cp.RegisterInProcess("com/example/Calc", c)
	r := New(cp, "", nil, nil)

	cand, err := r.FindMethod("com/example/Calc", "f", []bctypes.Type{bctypes.IntType})
	if err != nil {
		t.Fatal(err)
	}
	if cand.Method.Descriptor != "(I)V" {
		t.Errorf("selected %q, want exact (I)V over widened (J)V", cand.Method.Descriptor)
	}
}
