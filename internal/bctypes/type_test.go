package bctypes

import "testing"

func TestDescriptor(t *testing.T) {
	cases := []struct {
		typ  Type
		want string
	}{
		{IntType, "I"},
		{LongType, "J"},
		{Void, "V"},
		{StringType, "Ljava/lang/String;"},
		{Array(IntType, 1), "[I"},
		{Array(IntType, 2), "[[I"},
		{Array(StringType, 1), "[Ljava/lang/String;"},
	}
	for _, c := range cases {
		if got := c.typ.Descriptor(); got != c.want {
			t.Errorf("Descriptor() = %q, want %q", got, c.want)
		}
	}
}

func TestCategory(t *testing.T) {
	if LongType.Category() != 2 {
		t.Error("long should be category 2")
	}
	if DoubleType.Category() != 2 {
		t.Error("double should be category 2")
	}
	if IntType.Category() != 1 {
		t.Error("int should be category 1")
	}
	if StringType.Category() != 1 {
		t.Error("reference should be category 1")
	}
}

func TestIsReference(t *testing.T) {
	if !StringType.IsReference() {
		t.Error("class type should be reference")
	}
	if !Array(IntType, 1).IsReference() {
		t.Error("array type should be reference")
	}
	if IntType.IsReference() {
		t.Error("primitive should not be reference")
	}
}

func TestArrayPanicsOnVoidElement(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic constructing array of void")
		}
	}()
	Array(Void, 1)
}

func TestParseDescriptorRoundTrip(t *testing.T) {
	descs := []string{"I", "J", "Z", "Ljava/lang/Object;", "[I", "[[Ljava/lang/String;", "V"}
	for _, d := range descs {
		typ, n := ParseDescriptor(d, 0)
		if n != len(d) {
			t.Errorf("ParseDescriptor(%q) consumed %d, want %d", d, n, len(d))
		}
		if typ.Descriptor() != d {
			t.Errorf("round-trip %q -> %q", d, typ.Descriptor())
		}
	}
}

func TestMethodDescriptorRoundTrip(t *testing.T) {
	desc := "(ILjava/lang/String;[D)Z"
	params, ret := ParseMethodDescriptor(desc)
	if len(params) != 3 {
		t.Fatalf("expected 3 params, got %d", len(params))
	}
	if !ret.Equal(BooleanType) {
		t.Errorf("expected boolean return, got %v", ret)
	}
	if MethodDescriptor(params, ret) != desc {
		t.Errorf("MethodDescriptor round-trip = %q, want %q", MethodDescriptor(params, ret), desc)
	}
}

func TestElementAndComponentType(t *testing.T) {
	arr := Array(IntType, 2)
	if !arr.ElementType().Equal(Array(IntType, 1)) {
		t.Errorf("ElementType of [[I should be [I, got %v", arr.ElementType())
	}
	if !arr.ComponentType().Equal(IntType) {
		t.Errorf("ComponentType of [[I should be I, got %v", arr.ComponentType())
	}
}
