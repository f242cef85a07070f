package langserver

import "testing"

func TestDocumentManager_OpenAndGet(t *testing.T) {
	dm := NewDocumentManager()

	content := `class Hello {
    void greet() {
        System.out.println("hi");
    }
}`
	doc := dm.Open("file:///Hello.java", content, 1)
	if doc == nil {
		t.Fatal("expected document to be created")
	}
	if doc.URI != "file:///Hello.java" {
		t.Errorf("URI = %q, want file:///Hello.java", doc.URI)
	}
	if doc.Version != 1 {
		t.Errorf("Version = %d, want 1", doc.Version)
	}

	got := dm.Get("file:///Hello.java")
	if got != doc {
		t.Error("Get did not return the opened document")
	}

	if dm.Get("file:///Nope.java") != nil {
		t.Error("Get on an unopened URI should return nil")
	}
}

func TestDocumentManager_Close(t *testing.T) {
	dm := NewDocumentManager()
	dm.Open("file:///Hello.java", "class Hello {}", 1)
	dm.Close("file:///Hello.java")

	if dm.Get("file:///Hello.java") != nil {
		t.Error("expected document to be removed after Close")
	}
}

func TestDocumentManager_UpdateContentReparses(t *testing.T) {
	dm := NewDocumentManager()
	doc := dm.Open("file:///Hello.java", "class Hello {", 1)
	if len(doc.Diagnostics) == 0 {
		t.Fatal("expected a parse-error diagnostic for unterminated class body")
	}

	dm.UpdateContent("file:///Hello.java", "class Hello {}", 2)
	doc = dm.Get("file:///Hello.java")
	if doc.Version != 2 {
		t.Errorf("Version = %d, want 2", doc.Version)
	}
	if len(doc.Diagnostics) != 0 {
		t.Errorf("expected a clean class body to report no diagnostics, got %v", doc.Diagnostics)
	}
}

func TestDiagnose_UnresolvedName(t *testing.T) {
	src := `class Widget {
    void render() {
        Missing m = new Missing();
    }
}`
	diags := diagnose("file:///Widget.java", src)
	if len(diags) == 0 {
		t.Fatal("expected at least one diagnostic for an unresolved class name")
	}
}
