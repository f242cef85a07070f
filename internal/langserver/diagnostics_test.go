package langserver

import (
	"testing"

	"github.com/aoki-yuta/javac8/internal/errors"
	"github.com/aoki-yuta/javac8/internal/token"
	"go.lsp.dev/protocol"
)

func TestToProtocolDiagnostics_PositionIsZeroBased(t *testing.T) {
	diags := []errors.Diagnostic{
		errors.New(errors.TypeError, token.Position{Filename: "A.java", Line: 3, Column: 5}, "bad type"),
	}
	out := toProtocolDiagnostics(diags)
	if len(out) != 1 {
		t.Fatalf("got %d diagnostics, want 1", len(out))
	}
	if out[0].Range.Start.Line != 2 || out[0].Range.Start.Character != 4 {
		t.Errorf("Start = %+v, want line 2 character 4", out[0].Range.Start)
	}
	if out[0].Message != "bad type" {
		t.Errorf("Message = %q", out[0].Message)
	}
}

func TestSeverityFor(t *testing.T) {
	cases := []struct {
		kind errors.Kind
		want protocol.DiagnosticSeverity
	}{
		{errors.ParseError, protocol.DiagnosticSeverityError},
		{errors.NameResolutionError, protocol.DiagnosticSeverityError},
		{errors.TypeError, protocol.DiagnosticSeverityError},
		{errors.InvariantViolation, protocol.DiagnosticSeverityError},
		{errors.UnsupportedFeatureError, protocol.DiagnosticSeverityWarning},
	}
	for _, c := range cases {
		if got := severityFor(c.kind); got != c.want {
			t.Errorf("severityFor(%v) = %v, want %v", c.kind, got, c.want)
		}
	}
}
