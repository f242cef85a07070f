package langserver

import (
	"github.com/aoki-yuta/javac8/internal/errors"
	"go.lsp.dev/protocol"
)

// toProtocolDiagnostics translates this compiler's own diagnostic values
// into the wire type the client understands. Diagnostic carries only a
// start position, not a span, so the end column is a fixed-width guess
// the same way the teacher's own ErrorCodeToDiagnostic estimates one.
func toProtocolDiagnostics(diags []errors.Diagnostic) []protocol.Diagnostic {
	out := make([]protocol.Diagnostic, 0, len(diags))
	for _, d := range diags {
		line := d.Pos.Line - 1
		col := d.Pos.Column - 1
		if line < 0 {
			line = 0
		}
		if col < 0 {
			col = 0
		}
		out = append(out, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: uint32(line), Character: uint32(col)},
				End:   protocol.Position{Line: uint32(line), Character: uint32(col + 1)},
			},
			Severity: severityFor(d.Kind),
			Source:   "javac8",
			Message:  d.Message,
		})
	}
	return out
}

func severityFor(kind errors.Kind) protocol.DiagnosticSeverity {
	if kind == errors.UnsupportedFeatureError {
		return protocol.DiagnosticSeverityWarning
	}
	return protocol.DiagnosticSeverityError
}
