package errors

import (
	"fmt"
	"io"
)

// Reporter accumulates diagnostics produced while compiling a single
// invocation (one or more source files) and renders them on demand.
type Reporter struct {
	diagnostics []Diagnostic
}

// NewReporter returns an empty Reporter.
func NewReporter() *Reporter {
	return &Reporter{}
}

// Report records a diagnostic.
func (r *Reporter) Report(d Diagnostic) {
	r.diagnostics = append(r.diagnostics, d)
}

// HasErrors reports whether any diagnostic was recorded. This compiler
// has no distinct warning level: every diagnostic aborts the build.
func (r *Reporter) HasErrors() bool {
	return len(r.diagnostics) > 0
}

// Count returns the number of recorded diagnostics.
func (r *Reporter) Count() int {
	return len(r.diagnostics)
}

// Diagnostics returns all recorded diagnostics in report order.
func (r *Reporter) Diagnostics() []Diagnostic {
	return r.diagnostics
}

// WriteTo renders every diagnostic, one per line, to w.
func (r *Reporter) WriteTo(w io.Writer) {
	for _, d := range r.diagnostics {
		fmt.Fprintln(w, d.String())
	}
}

// Clear discards all recorded diagnostics, for reuse across compilations.
func (r *Reporter) Clear() {
	r.diagnostics = nil
}
