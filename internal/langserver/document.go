package langserver

import (
	"sync"

	"github.com/aoki-yuta/javac8/internal/classpath"
	"github.com/aoki-yuta/javac8/internal/codegen"
	"github.com/aoki-yuta/javac8/internal/errors"
	"github.com/aoki-yuta/javac8/internal/lexer"
	"github.com/aoki-yuta/javac8/internal/parser"
	"github.com/aoki-yuta/javac8/internal/token"
)

// Document is one file the client has open, with its diagnostics kept in
// sync with its content.
type Document struct {
	URI         string
	Content     string
	Version     int
	Diagnostics []errors.Diagnostic
}

// DocumentManager tracks every currently open Document, reparsing and
// recompiling each on open and on every change.
type DocumentManager struct {
	mu        sync.RWMutex
	documents map[string]*Document
}

func NewDocumentManager() *DocumentManager {
	return &DocumentManager{documents: make(map[string]*Document)}
}

func (dm *DocumentManager) Open(uri, content string, version int) *Document {
	doc := &Document{URI: uri, Content: content, Version: version}
	doc.Diagnostics = diagnose(uri, content)

	dm.mu.Lock()
	dm.documents[uri] = doc
	dm.mu.Unlock()
	return doc
}

func (dm *DocumentManager) UpdateContent(uri, content string, version int) {
	dm.mu.Lock()
	doc, ok := dm.documents[uri]
	if !ok {
		dm.mu.Unlock()
		return
	}
	doc.Content = content
	doc.Version = version
	dm.mu.Unlock()

	doc.Diagnostics = diagnose(uri, content)
}

func (dm *DocumentManager) Close(uri string) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	delete(dm.documents, uri)
}

func (dm *DocumentManager) Get(uri string) *Document {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.documents[uri]
}

// diagnose runs the full pipeline (lex, parse, declare, compile) against
// one document's content in isolation, against a --no-rt classpath seeded
// with nothing but the document itself, and collects whatever diagnostics
// fall out. Platform types the classpath cannot supply are reported as
// ordinary resolution errors; errors from declaring signatures end the
// pass before any body is compiled.
func diagnose(uri, content string) []errors.Diagnostic {
	filename := uriToPath(uri)
	reporter := errors.NewReporter()

	l := lexer.New(content, filename)
	l.ScanTokens()
	for _, e := range l.Errors() {
		reporter.Report(errors.New(errors.ParseError, e.Pos, e.Message))
	}
	if l.HasErrors() {
		return reporter.Diagnostics()
	}

	p := parser.New(content, filename)
	file := p.Parse()
	for _, e := range p.Errors() {
		reporter.Report(errors.New(errors.ParseError, e.Pos, e.Message))
	}
	if p.HasErrors() {
		return reporter.Diagnostics()
	}

	cp := classpath.New(nil)
	gen := codegen.NewGenerator(cp)
	u := gen.NewUnit(file)
	for _, err := range u.DeclareSignatures() {
		reporter.Report(asDiagnostic(err))
	}
	if reporter.HasErrors() {
		return reporter.Diagnostics()
	}
	_, errs := u.CompileBodies()
	for _, err := range errs {
		reporter.Report(asDiagnostic(err))
	}
	return reporter.Diagnostics()
}

func asDiagnostic(err error) errors.Diagnostic {
	if d, ok := err.(errors.Diagnostic); ok {
		return d
	}
	return errors.New(errors.InvariantViolation, token.Position{}, err.Error())
}
