// Package langserver implements the editor-facing diagnostics server this
// compiler exposes over the Language Server Protocol: initialize, the
// three document-sync notifications, and publishDiagnostics. It hand-rolls
// the Content-Length-framed JSON-RPC transport itself rather than pulling
// in a jsonrpc2 framework, matching the teacher's own internal/lsp/server.go.
//
// Grounded on _examples/tangzhangming-nova/internal/lsp/server.go's
// readMessage/sendMessage/handleMessage dispatch shape, scoped down from
// its ~25-method table to the diagnostics-only subset this driver needs.
package langserver

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"go.lsp.dev/protocol"
)

// Server is a single LSP session over stdio.
type Server struct {
	documents *DocumentManager

	logFile *os.File
	logMu   sync.Mutex

	reader *bufio.Reader
	writer io.Writer
	mu     sync.Mutex

	initialized bool
	shutdown    bool
}

// NewServer returns a Server reading requests from stdin and writing
// responses to stdout. logPath, if non-empty, receives a trace of every
// message exchanged; the server runs silently without it.
func NewServer(logPath string) *Server {
	s := &Server{
		documents: NewDocumentManager(),
		reader:    bufio.NewReader(os.Stdin),
		writer:    os.Stdout,
	}
	if logPath != "" {
		if f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
			s.logFile = f
		}
	}
	return s
}

// Run reads and dispatches messages until the client disconnects or sends
// exit.
func (s *Server) Run() error {
	s.log("javac8 language server started")
	for {
		msg, err := s.readMessage()
		if err != nil {
			if err == io.EOF {
				s.log("client disconnected")
				return nil
			}
			s.log("error reading message: %v", err)
			continue
		}

		s.handleMessage(msg)

		if s.shutdown {
			s.log("server shutdown")
			return nil
		}
	}
}

func (s *Server) readMessage() ([]byte, error) {
	var contentLength int
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		if strings.HasPrefix(line, "Content-Length:") {
			n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "Content-Length:")))
			if err != nil {
				return nil, fmt.Errorf("invalid Content-Length: %w", err)
			}
			contentLength = n
		}
	}
	if contentLength == 0 {
		return nil, fmt.Errorf("missing Content-Length header")
	}

	content := make([]byte, contentLength)
	if _, err := io.ReadFull(s.reader, content); err != nil {
		return nil, err
	}
	s.log("received: %s", content)
	return content, nil
}

func (s *Server) sendMessage(msg interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	content, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	s.log("sending: %s", content)

	if _, err := fmt.Fprintf(s.writer, "Content-Length: %d\r\n\r\n", len(content)); err != nil {
		return err
	}
	_, err = s.writer.Write(content)
	return err
}

func (s *Server) handleMessage(msg []byte) {
	var base struct {
		ID     json.RawMessage `json:"id,omitempty"`
		Method string          `json:"method"`
		Params json.RawMessage `json:"params,omitempty"`
	}
	if err := json.Unmarshal(msg, &base); err != nil {
		s.log("error parsing message: %v", err)
		return
	}

	switch base.Method {
	case "initialize":
		s.handleInitialize(base.ID, base.Params)
	case "initialized":
		s.initialized = true
	case "shutdown":
		s.sendResult(base.ID, nil)
	case "exit":
		s.shutdown = true
	case "textDocument/didOpen":
		s.handleDidOpen(base.Params)
	case "textDocument/didChange":
		s.handleDidChange(base.Params)
	case "textDocument/didClose":
		s.handleDidClose(base.Params)
	case "$/cancelRequest":
		// no in-flight request tracking to cancel
	default:
		s.log("unhandled method: %s", base.Method)
		if len(base.ID) > 0 {
			s.sendError(base.ID, -32601, "method not found: "+base.Method)
		}
	}
}

func (s *Server) handleInitialize(id, params json.RawMessage) {
	var p protocol.InitializeParams
	if err := json.Unmarshal(params, &p); err != nil {
		s.sendError(id, -32700, "parse error")
		return
	}

	s.sendResult(id, map[string]interface{}{
		"capabilities": map[string]interface{}{
			"textDocumentSync": map[string]interface{}{
				"openClose": true,
				"change":    1, // TextDocumentSyncKindFull
			},
		},
		"serverInfo": map[string]interface{}{
			"name":    "javac8lsp",
			"version": "0.1.0",
		},
	})
}

func (s *Server) handleDidOpen(params json.RawMessage) {
	var p protocol.DidOpenTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		s.log("error parsing didOpen params: %v", err)
		return
	}
	docURI := string(p.TextDocument.URI)
	s.documents.Open(docURI, p.TextDocument.Text, int(p.TextDocument.Version))
	s.publishDiagnostics(docURI)
}

func (s *Server) handleDidChange(params json.RawMessage) {
	var p protocol.DidChangeTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		s.log("error parsing didChange params: %v", err)
		return
	}
	docURI := string(p.TextDocument.URI)
	if len(p.ContentChanges) > 0 {
		// Full-document sync only (textDocumentSync.change = Full above),
		// so the last content change always carries the entire document.
		text := p.ContentChanges[len(p.ContentChanges)-1].Text
		s.documents.UpdateContent(docURI, text, int(p.TextDocument.Version))
	}
	s.publishDiagnostics(docURI)
}

func (s *Server) handleDidClose(params json.RawMessage) {
	var p protocol.DidCloseTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		s.log("error parsing didClose params: %v", err)
		return
	}
	docURI := string(p.TextDocument.URI)
	s.documents.Close(docURI)
	s.sendNotification("textDocument/publishDiagnostics", protocol.PublishDiagnosticsParams{
		URI:         protocol.DocumentURI(docURI),
		Diagnostics: []protocol.Diagnostic{},
	})
}

func (s *Server) publishDiagnostics(docURI string) {
	doc := s.documents.Get(docURI)
	if doc == nil {
		return
	}
	s.sendNotification("textDocument/publishDiagnostics", protocol.PublishDiagnosticsParams{
		URI:         protocol.DocumentURI(docURI),
		Version:     uint32(doc.Version),
		Diagnostics: toProtocolDiagnostics(doc.Diagnostics),
	})
}

func (s *Server) sendResult(id json.RawMessage, result interface{}) {
	s.sendMessage(map[string]interface{}{"jsonrpc": "2.0", "id": id, "result": result})
}

func (s *Server) sendError(id json.RawMessage, code int, message string) {
	s.sendMessage(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"error":   map[string]interface{}{"code": code, "message": message},
	})
}

func (s *Server) sendNotification(method string, params interface{}) {
	s.sendMessage(map[string]interface{}{"jsonrpc": "2.0", "method": method, "params": params})
}

func (s *Server) log(format string, args ...interface{}) {
	if s.logFile == nil {
		return
	}
	s.logMu.Lock()
	defer s.logMu.Unlock()
	fmt.Fprintf(s.logFile, "[javac8lsp] "+format+"\n", args...)
}
