package lsp

import (
	"strings"
	"time"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/jlaustill/c-next-sub006/diagnostic"
	"github.com/jlaustill/c-next-sub006/driver"
)

const debounceDelay = 300 * time.Millisecond

// textDocumentDidOpen handles the textDocument/didOpen notification.
func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.captureNotify(ctx)
	doc := s.docs.Open(
		params.TextDocument.URI,
		int32(params.TextDocument.Version),
		params.TextDocument.Text,
	)
	s.analyzeAndPublish(doc)
	return nil
}

// textDocumentDidChange handles the textDocument/didChange notification.
func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	s.captureNotify(ctx)
	// With full sync, the last content change is the complete document.
	var content string
	for _, change := range params.ContentChanges {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			content = c.Text
		case protocol.TextDocumentContentChangeEvent:
			content = c.Text
		}
	}

	doc := s.docs.Change(
		params.TextDocument.URI,
		int32(params.TextDocument.Version),
		content,
	)

	// Debounce: delay the rebuild to avoid thrashing during rapid edits.
	s.debounceMu.Lock()
	if t, ok := s.debounce[doc.URI]; ok {
		t.Stop()
	}
	s.debounce[doc.URI] = time.AfterFunc(debounceDelay, func() {
		defer func() { _ = recover() }() // don't crash the server on a build panic
		d := s.docs.Get(doc.URI)
		if d != nil {
			s.analyzeAndPublish(d)
		}
	})
	s.debounceMu.Unlock()
	return nil
}

// textDocumentDidSave handles the textDocument/didSave notification.
func (s *Server) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	s.captureNotify(ctx)
	// Cancel any pending debounce and publish immediately.
	s.debounceMu.Lock()
	if t, ok := s.debounce[params.TextDocument.URI]; ok {
		t.Stop()
		delete(s.debounce, params.TextDocument.URI)
	}
	s.debounceMu.Unlock()

	doc := s.docs.Get(params.TextDocument.URI)
	if doc != nil {
		s.analyzeAndPublish(doc)
	}
	return nil
}

// textDocumentDidClose handles the textDocument/didClose notification.
func (s *Server) textDocumentDidClose(_ *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	// Cancel pending debounce.
	s.debounceMu.Lock()
	if t, ok := s.debounce[params.TextDocument.URI]; ok {
		t.Stop()
		delete(s.debounce, params.TextDocument.URI)
	}
	s.debounceMu.Unlock()

	// Clear diagnostics for the closed file.
	s.sendNotification(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []protocol.Diagnostic{},
	})

	s.docs.Close(params.TextDocument.URI)
	return nil
}

// analyzeAndPublish rebuilds a document and publishes the resulting
// diagnostics to the client.
func (s *Server) analyzeAndPublish(doc *Document) {
	res := s.ensureBuild(doc)

	diags := []protocol.Diagnostic{}
	for _, d := range driver.Diagnose(res) {
		diags = append(diags, convertDiagnostic(d, doc.Path))
	}

	s.sendNotification(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         doc.URI,
		Diagnostics: diags,
	})
}

// convertDiagnostic converts a build diagnostic to an LSP Diagnostic.
// The range comes from the first span in the document itself; a finding
// rooted entirely in an included header lands at the top of the document.
func convertDiagnostic(d diagnostic.Diagnostic, path string) protocol.Diagnostic {
	var rng protocol.Range
	for _, span := range d.Spans {
		if span.File != path {
			continue
		}
		rng = spanRange(span)
		break
	}

	message := d.Message
	if len(d.Notes) > 0 {
		message += "\n" + strings.Join(d.Notes, "\n")
	}

	sev := mapSeverity(d.Severity)
	return protocol.Diagnostic{
		Range:    rng,
		Severity: &sev,
		Source:   strPtr("cnext"),
		Message:  message,
	}
}

// spanRange converts a 1-based source span to a 0-based LSP range.  The
// span's end column is inclusive where the LSP end position is exclusive,
// so the raw end column carries over unchanged.
func spanRange(span diagnostic.Span) protocol.Range {
	line := span.Line
	col := span.Col
	if line > 0 {
		line--
	}
	if col > 0 {
		col--
	}
	start := protocol.Position{Line: safeUint(line), Character: safeUint(col)}
	end := protocol.Position{Line: start.Line, Character: start.Character + 1}
	if span.EndCol >= span.Col && span.EndCol > 0 {
		end.Character = safeUint(span.EndCol)
	}
	return protocol.Range{Start: start, End: end}
}

// mapSeverity converts a build severity to a protocol.DiagnosticSeverity.
func mapSeverity(sev diagnostic.Severity) protocol.DiagnosticSeverity {
	switch sev {
	case diagnostic.SeverityError:
		return protocol.DiagnosticSeverityError
	case diagnostic.SeverityWarning:
		return protocol.DiagnosticSeverityWarning
	case diagnostic.SeverityNote:
		return protocol.DiagnosticSeverityInformation
	default:
		return protocol.DiagnosticSeverityWarning
	}
}

// safeUint converts a non-negative int to protocol.UInteger, clamping
// negative values at zero.
func safeUint(n int) protocol.UInteger {
	if n < 0 {
		return 0
	}
	return protocol.UInteger(n)
}

func strPtr(s string) *string {
	return &s
}
