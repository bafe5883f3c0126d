// Package lsp serves language clients over the resolved model.  The
// server keeps every open document's latest text, rebuilds it on open,
// change, and save, and answers outline and symbol queries from the
// same presentation the CLI prints.  Includes resolve on disk next to
// the document, so header constants reach unsaved edits.
package lsp

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/tliron/glsp"
	glspserver "github.com/tliron/glsp/server"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/jlaustill/c-next-sub006/driver"
	"github.com/jlaustill/c-next-sub006/ide"
)

const serverName = "cnext-lsp"

// Server is the C-Next language server.
type Server struct {
	handler protocol.Handler
	glspSrv *glspserver.Server
	docs    *DocumentStore

	// Build configuration shared by every document build.  The registry
	// stays nil so each build resolves against a fresh one; an editor
	// buffer must not inherit scope members from its own previous runs.
	opts driver.Options

	// Notification function captured from the latest request, for
	// publishing diagnostics outside a request handler.
	notifyMu sync.Mutex
	notify   glsp.NotifyFunc

	// Debounce timers for didChange rebuilds, keyed by URI.
	debounceMu sync.Mutex
	debounce   map[string]*time.Timer

	// exitFn is called on the LSP exit notification.  Overridable for
	// testing.
	exitFn func(int)
}

// Option configures the LSP server.
type Option func(*Server)

// WithIncludeDirs sets header search directories for every build.
func WithIncludeDirs(dirs []string) Option {
	return func(s *Server) { s.opts.IncludeDirs = dirs }
}

// WithDefines seeds constants for every build, like -D on the CLI.
func WithDefines(defines map[string]int) Option {
	return func(s *Server) { s.opts.Defines = defines }
}

// New creates a new C-Next LSP server.
func New(opts ...Option) *Server {
	s := &Server{
		docs:     NewDocumentStore(),
		debounce: make(map[string]*time.Timer),
		exitFn:   os.Exit,
	}
	for _, o := range opts {
		o(s)
	}

	s.handler = protocol.Handler{
		Initialize: s.initialize,
		Shutdown:   s.shutdown,
		Exit:       s.exit,
		SetTrace:   s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidSave:   s.textDocumentDidSave,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentDocumentSymbol: s.textDocumentDocumentSymbol,
		WorkspaceSymbol:            s.workspaceSymbol,
	}

	s.glspSrv = glspserver.NewServer(&s.handler, serverName, false)
	return s
}

// RunStdio starts the server using stdio transport.
func (s *Server) RunStdio() error {
	return s.glspSrv.RunStdio()
}

// RunTCP starts the server listening on the given address.
func (s *Server) RunTCP(addr string) error {
	return s.glspSrv.RunTCP(addr)
}

// initialize handles the LSP initialize request.
func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	s.captureNotify(ctx)

	capabilities := s.handler.CreateServerCapabilities()

	// Override text document sync to full; builds always start from the
	// complete buffer.
	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
		Save:      &protocol.SaveOptions{IncludeText: boolPtr(false)},
	}

	version := "0.1.0"
	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &version,
		},
	}, nil
}

// shutdown handles the LSP shutdown request.
func (s *Server) shutdown(_ *glsp.Context) error {
	// Cancel any pending debounce timers.
	s.debounceMu.Lock()
	for _, t := range s.debounce {
		t.Stop()
	}
	s.debounce = make(map[string]*time.Timer)
	s.debounceMu.Unlock()
	return nil
}

// exit handles the LSP exit notification by terminating the process.
func (s *Server) exit(_ *glsp.Context) error {
	s.exitFn(0)
	return nil
}

// setTrace handles the $/setTrace notification (required by some clients).
func (s *Server) setTrace(_ *glsp.Context, _ *protocol.SetTraceParams) error {
	return nil
}

// textDocumentDocumentSymbol handles the textDocument/documentSymbol request.
func (s *Server) textDocumentDocumentSymbol(_ *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	res := s.ensureBuild(doc)
	if res == nil {
		return nil, nil
	}

	items := ide.BuildOutline(res.Symbols())
	return ide.DocumentSymbols(items, doc.Path), nil
}

// workspaceSymbol handles the workspace/symbol request over every open
// document.  An empty query returns all symbols.
func (s *Server) workspaceSymbol(_ *glsp.Context, params *protocol.WorkspaceSymbolParams) ([]protocol.SymbolInformation, error) {
	var results []protocol.SymbolInformation
	seen := make(map[string]bool)
	for _, doc := range s.docs.All() {
		res := s.ensureBuild(doc)
		if res == nil {
			continue
		}
		for _, si := range ide.SymbolInformation(ide.BuildOutline(res.Symbols()), params.Query) {
			key := si.Name + "\x00" + string(si.Location.URI)
			if seen[key] {
				continue
			}
			seen[key] = true
			results = append(results, si)
		}
	}
	return results, nil
}

// captureNotify stores the notification function from the context for
// later diagnostic publishes.
func (s *Server) captureNotify(ctx *glsp.Context) {
	if ctx == nil {
		return
	}
	s.notifyMu.Lock()
	s.notify = ctx.Notify
	s.notifyMu.Unlock()
}

// sendNotification sends a notification to the client.
func (s *Server) sendNotification(method string, params any) {
	s.notifyMu.Lock()
	fn := s.notify
	s.notifyMu.Unlock()
	if fn != nil {
		fn(method, params)
	}
}

func boolPtr(b bool) *bool {
	return &b
}

func uriToPath(uri string) string {
	if path, ok := strings.CutPrefix(uri, "file://"); ok {
		return path
	}
	return uri
}
