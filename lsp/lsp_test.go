package lsp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/jlaustill/c-next-sub006/diagnostic"
)

const motorSource = `const u8 LEVELS <- 4;
scope Motor {
    u8 speed <- 0;
    void setSpeed(u8 target) {
        speed <- target;
    }
}
`

// mockContext returns a minimal glsp.Context for testing.
func mockContext() *glsp.Context {
	return &glsp.Context{
		Notify: func(method string, params any) {},
	}
}

// capturingContext returns a context that captures published diagnostics.
func capturingContext() (*glsp.Context, *[]*protocol.PublishDiagnosticsParams) {
	var captured []*protocol.PublishDiagnosticsParams
	ctx := &glsp.Context{
		Notify: func(method string, params any) {
			if method == protocol.ServerTextDocumentPublishDiagnostics {
				captured = append(captured, params.(*protocol.PublishDiagnosticsParams))
			}
		},
	}
	return ctx, &captured
}

// openDoc opens a document through the didOpen handler.
func openDoc(t *testing.T, s *Server, ctx *glsp.Context, uri, content string) {
	t.Helper()
	err := s.textDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        uri,
			LanguageID: "cnext",
			Version:    1,
			Text:       content,
		},
	})
	require.NoError(t, err)
}

// --- Document store tests ---

func TestDocumentStore(t *testing.T) {
	t.Run("Open", func(t *testing.T) {
		store := NewDocumentStore()
		doc := store.Open("file:///main.cnx", 1, motorSource)
		require.NotNil(t, doc)
		assert.Equal(t, motorSource, doc.Content)
		assert.Equal(t, "/main.cnx", doc.Path)
	})
	t.Run("Get", func(t *testing.T) {
		store := NewDocumentStore()
		store.Open("file:///main.cnx", 1, motorSource)
		got := store.Get("file:///main.cnx")
		require.NotNil(t, got)
		assert.Equal(t, motorSource, got.Content)
		assert.Nil(t, store.Get("file:///nonexistent.cnx"))
	})
	t.Run("Change", func(t *testing.T) {
		store := NewDocumentStore()
		store.Open("file:///main.cnx", 1, motorSource)
		changed := store.Change("file:///main.cnx", 2, "u8 solo <- 1;\n")
		assert.Equal(t, "u8 solo <- 1;\n", changed.Content)
		assert.Equal(t, int32(2), changed.Version)
		assert.Nil(t, changed.cached, "build cache should be cleared on change")
	})
	t.Run("ChangeUnopened", func(t *testing.T) {
		store := NewDocumentStore()
		doc := store.Change("file:///late.cnx", 3, "u8 solo <- 1;\n")
		require.NotNil(t, doc, "change for an unknown document opens it")
		assert.Equal(t, "u8 solo <- 1;\n", doc.Content)
	})
	t.Run("Close", func(t *testing.T) {
		store := NewDocumentStore()
		store.Open("file:///main.cnx", 1, motorSource)
		store.Close("file:///main.cnx")
		assert.Nil(t, store.Get("file:///main.cnx"))
	})
	t.Run("All", func(t *testing.T) {
		store := NewDocumentStore()
		store.Open("file:///a.cnx", 1, "u8 a <- 1;\n")
		store.Open("file:///b.cnx", 1, "u8 b <- 2;\n")
		assert.Len(t, store.All(), 2)
	})
}

func TestEnsureBuildCache(t *testing.T) {
	s := New()
	doc := s.docs.Open("file:///main.cnx", 1, motorSource)

	first := s.ensureBuild(doc)
	require.NotNil(t, first)
	assert.Same(t, first, s.ensureBuild(doc), "unchanged content reuses the build")

	s.docs.Change(doc.URI, 2, motorSource+"u8 extra <- 1;\n")
	assert.NotSame(t, first, s.ensureBuild(doc), "changed content rebuilds")
}

// --- Range conversion tests ---

func TestSpanRange(t *testing.T) {
	t.Run("1-based to 0-based", func(t *testing.T) {
		r := spanRange(diagnostic.Span{File: "main.cnx", Line: 1, Col: 1})
		assert.Equal(t, protocol.UInteger(0), r.Start.Line)
		assert.Equal(t, protocol.UInteger(0), r.Start.Character)
		assert.Equal(t, protocol.UInteger(1), r.End.Character)
	})
	t.Run("end column carries over", func(t *testing.T) {
		r := spanRange(diagnostic.Span{File: "main.cnx", Line: 3, Col: 5, EndCol: 10})
		assert.Equal(t, protocol.UInteger(2), r.Start.Line)
		assert.Equal(t, protocol.UInteger(4), r.Start.Character)
		assert.Equal(t, protocol.UInteger(2), r.End.Line)
		assert.Equal(t, protocol.UInteger(10), r.End.Character)
	})
	t.Run("zero values clamp", func(t *testing.T) {
		r := spanRange(diagnostic.Span{File: "main.cnx"})
		assert.Equal(t, protocol.UInteger(0), r.Start.Line)
		assert.Equal(t, protocol.UInteger(0), r.Start.Character)
	})
}

func TestMapSeverity(t *testing.T) {
	assert.Equal(t, protocol.DiagnosticSeverityError, mapSeverity(diagnostic.SeverityError))
	assert.Equal(t, protocol.DiagnosticSeverityWarning, mapSeverity(diagnostic.SeverityWarning))
	assert.Equal(t, protocol.DiagnosticSeverityInformation, mapSeverity(diagnostic.SeverityNote))
}

func TestConvertDiagnostic(t *testing.T) {
	d := diagnostic.Diagnostic{
		Severity: diagnostic.SeverityError,
		Message:  "bitmap Status declares 8 bits but its fields sum to 6",
		Spans: []diagnostic.Span{
			{File: "other.cnx", Line: 9, Col: 1},
			{File: "main.cnx", Line: 2, Col: 8, EndCol: 13},
		},
		Notes: []string{"field widths must sum to exactly 8"},
	}

	got := convertDiagnostic(d, "main.cnx")
	require.NotNil(t, got.Severity)
	assert.Equal(t, protocol.DiagnosticSeverityError, *got.Severity)
	assert.Equal(t, protocol.UInteger(1), got.Range.Start.Line,
		"the span inside the document wins over earlier spans elsewhere")
	assert.Contains(t, got.Message, "fields sum to 6")
	assert.Contains(t, got.Message, "must sum to exactly 8")
	require.NotNil(t, got.Source)
	assert.Equal(t, "cnext", *got.Source)
}

func TestConvertDiagnosticForeignSpan(t *testing.T) {
	d := diagnostic.Diagnostic{
		Severity: diagnostic.SeverityWarning,
		Message:  "duplicate declaration of counter",
		Spans:    []diagnostic.Span{{File: "other.cnx", Line: 4, Col: 1}},
	}
	got := convertDiagnostic(d, "main.cnx")
	assert.Equal(t, protocol.Range{}, got.Range,
		"a finding rooted in another file lands at the top of the document")
}

// --- Diagnostics publication tests ---

func TestDiagnosticsOnOpen_ValidCode(t *testing.T) {
	s := New()
	ctx, captured := capturingContext()

	openDoc(t, s, ctx, "file:///main.cnx", motorSource)

	require.Len(t, *captured, 1)
	pub := (*captured)[0]
	assert.Equal(t, "file:///main.cnx", pub.URI)
	assert.Empty(t, pub.Diagnostics)
}

func TestDiagnosticsOnMissingInclude(t *testing.T) {
	s := New()
	ctx, captured := capturingContext()

	dir := t.TempDir()
	uri := "file://" + filepath.Join(dir, "main.cnx")
	openDoc(t, s, ctx, uri, "#include \"missing.h\"\n\nu8 counter <- 0;\n")

	require.Len(t, *captured, 1)
	pub := (*captured)[0]
	require.NotEmpty(t, pub.Diagnostics)
	d := pub.Diagnostics[0]
	require.NotNil(t, d.Severity)
	assert.Equal(t, protocol.DiagnosticSeverityError, *d.Severity)
	assert.Contains(t, d.Message, "missing.h")
	assert.Equal(t, protocol.UInteger(0), d.Range.Start.Line)
}

func TestDidChangeUpdatesDocument(t *testing.T) {
	s := New()
	ctx, _ := capturingContext()
	openDoc(t, s, ctx, "file:///main.cnx", motorSource)

	err := s.textDocumentDidChange(ctx, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: "file:///main.cnx"},
			Version:                2,
		},
		ContentChanges: []any{
			protocol.TextDocumentContentChangeEventWhole{Text: "u8 solo <- 1;\n"},
		},
	})
	require.NoError(t, err)

	doc := s.docs.Get("file:///main.cnx")
	require.NotNil(t, doc)
	assert.Equal(t, "u8 solo <- 1;\n", doc.Content)
	assert.Equal(t, int32(2), doc.Version)

	require.NoError(t, s.shutdown(nil))
}

func TestDiagnosticsOnSave(t *testing.T) {
	s := New()
	ctx, captured := capturingContext()
	openDoc(t, s, ctx, "file:///main.cnx", motorSource)

	// Replace the buffer with broken content; save publishes immediately
	// instead of waiting out the debounce.
	err := s.textDocumentDidChange(ctx, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: "file:///main.cnx"},
			Version:                2,
		},
		ContentChanges: []any{
			protocol.TextDocumentContentChangeEventWhole{Text: "scope {\n"},
		},
	})
	require.NoError(t, err)

	err = s.textDocumentDidSave(ctx, &protocol.DidSaveTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: "file:///main.cnx"},
	})
	require.NoError(t, err)

	require.Len(t, *captured, 2)
	assert.NotEmpty(t, (*captured)[1].Diagnostics)
}

func TestDiagnosticsClearedOnClose(t *testing.T) {
	s := New()
	ctx, captured := capturingContext()
	openDoc(t, s, ctx, "file:///main.cnx", "scope {\n")

	err := s.textDocumentDidClose(ctx, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: "file:///main.cnx"},
	})
	require.NoError(t, err)

	require.Len(t, *captured, 2)
	assert.Empty(t, (*captured)[1].Diagnostics)
	assert.Nil(t, s.docs.Get("file:///main.cnx"))
}

// --- Symbol tests ---

func TestDocumentSymbol(t *testing.T) {
	s := New()
	openDoc(t, s, mockContext(), "file:///main.cnx", motorSource)

	result, err := s.textDocumentDocumentSymbol(mockContext(), &protocol.DocumentSymbolParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: "file:///main.cnx"},
	})
	require.NoError(t, err)
	symbols, ok := result.([]protocol.DocumentSymbol)
	require.True(t, ok, "documentSymbol should return []DocumentSymbol, got %T", result)

	byName := make(map[string]protocol.DocumentSymbol)
	for _, ds := range symbols {
		byName[ds.Name] = ds
	}
	require.Contains(t, byName, "LEVELS")
	require.Contains(t, byName, "Motor")

	motor := byName["Motor"]
	assert.Equal(t, protocol.SymbolKindNamespace, motor.Kind)
	var childNames []string
	for _, c := range motor.Children {
		childNames = append(childNames, c.Name)
		if c.Name == "setSpeed" {
			assert.Equal(t, protocol.SymbolKindFunction, c.Kind)
		}
	}
	assert.ElementsMatch(t, []string{"speed", "setSpeed"}, childNames)
}

func TestDocumentSymbolUnknownDocument(t *testing.T) {
	s := New()
	result, err := s.textDocumentDocumentSymbol(mockContext(), &protocol.DocumentSymbolParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: "file:///nonexistent.cnx"},
	})
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestDocumentSymbolUnsavedContent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pins.h"), []byte("#define PIN_COUNT 12\n"), 0600))

	s := New()
	ctx, captured := capturingContext()
	uri := "file://" + filepath.Join(dir, "main.cnx")

	// The .cnx file exists only in the editor buffer; the header it
	// includes exists only on disk.
	openDoc(t, s, ctx, uri, "#include \"pins.h\"\n\nu8 pins[PIN_COUNT];\n")

	require.Len(t, *captured, 1)
	assert.Empty(t, (*captured)[0].Diagnostics, "header constants should reach unsaved edits")

	result, err := s.textDocumentDocumentSymbol(mockContext(), &protocol.DocumentSymbolParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	})
	require.NoError(t, err)
	symbols, ok := result.([]protocol.DocumentSymbol)
	require.True(t, ok)
	var names []string
	for _, ds := range symbols {
		names = append(names, ds.Name)
	}
	assert.Contains(t, names, "pins")
}

func TestWorkspaceSymbol(t *testing.T) {
	s := New()
	openDoc(t, s, mockContext(), "file:///main.cnx", motorSource)

	t.Run("query filters", func(t *testing.T) {
		results, err := s.workspaceSymbol(mockContext(), &protocol.WorkspaceSymbolParams{Query: "setSpeed"})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "setSpeed", results[0].Name)
		require.NotNil(t, results[0].ContainerName)
		assert.Equal(t, "Motor", *results[0].ContainerName)
	})
	t.Run("empty query returns all", func(t *testing.T) {
		results, err := s.workspaceSymbol(mockContext(), &protocol.WorkspaceSymbolParams{Query: ""})
		require.NoError(t, err)
		assert.Len(t, results, 4)
	})
	t.Run("case insensitive", func(t *testing.T) {
		results, err := s.workspaceSymbol(mockContext(), &protocol.WorkspaceSymbolParams{Query: "levels"})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "LEVELS", results[0].Name)
	})
	t.Run("no match", func(t *testing.T) {
		results, err := s.workspaceSymbol(mockContext(), &protocol.WorkspaceSymbolParams{Query: "zzz-nonexistent"})
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

// --- Lifecycle tests ---

func TestInitialize(t *testing.T) {
	s := New()
	result, err := s.initialize(mockContext(), &protocol.InitializeParams{})
	require.NoError(t, err)

	res, ok := result.(protocol.InitializeResult)
	require.True(t, ok, "initialize should return InitializeResult, got %T", result)
	require.NotNil(t, res.ServerInfo)
	assert.Equal(t, serverName, res.ServerInfo.Name)

	sync, ok := res.Capabilities.TextDocumentSync.(*protocol.TextDocumentSyncOptions)
	require.True(t, ok, "sync capability should be TextDocumentSyncOptions, got %T",
		res.Capabilities.TextDocumentSync)
	require.NotNil(t, sync.Change)
	assert.Equal(t, protocol.TextDocumentSyncKindFull, *sync.Change)
}

func TestExitCallsExitFn(t *testing.T) {
	s := New()
	code := -1
	s.exitFn = func(c int) { code = c }
	require.NoError(t, s.exit(nil))
	assert.Equal(t, 0, code)
}

func TestServerOptions(t *testing.T) {
	s := New(
		WithIncludeDirs([]string{"/opt/boards"}),
		WithDefines(map[string]int{"F_CPU": 16000000}),
	)
	assert.Equal(t, []string{"/opt/boards"}, s.opts.IncludeDirs)
	assert.Equal(t, 16000000, s.opts.Defines["F_CPU"])
}
