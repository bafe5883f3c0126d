package lsp

import (
	"context"
	"sync"

	"github.com/jlaustill/c-next-sub006/analysis"
	"github.com/jlaustill/c-next-sub006/driver"
)

// Document is an open text document tracked by the server.
type Document struct {
	URI     string
	Path    string
	Version int32
	Content string

	// cached is the build result for Content, dropped on every change.
	mu     sync.Mutex
	cached *driver.Result
}

// DocumentStore tracks every document the client has opened.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// NewDocumentStore creates an empty document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: make(map[string]*Document)}
}

// Open registers a document with its initial content.
func (ds *DocumentStore) Open(uri string, version int32, content string) *Document {
	doc := &Document{
		URI:     uri,
		Path:    uriToPath(uri),
		Version: version,
		Content: content,
	}
	ds.mu.Lock()
	ds.docs[uri] = doc
	ds.mu.Unlock()
	return doc
}

// Change replaces a document's content and invalidates its build.
func (ds *DocumentStore) Change(uri string, version int32, content string) *Document {
	ds.mu.RLock()
	doc := ds.docs[uri]
	ds.mu.RUnlock()
	if doc == nil {
		return ds.Open(uri, version, content)
	}
	doc.mu.Lock()
	doc.Version = version
	doc.Content = content
	doc.cached = nil
	doc.mu.Unlock()
	return doc
}

// Get returns the document for uri, or nil if it is not open.
func (ds *DocumentStore) Get(uri string) *Document {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.docs[uri]
}

// Close removes a document from the store.
func (ds *DocumentStore) Close(uri string) {
	ds.mu.Lock()
	delete(ds.docs, uri)
	ds.mu.Unlock()
}

// All returns every open document.
func (ds *DocumentStore) All() []*Document {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	docs := make([]*Document, 0, len(ds.docs))
	for _, doc := range ds.docs {
		docs = append(docs, doc)
	}
	return docs
}

// ensureBuild returns the build result for the document's current
// content, building it if no cached result exists.  The buffer text is
// analyzed in place of the on-disk file so unsaved edits are seen.
func (s *Server) ensureBuild(doc *Document) *driver.Result {
	doc.mu.Lock()
	defer doc.mu.Unlock()
	if doc.cached != nil {
		return doc.cached
	}
	opts := &driver.Options{
		IncludeDirs: s.opts.IncludeDirs,
		Defines:     s.opts.Defines,
		Registry:    analysis.NewRegistry(),
	}
	doc.cached = driver.BuildSource(context.Background(), doc.Path, []byte(doc.Content), opts)
	return doc.cached
}
