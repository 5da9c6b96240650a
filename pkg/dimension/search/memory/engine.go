package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/tendant/content-dimension/pkg/dimension/search"
)

// Deletion records one Delete call.
type Deletion struct {
	Index      string
	DocumentID string
}

// Engine implements search.Engine using in-memory storage
type Engine struct {
	mu        sync.RWMutex
	indexes   map[string]map[string]*search.Document
	deletions []Deletion
}

// New creates a new in-memory search engine
func New() *Engine {
	return &Engine{indexes: make(map[string]map[string]*search.Document)}
}

func (e *Engine) Save(ctx context.Context, index string, doc *search.Document) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	docs, ok := e.indexes[index]
	if !ok {
		docs = make(map[string]*search.Document)
		e.indexes[index] = docs
	}
	docCopy := *doc
	docs[doc.ID] = &docCopy
	return nil
}

func (e *Engine) Delete(ctx context.Context, index, docID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.deletions = append(e.deletions, Deletion{Index: index, DocumentID: docID})
	if _, ok := e.indexes[index][docID]; !ok {
		return search.ErrDocumentNotFound
	}
	delete(e.indexes[index], docID)
	return nil
}

// Get returns a copy of a stored document.
func (e *Engine) Get(ctx context.Context, index, docID string) (*search.Document, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	doc, ok := e.indexes[index][docID]
	if !ok {
		return nil, search.ErrDocumentNotFound
	}
	docCopy := *doc
	return &docCopy, nil
}

// Documents returns the ids stored in index, sorted.
func (e *Engine) Documents(index string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	ids := make([]string, 0, len(e.indexes[index]))
	for id := range e.indexes[index] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Deletions returns every Delete call in order.
func (e *Engine) Deletions() []Deletion {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]Deletion(nil), e.deletions...)
}

var _ search.Engine = (*Engine)(nil)
