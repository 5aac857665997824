package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"doc-sync/core/document"

	"github.com/google/uuid"
)

// memStore is an in-memory Store used by the engine and driver tests. It
// keeps a slice rather than a map so tests can seed duplicate identities and
// control listing order, and it records the mutation sequence.
type memStore struct {
	mu    sync.Mutex
	name  string
	docs  []document.Document
	clock document.Clock

	listErr   error
	insertErr error
	deleteErr error

	ops []string
}

func newMemStore(name string, docs ...document.Document) *memStore {
	return &memStore{name: name, docs: docs}
}

func (m *memStore) Name() string {
	return m.name
}

func (m *memStore) ListDocuments(ctx context.Context, since *time.Time) ([]document.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, &StoreError{Store: m.name, Op: "list", Err: m.listErr}
	}
	var out []document.Document
	for _, doc := range m.docs {
		if since != nil && doc.Timestamp.Before(*since) {
			continue
		}
		out = append(out, doc)
	}
	return out, nil
}

func (m *memStore) Insert(ctx context.Context, doc document.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return &StoreError{Store: m.name, Op: "insert", Err: m.insertErr}
	}
	doc.Timestamp = doc.PersistTimestamp(m.clock)
	m.docs = append(m.docs, doc)
	m.ops = append(m.ops, fmt.Sprintf("insert:%s", doc.ID))
	return nil
}

func (m *memStore) DeleteByID(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return &StoreError{Store: m.name, Op: "delete", Err: m.deleteErr}
	}
	kept := m.docs[:0]
	for _, doc := range m.docs {
		if doc.ID != id {
			kept = append(kept, doc)
		}
	}
	m.docs = kept
	m.ops = append(m.ops, fmt.Sprintf("delete:%s", id))
	return nil
}

// get returns the single live document for an identity, if any.
func (m *memStore) get(id uuid.UUID) (document.Document, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, doc := range m.docs {
		if doc.ID == id {
			return doc, true
		}
	}
	return document.Document{}, false
}

// count returns the number of live documents sharing an identity.
func (m *memStore) count(id uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, doc := range m.docs {
		if doc.ID == id {
			n++
		}
	}
	return n
}

func (m *memStore) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs)
}
