package reconcile

import (
	"context"
	"fmt"
	"time"

	"doc-sync/core/document"

	"github.com/google/uuid"
)

// Store is the capability contract every backend must satisfy. The engine
// treats stores as opaque: connection lifecycle, schema provisioning and wire
// protocol are entirely the implementation's concern.
type Store interface {
	// Name returns a short human-readable name used in logs and errors
	// (e.g. "mysql", "object-storage").
	Name() string

	// ListDocuments returns every document currently visible in the store.
	// When since is non-nil only documents whose timestamp is >= since are
	// returned. Each call produces a fresh, finite listing.
	ListDocuments(ctx context.Context, since *time.Time) ([]document.Document, error)

	// Insert persists the document verbatim: identity, namespace, timestamp
	// and content are preserved. A document without a timestamp receives the
	// backend clock's now at this point. Implementations may lazily provision
	// backing structures for a previously unseen namespace.
	Insert(ctx context.Context, doc document.Document) error

	// DeleteByID removes all documents sharing the given identity: zero, one,
	// or defensively more if the store holds pre-existing duplicates.
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

// Upsert is the only mutation compound the engine uses against a store:
// delete-then-insert, guaranteeing at most one live copy per identity after
// the call. The window between the two operations is visible to concurrent
// readers of the destination store; the design assumes no other writer
// touches the same identity during a pass.
func Upsert(ctx context.Context, s Store, doc document.Document) error {
	if err := s.DeleteByID(ctx, doc.ID); err != nil {
		return err
	}
	return s.Insert(ctx, doc)
}

// StoreError wraps a failed store call with the store name and operation so
// that pass-level logs can tell which side and which primitive failed.
type StoreError struct {
	Store string
	Op    string
	Err   error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %s: %v", e.Store, e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
