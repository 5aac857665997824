package sqlstore

import (
	"context"
	"fmt"
	"time"

	"doc-sync/core/document"
	"doc-sync/core/reconcile"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// row is the table schema: document metadata plus the JSON-serialized
// content. The identity is the primary key, so the store itself enforces at
// most one live copy; timestamp is indexed for incremental listings.
type row struct {
	ID        string    `gorm:"column:id;primaryKey;size:36"`
	DocIndex  string    `gorm:"column:doc_index;size:255"`
	DocType   string    `gorm:"column:doc_type;size:255"`
	Timestamp time.Time `gorm:"column:timestamp;type:datetime(3);index"`
	Content   string    `gorm:"column:content;type:text"`
}

// Store is a MySQL-backed document store.
type Store struct {
	db    *gorm.DB
	table string
	clock document.Clock
}

// New builds the store and provisions the backing table if it does not exist
// yet. A nil clock means wall-clock time for documents persisted without a
// timestamp.
func New(db *gorm.DB, table string, clock document.Clock) (*Store, error) {
	if err := db.Table(table).AutoMigrate(&row{}); err != nil {
		return nil, fmt.Errorf("failed to provision table %s: %w", table, err)
	}
	return &Store{db: db, table: table, clock: clock}, nil
}

func (s *Store) Name() string {
	return "mysql"
}

// ListDocuments returns every document in the table, or only those with
// timestamp >= since when bounded. One batch query, no row-by-row iteration.
func (s *Store) ListDocuments(ctx context.Context, since *time.Time) ([]document.Document, error) {
	q := s.db.WithContext(ctx).Table(s.table)
	if since != nil {
		q = q.Where("timestamp >= ?", *since)
	}

	var rows []row
	if err := q.Find(&rows).Error; err != nil {
		return nil, &reconcile.StoreError{Store: s.Name(), Op: "list", Err: err}
	}

	docs := make([]document.Document, 0, len(rows))
	for _, r := range rows {
		doc, err := r.toDocument()
		if err != nil {
			return nil, &reconcile.StoreError{Store: s.Name(), Op: "list", Err: err}
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Insert persists the document, substituting the clock's now when it carries
// no timestamp.
func (s *Store) Insert(ctx context.Context, doc document.Document) error {
	content, err := doc.MarshalContent()
	if err != nil {
		return &reconcile.StoreError{Store: s.Name(), Op: "insert", Err: err}
	}

	r := row{
		ID:        doc.ID.String(),
		DocIndex:  doc.Index,
		DocType:   doc.Type,
		Timestamp: doc.PersistTimestamp(s.clock),
		Content:   content,
	}
	if err := s.db.WithContext(ctx).Table(s.table).Create(&r).Error; err != nil {
		return &reconcile.StoreError{Store: s.Name(), Op: "insert", Err: err}
	}
	return nil
}

// DeleteByID removes all rows sharing the identity. The primary key makes
// more than one impossible under normal operation, but the WHERE clause
// covers pre-existing duplicates in an externally-created table as well.
func (s *Store) DeleteByID(ctx context.Context, id uuid.UUID) error {
	if err := s.db.WithContext(ctx).Table(s.table).Where("id = ?", id.String()).Delete(&row{}).Error; err != nil {
		return &reconcile.StoreError{Store: s.Name(), Op: "delete", Err: err}
	}
	return nil
}

func (r row) toDocument() (document.Document, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return document.Document{}, fmt.Errorf("invalid identity %q: %w", r.ID, err)
	}
	content, err := document.UnmarshalContent(r.Content)
	if err != nil {
		return document.Document{}, fmt.Errorf("document %s: %w", r.ID, err)
	}
	return document.Document{
		ID:        id,
		Index:     r.DocIndex,
		Type:      r.DocType,
		Timestamp: r.Timestamp,
		Content:   content,
	}, nil
}
