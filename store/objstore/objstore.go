package objstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"doc-sync/core/document"
	"doc-sync/core/reconcile"
	"doc-sync/core/storage"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// envelope is the on-wire object format: document metadata plus content in a
// single JSON body. The timestamp is unix milliseconds, matching the
// precision both backends agree on.
type envelope struct {
	ID        string         `json:"id"`
	Index     string         `json:"index"`
	Type      string         `json:"type"`
	Timestamp int64          `json:"timestamp"`
	Content   map[string]any `json:"content"`
}

// Store is an object-storage-backed document store.
type Store struct {
	client storage.Client
	bucket string
	prefix string
	clock  document.Clock
}

// New builds the store and provisions the bucket if it does not exist yet. A
// nil clock means wall-clock time for documents persisted without a
// timestamp.
func New(ctx context.Context, client storage.Client, bucket, prefix string, clock document.Clock) (*Store, error) {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to provision bucket %s: %w", bucket, err)
		}
	}
	return &Store{client: client, bucket: bucket, prefix: prefix, clock: clock}, nil
}

func (s *Store) Name() string {
	return "object-storage"
}

// ListDocuments walks the prefix and decodes every document object. The
// since bound is applied client-side; object storage has no timestamp index.
func (s *Store) ListDocuments(ctx context.Context, since *time.Time) ([]document.Document, error) {
	opts := minio.ListObjectsOptions{Prefix: s.listPrefix(), Recursive: true}

	var docs []document.Document
	for info := range s.client.ListObjects(ctx, s.bucket, opts) {
		if info.Err != nil {
			return nil, &reconcile.StoreError{Store: s.Name(), Op: "list", Err: info.Err}
		}
		if !strings.HasSuffix(info.Key, ".json") {
			continue
		}

		doc, err := s.fetch(ctx, info.Key)
		if err != nil {
			return nil, &reconcile.StoreError{Store: s.Name(), Op: "list", Err: err}
		}
		if since != nil && doc.Timestamp.Before(*since) {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Insert persists the document as a single JSON object, substituting the
// clock's now when it carries no timestamp.
func (s *Store) Insert(ctx context.Context, doc document.Document) error {
	env := envelope{
		ID:        doc.ID.String(),
		Index:     doc.Index,
		Type:      doc.Type,
		Timestamp: doc.PersistTimestamp(s.clock).UnixMilli(),
		Content:   doc.Content,
	}
	body, err := json.Marshal(env)
	if err != nil {
		return &reconcile.StoreError{Store: s.Name(), Op: "insert", Err: err}
	}

	_, err = s.client.PutObject(ctx, s.bucket, s.objectKey(doc.ID), bytes.NewReader(body), int64(len(body)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return &reconcile.StoreError{Store: s.Name(), Op: "insert", Err: err}
	}
	return nil
}

// DeleteByID removes the document's object. Keys are derived from the
// identity, so a single identity can never map to more than one object.
func (s *Store) DeleteByID(ctx context.Context, id uuid.UUID) error {
	err := s.client.RemoveObject(ctx, s.bucket, s.objectKey(id), minio.RemoveObjectOptions{})
	if err != nil {
		return &reconcile.StoreError{Store: s.Name(), Op: "delete", Err: err}
	}
	return nil
}

func (s *Store) fetch(ctx context.Context, key string) (document.Document, error) {
	reader, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return document.Document{}, fmt.Errorf("failed to get %s: %w", key, err)
	}
	defer reader.Close()

	body, err := io.ReadAll(reader)
	if err != nil {
		return document.Document{}, fmt.Errorf("failed to read %s: %w", key, err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return document.Document{}, fmt.Errorf("failed to parse %s: %w", key, err)
	}

	id, err := uuid.Parse(env.ID)
	if err != nil {
		return document.Document{}, fmt.Errorf("invalid identity in %s: %w", key, err)
	}

	return document.Document{
		ID:        id,
		Index:     env.Index,
		Type:      env.Type,
		Timestamp: time.UnixMilli(env.Timestamp).UTC(),
		Content:   env.Content,
	}, nil
}

func (s *Store) objectKey(id uuid.UUID) string {
	return path.Join(s.prefix, id.String()+".json")
}

func (s *Store) listPrefix() string {
	if s.prefix == "" {
		return ""
	}
	return s.prefix + "/"
}
