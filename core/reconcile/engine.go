package reconcile

import (
	"context"
	"fmt"
	"time"

	"doc-sync/core/document"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Reconcile performs one diff-and-merge pass between stores a and b. When
// since is non-nil only documents with timestamp >= since are considered on
// either side; the caller is responsible for choosing the bound
// conservatively (see Driver).
//
// Matching is purely by identity. For each identity the outcome is:
//
//	present in a only          -> upsert into b
//	present in b only          -> upsert into a
//	both, a newer              -> upsert a's copy into b
//	both, b newer              -> upsert b's copy into a
//	both, equal timestamps     -> no action
//
// B-bound upserts are applied first, then A-bound. The first failed store
// call aborts the pass; the returned Report reflects whatever was applied up
// to that point.
func Reconcile(ctx context.Context, a, b Store, since *time.Time) (Report, error) {
	var report Report

	var docsA, docsB []document.Document
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		docsA, err = a.ListDocuments(gctx, since)
		if err != nil {
			return fmt.Errorf("listing %s: %w", a.Name(), err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		docsB, err = b.ListDocuments(gctx, since)
		if err != nil {
			return fmt.Errorf("listing %s: %w", b.Name(), err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return report, err
	}

	report.QueriedA = len(docsA)
	report.QueriedB = len(docsB)

	indexA := buildIndex(docsA)
	indexB := buildIndex(docsB)

	// Iterate the listings rather than the maps so the apply order is
	// deterministic for a given pair of listings. Duplicate identities within
	// one listing are skipped after their first occurrence.
	var toB, toA []document.Document
	seenA := make(map[uuid.UUID]struct{}, len(docsA))
	for _, docA := range docsA {
		if _, dup := seenA[docA.ID]; dup {
			continue
		}
		seenA[docA.ID] = struct{}{}
		docB, shared := indexB[docA.ID]
		switch {
		case !shared:
			toB = append(toB, docA)
		case docA.Timestamp.Equal(docB.Timestamp):
			// Already synchronized as far as metadata is concerned.
			// Content is intentionally never compared here.
		case docA.Timestamp.After(docB.Timestamp):
			toB = append(toB, docA)
		default:
			toA = append(toA, docB)
		}
	}
	seenB := make(map[uuid.UUID]struct{}, len(docsB))
	for _, docB := range docsB {
		if _, dup := seenB[docB.ID]; dup {
			continue
		}
		seenB[docB.ID] = struct{}{}
		if _, shared := indexA[docB.ID]; !shared {
			toA = append(toA, docB)
		}
	}

	for _, doc := range toB {
		if err := Upsert(ctx, b, doc); err != nil {
			return report, fmt.Errorf("upsert %s into %s: %w", doc.ID, b.Name(), err)
		}
		report.UpsertedIntoB++
	}
	for _, doc := range toA {
		if err := Upsert(ctx, a, doc); err != nil {
			return report, fmt.Errorf("upsert %s into %s: %w", doc.ID, a.Name(), err)
		}
		report.UpsertedIntoA++
	}

	return report, nil
}

// buildIndex maps a listing by identity. Duplicate identities within one
// listing are an upstream invariant violation; the first occurrence wins,
// deterministically, so no document is ever applied twice.
func buildIndex(docs []document.Document) map[uuid.UUID]document.Document {
	index := make(map[uuid.UUID]document.Document, len(docs))
	for _, doc := range docs {
		if _, exists := index[doc.ID]; !exists {
			index[doc.ID] = doc
		}
	}
	return index
}
