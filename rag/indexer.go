package rag

import (
	"context"
	"fmt"

	"github.com/mudler/xlog"
	"github.com/taxrecall/taxrecall/rag/interfaces"
	"github.com/taxrecall/taxrecall/rag/types"
)

// Record is the unit of ingestion: one fact or passage, carrying the stable
// identifier shared by both stores.
type Record struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Metadata types.Metadata `json:"metadata"`
}

// DualIndexer writes each record into the dense and the sparse store under
// the same identifier, keeping the two in 1:1 correspondence.
type DualIndexer struct {
	dense    interfaces.DenseStore
	sparse   interfaces.SparseStore
	embedder interfaces.Embedder
}

// NewDualIndexer wires the two stores and the shared embedding function.
func NewDualIndexer(dense interfaces.DenseStore, sparse interfaces.SparseStore, embedder interfaces.Embedder) *DualIndexer {
	return &DualIndexer{dense: dense, sparse: sparse, embedder: embedder}
}

// Index embeds and writes a single record to both stores. A record that
// reaches only one store is compensated with a best-effort delete and
// reported as a *PartialWriteError; it must never be silently half-written.
func (ix *DualIndexer) Index(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		return fmt.Errorf("record without identifier")
	}
	if rec.Content == "" {
		return fmt.Errorf("record %s: empty content", rec.ID)
	}
	if err := rec.Metadata.Validate(); err != nil {
		return fmt.Errorf("record %s: %w", rec.ID, err)
	}

	embedding, err := ix.embedder.Embed(ctx, rec.Content)
	if err != nil {
		return fmt.Errorf("record %s: embedding failed: %w", rec.ID, err)
	}
	if want := ix.dense.Dimensions(); len(embedding) != want {
		return fmt.Errorf("record %s: got %d dimensions, store expects %d: %w",
			rec.ID, len(embedding), want, ErrDimensionMismatch)
	}

	if err := ix.dense.Insert(ctx, rec.ID, rec.Content, embedding, rec.Metadata); err != nil {
		return fmt.Errorf("record %s: dense insert failed: %w", rec.ID, err)
	}

	if err := ix.sparse.Index(ctx, rec.ID, types.Document{Content: rec.Content, Metadata: rec.Metadata}); err != nil {
		// Roll the dense write back so the stores stay in correspondence.
		if delErr := ix.dense.Delete(ctx, rec.ID); delErr != nil {
			xlog.Error("Failed to compensate dense write after sparse failure",
				"id", rec.ID, "sparse_error", err, "delete_error", delErr)
			pw := &PartialWriteError{ID: rec.ID, DenseStored: true, Err: err}
			xlog.Error("Data integrity fault: record half-written", "id", rec.ID, "error", pw)
			return pw
		}
		return fmt.Errorf("record %s: sparse index failed, dense write rolled back: %w", rec.ID, err)
	}

	return nil
}

// IndexBatch writes records one by one; each committed record is durable
// regardless of later failures. It returns how many records were fully
// indexed along with the first hard error encountered.
func (ix *DualIndexer) IndexBatch(ctx context.Context, recs []Record) (int, error) {
	indexed := 0
	for _, rec := range recs {
		if err := ix.Index(ctx, rec); err != nil {
			return indexed, err
		}
		indexed++
	}
	return indexed, nil
}

// Counts reports the record count per store. Diverging counts indicate skew
// that needs reconciliation by identifier.
func (ix *DualIndexer) Counts(ctx context.Context) (dense, sparse int) {
	return ix.dense.Count(ctx), ix.sparse.Count(ctx)
}
