package interfaces

import (
	"context"

	"github.com/taxrecall/taxrecall/rag/types"
)

// DenseStore is the vector-similarity side of the dual index.
type DenseStore interface {
	// Insert writes a record under a stable identifier. The embedding must
	// match the dimensionality the store was created with.
	Insert(ctx context.Context, id, content string, embedding []float32, meta types.Metadata) error

	// QueryNearest returns up to k records ordered by descending similarity
	// to the query embedding. Similarity is in [0, 1], 1 meaning identical.
	QueryNearest(ctx context.Context, embedding []float32, k int) ([]types.Result, error)

	Delete(ctx context.Context, ids ...string) error
	Count(ctx context.Context) int
	Reset(ctx context.Context) error

	// Dimensions returns the vector dimensionality fixed at creation time.
	Dimensions() int
}

// SparseStore is the keyword side of the dual index.
type SparseStore interface {
	// Index writes a document under the same identifier used by the dense
	// store for the corresponding record.
	Index(ctx context.Context, id string, doc types.Document) error

	// Search returns up to k documents ordered by descending keyword
	// relevance. The score scale is store-specific.
	Search(ctx context.Context, query string, k int) ([]types.Result, error)

	Delete(ctx context.Context, ids ...string) error
	Count(ctx context.Context) int
	Reset(ctx context.Context) error
}

// Embedder turns text into a fixed-length vector. Implementations must be
// deterministic for a fixed model version and safe for concurrent use.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}
