package engine

import (
	"context"
	"fmt"
	"runtime"

	"github.com/philippgille/chromem-go"
	"github.com/taxrecall/taxrecall/rag/types"
)

// ChromemStore is an embedded dense vector store backed by chromem-go.
// Records are inserted with precomputed embeddings; the store never calls an
// embedding model itself.
type ChromemStore struct {
	collectionName string
	collection     *chromem.Collection
	db             *chromem.DB
	dims           int
}

// NewChromemStore opens (or creates) a persistent collection under path.
// dims fixes the accepted embedding dimensionality.
func NewChromemStore(collectionName, path string, dims int) (*ChromemStore, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("chromem: dimensions must be positive, got %d", dims)
	}

	db, err := chromem.NewPersistentDB(path, true)
	if err != nil {
		return nil, err
	}

	c, err := db.GetOrCreateCollection(collectionName, nil, rejectEmbedding)
	if err != nil {
		return nil, err
	}

	return &ChromemStore{
		collectionName: collectionName,
		collection:     c,
		db:             db,
		dims:           dims,
	}, nil
}

// rejectEmbedding guards against accidental text-only operations: every
// insert and query must carry a precomputed vector.
func rejectEmbedding(ctx context.Context, text string) ([]float32, error) {
	return nil, fmt.Errorf("chromem: store requires precomputed embeddings")
}

func (c *ChromemStore) Dimensions() int {
	return c.dims
}

func (c *ChromemStore) Insert(ctx context.Context, id, content string, embedding []float32, meta types.Metadata) error {
	if content == "" {
		return fmt.Errorf("chromem: empty content")
	}
	if len(embedding) != c.dims {
		return fmt.Errorf("chromem: embedding has %d dimensions, store expects %d", len(embedding), c.dims)
	}

	return c.collection.AddDocuments(ctx, []chromem.Document{
		{
			ID:        id,
			Content:   content,
			Embedding: embedding,
			Metadata:  meta.ToMap(),
		},
	}, runtime.NumCPU())
}

func (c *ChromemStore) QueryNearest(ctx context.Context, embedding []float32, k int) ([]types.Result, error) {
	if len(embedding) != c.dims {
		return nil, fmt.Errorf("chromem: query embedding has %d dimensions, store expects %d", len(embedding), c.dims)
	}

	// chromem rejects k larger than the collection size.
	if count := c.collection.Count(); k > count {
		k = count
	}
	if k <= 0 {
		return nil, nil
	}

	hits, err := c.collection.QueryEmbedding(ctx, embedding, k, nil, nil)
	if err != nil {
		return nil, err
	}

	results := make([]types.Result, 0, len(hits))
	for _, h := range hits {
		results = append(results, types.Result{
			ID:         h.ID,
			Content:    h.Content,
			Metadata:   types.MetadataFromMap(h.Metadata),
			Similarity: h.Similarity,
		})
	}
	return results, nil
}

func (c *ChromemStore) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return c.collection.Delete(ctx, nil, nil, ids...)
}

func (c *ChromemStore) Count(ctx context.Context) int {
	return c.collection.Count()
}

func (c *ChromemStore) Reset(ctx context.Context) error {
	if err := c.db.DeleteCollection(c.collectionName); err != nil {
		return fmt.Errorf("chromem: error deleting collection: %w", err)
	}
	collection, err := c.db.GetOrCreateCollection(c.collectionName, nil, rejectEmbedding)
	if err != nil {
		return fmt.Errorf("chromem: error recreating collection: %w", err)
	}
	c.collection = collection
	return nil
}
