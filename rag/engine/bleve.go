package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/en"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/pt"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/mudler/xlog"
	"github.com/taxrecall/taxrecall/rag/types"
)

// BleveStore is a sparse keyword store backed by a bleve index. Only the
// content field is analyzed and searchable; provenance is stored verbatim for
// hydration and never influences relevance.
type BleveStore struct {
	index    bleve.Index
	path     string
	analyzer string
}

// NewBleveStore opens (or creates) a bleve index at path. analyzer selects
// the language analyzer for the content field; an empty value defaults to
// Portuguese, matching the corpus the engine was built for.
func NewBleveStore(path, analyzer string) (*BleveStore, error) {
	if analyzer == "" {
		analyzer = "pt"
	}

	index, err := bleve.Open(path)
	if err != nil {
		index, err = bleve.New(path, buildMapping(analyzer))
		if err != nil {
			return nil, fmt.Errorf("bleve: failed to create index: %w", err)
		}
	}

	return &BleveStore{index: index, path: path, analyzer: analyzer}, nil
}

func buildMapping(analyzer string) mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = analyzer

	contentField := bleve.NewTextFieldMapping()
	contentField.Analyzer = analyzer

	// Stored but unsearchable: metadata must not act as a ranking signal.
	metadataField := bleve.NewTextFieldMapping()
	metadataField.Index = false
	metadataField.Store = true

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("content", contentField)
	docMapping.AddFieldMappingsAt("metadata", metadataField)
	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}

func (b *BleveStore) Index(ctx context.Context, id string, doc types.Document) error {
	if doc.Content == "" {
		return fmt.Errorf("bleve: empty content")
	}

	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("bleve: failed to marshal metadata: %w", err)
	}

	return b.index.Index(id, map[string]interface{}{
		"content":  doc.Content,
		"metadata": string(metadataJSON),
	})
}

func (b *BleveStore) Search(ctx context.Context, query string, k int) ([]types.Result, error) {
	q := bleve.NewMatchQuery(query)
	q.SetField("content")

	req := bleve.NewSearchRequest(q)
	req.Size = k
	req.Fields = []string{"content", "metadata"}

	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("bleve: search failed: %w", err)
	}

	results := make([]types.Result, 0, len(res.Hits))
	for _, hit := range res.Hits {
		r := types.Result{
			ID:        hit.ID,
			Relevance: float32(hit.Score),
		}
		if content, ok := hit.Fields["content"].(string); ok {
			r.Content = content
		}
		if raw, ok := hit.Fields["metadata"].(string); ok {
			if err := json.Unmarshal([]byte(raw), &r.Metadata); err != nil {
				xlog.Warn("Failed to decode record metadata", "id", hit.ID, "error", err)
			}
		}
		results = append(results, r)
	}
	return results, nil
}

func (b *BleveStore) Delete(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		if err := b.index.Delete(id); err != nil {
			return fmt.Errorf("bleve: failed to delete %s: %w", id, err)
		}
	}
	return nil
}

func (b *BleveStore) Count(ctx context.Context) int {
	count, err := b.index.DocCount()
	if err != nil {
		xlog.Error("Failed to count indexed documents", "error", err)
		return 0
	}
	return int(count)
}

func (b *BleveStore) Reset(ctx context.Context) error {
	if err := b.index.Close(); err != nil {
		xlog.Warn("Failed to close bleve index", "error", err)
	}
	if err := os.RemoveAll(b.path); err != nil {
		return fmt.Errorf("bleve: failed to remove index directory: %w", err)
	}
	index, err := bleve.New(b.path, buildMapping(b.analyzer))
	if err != nil {
		return fmt.Errorf("bleve: failed to recreate index: %w", err)
	}
	b.index = index
	return nil
}

// Close releases the underlying index.
func (b *BleveStore) Close() error {
	return b.index.Close()
}
