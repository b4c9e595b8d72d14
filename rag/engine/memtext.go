package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/taxrecall/taxrecall/rag/types"
)

// MemoryTextIndex is a sparse keyword store with no external dependencies:
// documents live in memory and are persisted as a single JSON file. Scoring is
// plain term frequency over the query terms. It serves as the
// zero-infrastructure sparse engine and as the store used by offline tests.
type MemoryTextIndex struct {
	path      string
	documents map[string]types.Document
	mu        sync.RWMutex
}

// NewMemoryTextIndex loads the index persisted at path, or starts empty when
// the file does not exist yet. An empty path keeps the index memory-only.
func NewMemoryTextIndex(path string) (*MemoryTextIndex, error) {
	index := &MemoryTextIndex{
		path:      path,
		documents: make(map[string]types.Document),
	}

	if err := index.load(); err != nil {
		return nil, fmt.Errorf("memtext: failed to load index: %w", err)
	}
	return index, nil
}

func (i *MemoryTextIndex) Index(ctx context.Context, id string, doc types.Document) error {
	if doc.Content == "" {
		return fmt.Errorf("memtext: empty content")
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	i.documents[id] = doc
	return i.save()
}

func (i *MemoryTextIndex) Search(ctx context.Context, query string, k int) ([]types.Result, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	queryTerms := strings.Fields(strings.ToLower(query))
	if len(queryTerms) == 0 {
		return nil, nil
	}

	scored := make([]types.Result, 0)
	for id, doc := range i.documents {
		contentLower := strings.ToLower(doc.Content)

		score := float32(0)
		for _, term := range queryTerms {
			if strings.Contains(contentLower, term) {
				score += 1.0
			}
		}
		score = score / float32(len(queryTerms))

		if score > 0 {
			scored = append(scored, types.Result{
				ID:        id,
				Content:   doc.Content,
				Metadata:  doc.Metadata,
				Relevance: score,
			})
		}
	}

	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].Relevance > scored[b].Relevance
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

func (i *MemoryTextIndex) Delete(ctx context.Context, ids ...string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	for _, id := range ids {
		delete(i.documents, id)
	}
	return i.save()
}

func (i *MemoryTextIndex) Count(ctx context.Context) int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.documents)
}

func (i *MemoryTextIndex) Reset(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.documents = make(map[string]types.Document)
	return i.save()
}

func (i *MemoryTextIndex) load() error {
	if i.path == "" {
		return nil
	}
	data, err := os.ReadFile(i.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, &i.documents)
}

func (i *MemoryTextIndex) save() error {
	if i.path == "" {
		return nil
	}
	data, err := json.Marshal(i.documents)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(i.path), 0755); err != nil {
		return err
	}
	return os.WriteFile(i.path, data, 0644)
}
