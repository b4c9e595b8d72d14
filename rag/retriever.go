package rag

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mudler/xlog"
	"github.com/taxrecall/taxrecall/rag/interfaces"
	"github.com/taxrecall/taxrecall/rag/types"
)

const (
	// DefaultTopKDense and DefaultTopKSparse are the per-store result counts
	// used when the caller passes no override.
	DefaultTopKDense  = 5
	DefaultTopKSparse = 5

	defaultStoreTimeout   = 10 * time.Second
	defaultDedupPrefixLen = 100
)

// HybridRetriever answers queries by combining the dense and the sparse
// store. Semantic results always precede keyword results in the fused
// output; no score is compared across the two lists, their scales are
// disjoint. Reciprocal-rank fusion is a documented future extension, not a
// behavior of this type.
type HybridRetriever struct {
	dense    interfaces.DenseStore
	sparse   interfaces.SparseStore
	embedder interfaces.Embedder

	normalizer     *Normalizer
	storeTimeout   time.Duration
	dedupPrefixLen int
}

// NewHybridRetriever wires the two stores and the shared embedding function.
func NewHybridRetriever(dense interfaces.DenseStore, sparse interfaces.SparseStore, embedder interfaces.Embedder) *HybridRetriever {
	return &HybridRetriever{
		dense:          dense,
		sparse:         sparse,
		embedder:       embedder,
		storeTimeout:   defaultStoreTimeout,
		dedupPrefixLen: defaultDedupPrefixLen,
	}
}

// SetNormalizer enables query rewriting before retrieval.
func (r *HybridRetriever) SetNormalizer(n *Normalizer) {
	r.normalizer = n
}

// SetStoreTimeout bounds each store lookup. A store that exceeds it is
// treated as unavailable for that query.
func (r *HybridRetriever) SetStoreTimeout(d time.Duration) {
	if d > 0 {
		r.storeTimeout = d
	}
}

// SetDedupPrefixLen adjusts the near-duplicate prefix comparison length.
func (r *HybridRetriever) SetDedupPrefixLen(n int) {
	if n > 0 {
		r.dedupPrefixLen = n
	}
}

// Retrieve runs the hybrid lookup for a query. Read-only.
//
// Both store lookups are issued concurrently and joined before fusion. If one
// store fails or times out, the call degrades to the other and flags the
// context as degraded; if both fail, it returns ErrUnavailable. A failed
// query embedding degrades to keyword-only, since the sparse path needs no
// vector.
func (r *HybridRetriever) Retrieve(ctx context.Context, query string, kDense, kSparse int) (*types.Context, error) {
	if kDense <= 0 {
		kDense = DefaultTopKDense
	}
	if kSparse <= 0 {
		kSparse = DefaultTopKSparse
	}
	if r.normalizer != nil {
		query = r.normalizer.Normalize(query)
	}

	var (
		wg            sync.WaitGroup
		denseResults  []types.Result
		sparseResults []types.Result
		denseErr      error
		sparseErr     error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		cctx, cancel := context.WithTimeout(ctx, r.storeTimeout)
		defer cancel()
		embedding, err := r.embedder.Embed(cctx, query)
		if err != nil {
			denseErr = fmt.Errorf("query embedding failed: %w", err)
			return
		}
		denseResults, denseErr = r.dense.QueryNearest(cctx, embedding, kDense)
	}()
	go func() {
		defer wg.Done()
		cctx, cancel := context.WithTimeout(ctx, r.storeTimeout)
		defer cancel()
		sparseResults, sparseErr = r.sparse.Search(cctx, query, kSparse)
	}()
	wg.Wait()

	if denseErr != nil && sparseErr != nil {
		return nil, fmt.Errorf("%w: dense: %v; sparse: %v", ErrUnavailable, denseErr, sparseErr)
	}
	if denseErr != nil {
		xlog.Warn("Dense store unavailable, degrading to keyword-only", "error", denseErr)
	}
	if sparseErr != nil {
		xlog.Warn("Sparse store unavailable, degrading to semantic-only", "error", sparseErr)
	}

	out := &types.Context{
		DenseDegraded:  denseErr != nil,
		SparseDegraded: sparseErr != nil,
	}
	r.fuse(denseResults, sparseResults, out)
	return out, nil
}

// fuse emits semantic results first in descending similarity order, then
// appends keyword results in descending relevance order, suppressing any
// keyword hit whose leading prefix already appears in an emitted result.
func (r *HybridRetriever) fuse(dense, sparse []types.Result, out *types.Context) {
	sort.SliceStable(dense, func(a, b int) bool {
		return dense[a].Similarity > dense[b].Similarity
	})
	sort.SliceStable(sparse, func(a, b int) bool {
		return sparse[a].Relevance > sparse[b].Relevance
	})

	included := make([]string, 0, len(dense)+len(sparse))
	for _, d := range dense {
		d.Origin = types.OriginSemantic
		out.Results = append(out.Results, d)
		included = append(included, d.Content)
	}
	for _, s := range sparse {
		if r.isNearDuplicate(included, s.Content) {
			continue
		}
		s.Origin = types.OriginKeyword
		out.Results = append(out.Results, s)
		included = append(included, s.Content)
	}
}

// isNearDuplicate implements the prefix-containment baseline: the leading
// dedupPrefixLen runes of the candidate appearing inside any emitted content
// count as a duplicate. The check is approximate in both directions.
func (r *HybridRetriever) isNearDuplicate(included []string, candidate string) bool {
	prefix := candidate
	if runes := []rune(candidate); len(runes) > r.dedupPrefixLen {
		prefix = string(runes[:r.dedupPrefixLen])
	}
	for _, content := range included {
		if strings.Contains(content, prefix) {
			return true
		}
	}
	return false
}
