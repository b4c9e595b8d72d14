package rag_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/taxrecall/taxrecall/rag"
	"github.com/taxrecall/taxrecall/rag/engine"
	"github.com/taxrecall/taxrecall/rag/types"
)

var _ = Describe("DualIndexer", func() {
	var (
		ctx      context.Context
		dense    *memDense
		sparse   *engine.MemoryTextIndex
		embedder bigramEmbedder
	)

	chunk := func(id, content string) rag.Record {
		return rag.Record{
			ID:      id,
			Content: content,
			Metadata: types.Metadata{
				Kind:          types.KindDocumentChunk,
				Source:        "lei.txt",
				ParentContext: "Contexto Geral",
			},
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		dense = newMemDense(embedder.Dimensions())
		var err error
		sparse, err = engine.NewMemoryTextIndex("")
		Expect(err).ToNot(HaveOccurred())
	})

	It("writes each record to both stores under the same identifier", func() {
		indexer := rag.NewDualIndexer(dense, sparse, embedder)
		err := indexer.Index(ctx, chunk("rec-1", "A alíquota interna de SP é de 18%."))
		Expect(err).ToNot(HaveOccurred())

		d, s := indexer.Counts(ctx)
		Expect(d).To(Equal(1))
		Expect(s).To(Equal(1))

		results, err := sparse.Search(ctx, "alíquota", 5)
		Expect(err).ToNot(HaveOccurred())
		Expect(results).To(HaveLen(1))
		Expect(results[0].ID).To(Equal("rec-1"))
	})

	It("rejects records with invalid metadata before any write", func() {
		indexer := rag.NewDualIndexer(dense, sparse, embedder)
		rec := chunk("rec-2", "conteúdo qualquer")
		rec.Metadata.Source = ""

		Expect(indexer.Index(ctx, rec)).To(HaveOccurred())
		d, s := indexer.Counts(ctx)
		Expect(d).To(BeZero())
		Expect(s).To(BeZero())
	})

	It("rejects embeddings that do not match the store dimensionality", func() {
		indexer := rag.NewDualIndexer(dense, sparse, wrongDimsEmbedder{})
		err := indexer.Index(ctx, chunk("rec-3", "conteúdo qualquer"))
		Expect(err).To(MatchError(rag.ErrDimensionMismatch))

		d, s := indexer.Counts(ctx)
		Expect(d).To(BeZero())
		Expect(s).To(BeZero())
	})

	It("rolls the dense write back when the sparse write fails", func() {
		indexer := rag.NewDualIndexer(dense, downSparse{}, embedder)
		err := indexer.Index(ctx, chunk("rec-4", "conteúdo qualquer"))
		Expect(err).To(HaveOccurred())
		Expect(dense.Count(ctx)).To(BeZero())
	})

	It("surfaces a partial write when the rollback itself fails", func() {
		indexer := rag.NewDualIndexer(noDeleteDense{dense}, downSparse{}, embedder)
		err := indexer.Index(ctx, chunk("rec-5", "conteúdo qualquer"))

		var partial *rag.PartialWriteError
		Expect(errors.As(err, &partial)).To(BeTrue())
		Expect(partial.ID).To(Equal("rec-5"))
		Expect(partial.DenseStored).To(BeTrue())
	})

	It("keeps committed records when a later record in the batch fails", func() {
		indexer := rag.NewDualIndexer(dense, sparse, embedder)
		recs := []rag.Record{
			chunk("rec-6", "O primeiro registro é válido."),
			{ID: "rec-7", Content: ""},
			chunk("rec-8", "Nunca alcançado."),
		}

		indexed, err := indexer.IndexBatch(ctx, recs)
		Expect(err).To(HaveOccurred())
		Expect(indexed).To(Equal(1))

		d, s := indexer.Counts(ctx)
		Expect(d).To(Equal(1))
		Expect(s).To(Equal(1))
	})
})
