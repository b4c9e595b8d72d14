package engine_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/taxrecall/taxrecall/rag/engine"
	"github.com/taxrecall/taxrecall/rag/types"
)

var _ = Describe("ChromemStore", func() {
	var (
		ctx   context.Context
		store *engine.ChromemStore
	)

	meta := types.Metadata{
		Kind:          types.KindDocumentChunk,
		Source:        "lei.txt",
		ParentContext: "Art. 1º",
	}

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		store, err = engine.NewChromemStore("legislacao", GinkgoT().TempDir(), 4)
		Expect(err).ToNot(HaveOccurred())
	})

	It("rejects embeddings of the wrong dimensionality", func() {
		err := store.Insert(ctx, "a", "texto", []float32{1, 0}, meta)
		Expect(err).To(HaveOccurred())

		_, err = store.QueryNearest(ctx, []float32{1, 0}, 1)
		Expect(err).To(HaveOccurred())
	})

	It("returns neighbors in descending similarity order", func() {
		Expect(store.Insert(ctx, "exact", "registro idêntico", []float32{1, 0, 0, 0}, meta)).To(Succeed())
		Expect(store.Insert(ctx, "near", "registro próximo", []float32{0.7071, 0.7071, 0, 0}, meta)).To(Succeed())
		Expect(store.Insert(ctx, "far", "registro distante", []float32{0, 0, 1, 0}, meta)).To(Succeed())

		results, err := store.QueryNearest(ctx, []float32{1, 0, 0, 0}, 3)
		Expect(err).ToNot(HaveOccurred())
		Expect(results).To(HaveLen(3))
		Expect(results[0].ID).To(Equal("exact"))
		Expect(results[1].ID).To(Equal("near"))
		Expect(results[0].Similarity).To(BeNumerically(">", results[1].Similarity))
		Expect(results[0].Metadata.Source).To(Equal("lei.txt"))
	})

	It("clamps the result count to the collection size", func() {
		Expect(store.Insert(ctx, "only", "registro único", []float32{1, 0, 0, 0}, meta)).To(Succeed())

		results, err := store.QueryNearest(ctx, []float32{1, 0, 0, 0}, 10)
		Expect(err).ToNot(HaveOccurred())
		Expect(results).To(HaveLen(1))
	})

	It("returns nothing when the collection is empty", func() {
		results, err := store.QueryNearest(ctx, []float32{1, 0, 0, 0}, 5)
		Expect(err).ToNot(HaveOccurred())
		Expect(results).To(BeEmpty())
	})

	It("deletes by identifier and resets the collection", func() {
		Expect(store.Insert(ctx, "a", "registro um", []float32{1, 0, 0, 0}, meta)).To(Succeed())
		Expect(store.Insert(ctx, "b", "registro dois", []float32{0, 1, 0, 0}, meta)).To(Succeed())

		Expect(store.Delete(ctx, "a")).To(Succeed())
		Expect(store.Count(ctx)).To(Equal(1))

		Expect(store.Reset(ctx)).To(Succeed())
		Expect(store.Count(ctx)).To(BeZero())
	})
})
