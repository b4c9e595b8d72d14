package engine_test

import (
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/taxrecall/taxrecall/rag/engine"
	"github.com/taxrecall/taxrecall/rag/types"
)

var _ = Describe("MemoryTextIndex", func() {
	var (
		ctx   context.Context
		index *engine.MemoryTextIndex
	)

	meta := types.Metadata{
		Kind:          types.KindDocumentChunk,
		Source:        "lei.txt",
		ParentContext: "Contexto Geral",
	}

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		index, err = engine.NewMemoryTextIndex("")
		Expect(err).ToNot(HaveOccurred())
	})

	It("ranks documents by how many query terms they contain", func() {
		Expect(index.Index(ctx, "both", types.Document{
			Content: "A alíquota interestadual de SP.", Metadata: meta,
		})).To(Succeed())
		Expect(index.Index(ctx, "one", types.Document{
			Content: "A alíquota interna de MG.", Metadata: meta,
		})).To(Succeed())
		Expect(index.Index(ctx, "none", types.Document{
			Content: "Documento sem relação.", Metadata: meta,
		})).To(Succeed())

		results, err := index.Search(ctx, "alíquota interestadual", 10)
		Expect(err).ToNot(HaveOccurred())
		Expect(results).To(HaveLen(2))
		Expect(results[0].ID).To(Equal("both"))
		Expect(results[0].Relevance).To(BeNumerically(">", results[1].Relevance))
	})

	It("truncates results to the requested count", func() {
		for _, id := range []string{"a", "b", "c"} {
			Expect(index.Index(ctx, id, types.Document{
				Content: "alíquota " + id, Metadata: meta,
			})).To(Succeed())
		}
		results, err := index.Search(ctx, "alíquota", 2)
		Expect(err).ToNot(HaveOccurred())
		Expect(results).To(HaveLen(2))
	})

	It("rejects documents without content", func() {
		Expect(index.Index(ctx, "empty", types.Document{Metadata: meta})).To(HaveOccurred())
	})

	It("deletes and resets", func() {
		Expect(index.Index(ctx, "a", types.Document{Content: "um", Metadata: meta})).To(Succeed())
		Expect(index.Index(ctx, "b", types.Document{Content: "dois", Metadata: meta})).To(Succeed())

		Expect(index.Delete(ctx, "a")).To(Succeed())
		Expect(index.Count(ctx)).To(Equal(1))

		Expect(index.Reset(ctx)).To(Succeed())
		Expect(index.Count(ctx)).To(BeZero())
	})

	It("persists documents across reopen", func() {
		path := filepath.Join(GinkgoT().TempDir(), "fulltext.json")

		first, err := engine.NewMemoryTextIndex(path)
		Expect(err).ToNot(HaveOccurred())
		Expect(first.Index(ctx, "a", types.Document{
			Content: "A alíquota interna de SP.", Metadata: meta,
		})).To(Succeed())

		second, err := engine.NewMemoryTextIndex(path)
		Expect(err).ToNot(HaveOccurred())
		Expect(second.Count(ctx)).To(Equal(1))

		results, err := second.Search(ctx, "alíquota", 5)
		Expect(err).ToNot(HaveOccurred())
		Expect(results).To(HaveLen(1))
		Expect(results[0].Metadata.Source).To(Equal("lei.txt"))
	})
})
