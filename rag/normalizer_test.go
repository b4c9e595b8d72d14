package rag_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/taxrecall/taxrecall/rag"
)

var _ = Describe("Normalizer", func() {
	var normalizer *rag.Normalizer

	BeforeEach(func() {
		normalizer = rag.NewNormalizer()
	})

	It("appends the legal term while keeping the colloquial wording", func() {
		out := normalizer.Normalize("Quanto pago de imposto sobre aluguel em SP?")
		Expect(out).To(ContainSubstring("aluguel"))
		Expect(out).To(ContainSubstring("locação de bens imóveis"))
	})

	It("matches colloquial terms case-insensitively", func() {
		out := normalizer.Normalize("Aluguel de sala comercial")
		Expect(out).To(ContainSubstring("locação de bens imóveis"))
	})

	It("leaves queries without colloquial terms untouched", func() {
		query := "alíquota interestadual entre MG e BA"
		Expect(normalizer.Normalize(query)).To(Equal(query))
	})

	It("is idempotent", func() {
		once := normalizer.Normalize("frete de mercadorias e aluguel")
		twice := normalizer.Normalize(once)
		Expect(twice).To(Equal(once))
	})

	It("expands multiple terms in one query", func() {
		out := normalizer.Normalize("imposto sobre frete e remédio")
		Expect(out).To(ContainSubstring("transporte de carga"))
		Expect(out).To(ContainSubstring("medicamentos"))
	})

	It("honors a custom synonym table", func() {
		n := rag.NewNormalizerWithSynonyms(map[string]string{"luz": "energia elétrica"})
		Expect(n.Normalize("conta de luz")).To(ContainSubstring("energia elétrica"))
		Expect(n.Normalize("aluguel")).To(Equal("aluguel"))
	})
})
