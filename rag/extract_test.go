package rag_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/taxrecall/taxrecall/rag"
)

var _ = Describe("ExtractPages", func() {
	It("reads plain text files as a single unpaginated block", func() {
		path := filepath.Join(GinkgoT().TempDir(), "lei.txt")
		Expect(os.WriteFile(path, []byte("Art. 1º Texto da lei."), 0644)).To(Succeed())

		pages, err := rag.ExtractPages(path)
		Expect(err).ToNot(HaveOccurred())
		Expect(pages).To(HaveLen(1))
		Expect(pages[0].Number).To(Equal(0))
		Expect(pages[0].Text).To(ContainSubstring("Art. 1º"))
	})

	It("strips markup from HTML files", func() {
		path := filepath.Join(GinkgoT().TempDir(), "lei.html")
		html := "<html><body><p>Art. 2º A alíquota é de <b>18%</b>.</p></body></html>"
		Expect(os.WriteFile(path, []byte(html), 0644)).To(Succeed())

		pages, err := rag.ExtractPages(path)
		Expect(err).ToNot(HaveOccurred())
		Expect(pages).To(HaveLen(1))
		Expect(pages[0].Text).To(ContainSubstring("Art. 2º"))
		Expect(pages[0].Text).ToNot(ContainSubstring("<b>"))
	})

	It("rejects unsupported file types", func() {
		_, err := rag.ExtractPages("planilha.xlsx")
		Expect(err).To(HaveOccurred())
	})
})
