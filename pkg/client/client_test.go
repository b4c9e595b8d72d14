package client_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/taxrecall/taxrecall/pkg/client"
)

var _ = Describe("Client", func() {
	It("sends queries and decodes the fused context", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.Method).To(Equal(http.MethodPost))
			Expect(r.URL.Path).To(Equal("/api/query"))

			var req map[string]interface{}
			Expect(json.NewDecoder(r.Body).Decode(&req)).To(Succeed())
			Expect(req["query"]).To(Equal("alíquota de SP"))

			json.NewEncoder(w).Encode(client.QueryResponse{
				Context:        "--- RESULTADOS DA LEGISLAÇÃO ---\n",
				SparseDegraded: true,
			})
		}))
		defer server.Close()

		c := client.NewClient(server.URL)
		resp, err := c.Query("alíquota de SP", 5, 5)
		Expect(err).ToNot(HaveOccurred())
		Expect(resp.Context).To(ContainSubstring("RESULTADOS DA LEGISLAÇÃO"))
		Expect(resp.SparseDegraded).To(BeTrue())
	})

	It("reports non-OK query responses as errors", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		_, err := client.NewClient(server.URL).Query("alíquota", 0, 0)
		Expect(err).To(HaveOccurred())
	})

	It("uploads a rate matrix as multipart form data", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Path).To(Equal("/api/ingest/matrix"))

			file, header, err := r.FormFile("file")
			Expect(err).ToNot(HaveOccurred())
			defer file.Close()
			Expect(header.Filename).To(Equal("matriz.csv"))

			json.NewEncoder(w).Encode(client.IngestReport{Inserted: 4, Skipped: 2})
		}))
		defer server.Close()

		path := filepath.Join(GinkgoT().TempDir(), "matriz.csv")
		Expect(os.WriteFile(path, []byte(";SP\nSP;18\n"), 0644)).To(Succeed())

		report, err := client.NewClient(server.URL).IngestMatrix(path)
		Expect(err).ToNot(HaveOccurred())
		Expect(report.Inserted).To(Equal(4))
		Expect(report.Skipped).To(Equal(2))
	})

	It("fetches per-store counts", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Path).To(Equal("/api/status"))
			json.NewEncoder(w).Encode(client.Status{
				VectorEngine: "chromem", SparseEngine: "bleve",
				DenseCount: 7, SparseCount: 7,
			})
		}))
		defer server.Close()

		status, err := client.NewClient(server.URL).GetStatus()
		Expect(err).ToNot(HaveOccurred())
		Expect(status.VectorEngine).To(Equal("chromem"))
		Expect(status.DenseCount).To(Equal(7))
	})
})
