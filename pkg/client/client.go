package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/taxrecall/taxrecall/rag/types"
)

// Client is a client for the TaxRecall API.
type Client struct {
	BaseURL string
}

// NewClient creates a new TaxRecall API client.
func NewClient(baseURL string) *Client {
	return &Client{BaseURL: baseURL}
}

// QueryResponse is the result of a hybrid retrieval call.
type QueryResponse struct {
	Context        string         `json:"context"`
	Results        []types.Result `json:"results"`
	DenseDegraded  bool           `json:"dense_degraded"`
	SparseDegraded bool           `json:"sparse_degraded"`
}

// IngestReport summarises an ingestion call.
type IngestReport struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

// Status reports per-store record counts.
type Status struct {
	VectorEngine string `json:"vector_engine"`
	SparseEngine string `json:"sparse_engine"`
	DenseCount   int    `json:"dense_count"`
	SparseCount  int    `json:"sparse_count"`
}

// Query runs a hybrid retrieval for the given query text.
func (c *Client) Query(query string, topKDense, topKSparse int) (*QueryResponse, error) {
	type request struct {
		Query      string `json:"query"`
		TopKDense  int    `json:"top_k_dense"`
		TopKSparse int    `json:"top_k_sparse"`
	}

	payload, err := json.Marshal(request{Query: query, TopKDense: topKDense, TopKSparse: topKSparse})
	if err != nil {
		return nil, err
	}

	resp, err := http.Post(fmt.Sprintf("%s/api/query", c.BaseURL), "application/json", bytes.NewBuffer(payload))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("query failed with status %d", resp.StatusCode)
	}

	result := new(QueryResponse)
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return nil, err
	}
	return result, nil
}

// IngestMatrix uploads a ';'-delimited rate matrix file.
func (c *Client) IngestMatrix(path string) (*IngestReport, error) {
	return uploadFile(fmt.Sprintf("%s/api/ingest/matrix", c.BaseURL), path, new(IngestReport))
}

// DocumentReport summarises a document ingestion call.
type DocumentReport struct {
	Chunks  int `json:"chunks"`
	Indexed int `json:"indexed"`
}

// IngestDocument uploads a legislation document (PDF, TXT, MD or HTML).
func (c *Client) IngestDocument(path string) (*DocumentReport, error) {
	return uploadFile(fmt.Sprintf("%s/api/ingest/document", c.BaseURL), path, new(DocumentReport))
}

// GetStatus returns per-store record counts.
func (c *Client) GetStatus() (*Status, error) {
	resp, err := http.Get(fmt.Sprintf("%s/api/status", c.BaseURL))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status failed with status %d", resp.StatusCode)
	}

	status := new(Status)
	if err := json.NewDecoder(resp.Body).Decode(status); err != nil {
		return nil, err
	}
	return status, nil
}

func uploadFile[T any](url, path string, out *T) (*T, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	resp, err := http.Post(url, writer.FormDataContentType(), body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(raw))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return nil, err
	}
	return out, nil
}
