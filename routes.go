package main

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/taxrecall/taxrecall/rag"
)

func startAPI(cfg config, indexer *rag.DualIndexer, chunker *rag.Chunker, retriever *rag.HybridRetriever) {
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.POST("/api/query", query(cfg, retriever))
	e.POST("/api/ingest/matrix", ingestMatrix(indexer))
	e.POST("/api/ingest/document", ingestDocument(cfg, indexer, chunker))
	e.GET("/api/status", status(cfg, indexer))

	e.Logger.Fatal(e.Start(cfg.ListenAddress))
}

func errorMessage(message string) map[string]string {
	return map[string]string{"error": message}
}

// query runs a hybrid retrieval and returns both the formatted context and
// the underlying ranked list.
func query(cfg config, retriever *rag.HybridRetriever) func(c echo.Context) error {
	return func(c echo.Context) error {
		type request struct {
			Query      string `json:"query"`
			TopKDense  int    `json:"top_k_dense"`
			TopKSparse int    `json:"top_k_sparse"`
		}

		r := new(request)
		if err := c.Bind(r); err != nil {
			return c.JSON(http.StatusBadRequest, errorMessage("Invalid request"))
		}
		if r.Query == "" {
			return c.JSON(http.StatusBadRequest, errorMessage("Query is required"))
		}
		if r.TopKDense == 0 {
			r.TopKDense = cfg.TopKDense
		}
		if r.TopKSparse == 0 {
			r.TopKSparse = cfg.TopKSparse
		}

		result, err := retriever.Retrieve(c.Request().Context(), r.Query, r.TopKDense, r.TopKSparse)
		if err != nil {
			if errors.Is(err, rag.ErrUnavailable) {
				return c.JSON(http.StatusServiceUnavailable, errorMessage(err.Error()))
			}
			return c.JSON(http.StatusInternalServerError, errorMessage("Failed to query corpus"))
		}

		type response struct {
			Context        string      `json:"context"`
			Results        interface{} `json:"results"`
			DenseDegraded  bool        `json:"dense_degraded"`
			SparseDegraded bool        `json:"sparse_degraded"`
		}
		return c.JSON(http.StatusOK, response{
			Context:        result.String(),
			Results:        result.Results,
			DenseDegraded:  result.DenseDegraded,
			SparseDegraded: result.SparseDegraded,
		})
	}
}

// ingestMatrix uploads a ';'-delimited rate matrix and indexes one fact per
// usable cell.
func ingestMatrix(indexer *rag.DualIndexer) func(c echo.Context) error {
	return func(c echo.Context) error {
		file, err := c.FormFile("file")
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorMessage("Failed to read file: "+err.Error()))
		}

		f, err := file.Open()
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorMessage("Failed to open file: "+err.Error()))
		}
		defer f.Close()

		report, err := rag.LoadRateMatrix(c.Request().Context(), f, file.Filename, indexer)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, errorMessage("Failed to ingest matrix: "+err.Error()))
		}
		return c.JSON(http.StatusOK, report)
	}
}

// ingestDocument uploads a legislation document, chunks it and indexes the
// passages in both stores.
func ingestDocument(cfg config, indexer *rag.DualIndexer, chunker *rag.Chunker) func(c echo.Context) error {
	return func(c echo.Context) error {
		file, err := c.FormFile("file")
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorMessage("Failed to read file: "+err.Error()))
		}

		f, err := file.Open()
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorMessage("Failed to open file: "+err.Error()))
		}
		defer f.Close()

		if err := os.MkdirAll(cfg.AssetDir, 0755); err != nil {
			return c.JSON(http.StatusInternalServerError, errorMessage("Failed to create asset directory"))
		}
		filePath := filepath.Join(cfg.AssetDir, filepath.Base(file.Filename))
		out, err := os.Create(filePath)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, errorMessage("Failed to create file"))
		}
		defer out.Close()
		if _, err := io.Copy(out, f); err != nil {
			return c.JSON(http.StatusInternalServerError, errorMessage("Failed to copy file"))
		}

		pages, err := rag.ExtractPages(filePath)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorMessage("Failed to extract text: "+err.Error()))
		}

		records := chunker.ChunkPages(pages, file.Filename)
		indexed, err := indexer.IndexBatch(c.Request().Context(), records)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, errorMessage("Failed to index document: "+err.Error()))
		}

		type response struct {
			Chunks  int `json:"chunks"`
			Indexed int `json:"indexed"`
		}
		return c.JSON(http.StatusOK, response{Chunks: len(records), Indexed: indexed})
	}
}

// status reports per-store record counts. Diverging counts reveal skew
// between the two stores.
func status(cfg config, indexer *rag.DualIndexer) func(c echo.Context) error {
	return func(c echo.Context) error {
		dense, sparse := indexer.Counts(c.Request().Context())

		type response struct {
			VectorEngine string `json:"vector_engine"`
			SparseEngine string `json:"sparse_engine"`
			DenseCount   int    `json:"dense_count"`
			SparseCount  int    `json:"sparse_count"`
		}
		return c.JSON(http.StatusOK, response{
			VectorEngine: cfg.VectorEngine,
			SparseEngine: cfg.SparseEngine,
			DenseCount:   dense,
			SparseCount:  sparse,
		})
	}
}
