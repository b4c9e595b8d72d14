package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/mudler/xlog"
	"github.com/sashabaranov/go-openai"
	"github.com/taxrecall/taxrecall/rag"
	"github.com/taxrecall/taxrecall/rag/engine"
	"github.com/taxrecall/taxrecall/rag/interfaces"
)

func main() {
	if err := godotenv.Load(); err == nil {
		xlog.Debug("Loaded environment from .env")
	}
	cfg := loadConfig()

	clientConfig := openai.DefaultConfig(cfg.OpenAIKey)
	if cfg.OpenAIBaseURL != "" {
		clientConfig.BaseURL = cfg.OpenAIBaseURL
	}
	openAIClient := openai.NewClientWithConfig(clientConfig)

	embedder, err := engine.NewOpenAIEmbedder(openAIClient, cfg.EmbeddingModel)
	if err != nil {
		xlog.Error("Failed to create embedder", "error", err)
		os.Exit(1)
	}

	dense, err := buildDenseStore(cfg, embedder.Dimensions())
	if err != nil {
		xlog.Error("Failed to create dense store", "engine", cfg.VectorEngine, "error", err)
		os.Exit(1)
	}
	sparse, err := buildSparseStore(cfg)
	if err != nil {
		xlog.Error("Failed to create sparse store", "engine", cfg.SparseEngine, "error", err)
		os.Exit(1)
	}

	indexer := rag.NewDualIndexer(dense, sparse, embedder)
	chunker := rag.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)

	retriever := rag.NewHybridRetriever(dense, sparse, embedder)
	retriever.SetNormalizer(rag.NewNormalizer())
	retriever.SetStoreTimeout(cfg.StoreTimeout)
	retriever.SetDedupPrefixLen(cfg.DedupPrefixLen)

	xlog.Info("Starting TaxRecall",
		"vector_engine", cfg.VectorEngine,
		"sparse_engine", cfg.SparseEngine,
		"embedding_model", cfg.EmbeddingModel,
		"dimensions", embedder.Dimensions(),
		"listen_address", cfg.ListenAddress)

	startAPI(cfg, indexer, chunker, retriever)
}

func buildDenseStore(cfg config, dims int) (interfaces.DenseStore, error) {
	switch cfg.VectorEngine {
	case "chromem":
		return engine.NewChromemStore(cfg.CollectionName, cfg.DBPath, dims)
	case "postgres":
		return engine.NewPostgresStore(context.Background(), cfg.DatabaseURL, cfg.CollectionName, dims)
	default:
		return nil, fmt.Errorf("unknown vector engine %q", cfg.VectorEngine)
	}
}

func buildSparseStore(cfg config) (interfaces.SparseStore, error) {
	switch cfg.SparseEngine {
	case "bleve":
		return engine.NewBleveStore(filepath.Join(cfg.DBPath, "bleve", cfg.CollectionName), cfg.BleveAnalyzer)
	case "memory":
		return engine.NewMemoryTextIndex(filepath.Join(cfg.DBPath, "fulltext.json"))
	default:
		return nil, fmt.Errorf("unknown sparse engine %q", cfg.SparseEngine)
	}
}
