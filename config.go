package main

import (
	"os"
	"strconv"
	"time"
)

type config struct {
	ListenAddress  string
	DBPath         string
	AssetDir       string
	CollectionName string

	VectorEngine string // chromem | postgres
	SparseEngine string // bleve | memory
	DatabaseURL  string

	EmbeddingModel string
	OpenAIKey      string
	OpenAIBaseURL  string

	BleveAnalyzer string

	ChunkSize    int
	ChunkOverlap int

	TopKDense      int
	TopKSparse     int
	StoreTimeout   time.Duration
	DedupPrefixLen int
}

func loadConfig() config {
	return config{
		ListenAddress:  envOr("LISTEN_ADDRESS", ":8080"),
		DBPath:         envOr("COLLECTION_DB_PATH", "db"),
		AssetDir:       envOr("FILE_ASSETS", "assets"),
		CollectionName: envOr("COLLECTION_NAME", "legislacao"),
		VectorEngine:   envOr("VECTOR_ENGINE", "chromem"),
		SparseEngine:   envOr("SPARSE_ENGINE", "bleve"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		EmbeddingModel: envOr("EMBEDDING_MODEL", "granite-embedding-107m-multilingual"),
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:  os.Getenv("OPENAI_BASE_URL"),
		BleveAnalyzer:  envOr("BLEVE_ANALYZER", "pt"),
		ChunkSize:      envIntOr("CHUNK_SIZE", 1000),
		ChunkOverlap:   envIntOr("CHUNK_OVERLAP", 200),
		TopKDense:      envIntOr("RETRIEVAL_TOP_K_DENSE", 5),
		TopKSparse:     envIntOr("RETRIEVAL_TOP_K_SPARSE", 5),
		StoreTimeout:   envDurationOr("STORE_TIMEOUT", 10*time.Second),
		DedupPrefixLen: envIntOr("DEDUP_PREFIX_LEN", 100),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
