package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mudler/xlog"
	"github.com/taxrecall/taxrecall/rag/types"
)

// PostgresStore is a dense vector store backed by PostgreSQL with the pgvector
// extension. The table mirrors the legal_vectors layout: a UUID key, the
// literal content, a fixed-dimension vector and JSONB provenance.
type PostgresStore struct {
	pool      *pgxpool.Pool
	tableName string
	dims      int
}

// NewPostgresStore connects to databaseURL and prepares the table and the
// vector index for the given dimensionality.
func NewPostgresStore(ctx context.Context, databaseURL, tableName string, dims int) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("postgres: DATABASE_URL is required")
	}
	if dims <= 0 {
		return nil, fmt.Errorf("postgres: dimensions must be positive, got %d", dims)
	}
	if tableName == "" {
		tableName = "legal_vectors"
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to parse database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: failed to ping database: %w", err)
	}

	pg := &PostgresStore{
		pool:      pool,
		tableName: sanitizeTableName(tableName),
		dims:      dims,
	}

	if err := pg.setupDatabase(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: failed to setup database: %w", err)
	}

	return pg, nil
}

func sanitizeTableName(name string) string {
	name = strings.ReplaceAll(name, "-", "_")
	name = strings.ReplaceAll(name, ".", "_")
	name = strings.ReplaceAll(name, " ", "_")
	if len(name) > 0 && (name[0] < 'a' || name[0] > 'z') && (name[0] < 'A' || name[0] > 'Z') {
		name = "t_" + name
	}
	return name
}

func (p *PostgresStore) setupDatabase(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to enable vector extension: %w", err)
	}

	_, err := p.pool.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY,
			content TEXT NOT NULL,
			embedding VECTOR(%d),
			metadata JSONB
		)
	`, p.tableName, p.dims))
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	_, err = p.pool.Exec(ctx, fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS idx_%s_embedding ON %s
		USING hnsw(embedding vector_cosine_ops)
	`, p.tableName, p.tableName))
	if err != nil {
		xlog.Warn("Failed to create HNSW index", "error", err)
	}

	return nil
}

func formatVector(vec []float32) string {
	parts := make([]string, len(vec))
	for i, v := range vec {
		parts[i] = fmt.Sprintf("%.6f", v)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func (p *PostgresStore) Dimensions() int {
	return p.dims
}

func (p *PostgresStore) Insert(ctx context.Context, id, content string, embedding []float32, meta types.Metadata) error {
	if content == "" {
		return fmt.Errorf("postgres: empty content")
	}
	if len(embedding) != p.dims {
		return fmt.Errorf("postgres: embedding has %d dimensions, store expects %d", len(embedding), p.dims)
	}

	metadataJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("postgres: failed to marshal metadata: %w", err)
	}

	_, err = p.pool.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, content, embedding, metadata)
		VALUES ($1, $2, $3::vector, $4::jsonb)
	`, p.tableName), id, content, formatVector(embedding), string(metadataJSON))
	if err != nil {
		return fmt.Errorf("postgres: failed to insert record: %w", err)
	}
	return nil
}

func (p *PostgresStore) QueryNearest(ctx context.Context, embedding []float32, k int) ([]types.Result, error) {
	if len(embedding) != p.dims {
		return nil, fmt.Errorf("postgres: query embedding has %d dimensions, store expects %d", len(embedding), p.dims)
	}

	rows, err := p.pool.Query(ctx, fmt.Sprintf(`
		SELECT id::text, content, metadata, 1 - (embedding <=> $1::vector) AS similarity
		FROM %s
		WHERE embedding IS NOT NULL
		ORDER BY embedding <=> $1::vector
		LIMIT $2
	`, p.tableName), formatVector(embedding), k)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to execute search: %w", err)
	}
	defer rows.Close()

	results := []types.Result{}
	for rows.Next() {
		var r types.Result
		var metadataJSON []byte
		var similarity float64
		if err := rows.Scan(&r.ID, &r.Content, &metadataJSON, &similarity); err != nil {
			continue
		}
		r.Similarity = float32(similarity)
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &r.Metadata); err != nil {
				xlog.Warn("Failed to decode record metadata", "id", r.ID, "error", err)
			}
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func (p *PostgresStore) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := p.pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE id::text = ANY($1)", p.tableName), ids)
	return err
}

func (p *PostgresStore) Count(ctx context.Context) int {
	var count int
	err := p.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", p.tableName)).Scan(&count)
	if err != nil {
		xlog.Error("Failed to count records", "error", err)
		return 0
	}
	return count
}

func (p *PostgresStore) Reset(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", p.tableName)); err != nil {
		return fmt.Errorf("postgres: failed to drop table: %w", err)
	}
	return p.setupDatabase(ctx)
}

// Close releases the connection pool.
func (p *PostgresStore) Close() {
	p.pool.Close()
}
