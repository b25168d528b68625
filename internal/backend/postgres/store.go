// Package postgres implements the VectorIndex contract on pgvector.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvector "github.com/pgvector/pgvector-go/pgx"

	"github.com/bipindra/PaymentOpsCopilot/internal/model"
	"github.com/bipindra/PaymentOpsCopilot/internal/service"
)

// Store is a pgvector-backed VectorIndex.
type Store struct {
	pool      *pgxpool.Pool
	dimension int
}

// NewPool creates a connection pool configured for pgvector.
func NewPool(ctx context.Context, databaseURL string, maxConns int) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres.NewPool: parse config: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = int32(maxConns)
	}
	cfg.MinConns = 2
	cfg.HealthCheckPeriod = 30 * time.Second
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 15 * time.Minute
	cfg.AfterConnect = pgxvector.RegisterTypes

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.NewPool: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.NewPool: ping: %w", err)
	}
	return pool, nil
}

// New constructs a Store. dimension is the embedding width the schema's
// vector column is declared with.
func New(pool *pgxpool.Pool, dimension int) *Store {
	return &Store{pool: pool, dimension: dimension}
}

// Initialize creates the extension, tables, and indexes if absent.
// Safe to call on every startup.
func (s *Store) Initialize(ctx context.Context) error {
	stmt := fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS document_chunks (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL,
	document_name TEXT NOT NULL,
	chunk_index INT NOT NULL,
	content TEXT NOT NULL,
	snippet TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	embedding vector(%d) NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS document_chunks_document_idx ON document_chunks (document_id);

DO $$
BEGIN
	IF NOT EXISTS (
		SELECT 1 FROM pg_indexes
		WHERE schemaname = current_schema() AND indexname = 'document_chunks_embedding_idx'
	) THEN
		EXECUTE 'CREATE INDEX document_chunks_embedding_idx ON document_chunks USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100);';
	END IF;
END
$$;
`, s.dimension)

	if _, err := s.pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("postgres.Initialize: %w", err)
	}
	return nil
}

// Upsert bulk-inserts or replaces chunks by id, using pgx batching.
func (s *Store) Upsert(ctx context.Context, chunks []model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			return service.NewInvalidChunk("chunk " + c.ID + " has no embedding")
		}
		if len(c.Embedding) != s.dimension {
			return service.NewInvalidChunk(fmt.Sprintf("chunk %s embedding dimension %d != configured %d", c.ID, len(c.Embedding), s.dimension))
		}
	}

	batch := &pgx.Batch{}
	for _, c := range chunks {
		created := c.CreatedUtc
		if created.IsZero() {
			created = time.Now().UTC()
		}
		batch.Queue(`
			INSERT INTO document_chunks (id, document_id, document_name, chunk_index, content, snippet, content_hash, embedding, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (id) DO UPDATE SET
				content = EXCLUDED.content,
				snippet = EXCLUDED.snippet,
				content_hash = EXCLUDED.content_hash,
				embedding = EXCLUDED.embedding`,
			c.ID, c.DocumentID, c.DocumentName, c.Index, c.Text, c.Snippet, c.Hash,
			pgvector.NewVector(c.Embedding), created,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < len(chunks); i++ {
		if _, err := br.Exec(); err != nil {
			return service.NewUpstreamVectorError(fmt.Errorf("postgres.Upsert: chunk %d: %w", i, err))
		}
	}
	return nil
}

// Search runs a cosine-distance KNN query via the pgvector <=> operator,
// normalizing to the "higher is more similar" convention expected by
// VectorIndex.
func (s *Store) Search(ctx context.Context, queryVector []float32, topK int, minScore *float64) ([]model.RetrievedChunk, error) {
	if topK <= 0 {
		topK = 5
	}
	floor := -1.0
	if minScore != nil {
		floor = *minScore
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, document_id, document_name, chunk_index, content, snippet, content_hash, created_at,
			1 - (embedding <=> $1) AS similarity
		FROM document_chunks
		WHERE 1 - (embedding <=> $1) >= $2
		ORDER BY embedding <=> $1
		LIMIT $3`,
		pgvector.NewVector(queryVector), floor, topK,
	)
	if err != nil {
		return nil, service.NewUpstreamVectorError(fmt.Errorf("postgres.Search: %w", err))
	}
	defer rows.Close()

	var results []model.RetrievedChunk
	for rows.Next() {
		var r model.RetrievedChunk
		if err := rows.Scan(&r.ID, &r.DocumentID, &r.DocumentName, &r.Index, &r.Text, &r.Snippet, &r.Hash, &r.CreatedUtc, &r.Score); err != nil {
			return nil, service.NewUpstreamVectorError(fmt.Errorf("postgres.Search: scan: %w", err))
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, service.NewUpstreamVectorError(fmt.Errorf("postgres.Search: rows: %w", err))
	}
	if results == nil {
		results = []model.RetrievedChunk{}
	}
	return results, nil
}

// ListDocuments aggregates chunks by document_id.
func (s *Store) ListDocuments(ctx context.Context) ([]model.Document, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT document_id, document_name, MIN(created_at), COUNT(*), SUM(length(content))
		FROM document_chunks
		GROUP BY document_id, document_name
		ORDER BY MIN(created_at)`)
	if err != nil {
		return nil, service.NewUpstreamVectorError(fmt.Errorf("postgres.ListDocuments: %w", err))
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		var d model.Document
		if err := rows.Scan(&d.ID, &d.Name, &d.CreatedUtc, &d.ChunkCount, &d.TotalSizeBytes); err != nil {
			return nil, service.NewUpstreamVectorError(fmt.Errorf("postgres.ListDocuments: scan: %w", err))
		}
		docs = append(docs, d)
	}
	if docs == nil {
		docs = []model.Document{}
	}
	return docs, nil
}

// GetDocument returns (nil, nil) when the document does not exist.
func (s *Store) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	var d model.Document
	err := s.pool.QueryRow(ctx, `
		SELECT document_id, document_name, MIN(created_at), COUNT(*), SUM(length(content))
		FROM document_chunks
		WHERE document_id = $1
		GROUP BY document_id, document_name`, id,
	).Scan(&d.ID, &d.Name, &d.CreatedUtc, &d.ChunkCount, &d.TotalSizeBytes)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, service.NewUpstreamVectorError(fmt.Errorf("postgres.GetDocument: %w", err))
	}
	return &d, nil
}

// GetDocumentChunks returns a document's chunks ordered by index, without
// embeddings populated.
func (s *Store) GetDocumentChunks(ctx context.Context, id string) ([]model.Chunk, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, document_id, document_name, chunk_index, content, snippet, content_hash, created_at
		FROM document_chunks
		WHERE document_id = $1
		ORDER BY chunk_index ASC`, id)
	if err != nil {
		return nil, service.NewUpstreamVectorError(fmt.Errorf("postgres.GetDocumentChunks: %w", err))
	}
	defer rows.Close()

	var chunks []model.Chunk
	for rows.Next() {
		var c model.Chunk
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.DocumentName, &c.Index, &c.Text, &c.Snippet, &c.Hash, &c.CreatedUtc); err != nil {
			return nil, service.NewUpstreamVectorError(fmt.Errorf("postgres.GetDocumentChunks: scan: %w", err))
		}
		chunks = append(chunks, c)
	}
	if chunks == nil {
		chunks = []model.Chunk{}
	}
	return chunks, nil
}

var _ service.VectorIndex = (*Store)(nil)
