package service

import (
	"context"

	"github.com/bipindra/PaymentOpsCopilot/internal/model"
)

// VectorIndex persists (chunk, embedding) records and answers
// cosine-similarity queries. Implementations must normalize whatever the
// backend natively returns (distance or similarity) so that callers
// always see "higher score = more similar".
type VectorIndex interface {
	// Initialize creates the backing collection/index if absent,
	// configured for cosine distance and the configured vector
	// dimension. Idempotent.
	Initialize(ctx context.Context) error

	// Upsert inserts or replaces chunks by id. Empty input is a no-op.
	// Any chunk missing an embedding fails the whole batch with
	// InvalidChunk.
	Upsert(ctx context.Context, chunks []model.Chunk) error

	// Search returns up to topK chunks ordered by descending
	// similarity. If minScore is non-nil, results with similarity
	// strictly below it are dropped.
	Search(ctx context.Context, queryVector []float32, topK int, minScore *float64) ([]model.RetrievedChunk, error)

	// ListDocuments aggregates stored chunks by documentId.
	ListDocuments(ctx context.Context) ([]model.Document, error)

	// GetDocument returns the document with the given id, or
	// (nil, nil) if it does not exist.
	GetDocument(ctx context.Context, id string) (*model.Document, error)

	// GetDocumentChunks returns a document's chunks ordered by index
	// ascending, without embeddings populated.
	GetDocumentChunks(ctx context.Context, id string) ([]model.Chunk, error)
}
