package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bipindra/PaymentOpsCopilot/internal/model"
)

// RetrieverService embeds a query and returns the top-K similar chunks
// from a VectorIndex, optionally above a configured score floor.
//
// There is no hybrid lexical fusion and no reranking stage here: the
// vector backend's ordering is returned unchanged.
type RetrieverService struct {
	embedder    Embedder
	index       VectorIndex
	minSimScore *float64
}

// NewRetrieverService creates a RetrieverService. minSimScore is an
// optional configured floor; nil means no floor is applied.
func NewRetrieverService(embedder Embedder, index VectorIndex, minSimScore *float64) *RetrieverService {
	return &RetrieverService{
		embedder:    embedder,
		index:       index,
		minSimScore: minSimScore,
	}
}

// Retrieve embeds query once, searches the VectorIndex for its topK
// nearest chunks, and returns the ordered result unchanged. An empty
// result is a valid, expected outcome.
func (s *RetrieverService) Retrieve(ctx context.Context, query string, topK int) ([]model.RetrievedChunk, error) {
	if query == "" {
		return nil, NewInvalidInput("query must not be empty")
	}
	if topK <= 0 {
		topK = defaultTopK
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("service.Retrieve: embed: %w", err)
	}

	results, err := s.index.Search(ctx, queryVec, topK, s.minSimScore)
	if err != nil {
		return nil, fmt.Errorf("service.Retrieve: search: %w", err)
	}

	slog.Info("retrieve completed", "query_len", len(query), "top_k", topK, "results", len(results))

	return results, nil
}

// defaultTopK is used when a caller does not specify topK.
const defaultTopK = 5
