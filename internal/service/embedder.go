package service

import (
	"context"
	"fmt"
)

// Embedder converts text into fixed-dimensional float vectors. Vectors
// must have a consistent dimension D across all calls within a process
// lifetime, matching the configured VectorIndex dimension.
//
// The openai and vertex implementations return upstream failures as
// plain wrapped errors, not as CoreError values; they do not classify
// them as UpstreamModelError, UpstreamModelInvalid or UpstreamTimeout.
// EmbedBatches reports a vector-count mismatch as UpstreamModelInvalid.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// ValidateDimension checks that every vector in vectors has exactly
// dimension entries, returning UpstreamModelInvalid on the first
// mismatch. Neither the openai nor the vertex embedder calls it, so the
// vectors they return are not checked against a dimension.
func ValidateDimension(vectors [][]float32, dimension int) error {
	for i, v := range vectors {
		if len(v) != dimension {
			return NewUpstreamModelInvalid(fmt.Errorf("vector %d has %d dimensions, want %d", i, len(v), dimension))
		}
	}
	return nil
}

// EmbedBatches splits texts into groups of at most batchSize and calls
// embed once per group, preserving input order. Any provider that is
// inherently single-input loops internally inside its own EmbedBatch;
// this helper is for callers (the Ingestor) that need to bound peak
// request size regardless of provider batch behavior.
func EmbedBatches(ctx context.Context, embedder Embedder, texts []string, batchSize int) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if batchSize <= 0 {
		batchSize = len(texts)
	}

	result := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += batchSize {
		end := i + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := embedder.EmbedBatch(ctx, texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("service.EmbedBatches: batch %d-%d: %w", i, end, err)
		}
		if len(vectors) != end-i {
			return nil, NewUpstreamModelInvalid(fmt.Errorf("got %d vectors for %d texts in batch %d-%d", len(vectors), end-i, i, end))
		}
		result = append(result, vectors...)
	}
	return result, nil
}
