// Package openai implements Embedder and ChatModel against the OpenAI
// API via github.com/sashabaranov/go-openai.
package openai

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// Embedder calls OpenAI's embeddings endpoint.
type Embedder struct {
	client *openai.Client
	model  string
}

// NewEmbedder constructs an Embedder for the given model
// (e.g. "text-embedding-3-small").
func NewEmbedder(apiKey, model string) *Embedder {
	return &Embedder{client: openai.NewClient(apiKey), model: model}
}

// Embed generates a single embedding.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("openai.Embed: empty response")
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for a batch of texts in a single call.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("openai.EmbedBatch: %w", err)
	}

	results := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		results[i] = d.Embedding
	}
	return results, nil
}
