// Package vertex implements Embedder and ChatModel against Google's
// Vertex AI text-embedding and Gemini models.
package vertex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2/google"
)

// Embedder calls the Vertex AI text embedding REST API.
type Embedder struct {
	project  string
	location string
	model    string
	client   *http.Client
}

// NewEmbedder creates an Embedder using application default credentials.
func NewEmbedder(ctx context.Context, project, location, model string) (*Embedder, error) {
	client, err := google.DefaultClient(ctx, "https://www.googleapis.com/auth/cloud-platform")
	if err != nil {
		return nil, fmt.Errorf("vertex.NewEmbedder: %w", err)
	}
	return &Embedder{project: project, location: location, model: model, client: client}, nil
}

type embeddingRequest struct {
	Instances []embeddingInstance `json:"instances"`
}

type embeddingInstance struct {
	Content  string `json:"content"`
	TaskType string `json:"task_type"`
}

type embeddingResponse struct {
	Predictions []struct {
		Embeddings struct {
			Values []float32 `json:"values"`
		} `json:"embeddings"`
	} `json:"predictions"`
}

// Embed generates a single query embedding, using the RETRIEVAL_QUERY
// task type text-embedding-004 optimizes for asymmetric retrieval.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.embedWithTaskType(ctx, []string{text}, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("vertex.Embed: empty response")
	}
	return vectors[0], nil
}

// EmbedBatch generates document embeddings for a batch of chunk texts,
// using the RETRIEVAL_DOCUMENT task type.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return e.embedWithTaskType(ctx, texts, "RETRIEVAL_DOCUMENT")
}

// embedWithTaskType retries up to 3 times on 429/RESOURCE_EXHAUSTED with
// 500ms→1000ms→2000ms backoff (4s ceiling).
func (e *Embedder) embedWithTaskType(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	return withRetry(ctx, "EmbedTexts", func() ([][]float32, error) {
		return e.doEmbed(ctx, texts, taskType)
	})
}

func (e *Embedder) doEmbed(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	instances := make([]embeddingInstance, len(texts))
	for i, t := range texts {
		instances[i] = embeddingInstance{Content: t, TaskType: taskType}
	}

	reqBody, err := json.Marshal(embeddingRequest{Instances: instances})
	if err != nil {
		return nil, fmt.Errorf("vertex.EmbedTexts: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", e.endpointURL(), bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("vertex.EmbedTexts: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vertex.EmbedTexts: call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("vertex.EmbedTexts: status %d: %s", resp.StatusCode, body)
	}

	var embResp embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&embResp); err != nil {
		return nil, fmt.Errorf("vertex.EmbedTexts: decode: %w", err)
	}

	results := make([][]float32, len(embResp.Predictions))
	for i, p := range embResp.Predictions {
		results[i] = p.Embeddings.Values
	}
	return results, nil
}

// endpointURL returns the correct Vertex AI endpoint. The "global"
// location uses the non-regional host.
func (e *Embedder) endpointURL() string {
	if e.location == "global" {
		return fmt.Sprintf(
			"https://aiplatform.googleapis.com/v1/projects/%s/locations/global/publishers/google/models/%s:predict",
			e.project, e.model,
		)
	}
	return fmt.Sprintf(
		"https://%s-aiplatform.googleapis.com/v1/projects/%s/locations/%s/publishers/google/models/%s:predict",
		e.location, e.project, e.location, e.model,
	)
}
