package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/bipindra/PaymentOpsCopilot/internal/model"
)

// fakeVectorIndex implements VectorIndex for testing the retriever in
// isolation.
type fakeVectorIndex struct {
	searchResults []model.RetrievedChunk
	searchErr     error
	capturedTopK  int
	capturedFloor *float64
}

func (f *fakeVectorIndex) Initialize(ctx context.Context) error { return nil }

func (f *fakeVectorIndex) Upsert(ctx context.Context, chunks []model.Chunk) error { return nil }

func (f *fakeVectorIndex) Search(ctx context.Context, queryVector []float32, topK int, minScore *float64) ([]model.RetrievedChunk, error) {
	f.capturedTopK = topK
	f.capturedFloor = minScore
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searchResults, nil
}

func (f *fakeVectorIndex) ListDocuments(ctx context.Context) ([]model.Document, error) {
	return nil, nil
}

func (f *fakeVectorIndex) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	return nil, nil
}

func (f *fakeVectorIndex) GetDocumentChunks(ctx context.Context, id string) ([]model.Chunk, error) {
	return nil, nil
}

func floatPtr(v float64) *float64 { return &v }

func TestRetrieve_Success(t *testing.T) {
	index := &fakeVectorIndex{
		searchResults: []model.RetrievedChunk{
			{Chunk: model.Chunk{DocumentName: "auth.md", Index: 0, Text: "check processor dashboard"}, Score: 0.95},
		},
	}
	svc := NewRetrieverService(&fakeEmbedder{dimension: 768}, index, nil)

	results, err := svc.Retrieve(context.Background(), "what should I check", 5)
	if err != nil {
		t.Fatalf("Retrieve() error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if index.capturedTopK != 5 {
		t.Errorf("topK = %d, want 5", index.capturedTopK)
	}
}

func TestRetrieve_EmptyQuery(t *testing.T) {
	svc := NewRetrieverService(&fakeEmbedder{dimension: 768}, &fakeVectorIndex{}, nil)

	_, err := svc.Retrieve(context.Background(), "", 5)
	if err == nil {
		t.Fatal("expected error for empty query")
	}
	ce, ok := AsCoreError(err)
	if !ok || ce.Code != ErrInvalidInput {
		t.Errorf("expected InvalidInput CoreError, got %v", err)
	}
}

func TestRetrieve_DefaultTopK(t *testing.T) {
	index := &fakeVectorIndex{}
	svc := NewRetrieverService(&fakeEmbedder{dimension: 768}, index, nil)

	_, err := svc.Retrieve(context.Background(), "query", 0)
	if err != nil {
		t.Fatalf("Retrieve() error: %v", err)
	}
	if index.capturedTopK != defaultTopK {
		t.Errorf("topK = %d, want default %d", index.capturedTopK, defaultTopK)
	}
}

func TestRetrieve_EmbedError(t *testing.T) {
	embedder := &fakeEmbedder{dimension: 768, err: fmt.Errorf("embed failed")}
	svc := NewRetrieverService(embedder, &fakeVectorIndex{}, nil)

	_, err := svc.Retrieve(context.Background(), "test", 5)
	if err == nil {
		t.Fatal("expected error when embed fails")
	}
}

func TestRetrieve_SearchError(t *testing.T) {
	index := &fakeVectorIndex{searchErr: fmt.Errorf("search failed")}
	svc := NewRetrieverService(&fakeEmbedder{dimension: 768}, index, nil)

	_, err := svc.Retrieve(context.Background(), "test", 5)
	if err == nil {
		t.Fatal("expected error when search fails")
	}
}

func TestRetrieve_EmptyResultIsValid(t *testing.T) {
	index := &fakeVectorIndex{searchResults: []model.RetrievedChunk{}}
	svc := NewRetrieverService(&fakeEmbedder{dimension: 768}, index, nil)

	results, err := svc.Retrieve(context.Background(), "test", 5)
	if err != nil {
		t.Fatalf("Retrieve() error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestRetrieve_PassesConfiguredFloor(t *testing.T) {
	index := &fakeVectorIndex{}
	floor := floatPtr(0.5)
	svc := NewRetrieverService(&fakeEmbedder{dimension: 768}, index, floor)

	_, err := svc.Retrieve(context.Background(), "test", 5)
	if err != nil {
		t.Fatalf("Retrieve() error: %v", err)
	}
	if index.capturedFloor == nil || *index.capturedFloor != 0.5 {
		t.Errorf("expected floor 0.5 to be passed through, got %v", index.capturedFloor)
	}
}

func TestRetrieve_ResultOrderUnchanged(t *testing.T) {
	index := &fakeVectorIndex{
		searchResults: []model.RetrievedChunk{
			{Chunk: model.Chunk{DocumentName: "a.md", Index: 0}, Score: 0.95},
			{Chunk: model.Chunk{DocumentName: "b.md", Index: 1}, Score: 0.80},
			{Chunk: model.Chunk{DocumentName: "c.md", Index: 2}, Score: 0.40},
		},
	}
	svc := NewRetrieverService(&fakeEmbedder{dimension: 768}, index, nil)

	results, err := svc.Retrieve(context.Background(), "test", 5)
	if err != nil {
		t.Fatalf("Retrieve() error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].DocumentName != "a.md" || results[2].DocumentName != "c.md" {
		t.Error("Retrieve must return the backend's order unchanged")
	}
}
