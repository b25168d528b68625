package memory

import (
	"context"
	"testing"

	"github.com/bipindra/PaymentOpsCopilot/internal/model"
	"github.com/bipindra/PaymentOpsCopilot/internal/service"
)

func TestStore_UpsertAndSearch(t *testing.T) {
	s := New()
	ctx := context.Background()

	chunks := []model.Chunk{
		{ID: "c1", DocumentID: "d1", DocumentName: "auth.md", Index: 0, Text: "check processor dashboard", Embedding: []float32{1, 0, 0}},
		{ID: "c2", DocumentID: "d1", DocumentName: "auth.md", Index: 1, Text: "escalate to oncall", Embedding: []float32{0, 1, 0}},
	}
	if err := s.Upsert(ctx, chunks); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}

	results, err := s.Search(ctx, []float32{1, 0, 0}, 5, nil)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != "c1" {
		t.Errorf("expected c1 to rank first (exact match), got %s", results[0].ID)
	}
	if results[0].Score < results[1].Score {
		t.Error("results must be ordered by descending similarity")
	}
	if results[0].Embedding != nil {
		t.Error("Search results must not carry embeddings")
	}
}

func TestStore_Upsert_EmptyIsNoop(t *testing.T) {
	s := New()
	if err := s.Upsert(context.Background(), nil); err != nil {
		t.Fatalf("Upsert(nil) should be a no-op: %v", err)
	}
}

func TestStore_Upsert_MissingEmbeddingFails(t *testing.T) {
	s := New()
	chunks := []model.Chunk{{ID: "c1", DocumentID: "d1", Text: "x"}}
	err := s.Upsert(context.Background(), chunks)
	if err == nil {
		t.Fatal("expected error for chunk missing an embedding")
	}
	ce, ok := service.AsCoreError(err)
	if !ok || ce.Code != service.ErrInvalidChunk {
		t.Errorf("expected InvalidChunk CoreError, got %v", err)
	}
}

func TestStore_Upsert_Idempotent(t *testing.T) {
	s := New()
	ctx := context.Background()
	chunk := model.Chunk{ID: "c1", DocumentID: "d1", DocumentName: "a.md", Text: "v1", Embedding: []float32{1, 0}}

	if err := s.Upsert(ctx, []model.Chunk{chunk}); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}
	chunk.Text = "v2"
	if err := s.Upsert(ctx, []model.Chunk{chunk}); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}

	got, err := s.GetDocumentChunks(ctx, "d1")
	if err != nil {
		t.Fatalf("GetDocumentChunks() error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected replace-by-id to keep exactly 1 chunk, got %d", len(got))
	}
	if got[0].Text != "v2" {
		t.Errorf("Text = %q, want v2 (replaced)", got[0].Text)
	}
}

func TestStore_Search_MinScoreFloor(t *testing.T) {
	s := New()
	ctx := context.Background()
	chunks := []model.Chunk{
		{ID: "c1", DocumentID: "d1", Text: "exact", Embedding: []float32{1, 0}},
		{ID: "c2", DocumentID: "d1", Text: "orthogonal", Embedding: []float32{0, 1}},
	}
	if err := s.Upsert(ctx, chunks); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}

	floor := 0.5
	results, err := s.Search(ctx, []float32{1, 0}, 5, &floor)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(results) != 1 || results[0].ID != "c1" {
		t.Errorf("expected only c1 above floor 0.5, got %+v", results)
	}
}

func TestStore_ListDocuments_Aggregates(t *testing.T) {
	s := New()
	ctx := context.Background()
	chunks := []model.Chunk{
		{ID: "c1", DocumentID: "d1", DocumentName: "a.md", Text: "hello", Embedding: []float32{1}},
		{ID: "c2", DocumentID: "d1", DocumentName: "a.md", Text: "world", Embedding: []float32{1}},
	}
	if err := s.Upsert(ctx, chunks); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}

	docs, err := s.ListDocuments(ctx)
	if err != nil {
		t.Fatalf("ListDocuments() error: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	if docs[0].ChunkCount != 2 {
		t.Errorf("ChunkCount = %d, want 2", docs[0].ChunkCount)
	}
	if docs[0].TotalSizeBytes != len("hello")+len("world") {
		t.Errorf("TotalSizeBytes = %d, want %d", docs[0].TotalSizeBytes, len("hello")+len("world"))
	}
}

func TestStore_GetDocument_NotFound(t *testing.T) {
	s := New()
	doc, err := s.GetDocument(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetDocument() error: %v", err)
	}
	if doc != nil {
		t.Errorf("expected nil document, got %+v", doc)
	}
}

func TestStore_GetDocumentChunks_IndexOrder(t *testing.T) {
	s := New()
	ctx := context.Background()
	chunks := []model.Chunk{
		{ID: "c2", DocumentID: "d1", Index: 2, Text: "c", Embedding: []float32{1}},
		{ID: "c0", DocumentID: "d1", Index: 0, Text: "a", Embedding: []float32{1}},
		{ID: "c1", DocumentID: "d1", Index: 1, Text: "b", Embedding: []float32{1}},
	}
	if err := s.Upsert(ctx, chunks); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}

	got, err := s.GetDocumentChunks(ctx, "d1")
	if err != nil {
		t.Fatalf("GetDocumentChunks() error: %v", err)
	}
	for i, c := range got {
		if c.Index != i {
			t.Errorf("chunks[%d].Index = %d, want %d", i, c.Index, i)
		}
	}
}

func TestCosineSimilarity_IdenticalVectors(t *testing.T) {
	sim := cosineSimilarity([]float32{1, 2, 3}, []float32{1, 2, 3})
	if sim < 0.999 || sim > 1.001 {
		t.Errorf("cosineSimilarity(identical) = %f, want ~1.0", sim)
	}
}

func TestCosineSimilarity_OrthogonalVectors(t *testing.T) {
	sim := cosineSimilarity([]float32{1, 0}, []float32{0, 1})
	if sim < -0.001 || sim > 0.001 {
		t.Errorf("cosineSimilarity(orthogonal) = %f, want ~0.0", sim)
	}
}

func TestCosineSimilarity_ZeroVector(t *testing.T) {
	sim := cosineSimilarity([]float32{0, 0}, []float32{1, 1})
	if sim != 0 {
		t.Errorf("cosineSimilarity(zero) = %f, want 0", sim)
	}
}
