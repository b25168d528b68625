package redis

import (
	"context"
	"os"
	"testing"

	"github.com/bipindra/PaymentOpsCopilot/internal/model"
)

func TestEncodeVector_Roundtrips(t *testing.T) {
	v := []float32{1.5, -2.25, 0, 3.125}
	buf := encodeVector(v)
	if len(buf) != 4*len(v) {
		t.Fatalf("encodeVector() length = %d, want %d", len(buf), 4*len(v))
	}
}

func TestParseSearchReply_Empty(t *testing.T) {
	rows, err := parseSearchReply([]interface{}{int64(0)})
	if err != nil {
		t.Fatalf("parseSearchReply() error: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected 0 rows, got %d", len(rows))
	}
}

func TestParseSearchReply_OneRow(t *testing.T) {
	reply := []interface{}{
		int64(1),
		"chunk:c1",
		[]interface{}{"document_id", "doc1", "chunk_index", "0", "score", "0.1"},
	}
	rows, err := parseSearchReply(reply)
	if err != nil {
		t.Fatalf("parseSearchReply() error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0]["__key"] != "chunk:c1" {
		t.Errorf("__key = %q, want chunk:c1", rows[0]["__key"])
	}
	if rows[0]["document_id"] != "doc1" {
		t.Errorf("document_id = %q, want doc1", rows[0]["document_id"])
	}
}

// newTestStore connects to a real Redis + RediSearch instance for
// conformance testing. Skipped unless REDIS_ADDR is set.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set, skipping integration test")
	}

	client := NewClient(addr, os.Getenv("REDIS_PASSWORD"), 0)
	t.Cleanup(func() { client.Close() })

	store := New(client, "test_runbook_chunks", 4)
	if err := store.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}
	return store
}

func TestStore_UpsertAndSearch_Integration(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	chunks := []model.Chunk{
		{ID: "rc1", DocumentID: "doc1", DocumentName: "auth.md", Index: 0, Text: "check processor dashboard", Embedding: []float32{1, 0, 0, 0}},
	}
	if err := store.Upsert(ctx, chunks); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}

	results, err := store.Search(ctx, []float32{1, 0, 0, 0}, 5, nil)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected at least 1 result")
	}
}
