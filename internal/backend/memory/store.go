// Package memory implements the VectorIndex contract as an in-memory
// store computing cosine similarity directly. It is the reference
// backend the core's conformance tests run against.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"
	"unicode/utf8"

	"github.com/bipindra/PaymentOpsCopilot/internal/model"
	"github.com/bipindra/PaymentOpsCopilot/internal/service"
)

// Store is an in-memory VectorIndex. Safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	chunks map[string]model.Chunk // chunk id -> chunk
}

// New constructs an empty Store.
func New() *Store {
	return &Store{chunks: make(map[string]model.Chunk)}
}

// Initialize is a no-op: the map is ready on construction.
func (s *Store) Initialize(ctx context.Context) error { return nil }

// Upsert inserts or replaces chunks by id. Any chunk missing an
// embedding fails the whole batch with InvalidChunk.
func (s *Store) Upsert(ctx context.Context, chunks []model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			return service.NewInvalidChunk("chunk " + c.ID + " has no embedding")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range chunks {
		s.chunks[c.ID] = c
	}
	return nil
}

// Search returns up to topK chunks ordered by descending cosine
// similarity, dropping results below minScore when set.
func (s *Store) Search(ctx context.Context, queryVector []float32, topK int, minScore *float64) ([]model.RetrievedChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]model.RetrievedChunk, 0, len(s.chunks))
	for _, c := range s.chunks {
		score := cosineSimilarity(queryVector, c.Embedding)
		if minScore != nil && score < *minScore {
			continue
		}
		results = append(results, model.RetrievedChunk{Chunk: withoutEmbedding(c), Score: score})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })

	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// ListDocuments aggregates stored chunks by documentId.
func (s *Store) ListDocuments(ctx context.Context) ([]model.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agg := make(map[string]*model.Document)
	for _, c := range s.chunks {
		d, ok := agg[c.DocumentID]
		if !ok {
			d = &model.Document{ID: c.DocumentID, Name: c.DocumentName, CreatedUtc: c.CreatedUtc}
			agg[c.DocumentID] = d
		}
		if c.CreatedUtc.Before(d.CreatedUtc) {
			d.CreatedUtc = c.CreatedUtc
		}
		d.ChunkCount++
		d.TotalSizeBytes += utf8.RuneCountInString(c.Text)
	}

	docs := make([]model.Document, 0, len(agg))
	for _, d := range agg {
		docs = append(docs, *d)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].CreatedUtc.Before(docs[j].CreatedUtc) })
	return docs, nil
}

// GetDocument returns the document with the given id, or (nil, nil) if
// it does not exist.
func (s *Store) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	docs, err := s.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		if d.ID == id {
			d := d
			return &d, nil
		}
	}
	return nil, nil
}

// GetDocumentChunks returns a document's chunks ordered by index
// ascending, without embeddings populated.
func (s *Store) GetDocumentChunks(ctx context.Context, id string) ([]model.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Chunk
	for _, c := range s.chunks {
		if c.DocumentID == id {
			out = append(out, withoutEmbedding(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

func withoutEmbedding(c model.Chunk) model.Chunk {
	c.Embedding = nil
	return c
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
