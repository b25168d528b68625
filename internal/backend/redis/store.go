// Package redis implements the VectorIndex contract on RediSearch's
// vector similarity (KNN) search over HASH documents.
package redis

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/redis/go-redis/v9"

	"github.com/bipindra/PaymentOpsCopilot/internal/model"
	"github.com/bipindra/PaymentOpsCopilot/internal/service"
)

const keyPrefix = "chunk:"

// NewClient constructs a go-redis client for the given address.
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// Store is a RediSearch-backed VectorIndex.
type Store struct {
	client    *redis.Client
	indexName string
	dimension int
}

// New constructs a Store. indexName is the RediSearch index to create
// and query; dimension is the embedding width.
func New(client *redis.Client, indexName string, dimension int) *Store {
	return &Store{client: client, indexName: indexName, dimension: dimension}
}

// Initialize creates the RediSearch index if it does not already exist.
func (s *Store) Initialize(ctx context.Context) error {
	err := s.client.Do(ctx, "FT.INFO", s.indexName).Err()
	if err == nil {
		return nil
	}

	args := []interface{}{
		"FT.CREATE", s.indexName,
		"ON", "HASH",
		"PREFIX", "1", keyPrefix,
		"SCHEMA",
		"document_id", "TAG",
		"document_name", "TEXT",
		"chunk_index", "NUMERIC",
		"content", "TEXT",
		"snippet", "TEXT",
		"content_hash", "TEXT",
		"created_at", "NUMERIC",
		"embedding", "VECTOR", "FLAT", "6",
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(s.dimension),
		"DISTANCE_METRIC", "COSINE",
	}
	if err := s.client.Do(ctx, args...).Err(); err != nil {
		return fmt.Errorf("redis.Initialize: %w", err)
	}
	return nil
}

// Upsert stores chunks as RediSearch HASH documents keyed by chunk id.
func (s *Store) Upsert(ctx context.Context, chunks []model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			return service.NewInvalidChunk("chunk " + c.ID + " has no embedding")
		}
	}

	pipe := s.client.Pipeline()
	for _, c := range chunks {
		created := c.CreatedUtc
		if created.IsZero() {
			created = time.Now().UTC()
		}
		pipe.HSet(ctx, keyPrefix+c.ID, map[string]interface{}{
			"document_id":   c.DocumentID,
			"document_name": c.DocumentName,
			"chunk_index":   c.Index,
			"content":       c.Text,
			"snippet":       c.Snippet,
			"content_hash":  c.Hash,
			"created_at":    created.Unix(),
			"embedding":     encodeVector(c.Embedding),
		})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return service.NewUpstreamVectorError(fmt.Errorf("redis.Upsert: %w", err))
	}
	return nil
}

// Search runs a RediSearch KNN query and normalizes RediSearch's cosine
// distance to the "higher is more similar" convention.
func (s *Store) Search(ctx context.Context, queryVector []float32, topK int, minScore *float64) ([]model.RetrievedChunk, error) {
	if topK <= 0 {
		topK = 5
	}

	query := fmt.Sprintf("*=>[KNN %d @embedding $vec AS score]", topK)
	res, err := s.client.Do(ctx, "FT.SEARCH", s.indexName, query,
		"PARAMS", "2", "vec", encodeVector(queryVector),
		"SORTBY", "score",
		"DIALECT", "2",
	).Result()
	if err != nil {
		return nil, service.NewUpstreamVectorError(fmt.Errorf("redis.Search: %w", err))
	}

	rows, err := parseSearchReply(res)
	if err != nil {
		return nil, service.NewUpstreamVectorError(fmt.Errorf("redis.Search: parse reply: %w", err))
	}

	results := make([]model.RetrievedChunk, 0, len(rows))
	for _, row := range rows {
		distance, _ := strconv.ParseFloat(row["score"], 64)
		similarity := 1 - distance
		if minScore != nil && similarity < *minScore {
			continue
		}
		idx, _ := strconv.Atoi(row["chunk_index"])
		created := time.Unix(parseInt64(row["created_at"]), 0).UTC()
		results = append(results, model.RetrievedChunk{
			Chunk: model.Chunk{
				ID:           strings.TrimPrefix(row["__key"], keyPrefix),
				DocumentID:   row["document_id"],
				DocumentName: row["document_name"],
				Index:        idx,
				Text:         row["content"],
				Snippet:      row["snippet"],
				Hash:         row["content_hash"],
				CreatedUtc:   created,
			},
			Score: similarity,
		})
	}
	return results, nil
}

// ListDocuments scans all stored chunks and aggregates by document_id.
// RediSearch has no document-level record; this mirrors the in-memory
// reference backend's aggregation approach over the scanned chunk set.
func (s *Store) ListDocuments(ctx context.Context) ([]model.Document, error) {
	chunks, err := s.scanAll(ctx)
	if err != nil {
		return nil, err
	}

	agg := make(map[string]*model.Document)
	for _, c := range chunks {
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
	return docs, nil
}

// GetDocument returns (nil, nil) when the document does not exist.
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

// GetDocumentChunks returns a document's chunks ordered by index.
func (s *Store) GetDocumentChunks(ctx context.Context, id string) ([]model.Chunk, error) {
	chunks, err := s.scanAll(ctx)
	if err != nil {
		return nil, err
	}
	var out []model.Chunk
	for _, c := range chunks {
		if c.DocumentID == id {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

func (s *Store) scanAll(ctx context.Context) ([]model.Chunk, error) {
	var chunks []model.Chunk
	iter := s.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		fields, err := s.client.HGetAll(ctx, key).Result()
		if err != nil {
			return nil, service.NewUpstreamVectorError(fmt.Errorf("redis.scanAll: HGETALL %s: %w", key, err))
		}
		idx, _ := strconv.Atoi(fields["chunk_index"])
		chunks = append(chunks, model.Chunk{
			ID:           strings.TrimPrefix(key, keyPrefix),
			DocumentID:   fields["document_id"],
			DocumentName: fields["document_name"],
			Index:        idx,
			Text:         fields["content"],
			Snippet:      fields["snippet"],
			Hash:         fields["content_hash"],
			CreatedUtc:   time.Unix(parseInt64(fields["created_at"]), 0).UTC(),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, service.NewUpstreamVectorError(fmt.Errorf("redis.scanAll: scan: %w", err))
	}
	return chunks, nil
}

// encodeVector serializes a []float32 to RediSearch's little-endian
// binary vector blob format.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func parseInt64(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

// parseSearchReply flattens the raw FT.SEARCH reply, in its flat array
// shape (total count, then key / field-list pairs), into a slice of
// field maps, one per matched document, including the matched key under
// the synthetic "__key" field. A reply of any other shape yields no rows.
func parseSearchReply(reply interface{}) ([]map[string]string, error) {
	items, ok := reply.([]interface{})
	if !ok || len(items) == 0 {
		return nil, nil
	}

	var rows []map[string]string
	for i := 1; i+1 < len(items); i += 2 {
		key, ok := items[i].(string)
		if !ok {
			continue
		}
		fieldList, ok := items[i+1].([]interface{})
		if !ok {
			continue
		}
		row := map[string]string{"__key": key}
		for j := 0; j+1 < len(fieldList); j += 2 {
			k, _ := fieldList[j].(string)
			v := fmt.Sprintf("%v", fieldList[j+1])
			row[k] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

var _ service.VectorIndex = (*Store)(nil)
