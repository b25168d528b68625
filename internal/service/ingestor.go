package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/bipindra/PaymentOpsCopilot/internal/model"
)

const (
	defaultEmbeddingBatchSize   = 100
	defaultVectorStoreBatchSize = 50
	defaultMaxFileSizeBytes     = 10 * 1024 * 1024

	// maxConcurrentFileIngests bounds how many files IngestFiles embeds
	// and upserts at once; independent documents don't need the
	// sequential ordering a single document's own batches require.
	maxConcurrentFileIngests = 4
)

// allowedFileExtensions lists the extensions IngestFiles will read.
var allowedFileExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
}

// IngestorService orchestrates chunk → embed → upsert with bounded
// batching.
type IngestorService struct {
	chunker              *ChunkerService
	embedder             Embedder
	index                VectorIndex
	embeddingBatchSize   int
	vectorStoreBatchSize int
	maxFileSizeBytes     int64
}

// NewIngestorService constructs an IngestorService. Zero values for the
// batch sizes and max file size fall back to the recognized
// configuration defaults.
func NewIngestorService(chunker *ChunkerService, embedder Embedder, index VectorIndex, embeddingBatchSize, vectorStoreBatchSize int, maxFileSizeBytes int64) *IngestorService {
	if embeddingBatchSize <= 0 {
		embeddingBatchSize = defaultEmbeddingBatchSize
	}
	if vectorStoreBatchSize <= 0 {
		vectorStoreBatchSize = defaultVectorStoreBatchSize
	}
	if maxFileSizeBytes <= 0 {
		maxFileSizeBytes = defaultMaxFileSizeBytes
	}
	return &IngestorService{
		chunker:              chunker,
		embedder:             embedder,
		index:                index,
		embeddingBatchSize:   embeddingBatchSize,
		vectorStoreBatchSize: vectorStoreBatchSize,
		maxFileSizeBytes:     maxFileSizeBytes,
	}
}

// IngestText chunks, embeds, and upserts a single document's text,
// returning the resulting Document.
func (s *IngestorService) IngestText(ctx context.Context, docName, text, sourcePath string) (model.Document, error) {
	if strings.TrimSpace(docName) == "" || strings.TrimSpace(text) == "" {
		return model.Document{}, NewInvalidInput("docName and text must not be blank")
	}

	documentID := uuid.NewString()
	createdUtc := time.Now().UTC()

	windows, err := s.chunker.Chunk(text)
	if err != nil {
		return model.Document{}, fmt.Errorf("service.IngestText: chunk: %w", err)
	}
	if len(windows) == 0 {
		return model.Document{}, NewInvalidInput(fmt.Sprintf("%s produced zero chunks after normalization", docName))
	}

	slog.Info("ingest chunked", "document_id", documentID, "doc_name", docName, "chunk_count", len(windows))

	chunks := make([]model.Chunk, len(windows))
	texts := make([]string, len(windows))
	for i, w := range windows {
		chunks[i] = model.Chunk{
			ID:           uuid.NewString(),
			DocumentID:   documentID,
			DocumentName: docName,
			Index:        w.Index,
			Text:         w.Text,
			Snippet:      w.Snippet,
			Hash:         w.Hash,
			CreatedUtc:   createdUtc,
		}
		texts[i] = w.Text
	}

	slog.Info("ingest embedding", "document_id", documentID, "chunk_count", len(chunks), "batch_size", s.embeddingBatchSize)
	vectors, err := EmbedBatches(ctx, s.embedder, texts, s.embeddingBatchSize)
	if err != nil {
		return model.Document{}, fmt.Errorf("service.IngestText: embed: %w", err)
	}
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}

	slog.Info("ingest upserting", "document_id", documentID, "chunk_count", len(chunks), "batch_size", s.vectorStoreBatchSize)
	for i := 0; i < len(chunks); i += s.vectorStoreBatchSize {
		end := i + s.vectorStoreBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		if err := s.index.Upsert(ctx, chunks[i:end]); err != nil {
			return model.Document{}, fmt.Errorf("service.IngestText: upsert %d-%d: %w", i, end, err)
		}
	}

	slog.Info("ingest complete", "document_id", documentID, "doc_name", docName, "chunk_count", len(chunks))

	return model.Document{
		ID:             documentID,
		Name:           docName,
		SourcePath:     sourcePath,
		CreatedUtc:     createdUtc,
		ChunkCount:     len(chunks),
		TotalSizeBytes: utf8.RuneCountInString(text),
	}, nil
}

// IngestFiles ingests each local file in paths, enforcing
// maxFileSizeBytes and a fixed extension allowlist. Files that are
// missing, too large, unreadable, or of a disallowed extension are
// skipped with a warning; per-file failures do not abort the batch.
// Independent files are ingested concurrently, bounded by
// maxConcurrentFileIngests.
func (s *IngestorService) IngestFiles(ctx context.Context, paths []string) ([]model.Document, error) {
	results := make([]*model.Document, len(paths))
	sem := make(chan struct{}, maxConcurrentFileIngests)

	g, gctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()

			doc, ok := s.ingestFile(gctx, path)
			if ok {
				results[i] = &doc
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("service.IngestFiles: %w", err)
	}

	docs := make([]model.Document, 0, len(paths))
	for _, d := range results {
		if d != nil {
			docs = append(docs, *d)
		}
	}
	return docs, nil
}

// ingestFile reads and ingests a single file, returning ok=false (with
// a logged warning) on any skip-worthy or per-file condition.
func (s *IngestorService) ingestFile(ctx context.Context, path string) (model.Document, bool) {
	info, err := os.Stat(path)
	if err != nil {
		slog.Warn("ingest skipping missing file", "path", path, "error", err)
		return model.Document{}, false
	}
	if info.Size() > s.maxFileSizeBytes {
		slog.Warn("ingest skipping oversize file", "path", path, "size_bytes", info.Size(), "max_bytes", s.maxFileSizeBytes)
		return model.Document{}, false
	}
	ext := strings.ToLower(filepath.Ext(path))
	if !allowedFileExtensions[ext] {
		slog.Warn("ingest skipping disallowed extension", "path", path, "ext", ext)
		return model.Document{}, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("ingest skipping unreadable file", "path", path, "error", err)
		return model.Document{}, false
	}

	doc, err := s.IngestText(ctx, filepath.Base(path), string(data), path)
	if err != nil {
		slog.Warn("ingest failed for file, continuing", "path", path, "error", err)
		return model.Document{}, false
	}
	return doc, true
}
