package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/bipindra/PaymentOpsCopilot/internal/model"
	"github.com/bipindra/PaymentOpsCopilot/internal/service"
)

// Ingestor abstracts the ingest pipeline for testability.
type Ingestor interface {
	IngestText(ctx context.Context, docName, text, sourcePath string) (model.Document, error)
	IngestFiles(ctx context.Context, paths []string) ([]model.Document, error)
}

const maxUploadBytes = 64 << 20 // 64MiB across all files in one request

type ingestTextRequest struct {
	DocName    string `json:"docName"`
	Text       string `json:"text"`
	SourcePath string `json:"sourcePath,omitempty"`
}

type ingestTextResponse struct {
	DocumentID string `json:"documentId"`
	DocName    string `json:"docName"`
	ChunkCount int     `json:"chunkCount"`
	CreatedUtc string `json:"createdUtc"`
}

// IngestText handles POST /api/ingest/text.
func IngestText(ingestor Ingestor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ingestTextRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		doc, err := ingestor.IngestText(r.Context(), req.DocName, req.Text, req.SourcePath)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		respondJSON(w, http.StatusOK, ingestTextResponse{
			DocumentID: doc.ID,
			DocName:    doc.Name,
			ChunkCount: doc.ChunkCount,
			CreatedUtc: doc.CreatedUtc.Format(timeLayout),
		})
	}
}

type ingestFileResult struct {
	FileName   string `json:"fileName"`
	DocumentID string `json:"documentId,omitempty"`
	ChunkCount int    `json:"chunkCount,omitempty"`
	Error      string `json:"error,omitempty"`
}

// IngestFiles handles POST /api/ingest/files, a multipart upload of one
// or more files. Each file is staged to a temp directory, ingested, and
// removed; per-file failures are reported in the result list rather
// than aborting the batch.
func IngestFiles(ingestor Ingestor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			writeError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}
		files := r.MultipartForm.File["files"]
		if len(files) == 0 {
			writeError(w, http.StatusBadRequest, "no files provided")
			return
		}

		stagingDir, err := os.MkdirTemp("", "ingest-*")
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to stage upload")
			return
		}
		defer os.RemoveAll(stagingDir)

		paths := make([]string, 0, len(files))
		names := make(map[string]string, len(files))
		for _, fh := range files {
			safeName := filepath.Base(fh.Filename)
			path := filepath.Join(stagingDir, safeName)

			src, err := fh.Open()
			if err != nil {
				slog.Warn("ingest files: could not open upload", "file", fh.Filename, "error", err)
				continue
			}
			dst, err := os.Create(path)
			if err != nil {
				src.Close()
				slog.Warn("ingest files: could not stage upload", "file", fh.Filename, "error", err)
				continue
			}
			_, copyErr := io.Copy(dst, src)
			src.Close()
			dst.Close()
			if copyErr != nil {
				slog.Warn("ingest files: could not save upload", "file", fh.Filename, "error", copyErr)
				continue
			}

			paths = append(paths, path)
			names[path] = safeName
		}

		docs, err := ingestor.IngestFiles(r.Context(), paths)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		ingestedBySource := make(map[string]model.Document, len(docs))
		for _, d := range docs {
			ingestedBySource[d.SourcePath] = d
		}

		results := make([]ingestFileResult, 0, len(paths))
		for _, path := range paths {
			name := names[path]
			if doc, ok := ingestedBySource[path]; ok {
				results = append(results, ingestFileResult{
					FileName:   name,
					DocumentID: doc.ID,
					ChunkCount: doc.ChunkCount,
				})
			} else {
				results = append(results, ingestFileResult{FileName: name, Error: "ingest failed or file skipped"})
			}
		}

		respondJSON(w, http.StatusOK, map[string]any{"results": results})
	}
}

type ingestSamplesRequest struct {
	FolderPath string `json:"folderPath,omitempty"`
}

const defaultSamplesFolder = "samples/runbooks"

// IngestSamples handles POST /api/ingest/samples. It ingests every
// allowed file found directly under folderPath (defaulting to the
// bundled sample runbooks folder), non-recursively.
func IngestSamples(ingestor Ingestor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ingestSamplesRequest
		if r.Body != nil {
			// Body is optional; a decode failure on an empty body is fine.
			_ = json.NewDecoder(r.Body).Decode(&req)
		}
		folder := req.FolderPath
		if folder == "" {
			folder = defaultSamplesFolder
		}

		entries, err := os.ReadDir(folder)
		if err != nil {
			writeError(w, http.StatusBadRequest, "cannot read samples folder: "+err.Error())
			return
		}

		paths := make([]string, 0, len(entries))
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			paths = append(paths, filepath.Join(folder, e.Name()))
		}

		docs, err := ingestor.IngestFiles(r.Context(), paths)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		respondJSON(w, http.StatusOK, map[string]any{
			"ingested":  len(docs),
			"documents": docs,
		})
	}
}

// writeServiceError maps a service-layer error to an HTTP status,
// preferring the structured CoreError taxonomy when present.
func writeServiceError(w http.ResponseWriter, err error) {
	ce, ok := service.AsCoreError(err)
	if !ok {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	status := http.StatusInternalServerError
	switch ce.Code {
	case service.ErrInvalidInput, service.ErrInvalidChunk, service.ErrChunkExplosion:
		status = http.StatusBadRequest
	case service.ErrUpstreamTimeout:
		status = http.StatusGatewayTimeout
	case service.ErrUpstreamModelInvalid:
		status = http.StatusBadGateway
	}
	writeError(w, status, ce.Error())
}
