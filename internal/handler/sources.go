package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bipindra/PaymentOpsCopilot/internal/model"
)

// SourceLister abstracts the vector index's document catalog for
// testability.
type SourceLister interface {
	ListDocuments(ctx context.Context) ([]model.Document, error)
	GetDocument(ctx context.Context, id string) (*model.Document, error)
	GetDocumentChunks(ctx context.Context, id string) ([]model.Chunk, error)
}

// ListSources handles GET /api/sources.
func ListSources(lister SourceLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docs, err := lister.ListDocuments(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if docs == nil {
			docs = []model.Document{}
		}
		respondJSON(w, http.StatusOK, docs)
	}
}

type sourceDetailResponse struct {
	model.Document
	Chunks []model.Chunk `json:"chunks"`
}

// GetSource handles GET /api/sources/{id}.
func GetSource(lister SourceLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			writeError(w, http.StatusBadRequest, "document id required")
			return
		}

		doc, err := lister.GetDocument(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if doc == nil {
			writeError(w, http.StatusNotFound, "document not found")
			return
		}

		chunks, err := lister.GetDocumentChunks(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if chunks == nil {
			chunks = []model.Chunk{}
		}

		respondJSON(w, http.StatusOK, sourceDetailResponse{Document: *doc, Chunks: chunks})
	}
}
