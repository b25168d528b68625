package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/bipindra/PaymentOpsCopilot/internal/model"
)

// Answerer abstracts the ask pipeline for testability.
type Answerer interface {
	Ask(ctx context.Context, question string, topK int) model.AskResponse
}

type askRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"topK,omitempty"`
}

// Ask handles POST /api/ask. TopK defaults to defaultTopK when absent or
// non-positive.
func Ask(answerer Answerer, defaultTopK int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req askRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Question == "" {
			writeError(w, http.StatusBadRequest, "question must not be blank")
			return
		}

		topK := req.TopK
		if topK <= 0 {
			topK = defaultTopK
		}

		resp := answerer.Ask(r.Context(), req.Question, topK)
		respondJSON(w, http.StatusOK, resp)
	}
}
