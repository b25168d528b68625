package handler

import (
	"encoding/json"
	"net/http"
)

// timeLayout is the RFC3339 layout used for timestamp fields in JSON
// responses that don't rely on time.Time's default marshaling.
const timeLayout = "2006-01-02T15:04:05.000Z"

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
