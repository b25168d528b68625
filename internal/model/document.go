// Package model holds the data types shared across the RAG core: the
// documents and chunks the vector store persists, and the citations and
// retrieval results the answer pipeline produces from them.
package model

import "time"

// Document is an ingested source file. It is created once by the
// Ingestor and never mutated; ChunkCount and TotalSizeBytes are derived
// aggregates recomputed from its chunks.
type Document struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	SourcePath string    `json:"sourcePath,omitempty"`
	CreatedUtc time.Time `json:"createdUtc"`
	ChunkCount int       `json:"chunkCount"`

	// TotalSizeBytes is a character count of the ingested text, not a
	// byte count — preserved from the original source's unit choice.
	TotalSizeBytes int `json:"totalSizeBytes"`
}

// Chunk is a bounded, indexed slice of a Document's text, together with
// its embedding vector once stored.
type Chunk struct {
	ID           string `json:"id"`
	DocumentID   string `json:"documentId"`
	DocumentName string `json:"documentName"`

	// Index is the 0-based position of this chunk within its document.
	// Index values for a document are 0..ChunkCount-1 with no gaps.
	Index int `json:"index"`

	Text string `json:"text"`

	// Snippet is the first <=240 characters of Text, with a trailing
	// ellipsis if truncated. Used for UI preview and citation display.
	Snippet string `json:"snippet"`

	// Hash is the lowercase hex SHA-256 of Text.
	Hash string `json:"hash"`

	// Embedding is omitted from JSON responses; it is required before
	// a chunk can be upserted into a VectorIndex.
	Embedding []float32 `json:"-"`

	CreatedUtc time.Time `json:"createdUtc"`
}

// RetrievedChunk is a Chunk returned from a similarity search, carrying
// the backend-reported similarity score ("higher is more similar").
type RetrievedChunk struct {
	Chunk
	Score float64 `json:"score"`
}

// Citation identifies a chunk cited by the model in an answer. Score is
// always nil: a citation is a textual reference parsed from the answer,
// not a retrieval result.
type Citation struct {
	DocumentName string   `json:"documentName"`
	ChunkIndex   int      `json:"chunkIndex"`
	Snippet      string   `json:"snippet,omitempty"`
	Score        *float64 `json:"score,omitempty"`
}

// AskResponse is the result of the Answerer's Ask pipeline.
type AskResponse struct {
	AnswerMarkdown string           `json:"answerMarkdown"`
	Citations      []Citation       `json:"citations"`
	Retrieved      []RetrievedChunk `json:"retrieved"`
	ElapsedMs      int64            `json:"elapsedMs"`
	TokensUsed     *int             `json:"tokensUsed,omitempty"`
}
