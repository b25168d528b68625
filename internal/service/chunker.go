package service

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"unicode"
)

const (
	defaultChunkSize            = 1000
	defaultOverlap              = 150
	defaultMaxChunksPerDocument = 5000

	snapWindow     = 100
	maxSnippetChar = 240
)

// Window is a bounded slice of normalized document text produced by the
// Chunker, before a document id, chunk id, or embedding has been assigned.
type Window struct {
	Index   int
	Text    string
	Snippet string
	Hash    string
}

// ChunkerService splits document text into bounded, overlapping windows
// with deterministic indices.
type ChunkerService struct {
	chunkSize            int
	overlap              int
	maxChunksPerDocument int
}

// NewChunkerService constructs a ChunkerService. Zero values fall back to
// the recognized configuration defaults (chunkSize=1000, overlap=150,
// maxChunksPerDocument=5000).
func NewChunkerService(chunkSize, overlap, maxChunksPerDocument int) *ChunkerService {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = defaultOverlap
	}
	if maxChunksPerDocument <= 0 {
		maxChunksPerDocument = defaultMaxChunksPerDocument
	}
	return &ChunkerService{
		chunkSize:            chunkSize,
		overlap:              overlap,
		maxChunksPerDocument: maxChunksPerDocument,
	}
}

// Chunk normalizes text and splits it into windows per the windowing
// algorithm: fixed-size windows snapped to a trailing sentence boundary
// where one exists in the last snapWindow characters, with forced
// forward progress on every step.
func (s *ChunkerService) Chunk(text string) ([]Window, error) {
	normalized := normalizeText(text)
	if normalized == "" {
		return nil, nil
	}

	runes := []rune(normalized)

	var windows []Window
	start := 0
	n := len(runes)

	for start < n {
		end := start + s.chunkSize
		if end > n {
			end = n
		}

		if end < n {
			end = snapToBoundary(runes, start, end)
		}

		trimmed := strings.TrimSpace(string(runes[start:end]))
		if trimmed != "" {
			windows = append(windows, Window{
				Index:   len(windows),
				Text:    trimmed,
				Snippet: snippetOf(trimmed),
				Hash:    sha256Hash(trimmed),
			})
			if len(windows) >= s.maxChunksPerDocument {
				return nil, NewChunkExplosion(fmt.Sprintf("chunking exceeded maxChunksPerDocument=%d", s.maxChunksPerDocument))
			}
		}

		if end == n {
			break
		}

		prevStart := start
		start = end - s.overlap
		if start <= prevStart {
			start = prevStart + 1
		}
	}

	return windows, nil
}

// snapToBoundary looks for the rightmost '.' or '\n' within the last
// snapWindow characters of [start, end). If it lies at or past the
// window's midpoint it replaces end; otherwise the raw end is kept.
func snapToBoundary(runes []rune, start, end int) int {
	lo := end - snapWindow
	if lo < start {
		lo = start
	}

	best := -1
	for i := lo; i < end; i++ {
		if runes[i] == '.' || runes[i] == '\n' {
			best = i
		}
	}
	if best == -1 {
		return end
	}

	half := (end - start) / 2
	if half < 1 {
		half = 1
	}
	if best >= start+half {
		return best + 1
	}
	return end
}

// normalizeText applies the fixed normalization pipeline: CRLF->LF,
// collapse runs of horizontal whitespace to a single space while
// preserving LF, then trim.
func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var b strings.Builder
	b.Grow(len(text))
	inRun := false
	for _, r := range text {
		if r == '\n' {
			b.WriteRune(r)
			inRun = false
			continue
		}
		if isHorizontalSpace(r) {
			if !inRun {
				b.WriteRune(' ')
				inRun = true
			}
			continue
		}
		inRun = false
		b.WriteRune(r)
	}

	return strings.TrimSpace(b.String())
}

func isHorizontalSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\f', '\v':
		return true
	}
	return unicode.IsSpace(r) && r != '\n'
}

// snippetOf returns the first maxSnippetChar runes of text, appending an
// ellipsis if truncated.
func snippetOf(text string) string {
	runes := []rune(text)
	if len(runes) <= maxSnippetChar {
		return text
	}
	return string(runes[:maxSnippetChar]) + "…"
}

func sha256Hash(s string) string {
	h := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%x", h)
}
