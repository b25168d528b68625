package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/bipindra/PaymentOpsCopilot/internal/model"
)

const (
	defaultMaxQuestionLength = 2000

	idkAnswer     = "I don't know based on the provided runbooks."
	idkHint       = idkAnswer + " Try ingesting more runbook documents about this topic."
	refusalAnswer = "I cannot process this request. Please ask a question about payment operations."

	truncatedMarker = "... [truncated]"
)

// citationPattern matches the wire-format bracket citation
// [docName:chunkIndex]. docName may not contain ']'; chunkIndex is a
// non-negative decimal integer.
var citationPattern = regexp.MustCompile(`\[([^\]]+):(\d+)\]`)

// ChatModel invokes a language model with a system and user prompt at
// low-temperature decoding, returning its text output and, if reported,
// token usage.
type ChatModel interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (answer string, tokensUsed *int, err error)
}

// AnswererService composes a system + user prompt, invokes a ChatModel,
// parses bracket citations, retries once with a stricter prompt when
// grounding looks weak, and returns an auditable AskResponse.
type AnswererService struct {
	guardrail         *GuardrailService
	retriever         *RetrieverService
	chatModel         ChatModel
	maxQuestionLength int
}

// NewAnswererService constructs an AnswererService. maxQuestionLength
// of 0 falls back to the recognized configuration default (2000).
func NewAnswererService(guardrail *GuardrailService, retriever *RetrieverService, chatModel ChatModel, maxQuestionLength int) *AnswererService {
	if maxQuestionLength <= 0 {
		maxQuestionLength = defaultMaxQuestionLength
	}
	return &AnswererService{
		guardrail:         guardrail,
		retriever:         retriever,
		chatModel:         chatModel,
		maxQuestionLength: maxQuestionLength,
	}
}

// Ask runs the full guardrail → retrieve → generate → cite pipeline.
func (a *AnswererService) Ask(ctx context.Context, question string, topK int) model.AskResponse {
	start := time.Now()

	verdict := a.guardrail.Inspect(question)
	if verdict.Severity == SeveritySevere {
		slog.Warn("guardrail refused request", "matched_terms", verdict.MatchedTerms)
		return model.AskResponse{
			AnswerMarkdown: refusalAnswer,
			Citations:      []model.Citation{},
			Retrieved:      []model.RetrievedChunk{},
			ElapsedMs:      time.Since(start).Milliseconds(),
		}
	}

	question = truncateQuestion(question, a.maxQuestionLength)

	retrieved, err := a.retriever.Retrieve(ctx, question, topK)
	if err != nil {
		slog.Error("answerer retrieve failed", "error", err)
		return a.errorResponse(err, start)
	}
	if len(retrieved) == 0 {
		return model.AskResponse{
			AnswerMarkdown: idkHint,
			Citations:      []model.Citation{},
			Retrieved:      []model.RetrievedChunk{},
			ElapsedMs:      time.Since(start).Milliseconds(),
		}
	}

	contextBlock := buildContextBlock(retrieved)
	userPrompt := question + "\n\nContext:\n" + contextBlock

	strict := verdict.Severity == SeverityModerate
	answer, tokensUsed, err := a.chatModel.Generate(ctx, systemPrompt(strict), userPrompt)
	if err != nil {
		slog.Error("answerer generate failed", "error", err)
		return a.errorResponse(err, start)
	}

	citations := parseCitations(answer, retrieved)

	if len(citations) == 0 && !strings.Contains(strings.ToLower(answer), "i don't know") {
		slog.Info("answerer retrying with strict prompt", "reason", "no citations parsed")
		answer, tokensUsed, err = a.chatModel.Generate(ctx, systemPrompt(true), userPrompt)
		if err != nil {
			slog.Error("answerer retry generate failed", "error", err)
			return a.errorResponse(err, start)
		}
		citations = parseCitations(answer, retrieved)
	}

	return model.AskResponse{
		AnswerMarkdown: answer,
		Citations:      citations,
		Retrieved:      retrieved,
		ElapsedMs:      time.Since(start).Milliseconds(),
		TokensUsed:     tokensUsed,
	}
}

func (a *AnswererService) errorResponse(err error, start time.Time) model.AskResponse {
	return model.AskResponse{
		AnswerMarkdown: "An error occurred while processing your question.",
		Citations:      []model.Citation{},
		Retrieved:      []model.RetrievedChunk{},
		ElapsedMs:      time.Since(start).Milliseconds(),
	}
}

// truncateQuestion enforces maxQuestionLength, appending the literal
// marker "... [truncated]" when the input exceeds it.
func truncateQuestion(question string, maxLen int) string {
	runes := []rune(question)
	if len(runes) <= maxLen {
		return question
	}
	return string(runes[:maxLen]) + truncatedMarker
}

// buildContextBlock concatenates "[{docName}:{index}] {text}" for each
// retrieved chunk, separated by blank lines, in retrieval order.
func buildContextBlock(retrieved []model.RetrievedChunk) string {
	parts := make([]string, len(retrieved))
	for i, r := range retrieved {
		parts[i] = fmt.Sprintf("[%s:%d] %s", r.DocumentName, r.Index, r.Text)
	}
	return strings.Join(parts, "\n\n")
}

const defaultSystemPromptBody = `You are a payment-operations assistant. Answer only from the supplied context.
Rules:
- If the context does not support an answer, say "I don't know based on the provided runbooks."
- Structure every response with Summary, Checklist, and Citations sections.
- Cite every fact as [docName:chunkIndex], referencing the bracketed context blocks you were given.
- Never invent a citation for a document or chunk you were not given.`

const strictSystemPromptSuffix = `

=== STRICT MODE ===
NO citations = invalid response. Every factual sentence must end with at least one [docName:chunkIndex] citation, or you must say "I don't know based on the provided runbooks."`

// systemPrompt selects the default or strict system prompt. Strict is
// used on guardrail-moderate input and on citation-retry.
func systemPrompt(strict bool) string {
	if strict {
		return defaultSystemPromptBody + strictSystemPromptSuffix
	}
	return defaultSystemPromptBody
}

// parseCitations extracts [docName:index] markers from answer,
// deduplicating by (docName, index) while preserving first-seen order.
// Each citation is attached the snippet of the matching retrieved
// chunk, if found; otherwise it is preserved verbatim with an empty
// snippet.
func parseCitations(answer string, retrieved []model.RetrievedChunk) []model.Citation {
	matches := citationPattern.FindAllStringSubmatch(answer, -1)
	if len(matches) == 0 {
		return []model.Citation{}
	}

	type key struct {
		doc string
		idx int
	}
	seen := make(map[key]bool)
	citations := make([]model.Citation, 0, len(matches))

	for _, m := range matches {
		docName := m[1]
		var idx int
		if _, err := fmt.Sscanf(m[2], "%d", &idx); err != nil {
			continue
		}
		k := key{docName, idx}
		if seen[k] {
			continue
		}
		seen[k] = true

		citation := model.Citation{DocumentName: docName, ChunkIndex: idx}
		for _, r := range retrieved {
			if r.DocumentName == docName && r.Index == idx {
				citation.Snippet = r.Snippet
				break
			}
		}
		citations = append(citations, citation)
	}

	return citations
}
