package vertex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"golang.org/x/oauth2/google"
)

// generationTemperature is fixed low to reduce hallucination in
// grounded answers; it is not configurable per call.
const generationTemperature = 0.1

// ChatModel wraps the Vertex AI Gemini client. Supports both regional
// endpoints (via the Go SDK) and the global endpoint (via REST), since
// the vertexai/genai SDK does not support the global endpoint.
type ChatModel struct {
	client     *genai.Client // nil when using the global endpoint
	httpClient *http.Client  // used for global endpoint REST calls
	project    string
	location   string
	model      string
	useREST    bool
}

// NewChatModel creates a ChatModel.
func NewChatModel(ctx context.Context, project, location, model string) (*ChatModel, error) {
	if location == "global" {
		httpClient, err := google.DefaultClient(ctx, "https://www.googleapis.com/auth/cloud-platform")
		if err != nil {
			return nil, fmt.Errorf("vertex.NewChatModel: default credentials: %w", err)
		}
		return &ChatModel{httpClient: httpClient, project: project, location: location, model: model, useREST: true}, nil
	}

	client, err := genai.NewClient(ctx, project, location)
	if err != nil {
		return nil, fmt.Errorf("vertex.NewChatModel: %w", err)
	}
	return &ChatModel{client: client, project: project, location: location, model: model}, nil
}

// Generate sends a prompt to Gemini and returns its text response.
// Retries up to 3 times on 429/RESOURCE_EXHAUSTED with a 500ms→1000ms→
// 2000ms backoff (4s ceiling). Gemini does not report token usage on
// this path, so tokensUsed is always nil.
func (m *ChatModel) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, *int, error) {
	text, err := withRetry(ctx, "GenerateContent", func() (string, error) {
		if m.useREST {
			return m.generateREST(ctx, systemPrompt, userPrompt)
		}
		return m.generateSDK(ctx, systemPrompt, userPrompt)
	})
	if err != nil {
		return "", nil, err
	}
	return text, nil, nil
}

func (m *ChatModel) generateSDK(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	model := m.client.GenerativeModel(m.model)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}
	model.SetTemperature(generationTemperature)

	resp, err := model.GenerateContent(ctx, genai.Text(userPrompt))
	if err != nil {
		return "", fmt.Errorf("vertex.Generate: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("vertex.Generate: empty response from model")
	}

	var parts []string
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			parts = append(parts, string(t))
		}
	}
	return strings.Join(parts, ""), nil
}

type restGenerateRequest struct {
	Contents          []restContent         `json:"contents"`
	SystemInstruction *restContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *restGenerationConfig `json:"generationConfig,omitempty"`
}

type restContent struct {
	Role  string     `json:"role"`
	Parts []restPart `json:"parts"`
}

type restPart struct {
	Text string `json:"text"`
}

type restGenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens *int     `json:"maxOutputTokens,omitempty"`
}

type restGenerateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// endpointURL returns the global-endpoint REST URL for generateContent.
func (m *ChatModel) endpointURL() string {
	return fmt.Sprintf(
		"https://aiplatform.googleapis.com/v1/projects/%s/locations/global/publishers/google/models/%s:generateContent",
		m.project, m.model,
	)
}

func (m *ChatModel) generateREST(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	url := m.endpointURL()

	temperature := generationTemperature
	reqBody := restGenerateRequest{
		Contents:         []restContent{{Role: "user", Parts: []restPart{{Text: userPrompt}}}},
		GenerationConfig: &restGenerationConfig{Temperature: &temperature},
	}
	if systemPrompt != "" {
		reqBody.SystemInstruction = &restContent{Role: "user", Parts: []restPart{{Text: systemPrompt}}}
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("vertex.Generate: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("vertex.Generate: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("vertex.Generate: call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("vertex.Generate: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("vertex.Generate: status %d: %s", resp.StatusCode, respBody)
	}

	var genResp restGenerateResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return "", fmt.Errorf("vertex.Generate: decode: %w", err)
	}
	if genResp.Error != nil {
		return "", fmt.Errorf("vertex.Generate: API error %d: %s", genResp.Error.Code, genResp.Error.Message)
	}
	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("vertex.Generate: empty response from model")
	}

	var parts []string
	for _, p := range genResp.Candidates[0].Content.Parts {
		if p.Text != "" {
			parts = append(parts, p.Text)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("vertex.Generate: no text in response")
	}
	return strings.Join(parts, ""), nil
}

// Close releases the underlying SDK client, if one was created.
func (m *ChatModel) Close() {
	if m.client != nil {
		m.client.Close()
	}
}
