package openai

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// generationTemperature is fixed low to reduce hallucination in
// grounded answers; it is not configurable per call.
const generationTemperature = 0.1

// ChatModel calls OpenAI's chat completions endpoint.
type ChatModel struct {
	client *openai.Client
	model  string
}

// NewChatModel constructs a ChatModel for the given model (e.g. "gpt-4o-mini").
func NewChatModel(apiKey, model string) *ChatModel {
	return &ChatModel{client: openai.NewClient(apiKey), model: model}
}

// Generate sends the system and user prompts to the chat completions
// endpoint and returns the model's text response along with the total
// token count OpenAI reports for the call.
func (m *ChatModel) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, *int, error) {
	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       m.model,
		Temperature: generationTemperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return "", nil, fmt.Errorf("openai.Generate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil, fmt.Errorf("openai.Generate: empty response from model")
	}

	tokens := resp.Usage.TotalTokens
	return resp.Choices[0].Message.Content, &tokens, nil
}
