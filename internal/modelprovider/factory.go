// Package modelprovider selects and constructs the configured Embedder
// and ChatModel pair.
package modelprovider

import (
	"context"
	"fmt"

	"github.com/bipindra/PaymentOpsCopilot/internal/config"
	"github.com/bipindra/PaymentOpsCopilot/internal/modelprovider/openai"
	"github.com/bipindra/PaymentOpsCopilot/internal/modelprovider/vertex"
	"github.com/bipindra/PaymentOpsCopilot/internal/service"
)

// New constructs the Embedder and ChatModel named by cfg.ModelProvider.
// Providers with no client library anywhere in the retrieval pack
// (Microsoft/Azure OpenAI, Amazon Bedrock, Anthropic, Mistral) fail fast
// here rather than being silently substituted.
func New(ctx context.Context, cfg *config.Config) (service.Embedder, service.ChatModel, error) {
	switch cfg.ModelProvider {
	case "openai":
		embedder := openai.NewEmbedder(cfg.OpenAIAPIKey, cfg.OpenAIEmbedModel)
		chatModel := openai.NewChatModel(cfg.OpenAIAPIKey, cfg.OpenAIChatModel)
		return embedder, chatModel, nil

	case "google":
		embedder, err := vertex.NewEmbedder(ctx, cfg.GCPProject, cfg.EmbeddingLocation, cfg.EmbeddingModel)
		if err != nil {
			return nil, nil, service.NewUpstreamModelError(err)
		}
		chatModel, err := vertex.NewChatModel(ctx, cfg.GCPProject, cfg.VertexAILocation, cfg.VertexAIModel)
		if err != nil {
			return nil, nil, service.NewUpstreamModelError(err)
		}
		return embedder, chatModel, nil

	case "microsoft", "amazon", "anthropic", "mistral":
		return nil, nil, service.NewUpstreamModelError(fmt.Errorf("modelprovider.New: %s is declared but not implemented: no client library for this provider is present anywhere in the retrieval pack", cfg.ModelProvider))

	default:
		return nil, nil, service.NewUpstreamModelError(fmt.Errorf("modelprovider.New: unrecognized model provider %q", cfg.ModelProvider))
	}
}
