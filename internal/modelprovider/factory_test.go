package modelprovider

import (
	"context"
	"os"
	"testing"

	"github.com/bipindra/PaymentOpsCopilot/internal/config"
	"github.com/bipindra/PaymentOpsCopilot/internal/service"
)

func TestNew_OpenAI(t *testing.T) {
	embedder, chatModel, err := New(context.Background(), &config.Config{
		ModelProvider:    "openai",
		OpenAIAPIKey:     "sk-test",
		OpenAIEmbedModel: "text-embedding-3-small",
		OpenAIChatModel:  "gpt-4o-mini",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if embedder == nil || chatModel == nil {
		t.Fatal("expected non-nil embedder and chat model")
	}
}

func TestNew_UnimplementedProvidersFailFast(t *testing.T) {
	for _, provider := range []string{"microsoft", "amazon", "anthropic", "mistral"} {
		_, _, err := New(context.Background(), &config.Config{ModelProvider: provider})
		if err == nil {
			t.Errorf("expected error for unimplemented provider %q", provider)
			continue
		}
		ce, ok := service.AsCoreError(err)
		if !ok || ce.Code != service.ErrUpstreamModelError {
			t.Errorf("provider %q: expected UpstreamModelError, got %v", provider, err)
		}
	}
}

func TestNew_UnrecognizedProvider(t *testing.T) {
	_, _, err := New(context.Background(), &config.Config{ModelProvider: "cohere"})
	if err == nil {
		t.Fatal("expected error for unrecognized provider")
	}
}

func TestNew_Google_Integration(t *testing.T) {
	if os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
		t.Skip("GOOGLE_APPLICATION_CREDENTIALS not set, skipping integration test")
	}
	embedder, chatModel, err := New(context.Background(), &config.Config{
		ModelProvider:     "google",
		GCPProject:        os.Getenv("GCP_PROJECT"),
		EmbeddingLocation: "us-central1",
		EmbeddingModel:    "text-embedding-004",
		VertexAILocation:  "us-central1",
		VertexAIModel:     "gemini-1.5-flash",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if embedder == nil || chatModel == nil {
		t.Fatal("expected non-nil embedder and chat model")
	}
}
