// Package backend selects and constructs the configured VectorIndex
// implementation.
package backend

import (
	"context"
	"fmt"

	"github.com/bipindra/PaymentOpsCopilot/internal/backend/memory"
	"github.com/bipindra/PaymentOpsCopilot/internal/backend/postgres"
	"github.com/bipindra/PaymentOpsCopilot/internal/backend/redis"
	"github.com/bipindra/PaymentOpsCopilot/internal/config"
	"github.com/bipindra/PaymentOpsCopilot/internal/service"
)

// New constructs the VectorIndex named by cfg.VectorBackend and calls
// Initialize on it. Backends with no client library anywhere in the
// retrieval pack (Qdrant, Azure AI Search, OpenSearch) fail fast here
// rather than being silently substituted.
func New(ctx context.Context, cfg *config.Config) (service.VectorIndex, error) {
	switch cfg.VectorBackend {
	case "memory":
		store := memory.New()
		if err := store.Initialize(ctx); err != nil {
			return nil, err
		}
		return store, nil

	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns)
		if err != nil {
			return nil, err
		}
		store := postgres.New(pool, cfg.VectorDimension)
		if err := store.Initialize(ctx); err != nil {
			return nil, err
		}
		return store, nil

	case "redis":
		client := redis.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		store := redis.New(client, cfg.RedisIndexName, cfg.VectorDimension)
		if err := store.Initialize(ctx); err != nil {
			return nil, err
		}
		return store, nil

	case "qdrant", "azureaisearch", "opensearch":
		return nil, service.NewUpstreamVectorError(fmt.Errorf("backend.New: %s is declared but not implemented: no client library for this backend is present anywhere in the retrieval pack", cfg.VectorBackend))

	default:
		return nil, service.NewUpstreamVectorError(fmt.Errorf("backend.New: unrecognized vector backend %q", cfg.VectorBackend))
	}
}
