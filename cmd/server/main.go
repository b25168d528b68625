package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bipindra/PaymentOpsCopilot/internal/backend"
	"github.com/bipindra/PaymentOpsCopilot/internal/config"
	"github.com/bipindra/PaymentOpsCopilot/internal/middleware"
	"github.com/bipindra/PaymentOpsCopilot/internal/modelprovider"
	"github.com/bipindra/PaymentOpsCopilot/internal/router"
	"github.com/bipindra/PaymentOpsCopilot/internal/service"
)

const Version = "0.1.0"

// initializer is the subset of service.VectorIndex the health check
// needs: re-running Initialize is a no-op once the backing store
// already exists, so it doubles as a connectivity check.
type initializer interface {
	Initialize(ctx context.Context) error
}

// dbPinger adapts a VectorIndex to handler.DBPinger.
type dbPinger struct {
	index initializer
}

func (p *dbPinger) Ping(ctx context.Context) error {
	return p.index.Initialize(ctx)
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()

	index, err := backend.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("construct vector backend: %w", err)
	}

	embedder, chatModel, err := modelprovider.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("construct model provider: %w", err)
	}

	chunker := service.NewChunkerService(cfg.ChunkSizeChars, cfg.ChunkOverlapChars, cfg.MaxChunksPerDocument)
	ingestor := service.NewIngestorService(chunker, embedder, index, cfg.EmbeddingBatchSize, cfg.VectorStoreBatchSize, cfg.MaxFileSizeBytes)
	guardrail := service.NewGuardrailService()
	retriever := service.NewRetrieverService(embedder, index, cfg.MinSimilarityScore)
	answerer := service.NewAnswererService(guardrail, retriever, chatModel, cfg.MaxQuestionLength)

	reg := prometheus.NewRegistry()
	metrics := middleware.NewMetrics(reg)

	r := router.New(&router.Dependencies{
		DB:          &dbPinger{index: index},
		FrontendURL: cfg.FrontendURL,
		Version:     Version,
		Metrics:     metrics,
		MetricsReg:  reg,
		Ingestor:    ingestor,
		Answerer:    answerer,
		Sources:     index,
		DefaultTopK: cfg.DefaultTopK,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("payment-ops-copilot starting", "version", Version, "port", cfg.Port, "vector_backend", cfg.VectorBackend, "model_provider", cfg.ModelProvider)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("received signal, shutting down gracefully", "signal", sig.String())
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
