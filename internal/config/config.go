package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration loaded from environment
// variables. It is immutable after Load() returns.
type Config struct {
	Port        int
	Environment string
	FrontendURL string

	// Vector backend selection. One of "memory", "postgres", "redis",
	// "qdrant", "azureaisearch", "opensearch".
	VectorBackend string
	// Model provider selection. One of "openai", "google", "microsoft",
	// "amazon", "anthropic", "mistral".
	ModelProvider string
	VectorDimension int

	// Postgres backend
	DatabaseURL      string
	DatabaseMaxConns int

	// Redis backend
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisIndexName string

	// Google / Vertex AI provider
	GCPProject        string
	GCPRegion         string
	VertexAILocation  string
	VertexAIModel     string
	EmbeddingLocation string
	EmbeddingModel    string

	// OpenAI provider
	OpenAIAPIKey    string
	OpenAIChatModel string
	OpenAIEmbedModel string

	// Core pipeline tunables (§6 "Recognized configuration options")
	ChunkSizeChars       int
	ChunkOverlapChars    int
	MaxChunksPerDocument int
	EmbeddingBatchSize   int
	VectorStoreBatchSize int
	MaxFileSizeBytes     int64
	MaxQuestionLength    int
	DefaultTopK          int
	MinSimilarityScore   *float64
}

// Load reads configuration from environment variables. Required
// variables depend on the selected VectorBackend/ModelProvider and are
// validated after the provider tags are known.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        envInt("PORT", 8080),
		Environment: envStr("ENVIRONMENT", "development"),
		FrontendURL: envStr("FRONTEND_URL", "http://localhost:3000"),

		VectorBackend:   envStr("VECTOR_BACKEND", "memory"),
		ModelProvider:   envStr("MODEL_PROVIDER", "openai"),
		VectorDimension: envInt("VECTOR_DIMENSION", 1536),

		DatabaseURL:      envStr("DATABASE_URL", ""),
		DatabaseMaxConns: envInt("DATABASE_MAX_CONNS", 25),

		RedisAddr:      envStr("REDIS_ADDR", ""),
		RedisPassword:  envStr("REDIS_PASSWORD", ""),
		RedisDB:        envInt("REDIS_DB", 0),
		RedisIndexName: envStr("REDIS_INDEX_NAME", "runbook_chunks"),

		GCPProject:        envStr("GOOGLE_CLOUD_PROJECT", ""),
		GCPRegion:         envStr("GCP_REGION", "us-east4"),
		VertexAILocation:  envStr("VERTEX_AI_LOCATION", "global"),
		VertexAIModel:     envStr("VERTEX_AI_MODEL", "gemini-3-pro-preview"),
		EmbeddingLocation: envStr("VERTEX_AI_EMBEDDING_LOCATION", envStr("GCP_REGION", "us-east4")),
		EmbeddingModel:    envStr("VERTEX_AI_EMBEDDING_MODEL", "text-embedding-004"),

		OpenAIAPIKey:     envStr("OPENAI_API_KEY", ""),
		OpenAIChatModel:  envStr("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
		OpenAIEmbedModel: envStr("OPENAI_EMBED_MODEL", "text-embedding-3-small"),

		ChunkSizeChars:       envInt("CHUNK_SIZE_CHARS", 1000),
		ChunkOverlapChars:    envInt("CHUNK_OVERLAP_CHARS", 150),
		MaxChunksPerDocument: envInt("MAX_CHUNKS_PER_DOCUMENT", 5000),
		EmbeddingBatchSize:   envInt("EMBEDDING_BATCH_SIZE", 100),
		VectorStoreBatchSize: envInt("VECTOR_STORE_BATCH_SIZE", 50),
		MaxFileSizeBytes:     int64(envInt("MAX_FILE_SIZE_BYTES", 10*1024*1024)),
		MaxQuestionLength:    envInt("MAX_QUESTION_LENGTH", 2000),
		DefaultTopK:          envInt("DEFAULT_TOP_K", 5),
	}

	if v := os.Getenv("MIN_SIMILARITY_SCORE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("config.Load: MIN_SIMILARITY_SCORE: %w", err)
		}
		cfg.MinSimilarityScore = &f
	}

	switch cfg.VectorBackend {
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("config.Load: DATABASE_URL is required when VECTOR_BACKEND=postgres")
		}
	case "redis":
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("config.Load: REDIS_ADDR is required when VECTOR_BACKEND=redis")
		}
	case "memory", "qdrant", "azureaisearch", "opensearch":
		// memory needs nothing; qdrant/azureaisearch/opensearch are
		// declared but unimplemented — the backend factory fails fast.
	default:
		return nil, fmt.Errorf("config.Load: unrecognized VECTOR_BACKEND %q", cfg.VectorBackend)
	}

	switch cfg.ModelProvider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("config.Load: OPENAI_API_KEY is required when MODEL_PROVIDER=openai")
		}
	case "google":
		if cfg.GCPProject == "" {
			return nil, fmt.Errorf("config.Load: GOOGLE_CLOUD_PROJECT is required when MODEL_PROVIDER=google")
		}
	case "microsoft", "amazon", "anthropic", "mistral":
		// declared but unimplemented — the provider factory fails fast.
	default:
		return nil, fmt.Errorf("config.Load: unrecognized MODEL_PROVIDER %q", cfg.ModelProvider)
	}

	return cfg, nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
