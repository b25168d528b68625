package config

import (
	"os"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "ENVIRONMENT", "FRONTEND_URL",
		"VECTOR_BACKEND", "MODEL_PROVIDER", "VECTOR_DIMENSION",
		"DATABASE_URL", "DATABASE_MAX_CONNS",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "REDIS_INDEX_NAME",
		"GOOGLE_CLOUD_PROJECT", "GCP_REGION", "VERTEX_AI_LOCATION",
		"VERTEX_AI_MODEL", "VERTEX_AI_EMBEDDING_LOCATION", "VERTEX_AI_EMBEDDING_MODEL",
		"OPENAI_API_KEY", "OPENAI_CHAT_MODEL", "OPENAI_EMBED_MODEL",
		"CHUNK_SIZE_CHARS", "CHUNK_OVERLAP_CHARS", "MAX_CHUNKS_PER_DOCUMENT",
		"EMBEDDING_BATCH_SIZE", "VECTOR_STORE_BATCH_SIZE",
		"MAX_FILE_SIZE_BYTES", "MAX_QUESTION_LENGTH", "DEFAULT_TOP_K",
		"MIN_SIMILARITY_SCORE",
	} {
		os.Unsetenv(key)
	}
}

func TestLoad_DefaultsToMemoryAndOpenAI(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.VectorBackend != "memory" {
		t.Errorf("VectorBackend = %q, want memory", cfg.VectorBackend)
	}
	if cfg.ModelProvider != "openai" {
		t.Errorf("ModelProvider = %q, want openai", cfg.ModelProvider)
	}
	if cfg.VectorDimension != 1536 {
		t.Errorf("VectorDimension = %d, want 1536", cfg.VectorDimension)
	}
	if cfg.ChunkSizeChars != 1000 {
		t.Errorf("ChunkSizeChars = %d, want 1000", cfg.ChunkSizeChars)
	}
	if cfg.ChunkOverlapChars != 150 {
		t.Errorf("ChunkOverlapChars = %d, want 150", cfg.ChunkOverlapChars)
	}
	if cfg.MaxChunksPerDocument != 5000 {
		t.Errorf("MaxChunksPerDocument = %d, want 5000", cfg.MaxChunksPerDocument)
	}
	if cfg.EmbeddingBatchSize != 100 {
		t.Errorf("EmbeddingBatchSize = %d, want 100", cfg.EmbeddingBatchSize)
	}
	if cfg.VectorStoreBatchSize != 50 {
		t.Errorf("VectorStoreBatchSize = %d, want 50", cfg.VectorStoreBatchSize)
	}
	if cfg.MaxFileSizeBytes != 10*1024*1024 {
		t.Errorf("MaxFileSizeBytes = %d, want %d", cfg.MaxFileSizeBytes, 10*1024*1024)
	}
	if cfg.MaxQuestionLength != 2000 {
		t.Errorf("MaxQuestionLength = %d, want 2000", cfg.MaxQuestionLength)
	}
	if cfg.DefaultTopK != 5 {
		t.Errorf("DefaultTopK = %d, want 5", cfg.DefaultTopK)
	}
	if cfg.MinSimilarityScore != nil {
		t.Errorf("MinSimilarityScore = %v, want nil", cfg.MinSimilarityScore)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
}

func TestLoad_PostgresRequiresDatabaseURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("VECTOR_BACKEND", "postgres")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for postgres backend without DATABASE_URL")
	}

	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.VectorBackend != "postgres" {
		t.Errorf("VectorBackend = %q, want postgres", cfg.VectorBackend)
	}
}

func TestLoad_RedisRequiresAddr(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("VECTOR_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for redis backend without REDIS_ADDR")
	}
}

func TestLoad_UnrecognizedVectorBackend(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("VECTOR_BACKEND", "dynamodb")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unrecognized VECTOR_BACKEND")
	}
}

func TestLoad_DeclaredButUnimplementedBackendsDoNotError(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	for _, backend := range []string{"qdrant", "azureaisearch", "opensearch"} {
		t.Setenv("VECTOR_BACKEND", backend)
		if _, err := Load(); err != nil {
			t.Errorf("Load() with VECTOR_BACKEND=%s: unexpected error %v (config should accept it; the factory fails fast, not config)", backend, err)
		}
	}
}

func TestLoad_GoogleProviderRequiresProject(t *testing.T) {
	clearEnv(t)
	t.Setenv("MODEL_PROVIDER", "google")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for google provider without GOOGLE_CLOUD_PROJECT")
	}

	t.Setenv("GOOGLE_CLOUD_PROJECT", "test-project")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.ModelProvider != "google" {
		t.Errorf("ModelProvider = %q, want google", cfg.ModelProvider)
	}
}

func TestLoad_UnrecognizedModelProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv("MODEL_PROVIDER", "cohere")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unrecognized MODEL_PROVIDER")
	}
}

func TestLoad_MinSimilarityScoreParsed(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("MIN_SIMILARITY_SCORE", "0.72")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.MinSimilarityScore == nil || *cfg.MinSimilarityScore != 0.72 {
		t.Errorf("MinSimilarityScore = %v, want 0.72", cfg.MinSimilarityScore)
	}
}

func TestLoad_MinSimilarityScoreInvalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("MIN_SIMILARITY_SCORE", "not-a-float")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid MIN_SIMILARITY_SCORE")
	}
}

func TestLoad_InvalidIntFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("PORT", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080 (fallback)", cfg.Port)
	}
}

func TestLoad_CustomPipelineTunables(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("CHUNK_SIZE_CHARS", "500")
	t.Setenv("CHUNK_OVERLAP_CHARS", "50")
	t.Setenv("DEFAULT_TOP_K", "8")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.ChunkSizeChars != 500 {
		t.Errorf("ChunkSizeChars = %d, want 500", cfg.ChunkSizeChars)
	}
	if cfg.ChunkOverlapChars != 50 {
		t.Errorf("ChunkOverlapChars = %d, want 50", cfg.ChunkOverlapChars)
	}
	if cfg.DefaultTopK != 8 {
		t.Errorf("DefaultTopK = %d, want 8", cfg.DefaultTopK)
	}
}
