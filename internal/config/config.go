package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Vector backends.
const (
	VectorBackendNone     = "none"
	VectorBackendQdrant   = "qdrant"
	VectorBackendPgVector = "pgvector"
)

// Cache backends.
const (
	CacheBackendNone   = "none"
	CacheBackendMemory = "memory"
	CacheBackendSQLite = "sqlite"
)

// Config holds all configuration for the application.
type Config struct {
	APIPort   string
	DBPath    string
	LogFormat string
	LogLevel  string

	VectorBackend    string
	QdrantURL        string
	QdrantCollection string
	VectorSize       int
	PgDSN            string

	EmbeddingBaseURL   string
	EmbeddingAPIKey    string
	EmbeddingModelName string

	CacheBackend       string
	CacheTTL           time.Duration
	CacheMinConfidence float64

	ToolTimeout    time.Duration
	MinConfidence  float64
	VectorMinScore float64
	DefaultModel   string
	IncludeTrace   bool
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates the rest.
// A .env file in the current directory or up to five parents is loaded first;
// variables already set in the environment take precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ {
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	cfg := &Config{
		APIPort:            getEnv("API_PORT", "9000"),
		DBPath:             getEnv("DB_PATH", "./data/urbanlex.db"),
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", "text")),
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", "info")),
		VectorBackend:      strings.ToLower(getEnv("VECTOR_BACKEND", VectorBackendNone)),
		QdrantURL:          getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection:   getEnv("QDRANT_COLLECTION", "legal_chunks"),
		PgDSN:              getEnv("PG_DSN", ""),
		EmbeddingBaseURL:   getEnv("EMBEDDINGS_BASE_URL", "http://localhost:8081"),
		EmbeddingAPIKey:    getEnv("EMBEDDINGS_API_KEY", "dummy-key"),
		EmbeddingModelName: getEnv("EMBEDDINGS_MODEL", "text-embedding-3-small"),
		CacheBackend:       strings.ToLower(getEnv("CACHE_BACKEND", CacheBackendMemory)),
		DefaultModel:       getEnv("DEFAULT_MODEL", "gpt-4o-mini"),
	}

	if cfg.VectorSize, err = intEnv("QDRANT_VECTOR_SIZE", 1536); err != nil {
		return nil, err
	}
	if cfg.VectorSize <= 0 {
		return nil, fmt.Errorf("QDRANT_VECTOR_SIZE must be greater than 0")
	}
	if cfg.CacheTTL, err = durationEnv("CACHE_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.ToolTimeout, err = durationEnv("TOOL_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.CacheMinConfidence, err = ratioEnv("CACHE_MIN_CONFIDENCE", 0.7); err != nil {
		return nil, err
	}
	if cfg.MinConfidence, err = ratioEnv("MIN_CONFIDENCE", 0.35); err != nil {
		return nil, err
	}
	if cfg.VectorMinScore, err = ratioEnv("VECTOR_MIN_SCORE", 0.7); err != nil {
		return nil, err
	}
	if cfg.IncludeTrace, err = strconv.ParseBool(getEnv("INCLUDE_TRACE", "false")); err != nil {
		return nil, fmt.Errorf("INCLUDE_TRACE must be a boolean: %w", err)
	}

	switch cfg.LogFormat {
	case "text", "json":
	default:
		return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	switch cfg.VectorBackend {
	case VectorBackendNone, VectorBackendQdrant:
	case VectorBackendPgVector:
		if cfg.PgDSN == "" {
			return nil, fmt.Errorf("PG_DSN is required when VECTOR_BACKEND=pgvector")
		}
	default:
		return nil, fmt.Errorf("VECTOR_BACKEND must be one of none, qdrant, pgvector, got %q", cfg.VectorBackend)
	}

	switch cfg.CacheBackend {
	case CacheBackendNone, CacheBackendMemory, CacheBackendSQLite:
	default:
		return nil, fmt.Errorf("CACHE_BACKEND must be one of none, memory, sqlite, got %q", cfg.CacheBackend)
	}

	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func intEnv(key string, defaultValue int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return v, nil
}

func durationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid duration: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}
	return d, nil
}

// ratioEnv parses a float in [0,1].
func ratioEnv(key string, defaultValue float64) (float64, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	if v < 0 || v > 1 {
		return 0, fmt.Errorf("%s must be between 0 and 1", key)
	}
	return v, nil
}
