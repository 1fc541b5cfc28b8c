// Package app assembles the storage, retrieval tools, cache and engine from a
// Config. Both the API server and the CLI build on it.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"time"

	"urbanlex/internal/cache"
	"urbanlex/internal/config"
	"urbanlex/internal/handlers"
	apihttp "urbanlex/internal/http"
	"urbanlex/internal/indexer"
	"urbanlex/internal/legal"
	"urbanlex/internal/lexicon"
	"urbanlex/internal/llm"
	"urbanlex/internal/query"
	"urbanlex/internal/rag"
	"urbanlex/internal/scoring"
	"urbanlex/internal/service"
	"urbanlex/internal/storage"
	"urbanlex/internal/synth"
	"urbanlex/internal/tools"
	"urbanlex/internal/vectorstore"
)

// App holds every long-lived component.
type App struct {
	Config *config.Config

	DB           *sql.DB
	Documents    *storage.DocumentRepo
	Chunks       *storage.ChunkRepo
	Zones        *storage.ZoneRepo
	Interactions *storage.InteractionRepo
	CacheEntries *storage.CacheRepo

	Lexicon  *lexicon.Lexicon
	Embedder *llm.EmbeddingsClient   // nil when VECTOR_BACKEND=none
	Vectors  vectorstore.VectorStore // nil when VECTOR_BACKEND=none

	Cache   cache.Cache
	Engine  rag.Engine
	Query   service.QueryService
	Indexer *indexer.Pipeline

	closers []func()
}

// NewLogger builds the process logger from the configured level and format.
func NewLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// Open opens the database, runs migrations and wires the engine. The caller
// must Close the returned App.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a := &App{Config: cfg, DB: db}
	a.closers = append(a.closers, func() { _ = db.Close() })

	if err := storage.Migrate(db); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.InfoContext(ctx, "Database initialized", "path", cfg.DBPath)

	a.Documents = storage.NewDocumentRepo(db)
	a.Chunks = storage.NewChunkRepo(db)
	a.Zones = storage.NewZoneRepo(db)
	a.Interactions = storage.NewInteractionRepo(db)
	a.CacheEntries = storage.NewCacheRepo(db)
	a.Lexicon = lexicon.Default()

	if err := a.openVectors(ctx); err != nil {
		a.Close()
		return nil, err
	}

	switch cfg.CacheBackend {
	case config.CacheBackendMemory:
		a.Cache = cache.NewMemory(cfg.CacheTTL)
	case config.CacheBackendSQLite:
		a.Cache = cache.NewSQLite(a.CacheEntries, cfg.CacheTTL)
	default:
		a.Cache = cache.Nop{}
	}

	var vector *tools.VectorSearch
	if a.Vectors != nil {
		vector = &tools.VectorSearch{
			Embedder:   a.Embedder,
			Store:      a.Vectors,
			Collection: cfg.QdrantCollection,
			MinScore:   cfg.VectorMinScore,
		}
	}
	router := tools.NewRouter(cfg.ToolTimeout,
		tools.NewArticleSearch(a.Chunks, a.Lexicon, vector),
		tools.NewZOTSearch(a.Zones),
		tools.NewHierarchyNavigator(a.Chunks),
		tools.NewSQLGenerator(a.Zones),
	)

	a.Engine = rag.NewEngine(rag.Options{
		Analyzer:           query.NewAnalyzer(a.Lexicon),
		Router:             router,
		Scorer:             scoring.NewScorer(a.Lexicon),
		Synthesizer:        synth.NewSynthesizer(cfg.MinConfidence),
		Cache:              a.Cache,
		CacheMinConfidence: cfg.CacheMinConfidence,
		Interactions:       a.Interactions,
		DefaultModel:       cfg.DefaultModel,
	})
	a.Query = service.NewQueryService(a.Engine)

	var embedder indexer.Embedder
	if a.Embedder != nil {
		embedder = a.Embedder
	}
	a.Indexer = indexer.NewPipeline(
		legal.NewChunker(a.Lexicon),
		a.Documents,
		a.Chunks,
		embedder,
		a.Vectors,
		cfg.QdrantCollection,
	).WithEmbeddingModel(cfg.EmbeddingModelName)

	slog.InfoContext(ctx, "Engine initialized",
		"vector_backend", cfg.VectorBackend,
		"cache_backend", cfg.CacheBackend,
		"tool_timeout", cfg.ToolTimeout,
	)
	return a, nil
}

func (a *App) openVectors(ctx context.Context) error {
	cfg := a.Config
	switch cfg.VectorBackend {
	case config.VectorBackendQdrant:
		store, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
		if err != nil {
			return fmt.Errorf("failed to create Qdrant client: %w", err)
		}
		a.closers = append(a.closers, func() { _ = store.Close() })
		a.Vectors = store
	case config.VectorBackendPgVector:
		store, err := vectorstore.NewPgVectorStore(ctx, cfg.PgDSN)
		if err != nil {
			return fmt.Errorf("failed to connect to pgvector: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		a.Vectors = store
	default:
		return nil
	}

	a.Embedder = llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModelName, cfg.VectorSize)
	if err := a.Vectors.EnsureCollection(ctx, cfg.QdrantCollection, cfg.VectorSize); err != nil {
		return fmt.Errorf("failed to ensure vector collection: %w", err)
	}
	slog.InfoContext(ctx, "Vector collection ready", "backend", cfg.VectorBackend, "collection", cfg.QdrantCollection, "vector_size", cfg.VectorSize)
	return nil
}

// HTTPDeps returns the router dependencies. Optional backends that are not
// configured are reported as disabled by the health check.
func (a *App) HTTPDeps() *apihttp.Deps {
	optional := map[string]handlers.Checker{
		"vector_store": nil,
		"embeddings":   nil,
	}
	if a.Vectors != nil {
		optional["vector_store"] = a.Vectors
	}
	if a.Embedder != nil {
		optional["embeddings"] = a.Embedder
	}
	return &apihttp.Deps{
		QueryService:   a.Query,
		IncludeTrace:   a.Config.IncludeTrace,
		Storage:        handlers.CheckFunc(a.DB.PingContext),
		OptionalChecks: optional,
		Documents:      a.Documents,
		Chunks:         a.Chunks,
	}
}

// PurgeExpiredCache deletes expired persistent cache entries every interval
// until ctx is done. It returns immediately unless the SQLite cache is in use.
func (a *App) PurgeExpiredCache(ctx context.Context, interval time.Duration) {
	if a.Config.CacheBackend != config.CacheBackendSQLite {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := a.CacheEntries.DeleteExpired(ctx, now)
			if err != nil {
				slog.WarnContext(ctx, "failed to purge cache", "error", err)
				continue
			}
			if n > 0 {
				slog.DebugContext(ctx, "purged expired cache entries", "count", n)
			}
		}
	}
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
