package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"urbanlex/internal/handlers"
	"urbanlex/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	QueryService service.QueryService
	IncludeTrace bool

	Storage handlers.Checker
	// OptionalChecks are reported by name; nil entries show as disabled.
	OptionalChecks map[string]handlers.Checker

	// Documents enables GET /api/documents when set.
	Documents handlers.DocumentLister
	Chunks    handlers.ChunkCounter
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(CORS)

	queryHandler := handlers.NewQueryHandler(deps.QueryService, deps.IncludeTrace)
	healthHandler := handlers.NewHealthHandler(deps.Storage, deps.OptionalChecks)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodPost, "/query", queryHandler)
		r.Method(http.MethodGet, "/health", healthHandler)
		if deps.Documents != nil && deps.Chunks != nil {
			r.Method(http.MethodGet, "/documents", handlers.NewDocumentsHandler(deps.Documents, deps.Chunks))
		}
	})

	return r
}
