package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"urbanlex/internal/contextutil"
)

// Checker reports whether a dependency is usable.
type Checker interface {
	Health(ctx context.Context) error
}

// CheckFunc adapts a function to Checker.
type CheckFunc func(ctx context.Context) error

func (f CheckFunc) Health(ctx context.Context) error { return f(ctx) }

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	storage            Checker
	optional           map[string]Checker
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler. A failing storage check makes
// the service unhealthy; failing optional checks (vector store, embedder) only
// degrade it, since retrieval falls back to lexical search. A nil optional
// checker is reported as disabled.
func NewHealthHandler(storage Checker, optional map[string]Checker) *HealthHandler {
	return &HealthHandler{
		storage:            storage,
		optional:           optional,
		healthCheckTimeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	// Overall health status: "healthy", "degraded", or "unhealthy"
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
	Issues    []string          `json:"issues,omitempty"`
}

// ServeHTTP handles GET /api/health.
// Returns 200 when healthy or degraded, 503 when storage is unavailable.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()

	checks := make(map[string]string)
	var issues []string
	status, httpStatus := "healthy", http.StatusOK

	if err := h.storage.Health(checkCtx); err != nil {
		logger.WarnContext(ctx, "storage health check failed", "error", err)
		checks["storage"] = "error"
		issues = append(issues, "storage_unavailable")
		status, httpStatus = "unhealthy", http.StatusServiceUnavailable
	} else {
		checks["storage"] = "ok"
	}

	names := make([]string, 0, len(h.optional))
	for name := range h.optional {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := h.optional[name]
		if c == nil {
			checks[name] = "disabled"
			continue
		}
		if err := c.Health(checkCtx); err != nil {
			logger.WarnContext(ctx, "health check failed", "check", name, "error", err)
			checks[name] = "error"
			issues = append(issues, name+"_unavailable")
			if status == "healthy" {
				status = "degraded"
			}
			continue
		}
		checks[name] = "ok"
	}

	resp := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Issues:    issues,
	}
	if err := writeJSON(w, httpStatus, resp); err != nil {
		logger.ErrorContext(ctx, "failed to encode health response", "error", err)
	}
}
