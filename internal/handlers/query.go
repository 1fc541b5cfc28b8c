package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"urbanlex/internal/contextutil"
	"urbanlex/internal/rag"
	"urbanlex/internal/service"
)

// Apology is the answer text sent when a question could not be processed.
const Apology = "Desculpe, ocorreu um erro ao processar sua pergunta. Por favor, tente novamente."

// QueryHandler handles HTTP requests for questions.
type QueryHandler struct {
	queryService service.QueryService
	includeTrace bool
}

// NewQueryHandler creates a new QueryHandler. includeTrace sends the agent
// trace on every response; otherwise it is sent only for ?trace=1.
func NewQueryHandler(queryService service.QueryService, includeTrace bool) *QueryHandler {
	return &QueryHandler{queryService: queryService, includeTrace: includeTrace}
}

// QueryRequest represents the HTTP request payload for questions.
type QueryRequest struct {
	Query       string `json:"query"`
	SessionID   string `json:"sessionId"`
	BypassCache bool   `json:"bypassCache,omitempty"`
	Model       string `json:"model,omitempty"`
}

// QueryResponse represents the HTTP response payload for questions.
type QueryResponse struct {
	Response   string          `json:"response"`
	Confidence float64         `json:"confidence"`
	Sources    map[string]int  `json:"sources"`
	AgentTrace []rag.TraceStep `json:"agentTrace,omitempty"`
	Error      *ErrorDetail    `json:"error,omitempty"`
}

// ErrorDetail describes why a question got the apology instead of an answer.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ServeHTTP handles POST /api/query.
func (h *QueryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	svcResp, err := h.queryService.Query(ctx, service.QueryRequest{
		Query:       req.Query,
		SessionID:   req.SessionID,
		BypassCache: req.BypassCache,
		Model:       req.Model,
	})
	if err != nil {
		var validationErr *service.ValidationError
		if errors.As(err, &validationErr) {
			writeError(w, http.StatusBadRequest, validationErr.Error())
			return
		}
		if errors.Is(err, service.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "Invalid input")
			return
		}

		// The client always gets an answer it can show.
		logger.ErrorContext(ctx, "query failed", "error", err)
		h.write(w, r, QueryResponse{
			Response:   Apology,
			Confidence: 0,
			Sources:    map[string]int{},
			Error:      &ErrorDetail{Code: "internal_error", Message: "failed to process query"},
		})
		return
	}

	resp := QueryResponse{
		Response:   svcResp.Response,
		Confidence: svcResp.Confidence,
		Sources:    svcResp.Sources,
	}
	if resp.Sources == nil {
		resp.Sources = map[string]int{}
	}
	if h.includeTrace || r.URL.Query().Get("trace") == "1" {
		resp.AgentTrace = svcResp.Trace
	}
	h.write(w, r, resp)
}

func (h *QueryHandler) write(w http.ResponseWriter, r *http.Request, resp QueryResponse) {
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		contextutil.LoggerFromContext(r.Context()).ErrorContext(r.Context(), "failed to encode response", "error", err)
	}
}
