package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_query_service.go -package=mocks urbanlex/internal/service QueryService

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"urbanlex/internal/contextutil"
	"urbanlex/internal/rag"
)

// MaxQueryLength bounds the question size in characters.
const MaxQueryLength = 1000

// QueryRequest is a question in the domain layer.
type QueryRequest struct {
	Query       string
	SessionID   string
	BypassCache bool
	Model       string
}

// QueryResponse is the answer in the domain layer.
type QueryResponse struct {
	Response   string
	Confidence float64
	Sources    map[string]int
	Trace      []rag.TraceStep
}

// QueryService answers questions about the legislation.
type QueryService interface {
	// Query validates the request and runs it through the engine.
	Query(ctx context.Context, req QueryRequest) (QueryResponse, error)
}

type queryService struct {
	engine rag.Engine
}

// NewQueryService creates a new QueryService.
func NewQueryService(engine rag.Engine) QueryService {
	return &queryService{engine: engine}
}

func (s *queryService) Query(ctx context.Context, req QueryRequest) (QueryResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	q := strings.TrimSpace(req.Query)
	if q == "" {
		logger.WarnContext(ctx, "empty query")
		return QueryResponse{}, &ValidationError{Field: "query", Message: "cannot be empty"}
	}
	if n := utf8.RuneCountInString(q); n > MaxQueryLength {
		logger.WarnContext(ctx, "query too long", "length", n)
		return QueryResponse{}, &ValidationError{Field: "query", Message: fmt.Sprintf("must be at most %d characters", MaxQueryLength)}
	}
	session := req.SessionID
	if session == "" {
		session = uuid.NewString()
	}

	resp, err := s.engine.Ask(ctx, rag.Request{
		Query:       q,
		SessionID:   session,
		BypassCache: req.BypassCache,
		Model:       req.Model,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to answer query", "error", err)
		return QueryResponse{}, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	logger.InfoContext(ctx, "query processed successfully", "query_length", len(q), "confidence", resp.Confidence)
	return QueryResponse{
		Response:   resp.Response,
		Confidence: resp.Confidence,
		Sources:    resp.Sources,
		Trace:      resp.Trace,
	}, nil
}
