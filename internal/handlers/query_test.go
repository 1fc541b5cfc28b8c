package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"urbanlex/internal/rag"
	"urbanlex/internal/service"
	"urbanlex/internal/service/mocks"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestQueryHandler_ServeHTTP(t *testing.T) {
	answer := service.QueryResponse{
		Response:   "Regime urbanístico em Petrópolis:\n- ZOT 07: altura máxima: 60 m",
		Confidence: 1,
		Sources:    map[string]int{"ZOTSearchTool": 2},
		Trace:      []rag.TraceStep{{Step: rag.StepQueryAnalysis, Timestamp: 1}},
	}

	tests := []struct {
		name          string
		method        string
		target        string
		body          string
		includeTrace  bool
		mockSetup     func(*mocks.MockQueryService)
		wantStatus    int
		checkResponse func(t *testing.T, w *httptest.ResponseRecorder)
	}{
		{
			name:   "successful query",
			method: http.MethodPost,
			target: "/api/query",
			body:   `{"query":"altura máxima em Petrópolis","sessionId":"s1","bypassCache":true}`,
			mockSetup: func(m *mocks.MockQueryService) {
				m.EXPECT().
					Query(gomock.Any(), service.QueryRequest{Query: "altura máxima em Petrópolis", SessionID: "s1", BypassCache: true}).
					Return(answer, nil)
			},
			wantStatus: http.StatusOK,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp QueryResponse
				decode(t, w, &resp)
				if resp.Response != answer.Response || resp.Confidence != 1 || resp.Sources["ZOTSearchTool"] != 2 {
					t.Errorf("response = %+v", resp)
				}
				if resp.AgentTrace != nil || resp.Error != nil {
					t.Errorf("trace and error must be omitted, got %+v", resp)
				}
				if strings.Contains(w.Body.String(), "agentTrace") {
					t.Errorf("agentTrace key present in %s", w.Body.String())
				}
			},
		},
		{
			name:   "trace on request",
			method: http.MethodPost,
			target: "/api/query?trace=1",
			body:   `{"query":"Art. 81"}`,
			mockSetup: func(m *mocks.MockQueryService) {
				m.EXPECT().Query(gomock.Any(), gomock.Any()).Return(answer, nil)
			},
			wantStatus: http.StatusOK,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp QueryResponse
				decode(t, w, &resp)
				if len(resp.AgentTrace) != 1 || resp.AgentTrace[0].Step != rag.StepQueryAnalysis {
					t.Errorf("agentTrace = %+v", resp.AgentTrace)
				}
			},
		},
		{
			name:         "trace by configuration",
			method:       http.MethodPost,
			target:       "/api/query",
			body:         `{"query":"Art. 81"}`,
			includeTrace: true,
			mockSetup: func(m *mocks.MockQueryService) {
				m.EXPECT().Query(gomock.Any(), gomock.Any()).Return(answer, nil)
			},
			wantStatus: http.StatusOK,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp QueryResponse
				decode(t, w, &resp)
				if len(resp.AgentTrace) != 1 {
					t.Errorf("agentTrace = %+v", resp.AgentTrace)
				}
			},
		},
		{
			name:       "method not allowed",
			method:     http.MethodGet,
			target:     "/api/query",
			mockSetup:  func(*mocks.MockQueryService) {},
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:       "invalid JSON body",
			method:     http.MethodPost,
			target:     "/api/query",
			body:       `{"query":`,
			mockSetup:  func(*mocks.MockQueryService) {},
			wantStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp ErrorResponse
				decode(t, w, &resp)
				if resp.Error == "" {
					t.Error("error message missing")
				}
			},
		},
		{
			name:   "empty query",
			method: http.MethodPost,
			target: "/api/query",
			body:   `{"query":"   "}`,
			mockSetup: func(m *mocks.MockQueryService) {
				m.EXPECT().Query(gomock.Any(), gomock.Any()).
					Return(service.QueryResponse{}, &service.ValidationError{Field: "query", Message: "cannot be empty"})
			},
			wantStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp ErrorResponse
				decode(t, w, &resp)
				if resp.Error != "validation error on field query: cannot be empty" {
					t.Errorf("error = %q", resp.Error)
				}
			},
		},
		{
			name:   "internal error answers with apology",
			method: http.MethodPost,
			target: "/api/query",
			body:   `{"query":"Art. 81"}`,
			mockSetup: func(m *mocks.MockQueryService) {
				m.EXPECT().Query(gomock.Any(), gomock.Any()).
					Return(service.QueryResponse{}, fmt.Errorf("%w: %w", service.ErrInternal, errors.New("goroutine 7 [running]: secret stack")))
			},
			wantStatus: http.StatusOK,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp QueryResponse
				decode(t, w, &resp)
				if resp.Response != Apology || resp.Confidence != 0 {
					t.Errorf("response = %+v", resp)
				}
				if resp.Error == nil || resp.Error.Code != "internal_error" {
					t.Errorf("error = %+v", resp.Error)
				}
				if strings.Contains(w.Body.String(), "goroutine") {
					t.Errorf("internal details leaked: %s", w.Body.String())
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc := mocks.NewMockQueryService(ctrl)
			tt.mockSetup(svc)
			handler := NewQueryHandler(svc, tt.includeTrace)

			req := httptest.NewRequest(tt.method, tt.target, bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.checkResponse != nil {
				tt.checkResponse(t, w)
			}
		})
	}
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
}
