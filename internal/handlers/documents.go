package handlers

import (
	"context"
	"net/http"
	"time"

	"urbanlex/internal/contextutil"
	"urbanlex/internal/legal"
	"urbanlex/internal/storage"
)

// DocumentLister reads what has been indexed.
type DocumentLister interface {
	List(ctx context.Context) ([]storage.Document, error)
}

// ChunkCounter counts stored chunks per document.
type ChunkCounter interface {
	CountByDocument(ctx context.Context, docType legal.DocumentType) (int, error)
}

// DocumentsHandler reports the indexed legal documents.
type DocumentsHandler struct {
	documents DocumentLister
	chunks    ChunkCounter
}

// NewDocumentsHandler creates a new DocumentsHandler.
func NewDocumentsHandler(documents DocumentLister, chunks ChunkCounter) *DocumentsHandler {
	return &DocumentsHandler{documents: documents, chunks: chunks}
}

// DocumentStatus is one indexed document.
type DocumentStatus struct {
	DocumentType string `json:"documentType"`
	Source       string `json:"source"`
	Hash         string `json:"hash"`
	IndexedAt    string `json:"indexedAt"`
	Chunks       int    `json:"chunks"`
}

// DocumentsResponse represents the response from the documents endpoint.
type DocumentsResponse struct {
	Documents []DocumentStatus `json:"documents"`
}

// ServeHTTP handles GET /api/documents.
func (h *DocumentsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	docs, err := h.documents.List(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "failed to list documents", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list documents")
		return
	}

	resp := DocumentsResponse{Documents: make([]DocumentStatus, 0, len(docs))}
	for _, d := range docs {
		n, err := h.chunks.CountByDocument(ctx, d.Type)
		if err != nil {
			logger.ErrorContext(ctx, "failed to count chunks", "document_type", d.Type, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to count chunks")
			return
		}
		resp.Documents = append(resp.Documents, DocumentStatus{
			DocumentType: string(d.Type),
			Source:       d.Source,
			Hash:         d.Hash,
			IndexedAt:    d.IndexedAt.UTC().Format(time.RFC3339),
			Chunks:       n,
		})
	}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		logger.ErrorContext(ctx, "failed to encode documents response", "error", err)
	}
}
