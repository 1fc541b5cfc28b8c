package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"urbanlex/internal/legal"
	"urbanlex/internal/storage"
)

type fakeDocuments struct {
	docs   []storage.Document
	counts map[legal.DocumentType]int
	err    error
}

func (f fakeDocuments) List(context.Context) ([]storage.Document, error) { return f.docs, f.err }

func (f fakeDocuments) CountByDocument(_ context.Context, t legal.DocumentType) (int, error) {
	return f.counts[t], nil
}

func TestDocumentsHandler_ServeHTTP(t *testing.T) {
	indexed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f := fakeDocuments{
		docs: []storage.Document{
			{Type: legal.LUOS, Source: "luos.md", Hash: "abc", IndexedAt: indexed},
			{Type: legal.PDUS, Source: "pdus.md", Hash: "def", IndexedAt: indexed},
		},
		counts: map[legal.DocumentType]int{legal.LUOS: 412, legal.PDUS: 980},
	}

	w := httptest.NewRecorder()
	NewDocumentsHandler(f, f).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/documents", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var got DocumentsResponse
	decode(t, w, &got)
	want := DocumentsResponse{Documents: []DocumentStatus{
		{DocumentType: "LUOS", Source: "luos.md", Hash: "abc", IndexedAt: "2026-03-01T12:00:00Z", Chunks: 412},
		{DocumentType: "PDUS", Source: "pdus.md", Hash: "def", IndexedAt: "2026-03-01T12:00:00Z", Chunks: 980},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("documents mismatch (-want +got):\n%s", diff)
	}
}

func TestDocumentsHandler_Errors(t *testing.T) {
	f := fakeDocuments{err: errors.New("database is locked")}

	w := httptest.NewRecorder()
	NewDocumentsHandler(f, f).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/documents", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}

	w = httptest.NewRecorder()
	NewDocumentsHandler(f, f).ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/documents", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}
