package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"urbanlex/internal/legal"
)

// DocumentRepo reads the indexing records of legal documents. Writes go
// through ChunkRepo.ReplaceDocument so chunks and hash change together.
type DocumentRepo struct {
	db *sql.DB
}

// NewDocumentRepo creates a new DocumentRepo.
func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// Get returns the document record for docType. Returns ErrNotFound if it was never indexed.
func (r *DocumentRepo) Get(ctx context.Context, docType legal.DocumentType) (*Document, error) {
	var d Document
	var t string
	err := r.db.QueryRowContext(ctx,
		"SELECT doc_type, source, hash, indexed_at FROM documents WHERE doc_type = ?",
		string(docType),
	).Scan(&t, &d.Source, &d.Hash, &d.IndexedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}
	d.Type = legal.DocumentType(t)
	return &d, nil
}

// List returns every indexed document ordered by type.
func (r *DocumentRepo) List(ctx context.Context) ([]Document, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT doc_type, source, hash, indexed_at FROM documents ORDER BY doc_type")
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	out := []Document{}
	for rows.Next() {
		var d Document
		var t string
		if err := rows.Scan(&t, &d.Source, &d.Hash, &d.IndexedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		d.Type = legal.DocumentType(t)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}
