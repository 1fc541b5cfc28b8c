package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chunk_store.go -package=mocks urbanlex/internal/storage ChunkStore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"urbanlex/internal/legal"
	"urbanlex/internal/lexicon"
)

// ChunkStore defines the chunk queries used by the retrieval tools.
// An empty DocumentType means any document.
type ChunkStore interface {
	// ByArticles returns the chunks of the given articles at article level and
	// below, in document order.
	ByArticles(ctx context.Context, docType legal.DocumentType, numbers []int) ([]legal.Chunk, error)
	// Transitional returns chunks flagged as transitional provisions.
	Transitional(ctx context.Context, docType legal.DocumentType, limit int) ([]legal.Chunk, error)
	// Hierarchy returns the hierarchy unit of type t numbered number.
	// Returns ErrNotFound if not found.
	Hierarchy(ctx context.Context, docType legal.DocumentType, t legal.ChunkType, number string) (*legal.Chunk, error)
	// HierarchyNumbers returns the numbers present for type t, in document order.
	// Pass a docType to get one document's range; an empty one merges them.
	HierarchyNumbers(ctx context.Context, docType legal.DocumentType, t legal.ChunkType) ([]string, error)
	// DescendantArticles returns up to limit articles under the chunk with parentID.
	DescendantArticles(ctx context.Context, parentID string, limit int) ([]legal.Chunk, error)
	// SearchText scores chunks by the share of folded terms they contain.
	SearchText(ctx context.Context, docType legal.DocumentType, terms []string, limit int) ([]TextHit, error)
	// GetByIDs returns the chunks with the given IDs, in document order.
	GetByIDs(ctx context.Context, ids []string) ([]legal.Chunk, error)
}

// ChunkRepo provides methods for chunk operations.
// It implements the ChunkStore interface.
type ChunkRepo struct {
	db *sql.DB
}

// NewChunkRepo creates a new ChunkRepo.
func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

const chunkColumns = "id, doc_type, ordinal, type, number, article_number, inciso_number, parent_id, heading, text, keywords, refs, flags"

// searchScanLimit bounds how many ranked LIKE matches are scored in Go.
const searchScanLimit = 500

// ReplaceDocument replaces every chunk of doc.Type with chunks in one
// transaction and records the document hash. It returns the IDs of the
// chunks that were removed.
func (r *ChunkRepo) ReplaceDocument(ctx context.Context, doc Document, chunks []legal.Chunk) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	oldIDs, err := queryIDs(ctx, tx, "SELECT id FROM chunks WHERE doc_type = ? ORDER BY ordinal", string(doc.Type))
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE doc_type = ?", string(doc.Type)); err != nil {
		return nil, fmt.Errorf("failed to delete chunks: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (doc_type, source, hash, indexed_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(doc_type) DO UPDATE SET source = excluded.source, hash = excluded.hash, indexed_at = CURRENT_TIMESTAMP`,
		string(doc.Type), doc.Source, doc.Hash,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert document: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO chunks ("+chunkColumns+", folded_text) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare chunk insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for _, c := range chunks {
		if c.DocumentType != doc.Type {
			return nil, fmt.Errorf("chunk %s belongs to %s, not %s", c.ID, c.DocumentType, doc.Type)
		}
		if err := c.Metadata.Flags.Validate(c.DocumentType); err != nil {
			return nil, fmt.Errorf("chunk %s: %w", c.ID, err)
		}
		keywords, _ := json.Marshal(nonNil(c.Metadata.Keywords))
		refs, _ := json.Marshal(nonNil(c.Metadata.References))
		flags, _ := json.Marshal(c.Metadata.Flags.Map())

		_, err := stmt.ExecContext(ctx,
			c.ID, string(c.DocumentType), c.Ordinal, string(c.Type), c.Number, c.ArticleNumber,
			c.IncisoNumber, c.ParentID, c.Heading, c.Text, string(keywords), string(refs), string(flags),
			lexicon.Fold(c.Heading+" "+c.Text),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert chunk %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return oldIDs, nil
}

// ByArticles returns the chunks of the given articles at article level and below.
func (r *ChunkRepo) ByArticles(ctx context.Context, docType legal.DocumentType, numbers []int) ([]legal.Chunk, error) {
	if len(numbers) == 0 {
		return []legal.Chunk{}, nil
	}
	args := make([]any, 0, len(numbers)+1)
	for _, n := range numbers {
		args = append(args, n)
	}
	query := "SELECT " + chunkColumns + " FROM chunks WHERE article_number IN (" + placeholders(len(numbers)) + ")"
	if docType != "" {
		query += " AND doc_type = ?"
		args = append(args, string(docType))
	}
	query += " ORDER BY doc_type, ordinal"
	return r.queryChunks(ctx, query, args...)
}

// Transitional returns chunks flagged as transitional provisions.
func (r *ChunkRepo) Transitional(ctx context.Context, docType legal.DocumentType, limit int) ([]legal.Chunk, error) {
	query := "SELECT " + chunkColumns + " FROM chunks WHERE json_extract(flags, '$." + legal.FlagTransitional + "') = 1"
	var args []any
	if docType != "" {
		query += " AND doc_type = ?"
		args = append(args, string(docType))
	}
	query += " ORDER BY doc_type, ordinal LIMIT ?"
	args = append(args, limit)
	return r.queryChunks(ctx, query, args...)
}

// Hierarchy returns the first hierarchy unit of type t numbered number.
func (r *ChunkRepo) Hierarchy(ctx context.Context, docType legal.DocumentType, t legal.ChunkType, number string) (*legal.Chunk, error) {
	query := "SELECT " + chunkColumns + " FROM chunks WHERE type = ? AND number = ?"
	args := []any{string(t), number}
	if docType != "" {
		query += " AND doc_type = ?"
		args = append(args, string(docType))
	}
	query += " ORDER BY doc_type, ordinal LIMIT 1"

	chunks, err := r.queryChunks(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, ErrNotFound
	}
	return &chunks[0], nil
}

// HierarchyNumbers returns the distinct numbers of type t in document order.
func (r *ChunkRepo) HierarchyNumbers(ctx context.Context, docType legal.DocumentType, t legal.ChunkType) ([]string, error) {
	query := "SELECT number FROM chunks WHERE type = ?"
	args := []any{string(t)}
	if docType != "" {
		query += " AND doc_type = ?"
		args = append(args, string(docType))
	}
	query += " GROUP BY number ORDER BY MIN(ordinal)"
	return queryIDs(ctx, r.db, query, args...)
}

// DescendantArticles walks the parent links below parentID and returns its articles.
func (r *ChunkRepo) DescendantArticles(ctx context.Context, parentID string, limit int) ([]legal.Chunk, error) {
	query := `
		WITH RECURSIVE sub(id) AS (
			SELECT id FROM chunks WHERE parent_id = ?
			UNION ALL
			SELECT c.id FROM chunks c JOIN sub ON c.parent_id = sub.id
		)
		SELECT ` + chunkColumns + ` FROM chunks
		WHERE id IN (SELECT id FROM sub) AND type = ?
		ORDER BY ordinal LIMIT ?`
	return r.queryChunks(ctx, query, parentID, string(legal.TypeArticle), limit)
}

// SearchText ranks chunks in SQL by how many terms occur in their folded text,
// then scores the best searchScanLimit by the share of terms found as whole
// words. Terms must already be folded.
func (r *ChunkRepo) SearchText(ctx context.Context, docType legal.DocumentType, terms []string, limit int) ([]TextHit, error) {
	terms = dedupeTerms(terms)
	if len(terms) == 0 {
		return []TextHit{}, nil
	}

	matches := make([]string, 0, len(terms))
	args := make([]any, 0, len(terms)+2)
	for _, t := range terms {
		matches = append(matches, "(folded_text LIKE ?)")
		args = append(args, "%"+t+"%")
	}
	inner := "SELECT " + chunkColumns + ", folded_text, " + strings.Join(matches, " + ") + " AS matched FROM chunks"
	if docType != "" {
		inner += " WHERE doc_type = ?"
		args = append(args, string(docType))
	}
	query := "SELECT " + chunkColumns + ", folded_text FROM (" + inner + ") WHERE matched > 0" +
		" ORDER BY matched DESC, doc_type, ordinal LIMIT ?"
	args = append(args, searchScanLimit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var hits []TextHit
	for rows.Next() {
		var folded string
		c, err := scanChunk(rows, &folded)
		if err != nil {
			return nil, err
		}
		matched := 0
		for _, t := range terms {
			if lexicon.ContainsWord(folded, t) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		hits = append(hits, TextHit{Chunk: c, Score: float64(matched) / float64(len(terms))})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	if hits == nil {
		hits = []TextHit{}
	}
	return hits, nil
}

// GetByIDs returns the chunks with the given IDs. Unknown IDs are skipped.
func (r *ChunkRepo) GetByIDs(ctx context.Context, ids []string) ([]legal.Chunk, error) {
	if len(ids) == 0 {
		return []legal.Chunk{}, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return r.queryChunks(ctx,
		"SELECT "+chunkColumns+" FROM chunks WHERE id IN ("+placeholders(len(ids))+") ORDER BY doc_type, ordinal",
		args...,
	)
}

// CountByDocument returns the number of stored chunks for docType.
func (r *ChunkRepo) CountByDocument(ctx context.Context, docType legal.DocumentType) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks WHERE doc_type = ?", string(docType)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return n, nil
}

func (r *ChunkRepo) queryChunks(ctx context.Context, query string, args ...any) ([]legal.Chunk, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	chunks := []legal.Chunk{}
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return chunks, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanChunk decodes one row selected with chunkColumns, plus any extra columns.
func scanChunk(row rowScanner, extra ...any) (legal.Chunk, error) {
	var (
		c                      legal.Chunk
		docType, chunkType     string
		keywords, refs, flagsJ string
	)
	dest := []any{
		&c.ID, &docType, &c.Ordinal, &chunkType, &c.Number, &c.ArticleNumber,
		&c.IncisoNumber, &c.ParentID, &c.Heading, &c.Text, &keywords, &refs, &flagsJ,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return legal.Chunk{}, fmt.Errorf("failed to scan chunk: %w", err)
	}

	var err error
	if c.DocumentType, err = legal.ParseDocumentType(docType); err != nil {
		return legal.Chunk{}, fmt.Errorf("chunk %s: %w", c.ID, err)
	}
	if c.Type, err = legal.ParseChunkType(chunkType); err != nil {
		return legal.Chunk{}, fmt.Errorf("chunk %s: %w", c.ID, err)
	}
	if err := json.Unmarshal([]byte(keywords), &c.Metadata.Keywords); err != nil {
		return legal.Chunk{}, fmt.Errorf("chunk %s keywords: %w", c.ID, err)
	}
	if err := json.Unmarshal([]byte(refs), &c.Metadata.References); err != nil {
		return legal.Chunk{}, fmt.Errorf("chunk %s references: %w", c.ID, err)
	}
	var m map[string]bool
	if err := json.Unmarshal([]byte(flagsJ), &m); err != nil {
		return legal.Chunk{}, fmt.Errorf("chunk %s flags: %w", c.ID, err)
	}
	if c.Metadata.Flags, err = legal.FlagsFromMap(c.DocumentType, m); err != nil {
		return legal.Chunk{}, fmt.Errorf("chunk %s: %w", c.ID, err)
	}
	return c, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// queryIDs runs a single-column string query.
func queryIDs(ctx context.Context, q querier, query string, args ...any) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func dedupeTerms(terms []string) []string {
	seen := make(map[string]bool, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

