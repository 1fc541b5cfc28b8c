package vectorstore

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"urbanlex/internal/contextutil"
	"urbanlex/internal/retry"
)

// PgVectorStore implements VectorStore on PostgreSQL with the pgvector
// extension. Each collection is a table.
type PgVectorStore struct {
	pool *pgxpool.Pool
}

var tableNameRe = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// NewPgVectorStore connects to dsn and enables the vector extension.
func NewPgVectorStore(ctx context.Context, dsn string) (*PgVectorStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create vector extension: %w", err)
	}
	return &PgVectorStore{pool: pool}, nil
}

// Close closes the pool.
func (s *PgVectorStore) Close() {
	s.pool.Close()
}

func tableName(collection string) (string, error) {
	if !tableNameRe.MatchString(collection) {
		return "", fmt.Errorf("invalid collection name %q", collection)
	}
	return pgx.Identifier{collection}.Sanitize(), nil
}

// EnsureCollection creates the table and its cosine HNSW index, then checks the
// declared dimension.
func (s *PgVectorStore) EnsureCollection(ctx context.Context, collection string, vectorSize int) error {
	logger := contextutil.LoggerFromContext(ctx)

	table, err := tableName(collection)
	if err != nil {
		return err
	}
	if vectorSize <= 0 {
		return fmt.Errorf("vector size must be positive, got %d", vectorSize)
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ` + table + ` (
			id TEXT PRIMARY KEY,
			embedding vector(` + strconv.Itoa(vectorSize) + `) NOT NULL,
			chunk_id TEXT NOT NULL,
			document_type TEXT NOT NULL,
			article_number INTEGER NOT NULL DEFAULT 0,
			type TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS ` + pgx.Identifier{collection + "_embedding_idx"}.Sanitize() +
			` ON ` + table + ` USING hnsw (embedding vector_cosine_ops)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to prepare collection %s: %w", collection, err)
		}
	}

	// atttypmod holds the declared dimension of a vector column.
	var actual int
	err = s.pool.QueryRow(ctx,
		`SELECT atttypmod FROM pg_attribute WHERE attrelid = $1::regclass AND attname = 'embedding'`,
		collection,
	).Scan(&actual)
	if err != nil {
		return fmt.Errorf("failed to read collection dimension: %w", err)
	}
	if actual != vectorSize {
		return fmt.Errorf("collection vector size mismatch: expected %d, got %d", vectorSize, actual)
	}

	logger.InfoContext(ctx, "collection validated", "collection", collection, "vector_size", vectorSize)
	return nil
}

// upsertSQL is the statement queued once per point.
func upsertSQL(table string) string {
	return `INSERT INTO ` + table + ` (id, embedding, chunk_id, document_type, article_number, type)
		VALUES ($1, $2::vector, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			chunk_id = EXCLUDED.chunk_id,
			document_type = EXCLUDED.document_type,
			article_number = EXCLUDED.article_number,
			type = EXCLUDED.type`
}

// Upsert writes points in one batch.
func (s *PgVectorStore) Upsert(ctx context.Context, collection string, points []Point) error {
	logger := contextutil.LoggerFromContext(ctx)

	if len(points) == 0 {
		return nil
	}
	table, err := tableName(collection)
	if err != nil {
		return err
	}

	stmt := upsertSQL(table)
	batch := &pgx.Batch{}
	for _, p := range points {
		batch.Queue(stmt,
			p.ID,
			pgvector.NewVector(p.Vec),
			metaString(p.Meta, PayloadChunkID),
			metaString(p.Meta, PayloadDocumentType),
			metaInt(p.Meta, PayloadArticleNumber),
			metaString(p.Meta, PayloadType),
		)
	}

	err = retry.Once(ctx, func(ctx context.Context) error {
		return s.pool.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to upsert points", "collection", collection, "count", len(points), "error", err)
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	logger.InfoContext(ctx, "upserted points", "collection", collection, "count", len(points))
	return nil
}

// searchSQL orders by cosine distance; the score is 1 - distance.
func searchSQL(table string, filter Filter) (string, []any) {
	args := []any{nil}
	query := `SELECT id, 1 - (embedding <=> $1::vector) AS score, chunk_id, document_type, article_number, type
		FROM ` + table
	if filter.DocumentType != "" {
		args = append(args, filter.DocumentType)
		query += ` WHERE document_type = $2`
	}
	args = append(args, 0)
	query += ` ORDER BY embedding <=> $1::vector LIMIT $` + strconv.Itoa(len(args))
	return query, args
}

// Search returns the k nearest points whose score is at least filter.MinScore.
func (s *PgVectorStore) Search(ctx context.Context, collection string, query []float32, k int, filter Filter) ([]SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}
	table, err := tableName(collection)
	if err != nil {
		return nil, err
	}

	sqlText, args := searchSQL(table, filter)
	args[0] = pgvector.NewVector(query)
	args[len(args)-1] = k

	var results []SearchResult
	err = retry.Once(ctx, func(ctx context.Context) error {
		results = results[:0]
		rows, err := s.pool.Query(ctx, sqlText, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				id, chunkID, docType, typ string
				score                     float64
				article                   int
			)
			if err := rows.Scan(&id, &score, &chunkID, &docType, &article, &typ); err != nil {
				return retry.Permanent(err)
			}
			if float32(score) < filter.MinScore {
				continue
			}
			results = append(results, SearchResult{
				PointID: id,
				Score:   float32(score),
				Meta: map[string]any{
					PayloadChunkID:       chunkID,
					PayloadDocumentType:  docType,
					PayloadArticleNumber: int64(article),
					PayloadType:          typ,
				},
			})
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search points: %w", err)
	}
	if results == nil {
		results = []SearchResult{}
	}
	return results, nil
}

// Delete removes points by their IDs.
func (s *PgVectorStore) Delete(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	table, err := tableName(collection)
	if err != nil {
		return err
	}
	err = retry.Once(ctx, func(ctx context.Context) error {
		_, err := s.pool.Exec(ctx, `DELETE FROM `+table+` WHERE id = ANY($1)`, ids)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete points: %w", err)
	}
	return nil
}

// Health pings the database.
func (s *PgVectorStore) Health(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return nil
}

func metaString(meta map[string]any, key string) string {
	if v, ok := meta[key]; ok {
		return fmt.Sprint(v)
	}
	return ""
}

func metaInt(meta map[string]any, key string) int64 {
	switch v := meta[key].(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	}
	return 0
}
