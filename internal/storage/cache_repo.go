package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CacheRepo persists response cache entries with an expiry.
type CacheRepo struct {
	db *sql.DB
}

// NewCacheRepo creates a new CacheRepo.
func NewCacheRepo(db *sql.DB) *CacheRepo {
	return &CacheRepo{db: db}
}

// Get returns the payload stored under key if it has not expired at now.
func (r *CacheRepo) Get(ctx context.Context, key string, now time.Time) ([]byte, bool, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx,
		"SELECT payload FROM query_cache WHERE key = ? AND expires_at > ?",
		key, now.UnixMilli(),
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache entry: %w", err)
	}
	return payload, true, nil
}

// Put stores payload under key until expiresAt, replacing any previous entry.
func (r *CacheRepo) Put(ctx context.Context, key string, payload []byte, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO query_cache (key, payload, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, expires_at = excluded.expires_at`,
		key, payload, expiresAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// DeleteExpired removes entries that expired at or before now.
func (r *CacheRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM query_cache WHERE expires_at <= ?", now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired cache entries: %w", err)
	}
	return res.RowsAffected()
}
