package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// EntryStore is the persistence the SQLite cache needs. storage.CacheRepo implements it.
type EntryStore interface {
	Get(ctx context.Context, key string, now time.Time) ([]byte, bool, error)
	Put(ctx context.Context, key string, payload []byte, expiresAt time.Time) error
}

// SQLite keeps entries in the query_cache table so they survive restarts.
type SQLite struct {
	store EntryStore
	ttl   time.Duration
	now   func() time.Time
}

// NewSQLite creates a cache over store.
func NewSQLite(store EntryStore, ttl time.Duration) *SQLite {
	return &SQLite{store: store, ttl: ttl, now: time.Now}
}

func (s *SQLite) Get(ctx context.Context, key string) (Entry, bool, error) {
	payload, ok, err := s.store.Get(ctx, key, s.now())
	if err != nil || !ok {
		return Entry{}, false, err
	}
	var e Entry
	if err := json.Unmarshal(payload, &e); err != nil {
		return Entry{}, false, fmt.Errorf("failed to decode cache entry: %w", err)
	}
	return e, true, nil
}

func (s *SQLite) Set(ctx context.Context, key string, e Entry) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	return s.store.Put(ctx, key, payload, s.now().Add(s.ttl))
}

func (s *SQLite) TTL() time.Duration {
	return s.ttl
}
