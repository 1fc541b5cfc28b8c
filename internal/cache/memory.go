package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory is a process-local cache backed by go-cache.
type Memory struct {
	store *gocache.Cache
	ttl   time.Duration
}

// NewMemory creates a memory cache whose entries expire after ttl.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		store: gocache.New(ttl, 2*ttl),
		ttl:   ttl,
	}
}

func (m *Memory) Get(_ context.Context, key string) (Entry, bool, error) {
	v, ok := m.store.Get(key)
	if !ok {
		return Entry{}, false, nil
	}
	return v.(Entry).clone(), true, nil
}

func (m *Memory) Set(_ context.Context, key string, e Entry) error {
	m.store.Set(key, e.clone(), m.ttl)
	return nil
}

func (m *Memory) TTL() time.Duration {
	return m.ttl
}
