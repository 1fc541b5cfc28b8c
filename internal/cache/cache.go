// Package cache holds answered queries so identical requests inside the TTL
// get the same response without running the pipeline again.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// Entry is a cached answer.
type Entry struct {
	Response   string         `json:"response"`
	Confidence float64        `json:"confidence"`
	Sources    map[string]int `json:"sources"`
	Kind       string         `json:"kind"`
}

func (e Entry) clone() Entry {
	if e.Sources != nil {
		src := make(map[string]int, len(e.Sources))
		for k, v := range e.Sources {
			src[k] = v
		}
		e.Sources = src
	}
	return e
}

// Cache stores entries by key for a fixed TTL.
type Cache interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Set(ctx context.Context, key string, e Entry) error
	TTL() time.Duration
}

// Key derives the cache key for a normalized query.
func Key(normalizedQuery, model string, bypass bool) string {
	h := sha256.New()
	h.Write([]byte(normalizedQuery))
	h.Write([]byte{0})
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatBool(bypass)))
	return hex.EncodeToString(h.Sum(nil))
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) (Entry, bool, error) { return Entry{}, false, nil }
func (Nop) Set(context.Context, string, Entry) error         { return nil }
func (Nop) TTL() time.Duration                               { return 0 }
