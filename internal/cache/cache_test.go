package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"urbanlex/internal/storage"
)

func TestKey(t *testing.T) {
	base := Key("art. 81", "default", false)
	assert.Len(t, base, 64)
	assert.Equal(t, base, Key("art. 81", "default", false))
	assert.NotEqual(t, base, Key("art. 82", "default", false))
	assert.NotEqual(t, base, Key("art. 81", "other", false))
	assert.NotEqual(t, base, Key("art. 81", "default", true))
	// The separator keeps field boundaries distinct.
	assert.NotEqual(t, Key("ab", "c", false), Key("a", "bc", false))
}

func newSQLite(t *testing.T) *SQLite {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, storage.Migrate(db))
	return NewSQLite(storage.NewCacheRepo(db), time.Hour)
}

func TestCaches_RoundTrip(t *testing.T) {
	entry := Entry{
		Response:   "Art. 81 - III (LUOS):\n\"obtenção de Certificação em Sustentabilidade Ambiental.\"",
		Confidence: 0.92,
		Sources:    map[string]int{"ArticleSearchTool": 3},
		Kind:       "certification_clause",
	}

	caches := map[string]Cache{
		"memory": NewMemory(time.Hour),
		"sqlite": newSQLite(t),
	}
	for name, c := range caches {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			key := Key("certificacao", "default", false)

			_, ok, err := c.Get(ctx, key)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, c.Set(ctx, key, entry))
			first, ok, err := c.Get(ctx, key)
			require.NoError(t, err)
			require.True(t, ok)
			if diff := cmp.Diff(entry, first); diff != "" {
				t.Errorf("Get() mismatch (-want +got):\n%s", diff)
			}

			first.Sources["ArticleSearchTool"] = 99
			second, _, _ := c.Get(ctx, key)
			assert.Equal(t, 3, second.Sources["ArticleSearchTool"], "hits are independent copies")
			assert.Equal(t, time.Hour, c.TTL())
		})
	}
}

func TestSQLite_Expiry(t *testing.T) {
	c := newSQLite(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", Entry{Response: "x", Confidence: 1}))
	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(time.Hour + time.Second)
	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_Expiry(t *testing.T) {
	c := NewMemory(20 * time.Millisecond)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", Entry{Response: "x"}))
	assert.Eventually(t, func() bool {
		_, ok, _ := c.Get(ctx, "k")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestNop(t *testing.T) {
	var c Cache = Nop{}
	require.NoError(t, c.Set(context.Background(), "k", Entry{Response: "x"}))
	_, ok, err := c.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, ok)
}
