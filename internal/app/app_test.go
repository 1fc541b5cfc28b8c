package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"urbanlex/internal/config"
	apihttp "urbanlex/internal/http"
	"urbanlex/internal/indexer"
	"urbanlex/internal/legal"
	"urbanlex/internal/service"
	"urbanlex/internal/zoning"
)

func testConfig(t *testing.T, cacheBackend string) *config.Config {
	return &config.Config{
		DBPath:             filepath.Join(t.TempDir(), "app.db"),
		LogFormat:          "text",
		LogLevel:           "debug",
		VectorBackend:      config.VectorBackendNone,
		QdrantCollection:   "legal_chunks",
		VectorSize:         3,
		CacheBackend:       cacheBackend,
		CacheTTL:           time.Hour,
		CacheMinConfidence: 0.7,
		ToolTimeout:        time.Second,
		MinConfidence:      0.35,
		VectorMinScore:     0.7,
		DefaultModel:       "default",
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Config{LogLevel: "warn", LogFormat: "json"}
	logger, err := NewLogger(cfg, &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	_, err = NewLogger(&config.Config{LogLevel: "loud"}, &buf)
	assert.Error(t, err)
}

func TestOpen_EndToEnd(t *testing.T) {
	ctx := context.Background()
	a, err := Open(ctx, testConfig(t, config.CacheBackendSQLite))
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.Vectors)
	assert.Nil(t, a.Embedder)

	stats := a.Indexer.IndexAll(ctx, []indexer.Source{{
		DocumentType: legal.LUOS,
		Name:         "luos.txt",
		Content:      []byte("TÍTULO I\nDAS DISPOSIÇÕES GERAIS\nArt. 1º Esta Lei Complementar institui normas de uso do solo.\n"),
	}})
	require.Zero(t, stats.DocsFailed, stats.Errors)
	require.NoError(t, a.Zones.Upsert(ctx, []zoning.Row{
		{Neighborhood: "Petrópolis", ZoneCode: "ZOT 07", HeightMax: zoning.Float(60)},
	}))

	resp, err := a.Query.Query(ctx, service.QueryRequest{Query: "Qual a altura máxima em Petrópolis?"})
	require.NoError(t, err)
	assert.Contains(t, resp.Response, "ZOT 07: altura máxima: 60 m")

	// Served from the persistent cache the second time.
	again, err := a.Query.Query(ctx, service.QueryRequest{Query: "Qual a altura máxima em Petrópolis?"})
	require.NoError(t, err)
	require.Len(t, again.Trace, 1)
	assert.Equal(t, "cache_hit", again.Trace[0].Step)
}

func TestHTTPDeps_HealthReportsDisabledBackends(t *testing.T) {
	a, err := Open(context.Background(), testConfig(t, config.CacheBackendNone))
	require.NoError(t, err)
	defer a.Close()

	srv := httptest.NewServer(apihttp.NewRouter(a.HTTPDeps()))
	defer srv.Close()

	res, err := http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	defer func() { _ = res.Body.Close() }()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "disabled", body.Checks["vector_store"])
	assert.Equal(t, "disabled", body.Checks["embeddings"])

	docs, err := http.Get(srv.URL + "/api/documents")
	require.NoError(t, err)
	defer func() { _ = docs.Body.Close() }()
	assert.Equal(t, http.StatusOK, docs.StatusCode)
	assert.True(t, strings.HasPrefix(docs.Header.Get("Content-Type"), "application/json"))
}

func TestPurgeExpiredCache_ReturnsWhenNotSQLite(t *testing.T) {
	a, err := Open(context.Background(), testConfig(t, config.CacheBackendMemory))
	require.NoError(t, err)
	defer a.Close()

	done := make(chan struct{})
	go func() {
		a.PurgeExpiredCache(context.Background(), time.Millisecond)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("PurgeExpiredCache() should return immediately for the memory cache")
	}
}
