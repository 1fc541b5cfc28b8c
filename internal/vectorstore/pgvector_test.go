package vectorstore

import (
	"context"
	"strings"
	"testing"

	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableName(t *testing.T) {
	got, err := tableName("legal_chunks")
	require.NoError(t, err)
	assert.Equal(t, `"legal_chunks"`, got)

	for _, bad := range []string{"", "Legal", "chunks; DROP TABLE x", "1chunks", "a-b"} {
		_, err := tableName(bad)
		assert.Error(t, err, "tableName(%q)", bad)
	}
}

func TestSearchSQL(t *testing.T) {
	query, args := searchSQL(`"legal_chunks"`, Filter{})
	assert.Len(t, args, 2)
	assert.Contains(t, query, `FROM "legal_chunks"`)
	assert.Contains(t, query, "1 - (embedding <=> $1::vector)")
	assert.NotContains(t, query, "WHERE")
	assert.True(t, strings.HasSuffix(query, "LIMIT $2"), query)

	query, args = searchSQL(`"legal_chunks"`, Filter{DocumentType: "PDUS"})
	require.Len(t, args, 3)
	assert.Equal(t, "PDUS", args[1])
	assert.Contains(t, query, "WHERE document_type = $2")
	assert.True(t, strings.HasSuffix(query, "LIMIT $3"), query)
}

func TestUpsertSQL(t *testing.T) {
	query := upsertSQL(`"legal_chunks"`)
	assert.Contains(t, query, `INSERT INTO "legal_chunks"`)
	assert.Contains(t, query, "$2::vector")
	assert.Contains(t, query, "ON CONFLICT (id) DO UPDATE")
}

func TestVectorEncoding(t *testing.T) {
	v := pgvector.NewVector([]float32{0.5, -1, 2})
	val, err := v.Value()
	require.NoError(t, err)
	assert.Equal(t, "[0.5,-1,2]", val)
}

func TestMetaHelpers(t *testing.T) {
	meta := map[string]any{
		PayloadChunkID:       "c1",
		PayloadArticleNumber: 81,
		"f":                  float64(3),
		"s":                  "12",
	}
	assert.Equal(t, "c1", metaString(meta, PayloadChunkID))
	assert.Equal(t, "", metaString(meta, "missing"))
	assert.Equal(t, int64(81), metaInt(meta, PayloadArticleNumber))
	assert.Equal(t, int64(3), metaInt(meta, "f"))
	assert.Equal(t, int64(12), metaInt(meta, "s"))
	assert.Equal(t, int64(0), metaInt(meta, "missing"))
}

func TestPgVectorStore_EmptyInputs(t *testing.T) {
	store := &PgVectorStore{}
	ctx := context.Background()
	assert.NoError(t, store.Upsert(ctx, "legal_chunks", nil))
	assert.NoError(t, store.Delete(ctx, "legal_chunks", nil))
	_, err := store.Search(ctx, "legal_chunks", []float32{1}, 0, Filter{})
	assert.Error(t, err)
	assert.Error(t, store.EnsureCollection(ctx, "bad name", 3))
}
