package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks urbanlex/internal/vectorstore VectorStore

import "context"

// Payload keys stored with every chunk point.
const (
	PayloadChunkID       = "chunk_id"
	PayloadDocumentType  = "document_type"
	PayloadArticleNumber = "article_number"
	PayloadType          = "type"
)

// Point represents a vector point with metadata.
type Point struct {
	ID   string
	Vec  []float32
	Meta map[string]any
}

// SearchResult represents a search result from vector search.
type SearchResult struct {
	PointID string
	Score   float32
	Meta    map[string]any
}

// Filter narrows a search. Zero values disable each condition.
type Filter struct {
	DocumentType string
	MinScore     float32
}

// VectorStore defines the interface for vector storage operations.
type VectorStore interface {
	// EnsureCollection creates the collection if needed and checks its vector size.
	EnsureCollection(ctx context.Context, collection string, vectorSize int) error

	// Upsert inserts or updates points in the collection.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search returns the k most similar points scoring at least filter.MinScore.
	Search(ctx context.Context, collection string, query []float32, k int, filter Filter) ([]SearchResult, error)

	// Delete removes points by their IDs.
	Delete(ctx context.Context, collection string, ids []string) error

	// Health reports whether the backend is reachable.
	Health(ctx context.Context) error
}
