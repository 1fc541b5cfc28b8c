package indexer

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"

	"urbanlex/internal/contextutil"
	"urbanlex/internal/legal"
	"urbanlex/internal/storage"
	"urbanlex/internal/vectorstore"
)

// embedBatchSize bounds the number of texts sent per embeddings request.
const embedBatchSize = 32

// DocumentStore reads the record of the last indexed version of a document.
type DocumentStore interface {
	Get(ctx context.Context, docType legal.DocumentType) (*storage.Document, error)
}

// ChunkWriter replaces every chunk of a document in one transaction and
// returns the IDs it removed.
type ChunkWriter interface {
	ReplaceDocument(ctx context.Context, doc storage.Document, chunks []legal.Chunk) ([]string, error)
}

// Embedder produces one vector per input text.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Source is one legal document to index.
type Source struct {
	DocumentType legal.DocumentType
	Name         string
	Content      []byte
}

// DocumentResult describes what IndexDocument did with a source.
type DocumentResult struct {
	Skipped  bool
	Chunks   []legal.Chunk
	Embedded int
	Warnings []error
}

// Pipeline chunks legal documents and stores them in SQLite and, when
// configured, in the vector store.
type Pipeline struct {
	chunker     *legal.Chunker
	flattener   *Flattener
	documents   DocumentStore
	chunks      ChunkWriter
	embedder    Embedder
	vectorStore vectorstore.VectorStore
	collection  string
	model       string
}

// NewPipeline creates a new indexing pipeline. embedder and vectorStore may
// both be nil, in which case only the lexical index is written.
func NewPipeline(
	chunker *legal.Chunker,
	documents DocumentStore,
	chunks ChunkWriter,
	embedder Embedder,
	vectorStore vectorstore.VectorStore,
	collection string,
) *Pipeline {
	if embedder == nil || vectorStore == nil {
		embedder, vectorStore = nil, nil
	}
	return &Pipeline{
		chunker:     chunker,
		flattener:   NewFlattener(),
		documents:   documents,
		chunks:      chunks,
		embedder:    embedder,
		vectorStore: vectorStore,
		collection:  collection,
	}
}

// WithEmbeddingModel records the model name used in Stats.IndexVersion.
func (p *Pipeline) WithEmbeddingModel(model string) *Pipeline {
	p.model = model
	return p
}

// Text returns the plain text the chunker sees for src.
func (p *Pipeline) Text(src Source) string {
	if IsMarkdown(src.Name) {
		return p.flattener.Flatten(src.Content)
	}
	return string(src.Content)
}

// IndexDocument indexes a single document. An unchanged document (same text
// hash as the stored record) is skipped. Embeddings are computed before
// anything is written, so a failed embedding leaves the previous index intact.
func (p *Pipeline) IndexDocument(ctx context.Context, src Source) (DocumentResult, error) {
	logger := contextutil.LoggerFromContext(ctx).With("document", src.DocumentType, "source", src.Name)

	text := p.Text(src)
	hash := fmt.Sprintf("%x", sha256.Sum256([]byte(text)))

	existing, err := p.documents.Get(ctx, src.DocumentType)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return DocumentResult{}, fmt.Errorf("failed to check existing document: %w", err)
	}
	if existing != nil && existing.Hash == hash {
		logger.DebugContext(ctx, "skipping unchanged document", "hash", hash)
		return DocumentResult{Skipped: true}, nil
	}

	res, err := p.chunker.Chunk(src.DocumentType, text)
	if err != nil {
		return DocumentResult{}, fmt.Errorf("failed to chunk document: %w", err)
	}
	for _, w := range res.Warnings {
		logger.WarnContext(ctx, "chunking warning", "error", w)
	}
	if len(res.Chunks) == 0 {
		logger.WarnContext(ctx, "no chunks generated")
	}

	var vectors [][]float32
	if p.embedder != nil && len(res.Chunks) > 0 {
		vectors, err = p.embed(ctx, res.Chunks)
		if err != nil {
			return DocumentResult{}, err
		}
	}

	oldIDs, err := p.chunks.ReplaceDocument(ctx, storage.Document{
		Type:   src.DocumentType,
		Source: src.Name,
		Hash:   hash,
	}, res.Chunks)
	if err != nil {
		return DocumentResult{}, fmt.Errorf("failed to store chunks: %w", err)
	}

	result := DocumentResult{Chunks: res.Chunks, Warnings: res.Warnings}
	if vectors != nil {
		if err := p.writeVectors(ctx, oldIDs, res.Chunks, vectors); err != nil {
			return result, err
		}
		result.Embedded = len(vectors)
	}

	logger.InfoContext(ctx, "indexed document", "chunks", len(res.Chunks), "embedded", result.Embedded, "replaced", len(oldIDs))
	return result, nil
}

// IndexAll indexes every source. Errors for individual documents are logged
// and counted but don't stop the run.
func (p *Pipeline) IndexAll(ctx context.Context, sources []Source) Stats {
	logger := contextutil.LoggerFromContext(ctx)
	stats := newStatsBuilder(p.model)

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			stats.add(src, DocumentResult{}, err)
			continue
		}
		res, err := p.IndexDocument(ctx, src)
		if err != nil {
			logger.ErrorContext(ctx, "failed to index document", "source", src.Name, "error", err)
		}
		stats.add(src, res, err)
	}

	s := stats.build()
	logger.InfoContext(ctx, "indexing complete",
		"processed", s.DocsProcessed,
		"indexed", s.DocsIndexed,
		"skipped", s.DocsSkipped,
		"failed", s.DocsFailed,
		"chunks", s.Chunks,
	)
	return s
}

func embeddingText(c legal.Chunk) string {
	return c.Label() + ": " + c.Text
}

func (p *Pipeline) embed(ctx context.Context, chunks []legal.Chunk) ([][]float32, error) {
	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := min(start+embedBatchSize, len(chunks))
		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, embeddingText(c))
		}
		batch, err := p.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("failed to generate embeddings: %w", err)
		}
		if len(batch) != len(texts) {
			return nil, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(texts), len(batch))
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

func (p *Pipeline) writeVectors(ctx context.Context, oldIDs []string, chunks []legal.Chunk, vectors [][]float32) error {
	logger := contextutil.LoggerFromContext(ctx)

	if err := p.vectorStore.EnsureCollection(ctx, p.collection, len(vectors[0])); err != nil {
		return fmt.Errorf("failed to ensure collection: %w", err)
	}

	// Chunk IDs are deterministic, so only IDs that disappeared need deleting.
	current := make(map[string]bool, len(chunks))
	for _, c := range chunks {
		current[c.ID] = true
	}
	var stale []string
	for _, id := range oldIDs {
		if !current[id] {
			stale = append(stale, id)
		}
	}
	if len(stale) > 0 {
		if err := p.vectorStore.Delete(ctx, p.collection, stale); err != nil {
			logger.WarnContext(ctx, "failed to delete stale vectors", "error", err, "count", len(stale))
		}
	}

	points := make([]vectorstore.Point, len(chunks))
	for i, c := range chunks {
		points[i] = vectorstore.Point{
			ID:  c.ID,
			Vec: vectors[i],
			Meta: map[string]any{
				vectorstore.PayloadChunkID:       c.ID,
				vectorstore.PayloadDocumentType:  string(c.DocumentType),
				vectorstore.PayloadArticleNumber: c.ArticleNumber,
				vectorstore.PayloadType:          string(c.Type),
				"label":                          c.Label(),
				"ordinal":                        c.Ordinal,
			},
		}
	}
	if err := p.vectorStore.Upsert(ctx, p.collection, points); err != nil {
		return fmt.Errorf("failed to upsert vectors: %w", err)
	}
	return nil
}
