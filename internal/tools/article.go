package tools

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"urbanlex/internal/contextutil"
	"urbanlex/internal/legal"
	"urbanlex/internal/lexicon"
	"urbanlex/internal/query"
	"urbanlex/internal/storage"
	"urbanlex/internal/vectorstore"
)

const (
	// textLimit caps lexical and vector candidates each.
	textLimit = 20
	// transitionalLimit caps flagged units and the articles under each.
	transitionalLimit = 15
	// transitionalSimilarity is the raw score of a transitional provision.
	transitionalSimilarity = 0.9
	minTokenLen            = 3
)

// VectorSearch enables semantic candidates in ArticleSearchTool.
type VectorSearch struct {
	Embedder   Embedder
	Store      vectorstore.VectorStore
	Collection string
	MinScore   float64
}

// ArticleSearchTool finds chunks by article number, transitional flag or text.
type ArticleSearchTool struct {
	chunks storage.ChunkStore
	lex    *lexicon.Lexicon
	vector *VectorSearch
}

// NewArticleSearch creates the tool. vector may be nil for lexical-only search.
func NewArticleSearch(chunks storage.ChunkStore, lex *lexicon.Lexicon, vector *VectorSearch) *ArticleSearchTool {
	if vector != nil && (vector.Embedder == nil || vector.Store == nil) {
		vector = nil
	}
	return &ArticleSearchTool{chunks: chunks, lex: lex, vector: vector}
}

func (t *ArticleSearchTool) ID() ToolID { return ArticleSearch }

func (t *ArticleSearchTool) Run(ctx context.Context, qc *query.Context) Result {
	switch {
	case len(qc.Entities.ArticleNumbers) > 0:
		return t.byNumber(ctx, qc)
	case qc.Transitional:
		return t.transitional(ctx, qc)
	}
	return t.freeText(ctx, qc)
}

func (t *ArticleSearchTool) byNumber(ctx context.Context, qc *query.Context) Result {
	chunks, err := t.chunks.ByArticles(ctx, qc.DocumentType, qc.Entities.ArticleNumbers)
	if err != nil {
		return failed(ArticleSearch, err)
	}
	found := make(map[int]bool, len(chunks))
	cands := make([]Candidate, 0, len(chunks))
	for i := range chunks {
		found[chunks[i].ArticleNumber] = true
		cands = append(cands, Candidate{Chunk: &chunks[i], RawSimilarity: 1, Source: ArticleSearch, ExactMatch: true})
	}
	res := ok(ArticleSearch, cands)

	var missing []string
	for _, n := range qc.Entities.ArticleNumbers {
		if !found[n] {
			missing = append(missing, strconv.Itoa(n))
		}
	}
	if len(missing) == 0 {
		return res
	}
	ranges, err := validRanges(ctx, t.chunks, qc.DocumentType, legal.TypeArticle)
	if err != nil {
		return failed(ArticleSearch, err)
	}
	res.NotFound = &NotFound{Kind: legal.TypeArticle, Requested: missing, Ranges: ranges}
	return res
}

// transitional expands flagged hierarchy units into their articles.
func (t *ArticleSearchTool) transitional(ctx context.Context, qc *query.Context) Result {
	flagged, err := t.chunks.Transitional(ctx, qc.DocumentType, transitionalLimit)
	if err != nil {
		return failed(ArticleSearch, err)
	}

	seen := make(map[string]bool)
	var cands []Candidate
	add := func(c legal.Chunk) {
		if seen[c.ID] {
			return
		}
		seen[c.ID] = true
		cands = append(cands, Candidate{Chunk: &c, RawSimilarity: transitionalSimilarity, Source: ArticleSearch})
	}
	for _, c := range flagged {
		if !c.Type.IsHierarchy() {
			add(c)
			continue
		}
		articles, err := t.chunks.DescendantArticles(ctx, c.ID, transitionalLimit)
		if err != nil {
			return failed(ArticleSearch, err)
		}
		for _, a := range articles {
			add(a)
		}
	}
	return ok(ArticleSearch, cands)
}

func (t *ArticleSearchTool) freeText(ctx context.Context, qc *query.Context) Result {
	logger := contextutil.LoggerFromContext(ctx)

	terms := append(t.lex.Tokens(qc.NormalizedQuery, minTokenLen), qc.ExpandedTerms...)
	hits, err := t.chunks.SearchText(ctx, qc.DocumentType, terms, textLimit)
	if err != nil {
		return failed(ArticleSearch, err)
	}

	scored := make(map[string]*Candidate, len(hits))
	for i := range hits {
		scored[hits[i].Chunk.ID] = &Candidate{Chunk: &hits[i].Chunk, RawSimilarity: hits[i].Score, Source: ArticleSearch}
	}

	if t.vector != nil && qc.NormalizedQuery != "" {
		semantic, err := t.semantic(ctx, qc)
		switch {
		case err != nil && len(scored) == 0:
			return failed(ArticleSearch, err)
		case err != nil:
			logger.WarnContext(ctx, "vector search failed, using lexical results only", "error", err)
		}
		for _, c := range semantic {
			if prev, ok := scored[c.Chunk.ID]; ok {
				if c.RawSimilarity > prev.RawSimilarity {
					prev.RawSimilarity = c.RawSimilarity
				}
				continue
			}
			scored[c.Chunk.ID] = &c
		}
	}

	cands := make([]Candidate, 0, len(scored))
	for _, c := range scored {
		cands = append(cands, *c)
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].RawSimilarity != cands[j].RawSimilarity {
			return cands[i].RawSimilarity > cands[j].RawSimilarity
		}
		if cands[i].Chunk.DocumentType != cands[j].Chunk.DocumentType {
			return cands[i].Chunk.DocumentType < cands[j].Chunk.DocumentType
		}
		return cands[i].Chunk.Ordinal < cands[j].Chunk.Ordinal
	})
	if len(cands) > textLimit {
		cands = cands[:textLimit]
	}
	return ok(ArticleSearch, cands)
}

func (t *ArticleSearchTool) semantic(ctx context.Context, qc *query.Context) ([]Candidate, error) {
	vec, err := t.vector.Embedder.EmbedQuery(ctx, qc.RawQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	results, err := t.vector.Store.Search(ctx, t.vector.Collection, vec, textLimit, vectorstore.Filter{
		DocumentType: string(qc.DocumentType),
		MinScore:     float32(t.vector.MinScore),
	})
	if err != nil {
		return nil, err
	}

	score := make(map[string]float64, len(results))
	ids := make([]string, 0, len(results))
	for _, r := range results {
		id, _ := r.Meta[vectorstore.PayloadChunkID].(string)
		if id == "" {
			id = r.PointID
		}
		if _, dup := score[id]; !dup {
			ids = append(ids, id)
		}
		if s := float64(r.Score); s > score[id] {
			score[id] = s
		}
	}
	chunks, err := t.chunks.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	cands := make([]Candidate, 0, len(chunks))
	for i := range chunks {
		sim := score[chunks[i].ID]
		if sim > 1 {
			sim = 1
		}
		cands = append(cands, Candidate{Chunk: &chunks[i], RawSimilarity: sim, Source: ArticleSearch})
	}
	return cands, nil
}
