package indexer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"unicode/utf8"

	"urbanlex/internal/legal"
)

const (
	// ChunkerVersion identifies the chunking rules. Bump it when they change
	// so the index version changes with them.
	ChunkerVersion = "legal-v1"
	// TokensPerRune is an approximation for token counting (4 chars per token).
	TokensPerRune = 4.0
)

// Stats summarizes an indexing run.
type Stats struct {
	DocsProcessed int `json:"docs_processed"`
	DocsIndexed   int `json:"docs_indexed"`
	DocsSkipped   int `json:"docs_skipped"`
	DocsFailed    int `json:"docs_failed"`
	// Chunks counts chunks stored in this run; unchanged documents add none.
	Chunks         int             `json:"chunks"`
	ChunksByType   map[string]int  `json:"chunks_by_type"`
	ChunksEmbedded int             `json:"chunks_embedded"`
	Warnings       []string        `json:"warnings,omitempty"`
	Errors         []string        `json:"errors,omitempty"`
	ChunkTokens    ChunkTokenStats `json:"chunk_token_stats"`
	ChunkerVersion string          `json:"chunker_version"`
	// IndexVersion is a hash of the chunker version and embedding model.
	IndexVersion string `json:"index_version"`
}

// ChunkTokenStats contains statistics about token counts in chunks.
type ChunkTokenStats struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
	P95  int     `json:"p95"`
}

type statsBuilder struct {
	stats  Stats
	tokens []int
}

func newStatsBuilder(embeddingModel string) *statsBuilder {
	return &statsBuilder{stats: Stats{
		ChunksByType:   make(map[string]int),
		ChunkerVersion: ChunkerVersion,
		IndexVersion:   IndexVersion(embeddingModel),
	}}
}

func (b *statsBuilder) add(src Source, res DocumentResult, err error) {
	b.stats.DocsProcessed++
	if err != nil {
		b.stats.DocsFailed++
		b.stats.Errors = append(b.stats.Errors, fmt.Sprintf("%s: %v", src.Name, err))
		return
	}
	for _, w := range res.Warnings {
		b.stats.Warnings = append(b.stats.Warnings, fmt.Sprintf("%s: %v", src.Name, w))
	}
	if res.Skipped {
		b.stats.DocsSkipped++
		return
	}
	b.stats.DocsIndexed++
	b.stats.Chunks += len(res.Chunks)
	b.stats.ChunksEmbedded += res.Embedded
	for _, c := range res.Chunks {
		b.stats.ChunksByType[string(c.Type)]++
		b.tokens = append(b.tokens, estimateTokens(c))
	}
}

func (b *statsBuilder) build() Stats {
	b.stats.ChunkTokens = computeTokenStats(b.tokens)
	return b.stats
}

// IndexVersion identifies an index build by chunker and embedding model.
func IndexVersion(embeddingModel string) string {
	hash := sha256.Sum256([]byte(ChunkerVersion + "|" + embeddingModel))
	return hex.EncodeToString(hash[:])[:16]
}

func estimateTokens(c legal.Chunk) int {
	n := int(math.Round(float64(utf8.RuneCountInString(c.Text)) / TokensPerRune))
	return max(n, 1)
}

// computeTokenStats computes min, max, mean, and p95 from token counts.
func computeTokenStats(tokenCounts []int) ChunkTokenStats {
	if len(tokenCounts) == 0 {
		return ChunkTokenStats{}
	}

	sorted := make([]int, len(tokenCounts))
	copy(sorted, tokenCounts)
	sort.Ints(sorted)

	sum := 0
	for _, count := range sorted {
		sum += count
	}
	mean := float64(sum) / float64(len(sorted))

	p95Index := int(math.Ceil(float64(len(sorted)) * 0.95))
	if p95Index >= len(sorted) {
		p95Index = len(sorted) - 1
	}

	return ChunkTokenStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: math.Round(mean*100) / 100, // Round to 2 decimal places
		P95:  sorted[p95Index],
	}
}
