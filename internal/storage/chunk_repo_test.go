package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"

	"urbanlex/internal/legal"
	"urbanlex/internal/lexicon"
)

const testLUOS = `TÍTULO I
DAS DISPOSIÇÕES GERAIS
Art. 1º Esta Lei Complementar institui normas de uso do solo.
CAPÍTULO I
DO REGIME URBANÍSTICO
Art. 74. Na ZOT 8.2, integrante do 4º Distrito, a altura máxima observará o Anexo 3.
Art. 81. Os empreendimentos poderão receber acréscimo de altura desde que atendam:
I - recuo de jardim mínimo;
II - taxa de permeabilidade;
III - obtenção de Certificação em Sustentabilidade Ambiental.
TÍTULO II
DAS DISPOSIÇÕES TRANSITÓRIAS
Art. 120. Os processos em tramitação seguem a legislação anterior.
Art. 121. Esta Lei entra em vigor na data de sua publicação.
`

// seedChunks chunks testLUOS and stores it.
func seedChunks(t *testing.T, db *sql.DB) (*ChunkRepo, []legal.Chunk) {
	t.Helper()
	res, err := legal.NewChunker(lexicon.Default()).Chunk(legal.LUOS, testLUOS)
	if err != nil {
		t.Fatalf("Chunk() error = %v", err)
	}
	repo := NewChunkRepo(db)
	if _, err := repo.ReplaceDocument(context.Background(), Document{Type: legal.LUOS, Source: "luos.txt", Hash: "h1"}, res.Chunks); err != nil {
		t.Fatalf("ReplaceDocument() error = %v", err)
	}
	return repo, res.Chunks
}

func labels(chunks []legal.Chunk) []string {
	out := make([]string, len(chunks))
	for i := range chunks {
		out[i] = chunks[i].Label()
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestChunkRepo_ReplaceDocument(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo, chunks := seedChunks(t, db)

	n, err := repo.CountByDocument(ctx, legal.LUOS)
	if err != nil {
		t.Fatalf("CountByDocument() error = %v", err)
	}
	if n != len(chunks) {
		t.Errorf("CountByDocument() = %d, want %d", n, len(chunks))
	}

	// Replacing again returns the previous IDs and leaves the same count.
	oldIDs, err := repo.ReplaceDocument(ctx, Document{Type: legal.LUOS, Source: "luos.txt", Hash: "h2"}, chunks)
	if err != nil {
		t.Fatalf("ReplaceDocument() second run error = %v", err)
	}
	if len(oldIDs) != len(chunks) {
		t.Errorf("ReplaceDocument() returned %d old IDs, want %d", len(oldIDs), len(chunks))
	}
	if n, _ := repo.CountByDocument(ctx, legal.LUOS); n != len(chunks) {
		t.Errorf("CountByDocument() after replace = %d, want %d", n, len(chunks))
	}

	doc, err := NewDocumentRepo(db).Get(ctx, legal.LUOS)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if doc.Hash != "h2" || doc.Source != "luos.txt" {
		t.Errorf("document = %+v, want hash h2", doc)
	}

	if _, err := NewDocumentRepo(db).Get(ctx, legal.PDUS); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(PDUS) error = %v, want ErrNotFound", err)
	}
}

func TestChunkRepo_ReplaceDocument_RejectsForeignChunks(t *testing.T) {
	db := newTestDB(t)
	repo := NewChunkRepo(db)

	bad := []legal.Chunk{{ID: "x", DocumentType: legal.PDUS, Type: legal.TypeArticle, ArticleNumber: 1, Text: "t"}}
	_, err := repo.ReplaceDocument(context.Background(), Document{Type: legal.LUOS, Hash: "h"}, bad)
	if err == nil {
		t.Fatal("ReplaceDocument() should reject chunks of another document type")
	}
	if n, _ := repo.CountByDocument(context.Background(), legal.LUOS); n != 0 {
		t.Errorf("failed replace left %d chunks", n)
	}
}

func TestChunkRepo_ByArticles(t *testing.T) {
	db := newTestDB(t)
	repo, _ := seedChunks(t, db)

	tests := []struct {
		name    string
		docType legal.DocumentType
		numbers []int
		want    []string
	}{
		{"single article with incisos", legal.LUOS, []int{81}, []string{"Art. 81", "Art. 81 - I", "Art. 81 - II", "Art. 81 - III"}},
		{"several articles any document", "", []int{1, 74}, []string{"Art. 1", "Art. 74"}},
		{"missing article", legal.LUOS, []int{999}, []string{}},
		{"other document", legal.PDUS, []int{81}, []string{}},
		{"no numbers", legal.LUOS, nil, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.ByArticles(context.Background(), tt.docType, tt.numbers)
			if err != nil {
				t.Fatalf("ByArticles() error = %v", err)
			}
			if !equalStrings(labels(got), tt.want) {
				t.Errorf("ByArticles() = %v, want %v", labels(got), tt.want)
			}
		})
	}

	got, _ := repo.ByArticles(context.Background(), legal.LUOS, []int{81})
	inc := got[3]
	if !inc.Metadata.Flags.HasCertificationClause {
		t.Error("flags should round-trip through storage")
	}
	if len(inc.Metadata.Keywords) == 0 {
		t.Error("keywords should round-trip through storage")
	}
}

func TestChunkRepo_Hierarchy(t *testing.T) {
	db := newTestDB(t)
	repo, _ := seedChunks(t, db)
	ctx := context.Background()

	title, err := repo.Hierarchy(ctx, legal.LUOS, legal.TypeTitle, "II")
	if err != nil {
		t.Fatalf("Hierarchy() error = %v", err)
	}
	if title.Heading != "TÍTULO II - DAS DISPOSIÇÕES TRANSITÓRIAS" {
		t.Errorf("Heading = %q", title.Heading)
	}

	arts, err := repo.DescendantArticles(ctx, title.ID, 15)
	if err != nil {
		t.Fatalf("DescendantArticles() error = %v", err)
	}
	if want := []string{"Art. 120", "Art. 121"}; !equalStrings(labels(arts), want) {
		t.Errorf("DescendantArticles() = %v, want %v", labels(arts), want)
	}

	first, _ := repo.Hierarchy(ctx, legal.LUOS, legal.TypeTitle, "I")
	arts, _ = repo.DescendantArticles(ctx, first.ID, 2)
	if want := []string{"Art. 1", "Art. 74"}; !equalStrings(labels(arts), want) {
		t.Errorf("DescendantArticles() through chapter = %v, want %v", labels(arts), want)
	}

	if _, err := repo.Hierarchy(ctx, legal.LUOS, legal.TypeTitle, "XX"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Hierarchy(XX) error = %v, want ErrNotFound", err)
	}

	nums, err := repo.HierarchyNumbers(ctx, legal.LUOS, legal.TypeTitle)
	if err != nil {
		t.Fatalf("HierarchyNumbers() error = %v", err)
	}
	if want := []string{"I", "II"}; !equalStrings(nums, want) {
		t.Errorf("HierarchyNumbers() = %v, want %v", nums, want)
	}
}

func TestChunkRepo_Transitional(t *testing.T) {
	db := newTestDB(t)
	repo, _ := seedChunks(t, db)

	got, err := repo.Transitional(context.Background(), legal.LUOS, 10)
	if err != nil {
		t.Fatalf("Transitional() error = %v", err)
	}
	if want := []string{"Título II"}; !equalStrings(labels(got), want) {
		t.Errorf("Transitional() = %v, want %v", labels(got), want)
	}
}

func TestChunkRepo_SearchText(t *testing.T) {
	db := newTestDB(t)
	repo, _ := seedChunks(t, db)

	hits, err := repo.SearchText(context.Background(), "", []string{"certificacao", "sustentabilidade", "ambiental"}, 5)
	if err != nil {
		t.Fatalf("SearchText() error = %v", err)
	}
	if len(hits) == 0 {
		t.Fatal("SearchText() returned no hits")
	}
	if got := hits[0].Chunk.Label(); got != "Art. 81 - III" {
		t.Errorf("top hit = %s, want Art. 81 - III", got)
	}
	if hits[0].Score != 1 {
		t.Errorf("top score = %v, want 1", hits[0].Score)
	}

	hits, _ = repo.SearchText(context.Background(), legal.LUOS, []string{"alt"}, 5)
	if len(hits) != 0 {
		t.Errorf("partial words should not match, got %v", hits)
	}

	hits, _ = repo.SearchText(context.Background(), legal.LUOS, nil, 5)
	if len(hits) != 0 {
		t.Errorf("empty terms should return nothing, got %d", len(hits))
	}
}

func TestChunkRepo_SearchText_RanksBeyondScanLimit(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	var b strings.Builder
	b.WriteString("TÍTULO I\nDAS DISPOSIÇÕES GERAIS\n")
	for n := 1; n <= searchScanLimit+100; n++ {
		fmt.Fprintf(&b, "Art. %d. Compete ao Município a proteção ambiental da área %d.\n", n, n)
	}
	fmt.Fprintf(&b, "Art. %d. Os empreendimentos poderão receber acréscimo de altura desde que atendam:\n", searchScanLimit+101)
	b.WriteString("I - recuo de jardim mínimo;\nII - taxa de permeabilidade;\n")
	b.WriteString("III - obtenção de Certificação em Sustentabilidade Ambiental.\n")

	res, err := legal.NewChunker(lexicon.Default()).Chunk(legal.LUOS, b.String())
	if err != nil {
		t.Fatalf("Chunk() error = %v", err)
	}
	repo := NewChunkRepo(db)
	if _, err := repo.ReplaceDocument(ctx, Document{Type: legal.LUOS, Source: "luos.txt", Hash: "h"}, res.Chunks); err != nil {
		t.Fatalf("ReplaceDocument() error = %v", err)
	}

	hits, err := repo.SearchText(ctx, "", []string{"certificacao", "sustentabilidade", "ambiental"}, 5)
	if err != nil {
		t.Fatalf("SearchText() error = %v", err)
	}
	if len(hits) == 0 {
		t.Fatal("SearchText() returned no hits")
	}
	want := fmt.Sprintf("Art. %d - III", searchScanLimit+101)
	if got := hits[0].Chunk.Label(); got != want {
		t.Errorf("top hit = %s, want %s", got, want)
	}
	if hits[0].Score != 1 {
		t.Errorf("top score = %v, want 1", hits[0].Score)
	}
}

func TestChunkRepo_GetByIDs(t *testing.T) {
	db := newTestDB(t)
	repo, chunks := seedChunks(t, db)

	got, err := repo.GetByIDs(context.Background(), []string{chunks[3].ID, "missing", chunks[0].ID})
	if err != nil {
		t.Fatalf("GetByIDs() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != chunks[0].ID || got[1].ID != chunks[3].ID {
		t.Errorf("GetByIDs() = %v, want document order of two chunks", labels(got))
	}
}
