package scoring

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"urbanlex/internal/legal"
	"urbanlex/internal/lexicon"
	"urbanlex/internal/query"
	"urbanlex/internal/tools"
	"urbanlex/internal/zoning"
)

func chunk(id string, typ legal.ChunkType, article int, inciso, text string) *legal.Chunk {
	return &legal.Chunk{
		ID:            id,
		DocumentType:  legal.LUOS,
		Type:          typ,
		ArticleNumber: article,
		IncisoNumber:  inciso,
		Text:          text,
		Metadata:      legal.NewMetadataExtractor(lexicon.Default()).Extract(legal.LUOS, text),
	}
}

func factorNames(fs []Factor) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.Name
	}
	return out
}

func TestRank_Empty(t *testing.T) {
	s := NewScorer(lexicon.Default())
	ranked, confidence := s.Rank(&query.Context{}, nil)
	assert.Empty(t, ranked)
	assert.NotNil(t, ranked)
	assert.Equal(t, 0.0, confidence)
}

func TestRank_TieBreak(t *testing.T) {
	s := NewScorer(lexicon.Default())
	long := "Os empreendimentos observarão as normas gerais desta Lei Complementar."

	tests := []struct {
		name  string
		cands []tools.Candidate
		want  []string
	}{
		{
			name: "exact match first on equal score",
			cands: []tools.Candidate{
				{Chunk: chunk("a", legal.TypeArticle, 10, "", long), RawSimilarity: 1, Source: tools.ArticleSearch},
				{Chunk: chunk("b", legal.TypeArticle, 90, "", long), RawSimilarity: 0.2, Source: tools.ArticleSearch, ExactMatch: true},
			},
			want: []string{"b", "a"},
		},
		{
			name: "lower article number next",
			cands: []tools.Candidate{
				{Chunk: chunk("a", legal.TypeArticle, 90, "", long), RawSimilarity: 1, Source: tools.ArticleSearch, ExactMatch: true},
				{Chunk: chunk("b", legal.TypeArticle, 12, "", long), RawSimilarity: 1, Source: tools.ArticleSearch, ExactMatch: true},
			},
			want: []string{"b", "a"},
		},
		{
			name: "tool priority last",
			cands: []tools.Candidate{
				{Chunk: chunk("a", legal.TypeArticle, 5, "", long), RawSimilarity: 0.5, Source: tools.HierarchyNavigator},
				{Chunk: chunk("b", legal.TypeArticle, 5, "", long), RawSimilarity: 0.5, Source: tools.ArticleSearch},
			},
			want: []string{"b", "a"},
		},
		{
			name: "score dominates",
			cands: []tools.Candidate{
				{Chunk: chunk("a", legal.TypeArticle, 1, "", long), RawSimilarity: 0.4, Source: tools.ArticleSearch},
				{Chunk: chunk("b", legal.TypeArticle, 2, "", long), RawSimilarity: 0.8, Source: tools.ArticleSearch},
			},
			want: []string{"b", "a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ranked, confidence := s.Rank(&query.Context{}, tt.cands)
			got := make([]string, len(ranked))
			for i, r := range ranked {
				got[i] = r.Chunk.ID
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Rank() order mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, ranked[0].BoostedScore, confidence)
		})
	}
}

func TestRank_CertificationClause(t *testing.T) {
	lex := lexicon.Default()
	s := NewScorer(lex)
	qc := query.NewAnalyzer(lex).Analyze("Qual artigo trata da certificação em sustentabilidade ambiental?")

	inciso := chunk("iii", legal.TypeInciso, 81, "III", "obtenção de Certificação em Sustentabilidade Ambiental.")
	require.True(t, inciso.Metadata.Flags.HasCertificationClause)

	ranked, confidence := s.Rank(qc, []tools.Candidate{
		{Chunk: chunk("a1", legal.TypeArticle, 1, "", "Esta Lei Complementar institui normas de uso do solo."), RawSimilarity: 0.2, Source: tools.ArticleSearch},
		{Chunk: chunk("a81", legal.TypeArticle, 81, "", "Os empreendimentos poderão receber acréscimo de altura desde que atendam:"), RawSimilarity: 0.1, Source: tools.ArticleSearch},
		{Chunk: inciso, RawSimilarity: 0.45, Source: tools.ArticleSearch},
	})

	require.Len(t, ranked, 3)
	top := ranked[0]
	assert.Equal(t, "Art. 81 - III", top.Chunk.Label())
	assert.Equal(t, 1.0, confidence)
	assert.Subset(t, factorNames(top.Boosts), []string{"group:certification", "certification", "inciso", "important_keyword"})
	assert.Empty(t, top.Penalties)
}

func TestRank_FourthDistrict(t *testing.T) {
	lex := lexicon.Default()
	s := NewScorer(lex)
	qc := query.NewAnalyzer(lex).Analyze("quais as regras do quarto distrito?")
	text := "Na ZOT 8.2, integrante do 4º Distrito, a altura máxima observará o Anexo 3."

	ranked, _ := s.Rank(qc, []tools.Candidate{
		{Chunk: chunk("a75", legal.TypeArticle, 75, "", text), RawSimilarity: 0.3, Source: tools.ArticleSearch},
		{Chunk: chunk("a74", legal.TypeArticle, 74, "", text), RawSimilarity: 0.3, Source: tools.ArticleSearch},
	})
	require.Len(t, ranked, 2)
	assert.Equal(t, "a74", ranked[0].Chunk.ID)
	assert.Contains(t, factorNames(ranked[0].Boosts), "fourth_district")
	assert.NotContains(t, factorNames(ranked[1].Boosts), "fourth_district", "only Art. 74 carries the 4th District rules")
}

func TestRank_ExactCitation(t *testing.T) {
	s := NewScorer(lexicon.Default())
	qc := &query.Context{NormalizedQuery: "art. 81", Entities: query.Entities{ArticleNumbers: []int{81}}}
	text := "Os empreendimentos poderão receber acréscimo de altura desde que atendam:"

	ranked, _ := s.Rank(qc, []tools.Candidate{
		{Chunk: chunk("a81", legal.TypeArticle, 81, "", text), RawSimilarity: 0.5, Source: tools.ArticleSearch},
	})
	require.Len(t, ranked, 1)
	assert.InDelta(t, 0.75, ranked[0].BoostedScore, 1e-9)
	assert.Equal(t, []Factor{{Name: "exact_match", Value: 1.5}}, ranked[0].Boosts)
}

func TestRank_Penalties(t *testing.T) {
	s := NewScorer(lexicon.Default())
	qc := &query.Context{NormalizedQuery: "plano diretor de porto alegre"}

	ranked, _ := s.Rank(qc, []tools.Candidate{
		{Chunk: chunk("g", legal.TypeArticle, 2, "", "O Plano Diretor de Porto Alegre é a lei municipal que orienta a cidade."), RawSimilarity: 0.5, Source: tools.ArticleSearch},
		{Chunk: chunk("s", legal.TypeArticle, 3, "", "Revogado."), RawSimilarity: 0.5, Source: tools.ArticleSearch},
		{Chunk: chunk("e", legal.TypeArticle, 4, "", "Revogado."), RawSimilarity: 0.5, Source: tools.ArticleSearch, ExactMatch: true},
	})
	require.Len(t, ranked, 3)

	byID := make(map[string]RankedResult)
	for _, r := range ranked {
		byID[r.Chunk.ID] = r
	}
	assert.InDelta(t, 0.2, byID["g"].BoostedScore, 1e-9)
	assert.Equal(t, []string{"generic"}, factorNames(byID["g"].Penalties))
	assert.InDelta(t, 0.4, byID["s"].BoostedScore, 1e-9)
	assert.Equal(t, []string{"short_text"}, factorNames(byID["s"].Penalties))
	assert.Equal(t, 1.0, byID["e"].BoostedScore, "exact matches are never penalized for length")
}

func TestRank_ZoneRows(t *testing.T) {
	lex := lexicon.Default()
	s := NewScorer(lex)
	qc := query.NewAnalyzer(lex).Analyze("altura máxima em Petrópolis")

	art74 := chunk("a74", legal.TypeArticle, 74, "", "Na ZOT 8.2, integrante do 4º Distrito, a altura máxima observará o Anexo 3.")
	ranked, confidence := s.Rank(qc, []tools.Candidate{
		{Chunk: art74, RawSimilarity: 0.33, Source: tools.ArticleSearch},
		{Zone: &zoning.Row{Neighborhood: "Petrópolis", ZoneCode: "ZOT 07", HeightMax: zoning.Float(60)}, RawSimilarity: 1, Source: tools.ZOTSearch, ExactMatch: true},
		{Zone: &zoning.Row{Neighborhood: "Petrópolis", ZoneCode: "ZOT 08", HeightMax: zoning.Float(90)}, RawSimilarity: 1, Source: tools.ZOTSearch, ExactMatch: true},
	})
	require.Len(t, ranked, 3)
	assert.Equal(t, 1.0, confidence)
	assert.Equal(t, "ZOT 07", ranked[0].Zone.ZoneCode)
	assert.Equal(t, "ZOT 08", ranked[1].Zone.ZoneCode)
	assert.Less(t, ranked[2].BoostedScore, 1.0)
}

func TestRank_MergesDuplicates(t *testing.T) {
	s := NewScorer(lexicon.Default())
	c := chunk("a", legal.TypeArticle, 7, "", "Os empreendimentos observarão as normas gerais desta Lei Complementar.")

	ranked, _ := s.Rank(&query.Context{}, []tools.Candidate{
		{Chunk: c, RawSimilarity: 0.4, Source: tools.ArticleSearch},
		{Chunk: c, RawSimilarity: 0.9, Source: tools.HierarchyNavigator, ExactMatch: true},
	})
	require.Len(t, ranked, 1)
	assert.Equal(t, tools.ArticleSearch, ranked[0].Source)
	assert.True(t, ranked[0].ExactMatch)
	assert.Equal(t, 0.9, ranked[0].RawSimilarity)
}
