package lexicon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Loads(t *testing.T) {
	lex := Default()
	require.NotNil(t, lex)
	assert.NotEmpty(t, lex.Neighborhoods)

	height, ok := lex.Group("height")
	require.True(t, ok)
	assert.Contains(t, height.Terms, "gabarito")
	assert.Contains(t, height.Terms, "elevacao")
	assert.Contains(t, height.Terms, "limite vertical")
}

func TestFold(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Petrópolis", "petropolis"},
		{"  Três   FIGUEIRAS ", "tres figueiras"},
		{"Certificação em Sustentabilidade Ambiental", "certificacao em sustentabilidade ambiental"},
		{"4º Distrito", "4º distrito"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Fold(tt.in), "Fold(%q)", tt.in)
	}
}

func TestMatchNeighborhoods(t *testing.T) {
	lex := Default()

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"longest match wins", "zoneamento em boa vista do sul", []string{"Boa Vista do Sul"}},
		{"short name alone", "altura em boa vista", []string{"Boa Vista"}},
		{"accent folded", Fold("altura máxima em Petrópolis"), []string{"Petrópolis"}},
		{"two neighborhoods", "comparar tristeza e cristal", []string{"Tristeza", "Cristal"}},
		{"word boundary", "cristalino", nil},
		{"none", "qual o artigo 5", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lex.MatchNeighborhoods(tt.query)
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestContainsWord(t *testing.T) {
	assert.True(t, ContainsWord("altura maxima da zona", "altura maxima"))
	assert.False(t, ContainsWord("alturas", "altura"))
	assert.True(t, ContainsWord("a zot 08.3-b", "zot"))
	assert.False(t, ContainsWord("anything", ""))
}

func TestTokens(t *testing.T) {
	lex := Default()
	got := lex.Tokens("qual artigo trata da certificacao em sustentabilidade ambiental?", 3)
	assert.Equal(t, []string{"artigo", "certificacao", "sustentabilidade", "ambiental"}, got)
}

func TestParse_Validation(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"no neighborhoods", "synonyms: []"},
		{"bad weight", "neighborhoods: [Centro]\nsynonyms:\n  - concept: x\n    weight: 2\n    terms: [a]"},
		{"empty group", "neighborhoods: [Centro]\nsynonyms:\n  - concept: x\n    weight: 0.5"},
		{"duplicate concept", "neighborhoods: [Centro]\nsynonyms:\n  - {concept: x, weight: 0.5, terms: [a]}\n  - {concept: x, weight: 0.5, terms: [b]}"},
		{"not yaml", "neighborhoods: [unterminated"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}
