package query

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"urbanlex/internal/legal"
	"urbanlex/internal/lexicon"
	"urbanlex/internal/zoning"
)

func TestAnalyzer_Intent(t *testing.T) {
	a := NewAnalyzer(lexicon.Default())

	tests := []struct {
		name  string
		query string
		want  Intent
	}{
		{"greeting", "Olá!", IntentGreeting},
		{"greeting with courtesy", "Bom dia, tudo bem?", IntentGreeting},
		{"long greeting is not a greeting", "oi, qual a altura máxima permitida no bairro Petrópolis?", IntentConstructionParameters},
		{"greeting with article", "oi, art. 81?", IntentArticleLookup},
		{"greeting with hierarchy", "olá, título II", IntentHierarchyLookup},
		{"greeting with zone", "bom dia, ZOT 7", IntentZoneLookup},
		{"article", "O que diz o Art. 81?", IntentArticleLookup},
		{"article beats zone", "art. 74 da ZOT 8.2", IntentArticleLookup},
		{"hierarchy", "Do que trata o Capítulo III?", IntentHierarchyLookup},
		{"zone", "Quais as regras da ZOT 7?", IntentZoneLookup},
		{"neighborhood only", "Me fale sobre Tristeza", IntentZoneLookup},
		{"construction parameters", "Qual a altura máxima em Três Figueiras?", IntentConstructionParameters},
		{"free text", "qual artigo trata da certificação em sustentabilidade ambiental?", IntentFreeText},
		{"empty", "   ", IntentFreeText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Analyze(tt.query).Intent; got != tt.want {
				t.Errorf("Analyze(%q).Intent = %q, want %q", tt.query, got, tt.want)
			}
		})
	}
}

func TestAnalyzer_ArticleNumbers(t *testing.T) {
	a := NewAnalyzer(lexicon.Default())

	tests := []struct {
		query string
		want  []int
	}{
		{"Art. 81", []int{81}},
		{"art 81 inciso III", []int{81}},
		{"artigo 74", []int{74}},
		{"arts. 5 e 7", []int{5, 7}},
		{"artigos 10, 11 e 12", []int{10, 11, 12}},
		{"artigos 10 a 13", []int{10, 11, 12, 13}},
		{"altura de 40 metros", []int{}},
	}
	for _, tt := range tests {
		got := a.Analyze(tt.query).Entities.ArticleNumbers
		if diff := cmp.Diff(tt.want, got, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("Analyze(%q) article numbers mismatch (-want +got):\n%s", tt.query, diff)
		}
	}

	wide := a.Analyze("artigos 1 a 500").Entities.ArticleNumbers
	if len(wide) != MaxArticleRange {
		t.Errorf("range expanded to %d articles, want %d", len(wide), MaxArticleRange)
	}
}

func TestAnalyzer_Entities(t *testing.T) {
	a := NewAnalyzer(lexicon.Default())

	qc := a.Analyze("Capítulo 3 do PDUS")
	want := &HierarchyRef{Type: legal.TypeChapter, Number: "III"}
	if diff := cmp.Diff(want, qc.Entities.Hierarchy); diff != "" {
		t.Errorf("hierarchy mismatch (-want +got):\n%s", diff)
	}
	if qc.DocumentType != legal.PDUS {
		t.Errorf("DocumentType = %q, want PDUS", qc.DocumentType)
	}

	qc = a.Analyze("regras da zot 8.3-b e ZOT07 no Boa Vista do Sul")
	if diff := cmp.Diff([]string{"ZOT 08.3-B", "ZOT 07"}, qc.Entities.ZoneCodes); diff != "" {
		t.Errorf("zone codes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Boa Vista do Sul"}, qc.Entities.Neighborhoods); diff != "" {
		t.Errorf("neighborhoods mismatch (-want +got):\n%s", diff)
	}

	qc = a.Analyze("Qual a altura máxima em Três Figueiras?")
	if diff := cmp.Diff([]string{zoning.ParamHeight}, qc.Parameters); diff != "" {
		t.Errorf("parameters mismatch (-want +got):\n%s", diff)
	}
	if qc.NormalizedQuery != "qual a altura maxima em tres figueiras?" {
		t.Errorf("NormalizedQuery = %q", qc.NormalizedQuery)
	}
	if qc.RawQuery != "Qual a altura máxima em Três Figueiras?" {
		t.Errorf("RawQuery = %q", qc.RawQuery)
	}
}

func TestAnalyzer_Expansion(t *testing.T) {
	a := NewAnalyzer(lexicon.Default())

	qc := a.Analyze("precisa de certificação ambiental?")
	if !qc.HasConcept("certification") {
		t.Fatalf("concepts = %v, want certification", qc.Concepts)
	}
	for _, term := range []string{"selo verde", "certificacao em sustentabilidade ambiental"} {
		found := false
		for _, e := range qc.ExpandedTerms {
			if e == term {
				found = true
			}
		}
		if !found {
			t.Errorf("ExpandedTerms = %v, missing %q", qc.ExpandedTerms, term)
		}
	}
	if qc.NormalizedQuery != "precisa de certificacao ambiental?" {
		t.Errorf("expansion must not rewrite the query, got %q", qc.NormalizedQuery)
	}

	if got := a.Analyze("qual o recuo de jardim?").Concepts; !cmp.Equal(got, []string{"setback"}) {
		t.Errorf("concepts = %v, want [setback]", got)
	}
}

func TestAnalyzer_Aggregate(t *testing.T) {
	a := NewAnalyzer(lexicon.Default())

	tests := []struct {
		query string
		want  *zoning.AggregateQuery
	}{
		{
			query: "Quantos bairros têm risco de inundação?",
			want:  &zoning.AggregateQuery{Shape: zoning.ShapeCountByCategory, Category: zoning.CategoryRisk},
		},
		{
			query: "Qual a altura média em Petrópolis?",
			want:  &zoning.AggregateQuery{Shape: zoning.ShapeAverageByNeighborhood, Parameter: zoning.ParamHeight, Neighborhood: "Petrópolis"},
		},
		{
			query: "liste os bairros da ZOT 7",
			want:  &zoning.AggregateQuery{Shape: zoning.ShapeListByZone, ZoneCode: "ZOT 07"},
		},
		{
			query: "O que diz o art. 81?",
			want:  nil,
		},
	}
	for _, tt := range tests {
		got := a.Analyze(tt.query).Aggregate
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("Analyze(%q).Aggregate mismatch (-want +got):\n%s", tt.query, diff)
		}
	}
}

func TestAnalyzer_Clarification(t *testing.T) {
	a := NewAnalyzer(lexicon.Default())

	if !a.Analyze("o que posso construir na rua sete de setembro 100?").NeedsClarification {
		t.Error("an address without a neighborhood should need clarification")
	}
	if a.Analyze("o que posso construir na rua X em Petrópolis?").NeedsClarification {
		t.Error("an address with a neighborhood should not need clarification")
	}
}
