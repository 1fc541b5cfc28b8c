// Package query turns a free-text question into a structured Context:
// intent, entities and expanded search terms.
package query

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"urbanlex/internal/legal"
	"urbanlex/internal/lexicon"
	"urbanlex/internal/zoning"
)

// Intent is the classified purpose of a query.
type Intent string

const (
	IntentGreeting               Intent = "greeting"
	IntentArticleLookup          Intent = "article_lookup"
	IntentHierarchyLookup        Intent = "hierarchy_lookup"
	IntentZoneLookup             Intent = "zone_lookup"
	IntentConstructionParameters Intent = "construction_parameters"
	IntentFreeText               Intent = "free_text"
)

// MaxArticleRange bounds how many articles a range citation expands to.
const MaxArticleRange = 20

// HierarchyRef is a cited Title/Chapter/Section/Subsection.
type HierarchyRef struct {
	Type   legal.ChunkType `json:"type"`
	Number string          `json:"number"`
}

// Entities are the structured references found in a query.
type Entities struct {
	ArticleNumbers []int         `json:"articleNumbers"`
	ZoneCodes      []string      `json:"zoneCodes"`
	Neighborhoods  []string      `json:"neighborhoods"`
	Hierarchy      *HierarchyRef `json:"hierarchy,omitempty"`
}

// Context is the per-request analysis of a query.
type Context struct {
	RawQuery        string   `json:"rawQuery"`
	NormalizedQuery string   `json:"normalizedQuery"`
	Intent          Intent   `json:"intent"`
	Entities        Entities `json:"entities"`
	ExpandedTerms   []string `json:"expandedTerms"`
	// Concepts are the synonym groups the query touched.
	Concepts   []string `json:"concepts"`
	Parameters []string `json:"parameters"`

	Aggregate          *zoning.AggregateQuery `json:"aggregate,omitempty"`
	DocumentType       legal.DocumentType     `json:"documentType,omitempty"`
	Transitional       bool                   `json:"transitional"`
	NeedsClarification bool                   `json:"needsClarification"`
}

// HasConcept reports whether the query touched the named synonym group.
func (c *Context) HasConcept(concept string) bool {
	for _, k := range c.Concepts {
		if k == concept {
			return true
		}
	}
	return false
}

var (
	greetingRe     = regexp.MustCompile(`^(oi|ola|bom dia|boa tarde|boa noite|hello|hi|hey|e ai|tudo bem)\b`)
	articleRangeRe = regexp.MustCompile(`\b(?:arts?\.?|artigos?)\s*(\d+)\s*(?:a|ao|ate)\s*(\d+)\b`)
	articleListRe  = regexp.MustCompile(`\b(?:arts?\.?|artigos?)\s*(\d+(?:\s*(?:,|e)\s*\d+)*)`)
	digitsRe       = regexp.MustCompile(`\d+`)
	hierarchyRe    = regexp.MustCompile(`\b(titulo|capitulo|subsecao|secao)\s+([ivxlc]+|\d+)\b`)
	zoneRe         = regexp.MustCompile(`\bzot\s*-?\s*\d{1,2}(?:\s*\.\s*\d{1,2})?(?:\s*-\s*[a-e]\b)?`)
	countRe        = regexp.MustCompile(`\b(quantos|quantas|numero de|total de|contagem)\b`)
	averageRe      = regexp.MustCompile(`\b(media|medio)\b`)
	listRe         = regexp.MustCompile(`\b(liste|listar|lista|quais (?:os )?bairros)\b`)
	riskRe         = regexp.MustCompile(`\b(risco|riscos|inundacao|inundacoes|deslizamento|alagamento)\b`)
	addressRe      = regexp.MustCompile(`\b(rua|avenida|av\.|travessa|estrada|alameda)\s+\w+`)
)

// Analyzer classifies queries against a lexicon.
type Analyzer struct {
	lex *lexicon.Lexicon
}

// NewAnalyzer creates an analyzer over lex.
func NewAnalyzer(lex *lexicon.Lexicon) *Analyzer {
	return &Analyzer{lex: lex}
}

// Normalize lowercases, accent-folds and collapses whitespace.
func Normalize(raw string) string {
	return lexicon.Fold(raw)
}

// Analyze never fails: an empty or ambiguous query yields free_text with no entities.
func (a *Analyzer) Analyze(raw string) *Context {
	norm := Normalize(raw)
	qc := &Context{
		RawQuery:        raw,
		NormalizedQuery: norm,
		Entities: Entities{
			ArticleNumbers: []int{},
			ZoneCodes:      []string{},
			Neighborhoods:  []string{},
		},
		ExpandedTerms: []string{},
		Concepts:      []string{},
		Parameters:    []string{},
	}
	if norm == "" {
		qc.Intent = IntentFreeText
		return qc
	}

	qc.Entities.ArticleNumbers = articleNumbers(norm)
	qc.Entities.Hierarchy = hierarchyRef(norm)
	qc.Entities.ZoneCodes = zoneCodes(norm)
	qc.Entities.Neighborhoods = nonNil(a.lex.MatchNeighborhoods(norm))
	qc.ExpandedTerms, qc.Concepts = a.expand(norm)
	qc.Parameters = a.parameters(norm)
	qc.DocumentType = documentType(norm)
	qc.Transitional = strings.Contains(norm, "disposicoes transitorias")
	qc.Aggregate = aggregate(qc)
	qc.NeedsClarification = addressRe.MatchString(norm) &&
		len(qc.Entities.Neighborhoods) == 0 && len(qc.Entities.ZoneCodes) == 0

	qc.Intent = classify(qc)
	return qc
}

// classify applies the intent cascade in priority order.
func classify(qc *Context) Intent {
	norm := qc.NormalizedQuery
	place := len(qc.Entities.ZoneCodes) > 0 || len(qc.Entities.Neighborhoods) > 0
	cited := len(qc.Entities.ArticleNumbers) > 0 || qc.Entities.Hierarchy != nil
	if greetingRe.MatchString(norm) && len(strings.Fields(norm)) <= 4 && !place && !cited {
		return IntentGreeting
	}
	if len(qc.Entities.ArticleNumbers) > 0 {
		return IntentArticleLookup
	}
	if qc.Entities.Hierarchy != nil {
		return IntentHierarchyLookup
	}
	if place && len(qc.Parameters) > 0 {
		return IntentConstructionParameters
	}
	if place {
		return IntentZoneLookup
	}
	return IntentFreeText
}

func articleNumbers(norm string) []int {
	set := make(map[int]struct{})
	for _, m := range articleRangeRe.FindAllStringSubmatch(norm, -1) {
		start, _ := strconv.Atoi(m[1])
		end, _ := strconv.Atoi(m[2])
		if end < start {
			start, end = end, start
		}
		if end-start+1 > MaxArticleRange {
			end = start + MaxArticleRange - 1
		}
		for n := start; n <= end; n++ {
			set[n] = struct{}{}
		}
	}
	for _, m := range articleListRe.FindAllStringSubmatch(norm, -1) {
		for _, d := range digitsRe.FindAllString(m[1], -1) {
			n, _ := strconv.Atoi(d)
			if n > 0 {
				set[n] = struct{}{}
			}
		}
	}
	out := make([]int, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

func hierarchyRef(norm string) *HierarchyRef {
	m := hierarchyRe.FindStringSubmatch(norm)
	if m == nil {
		return nil
	}
	var t legal.ChunkType
	switch m[1] {
	case "titulo":
		t = legal.TypeTitle
	case "capitulo":
		t = legal.TypeChapter
	case "subsecao":
		t = legal.TypeSubsection
	default:
		t = legal.TypeSection
	}
	number := strings.ToUpper(m[2])
	if n, err := strconv.Atoi(m[2]); err == nil {
		number = legal.ToRoman(n)
	} else if legal.FromRoman(number) == 0 {
		return nil
	}
	return &HierarchyRef{Type: t, Number: number}
}

func zoneCodes(norm string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, raw := range zoneRe.FindAllString(norm, -1) {
		code, err := zoning.CanonicalZone(raw)
		if err != nil || seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, code)
	}
	return nonNil(out)
}

// expand adds every synonym of any matched group. The query text itself is untouched.
func (a *Analyzer) expand(norm string) (terms, concepts []string) {
	terms, concepts = []string{}, []string{}
	seen := make(map[string]bool)
	for _, g := range a.lex.Synonyms {
		if !matchesAny(norm, g.Terms) {
			continue
		}
		concepts = append(concepts, g.Concept)
		for _, t := range g.Terms {
			if !seen[t] {
				seen[t] = true
				terms = append(terms, t)
			}
		}
	}
	return terms, concepts
}

func (a *Analyzer) parameters(norm string) []string {
	out := []string{}
	for _, p := range a.lex.Parameters {
		if matchesAny(norm, p.Terms) {
			out = append(out, p.Name)
		}
	}
	return out
}

// matchesAny matches terms on word boundaries, allowing plural variants.
func matchesAny(norm string, terms []string) bool {
	for _, t := range terms {
		if lexicon.ContainsWord(norm, t) || lexicon.ContainsWord(norm, t+"s") || lexicon.ContainsWord(norm, t+"es") {
			return true
		}
	}
	return false
}

func documentType(norm string) legal.DocumentType {
	switch {
	case strings.Contains(norm, "pdus") || strings.Contains(norm, "plano diretor"):
		return legal.PDUS
	case strings.Contains(norm, "luos") || strings.Contains(norm, "lei de uso"):
		return legal.LUOS
	}
	return ""
}

// aggregate builds a structured aggregate request from the recognized entities.
func aggregate(qc *Context) *zoning.AggregateQuery {
	norm := qc.NormalizedQuery
	neighborhood := ""
	if len(qc.Entities.Neighborhoods) == 1 {
		neighborhood = qc.Entities.Neighborhoods[0]
	}
	zone := ""
	if len(qc.Entities.ZoneCodes) == 1 {
		zone = qc.Entities.ZoneCodes[0]
	}

	var q zoning.AggregateQuery
	switch {
	case averageRe.MatchString(norm) && len(qc.Parameters) > 0:
		q = zoning.AggregateQuery{Shape: zoning.ShapeAverageByNeighborhood, Parameter: qc.Parameters[0], Neighborhood: neighborhood, ZoneCode: zone}
	case countRe.MatchString(norm) && riskRe.MatchString(norm):
		q = zoning.AggregateQuery{Shape: zoning.ShapeCountByCategory, Category: zoning.CategoryRisk, Neighborhood: neighborhood}
	case countRe.MatchString(norm):
		q = zoning.AggregateQuery{Shape: zoning.ShapeCountByCategory, Category: zoning.CategoryZone, Neighborhood: neighborhood, ZoneCode: zone}
	case listRe.MatchString(norm) && zone != "":
		q = zoning.AggregateQuery{Shape: zoning.ShapeListByZone, ZoneCode: zone}
	default:
		return nil
	}
	if q.Validate() != nil {
		return nil
	}
	return &q
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
