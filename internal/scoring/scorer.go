// Package scoring re-ranks tool candidates with domain-aware boosts.
package scoring

import (
	"math"
	"sort"
	"strings"

	"urbanlex/internal/legal"
	"urbanlex/internal/lexicon"
	"urbanlex/internal/query"
	"urbanlex/internal/tools"
)

const (
	exactMatchBoost       = 1.5
	certificationBoost    = 1.8
	fourthDistrictBoost   = 2.0
	incisoBoost           = 1.3
	importantKeywordBoost = 1.2

	genericPenalty   = 0.3
	shortTextPenalty = 0.1
	shortTextRunes   = 30

	// fourthDistrictArticle is the LUOS article that carries the 4th District rules.
	fourthDistrictArticle = 74

	conceptCertification  = "certification"
	conceptFourthDistrict = "fourth_district"
)

// Factor is one named multiplier or penalty applied to a candidate.
type Factor struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// RankedResult is a candidate with its final score and the factors behind it.
type RankedResult struct {
	tools.Candidate
	BoostedScore float64
	Boosts       []Factor
	Penalties    []Factor
}

// Scorer applies the exact-match, term-group, flag and penalty factors.
type Scorer struct {
	lex *lexicon.Lexicon
}

// NewScorer creates a scorer over lex.
func NewScorer(lex *lexicon.Lexicon) *Scorer {
	return &Scorer{lex: lex}
}

// Rank scores and orders candidates. Candidates for the same item are merged,
// keeping the first source and the best raw score. The confidence is the top
// score, or 0 when there is nothing to rank.
func (s *Scorer) Rank(qc *query.Context, cands []tools.Candidate) ([]RankedResult, float64) {
	cands = merge(cands)
	if len(cands) == 0 {
		return []RankedResult{}, 0
	}

	sig := s.querySignals(qc)
	ranked := make([]RankedResult, 0, len(cands))
	for _, c := range cands {
		ranked = append(ranked, s.score(qc, sig, c))
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.BoostedScore != b.BoostedScore {
			return a.BoostedScore > b.BoostedScore
		}
		if a.ExactMatch != b.ExactMatch {
			return a.ExactMatch
		}
		if a.ArticleNumber() != b.ArticleNumber() {
			return a.ArticleNumber() < b.ArticleNumber()
		}
		return a.Source < b.Source
	})
	return ranked, ranked[0].BoostedScore
}

// signals are the per-query values shared by every candidate.
type signals struct {
	terms     []string
	tokens    []string
	groups    []groupSignal
	important []string
}

type groupSignal struct {
	concept string
	weight  float64
	terms   []string
	inQuery int
}

func (s *Scorer) querySignals(qc *query.Context) signals {
	var sig signals
	sig.tokens = s.lex.Tokens(qc.NormalizedQuery, 3)
	sig.terms = dedupe(append(append([]string{}, sig.tokens...), qc.ExpandedTerms...))

	for _, concept := range qc.Concepts {
		g, ok := s.lex.Group(concept)
		if !ok {
			continue
		}
		n := 0
		for _, t := range g.Terms {
			if lexicon.ContainsWord(qc.NormalizedQuery, t) {
				n++
			}
		}
		if n == 0 {
			n = 1
		}
		sig.groups = append(sig.groups, groupSignal{concept: concept, weight: g.Weight, terms: g.Terms, inQuery: n})
	}

	for _, k := range s.lex.ImportantKeywords {
		if strings.Contains(qc.NormalizedQuery, k) {
			sig.important = append(sig.important, k)
		}
	}
	return sig
}

func (s *Scorer) score(qc *query.Context, sig signals, c tools.Candidate) RankedResult {
	r := RankedResult{Candidate: c, Boosts: []Factor{}, Penalties: []Factor{}}
	text := lexicon.Fold(c.Text())

	base := c.RawSimilarity
	if c.ExactMatch {
		base = 1
	}
	product := 1.0
	boost := func(name string, v float64) {
		r.Boosts = append(r.Boosts, Factor{Name: name, Value: v})
		product *= v
	}

	if citedExactly(qc, c) {
		boost("exact_match", exactMatchBoost)
	}

	domainHit := false
	for _, g := range sig.groups {
		hits := 0
		for _, t := range g.terms {
			if lexicon.ContainsWord(text, t) {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		domainHit = true
		ratio := math.Min(1, float64(hits)/float64(g.inQuery))
		boost("group:"+g.concept, 1+g.weight*ratio)
	}

	termHits := 0
	var matchedTokens []string
	for _, t := range sig.terms {
		if lexicon.ContainsWord(text, t) {
			termHits++
		}
	}
	for _, t := range sig.tokens {
		if lexicon.ContainsWord(text, t) {
			matchedTokens = append(matchedTokens, t)
		}
	}

	if ch := c.Chunk; ch != nil {
		flags := ch.Metadata.Flags
		if flags.HasCertificationClause && qc.HasConcept(conceptCertification) {
			boost("certification", certificationBoost)
		}
		if flags.ReferencesFourthDistrict && qc.HasConcept(conceptFourthDistrict) && ch.ArticleNumber == fourthDistrictArticle {
			boost("fourth_district", fourthDistrictBoost)
		}
		if ch.Type == legal.TypeInciso && termHits > 0 {
			boost("inciso", incisoBoost)
		}
	}
	for _, k := range sig.important {
		if strings.Contains(text, k) {
			boost("important_keyword", importantKeywordBoost)
			break
		}
	}

	penalties := 0.0
	if !domainHit && len(matchedTokens) > 0 && s.allGeneric(matchedTokens) {
		r.Penalties = append(r.Penalties, Factor{Name: "generic", Value: genericPenalty})
		penalties += genericPenalty
	}
	if !c.ExactMatch && c.Aggregate == nil && len([]rune(strings.TrimSpace(c.Text()))) < shortTextRunes {
		r.Penalties = append(r.Penalties, Factor{Name: "short_text", Value: shortTextPenalty})
		penalties += shortTextPenalty
	}

	r.BoostedScore = clamp(math.Min(1, base*product-penalties))
	return r
}

func (s *Scorer) allGeneric(tokens []string) bool {
	for _, t := range tokens {
		if !s.lex.IsGeneric(t) {
			return false
		}
	}
	return true
}

// citedExactly reports whether the candidate is the article or zone the query names.
func citedExactly(qc *query.Context, c tools.Candidate) bool {
	switch {
	case c.Chunk != nil && c.Chunk.ArticleNumber > 0:
		for _, n := range qc.Entities.ArticleNumbers {
			if n == c.Chunk.ArticleNumber {
				return true
			}
		}
	case c.Zone != nil:
		return containsString(qc.Entities.ZoneCodes, c.Zone.ZoneCode)
	case c.Aggregate != nil && c.Aggregate.Query.ZoneCode != "":
		return containsString(qc.Entities.ZoneCodes, c.Aggregate.Query.ZoneCode)
	}
	return false
}

// merge folds duplicates into the first occurrence.
func merge(cands []tools.Candidate) []tools.Candidate {
	index := make(map[string]int, len(cands))
	out := make([]tools.Candidate, 0, len(cands))
	for _, c := range cands {
		key := c.Key()
		if key == "" {
			continue
		}
		if i, ok := index[key]; ok {
			if c.RawSimilarity > out[i].RawSimilarity {
				out[i].RawSimilarity = c.RawSimilarity
			}
			out[i].ExactMatch = out[i].ExactMatch || c.ExactMatch
			continue
		}
		index[key] = len(out)
		out = append(out, c)
	}
	return out
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
