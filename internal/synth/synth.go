// Package synth turns a ranking into the final answer text. Every number in an
// answer comes from a stored chunk or zoning row; nothing is generated.
package synth

import (
	"strings"

	"urbanlex/internal/query"
	"urbanlex/internal/scoring"
	"urbanlex/internal/tools"
)

// Kind is the template or fallback that produced an answer.
type Kind string

const (
	KindCertification Kind = "certification_clause"
	KindSubDistrict   Kind = "sub_district_rule"
	KindArticle       Kind = "article_citation"
	KindZone          Kind = "zone_parameters"
	KindAggregate     Kind = "aggregate_result"
	KindGeneric       Kind = "generic"

	KindGreeting      Kind = "greeting"
	KindNotFound      Kind = "not_found"
	KindNoResults     Kind = "no_results"
	KindLowConfidence Kind = "low_confidence"
	KindClarification Kind = "clarification"
)

// IsFallback reports whether k is one of the fallback messages.
func (k Kind) IsFallback() bool {
	switch k {
	case KindNotFound, KindNoResults, KindLowConfidence, KindClarification:
		return true
	}
	return false
}

// DefaultMinConfidence is the confidence below which no template is used.
const DefaultMinConfidence = 0.35

const (
	maxSources  = 5
	maxExcerpts = 3
	excerptLen  = 300
	missing     = "não informado"
)

// Answer is the synthesized response.
type Answer struct {
	Text       string
	Kind       Kind
	Confidence float64
	Sources    []string
}

// Synthesizer picks a template from the winning candidate, or a fallback.
type Synthesizer struct {
	minConfidence float64
}

// NewSynthesizer creates a synthesizer. A non-positive minConfidence uses DefaultMinConfidence.
func NewSynthesizer(minConfidence float64) *Synthesizer {
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}
	return &Synthesizer{minConfidence: minConfidence}
}

// Synthesize renders the answer for a ranking. notFound is set when a cited
// hierarchy unit or article does not exist; when other citations were found it
// is appended to the rendered answer.
func (s *Synthesizer) Synthesize(qc *query.Context, ranked []scoring.RankedResult, confidence float64, notFound *tools.NotFound) Answer {
	switch {
	case qc.Intent == query.IntentGreeting:
		return Answer{Text: greetingText, Kind: KindGreeting, Confidence: 1, Sources: []string{}}
	case qc.NeedsClarification:
		return fallback(KindClarification, clarificationText, confidence)
	case len(ranked) == 0 && notFound != nil:
		return fallback(KindNotFound, notFoundText(notFound), 0)
	case len(ranked) == 0:
		return fallback(KindNoResults, noResultsText, 0)
	case confidence < s.minConfidence:
		return fallback(KindLowConfidence, lowConfidenceText, confidence)
	}

	kind, body := render(qc, ranked)
	sources := sourceLabels(kind, ranked)
	text := body
	if notFound != nil {
		text += "\n\n" + notFoundText(notFound)
	}
	if len(sources) > 0 {
		text += "\n\nFontes: " + strings.Join(sources, ", ")
	}
	return Answer{Text: text, Kind: kind, Confidence: confidence, Sources: sources}
}

func fallback(kind Kind, text string, confidence float64) Answer {
	return Answer{Text: text, Kind: kind, Confidence: confidence, Sources: []string{}}
}

// render selects the template from the winning candidate.
func render(qc *query.Context, ranked []scoring.RankedResult) (Kind, string) {
	top := ranked[0]
	switch {
	case top.Aggregate != nil:
		return KindAggregate, aggregateText(top.Aggregate)
	case top.Chunk != nil && top.Chunk.Metadata.Flags.HasCertificationClause:
		return KindCertification, certificationText(top.Chunk)
	case top.Chunk != nil && top.Chunk.Metadata.Flags.ReferencesFourthDistrict:
		return KindSubDistrict, subDistrictText(top.Chunk)
	case top.Zone != nil:
		return KindZone, zoneText(qc, ranked)
	case top.Chunk != nil && top.Chunk.ArticleNumber > 0:
		return KindArticle, articleText(ranked)
	}
	return KindGeneric, genericText(ranked)
}

// sourceLabels lists up to maxSources unique labels in rank order, keeping
// only candidates of the sort the kind's template renders.
func sourceLabels(kind Kind, ranked []scoring.RankedResult) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, r := range ranked {
		if !rendered(kind, r) {
			continue
		}
		label := r.Label()
		if label == "" || seen[label] {
			continue
		}
		seen[label] = true
		out = append(out, label)
		if len(out) == maxSources {
			break
		}
	}
	return out
}

func rendered(kind Kind, r scoring.RankedResult) bool {
	switch kind {
	case KindZone:
		return r.Zone != nil
	case KindAggregate:
		return r.Aggregate != nil
	case KindCertification, KindSubDistrict, KindArticle:
		return r.Chunk != nil
	}
	return r.Text() != ""
}
