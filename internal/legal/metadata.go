package legal

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"urbanlex/internal/lexicon"
)

// Reference patterns, matched against folded text.
var referencePatterns = []struct {
	re     *regexp.Regexp
	format func(m []string) string
}{
	{regexp.MustCompile(`\b(?:arts?\.?|artigos?)\s*(\d+)`), func(m []string) string { return "Art. " + m[1] }},
	{regexp.MustCompile(`§\s*(\d+)`), func(m []string) string { return "§ " + m[1] }},
	{regexp.MustCompile(`\binciso\s+([ivxlc]+|\d+)\b`), func(m []string) string { return "inciso " + strings.ToUpper(m[1]) }},
	{regexp.MustCompile(`\blei\s+(?:complementar\s+)?n[º°o]?\.?\s*([\d.]+\d)`), func(m []string) string { return "Lei nº " + m[1] }},
	{regexp.MustCompile(`\bzot\s*(\d+(?:\.\d+)?)`), func(m []string) string { return "ZOT " + m[1] }},
	{regexp.MustCompile(`\banexo\s*(\d+(?:\.\d+)?)`), func(m []string) string { return "Anexo " + m[1] }},
}

var bracketedQuestion = regexp.MustCompile(`\[([^\[\]]*\?)\]`)

// MetadataExtractor derives keywords, cross-references and flags from unit text.
type MetadataExtractor struct {
	lex *lexicon.Lexicon
}

// NewMetadataExtractor creates an extractor over lex.
func NewMetadataExtractor(lex *lexicon.Lexicon) *MetadataExtractor {
	return &MetadataExtractor{lex: lex}
}

// Extract computes metadata for text belonging to docType. Flags that docType
// does not permit are cleared.
func (e *MetadataExtractor) Extract(docType DocumentType, text string) Metadata {
	folded := lexicon.Fold(text)

	md := Metadata{
		Keywords:   e.keywords(text, folded),
		References: references(folded),
		Flags:      flags(folded),
	}
	md.Flags = mask(docType, md.Flags)
	return md
}

func (e *MetadataExtractor) keywords(raw, folded string) []string {
	set := make(map[string]struct{})
	for _, kw := range e.lex.Keywords {
		if lexicon.ContainsWord(folded, kw) {
			set[kw] = struct{}{}
		}
	}
	for _, m := range bracketedQuestion.FindAllStringSubmatch(raw, -1) {
		if q := lexicon.Fold(m[1]); q != "" {
			set[q] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for kw := range set {
		out = append(out, kw)
	}
	sort.Strings(out)
	return out
}

// references returns cross-citations in first-seen order without duplicates.
func references(folded string) []string {
	type hit struct {
		pos int
		ref string
	}
	var hits []hit
	for _, p := range referencePatterns {
		for _, idx := range p.re.FindAllStringSubmatchIndex(folded, -1) {
			m := make([]string, len(idx)/2)
			for i := range m {
				if idx[2*i] >= 0 {
					m[i] = folded[idx[2*i]:idx[2*i+1]]
				}
			}
			hits = append(hits, hit{pos: idx[0], ref: p.format(m)})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	seen := make(map[string]bool)
	refs := make([]string, 0, len(hits))
	for _, h := range hits {
		if seen[h.ref] {
			continue
		}
		seen[h.ref] = true
		refs = append(refs, h.ref)
	}
	return refs
}

func flags(folded string) Flags {
	return Flags{
		HasCertificationClause: strings.Contains(folded, "certificacao") &&
			(strings.Contains(folded, "sustentabilidade") || strings.Contains(folded, "ambiental")),
		ReferencesFourthDistrict: strings.Contains(folded, "4º distrito") ||
			strings.Contains(folded, "quarto distrito") ||
			(strings.Contains(folded, "zot 8.2") && strings.Contains(folded, "distrito")),
		HasHeightParameter: lexicon.ContainsWord(folded, "altura") || lexicon.ContainsWord(folded, "gabarito"),
		IsTransitional:     strings.Contains(folded, "disposicoes transitorias") || strings.Contains(folded, "transitoria"),
	}
}

func mask(docType DocumentType, f Flags) Flags {
	allowed := allowedFlags[docType]
	m := f.Map()
	for name := range m {
		if !contains(allowed, name) {
			m[name] = false
		}
	}
	out, err := FlagsFromMap(docType, m)
	if err != nil {
		// Only reachable with an unknown docType, which the chunker rejects up front.
		panic(fmt.Sprintf("legal: %v", err))
	}
	return out
}
