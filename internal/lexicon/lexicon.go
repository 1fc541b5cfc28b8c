// Package lexicon holds the domain vocabulary shared by the chunker, the
// query analyzer and the scorer: neighborhood gazetteer, synonym groups with
// their boost weights, construction-parameter vocabulary and stopwords.
package lexicon

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

//go:embed lexicon.yaml
var defaultYAML []byte

// SynonymGroup is a set of interchangeable terms for one domain concept.
type SynonymGroup struct {
	Concept string   `yaml:"concept"`
	Weight  float64  `yaml:"weight"`
	Terms   []string `yaml:"terms"`
}

// Parameter is a construction parameter and the words that name it.
type Parameter struct {
	Name  string   `yaml:"name"`
	Terms []string `yaml:"terms"`
}

// Lexicon is the parsed vocabulary. All term slices hold folded text.
type Lexicon struct {
	Neighborhoods     []string       `yaml:"neighborhoods"`
	Synonyms          []SynonymGroup `yaml:"synonyms"`
	Parameters        []Parameter    `yaml:"parameters"`
	Keywords          []string       `yaml:"keywords"`
	ImportantKeywords []string       `yaml:"important_keywords"`
	GenericTerms      []string       `yaml:"generic_terms"`
	Stopwords         []string       `yaml:"stopwords"`

	// folded neighborhood -> display name, longest first
	gazetteer []gazetteerEntry
	stopwords map[string]struct{}
	generic   map[string]struct{}
}

type gazetteerEntry struct {
	folded string
	name   string
}

var (
	defaultOnce sync.Once
	defaultLex  *Lexicon
)

// Default returns the embedded lexicon. It panics if the embedded file is invalid,
// which the package tests guard against.
func Default() *Lexicon {
	defaultOnce.Do(func() {
		lex, err := Parse(defaultYAML)
		if err != nil {
			panic(fmt.Sprintf("lexicon: invalid embedded vocabulary: %v", err))
		}
		defaultLex = lex
	})
	return defaultLex
}

// Parse decodes and validates a lexicon document.
func Parse(data []byte) (*Lexicon, error) {
	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return nil, fmt.Errorf("failed to decode lexicon: %w", err)
	}
	if len(lex.Neighborhoods) == 0 {
		return nil, fmt.Errorf("lexicon has no neighborhoods")
	}

	for _, name := range lex.Neighborhoods {
		lex.gazetteer = append(lex.gazetteer, gazetteerEntry{folded: Fold(name), name: name})
	}
	sort.SliceStable(lex.gazetteer, func(i, j int) bool {
		return len(lex.gazetteer[i].folded) > len(lex.gazetteer[j].folded)
	})

	seenConcept := make(map[string]bool)
	for i := range lex.Synonyms {
		g := &lex.Synonyms[i]
		if g.Concept == "" || len(g.Terms) == 0 {
			return nil, fmt.Errorf("synonym group %d is incomplete", i)
		}
		if seenConcept[g.Concept] {
			return nil, fmt.Errorf("duplicate synonym concept %q", g.Concept)
		}
		seenConcept[g.Concept] = true
		if g.Weight <= 0 || g.Weight > 1 {
			return nil, fmt.Errorf("synonym group %q weight %v out of (0,1]", g.Concept, g.Weight)
		}
		g.Terms = foldAll(g.Terms)
	}
	for i := range lex.Parameters {
		lex.Parameters[i].Terms = foldAll(lex.Parameters[i].Terms)
	}
	lex.Keywords = foldAll(lex.Keywords)
	lex.ImportantKeywords = foldAll(lex.ImportantKeywords)
	lex.GenericTerms = foldAll(lex.GenericTerms)
	lex.Stopwords = foldAll(lex.Stopwords)

	lex.stopwords = toSet(lex.Stopwords)
	lex.generic = toSet(lex.GenericTerms)
	return &lex, nil
}

// Group returns the synonym group for concept.
func (l *Lexicon) Group(concept string) (SynonymGroup, bool) {
	for _, g := range l.Synonyms {
		if g.Concept == concept {
			return g, true
		}
	}
	return SynonymGroup{}, false
}

// IsStopword reports whether a folded token carries no meaning on its own.
func (l *Lexicon) IsStopword(token string) bool {
	_, ok := l.stopwords[token]
	return ok
}

// IsGeneric reports whether a folded token is boilerplate in this corpus.
func (l *Lexicon) IsGeneric(token string) bool {
	_, ok := l.generic[token]
	return ok
}

// MatchNeighborhoods finds gazetteer names in folded text, longest first.
// Each match consumes its span so a shorter name cannot match inside a longer one.
func (l *Lexicon) MatchNeighborhoods(folded string) []string {
	work := []rune(folded)
	var found []string
	for _, entry := range l.gazetteer {
		needle := []rune(entry.folded)
		for {
			idx := indexWord(work, needle)
			if idx < 0 {
				break
			}
			found = append(found, entry.name)
			for k := idx; k < idx+len(needle); k++ {
				work[k] = ' '
			}
		}
	}
	return dedupe(found)
}

// Tokens splits folded text into words, dropping stopwords and tokens shorter than minLen.
func (l *Lexicon) Tokens(folded string, minLen int) []string {
	fields := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != 'º'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) < minLen || l.IsStopword(f) {
			continue
		}
		out = append(out, f)
	}
	return dedupe(out)
}

// Fold lowercases s and strips diacritics. The ordinal indicator º is kept.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(strings.ToLower(out)), " ")
}

// ContainsWord reports whether needle occurs in haystack on word boundaries.
// Both arguments are expected to be folded.
func ContainsWord(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	return indexWord([]rune(haystack), []rune(needle)) >= 0
}

func indexWord(hay, needle []rune) int {
	if len(needle) == 0 || len(needle) > len(hay) {
		return -1
	}
	for i := 0; i+len(needle) <= len(hay); i++ {
		if !equalRunes(hay[i:i+len(needle)], needle) {
			continue
		}
		if i > 0 && isWordRune(hay[i-1]) {
			continue
		}
		if end := i + len(needle); end < len(hay) && isWordRune(hay[end]) {
			continue
		}
		return i
	}
	return -1
}

func equalRunes(a, b []rune) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func foldAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if f := Fold(s); f != "" {
			out = append(out, f)
		}
	}
	return dedupe(out)
}

func toSet(in []string) map[string]struct{} {
	set := make(map[string]struct{}, len(in))
	for _, s := range in {
		set[s] = struct{}{}
	}
	return set
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0:0]
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
