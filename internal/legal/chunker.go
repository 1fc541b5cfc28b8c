package legal

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"urbanlex/internal/lexicon"
)

// chunkNamespace seeds the deterministic chunk IDs.
var chunkNamespace = uuid.MustParse("6f1c9a3e-2b7d-5c41-9e0a-8d4f7b2c1a90")

var (
	articleRe   = regexp.MustCompile(`^(?i:art)\.?\s*(\d+)(?:\s*[º°]\s*\.?|\s*\.|\s*[-–—]|$)\s*(?:[-–—]\s*)?(.*)$`)
	incisoRe    = regexp.MustCompile(`^([IVXLC]+)\s*(?:\.\s*--|[-–—]+)\s*(.*)$`)
	paragraphRe = regexp.MustCompile(`^§\s*(\d+)\s*[º°]?\s*\.?\s*(?:[-–—]\s*)?(.*)$`)
	soleParaRe  = regexp.MustCompile(`^(?i:par[áa]grafo\s+[úu]nico)\s*\.?\s*(?:[-–—]\s*)?(.*)$`)
	hierarchyRe = regexp.MustCompile(`^(?i:(t[íi]tulo|cap[íi]tulo|subse[çc][ãa]o|se[çc][ãa]o))\s+([IVXLC]+|\d+)\b\.?\s*(?:[-–—]\s*)?(.*)$`)
)

// ParseFailure reports that no structural marker was found; the whole text was
// emitted as a single root chunk.
type ParseFailure struct {
	DocumentType DocumentType
	Lines        int
}

func (e *ParseFailure) Error() string {
	return fmt.Sprintf("no structural marker found in %s document (%d lines); emitted as a single chunk", e.DocumentType, e.Lines)
}

// Result is the output of one chunking pass.
type Result struct {
	Chunks []Chunk
	// Preamble holds the text before the first structural marker.
	Preamble string
	// Warnings are recoverable problems such as *ParseFailure.
	Warnings []error
}

// Chunker segments legal text into a hierarchy of chunks.
type Chunker struct {
	extractor *MetadataExtractor
}

// NewChunker creates a chunker that extracts metadata with lex.
func NewChunker(lex *lexicon.Lexicon) *Chunker {
	return &Chunker{extractor: NewMetadataExtractor(lex)}
}

// marker is a structural header recognized on a line.
type marker struct {
	typ    ChunkType
	number string
	rest   string
}

// openUnit is a chunk under construction.
type openUnit struct {
	chunk  Chunk
	parent int
	path   string
	body   []string
}

// foldState is threaded through the line fold. stack holds indexes into units
// for the currently open ancestors, coarsest first.
type foldState struct {
	units       []openUnit
	stack       []int
	preamble    []string
	lastArticle int
}

// Chunk segments text. It only fails for an unknown document type; malformed
// text degrades to a single chunk with a *ParseFailure warning.
func (c *Chunker) Chunk(docType DocumentType, text string) (Result, error) {
	if _, ok := allowedFlags[docType]; !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownDocumentType, docType)
	}

	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	state := foldState{}
	for _, line := range lines {
		state = step(state, line)
	}

	res := Result{Preamble: strings.TrimSpace(strings.Join(state.preamble, "\n"))}

	if len(state.units) == 0 {
		whole := strings.TrimSpace(text)
		if whole == "" {
			return res, nil
		}
		root := Chunk{
			DocumentType: docType,
			Type:         TypeTitle,
			Text:         whole,
		}
		root.ID = chunkID(docType, 0, "root")
		root.Metadata = c.extractor.Extract(docType, whole)
		res.Chunks = []Chunk{root}
		res.Preamble = ""
		res.Warnings = append(res.Warnings, &ParseFailure{DocumentType: docType, Lines: len(lines)})
		return res, nil
	}

	ids := make([]string, len(state.units))
	for i, u := range state.units {
		ids[i] = chunkID(docType, i, u.path)
	}

	res.Chunks = make([]Chunk, 0, len(state.units))
	for i, u := range state.units {
		ch := u.chunk
		ch.ID = ids[i]
		ch.DocumentType = docType
		ch.Ordinal = i
		if u.parent >= 0 {
			ch.ParentID = ids[u.parent]
		}
		ch.Text = strings.TrimSpace(strings.Join(u.body, "\n"))
		if ch.Type.IsHierarchy() {
			ch.Heading = heading(ch.Type, ch.Number, u.body)
		}
		ch.Metadata = c.extractor.Extract(docType, ch.Text)
		res.Chunks = append(res.Chunks, ch)
	}
	return res, nil
}

// step consumes one line and returns the next state.
func step(s foldState, line string) foldState {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return s
	}

	m, ok := parseMarker(trimmed)
	if ok && m.typ == TypeArticle {
		n, _ := strconv.Atoi(m.number)
		if n < s.lastArticle {
			// A lower article number is a quotation inside the current unit.
			ok = false
		}
	}
	if ok && m.typ.Level() > TypeArticle.Level() && !articleOpen(s) {
		// Incisos and paragraphs need an enclosing article.
		ok = false
	}

	if !ok {
		if len(s.stack) == 0 {
			s.preamble = append(s.preamble, trimmed)
			return s
		}
		top := s.stack[len(s.stack)-1]
		s.units[top].body = append(s.units[top].body, trimmed)
		return s
	}

	level := m.typ.Level()
	stack := s.stack
	for len(stack) > 0 && s.units[stack[len(stack)-1]].chunk.Type.Level() >= level {
		stack = stack[:len(stack)-1]
	}

	unit := openUnit{chunk: Chunk{Type: m.typ, Number: m.number}, parent: -1}
	parentPath := ""
	if len(stack) > 0 {
		parent := stack[len(stack)-1]
		unit.parent = parent
		parentPath = s.units[parent].path
		unit.chunk.ArticleNumber = s.units[parent].chunk.ArticleNumber
	}
	unit.path = parentPath + "/" + string(m.typ) + ":" + m.number

	switch m.typ {
	case TypeArticle:
		n, _ := strconv.Atoi(m.number)
		unit.chunk.ArticleNumber = n
		s.lastArticle = n
	case TypeInciso:
		unit.chunk.IncisoNumber = m.number
	}
	if m.typ.IsHierarchy() {
		unit.chunk.ArticleNumber = 0
	}
	if m.rest != "" {
		unit.body = []string{m.rest}
	}

	s.units = append(s.units, unit)
	s.stack = append(stack[:len(stack):len(stack)], len(s.units)-1)
	return s
}

func articleOpen(s foldState) bool {
	for _, idx := range s.stack {
		if s.units[idx].chunk.Type == TypeArticle {
			return true
		}
	}
	return false
}

func parseMarker(line string) (marker, bool) {
	if m := articleRe.FindStringSubmatch(line); m != nil {
		return marker{typ: TypeArticle, number: m[1], rest: m[2]}, true
	}
	if m := incisoRe.FindStringSubmatch(line); m != nil {
		return marker{typ: TypeInciso, number: m[1], rest: m[2]}, true
	}
	if m := paragraphRe.FindStringSubmatch(line); m != nil {
		return marker{typ: TypeParagraph, number: m[1], rest: m[2]}, true
	}
	if m := soleParaRe.FindStringSubmatch(line); m != nil {
		return marker{typ: TypeParagraph, number: "único", rest: m[1]}, true
	}
	if m := hierarchyRe.FindStringSubmatch(line); m != nil {
		return marker{typ: hierarchyType(m[1]), number: romanize(m[2]), rest: m[3]}, true
	}
	return marker{}, false
}

func hierarchyType(word string) ChunkType {
	switch lexicon.Fold(word) {
	case "titulo":
		return TypeTitle
	case "capitulo":
		return TypeChapter
	case "subsecao":
		return TypeSubsection
	}
	return TypeSection
}

func heading(t ChunkType, number string, body []string) string {
	label := strings.ToUpper(t.DisplayName()) + " " + number
	if len(body) > 0 {
		return label + " - " + body[0]
	}
	return label
}

func chunkID(docType DocumentType, ordinal int, path string) string {
	return uuid.NewSHA1(chunkNamespace, []byte(fmt.Sprintf("%s|%d|%s", docType, ordinal, path))).String()
}

// romanize converts an arabic hierarchy number to roman numerals; roman input is
// returned upper-cased.
func romanize(s string) string {
	n, err := strconv.Atoi(s)
	if err != nil {
		return strings.ToUpper(s)
	}
	return ToRoman(n)
}

// ToRoman renders n (1..3999) as a roman numeral. Other values render as decimal.
func ToRoman(n int) string {
	if n <= 0 || n >= 4000 {
		return strconv.Itoa(n)
	}
	vals := []int{1000, 900, 500, 400, 100, 90, 50, 40, 10, 9, 5, 4, 1}
	syms := []string{"M", "CM", "D", "CD", "C", "XC", "L", "XL", "X", "IX", "V", "IV", "I"}
	var b strings.Builder
	for i, v := range vals {
		for n >= v {
			b.WriteString(syms[i])
			n -= v
		}
	}
	return b.String()
}

// FromRoman parses a roman numeral. It returns 0 for invalid input.
func FromRoman(s string) int {
	vals := map[rune]int{'I': 1, 'V': 5, 'X': 10, 'L': 50, 'C': 100, 'D': 500, 'M': 1000}
	s = strings.ToUpper(s)
	total, prev := 0, 0
	for i := len(s) - 1; i >= 0; i-- {
		v, ok := vals[rune(s[i])]
		if !ok {
			return 0
		}
		if v < prev {
			total -= v
		} else {
			total += v
			prev = v
		}
	}
	if ToRoman(total) != s {
		return 0
	}
	return total
}
