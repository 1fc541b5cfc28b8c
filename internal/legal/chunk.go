// Package legal segments legal documents into addressable units and extracts
// per-unit metadata.
package legal

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// DocumentType identifies the legal source a chunk belongs to.
type DocumentType string

const (
	// LUOS is the land-use and occupation law.
	LUOS DocumentType = "LUOS"
	// PDUS is the urban development master plan.
	PDUS DocumentType = "PDUS"
)

// ErrUnknownDocumentType is returned for document types outside the known set.
var ErrUnknownDocumentType = errors.New("unknown document type")

// ParseDocumentType validates s and returns the matching DocumentType.
func ParseDocumentType(s string) (DocumentType, error) {
	switch DocumentType(strings.ToUpper(strings.TrimSpace(s))) {
	case LUOS:
		return LUOS, nil
	case PDUS:
		return PDUS, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDocumentType, s)
}

// ChunkType is the structural kind of a chunk.
type ChunkType string

const (
	TypeTitle      ChunkType = "title"
	TypeChapter    ChunkType = "chapter"
	TypeSection    ChunkType = "section"
	TypeSubsection ChunkType = "subsection"
	TypeArticle    ChunkType = "article"
	TypeInciso     ChunkType = "inciso"
	TypeParagraph  ChunkType = "paragraph"
)

// Level returns the hierarchy depth of t. Lower is coarser.
// A paragraph sits between the article and its incisos, so incisos that follow
// a paragraph belong to it.
func (t ChunkType) Level() int {
	switch t {
	case TypeTitle:
		return 1
	case TypeChapter:
		return 2
	case TypeSection:
		return 3
	case TypeSubsection:
		return 4
	case TypeArticle:
		return 5
	case TypeParagraph:
		return 6
	case TypeInciso:
		return 7
	}
	return 0
}

// IsHierarchy reports whether t is a grouping unit above the article level.
func (t ChunkType) IsHierarchy() bool {
	return t.Level() >= 1 && t.Level() <= 4
}

// DisplayName is the Portuguese label used in answers.
func (t ChunkType) DisplayName() string {
	switch t {
	case TypeTitle:
		return "Título"
	case TypeChapter:
		return "Capítulo"
	case TypeSection:
		return "Seção"
	case TypeSubsection:
		return "Subseção"
	case TypeArticle:
		return "Art."
	case TypeInciso:
		return "Inciso"
	case TypeParagraph:
		return "§"
	}
	return string(t)
}

// ParseChunkType validates a stored chunk type.
func ParseChunkType(s string) (ChunkType, error) {
	t := ChunkType(s)
	if t.Level() == 0 {
		return "", fmt.Errorf("unknown chunk type %q", s)
	}
	return t, nil
}

// Chunk is one addressable unit of a legal document.
type Chunk struct {
	ID            string
	DocumentType  DocumentType
	Ordinal       int
	Type          ChunkType
	Number        string
	ArticleNumber int
	IncisoNumber  string
	ParentID      string
	Heading       string
	Text          string
	Metadata      Metadata
}

// Label renders the citation form of the chunk, e.g. "Art. 81 - III" or "Título II".
func (c *Chunk) Label() string {
	switch c.Type {
	case TypeArticle:
		return fmt.Sprintf("Art. %d", c.ArticleNumber)
	case TypeInciso:
		return fmt.Sprintf("Art. %d - %s", c.ArticleNumber, c.IncisoNumber)
	case TypeParagraph:
		if c.Number == "único" {
			return fmt.Sprintf("Art. %d, Parágrafo único", c.ArticleNumber)
		}
		return fmt.Sprintf("Art. %d, § %sº", c.ArticleNumber, c.Number)
	}
	if c.Number == "" {
		return string(c.DocumentType)
	}
	return fmt.Sprintf("%s %s", c.Type.DisplayName(), c.Number)
}

// Metadata is derived from chunk text at construction time.
type Metadata struct {
	Keywords   []string
	References []string
	Flags      Flags
}

// Flags are advisory boolean signals over the chunk text.
type Flags struct {
	HasCertificationClause   bool
	ReferencesFourthDistrict bool
	HasHeightParameter       bool
	IsTransitional           bool
}

// Flag names as persisted.
const (
	FlagCertification  = "hasCertificationClause"
	FlagFourthDistrict = "referencesFourthDistrict"
	FlagHeight         = "hasHeightParameter"
	FlagTransitional   = "isTransitional"
)

// ErrUnknownFlag is returned when decoding a flag name that does not exist.
var ErrUnknownFlag = errors.New("unknown flag")

// allowedFlags lists the flags each document type may carry. The fourth
// district is a LUOS construct.
var allowedFlags = map[DocumentType][]string{
	LUOS: {FlagCertification, FlagFourthDistrict, FlagHeight, FlagTransitional},
	PDUS: {FlagCertification, FlagHeight, FlagTransitional},
}

// Map returns the flags keyed by their persisted names.
func (f Flags) Map() map[string]bool {
	return map[string]bool{
		FlagCertification:  f.HasCertificationClause,
		FlagFourthDistrict: f.ReferencesFourthDistrict,
		FlagHeight:         f.HasHeightParameter,
		FlagTransitional:   f.IsTransitional,
	}
}

// FlagsFromMap decodes persisted flags for docType. Unknown names, and names
// not permitted for docType that are set to true, are rejected.
func FlagsFromMap(docType DocumentType, m map[string]bool) (Flags, error) {
	allowed, ok := allowedFlags[docType]
	if !ok {
		return Flags{}, fmt.Errorf("%w: %q", ErrUnknownDocumentType, docType)
	}
	var f Flags
	for name, v := range m {
		switch name {
		case FlagCertification:
			f.HasCertificationClause = v
		case FlagFourthDistrict:
			f.ReferencesFourthDistrict = v
		case FlagHeight:
			f.HasHeightParameter = v
		case FlagTransitional:
			f.IsTransitional = v
		default:
			return Flags{}, fmt.Errorf("%w: %q", ErrUnknownFlag, name)
		}
		if v && !contains(allowed, name) {
			return Flags{}, fmt.Errorf("flag %q is not valid for %s", name, docType)
		}
	}
	return f, nil
}

// Validate checks the flags against docType.
func (f Flags) Validate(docType DocumentType) error {
	_, err := FlagsFromMap(docType, f.Map())
	return err
}

// Names returns the names of the flags that are set, sorted.
func (f Flags) Names() []string {
	var names []string
	for name, v := range f.Map() {
		if v {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
