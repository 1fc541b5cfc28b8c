package storage

import (
	"errors"
	"time"

	"urbanlex/internal/legal"
)

// ErrNotFound is returned when a record is not found.
var ErrNotFound = errors.New("record not found")

// Document is the indexing record of one legal text.
type Document struct {
	Type      legal.DocumentType
	Source    string // file name or URL the text came from
	Hash      string // SHA256 hex string of the indexed text
	IndexedAt time.Time
}

// TextHit is a chunk matched by lexical search.
type TextHit struct {
	Chunk legal.Chunk
	Score float64 // matched terms / query terms
}

// Interaction is one logged question and answer.
type Interaction struct {
	ID         int64
	SessionID  string
	Query      string
	Response   string
	Confidence float64
	CreatedAt  time.Time
}
