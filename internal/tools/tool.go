// Package tools holds the retrieval strategies a query can be routed to and
// the router that runs them.
package tools

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_embedder.go -package=mocks urbanlex/internal/tools Embedder

import (
	"context"
	"errors"
	"fmt"

	"urbanlex/internal/legal"
	"urbanlex/internal/query"
	"urbanlex/internal/zoning"
)

// ToolID identifies a tool. The numeric order is the tie-break priority.
type ToolID int

const (
	ArticleSearch ToolID = iota
	ZOTSearch
	HierarchyNavigator
	SQLGenerator
)

// AllTools lists every tool in priority order.
var AllTools = []ToolID{ArticleSearch, ZOTSearch, HierarchyNavigator, SQLGenerator}

func (id ToolID) String() string {
	switch id {
	case ArticleSearch:
		return "ArticleSearchTool"
	case ZOTSearch:
		return "ZOTSearchTool"
	case HierarchyNavigator:
		return "HierarchyNavigatorTool"
	case SQLGenerator:
		return "SQLGeneratorTool"
	}
	return fmt.Sprintf("ToolID(%d)", int(id))
}

// Capabilities maps each intent to the tools that serve it, in priority order.
var Capabilities = map[query.Intent][]ToolID{
	query.IntentGreeting:               {},
	query.IntentArticleLookup:          {ArticleSearch},
	query.IntentHierarchyLookup:        {HierarchyNavigator},
	query.IntentZoneLookup:             {ZOTSearch, SQLGenerator},
	query.IntentConstructionParameters: {ZOTSearch, ArticleSearch, SQLGenerator},
	query.IntentFreeText:               {ArticleSearch, ZOTSearch, SQLGenerator},
}

var (
	// ErrToolTimeout is attached to results of tools that ran out of time.
	ErrToolTimeout = errors.New("tool timed out")
	// ErrTool wraps any failure inside a tool.
	ErrTool = errors.New("tool failed")
)

// Status is the outcome of one tool run.
type Status string

const (
	StatusOK      Status = "ok"
	StatusNoMatch Status = "no_match"
	StatusError   Status = "error"
)

// Candidate is one retrieved item. Exactly one of Chunk, Zone and Aggregate is set.
type Candidate struct {
	Chunk     *legal.Chunk
	Zone      *zoning.Row
	Aggregate *zoning.AggregateResult

	RawSimilarity float64
	Source        ToolID
	ExactMatch    bool
}

// Key identifies the underlying item, for de-duplication across tools.
func (c Candidate) Key() string {
	switch {
	case c.Chunk != nil:
		return "chunk:" + c.Chunk.ID
	case c.Zone != nil:
		return "zone:" + c.Zone.Neighborhood + "|" + c.Zone.ZoneCode
	case c.Aggregate != nil:
		return "aggregate:" + string(c.Aggregate.Query.Shape)
	}
	return ""
}

// Label is the citation shown in the sources list.
func (c Candidate) Label() string {
	switch {
	case c.Chunk != nil:
		label := c.Chunk.Label()
		if c.Chunk.DocumentType != "" {
			label += " (" + string(c.Chunk.DocumentType) + ")"
		}
		return label
	case c.Zone != nil:
		return c.Zone.ZoneCode + " - " + c.Zone.Neighborhood
	case c.Aggregate != nil:
		return "Regime urbanístico"
	}
	return ""
}

// Text is the searchable text of the candidate.
func (c Candidate) Text() string {
	switch {
	case c.Chunk != nil:
		return c.Chunk.Text
	case c.Zone != nil:
		return c.Zone.Neighborhood + " " + c.Zone.ZoneCode
	}
	return ""
}

// ArticleNumber is the cited article, or 0.
func (c Candidate) ArticleNumber() int {
	if c.Chunk != nil {
		return c.Chunk.ArticleNumber
	}
	return 0
}

// NotFound describes cited units (hierarchy units or articles) that do not exist.
type NotFound struct {
	Kind      legal.ChunkType `json:"kind"`
	Requested []string        `json:"requested"`
	// Ranges holds one entry per searched document that has units of Kind.
	Ranges []ValidRange `json:"ranges"`
}

// ValidRange lists the numbers of a unit kind present in one document.
type ValidRange struct {
	Document legal.DocumentType `json:"document"`
	Valid    []string           `json:"valid"`
}

// Result is what one tool produced.
type Result struct {
	Tool       ToolID
	Status     Status
	Candidates []Candidate
	NotFound   *NotFound
	Err        error
}

// Tool is one retrieval strategy.
type Tool interface {
	ID() ToolID
	// Run must honor ctx cancellation and never panic on its own inputs.
	Run(ctx context.Context, qc *query.Context) Result
}

// Embedder turns a query into a vector.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

func ok(id ToolID, cands []Candidate) Result {
	if len(cands) == 0 {
		return Result{Tool: id, Status: StatusNoMatch, Candidates: []Candidate{}}
	}
	return Result{Tool: id, Status: StatusOK, Candidates: cands}
}

func failed(id ToolID, err error) Result {
	return Result{Tool: id, Status: StatusError, Candidates: []Candidate{}, Err: fmt.Errorf("%w: %s: %w", ErrTool, id, err)}
}
