package tools

import (
	"context"

	"urbanlex/internal/query"
	"urbanlex/internal/storage"
)

const supportSimilarity = 0.8

// ZOTSearchTool looks up construction parameters by neighborhood and zone code.
type ZOTSearchTool struct {
	zones storage.ZoneStore
}

func NewZOTSearch(zones storage.ZoneStore) *ZOTSearchTool {
	return &ZOTSearchTool{zones: zones}
}

func (t *ZOTSearchTool) ID() ToolID { return ZOTSearch }

func (t *ZOTSearchTool) Run(ctx context.Context, qc *query.Context) Result {
	if len(qc.Entities.Neighborhoods) == 0 && len(qc.Entities.ZoneCodes) == 0 {
		return ok(ZOTSearch, nil)
	}
	rows, err := t.zones.Find(ctx, qc.Entities.Neighborhoods, qc.Entities.ZoneCodes)
	if err != nil {
		return failed(ZOTSearch, err)
	}

	// Rows only support an answer when the query asked for an aggregate.
	sim, exact := 1.0, true
	if qc.Aggregate != nil {
		sim, exact = supportSimilarity, false
	}
	cands := make([]Candidate, 0, len(rows))
	for i := range rows {
		if !hasAny(rows[i].Has, qc.Parameters) {
			continue
		}
		cands = append(cands, Candidate{Zone: &rows[i], RawSimilarity: sim, Source: ZOTSearch, ExactMatch: exact})
	}
	return ok(ZOTSearch, cands)
}

// hasAny is true when no parameters were asked or at least one is present.
func hasAny(has func(string) bool, params []string) bool {
	if len(params) == 0 {
		return true
	}
	for _, p := range params {
		if has(p) {
			return true
		}
	}
	return false
}

// SQLGeneratorTool runs the structured aggregate recognized in the query.
type SQLGeneratorTool struct {
	zones storage.ZoneStore
}

func NewSQLGenerator(zones storage.ZoneStore) *SQLGeneratorTool {
	return &SQLGeneratorTool{zones: zones}
}

func (t *SQLGeneratorTool) ID() ToolID { return SQLGenerator }

func (t *SQLGeneratorTool) Run(ctx context.Context, qc *query.Context) Result {
	if qc.Aggregate == nil {
		return ok(SQLGenerator, nil)
	}
	res, err := t.zones.Aggregate(ctx, *qc.Aggregate)
	if err != nil {
		return failed(SQLGenerator, err)
	}
	if res == nil || len(res.Rows) == 0 {
		return ok(SQLGenerator, nil)
	}
	return ok(SQLGenerator, []Candidate{{Aggregate: res, RawSimilarity: 1, Source: SQLGenerator, ExactMatch: true}})
}
