// Package rag runs the retrieval pipeline: analysis, tool routing, ranking and
// template synthesis, with an optional response cache in front.
package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_engine.go -package=mocks urbanlex/internal/rag Engine

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"urbanlex/internal/cache"
	"urbanlex/internal/contextutil"
	"urbanlex/internal/query"
	"urbanlex/internal/scoring"
	"urbanlex/internal/storage"
	"urbanlex/internal/synth"
	"urbanlex/internal/tools"
)

// DefaultModel is used when a request names no model.
const DefaultModel = "default"

// Engine answers questions about the municipal legislation.
type Engine interface {
	// Ask runs the pipeline for one question. Tool failures degrade the answer;
	// only a failure of the pipeline itself is returned as an error.
	Ask(ctx context.Context, req Request) (Response, error)
}

// InteractionRecorder appends answered questions to the session log.
type InteractionRecorder interface {
	Record(ctx context.Context, in *storage.Interaction) error
}

// Options wires the engine's stages.
type Options struct {
	Analyzer    *query.Analyzer
	Router      *tools.Router
	Scorer      *scoring.Scorer
	Synthesizer *synth.Synthesizer

	// Cache defaults to cache.Nop.
	Cache              cache.Cache
	CacheMinConfidence float64

	// Interactions is optional.
	Interactions InteractionRecorder
	DefaultModel string
}

type ragEngine struct {
	analyzer     *query.Analyzer
	router       *tools.Router
	scorer       *scoring.Scorer
	synth        *synth.Synthesizer
	cache        cache.Cache
	cacheMin     float64
	interactions InteractionRecorder
	defaultModel string
	now          func() time.Time
}

// NewEngine creates a new engine.
func NewEngine(opts Options) Engine {
	c := opts.Cache
	if c == nil {
		c = cache.Nop{}
	}
	model := opts.DefaultModel
	if model == "" {
		model = DefaultModel
	}
	return &ragEngine{
		analyzer:     opts.Analyzer,
		router:       opts.Router,
		scorer:       opts.Scorer,
		synth:        opts.Synthesizer,
		cache:        c,
		cacheMin:     opts.CacheMinConfidence,
		interactions: opts.Interactions,
		defaultModel: model,
		now:          time.Now,
	}
}

// Ask answers a question.
func (e *ragEngine) Ask(ctx context.Context, req Request) (resp Response, err error) {
	logger := contextutil.LoggerFromContext(ctx)
	defer func() {
		if p := recover(); p != nil {
			logger.ErrorContext(ctx, "pipeline panicked", "panic", p, "stack", string(debug.Stack()))
			resp, err = Response{}, fmt.Errorf("%w: %v", ErrInternal, p)
		}
	}()

	model := req.Model
	if model == "" {
		model = e.defaultModel
	}
	key := cache.Key(query.Normalize(req.Query), model, req.BypassCache)

	if !req.BypassCache {
		entry, ok, err := e.cache.Get(ctx, key)
		if err != nil {
			logger.WarnContext(ctx, "cache lookup failed", "error", err)
		}
		if ok && entry.Confidence >= e.cacheMin {
			logger.InfoContext(ctx, "cache hit", "confidence", entry.Confidence)
			resp = Response{
				Response:   entry.Response,
				Confidence: entry.Confidence,
				Sources:    entry.Sources,
				Kind:       entry.Kind,
				Trace:      []TraceStep{e.step(StepCacheHit, map[string]any{"key": key})},
			}
			if resp.Sources == nil {
				resp.Sources = map[string]int{}
			}
			e.record(ctx, req, resp)
			return resp, nil
		}
	}

	var trace []TraceStep

	qc := e.analyzer.Analyze(req.Query)
	trace = append(trace, e.step(StepQueryAnalysis, qc))
	logger.DebugContext(ctx, "query analyzed", "intent", qc.Intent, "entities", qc.Entities)

	results := e.router.Route(ctx, qc)
	trace = append(trace, e.step(StepToolExecution, toolTraces(results)))

	ranked, confidence := e.scorer.Rank(qc, tools.Collect(results))
	trace = append(trace, e.step(StepRanking, rankTraces(ranked)))

	ans := e.synth.Synthesize(qc, ranked, confidence, notFound(results))
	trace = append(trace, e.step(StepResponseSynthesis, map[string]any{
		"kind":       ans.Kind,
		"confidence": ans.Confidence,
		"sources":    ans.Sources,
	}))

	resp = Response{
		Response:   ans.Text,
		Confidence: ans.Confidence,
		Sources:    countSources(results),
		Kind:       string(ans.Kind),
		Trace:      trace,
	}

	if !req.BypassCache && resp.Confidence >= e.cacheMin {
		entry := cache.Entry{Response: resp.Response, Confidence: resp.Confidence, Sources: resp.Sources, Kind: resp.Kind}
		if err := e.cache.Set(ctx, key, entry); err != nil {
			logger.WarnContext(ctx, "cache write failed", "error", err)
		}
	}

	logger.InfoContext(ctx, "query answered",
		"intent", qc.Intent,
		"kind", ans.Kind,
		"confidence", ans.Confidence,
		"candidates", len(ranked),
	)
	e.record(ctx, req, resp)
	return resp, nil
}

func (e *ragEngine) step(name string, result any) TraceStep {
	return TraceStep{Step: name, Timestamp: e.now().UnixMilli(), Result: result}
}

// record appends the interaction to the session log. Failures are logged only.
func (e *ragEngine) record(ctx context.Context, req Request, resp Response) {
	if e.interactions == nil {
		return
	}
	err := e.interactions.Record(ctx, &storage.Interaction{
		SessionID:  req.SessionID,
		Query:      req.Query,
		Response:   resp.Response,
		Confidence: resp.Confidence,
	})
	if err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to record interaction", "session_id", req.SessionID, "error", err)
	}
}

func toolTraces(results []tools.Result) []toolTrace {
	out := make([]toolTrace, len(results))
	for i, r := range results {
		out[i] = toolTrace{Tool: r.Tool.String(), Status: string(r.Status), Candidates: len(r.Candidates)}
		if r.Err != nil {
			out[i].Error = r.Err.Error()
		}
	}
	return out
}

const maxTracedRanks = 10

func rankTraces(ranked []scoring.RankedResult) []rankTrace {
	n := min(len(ranked), maxTracedRanks)
	out := make([]rankTrace, n)
	for i, r := range ranked[:n] {
		out[i] = rankTrace{Label: r.Label(), Score: r.BoostedScore}
		for _, f := range r.Boosts {
			out[i].Boosts = append(out[i].Boosts, f.Name)
		}
		for _, f := range r.Penalties {
			out[i].Penalty = append(out[i].Penalty, f.Name)
		}
	}
	return out
}

// countSources counts the candidates each tool contributed.
func countSources(results []tools.Result) map[string]int {
	out := make(map[string]int)
	for _, r := range results {
		if n := len(r.Candidates); n > 0 {
			out[r.Tool.String()] += n
		}
	}
	return out
}

func notFound(results []tools.Result) *tools.NotFound {
	for _, r := range results {
		if r.NotFound != nil {
			return r.NotFound
		}
	}
	return nil
}
