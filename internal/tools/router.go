package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"urbanlex/internal/contextutil"
	"urbanlex/internal/query"
)

// DefaultTimeout bounds a single tool run when no timeout is configured.
const DefaultTimeout = 5 * time.Second

// Router selects tools by intent and runs them concurrently.
type Router struct {
	tools   map[ToolID]Tool
	timeout time.Duration
}

// NewRouter creates a router over the given tools. A non-positive timeout
// uses DefaultTimeout.
func NewRouter(timeout time.Duration, tools ...Tool) *Router {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	r := &Router{tools: make(map[ToolID]Tool, len(tools)), timeout: timeout}
	for _, t := range tools {
		r.tools[t.ID()] = t
	}
	return r
}

// Select returns the registered tools for the intent, in priority order.
func (r *Router) Select(intent query.Intent) []ToolID {
	ids := Capabilities[intent]
	out := make([]ToolID, 0, len(ids))
	for _, id := range ids {
		if _, ok := r.tools[id]; ok {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Route runs every selected tool and waits for all of them. One tool's
// failure, panic or timeout never affects the others. Results are in
// priority order.
func (r *Router) Route(ctx context.Context, qc *query.Context) []Result {
	logger := contextutil.LoggerFromContext(ctx)

	ids := r.Select(qc.Intent)
	results := make([]Result, len(ids))

	var g errgroup.Group
	for i, id := range ids {
		g.Go(func() error {
			results[i] = r.run(ctx, r.tools[id], qc)
			return nil
		})
	}
	_ = g.Wait()

	for _, res := range results {
		if res.Err != nil {
			logger.WarnContext(ctx, "tool did not complete", "tool", res.Tool.String(), "status", res.Status, "error", res.Err)
		}
	}
	return results
}

func (r *Router) run(ctx context.Context, tool Tool, qc *query.Context) Result {
	id := tool.ID()
	tctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	done := make(chan Result, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- Result{Tool: id, Status: StatusError, Candidates: []Candidate{}, Err: fmt.Errorf("%w: %s panicked: %v", ErrTool, id, p)}
			}
		}()
		done <- tool.Run(tctx, qc)
	}()

	select {
	case res := <-done:
		res.Tool = id
		if res.Status == StatusError && ctx.Err() == nil && errors.Is(tctx.Err(), context.DeadlineExceeded) {
			return timedOut(id)
		}
		return res
	case <-tctx.Done():
		if err := ctx.Err(); err != nil {
			return failed(id, err)
		}
		return timedOut(id)
	}
}

func timedOut(id ToolID) Result {
	return Result{Tool: id, Status: StatusNoMatch, Candidates: []Candidate{}, Err: fmt.Errorf("%s: %w", id, ErrToolTimeout)}
}

// Collect flattens results into one candidate list, keeping result order.
func Collect(results []Result) []Candidate {
	var out []Candidate
	for _, r := range results {
		out = append(out, r.Candidates...)
	}
	return out
}
