package rag

import "errors"

// ErrInternal is returned when the pipeline itself fails, as opposed to a
// tool degrading its own result.
var ErrInternal = errors.New("internal pipeline error")

// Request is one question to the engine.
type Request struct {
	// Query is the user's question, in Portuguese.
	Query string
	// SessionID groups interactions in the session log.
	SessionID string
	// BypassCache skips both the cache lookup and the cache write.
	BypassCache bool
	// Model selects the answer profile. Empty means the engine default.
	Model string
}

// TraceStep is one stage of the pipeline as reported in the agent trace.
type TraceStep struct {
	Step      string `json:"step"`
	Timestamp int64  `json:"timestamp"`
	Result    any    `json:"result"`
}

// Response is the engine's answer.
type Response struct {
	Response   string         `json:"response"`
	Confidence float64        `json:"confidence"`
	Sources    map[string]int `json:"sources"`
	// Kind is the template or fallback that produced the answer.
	Kind  string      `json:"-"`
	Trace []TraceStep `json:"agentTrace,omitempty"`
}

// Trace step names.
const (
	StepCacheHit          = "cache_hit"
	StepQueryAnalysis     = "query_analysis"
	StepToolExecution     = "tool_execution"
	StepRanking           = "ranking"
	StepResponseSynthesis = "response_synthesis"
)

type toolTrace struct {
	Tool       string `json:"tool"`
	Status     string `json:"status"`
	Candidates int    `json:"candidates"`
	Error      string `json:"error,omitempty"`
}

type rankTrace struct {
	Label   string   `json:"label"`
	Score   float64  `json:"score"`
	Boosts  []string `json:"boosts,omitempty"`
	Penalty []string `json:"penalties,omitempty"`
}
