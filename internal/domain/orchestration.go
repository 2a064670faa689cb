package domain

import (
	"context"
	"fmt"
)

// StrategyKind selects one of the orchestration algorithms.
type StrategyKind string

const (
	StrategySequential   StrategyKind = "sequential"
	StrategyParallel     StrategyKind = "parallel"
	StrategyDebate       StrategyKind = "debate"
	StrategyConsensus    StrategyKind = "consensus"
	StrategySpecialist   StrategyKind = "specialist"
	StrategyHierarchical StrategyKind = "hierarchical"
	StrategyMixture      StrategyKind = "mixture"
)

// Strategies lists every supported strategy in stable order.
func Strategies() []StrategyKind {
	return []StrategyKind{
		StrategySequential,
		StrategyParallel,
		StrategyDebate,
		StrategyConsensus,
		StrategySpecialist,
		StrategyHierarchical,
		StrategyMixture,
	}
}

// Description returns a one-line summary of the strategy, for discovery
// surfaces (CLI listing, MCP list_strategies).
func (k StrategyKind) Description() string {
	switch k {
	case StrategySequential:
		return "Chain models so each refines the previous answer"
	case StrategyParallel:
		return "Query all models at once, optionally synthesizing the answers"
	case StrategyDebate:
		return "Models critique each other over rounds, then a moderator concludes"
	case StrategyConsensus:
		return "Query all models and extract the points they agree on"
	case StrategySpecialist:
		return "Route the prompt to the model best suited to its task type"
	case StrategyHierarchical:
		return "Decompose into subtasks, solve each, then combine the parts"
	case StrategyMixture:
		return "Fan out to all models, keep the strongest half, merge into one answer"
	}
	return ""
}

// ParseStrategy validates a strategy name. Unknown names fail with
// ErrUnknownStrategy before any model is called.
func ParseStrategy(s string) (StrategyKind, error) {
	k := StrategyKind(s)
	switch k {
	case StrategySequential, StrategyParallel, StrategyDebate, StrategyConsensus,
		StrategySpecialist, StrategyHierarchical, StrategyMixture:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

// OrchestrationOptions tunes a single orchestration call. Zero values mean
// "use the engine default".
type OrchestrationOptions struct {
	// MaxRounds bounds debate iterations (default 3).
	MaxRounds int `json:"max_rounds,omitempty"`
	// Temperature for regular model calls; synthesis calls use the engine's
	// synthesis temperature unless this is set.
	Temperature float64 `json:"temperature,omitempty"`
	// IncludeReasoning asks Parallel to add a synthesis step.
	IncludeReasoning bool `json:"include_reasoning,omitempty"`
	// UseThinking enables extended thinking on providers that support it.
	UseThinking bool `json:"use_thinking,omitempty"`
	// ThinkingTokens restricts extended thinking to the listed model
	// identifiers; empty means all models when UseThinking is set.
	ThinkingTokens []string `json:"thinking_tokens,omitempty"`
}

// OrchestrationRequest is one unit of work for the engine. Immutable for
// the duration of the call.
type OrchestrationRequest struct {
	Prompt   string               `json:"prompt"`
	Strategy StrategyKind         `json:"strategy"`
	Models   []ModelID            `json:"models,omitempty"`
	Options  OrchestrationOptions `json:"options,omitempty"`
	// Context is prior conversation carried into every model call.
	Context []Message `json:"context,omitempty"`
}

// ProviderResponse is the outcome of one successful model call. Model holds
// the identifier actually dispatched — the fallback identifier when a
// fallback was used, never the original.
type ProviderResponse struct {
	Model      ModelID `json:"model"`
	Response   string  `json:"response"`
	DurationMs int64   `json:"duration_ms"`
}

// Round is one debate iteration: every participating model responds once.
type Round struct {
	Index     int                `json:"index"`
	Responses []ProviderResponse `json:"responses"`
}

// ScoredResponse pairs a response with its heuristic quality score.
type ScoredResponse struct {
	ProviderResponse
	Score int `json:"score"`
}

// Metadata describes how an orchestration call executed.
type Metadata struct {
	RunID           string `json:"run_id"`
	TotalDurationMs int64  `json:"total_duration_ms"`
	// ModelsUsed holds every distinct identifier actually dispatched, in
	// first-use order, including synthesis/analysis/conclusion calls.
	ModelsUsed []ModelID `json:"models_used"`
}

// OrchestrationResult is produced exactly once per call and read-only after
// return. Responses is never empty on success.
type OrchestrationResult struct {
	Strategy   StrategyKind       `json:"strategy"`
	Responses  []ProviderResponse `json:"responses"`
	Synthesis  string             `json:"synthesis,omitempty"`
	Consensus  string             `json:"consensus,omitempty"`
	Conclusion string             `json:"conclusion,omitempty"`
	Rounds     []Round            `json:"rounds,omitempty"`
	Metadata   Metadata           `json:"metadata"`
}

// Orchestrator is the engine's entry point, consumed by boundary surfaces
// (CLI, MCP server).
type Orchestrator interface {
	Orchestrate(ctx context.Context, req OrchestrationRequest) (*OrchestrationResult, error)
}
