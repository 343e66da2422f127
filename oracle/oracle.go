// Package oracle defines the three narrow, swappable contracts the Search
// Engine calls into — ResponseGen, Simulator, and Scorer — plus the
// Explainer used by the Analyzer, and the JSON wire shapes and fallback
// policy each one follows on failure (spec.md §4.3, §6).
//
// Implementations may be stubbed for tests or backed by a real LLM
// transport (see package llmoracle for one such implementation). This
// package specifies only the contracts; it has no transport dependency.
package oracle

import (
	"context"

	"github.com/waypoint-ai/convomcts/convo"
	"github.com/waypoint-ai/convomcts/node"
)

// RequiredGeneralMetrics are the six metric names every Score result must
// carry after post-validation (spec.md §4.3).
var RequiredGeneralMetrics = []string{
	"clarity", "relevance", "engagement", "authenticity", "coherence", "respectfulness",
}

// Token-budget multipliers carried over from the original implementation's
// ResponseConfig: InitialBranches, Simulate, and the Analyzer's Explain call
// each scale the caller-supplied max_tokens by a call-specific factor before
// sending it to the transport; Expansion and Score use max_tokens unscaled
// (SPEC_FULL.md §12).
const (
	TokenMultiplierInitial    = 2
	TokenMultiplierSimulation = 3
	TokenMultiplierAnalysis   = 2
)

// DefaultInitialResponses is the fixed fallback InitialBranches returns on
// parse/transport failure, carried verbatim from the original
// implementation's ResponseConfig.DEFAULT_RESPONSES (SPEC_FULL.md §12).
var DefaultInitialResponses = []string{
	"I understand you're going through a difficult time. Let's talk about what you're feeling.",
	"That sounds challenging. Can you tell me more about what happened?",
	"I'm here to listen and support you. What aspect of this situation is bothering you the most?",
}

// ResponseGen generates candidate assistant replies: the initial root
// candidates, and fresh expansion siblings during the search.
type ResponseGen interface {
	// InitialBranches returns exactly n distinct reply strings continuing
	// history. On parse/transport failure it returns a fixed default list
	// of length n (DefaultInitialResponses, truncated/repeated as needed) —
	// implementations never return an error for this call; degraded output
	// is the error channel (spec.md §4.3).
	InitialBranches(ctx context.Context, history convo.History, n int, goal string, maxTokens int) []string

	// Expansion returns one fresh reply string different from existing, or
	// "", false if expansion could not produce one (best-effort; never an
	// error).
	Expansion(ctx context.Context, history convo.History, existing []string, goal string, maxTokens int) (string, bool)
}

// SimulationResult is the output of one Simulate call.
type SimulationResult struct {
	Simulation    []node.Exchange
	UserReactions []string
}

// Simulator projects how a candidate reply's conversation would continue.
type Simulator interface {
	// Simulate returns the simulated continuation and the user's simulated
	// reactions to it. On failure it returns a zero-value SimulationResult
	// (both slices empty) — never an error (spec.md §4.3).
	Simulate(ctx context.Context, history convo.History, depth int, goal string, maxTokens int) SimulationResult
}

// ScoreResult is the output of one Score call, after post-validation fills
// in any missing required metric with 0.0 and any missing overall score
// with the mean of all general metrics after that fill — spec.md §4.3.
type ScoreResult struct {
	GeneralMetrics map[string]float64
	GoalMetrics    map[string]float64
	OverallScore   float64
}

// Scorer scores a simulated conversation continuation.
type Scorer interface {
	// Score returns the scored result for a simulation, or the default
	// result (every required general metric at 0.5, no goal metrics,
	// overall score 0.5) on failure — never an error (spec.md §4.3).
	Score(ctx context.Context, history convo.History, sim SimulationResult, goal string, maxTokens int) ScoreResult
}

// DefaultScore is the fallback ScoreResult on a Scorer failure (spec.md §4.3).
func DefaultScore() ScoreResult {
	general := make(map[string]float64, len(RequiredGeneralMetrics))
	for _, m := range RequiredGeneralMetrics {
		general[m] = 0.5
	}
	return ScoreResult{
		GeneralMetrics: general,
		GoalMetrics:    map[string]float64{},
		OverallScore:   0.5,
	}
}

// ValidateScore defensively fills in any required general metric missing
// from result with 0.0, and, when OverallScore was not supplied at all,
// fills it with the mean of every general metric after that fill (so the
// zero-filled metrics count toward the mean). It never clips
// OverallScore into [0,1] — spec.md §9 leaves that as an explicit open
// question and the default (preserve-behaviour) decision is recorded in
// DESIGN.md.
func ValidateScore(result ScoreResult, overallScorePresent bool) ScoreResult {
	if result.GeneralMetrics == nil {
		result.GeneralMetrics = map[string]float64{}
	}
	for _, m := range RequiredGeneralMetrics {
		if _, ok := result.GeneralMetrics[m]; !ok {
			result.GeneralMetrics[m] = 0.0
		}
	}
	if result.GoalMetrics == nil {
		result.GoalMetrics = map[string]float64{}
	}
	if !overallScorePresent {
		if len(result.GeneralMetrics) == 0 {
			result.OverallScore = 0
		} else {
			var sum float64
			for _, v := range result.GeneralMetrics {
				sum += v
			}
			result.OverallScore = sum / float64(len(result.GeneralMetrics))
		}
	}
	return result
}

// BranchView is a flattened, read-only view of one root-level node used by
// Explainer and returned to callers as part of an AnalysisResult.
type BranchView struct {
	Response           string
	SimulatedReactions []string
	Score              float64
	SubHistory         []node.Exchange
	GeneralMetrics     map[string]float64
	GoalMetrics        map[string]float64
	Visits             int
	ChildIndices       []int
}

// Explainer produces the free-text rationale for why the winning branch was
// selected.
type Explainer interface {
	// Explain returns the rationale text, or a templated fallback on
	// failure — never an error (spec.md §4.3).
	Explain(ctx context.Context, best BranchView, bestIndex int, all []BranchView, history convo.History, goal string, maxTokens int) string
}
