package llmoracle

import (
	"context"
	"fmt"

	"github.com/waypoint-ai/convomcts/convo"
	"github.com/waypoint-ai/convomcts/node"
	"github.com/waypoint-ai/convomcts/obs"
	"github.com/waypoint-ai/convomcts/oracle"
)

func historyToMessages(history convo.History) Messages {
	out := make(Messages, len(history))
	for i, m := range history {
		out[i] = Message{Role: string(m.Role), Content: m.Content}
	}
	return out
}

// ResponseGenerator implements oracle.ResponseGen against a ChatModel,
// grounded on
// original_source/app/services/conversation_analysis/response_generator.py.
type ResponseGenerator struct {
	model  ChatModel
	logger *obs.Logger
}

// NewResponseGenerator constructs a ResponseGenerator. logger may be nil.
func NewResponseGenerator(model ChatModel, logger *obs.Logger) *ResponseGenerator {
	if logger == nil {
		logger = obs.Noop()
	}
	return &ResponseGenerator{model: model, logger: logger}
}

type initialBranchesResponse struct {
	Responses []string `json:"responses"`
}

// InitialBranches generates n candidate replies, falling back to the fixed
// default list on any transport or parse failure. A parsed list longer than
// n is truncated; a shorter one is filled from the default list.
func (g *ResponseGenerator) InitialBranches(ctx context.Context, history convo.History, n int, goal string, maxTokens int) []string {
	ctx, span := obs.StartSpan(ctx, "llmoracle.InitialBranches", obs.Attrs{"num_branches": n})
	defer span.End()

	prompt := initialBranchesPrompt(n, goal)
	raw, err := g.model.Generate(ctx, prompt, historyToMessages(history), maxTokens, true)
	if err != nil {
		g.logger.Error(ctx, "failed to generate initial branches", "error", err)
		span.RecordError(err)
		return defaultResponses(n)
	}

	var parsed initialBranchesResponse
	if err := oracle.ParseFencedJSON(raw, &parsed); err != nil || len(parsed.Responses) == 0 {
		g.logger.Error(ctx, "invalid initial branches response format", "error", err)
		return defaultResponses(n)
	}
	out := parsed.Responses
	if len(out) > n {
		out = out[:n]
	}
	if len(out) < n {
		out = append(out, defaultResponses(n)[len(out):]...)
	}
	return out
}

func defaultResponses(n int) []string {
	if n <= len(oracle.DefaultInitialResponses) {
		return append([]string(nil), oracle.DefaultInitialResponses[:n]...)
	}
	out := make([]string, n)
	for i := range out {
		out[i] = oracle.DefaultInitialResponses[i%len(oracle.DefaultInitialResponses)]
	}
	return out
}

type expansionResponse struct {
	Response string `json:"response"`
}

// Expansion generates one new reply distinct from existing, or ("", false)
// on any transport or parse failure.
func (g *ResponseGenerator) Expansion(ctx context.Context, history convo.History, existing []string, goal string, maxTokens int) (string, bool) {
	ctx, span := obs.StartSpan(ctx, "llmoracle.Expansion", nil)
	defer span.End()

	prompt := expansionPrompt(existing, goal)
	raw, err := g.model.Generate(ctx, prompt, historyToMessages(history), maxTokens, true)
	if err != nil {
		g.logger.Error(ctx, "failed to generate expansion response", "error", err)
		span.RecordError(err)
		return "", false
	}

	var parsed expansionResponse
	if err := oracle.ParseFencedJSON(raw, &parsed); err != nil || parsed.Response == "" {
		g.logger.Error(ctx, "invalid expansion response format")
		return "", false
	}
	return parsed.Response, true
}

// Simulator implements oracle.Simulator against a ChatModel, grounded on
// original_source/app/services/conversation_analysis/simulator.py.
type Simulator struct {
	model  ChatModel
	logger *obs.Logger
}

// NewSimulator constructs a Simulator. logger may be nil.
func NewSimulator(model ChatModel, logger *obs.Logger) *Simulator {
	if logger == nil {
		logger = obs.Noop()
	}
	return &Simulator{model: model, logger: logger}
}

type simulationResponse struct {
	Simulation    []node.Exchange `json:"simulation"`
	UserReactions []string        `json:"user_reactions"`
}

// Simulate projects the candidate reply's continuation, falling back to an
// empty SimulationResult on any transport or parse failure.
func (s *Simulator) Simulate(ctx context.Context, history convo.History, depth int, goal string, maxTokens int) oracle.SimulationResult {
	ctx, span := obs.StartSpan(ctx, "llmoracle.Simulate", obs.Attrs{"depth": depth})
	defer span.End()

	prompt := simulationPrompt(depth, goal)
	raw, err := s.model.Generate(ctx, prompt, historyToMessages(history), maxTokens, true)
	if err != nil {
		s.logger.Error(ctx, "failed to simulate conversation", "error", err)
		span.RecordError(err)
		return oracle.SimulationResult{}
	}

	var parsed simulationResponse
	if err := oracle.ParseFencedJSON(raw, &parsed); err != nil {
		s.logger.Error(ctx, "invalid simulation response format", "error", err)
		return oracle.SimulationResult{}
	}
	return oracle.SimulationResult{Simulation: parsed.Simulation, UserReactions: parsed.UserReactions}
}

// Scorer implements oracle.Scorer against a ChatModel, grounded on
// original_source/app/services/conversation_analysis/scorer.py.
type Scorer struct {
	model  ChatModel
	logger *obs.Logger
}

// NewScorer constructs a Scorer. logger may be nil.
func NewScorer(model ChatModel, logger *obs.Logger) *Scorer {
	if logger == nil {
		logger = obs.Noop()
	}
	return &Scorer{model: model, logger: logger}
}

type scoreResponse struct {
	GeneralMetrics map[string]float64 `json:"general_metrics"`
	GoalMetrics    map[string]float64 `json:"goal_metrics"`
	OverallScore   *float64           `json:"overall_score"`

	// Reasoning is parsed but deliberately not copied into the returned
	// oracle.ScoreResult: spec.md §6 says the core ignores it. It is logged
	// at debug level so it is not silently discarded, mirroring the
	// original's scorer.py response shape without giving it a path into
	// node.Node or AnalysisResult.
	Reasoning string `json:"reasoning"`
}

// Score scores a simulated continuation, falling back to oracle.DefaultScore
// on any transport or parse failure.
func (s *Scorer) Score(ctx context.Context, history convo.History, sim oracle.SimulationResult, goal string, maxTokens int) oracle.ScoreResult {
	ctx, span := obs.StartSpan(ctx, "llmoracle.Score", nil)
	defer span.End()

	prompt := scoringPrompt(sim, goal)
	raw, err := s.model.Generate(ctx, prompt, historyToMessages(history), maxTokens, true)
	if err != nil {
		s.logger.Error(ctx, "failed to score simulation", "error", err)
		span.RecordError(err)
		return oracle.DefaultScore()
	}

	var parsed scoreResponse
	if err := oracle.ParseFencedJSON(raw, &parsed); err != nil {
		s.logger.Error(ctx, "invalid score response format", "error", err)
		return oracle.DefaultScore()
	}

	if parsed.Reasoning != "" {
		s.logger.Debug(ctx, "score reasoning", "reasoning", parsed.Reasoning)
	}

	result := oracle.ScoreResult{GeneralMetrics: parsed.GeneralMetrics, GoalMetrics: parsed.GoalMetrics}
	if parsed.OverallScore != nil {
		result.OverallScore = *parsed.OverallScore
	}
	return oracle.ValidateScore(result, parsed.OverallScore != nil)
}

// Explainer implements oracle.Explainer against a ChatModel, grounded on
// original_source/app/services/conversation_analysis/analyzer.py.
type Explainer struct {
	model  ChatModel
	logger *obs.Logger
}

// NewExplainer constructs an Explainer. logger may be nil.
func NewExplainer(model ChatModel, logger *obs.Logger) *Explainer {
	if logger == nil {
		logger = obs.Noop()
	}
	return &Explainer{model: model, logger: logger}
}

// Explain produces the rationale text for the winning branch, falling back
// to a templated default on any transport failure.
func (e *Explainer) Explain(ctx context.Context, best oracle.BranchView, bestIndex int, all []oracle.BranchView, history convo.History, goal string, maxTokens int) string {
	ctx, span := obs.StartSpan(ctx, "llmoracle.Explain", obs.Attrs{"best_index": bestIndex})
	defer span.End()

	prompt := analysisPrompt(best, bestIndex, all, goal)
	raw, err := e.model.Generate(ctx, prompt, historyToMessages(history), maxTokens, false)
	if err != nil {
		e.logger.Error(ctx, "failed to generate analysis", "error", err)
		span.RecordError(err)
		return defaultAnalysis(best, bestIndex)
	}
	return raw
}

// defaultAnalysis mirrors ConversationAnalyzer._get_default_analysis
// (original_source/app/services/conversation_analysis/analyzer.py). This is
// the same template package analyzer falls back to when no Explainer is
// configured at all; here it is the fallback for a configured Explainer's
// transport failure.
func defaultAnalysis(best oracle.BranchView, bestIndex int) string {
	return fmt.Sprintf(
		"Selected response %d based on MCTS evaluation. "+
			"This response achieved a score of %.2f across %d simulations.",
		bestIndex+1, best.Score, best.Visits,
	)
}
