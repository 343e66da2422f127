// Package orchestrator exposes the single public entry point for a
// conversation MCTS search: Analyze wires ResponseGen.InitialBranches, the
// Search Engine, and the Analyzer together over one history, grounded on
// original_source/app/services/conversation_analysis_service.py's
// analyze_conversation.
package orchestrator

import (
	"context"

	"github.com/google/uuid"

	"github.com/waypoint-ai/convomcts/analyzer"
	"github.com/waypoint-ai/convomcts/convo"
	"github.com/waypoint-ai/convomcts/convoerr"
	"github.com/waypoint-ai/convomcts/engine"
	"github.com/waypoint-ai/convomcts/node"
	"github.com/waypoint-ai/convomcts/obs"
	"github.com/waypoint-ai/convomcts/oracle"
)

// Scores is the overall_scores block of an AnalysisResult.
type Scores struct {
	BestScore     float64
	AverageScore  float64
	ScoreVariance float64
}

// AnalysisResult is the complete output of one Analyze call (spec.md §4.5).
// RunID identifies this call uniquely, grounded on the teacher's pervasive
// use of google/uuid for request/run identifiers (schema, pkg/core).
type AnalysisResult struct {
	RunID               string
	Branches            []oracle.BranchView
	SelectedBranchIndex int
	SelectedResponse    string
	Analysis            string
	OverallScores       Scores
	MCTSStatistics      engine.Stats
}

// Orchestrator wires together the three search oracles, the optional
// explainer, and the Search Engine into one Analyze entry point.
type Orchestrator struct {
	responseGen  oracle.ResponseGen
	searchEngine *engine.SearchEngine
	analyzer     *analyzer.Analyzer
	logger       *obs.Logger
	metrics      *obs.SearchMetrics
}

// Option configures an Orchestrator created by New.
type Option func(*Orchestrator)

// WithLogger attaches a logger for per-call diagnostics.
func WithLogger(logger *obs.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithMetrics attaches an obs.SearchMetrics to publish mcts_statistics after
// every Analyze call.
func WithMetrics(metrics *obs.SearchMetrics) Option {
	return func(o *Orchestrator) { o.metrics = metrics }
}

// New constructs an Orchestrator from its four oracle contracts. explainer
// may be nil, in which case the Analyzer's templated fallback rationale is
// always used.
func New(responseGen oracle.ResponseGen, simulator oracle.Simulator, scorer oracle.Scorer, explainer oracle.Explainer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		responseGen: responseGen,
		logger:      obs.Noop(),
	}
	for _, opt := range opts {
		opt(o)
	}

	var engineOpts []engine.Option
	engineOpts = append(engineOpts, engine.WithLogger(o.logger))
	o.searchEngine = engine.New(responseGen, simulator, scorer, engineOpts...)
	o.analyzer = analyzer.New(explainer)
	return o
}

// Analyze runs a full conversation MCTS search over history and returns the
// winning branch, its rationale, aggregate scores, and search statistics.
// history must be non-empty (spec.md §4.1 NoHistory edge case).
func (o *Orchestrator) Analyze(ctx context.Context, history convo.History, cfg engine.Config) (AnalysisResult, error) {
	if len(history) == 0 {
		return AnalysisResult{}, convoerr.New("orchestrator.Analyze", convoerr.CodeValidation, "history must not be empty", nil)
	}
	if err := cfg.Validate(); err != nil {
		return AnalysisResult{}, convoerr.New("orchestrator.Analyze", convoerr.CodeValidation, "invalid config", err)
	}

	runID := uuid.NewString()
	o.logger.Info(ctx, "starting conversation analysis", "run_id", runID, "goal", cfg.Goal)

	initialMaxTokens := cfg.MaxTokens * oracle.TokenMultiplierInitial
	initial := o.responseGen.InitialBranches(ctx, history, cfg.NumBranches, cfg.Goal, initialMaxTokens)

	roots := make([]*node.Node, len(initial))
	for i, response := range initial {
		roots[i] = node.New(response)
	}

	stats, err := o.searchEngine.Run(ctx, roots, history, cfg)
	if err != nil {
		return AnalysisResult{}, err
	}

	best, bestIdx := analyzer.SelectBest(roots)
	branches := analyzer.ToBranchViews(roots)

	analysisMaxTokens := cfg.MaxTokens
	rationale := o.analyzer.Explain(ctx, branches[bestIdx], bestIdx, branches, history, cfg.Goal, analysisMaxTokens)

	scores := computeScores(roots, best)

	if o.metrics != nil {
		o.metrics.Record(ctx, obs.Stats{
			TotalIterations:      stats.TotalIterations,
			NodesCreated:         stats.NodesCreated,
			NodesEvaluated:       stats.NodesEvaluated,
			PrunedBranches:       stats.PrunedBranches,
			ParallelEvaluations:  stats.ParallelEvaluations,
			AverageDepthExplored: stats.AverageDepthExplored,
		})
	}

	o.logger.Info(ctx, "conversation analysis complete", "best_score", best.AvgScore)

	return AnalysisResult{
		RunID:               runID,
		Branches:            branches,
		SelectedBranchIndex: bestIdx,
		SelectedResponse:    best.Response,
		Analysis:            rationale,
		OverallScores:       scores,
		MCTSStatistics:      stats,
	}, nil
}

// computeScores builds the overall_scores block: best_score is the winning
// root's average score; average_score and score_variance are computed over
// every root's average score (population variance, matching
// original_source/app/services/conversation_analysis_service.py's
// _calculate_variance).
func computeScores(roots []*node.Node, best *node.Node) Scores {
	var sum float64
	for _, r := range roots {
		sum += r.AvgScore
	}
	mean := sum / float64(len(roots))

	var variance float64
	for _, r := range roots {
		d := r.AvgScore - mean
		variance += d * d
	}
	variance /= float64(len(roots))

	return Scores{
		BestScore:     best.AvgScore,
		AverageScore:  mean,
		ScoreVariance: variance,
	}
}
