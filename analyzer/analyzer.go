// Package analyzer selects the winning root branch from a searched forest,
// flattens each root into a BranchView, and produces the rationale text for
// the winner — grounded on
// original_source/app/services/conversation_analysis/analyzer.py.
package analyzer

import (
	"context"
	"fmt"

	"github.com/waypoint-ai/convomcts/convo"
	"github.com/waypoint-ai/convomcts/node"
	"github.com/waypoint-ai/convomcts/oracle"
)

// scoreWeightQuality and scoreWeightVisits are the blended display-score
// weights from original_source's ScoringConfig.
const (
	scoreWeightQuality = 0.7
	scoreWeightVisits  = 0.3
)

// Analyzer wraps an oracle.Explainer to pick the winning root and produce
// its rationale.
type Analyzer struct {
	explainer oracle.Explainer
}

// New constructs an Analyzer. explainer may be nil, in which case Explain
// always returns the templated fallback.
func New(explainer oracle.Explainer) *Analyzer {
	return &Analyzer{explainer: explainer}
}

// SelectBest returns the winning root and its index within roots, using the
// blended display score: 0.7*avg_score + 0.3*(visits/total_visits), with the
// visits term at 0 when every root is unvisited. Ties keep the first,
// lowest-indexed root — matching Python's max() first-wins semantics
// (spec.md §4.5).
func SelectBest(roots []*node.Node) (*node.Node, int) {
	totalVisits := 0
	for _, r := range roots {
		totalVisits += r.Visits
	}

	bestIdx := 0
	bestScore := displayScore(roots[0], totalVisits)
	for i := 1; i < len(roots); i++ {
		score := displayScore(roots[i], totalVisits)
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	return roots[bestIdx], bestIdx
}

func displayScore(n *node.Node, totalVisits int) float64 {
	visitsTerm := 0.0
	if totalVisits > 0 {
		visitsTerm = float64(n.Visits) / float64(totalVisits)
	}
	return n.AvgScore*scoreWeightQuality + visitsTerm*scoreWeightVisits
}

// ToBranchView flattens a root node into the read-only BranchView shape
// returned to callers (spec.md §4.5).
func ToBranchView(n *node.Node) oracle.BranchView {
	childIndices := make([]int, len(n.Children))
	for i, c := range n.Children {
		childIndices[i] = c.Index
	}
	return oracle.BranchView{
		Response:           n.Response,
		SimulatedReactions: n.SimulatedReactions,
		Score:              n.AvgScore,
		SubHistory:         n.SubHistory,
		GeneralMetrics:     n.GeneralMetrics,
		GoalMetrics:        n.GoalMetrics,
		Visits:             n.Visits,
		ChildIndices:       childIndices,
	}
}

// ToBranchViews flattens every root in roots, in order.
func ToBranchViews(roots []*node.Node) []oracle.BranchView {
	views := make([]oracle.BranchView, len(roots))
	for i, r := range roots {
		views[i] = ToBranchView(r)
	}
	return views
}

// Explain returns the rationale for why best (at bestIndex within all) was
// selected, calling the configured Explainer, or the templated default if
// none is configured or the explainer reports no usable result via the
// oracle.Explainer fallback contract itself.
func (a *Analyzer) Explain(ctx context.Context, best oracle.BranchView, bestIndex int, all []oracle.BranchView, history convo.History, goal string, maxTokens int) string {
	if a.explainer == nil {
		return defaultAnalysis(best, bestIndex)
	}
	return a.explainer.Explain(ctx, best, bestIndex, all, history, goal, maxTokens*oracle.TokenMultiplierAnalysis)
}

// defaultAnalysis mirrors _get_default_analysis from
// original_source/app/services/conversation_analysis/analyzer.py.
func defaultAnalysis(best oracle.BranchView, bestIndex int) string {
	return fmt.Sprintf(
		"Selected response %d based on MCTS evaluation. "+
			"This response achieved a score of %.2f across %d simulations.",
		bestIndex+1, best.Score, best.Visits,
	)
}
