package obs

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("github.com/waypoint-ai/convomcts")

// SearchMetrics reports one Analyze run's mcts_statistics as OTel gauges,
// grounded on the teacher framework's otel/exporters/prometheus wiring.
type SearchMetrics struct {
	totalIterations      metric.Int64Gauge
	nodesCreated         metric.Int64Gauge
	nodesEvaluated       metric.Int64Gauge
	prunedBranches       metric.Int64Gauge
	parallelEvaluations  metric.Int64Gauge
	averageDepthExplored metric.Float64Gauge
}

// NewSearchMetrics registers the mcts_statistics gauge instruments on the
// global meter provider. Callers that never configure an OTel metrics SDK
// get the default no-op provider, so this is always safe to call.
func NewSearchMetrics() (*SearchMetrics, error) {
	m := &SearchMetrics{}
	var err error

	if m.totalIterations, err = meter.Int64Gauge("mcts.total_iterations"); err != nil {
		return nil, err
	}
	if m.nodesCreated, err = meter.Int64Gauge("mcts.nodes_created"); err != nil {
		return nil, err
	}
	if m.nodesEvaluated, err = meter.Int64Gauge("mcts.nodes_evaluated"); err != nil {
		return nil, err
	}
	if m.prunedBranches, err = meter.Int64Gauge("mcts.pruned_branches"); err != nil {
		return nil, err
	}
	if m.parallelEvaluations, err = meter.Int64Gauge("mcts.parallel_evaluations"); err != nil {
		return nil, err
	}
	if m.averageDepthExplored, err = meter.Float64Gauge("mcts.average_depth_explored"); err != nil {
		return nil, err
	}
	return m, nil
}

// Stats is the minimal shape SearchMetrics.Record needs; engine.Stats
// satisfies it structurally via the fields below.
type Stats struct {
	TotalIterations      int
	NodesCreated         int
	NodesEvaluated       int
	PrunedBranches       int
	ParallelEvaluations  int
	AverageDepthExplored float64
}

// Record publishes one analysis run's statistics to the gauge instruments.
func (m *SearchMetrics) Record(ctx context.Context, s Stats) {
	m.totalIterations.Record(ctx, int64(s.TotalIterations))
	m.nodesCreated.Record(ctx, int64(s.NodesCreated))
	m.nodesEvaluated.Record(ctx, int64(s.NodesEvaluated))
	m.prunedBranches.Record(ctx, int64(s.PrunedBranches))
	m.parallelEvaluations.Record(ctx, int64(s.ParallelEvaluations))
	m.averageDepthExplored.Record(ctx, s.AverageDepthExplored)
}
