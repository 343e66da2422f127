package engine

import (
	"context"
	"sync"

	"github.com/waypoint-ai/convomcts/convo"
	"github.com/waypoint-ai/convomcts/convoerr"
	"github.com/waypoint-ai/convomcts/node"
	"github.com/waypoint-ai/convomcts/obs"
	"github.com/waypoint-ai/convomcts/oracle"
	"github.com/waypoint-ai/convomcts/treeops"
)

// SearchEngine runs the MCTS iteration loop over a forest of root node.Node
// trees, calling into the three narrow oracle contracts once per selected
// node per iteration.
type SearchEngine struct {
	responseGen oracle.ResponseGen
	simulator   oracle.Simulator
	scorer      oracle.Scorer
	logger      *obs.Logger
}

// Option configures a SearchEngine created by New.
type Option func(*SearchEngine)

// WithLogger attaches a logger used for per-iteration diagnostics.
func WithLogger(logger *obs.Logger) Option {
	return func(e *SearchEngine) { e.logger = logger }
}

// New constructs a SearchEngine from its three oracle contracts.
func New(responseGen oracle.ResponseGen, simulator oracle.Simulator, scorer oracle.Scorer, opts ...Option) *SearchEngine {
	e := &SearchEngine{
		responseGen: responseGen,
		simulator:   simulator,
		scorer:      scorer,
		logger:      obs.Noop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// selection pairs a root with the node Descend chose within it for this
// iteration (spec.md §4.2).
type selection struct {
	root   *node.Node
	target *node.Node
}

// iterationResult is one selection's expand+simulate+score outcome, produced
// concurrently and integrated into the tree sequentially afterward.
type iterationResult struct {
	newChild *node.Node
	score    float64
}

// Run executes cfg.Iterations MCTS iterations over roots, mutating their
// trees in place, and returns the accumulated search statistics. baseHistory
// is the conversation the roots' responses continue.
//
// Each iteration selects one target node per root (sequentially — selection
// only reads the tree), fans out one goroutine per root to expand, simulate,
// and score that target (the only step that calls into the oracles), joins
// on every goroutine or ctx cancellation, and then integrates all results
// into the tree sequentially in root order. Because each goroutine only
// writes to its own target node's simulation and metric fields, its own
// freshly allocated child node, and its own result slot — never to another
// root's subtree — the join barrier is the entire synchronization this
// requires; no separate tree mutex is needed (spec.md §5), since attaching
// children, backpropagation and pruning happen only in the sequential
// integration step after every goroutine has returned.
//
// Each iteration and each per-root fan-out task is wrapped in its own span
// (engine.iteration, engine.expandAndSimulate) via obs.StartSpan, so a
// configured OTel SDK sees one trace per Analyze call with one child span
// per iteration and one grandchild per root.
func (e *SearchEngine) Run(ctx context.Context, roots []*node.Node, baseHistory convo.History, cfg Config) (Stats, error) {
	if err := cfg.Validate(); err != nil {
		return Stats{}, convoerr.New("engine.Run", convoerr.CodeValidation, "invalid config", err)
	}

	stats := Stats{
		TotalIterations: cfg.Iterations,
		NodesCreated:    len(roots),
	}

	for iteration := 0; iteration < cfg.Iterations; iteration++ {
		iterCtx, span := obs.StartSpan(ctx, "engine.iteration", obs.Attrs{"iteration": iteration, "roots": len(roots)})

		selections := make([]selection, len(roots))
		for i, root := range roots {
			selections[i] = selection{root: root, target: treeops.Descend(root, cfg.MaxChildren, cfg.ExplorationConstant)}
		}

		results, err := e.runIteration(iterCtx, baseHistory, selections, cfg)
		if err != nil {
			span.RecordError(err)
			span.End()
			return stats, err
		}
		span.End()
		stats.ParallelEvaluations += len(selections)

		for i, sel := range selections {
			res := results[i]
			if res.newChild != nil {
				if err := sel.target.AddChild(res.newChild); err != nil {
					return stats, err
				}
				stats.NodesCreated++
			}
			treeops.Backpropagate(sel.target, res.score)
			stats.NodesEvaluated++
		}

		if iteration > 0 && iteration%cfg.PruningInterval == 0 {
			stats.PrunedBranches += treeops.Prune(roots, cfg.MinVisitsForPruning, cfg.PruningThresholdRatio)
		}

		e.logger.Debug(ctx, "mcts iteration complete", "iteration", iteration, "nodes_evaluated", stats.NodesEvaluated)
	}

	stats.AverageDepthExplored = treeops.AverageDepth(roots)
	return stats, nil
}

// runIteration fans out one goroutine per selection, each running
// expandAndSimulate, and joins on completion or ctx cancellation/timeout.
func (e *SearchEngine) runIteration(ctx context.Context, baseHistory convo.History, selections []selection, cfg Config) ([]iterationResult, error) {
	if ctx.Err() != nil {
		return nil, mapContextErr(ctx)
	}

	results := make([]iterationResult, len(selections))
	done := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(len(selections))
	for i, sel := range selections {
		go func(i int, sel selection) {
			defer wg.Done()
			taskCtx, span := obs.StartSpan(ctx, "engine.expandAndSimulate", obs.Attrs{"root_index": i})
			defer span.End()
			results[i] = e.expandAndSimulate(taskCtx, baseHistory, sel.target, cfg)
		}(i, sel)
	}
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return results, nil
	case <-ctx.Done():
		return nil, mapContextErr(ctx)
	}
}

// expandAndSimulate implements one selection's expand+simulate+score work,
// grounded on original_source/app/services/mcts/algorithm.py's
// _expand_and_simulate. Expansion is only attempted for an already-visited,
// not-fully-expanded node — a freshly selected zero-visit node is simulated
// and scored as-is, with expansion deferred to its next selection (spec.md §4.2).
func (e *SearchEngine) expandAndSimulate(ctx context.Context, baseHistory convo.History, target *node.Node, cfg Config) iterationResult {
	var newChild *node.Node

	path := conversationPath(baseHistory, target)

	if !target.FullyExpanded(cfg.MaxChildren) && target.Visits > 0 {
		existing := make([]string, len(target.Children))
		for i, c := range target.Children {
			existing[i] = c.Response
		}
		if response, ok := e.responseGen.Expansion(ctx, path, existing, cfg.Goal, cfg.MaxTokens); ok {
			newChild = node.New(response)
		}
	}

	simMaxTokens := cfg.MaxTokens * oracle.TokenMultiplierSimulation
	sim := e.simulator.Simulate(ctx, path, cfg.SimulationDepth, cfg.Goal, simMaxTokens)
	target.SubHistory = sim.Simulation
	target.SimulatedReactions = sim.UserReactions

	simPath := appendExchanges(path, sim.Simulation)
	score := e.scorer.Score(ctx, simPath, sim, cfg.Goal, cfg.MaxTokens)

	target.GeneralMetrics = score.GeneralMetrics
	target.GoalMetrics = score.GoalMetrics

	return iterationResult{newChild: newChild, score: score.OverallScore}
}

// conversationPath walks target's parent chain up to its root, reverses it,
// drops the root's own response, and appends the remainder as assistant
// messages onto baseHistory — matching
// original_source/app/services/mcts/algorithm.py's _build_conversation_path
// exactly (spec.md §4.2).
func conversationPath(baseHistory convo.History, target *node.Node) convo.History {
	var responses []string
	for cur := target; cur != nil; cur = cur.Parent {
		responses = append(responses, cur.Response)
	}
	for i, j := 0, len(responses)-1; i < j; i, j = i+1, j-1 {
		responses[i], responses[j] = responses[j], responses[i]
	}
	if len(responses) > 0 {
		responses = responses[1:]
	}

	result := baseHistory
	for _, r := range responses {
		result = result.WithAssistantReply(r)
	}
	return result
}

// appendExchanges appends a simulator's free-form Exchange list onto path as
// messages, preserving whatever role string the simulator produced.
func appendExchanges(path convo.History, exchanges []node.Exchange) convo.History {
	if len(exchanges) == 0 {
		return path
	}
	msgs := make([]convo.Message, len(exchanges))
	for i, ex := range exchanges {
		msgs[i] = convo.Message{Role: convo.Role(ex.Role), Content: ex.Content}
	}
	return path.WithMessages(msgs...)
}

// mapContextErr maps ctx's termination reason onto the spec's Cancelled/Timeout
// error taxonomy (spec.md §7). In-flight goroutines spawned by runIteration
// are abandoned, not killed — Go has no mechanism to forcibly stop a running
// goroutine, so oracle implementations are expected to honor ctx themselves.
func mapContextErr(ctx context.Context) error {
	switch ctx.Err() {
	case context.DeadlineExceeded:
		return convoerr.New("engine.Run", convoerr.CodeTimeout, "search timed out", ctx.Err())
	default:
		return convoerr.New("engine.Run", convoerr.CodeCancelled, "search cancelled", ctx.Err())
	}
}
