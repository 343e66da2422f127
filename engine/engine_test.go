package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waypoint-ai/convomcts/convo"
	"github.com/waypoint-ai/convomcts/convoerr"
	"github.com/waypoint-ai/convomcts/node"
	"github.com/waypoint-ai/convomcts/oracle"
)

// fakeResponseGen returns its configured expansion result; its zero value
// never expands, for tests that only care about the simulate/score path.
type fakeResponseGen struct {
	expansion string
	expandOK  bool
}

func (f fakeResponseGen) InitialBranches(ctx context.Context, history convo.History, n int, goal string, maxTokens int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = "branch"
	}
	return out
}

func (f fakeResponseGen) Expansion(ctx context.Context, history convo.History, existing []string, goal string, maxTokens int) (string, bool) {
	return f.expansion, f.expandOK
}

type fakeSimulator struct{ fail bool }

func (f fakeSimulator) Simulate(ctx context.Context, history convo.History, depth int, goal string, maxTokens int) oracle.SimulationResult {
	if f.fail {
		return oracle.SimulationResult{}
	}
	return oracle.SimulationResult{
		Simulation:    []node.Exchange{{Role: "user", Content: "ok"}},
		UserReactions: []string{"ok"},
	}
}

type fakeScorer struct {
	score float64
	fail  bool
}

func (f fakeScorer) Score(ctx context.Context, history convo.History, sim oracle.SimulationResult, goal string, maxTokens int) oracle.ScoreResult {
	if f.fail {
		return oracle.DefaultScore()
	}
	return oracle.ValidateScore(oracle.ScoreResult{OverallScore: f.score}, true)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Iterations = 1
	cfg.NumBranches = 1
	cfg.MaxChildren = 3
	cfg.PruningInterval = 10
	return cfg
}

func baseHistory() convo.History {
	return convo.History{{Role: convo.RoleUser, Content: "hi"}}
}

// S1: a single-iteration run over one zero-visit root backpropagates exactly
// once and never attempts expansion (Visits == 0 blocks it).
func TestRunSingleIterationNoExpansion(t *testing.T) {
	root := node.New("hello")
	e := New(fakeResponseGen{}, fakeSimulator{}, fakeScorer{score: 0.8})

	stats, err := e.Run(context.Background(), []*node.Node{root}, baseHistory(), testConfig())

	require.NoError(t, err)
	assert.Equal(t, 1, root.Visits)
	assert.InDelta(t, 0.8, root.AvgScore, 1e-9)
	assert.Empty(t, root.Children)
	assert.Equal(t, 1, stats.NodesEvaluated)
	assert.Equal(t, 1, stats.ParallelEvaluations)
}

// S2: once a node has been visited at least once and isn't fully expanded,
// the next selection of that same node triggers expansion.
func TestRunExpandsAfterFirstVisit(t *testing.T) {
	root := node.New("hello")
	e := New(fakeResponseGen{expansion: "sibling", expandOK: true}, fakeSimulator{}, fakeScorer{score: 0.5})

	cfg := testConfig()
	cfg.Iterations = 2
	cfg.MaxChildren = 5

	stats, err := e.Run(context.Background(), []*node.Node{root}, baseHistory(), cfg)

	require.NoError(t, err)
	assert.Equal(t, 2, root.Visits)
	require.Len(t, root.Children, 1)
	assert.Equal(t, "sibling", root.Children[0].Response)
	assert.Equal(t, 2, stats.NodesCreated) // the root plus the one expansion child
}

// S3: an oracle simulate/score failure degrades to the documented fallback
// rather than failing the run.
func TestRunSurvivesOracleFailure(t *testing.T) {
	root := node.New("hello")
	e := New(fakeResponseGen{}, fakeSimulator{fail: true}, fakeScorer{fail: true})

	stats, err := e.Run(context.Background(), []*node.Node{root}, baseHistory(), testConfig())

	require.NoError(t, err)
	assert.Equal(t, 1, root.Visits)
	assert.InDelta(t, 0.5, root.AvgScore, 1e-9) // DefaultScore's overall score
	assert.Equal(t, 1, stats.NodesEvaluated)
}

// S4: pruning removes a visited, badly-scoring branch once the pruning
// interval is reached.
func TestRunPrunesBadBranchesAtInterval(t *testing.T) {
	root := node.New("hello")
	bad := node.New("bad")
	bad.Visits = 5
	bad.AvgScore = 0.01
	require.NoError(t, root.AddChild(bad))
	root.Visits = 10
	root.AvgScore = 1.0

	e := New(fakeResponseGen{}, fakeSimulator{}, fakeScorer{score: 0.9})

	cfg := testConfig()
	cfg.Iterations = 2
	cfg.PruningInterval = 1
	cfg.MinVisitsForPruning = 1
	cfg.PruningThresholdRatio = 0.5
	cfg.MaxChildren = 10

	stats, err := e.Run(context.Background(), []*node.Node{root}, baseHistory(), cfg)

	require.NoError(t, err)
	assert.Positive(t, stats.PrunedBranches)
	assert.NotContains(t, root.Children, bad)
}

// S6: an already-cancelled context aborts the run with CodeCancelled and no
// partial mutation.
func TestRunCancelledContext(t *testing.T) {
	root := node.New("hello")
	e := New(fakeResponseGen{}, fakeSimulator{}, fakeScorer{score: 0.5})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Run(ctx, []*node.Node{root}, baseHistory(), testConfig())

	require.Error(t, err)
	assert.True(t, convoerr.HasCode(err, convoerr.CodeCancelled))
	assert.Equal(t, 0, root.Visits)
}

func TestRunTimeoutContext(t *testing.T) {
	root := node.New("hello")
	e := New(fakeResponseGen{}, fakeSimulator{}, fakeScorer{score: 0.5})

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	_, err := e.Run(ctx, []*node.Node{root}, baseHistory(), testConfig())

	require.Error(t, err)
	assert.True(t, convoerr.HasCode(err, convoerr.CodeTimeout))
}

func TestConversationPathDropsRootResponse(t *testing.T) {
	root := node.New("root reply")
	child := node.New("child reply")
	require.NoError(t, root.AddChild(child))

	path := conversationPath(baseHistory(), root)
	assert.Equal(t, baseHistory(), path)

	path = conversationPath(baseHistory(), child)
	require.Len(t, path, 2)
	assert.Equal(t, convo.RoleAssistant, path[1].Role)
	assert.Equal(t, "child reply", path[1].Content)
}

func TestRunInvalidConfig(t *testing.T) {
	root := node.New("hello")
	e := New(fakeResponseGen{}, fakeSimulator{}, fakeScorer{score: 0.5})

	cfg := testConfig()
	cfg.Iterations = 0

	_, err := e.Run(context.Background(), []*node.Node{root}, baseHistory(), cfg)
	require.Error(t, err)
	assert.True(t, convoerr.HasCode(err, convoerr.CodeValidation))
}
