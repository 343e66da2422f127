package treeops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waypoint-ai/convomcts/node"
)

func TestSelectChildPrefersUnvisited(t *testing.T) {
	parent := node.New("root")
	parent.Visits = 5
	a := node.New("a")
	a.Visits = 3
	a.AvgScore = 0.9
	b := node.New("b") // unvisited
	require.NoError(t, parent.AddChild(a))
	require.NoError(t, parent.AddChild(b))

	got := SelectChild(parent, 1.41)
	assert.Same(t, b, got)
}

func TestSelectChildUCB1TieBreaksFirstIndex(t *testing.T) {
	parent := node.New("root")
	parent.Visits = 10
	a := node.New("a")
	a.Visits = 5
	a.AvgScore = 0.5
	b := node.New("b")
	b.Visits = 5
	b.AvgScore = 0.5
	require.NoError(t, parent.AddChild(a))
	require.NoError(t, parent.AddChild(b))

	got := SelectChild(parent, 1.0)
	assert.Same(t, a, got)
}

func TestSelectChildHigherAverageWins(t *testing.T) {
	parent := node.New("root")
	parent.Visits = 10
	low := node.New("low")
	low.Visits = 5
	low.AvgScore = 0.1
	high := node.New("high")
	high.Visits = 5
	high.AvgScore = 0.9
	require.NoError(t, parent.AddChild(low))
	require.NoError(t, parent.AddChild(high))

	got := SelectChild(parent, 0.0)
	assert.Same(t, high, got)
}

func TestDescendStopsAtNotFullyExpanded(t *testing.T) {
	root := node.New("root")
	root.Visits = 1
	child := node.New("child")
	child.Visits = 1
	require.NoError(t, root.AddChild(child))
	// root has 1 child but maxChildren is 3, so root is not fully expanded.

	got := Descend(root, 3, 1.41)
	assert.Same(t, root, got)
}

func TestDescendWalksIntoFullyExpandedChild(t *testing.T) {
	root := node.New("root")
	root.Visits = 10
	a := node.New("a")
	a.Visits = 5
	a.AvgScore = 1.0
	b := node.New("b")
	b.Visits = 5
	b.AvgScore = 0.1
	require.NoError(t, root.AddChild(a))
	require.NoError(t, root.AddChild(b))
	// root is fully expanded at maxChildren=2, so descend should pick a child.

	got := Descend(root, 2, 0.0)
	assert.Same(t, a, got)
}

func TestBackpropagateUpdatesAncestors(t *testing.T) {
	root := node.New("root")
	child := node.New("child")
	grandchild := node.New("grandchild")
	require.NoError(t, root.AddChild(child))
	require.NoError(t, child.AddChild(grandchild))

	Backpropagate(grandchild, 1.0)

	assert.Equal(t, 1, grandchild.Visits)
	assert.Equal(t, 1, child.Visits)
	assert.Equal(t, 1, root.Visits)
}

func TestPruneNeverRemovesUnvisitedOrRoot(t *testing.T) {
	root := node.New("root")
	root.Visits = 10
	root.AvgScore = 1.0
	bad := node.New("bad")
	bad.Visits = 5
	bad.AvgScore = 0.1
	unvisited := node.New("unvisited")
	require.NoError(t, root.AddChild(bad))
	require.NoError(t, root.AddChild(unvisited))

	pruned := Prune([]*node.Node{root}, 1, 0.5)

	assert.Equal(t, 1, pruned)
	require.Len(t, root.Children, 1)
	assert.Same(t, unvisited, root.Children[0])
}

func TestPruneSkipsRootsBelowMinVisits(t *testing.T) {
	root := node.New("root")
	root.Visits = 2
	root.AvgScore = 1.0
	bad := node.New("bad")
	bad.Visits = 5
	bad.AvgScore = 0.0
	require.NoError(t, root.AddChild(bad))

	pruned := Prune([]*node.Node{root}, 5, 0.5)

	assert.Equal(t, 0, pruned)
	assert.Len(t, root.Children, 1)
}

func TestAverageDepthEmptyForest(t *testing.T) {
	assert.Equal(t, 0.0, AverageDepth(nil))
}

func TestAverageDepthSingleLeafRoot(t *testing.T) {
	root := node.New("root")
	assert.Equal(t, 0.0, AverageDepth([]*node.Node{root}))
}

func TestAverageDepthMixedDepths(t *testing.T) {
	root := node.New("root")
	a := node.New("a")
	require.NoError(t, root.AddChild(a))
	b := node.New("b")
	require.NoError(t, a.AddChild(b))

	// root -> a -> b: only leaf is b at depth 2.
	assert.InDelta(t, 2.0, AverageDepth([]*node.Node{root}), 1e-9)
}

func TestSelectChildNilWhenNoChildren(t *testing.T) {
	parent := node.New("root")
	parent.Visits = 1
	got := SelectChild(parent, 1.0)
	assert.Nil(t, got)
}
