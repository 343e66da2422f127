package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waypoint-ai/convomcts/convoerr"
)

func TestNewIsRoot(t *testing.T) {
	n := New("hello")
	assert.True(t, n.IsRoot())
	assert.Equal(t, "hello", n.Response)
	assert.Equal(t, 0, n.Visits)
}

func TestAddChild(t *testing.T) {
	parent := New("a")
	child := New("b")

	require.NoError(t, parent.AddChild(child))
	require.Len(t, parent.Children, 1)
	assert.Same(t, parent, child.Parent)
	assert.Equal(t, 0, child.Index)

	child2 := New("c")
	require.NoError(t, parent.AddChild(child2))
	assert.Equal(t, 1, child2.Index)
}

func TestAddChildRejectsReparenting(t *testing.T) {
	parentA := New("a")
	parentB := New("b")
	child := New("c")

	require.NoError(t, parentA.AddChild(child))
	err := parentB.AddChild(child)
	require.Error(t, err)
	assert.True(t, convoerr.HasCode(err, convoerr.CodeTreeInvariant))
}

func TestUpdate(t *testing.T) {
	n := New("a")
	n.Update(0.5)
	n.Update(1.0)

	assert.Equal(t, 2, n.Visits)
	assert.InDelta(t, 1.5, n.TotalScore, 1e-9)
	assert.InDelta(t, 0.75, n.AvgScore, 1e-9)
}

func TestFullyExpanded(t *testing.T) {
	n := New("a")
	assert.False(t, n.FullyExpanded(2))
	require.NoError(t, n.AddChild(New("b")))
	assert.False(t, n.FullyExpanded(2))
	require.NoError(t, n.AddChild(New("c")))
	assert.True(t, n.FullyExpanded(2))
}
