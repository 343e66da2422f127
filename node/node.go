// Package node defines the MCTS tree node: a passive data record holding a
// candidate reply, its children, and its search statistics. Node does no
// locking of its own: the Search Engine attaches children and updates
// statistics only in its sequential per-iteration integration step (see
// package engine).
package node

import "github.com/waypoint-ai/convomcts/convoerr"

// Exchange is a single role/content pair produced by a simulator. It is
// intentionally looser than convo.Message: simulator output is free-form
// JSON from an LLM and may use role strings the engine doesn't otherwise
// recognise, which must still be stored verbatim rather than rejected.
type Exchange struct {
	Role    string
	Content string
}

// Node is a node in the MCTS search tree. Exactly one of two states holds:
// Parent == nil (the node is a root) or Parent.Children[Index] == node (see
// invariant 2 in spec.md §3).
type Node struct {
	// Response is the candidate assistant reply this node represents.
	Response string

	Parent   *Node
	Children []*Node

	// Index is this node's slot within Parent.Children, or 0 for a root.
	Index int

	Visits     int
	TotalScore float64
	AvgScore   float64

	SimulatedReactions []string
	SubHistory         []Exchange
	GeneralMetrics     map[string]float64
	GoalMetrics        map[string]float64
}

// New creates an unparented node (a root) for the given candidate response.
func New(response string) *Node {
	return &Node{Response: response}
}

// AddChild appends child to n.Children, sets child.Parent = n, and assigns
// child.Index to its new slot. It returns a *convoerr.Error with
// CodeTreeInvariant if child already has a parent — children are never
// re-parented (spec.md §3 lifecycle).
func (n *Node) AddChild(child *Node) error {
	if child.Parent != nil {
		return convoerr.New("node.AddChild", convoerr.CodeTreeInvariant,
			"child already has a parent", nil)
	}
	child.Parent = n
	child.Index = len(n.Children)
	n.Children = append(n.Children, child)
	return nil
}

// Update applies one backpropagated score to n's statistics. Update itself
// does no locking; callers must not run it concurrently with any other
// mutation of the same tree.
func (n *Node) Update(score float64) {
	n.Visits++
	n.TotalScore += score
	n.AvgScore = n.TotalScore / float64(n.Visits)
}

// FullyExpanded reports whether n has reached maxChildren children.
func (n *Node) FullyExpanded(maxChildren int) bool {
	return len(n.Children) >= maxChildren
}

// IsRoot reports whether n has no parent.
func (n *Node) IsRoot() bool {
	return n.Parent == nil
}
