// Package treeops implements the MCTS selection, backpropagation, pruning,
// and depth-statistics policies over the node package's tree, grounded on
// the UCB1 selection in the teacher framework's pkg/mcts/ucb.go generalised
// from a two-player game tree to a single-agent scoring tree, and on
// original_source/app/services/mcts/tree_operations.py for pruning and
// depth-statistics semantics.
package treeops

import (
	"math"

	"github.com/waypoint-ai/convomcts/node"
)

// SelectChild returns the child of parent maximising the UCB1 score. A child with zero visits is treated as having
// a score of +Inf; ties among +Inf (or otherwise equal) children are broken
// by insertion order — the first one wins (spec.md §4.2).
//
// It returns nil when parent has no children.
func SelectChild(parent *node.Node, explorationConstant float64) *node.Node {
	best := -1
	bestScore := math.Inf(-1)
	lnParentVisits := math.Log(float64(parent.Visits))

	for i, c := range parent.Children {
		if c.Visits == 0 {
			return c
		}
		score := c.AvgScore + explorationConstant*math.Sqrt(2*lnParentVisits/float64(c.Visits))
		if score > bestScore {
			bestScore = score
			best = i
		}
	}
	if best < 0 {
		return nil
	}
	return parent.Children[best]
}

// Descend starts at root and repeatedly replaces the current node with its
// UCB1-best child while the current node has children AND is fully
// expanded, stopping at a node that is either a leaf or not fully expanded.
// That stopping node is the iteration's expansion target (spec.md §4.2).
func Descend(root *node.Node, maxChildren int, explorationConstant float64) *node.Node {
	current := root
	for len(current.Children) > 0 && current.FullyExpanded(maxChildren) {
		next := SelectChild(current, explorationConstant)
		if next == nil {
			break
		}
		current = next
	}
	return current
}

// Backpropagate walks parent pointers from n to its root, calling Update(score)
// at every node on the path (spec.md §4.2). It does no locking; the engine
// calls it only from its sequential integration step.
func Backpropagate(n *node.Node, score float64) {
	for cur := n; cur != nil; cur = cur.Parent {
		cur.Update(score)
	}
}

// Prune runs one pruning pass over roots and returns the number of nodes
// detached. For every root with Visits >= minVisitsForPruning, descendants
// whose Visits > 0 and AvgScore < root.AvgScore*pruningThresholdRatio are
// detached in their entirety — counted as 1 plus the size of their subtree.
// A child with Visits == 0 is never pruned: it is unexplored, not bad.
// The threshold is computed once per root and used unchanged at every
// depth (spec.md §4.2, §9 — this "root-relative threshold" behaviour is
// intentionally aggressive and preserved from the original implementation).
// Prune never detaches a root itself.
func Prune(roots []*node.Node, minVisitsForPruning int, pruningThresholdRatio float64) int {
	pruned := 0
	for _, root := range roots {
		if root.Visits < minVisitsForPruning {
			continue
		}
		threshold := root.AvgScore * pruningThresholdRatio
		pruned += pruneChildren(root, threshold)
	}
	return pruned
}

func pruneChildren(n *node.Node, threshold float64) int {
	if len(n.Children) == 0 {
		return 0
	}

	pruned := 0
	kept := n.Children[:0:0]

	for _, child := range n.Children {
		if child.Visits > 0 && child.AvgScore < threshold {
			pruned += 1 + countDescendants(child)
			continue
		}
		child.Index = len(kept)
		kept = append(kept, child)
		pruned += pruneChildren(child, threshold)
	}

	n.Children = kept
	return pruned
}

func countDescendants(n *node.Node) int {
	count := len(n.Children)
	for _, c := range n.Children {
		count += countDescendants(c)
	}
	return count
}

// AverageDepth returns the mean depth (edges from its root) of every leaf
// reachable in the forest rooted at roots. An empty forest yields 0
// (spec.md §4.2).
func AverageDepth(roots []*node.Node) float64 {
	var total, count int
	for _, root := range roots {
		total, count = collectLeafDepths(root, 0, total, count)
	}
	if count == 0 {
		return 0
	}
	return float64(total) / float64(count)
}

func collectLeafDepths(n *node.Node, depth, total, count int) (int, int) {
	if len(n.Children) == 0 {
		return total + depth, count + 1
	}
	for _, c := range n.Children {
		total, count = collectLeafDepths(c, depth+1, total, count)
	}
	return total, count
}
