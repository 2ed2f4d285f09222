package boostsearch

import "math"

// Tree is a node in a regression tree.
//
// A Tree is either a leaf node or a branching node.
// Every node stores the output it would produce as a
// leaf, along with the number of training samples that
// reached it.
type Tree struct {
	Leaf  bool
	Value float64
	Count int

	// Information for branching nodes.
	// Samples with Feature <= Threshold, or with a missing
	// Feature, go to Left.
	Feature   int
	Threshold float64
	Gain      float64
	Left      *Tree
	Right     *Tree
}

// Find returns the leaf output for the feature vector.
func (t *Tree) Find(features []float64) float64 {
	if t.Leaf {
		return t.Value
	}
	val := features[t.Feature]
	if math.IsNaN(val) || val <= t.Threshold {
		return t.Left.Find(features)
	} else {
		return t.Right.Find(features)
	}
}

// NumLeaves counts the leaves in the tree.
func (t *Tree) NumLeaves() int {
	if t.Leaf {
		return 1
	}
	return t.Left.NumLeaves() + t.Right.NumLeaves()
}

// Depth returns the length of the longest path from the
// root to a leaf.
func (t *Tree) Depth() int {
	if t.Leaf {
		return 0
	}
	l, r := t.Left.Depth(), t.Right.Depth()
	if l > r {
		return l + 1
	}
	return r + 1
}

// Shift adds a constant to every output in the tree.
func (t *Tree) Shift(delta float64) {
	t.Value += delta
	if !t.Leaf {
		t.Left.Shift(delta)
		t.Right.Shift(delta)
	}
}

// Copy creates a deep copy of the tree.
func (t *Tree) Copy() *Tree {
	res := *t
	if !t.Leaf {
		res.Left = t.Left.Copy()
		res.Right = t.Right.Copy()
	}
	return &res
}
