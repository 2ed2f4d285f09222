package boostsearch

import "github.com/pkg/errors"

// An Algorithm is a criterion for choosing splits and
// leaf values.
type Algorithm int

// Algorithms contains all supported Algorithms.
var Algorithms = []Algorithm{
	NewtonAlgorithm,
	MSEAlgorithm,
}

const (
	// NewtonAlgorithm uses second-order gains, weighting
	// every sample by the curvature of the loss.
	// Leaf values are regularized Newton steps.
	NewtonAlgorithm Algorithm = iota

	// MSEAlgorithm constructs a tree by minimizing
	// mean-squared error over gradients.
	// Leaf values are regularized gradient means.
	MSEAlgorithm
)

// String returns a human-readable representation of the
// algorithm, like "newton" or "mse".
func (a Algorithm) String() string {
	switch a {
	case NewtonAlgorithm:
		return "newton"
	case MSEAlgorithm:
		return "mse"
	default:
		return ""
	}
}

// ParseAlgorithm is the inverse of Algorithm.String.
func ParseAlgorithm(s string) (Algorithm, error) {
	for _, a := range Algorithms {
		if a.String() == s {
			return a, nil
		}
	}
	return 0, errors.Errorf("unknown algorithm: %s", s)
}

func (a Algorithm) splitTracker(l1, l2 float64) splitTracker {
	switch a {
	case NewtonAlgorithm:
		return &newtonTracker{l1: l1, l2: l2}
	case MSEAlgorithm:
		return &mseTracker{l1: l1, l2: l2}
	default:
		panic("unknown tree algorithm")
	}
}

// leafValue computes the unscaled output for a leaf.
func (a Algorithm) leafValue(stats *gradStats, l1, l2 float64) float64 {
	var denom float64
	switch a {
	case NewtonAlgorithm:
		denom = stats.Hess + l2
	case MSEAlgorithm:
		denom = float64(stats.Count) + l2
	default:
		panic("unknown tree algorithm")
	}
	if denom == 0 {
		return 0
	}
	return softThreshold(stats.Grad, l1) / denom
}

// weight is the quantity that minChildWeight-style
// constraints are checked against.
func (a Algorithm) weight(stats *gradStats) float64 {
	if a == MSEAlgorithm {
		return float64(stats.Count)
	}
	return stats.Hess
}

// softThreshold shrinks x towards zero by l1.
func softThreshold(x, l1 float64) float64 {
	if x > l1 {
		return x - l1
	} else if x < -l1 {
		return x + l1
	}
	return 0
}

// A splitTracker dynamically computes how good splits are
// on a spectrum of possible splits.
//
// The gain of a split is the difference between its
// Quality and the Quality right after Reset.
type splitTracker interface {
	Reset(total *gradStats)
	MoveToLeft(stats *gradStats)
	Quality() float64
	Left() *gradStats
	Right() *gradStats
}

type sideTracker struct {
	left  gradStats
	right gradStats
}

func (s *sideTracker) Reset(total *gradStats) {
	s.left = gradStats{}
	s.right = *total
}

func (s *sideTracker) MoveToLeft(stats *gradStats) {
	s.left.Add(stats)
	s.right.Sub(stats)
}

func (s *sideTracker) Left() *gradStats {
	return &s.left
}

func (s *sideTracker) Right() *gradStats {
	return &s.right
}

// A newtonTracker is a splitTracker for NewtonAlgorithm.
type newtonTracker struct {
	sideTracker
	l1 float64
	l2 float64
}

func (n *newtonTracker) Quality() float64 {
	return newtonScore(n.left.Grad, n.left.Hess, n.l1, n.l2) +
		newtonScore(n.right.Grad, n.right.Hess, n.l1, n.l2)
}

func newtonScore(grad, hess, l1, l2 float64) float64 {
	denom := hess + l2
	if denom <= 0 {
		return 0
	}
	t := softThreshold(grad, l1)
	return t * t / denom
}

// A mseTracker is a splitTracker for MSEAlgorithm.
type mseTracker struct {
	sideTracker
	l1 float64
	l2 float64
}

func (m *mseTracker) Quality() float64 {
	left, right := m.leftRightErrors()
	return -(left + right)
}

func (m *mseTracker) leftRightErrors() (left, right float64) {
	// The minimal MSE is equivalent to
	//
	//     Var(x) = E[X^2] - E^2[X]
	//
	// Scaling this by n, we get:
	//
	//     Error = (x1^2 + ... + xn^2) - (x1 + ... + xn)^2/n
	//
	// The regularizers shrink the mean, just like they
	// shrink the leaf values.

	sides := []*gradStats{&m.left, &m.right}
	reses := make([]float64, 2)
	for i, side := range sides {
		n := float64(side.Count) + m.l2
		if n == 0 {
			continue
		}
		t := softThreshold(side.Grad, m.l1)
		reses[i] = side.GradSq - t*t/n
	}

	return reses[0], reses[1]
}
