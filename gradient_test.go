package boostsearch

import (
	"math"
	"testing"
)

func TestLogLikelihoodGrads(t *testing.T) {
	scores := []float64{0, 2, -1, 0.5}
	labels := []float64{1, 0, 0, 1}
	grads, hess := logLikelihoodGrads(scores, labels)
	for i, s := range scores {
		p := sigmoid(s)
		expectedGrad := labels[i] - p
		expectedHess := p * (1 - p)
		if math.Abs(grads[i]-expectedGrad) > 1e-8 {
			t.Errorf("sample %d: expected gradient %f but got %f", i, expectedGrad, grads[i])
		}
		if math.Abs(hess[i]-expectedHess) > 1e-8 {
			t.Errorf("sample %d: expected hessian %f but got %f", i, expectedHess, hess[i])
		}
	}
}

func TestBaseScore(t *testing.T) {
	actual := baseScore([]float64{1, 1, 1, 0})
	if expected := math.Log(3); math.Abs(actual-expected) > 1e-8 {
		t.Errorf("expected %f but got %f", expected, actual)
	}
	if s := baseScore([]float64{1, 1}); math.IsInf(s, 0) || math.IsNaN(s) {
		t.Errorf("expected finite score, got %f", s)
	}
}
