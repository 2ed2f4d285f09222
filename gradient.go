package boostsearch

import (
	"math"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvec64"
)

// logLikelihoodGrads computes, for every sample, the
// gradient and the negated second derivative of the
// binary log-likelihood with respect to the raw score.
//
// Each score s is treated as the logit pair [0, s] of a
// two-way softmax, so the gradient is y-p and the
// curvature is p*(1-p), where p is the predicted
// probability of the positive class.
//
// Since the gradient points uphill, a Newton step adds
// grad/hess to the score.
func logLikelihoodGrads(scores, labels []float64) (grads, hess []float64) {
	if len(scores) == 0 {
		return nil, nil
	}
	c := anyvec64.DefaultCreator{}

	logits := make([]float64, len(scores)*2)
	oneHot := make([]float64, len(scores)*2)
	for i, score := range scores {
		logits[2*i+1] = score
		if labels[i] == 1 {
			oneHot[2*i+1] = 1
		} else {
			oneHot[2*i] = 1
		}
	}

	params := anydiff.NewVar(c.MakeVectorData(c.MakeNumericList(logits)))
	targets := anydiff.NewConst(c.MakeVectorData(c.MakeNumericList(oneHot)))
	logProbs := anydiff.LogSoftmax(params, 2)
	obj := anydiff.Sum(anydiff.Mul(logProbs, targets))

	grad := anydiff.NewGrad(params)
	obj.Propagate(anyvec.Ones(c, 1), grad)

	gradVec := vecToFloats(grad[params])
	probVec := vecToFloats(logProbs.Output())

	grads = make([]float64, len(scores))
	hess = make([]float64, len(scores))
	for i := range scores {
		grads[i] = gradVec[2*i+1]
		p := math.Exp(probVec[2*i+1])
		hess[i] = p * (1 - p)
	}
	return
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// baseScore is the log-odds of the positive class.
// It is clipped so that single-class data still yields a
// finite score.
func baseScore(labels []float64) float64 {
	if len(labels) == 0 {
		return 0
	}
	var pos float64
	for _, y := range labels {
		pos += y
	}
	p := math.Min(math.Max(pos/float64(len(labels)), 1e-15), 1-1e-15)
	return math.Log(p / (1 - p))
}
