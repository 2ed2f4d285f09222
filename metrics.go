package boostsearch

import (
	"math"

	"github.com/pkg/errors"
	"github.com/unixpickle/essentials"
)

// A Direction specifies whether smaller or larger metric
// values are better.
type Direction int

const (
	Minimize Direction = iota
	Maximize
)

// String returns "minimize" or "maximize".
func (d Direction) String() string {
	switch d {
	case Minimize:
		return "minimize"
	case Maximize:
		return "maximize"
	default:
		return ""
	}
}

// ParseDirection is the inverse of Direction.String.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "minimize":
		return Minimize, nil
	case "maximize":
		return Maximize, nil
	default:
		return 0, errors.Errorf("unknown direction: %s", s)
	}
}

// Better checks if a is strictly better than b.
//
// NaN is never better than anything, and anything else
// is better than NaN.
func (d Direction) Better(a, b float64) bool {
	if math.IsNaN(a) {
		return false
	} else if math.IsNaN(b) {
		return true
	}
	if d == Maximize {
		return a > b
	}
	return a < b
}

// Worst returns a value that every other value improves
// upon.
func (d Direction) Worst() float64 {
	if d == Maximize {
		return math.Inf(-1)
	}
	return math.Inf(1)
}

// A Metric measures the quality of binary predictions.
type Metric int

// Metrics contains all supported Metrics.
var Metrics = []Metric{
	LogLossMetric,
	AUCMetric,
}

const (
	// LogLossMetric is the mean negative log-likelihood.
	LogLossMetric Metric = iota

	// AUCMetric is the area under the ROC curve.
	AUCMetric
)

// String returns the LightGBM name of the metric.
func (m Metric) String() string {
	switch m {
	case LogLossMetric:
		return "binary_logloss"
	case AUCMetric:
		return "auc"
	default:
		return ""
	}
}

// ParseMetric is the inverse of Metric.String.
func ParseMetric(s string) (Metric, error) {
	for _, m := range Metrics {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, errors.Errorf("unknown metric: %s", s)
}

// Direction returns the direction in which the metric
// improves.
func (m Metric) Direction() Direction {
	if m == AUCMetric {
		return Maximize
	}
	return Minimize
}

// Evaluate computes the metric for the probabilities.
func (m Metric) Evaluate(labels, probs []float64) float64 {
	switch m {
	case LogLossMetric:
		return LogLoss(labels, probs)
	case AUCMetric:
		return AUC(labels, probs)
	default:
		panic("unknown metric")
	}
}

// LogLoss computes the mean binary cross-entropy.
// Probabilities are clipped away from 0 and 1.
func LogLoss(labels, probs []float64) float64 {
	if len(labels) == 0 {
		return math.NaN()
	}
	const eps = 1e-15
	var sum float64
	for i, y := range labels {
		p := math.Min(math.Max(probs[i], eps), 1-eps)
		sum -= y*math.Log(p) + (1-y)*math.Log(1-p)
	}
	return sum / float64(len(labels))
}

// AUC computes the area under the ROC curve, which is the
// probability that a random positive sample is ranked
// above a random negative sample.
// Ties count as half.
//
// If only one class is present, the result is 1.
func AUC(labels, probs []float64) float64 {
	sorted := append([]float64{}, probs...)
	sortedLabels := append([]float64{}, labels...)
	essentials.VoodooSort(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	}, sortedLabels)

	var numPos, numNeg float64
	var posRankSum float64
	for i := 0; i < len(sorted); {
		j := i
		for j < len(sorted) && sorted[j] == sorted[i] {
			j++
		}
		// Ranks i+1 through j share their average.
		rank := float64(i+1+j) / 2
		for k := i; k < j; k++ {
			if sortedLabels[k] == 1 {
				numPos++
				posRankSum += rank
			} else {
				numNeg++
			}
		}
		i = j
	}
	if numPos == 0 || numNeg == 0 {
		return 1
	}
	return (posRankSum - numPos*(numPos+1)/2) / (numPos * numNeg)
}

// An Evaluation records every metric on the training and
// validation data after one boosting round.
type Evaluation struct {
	Round        int     `csv:"round"`
	TrainLogLoss float64 `csv:"train_logloss"`
	ValidLogLoss float64 `csv:"val_logloss"`
	TrainAUC     float64 `csv:"train_auc"`
	ValidAUC     float64 `csv:"val_auc"`
}

// Valid returns the validation value of a metric.
func (e *Evaluation) Valid(m Metric) float64 {
	if m == AUCMetric {
		return e.ValidAUC
	}
	return e.ValidLogLoss
}

// Train returns the training value of a metric.
func (e *Evaluation) Train(m Metric) float64 {
	if m == AUCMetric {
		return e.TrainAUC
	}
	return e.TrainLogLoss
}

func evaluate(round int, trainLabels, trainProbs, validLabels, validProbs []float64) Evaluation {
	return Evaluation{
		Round:        round,
		TrainLogLoss: LogLoss(trainLabels, trainProbs),
		ValidLogLoss: LogLoss(validLabels, validProbs),
		TrainAUC:     AUC(trainLabels, trainProbs),
		ValidAUC:     AUC(validLabels, validProbs),
	}
}
