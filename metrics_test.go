package boostsearch

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAUC(t *testing.T) {
	labels := []float64{0, 0, 1, 1}
	assert.InDelta(t, 1.0, AUC(labels, []float64{0.1, 0.2, 0.8, 0.9}), 1e-12)
	assert.InDelta(t, 0.0, AUC(labels, []float64{0.9, 0.8, 0.2, 0.1}), 1e-12)
	assert.InDelta(t, 0.75, AUC(labels, []float64{0.1, 0.4, 0.35, 0.8}), 1e-12)
	assert.InDelta(t, 0.5, AUC(labels, []float64{0.5, 0.5, 0.5, 0.5}), 1e-12)

	// One tie between a positive and a negative counts half.
	assert.InDelta(t, 0.875, AUC(labels, []float64{0.1, 0.5, 0.5, 0.9}), 1e-12)
}

func TestAUCSingleClass(t *testing.T) {
	assert.Equal(t, 1.0, AUC([]float64{1, 1}, []float64{0.2, 0.3}))
	assert.Equal(t, 1.0, AUC([]float64{0, 0}, []float64{0.2, 0.3}))
}

func TestLogLoss(t *testing.T) {
	loss := LogLoss([]float64{1, 0}, []float64{0.8, 0.4})
	expected := -(math.Log(0.8) + math.Log(0.6)) / 2
	assert.InDelta(t, expected, loss, 1e-12)

	assert.False(t, math.IsInf(LogLoss([]float64{1}, []float64{0}), 0))
	assert.True(t, math.IsNaN(LogLoss(nil, nil)))
}

func TestDirection(t *testing.T) {
	assert.True(t, Minimize.Better(1, 2))
	assert.False(t, Minimize.Better(2, 2))
	assert.True(t, Maximize.Better(2, 1))
	assert.False(t, Maximize.Better(math.NaN(), 1))
	assert.True(t, Maximize.Better(0, math.NaN()))
	assert.True(t, Minimize.Better(1e300, Minimize.Worst()))
	assert.True(t, Maximize.Better(-1e300, Maximize.Worst()))

	assert.Equal(t, Maximize, AUCMetric.Direction())
	assert.Equal(t, Minimize, LogLossMetric.Direction())
}

func TestParseMetric(t *testing.T) {
	for _, m := range Metrics {
		parsed, err := ParseMetric(m.String())
		assert.NoError(t, err)
		assert.Equal(t, m, parsed)
	}
	_, err := ParseMetric("rmse")
	assert.Error(t, err)

	d, err := ParseDirection("maximize")
	assert.NoError(t, err)
	assert.Equal(t, Maximize, d)
	_, err = ParseDirection("up")
	assert.Error(t, err)
}

func TestMetricEvaluate(t *testing.T) {
	labels := []float64{0, 0, 1, 1}
	probs := []float64{0.1, 0.6, 0.4, 0.9}
	assert.Equal(t, 0.75, AUCMetric.Evaluate(labels, probs))
	assert.Equal(t, LogLoss(labels, probs), LogLossMetric.Evaluate(labels, probs))

	eval := &Evaluation{TrainLogLoss: 0.3, ValidLogLoss: 0.4, TrainAUC: 0.9, ValidAUC: 0.8}
	assert.Equal(t, 0.3, eval.Train(LogLossMetric))
	assert.Equal(t, 0.9, eval.Train(AUCMetric))
	assert.Equal(t, 0.4, eval.Valid(LogLossMetric))
	assert.Equal(t, 0.8, eval.Valid(AUCMetric))
}
