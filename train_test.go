package boostsearch

import (
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEarlyStopper(t *testing.T) {
	values := []float64{5, 4, 3, 3.5, 3.2, 3.1, 3.3}
	stopper := &earlyStopper{patience: 3, direction: Minimize, best: -1}
	for round, v := range values[:5] {
		assert.False(t, stopper.Update(round, v), "round %d", round)
	}
	assert.True(t, stopper.Update(5, values[5]))
	assert.Equal(t, 2, stopper.best)

	stopper = &earlyStopper{direction: Maximize, best: -1}
	for round := 0; round < 100; round++ {
		assert.False(t, stopper.Update(round, 0.5))
	}
	assert.Equal(t, 0, stopper.best)
}

func TestSessionImproves(t *testing.T) {
	gen := rand.New(rand.NewSource(1))
	train := testingDataset(gen, 1000, 0.05)
	valid := testingDataset(gen, 300, 0.05)

	trainer := &Trainer{MaxRounds: 30, Metric: AUCMetric}
	s, err := trainer.Train(DefaultConfig(), train, valid, nil)
	require.NoError(t, err)

	history := s.History()
	require.Len(t, history, 30)
	for i, eval := range history {
		assert.Equal(t, i, eval.Round)
	}
	first, last := history[0], history[len(history)-1]
	assert.True(t, last.TrainLogLoss < first.TrainLogLoss)
	assert.True(t, last.ValidLogLoss < first.ValidLogLoss)
	assert.True(t, last.ValidAUC > 0.8, "validation AUC %f", last.ValidAUC)

	assert.True(t, s.Done())
	assert.Equal(t, 29, s.BestRound())
	assert.Equal(t, 30, s.Model().NumRounds())
	assert.Equal(t, last.ValidAUC, s.Score())

	signal, err := s.Step()
	assert.NoError(t, err)
	assert.Equal(t, Finished, signal)
	assert.Len(t, s.History(), 30)
}

func TestSessionEarlyStopping(t *testing.T) {
	// The validation labels are flipped, so every round
	// makes the validation loss worse.
	var trainRows, validRows [][]float64
	for i := 0; i < 100; i++ {
		label := 0.0
		if i >= 50 {
			label = 1
		}
		trainRows = append(trainRows, []float64{label, float64(i)})
		validRows = append(validRows, []float64{1 - label, float64(i)})
	}
	train, err := NewDataset(trainRows, []string{"x"})
	require.NoError(t, err)
	valid, err := NewDataset(validRows, []string{"x"})
	require.NoError(t, err)

	const patience = 4
	trainer := &Trainer{
		MaxRounds:           100,
		EarlyStoppingRounds: patience,
		Metric:              LogLossMetric,
	}
	s, err := trainer.Start(DefaultConfig(), train, valid)
	require.NoError(t, err)

	var signals []Signal
	for !s.Done() {
		signal, err := s.Step()
		require.NoError(t, err)
		signals = append(signals, signal)
	}

	require.Len(t, signals, patience+1)
	assert.Equal(t, StopEarly, signals[patience])
	assert.Equal(t, 0, s.BestRound())
	assert.Equal(t, 1, s.Model().NumRounds())
	assert.Len(t, s.History(), patience+1)
	assert.Equal(t, s.History()[0].ValidLogLoss, s.Score())
}

func TestSessionEarlyStoppingLate(t *testing.T) {
	// 30% of the validation labels disagree with the
	// training labels, so the validation loss falls until
	// predictions pass 0.7 and rises afterwards.
	var trainRows, validRows [][]float64
	for i := 0; i < 100; i++ {
		label := 0.0
		if i >= 50 {
			label = 1
		}
		validLabel := label
		if i%10 < 3 {
			validLabel = 1 - label
		}
		trainRows = append(trainRows, []float64{label, float64(i)})
		validRows = append(validRows, []float64{validLabel, float64(i)})
	}
	train, err := NewDataset(trainRows, []string{"x"})
	require.NoError(t, err)
	valid, err := NewDataset(validRows, []string{"x"})
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.LearningRate = 0.05
	const patience = 3
	trainer := &Trainer{
		MaxRounds:           200,
		EarlyStoppingRounds: patience,
		Metric:              LogLossMetric,
	}
	s, err := trainer.Train(cfg, train, valid, nil)
	require.NoError(t, err)
	require.True(t, s.Done())

	history := s.History()
	best := s.BestRound()
	assert.True(t, best > 0, "best round %d", best)
	assert.Equal(t, best+1, s.Model().NumRounds())
	assert.Len(t, history, best+patience+1)
	assert.Equal(t, history[best].ValidLogLoss, s.Score())
	for i, eval := range history {
		if i != best {
			assert.True(t, eval.ValidLogLoss > history[best].ValidLogLoss, "round %d", i)
		}
	}
}

func TestTrainPrune(t *testing.T) {
	gen := rand.New(rand.NewSource(2))
	train := testingDataset(gen, 200, 0)
	valid := testingDataset(gen, 100, 0)

	trainer := &Trainer{MaxRounds: 50, Metric: LogLossMetric}
	var calls int
	s, err := trainer.Train(DefaultConfig(), train, valid, func(h []Evaluation) Signal {
		calls++
		assert.Len(t, h, calls)
		if len(h) == 3 {
			return Prune
		}
		return Continue
	})
	assert.True(t, errors.Is(err, ErrPruned))
	require.NotNil(t, s)
	assert.Equal(t, 3, calls)
	assert.False(t, s.Done())
	assert.Len(t, s.History(), 3)
}

func TestTrainDeterministic(t *testing.T) {
	gen := rand.New(rand.NewSource(3))
	train := testingDataset(gen, 500, 0.1)
	valid := testingDataset(gen, 100, 0.1)

	cfg := DefaultConfig()
	cfg.BaggingFraction = 0.7
	cfg.BaggingFreq = 2
	cfg.FeatureFraction = 0.5
	cfg.Seed = 42

	trainer := &Trainer{MaxRounds: 10, Metric: AUCMetric}
	s1, err := trainer.Train(cfg, train, valid, nil)
	require.NoError(t, err)
	s2, err := trainer.Train(cfg, train, valid, nil)
	require.NoError(t, err)
	assert.Equal(t, s1.History(), s2.History())
	assert.Equal(t, s1.Model().Trees, s2.Model().Trees)
}

func TestStartErrors(t *testing.T) {
	gen := rand.New(rand.NewSource(4))
	train := testingDataset(gen, 50, 0)
	valid := testingDataset(gen, 50, 0)
	trainer := &Trainer{MaxRounds: 10}

	other, err := NewDataset([][]float64{{1, 2}}, []string{"x"})
	require.NoError(t, err)
	_, err = trainer.Start(DefaultConfig(), train, other)
	assert.True(t, errors.Is(err, ErrSchemaMismatch))

	empty, err := NewDataset(nil, train.FeatureNames())
	require.NoError(t, err)
	_, err = trainer.Start(DefaultConfig(), empty, valid)
	assert.True(t, errors.Is(err, ErrSchemaMismatch))

	cfg := DefaultConfig()
	cfg.BaggingFraction = 0
	_, err = trainer.Start(cfg, train, valid)
	assert.True(t, errors.Is(err, ErrTrialFailure))

	rows := train.Rows()
	rows[3][0] = 2
	bad, err := NewDataset(rows, train.FeatureNames())
	require.NoError(t, err)
	_, err = trainer.Start(DefaultConfig(), bad, valid)
	assert.True(t, errors.Is(err, ErrTrialFailure))
}

func TestApplyParams(t *testing.T) {
	cfg, err := ApplyParams(DefaultConfig(), map[string]float64{
		"num_leaves":       63.0000001,
		"lambda_l1":        0.5,
		"bagging_fraction": 0.7,
	})
	require.NoError(t, err)
	assert.Equal(t, 63, cfg.NumLeaves)
	assert.Equal(t, 0.5, cfg.LambdaL1)
	assert.Equal(t, 0.7, cfg.BaggingFraction)
	assert.Equal(t, DefaultConfig().MinChildSamples, cfg.MinChildSamples)

	_, err = ApplyParams(DefaultConfig(), map[string]float64{"gamma": 1})
	assert.Error(t, err)

	for _, name := range ParamNames() {
		assert.True(t, IsParam(name))
	}
	assert.True(t, IsIntegerParam("bagging_freq"))
	assert.False(t, IsIntegerParam("lambda_l2"))
}
