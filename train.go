package boostsearch

import (
	"math"

	"github.com/pkg/errors"
)

// A Signal is the outcome of a boosting round.
type Signal int

const (
	// Continue indicates that more rounds should be run.
	Continue Signal = iota

	// StopEarly indicates that the validation metric has
	// not improved for EarlyStoppingRounds rounds.
	StopEarly

	// Finished indicates that MaxRounds rounds are done.
	Finished

	// Prune indicates that a RoundHook gave up on the
	// model.
	Prune
)

// String returns a human-readable representation of the
// signal.
func (s Signal) String() string {
	switch s {
	case Continue:
		return "continue"
	case StopEarly:
		return "stop-early"
	case Finished:
		return "finished"
	case Prune:
		return "prune"
	default:
		return ""
	}
}

// A RoundHook is called after every boosting round with
// the evaluations so far.
// Returning Prune halts training.
type RoundHook func(history []Evaluation) Signal

// A Trainer fits boosted tree models for binary
// classification.
type Trainer struct {
	// MaxRounds is the maximum number of trees.
	MaxRounds int

	// EarlyStoppingRounds is the number of rounds without
	// improvement in the validation Metric after which
	// training stops.
	// If 0, early stopping is disabled.
	EarlyStoppingRounds int

	// Metric is monitored for early stopping.
	Metric Metric

	// Algorithm specifies how to build trees.
	Algorithm Algorithm

	// MaxBin is the maximum number of histogram bins per
	// feature.
	// If 0, DefaultMaxBin is used.
	MaxBin int
}

// Train runs a Session until it finishes, calling hook
// (if non-nil) after every round.
//
// If the hook returns Prune, the session is returned along
// with an error wrapping ErrPruned.
func (t *Trainer) Train(cfg Config, train, valid *Dataset, hook RoundHook) (*Session, error) {
	s, err := t.Start(cfg, train, valid)
	if err != nil {
		return nil, err
	}
	for {
		signal, err := s.Step()
		if err != nil {
			return s, err
		}
		if hook != nil && hook(s.history) == Prune {
			return s, errors.Wrapf(ErrPruned, "round %d", len(s.history)-1)
		}
		if signal != Continue {
			return s, nil
		}
	}
}

// Start validates the inputs and creates a Session which
// has not yet run any rounds.
func (t *Trainer) Start(cfg Config, train, valid *Dataset) (*Session, error) {
	if train.Len() == 0 || valid.Len() == 0 {
		return nil, errors.Wrap(ErrSchemaMismatch, "empty dataset")
	}
	if train.NumFeatures() != valid.NumFeatures() {
		return nil, errors.Wrapf(ErrSchemaMismatch,
			"training data has %d features but validation data has %d",
			train.NumFeatures(), valid.NumFeatures())
	}
	if t.MaxRounds < 1 {
		return nil, errors.Wrapf(ErrTrialFailure, "invalid round count: %d", t.MaxRounds)
	}
	if t.EarlyStoppingRounds < 0 {
		return nil, errors.Wrapf(ErrTrialFailure, "invalid early stopping rounds: %d",
			t.EarlyStoppingRounds)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for j, d := range []*Dataset{train, valid} {
		for i := 0; i < d.Len(); i++ {
			if y := d.Label(i); y != 0 && y != 1 {
				return nil, errors.Wrapf(ErrTrialFailure, "%s row %d: label %g is not binary",
					[]string{"training", "validation"}[j], i, y)
			}
		}
	}

	maxBin := t.MaxBin
	if maxBin == 0 {
		maxBin = DefaultMaxBin
	} else if maxBin < 2 || maxBin > math.MaxUint16 {
		return nil, errors.Wrapf(ErrTrialFailure, "invalid max bin: %d", maxBin)
	}

	base := baseScore(train.labels)
	s := &Session{
		trainer: t,
		builder: &Builder{Config: cfg, Algorithm: t.Algorithm},
		data:    newBinnedData(train, maxBin),
		train:   train,
		valid:   valid,
		sampler: newSubsampler(cfg, train.Len(), train.NumFeatures()),
		model:   NewModel(base, cfg, train.names),
		stopper: &earlyStopper{
			patience:  t.EarlyStoppingRounds,
			direction: t.Metric.Direction(),
			best:      -1,
		},
		trainScores: constantScores(train.Len(), base),
		validScores: constantScores(valid.Len(), base),
	}
	return s, nil
}

// A Session trains one model, one round at a time.
type Session struct {
	trainer *Trainer
	builder *Builder
	data    *binnedData
	train   *Dataset
	valid   *Dataset
	sampler *subsampler
	model   *Model
	stopper *earlyStopper

	trainScores []float64
	validScores []float64
	history     []Evaluation

	signal    Signal
	bestRound int
}

// Step grows one tree and evaluates the model.
//
// Once Step returns a Signal other than Continue, the
// model is frozen and further calls return the same
// Signal without training.
// Errors wrap ErrTrialFailure.
func (s *Session) Step() (Signal, error) {
	if s.signal != Continue {
		return s.signal, nil
	}

	round := len(s.history)
	grads, hess := logLikelihoodGrads(s.trainScores, s.data.labels)
	rows := s.sampler.Rows(round)
	features := s.sampler.Features()
	tree := s.builder.Build(s.data, rows, features, grads, hess)
	s.model.Add(tree)

	if err := addTreeScores(s.trainScores, s.train, tree); err != nil {
		return Continue, errors.Wrapf(err, "round %d: training data", round)
	}
	if err := addTreeScores(s.validScores, s.valid, tree); err != nil {
		return Continue, errors.Wrapf(err, "round %d: validation data", round)
	}

	eval := evaluate(round, s.data.labels, probabilities(s.trainScores),
		s.valid.labels, probabilities(s.validScores))
	for _, v := range []float64{eval.TrainLogLoss, eval.ValidLogLoss, eval.TrainAUC,
		eval.ValidAUC} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Continue, errors.Wrapf(ErrTrialFailure, "round %d: non-finite metric", round)
		}
	}
	s.history = append(s.history, eval)

	if s.stopper.Update(round, eval.Valid(s.trainer.Metric)) {
		s.finish(StopEarly)
	} else if round+1 >= s.trainer.MaxRounds {
		s.finish(Finished)
	}
	return s.signal, nil
}

func (s *Session) finish(signal Signal) {
	s.signal = signal
	s.bestRound = len(s.history) - 1
	if s.trainer.EarlyStoppingRounds > 0 && s.stopper.best >= 0 {
		s.bestRound = s.stopper.best
		s.model.Truncate(s.bestRound + 1)
	}
}

// Done checks if the session has finished training.
func (s *Session) Done() bool {
	return s.signal != Continue
}

// Model returns the model.
// Once the session is done, the model is truncated to
// BestRound()+1 trees.
func (s *Session) Model() *Model {
	return s.model
}

// History returns the evaluations of every round so far.
func (s *Session) History() []Evaluation {
	return append([]Evaluation{}, s.history...)
}

// BestRound returns the round the model was frozen at.
// It is -1 until the session is done.
func (s *Session) BestRound() int {
	if !s.Done() {
		return -1
	}
	return s.bestRound
}

// Score returns the validation metric at BestRound.
// It is NaN until the session is done.
func (s *Session) Score() float64 {
	if !s.Done() {
		return math.NaN()
	}
	return s.history[s.bestRound].Valid(s.trainer.Metric)
}

// earlyStopper tracks the best round of a validation
// metric.
type earlyStopper struct {
	patience  int
	direction Direction

	best      int
	bestValue float64
}

// Update records the value for a round and reports
// whether patience has run out.
func (e *earlyStopper) Update(round int, value float64) bool {
	if e.best < 0 || e.direction.Better(value, e.bestValue) {
		e.best = round
		e.bestValue = value
	}
	return e.patience > 0 && round-e.best >= e.patience
}

func addTreeScores(scores []float64, d *Dataset, tree *Tree) error {
	for i := range scores {
		scores[i] += tree.Find(d.row(i))
		if math.IsNaN(scores[i]) || math.IsInf(scores[i], 0) {
			return errors.Wrapf(ErrTrialFailure, "non-finite score for row %d", i)
		}
	}
	return nil
}

func constantScores(n int, value float64) []float64 {
	res := make([]float64, n)
	for i := range res {
		res[i] = value
	}
	return res
}

func probabilities(scores []float64) []float64 {
	res := make([]float64, len(scores))
	for i, s := range scores {
		res[i] = sigmoid(s)
	}
	return res
}
