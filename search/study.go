package search

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/unixpickle/boostsearch"
	"go.uber.org/zap"
)

// ErrNoViableTrial is returned when a study has no
// completed trial to choose from.
var ErrNoViableTrial = errors.New("no trial completed")

// A Recorder persists finished trials.
type Recorder interface {
	Record(trial *Trial) error
}

// An Objective holds everything a trial needs besides
// its sampled parameters.
type Objective struct {
	Trainer *boostsearch.Trainer

	// Base supplies the values of every parameter that is
	// not sampled.
	Base boostsearch.Config

	Train *boostsearch.Dataset
	Valid *boostsearch.Dataset

	// Seed is added to the trial number to seed each
	// trial's Config.
	Seed int64
}

// A Study searches for the best hyperparameters by
// running trials one after another.
type Study struct {
	Space   Space
	Sampler Sampler

	// Pruner may be nil, in which case trials are never
	// pruned.
	Pruner Pruner

	// Direction must match the direction of the
	// trainer's metric.
	Direction boostsearch.Direction

	// Recorder, if non-nil, is called with every finished
	// trial.
	// If it fails, the study is aborted.
	Recorder Recorder

	// Logger, if non-nil, receives a line per trial.
	Logger *zap.Logger

	trials []*Trial
	best   *Trial
}

// Optimize runs n more trials.
//
// Failed trials do not stop the study, but invalid
// datasets and Recorder errors do.
// If ctx is done, the study stops once the running trial
// has finished and ctx.Err() is returned.
func (s *Study) Optimize(ctx context.Context, obj *Objective, n int) error {
	if n < 0 {
		return errors.Errorf("invalid trial count: %d", n)
	}
	if obj.Trainer.Metric.Direction() != s.Direction {
		return errors.Errorf("study direction %v does not match metric %v",
			s.Direction, obj.Trainer.Metric)
	}
	for name := range s.Space {
		if !boostsearch.IsParam(name) {
			return errors.Errorf("unknown parameter in search space: %s", name)
		}
	}

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		params := s.Sampler.Sample(s.Space, s.trials[:len(s.trials):len(s.trials)])
		trial := newTrial(len(s.trials), params.Copy())
		if err := s.runTrial(obj, trial); err != nil {
			return err
		}

		s.trials = append(s.trials, trial)
		s.pruner().Record(trial)
		if trial.State == Completed && (s.best == nil ||
			s.Direction.Better(trial.Value, s.best.Value)) {
			s.best = trial
		}
		s.logTrial(trial)

		if s.Recorder != nil {
			if err := s.Recorder.Record(trial); err != nil {
				return errors.Wrapf(err, "record trial %d", trial.Number)
			}
		}
	}
	return nil
}

// runTrial trains the trial's model and sets the trial's
// terminal state.
// Only errors that should abort the study are returned.
func (s *Study) runTrial(obj *Objective, trial *Trial) error {
	defer func() {
		trial.Duration = time.Since(trial.Start)
	}()

	cfg, err := boostsearch.ApplyParams(obj.Base, trial.Params)
	if err != nil {
		trial.State = Failed
		trial.Err = err
		return nil
	}
	cfg.Seed = obj.Seed + int64(trial.Number)

	pruner := s.pruner()
	log := s.logger()
	metric := obj.Trainer.Metric
	hook := func(history []boostsearch.Evaluation) boostsearch.Signal {
		last := history[len(history)-1]
		value := last.Valid(metric)
		trial.Intermediate = append(trial.Intermediate, value)
		log.Debug("round", zap.Int("trial", trial.Number), zap.Int("round", last.Round),
			zap.Float64("train", last.Train(metric)), zap.Float64("valid", value))
		if pruner.Prune(last.Round, value) {
			return boostsearch.Prune
		}
		return boostsearch.Continue
	}

	session, err := obj.Trainer.Train(cfg, obj.Train, obj.Valid, hook)
	if session != nil {
		trial.History = session.History()
	}
	switch {
	case err == nil:
		trial.State = Completed
		trial.Value = session.Score()
		trial.BestRound = session.BestRound()
		trial.Model = session.Model()
	case errors.Is(err, boostsearch.ErrPruned):
		trial.State = Pruned
		if n := len(trial.Intermediate); n > 0 {
			trial.Value = trial.Intermediate[n-1]
		}
	case errors.Is(err, boostsearch.ErrSchemaMismatch):
		return err
	default:
		trial.State = Failed
		trial.Err = err
	}
	return nil
}

func (s *Study) pruner() Pruner {
	if s.Pruner == nil {
		return NopPruner{}
	}
	return s.Pruner
}

func (s *Study) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *Study) logTrial(trial *Trial) {
	log := s.logger()
	fields := []zap.Field{
		zap.Int("trial", trial.Number),
		zap.Stringer("state", trial.State),
		zap.Float64("value", trial.Value),
		zap.Int("best_round", trial.BestRound),
		zap.Duration("duration", trial.Duration),
	}
	switch trial.State {
	case Failed:
		log.Warn("trial failed", append(fields, zap.Error(trial.Err))...)
	default:
		log.Info("trial finished", fields...)
	}
	if trial == s.best {
		log.Info("new best trial", zap.Int("trial", trial.Number),
			zap.Float64("value", trial.Value))
	}
}

// Trials returns every finished trial, in order.
func (s *Study) Trials() []*Trial {
	return append([]*Trial{}, s.trials...)
}

// Best returns the best completed trial.
func (s *Study) Best() (*Trial, error) {
	if s.best == nil {
		return nil, ErrNoViableTrial
	}
	return s.best, nil
}

// Counts returns the number of trials in each terminal
// state.
func (s *Study) Counts() map[TrialState]int {
	res := map[TrialState]int{}
	for _, state := range TrialStates {
		if state.Finished() {
			res[state] = 0
		}
	}
	for _, t := range s.trials {
		res[t.State]++
	}
	return res
}

// BestValue returns the best completed score, or NaN if
// no trial completed.
func (s *Study) BestValue() float64 {
	if s.best == nil {
		return math.NaN()
	}
	return s.best.Value
}
