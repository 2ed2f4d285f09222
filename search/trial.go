package search

import (
	"math"
	"time"

	"github.com/unixpickle/boostsearch"
)

// TrialState is the lifecycle state of a Trial.
type TrialState int

// TrialStates contains every TrialState.
var TrialStates = []TrialState{
	Running,
	Completed,
	Pruned,
	Failed,
}

const (
	Running TrialState = iota
	Completed
	Pruned
	Failed
)

// String returns a human-readable representation of the
// state, like "completed".
func (t TrialState) String() string {
	switch t {
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Pruned:
		return "pruned"
	case Failed:
		return "failed"
	default:
		return ""
	}
}

// Finished checks if the state is terminal.
func (t TrialState) Finished() bool {
	return t != Running
}

// A Trial is one evaluation of a hyperparameter
// configuration.
type Trial struct {
	Number int
	Params Params
	State  TrialState

	// Value is the score of a completed trial, or the last
	// monitored value of a pruned trial.
	// It is NaN for failed trials.
	Value float64

	// BestRound is the round the model was frozen at.
	// It is -1 unless the trial completed.
	BestRound int

	// History stores every round's evaluation.
	History []boostsearch.Evaluation

	// Intermediate stores the monitored validation
	// metric for every round.
	Intermediate []float64

	// Model is only set for completed trials.
	Model *boostsearch.Model

	// Err is the reason a trial failed.
	Err error

	Start    time.Time
	Duration time.Duration
}

func newTrial(number int, params Params) *Trial {
	return &Trial{
		Number:    number,
		Params:    params,
		State:     Running,
		Value:     math.NaN(),
		BestRound: -1,
		Start:     time.Now(),
	}
}
