package search

import (
	"math"

	"github.com/montanaflynn/stats"
	"github.com/unixpickle/boostsearch"
)

// A Pruner decides whether a running trial should be
// stopped early.
type Pruner interface {
	// Prune is called after every round (counting from 0)
	// with the round's monitored validation value.
	Prune(round int, value float64) bool

	// Record is called with every finished trial.
	Record(trial *Trial)
}

// NopPruner never prunes.
type NopPruner struct{}

func (NopPruner) Prune(round int, value float64) bool {
	return false
}

func (NopPruner) Record(trial *Trial) {
}

// A MedianPruner prunes trials whose value at a round is
// worse than the median value of earlier trials at the
// same round.
type MedianPruner struct {
	// WarmupRounds is the number of rounds during which
	// trials are never pruned.
	WarmupRounds int

	// MinTrials is the number of earlier trials that must
	// have reached a round before it can prune.
	// If 0, a default of 2 is used.
	MinTrials int

	Direction boostsearch.Direction

	values map[int][]float64
}

// NewMedianPruner creates a MedianPruner.
func NewMedianPruner(warmup int, dir boostsearch.Direction) *MedianPruner {
	return &MedianPruner{WarmupRounds: warmup, Direction: dir}
}

func (m *MedianPruner) Prune(round int, value float64) bool {
	if round < m.WarmupRounds {
		return false
	}
	if math.IsNaN(value) {
		return true
	}
	values := m.values[round]
	if len(values) < m.minTrials() {
		return false
	}
	median, err := stats.Median(stats.Float64Data(values))
	if err != nil {
		return false
	}
	return m.Direction.Better(median, value)
}

// Record adds the intermediate values of a completed or
// pruned trial.
// Other trials are ignored.
func (m *MedianPruner) Record(trial *Trial) {
	if trial.State != Completed && trial.State != Pruned {
		return
	}
	if m.values == nil {
		m.values = map[int][]float64{}
	}
	for round, v := range trial.Intermediate {
		if !math.IsNaN(v) {
			m.values[round] = append(m.values[round], v)
		}
	}
}

func (m *MedianPruner) minTrials() int {
	if m.MinTrials == 0 {
		return 2
	}
	return m.MinTrials
}
