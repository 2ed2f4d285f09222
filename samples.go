package boostsearch

import (
	"math"
	"math/rand"
	"sort"
)

// A subsampler picks the rows and features that each
// boosting round may use.
//
// All randomness comes from one generator seeded by
// Config.Seed, so the choices are reproducible.
type subsampler struct {
	cfg         Config
	rng         *rand.Rand
	numRows     int
	numFeatures int

	rows []int
}

func newSubsampler(cfg Config, numRows, numFeatures int) *subsampler {
	return &subsampler{
		cfg:         cfg,
		rng:         rand.New(rand.NewSource(cfg.Seed)),
		numRows:     numRows,
		numFeatures: numFeatures,
	}
}

// Rows returns the rows for the given round.
// With bagging enabled, the rows are redrawn every
// BaggingFreq rounds.
func (s *subsampler) Rows(round int) []int {
	bagging := s.cfg.BaggingFreq > 0 && s.cfg.BaggingFraction < 1
	if s.rows == nil || (bagging && round%s.cfg.BaggingFreq == 0) {
		if bagging {
			s.rows = s.minibatch(s.numRows, s.cfg.BaggingFraction)
		} else {
			s.rows = allIndices(s.numRows)
		}
	}
	return s.rows
}

// Features returns the features for the next tree.
func (s *subsampler) Features() []int {
	if s.cfg.FeatureFraction >= 1 {
		return allIndices(s.numFeatures)
	}
	return s.minibatch(s.numFeatures, s.cfg.FeatureFraction)
}

// minibatch selects a random, sorted fraction of the
// indices 0 through n-1.
func (s *subsampler) minibatch(n int, frac float64) []int {
	count := int(math.Ceil(float64(n) * frac))
	if count == 0 {
		count = n
	}
	res := append([]int{}, s.rng.Perm(n)[:count]...)
	sort.Ints(res)
	return res
}

func allIndices(n int) []int {
	res := make([]int, n)
	for i := range res {
		res[i] = i
	}
	return res
}
