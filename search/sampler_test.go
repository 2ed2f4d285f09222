package search

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unixpickle/boostsearch"
)

func TestSamplersInBounds(t *testing.T) {
	space := defaultTestSpace()
	history := fakeHistory(space, 40, func(p Params) float64 {
		return p["feature_fraction"] + math.Log(p["lambda_l1"])
	})
	for _, kind := range SamplerKinds {
		sampler := NewSampler(kind, 1, boostsearch.Minimize)
		for i := 0; i < 200; i++ {
			p := sampler.Sample(space, history[:i%len(history)])
			require.True(t, space.Contains(p), "%v: %v", kind, p)
		}
	}
}

func TestSamplersDeterministic(t *testing.T) {
	space := defaultTestSpace()
	history := fakeHistory(space, 20, func(p Params) float64 {
		return p["bagging_fraction"]
	})
	for _, kind := range SamplerKinds {
		s1 := NewSampler(kind, 7, boostsearch.Maximize)
		s2 := NewSampler(kind, 7, boostsearch.Maximize)
		for i := 0; i < 30; i++ {
			assert.Equal(t, s1.Sample(space, history), s2.Sample(space, history), "%v", kind)
		}
	}
}

func TestTPEConcentrates(t *testing.T) {
	space := Space{"x": &Uniform{Low: 0, High: 1}}
	history := fakeHistory(space, 50, func(p Params) float64 {
		return (p["x"] - 0.3) * (p["x"] - 0.3)
	})
	sampler := NewTPESampler(1, boostsearch.Minimize)

	var dist float64
	const n = 200
	for i := 0; i < n; i++ {
		dist += math.Abs(sampler.Sample(space, history)["x"] - 0.3)
	}
	dist /= n

	// Uniform samples would average about 0.29.
	assert.True(t, dist < 0.2, "mean distance %f", dist)
}

func TestTPEIgnoresUnfinished(t *testing.T) {
	space := Space{"x": &Uniform{Low: 0, High: 1}}
	var history []*Trial
	for i := 0; i < 20; i++ {
		history = append(history, &Trial{
			Number: i,
			Params: Params{"x": 0.5},
			State:  Failed,
			Value:  math.NaN(),
		})
	}
	assert.Empty(t, completedTrials(history))

	sampler := NewTPESampler(1, boostsearch.Minimize)
	p := sampler.Sample(space, history)
	assert.True(t, space.Contains(p))
}

func TestParseSamplerKind(t *testing.T) {
	for _, k := range SamplerKinds {
		parsed, err := ParseSamplerKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}
	_, err := ParseSamplerKind("grid")
	assert.Error(t, err)
}

func defaultTestSpace() Space {
	return Space{
		"num_leaves":       &IntUniform{Low: 7, High: 1024},
		"lambda_l1":        &LogUniform{Low: 1e-8, High: 10},
		"feature_fraction": &Uniform{Low: 0.4, High: 1},
		"bagging_fraction": &Uniform{Low: 0.4, High: 1},
	}
}

// fakeHistory creates completed trials with random
// parameters and the given scores.
func fakeHistory(space Space, n int, score func(p Params) float64) []*Trial {
	gen := rand.New(rand.NewSource(1337))
	var res []*Trial
	for i := 0; i < n; i++ {
		p := sampleIndependent(gen, space)
		res = append(res, &Trial{
			Number: i,
			Params: p,
			State:  Completed,
			Value:  score(p),
		})
	}
	return res
}
