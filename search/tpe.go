package search

import (
	"math"
	"math/rand"
	"sort"

	"github.com/unixpickle/boostsearch"
	"github.com/unixpickle/essentials"
)

// Default settings for TPESampler.
const (
	DefaultStartupTrials = 10
	DefaultCandidates    = 24
	DefaultMaxGood       = 25
)

// TPESampler is a Tree-structured Parzen Estimator.
//
// Once enough trials have completed, it splits them into
// a small group of good trials and the rest, fits a
// Parzen density to the parameter values of each group,
// and picks the candidate that maximizes the ratio of the
// good density to the bad density.
// Parameters are modeled independently.
type TPESampler struct {
	// NumStartupTrials is the number of completed trials
	// before which parameters are sampled at random.
	NumStartupTrials int

	// NumCandidates is the number of values drawn from
	// the good density per parameter.
	NumCandidates int

	// Gamma determines the number of good trials given
	// the number of completed trials.
	// If nil, defaultGamma is used.
	Gamma func(n int) int

	Direction boostsearch.Direction

	gen *rand.Rand
}

// NewTPESampler creates a TPESampler with default
// settings.
func NewTPESampler(seed int64, dir boostsearch.Direction) *TPESampler {
	return &TPESampler{
		NumStartupTrials: DefaultStartupTrials,
		NumCandidates:    DefaultCandidates,
		Direction:        dir,
		gen:              rand.New(rand.NewSource(seed)),
	}
}

func (t *TPESampler) Sample(space Space, history []*Trial) Params {
	completed := completedTrials(history)
	if len(completed) < t.NumStartupTrials || len(completed) == 0 {
		return sampleIndependent(t.gen, space)
	}

	sort.SliceStable(completed, func(i, j int) bool {
		return t.Direction.Better(completed[i].Value, completed[j].Value)
	})
	numGood := t.gamma(len(completed))
	good, bad := completed[:numGood], completed[numGood:]

	res := Params{}
	for _, name := range space.Names() {
		dist := space[name]
		goodEst := newParzenEstimator(dist, paramValues(dist, name, good))
		badEst := newParzenEstimator(dist, paramValues(dist, name, bad))

		best := math.NaN()
		bestScore := math.Inf(-1)
		for i := 0; i < t.NumCandidates; i++ {
			x := goodEst.Sample(t.gen)
			score := goodEst.LogDensity(x) - badEst.LogDensity(x)
			if math.IsNaN(best) || score > bestScore {
				best = x
				bestScore = score
			}
		}
		if math.IsNaN(best) {
			best = goodEst.Sample(t.gen)
		}
		res[name] = dist.FromInternal(best)
	}
	return res
}

func (t *TPESampler) gamma(n int) int {
	var res int
	if t.Gamma != nil {
		res = t.Gamma(n)
	} else {
		res = defaultGamma(n)
	}
	if res < 1 {
		return 1
	} else if res > n {
		return n
	}
	return res
}

// defaultGamma picks the best 10% of trials, capped at
// DefaultMaxGood.
func defaultGamma(n int) int {
	res := int(math.Ceil(0.1 * float64(n)))
	if res > DefaultMaxGood {
		return DefaultMaxGood
	}
	return res
}

func completedTrials(history []*Trial) []*Trial {
	var res []*Trial
	for _, trial := range history {
		if trial.State == Completed && !math.IsNaN(trial.Value) {
			res = append(res, trial)
		}
	}
	return res
}

func paramValues(dist Distribution, name string, trials []*Trial) []float64 {
	var res []float64
	for _, trial := range trials {
		if v, ok := trial.Params[name]; ok && dist.Contains(v) {
			res = append(res, dist.ToInternal(v))
		}
	}
	return res
}

// A parzenEstimator is a mixture of Gaussians truncated
// to the internal interval of a distribution.
//
// Besides one component per observation, the mixture has
// a wide prior component centered on the interval.
type parzenEstimator struct {
	low     float64
	high    float64
	mus     []float64
	sigmas  []float64
	weights []float64
}

func newParzenEstimator(dist Distribution, obs []float64) *parzenEstimator {
	low, high := dist.Bounds()
	width := high - low
	res := &parzenEstimator{low: low, high: high}

	mus := append([]float64{low + width/2}, obs...)
	isPrior := make([]bool, len(mus))
	isPrior[0] = true
	essentials.VoodooSort(mus, func(i, j int) bool {
		return mus[i] < mus[j]
	}, isPrior)

	minSigma := width / math.Min(100, float64(1+len(obs)))
	for i, mu := range mus {
		var sigma float64
		if isPrior[i] {
			sigma = width
		} else {
			left := low
			if i > 0 {
				left = mus[i-1]
			}
			right := high
			if i+1 < len(mus) {
				right = mus[i+1]
			}
			sigma = math.Max(mu-left, right-mu)
			sigma = clamp(sigma, minSigma, width)
		}
		res.mus = append(res.mus, mu)
		res.sigmas = append(res.sigmas, sigma)
		res.weights = append(res.weights, 1/float64(len(mus)))
	}
	return res
}

// Sample draws a point from the mixture.
func (p *parzenEstimator) Sample(gen *rand.Rand) float64 {
	idx := len(p.weights) - 1
	r := gen.Float64()
	for i, w := range p.weights {
		if r < w {
			idx = i
			break
		}
		r -= w
	}
	mu, sigma := p.mus[idx], p.sigmas[idx]
	if sigma == 0 {
		return clamp(mu, p.low, p.high)
	}
	for i := 0; i < 100; i++ {
		x := mu + gen.NormFloat64()*sigma
		if x >= p.low && x <= p.high {
			return x
		}
	}
	return clamp(mu, p.low, p.high)
}

// LogDensity computes the log of the mixture density.
func (p *parzenEstimator) LogDensity(x float64) float64 {
	var terms []float64
	for i, mu := range p.mus {
		sigma := p.sigmas[i]
		if sigma == 0 {
			continue
		}
		mass := normalCDF((p.high-mu)/sigma) - normalCDF((p.low-mu)/sigma)
		if mass <= 0 {
			continue
		}
		z := (x - mu) / sigma
		logPDF := -0.5*z*z - math.Log(sigma) - 0.5*math.Log(2*math.Pi)
		terms = append(terms, math.Log(p.weights[i])+logPDF-math.Log(mass))
	}
	return logSumExp(terms)
}

func normalCDF(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}

func logSumExp(terms []float64) float64 {
	if len(terms) == 0 {
		return math.Inf(-1)
	}
	max := math.Inf(-1)
	for _, t := range terms {
		max = math.Max(max, t)
	}
	if math.IsInf(max, -1) {
		return max
	}
	var sum float64
	for _, t := range terms {
		sum += math.Exp(t - max)
	}
	return max + math.Log(sum)
}
