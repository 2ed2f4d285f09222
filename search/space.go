// Package search implements hyperparameter search for
// boosted tree models: search spaces, samplers, pruners
// and the study loop that ties them together.
package search

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Params maps hyperparameter names to sampled values.
// Integer parameters always hold integral values.
type Params map[string]float64

// Copy creates a copy of the parameters.
func (p Params) Copy() Params {
	res := make(Params, len(p))
	for k, v := range p {
		res[k] = v
	}
	return res
}

// Names returns the sorted parameter names.
func (p Params) Names() []string {
	names := maps.Keys(p)
	slices.Sort(names)
	return names
}

// A Distribution describes the values a hyperparameter
// may take.
//
// Every distribution also has an internal
// representation: a continuous interval in which
// samplers model the parameter.
type Distribution interface {
	// Contains checks if v is a valid value.
	Contains(v float64) bool

	// Sample draws a value uniformly from the internal
	// interval.
	Sample(gen *rand.Rand) float64

	// Bounds returns the internal interval.
	Bounds() (low, high float64)

	// ToInternal maps a valid value into the internal
	// interval.
	ToInternal(v float64) float64

	// FromInternal maps a point in the internal interval
	// to a valid value.
	FromInternal(x float64) float64
}

// Uniform is a real range [Low, High].
type Uniform struct {
	Low  float64
	High float64
}

func (u *Uniform) Contains(v float64) bool {
	return v >= u.Low && v <= u.High
}

func (u *Uniform) Sample(gen *rand.Rand) float64 {
	return u.FromInternal(u.Low + gen.Float64()*(u.High-u.Low))
}

func (u *Uniform) Bounds() (low, high float64) {
	return u.Low, u.High
}

func (u *Uniform) ToInternal(v float64) float64 {
	return v
}

func (u *Uniform) FromInternal(x float64) float64 {
	return clamp(x, u.Low, u.High)
}

// LogUniform is a positive real range [Low, High] whose
// logarithm is sampled uniformly.
type LogUniform struct {
	Low  float64
	High float64
}

func (l *LogUniform) Contains(v float64) bool {
	return v >= l.Low && v <= l.High
}

func (l *LogUniform) Sample(gen *rand.Rand) float64 {
	lo, hi := l.Bounds()
	return l.FromInternal(lo + gen.Float64()*(hi-lo))
}

func (l *LogUniform) Bounds() (low, high float64) {
	return math.Log(l.Low), math.Log(l.High)
}

func (l *LogUniform) ToInternal(v float64) float64 {
	return math.Log(v)
}

func (l *LogUniform) FromInternal(x float64) float64 {
	return clamp(math.Exp(x), l.Low, l.High)
}

// IntUniform is an integer range [Low, High].
type IntUniform struct {
	Low  int
	High int
}

func (i *IntUniform) Contains(v float64) bool {
	return v == math.Round(v) && v >= float64(i.Low) && v <= float64(i.High)
}

func (i *IntUniform) Sample(gen *rand.Rand) float64 {
	return float64(i.Low + gen.Intn(i.High-i.Low+1))
}

// Bounds widens the range by half a unit on each side,
// so every integer covers an equal share of it.
func (i *IntUniform) Bounds() (low, high float64) {
	return float64(i.Low) - 0.5, float64(i.High) + 0.5
}

func (i *IntUniform) ToInternal(v float64) float64 {
	return v
}

func (i *IntUniform) FromInternal(x float64) float64 {
	return clamp(math.Round(x), float64(i.Low), float64(i.High))
}

func clamp(x, low, high float64) float64 {
	return math.Max(low, math.Min(high, x))
}

// A DistributionSpec is the serialized form of a
// Distribution.
type DistributionSpec struct {
	Type string  `yaml:"type"`
	Low  float64 `yaml:"low"`
	High float64 `yaml:"high"`
}

// Distribution validates the descriptor and creates its
// Distribution.
func (d DistributionSpec) Distribution() (Distribution, error) {
	if math.IsNaN(d.Low) || math.IsNaN(d.High) || d.Low > d.High {
		return nil, errors.Errorf("invalid bounds [%g, %g]", d.Low, d.High)
	}
	switch d.Type {
	case "uniform":
		return &Uniform{Low: d.Low, High: d.High}, nil
	case "log_uniform":
		if d.Low <= 0 {
			return nil, errors.Errorf("log_uniform needs a positive lower bound (got %g)", d.Low)
		}
		return &LogUniform{Low: d.Low, High: d.High}, nil
	case "int_uniform":
		if d.Low != math.Round(d.Low) || d.High != math.Round(d.High) {
			return nil, errors.Errorf("int_uniform needs integer bounds (got [%g, %g])",
				d.Low, d.High)
		}
		return &IntUniform{Low: int(d.Low), High: int(d.High)}, nil
	default:
		return nil, errors.Errorf("unknown distribution type: %q", d.Type)
	}
}

// A Space maps hyperparameter names to distributions.
type Space map[string]Distribution

// NewSpace creates a Space from serialized specs.
func NewSpace(specs map[string]DistributionSpec) (Space, error) {
	res := Space{}
	for name, spec := range specs {
		dist, err := spec.Distribution()
		if err != nil {
			return nil, errors.Wrapf(err, "parameter %s", name)
		}
		res[name] = dist
	}
	return res, nil
}

// Names returns the sorted parameter names.
func (s Space) Names() []string {
	names := maps.Keys(s)
	slices.Sort(names)
	return names
}

// Contains checks that p assigns a valid value to every
// parameter in the space, and to nothing else.
func (s Space) Contains(p Params) bool {
	if len(p) != len(s) {
		return false
	}
	for name, dist := range s {
		v, ok := p[name]
		if !ok || !dist.Contains(v) {
			return false
		}
	}
	return true
}
