package search

import (
	"math/rand"

	"github.com/pkg/errors"
	"github.com/unixpickle/boostsearch"
)

// A Sampler draws hyperparameter configurations.
//
// The history lists every earlier trial of the study, in
// order.
// Every returned value must be contained in its
// distribution.
type Sampler interface {
	Sample(space Space, history []*Trial) Params
}

// SamplerKind names a Sampler implementation.
type SamplerKind int

// SamplerKinds contains all supported SamplerKinds.
var SamplerKinds = []SamplerKind{
	RandomSamplerKind,
	TPESamplerKind,
}

const (
	RandomSamplerKind SamplerKind = iota
	TPESamplerKind
)

// String returns "random" or "tpe".
func (s SamplerKind) String() string {
	switch s {
	case RandomSamplerKind:
		return "random"
	case TPESamplerKind:
		return "tpe"
	default:
		return ""
	}
}

// ParseSamplerKind is the inverse of SamplerKind.String.
func ParseSamplerKind(s string) (SamplerKind, error) {
	for _, k := range SamplerKinds {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, errors.Errorf("unknown sampler: %s", s)
}

// NewSampler creates a sampler of the given kind.
// The direction tells history-aware samplers which scores
// are good.
func NewSampler(kind SamplerKind, seed int64, dir boostsearch.Direction) Sampler {
	switch kind {
	case RandomSamplerKind:
		return NewRandomSampler(seed)
	case TPESamplerKind:
		return NewTPESampler(seed, dir)
	default:
		panic("unknown sampler kind")
	}
}

// RandomSampler ignores the history and samples every
// parameter independently.
type RandomSampler struct {
	gen *rand.Rand
}

// NewRandomSampler creates a seeded RandomSampler.
func NewRandomSampler(seed int64) *RandomSampler {
	return &RandomSampler{gen: rand.New(rand.NewSource(seed))}
}

func (r *RandomSampler) Sample(space Space, history []*Trial) Params {
	return sampleIndependent(r.gen, space)
}

func sampleIndependent(gen *rand.Rand, space Space) Params {
	res := Params{}
	for _, name := range space.Names() {
		res[name] = space[name].Sample(gen)
	}
	return res
}
