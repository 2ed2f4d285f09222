package experiments

import (
	"strings"

	"github.com/spf13/pflag"
	"github.com/unixpickle/boostsearch"
	"github.com/unixpickle/boostsearch/search"
)

// AlgorithmFlag is a pflag.Value for a boostsearch
// algorithm.
type AlgorithmFlag struct {
	Algorithm boostsearch.Algorithm
}

// String returns the string representation of the
// algorithm.
func (a *AlgorithmFlag) String() string {
	return a.Algorithm.String()
}

// Set sets the algorithm from a string representation.
func (a *AlgorithmFlag) Set(s string) (err error) {
	a.Algorithm, err = boostsearch.ParseAlgorithm(s)
	return
}

func (a *AlgorithmFlag) Type() string {
	return "algorithm"
}

// AddFlag adds the flag to a flag set.
func (a *AlgorithmFlag) AddFlag(f *pflag.FlagSet) {
	var names []string
	for _, algo := range boostsearch.Algorithms {
		names = append(names, algo.String())
	}
	f.Var(a, "algo", "leaf weighting ("+strings.Join(names, ", ")+")")
}

// MetricFlag is a pflag.Value for the monitored metric.
type MetricFlag struct {
	Metric boostsearch.Metric
}

func (m *MetricFlag) String() string {
	return m.Metric.String()
}

func (m *MetricFlag) Set(s string) (err error) {
	m.Metric, err = boostsearch.ParseMetric(s)
	return
}

func (m *MetricFlag) Type() string {
	return "metric"
}

// DirectionFlag is a pflag.Value for a study direction.
type DirectionFlag struct {
	Direction boostsearch.Direction
}

func (d *DirectionFlag) String() string {
	return d.Direction.String()
}

func (d *DirectionFlag) Set(s string) (err error) {
	d.Direction, err = boostsearch.ParseDirection(s)
	return
}

func (d *DirectionFlag) Type() string {
	return "direction"
}

// SamplerFlag is a pflag.Value for a sampler kind.
type SamplerFlag struct {
	Kind search.SamplerKind
}

func (s *SamplerFlag) String() string {
	return s.Kind.String()
}

func (s *SamplerFlag) Set(v string) (err error) {
	s.Kind, err = search.ParseSamplerKind(v)
	return
}

func (s *SamplerFlag) Type() string {
	return "sampler"
}

// unmarshalFlag decodes a YAML string into a flag value.
func unmarshalFlag(v pflag.Value, unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return v.Set(s)
}

func (a *AlgorithmFlag) UnmarshalYAML(unmarshal func(interface{}) error) error {
	return unmarshalFlag(a, unmarshal)
}

func (a AlgorithmFlag) MarshalYAML() (interface{}, error) {
	return a.Algorithm.String(), nil
}

func (m *MetricFlag) UnmarshalYAML(unmarshal func(interface{}) error) error {
	return unmarshalFlag(m, unmarshal)
}

func (m MetricFlag) MarshalYAML() (interface{}, error) {
	return m.Metric.String(), nil
}

func (d *DirectionFlag) UnmarshalYAML(unmarshal func(interface{}) error) error {
	return unmarshalFlag(d, unmarshal)
}

func (d DirectionFlag) MarshalYAML() (interface{}, error) {
	return d.Direction.String(), nil
}

func (s *SamplerFlag) UnmarshalYAML(unmarshal func(interface{}) error) error {
	return unmarshalFlag(s, unmarshal)
}

func (s SamplerFlag) MarshalYAML() (interface{}, error) {
	return s.Kind.String(), nil
}
