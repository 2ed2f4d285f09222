package boostsearch

import (
	"math"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Config stores the hyperparameters for growing a single
// model.
//
// Parameter names follow LightGBM, so that sampled
// configurations and saved models read the same way.
type Config struct {
	// NumLeaves bounds the number of leaves per tree.
	NumLeaves int `yaml:"num_leaves"`

	// MaxDepth bounds the depth of every tree.
	// Values <= 0 mean no limit.
	MaxDepth int `yaml:"max_depth"`

	LearningRate float64 `yaml:"learning_rate"`
	LambdaL1     float64 `yaml:"lambda_l1"`
	LambdaL2     float64 `yaml:"lambda_l2"`

	// FeatureFraction is the fraction of features that
	// each tree may split on.
	FeatureFraction float64 `yaml:"feature_fraction"`

	// BaggingFraction is the fraction of rows that each
	// tree is fit to.
	// Bagging is only performed if BaggingFreq > 0, in
	// which case the rows are resampled every BaggingFreq
	// rounds.
	BaggingFraction float64 `yaml:"bagging_fraction"`
	BaggingFreq     int     `yaml:"bagging_freq"`

	MinChildSamples     int     `yaml:"min_child_samples"`
	MinSumHessianInLeaf float64 `yaml:"min_sum_hessian_in_leaf"`

	// Seed determines bagging and feature selection.
	Seed int64 `yaml:"seed"`
}

// DefaultConfig returns LightGBM's defaults.
func DefaultConfig() Config {
	return Config{
		NumLeaves:           31,
		MaxDepth:            -1,
		LearningRate:        0.1,
		FeatureFraction:     1,
		BaggingFraction:     1,
		MinChildSamples:     20,
		MinSumHessianInLeaf: 1e-3,
	}
}

// Validate checks that the hyperparameters can be used
// for training.
// Errors wrap ErrTrialFailure.
func (c *Config) Validate() error {
	check := func(ok bool, msg string, args ...interface{}) error {
		if ok {
			return nil
		}
		return errors.Wrapf(ErrTrialFailure, "invalid config: "+msg, args...)
	}
	checks := []error{
		check(c.NumLeaves >= 2, "num_leaves must be at least 2 (got %d)", c.NumLeaves),
		check(c.LearningRate > 0 && !math.IsInf(c.LearningRate, 0),
			"learning_rate must be positive (got %g)", c.LearningRate),
		check(c.LambdaL1 >= 0, "lambda_l1 must be non-negative (got %g)", c.LambdaL1),
		check(c.LambdaL2 >= 0, "lambda_l2 must be non-negative (got %g)", c.LambdaL2),
		check(c.FeatureFraction > 0 && c.FeatureFraction <= 1,
			"feature_fraction must be in (0, 1] (got %g)", c.FeatureFraction),
		check(c.BaggingFraction > 0 && c.BaggingFraction <= 1,
			"bagging_fraction must be in (0, 1] (got %g)", c.BaggingFraction),
		check(c.BaggingFreq >= 0, "bagging_freq must be non-negative (got %d)", c.BaggingFreq),
		check(c.MinChildSamples >= 0,
			"min_child_samples must be non-negative (got %d)", c.MinChildSamples),
		check(c.MinSumHessianInLeaf >= 0,
			"min_sum_hessian_in_leaf must be non-negative (got %g)", c.MinSumHessianInLeaf),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	return nil
}

type configParam struct {
	integer bool
	get     func(c *Config) float64
	set     func(c *Config, v float64)
}

var configParams = map[string]configParam{
	"num_leaves": {
		integer: true,
		get:     func(c *Config) float64 { return float64(c.NumLeaves) },
		set:     func(c *Config, v float64) { c.NumLeaves = int(math.Round(v)) },
	},
	"max_depth": {
		integer: true,
		get:     func(c *Config) float64 { return float64(c.MaxDepth) },
		set:     func(c *Config, v float64) { c.MaxDepth = int(math.Round(v)) },
	},
	"learning_rate": {
		get: func(c *Config) float64 { return c.LearningRate },
		set: func(c *Config, v float64) { c.LearningRate = v },
	},
	"lambda_l1": {
		get: func(c *Config) float64 { return c.LambdaL1 },
		set: func(c *Config, v float64) { c.LambdaL1 = v },
	},
	"lambda_l2": {
		get: func(c *Config) float64 { return c.LambdaL2 },
		set: func(c *Config, v float64) { c.LambdaL2 = v },
	},
	"feature_fraction": {
		get: func(c *Config) float64 { return c.FeatureFraction },
		set: func(c *Config, v float64) { c.FeatureFraction = v },
	},
	"bagging_fraction": {
		get: func(c *Config) float64 { return c.BaggingFraction },
		set: func(c *Config, v float64) { c.BaggingFraction = v },
	},
	"bagging_freq": {
		integer: true,
		get:     func(c *Config) float64 { return float64(c.BaggingFreq) },
		set:     func(c *Config, v float64) { c.BaggingFreq = int(math.Round(v)) },
	},
	"min_child_samples": {
		integer: true,
		get:     func(c *Config) float64 { return float64(c.MinChildSamples) },
		set:     func(c *Config, v float64) { c.MinChildSamples = int(math.Round(v)) },
	},
	"min_sum_hessian_in_leaf": {
		get: func(c *Config) float64 { return c.MinSumHessianInLeaf },
		set: func(c *Config, v float64) { c.MinSumHessianInLeaf = v },
	},
}

// ParamNames returns the sorted names of every tunable
// hyperparameter.
func ParamNames() []string {
	names := maps.Keys(configParams)
	slices.Sort(names)
	return names
}

// IsParam checks if name is a tunable hyperparameter.
func IsParam(name string) bool {
	_, ok := configParams[name]
	return ok
}

// IsIntegerParam checks if name is a tunable
// hyperparameter that only takes integer values.
func IsIntegerParam(name string) bool {
	return configParams[name].integer
}

// ApplyParams overrides fields of base with the named
// values.
// Integer parameters are rounded to the nearest integer.
func ApplyParams(base Config, params map[string]float64) (Config, error) {
	res := base
	for _, name := range sortedKeys(params) {
		p, ok := configParams[name]
		if !ok {
			return base, errors.Errorf("unknown parameter: %s", name)
		}
		p.set(&res, params[name])
	}
	return res, nil
}

// Params returns every tunable hyperparameter by name.
func (c *Config) Params() map[string]float64 {
	res := map[string]float64{}
	for name, p := range configParams {
		res[name] = p.get(c)
	}
	return res
}

func sortedKeys(m map[string]float64) []string {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}
