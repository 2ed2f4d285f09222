package experiments

import (
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/unixpickle/boostsearch"
	"github.com/unixpickle/boostsearch/artifacts"
	"github.com/unixpickle/boostsearch/search"
	"github.com/unixpickle/essentials"
	"go.uber.org/zap"
	yaml "gopkg.in/yaml.v2"
)

// ConfigEnv names the environment variable holding the
// default config path.
// It may be set in a .env file.
const ConfigEnv = "BOOSTSEARCH_CONFIG"

// Config describes a complete study.
type Config struct {
	TrainPath string `yaml:"train"`
	ValidPath string `yaml:"valid"`

	OutputDir string `yaml:"output_dir"`
	BestModel string `yaml:"best_model"`

	// Clear removes earlier artifacts before the study.
	// Without it, a study fails if the output directory
	// already holds artifacts.
	Clear bool `yaml:"clear"`

	Trials              int   `yaml:"trials"`
	MaxRounds           int   `yaml:"max_rounds"`
	EarlyStoppingRounds int   `yaml:"early_stopping_rounds"`
	WarmupRounds        int   `yaml:"warmup_rounds"`
	MaxBin              int   `yaml:"max_bin"`
	Seed                int64 `yaml:"seed"`

	Metric    MetricFlag    `yaml:"metric"`
	Direction DirectionFlag `yaml:"direction"`
	Sampler   SamplerFlag   `yaml:"sampler"`
	Algorithm AlgorithmFlag `yaml:"algorithm"`

	// Params holds every hyperparameter that is not part
	// of the search space.
	Params boostsearch.Config `yaml:"params"`

	Space map[string]search.DistributionSpec `yaml:"space"`
}

// DefaultConfig creates a config which minimizes the
// validation log-loss.
func DefaultConfig() *Config {
	params := boostsearch.DefaultConfig()
	params.LearningRate = 0.01
	return &Config{
		TrainPath:           "train.csv",
		ValidPath:           "val.csv",
		OutputDir:           ".",
		Clear:               true,
		Trials:              100,
		MaxRounds:           100000,
		EarlyStoppingRounds: 50,
		WarmupRounds:        20,
		Metric:              MetricFlag{Metric: boostsearch.LogLossMetric},
		Direction:           DirectionFlag{Direction: boostsearch.Minimize},
		Sampler:             SamplerFlag{Kind: search.TPESamplerKind},
		Algorithm:           AlgorithmFlag{Algorithm: boostsearch.NewtonAlgorithm},
		Params:              params,
		Space:               DefaultSpace(),
	}
}

// DefaultSpace is the search space used when a config
// does not specify one.
func DefaultSpace() map[string]search.DistributionSpec {
	return map[string]search.DistributionSpec{
		"num_leaves":        {Type: "int_uniform", Low: 7, High: 1024},
		"max_depth":         {Type: "int_uniform", Low: 2, High: 64},
		"lambda_l1":         {Type: "log_uniform", Low: 1e-8, High: 10},
		"lambda_l2":         {Type: "log_uniform", Low: 1e-8, High: 1},
		"feature_fraction":  {Type: "uniform", Low: 0.4, High: 1},
		"bagging_fraction":  {Type: "uniform", Low: 0.4, High: 1},
		"bagging_freq":      {Type: "int_uniform", Low: 1, High: 10},
		"min_child_samples": {Type: "int_uniform", Low: 5, High: 100},
	}
}

// DefaultConfigPath returns the config path named by the
// environment, after loading a .env file if one exists.
func DefaultConfigPath() (string, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return "", essentials.AddCtx("load .env", err)
	}
	return os.Getenv(ConfigEnv), nil
}

// LoadConfig reads a YAML config on top of the defaults.
// If path is empty, the defaults are returned.
func LoadConfig(path string) (*Config, error) {
	res := DefaultConfig()
	if path == "" {
		return res, nil
	}
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, essentials.AddCtx("load config", err)
	}
	res.Space = nil
	if err := yaml.UnmarshalStrict(data, res); err != nil {
		return nil, errors.Wrap(err, "load config "+path)
	}
	if len(res.Space) == 0 {
		res.Space = DefaultSpace()
	}
	return res, nil
}

// AddFlags adds flags which override the fields of c.
func (c *Config) AddFlags(f *pflag.FlagSet) {
	f.StringVarP(&c.TrainPath, "train", "t", c.TrainPath, "training CSV")
	f.StringVarP(&c.ValidPath, "valid", "v", c.ValidPath, "validation CSV")
	f.StringVarP(&c.OutputDir, "out", "o", c.OutputDir, "artifact directory")
	f.StringVar(&c.BestModel, "best-model", c.BestModel,
		"promoted model path (default: LightGBM_model.txt in the artifact directory)")
	f.BoolVar(&c.Clear, "clear", c.Clear, "remove earlier artifacts first")
	f.IntVarP(&c.Trials, "trials", "n", c.Trials, "number of trials")
	f.IntVar(&c.MaxRounds, "rounds", c.MaxRounds, "maximum boosting rounds")
	f.IntVar(&c.EarlyStoppingRounds, "early-stop", c.EarlyStoppingRounds,
		"rounds without improvement before stopping (0 to disable)")
	f.IntVarP(&c.WarmupRounds, "warmup", "w", c.WarmupRounds, "pruning warm-up rounds")
	f.IntVar(&c.MaxBin, "max-bin", c.MaxBin, "histogram bins per feature (0 for default)")
	f.Int64Var(&c.Seed, "seed", c.Seed, "random seed")
	f.Float64Var(&c.Params.LearningRate, "learning-rate", c.Params.LearningRate,
		"learning rate")
	f.Var(&c.Metric, "metric", "monitored metric (binary_logloss, auc)")
	f.Var(&c.Direction, "direction", "study direction (minimize, maximize)")
	f.Var(&c.Sampler, "sampler", "sampler (random, tpe)")
	c.Algorithm.AddFlag(f)
}

// Override applies the flags that were set in f, which
// must have been created with AddFlags, to c.
func (c *Config) Override(f *pflag.FlagSet) error {
	target := pflag.NewFlagSet("config", pflag.ContinueOnError)
	c.AddFlags(target)
	var err error
	f.Visit(func(flag *pflag.Flag) {
		if err == nil && target.Lookup(flag.Name) != nil {
			err = target.Set(flag.Name, flag.Value.String())
		}
	})
	return err
}

// Validate checks the study settings.
func (c *Config) Validate() error {
	if c.Trials < 0 {
		return errors.Errorf("invalid trial count: %d", c.Trials)
	}
	if c.Metric.Metric.Direction() != c.Direction.Direction {
		return errors.Errorf("metric %v must be %vd, not %vd", c.Metric.Metric,
			c.Metric.Metric.Direction(), c.Direction.Direction)
	}
	if _, err := c.SearchSpace(); err != nil {
		return err
	}
	return nil
}

// SearchSpace creates the search space.
func (c *Config) SearchSpace() (search.Space, error) {
	return search.NewSpace(c.Space)
}

// Trainer creates the trainer used for every trial.
func (c *Config) Trainer() *boostsearch.Trainer {
	return &boostsearch.Trainer{
		MaxRounds:           c.MaxRounds,
		EarlyStoppingRounds: c.EarlyStoppingRounds,
		Metric:              c.Metric.Metric,
		Algorithm:           c.Algorithm.Algorithm,
		MaxBin:              c.MaxBin,
	}
}

// Objective loads the datasets.
func (c *Config) Objective() (*search.Objective, error) {
	train, err := boostsearch.LoadDataset(c.TrainPath)
	if err != nil {
		return nil, err
	}
	valid, err := boostsearch.LoadDataset(c.ValidPath)
	if err != nil {
		return nil, err
	}
	return &search.Objective{
		Trainer: c.Trainer(),
		Base:    c.Params,
		Train:   train,
		Valid:   valid,
		Seed:    c.Seed,
	}, nil
}

// Store creates the artifact store.
func (c *Config) Store() *artifacts.Store {
	res := &artifacts.Store{Dir: c.OutputDir}
	if c.BestModel != "" {
		res.BestPath = c.BestModel
	} else {
		res.BestPath = filepath.Join(c.OutputDir, artifacts.DefaultBestPath)
	}
	return res
}

// Study creates a study which records every trial.
func (c *Config) Study(logger *zap.Logger, recorder search.Recorder) (*search.Study, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	space, err := c.SearchSpace()
	if err != nil {
		return nil, err
	}
	dir := c.Direction.Direction
	return &search.Study{
		Space:     space,
		Sampler:   search.NewSampler(c.Sampler.Kind, c.Seed, dir),
		Pruner:    search.NewMedianPruner(c.WarmupRounds, dir),
		Direction: dir,
		Recorder:  recorder,
		Logger:    logger,
	}, nil
}
