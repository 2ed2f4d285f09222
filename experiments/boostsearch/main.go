// Command boostsearch tunes gradient-boosted tree models
// and prepares their training data.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitryikh/leaves"
	"github.com/gocarina/gocsv"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/unixpickle/boostsearch"
	"github.com/unixpickle/boostsearch/experiments"
	"github.com/unixpickle/boostsearch/search"
	"github.com/unixpickle/boostsearch/telemetry"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/rip"
	"go.uber.org/zap"
)

func main() {
	root := &cobra.Command{
		Use:           "boostsearch",
		Short:         "hyperparameter search for boosted tree classifiers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(trainCmd(), predictCmd(), extractCmd(), splitCmd(), scanCmd())
	if err := root.Execute(); err != nil {
		essentials.Die(err)
	}
}

func trainCmd() *cobra.Command {
	var configPath string
	var verbose bool
	cmd := &cobra.Command{
		Use:   "train",
		Short: "run a study and promote the best model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				var err error
				configPath, err = experiments.DefaultConfigPath()
				if err != nil {
					return err
				}
			}
			cfg, err := experiments.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if err := cfg.Override(cmd.Flags()); err != nil {
				return err
			}
			logger := experiments.NewLogger(os.Stderr, verbose)
			defer logger.Sync()
			return train(cfg, logger, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "",
		"study config (default: $"+experiments.ConfigEnv+")")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "log debug output")
	experiments.DefaultConfig().AddFlags(cmd.Flags())
	return cmd
}

func train(cfg *experiments.Config, logger *zap.Logger, out io.Writer) error {
	store := cfg.Store()
	if cfg.Clear {
		logger.Info("removing earlier artifacts", zap.String("dir", cfg.OutputDir))
		if err := store.Clear(); err != nil {
			return err
		}
	} else if err := store.Vacant(0); err != nil {
		return errors.Wrap(err, "output directory holds an earlier study")
	}

	logger.Info("loading data", zap.String("train", cfg.TrainPath),
		zap.String("valid", cfg.ValidPath))
	obj, err := cfg.Objective()
	if err != nil {
		return err
	}
	study, err := cfg.Study(logger, store)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-rip.NewRIP().Chan():
			logger.Warn("interrupted; stopping after the current trial")
			cancel()
		case <-ctx.Done():
		}
	}()

	logger.Info("starting study", zap.Int("trials", cfg.Trials),
		zap.Stringer("sampler", &cfg.Sampler), zap.Stringer("metric", &cfg.Metric))
	err = study.Optimize(ctx, obj, cfg.Trials)
	if err != nil && errors.Cause(err) != context.Canceled {
		return err
	}

	if err := store.WriteSummary(study.Trials()); err != nil {
		return err
	}
	report(out, study, cfg.Metric.Metric)

	best, err := study.Best()
	if err != nil {
		return err
	}
	if err := store.Promote(best.Number); err != nil {
		return err
	}
	fmt.Fprintln(out, "Promoted model to", store.BestPath)
	return nil
}

func report(w io.Writer, study *search.Study, metric boostsearch.Metric) {
	counts := study.Counts()
	var parts []string
	for _, state := range search.TrialStates {
		if state.Finished() {
			parts = append(parts, fmt.Sprintf("%s: %d", state, counts[state]))
		}
	}
	fmt.Fprintf(w, "Finished trials: %d (%s)\n", len(study.Trials()),
		strings.Join(parts, ", "))

	var values stats.Float64Data
	for _, t := range study.Trials() {
		if t.State == search.Completed {
			values = append(values, t.Value)
		}
	}
	if len(values) > 1 {
		mean, _ := values.Mean()
		median, _ := values.Median()
		stddev, _ := values.StandardDeviation()
		fmt.Fprintf(w, "Completed %s: mean %.5f, median %.5f, stddev %.5f\n", metric,
			mean, median, stddev)
	}

	best, err := study.Best()
	if err != nil {
		fmt.Fprintln(w, "No trial completed.")
		return
	}
	fmt.Fprintf(w, "Best trial: %d\n", best.Number)
	fmt.Fprintf(w, "  %s: %f (round %d)\n", metric, best.Value, best.BestRound)
	fmt.Fprintln(w, "  Params:")
	for _, name := range best.Params.Names() {
		fmt.Fprintf(w, "    %s: %v\n", name, best.Params[name])
	}
}

type prediction struct {
	Label      float64 `csv:"label"`
	Prediction float64 `csv:"prediction"`
}

func predictCmd() *cobra.Command {
	var modelPath string
	cmd := &cobra.Command{
		Use:   "predict DATA_CSV",
		Short: "score a labeled CSV file with a saved model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := leaves.LGEnsembleFromFile(modelPath, true)
			if err != nil {
				return errors.Wrap(err, "load model")
			}
			data, err := boostsearch.LoadDataset(args[0])
			if err != nil {
				return err
			}
			if model.NFeatures() != data.NumFeatures() {
				return errors.Wrapf(boostsearch.ErrSchemaMismatch,
					"model has %d features but data has %d", model.NFeatures(),
					data.NumFeatures())
			}

			rows := make([]prediction, data.Len())
			labels := make([]float64, data.Len())
			probs := make([]float64, data.Len())
			for i := range rows {
				row := data.Row(i)
				labels[i] = row[0]
				probs[i] = model.PredictSingle(row[1:], 0)
				rows[i] = prediction{Label: labels[i], Prediction: probs[i]}
			}
			if err := gocsv.Marshal(&rows, cmd.OutOrStdout()); err != nil {
				return err
			}
			for _, m := range boostsearch.Metrics {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %f\n", m, m.Evaluate(labels, probs))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&modelPath, "model", "m", "LightGBM_model.txt", "model path")
	return cmd
}

func extractCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "extract DEMO...",
		Short: "flatten tagged demos into one CSV table",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := telemetry.ExpandPaths(args)
			if err != nil {
				return err
			}
			n, err := extractTo(outPath, paths)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows to %s\n", n, outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "output.csv", "output CSV")
	return cmd
}

func splitCmd() *cobra.Command {
	var trainPath, validPath string
	var frac float64
	var seed int64
	cmd := &cobra.Command{
		Use:   "split DEMO...",
		Short: "split tagged demos by file into training and validation tables",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if frac < 0 || frac > 1 {
				return errors.Errorf("split fraction out of range: %f", frac)
			}
			paths, err := telemetry.ExpandPaths(args)
			if err != nil {
				return err
			}
			trainFiles, validFiles := telemetry.SplitFiles(paths, frac, seed)
			fmt.Fprintf(cmd.OutOrStdout(), "Files split into train: %d, val: %d\n",
				len(trainFiles), len(validFiles))
			for _, job := range []struct {
				path  string
				files []string
			}{{trainPath, trainFiles}, {validPath, validFiles}} {
				n, err := extractTo(job.path, job.files)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows to %s\n", n, job.path)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&trainPath, "train-output", "t", "train.csv", "training CSV")
	cmd.Flags().StringVarP(&validPath, "val-output", "v", "val.csv", "validation CSV")
	cmd.Flags().Float64VarP(&frac, "split", "s", 0.8, "fraction of files used for training")
	cmd.Flags().Int64VarP(&seed, "random-seed", "r", 1337, "shuffle seed")
	return cmd
}

func scanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan DEMO...",
		Short: "look for tagged demos with implausible values",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := telemetry.ExpandPaths(args)
			if err != nil {
				return err
			}
			findings, err := telemetry.Scan(paths)
			if err != nil {
				return err
			}
			for _, f := range findings {
				fmt.Fprintln(cmd.OutOrStdout(), "> Found possibly corrupt file:", f)
			}
			return nil
		},
	}
}

func extractTo(path string, demos []string) (n int, err error) {
	defer essentials.AddCtxTo("extract", &err)
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()
	return telemetry.Extract(demos, f)
}
