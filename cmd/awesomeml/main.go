package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"awesomeml/internal/config"
	"awesomeml/internal/data"
	"awesomeml/internal/evaluation"
	"awesomeml/internal/logging"
	"awesomeml/internal/preprocessing"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// app carries what every subcommand needs once the root command has loaded config.
type app struct {
	configPath string
	cfg        *config.AppConfig
	logger     zerolog.Logger
	closers    []io.Closer
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}

	root := &cobra.Command{
		Use:   "awesomeml",
		Short: "Majority class baseline classifier",
		Long: `awesomeml trains, evaluates and serves a majority class baseline.
Every prediction is the most frequent training label, with ties going to the
smallest label. Use it as the floor any real model has to beat.

Examples:
  awesomeml train --data data/iris.csv --cv-folds 5
  awesomeml predict --model models/majority_iris.model --data data/new.csv
  awesomeml serve --model models/majority_iris.model`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to YAML config file (defaults and AWESOMEML_* env when empty)")

	root.AddCommand(
		newTrainCmd(a),
		newPredictCmd(a),
		newEvaluateCmd(a),
		newCVCmd(a),
		newExperimentCmd(a),
		newInspectCmd(a),
		newServeCmd(a),
	)

	return root, a
}

// execute runs the command tree and releases what setup opened, whether or not
// the command succeeded.
func execute(root *cobra.Command, a *app) error {
	err := root.Execute()
	return errors.Join(err, a.close())
}

func (a *app) close() error {
	var errs []error
	for _, closer := range a.closers {
		errs = append(errs, closer.Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	logger, closer := logging.Setup(cfg.Logger, cmd.ErrOrStderr())
	a.logger = logger
	a.closers = append(a.closers, closer)
	a.logger.Debug().Str("command", cmd.Name()).Str("config", a.configPath).Msg("configuration loaded")
	return nil
}

// loadLabelled reads a labelled CSV and maps its labels onto ints. Integer labels
// are used as they are; anything else goes through an ascending LabelEncoder,
// which is returned so predictions can be decoded again.
func loadLabelled(path string) (*data.Dataset, []int, *preprocessing.LabelEncoder, error) {
	reader, err := data.NewCSVReader(path)
	if err != nil {
		return nil, nil, nil, err
	}
	ds, err := reader.LoadDataset()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load data: %w", err)
	}
	if err := data.ValidateDataset(ds.X, ds.Labels); err != nil {
		return nil, nil, nil, fmt.Errorf("data validation failed: %w", err)
	}

	if y, ok := ds.IntLabels(); ok {
		return ds, y, nil, nil
	}

	encoder := preprocessing.NewLabelEncoder()
	y, err := encoder.FitTransform(ds.Labels)
	if err != nil {
		return nil, nil, nil, err
	}
	return ds, y, encoder, nil
}

func (a *app) crossValidator(folds int, stratified bool) *evaluation.CrossValidator {
	cv := evaluation.NewCrossValidator(folds, stratified)
	cv.RandomSeed = a.cfg.Evaluation.Seed
	cv.MaxWorkers = a.cfg.Evaluation.Workers
	cv.Parallel = cv.MaxWorkers > 1
	cv.Logger = a.logger
	return cv
}

// override returns the flag value when it was set on the command line, else the configured one.
func override[T any](flags *pflag.FlagSet, name string, flagValue, configured T) T {
	if flags.Changed(name) {
		return flagValue
	}
	return configured
}

func main() {
	if err := execute(newRootCmd()); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", red("✗"), err)
		os.Exit(1)
	}
}
