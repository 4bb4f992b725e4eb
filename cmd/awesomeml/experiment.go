package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"awesomeml/internal/data"
	"awesomeml/internal/evaluation"
	"awesomeml/internal/experiment"
	"awesomeml/internal/models"
	"awesomeml/internal/pipeline"
	"awesomeml/internal/preprocessing"

	"github.com/spf13/cobra"
)

type cvOptions struct {
	data        string
	folds       int
	stratified  bool
	preprocess  string
	outputWidth int
}

func newCVCmd(a *app) *cobra.Command {
	opts := &cvOptions{}

	cmd := &cobra.Command{
		Use:   "cv",
		Short: "Cross validate the baseline on a labelled CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCV(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.data, "data", "", "Path to labelled CSV (last column is the label)")
	cmd.Flags().IntVar(&opts.folds, "folds", 0, "Number of folds (default from config)")
	cmd.Flags().BoolVar(&opts.stratified, "stratified", true, "Keep class proportions in every fold (default from config)")
	cmd.Flags().StringVar(&opts.preprocess, "preprocess", preprocessing.ScaleRaw, "Feature scaling (raw|minmax|standard)")
	cmd.Flags().IntVar(&opts.outputWidth, "output-width", 0, "Unsigned bit width predictions must fit in (default from config)")
	cmd.MarkFlagRequired("data")

	return cmd
}

func (a *app) runCV(cmd *cobra.Command, opts *cvOptions) error {
	flags := cmd.Flags()

	folds := override(flags, "folds", opts.folds, a.cfg.Evaluation.CVFolds)
	if folds < 2 {
		return fmt.Errorf("cross-validation needs at least 2 folds, got %d", folds)
	}
	stratified := override(flags, "stratified", opts.stratified, a.cfg.Evaluation.Stratified)
	width := a.cfg.Model.Resolve().OutputWidth
	if flags.Changed("output-width") {
		var err error
		if width, err = models.ParseOutputWidth(opts.outputWidth); err != nil {
			return err
		}
	}

	ds, y, _, err := loadLabelled(opts.data)
	if err != nil {
		return err
	}

	newPipeline := func() models.Estimator[int] {
		return pipeline.New[int](models.NewMajorityClassifier[int](width), preprocessing.NewScaler(opts.preprocess))
	}
	result, err := evaluation.CrossValidate(a.crossValidator(folds, stratified), ds.X, y, newPipeline)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d-fold cross-validation of %s on %s\n", folds, newPipeline().GetName(), opts.data)
	printCV(out, result)
	return nil
}

type experimentOptions struct {
	grid   string
	data   string
	output string
}

func newExperimentCmd(a *app) *cobra.Command {
	opts := &experimentOptions{}

	cmd := &cobra.Command{
		Use:   "experiment",
		Short: "Run the baseline over a grid of preprocessing, splits, seeds and widths",
		Long: `Run every combination listed in an experiment grid file and export the
results as CSV. A failing combination is recorded with its error.

Example:
  awesomeml experiment --grid config/experiment.yaml --data data/iris.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runExperiment(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.grid, "grid", "config/experiment.yaml", "Path to experiment grid YAML")
	cmd.Flags().StringVar(&opts.data, "data", "", "Path to labelled CSV (last column is the label)")
	cmd.Flags().StringVar(&opts.output, "output", "", "Directory for results (default from config)")
	cmd.MarkFlagRequired("data")

	return cmd
}

func (a *app) runExperiment(cmd *cobra.Command, opts *experimentOptions) error {
	out := cmd.OutOrStdout()

	grid, err := experiment.LoadConfig(opts.grid)
	if err != nil {
		return err
	}

	reader, err := data.NewCSVReader(opts.data)
	if err != nil {
		return err
	}
	ds, err := reader.LoadDataset()
	if err != nil {
		return fmt.Errorf("failed to load data: %w", err)
	}

	fmt.Fprintln(out, "Running full experiment...")
	results, err := experiment.NewRunner(grid, a.logger).RunAllExperiments(ds)
	if err != nil {
		return fmt.Errorf("experiment failed: %w", err)
	}

	outputDir := override(cmd.Flags(), "output", opts.output, a.cfg.Model.Dir)
	expDir := filepath.Join(outputDir, fmt.Sprintf("experiment_%s", time.Now().Format("20060102_150405")))
	if err := os.MkdirAll(expDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	resultsFile := filepath.Join(expDir, "experiment_results.csv")
	if err := experiment.ExportResults(results, resultsFile); err != nil {
		return fmt.Errorf("failed to export results: %w", err)
	}

	failed := 0
	for _, result := range results {
		if result.Error != "" {
			failed++
		}
	}

	fmt.Fprintf(out, "\nExperiment Summary:\n")
	fmt.Fprintf(out, "Total experiments: %d", len(results))
	if failed > 0 {
		fmt.Fprintf(out, " (%s)", red(fmt.Sprintf("%d failed", failed)))
	}
	fmt.Fprintln(out)

	if best, ok := experiment.BestResult(results); ok {
		fmt.Fprintf(out, "Best accuracy: %s (%s preprocessing, %s split, seed %d, %s)\n",
			green(fmt.Sprintf("%.4f", best.Accuracy)), best.Preprocessing, best.TrainTestSplit, best.Seed, best.Parameters)
	}
	fmt.Fprintf(out, "%s Experiment results saved to: %s\n", green("✓"), resultsFile)
	return nil
}
