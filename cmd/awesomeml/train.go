package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"awesomeml/internal/evaluation"
	"awesomeml/internal/models"
	"awesomeml/internal/persistence"
	"awesomeml/internal/pipeline"
	"awesomeml/internal/preprocessing"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type trainOptions struct {
	data        string
	preprocess  string
	outputWidth int
	testSize    float64
	cvFolds     int
	output      string
}

func newTrainCmd(a *app) *cobra.Command {
	opts := &trainOptions{}

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit the baseline on a labelled CSV and save a model bundle",
		Long: `Fit the majority class baseline on a stratified train split, score it on
the held out split and optionally cross validate it. The fitted scaler, model and
label encoding are saved together as one .model file.

Examples:
  awesomeml train --data data/iris.csv
  awesomeml train --data data/iris.csv --preprocess minmax --output-width 16 --cv-folds 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTrain(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.data, "data", "", "Path to labelled CSV (last column is the label)")
	cmd.Flags().StringVar(&opts.preprocess, "preprocess", preprocessing.ScaleRaw, "Feature scaling (raw|minmax|standard)")
	cmd.Flags().IntVar(&opts.outputWidth, "output-width", 0, "Unsigned bit width predictions must fit in, 0 disables the check (default from config)")
	cmd.Flags().Float64Var(&opts.testSize, "test-size", 0, "Held out share in (0, 1) (default from config)")
	cmd.Flags().IntVar(&opts.cvFolds, "cv-folds", 0, "Cross validation folds, 0 disables (default from config)")
	cmd.Flags().StringVar(&opts.output, "output", "", "Directory for the model bundle (default from config)")
	cmd.MarkFlagRequired("data")

	return cmd
}

func (a *app) runTrain(cmd *cobra.Command, opts *trainOptions) error {
	out := cmd.OutOrStdout()
	flags := cmd.Flags()

	modelConfig := a.cfg.Model.Resolve()
	if flags.Changed("output-width") {
		width, err := models.ParseOutputWidth(opts.outputWidth)
		if err != nil {
			return err
		}
		modelConfig.OutputWidth = width
	}
	testSize := override(flags, "test-size", opts.testSize, a.cfg.Evaluation.TestSize)
	folds := override(flags, "cv-folds", opts.cvFolds, a.cfg.Evaluation.CVFolds)
	outputDir := override(flags, "output", opts.output, a.cfg.Model.Dir)

	ds, y, encoder, err := loadLabelled(opts.data)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Loaded %d samples with %d features from %s\n", ds.Len(), len(ds.Features), opts.data)

	estimator, err := models.CreateModel[int](modelConfig)
	if err != nil {
		return err
	}
	model, ok := estimator.(*models.MajorityClassifier[int])
	if !ok {
		return fmt.Errorf("algorithm %s cannot be saved as a bundle", modelConfig.Algorithm)
	}

	scaler := preprocessing.NewScaler(opts.preprocess)
	bundle := persistence.NewModelBundle(model, scaler, encoder)
	decode := labelDecoder(bundle)

	splitter := evaluation.NewTrainTestSplitter(testSize, a.cfg.Evaluation.Seed, true)
	var split *evaluation.Split[int]
	if a.cfg.Evaluation.Stratified {
		split, err = evaluation.StratifiedTrainTest(splitter, ds.X, y)
	} else {
		split, err = evaluation.TrainTest(splitter, ds.X, y)
	}
	if err != nil {
		return fmt.Errorf("failed to split data: %w", err)
	}

	startTime := time.Now()
	if err := bundle.Pipeline().Fit(split.XTrain, split.YTrain); err != nil {
		return fmt.Errorf("training failed: %w", err)
	}
	trainingTime := time.Since(startTime)

	majority, err := model.MajorityClass()
	if err != nil {
		return err
	}
	a.logger.Info().
		Str("model", model.GetName()).
		Int("train_samples", len(split.YTrain)).
		Str("majority_class", decode(majority)).
		Dur("took", trainingTime).
		Msg("model fitted")

	predictions, err := bundle.Pipeline().Predict(split.XTest)
	if err != nil {
		return err
	}
	metrics, err := evaluation.CalculateMetrics(split.YTest, predictions, models.ExtractClasses(y))
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\n%s predicts %s for every sample\n", cyan(model.GetName()), green(decode(majority)))
	fmt.Fprintf(out, "Training time: %v\n", trainingTime)
	printMetrics(out, metrics, decode)

	bundle.Metadata.RunID = uuid.New().String()
	bundle.Metadata.Dataset = opts.data
	bundle.Metadata.Features = ds.Features
	bundle.Metadata.Accuracy = metrics.Accuracy
	bundle.Metadata.Precision = metrics.MacroPrecision
	bundle.Metadata.Recall = metrics.MacroRecall
	bundle.Metadata.F1Score = metrics.MacroF1
	bundle.Metadata.TrainingTime = trainingTime

	classes, err := model.Classes()
	if err != nil {
		return err
	}
	if bundle.Metadata.Classes, err = bundle.DecodeLabels(classes); err != nil {
		return err
	}

	if folds > 0 {
		fmt.Fprintf(out, "\nRunning %d-fold cross-validation...\n", folds)
		width := modelConfig.OutputWidth
		newPipeline := func() models.Estimator[int] {
			return pipeline.New[int](models.NewMajorityClassifier[int](width), preprocessing.NewScaler(opts.preprocess))
		}
		result, err := evaluation.CrossValidate(a.crossValidator(folds, a.cfg.Evaluation.Stratified), ds.X, y, newPipeline)
		if err != nil {
			fmt.Fprintf(out, "%s cross-validation skipped: %v\n", yellow("!"), err)
		} else {
			printCV(out, result)
			bundle.Metadata.CVMean = result.Mean
			bundle.Metadata.CVStd = result.Std
		}
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	base := strings.TrimSuffix(filepath.Base(opts.data), filepath.Ext(opts.data))
	filename := fmt.Sprintf("majority_%s_%s_%s.model", base, scaler.ScaleType, time.Now().Format("20060102_150405"))
	modelPath := filepath.Join(outputDir, filename)

	if err := bundle.Save(modelPath); err != nil {
		return fmt.Errorf("failed to save model: %w", err)
	}
	if err := bundle.SaveMetadata(strings.TrimSuffix(modelPath, ".model") + ".txt"); err != nil {
		a.logger.Warn().Err(err).Msg("failed to write metadata")
	}

	a.logger.Info().Str("run_id", bundle.Metadata.RunID).Str("path", modelPath).Msg("model saved")
	fmt.Fprintf(out, "\n%s Model saved to: %s\n", green("✓"), modelPath)
	return nil
}

// labelDecoder renders an encoded label the way it appeared in the training data.
func labelDecoder(bundle *persistence.ModelBundle) func(int) string {
	return func(label int) string {
		names, err := bundle.DecodeLabels([]int{label})
		if err != nil {
			return strconv.Itoa(label)
		}
		return names[0]
	}
}
