package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"

	"awesomeml/internal/data"
	"awesomeml/internal/evaluation"
	"awesomeml/internal/models"
	"awesomeml/internal/persistence"

	"github.com/spf13/cobra"
)

type predictOptions struct {
	model     string
	data      string
	batchSize int
	labelCol  int
	output    string
}

func newPredictCmd(a *app) *cobra.Command {
	opts := &predictOptions{}

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict every row of a CSV with a saved model",
		Long: `Stream a CSV through a saved model in batches and write one prediction per
row as CSV (row,prediction). Empty cells read as zero, since the baseline
never looks at feature values.

Examples:
  awesomeml predict --model models/majority_iris.model --data data/new.csv
  awesomeml predict --model m.model --data data/test.csv --label-col 4 --output out.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPredict(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.model, "model", "", "Path to a .model bundle")
	cmd.Flags().StringVar(&opts.data, "data", "", "Path to the CSV to predict")
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", 256, "Rows per batch")
	cmd.Flags().IntVar(&opts.labelCol, "label-col", -1, "Column to ignore as label, -1 when every column is a feature")
	cmd.Flags().StringVar(&opts.output, "output", "", "Write predictions to this file instead of stdout")
	cmd.MarkFlagRequired("model")
	cmd.MarkFlagRequired("data")

	return cmd
}

func (a *app) runPredict(cmd *cobra.Command, opts *predictOptions) error {
	bundle, err := persistence.LoadModelBundle(opts.model)
	if err != nil {
		return err
	}

	var dst io.Writer = cmd.OutOrStdout()
	if opts.output != "" {
		file, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer file.Close()
		dst = file
	}

	writer := csv.NewWriter(dst)
	if err := writer.Write([]string{"row", "prediction"}); err != nil {
		return err
	}

	total := 0
	err = data.ProcessFile(opts.data, opts.labelCol, opts.batchSize, func(batch *data.DataBatch) error {
		labels, err := bundle.PredictLabels(batch.X)
		if err != nil {
			return err
		}
		for i, label := range labels {
			if err := writer.Write([]string{strconv.Itoa(batch.Rows[i]), label}); err != nil {
				return err
			}
		}
		total += len(labels)
		a.logger.Debug().Int("offset", batch.Offset).Int("rows", len(labels)).Msg("batch predicted")
		return nil
	})
	if err != nil {
		return fmt.Errorf("prediction failed: %w", err)
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}

	a.logger.Info().Str("model", opts.model).Str("data", opts.data).Int("rows", total).Msg("predictions written")
	fmt.Fprintf(cmd.ErrOrStderr(), "%s %d predictions\n", green("✓"), total)
	return nil
}

type evaluateOptions struct {
	model string
	data  string
}

func newEvaluateCmd(a *app) *cobra.Command {
	opts := &evaluateOptions{}

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score a saved model on a labelled CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runEvaluate(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.model, "model", "", "Path to a .model bundle")
	cmd.Flags().StringVar(&opts.data, "data", "", "Path to labelled CSV (last column is the label)")
	cmd.MarkFlagRequired("model")
	cmd.MarkFlagRequired("data")

	return cmd
}

func (a *app) runEvaluate(cmd *cobra.Command, opts *evaluateOptions) error {
	out := cmd.OutOrStdout()

	bundle, err := persistence.LoadModelBundle(opts.model)
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

	yTrue, err := bundle.EncodeLabels(ds.Labels)
	if err != nil {
		return fmt.Errorf("labels do not match the model: %w", err)
	}
	yPred, err := bundle.Pipeline().Predict(ds.X)
	if err != nil {
		return err
	}

	classes := models.ExtractClasses(slices.Concat(yTrue, yPred))
	metrics, err := evaluation.CalculateMetrics(yTrue, yPred, classes)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s on %s (%d samples)\n", cyan(bundle.Metadata.ModelName), opts.data, ds.Len())
	printMetrics(out, metrics, labelDecoder(bundle))
	return nil
}
