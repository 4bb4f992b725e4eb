package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"awesomeml/internal/data"
	"awesomeml/internal/persistence"
	"awesomeml/internal/server"

	"github.com/spf13/cobra"
)

type inspectOptions struct {
	model string
	data  string
}

func newInspectCmd(a *app) *cobra.Command {
	opts := &inspectOptions{}

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Describe a saved model bundle and/or a dataset",
		Long: `Print what a .model bundle holds (classes, majority class, output width,
training metrics) and/or summary statistics of a CSV dataset.

Examples:
  awesomeml inspect --model models/majority_iris.model
  awesomeml inspect --data data/iris.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInspect(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.model, "model", "", "Path to a .model bundle")
	cmd.Flags().StringVar(&opts.data, "data", "", "Path to a labelled CSV")
	cmd.MarkFlagsOneRequired("model", "data")

	return cmd
}

func (a *app) runInspect(cmd *cobra.Command, opts *inspectOptions) error {
	out := cmd.OutOrStdout()

	if opts.model != "" {
		bundle, err := persistence.LoadModelBundle(opts.model)
		if err != nil {
			return err
		}
		majority, err := bundle.Model.MajorityClass()
		if err != nil {
			return err
		}

		meta := bundle.Metadata
		fmt.Fprintf(out, "%s %s\n", cyan("Model:"), meta.ModelName)
		fmt.Fprintf(out, "Run: %s\n", meta.RunID)
		fmt.Fprintf(out, "Created: %s\n", bundle.CreatedAt.Format(time.RFC3339))
		fmt.Fprintf(out, "Dataset: %s\n", meta.Dataset)
		fmt.Fprintf(out, "Features: %v\n", meta.Features)
		fmt.Fprintf(out, "Classes: %v\n", meta.Classes)
		fmt.Fprintf(out, "Majority class: %s\n", green(labelDecoder(bundle)(majority)))
		fmt.Fprintf(out, "Output width: %d\n", int(bundle.Model.OutputWidth()))
		fmt.Fprintf(out, "Parameters: %v\n", meta.Parameters)
		fmt.Fprintf(out, "Accuracy: %.4f, F1: %.4f, CV: %.4f +/- %.4f\n", meta.Accuracy, meta.F1Score, meta.CVMean, meta.CVStd)
	}

	if opts.data != "" {
		reader, err := data.NewCSVReader(opts.data)
		if err != nil {
			return err
		}
		ds, err := reader.LoadDataset()
		if err != nil {
			return fmt.Errorf("failed to load data: %w", err)
		}
		if opts.model != "" {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "%s %s\n", cyan("Dataset:"), opts.data)
		printDatasetStats(out, data.NewDataValidator().GetDatasetStats(ds))
	}

	return nil
}

type serveOptions struct {
	model   string
	address string
}

func newServeCmd(a *app) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a saved model over HTTP",
		Long: `Serve predictions from a saved model until interrupted.

Routes:
  POST /v1/predict   {"features": [[...], ...]} -> {"predictions": [...]}
  GET  /v1/model     model description
  GET  /healthz      liveness
  GET  /metrics      Prometheus metrics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.model, "model", "", "Path to a .model bundle")
	cmd.Flags().StringVar(&opts.address, "address", "", "Listen address (default from config)")
	cmd.MarkFlagRequired("model")

	return cmd
}

func (a *app) runServe(cmd *cobra.Command, opts *serveOptions) error {
	bundle, err := persistence.LoadModelBundle(opts.model)
	if err != nil {
		return err
	}
	if !bundle.Model.IsFitted() {
		return errors.New("refusing to serve an unfitted model")
	}

	cfg := a.cfg.Server
	if opts.address != "" {
		cfg.Address = opts.address
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.logger.Info().Str("model", opts.model).Str("run_id", bundle.Metadata.RunID).Msg("serving model")
	return server.New(cfg, bundle, a.logger).Run(ctx)
}
