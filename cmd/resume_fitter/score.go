package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/onepage/internal/config"
	"github.com/jonathan/onepage/internal/observability"
	"github.com/jonathan/onepage/internal/pipeline"
	"github.com/jonathan/onepage/internal/rendering"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Render a resume once and score it",
	Long:  "Compiles the content model without compression and prints its page count and rubric evaluation.",
	RunE:  runScore,
}

var scoreInput string

func init() {
	scoreCmd.Flags().StringVarP(&scoreInput, "input", "i", "", "Path to the resume content (required)")
	addFitterFlags(scoreCmd.Flags())

	if err := scoreCmd.MarkFlagRequired("input"); err != nil {
		panic(fmt.Sprintf("failed to mark input flag as required: %v", err))
	}

	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(func(c *config.Config) { applyFitterFlags(cmd.Flags(), c) })
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.Verbose)
	ctx := context.Background()

	fitter, err := pipeline.NewFitter(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer fitter.Close() //nolint:errcheck

	model, _, err := fitter.LoadModel(ctx, scoreInput)
	if err != nil {
		return err
	}

	m, err := fitter.Measurer().RenderAndMeasure(ctx, model, rendering.Mode(cfg.TemplateMode), cfg.LowBound)
	if err != nil {
		return err
	}
	eval := fitter.Scorer().Score(model, m, cfg.Role)

	observability.NewPrinter(cmd.OutOrStdout()).PrintEvaluation(eval)
	return nil
}
