package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/onepage/internal/config"
	"github.com/jonathan/onepage/internal/db"
	"github.com/jonathan/onepage/internal/pipeline"
)

var fitCmd = &cobra.Command{
	Use:   "fit",
	Short: "Fit a resume onto one page",
	Long: `Loads a content model (.json, .yaml, .md outline, or free text with a generation service),
runs the adaptive fitting loop and writes resume.pdf, resume.tex and result.json.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	RunE: runFit,
}

var (
	fitInput     string
	fitOutputDir string
)

func init() {
	fitCmd.Flags().StringVarP(&fitInput, "input", "i", "", "Path to the resume content (required)")
	fitCmd.Flags().StringVarP(&fitOutputDir, "out", "o", "out", "Output directory")
	addFitterFlags(fitCmd.Flags())

	if err := fitCmd.MarkFlagRequired("input"); err != nil {
		panic(fmt.Sprintf("failed to mark input flag as required: %v", err))
	}

	rootCmd.AddCommand(fitCmd)
}

func runFit(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(func(c *config.Config) { applyFitterFlags(cmd.Flags(), c) })
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.Verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fitter, err := pipeline.NewFitter(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := fitter.Close(); err != nil {
			logger.Warn("failed to close generation client", "error", err)
		}
	}()

	model, meta, err := fitter.LoadModel(ctx, fitInput)
	if err != nil {
		return err
	}
	logger.Debug("loaded content model", "source", meta.Source, "format", meta.Format, "hash", meta.ShortHash(), "size", meta.Size, "bullets", model.BulletCount())

	database, store := openStore(ctx, cfg, db.DefaultCLIOptions(), logger)
	if database != nil {
		defer database.Close() //nolint:errcheck
	}

	res, runID, err := fitter.Run(ctx, model, pipeline.RunOptions{
		Role:      cfg.Role,
		Source:    meta.Source,
		OutputDir: fitOutputDir,
		Store:     store,
		Verbose:   cfg.Verbose,
		Out:       cmd.OutOrStdout(),
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	status := "converged"
	if !res.Converged {
		status = "best effort, " + string(res.StopReason)
	}
	_, _ = fmt.Fprintf(out, "Fitted to %d page(s) at pressure %.2f, score %d (%s)\n",
		res.PageCount, res.Pressure, res.Evaluation.Total, status)
	_, _ = fmt.Fprintf(out, "Wrote %s\n", filepath.Join(fitOutputDir, pipeline.PDFFile))
	if runID != uuid.Nil {
		_, _ = fmt.Fprintf(out, "Run ID: %s\n", runID)
	}
	return nil
}
