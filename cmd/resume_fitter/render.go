package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/onepage/internal/compression"
	"github.com/jonathan/onepage/internal/config"
	"github.com/jonathan/onepage/internal/ingestion"
	"github.com/jonathan/onepage/internal/observability"
	"github.com/jonathan/onepage/internal/rendering"
	"github.com/jonathan/onepage/internal/transform"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Write the LaTeX source for a resume",
	Long: `Renders the content model to LaTeX without compiling it. With --pressure the deterministic
compression plan for that pressure is applied first.`,
	RunE: runRender,
}

var (
	renderInput    string
	renderOutput   string
	renderPressure float64
)

func init() {
	renderCmd.Flags().StringVarP(&renderInput, "input", "i", "", "Path to the resume content (required)")
	renderCmd.Flags().StringVarP(&renderOutput, "out", "o", "resume.tex", "Output LaTeX file")
	renderCmd.Flags().Float64VarP(&renderPressure, "pressure", "p", 0, "Compress at this pressure before rendering")
	renderCmd.Flags().StringVar(&flagTemplateMode, "mode", "", "Template mode: standard or fallback")
	renderCmd.Flags().StringVarP(&flagRole, "role", "r", "", "Target role used to rank bullets")

	if err := renderCmd.MarkFlagRequired("input"); err != nil {
		panic(fmt.Sprintf("failed to mark input flag as required: %v", err))
	}

	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(func(c *config.Config) { applyFitterFlags(cmd.Flags(), c) })
	if err != nil {
		return err
	}
	ctx := context.Background()

	model, _, err := ingestion.Load(ctx, renderInput, nil)
	if err != nil {
		return err
	}

	pressure := cfg.LowBound
	if cmd.Flags().Changed("pressure") {
		if renderPressure < 0 || renderPressure > 1 {
			return fmt.Errorf("pressure must be between 0 and 1, got %.2f", renderPressure)
		}
		pressure = renderPressure
		var report transform.Report
		model, report, err = transform.New(nil, transform.WithLogger(newLogger(cmd.ErrOrStderr(), cfg.Verbose))).
			Apply(ctx, model, compression.PlanFor(pressure), cfg.Role)
		if err != nil {
			return err
		}
		if cfg.Verbose {
			observability.NewPrinter(cmd.OutOrStdout()).PrintReport(report)
		}
	}

	latex, err := rendering.Render(model, rendering.Mode(cfg.TemplateMode), pressure)
	if err != nil {
		return err
	}
	if err := os.WriteFile(renderOutput, []byte(latex), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", renderOutput, err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", renderOutput)
	return nil
}
