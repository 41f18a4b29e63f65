package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/onepage/internal/compression"
	"github.com/jonathan/onepage/internal/observability"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print the compression plan for a pressure value",
	Long:  "Shows the compression level, bullet cap, character target and steps the transformer applies at the given pressure.",
	RunE:  runPlan,
}

var planPressure float64

func init() {
	planCmd.Flags().Float64VarP(&planPressure, "pressure", "p", 0, "Compression pressure between 0 and 1 (required)")

	if err := planCmd.MarkFlagRequired("pressure"); err != nil {
		panic(fmt.Sprintf("failed to mark pressure flag as required: %v", err))
	}

	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, _ []string) error {
	if planPressure < 0 || planPressure > 1 {
		return fmt.Errorf("pressure must be between 0 and 1, got %.2f", planPressure)
	}

	plan := compression.PlanFor(planPressure)
	observability.NewPrinter(cmd.OutOrStdout()).PrintPlan(plan)
	if verbose {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\nInstructions:\n%s\n", plan.Instructions())
	}
	return nil
}
