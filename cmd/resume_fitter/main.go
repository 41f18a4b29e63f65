// Package main provides the resume_fitter CLI, which compresses a resume onto one page.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "resume_fitter",
	Short: "Fit a resume onto exactly one page",
	Long: `resume_fitter compresses a structured resume until its LaTeX rendering fits on one page,
raising and lowering a compression pressure between iterations and keeping the best-scoring
candidate.`,
	SilenceUsage: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
