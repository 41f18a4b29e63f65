// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/onepage/internal/compression"
	"github.com/jonathan/onepage/internal/fitting"
	"github.com/jonathan/onepage/internal/transform"
	"github.com/jonathan/onepage/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, shorten(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// shorten truncates s to n runes, marking the cut with "...".
func shorten(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}

// PrintPlan outputs the compression plan chosen for a pressure value.
func (p *Printer) PrintPlan(plan compression.Plan) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Pressure: %.2f\n", plan.Pressure))
	sb.WriteString(fmt.Sprintf("Level:    %s\n", plan.Level))
	if plan.MaxBulletsPerEntry > 0 {
		sb.WriteString(fmt.Sprintf("Bullets:  at most %d per entry\n", plan.MaxBulletsPerEntry))
	} else {
		sb.WriteString("Bullets:  no cap\n")
	}
	sb.WriteString(fmt.Sprintf("Target:   %d chars per bullet\n", plan.TargetCharsPerBullet))

	var steps []string
	for _, s := range []struct {
		on   bool
		name string
	}{
		{plan.MergeNearDuplicates, "merge"},
		{plan.RankWithGenerator, "rank"},
		{plan.Rewrite, "rewrite"},
		{plan.ClipSentences, "clip"},
		{plan.DropOptionalSections, "drop optional"},
		{plan.Densify, "densify"},
	} {
		if s.on {
			steps = append(steps, s.name)
		}
	}
	sb.WriteString(fmt.Sprintf("Steps:    %s", strings.Join(steps, ", ")))

	p.printBox("COMPRESSION PLAN", sb.String())
}

// PrintIteration outputs a one-line summary of a loop iteration.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintIteration(rec fitting.IterationRecord) {
	verdict := "rejected"
	if rec.Accepted {
		verdict = "accepted"
	}
	if rec.Error != "" {
		fmt.Fprintf(p.out, "#%d  p=%.2f %-10s failed: %s\n", rec.Iteration, rec.Pressure, rec.Level, shorten(rec.Error, 60))
		return
	}
	pages, total := 0, 0
	if rec.Evaluation != nil {
		pages, total = rec.Evaluation.PageCount, rec.Evaluation.Total
	}
	fmt.Fprintf(p.out, "#%d  p=%.2f %-10s pages=%d score=%3d %s → %s\n",
		rec.Iteration, rec.Pressure, rec.Level, pages, total, verdict, rec.State)
	for _, f := range rec.Fallbacks {
		fmt.Fprintf(p.out, "    ↳ %s\n", shorten(f, boxWidth))
	}
}

// PrintEvaluation outputs the rubric breakdown of a scored candidate.
func (p *Printer) PrintEvaluation(eval types.EvaluationResult) {
	var sb strings.Builder
	s := eval.Scores
	sb.WriteString(fmt.Sprintf("Role alignment    %2d / %d\n", s.RoleAlignment, types.MaxRoleAlignment))
	sb.WriteString(fmt.Sprintf("Clarity & impact  %2d / %d\n", s.ClarityImpact, types.MaxClarityImpact))
	sb.WriteString(fmt.Sprintf("ATS optimization  %2d / %d\n", s.ATSOptimization, types.MaxATSOptimization))
	sb.WriteString(fmt.Sprintf("Formatting        %2d / %d\n", s.Formatting, types.MaxFormatting))
	sb.WriteString(fmt.Sprintf("Grammar & safety  %2d / %d\n", s.GrammarSafety, types.MaxGrammarSafety))
	if eval.PagePenalty != 0 {
		sb.WriteString(fmt.Sprintf("Page penalty     %3d (%d pages)\n", eval.PagePenalty, eval.PageCount))
	}
	sb.WriteString(fmt.Sprintf("Total             %3d", eval.Total))
	if eval.Passed {
		sb.WriteString("  ✓ passed")
	}

	if len(eval.Issues) > 0 {
		sb.WriteString("\n\nIssues:\n")
		writeList(&sb, eval.Issues)
	}
	if len(eval.Suggestions) > 0 {
		sb.WriteString("\n\nSuggestions:\n")
		writeList(&sb, eval.Suggestions)
	}

	p.printBox("EVALUATION", strings.TrimSuffix(sb.String(), "\n"))
}

func writeList(sb *strings.Builder, items []string) {
	count := min(len(items), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  • %s\n", items[i]))
	}
	if len(items) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(items)-maxItemsToShow))
	}
}

// PrintReport outputs what the final transformation did to the bullets.
func (p *Printer) PrintReport(report transform.Report) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Bullets:   %d → %d\n", report.BulletsIn, report.BulletsOut))
	sb.WriteString(fmt.Sprintf("Merged:    %d\n", report.Merged))
	sb.WriteString(fmt.Sprintf("Dropped:   %d\n", report.Dropped))
	if len(report.SectionsDropped) > 0 {
		sb.WriteString(fmt.Sprintf("Sections:  dropped %s\n", strings.Join(report.SectionsDropped, ", ")))
	}
	sb.WriteString(fmt.Sprintf("Rewritten: %d (retried %d, truncated %d)",
		report.Count(transform.OutcomeRewritten), report.Count(transform.OutcomeRetried), report.Count(transform.OutcomeTruncated)))

	p.printBox("TRANSFORMATION", sb.String())
}

// PrintResult outputs the pressure history and final outcome of a run.
func (p *Printer) PrintResult(res *fitting.Result) {
	if res == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString("Pressure history:\n")
	for i, h := range res.History {
		sb.WriteString(fmt.Sprintf("  %d. p=%.2f  pages=%d  score=%d\n", i+1, h.Pressure, h.Pages, h.Score))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Stopped:   %s (%s)\n", res.StopReason, res.State))
	sb.WriteString(fmt.Sprintf("Pressure:  %.2f\n", res.Pressure))
	sb.WriteString(fmt.Sprintf("Pages:     %d\n", res.PageCount))
	sb.WriteString(fmt.Sprintf("Score:     %d", res.Evaluation.Total))

	title := "✅ FIT CONVERGED"
	if !res.Converged {
		title = "⚠️ BEST EFFORT RESULT"
	}
	p.printBox(title, sb.String())
}
