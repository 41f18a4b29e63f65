package observability

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/onepage/internal/compression"
	"github.com/jonathan/onepage/internal/fitting"
	"github.com/jonathan/onepage/internal/transform"
	"github.com/jonathan/onepage/internal/types"
)

func TestPrintPlan(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintPlan(compression.PlanFor(0.85))
	output := buf.String()

	assert.Contains(t, output, "COMPRESSION PLAN")
	assert.Contains(t, output, "aggressive")
	assert.Contains(t, output, "at most 2 per entry")
	assert.Contains(t, output, "drop optional, densify")
}

func TestPrintPlan_Light(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintPlan(compression.PlanFor(0.3))

	assert.Contains(t, buf.String(), "no cap")
	assert.Contains(t, buf.String(), "merge, rewrite")
}

func TestPrintIteration(t *testing.T) {
	tests := []struct {
		name string
		rec  fitting.IterationRecord
		want []string
	}{
		{
			name: "accepted",
			rec: fitting.IterationRecord{
				Iteration: 2, Pressure: 0.45, Level: compression.Light, State: "converged",
				Evaluation: &types.EvaluationResult{PageCount: 1, Total: 91}, Accepted: true,
				Fallbacks: []string{"ranking: 1 entries ranked deterministically"},
			},
			want: []string{"#2", "p=0.45", "pages=1", "score= 91", "accepted → converged", "↳ ranking"},
		},
		{
			name: "failed",
			rec:  fitting.IterationRecord{Iteration: 3, Pressure: 0.6, Level: compression.Medium, Error: "latex compilation failed"},
			want: []string{"#3", "medium", "failed: latex compilation failed"},
		},
		{
			name: "rejected",
			rec: fitting.IterationRecord{
				Iteration: 4, Pressure: 0.75, Level: compression.Aggressive, State: "seeking",
				Evaluation: &types.EvaluationResult{PageCount: 2, Total: 70},
			},
			want: []string{"rejected → seeking"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewPrinter(&buf).PrintIteration(tt.rec)
			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}
}

func TestPrintEvaluation(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintEvaluation(types.EvaluationResult{
		Scores:      types.RubricScores{RoleAlignment: 25, ClarityImpact: 20, ATSOptimization: 15, Formatting: 13, GrammarSafety: 10},
		PagePenalty: -7,
		Total:       76,
		PageCount:   2,
		Issues:      []string{"a", "b", "c", "d", "e", "f", "g"},
		Suggestions: []string{"Consider adding relevant keywords: go"},
	})
	output := buf.String()

	assert.Contains(t, output, "EVALUATION")
	assert.Contains(t, output, "Role alignment    25 / 30")
	assert.Contains(t, output, "Page penalty      -7 (2 pages)")
	assert.Contains(t, output, "Total              76")
	assert.Contains(t, output, "... and 2 more")
	assert.Contains(t, output, "Consider adding relevant keywords")
	assert.NotContains(t, output, "passed")
}

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintReport(transform.Report{
		BulletsIn: 20, BulletsOut: 12, Merged: 2, Dropped: 6,
		SectionsDropped: []string{"Awards"},
		Changes: []transform.BulletChange{
			{Outcome: transform.OutcomeRewritten},
			{Outcome: transform.OutcomeTruncated},
		},
	})

	assert.Contains(t, buf.String(), "20 → 12")
	assert.Contains(t, buf.String(), "dropped Awards")
	assert.Contains(t, buf.String(), "Rewritten: 1 (retried 0, truncated 1)")
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintResult(&fitting.Result{
		Pressure:   0.45,
		State:      "converged",
		Converged:  true,
		StopReason: fitting.StopReasonConverged,
		PageCount:  1,
		Evaluation: types.EvaluationResult{Total: 92},
		History: []fitting.PressureSample{
			{Pressure: 0.3, Pages: 2, Score: 80},
			{Pressure: 0.45, Pages: 1, Score: 92},
		},
	})
	output := buf.String()

	assert.Contains(t, output, "FIT CONVERGED")
	assert.Contains(t, output, "1. p=0.30  pages=2  score=80")
	assert.Contains(t, output, "Stopped:   converged (converged)")
}

func TestPrintResult_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintResult(nil)
	assert.Empty(t, buf.String())
}

func TestPrintBox_TruncatesLongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.printBox("TITLE", strings.Repeat("é", 100))

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		assert.LessOrEqual(t, len([]rune(line)), boxWidth)
	}
	assert.Contains(t, buf.String(), "...")
}
