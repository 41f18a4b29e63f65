package scoring

import (
	"log/slog"
	"strings"

	"github.com/jonathan/onepage/internal/typeset"
	"github.com/jonathan/onepage/internal/types"
)

// DefaultRole is scored against when no target role is given.
const DefaultRole = "Software Engineer"

// Scorer grades a measured candidate.
type Scorer interface {
	Score(model types.ContentModel, m typeset.Measurement, role string) types.EvaluationResult
}

// HeuristicScorer scores with local checks only. It never fails and is deterministic.
type HeuristicScorer struct {
	logger *slog.Logger
}

// NewHeuristicScorer creates a scorer. A nil logger uses slog.Default.
func NewHeuristicScorer(logger *slog.Logger) *HeuristicScorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &HeuristicScorer{logger: logger}
}

// Score evaluates model as rendered in m for role.
func (s *HeuristicScorer) Score(model types.ContentModel, m typeset.Measurement, role string) types.EvaluationResult {
	if strings.TrimSpace(role) == "" {
		role = DefaultRole
	}

	var result types.EvaluationResult

	alignment, alignmentSuggestions := roleAlignment(model, role)
	result.Scores.RoleAlignment = alignment
	result.Suggestions = append(result.Suggestions, alignmentSuggestions...)

	clarity, clarityIssues := clarityImpact(model)
	result.Scores.ClarityImpact = clarity
	result.Issues = append(result.Issues, clarityIssues...)

	ats, atsSuggestions := atsOptimization(model, role)
	result.Scores.ATSOptimization = ats
	result.Suggestions = append(result.Suggestions, atsSuggestions...)

	format, formatIssues := formatting(model, m.LaTeX)
	result.Scores.Formatting = format
	result.Issues = append(result.Issues, formatIssues...)

	grammar := grammarErrors(model)
	result.Scores.GrammarSafety = clamp(types.MaxGrammarSafety-len(grammar), 0, types.MaxGrammarSafety)
	result.Issues = append(result.Issues, grammar...)

	result.PageCount = m.PageCount
	result.LastPageFill = m.LastPageFill
	result.PagePenalty = PagePenalty(m.PageCount, m.LastPageFill)
	if result.PagePenalty < 0 {
		result.Issues = append(result.Issues, pageIssue(m.PageCount))
	}
	result.Total = Total(result.Scores.Sum(), result.PagePenalty)
	result.Passed = result.OnePage() && result.Total >= types.PassingScore

	s.logger.Debug("scored candidate",
		"total", result.Total,
		"pages", result.PageCount,
		"penalty", result.PagePenalty,
		"passed", result.Passed,
	)
	return result
}

func pageIssue(pages int) string {
	if pages == 2 {
		return "Resume spills onto a second page"
	}
	return "Resume is far longer than one page"
}
