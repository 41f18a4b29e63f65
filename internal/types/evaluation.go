//nolint:revive // types is a standard Go package name pattern
package types

// Rubric maxima. They sum to 100.
const (
	MaxRoleAlignment   = 30
	MaxClarityImpact   = 25
	MaxATSOptimization = 20
	MaxFormatting      = 15
	MaxGrammarSafety   = 10
)

// RubricScores holds the five bounded sub-scores of the quality rubric.
type RubricScores struct {
	RoleAlignment   int `json:"role_alignment"`
	ClarityImpact   int `json:"clarity_impact"`
	ATSOptimization int `json:"ats_optimization"`
	Formatting      int `json:"formatting"`
	GrammarSafety   int `json:"grammar_safety"`
}

// Sum returns the rubric total before the page penalty.
func (r RubricScores) Sum() int {
	return r.RoleAlignment + r.ClarityImpact + r.ATSOptimization + r.Formatting + r.GrammarSafety
}

// EvaluationResult is the score of one rendered candidate. It is produced once per iteration.
// Passed is set for one-page candidates scoring at least PassingScore.
type EvaluationResult struct {
	Scores       RubricScores `json:"scores"`
	PagePenalty  int          `json:"page_penalty"`
	Total        int          `json:"total"`
	PageCount    int          `json:"page_count"`
	LastPageFill float64      `json:"last_page_fill"`
	Passed       bool         `json:"passed"`
	Issues       []string     `json:"issues,omitempty"`
	Suggestions  []string     `json:"suggestions,omitempty"`
}

// PassingScore is the total a one-page candidate needs to be considered finished.
const PassingScore = 90

// OnePage reports whether the candidate rendered to exactly one page.
func (e EvaluationResult) OnePage() bool {
	return e.PageCount == 1
}
