package fitting

import "github.com/jonathan/onepage/internal/types"

// Accept reports whether candidate may replace previous. A nil previous
// accepts anything; otherwise the total must not drop.
func Accept(previous *types.EvaluationResult, candidate types.EvaluationResult) bool {
	if previous == nil {
		return true
	}
	return candidate.Total >= previous.Total
}
