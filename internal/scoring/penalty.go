// Package scoring grades a rendered content model against the quality rubric.
package scoring

import "math"

// PagePenalty returns the soft penalty for a page count. Two-page documents are
// graduated by how full the second page is.
func PagePenalty(pages int, lastPageFill float64) int {
	switch {
	case pages <= 1:
		return 0
	case pages == 2:
		fill := math.Max(0, math.Min(1, lastPageFill))
		if math.IsNaN(lastPageFill) {
			fill = 1
		}
		return -5 - int(math.Round(3*fill))
	default:
		return -15 - 5*(pages-3)
	}
}

// Total combines a rubric sum and a penalty into a score in [0, 100].
func Total(sum, penalty int) int {
	t := sum + penalty
	if t < 0 {
		return 0
	}
	if t > 100 {
		return 100
	}
	return t
}
