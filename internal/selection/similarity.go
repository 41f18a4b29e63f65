package selection

import (
	"strings"
	"unicode"

	"github.com/jonathan/onepage/internal/rewriting"
)

// NearDuplicateThreshold is the token Jaccard similarity above which two bullets are merge candidates.
const NearDuplicateThreshold = 0.6

var similarityStopwords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "of": true, "to": true, "for": true,
	"in": true, "on": true, "with": true, "by": true, "at": true, "from": true, "via": true,
}

func tokenSet(text string) map[string]bool {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '%' && r != '+' && r != '#'
	})
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		if !similarityStopwords[f] {
			set[f] = true
		}
	}
	return set
}

// Similarity returns the Jaccard similarity of the content words of a and b.
func Similarity(a, b string) float64 {
	sa, sb := tokenSet(a), tokenSet(b)
	if len(sa) == 0 && len(sb) == 0 {
		return 1
	}
	inter := 0
	for t := range sa {
		if sb[t] {
			inter++
		}
	}
	union := len(sa) + len(sb) - inter
	return float64(inter) / float64(union)
}

// Subsumes reports whether every fact of b also appears in a, so dropping b loses nothing.
func Subsumes(a, b string) bool {
	return rewriting.PreservesFacts(b, a)
}

// MergeNearDuplicates removes bullets that are near-duplicates of an earlier or later bullet
// whose facts cover theirs. The survivor keeps its position. It returns the kept bullets
// and the number merged away.
func MergeNearDuplicates(bullets []string) ([]string, int) {
	if len(bullets) < 2 {
		return bullets, 0
	}
	dropped := make([]bool, len(bullets))
	for i := 0; i < len(bullets); i++ {
		if dropped[i] {
			continue
		}
		for j := i + 1; j < len(bullets); j++ {
			if dropped[j] || Similarity(bullets[i], bullets[j]) < NearDuplicateThreshold {
				continue
			}
			switch {
			case Subsumes(bullets[i], bullets[j]):
				dropped[j] = true
			case Subsumes(bullets[j], bullets[i]):
				dropped[i] = true
			}
			if dropped[i] {
				break
			}
		}
	}

	merged := 0
	out := make([]string, 0, len(bullets))
	for i, b := range bullets {
		if dropped[i] {
			merged++
			continue
		}
		out = append(out, b)
	}
	if merged == 0 {
		return bullets, 0
	}
	return out, merged
}
