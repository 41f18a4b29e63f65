package rewriting

import (
	"math"
	"regexp"
	"strings"

	"github.com/jonathan/onepage/internal/compression"
)

// Common strong action verbs for resume bullets (heuristic check)
var strongVerbs = map[string]bool{
	"accelerated": true, "accomplished": true, "achieved": true, "analyzed": true, "architected": true,
	"automated": true, "built": true, "coordinated": true, "created": true, "delivered": true,
	"deployed": true, "designed": true, "developed": true, "directed": true, "engineered": true,
	"enhanced": true, "established": true, "evaluated": true, "exceeded": true, "identified": true,
	"implemented": true, "improved": true, "increased": true, "integrated": true, "launched": true,
	"led": true, "managed": true, "migrated": true, "optimized": true, "orchestrated": true,
	"pioneered": true, "reduced": true, "researched": true, "scaled": true, "shipped": true,
	"spearheaded": true, "streamlined": true, "transformed": true,
}

var digitPattern = regexp.MustCompile(`\d`)

// StyleChecksResult holds the results of style validation
type StyleChecksResult struct {
	StrongVerb    bool
	Quantified    bool
	NoWeakPhrases bool
	TargetLength  bool
}

// ValidateStyle checks if rewritten text meets style requirements
func ValidateStyle(rewrittenText string, maxChars int) StyleChecksResult {
	textLower := strings.ToLower(strings.TrimSpace(rewrittenText))

	return StyleChecksResult{
		StrongVerb:    checkStrongVerb(textLower),
		Quantified:    checkQuantifiedImpact(rewrittenText),
		NoWeakPhrases: len(FindWeakPhrases(rewrittenText)) == 0,
		TargetLength:  maxChars <= 0 || ComputeLengthChars(rewrittenText) <= maxChars,
	}
}

// checkStrongVerb checks if text starts with a strong action verb
func checkStrongVerb(textLower string) bool {
	words := strings.Fields(textLower)
	if len(words) == 0 {
		return false
	}

	firstWord := strings.TrimRight(words[0], ".,!?;:")
	if strongVerbs[firstWord] {
		return true
	}

	// verbs ending in -ed are usually past-tense action verbs
	return strings.HasSuffix(firstWord, "ed") && len(firstWord) > 3
}

// checkQuantifiedImpact checks if text contains numbers or metrics
func checkQuantifiedImpact(text string) bool {
	return digitPattern.MatchString(text) || strings.Contains(text, "%")
}

// Quality is the impact assessment of a single bullet on a 0-10 scale.
type Quality struct {
	Score      float64
	StrongVerb bool
	Quantified bool
	Technical  bool
	WordCount  int
	Issues     []string
}

// AssessQuality scores a bullet: strong leading verb, metrics, technologies,
// reasonable length and no weak or filler phrasing.
func AssessQuality(bullet string) Quality {
	q := Quality{Score: 10}
	q.WordCount = len(strings.Fields(bullet))

	q.StrongVerb = checkStrongVerb(strings.ToLower(strings.TrimSpace(bullet)))
	if !q.StrongVerb {
		q.Issues = append(q.Issues, "missing strong action verb at start")
		q.Score -= 1.5
	}

	for _, phrase := range FindWeakPhrases(bullet) {
		q.Issues = append(q.Issues, "weak phrase: "+phrase)
		q.Score--
	}

	q.Quantified = checkQuantifiedImpact(bullet)
	switch {
	case !q.Quantified:
		q.Issues = append(q.Issues, "no quantification")
		q.Score--
	case strings.Contains(bullet, "%"):
		q.Score += 0.5
	}

	facts := ExtractFacts(bullet)
	q.Technical = len(facts.Technologies) > 0
	if q.Technical {
		q.Score += 0.5
	}

	switch {
	case q.WordCount > 25:
		q.Issues = append(q.Issues, "too long (>25 words)")
		q.Score -= 0.5
	case q.WordCount < 5:
		q.Issues = append(q.Issues, "too short (<5 words)")
		q.Score--
	}

	for _, phrase := range FindFillerPhrases(bullet) {
		q.Issues = append(q.Issues, "filler: "+phrase)
		q.Score -= 0.5
	}

	q.Score = math.Max(0, math.Min(10, q.Score))
	return q
}

// EstimateLines estimates the number of rendered lines for a given text length
func EstimateLines(lengthChars int) int {
	if lengthChars <= 0 {
		return 1 // Minimum 1 line
	}
	return int(math.Ceil(float64(lengthChars) / compression.CharsPerLine))
}

// ComputeLengthChars computes the character length of text
func ComputeLengthChars(text string) int {
	return len([]rune(text))
}
