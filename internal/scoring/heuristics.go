package scoring

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/jonathan/onepage/internal/rewriting"
	"github.com/jonathan/onepage/internal/selection"
	"github.com/jonathan/onepage/internal/types"
)

var digitPattern = regexp.MustCompile(`\d`)

// truncate shortens text for issue messages
func truncate(text string, n int) string {
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n]) + "..."
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// roleAlignment starts at 25 and loses points when no experience or project mentions the role.
func roleAlignment(model types.ContentModel, role string) (int, []string) {
	var suggestions []string
	score := 25
	words := strings.Fields(strings.ToLower(role))

	mentions := func(e types.Entry) bool {
		text := strings.ToLower(e.Heading + " " + e.Subheading + " " + strings.Join(e.Bullets, " "))
		for _, w := range words {
			if strings.Contains(text, w) {
				return true
			}
		}
		return false
	}
	anyMentions := func(sections []types.Section) (bool, bool) {
		present := false
		for _, s := range sections {
			for _, e := range s.Entries {
				present = true
				if mentions(e) {
					return true, true
				}
			}
		}
		return present, false
	}

	if present, ok := anyMentions(model.SectionsOfKind(types.SectionExperience)); present && !ok {
		suggestions = append(suggestions, "No experience directly matches target role")
		score -= 5
	}
	if present, ok := anyMentions(model.SectionsOfKind(types.SectionProjects)); present && !ok {
		suggestions = append(suggestions, "Consider highlighting projects relevant to target role")
		score -= 3
	}
	return clamp(score, 0, types.MaxRoleAlignment), suggestions
}

// bulletStrength scores experience and project bullets out of 10.
func bulletStrength(bullets []string) (int, []string) {
	if len(bullets) == 0 {
		return 5, []string{"No bullet points found"}
	}

	var issues []string
	score := 10.0
	for _, b := range bullets {
		for _, phrase := range rewriting.FindWeakPhrases(b) {
			issues = append(issues, fmt.Sprintf("Weak phrase '%s' in: %s", phrase, truncate(b, 50)))
			score--
		}

		fields := strings.Fields(b)
		startsWithDigit := len(fields) > 0 && strings.IndexFunc(fields[0], unicode.IsDigit) >= 0
		if !rewriting.AssessQuality(b).StrongVerb && !startsWithDigit {
			issues = append(issues, "Missing strong action verb at start: "+truncate(b, 50))
			score -= 0.5
		}

		if !digitPattern.MatchString(b) {
			issues = append(issues, "No quantification in: "+truncate(b, 50))
			score -= 0.5
		}
	}
	return clamp(int(score), 0, 10), issues
}

// clarityImpact scales bullet strength to the clarity maximum.
func clarityImpact(model types.ContentModel) (int, []string) {
	var bullets []string
	for _, kind := range []types.SectionKind{types.SectionExperience, types.SectionProjects} {
		for _, s := range model.SectionsOfKind(kind) {
			for _, e := range s.Entries {
				bullets = append(bullets, e.Bullets...)
			}
		}
	}
	strength, issues := bulletStrength(bullets)
	return clamp(int(float64(strength)*2.5), 0, types.MaxClarityImpact), issues
}

// atsOptimization checks the role family keywords against the skills sections.
// Models without a skills section are checked against their full text.
func atsOptimization(model types.ContentModel, role string) (int, []string) {
	var skills []string
	for _, s := range model.SectionsOfKind(types.SectionSkills) {
		for _, e := range s.Entries {
			skills = append(skills, e.Heading)
			skills = append(skills, e.Bullets...)
		}
	}
	haystack := strings.ToLower(strings.Join(skills, " "))
	if len(skills) == 0 {
		haystack = strings.ToLower(model.Text())
	}

	var missing []string
	for _, kw := range selection.CategoryKeywords(role) {
		if !strings.Contains(haystack, kw) {
			missing = append(missing, kw)
		}
	}

	score := 15
	var suggestions []string
	if len(missing) > 0 {
		shown := missing
		if len(shown) > 5 {
			shown = shown[:5]
		}
		suggestions = append(suggestions, "Consider adding relevant keywords: "+strings.Join(shown, ", "))
		score -= len(missing) / 2
	}
	return clamp(score, 0, types.MaxATSOptimization), suggestions
}

var mandatorySections = []struct {
	kind  types.SectionKind
	title string
}{
	{types.SectionEducation, "Education"},
	{types.SectionExperience, "Experience"},
	{types.SectionProjects, "Projects"},
	{types.SectionSkills, "Technical Skills"},
}

// formatting penalizes loose vertical spacing in the source and missing mandatory sections.
func formatting(model types.ContentModel, latex string) (int, []string) {
	var issues []string
	score := 15

	if strings.Count(latex, "\n\n\n") > 3 {
		issues = append(issues, "Excessive vertical spacing detected")
		score -= 2
	}

	var missing []string
	for _, m := range mandatorySections {
		if len(model.SectionsOfKind(m.kind)) == 0 {
			missing = append(missing, m.title)
		}
	}
	if len(missing) > 0 {
		issues = append(issues, "Missing mandatory sections: "+strings.Join(missing, ", "))
		score -= 2 * len(missing)
	}
	return clamp(score, 0, types.MaxFormatting), issues
}

const maxGrammarErrors = 10

var unsafeLaTeX = regexp.MustCompile(`\\(?:input|include|write18|immediate|openout|read|catcode)\b`)

func isWord(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return s != ""
}

// grammarErrors runs local grammar and safety checks over every bullet.
func grammarErrors(model types.ContentModel) []string {
	var errs []string
	add := func(format string, args ...any) {
		if len(errs) < maxGrammarErrors {
			errs = append(errs, fmt.Sprintf(format, args...))
		}
	}

	for _, b := range model.Bullets() {
		words := strings.Fields(b)
		for i := 1; i < len(words); i++ {
			prev, cur := strings.ToLower(words[i-1]), strings.ToLower(words[i])
			if prev == cur && isWord(cur) {
				add("repeated word %q in: %s", cur, truncate(b, 50))
			}
		}
		if r := []rune(strings.TrimSpace(b)); len(r) > 0 && unicode.IsLower(r[0]) {
			add("bullet starts lowercase: %s", truncate(b, 50))
		}
		if strings.Count(b, "(") != strings.Count(b, ")") {
			add("unbalanced parentheses in: %s", truncate(b, 50))
		}
		if strings.Contains(b, "  ") {
			add("double space in: %s", truncate(b, 50))
		}
		if unsafeLaTeX.MatchString(b) {
			add("unsafe LaTeX command in: %s", truncate(b, 50))
		}
	}
	return errs
}
