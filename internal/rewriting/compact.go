package rewriting

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

type replacement struct {
	pattern *regexp.Regexp
	with    string
}

// Local rewrites that never touch digits or technology names.
var fillerReplacements = []replacement{
	{regexp.MustCompile(`(?i)\bin order to\b`), "to"},
	{regexp.MustCompile(`(?i)\bfor the purpose of\b`), "for"},
	{regexp.MustCompile(`(?i)\bwith the goal of\b`), "for"},
	{regexp.MustCompile(`(?i)\bon a daily basis\b`), "daily"},
	{regexp.MustCompile(`(?i),?\s*at the end of the day,?`), ""},
	{regexp.MustCompile(`(?i)\bas well as\b`), "and"},
	{regexp.MustCompile(`(?i)^\s*(?:was )?(?:responsible for|worked on|helped with|assisted with|involved in|participated in)\s+`), ""},
	{regexp.MustCompile(`(?i)\b(?:successfully|effectively|various|very|really)\s+`), ""},
}

var (
	spaceRun     = regexp.MustCompile(`\s+`)
	spaceBefore  = regexp.MustCompile(`\s+([,;:.])`)
	clauseSplit  = regexp.MustCompile(`\s*[;,]\s+`)
	trailingStop = regexp.MustCompile(`[\s.;,]+$`)
)

// RemoveFiller deletes filler and weak phrasing without touching facts.
// Applying it twice gives the same result as applying it once.
func RemoveFiller(text string) string {
	out := text
	for _, r := range fillerReplacements {
		out = r.pattern.ReplaceAllString(out, r.with)
	}
	return tidy(out)
}

// Compact removes filler and the trailing period.
func Compact(text string) string {
	return tidy(trailingStop.ReplaceAllString(RemoveFiller(text), ""))
}

// Truncate shortens text to at most budget characters using only local rules.
// Every metric and technology of the input is kept even if that exceeds budget.
func Truncate(text string, budget int) string {
	compact := Compact(text)
	if budget <= 0 || utf8.RuneCountInString(compact) <= budget {
		return compact
	}

	clauses := clauseSplit.Split(compact, -1)
	keep := make([]bool, len(clauses))
	keep[0] = true
	for i, c := range clauses {
		if HasFacts(c) {
			keep[i] = true
		}
	}
	length := joinedLength(clauses, keep)
	for i, c := range clauses {
		if keep[i] {
			continue
		}
		if extra := utf8.RuneCountInString(c) + 2; length+extra <= budget {
			keep[i] = true
			length += extra
		}
	}

	kept := make([]string, 0, len(clauses))
	for i, c := range clauses {
		if keep[i] {
			kept = append(kept, c)
		}
	}
	out := strings.Join(kept, ", ")

	return trimWords(out, compact, budget)
}

// trimWords drops words from the end, skipping any word whose removal would lose a fact of source.
func trimWords(text, source string, budget int) string {
	words := strings.Fields(text)
	for i := len(words) - 1; i > 0 && utf8.RuneCountInString(strings.Join(words, " ")) > budget; i-- {
		candidate := append(append([]string{}, words[:i]...), words[i+1:]...)
		if PreservesFacts(source, strings.Join(candidate, " ")) {
			words = candidate
		}
	}
	return tidy(trailingStop.ReplaceAllString(strings.Join(words, " "), ""))
}

func joinedLength(clauses []string, keep []bool) int {
	n, count := 0, 0
	for i, c := range clauses {
		if keep[i] {
			n += utf8.RuneCountInString(c)
			count++
		}
	}
	if count > 1 {
		n += 2 * (count - 1)
	}
	return n
}

func tidy(text string) string {
	text = spaceRun.ReplaceAllString(text, " ")
	text = spaceBefore.ReplaceAllString(text, "$1")
	text = strings.TrimSpace(text)
	return capitalizeFirst(text)
}

func capitalizeFirst(text string) string {
	r, size := utf8.DecodeRuneInString(text)
	if r == utf8.RuneError || unicode.IsUpper(r) {
		return text
	}
	return string(unicode.ToUpper(r)) + text[size:]
}
