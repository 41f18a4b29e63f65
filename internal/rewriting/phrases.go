package rewriting

import "strings"

// Weak phrases hide ownership of the work.
var weakPhrases = []string{
	"worked on", "helped with", "responsible for", "assisted with", "was involved in",
	"participated in", "dealt with", "handled", "with the help of", "various features",
	"different aspects", "multiple tasks", "several projects",
}

// Filler phrases add length without meaning.
var fillerPhrases = []string{
	"in order to", "so that", "with the goal of", "for the purpose of", "as well as",
	"in addition to", "on a daily basis", "at the end of the day",
}

// FindWeakPhrases returns the weak phrases present in text (case-insensitive)
func FindWeakPhrases(text string) []string {
	return findPhrases(text, weakPhrases)
}

// FindFillerPhrases returns the filler phrases present in text (case-insensitive)
func FindFillerPhrases(text string) []string {
	return findPhrases(text, fillerPhrases)
}

// findPhrases checks plain text for phrases.
// Returns the phrases found, each at most once, or nil.
func findPhrases(text string, phrases []string) []string {
	if len(phrases) == 0 {
		return nil
	}

	normalizedText := strings.ToLower(text)

	var found []string
	seen := make(map[string]bool)
	for _, phrase := range phrases {
		normalizedPhrase := strings.ToLower(strings.TrimSpace(phrase))
		if normalizedPhrase == "" || seen[normalizedPhrase] {
			continue
		}
		if ContainsTerm(normalizedText, normalizedPhrase) {
			found = append(found, phrase)
			seen[normalizedPhrase] = true
		}
	}
	return found
}
