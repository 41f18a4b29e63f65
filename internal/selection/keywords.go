// Package selection ranks resume bullets by relevance to a target role.
package selection

import (
	"strings"
	"unicode"
)

type roleCategory struct {
	name     string
	keywords []string
}

// Keywords recruiters and ATS filters look for, by role family. Order is fixed.
var roleCategories = []roleCategory{
	{"software", []string{"python", "java", "javascript", "react", "node", "sql", "git", "agile", "api", "rest"}},
	{"data", []string{"python", "sql", "machine learning", "pandas", "numpy", "visualization", "statistics", "analytics"}},
	{"machine learning", []string{"python", "tensorflow", "pytorch", "deep learning", "nlp", "computer vision", "neural network"}},
	{"frontend", []string{"javascript", "react", "vue", "angular", "css", "html", "typescript", "responsive"}},
	{"backend", []string{"python", "java", "node", "api", "database", "sql", "microservices", "rest"}},
	{"devops", []string{"docker", "kubernetes", "aws", "ci/cd", "jenkins", "terraform", "linux", "automation"}},
}

// title words that say nothing about the domain
var roleStopwords = map[string]bool{
	"a": true, "an": true, "and": true, "the": true, "of": true, "for": true, "at": true, "in": true,
	"senior": true, "junior": true, "staff": true, "principal": true, "lead": true, "intern": true,
	"engineer": true, "developer": true, "manager": true, "specialist": true, "associate": true,
	"i": true, "ii": true, "iii": true, "iv": true, "sr": true, "jr": true,
}

// RoleWords returns the lowercase words of a role title that carry domain meaning.
func RoleWords(role string) []string {
	fields := strings.FieldsFunc(strings.ToLower(role), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#' && r != '/' && r != '.'
	})
	var out []string
	seen := make(map[string]bool)
	for _, f := range fields {
		f = strings.Trim(f, "./")
		if f == "" || roleStopwords[f] || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// CategoryKeywords returns the ATS keywords for the role families named in role.
// Roles that name no known family get the software keywords.
func CategoryKeywords(role string) []string {
	lower := strings.ToLower(role)
	var out []string
	seen := make(map[string]bool)
	for _, cat := range roleCategories {
		if !strings.Contains(lower, cat.name) {
			continue
		}
		for _, kw := range cat.keywords {
			if !seen[kw] {
				seen[kw] = true
				out = append(out, kw)
			}
		}
	}
	if len(out) == 0 {
		return append([]string(nil), roleCategories[0].keywords...)
	}
	return out
}

// RoleKeywords returns role words followed by category keywords, without duplicates.
func RoleKeywords(role string) []string {
	out := RoleWords(role)
	seen := make(map[string]bool, len(out))
	for _, w := range out {
		seen[w] = true
	}
	for _, kw := range CategoryKeywords(role) {
		if !seen[kw] {
			seen[kw] = true
			out = append(out, kw)
		}
	}
	return out
}
