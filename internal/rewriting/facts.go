package rewriting

import (
	"regexp"
	"sort"
	"strings"
)

// Facts are the claims a rewrite must keep: quantified metrics and named technologies.
type Facts struct {
	Metrics      []string `json:"metrics,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
}

// Empty reports whether no facts were found.
func (f Facts) Empty() bool {
	return len(f.Metrics) == 0 && len(f.Technologies) == 0
}

// All returns metrics followed by technologies.
func (f Facts) All() []string {
	out := make([]string, 0, len(f.Metrics)+len(f.Technologies))
	out = append(out, f.Metrics...)
	return append(out, f.Technologies...)
}

var metricPattern = regexp.MustCompile(`[$€£]?\d+(?:[.,]\d+)*(?:\s?(?:%|[kKmMbB]\b|x\b|\+))?`)

// acronyms like API, ETL, AWS; optional plural s is not part of the term
var acronymPattern = regexp.MustCompile(`\b[A-Z][A-Z0-9]{1,}(?:/[A-Z]{2,})?\b`)

// mixed-case identifiers like PostgreSQL, GitHub, gRPC, iOS
var mixedCasePattern = regexp.MustCompile(`\b[a-zA-Z]+[a-z][A-Z][a-zA-Z]*\b|\b[a-z]+[A-Z][a-zA-Z]*\b`)

var technologyLexicon = []string{
	"python", "java", "javascript", "typescript", "golang", "rust", "ruby", "scala", "kotlin",
	"c++", "c#", "node.js", "vue", "angular", "next.js", "django", "flask", "fastapi",
	"html", "css", "sql", "nosql", "postgresql", "postgres", "mysql", "sqlite", "redis",
	"mongodb", "cassandra", "dynamodb", "elasticsearch", "kafka", "rabbitmq", "spark", "hadoop",
	"airflow", "dbt", "snowflake", "bigquery", "docker", "kubernetes", "helm", "terraform", "ansible",
	"aws", "gcp", "azure", "linux", "git", "jenkins", "ci/cd", "graphql", "grpc",
	"microservices", "tensorflow", "pytorch", "scikit-learn", "pandas", "numpy", "llm", "nlp",
	"computer vision", "machine learning", "deep learning", "prometheus", "grafana", "opentelemetry",
}

// acronyms that are ordinary words on a resume, not technologies
var acronymStopwords = map[string]bool{
	"I": true, "A": true, "US": true, "USA": true, "UK": true, "EU": true, "CEO": true, "CTO": true,
	"VP": true, "HR": true, "BS": true, "BA": true, "MS": true, "MBA": true, "PHD": true, "GPA": true,
}

type lexiconTerm struct {
	term    string
	pattern *regexp.Regexp
}

// technologies that are also ordinary English words; matched only when capitalized
var capitalizedLexicon = []string{"React", "Swift", "Spring", "Rails", "Lambda", "REST"}

var lexiconPatterns = buildLexiconPatterns()

// goPattern matches the Go language only when capitalized and not hyphenated ("Go-to-market").
var goPattern = regexp.MustCompile(`(?:^|[^\w])Go(?:$|[^\w-])`)

func buildLexiconPatterns() []lexiconTerm {
	out := make([]lexiconTerm, 0, len(technologyLexicon)+len(capitalizedLexicon))
	for _, term := range technologyLexicon {
		out = append(out, lexiconTerm{
			term:    term,
			pattern: regexp.MustCompile(`(?i)(?:^|[^\w+#])` + regexp.QuoteMeta(term) + `(?:$|[^\w+#])`),
		})
	}
	for _, term := range capitalizedLexicon {
		out = append(out, lexiconTerm{
			term:    term,
			pattern: regexp.MustCompile(`(?:^|[^\w+#])` + regexp.QuoteMeta(term) + `(?:$|[^\w+#])`),
		})
	}
	return out
}

// ExtractFacts finds quantified metrics and named technologies in text.
func ExtractFacts(text string) Facts {
	var facts Facts

	seenMetric := make(map[string]bool)
	for _, m := range metricPattern.FindAllString(text, -1) {
		norm := normalizeMetric(m)
		if norm == "" || seenMetric[norm] {
			continue
		}
		seenMetric[norm] = true
		facts.Metrics = append(facts.Metrics, strings.TrimSpace(m))
	}

	seenTech := make(map[string]bool)
	addTech := func(term string) {
		key := strings.ToLower(term)
		if seenTech[key] {
			return
		}
		seenTech[key] = true
		facts.Technologies = append(facts.Technologies, term)
	}

	for _, lt := range lexiconPatterns {
		if lt.pattern.MatchString(text) {
			addTech(lt.term)
		}
	}
	if goPattern.MatchString(text) {
		addTech("Go")
	}
	for _, a := range acronymPattern.FindAllString(text, -1) {
		if acronymStopwords[strings.ToUpper(a)] {
			continue
		}
		addTech(a)
	}
	for _, m := range mixedCasePattern.FindAllString(text, -1) {
		addTech(m)
	}

	sort.Strings(facts.Technologies)
	return facts
}

// HasFacts reports whether text carries any metric or technology.
func HasFacts(text string) bool {
	return !ExtractFacts(text).Empty()
}

// MissingFacts returns the facts of source that candidate no longer carries.
func MissingFacts(source, candidate string) []string {
	src := ExtractFacts(source)
	if src.Empty() {
		return nil
	}

	candidateMetrics := make(map[string]bool)
	for _, m := range metricPattern.FindAllString(candidate, -1) {
		candidateMetrics[normalizeMetric(m)] = true
	}

	var missing []string
	for _, m := range src.Metrics {
		if !candidateMetrics[normalizeMetric(m)] {
			missing = append(missing, m)
		}
	}
	lowerCandidate := strings.ToLower(candidate)
	for _, tech := range src.Technologies {
		if !ContainsTerm(lowerCandidate, strings.ToLower(tech)) {
			missing = append(missing, tech)
		}
	}
	return missing
}

// PreservesFacts reports whether candidate keeps every fact of source.
func PreservesFacts(source, candidate string) bool {
	return len(MissingFacts(source, candidate)) == 0
}

func normalizeMetric(m string) string {
	m = strings.ToLower(strings.TrimSpace(m))
	m = strings.ReplaceAll(m, " ", "")
	m = strings.ReplaceAll(m, ",", "")
	return m
}

// ContainsTerm matches term in text on word boundaries, allowing a plural "s". Both must be lowercase.
func ContainsTerm(text, term string) bool {
	for start := 0; ; {
		idx := strings.Index(text[start:], term)
		if idx < 0 {
			return false
		}
		idx += start
		end := idx + len(term)
		before := idx == 0 || !isWordByte(text[idx-1])
		if end < len(text) && text[end] == 's' && (end+1 == len(text) || !isWordByte(text[end+1])) {
			end++
		}
		after := end == len(text) || !isWordByte(text[end])
		if before && after {
			return true
		}
		start = idx + 1
	}
}

func isWordByte(b byte) bool {
	return b == '_' || b == '+' || b == '#' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
