package transform

import (
	"fmt"
	"strings"
)

// Outcome classifies how one bullet rewrite ended.
type Outcome string

// Rewrite outcomes
const (
	OutcomeRewritten Outcome = "rewritten"
	OutcomeRetried   Outcome = "retried"
	OutcomeTruncated Outcome = "truncated"
	OutcomeKept      Outcome = "kept"
)

// BulletLocation addresses a bullet inside a content model.
type BulletLocation struct {
	Section int `json:"section"`
	Entry   int `json:"entry"`
	Bullet  int `json:"bullet"`
}

func (l BulletLocation) String() string {
	return fmt.Sprintf("sections[%d].entries[%d].bullets[%d]", l.Section, l.Entry, l.Bullet)
}

// BulletChange records what happened to one bullet during a rewrite pass.
type BulletChange struct {
	Location BulletLocation `json:"location"`
	Outcome  Outcome        `json:"outcome"`
	Before   string         `json:"before"`
	After    string         `json:"after"`
	// Reasons holds the error text of each failed attempt.
	Reasons []string `json:"reasons,omitempty"`
}

// Report describes a transformation for diagnostics and tests.
type Report struct {
	Level            string         `json:"level"`
	BulletsIn        int            `json:"bullets_in"`
	BulletsOut       int            `json:"bullets_out"`
	Merged           int            `json:"merged"`
	Dropped          int            `json:"dropped"`
	SectionsDropped  []string       `json:"sections_dropped,omitempty"`
	GeneratorRanked  int            `json:"generator_ranked"`
	RankingFallbacks int            `json:"ranking_fallbacks"`
	Changes          []BulletChange `json:"changes,omitempty"`
}

// Count returns how many bullet changes ended with outcome o.
func (r Report) Count(o Outcome) int {
	n := 0
	for _, c := range r.Changes {
		if c.Outcome == o {
			n++
		}
	}
	return n
}

// Fallbacks lists human-readable descriptions of every degraded path taken.
func (r Report) Fallbacks() []string {
	var out []string
	for _, c := range r.Changes {
		switch c.Outcome {
		case OutcomeRetried:
			out = append(out, fmt.Sprintf("%s: retried (%s)", c.Location, strings.Join(c.Reasons, "; ")))
		case OutcomeTruncated:
			out = append(out, fmt.Sprintf("%s: truncated locally (%s)", c.Location, strings.Join(c.Reasons, "; ")))
		}
	}
	if r.RankingFallbacks > 0 {
		out = append(out, fmt.Sprintf("ranking: %d entries ranked deterministically", r.RankingFallbacks))
	}
	return out
}
