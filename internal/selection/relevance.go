package selection

import (
	"sort"
	"strings"

	"github.com/jonathan/onepage/internal/rewriting"
	"github.com/jonathan/onepage/internal/types"
)

const (
	// Scoring weights for bullet relevance
	weightKeywordOverlap = 0.50
	weightRecency        = 0.30
	weightStyleQuality   = 0.20

	// keyword matches beyond this count add nothing
	maxKeywordNorm = 3.0
	// entries this many months older than the newest one score zero recency
	recencyHorizonMonths = 120.0
	// neutral score when a date is missing or unparsable
	neutralRecency = 0.5
)

// ScoredBullet represents a bullet with its relevance score
type ScoredBullet struct {
	Text           string
	Index          int
	RelevanceScore float64
	Components     ScoreComponents
}

// ScoreComponents holds the individual scoring factors
type ScoreComponents struct {
	KeywordOverlap float64
	Recency        float64
	StyleQuality   float64
}

// Scorer ranks bullets for one role within one content model.
type Scorer struct {
	keywords []string
	newest   int
	dated    bool
}

// NewScorer prepares role keywords and the newest entry date of model.
func NewScorer(model types.ContentModel, role string) *Scorer {
	s := &Scorer{keywords: RoleKeywords(role)}
	for _, sec := range model.Sections {
		for _, e := range sec.Entries {
			month, ongoing, ok := e.Dates.EndMonth()
			if !ok || ongoing {
				continue
			}
			if !s.dated || month > s.newest {
				s.newest = month
				s.dated = true
			}
		}
	}
	return s
}

// Recency scores an entry's end date against the newest entry in the model.
// Ongoing entries score 1; undated entries are neutral.
func (s *Scorer) Recency(entry types.Entry) float64 {
	month, ongoing, ok := entry.Dates.EndMonth()
	switch {
	case !ok:
		return neutralRecency
	case ongoing:
		return 1.0
	case !s.dated:
		return neutralRecency
	}
	score := 1.0 - float64(s.newest-month)/recencyHorizonMonths
	return clamp01(score)
}

// KeywordOverlap scores how many role keywords a bullet mentions.
func (s *Scorer) KeywordOverlap(bullet string) float64 {
	if len(s.keywords) == 0 {
		return 0
	}
	lower := strings.ToLower(bullet)
	matches := 0.0
	for _, kw := range s.keywords {
		if rewriting.ContainsTerm(lower, kw) {
			matches++
		}
	}
	return clamp01(matches / maxKeywordNorm)
}

// ScoreEntry scores every bullet of entry, in original order.
func (s *Scorer) ScoreEntry(entry types.Entry) []ScoredBullet {
	recency := s.Recency(entry)
	scored := make([]ScoredBullet, 0, len(entry.Bullets))
	for i, b := range entry.Bullets {
		components := ScoreComponents{
			KeywordOverlap: s.KeywordOverlap(b),
			Recency:        recency,
			StyleQuality:   rewriting.AssessQuality(b).Score / 10,
		}
		scored = append(scored, ScoredBullet{
			Text:           b,
			Index:          i,
			RelevanceScore: calculateFinalScore(components),
			Components:     components,
		})
	}
	return scored
}

// RankEntry returns the entry's bullets sorted most relevant first.
// Ties keep their original order.
func (s *Scorer) RankEntry(entry types.Entry) []ScoredBullet {
	scored := s.ScoreEntry(entry)
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].RelevanceScore > scored[j].RelevanceScore
	})
	return scored
}

// KeepTop returns the n most relevant bullets of entry in their original order.
// n <= 0 or n >= len(bullets) returns the bullets unchanged.
func (s *Scorer) KeepTop(entry types.Entry, n int) []string {
	if n <= 0 || n >= len(entry.Bullets) {
		return entry.Bullets
	}
	ranked := s.RankEntry(entry)[:n]
	return KeepInOriginalOrder(entry.Bullets, ranked)
}

// KeepInOriginalOrder returns the kept bullets ordered as they appear in bullets.
func KeepInOriginalOrder(bullets []string, kept []ScoredBullet) []string {
	keep := make(map[int]bool, len(kept))
	for _, k := range kept {
		keep[k.Index] = true
	}
	out := make([]string, 0, len(kept))
	for i, b := range bullets {
		if keep[i] {
			out = append(out, b)
		}
	}
	return out
}

// calculateFinalScore combines the score components using weighted average
func calculateFinalScore(c ScoreComponents) float64 {
	return c.KeywordOverlap*weightKeywordOverlap +
		c.Recency*weightRecency +
		c.StyleQuality*weightStyleQuality
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
