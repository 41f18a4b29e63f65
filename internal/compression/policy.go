// Package compression maps a pressure value to a compression plan.
package compression

import (
	"fmt"
	"math"
)

// Level is a discrete compression band derived from pressure.
type Level int

// Compression levels, ordered from least to most aggressive.
const (
	Light Level = iota
	Medium
	Aggressive
)

// Band thresholds. A pressure equal to a threshold belongs to the higher band.
const (
	MediumThreshold     = 0.5
	AggressiveThreshold = 0.7
	// DenseThreshold splits Aggressive into keep-3 and keep-2 bullets per entry.
	DenseThreshold = 0.8
)

// CharsPerLine is the estimated number of characters on one rendered line.
const CharsPerLine = 90

// String returns the lowercase name of the level.
func (l Level) String() string {
	switch l {
	case Medium:
		return "medium"
	case Aggressive:
		return "aggressive"
	default:
		return "light"
	}
}

// MarshalText encodes the level by name.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText decodes a level name.
func (l *Level) UnmarshalText(text []byte) error {
	switch string(text) {
	case "light":
		*l = Light
	case "medium":
		*l = Medium
	case "aggressive":
		*l = Aggressive
	default:
		return fmt.Errorf("unknown compression level %q", string(text))
	}
	return nil
}

// Plan is the set of transformations to apply at one pressure value.
type Plan struct {
	Level    Level   `json:"level"`
	Pressure float64 `json:"pressure"`
	// MaxBulletsPerEntry caps bullets per entry. Zero means no cap.
	MaxBulletsPerEntry   int  `json:"max_bullets_per_entry"`
	TargetCharsPerBullet int  `json:"target_chars_per_bullet"`
	DropOptionalSections bool `json:"drop_optional_sections"`
	MergeNearDuplicates  bool `json:"merge_near_duplicates"`
	// ClipSentences asks for clipped phrases instead of full sentences.
	ClipSentences bool `json:"clip_sentences"`
	// Rewrite delegates bullet wording to the generation service.
	Rewrite bool `json:"rewrite"`
	// RankWithGenerator asks the generation service to order bullets before capping.
	RankWithGenerator bool `json:"rank_with_generator"`
	// Densify runs the local filler-removal pass.
	Densify bool `json:"densify"`
}

// LevelFor returns the band for a pressure value. NaN maps to Light.
func LevelFor(pressure float64) Level {
	switch {
	case math.IsNaN(pressure):
		return Light
	case pressure >= AggressiveThreshold:
		return Aggressive
	case pressure >= MediumThreshold:
		return Medium
	default:
		return Light
	}
}

// PlanFor derives the compression plan for a pressure value. It is pure and total.
func PlanFor(pressure float64) Plan {
	switch LevelFor(pressure) {
	case Aggressive:
		keep := 3
		if pressure >= DenseThreshold {
			keep = 2
		}
		return Plan{
			Level:                Aggressive,
			Pressure:             pressure,
			MaxBulletsPerEntry:   keep,
			TargetCharsPerBullet: CharsPerLine,
			DropOptionalSections: true,
			ClipSentences:        true,
			Densify:              true,
		}
	case Medium:
		return Plan{
			Level:                Medium,
			Pressure:             pressure,
			MaxBulletsPerEntry:   3,
			TargetCharsPerBullet: CharsPerLine,
			MergeNearDuplicates:  true,
			ClipSentences:        true,
			Rewrite:              true,
			RankWithGenerator:    true,
		}
	default:
		return Plan{
			Level:                Light,
			Pressure:             pressure,
			TargetCharsPerBullet: 2 * CharsPerLine,
			MergeNearDuplicates:  true,
			Rewrite:              true,
		}
	}
}

// Instructions returns the compression guidance handed to the generation service.
func (p Plan) Instructions() string {
	switch p.Level {
	case Aggressive:
		return "maximize density: keep only the essential claim, metric and technology"
	case Medium:
		return "single line: convert sentences to clipped phrases, drop articles and filler"
	default:
		return "refine wording: strong action verb first, remove weak phrases, keep every detail"
	}
}
