// Package types provides type definitions for structured data used throughout the one-page fitter.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"fmt"
	"strings"
	"time"
)

// SectionKind classifies a section. The set is open: unknown kinds render like experience.
type SectionKind string

// Known section kinds
const (
	SectionExperience      SectionKind = "experience"
	SectionEducation       SectionKind = "education"
	SectionProjects        SectionKind = "projects"
	SectionSkills          SectionKind = "skills"
	SectionCertifications  SectionKind = "certifications"
	SectionAchievements    SectionKind = "achievements"
	SectionExtracurricular SectionKind = "extracurricular"
)

// Header holds contact details. It is never compressed.
type Header struct {
	Name     string   `json:"name" yaml:"name"`
	Email    string   `json:"email,omitempty" yaml:"email,omitempty"`
	Phone    string   `json:"phone,omitempty" yaml:"phone,omitempty"`
	Location string   `json:"location,omitempty" yaml:"location,omitempty"`
	Links    []string `json:"links,omitempty" yaml:"links,omitempty"`
}

// DateRange is a free-form start/end pair such as "2021-06" / "Present".
type DateRange struct {
	Start string `json:"start,omitempty" yaml:"start,omitempty"`
	End   string `json:"end,omitempty" yaml:"end,omitempty"`
}

// Entry is one position, degree or project inside a section.
type Entry struct {
	Heading    string    `json:"heading" yaml:"heading"`
	Subheading string    `json:"subheading,omitempty" yaml:"subheading,omitempty"`
	Location   string    `json:"location,omitempty" yaml:"location,omitempty"`
	Dates      DateRange `json:"dates,omitempty" yaml:"dates,omitempty"`
	Bullets    []string  `json:"bullets" yaml:"bullets"`
}

// Section is an ordered group of entries under one title.
type Section struct {
	Kind     SectionKind `json:"kind" yaml:"kind"`
	Title    string      `json:"title" yaml:"title"`
	Optional bool        `json:"optional,omitempty" yaml:"optional,omitempty"`
	Entries  []Entry     `json:"entries" yaml:"entries"`
}

// ContentModel is the structured resume the fitting loop compresses.
// Values are treated as immutable: transformations build new slices and
// may share untouched sections and entries with their input.
type ContentModel struct {
	Header   Header    `json:"header" yaml:"header"`
	Sections []Section `json:"sections" yaml:"sections"`
}

// InvalidModelError reports a structural violation at a path inside the model.
type InvalidModelError struct {
	Path   string
	Reason string
}

func (e *InvalidModelError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

// Validate checks that every section has entries and every entry has bullets.
func (m ContentModel) Validate() error {
	if len(m.Sections) == 0 {
		return &InvalidModelError{Path: "sections", Reason: "model has no sections"}
	}
	for i, s := range m.Sections {
		if len(s.Entries) == 0 {
			return &InvalidModelError{Path: fmt.Sprintf("sections[%d]", i), Reason: fmt.Sprintf("section %q is empty", s.Title)}
		}
		for j, e := range s.Entries {
			if len(e.Bullets) == 0 {
				return &InvalidModelError{
					Path:   fmt.Sprintf("sections[%d].entries[%d]", i, j),
					Reason: fmt.Sprintf("entry %q has no bullets", e.Heading),
				}
			}
		}
	}
	return nil
}

// BulletCount returns the number of bullets across all sections.
func (m ContentModel) BulletCount() int {
	n := 0
	for _, s := range m.Sections {
		for _, e := range s.Entries {
			n += len(e.Bullets)
		}
	}
	return n
}

// Bullets returns every bullet in document order, skipping skills sections.
func (m ContentModel) Bullets() []string {
	var out []string
	for _, s := range m.Sections {
		if s.Kind == SectionSkills {
			continue
		}
		for _, e := range s.Entries {
			out = append(out, e.Bullets...)
		}
	}
	return out
}

// SectionsOfKind returns the sections with the given kind, in order.
func (m ContentModel) SectionsOfKind(kind SectionKind) []Section {
	var out []Section
	for _, s := range m.Sections {
		if s.Kind == kind {
			out = append(out, s)
		}
	}
	return out
}

// Text flattens titles, headings and bullets to plain text for keyword checks.
func (m ContentModel) Text() string {
	var b strings.Builder
	for _, s := range m.Sections {
		b.WriteString(s.Title)
		b.WriteByte('\n')
		for _, e := range s.Entries {
			b.WriteString(e.Heading)
			b.WriteByte(' ')
			b.WriteString(e.Subheading)
			b.WriteByte('\n')
			for _, bullet := range e.Bullets {
				b.WriteString(bullet)
				b.WriteByte('\n')
			}
		}
	}
	return b.String()
}

// WithSections returns a copy of the model that shares the header and uses sections.
func (m ContentModel) WithSections(sections []Section) ContentModel {
	return ContentModel{Header: m.Header, Sections: sections}
}

// WithEntries returns a copy of the section holding entries.
func (s Section) WithEntries(entries []Entry) Section {
	s.Entries = entries
	return s
}

// WithBullets returns a copy of the entry holding bullets.
func (e Entry) WithBullets(bullets []string) Entry {
	e.Bullets = bullets
	return e
}

var ongoingMarkers = map[string]bool{
	"":        true,
	"present": true,
	"current": true,
	"now":     true,
	"ongoing": true,
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01",
	"01/2006",
	"Jan 2006",
	"January 2006",
	"Jan. 2006",
	"2006",
}

// EndMonth returns the end of the range as months since year zero.
// Ongoing ranges report ongoing=true. ok is false when the end cannot be parsed.
func (d DateRange) EndMonth() (month int, ongoing bool, ok bool) {
	end := strings.TrimSpace(d.End)
	if ongoingMarkers[strings.ToLower(end)] {
		if end == "" && strings.TrimSpace(d.Start) == "" {
			return 0, false, false
		}
		return 0, true, true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, end); err == nil {
			return t.Year()*12 + int(t.Month()) - 1, false, true
		}
	}
	return 0, false, false
}
