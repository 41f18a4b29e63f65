package rendering

import (
	"embed"
	"strings"
	"text/template"

	"github.com/jonathan/onepage/internal/types"
)

//go:embed templates/*.tex.tmpl
var templateFS embed.FS

// Mode selects a template.
type Mode string

// Template modes. Fallback uses only base LaTeX packages.
const (
	ModeStandard Mode = "standard"
	ModeFallback Mode = "fallback"
)

// Valid reports whether m names a known template.
func (m Mode) Valid() bool {
	return m == ModeStandard || m == ModeFallback
}

// TemplateData represents the data structure passed to the LaTeX template
type TemplateData struct {
	Name     string
	Contacts []string
	Links    []Link
	Sections []SectionData
	Layout   Layout
}

// Link is an escaped hyperlink.
type Link struct {
	URL  string
	Text string
}

// SectionData is an escaped section. Inline sections render entries as "Heading: a, b".
type SectionData struct {
	Title   string
	Inline  bool
	Entries []EntryData
}

// EntryData is an escaped entry.
type EntryData struct {
	Heading    string
	Subheading string
	Location   string
	Dates      string
	Bullets    []string
}

// Render produces LaTeX for model using the template for mode and the layout for pressure.
func Render(model types.ContentModel, mode Mode, pressure float64) (string, error) {
	tmpl, err := parseTemplate(mode)
	if err != nil {
		return "", err
	}

	var result strings.Builder
	if err := tmpl.Execute(&result, buildTemplateData(model, pressure)); err != nil {
		return "", &TemplateError{Mode: mode, Op: "execute", Cause: err}
	}
	return result.String(), nil
}

// parseTemplate loads the embedded template for mode
func parseTemplate(mode Mode) (*template.Template, error) {
	if !mode.Valid() {
		return nil, &TemplateError{Mode: mode, Op: "unknown template mode"}
	}
	name := string(mode) + ".tex.tmpl"
	content, err := templateFS.ReadFile("templates/" + name)
	if err != nil {
		return nil, &TemplateError{Mode: mode, Op: "read " + name, Cause: err}
	}

	// LaTeX braces clash with the default delimiters
	tmpl, err := template.New(name).Delims("<<", ">>").Parse(string(content))
	if err != nil {
		return nil, &TemplateError{Mode: mode, Op: "parse", Cause: err}
	}
	return tmpl, nil
}

// buildTemplateData escapes every user-supplied string of model
func buildTemplateData(model types.ContentModel, pressure float64) TemplateData {
	h := model.Header
	data := TemplateData{
		Name:   EscapeLaTeX(h.Name),
		Layout: LayoutFor(pressure),
	}
	for _, c := range []string{h.Location, h.Phone} {
		if c != "" {
			data.Contacts = append(data.Contacts, EscapeLaTeX(c))
		}
	}
	if h.Email != "" {
		data.Links = append(data.Links, Link{URL: "mailto:" + EscapeURL(h.Email), Text: EscapeLaTeX(h.Email)})
	}
	for _, l := range h.Links {
		if strings.TrimSpace(l) == "" {
			continue
		}
		url := l
		if !strings.Contains(url, "://") {
			url = "https://" + url
		}
		data.Links = append(data.Links, Link{URL: EscapeURL(url), Text: EscapeLaTeX(displayURL(l))})
	}

	for _, sec := range model.Sections {
		sd := SectionData{
			Title:  EscapeLaTeX(sec.Title),
			Inline: sec.Kind == types.SectionSkills,
		}
		for _, e := range sec.Entries {
			ed := EntryData{
				Heading:    EscapeLaTeX(e.Heading),
				Subheading: EscapeLaTeX(e.Subheading),
				Location:   EscapeLaTeX(e.Location),
				Dates:      formatDates(e.Dates),
			}
			if sd.Inline {
				ed.Bullets = []string{EscapeLaTeX(strings.Join(e.Bullets, ", "))}
			} else {
				for _, b := range e.Bullets {
					ed.Bullets = append(ed.Bullets, EscapeLaTeX(b))
				}
			}
			sd.Entries = append(sd.Entries, ed)
		}
		data.Sections = append(data.Sections, sd)
	}
	return data
}

// formatDates renders a date range as "Start -- End". A missing end reads as Present.
func formatDates(d types.DateRange) string {
	start, end := strings.TrimSpace(d.Start), strings.TrimSpace(d.End)
	switch {
	case start == "" && end == "":
		return ""
	case start == "":
		return EscapeLaTeX(end)
	case end == "":
		end = "Present"
	case strings.EqualFold(end, "present"):
		end = "Present"
	}
	return EscapeLaTeX(start) + " -- " + EscapeLaTeX(end)
}
