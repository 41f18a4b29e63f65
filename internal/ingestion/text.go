package ingestion

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jonathan/onepage/internal/types"
)

var (
	spaceRun      = regexp.MustCompile(`\s+`)
	blankLineRun  = regexp.MustCompile(`\n\n\n+`)
	bulletMarkers = []string{"- ", "* ", "• ", "· ", "– "}
)

// CleanText cleans and normalizes text content while preserving structure
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	// Normalize line endings (CRLF → LF)
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	cleanedLines := make([]string, 0, len(lines))
	for _, line := range lines {
		cleanedLines = append(cleanedLines, cleanLine(line))
	}

	// Reduce 3+ consecutive newlines to 2
	result := blankLineRun.ReplaceAllString(strings.Join(cleanedLines, "\n"), "\n\n")
	return strings.TrimSpace(result)
}

// cleanLine cleans a single line
func cleanLine(line string) string {
	line = strings.TrimRight(line, " \t")
	if strings.TrimSpace(line) == "" {
		return ""
	}

	// indentation is dropped; headings and bullet markers keep one space after them
	return collapseSpaces(line)
}

// isBulletLine checks if a line is a bullet list item
func isBulletLine(line string) bool {
	trimmed := strings.TrimLeft(line, " \t")
	for _, m := range bulletMarkers {
		if strings.HasPrefix(trimmed, m) {
			return true
		}
	}
	return false
}

func collapseSpaces(s string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}

// cleanBullet strips a leading bullet marker and normalizes spacing.
func cleanBullet(b string) string {
	b = strings.TrimSpace(b)
	for _, m := range bulletMarkers {
		if b == strings.TrimSpace(m) {
			return ""
		}
		if strings.HasPrefix(b, m) {
			b = b[len(m):]
			break
		}
	}
	return collapseSpaces(b)
}

// ParseOutline reads a Markdown outline:
//
//	# Name
//	email: jane@example.com
//	## Section title
//	### Heading | Subheading | Dates | Location
//	- bullet
//
// Header lines are "key: value" pairs before the first section; "links" takes a
// comma-separated list. A section title ending in "(optional)" marks it optional.
// Dates are "start - end" or "start – end".
func ParseOutline(text string) (types.ContentModel, error) {
	var model types.ContentModel
	var section *types.Section
	var entry *types.Entry

	flushEntry := func() {
		if entry != nil && section != nil {
			section.Entries = append(section.Entries, *entry)
		}
		entry = nil
	}
	flushSection := func() {
		flushEntry()
		if section != nil {
			model.Sections = append(model.Sections, *section)
		}
		section = nil
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	for i, raw := range strings.Split(text, "\n") {
		line := cleanLine(raw)
		lineNo := i + 1
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "### "):
			if section == nil {
				return types.ContentModel{}, fmt.Errorf("line %d: entry outside a section", lineNo)
			}
			flushEntry()
			entry = parseEntryHeading(strings.TrimPrefix(line, "### "))
		case strings.HasPrefix(line, "## "):
			flushSection()
			title := strings.TrimPrefix(line, "## ")
			optional := false
			if t, found := strings.CutSuffix(title, "(optional)"); found {
				title, optional = strings.TrimSpace(t), true
			}
			section = &types.Section{Kind: InferKind(title), Title: title, Optional: optional}
		case strings.HasPrefix(line, "# "):
			if model.Header.Name != "" || section != nil {
				return types.ContentModel{}, fmt.Errorf("line %d: name heading must come first", lineNo)
			}
			model.Header.Name = strings.TrimPrefix(line, "# ")
		case isBulletLine(line):
			if section == nil {
				return types.ContentModel{}, fmt.Errorf("line %d: bullet outside a section", lineNo)
			}
			if entry == nil {
				// bullets directly under a section form an untitled entry
				entry = &types.Entry{Heading: section.Title}
			}
			if b := cleanBullet(line); b != "" {
				entry.Bullets = append(entry.Bullets, b)
			}
		case section == nil:
			if err := setHeaderField(&model.Header, line); err != nil {
				return types.ContentModel{}, fmt.Errorf("line %d: %w", lineNo, err)
			}
		default:
			// continuation of the previous bullet
			if entry == nil || len(entry.Bullets) == 0 {
				return types.ContentModel{}, fmt.Errorf("line %d: text outside a bullet", lineNo)
			}
			last := len(entry.Bullets) - 1
			entry.Bullets[last] += " " + line
		}
	}
	flushSection()

	if model.Header.Name == "" {
		return types.ContentModel{}, fmt.Errorf("missing name heading")
	}
	if err := model.Validate(); err != nil {
		return types.ContentModel{}, err
	}
	return model, nil
}

func parseEntryHeading(line string) *types.Entry {
	parts := strings.Split(line, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	e := &types.Entry{Heading: parts[0]}
	if len(parts) > 1 {
		e.Subheading = parts[1]
	}
	if len(parts) > 2 {
		e.Dates = parseDates(parts[2])
	}
	if len(parts) > 3 {
		e.Location = parts[3]
	}
	return e
}

func parseDates(s string) types.DateRange {
	for _, sep := range []string{" – ", " — ", " - ", " to "} {
		if start, end, found := strings.Cut(s, sep); found {
			return types.DateRange{Start: strings.TrimSpace(start), End: strings.TrimSpace(end)}
		}
	}
	return types.DateRange{End: strings.TrimSpace(s)}
}

func setHeaderField(h *types.Header, line string) error {
	key, value, found := strings.Cut(line, ":")
	if !found {
		return fmt.Errorf("expected \"key: value\" header line, got %q", line)
	}
	value = strings.TrimSpace(value)
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "email":
		h.Email = value
	case "phone":
		h.Phone = value
	case "location":
		h.Location = value
	case "links", "link":
		for _, l := range strings.Split(value, ",") {
			if l = strings.TrimSpace(l); l != "" {
				h.Links = append(h.Links, l)
			}
		}
	default:
		return fmt.Errorf("unknown header field %q", key)
	}
	return nil
}
