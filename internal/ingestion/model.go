package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jonathan/onepage/internal/schemas"
	"github.com/jonathan/onepage/internal/types"
)

// Format is the encoding of a source document.
type Format string

// Supported formats
const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatOutline Format = "outline"
	FormatText    Format = "text"
)

// FormatFromPath picks a format by file extension. Unknown extensions are free text.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".md", ".markdown":
		return FormatOutline
	default:
		return FormatText
	}
}

// Extractor turns free text into a content model.
type Extractor interface {
	Extract(ctx context.Context, text string) (types.ContentModel, error)
}

// Load reads a content model from path. Free text needs an extractor; pass nil
// to accept only structured formats.
func Load(ctx context.Context, path string, extractor Extractor) (types.ContentModel, *Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return types.ContentModel{}, nil, &ExtractionError{Source: path, Message: "file not found", Cause: err}
		}
		return types.ContentModel{}, nil, &ExtractionError{Source: path, Message: "failed to read file", Cause: err}
	}

	format := FormatFromPath(path)
	model, err := Decode(ctx, data, format, path, extractor)
	if err != nil {
		return types.ContentModel{}, nil, err
	}
	return model, NewMetadata(data, path, format), nil
}

// Decode turns document bytes of a known format into a content model. Free
// text goes through extractor; source names the document in errors.
func Decode(ctx context.Context, data []byte, format Format, source string, extractor Extractor) (types.ContentModel, error) {
	if format != FormatText {
		return Parse(data, format, source)
	}
	if extractor == nil {
		return types.ContentModel{}, &ExtractionError{
			Source:  source,
			Message: "free text needs a generation service to extract structure; use .json, .yaml or .md",
		}
	}
	model, err := extractor.Extract(ctx, CleanText(string(data)))
	if err != nil {
		return types.ContentModel{}, &ExtractionError{Source: source, Message: "extraction failed", Cause: err}
	}
	return model, nil
}

// Parse decodes a structured document. JSON and YAML are validated against
// the content model schema before decoding.
func Parse(data []byte, format Format, source string) (types.ContentModel, error) {
	switch format {
	case FormatJSON:
		return parseJSON(data, source)
	case FormatYAML:
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return types.ContentModel{}, &ExtractionError{Source: source, Message: "invalid YAML", Cause: err}
		}
		jsonData, err := json.Marshal(doc)
		if err != nil {
			return types.ContentModel{}, &ExtractionError{Source: source, Message: "YAML is not representable as JSON", Cause: err}
		}
		return parseJSON(jsonData, source)
	case FormatOutline:
		model, err := ParseOutline(string(data))
		if err != nil {
			return types.ContentModel{}, &ExtractionError{Source: source, Message: "invalid outline", Cause: err}
		}
		return model, nil
	default:
		return types.ContentModel{}, &ExtractionError{Source: source, Message: fmt.Sprintf("unsupported format %q", format)}
	}
}

func parseJSON(data []byte, source string) (types.ContentModel, error) {
	if err := schemas.ValidateContentModel(data); err != nil {
		return types.ContentModel{}, &ExtractionError{Source: source, Message: "document does not match the content model schema", Cause: err}
	}
	var model types.ContentModel
	if err := json.Unmarshal(data, &model); err != nil {
		return types.ContentModel{}, &ExtractionError{Source: source, Message: "failed to decode content model", Cause: err}
	}
	model = Normalize(model)
	if err := model.Validate(); err != nil {
		return types.ContentModel{}, &ExtractionError{Source: source, Message: "invalid content model", Cause: err}
	}
	return model, nil
}

// Normalize trims text, strips bullet markers, lowercases kinds and infers
// missing kinds from titles. Blank bullets are dropped.
func Normalize(model types.ContentModel) types.ContentModel {
	sections := make([]types.Section, 0, len(model.Sections))
	for _, s := range model.Sections {
		s.Title = collapseSpaces(s.Title)
		s.Kind = types.SectionKind(strings.ToLower(strings.TrimSpace(string(s.Kind))))
		if s.Kind == "" {
			s.Kind = InferKind(s.Title)
		}
		entries := make([]types.Entry, 0, len(s.Entries))
		for _, e := range s.Entries {
			e.Heading = collapseSpaces(e.Heading)
			e.Subheading = collapseSpaces(e.Subheading)
			e.Location = collapseSpaces(e.Location)
			bullets := make([]string, 0, len(e.Bullets))
			for _, b := range e.Bullets {
				if b = cleanBullet(b); b != "" {
					bullets = append(bullets, b)
				}
			}
			entries = append(entries, e.WithBullets(bullets))
		}
		sections = append(sections, s.WithEntries(entries))
	}
	out := model.WithSections(sections)
	out.Header.Name = collapseSpaces(out.Header.Name)
	return out
}

var kindKeywords = []struct {
	kind  types.SectionKind
	words []string
}{
	{types.SectionEducation, []string{"education", "academic"}},
	{types.SectionProjects, []string{"project"}},
	{types.SectionSkills, []string{"skill", "technologies", "tools"}},
	{types.SectionCertifications, []string{"certification", "license"}},
	{types.SectionAchievements, []string{"achievement", "award", "honor", "publication"}},
	{types.SectionExtracurricular, []string{"extracurricular", "activities", "volunteer", "leadership"}},
	{types.SectionExperience, []string{"experience", "employment", "work", "career"}},
}

// InferKind guesses a section kind from its title. Unknown titles are experience.
func InferKind(title string) types.SectionKind {
	lower := strings.ToLower(title)
	for _, k := range kindKeywords {
		for _, w := range k.words {
			if strings.Contains(lower, w) {
				return k.kind
			}
		}
	}
	return types.SectionExperience
}
