// Package schemas provides JSON Schema validation for documents read by the fitter.
package schemas

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	rootschemas "github.com/jonathan/onepage/schemas"
)

// maxListedErrors bounds how many field errors Error() spells out.
const maxListedErrors = 8

// ValidationError lists every schema violation found in a document.
type ValidationError struct {
	Errors []FieldError
}

// FieldError is one violation at a JSON path such as "sections.0.entries".
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "validation failed with %d error(s):", len(ve.Errors))
	for i, err := range ve.Errors {
		if i == maxListedErrors {
			fmt.Fprintf(&sb, "\n  ... and %d more", len(ve.Errors)-maxListedErrors)
			break
		}
		fmt.Fprintf(&sb, "\n  %d. %s: %s", i+1, err.Field, err.Message)
	}
	return sb.String()
}

// SchemaLoadError means the embedded schema itself could not be compiled.
type SchemaLoadError struct {
	Path  string
	Cause error
}

func (e *SchemaLoadError) Error() string {
	return fmt.Sprintf("failed to load schema %s: %v", e.Path, e.Cause)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

var contentModelSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(rootschemas.ContentModel))
})

// ValidateContentModel validates a JSON document against the embedded content model schema.
func ValidateContentModel(jsonContent []byte) error {
	schema, err := contentModelSchema()
	if err != nil {
		return &SchemaLoadError{Path: "content_model.schema.json", Cause: err}
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(jsonContent))
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}
	if result.Valid() {
		return nil
	}

	ve := &ValidationError{Errors: make([]FieldError, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		ve.Errors = append(ve.Errors, FieldError{Field: field, Message: desc.Description()})
	}
	return ve
}
