// Package schemas embeds the JSON Schemas for documents the fitter reads.
package schemas

import _ "embed"

// ContentModel is the JSON Schema for a structured resume.
//
//go:embed content_model.schema.json
var ContentModel string
