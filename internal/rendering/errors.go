// Package rendering turns a content model into LaTeX source.
package rendering

import "fmt"

// TemplateError is a failure to load, parse or execute the template for Mode.
// Op names the step that failed.
type TemplateError struct {
	Mode  Mode
	Op    string
	Cause error
}

func (e *TemplateError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s template: %s", e.Mode, e.Op)
	}
	return fmt.Sprintf("%s template: %s: %v", e.Mode, e.Op, e.Cause)
}

func (e *TemplateError) Unwrap() error { return e.Cause }
