// Package typeset compiles rendered LaTeX and measures the resulting PDF.
package typeset

import "fmt"

// CompilationError represents a LaTeX compilation failure.
// Line is the source line pdflatex reported, or 0 when unknown.
type CompilationError struct {
	Message   string
	Line      int
	LogOutput string
	Cause     error
}

func (e *CompilationError) Error() string {
	msg := e.Message
	if e.Line > 0 {
		msg = fmt.Sprintf("%s (line %d)", e.Message, e.Line)
	}
	if e.Cause != nil {
		return fmt.Sprintf("LaTeX compilation error: %s: %v", msg, e.Cause)
	}
	return fmt.Sprintf("LaTeX compilation error: %s", msg)
}

func (e *CompilationError) Unwrap() error {
	return e.Cause
}

// RenderError reports that a model could not be turned into a measured PDF.
type RenderError struct {
	Mode    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("render error (%s): %s: %v", e.Mode, e.Message, e.Cause)
	}
	return fmt.Sprintf("render error (%s): %s", e.Mode, e.Message)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// PageCountError reports that the page count of a PDF could not be determined.
type PageCountError struct {
	Message string
	Cause   error
}

func (e *PageCountError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("page count error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("page count error: %s", e.Message)
}

func (e *PageCountError) Unwrap() error {
	return e.Cause
}
