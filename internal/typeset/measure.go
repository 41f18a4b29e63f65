package typeset

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jonathan/onepage/internal/rendering"
	"github.com/jonathan/onepage/internal/types"
)

// Measurement is the physical result of rendering one model.
type Measurement struct {
	PageCount    int            `json:"page_count"`
	LastPageFill float64        `json:"last_page_fill"`
	Mode         rendering.Mode `json:"mode"`
	LaTeX        string         `json:"-"`
	PDF          []byte         `json:"-"`
}

// Measurer renders a model and reports its physical length.
type Measurer interface {
	RenderAndMeasure(ctx context.Context, model types.ContentModel, mode rendering.Mode, pressure float64) (Measurement, error)
}

// PDFCompiler compiles LaTeX source to PDF bytes.
type PDFCompiler interface {
	Compile(ctx context.Context, latex string) ([]byte, error)
}

// LaTeXMeasurer renders with the embedded templates and compiles with a PDFCompiler.
// It keeps no state between calls.
type LaTeXMeasurer struct {
	compiler PDFCompiler
	logger   *slog.Logger
}

// NewLaTeXMeasurer creates a measurer. A nil logger uses slog.Default.
func NewLaTeXMeasurer(compiler PDFCompiler, logger *slog.Logger) *LaTeXMeasurer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LaTeXMeasurer{compiler: compiler, logger: logger}
}

// RenderAndMeasure renders model in mode, compiles it and counts pages.
// Any failure is a RenderError; compile failures wrap a CompilationError.
func (m *LaTeXMeasurer) RenderAndMeasure(ctx context.Context, model types.ContentModel, mode rendering.Mode, pressure float64) (Measurement, error) {
	latex, err := rendering.Render(model, mode, pressure)
	if err != nil {
		return Measurement{}, &RenderError{Mode: string(mode), Message: "failed to render LaTeX", Cause: err}
	}

	pdf, err := m.compiler.Compile(ctx, latex)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = errors.Join(err, ctxErr)
		}
		var compErr *CompilationError
		if errors.As(err, &compErr) {
			m.logger.Debug("compilation failed", "mode", mode, "line", compErr.Line, "message", compErr.Message)
		}
		return Measurement{}, &RenderError{Mode: string(mode), Message: "failed to compile", Cause: err}
	}

	pages, err := CountPages(pdf)
	if err != nil {
		return Measurement{}, &RenderError{Mode: string(mode), Message: "failed to count pages", Cause: err}
	}

	fill := LastPageFill(pdf)
	m.logger.Debug("measured document", "mode", mode, "pages", pages, "last_page_fill", fill)
	return Measurement{
		PageCount:    pages,
		LastPageFill: fill,
		Mode:         mode,
		LaTeX:        latex,
		PDF:          pdf,
	}, nil
}
