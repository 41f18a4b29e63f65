package typeset

import (
	"context"
	"testing"

	"github.com/jonathan/onepage/internal/rendering"
	"github.com/jonathan/onepage/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompiler struct {
	pdf     []byte
	err     error
	sources []string
}

func (c *fakeCompiler) Compile(_ context.Context, latex string) ([]byte, error) {
	c.sources = append(c.sources, latex)
	return c.pdf, c.err
}

func measureModel() types.ContentModel {
	return types.ContentModel{
		Header: types.Header{Name: "Ada"},
		Sections: []types.Section{{
			Kind:    types.SectionExperience,
			Title:   "Experience",
			Entries: []types.Entry{{Heading: "Acme", Bullets: []string{"Built things"}}},
		}},
	}
}

func TestRenderAndMeasure(t *testing.T) {
	compiler := &fakeCompiler{pdf: buildPDF(t, 700, 300)}
	m := NewLaTeXMeasurer(compiler, nil)

	got, err := m.RenderAndMeasure(context.Background(), measureModel(), rendering.ModeStandard, 0.5)
	require.NoError(t, err)

	assert.Equal(t, 2, got.PageCount)
	assert.InDelta(t, (792.0-300.0)/792.0, got.LastPageFill, 1e-6)
	assert.Equal(t, rendering.ModeStandard, got.Mode)
	require.Len(t, compiler.sources, 1)
	assert.Equal(t, compiler.sources[0], got.LaTeX)
	assert.Contains(t, got.LaTeX, `\item Built things`)
}

func TestRenderAndMeasure_CompileFailureIsRenderError(t *testing.T) {
	compiler := &fakeCompiler{err: &CompilationError{Message: "Undefined control sequence.", Line: 12}}
	m := NewLaTeXMeasurer(compiler, nil)

	_, err := m.RenderAndMeasure(context.Background(), measureModel(), rendering.ModeFallback, 0.5)
	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, "fallback", renderErr.Mode)
	var compErr *CompilationError
	require.ErrorAs(t, err, &compErr)
	assert.Equal(t, 12, compErr.Line)
}

func TestRenderAndMeasure_UnknownMode(t *testing.T) {
	m := NewLaTeXMeasurer(&fakeCompiler{}, nil)
	_, err := m.RenderAndMeasure(context.Background(), measureModel(), rendering.Mode("nope"), 0.5)
	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	var tmplErr *rendering.TemplateError
	assert.ErrorAs(t, err, &tmplErr)
}

func TestRenderAndMeasure_UnreadablePDF(t *testing.T) {
	m := NewLaTeXMeasurer(&fakeCompiler{pdf: []byte("not a pdf")}, nil)
	_, err := m.RenderAndMeasure(context.Background(), measureModel(), rendering.ModeStandard, 0.5)
	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	var countErr *PageCountError
	assert.ErrorAs(t, err, &countErr)
}
