package fitting

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/onepage/internal/compression"
	"github.com/jonathan/onepage/internal/rendering"
	"github.com/jonathan/onepage/internal/transform"
	"github.com/jonathan/onepage/internal/typeset"
	"github.com/jonathan/onepage/internal/types"
)

func evalWith(pages, total int) types.EvaluationResult {
	return types.EvaluationResult{PageCount: pages, Total: total}
}

func testModel() types.ContentModel {
	return types.ContentModel{
		Header: types.Header{Name: "Jane Doe"},
		Sections: []types.Section{
			{Kind: types.SectionExperience, Title: "Experience", Entries: []types.Entry{
				{Heading: "Acme", Bullets: []string{"Built 12 services"}},
			}},
		},
	}
}

// fakeTransformer stamps the plan pressure into the header name.
type fakeTransformer struct {
	plans  []compression.Plan
	failAt map[float64]error
}

func (f *fakeTransformer) Apply(_ context.Context, model types.ContentModel, plan compression.Plan, _ string) (types.ContentModel, transform.Report, error) {
	f.plans = append(f.plans, plan)
	if err, ok := f.failAt[plan.Pressure]; ok {
		return types.ContentModel{}, transform.Report{}, err
	}
	out := model.WithSections(model.Sections)
	out.Header.Name = fmt.Sprintf("p=%.2f", plan.Pressure)
	return out, transform.Report{Level: plan.Level.String()}, nil
}

type measureCall struct {
	mode     rendering.Mode
	pressure float64
}

// fakeMeasurer answers from a pages function of pressure, or from a script.
type fakeMeasurer struct {
	calls    []measureCall
	pagesFor func(p float64) int
	script   []int
	failMode map[rendering.Mode]int
}

func (f *fakeMeasurer) RenderAndMeasure(_ context.Context, model types.ContentModel, mode rendering.Mode, pressure float64) (typeset.Measurement, error) {
	f.calls = append(f.calls, measureCall{mode: mode, pressure: pressure})
	if f.failMode[mode] > 0 {
		f.failMode[mode]--
		return typeset.Measurement{}, &typeset.RenderError{Mode: string(mode), Message: "failed to compile"}
	}
	pages := 1
	switch {
	case f.pagesFor != nil:
		pages = f.pagesFor(pressure)
	case len(f.script) > 0:
		pages, f.script = f.script[0], f.script[1:]
	}
	return typeset.Measurement{PageCount: pages, Mode: mode, LaTeX: model.Header.Name, PDF: []byte(model.Header.Name)}, nil
}

// fakeScorer returns scripted totals in call order, or a page-based default.
type fakeScorer struct {
	totals []int
	calls  int
}

func (f *fakeScorer) Score(_ types.ContentModel, m typeset.Measurement, _ string) types.EvaluationResult {
	total := 92
	if m.PageCount > 1 {
		total = 80
	}
	if f.calls < len(f.totals) {
		total = f.totals[f.calls]
	}
	f.calls++
	return types.EvaluationResult{PageCount: m.PageCount, Total: total, Passed: m.PageCount == 1 && total >= types.PassingScore}
}

func newTestLoop(t *testing.T, tr Transformer, m Measurer, s *fakeScorer, probes int, opts ...Option) *Loop {
	t.Helper()
	return NewLoop(tr, m, s, newTestController(t, probes), opts...)
}

func pressures(records []IterationRecord) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = r.Pressure
	}
	return out
}

// onePageFrom renders to one page at or above threshold.
func onePageFrom(threshold float64) func(float64) int {
	return func(p float64) int {
		if p >= threshold-1e-9 {
			return 1
		}
		return 2
	}
}

func TestRun_ConvergesWithoutRefinement(t *testing.T) {
	tr := &fakeTransformer{}
	loop := newTestLoop(t, tr, &fakeMeasurer{pagesFor: onePageFrom(0.7)}, &fakeScorer{}, 0)

	result, err := loop.Run(context.Background(), testModel(), "Backend Engineer")

	require.NoError(t, err)
	assert.Equal(t, []float64{0.3, 0.45, 0.6, 0.75}, pressures(result.Iterations))
	assert.True(t, result.Converged)
	assert.Equal(t, StopReasonConverged, result.StopReason)
	assert.InDelta(t, 0.65, result.Pressure, 1e-9)
	assert.Equal(t, 1, result.PageCount)
	assert.Equal(t, "p=0.75", result.Model.Header.Name)
	assert.Equal(t, []byte("p=0.75"), result.PDF)
	assert.Equal(t, compression.Aggressive, tr.plans[3].Level)
	assert.Len(t, result.History, 4)
}

func TestRun_RefinementOverflowRevertsPressure(t *testing.T) {
	loop := newTestLoop(t, &fakeTransformer{}, &fakeMeasurer{pagesFor: onePageFrom(0.7)}, &fakeScorer{}, 1)

	result, err := loop.Run(context.Background(), testModel(), "Backend Engineer")

	require.NoError(t, err)
	assert.Equal(t, []float64{0.3, 0.45, 0.6, 0.75, 0.65}, pressures(result.Iterations))
	assert.InDelta(t, 0.75, result.Pressure, 1e-9)
	assert.True(t, result.Converged)
	assert.Equal(t, "p=0.75", result.Model.Header.Name)
	assert.Equal(t, 1, result.PageCount)
}

func TestRun_OverflowingRefinementNeverWinsOnScore(t *testing.T) {
	loop := newTestLoop(t, &fakeTransformer{}, &fakeMeasurer{pagesFor: onePageFrom(0.7)},
		&fakeScorer{totals: []int{70, 72, 74, 80, 85}}, 1)

	result, err := loop.Run(context.Background(), testModel(), "Backend Engineer")

	require.NoError(t, err)
	require.Len(t, result.Iterations, 5)
	last := result.Iterations[4]
	assert.InDelta(t, 0.65, last.Pressure, 1e-9)
	assert.Equal(t, 85, last.Evaluation.Total)
	assert.False(t, last.Accepted)

	assert.True(t, result.Converged)
	assert.Equal(t, "p=0.75", result.Model.Header.Name)
	assert.Equal(t, 80, result.Evaluation.Total)
	assert.Equal(t, 1, result.PageCount)
	assert.InDelta(t, 0.75, result.Pressure, 1e-9)
}

func TestRun_OnePageRefinementIsKept(t *testing.T) {
	loop := newTestLoop(t, &fakeTransformer{}, &fakeMeasurer{script: []int{2, 1, 1}}, &fakeScorer{totals: []int{80, 92, 95}}, 1)

	result, err := loop.Run(context.Background(), testModel(), "Backend Engineer")

	require.NoError(t, err)
	assert.Equal(t, []float64{0.3, 0.45, 0.35}, pressures(result.Iterations))
	assert.Equal(t, "p=0.35", result.Model.Header.Name)
	assert.Equal(t, 95, result.Evaluation.Total)
	assert.InDelta(t, 0.35, result.Pressure, 1e-9)
}

func TestRun_ExhaustsBudgetAndReturnsBest(t *testing.T) {
	loop := newTestLoop(t, &fakeTransformer{}, &fakeMeasurer{pagesFor: func(float64) int { return 2 }},
		&fakeScorer{totals: []int{70, 75, 72, 78, 78, 60}}, 1)

	result, err := loop.Run(context.Background(), testModel(), "Backend Engineer")

	require.NoError(t, err)
	require.Len(t, result.Iterations, DefaultMaxIterations)
	assert.Equal(t, []float64{0.3, 0.45, 0.6, 0.75, 0.9, 0.9}, pressures(result.Iterations))
	assert.Equal(t, StopReasonBudgetExhausted, result.StopReason)
	assert.Equal(t, "exhausted", result.State)
	assert.False(t, result.Converged)
	assert.Equal(t, 78, result.Evaluation.Total)
	assert.Equal(t, 2, result.PageCount)

	accepted := []bool{true, true, false, true, true, false}
	last := -1
	for i, rec := range result.Iterations {
		assert.Equal(t, accepted[i], rec.Accepted, "iteration %d", rec.Iteration)
		if rec.Accepted {
			assert.GreaterOrEqual(t, rec.Evaluation.Total, last)
			last = rec.Evaluation.Total
		}
	}
}

func TestRun_GuardKeepsPreviousCandidate(t *testing.T) {
	loop := newTestLoop(t, &fakeTransformer{}, &fakeMeasurer{script: []int{2, 1, 2, 1}}, &fakeScorer{totals: []int{85, 80, 86, 90}}, 0)

	result, err := loop.Run(context.Background(), testModel(), "Backend Engineer")

	require.NoError(t, err)
	assert.Equal(t, []float64{0.3, 0.45, 0.35, 0.5}, pressures(result.Iterations))
	assert.False(t, result.Iterations[1].Accepted)
	assert.Equal(t, "seeking", result.Iterations[1].State)
	assert.Equal(t, 90, result.Evaluation.Total)
	assert.InDelta(t, 0.4, result.Pressure, 1e-9)
}

func TestRun_RenderFallsBackToSecondMode(t *testing.T) {
	m := &fakeMeasurer{failMode: map[rendering.Mode]int{rendering.ModeStandard: 1}}
	loop := newTestLoop(t, &fakeTransformer{}, m, &fakeScorer{}, 0)

	result, err := loop.Run(context.Background(), testModel(), "Backend Engineer")

	require.NoError(t, err)
	require.Len(t, result.Iterations, 1)
	assert.Equal(t, rendering.ModeFallback, result.Iterations[0].Mode)
	assert.Equal(t, []measureCall{
		{mode: rendering.ModeStandard, pressure: 0.3},
		{mode: rendering.ModeFallback, pressure: 0.3},
	}, m.calls)
}

func TestRun_FirstIterationFailureIsFatal(t *testing.T) {
	m := &fakeMeasurer{failMode: map[rendering.Mode]int{rendering.ModeStandard: 1, rendering.ModeFallback: 1}}
	var observed []IterationRecord
	loop := newTestLoop(t, &fakeTransformer{}, m, &fakeScorer{}, 0,
		WithObserver(func(r IterationRecord) { observed = append(observed, r) }))

	result, err := loop.Run(context.Background(), testModel(), "Backend Engineer")

	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrNoAcceptedCandidate)
	var renderErr *typeset.RenderError
	assert.ErrorAs(t, err, &renderErr)
	require.Len(t, observed, 1)
	assert.NotEmpty(t, observed[0].Error)
}

func TestRun_LaterFailureIsRejectedIteration(t *testing.T) {
	tr := &fakeTransformer{failAt: map[float64]error{
		0.45: &transform.TransformationError{Message: "entry would become empty"},
	}}
	loop := newTestLoop(t, tr, &fakeMeasurer{pagesFor: onePageFrom(0.6)}, &fakeScorer{}, 0)

	result, err := loop.Run(context.Background(), testModel(), "Backend Engineer")

	require.NoError(t, err)
	assert.Equal(t, []float64{0.3, 0.45, 0.6}, pressures(result.Iterations))
	failed := result.Iterations[1]
	assert.False(t, failed.Accepted)
	assert.Nil(t, failed.Evaluation)
	assert.Contains(t, failed.Error, "entry would become empty")
	assert.Equal(t, "p=0.60", result.Model.Header.Name)
}

func TestRun_CancellationReturnsBestCandidate(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	loop := newTestLoop(t, &fakeTransformer{}, &fakeMeasurer{pagesFor: func(float64) int { return 2 }}, &fakeScorer{}, 0,
		WithObserver(func(IterationRecord) { cancel() }))

	result, err := loop.Run(ctx, testModel(), "Backend Engineer")

	require.NoError(t, err)
	assert.Equal(t, StopReasonCancelled, result.StopReason)
	assert.False(t, result.Converged)
	assert.Len(t, result.Iterations, 1)
	assert.Equal(t, "p=0.30", result.Model.Header.Name)
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	loop := newTestLoop(t, &fakeTransformer{}, &fakeMeasurer{}, &fakeScorer{}, 0)

	_, err := loop.Run(ctx, testModel(), "Backend Engineer")

	assert.True(t, errors.Is(err, ErrNoAcceptedCandidate))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRun_HistoryIsBounded(t *testing.T) {
	loop := newTestLoop(t, &fakeTransformer{}, &fakeMeasurer{pagesFor: func(float64) int { return 3 }}, &fakeScorer{}, 0,
		WithHistorySize(2))

	result, err := loop.Run(context.Background(), testModel(), "Backend Engineer")

	require.NoError(t, err)
	assert.Equal(t, []PressureSample{
		{Pressure: 0.9, Pages: 3, Score: 80},
		{Pressure: 0.9, Pages: 3, Score: 80},
	}, result.History)
	assert.Len(t, result.Iterations, DefaultMaxIterations)
}

func TestAppendBounded(t *testing.T) {
	var h []PressureSample
	for i := 0; i < 5; i++ {
		h = appendBounded(h, PressureSample{Pages: i}, 3)
	}
	assert.Equal(t, []PressureSample{{Pages: 2}, {Pages: 3}, {Pages: 4}}, h)
}
