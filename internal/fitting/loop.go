package fitting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonathan/onepage/internal/compression"
	"github.com/jonathan/onepage/internal/rendering"
	"github.com/jonathan/onepage/internal/scoring"
	"github.com/jonathan/onepage/internal/transform"
	"github.com/jonathan/onepage/internal/typeset"
	"github.com/jonathan/onepage/internal/types"
)

// ErrNoAcceptedCandidate is returned when the loop stops before any candidate was accepted.
var ErrNoAcceptedCandidate = errors.New("no accepted candidate")

// DefaultHistorySize bounds the pressure history kept in a Result.
const DefaultHistorySize = 16

// StopReason says why the loop ended.
type StopReason string

// Stop reasons
const (
	StopReasonConverged       StopReason = "converged"
	StopReasonBudgetExhausted StopReason = "budget_exhausted"
	StopReasonCancelled       StopReason = "cancelled"
)

// Transformer applies a compression plan to a model.
type Transformer interface {
	Apply(ctx context.Context, model types.ContentModel, plan compression.Plan, role string) (types.ContentModel, transform.Report, error)
}

// Measurer renders a model and reports its physical length.
type Measurer interface {
	RenderAndMeasure(ctx context.Context, model types.ContentModel, mode rendering.Mode, pressure float64) (typeset.Measurement, error)
}

// PressureSample is one entry of the bounded pressure history.
type PressureSample struct {
	Pressure float64 `json:"pressure"`
	Pages    int     `json:"pages"`
	Score    int     `json:"score"`
}

// IterationRecord is the audit trail of one iteration.
type IterationRecord struct {
	Iteration  int                     `json:"iteration"`
	Pressure   float64                 `json:"pressure"`
	Level      compression.Level       `json:"level"`
	State      string                  `json:"state"`
	Mode       rendering.Mode          `json:"mode,omitempty"`
	Evaluation *types.EvaluationResult `json:"evaluation,omitempty"`
	Accepted   bool                    `json:"accepted"`
	Error      string                  `json:"error,omitempty"`
	Fallbacks  []string                `json:"fallbacks,omitempty"`
	Duration   time.Duration           `json:"duration_ns"`
	Model      types.ContentModel      `json:"-"`
}

// Result is the outcome of a fitting run.
type Result struct {
	PDF        []byte                 `json:"-"`
	LaTeX      string                 `json:"-"`
	Model      types.ContentModel     `json:"model"`
	Evaluation types.EvaluationResult `json:"evaluation"`
	Report     transform.Report       `json:"report"`
	Pressure   float64                `json:"pressure"`
	State      string                 `json:"state"`
	Converged  bool                   `json:"converged"`
	StopReason StopReason             `json:"stop_reason"`
	PageCount  int                    `json:"page_count"`
	History    []PressureSample       `json:"history"`
	Iterations []IterationRecord      `json:"iterations"`
}

// Observer is called after every iteration, in order.
type Observer func(IterationRecord)

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(lp *Loop) {
		if l != nil {
			lp.logger = l
		}
	}
}

// WithObserver registers a per-iteration callback.
func WithObserver(o Observer) Option {
	return func(lp *Loop) {
		lp.observer = o
	}
}

// WithHistorySize bounds the pressure history. Non-positive values are ignored.
func WithHistorySize(n int) Option {
	return func(lp *Loop) {
		if n > 0 {
			lp.historySize = n
		}
	}
}

// WithRenderMode sets the first render mode tried each iteration.
func WithRenderMode(m rendering.Mode) Option {
	return func(lp *Loop) {
		if m.Valid() {
			lp.mode = m
		}
	}
}

// Loop runs transform, measure, score, guard and controller until a terminal state.
type Loop struct {
	transformer Transformer
	measurer    Measurer
	scorer      scoring.Scorer
	controller  *Controller
	logger      *slog.Logger
	observer    Observer
	historySize int
	mode        rendering.Mode
}

// NewLoop wires the loop's collaborators.
func NewLoop(t Transformer, m Measurer, s scoring.Scorer, c *Controller, opts ...Option) *Loop {
	l := &Loop{
		transformer: t,
		measurer:    m,
		scorer:      s,
		controller:  c,
		logger:      slog.Default(),
		historySize: DefaultHistorySize,
		mode:        rendering.ModeStandard,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// candidate is one transformed, measured and scored model.
type candidate struct {
	model       types.ContentModel
	report      transform.Report
	measurement typeset.Measurement
	evaluation  types.EvaluationResult
}

// Run fits model to one page for role. Every iteration transforms the input
// model afresh under the current plan, so lowering pressure restores content.
// It fails only when no candidate was ever accepted.
func (l *Loop) Run(ctx context.Context, model types.ContentModel, role string) (*Result, error) {
	state := l.controller.Start()
	var best *candidate
	var records []IterationRecord
	var history []PressureSample
	stop := StopReason("")
	iteration := 0

	l.logger.Info("fitting started", "role", role, "pressure", state.Pressure(), "bullets", model.BulletCount())

	for !state.Terminal() {
		if err := ctx.Err(); err != nil {
			stop = StopReasonCancelled
			break
		}
		iteration++
		pressure := state.Pressure()
		plan := compression.PlanFor(pressure)
		started := time.Now()

		l.logger.Debug("iteration started",
			"iteration", iteration,
			"state", state.Name(),
			"pressure", pressure,
			"level", plan.Level,
		)

		cand, err := l.iterate(ctx, model, plan, role)
		rec := IterationRecord{
			Iteration: iteration,
			Pressure:  pressure,
			Level:     plan.Level,
			Duration:  time.Since(started),
		}
		iterationDuration.WithLabelValues(plan.Level.String()).Observe(rec.Duration.Seconds())

		obs := Observation{Iteration: iteration}
		if err != nil {
			rec.Error = err.Error()
			iterationsTotal.WithLabelValues("failed").Inc()
			l.logger.Warn("iteration failed", "iteration", iteration, "pressure", pressure, "error", err)

			if best == nil {
				records = append(records, l.finishRecord(rec, state))
				return nil, fmt.Errorf("%w: iteration %d: %w", ErrNoAcceptedCandidate, iteration, err)
			}
			if ctx.Err() != nil {
				records = append(records, l.finishRecord(rec, state))
				stop = StopReasonCancelled
				break
			}
			obs.Failed = true
			obs.Pages = best.evaluation.PageCount
		} else {
			var previous *types.EvaluationResult
			if best != nil {
				previous = &best.evaluation
			}
			accepted := Accept(previous, cand.evaluation)
			if _, refining := state.(Converged); refining && cand.evaluation.PageCount > 1 {
				// a refinement that spills over never replaces the one-page candidate
				accepted = false
			}

			eval := cand.evaluation
			rec.Evaluation = &eval
			rec.Mode = cand.measurement.Mode
			rec.Accepted = accepted
			rec.Fallbacks = cand.report.Fallbacks()
			rec.Model = cand.model

			if accepted {
				best = cand
				iterationsTotal.WithLabelValues("accepted").Inc()
			} else {
				iterationsTotal.WithLabelValues("rejected").Inc()
			}
			l.logger.Info("iteration scored",
				"iteration", iteration,
				"pressure", pressure,
				"pages", eval.PageCount,
				"total", eval.Total,
				"accepted", accepted,
			)

			obs.Pages = eval.PageCount
			obs.Accepted = accepted
			history = appendBounded(history, PressureSample{Pressure: pressure, Pages: eval.PageCount, Score: eval.Total}, l.historySize)
		}

		next := l.controller.Next(state, obs)
		if next.Name() != state.Name() || next.Pressure() != state.Pressure() {
			l.logger.Debug("pressure transition",
				"from", state.Name(),
				"to", next.Name(),
				"pressure_before", state.Pressure(),
				"pressure_after", next.Pressure(),
			)
		}
		state = next
		records = append(records, l.finishRecord(rec, state))
	}

	if best == nil {
		return nil, fmt.Errorf("%w: %w", ErrNoAcceptedCandidate, ctx.Err())
	}
	if stop == "" {
		stop = StopReasonConverged
		if _, ok := state.(Exhausted); ok {
			stop = StopReasonBudgetExhausted
		}
	}

	_, converged := state.(Converged)
	result := &Result{
		PDF:        best.measurement.PDF,
		LaTeX:      best.measurement.LaTeX,
		Model:      best.model,
		Evaluation: best.evaluation,
		Report:     best.report,
		Pressure:   state.Pressure(),
		State:      state.Name(),
		Converged:  converged && stop != StopReasonCancelled,
		StopReason: stop,
		PageCount:  best.evaluation.PageCount,
		History:    history,
		Iterations: records,
	}

	runsTotal.WithLabelValues(string(stop)).Inc()
	finalPressure.Observe(result.Pressure)
	l.logger.Info("fitting finished",
		"stop_reason", stop,
		"iterations", len(records),
		"pressure", result.Pressure,
		"pages", result.PageCount,
		"total", result.Evaluation.Total,
	)
	return result, nil
}

// finishRecord stamps the state reached after the iteration and notifies the observer.
func (l *Loop) finishRecord(rec IterationRecord, state State) IterationRecord {
	rec.State = state.Name()
	if l.observer != nil {
		l.observer(rec)
	}
	return rec
}

// iterate runs one transform, render and score pass. A failed render is
// retried once with the fallback template.
func (l *Loop) iterate(ctx context.Context, model types.ContentModel, plan compression.Plan, role string) (*candidate, error) {
	transformed, report, err := l.transformer.Apply(ctx, model, plan, role)
	if err != nil {
		return nil, err
	}

	m, err := l.measurer.RenderAndMeasure(ctx, transformed, l.mode, plan.Pressure)
	if err != nil && l.mode != rendering.ModeFallback && ctx.Err() == nil {
		l.logger.Warn("render failed, retrying with fallback template", "mode", l.mode, "error", err)
		renderFallbacks.Inc()
		m, err = l.measurer.RenderAndMeasure(ctx, transformed, rendering.ModeFallback, plan.Pressure)
	}
	if err != nil {
		return nil, err
	}

	eval := l.scorer.Score(transformed, m, role)
	return &candidate{model: transformed, report: report, measurement: m, evaluation: eval}, nil
}

func appendBounded(history []PressureSample, s PressureSample, limit int) []PressureSample {
	history = append(history, s)
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	return history
}
