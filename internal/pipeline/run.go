package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/onepage/internal/db"
	"github.com/jonathan/onepage/internal/fitting"
	"github.com/jonathan/onepage/internal/ingestion"
	"github.com/jonathan/onepage/internal/observability"
	"github.com/jonathan/onepage/internal/types"
)

// Output file names written by WriteOutputs.
const (
	PDFFile    = "resume.pdf"
	LaTeXFile  = "resume.tex"
	ResultFile = "result.json"
)

// Progress event kinds
const (
	EventIteration = "iteration"
	EventResult    = "result"
	EventError     = "error"
)

// ProgressEvent represents a progress update during a fit
type ProgressEvent struct {
	Kind      string                   `json:"kind"`
	RunID     string                   `json:"run_id,omitempty"`
	Iteration *fitting.IterationRecord `json:"iteration,omitempty"`
	Result    *fitting.Result          `json:"result,omitempty"`
	Message   string                   `json:"message,omitempty"`
}

// ProgressCallback is called when fit progress occurs
type ProgressCallback func(event ProgressEvent)

// Store persists runs. *db.DB implements it.
type Store interface {
	CreateRun(ctx context.Context, input *db.RunInput) (uuid.UUID, error)
	SaveIteration(ctx context.Context, runID uuid.UUID, rec fitting.IterationRecord) error
	CompleteRun(ctx context.Context, runID uuid.UUID, res *fitting.Result) error
	FailRun(ctx context.Context, runID uuid.UUID, status, message string) error
}

// RunOptions holds configuration for one end-to-end fit
type RunOptions struct {
	Role   string
	Source string
	// OutputDir receives the PDF, LaTeX and result JSON. Empty skips writing.
	OutputDir string
	// Store persists the run when set. Storage failures are logged and do not fail the fit.
	Store Store
	// Verbose prints iteration and result boxes to Out.
	Verbose    bool
	Out        io.Writer
	OnProgress ProgressCallback
}

// LoadModel reads a content model from path. Free text is structured by the
// generation service when one is configured.
func (f *Fitter) LoadModel(ctx context.Context, path string) (types.ContentModel, *ingestion.Metadata, error) {
	return ingestion.Load(ctx, path, f.extractor())
}

// DecodeModel is LoadModel for documents that arrive in memory.
func (f *Fitter) DecodeModel(ctx context.Context, data []byte, format ingestion.Format, source string) (types.ContentModel, error) {
	return ingestion.Decode(ctx, data, format, source, f.extractor())
}

func (f *Fitter) extractor() ingestion.Extractor {
	if f.components.Client == nil {
		return nil
	}
	return ingestion.NewLLMExtractor(f.components.Client, f.logger)
}

// Run fits model and handles persistence, progress and output files around the loop.
// The returned ID is uuid.Nil when no run was stored.
func (f *Fitter) Run(ctx context.Context, model types.ContentModel, opts RunOptions) (*fitting.Result, uuid.UUID, error) {
	// storage must outlive a cancelled fit so the run can be closed out
	storeCtx := context.WithoutCancel(ctx)
	runID := uuid.Nil
	if opts.Store != nil {
		id, err := opts.Store.CreateRun(storeCtx, &db.RunInput{Role: opts.Role, Source: opts.Source, Model: model})
		if err != nil {
			f.logger.Warn("failed to create database run; continuing without persistence", "error", err)
		} else {
			runID = id
			f.logger.Debug("created database run", "run_id", runID)
		}
	}

	var printer *observability.Printer
	if opts.Verbose && opts.Out != nil {
		printer = observability.NewPrinter(opts.Out)
	}
	emit := func(ev ProgressEvent) {
		if opts.OnProgress != nil {
			if runID != uuid.Nil {
				ev.RunID = runID.String()
			}
			opts.OnProgress(ev)
		}
	}

	observer := func(rec fitting.IterationRecord) {
		if printer != nil {
			printer.PrintIteration(rec)
		}
		if runID != uuid.Nil {
			if err := opts.Store.SaveIteration(storeCtx, runID, rec); err != nil {
				f.logger.Warn("failed to save iteration", "run_id", runID, "iteration", rec.Iteration, "error", err)
			}
		}
		emit(ProgressEvent{Kind: EventIteration, Iteration: &rec})
	}

	res, err := f.Fit(ctx, model, opts.Role, observer)
	if err != nil {
		if runID != uuid.Nil {
			status := db.RunStatusFailed
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				status = db.RunStatusCancelled
			}
			if ferr := opts.Store.FailRun(storeCtx, runID, status, err.Error()); ferr != nil {
				f.logger.Warn("failed to mark run failed", "run_id", runID, "error", ferr)
			}
		}
		emit(ProgressEvent{Kind: EventError, Message: err.Error()})
		return nil, runID, err
	}

	if runID != uuid.Nil {
		if err := opts.Store.CompleteRun(storeCtx, runID, res); err != nil {
			f.logger.Warn("failed to complete database run", "run_id", runID, "error", err)
		}
	}

	if printer != nil {
		printer.PrintReport(res.Report)
		printer.PrintEvaluation(res.Evaluation)
		printer.PrintResult(res)
	}

	if opts.OutputDir != "" {
		if err := WriteOutputs(opts.OutputDir, res); err != nil {
			return res, runID, err
		}
	}

	emit(ProgressEvent{Kind: EventResult, Result: res})
	return res, runID, nil
}

// WriteOutputs writes the PDF, LaTeX source and result JSON into dir.
func WriteOutputs(dir string, res *fitting.Result) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	resultJSON, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	var g errgroup.Group
	for name, content := range map[string][]byte{
		PDFFile:    res.PDF,
		LaTeXFile:  []byte(res.LaTeX),
		ResultFile: resultJSON,
	} {
		g.Go(func() error {
			path := filepath.Join(dir, name)
			if err := os.WriteFile(path, content, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			return nil
		})
	}
	return g.Wait()
}
