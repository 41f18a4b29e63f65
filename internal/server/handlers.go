package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jonathan/onepage/internal/db"
	"github.com/jonathan/onepage/internal/fitting"
	"github.com/jonathan/onepage/internal/ingestion"
	"github.com/jonathan/onepage/internal/pipeline"
	"github.com/jonathan/onepage/internal/types"
)

const (
	maxRequestBytes  = 1 << 20
	defaultListLimit = 20
	maxListLimit     = 100
)

// FitRequest represents the request body for /fits. Either a structured
// model or a document in one of the ingestion formats is required.
type FitRequest struct {
	Model   *types.ContentModel `json:"model,omitempty"`
	Content string              `json:"content,omitempty" validate:"required_without=Model,max=200000"`
	Format  string              `json:"format,omitempty" validate:"omitempty,oneof=json yaml outline text"`
	Role    string              `json:"role,omitempty" validate:"max=200"`
}

// FitResponse represents the response for /fits
type FitResponse struct {
	RunID  string          `json:"run_id,omitempty"`
	Status string          `json:"status"`
	Result *fitting.Result `json:"result"`
	LaTeX  string          `json:"latex"`
	PDF    []byte          `json:"pdf,omitempty"`
}

// RunDetailResponse represents the response for /fits/{id}
type RunDetailResponse struct {
	Run        *db.Run        `json:"run"`
	Iterations []db.Iteration `json:"iterations"`
}

// decodeFitRequest reads, validates and turns the body into a content model.
func (s *Server) decodeFitRequest(ctx context.Context, r *http.Request) (*FitRequest, types.ContentModel, error) {
	var req FitRequest
	if err := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		return nil, types.ContentModel{}, &ErrValidation{Field: "body", Message: "invalid request body: " + err.Error()}
	}
	if err := s.validate.Struct(&req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, types.ContentModel{}, &ErrValidation{Field: verrs[0].Field(), Message: "failed on '" + verrs[0].Tag() + "'"}
		}
		return nil, types.ContentModel{}, &ErrValidation{Field: "body", Message: err.Error()}
	}

	if req.Model != nil {
		model := ingestion.Normalize(*req.Model)
		if err := model.Validate(); err != nil {
			var invalid *types.InvalidModelError
			if errors.As(err, &invalid) {
				return nil, types.ContentModel{}, &ErrValidation{Field: "model." + invalid.Path, Message: invalid.Reason}
			}
			return nil, types.ContentModel{}, err
		}
		return &req, model, nil
	}

	format := ingestion.Format(req.Format)
	if format == "" {
		format = ingestion.FormatOutline
		if strings.HasPrefix(strings.TrimSpace(req.Content), "{") {
			format = ingestion.FormatJSON
		}
	}
	model, err := s.fitter.DecodeModel(ctx, []byte(req.Content), format, "request")
	if err != nil {
		return nil, types.ContentModel{}, err
	}
	return &req, model, nil
}

// acquireSlot reserves one fit slot without waiting.
func (s *Server) acquireSlot() (func(), error) {
	if !s.slots.TryAcquire(1) {
		return nil, &ErrBusy{Limit: s.maxFits}
	}
	fitsInFlight.Inc()
	return func() {
		fitsInFlight.Dec()
		s.slots.Release(1)
	}, nil
}

// runOptions builds the pipeline options shared by both fit endpoints.
func (s *Server) runOptions(req *FitRequest) pipeline.RunOptions {
	opts := pipeline.RunOptions{Role: req.Role, Source: "api"}
	if s.store != nil {
		opts.Store = s.store
	}
	return opts
}

func newFitResponse(runID uuid.UUID, res *fitting.Result) FitResponse {
	resp := FitResponse{Status: db.RunStatusCompleted, Result: res, LaTeX: res.LaTeX, PDF: res.PDF}
	if runID != uuid.Nil {
		resp.RunID = runID.String()
	}
	return resp
}

// handleFit runs a fit to completion and returns the result
func (s *Server) handleFit(w http.ResponseWriter, r *http.Request) {
	req, model, err := s.decodeFitRequest(r.Context(), r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	release, err := s.acquireSlot()
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer release()

	s.logger.Info("starting fit", "role", req.Role, "bullets", model.BulletCount())
	res, runID, err := s.fitter.Run(r.Context(), model, s.runOptions(req))
	if err != nil {
		s.logger.Warn("fit failed", "run_id", runID, "error", err)
		s.writeError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, newFitResponse(runID, res))
}

// handleFitStream runs a fit and streams iterations via SSE
func (s *Server) handleFitStream(w http.ResponseWriter, r *http.Request) {
	req, model, err := s.decodeFitRequest(r.Context(), r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	release, err := s.acquireSlot()
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer release()

	stream, err := newFitStream(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	opts := s.runOptions(req)
	opts.OnProgress = func(event pipeline.ProgressEvent) {
		if event.Kind != pipeline.EventIteration {
			return
		}
		if err := stream.send(event.Kind, event); err != nil {
			s.logger.Warn("failed to write SSE event", "error", err)
		}
	}

	s.logger.Info("starting streaming fit", "role", req.Role, "bullets", model.BulletCount())
	res, runID, err := s.fitter.Run(r.Context(), model, opts)
	if err != nil {
		s.logger.Warn("streaming fit failed", "run_id", runID, "error", err)
		if err := stream.fail(err); err != nil {
			s.logger.Warn("failed to write SSE error", "error", err)
		}
		return
	}

	if err := stream.send(pipeline.EventResult, newFitResponse(runID, res)); err != nil {
		s.logger.Warn("failed to write SSE result", "error", err)
		return
	}
	if err := stream.complete(runID, db.RunStatusCompleted); err != nil {
		s.logger.Warn("failed to write SSE completion", "error", err)
	}
}

// parseRunID reads the {id} path value
func parseRunID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, &ErrValidation{Field: "id", Message: "invalid run ID format"}
	}
	return id, nil
}

// handleGetFit returns a stored run with its iterations
func (s *Server) handleGetFit(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, &ErrStorageDisabled{})
		return
	}
	runID, err := parseRunID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	run, err := s.store.GetRun(r.Context(), runID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if run == nil {
		s.writeError(w, &ErrRunNotFound{RunID: runID})
		return
	}

	iterations, err := s.store.ListIterations(r.Context(), runID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if iterations == nil {
		iterations = []db.Iteration{}
	}

	s.jsonResponse(w, http.StatusOK, RunDetailResponse{Run: run, Iterations: iterations})
}

// handleGetFitPDF serves the PDF of a completed run
func (s *Server) handleGetFitPDF(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, &ErrStorageDisabled{})
		return
	}
	runID, err := parseRunID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	pdf, err := s.store.GetRunPDF(r.Context(), runID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if len(pdf) == 0 {
		s.writeError(w, &ErrRunNotFound{RunID: runID})
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="resume.pdf"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		s.logger.Warn("failed to write PDF", "run_id", runID, "error", err)
	}
}

// handleListFits returns recent runs, newest first
func (s *Server) handleListFits(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, &ErrStorageDisabled{})
		return
	}

	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, &ErrValidation{Field: "limit", Message: "must be a positive integer"})
			return
		}
		limit = min(n, maxListLimit)
	}

	runs, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if runs == nil {
		runs = []db.Run{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"runs": runs, "count": len(runs)})
}
