// Package ui exposes the analysis engine over HTTP.
package ui

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"gocausal/app"
	"gocausal/domain/causal"
	"gocausal/domain/core"
	"gocausal/internal"
	apperrors "gocausal/internal/errors"
	"gocausal/internal/testkit"
	"gocausal/ports"
)

// App is the HTTP application around the analysis service.
type App struct {
	router  *chi.Mux
	service *app.AnalysisService
	repo    ports.ReportRepository // nil falls back to the in-memory cache
	logger  *internal.Logger

	mu    sync.RWMutex
	cache map[core.AnalysisID]*causal.AnalysisReport
}

// NewApp wires the router. repo may be nil; completed reports are then
// only available from the in-process cache.
func NewApp(service *app.AnalysisService, repo ports.ReportRepository, logger *internal.Logger) *App {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	a := &App{
		router:  chi.NewRouter(),
		service: service,
		repo:    repo,
		logger:  logger,
		cache:   make(map[core.AnalysisID]*causal.AnalysisReport),
	}
	a.routes()
	return a
}

func (a *App) routes() {
	a.router.Use(middleware.Recoverer)
	a.router.Get("/healthz", a.handleHealth)
	a.router.Route("/api", func(r chi.Router) {
		r.Post("/analyses", a.handleRunAnalysis)
		r.Get("/analyses/{id}", a.handleGetAnalysis)
		r.Get("/analyses/{id}/report", a.handleGetReportHTML)
	})
}

// Router returns the HTTP handler.
func (a *App) Router() http.Handler {
	return a.router
}

// AnalysisRequest is the run-analysis request body. Exactly one of
// Dataset or Synthetic must be present.
type AnalysisRequest struct {
	Dataset       *causal.Dataset           `json:"dataset,omitempty"`
	Synthetic     *testkit.ExperimentConfig `json:"synthetic,omitempty"`
	Options       *causal.Options           `json:"options,omitempty"`
	SegmentColumn string                    `json:"segment_column,omitempty"`
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) handleRunAnalysis(w http.ResponseWriter, r *http.Request) {
	var req AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, apperrors.InvalidInput("malformed request body"))
		return
	}

	var ds *causal.Dataset
	switch {
	case req.Dataset != nil && req.Synthetic != nil:
		writeError(w, http.StatusBadRequest, apperrors.InvalidInput("provide either dataset or synthetic, not both"))
		return
	case req.Dataset != nil:
		validated, err := causal.NewDataset(req.Dataset.Schema, req.Dataset.Units)
		if err != nil {
			writeError(w, http.StatusBadRequest, apperrors.WithCode(apperrors.CodeInvalidInput, err))
			return
		}
		ds = validated
	case req.Synthetic != nil:
		generated, err := testkit.NewExperimentGenerator(*req.Synthetic).Generate()
		if err != nil {
			writeError(w, http.StatusBadRequest, apperrors.WithCode(apperrors.CodeInvalidInput, err))
			return
		}
		ds = generated
	default:
		writeError(w, http.StatusBadRequest, apperrors.InvalidInput("dataset or synthetic required"))
		return
	}

	opts := causal.DefaultOptions()
	if req.Options != nil {
		opts = *req.Options
	}
	if err := opts.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, apperrors.WithCode(apperrors.CodeConfigInvalid, err))
		return
	}

	report, err := a.service.RunAnalysisWithUplift(r.Context(), ds, opts, req.SegmentColumn)
	if err != nil {
		status := http.StatusInternalServerError
		if core.IsFatalEstimationError(err) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, apperrors.WithCode(apperrors.CodeEstimationFailed, err))
		return
	}

	a.mu.Lock()
	a.cache[report.ID] = report
	a.mu.Unlock()

	writeJSON(w, http.StatusCreated, report)
}

func (a *App) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	report, ok := a.lookup(r, core.AnalysisID(chi.URLParam(r, "id")))
	if !ok {
		writeError(w, http.StatusNotFound, apperrors.NotFound("analysis"))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *App) handleGetReportHTML(w http.ResponseWriter, r *http.Request) {
	report, ok := a.lookup(r, core.AnalysisID(chi.URLParam(r, "id")))
	if !ok {
		writeError(w, http.StatusNotFound, apperrors.NotFound("analysis"))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(app.RenderHTML(report))
}

func (a *App) lookup(r *http.Request, id core.AnalysisID) (*causal.AnalysisReport, bool) {
	a.mu.RLock()
	report, ok := a.cache[id]
	a.mu.RUnlock()
	if ok {
		return report, true
	}
	if a.repo == nil {
		return nil, false
	}
	report, err := a.repo.GetByID(r.Context(), id)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			a.logger.Error("report lookup %s: %v", id, err)
		}
		return nil, false
	}
	return report, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"code":  apperrors.GetCode(err),
	})
}
