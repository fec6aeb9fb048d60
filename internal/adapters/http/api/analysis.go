package api

import (
	"context"
	"net/http"

	"github.com/okian/rallylog/internal/adapters/repository"
	"github.com/okian/rallylog/internal/domain/model"
)

// AnalysisDependencies defines the interface for cross-match analysis.
type AnalysisDependencies interface {
	Analysis(ctx context.Context, f repository.Filter) (model.AggregatedStats, error)
}

// AnalysisHandler handles analysis requests.
type AnalysisHandler struct {
	deps AnalysisDependencies
}

// NewAnalysisHandler creates a new analysis handler.
func NewAnalysisHandler(deps AnalysisDependencies) *AnalysisHandler {
	return &AnalysisHandler{deps: deps}
}

// HandleGet handles GET /api/analysis.
func (h *AnalysisHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.analysis"
	f, err := ParseAnalysisFilter(r.URL.Query())
	if err != nil {
		fail(w, r, op, err)
		return
	}
	stats, err := h.deps.Analysis(r.Context(), f)
	if err != nil {
		fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
