package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/rallylog/internal/adapters/export"
	"github.com/okian/rallylog/internal/adapters/repository"
	"github.com/okian/rallylog/internal/domain/model"
)

// MatchDependencies defines the interface for match operations.
type MatchDependencies interface {
	ListMatches(ctx context.Context) ([]model.MatchOverview, error)
	CreateMatch(ctx context.Context, in repository.MatchInput) (model.Match, error)
	UpdateMatch(ctx context.Context, id string, in repository.MatchInput) (model.Match, error)
	DeleteMatch(ctx context.Context, id string) error
	MatchDetail(ctx context.Context, id string) (model.MatchDetail, error)
	ExportMatch(ctx context.Context, id string) (export.File, error)
}

// MatchHandler handles match requests.
type MatchHandler struct {
	deps MatchDependencies
}

// NewMatchHandler creates a new match handler.
func NewMatchHandler(deps MatchDependencies) *MatchHandler {
	return &MatchHandler{deps: deps}
}

// HandleList handles GET /api/matches.
func (h *MatchHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_matches"
	list, err := h.deps.ListMatches(r.Context())
	if err != nil {
		fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleCreate handles POST /api/matches.
func (h *MatchHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_match"
	var req matchRequest
	if !decodeJSON(w, r, op, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		fail(w, r, op, err)
		return
	}
	m, err := h.deps.CreateMatch(r.Context(), in)
	if err != nil {
		fail(w, r, op, err)
		return
	}
	w.Header().Set("Location", "/api/matches/"+m.ID)
	writeJSON(w, http.StatusCreated, m)
}

// HandleGet handles GET /api/matches/{id}: the match, its rallies and summary.
func (h *MatchHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_match"
	d, err := h.deps.MatchDetail(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// HandleUpdate handles PUT /api/matches/{id}.
func (h *MatchHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_match"
	var req matchRequest
	if !decodeJSON(w, r, op, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		fail(w, r, op, err)
		return
	}
	m, err := h.deps.UpdateMatch(r.Context(), r.PathValue("id"), in)
	if err != nil {
		fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// HandleDelete handles DELETE /api/matches/{id}.
func (h *MatchHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_match"
	if err := h.deps.DeleteMatch(r.Context(), r.PathValue("id")); err != nil {
		fail(w, r, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleExport handles GET /api/matches/{id}/export as a CSV attachment.
func (h *MatchHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	const op = "api.export_match"
	file, err := h.deps.ExportMatch(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, r, op, err)
		return
	}
	ServeFile(w, file)
}

// ServeFile writes file as an attachment.
func ServeFile(w http.ResponseWriter, file export.File) {
	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Data)
}
