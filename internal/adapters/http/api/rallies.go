package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/rallylog/internal/domain/model"
)

// RallyDependencies defines the interface for rally operations. Each call
// returns the match's full recomputed rally list.
type RallyDependencies interface {
	AddRally(ctx context.Context, matchID string, f model.RallyFields, position *int) ([]model.Rally, error)
	// SubmitRally is AddRally keyed by a client submission id; duplicate
	// reports that the key was seen before and nothing was inserted.
	SubmitRally(ctx context.Context, matchID, key string, f model.RallyFields, position *int) (list []model.Rally, duplicate bool, err error)
	UpdateRally(ctx context.Context, matchID, rallyID string, f model.RallyFields) ([]model.Rally, error)
	DeleteRally(ctx context.Context, matchID, rallyID string) ([]model.Rally, error)
}

// RallyHandler handles rally requests.
type RallyHandler struct {
	deps RallyDependencies
}

// NewRallyHandler creates a new rally handler.
func NewRallyHandler(deps RallyDependencies) *RallyHandler {
	return &RallyHandler{deps: deps}
}

type ralliesResponse struct {
	Rallies []model.Rally `json:"rallies"`
}

// IdempotencyHeader carries the client submission key of a rally insert.
const IdempotencyHeader = "Idempotency-Key"

// HandleCreate handles POST /api/matches/{id}/rallies. A missing position
// appends. A repeated Idempotency-Key answers 200 with the unchanged list.
func (h *RallyHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_rally"
	var req rallyRequest
	if !decodeJSON(w, r, op, &req) {
		return
	}
	f, err := req.fields()
	if err != nil {
		fail(w, r, op, err)
		return
	}
	key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
	list, duplicate, err := h.deps.SubmitRally(r.Context(), r.PathValue("id"), key, f, req.Position)
	if err != nil {
		fail(w, r, op, err)
		return
	}
	status := http.StatusCreated
	if duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, ralliesResponse{Rallies: list})
}

// HandleUpdate handles PUT /api/matches/{id}/rallies/{rallyID}.
func (h *RallyHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_rally"
	var req rallyRequest
	if !decodeJSON(w, r, op, &req) {
		return
	}
	f, err := req.fields()
	if err != nil {
		fail(w, r, op, err)
		return
	}
	list, err := h.deps.UpdateRally(r.Context(), r.PathValue("id"), r.PathValue("rallyID"), f)
	if err != nil {
		fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, ralliesResponse{Rallies: list})
}

// HandleDelete handles DELETE /api/matches/{id}/rallies/{rallyID}.
func (h *RallyHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_rally"
	list, err := h.deps.DeleteRally(r.Context(), r.PathValue("id"), r.PathValue("rallyID"))
	if err != nil {
		fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, ralliesResponse{Rallies: list})
}
