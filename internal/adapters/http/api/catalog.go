package api

import (
	"context"
	"net/http"

	"github.com/okian/rallylog/internal/adapters/repository"
	"github.com/okian/rallylog/internal/domain/model"
)

// CatalogDependencies defines the interface for opponents, tournaments and reasons.
type CatalogDependencies interface {
	ListOpponents(ctx context.Context, trainingOnly bool) ([]model.Opponent, error)
	CreateOpponent(ctx context.Context, in repository.OpponentInput) (model.Opponent, error)
	ListTournaments(ctx context.Context) ([]model.Tournament, error)
	Reasons() []string
}

// CatalogHandler serves the lookup lists used by forms.
type CatalogHandler struct {
	deps CatalogDependencies
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(deps CatalogDependencies) *CatalogHandler {
	return &CatalogHandler{deps: deps}
}

// HandleListOpponents handles GET /api/opponents?training=true.
func (h *CatalogHandler) HandleListOpponents(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_opponents"
	list, err := h.deps.ListOpponents(r.Context(), ParseBool(r.URL.Query().Get("training")))
	if err != nil {
		fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleCreateOpponent handles POST /api/opponents.
func (h *CatalogHandler) HandleCreateOpponent(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_opponent"
	var req opponentRequest
	if !decodeJSON(w, r, op, &req) {
		return
	}
	o, err := h.deps.CreateOpponent(r.Context(), repository.OpponentInput{
		Name:     req.Name,
		Training: req.Training,
		Notes:    blankToNil(req.Notes),
	})
	if err != nil {
		fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

// HandleListTournaments handles GET /api/tournaments.
func (h *CatalogHandler) HandleListTournaments(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_tournaments"
	list, err := h.deps.ListTournaments(r.Context())
	if err != nil {
		fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleReasons handles GET /api/reasons.
func (h *CatalogHandler) HandleReasons(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Reasons())
}
