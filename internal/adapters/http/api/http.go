// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/rallylog/internal/domain/model"
	"github.com/okian/rallylog/pkg/logger"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	MatchDependencies
	RallyDependencies
	AnalysisDependencies
	CatalogDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	matchHandler    *MatchHandler
	rallyHandler    *RallyHandler
	analysisHandler *AnalysisHandler
	catalogHandler  *CatalogHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		matchHandler:    NewMatchHandler(deps),
		rallyHandler:    NewRallyHandler(deps),
		analysisHandler: NewAnalysisHandler(deps),
		catalogHandler:  NewCatalogHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("GET /api/matches", MetricsMiddleware(s.matchHandler.HandleList, "matches"))
	mux.HandleFunc("POST /api/matches", MetricsMiddleware(s.matchHandler.HandleCreate, "matches"))
	mux.HandleFunc("GET /api/matches/{id}", MetricsMiddleware(s.matchHandler.HandleGet, "match"))
	mux.HandleFunc("PUT /api/matches/{id}", MetricsMiddleware(s.matchHandler.HandleUpdate, "match"))
	mux.HandleFunc("DELETE /api/matches/{id}", MetricsMiddleware(s.matchHandler.HandleDelete, "match"))
	mux.HandleFunc("GET /api/matches/{id}/export", MetricsMiddleware(s.matchHandler.HandleExport, "export"))

	mux.HandleFunc("POST /api/matches/{id}/rallies", MetricsMiddleware(s.rallyHandler.HandleCreate, "rallies"))
	mux.HandleFunc("PUT /api/matches/{id}/rallies/{rallyID}", MetricsMiddleware(s.rallyHandler.HandleUpdate, "rally"))
	mux.HandleFunc("DELETE /api/matches/{id}/rallies/{rallyID}", MetricsMiddleware(s.rallyHandler.HandleDelete, "rally"))

	mux.HandleFunc("GET /api/analysis", MetricsMiddleware(s.analysisHandler.HandleGet, "analysis"))

	mux.HandleFunc("GET /api/opponents", MetricsMiddleware(s.catalogHandler.HandleListOpponents, "opponents"))
	mux.HandleFunc("POST /api/opponents", MetricsMiddleware(s.catalogHandler.HandleCreateOpponent, "opponents"))
	mux.HandleFunc("GET /api/tournaments", MetricsMiddleware(s.catalogHandler.HandleListTournaments, "tournaments"))
	mux.HandleFunc("GET /api/reasons", MetricsMiddleware(s.catalogHandler.HandleReasons, "reasons"))

	logger.Get().Debug(ctx, "api routes registered")
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	resp := errorResponse{Code: code, Message: http.StatusText(status)}
	if err != nil && status < http.StatusInternalServerError {
		resp.Message = err.Error()
		var fe *model.FieldError
		if errors.As(err, &fe) {
			resp.Field = fe.Field
			resp.Message = fe.Message
		}
	}
	writeJSON(w, status, resp)
}

// fail classifies err, logs server errors and writes the response.
func fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, code := Classify(err)
	if status >= http.StatusInternalServerError {
		logger.Get().Error(r.Context(), "request failed",
			logger.String("op", op),
			logger.String("path", r.URL.Path),
			logger.Error(err),
		)
	}
	writeError(w, status, code, Wrap(op, err))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, op string, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large", Wrap(op, err))
			return false
		}
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return false
	}
	return true
}
