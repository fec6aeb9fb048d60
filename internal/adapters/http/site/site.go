// Package site serves the server-rendered pages: the match list, a match
// with its rally log, and the cross-match analysis.
package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/okian/rallylog/internal/adapters/http/api"
	"github.com/okian/rallylog/internal/domain/model"
	"github.com/okian/rallylog/pkg/logger"
)

// Error constants
var (
	ErrTemplate = errors.New("site template failed")
	ErrRender   = errors.New("site render failed")
)

// Dependencies are the service operations the pages use.
type Dependencies interface {
	api.MatchDependencies
	api.RallyDependencies
	api.AnalysisDependencies
	api.CatalogDependencies
}

var pageNames = []string{"index.html", "match.html", "analysis.html", "error.html"}

// Handler renders the pages and accepts their form posts.
type Handler struct {
	deps  Dependencies
	pages map[string]*template.Template
}

// NewHandler parses the embedded templates.
func NewHandler(deps Dependencies) (*Handler, error) {
	h := &Handler{deps: deps, pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := parsePage(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrTemplate, name, err)
		}
		h.pages[name] = t
	}
	return h, nil
}

// Register attaches the site routes to mux.
func Register(_ context.Context, mux *http.ServeMux, deps Dependencies) error {
	if mux == nil {
		panic("mux is nil")
	}
	h, err := NewHandler(deps)
	if err != nil {
		return err
	}

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(FS())))
	mux.HandleFunc("GET /{$}", api.MetricsMiddleware(h.HandleIndex, "site_index"))
	mux.HandleFunc("POST /matches", api.MetricsMiddleware(h.HandleCreateMatch, "site_match"))
	mux.HandleFunc("GET /matches/{id}", api.MetricsMiddleware(h.HandleMatch, "site_match"))
	mux.HandleFunc("POST /matches/{id}", api.MetricsMiddleware(h.HandleUpdateMatch, "site_match"))
	mux.HandleFunc("POST /matches/{id}/delete", api.MetricsMiddleware(h.HandleDeleteMatch, "site_match"))
	mux.HandleFunc("POST /matches/{id}/rallies", api.MetricsMiddleware(h.HandleAddRally, "site_rally"))
	mux.HandleFunc("POST /matches/{id}/rallies/{rallyID}", api.MetricsMiddleware(h.HandleUpdateRally, "site_rally"))
	mux.HandleFunc("POST /matches/{id}/rallies/{rallyID}/delete", api.MetricsMiddleware(h.HandleDeleteRally, "site_rally"))
	mux.HandleFunc("GET /analysis", api.MetricsMiddleware(h.HandleAnalysis, "site_analysis"))
	return nil
}

type indexPage struct {
	Matches     []model.MatchOverview
	Opponents   []model.Opponent
	Tournaments []model.Tournament
}

// HandleIndex renders the match list and the create form.
func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	matches, err := h.deps.ListMatches(ctx)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	opponents, err := h.deps.ListOpponents(ctx, false)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	tournaments, err := h.deps.ListTournaments(ctx)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "index.html", indexPage{Matches: matches, Opponents: opponents, Tournaments: tournaments})
}

// HandleCreateMatch accepts the create form and redirects to the new match.
func (h *Handler) HandleCreateMatch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, api.WrapKind("site.create_match", api.ErrBadRequest, err))
		return
	}
	in, err := matchForm(r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	m, err := h.deps.CreateMatch(r.Context(), in)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, "/matches/"+url.PathEscape(m.ID), http.StatusSeeOther)
}

// HandleUpdateMatch saves the edit form of a match.
func (h *Handler) HandleUpdateMatch(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, api.WrapKind("site.update_match", api.ErrBadRequest, err))
		return
	}
	in, err := matchForm(r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	if _, err := h.deps.UpdateMatch(r.Context(), id, in); err != nil {
		h.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, "/matches/"+url.PathEscape(id), http.StatusSeeOther)
}

// HandleDeleteMatch removes a match and returns to the list.
func (h *Handler) HandleDeleteMatch(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.DeleteMatch(r.Context(), r.PathValue("id")); err != nil {
		h.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// reasonRow is one line of the match's reason distribution.
type reasonRow struct {
	Reason    string
	Wins      int
	Losses    int
	WinShare  float64
	LoseShare float64
}

type matchPage struct {
	model.MatchDetail
	Reasons      []string
	Distribution []reasonRow
	NextPosition int
	Opponents    []model.Opponent
	Tournaments  []model.Tournament
	// Submission keys the add form so a resent POST inserts once.
	Submission string
}

func distribution(s model.MatchSummary) []reasonRow {
	rows := make([]reasonRow, 0, len(s.Reasons))
	for reason, t := range s.Reasons {
		rows = append(rows, reasonRow{
			Reason:    reason,
			Wins:      t.Wins,
			Losses:    t.Losses,
			WinShare:  model.Percent(t.Wins, s.Wins),
			LoseShare: model.Percent(t.Losses, s.Losses),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i].Wins+rows[i].Losses, rows[j].Wins+rows[j].Losses
		if a != b {
			return a > b
		}
		return rows[i].Reason < rows[j].Reason
	})
	return rows
}

// HandleMatch renders a match: summary, edit forms, rally log, rally form and
// reason distribution.
func (h *Handler) HandleMatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	d, err := h.deps.MatchDetail(ctx, r.PathValue("id"))
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	opponents, err := h.deps.ListOpponents(ctx, false)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	tournaments, err := h.deps.ListTournaments(ctx)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "match.html", matchPage{
		MatchDetail:  d,
		Opponents:    opponents,
		Tournaments:  tournaments,
		Reasons:      h.deps.Reasons(),
		Distribution: distribution(d.Summary),
		NextPosition: len(d.Rallies) + 1,
		Submission:   uuid.NewString(),
	})
}

func matchURL(id string) string {
	return "/matches/" + url.PathEscape(id) + "#rallies"
}

// HandleAddRally inserts a rally from the rally form.
func (h *Handler) HandleAddRally(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, api.WrapKind("site.add_rally", api.ErrBadRequest, err))
		return
	}
	f, position, err := rallyForm(r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	key := strings.TrimSpace(r.PostForm.Get("submission"))
	if _, _, err := h.deps.SubmitRally(r.Context(), id, key, f, position); err != nil {
		h.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, matchURL(id), http.StatusSeeOther)
}

// HandleUpdateRally saves an edited rally row.
func (h *Handler) HandleUpdateRally(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, api.WrapKind("site.update_rally", api.ErrBadRequest, err))
		return
	}
	f, _, err := rallyForm(r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	if _, err := h.deps.UpdateRally(r.Context(), id, r.PathValue("rallyID"), f); err != nil {
		h.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, matchURL(id), http.StatusSeeOther)
}

// HandleDeleteRally removes a rally.
func (h *Handler) HandleDeleteRally(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.deps.DeleteRally(r.Context(), id, r.PathValue("rallyID")); err != nil {
		h.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, matchURL(id), http.StatusSeeOther)
}

type analysisPage struct {
	Stats       model.AggregatedStats
	Query       url.Values
	Opponents   []model.Opponent
	Tournaments []model.Tournament
}

// HandleAnalysis renders the filter form and the aggregated statistics.
func (h *Handler) HandleAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	f, err := api.ParseAnalysisFilter(q)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	stats, err := h.deps.Analysis(ctx, f)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	opponents, err := h.deps.ListOpponents(ctx, false)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	tournaments, err := h.deps.ListTournaments(ctx)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "analysis.html", analysisPage{
		Stats:       stats,
		Query:       q,
		Opponents:   opponents,
		Tournaments: tournaments,
	})
}

type errorPage struct {
	Status  int
	Title   string
	Message string
	Field   string
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status, _ := api.Classify(err)
	page := errorPage{Status: status, Title: http.StatusText(status), Message: http.StatusText(status)}
	if status >= http.StatusInternalServerError {
		logger.Get().Error(r.Context(), "page failed", logger.String("path", r.URL.Path), logger.Error(err))
	} else {
		page.Message = err.Error()
		var fe *model.FieldError
		if errors.As(err, &fe) {
			page.Field, page.Message = fe.Field, fe.Message
		}
	}
	h.render(w, r, status, "error.html", page)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := h.pages[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		logger.Get().Error(r.Context(), "template execution failed",
			logger.String("page", name),
			logger.Error(fmt.Errorf("%w: %w", ErrRender, err)),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
