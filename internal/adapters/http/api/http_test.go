package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/okian/rallylog/internal/adapters/export"
	"github.com/okian/rallylog/internal/adapters/http/api"
	"github.com/okian/rallylog/internal/adapters/repository"
	"github.com/okian/rallylog/internal/domain/model"
	"github.com/okian/rallylog/internal/domain/sequencer"
	"github.com/okian/rallylog/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// mockDeps implements api.Dependencies with canned results and records inputs.
type mockDeps struct {
	err error

	matchInput repository.MatchInput
	updatedID  string
	deletedID  string
	filter     repository.Filter

	rallyFields model.RallyFields
	position    *int
	rallyIDs    [2]string
	keys        map[string]bool
	lastKey     string
}

func (m *mockDeps) ListMatches(context.Context) ([]model.MatchOverview, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []model.MatchOverview{{Match: model.Match{ID: "m1", Title: "One"}, Wins: 2, Losses: 1, Total: 3, WinRate: 66.7}}, nil
}

func (m *mockDeps) CreateMatch(_ context.Context, in repository.MatchInput) (model.Match, error) {
	m.matchInput = in
	if m.err != nil {
		return model.Match{}, m.err
	}
	return model.Match{ID: "new", Title: in.Title}, nil
}

func (m *mockDeps) UpdateMatch(_ context.Context, id string, in repository.MatchInput) (model.Match, error) {
	m.updatedID, m.matchInput = id, in
	if m.err != nil {
		return model.Match{}, m.err
	}
	return model.Match{ID: id, Title: in.Title}, nil
}

func (m *mockDeps) DeleteMatch(_ context.Context, id string) error {
	m.deletedID = id
	return m.err
}

func (m *mockDeps) MatchDetail(_ context.Context, id string) (model.MatchDetail, error) {
	if m.err != nil {
		return model.MatchDetail{}, m.err
	}
	return model.MatchDetail{
		Match:   model.Match{ID: id, Title: "One"},
		Rallies: []model.Rally{{ID: "r1", Sequence: 1, Result: model.ResultWin, EndScoreSelf: 1}},
		Summary: model.MatchSummary{Total: 1, Wins: 1, WinRate: 100, Reasons: map[string]model.ReasonTally{}},
	}, nil
}

func (m *mockDeps) ExportMatch(_ context.Context, id string) (export.File, error) {
	if m.err != nil {
		return export.File{}, m.err
	}
	return export.File{Name: "match-" + id + ".csv", ContentType: export.ContentTypeCSV, Data: []byte("a,b\n")}, nil
}

func (m *mockDeps) AddRally(_ context.Context, matchID string, f model.RallyFields, position *int) ([]model.Rally, error) {
	m.rallyIDs[0], m.rallyFields, m.position = matchID, f, position
	if m.err != nil {
		return nil, m.err
	}
	return []model.Rally{{ID: "r1", Sequence: 1, Result: f.Result}}, nil
}

func (m *mockDeps) SubmitRally(ctx context.Context, matchID, key string, f model.RallyFields, position *int) ([]model.Rally, bool, error) {
	m.lastKey = key
	if key != "" && m.keys[key] {
		return []model.Rally{{ID: "r1", Sequence: 1}}, true, nil
	}
	list, err := m.AddRally(ctx, matchID, f, position)
	if err == nil && key != "" {
		if m.keys == nil {
			m.keys = map[string]bool{}
		}
		m.keys[key] = true
	}
	return list, false, err
}

func (m *mockDeps) UpdateRally(_ context.Context, matchID, rallyID string, f model.RallyFields) ([]model.Rally, error) {
	m.rallyIDs, m.rallyFields = [2]string{matchID, rallyID}, f
	if m.err != nil {
		return nil, m.err
	}
	return []model.Rally{{ID: rallyID, Sequence: 1, Result: f.Result}}, nil
}

func (m *mockDeps) DeleteRally(_ context.Context, matchID, rallyID string) ([]model.Rally, error) {
	m.rallyIDs = [2]string{matchID, rallyID}
	if m.err != nil {
		return nil, m.err
	}
	return []model.Rally{}, nil
}

func (m *mockDeps) Analysis(_ context.Context, f repository.Filter) (model.AggregatedStats, error) {
	m.filter = f
	if m.err != nil {
		return model.AggregatedStats{}, m.err
	}
	return model.AggregatedStats{MatchCount: 2, MatchWins: 1, WinRate: 50}, nil
}

func (m *mockDeps) ListOpponents(_ context.Context, trainingOnly bool) ([]model.Opponent, error) {
	if trainingOnly {
		return []model.Opponent{{ID: "o2", Name: "Sparring", Training: true}}, m.err
	}
	return []model.Opponent{{ID: "o1", Name: "Lee"}, {ID: "o2", Name: "Sparring", Training: true}}, m.err
}

func (m *mockDeps) CreateOpponent(_ context.Context, in repository.OpponentInput) (model.Opponent, error) {
	if m.err != nil {
		return model.Opponent{}, m.err
	}
	return model.Opponent{ID: "o3", Name: in.Name, Training: in.Training}, nil
}

func (m *mockDeps) ListTournaments(context.Context) ([]model.Tournament, error) {
	return []model.Tournament{{ID: "t1", Name: "City Open"}}, m.err
}

func (m *mockDeps) Reasons() []string { return []string{"拉吊", "杀球"} }

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func newMux(deps *mockDeps) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"started": true}}).Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decode[T any](w *httptest.ResponseRecorder) T {
	var v T
	So(json.Unmarshal(w.Body.Bytes(), &v), ShouldBeNil)
	return v
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newMux(&mockDeps{})

		Convey("Then the health endpoint serves Prometheus metrics", func() {
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "rallylog_")
		})

		Convey("Then the stats endpoint serves JSON", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode[map[string]any](w)["started"], ShouldEqual, true)
		})

		Convey("Then unsupported methods are rejected", func() {
			w := do(mux, http.MethodPatch, "/api/matches", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestMatchHandler(t *testing.T) {
	Convey("Given a match handler", t, func() {
		deps := &mockDeps{}
		mux := newMux(deps)

		Convey("When listing matches", func() {
			w := do(mux, http.MethodGet, "/api/matches", "")

			Convey("Then the overview is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				list := decode[[]map[string]any](w)
				So(list, ShouldHaveLength, 1)
				So(list[0]["win_rate"], ShouldEqual, 66.7)
			})
		})

		Convey("When creating a match with a date and an opponent name", func() {
			w := do(mux, http.MethodPost, "/api/matches",
				`{"title":"Club night","match_date":"2024-04-01","opponent_name":"Lee","official":true,"notes":"  "}`)

			Convey("Then the input is forwarded and 201 returned", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				So(w.Header().Get("Location"), ShouldEqual, "/api/matches/new")
				So(deps.matchInput.Title, ShouldEqual, "Club night")
				So(deps.matchInput.MatchDate.Equal(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)), ShouldBeTrue)
				So(deps.matchInput.OpponentName, ShouldEqual, "Lee")
				So(deps.matchInput.Official, ShouldBeTrue)
				So(deps.matchInput.Notes, ShouldBeNil)
			})
		})

		Convey("When the date cannot be parsed", func() {
			w := do(mux, http.MethodPost, "/api/matches", `{"title":"x","match_date":"yesterday"}`)

			Convey("Then 400 names the field", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				resp := decode[map[string]any](w)
				So(resp["code"], ShouldEqual, "invalid_input")
				So(resp["field"], ShouldEqual, "match_date")
			})
		})

		Convey("When the body is not JSON", func() {
			w := do(mux, http.MethodPost, "/api/matches", `{`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decode[map[string]any](w)["code"], ShouldEqual, "bad_request")
		})

		Convey("When the body is too large", func() {
			w := do(mux, http.MethodPost, "/api/matches", `{"title":"`+strings.Repeat("a", 2<<20)+`"}`)
			So(w.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
		})

		Convey("When the store rejects the input", func() {
			deps.err = fmt.Errorf("create match: %w: %w", repository.ErrInvalidInput, &model.FieldError{Field: "title", Message: "is required"})
			w := do(mux, http.MethodPost, "/api/matches", `{"title":""}`)

			Convey("Then the field error is reported", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				resp := decode[map[string]any](w)
				So(resp["field"], ShouldEqual, "title")
				So(resp["message"], ShouldEqual, "is required")
			})
		})

		Convey("When getting a match", func() {
			w := do(mux, http.MethodGet, "/api/matches/m1", "")

			Convey("Then the match, rallies and summary are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				d := decode[model.MatchDetail](w)
				So(d.Match.ID, ShouldEqual, "m1")
				So(d.Rallies, ShouldHaveLength, 1)
				So(d.Summary.WinRate, ShouldEqual, 100.0)
			})
		})

		Convey("When the match does not exist", func() {
			deps.err = fmt.Errorf("get match: %w", repository.ErrNotFound)
			w := do(mux, http.MethodGet, "/api/matches/missing", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(decode[map[string]any](w)["code"], ShouldEqual, "not_found")
		})

		Convey("When the store fails unexpectedly", func() {
			deps.err = errors.New("disk on fire")
			w := do(mux, http.MethodGet, "/api/matches", "")

			Convey("Then 500 is returned without internals", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(w.Body.String(), ShouldNotContainSubstring, "disk on fire")
			})
		})

		Convey("When updating and deleting", func() {
			w := do(mux, http.MethodPut, "/api/matches/m1", `{"title":"Renamed"}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.updatedID, ShouldEqual, "m1")

			w = do(mux, http.MethodDelete, "/api/matches/m1", "")
			So(w.Code, ShouldEqual, http.StatusNoContent)
			So(deps.deletedID, ShouldEqual, "m1")
		})

		Convey("When exporting", func() {
			w := do(mux, http.MethodGet, "/api/matches/m1/export", "")

			Convey("Then a CSV attachment is served", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldEqual, export.ContentTypeCSV)
				So(w.Header().Get("Content-Disposition"), ShouldEqual, `attachment; filename="match-m1.csv"`)
				So(w.Body.String(), ShouldEqual, "a,b\n")
			})
		})
	})
}

func TestRallyHandler(t *testing.T) {
	Convey("Given a rally handler", t, func() {
		deps := &mockDeps{}
		mux := newMux(deps)

		Convey("When inserting at a position", func() {
			w := do(mux, http.MethodPost, "/api/matches/m1/rallies",
				`{"result":"WIN","point_reason":"杀球","serve_score":7,"tactic_used":true,"position":2}`)

			Convey("Then the fields and position are forwarded", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				So(deps.rallyIDs[0], ShouldEqual, "m1")
				So(deps.rallyFields.Result, ShouldEqual, model.ResultWin)
				So(*deps.rallyFields.PointReason, ShouldEqual, "杀球")
				So(*deps.rallyFields.ServeScore, ShouldEqual, 7)
				So(deps.rallyFields.TacticUsed, ShouldBeTrue)
				So(*deps.position, ShouldEqual, 2)
				So(decode[map[string][]model.Rally](w)["rallies"], ShouldHaveLength, 1)
			})
		})

		Convey("When appending without a position", func() {
			w := do(mux, http.MethodPost, "/api/matches/m1/rallies", `{"result":"lose"}`)
			So(w.Code, ShouldEqual, http.StatusCreated)
			So(deps.position, ShouldBeNil)
		})

		Convey("When the same Idempotency-Key is sent twice", func() {
			send := func() *httptest.ResponseRecorder {
				req := httptest.NewRequest(http.MethodPost, "/api/matches/m1/rallies", strings.NewReader(`{"result":"win"}`))
				req.Header.Set(api.IdempotencyHeader, " tap-1 ")
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				return w
			}
			first, second := send(), send()

			Convey("Then the first creates and the retry answers 200", func() {
				So(deps.lastKey, ShouldEqual, "tap-1")
				So(first.Code, ShouldEqual, http.StatusCreated)
				So(second.Code, ShouldEqual, http.StatusOK)
			})
		})

		Convey("When the result is unknown", func() {
			w := do(mux, http.MethodPost, "/api/matches/m1/rallies", `{"result":"draw"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decode[map[string]any](w)["field"], ShouldEqual, "result")
		})

		Convey("When the sequencer rejects the rally", func() {
			deps.err = fmt.Errorf("insert: %w: %w", sequencer.ErrInvalidInput, &model.FieldError{Field: "serve_score", Message: "must be between 0 and 10, got 11"})
			w := do(mux, http.MethodPost, "/api/matches/m1/rallies", `{"result":"win","serve_score":11}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decode[map[string]any](w)["field"], ShouldEqual, "serve_score")
		})

		Convey("When updating a rally", func() {
			w := do(mux, http.MethodPut, "/api/matches/m1/rallies/r9", `{"result":"lose","exclude_from_score":true}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.rallyIDs, ShouldResemble, [2]string{"m1", "r9"})
			So(deps.rallyFields.ExcludeFromScore, ShouldBeTrue)
		})

		Convey("When deleting an unknown rally", func() {
			deps.err = fmt.Errorf("delete: %w", sequencer.ErrNotFound)
			w := do(mux, http.MethodDelete, "/api/matches/m1/rallies/nope", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestAnalysisHandler(t *testing.T) {
	Convey("Given an analysis handler", t, func() {
		deps := &mockDeps{}
		mux := newMux(deps)

		Convey("When filters are given", func() {
			q := url.Values{
				"opponent_id":   {"o1"},
				"tournament_id": {"t1"},
				"start_date":    {"2024-01-01"},
				"end_date":      {"2024-01-31"},
				"official_only": {"on"},
			}
			w := do(mux, http.MethodGet, "/api/analysis?"+q.Encode(), "")

			Convey("Then they reach the service with an exclusive upper bound", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.filter.OpponentID, ShouldEqual, "o1")
				So(deps.filter.TournamentID, ShouldEqual, "t1")
				So(deps.filter.OfficialOnly, ShouldBeTrue)
				So(deps.filter.From.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)), ShouldBeTrue)
				So(deps.filter.To.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)), ShouldBeTrue)
				So(decode[model.AggregatedStats](w).MatchCount, ShouldEqual, 2)
			})
		})

		Convey("When a date is malformed", func() {
			w := do(mux, http.MethodGet, "/api/analysis?end_date=31-01-2024", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decode[map[string]any](w)["field"], ShouldEqual, "end_date")
		})

		Convey("When the limit is not a positive number", func() {
			w := do(mux, http.MethodGet, "/api/analysis?limit=0", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestCatalogHandler(t *testing.T) {
	Convey("Given a catalog handler", t, func() {
		deps := &mockDeps{}
		mux := newMux(deps)

		Convey("Then opponents can be filtered to training partners", func() {
			So(decode[[]model.Opponent](do(mux, http.MethodGet, "/api/opponents", "")), ShouldHaveLength, 2)
			So(decode[[]model.Opponent](do(mux, http.MethodGet, "/api/opponents?training=true", "")), ShouldHaveLength, 1)
		})

		Convey("Then opponents can be created", func() {
			w := do(mux, http.MethodPost, "/api/opponents", `{"name":"Wang","training":true}`)
			So(w.Code, ShouldEqual, http.StatusCreated)
			So(decode[model.Opponent](w).Training, ShouldBeTrue)
		})

		Convey("Then tournaments and reasons are listed", func() {
			So(decode[[]model.Tournament](do(mux, http.MethodGet, "/api/tournaments", "")), ShouldHaveLength, 1)
			So(decode[[]string](do(mux, http.MethodGet, "/api/reasons", "")), ShouldContain, "拉吊")
		})
	})
}

func TestParseBool(t *testing.T) {
	Convey("ParseBool accepts checkbox and query spellings", t, func() {
		for _, v := range []string{"on", "true", "TRUE", "1", " yes "} {
			So(api.ParseBool(v), ShouldBeTrue)
		}
		for _, v := range []string{"", "off", "false", "0", "nope"} {
			So(api.ParseBool(v), ShouldBeFalse)
		}
	})
}

func TestErrorHelpers(t *testing.T) {
	Convey("Error helpers keep kinds and causes reachable", t, func() {
		cause := errors.New("boom")
		err := api.WrapKind("api.op", api.ErrBadRequest, cause)
		So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
		So(errors.Is(err, cause), ShouldBeTrue)
		So(err.Error(), ShouldEqual, "api.op: bad request: boom")

		So(api.NewKind("api.op", api.ErrNotFound).Error(), ShouldEqual, "api.op: not found")
		So(api.Wrap("api.op", nil), ShouldBeNil)
	})
}
