package api

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/okian/rallylog/internal/adapters/repository"
	"github.com/okian/rallylog/internal/domain/model"
)

// matchRequest mirrors the OpenAPI schema for POST/PUT /api/matches.
type matchRequest struct {
	Title            string  `json:"title"`
	MatchDate        string  `json:"match_date"`
	MatchNumber      *int    `json:"match_number"`
	OpponentID       *string `json:"opponent_id"`
	OpponentName     string  `json:"opponent_name"`
	TrainingOpponent bool    `json:"training_opponent"`
	TournamentID     *string `json:"tournament_id"`
	TournamentName   string  `json:"tournament_name"`
	Official         bool    `json:"official"`
	Notes            *string `json:"notes"`
}

func (m matchRequest) input() (repository.MatchInput, error) {
	date, err := model.ParseDate("match_date", m.MatchDate)
	if err != nil {
		return repository.MatchInput{}, err
	}
	return repository.MatchInput{
		Title:            m.Title,
		MatchDate:        date,
		MatchNumber:      m.MatchNumber,
		OpponentID:       blankToNil(m.OpponentID),
		OpponentName:     m.OpponentName,
		TrainingOpponent: m.TrainingOpponent,
		TournamentID:     blankToNil(m.TournamentID),
		TournamentName:   m.TournamentName,
		Official:         m.Official,
		Notes:            blankToNil(m.Notes),
	}, nil
}

// rallyRequest mirrors the OpenAPI schema for rally writes. Position is
// only read on create.
type rallyRequest struct {
	Result           string  `json:"result"`
	PointReason      *string `json:"point_reason"`
	ExcludeFromScore bool    `json:"exclude_from_score"`
	ServeScore       *int    `json:"serve_score"`
	TacticUsed       bool    `json:"tactic_used"`
	Notes            *string `json:"notes"`
	Position         *int    `json:"position"`
}

func (r rallyRequest) fields() (model.RallyFields, error) {
	res, err := model.ParseResult(r.Result)
	if err != nil {
		return model.RallyFields{}, err
	}
	return model.RallyFields{
		Result:           res,
		PointReason:      blankToNil(r.PointReason),
		ExcludeFromScore: r.ExcludeFromScore,
		ServeScore:       r.ServeScore,
		TacticUsed:       r.TacticUsed,
		Notes:            blankToNil(r.Notes),
	}, nil
}

type opponentRequest struct {
	Name     string  `json:"name"`
	Training bool    `json:"training"`
	Notes    *string `json:"notes"`
}

func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

// ParseBool reads form and query flags: "on", "true", "1" and "yes" are true.
func ParseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

// ParseAnalysisFilter reads opponent_id, tournament_id, start_date, end_date,
// official_only and limit. end_date is inclusive.
func ParseAnalysisFilter(q url.Values) (repository.Filter, error) {
	f := repository.Filter{
		OpponentID:   strings.TrimSpace(q.Get("opponent_id")),
		TournamentID: strings.TrimSpace(q.Get("tournament_id")),
		OfficialOnly: ParseBool(q.Get("official_only")),
	}
	from, err := model.ParseDate("start_date", q.Get("start_date"))
	if err != nil {
		return f, err
	}
	f.From = from
	to, err := model.ParseDate("end_date", q.Get("end_date"))
	if err != nil {
		return f, err
	}
	if to != nil {
		next := to.AddDate(0, 0, 1)
		f.To = &next
	}
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return f, &model.FieldError{Field: "limit", Message: "must be a positive integer"}
		}
		f.Limit = n
	}
	return f, nil
}
