package site

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/rallylog/internal/adapters/http/api"
	"github.com/okian/rallylog/internal/adapters/repository"
	"github.com/okian/rallylog/internal/domain/model"
	"github.com/okian/rallylog/internal/domain/sequencer"
)

func optional(r *http.Request, key string) *string {
	v := strings.TrimSpace(r.PostFormValue(key))
	if v == "" {
		return nil
	}
	return &v
}

func optionalInt(r *http.Request, key string) (*int, error) {
	raw := strings.TrimSpace(r.PostFormValue(key))
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, &model.FieldError{Field: key, Message: "must be a whole number"}
	}
	return &n, nil
}

func checkbox(r *http.Request, key string) bool {
	return api.ParseBool(r.PostFormValue(key))
}

// matchForm reads the create-match form.
func matchForm(r *http.Request) (repository.MatchInput, error) {
	date, err := model.ParseDate("match_date", r.PostFormValue("match_date"))
	if err != nil {
		return repository.MatchInput{}, err
	}
	number, err := optionalInt(r, "match_number")
	if err != nil {
		return repository.MatchInput{}, err
	}
	return repository.MatchInput{
		Title:            r.PostFormValue("title"),
		MatchDate:        date,
		MatchNumber:      number,
		OpponentID:       optional(r, "opponent_id"),
		OpponentName:     r.PostFormValue("opponent_name"),
		TrainingOpponent: checkbox(r, "training_opponent"),
		TournamentID:     optional(r, "tournament_id"),
		TournamentName:   r.PostFormValue("tournament_name"),
		Official:         checkbox(r, "official"),
		Notes:            optional(r, "notes"),
	}, nil
}

// rallyForm reads the rally form. The position is only used on insert.
func rallyForm(r *http.Request) (model.RallyFields, *int, error) {
	res, err := model.ParseResult(r.PostFormValue("result"))
	if err != nil {
		return model.RallyFields{}, nil, err
	}
	serve, err := optionalInt(r, "serve_score")
	if err != nil {
		return model.RallyFields{}, nil, err
	}
	position, err := sequencer.ParsePosition(r.PostFormValue("position"))
	if err != nil {
		return model.RallyFields{}, nil, err
	}
	return model.RallyFields{
		Result:           res,
		PointReason:      optional(r, "point_reason"),
		ExcludeFromScore: checkbox(r, "exclude_from_score"),
		ServeScore:       serve,
		TacticUsed:       checkbox(r, "tactic_used"),
		Notes:            optional(r, "notes"),
	}, position, nil
}
