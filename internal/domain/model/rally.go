// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Serve ratings are recorded on a 0-10 scale.
const (
	MinServeScore = 0
	MaxServeScore = 10
)

// Result is the outcome of a rally from the player's point of view.
type Result string

const (
	ResultWin  Result = "win"
	ResultLose Result = "lose"
)

// ParseResult accepts "win"/"lose" (case-insensitive, trimmed).
func ParseResult(s string) (Result, error) {
	r := Result(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", &FieldError{Field: "result", Message: fmt.Sprintf("unknown result %q", s)}
	}
	return r, nil
}

// Valid reports whether r is one of the known results.
func (r Result) Valid() bool {
	return r == ResultWin || r == ResultLose
}

// PointFor returns which side the rally awarded the point to.
func (r Result) PointFor() PointFor {
	if r == ResultWin {
		return PointSelf
	}
	return PointOpponent
}

// PointFor names the side that received a point.
type PointFor string

const (
	PointSelf     PointFor = "self"
	PointOpponent PointFor = "opponent"
)

// Rally is one recorded point of a match. Sequence and the four score
// fields are derived and always rewritten by the sequencer.
type Rally struct {
	ID                 string    `json:"id"`
	MatchID            string    `json:"match_id"`
	Sequence           int       `json:"sequence"`
	Result             Result    `json:"result"`
	PointReason        *string   `json:"point_reason,omitempty"`
	ExcludeFromScore   bool      `json:"exclude_from_score"`
	StartScoreSelf     int       `json:"start_score_self"`
	StartScoreOpponent int       `json:"start_score_opponent"`
	EndScoreSelf       int       `json:"end_score_self"`
	EndScoreOpponent   int       `json:"end_score_opponent"`
	ServeScore         *int      `json:"serve_score,omitempty"`
	TacticUsed         bool      `json:"tactic_used"`
	Notes              *string   `json:"notes,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// Counted reports whether the rally advances the running score.
func (r Rally) Counted() bool { return !r.ExcludeFromScore }

// Fields returns the user-editable part of the rally.
func (r Rally) Fields() RallyFields {
	return RallyFields{
		Result:           r.Result,
		PointReason:      r.PointReason,
		ExcludeFromScore: r.ExcludeFromScore,
		ServeScore:       r.ServeScore,
		TacticUsed:       r.TacticUsed,
		Notes:            r.Notes,
	}
}

// Apply overwrites the user-editable fields of r with f.
func (r *Rally) Apply(f RallyFields) {
	r.Result = f.Result
	r.PointReason = f.PointReason
	r.ExcludeFromScore = f.ExcludeFromScore
	r.ServeScore = f.ServeScore
	r.TacticUsed = f.TacticUsed
	r.Notes = f.Notes
}

// RallyFields holds what a user may set on a rally.
type RallyFields struct {
	Result           Result  `json:"result"`
	PointReason      *string `json:"point_reason,omitempty"`
	ExcludeFromScore bool    `json:"exclude_from_score"`
	ServeScore       *int    `json:"serve_score,omitempty"`
	TacticUsed       bool    `json:"tactic_used"`
	Notes            *string `json:"notes,omitempty"`
}

// Validate checks the field values and returns a *FieldError on the first problem.
func (f RallyFields) Validate() error {
	if !f.Result.Valid() {
		return &FieldError{Field: "result", Message: fmt.Sprintf("unknown result %q", f.Result)}
	}
	if f.ServeScore != nil && (*f.ServeScore < MinServeScore || *f.ServeScore > MaxServeScore) {
		return &FieldError{
			Field:   "serve_score",
			Message: fmt.Sprintf("must be between %d and %d, got %d", MinServeScore, MaxServeScore, *f.ServeScore),
		}
	}
	return nil
}
