package model

import (
	"fmt"
	"strings"
	"time"
)

// Match is a single recorded game against an opponent. Opponent holds the
// free-text label typed on the form; OpponentID links a stored opponent.
type Match struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	MatchDate      *time.Time `json:"match_date,omitempty"`
	MatchNumber    *int       `json:"match_number,omitempty"`
	Opponent       *string    `json:"opponent,omitempty"`
	OpponentID     *string    `json:"opponent_id,omitempty"`
	OpponentName   string     `json:"opponent_name,omitempty"`
	TournamentID   *string    `json:"tournament_id,omitempty"`
	TournamentName string     `json:"tournament_name,omitempty"`
	Notes          *string    `json:"notes,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Official reports whether the match was played in a tournament.
func (m Match) Official() bool { return m.TournamentID != nil }

// DisplayOpponent picks the linked opponent name, then the free-text label.
func (m Match) DisplayOpponent() string {
	if m.OpponentName != "" {
		return m.OpponentName
	}
	if m.Opponent != nil {
		return *m.Opponent
	}
	return ""
}

// EffectiveDate is the match date, falling back to the creation time.
func (m Match) EffectiveDate() time.Time {
	if m.MatchDate != nil {
		return *m.MatchDate
	}
	return m.CreatedAt
}

// MatchOverview is a match with its counted rally totals, used by list views.
type MatchOverview struct {
	Match
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	Total   int     `json:"total"`
	WinRate float64 `json:"win_rate"`
}

// Opponent is a player the user has faced.
type Opponent struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Training  bool      `json:"training"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Tournament groups official matches.
type Tournament struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// MatchDetail is a match with its ordered rallies and their summary.
type MatchDetail struct {
	Match   Match        `json:"match"`
	Rallies []Rally      `json:"rallies"`
	Summary MatchSummary `json:"summary"`
}

// ParseDate accepts "2006-01-02" or RFC 3339 for the named field. Blank
// input yields nil.
func ParseDate(field, s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, &FieldError{Field: field, Message: fmt.Sprintf("cannot parse %q, want YYYY-MM-DD", s)}
}
