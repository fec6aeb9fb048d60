package model

import (
	"math"
	"time"
)

// Percent returns part/whole as a percentage rounded to one decimal.
// A zero whole yields 0.
func Percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(whole)*1000) / 10
}

// ReasonTally counts rallies won and lost for one reason.
type ReasonTally struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
}

// MatchSummary is the single-match view of counted rallies.
type MatchSummary struct {
	Total   int                    `json:"total"`
	Wins    int                    `json:"wins"`
	Losses  int                    `json:"losses"`
	WinRate float64                `json:"win_rate"`
	Reasons map[string]ReasonTally `json:"reasons"`
}

// MatchRollup is the per-match input of the cross-match aggregator.
type MatchRollup struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	MatchDate    *time.Time `json:"match_date,omitempty"`
	MatchNumber  *int       `json:"match_number,omitempty"`
	OpponentID   *string    `json:"opponent_id,omitempty"`
	OpponentName string     `json:"opponent_name,omitempty"`
	TournamentID *string    `json:"tournament_id,omitempty"`

	Wins   int `json:"wins"`
	Losses int `json:"losses"`

	// Share of the match's wins (losses) attributed to each reason.
	WinReasons  map[string]float64 `json:"win_reasons"`
	LoseReasons map[string]float64 `json:"lose_reasons"`

	ServeSum    int `json:"serve_sum"`
	ServeCount  int `json:"serve_count"`
	TacticSum   int `json:"tactic_sum"`
	TacticCount int `json:"tactic_count"`
	ErrorCount  int `json:"error_count"`
}

// ReasonShare is a reason's mean share across the aggregated matches.
type ReasonShare struct {
	Reason   string  `json:"reason"`
	AvgShare float64 `json:"avg_share"`
	// Matches is the divisor of AvgShare: every match in the analysis.
	Matches int `json:"matches"`
}

// SeriesPoint is one match's value in a reason series.
type SeriesPoint struct {
	MatchID string  `json:"match_id"`
	Label   string  `json:"label"`
	Value   float64 `json:"value"`
}

// ReasonSeries tracks a reason's share match by match.
type ReasonSeries struct {
	Reason string        `json:"reason"`
	Color  string        `json:"color"`
	Points []SeriesPoint `json:"points"`
}

// Values returns the point values in order.
func (s ReasonSeries) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// Abilities are cross-match ability averages.
type Abilities struct {
	Serve  float64 `json:"serve"`
	Tactic float64 `json:"tactic"`
	Error  float64 `json:"error"`
}

// AbilityPoint is one match's ability values. Serve is nil when the match
// has no serve ratings.
type AbilityPoint struct {
	MatchID string   `json:"match_id"`
	Label   string   `json:"label"`
	Serve   *float64 `json:"serve"`
	Tactic  float64  `json:"tactic"`
	Error   float64  `json:"error"`
}

// OpponentStat is the rally record against one opponent.
type OpponentStat struct {
	OpponentID string  `json:"opponent_id,omitempty"`
	Name       string  `json:"name"`
	Wins       int     `json:"wins"`
	Losses     int     `json:"losses"`
	Total      int     `json:"total"`
	WinRate    float64 `json:"win_rate"`
}

// AggregatedStats is the cross-match dashboard view.
type AggregatedStats struct {
	MatchCount  int     `json:"match_count"`
	RallyCount  int     `json:"rally_count"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	MatchWins   int     `json:"match_wins"`
	MatchLosses int     `json:"match_losses"`
	WinRate     float64 `json:"win_rate"`

	WinReasonShares  []ReasonShare      `json:"win_reason_shares"`
	LoseReasonShares []ReasonShare      `json:"lose_reason_shares"`
	WinReasonTotals  map[string]float64 `json:"win_reason_totals"`
	LoseReasonTotals map[string]float64 `json:"lose_reason_totals"`

	WinReasonSeries  []ReasonSeries `json:"win_reason_series"`
	LoseReasonSeries []ReasonSeries `json:"lose_reason_series"`

	Abilities         Abilities      `json:"abilities"`
	AbilityTimeSeries []AbilityPoint `json:"ability_time_series"`

	Opponents []OpponentStat `json:"opponents"`
}

// WinShare looks up a reason in WinReasonShares.
func (s AggregatedStats) WinShare(reason string) (ReasonShare, bool) {
	return findShare(s.WinReasonShares, reason)
}

// LoseShare looks up a reason in LoseReasonShares.
func (s AggregatedStats) LoseShare(reason string) (ReasonShare, bool) {
	return findShare(s.LoseReasonShares, reason)
}

func findShare(shares []ReasonShare, reason string) (ReasonShare, bool) {
	for _, sh := range shares {
		if sh.Reason == reason {
			return sh, true
		}
	}
	return ReasonShare{}, false
}
