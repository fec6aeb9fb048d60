// Package summary reduces one match's rallies to display counts and to the
// rollup consumed by the cross-match aggregator.
package summary

import (
	"github.com/okian/rallylog/internal/domain/model"
	"github.com/okian/rallylog/internal/domain/reason"
)

// Summarize counts wins, losses and per-reason tallies over counted rallies.
func Summarize(rallies []model.Rally) model.MatchSummary {
	s := model.MatchSummary{Reasons: make(map[string]model.ReasonTally)}
	for _, r := range rallies {
		if !r.Counted() {
			continue
		}
		s.Total++
		key := reason.Key(r.PointReason)
		tally := s.Reasons[key]
		switch r.Result {
		case model.ResultWin:
			s.Wins++
			tally.Wins++
		case model.ResultLose:
			s.Losses++
			tally.Losses++
		}
		s.Reasons[key] = tally
	}
	s.WinRate = model.Percent(s.Wins, s.Total)
	return s
}

// Rollup folds a match's rallies into the aggregator input. Only counted
// rallies contribute. ErrorCount counts losses attributed to an own error.
func Rollup(m model.Match, rallies []model.Rally) model.MatchRollup {
	out := model.MatchRollup{
		ID:           m.ID,
		Title:        m.Title,
		MatchDate:    m.MatchDate,
		MatchNumber:  m.MatchNumber,
		OpponentID:   m.OpponentID,
		OpponentName: m.DisplayOpponent(),
		TournamentID: m.TournamentID,
		WinReasons:   make(map[string]float64),
		LoseReasons:  make(map[string]float64),
	}

	winCounts := make(map[string]int)
	loseCounts := make(map[string]int)
	for _, r := range rallies {
		if !r.Counted() {
			continue
		}
		key := reason.Key(r.PointReason)
		switch r.Result {
		case model.ResultWin:
			out.Wins++
			winCounts[key]++
		case model.ResultLose:
			out.Losses++
			loseCounts[key]++
			if key == reason.OwnError {
				out.ErrorCount++
			}
		}
		if r.ServeScore != nil {
			out.ServeSum += *r.ServeScore
			out.ServeCount++
		}
		out.TacticCount++
		if r.TacticUsed {
			out.TacticSum++
		}
	}

	for k, n := range winCounts {
		out.WinReasons[k] = float64(n) / float64(out.Wins)
	}
	for k, n := range loseCounts {
		out.LoseReasons[k] = float64(n) / float64(out.Losses)
	}
	return out
}
