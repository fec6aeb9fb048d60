// Package aggregate folds per-match rollups into cross-match statistics:
// reason shares, top reason series, ability averages and an opponent table.
package aggregate

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/okian/rallylog/internal/domain/model"
	"github.com/okian/rallylog/internal/domain/reason"
)

const (
	dateLayout     = "2006-01-02"
	noDateLabel    = "无日期"
	noOpponentName = "未填写"
)

var normalize = reason.Normalize

// Aggregate computes AggregatedStats over matches. The input order is kept
// for every time series. Zero denominators yield 0, never NaN.
func Aggregate(matches []model.MatchRollup, opts ...Option) model.AggregatedStats {
	cfg := defaults()
	for _, opt := range opts {
		opt(&cfg)
	}

	st := model.AggregatedStats{
		MatchCount:        len(matches),
		AbilityTimeSeries: make([]model.AbilityPoint, 0, len(matches)),
	}
	win := newShareAcc()
	lose := newShareAcc()
	opponents := newOpponentAcc()
	var serveSum, serveCount, tacticSum, errorSum int

	perMatchWin := make([]map[string]float64, len(matches))
	perMatchLose := make([]map[string]float64, len(matches))
	labels := make([]string, len(matches))

	for i, m := range matches {
		st.Wins += m.Wins
		st.Losses += m.Losses
		switch {
		case m.Wins > m.Losses:
			st.MatchWins++
		case m.Losses > m.Wins:
			st.MatchLosses++
		}

		perMatchWin[i] = normalizeShares(m.WinReasons, cfg.excludedWin)
		perMatchLose[i] = normalizeShares(m.LoseReasons, nil)
		win.add(perMatchWin[i])
		lose.add(perMatchLose[i])

		if m.ServeCount > 0 {
			serveSum += m.ServeSum
			serveCount += m.ServeCount
		}
		tacticSum += m.TacticSum
		errorSum += m.ErrorCount

		labels[i] = pointLabel(m)
		st.AbilityTimeSeries = append(st.AbilityTimeSeries, abilityPoint(m, labels[i]))
		opponents.add(m)
	}

	st.RallyCount = st.Wins + st.Losses
	st.WinRate = model.Percent(st.MatchWins, st.MatchCount)

	st.WinReasonTotals = win.averages(st.MatchCount)
	st.LoseReasonTotals = lose.averages(st.MatchCount)
	st.WinReasonShares = win.ranked(st.MatchCount)
	st.LoseReasonShares = lose.ranked(st.MatchCount)
	st.WinReasonSeries = buildSeries(st.WinReasonShares, perMatchWin, matches, labels, cfg)
	st.LoseReasonSeries = buildSeries(st.LoseReasonShares, perMatchLose, matches, labels, cfg)

	st.Abilities = model.Abilities{
		Serve:  ratio(serveSum, serveCount),
		Tactic: ratio(tacticSum, st.MatchCount),
		Error:  ratio(errorSum, st.MatchCount),
	}
	st.Opponents = opponents.top(cfg.opponentLimit)
	return st
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func pointLabel(m model.MatchRollup) string {
	date := noDateLabel
	if m.MatchDate != nil {
		date = m.MatchDate.Format(dateLayout)
	}
	return fmt.Sprintf("%s · %s", date, m.Title)
}

func abilityPoint(m model.MatchRollup, label string) model.AbilityPoint {
	p := model.AbilityPoint{
		MatchID: m.ID,
		Label:   label,
		Tactic:  float64(m.TacticSum),
		Error:   float64(m.ErrorCount),
	}
	if m.ServeCount > 0 {
		avg := float64(m.ServeSum) / float64(m.ServeCount)
		p.Serve = &avg
	}
	return p
}

// normalizeShares re-keys a share map, merging labels that normalize to the
// same key and dropping excluded ones.
func normalizeShares(in map[string]float64, excluded map[string]struct{}) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		key := normalize(k)
		if _, skip := excluded[key]; skip {
			continue
		}
		out[key] += v
	}
	return out
}

// shareAcc sums per-match shares.
type shareAcc struct {
	sum map[string]float64
}

func newShareAcc() *shareAcc {
	return &shareAcc{sum: map[string]float64{}}
}

func (a *shareAcc) add(shares map[string]float64) {
	for k, v := range shares {
		a.sum[k] += v
	}
}

func (a *shareAcc) averages(matchCount int) map[string]float64 {
	out := make(map[string]float64, len(a.sum))
	for k, v := range a.sum {
		out[k] = v / float64(matchCount)
	}
	return out
}

func (a *shareAcc) ranked(matchCount int) []model.ReasonShare {
	out := make([]model.ReasonShare, 0, len(a.sum))
	for k, v := range a.sum {
		out = append(out, model.ReasonShare{Reason: k, AvgShare: v / float64(matchCount), Matches: matchCount})
	}
	slices.SortFunc(out, func(x, y model.ReasonShare) int {
		if c := cmp.Compare(y.AvgShare, x.AvgShare); c != 0 {
			return c
		}
		return cmp.Compare(x.Reason, y.Reason)
	})
	return out
}

func buildSeries(ranked []model.ReasonShare, perMatch []map[string]float64, matches []model.MatchRollup, labels []string, cfg settings) []model.ReasonSeries {
	n := min(cfg.topN, len(ranked))
	out := make([]model.ReasonSeries, 0, n)
	for i := range n {
		key := ranked[i].Reason
		s := model.ReasonSeries{
			Reason: key,
			Color:  cfg.palette[i%len(cfg.palette)],
			Points: make([]model.SeriesPoint, len(matches)),
		}
		for j, m := range matches {
			s.Points[j] = model.SeriesPoint{MatchID: m.ID, Label: labels[j], Value: perMatch[j][key]}
		}
		out = append(out, s)
	}
	return out
}
