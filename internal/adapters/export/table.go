package export

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/okian/rallylog/internal/domain/model"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

func pct(v float64) string { return fmt.Sprintf("%.1f%%", v) }

// WriteMatchList prints one row per match, newest first as given.
func WriteMatchList(w io.Writer, matches []model.MatchOverview) error {
	table := newTable(w)
	table.Header("ID", "DATE", "TITLE", "OPPONENT", "OFFICIAL", "W", "L", "TOTAL", "WIN%")
	for _, m := range matches {
		date := "-"
		if m.MatchDate != nil {
			date = m.MatchDate.Format(dateLayout)
		}
		if err := table.Append(
			m.ID,
			date,
			m.Title,
			m.DisplayOpponent(),
			strconv.FormatBool(m.Official()),
			strconv.Itoa(m.Wins),
			strconv.Itoa(m.Losses),
			strconv.Itoa(m.Total),
			pct(m.WinRate),
		); err != nil {
			return fmt.Errorf("append match %s: %w", m.ID, err)
		}
	}
	return table.Render()
}

// WriteSummaryTable prints the totals line and the per-reason tallies of one match.
func WriteSummaryTable(w io.Writer, s model.MatchSummary) error {
	if _, err := fmt.Fprintf(w, "Rallies: %d  |  Won: %d  |  Lost: %d  |  Win rate: %s\n\n",
		s.Total, s.Wins, s.Losses, pct(s.WinRate)); err != nil {
		return err
	}

	reasons := make([]string, 0, len(s.Reasons))
	for r := range s.Reasons {
		reasons = append(reasons, r)
	}
	sort.Slice(reasons, func(i, j int) bool {
		a, b := s.Reasons[reasons[i]], s.Reasons[reasons[j]]
		if a.Wins+a.Losses != b.Wins+b.Losses {
			return a.Wins+a.Losses > b.Wins+b.Losses
		}
		return reasons[i] < reasons[j]
	})

	table := newTable(w)
	table.Header("REASON", "WON", "LOST")
	for _, r := range reasons {
		t := s.Reasons[r]
		if err := table.Append(r, strconv.Itoa(t.Wins), strconv.Itoa(t.Losses)); err != nil {
			return fmt.Errorf("append reason %q: %w", r, err)
		}
	}
	return table.Render()
}

// WriteRallyTable prints the rallies of a match in sequence order.
func WriteRallyTable(w io.Writer, rallies []model.Rally) error {
	table := newTable(w)
	table.Header("#", "RESULT", "REASON", "START", "END", "SERVE", "TACTIC", "COUNTED")
	for _, r := range rallies {
		serve := "-"
		if r.ServeScore != nil {
			serve = strconv.Itoa(*r.ServeScore)
		}
		if err := table.Append(
			strconv.Itoa(r.Sequence),
			string(r.Result),
			deref(r.PointReason),
			fmt.Sprintf("%d:%d", r.StartScoreSelf, r.StartScoreOpponent),
			fmt.Sprintf("%d:%d", r.EndScoreSelf, r.EndScoreOpponent),
			serve,
			strconv.FormatBool(r.TacticUsed),
			strconv.FormatBool(r.Counted()),
		); err != nil {
			return fmt.Errorf("append rally %d: %w", r.Sequence, err)
		}
	}
	return table.Render()
}

// WriteAnalysisTable prints headline numbers, then reason shares, ability averages and the opponent table.
func WriteAnalysisTable(w io.Writer, s model.AggregatedStats) error {
	if _, err := fmt.Fprintf(w, "Matches: %d (W %d / L %d)  |  Rallies: %d (W %d / L %d)  |  Win rate: %s\n\n",
		s.MatchCount, s.MatchWins, s.MatchLosses, s.RallyCount, s.Wins, s.Losses, pct(s.WinRate)); err != nil {
		return err
	}

	shares := newTable(w)
	shares.Header("SIDE", "REASON", "AVG SHARE", "MATCHES")
	for _, group := range []struct {
		side   string
		shares []model.ReasonShare
	}{
		{"win", s.WinReasonShares},
		{"lose", s.LoseReasonShares},
	} {
		for _, sh := range group.shares {
			if err := shares.Append(group.side, sh.Reason, pct(sh.AvgShare*100), strconv.Itoa(sh.Matches)); err != nil {
				return fmt.Errorf("append share %q: %w", sh.Reason, err)
			}
		}
	}
	if err := shares.Render(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "\nServe avg: %.2f  |  Tactics per match: %.2f  |  Own errors per match: %.2f\n\n",
		s.Abilities.Serve, s.Abilities.Tactic, s.Abilities.Error); err != nil {
		return err
	}

	opponents := newTable(w)
	opponents.Header("OPPONENT", "W", "L", "TOTAL", "WIN%")
	for _, o := range s.Opponents {
		if err := opponents.Append(o.Name, strconv.Itoa(o.Wins), strconv.Itoa(o.Losses), strconv.Itoa(o.Total), pct(o.WinRate)); err != nil {
			return fmt.Errorf("append opponent %q: %w", o.Name, err)
		}
	}
	return opponents.Render()
}
