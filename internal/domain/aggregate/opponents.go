package aggregate

import (
	"cmp"
	"slices"

	"github.com/okian/rallylog/internal/domain/model"
)

type opponentAcc struct {
	byKey map[string]*model.OpponentStat
}

func newOpponentAcc() *opponentAcc {
	return &opponentAcc{byKey: map[string]*model.OpponentStat{}}
}

func (a *opponentAcc) add(m model.MatchRollup) {
	name := m.OpponentName
	if name == "" {
		name = noOpponentName
	}
	key := "name:" + name
	if m.OpponentID != nil {
		key = "id:" + *m.OpponentID
	}
	st, ok := a.byKey[key]
	if !ok {
		st = &model.OpponentStat{Name: name}
		if m.OpponentID != nil {
			st.OpponentID = *m.OpponentID
		}
		a.byKey[key] = st
	}
	st.Wins += m.Wins
	st.Losses += m.Losses
	st.Total += m.Wins + m.Losses
}

// top returns the opponents with the most counted rallies.
func (a *opponentAcc) top(limit int) []model.OpponentStat {
	out := make([]model.OpponentStat, 0, len(a.byKey))
	for _, st := range a.byKey {
		s := *st
		s.WinRate = model.Percent(s.Wins, s.Total)
		out = append(out, s)
	}
	slices.SortFunc(out, func(x, y model.OpponentStat) int {
		if c := cmp.Compare(y.Total, x.Total); c != 0 {
			return c
		}
		return cmp.Compare(x.Name, y.Name)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
