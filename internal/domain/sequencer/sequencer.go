// Package sequencer renumbers a match's rallies and re-derives the running
// score after an insert, edit or delete.
package sequencer

import (
	"github.com/okian/rallylog/internal/domain/model"
)

// Recompute applies m to existing and returns the full list with sequence
// and start/end scores rewritten for every rally. existing must be ordered
// by (sequence, created_at) and is never modified. A nil m behaves like Replay.
func Recompute(existing []model.Rally, m Mutation) ([]model.Rally, error) {
	if m == nil {
		m = Replay{}
	}
	list := make([]model.Rally, len(existing), len(existing)+1)
	copy(list, existing)

	list, err := m.apply(list)
	if err != nil {
		return nil, err
	}
	walk(list)
	return list, nil
}

// walk assigns dense sequence numbers and chains scores from (0,0).
func walk(list []model.Rally) {
	var self, opp int
	for i := range list {
		r := &list[i]
		r.Sequence = i + 1
		r.StartScoreSelf, r.StartScoreOpponent = self, opp
		if r.Counted() {
			switch r.Result {
			case model.ResultWin:
				self++
			case model.ResultLose:
				opp++
			}
		}
		r.EndScoreSelf, r.EndScoreOpponent = self, opp
	}
}

// Diff lists what a store has to write to go from one rally list to another.
type Diff struct {
	// Upserts are rallies that are new or whose stored values changed.
	Upserts []model.Rally
	// Deletes are ids present before and gone after.
	Deletes []string
}

// Empty reports whether nothing needs to be written.
func (d Diff) Empty() bool { return len(d.Upserts) == 0 && len(d.Deletes) == 0 }

// Compare computes the minimal set of row writes turning before into after.
// Writing only the diff leaves the store in the same state as rewriting
// every row of after.
func Compare(before, after []model.Rally) Diff {
	prev := make(map[string]model.Rally, len(before))
	for _, r := range before {
		prev[r.ID] = r
	}

	var d Diff
	seen := make(map[string]struct{}, len(after))
	for _, r := range after {
		seen[r.ID] = struct{}{}
		old, ok := prev[r.ID]
		if !ok || !same(old, r) {
			d.Upserts = append(d.Upserts, r)
		}
	}
	for _, r := range before {
		if _, ok := seen[r.ID]; !ok {
			d.Deletes = append(d.Deletes, r.ID)
		}
	}
	return d
}

func same(a, b model.Rally) bool {
	return a.Sequence == b.Sequence &&
		a.Result == b.Result &&
		a.ExcludeFromScore == b.ExcludeFromScore &&
		a.StartScoreSelf == b.StartScoreSelf &&
		a.StartScoreOpponent == b.StartScoreOpponent &&
		a.EndScoreSelf == b.EndScoreSelf &&
		a.EndScoreOpponent == b.EndScoreOpponent &&
		a.TacticUsed == b.TacticUsed &&
		eqString(a.PointReason, b.PointReason) &&
		eqString(a.Notes, b.Notes) &&
		eqInt(a.ServeScore, b.ServeScore)
}

func eqString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func eqInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
