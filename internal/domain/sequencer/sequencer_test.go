package sequencer_test

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/okian/rallylog/internal/domain/model"
	"github.com/okian/rallylog/internal/domain/sequencer"
	. "github.com/smartystreets/goconvey/convey"
)

// rallies builds a sequenced list r1..rN from results ("w", "l", "x" for an excluded win).
func rallies(results ...string) []model.Rally {
	list := make([]model.Rally, 0, len(results))
	for i, res := range results {
		r := model.Rally{ID: fmt.Sprintf("r%d", i+1), MatchID: "m1", Result: model.ResultWin}
		switch res {
		case "l":
			r.Result = model.ResultLose
		case "x":
			r.ExcludeFromScore = true
		}
		list = append(list, r)
	}
	out, err := sequencer.Recompute(list, nil)
	if err != nil {
		panic(err)
	}
	return out
}

func ids(list []model.Rally) []string {
	out := make([]string, len(list))
	for i, r := range list {
		out[i] = r.ID
	}
	return out
}

func endScores(list []model.Rally) [][2]int {
	out := make([][2]int, len(list))
	for i, r := range list {
		out[i] = [2]int{r.EndScoreSelf, r.EndScoreOpponent}
	}
	return out
}

func intp(n int) *int { return &n }

func TestRecompute_Insert(t *testing.T) {
	Convey("Given a match with rallies [win, win, lose]", t, func() {
		existing := rallies("w", "w", "l")

		Convey("When a win is inserted at position 2", func() {
			out, err := sequencer.Recompute(existing, sequencer.Insert{
				Rally:    model.Rally{ID: "new", Result: model.ResultWin},
				Position: intp(2),
			})

			Convey("Then later rallies shift and carry the extra point", func() {
				So(err, ShouldBeNil)
				So(ids(out), ShouldResemble, []string{"r1", "new", "r2", "r3"})
				So(out[2].Sequence, ShouldEqual, 3)
				So(out[3].Sequence, ShouldEqual, 4)
				So(out[2].StartScoreSelf, ShouldEqual, 2)
				So(out[2].EndScoreSelf, ShouldEqual, 3)
				So(out[3].StartScoreSelf, ShouldEqual, 3)
				So(out[3].EndScoreOpponent, ShouldEqual, 1)
			})

			Convey("And the input list is left untouched", func() {
				So(ids(existing), ShouldResemble, []string{"r1", "r2", "r3"})
				So(existing[1].Sequence, ShouldEqual, 2)
				So(existing[2].EndScoreSelf, ShouldEqual, 2)
			})
		})

		Convey("When no position is given", func() {
			out, err := sequencer.Recompute(existing, sequencer.Insert{Rally: model.Rally{ID: "new", Result: model.ResultLose}})

			Convey("Then the rally is appended", func() {
				So(err, ShouldBeNil)
				So(out[3].ID, ShouldEqual, "new")
				So(out[3].Sequence, ShouldEqual, 4)
				So(endScores(out)[3], ShouldResemble, [2]int{2, 2})
			})
		})

		Convey("When the position is out of range", func() {
			low, err := sequencer.Recompute(existing, sequencer.Insert{Rally: model.Rally{ID: "a", Result: model.ResultWin}, Position: intp(-4)})
			So(err, ShouldBeNil)
			high, err := sequencer.Recompute(existing, sequencer.Insert{Rally: model.Rally{ID: "b", Result: model.ResultWin}, Position: intp(99)})
			So(err, ShouldBeNil)

			Convey("Then it is clamped instead of rejected", func() {
				So(low[0].ID, ShouldEqual, "a")
				So(high[3].ID, ShouldEqual, "b")
			})
		})

		Convey("When the new rally has invalid fields", func() {
			_, err := sequencer.Recompute(existing, sequencer.Insert{Rally: model.Rally{ID: "bad", Result: "tie"}})

			Convey("Then InvalidInput is returned with the field", func() {
				So(errors.Is(err, sequencer.ErrInvalidInput), ShouldBeTrue)
				var fe *model.FieldError
				So(errors.As(err, &fe), ShouldBeTrue)
				So(fe.Field, ShouldEqual, "result")
			})
		})

		Convey("When the new rally reuses an existing id", func() {
			_, err := sequencer.Recompute(existing, sequencer.Insert{Rally: model.Rally{ID: "r2", Result: model.ResultWin}})
			So(errors.Is(err, sequencer.ErrInvalidInput), ShouldBeTrue)
		})
	})
}

func TestRecompute_Delete(t *testing.T) {
	Convey("Given a match with rallies [win, lose, win]", t, func() {
		existing := rallies("w", "l", "w")

		Convey("When the middle rally is deleted", func() {
			out, err := sequencer.Recompute(existing, sequencer.Delete{RallyID: "r2"})

			Convey("Then the rest renumber and match a fresh [win, win] replay", func() {
				So(err, ShouldBeNil)
				So(len(out), ShouldEqual, 2)
				So(out[0].Sequence, ShouldEqual, 1)
				So(out[1].Sequence, ShouldEqual, 2)
				So(endScores(out), ShouldResemble, endScores(rallies("w", "w")))
			})
		})

		Convey("When an unknown rally is deleted", func() {
			_, err := sequencer.Recompute(existing, sequencer.Delete{RallyID: "nope"})
			So(errors.Is(err, sequencer.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestRecompute_Update(t *testing.T) {
	Convey("Given a match with rallies [win, win, win]", t, func() {
		existing := rallies("w", "w", "w")

		Convey("When the first rally is changed to a loss", func() {
			reason := "我方失误"
			out, err := sequencer.Recompute(existing, sequencer.Update{
				RallyID: "r1",
				Fields:  model.RallyFields{Result: model.ResultLose, PointReason: &reason},
			})

			Convey("Then every later score is re-derived", func() {
				So(err, ShouldBeNil)
				So(endScores(out), ShouldResemble, [][2]int{{0, 1}, {1, 1}, {2, 1}})
				So(*out[0].PointReason, ShouldEqual, reason)
			})
		})

		Convey("When the middle rally is excluded from the score", func() {
			out, err := sequencer.Recompute(existing, sequencer.Update{
				RallyID: "r2",
				Fields:  model.RallyFields{Result: model.ResultWin, ExcludeFromScore: true},
			})

			Convey("Then it does not advance the counters", func() {
				So(err, ShouldBeNil)
				So(out[1].StartScoreSelf, ShouldEqual, out[1].EndScoreSelf)
				So(out[2].StartScoreSelf, ShouldEqual, 1)
				So(out[2].EndScoreSelf, ShouldEqual, 2)
			})
		})

		Convey("When an unknown rally is updated", func() {
			_, err := sequencer.Recompute(existing, sequencer.Update{RallyID: "nope", Fields: model.RallyFields{Result: model.ResultWin}})
			So(errors.Is(err, sequencer.ErrNotFound), ShouldBeTrue)
		})

		Convey("When the serve score is out of range", func() {
			_, err := sequencer.Recompute(existing, sequencer.Update{
				RallyID: "r1",
				Fields:  model.RallyFields{Result: model.ResultWin, ServeScore: intp(12)},
			})
			So(errors.Is(err, sequencer.ErrInvalidInput), ShouldBeTrue)
		})
	})
}

func TestRecompute_Properties(t *testing.T) {
	Convey("Given random rally lists", t, func() {
		rng := rand.New(rand.NewSource(7))
		kinds := []string{"w", "l", "x"}

		for n := 0; n < 50; n++ {
			results := make([]string, rng.Intn(30))
			for i := range results {
				results[i] = kinds[rng.Intn(len(kinds))]
			}
			list := rallies(results...)

			again, err := sequencer.Recompute(list, sequencer.Replay{})
			So(err, ShouldBeNil)
			So(again, ShouldResemble, list)

			self, opp := 0, 0
			for i, r := range list {
				So(r.Sequence, ShouldEqual, i+1)
				So(r.StartScoreSelf, ShouldEqual, self)
				So(r.StartScoreOpponent, ShouldEqual, opp)
				ds, do := r.EndScoreSelf-r.StartScoreSelf, r.EndScoreOpponent-r.StartScoreOpponent
				So(ds, ShouldBeBetweenOrEqual, 0, 1)
				So(do, ShouldBeBetweenOrEqual, 0, 1)
				So(ds+do, ShouldBeLessThanOrEqualTo, 1)
				if r.ExcludeFromScore {
					So(ds+do, ShouldEqual, 0)
				}
				self, opp = r.EndScoreSelf, r.EndScoreOpponent
			}
		}
	})
}

func TestParsePosition(t *testing.T) {
	Convey("Given raw insert positions", t, func() {
		p, err := sequencer.ParsePosition("")
		So(err, ShouldBeNil)
		So(p, ShouldBeNil)

		p, err = sequencer.ParsePosition(" 3 ")
		So(err, ShouldBeNil)
		So(*p, ShouldEqual, 3)

		_, err = sequencer.ParsePosition("third")
		So(errors.Is(err, sequencer.ErrInvalidInput), ShouldBeTrue)
	})
}

func TestCompare(t *testing.T) {
	Convey("Given a list before and after inserting at the end", t, func() {
		before := rallies("w", "l")
		after, err := sequencer.Recompute(before, sequencer.Insert{Rally: model.Rally{ID: "r3", Result: model.ResultWin}})
		So(err, ShouldBeNil)

		Convey("Then only the new rally is written", func() {
			d := sequencer.Compare(before, after)
			So(ids(d.Upserts), ShouldResemble, []string{"r3"})
			So(d.Deletes, ShouldBeEmpty)
		})
	})

	Convey("Given a list before and after inserting at the front", t, func() {
		before := rallies("w", "l")
		after, err := sequencer.Recompute(before, sequencer.Insert{Rally: model.Rally{ID: "r0", Result: model.ResultLose}, Position: intp(1)})
		So(err, ShouldBeNil)

		Convey("Then every shifted rally is written", func() {
			d := sequencer.Compare(before, after)
			So(ids(d.Upserts), ShouldResemble, []string{"r0", "r1", "r2"})
		})
	})

	Convey("Given a delete", t, func() {
		before := rallies("w", "l", "w")
		after, err := sequencer.Recompute(before, sequencer.Delete{RallyID: "r3"})
		So(err, ShouldBeNil)

		d := sequencer.Compare(before, after)
		So(d.Upserts, ShouldBeEmpty)
		So(d.Deletes, ShouldResemble, []string{"r3"})
		So(sequencer.Compare(after, after).Empty(), ShouldBeTrue)
	})
}
