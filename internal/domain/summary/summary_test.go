package summary_test

import (
	"testing"
	"time"

	"github.com/okian/rallylog/internal/domain/model"
	"github.com/okian/rallylog/internal/domain/reason"
	"github.com/okian/rallylog/internal/domain/summary"
	. "github.com/smartystreets/goconvey/convey"
)

func strp(s string) *string { return &s }
func intp(n int) *int       { return &n }

func TestSummarize(t *testing.T) {
	Convey("Given no rallies", t, func() {
		s := summary.Summarize(nil)

		Convey("Then everything is zero and reasons is an empty map", func() {
			So(s.Total, ShouldEqual, 0)
			So(s.Wins, ShouldEqual, 0)
			So(s.Losses, ShouldEqual, 0)
			So(s.WinRate, ShouldEqual, 0)
			So(s.Reasons, ShouldNotBeNil)
			So(s.Reasons, ShouldBeEmpty)
		})
	})

	Convey("Given three wins and two losses with one win excluded", t, func() {
		rallies := []model.Rally{
			{Result: model.ResultWin, PointReason: strp("  Smash ")},
			{Result: model.ResultWin, PointReason: strp("Smash")},
			{Result: model.ResultWin, PointReason: strp("Net"), ExcludeFromScore: true},
			{Result: model.ResultLose, PointReason: nil},
			{Result: model.ResultLose, PointReason: strp("   ")},
		}
		s := summary.Summarize(rallies)

		Convey("Then the excluded rally is not counted anywhere", func() {
			So(s.Total, ShouldEqual, 4)
			So(s.Wins, ShouldEqual, 2)
			So(s.Losses, ShouldEqual, 2)
			So(s.WinRate, ShouldEqual, 50.0)
			So(s.Reasons, ShouldNotContainKey, "Net")
		})

		Convey("Then padded reasons merge and blanks become Unspecified", func() {
			So(s.Reasons, ShouldHaveLength, 2)
			So(s.Reasons["Smash"], ShouldResemble, model.ReasonTally{Wins: 2})
			So(s.Reasons[reason.Unspecified], ShouldResemble, model.ReasonTally{Losses: 2})
		})
	})

	Convey("Given one win out of three counted rallies", t, func() {
		s := summary.Summarize([]model.Rally{
			{Result: model.ResultWin}, {Result: model.ResultLose}, {Result: model.ResultLose},
		})
		So(s.WinRate, ShouldEqual, 33.3)
	})
}

func TestRollup(t *testing.T) {
	Convey("Given a match with mixed rallies", t, func() {
		day := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
		oid := "o1"
		m := model.Match{ID: "m1", Title: "周末约球", MatchDate: &day, OpponentID: &oid, OpponentName: "老张"}
		rallies := []model.Rally{
			{Result: model.ResultWin, PointReason: strp("拉吊"), ServeScore: intp(6), TacticUsed: true},
			{Result: model.ResultWin, PointReason: strp("突击"), ServeScore: intp(8)},
			{Result: model.ResultWin, PointReason: strp("拉吊 ")},
			{Result: model.ResultWin, PointReason: strp("杀球")},
			{Result: model.ResultLose, PointReason: strp("我方失误"), TacticUsed: true},
			{Result: model.ResultLose, PointReason: strp("对手制胜球")},
			{Result: model.ResultLose, PointReason: strp("我方失误"), ExcludeFromScore: true, ServeScore: intp(1)},
		}
		r := summary.Rollup(m, rallies)

		Convey("Then identity fields are copied from the match", func() {
			So(r.ID, ShouldEqual, "m1")
			So(r.OpponentName, ShouldEqual, "老张")
			So(*r.MatchDate, ShouldEqual, day)
		})

		Convey("Then counts and shares use counted rallies only", func() {
			So(r.Wins, ShouldEqual, 4)
			So(r.Losses, ShouldEqual, 2)
			So(r.WinReasons["拉吊"], ShouldEqual, 0.5)
			So(r.WinReasons["突击"], ShouldEqual, 0.25)
			So(r.LoseReasons["我方失误"], ShouldEqual, 0.5)
			So(r.ErrorCount, ShouldEqual, 1)
		})

		Convey("Then serve and tactic sums skip the excluded rally", func() {
			So(r.ServeSum, ShouldEqual, 14)
			So(r.ServeCount, ShouldEqual, 2)
			So(r.TacticSum, ShouldEqual, 2)
			So(r.TacticCount, ShouldEqual, 6)
		})
	})

	Convey("Given a match with no rallies", t, func() {
		r := summary.Rollup(model.Match{ID: "empty"}, nil)
		So(r.Wins, ShouldEqual, 0)
		So(r.WinReasons, ShouldBeEmpty)
		So(r.LoseReasons, ShouldBeEmpty)
	})
}
