package repository_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/okian/rallylog/internal/adapters/repository"
	"github.com/okian/rallylog/internal/domain/model"
	"github.com/okian/rallylog/internal/domain/sequencer"
	"github.com/okian/rallylog/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// tickingClock returns strictly increasing timestamps so created_at ties never occur.
func tickingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func createDatabase(t *testing.T) *repository.GormStore {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "rallylog.db")
	store, err := repository.Open(context.Background(), repository.DriverSQLite, dsn,
		repository.WithClock(tickingClock()),
		repository.WithMaxAnalysisMatches(50),
	)
	require.NoError(t, err, "open sqlite store")
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func strp(s string) *string { return &s }
func intp(n int) *int       { return &n }

func addRally(t *testing.T, s repository.Store, matchID string, res model.Result, reason string, pos *int) []model.Rally {
	t.Helper()
	r := model.Rally{Result: res}
	if reason != "" {
		r.PointReason = strp(reason)
	}
	out, err := s.ApplyRallyMutation(context.Background(), matchID, sequencer.Insert{Rally: r, Position: pos})
	require.NoError(t, err)
	return out.Rallies
}

func endScores(list []model.Rally) [][2]int {
	out := make([][2]int, len(list))
	for i, r := range list {
		out[i] = [2]int{r.EndScoreSelf, r.EndScoreOpponent}
	}
	return out
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := repository.Open(context.Background(), "oracle", "dsn")
	require.Error(t, err)
	assert.True(t, errors.Is(err, repository.ErrUnsupportedDriver))
}

func TestCreateMatch_AutoCreatesOpponentAndTournament(t *testing.T) {
	ctx := context.Background()
	s := createDatabase(t)

	m, err := s.CreateMatch(ctx, repository.MatchInput{
		Title:            "春季联赛 R1",
		MatchDate:        day(2024, 3, 9),
		MatchNumber:      intp(1),
		OpponentName:     " 老张 ",
		TrainingOpponent: true,
		Official:         true,
	})
	require.NoError(t, err)
	assert.Equal(t, "春季联赛 R1", m.Title)
	require.NotNil(t, m.OpponentID)
	assert.Equal(t, "老张", m.OpponentName)
	require.NotNil(t, m.TournamentID)
	assert.Equal(t, "未命名赛事", m.TournamentName)
	assert.True(t, m.Official())

	// The same name reuses the opponent.
	m2, err := s.CreateMatch(ctx, repository.MatchInput{Title: "友谊赛", OpponentName: "老张"})
	require.NoError(t, err)
	assert.Equal(t, *m.OpponentID, *m2.OpponentID)
	assert.Nil(t, m2.TournamentID)

	training, err := s.ListOpponents(ctx, true)
	require.NoError(t, err)
	require.Len(t, training, 1)
	assert.Equal(t, "训练对手", *training[0].Notes)

	_, err = s.CreateOpponent(ctx, repository.OpponentInput{Name: "Lee"})
	require.NoError(t, err)
	all, err := s.ListOpponents(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	named, err := s.CreateMatch(ctx, repository.MatchInput{Title: "杯赛", TournamentName: "市运会"})
	require.NoError(t, err)
	assert.Equal(t, "市运会", named.TournamentName)

	tournaments, err := s.ListTournaments(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, tournaments, 2)
	assert.Equal(t, "市运会", tournaments[0].Name)
}

func TestCreateMatch_Validation(t *testing.T) {
	ctx := context.Background()
	s := createDatabase(t)

	_, err := s.CreateMatch(ctx, repository.MatchInput{Title: "   "})
	require.Error(t, err)
	assert.True(t, errors.Is(err, repository.ErrInvalidInput))
	var fe *model.FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "title", fe.Field)

	_, err = s.CreateMatch(ctx, repository.MatchInput{Title: "x", OpponentID: strp("missing")})
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestApplyRallyMutation(t *testing.T) {
	ctx := context.Background()
	s := createDatabase(t)
	m, err := s.CreateMatch(ctx, repository.MatchInput{Title: "训练赛"})
	require.NoError(t, err)

	addRally(t, s, m.ID, model.ResultWin, "拉吊", nil)
	addRally(t, s, m.ID, model.ResultWin, "杀球", nil)
	list := addRally(t, s, m.ID, model.ResultLose, "我方失误", nil)
	require.Len(t, list, 3)
	assert.Equal(t, [][2]int{{1, 0}, {2, 0}, {2, 1}}, endScores(list))

	t.Run("insert at position shifts later rallies", func(t *testing.T) {
		res, err := s.ApplyRallyMutation(ctx, m.ID, sequencer.Insert{
			Rally:    model.Rally{Result: model.ResultWin, ServeScore: intp(8)},
			Position: intp(2),
		})
		require.NoError(t, err)
		assert.Equal(t, 3, res.Written, "new rally plus the two shifted ones")

		stored, err := s.ListRallies(ctx, m.ID)
		require.NoError(t, err)
		require.Len(t, stored, 4)
		assert.Equal(t, res.Rallies[1].ID, stored[1].ID)
		for i, r := range stored {
			assert.Equal(t, i+1, r.Sequence)
		}
		assert.Equal(t, [][2]int{{1, 0}, {2, 0}, {3, 0}, {3, 1}}, endScores(stored))
		assert.Equal(t, m.ID, stored[1].MatchID)
	})

	t.Run("update re-derives scores", func(t *testing.T) {
		stored, err := s.ListRallies(ctx, m.ID)
		require.NoError(t, err)
		_, err = s.ApplyRallyMutation(ctx, m.ID, sequencer.Update{
			RallyID: stored[0].ID,
			Fields:  model.RallyFields{Result: model.ResultWin, ExcludeFromScore: true},
		})
		require.NoError(t, err)

		stored, err = s.ListRallies(ctx, m.ID)
		require.NoError(t, err)
		assert.True(t, stored[0].ExcludeFromScore)
		assert.Equal(t, [][2]int{{0, 0}, {1, 0}, {2, 0}, {2, 1}}, endScores(stored))
	})

	t.Run("delete renumbers", func(t *testing.T) {
		stored, err := s.ListRallies(ctx, m.ID)
		require.NoError(t, err)
		res, err := s.ApplyRallyMutation(ctx, m.ID, sequencer.Delete{RallyID: stored[1].ID})
		require.NoError(t, err)
		assert.Equal(t, 1, res.Deleted)

		stored, err = s.ListRallies(ctx, m.ID)
		require.NoError(t, err)
		require.Len(t, stored, 3)
		assert.Equal(t, []int{1, 2, 3}, []int{stored[0].Sequence, stored[1].Sequence, stored[2].Sequence})
		assert.Equal(t, [][2]int{{0, 0}, {1, 0}, {1, 1}}, endScores(stored))
	})

	t.Run("replay of a consistent list writes nothing", func(t *testing.T) {
		res, err := s.ApplyRallyMutation(ctx, m.ID, sequencer.Replay{})
		require.NoError(t, err)
		assert.Zero(t, res.Written)
		assert.Zero(t, res.Deleted)
	})

	t.Run("errors", func(t *testing.T) {
		_, err := s.ApplyRallyMutation(ctx, m.ID, sequencer.Delete{RallyID: "nope"})
		assert.True(t, errors.Is(err, sequencer.ErrNotFound))

		_, err = s.ApplyRallyMutation(ctx, "no-match", sequencer.Replay{})
		assert.True(t, errors.Is(err, repository.ErrNotFound))

		_, err = s.ApplyRallyMutation(ctx, m.ID, sequencer.Insert{Rally: model.Rally{Result: model.ResultWin, ServeScore: intp(42)}})
		assert.True(t, errors.Is(err, sequencer.ErrInvalidInput))

		_, err = s.ListRallies(ctx, "no-match")
		assert.True(t, errors.Is(err, repository.ErrNotFound))
	})
}

func TestConcurrentInsertsKeepSequenceDense(t *testing.T) {
	ctx := context.Background()
	s := createDatabase(t)
	m, err := s.CreateMatch(ctx, repository.MatchInput{Title: "并发"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := model.ResultWin
			if i%3 == 0 {
				res = model.ResultLose
			}
			_, err := s.ApplyRallyMutation(ctx, m.ID, sequencer.Insert{Rally: model.Rally{Result: res}, Position: intp(1)})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	stored, err := s.ListRallies(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, stored, 20)
	self, opp := 0, 0
	for i, r := range stored {
		assert.Equal(t, i+1, r.Sequence)
		assert.Equal(t, [2]int{self, opp}, [2]int{r.StartScoreSelf, r.StartScoreOpponent})
		self, opp = r.EndScoreSelf, r.EndScoreOpponent
	}
	assert.Equal(t, 20, self+opp)
}

func TestDeleteMatchCascades(t *testing.T) {
	ctx := context.Background()
	s := createDatabase(t)
	m, err := s.CreateMatch(ctx, repository.MatchInput{Title: "删除"})
	require.NoError(t, err)
	addRally(t, s, m.ID, model.ResultWin, "", nil)

	require.NoError(t, s.DeleteMatch(ctx, m.ID))
	_, err = s.GetMatch(ctx, m.ID)
	assert.True(t, errors.Is(err, repository.ErrNotFound))

	c, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Zero(t, c.Matches)
	assert.Zero(t, c.Rallies)

	assert.True(t, errors.Is(s.DeleteMatch(ctx, m.ID), repository.ErrNotFound))
}

func TestUpdateMatch(t *testing.T) {
	ctx := context.Background()
	s := createDatabase(t)
	m, err := s.CreateMatch(ctx, repository.MatchInput{Title: "旧标题", OpponentName: "A", Notes: strp("n")})
	require.NoError(t, err)

	updated, err := s.UpdateMatch(ctx, m.ID, repository.MatchInput{Title: "新标题", MatchDate: day(2024, 6, 1)})
	require.NoError(t, err)
	assert.Equal(t, "新标题", updated.Title)
	assert.Nil(t, updated.OpponentID)
	assert.Nil(t, updated.Notes)
	require.NotNil(t, updated.MatchDate)
	assert.True(t, updated.MatchDate.Equal(*day(2024, 6, 1)))

	_, err = s.UpdateMatch(ctx, "missing", repository.MatchInput{Title: "x"})
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestListMatchesTotals(t *testing.T) {
	ctx := context.Background()
	s := createDatabase(t)
	older, err := s.CreateMatch(ctx, repository.MatchInput{Title: "older", MatchDate: day(2024, 1, 1)})
	require.NoError(t, err)
	newer, err := s.CreateMatch(ctx, repository.MatchInput{Title: "newer", MatchDate: day(2024, 2, 1)})
	require.NoError(t, err)

	addRally(t, s, older.ID, model.ResultWin, "", nil)
	addRally(t, s, older.ID, model.ResultLose, "", nil)
	addRally(t, s, older.ID, model.ResultWin, "", nil)
	list := addRally(t, s, older.ID, model.ResultWin, "", nil)
	_, err = s.ApplyRallyMutation(ctx, older.ID, sequencer.Update{
		RallyID: list[3].ID,
		Fields:  model.RallyFields{Result: model.ResultWin, ExcludeFromScore: true},
	})
	require.NoError(t, err)

	overview, err := s.ListMatches(ctx, 10)
	require.NoError(t, err)
	require.Len(t, overview, 2)
	assert.Equal(t, newer.ID, overview[0].ID)
	assert.Zero(t, overview[0].Total)
	assert.Equal(t, older.ID, overview[1].ID)
	assert.Equal(t, 2, overview[1].Wins)
	assert.Equal(t, 1, overview[1].Losses)
	assert.Equal(t, 3, overview[1].Total)
	assert.Equal(t, 66.7, overview[1].WinRate)
}

func TestListRollups(t *testing.T) {
	ctx := context.Background()
	s := createDatabase(t)

	official, err := s.CreateMatch(ctx, repository.MatchInput{Title: "B", MatchDate: day(2024, 5, 2), OpponentName: "老张", TournamentName: "市赛"})
	require.NoError(t, err)
	casual, err := s.CreateMatch(ctx, repository.MatchInput{Title: "A", MatchDate: day(2024, 5, 1), OpponentName: "小李"})
	require.NoError(t, err)
	for _, m := range []model.Match{official, casual} {
		addRally(t, s, m.ID, model.ResultWin, "拉吊", nil)
		addRally(t, s, m.ID, model.ResultLose, "我方失误", nil)
	}

	all, err := s.ListRollups(ctx, repository.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "A", all[0].Title, "ordered by date ascending")
	assert.Equal(t, "小李", all[0].OpponentName)
	assert.Equal(t, 1.0, all[0].WinReasons["拉吊"])
	assert.Equal(t, 1, all[0].ErrorCount)

	onlyOfficial, err := s.ListRollups(ctx, repository.Filter{OfficialOnly: true})
	require.NoError(t, err)
	require.Len(t, onlyOfficial, 1)
	assert.Equal(t, official.ID, onlyOfficial[0].ID)

	byOpponent, err := s.ListRollups(ctx, repository.Filter{OpponentID: *casual.OpponentID})
	require.NoError(t, err)
	require.Len(t, byOpponent, 1)
	assert.Equal(t, casual.ID, byOpponent[0].ID)

	byTournament, err := s.ListRollups(ctx, repository.Filter{TournamentID: *official.TournamentID})
	require.NoError(t, err)
	require.Len(t, byTournament, 1)

	ranged, err := s.ListRollups(ctx, repository.Filter{From: day(2024, 5, 2), To: day(2024, 5, 3)})
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, "B", ranged[0].Title)

	limited, err := s.ListRollups(ctx, repository.Filter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	none, err := s.ListRollups(ctx, repository.Filter{OpponentID: "nobody"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestCounts(t *testing.T) {
	ctx := context.Background()
	s := createDatabase(t)
	for i := range 3 {
		m, err := s.CreateMatch(ctx, repository.MatchInput{Title: fmt.Sprintf("m%d", i), OpponentName: "same"})
		require.NoError(t, err)
		addRally(t, s, m.ID, model.ResultWin, "", nil)
	}
	c, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, repository.Counts{Matches: 3, Rallies: 3, Opponents: 1, Tournaments: 0}, c)
}
