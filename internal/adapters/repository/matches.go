package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/okian/rallylog/internal/domain/model"
	"gorm.io/gorm"
)

const (
	maxTitleLength   = 200
	effectiveDateSQL = "COALESCE(matches.match_date, matches.created_at)"
)

// CreateMatch stores a match, creating the named opponent or tournament
// when only a name is given.
func (s *GormStore) CreateMatch(ctx context.Context, in MatchInput) (model.Match, error) {
	defer s.observe("create_match", time.Now())
	if err := validateMatch(in); err != nil {
		return model.Match{}, err
	}

	var id string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		e := matchEntity{ID: s.newID(), CreatedAt: s.timestamp()}
		if err := s.fillMatch(tx, &e, in); err != nil {
			return err
		}
		id = e.ID
		return tx.Omit("OpponentRef", "Tournament", "Rallies").Create(&e).Error
	})
	if err != nil {
		return model.Match{}, s.fail("create_match", err)
	}
	return s.GetMatch(ctx, id)
}

// UpdateMatch replaces the editable fields of a match.
func (s *GormStore) UpdateMatch(ctx context.Context, id string, in MatchInput) (model.Match, error) {
	defer s.observe("update_match", time.Now())
	if err := validateMatch(in); err != nil {
		return model.Match{}, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var e matchEntity
		if err := tx.First(&e, "id = ?", id).Error; err != nil {
			return err
		}
		if err := s.fillMatch(tx, &e, in); err != nil {
			return err
		}
		return tx.Model(&matchEntity{ID: id}).Select(
			"Title", "MatchDate", "MatchNumber", "Opponent", "OpponentID", "TournamentID", "Notes",
		).Updates(&e).Error
	})
	if err != nil {
		return model.Match{}, s.fail("update_match", err)
	}
	return s.GetMatch(ctx, id)
}

func (s *GormStore) fillMatch(tx *gorm.DB, e *matchEntity, in MatchInput) error {
	opponentID, err := s.resolveOpponent(tx, in)
	if err != nil {
		return err
	}
	tournamentID, err := s.resolveTournament(tx, in)
	if err != nil {
		return err
	}

	e.Title = strings.TrimSpace(in.Title)
	e.MatchDate = utc(in.MatchDate)
	e.MatchNumber = in.MatchNumber
	e.OpponentID = opponentID
	e.TournamentID = tournamentID
	e.Notes = in.Notes
	e.Opponent = nil
	if name := strings.TrimSpace(in.OpponentName); name != "" {
		e.Opponent = &name
	}
	return nil
}

func validateMatch(in MatchInput) error {
	title := strings.TrimSpace(in.Title)
	switch {
	case title == "":
		return invalid("title", "must not be empty")
	case len([]rune(title)) > maxTitleLength:
		return invalid("title", fmt.Sprintf("must be at most %d characters", maxTitleLength))
	case in.MatchNumber != nil && *in.MatchNumber < 1:
		return invalid("match_number", "must be positive")
	}
	return nil
}

// DeleteMatch removes a match and its rallies.
func (s *GormStore) DeleteMatch(ctx context.Context, id string) error {
	defer s.observe("delete_match", time.Now())
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("match_id = ?", id).Delete(&rallyEntity{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&matchEntity{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return s.fail("delete_match", err)
	}
	return nil
}

// GetMatch loads a match with its opponent and tournament names.
func (s *GormStore) GetMatch(ctx context.Context, id string) (model.Match, error) {
	defer s.observe("get_match", time.Now())
	var e matchEntity
	err := s.db.WithContext(ctx).Preload("OpponentRef").Preload("Tournament").First(&e, "id = ?", id).Error
	if err != nil {
		return model.Match{}, s.fail("get_match", err)
	}
	return e.toModel(), nil
}

type rallyTally struct {
	MatchID string
	Wins    int
	Losses  int
}

// ListMatches returns the newest matches with their counted rally totals.
func (s *GormStore) ListMatches(ctx context.Context, limit int) ([]model.MatchOverview, error) {
	defer s.observe("list_matches", time.Now())
	db := s.db.WithContext(ctx)

	q := db.Preload("OpponentRef").Preload("Tournament").
		Order(effectiveDateSQL + " desc").Order("matches.match_number desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []matchEntity
	if err := q.Find(&rows).Error; err != nil {
		return nil, s.fail("list_matches", err)
	}
	if len(rows) == 0 {
		return []model.MatchOverview{}, nil
	}

	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	var tallies []rallyTally
	err := db.Model(&rallyEntity{}).
		Select("match_id, "+
			"SUM(CASE WHEN result = ? THEN 1 ELSE 0 END) AS wins, "+
			"SUM(CASE WHEN result = ? THEN 1 ELSE 0 END) AS losses",
			string(model.ResultWin), string(model.ResultLose)).
		Where("exclude_from_score = ?", false).
		Where("match_id IN ?", ids).
		Group("match_id").
		Scan(&tallies).Error
	if err != nil {
		return nil, s.fail("list_matches", err)
	}
	byMatch := make(map[string]rallyTally, len(tallies))
	for _, t := range tallies {
		byMatch[t.MatchID] = t
	}

	out := make([]model.MatchOverview, len(rows))
	for i, r := range rows {
		t := byMatch[r.ID]
		total := t.Wins + t.Losses
		out[i] = model.MatchOverview{
			Match:   r.toModel(),
			Wins:    t.Wins,
			Losses:  t.Losses,
			Total:   total,
			WinRate: model.Percent(t.Wins, total),
		}
	}
	return out, nil
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
