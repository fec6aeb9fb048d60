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
	trainingNote          = "训练对手"
	defaultTournamentName = "未命名赛事"
)

// CreateOpponent stores a new opponent.
func (s *GormStore) CreateOpponent(ctx context.Context, in OpponentInput) (model.Opponent, error) {
	defer s.observe("create_opponent", time.Now())
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Opponent{}, invalid("name", "must not be empty")
	}
	e := opponentEntity{ID: s.newID(), Name: name, Training: in.Training, Notes: in.Notes, CreatedAt: s.timestamp()}
	if err := s.db.WithContext(ctx).Create(&e).Error; err != nil {
		return model.Opponent{}, s.fail("create_opponent", err)
	}
	return e.toModel(), nil
}

// ListOpponents returns opponents ordered by name. With trainingOnly it keeps
// training partners, including ones created before the flag existed.
func (s *GormStore) ListOpponents(ctx context.Context, trainingOnly bool) ([]model.Opponent, error) {
	defer s.observe("list_opponents", time.Now())
	q := s.db.WithContext(ctx).Order("name asc")
	if trainingOnly {
		q = q.Where("training = ? OR notes = ?", true, trainingNote)
	}
	var rows []opponentEntity
	if err := q.Find(&rows).Error; err != nil {
		return nil, s.fail("list_opponents", err)
	}
	out := make([]model.Opponent, len(rows))
	for i, r := range rows {
		out[i] = r.toModel()
	}
	return out, nil
}

// CreateTournament stores a new tournament.
func (s *GormStore) CreateTournament(ctx context.Context, in TournamentInput) (model.Tournament, error) {
	defer s.observe("create_tournament", time.Now())
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = defaultTournamentName
	}
	e := tournamentEntity{ID: s.newID(), Name: name, Notes: in.Notes, CreatedAt: s.timestamp()}
	if err := s.db.WithContext(ctx).Create(&e).Error; err != nil {
		return model.Tournament{}, s.fail("create_tournament", err)
	}
	return e.toModel(), nil
}

// ListTournaments returns the newest tournaments first.
func (s *GormStore) ListTournaments(ctx context.Context, limit int) ([]model.Tournament, error) {
	defer s.observe("list_tournaments", time.Now())
	q := s.db.WithContext(ctx).Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []tournamentEntity
	if err := q.Find(&rows).Error; err != nil {
		return nil, s.fail("list_tournaments", err)
	}
	out := make([]model.Tournament, len(rows))
	for i, r := range rows {
		out[i] = r.toModel()
	}
	return out, nil
}

// resolveOpponent returns the opponent id for a match, reusing an opponent
// with the same name or creating one.
func (s *GormStore) resolveOpponent(tx *gorm.DB, in MatchInput) (*string, error) {
	if in.OpponentID != nil && *in.OpponentID != "" {
		var e opponentEntity
		if err := tx.Select("id").First(&e, "id = ?", *in.OpponentID).Error; err != nil {
			return nil, fmt.Errorf("opponent %s: %w", *in.OpponentID, notFoundOr(err))
		}
		return &e.ID, nil
	}
	name := strings.TrimSpace(in.OpponentName)
	if name == "" {
		return nil, nil
	}

	var e opponentEntity
	err := tx.Where("name = ?", name).Order("created_at asc").Limit(1).Find(&e).Error
	if err != nil {
		return nil, err
	}
	if e.ID != "" {
		return &e.ID, nil
	}

	e = opponentEntity{ID: s.newID(), Name: name, Training: in.TrainingOpponent, CreatedAt: s.timestamp()}
	if in.TrainingOpponent {
		note := trainingNote
		e.Notes = &note
	}
	if err := tx.Create(&e).Error; err != nil {
		return nil, err
	}
	return &e.ID, nil
}

// resolveTournament returns the tournament id for a match, creating a
// tournament when a name is given or the match is marked official.
func (s *GormStore) resolveTournament(tx *gorm.DB, in MatchInput) (*string, error) {
	if in.TournamentID != nil && *in.TournamentID != "" {
		var e tournamentEntity
		if err := tx.Select("id").First(&e, "id = ?", *in.TournamentID).Error; err != nil {
			return nil, fmt.Errorf("tournament %s: %w", *in.TournamentID, notFoundOr(err))
		}
		return &e.ID, nil
	}
	name := strings.TrimSpace(in.TournamentName)
	if name == "" && !in.Official {
		return nil, nil
	}
	if name == "" {
		name = defaultTournamentName
	}
	e := tournamentEntity{ID: s.newID(), Name: name, CreatedAt: s.timestamp()}
	if err := tx.Create(&e).Error; err != nil {
		return nil, err
	}
	return &e.ID, nil
}
