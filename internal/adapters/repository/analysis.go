package repository

import (
	"context"
	"time"

	"github.com/okian/rallylog/internal/domain/model"
	"github.com/okian/rallylog/internal/domain/summary"
)

// ListRollups loads the matches selected by f, oldest first, and folds each
// match's rallies into a rollup.
func (s *GormStore) ListRollups(ctx context.Context, f Filter) ([]model.MatchRollup, error) {
	defer s.observe("list_rollups", time.Now())
	db := s.db.WithContext(ctx)

	limit := s.maxAnalysisMatches
	if f.Limit > 0 && f.Limit < limit {
		limit = f.Limit
	}
	q := db.Preload("OpponentRef").Preload("Tournament").
		Order(effectiveDateSQL + " asc").Order("matches.match_number asc").
		Limit(limit)
	if f.OpponentID != "" {
		q = q.Where("matches.opponent_id = ?", f.OpponentID)
	}
	if f.TournamentID != "" {
		q = q.Where("matches.tournament_id = ?", f.TournamentID)
	}
	if f.OfficialOnly {
		q = q.Where("matches.tournament_id IS NOT NULL")
	}
	if f.From != nil {
		q = q.Where(effectiveDateSQL+" >= ?", f.From.UTC())
	}
	if f.To != nil {
		q = q.Where(effectiveDateSQL+" < ?", f.To.UTC())
	}

	var matches []matchEntity
	if err := q.Find(&matches).Error; err != nil {
		return nil, s.fail("list_rollups", err)
	}
	if len(matches) == 0 {
		return []model.MatchRollup{}, nil
	}

	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}
	var rows []rallyEntity
	err := db.Where("match_id IN ?", ids).
		Order("match_id asc").Order("sequence asc").Order("created_at asc").
		Find(&rows).Error
	if err != nil {
		return nil, s.fail("list_rollups", err)
	}
	byMatch := make(map[string][]model.Rally, len(matches))
	for _, r := range rows {
		byMatch[r.MatchID] = append(byMatch[r.MatchID], r.toModel())
	}

	out := make([]model.MatchRollup, len(matches))
	for i, m := range matches {
		out[i] = summary.Rollup(m.toModel(), byMatch[m.ID])
	}
	return out, nil
}
