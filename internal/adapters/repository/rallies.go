package repository

import (
	"context"
	"time"

	"github.com/okian/rallylog/internal/domain/model"
	"github.com/okian/rallylog/internal/domain/sequencer"
	"github.com/okian/rallylog/pkg/logger"
	"github.com/okian/rallylog/pkg/metrics"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListRallies returns a match's rallies ordered by (sequence, created_at).
func (s *GormStore) ListRallies(ctx context.Context, matchID string) ([]model.Rally, error) {
	defer s.observe("list_rallies", time.Now())
	db := s.db.WithContext(ctx)
	if err := db.Select("id").First(&matchEntity{}, "id = ?", matchID).Error; err != nil {
		return nil, s.fail("list_rallies", err)
	}
	rows, err := loadRallies(db, matchID)
	if err != nil {
		return nil, s.fail("list_rallies", err)
	}
	return ralliesToModel(rows), nil
}

func loadRallies(tx *gorm.DB, matchID string) ([]rallyEntity, error) {
	var rows []rallyEntity
	err := tx.Where("match_id = ?", matchID).Order("sequence asc").Order("created_at asc").Find(&rows).Error
	return rows, err
}

// ApplyRallyMutation reads the match's rallies, applies m through the
// sequencer and writes back only the rows that changed, all inside one
// transaction. On postgres and mysql the match row is locked first so two
// edits of the same match serialize.
func (s *GormStore) ApplyRallyMutation(ctx context.Context, matchID string, m sequencer.Mutation) (MutationResult, error) {
	start := time.Now()
	defer s.observe("apply_rally_mutation", start)
	if m == nil {
		m = sequencer.Replay{}
	}

	var res MutationResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lookup := tx.Select("id")
		if s.driver != DriverSQLite {
			lookup = lookup.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
		}
		if err := lookup.First(&matchEntity{}, "id = ?", matchID).Error; err != nil {
			return err
		}

		rows, err := loadRallies(tx, matchID)
		if err != nil {
			return err
		}
		before := ralliesToModel(rows)

		if ins, ok := m.(sequencer.Insert); ok {
			ins.Rally.ID = s.newID()
			ins.Rally.MatchID = matchID
			ins.Rally.CreatedAt = s.timestamp()
			m = ins
		}
		after, err := sequencer.Recompute(before, m)
		if err != nil {
			return err
		}

		diff := sequencer.Compare(before, after)
		if len(diff.Deletes) > 0 {
			if err := tx.Where("id IN ?", diff.Deletes).Delete(&rallyEntity{}).Error; err != nil {
				return err
			}
		}
		if len(diff.Upserts) > 0 {
			upserts := make([]rallyEntity, len(diff.Upserts))
			for i, r := range diff.Upserts {
				upserts[i] = rallyFromModel(r)
			}
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&upserts).Error; err != nil {
				return err
			}
		}

		res = MutationResult{Rallies: after, Written: len(diff.Upserts), Deleted: len(diff.Deletes)}
		return nil
	})

	kind := m.Kind()
	if err != nil {
		metrics.RecordRallyMutation(kind, outcome(err))
		return MutationResult{}, s.fail("apply_rally_mutation", err)
	}
	metrics.RecordRallyMutation(kind, "ok")
	metrics.RecordRowsRewritten(res.Written + res.Deleted)
	metrics.RecordRecomputeLatency(float64(time.Since(start).Microseconds()) / 1000)
	s.log.Debug(ctx, "rallies recomputed",
		logger.String("match_id", matchID),
		logger.String("kind", kind),
		logger.Int("rallies", len(res.Rallies)),
		logger.Int("written", res.Written),
		logger.Int("deleted", res.Deleted),
	)
	return res, nil
}

func outcome(err error) string {
	switch {
	case isNotFound(err):
		return "not_found"
	case isInvalid(err):
		return "invalid_input"
	default:
		return "error"
	}
}
