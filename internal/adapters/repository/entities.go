package repository

import (
	"time"

	"github.com/okian/rallylog/internal/domain/model"
)

type opponentEntity struct {
	ID        string  `gorm:"primaryKey;size:36"`
	Name      string  `gorm:"size:100;not null;index"`
	Training  bool    `gorm:"not null"`
	Notes     *string `gorm:"type:text"`
	CreatedAt time.Time
}

func (opponentEntity) TableName() string { return "opponents" }

func (e opponentEntity) toModel() model.Opponent {
	return model.Opponent{ID: e.ID, Name: e.Name, Training: e.Training, Notes: e.Notes, CreatedAt: e.CreatedAt}
}

type tournamentEntity struct {
	ID        string  `gorm:"primaryKey;size:36"`
	Name      string  `gorm:"size:200;not null"`
	Notes     *string `gorm:"type:text"`
	CreatedAt time.Time
}

func (tournamentEntity) TableName() string { return "tournaments" }

func (e tournamentEntity) toModel() model.Tournament {
	return model.Tournament{ID: e.ID, Name: e.Name, Notes: e.Notes, CreatedAt: e.CreatedAt}
}

type matchEntity struct {
	ID           string            `gorm:"primaryKey;size:36"`
	Title        string            `gorm:"size:200;not null"`
	MatchDate    *time.Time        `gorm:"index"`
	MatchNumber  *int
	Opponent     *string           `gorm:"size:100"`
	OpponentID   *string           `gorm:"size:36;index"`
	OpponentRef  *opponentEntity   `gorm:"foreignKey:OpponentID;constraint:OnDelete:SET NULL"`
	TournamentID *string           `gorm:"size:36;index"`
	Tournament   *tournamentEntity `gorm:"foreignKey:TournamentID;constraint:OnDelete:SET NULL"`
	Notes        *string           `gorm:"type:text"`
	CreatedAt    time.Time         `gorm:"index"`
	Rallies      []rallyEntity     `gorm:"foreignKey:MatchID;constraint:OnDelete:CASCADE"`
}

func (matchEntity) TableName() string { return "matches" }

func (e matchEntity) toModel() model.Match {
	m := model.Match{
		ID:           e.ID,
		Title:        e.Title,
		MatchDate:    e.MatchDate,
		MatchNumber:  e.MatchNumber,
		Opponent:     e.Opponent,
		OpponentID:   e.OpponentID,
		TournamentID: e.TournamentID,
		Notes:        e.Notes,
		CreatedAt:    e.CreatedAt,
	}
	if e.OpponentRef != nil {
		m.OpponentName = e.OpponentRef.Name
	}
	if e.Tournament != nil {
		m.TournamentName = e.Tournament.Name
	}
	return m
}

type rallyEntity struct {
	ID                 string  `gorm:"primaryKey;size:36"`
	MatchID            string  `gorm:"size:36;not null;index:idx_rallies_match_sequence,priority:1"`
	Sequence           int     `gorm:"not null;index:idx_rallies_match_sequence,priority:2"`
	Result             string  `gorm:"size:8;not null"`
	PointFor           string  `gorm:"size:16;not null"`
	PointReason        *string `gorm:"size:100"`
	ExcludeFromScore   bool    `gorm:"not null"`
	StartScoreSelf     int     `gorm:"not null"`
	StartScoreOpponent int     `gorm:"not null"`
	EndScoreSelf       int     `gorm:"not null"`
	EndScoreOpponent   int     `gorm:"not null"`
	ServeScore         *int
	TacticUsed         bool    `gorm:"not null"`
	Notes              *string `gorm:"type:text"`
	CreatedAt          time.Time
}

func (rallyEntity) TableName() string { return "rallies" }

func (e rallyEntity) toModel() model.Rally {
	return model.Rally{
		ID:                 e.ID,
		MatchID:            e.MatchID,
		Sequence:           e.Sequence,
		Result:             model.Result(e.Result),
		PointReason:        e.PointReason,
		ExcludeFromScore:   e.ExcludeFromScore,
		StartScoreSelf:     e.StartScoreSelf,
		StartScoreOpponent: e.StartScoreOpponent,
		EndScoreSelf:       e.EndScoreSelf,
		EndScoreOpponent:   e.EndScoreOpponent,
		ServeScore:         e.ServeScore,
		TacticUsed:         e.TacticUsed,
		Notes:              e.Notes,
		CreatedAt:          e.CreatedAt,
	}
}

func rallyFromModel(r model.Rally) rallyEntity {
	return rallyEntity{
		ID:                 r.ID,
		MatchID:            r.MatchID,
		Sequence:           r.Sequence,
		Result:             string(r.Result),
		PointFor:           string(r.Result.PointFor()),
		PointReason:        r.PointReason,
		ExcludeFromScore:   r.ExcludeFromScore,
		StartScoreSelf:     r.StartScoreSelf,
		StartScoreOpponent: r.StartScoreOpponent,
		EndScoreSelf:       r.EndScoreSelf,
		EndScoreOpponent:   r.EndScoreOpponent,
		ServeScore:         r.ServeScore,
		TacticUsed:         r.TacticUsed,
		Notes:              r.Notes,
		CreatedAt:          r.CreatedAt,
	}
}

func ralliesToModel(rows []rallyEntity) []model.Rally {
	out := make([]model.Rally, len(rows))
	for i, r := range rows {
		out[i] = r.toModel()
	}
	return out
}
