// Package repository persists matches, rallies, opponents and tournaments
// through gorm and serves the rollups the analysis page aggregates.
package repository

import (
	"context"
	"time"

	"github.com/okian/rallylog/internal/domain/model"
	"github.com/okian/rallylog/internal/domain/sequencer"
)

// Store provides read/write access to the match log.
type Store interface {
	CreateOpponent(ctx context.Context, in OpponentInput) (model.Opponent, error)
	// ListOpponents returns opponents by name. trainingOnly keeps training partners.
	ListOpponents(ctx context.Context, trainingOnly bool) ([]model.Opponent, error)
	CreateTournament(ctx context.Context, in TournamentInput) (model.Tournament, error)
	ListTournaments(ctx context.Context, limit int) ([]model.Tournament, error)

	// CreateMatch stores a match, creating the named opponent or tournament
	// when only a name is given.
	CreateMatch(ctx context.Context, in MatchInput) (model.Match, error)
	UpdateMatch(ctx context.Context, id string, in MatchInput) (model.Match, error)
	// DeleteMatch removes a match and its rallies.
	DeleteMatch(ctx context.Context, id string) error
	GetMatch(ctx context.Context, id string) (model.Match, error)
	// ListMatches returns the newest matches with their counted rally totals.
	ListMatches(ctx context.Context, limit int) ([]model.MatchOverview, error)

	// ListRallies returns a match's rallies ordered by (sequence, created_at).
	ListRallies(ctx context.Context, matchID string) ([]model.Rally, error)
	// ApplyRallyMutation runs read-recompute-write for one match in a single
	// transaction and returns the recomputed list.
	ApplyRallyMutation(ctx context.Context, matchID string, m sequencer.Mutation) (MutationResult, error)

	// ListRollups returns per-match rollups ordered by effective date ascending.
	ListRollups(ctx context.Context, f Filter) ([]model.MatchRollup, error)

	// Counts returns the number of stored rows per entity.
	Counts(ctx context.Context) (Counts, error)

	Close() error
}

// OpponentInput creates an opponent.
type OpponentInput struct {
	Name     string
	Training bool
	Notes    *string
}

// TournamentInput creates a tournament.
type TournamentInput struct {
	Name  string
	Notes *string
}

// MatchInput creates or updates a match. OpponentID wins over OpponentName
// and TournamentID wins over TournamentName. Official without a tournament
// creates one under a default name.
type MatchInput struct {
	Title            string
	MatchDate        *time.Time
	MatchNumber      *int
	OpponentID       *string
	OpponentName     string
	TrainingOpponent bool
	TournamentID     *string
	TournamentName   string
	Official         bool
	Notes            *string
}

// Filter narrows ListRollups. Empty fields do not filter.
type Filter struct {
	OpponentID   string
	TournamentID string
	// From is inclusive and To exclusive; both compare the match date,
	// falling back to the creation time.
	From         *time.Time
	To           *time.Time
	OfficialOnly bool
	Limit        int
}

// MutationResult is the outcome of ApplyRallyMutation.
type MutationResult struct {
	Rallies []model.Rally
	Written int
	Deleted int
}

// Counts holds per-entity row counts.
type Counts struct {
	Matches     int64
	Rallies     int64
	Opponents   int64
	Tournaments int64
}
