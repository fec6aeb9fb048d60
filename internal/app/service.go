// Package service provides the core business service that implements
// the dependencies required by the HTTP API, the site and the CLI.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/okian/rallylog/internal/adapters/export"
	"github.com/okian/rallylog/internal/adapters/repository"
	"github.com/okian/rallylog/internal/domain/aggregate"
	"github.com/okian/rallylog/internal/domain/dedupe"
	"github.com/okian/rallylog/internal/domain/model"
	"github.com/okian/rallylog/internal/domain/reason"
	"github.com/okian/rallylog/internal/domain/sequencer"
	"github.com/okian/rallylog/internal/domain/summary"
	"github.com/okian/rallylog/pkg/logger"
	"github.com/okian/rallylog/pkg/metrics"
)

const (
	defaultRefreshInterval = 30 * time.Second
	defaultListLimit       = 100
)

// Service implements the API dependencies of the match log.
type Service struct {
	mu sync.RWMutex

	store     repository.Store
	scheduler gocron.Scheduler
	deduper   dedupe.Deduper

	// Configuration
	refreshInterval time.Duration
	listLimit       int
	aggregateOpts   []aggregate.Option

	// State
	started    bool
	lastCounts repository.Counts
	lastSync   time.Time

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the backing store. The service closes it on Stop.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithDeduper sets the submission key tracker used by SubmitRally.
func WithDeduper(d dedupe.Deduper) Option {
	return func(s *Service) {
		s.deduper = d
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRefreshInterval sets the period of the inventory gauge job.
func WithRefreshInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.refreshInterval = d
		}
	}
}

// WithListLimit caps match and tournament listings.
func WithListLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.listLimit = n
		}
	}
}

// WithAggregateOptions forwards options to every analysis run.
func WithAggregateOptions(opts ...aggregate.Option) Option {
	return func(s *Service) {
		s.aggregateOpts = append(s.aggregateOpts, opts...)
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		refreshInterval: defaultRefreshInterval,
		listLimit:       defaultListLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.deduper == nil {
		s.deduper = dedupe.NewInMemoryDeduper()
	}
	return s
}

// Start launches the inventory job. Calling Start twice is a no-op.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.store == nil {
		return ErrNoStore
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting rallylog service...")

	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrScheduler, err)
	}
	_, err = sched.NewJob(
		gocron.DurationJob(s.refreshInterval),
		gocron.NewTask(s.refreshInventory),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return fmt.Errorf("%w: %w", ErrScheduler, err)
	}
	sched.Start()
	s.scheduler = sched

	s.started = true
	s.logger.Info(ctx, "rallylog service started",
		logger.Duration("refreshInterval", s.refreshInterval),
	)
	return nil
}

// Stop shuts the scheduler down and closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	sched := s.scheduler
	s.scheduler = nil
	s.started = false
	s.mu.Unlock()

	ctx := context.Background()
	s.logger.Info(ctx, "stopping rallylog service...")

	// Shutdown waits for a running refresh, which takes s.mu.
	if sched != nil {
		if err := sched.Shutdown(); err != nil {
			s.logger.Warn(ctx, "scheduler shutdown failed", logger.Error(err))
		}
	}
	if err := s.store.Close(); err != nil {
		s.logger.Warn(ctx, "store close failed", logger.Error(err))
	}

	s.logger.Info(ctx, "rallylog service stopped")
}

func (s *Service) refreshInventory() {
	ctx, cancel := context.WithTimeout(context.Background(), s.refreshInterval)
	defer cancel()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	metrics.UpdateSystem(runtime.NumGoroutine(), mem.HeapAlloc)
	s.deduper.Prune()

	c, err := s.store.Counts(ctx)
	if err != nil {
		s.log().Warn(ctx, "inventory refresh failed", logger.Error(err))
		return
	}
	metrics.UpdateInventory(c.Matches, c.Rallies, c.Opponents, c.Tournaments)

	s.mu.Lock()
	s.lastCounts = c
	s.lastSync = time.Now()
	s.mu.Unlock()
}

func (s *Service) log() logger.Logger {
	if s.logger == nil {
		return logger.Get()
	}
	return s.logger
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":         s.started,
		"refreshInterval": s.refreshInterval.String(),
	}
	if !s.lastSync.IsZero() {
		stats["matches"] = s.lastCounts.Matches
		stats["rallies"] = s.lastCounts.Rallies
		stats["opponents"] = s.lastCounts.Opponents
		stats["tournaments"] = s.lastCounts.Tournaments
		stats["lastRefresh"] = s.lastSync.UTC().Format(time.RFC3339)
	}
	return stats
}

// ListMatches returns the newest matches with their totals.
func (s *Service) ListMatches(ctx context.Context) ([]model.MatchOverview, error) {
	return s.store.ListMatches(ctx, s.listLimit)
}

// CreateMatch stores a new match.
func (s *Service) CreateMatch(ctx context.Context, in repository.MatchInput) (model.Match, error) {
	m, err := s.store.CreateMatch(ctx, in)
	if err != nil {
		return model.Match{}, err
	}
	s.log().Info(ctx, "match created", logger.String("matchID", m.ID), logger.String("title", m.Title))
	return m, nil
}

// UpdateMatch replaces a match's editable fields.
func (s *Service) UpdateMatch(ctx context.Context, id string, in repository.MatchInput) (model.Match, error) {
	return s.store.UpdateMatch(ctx, id, in)
}

// DeleteMatch removes a match and its rallies.
func (s *Service) DeleteMatch(ctx context.Context, id string) error {
	if err := s.store.DeleteMatch(ctx, id); err != nil {
		return err
	}
	s.log().Info(ctx, "match deleted", logger.String("matchID", id))
	return nil
}

// MatchDetail loads a match, its rallies and their summary.
func (s *Service) MatchDetail(ctx context.Context, id string) (model.MatchDetail, error) {
	m, err := s.store.GetMatch(ctx, id)
	if err != nil {
		return model.MatchDetail{}, err
	}
	rallies, err := s.store.ListRallies(ctx, id)
	if err != nil {
		return model.MatchDetail{}, err
	}
	return model.MatchDetail{Match: m, Rallies: rallies, Summary: summary.Summarize(rallies)}, nil
}

// AddRally inserts a rally at position (nil appends) and returns the recomputed list.
func (s *Service) AddRally(ctx context.Context, matchID string, f model.RallyFields, position *int) ([]model.Rally, error) {
	var r model.Rally
	r.Apply(f)
	return s.mutate(ctx, matchID, sequencer.Insert{Rally: r, Position: position})
}

// SubmitRally is AddRally guarded by a client submission key. A key already
// seen within the dedupe window inserts nothing and returns the current list
// with duplicate set. An empty key behaves like AddRally.
func (s *Service) SubmitRally(ctx context.Context, matchID, key string, f model.RallyFields, position *int) ([]model.Rally, bool, error) {
	if key == "" {
		list, err := s.AddRally(ctx, matchID, f, position)
		return list, false, err
	}
	scoped := matchID + "/" + key
	if s.deduper.SeenAndRecord(ctx, scoped) {
		metrics.RecordRallyMutation(sequencer.KindInsert, "duplicate")
		s.log().Info(ctx, "duplicate rally submission ignored",
			logger.String("matchID", matchID),
			logger.String("key", key),
		)
		d, err := s.MatchDetail(ctx, matchID)
		if err != nil {
			return nil, true, err
		}
		return d.Rallies, true, nil
	}
	list, err := s.AddRally(ctx, matchID, f, position)
	if err != nil {
		s.deduper.Unrecord(ctx, scoped)
		return nil, false, err
	}
	return list, false, nil
}

// UpdateRally edits a rally and returns the recomputed list.
func (s *Service) UpdateRally(ctx context.Context, matchID, rallyID string, f model.RallyFields) ([]model.Rally, error) {
	return s.mutate(ctx, matchID, sequencer.Update{RallyID: rallyID, Fields: f})
}

// DeleteRally removes a rally and returns the recomputed list.
func (s *Service) DeleteRally(ctx context.Context, matchID, rallyID string) ([]model.Rally, error) {
	return s.mutate(ctx, matchID, sequencer.Delete{RallyID: rallyID})
}

// ReplayMatch re-sequences a match without changing its rallies, repairing
// any drift in stored sequence numbers or scores.
func (s *Service) ReplayMatch(ctx context.Context, matchID string) (repository.MutationResult, error) {
	res, err := s.store.ApplyRallyMutation(ctx, matchID, sequencer.Replay{})
	if err != nil {
		return repository.MutationResult{}, err
	}
	if res.Written > 0 {
		s.log().Info(ctx, "match replayed",
			logger.String("matchID", matchID),
			logger.Int("rewritten", res.Written),
		)
	}
	return res, nil
}

func (s *Service) mutate(ctx context.Context, matchID string, m sequencer.Mutation) ([]model.Rally, error) {
	res, err := s.store.ApplyRallyMutation(ctx, matchID, m)
	if err != nil {
		return nil, err
	}
	return res.Rallies, nil
}

// Analysis aggregates the matches selected by f.
func (s *Service) Analysis(ctx context.Context, f repository.Filter) (model.AggregatedStats, error) {
	start := time.Now()
	rollups, err := s.store.ListRollups(ctx, f)
	if err != nil {
		return model.AggregatedStats{}, err
	}
	stats := aggregate.Aggregate(rollups, s.aggregateOpts...)
	metrics.RecordAnalysis(float64(time.Since(start).Milliseconds()), len(rollups))
	return stats, nil
}

// ExportMatch renders a match and its rallies as CSV.
func (s *Service) ExportMatch(ctx context.Context, id string) (export.File, error) {
	d, err := s.MatchDetail(ctx, id)
	if err != nil {
		return export.File{}, err
	}
	file, err := export.MatchFile(d.Match, d.Rallies)
	if err != nil {
		return export.File{}, fmt.Errorf("export match %s: %w", id, err)
	}
	metrics.RecordExport("csv")
	return file, nil
}

// ListOpponents returns stored opponents.
func (s *Service) ListOpponents(ctx context.Context, trainingOnly bool) ([]model.Opponent, error) {
	return s.store.ListOpponents(ctx, trainingOnly)
}

// CreateOpponent stores an opponent.
func (s *Service) CreateOpponent(ctx context.Context, in repository.OpponentInput) (model.Opponent, error) {
	return s.store.CreateOpponent(ctx, in)
}

// ListTournaments returns the most recent tournaments.
func (s *Service) ListTournaments(ctx context.Context) ([]model.Tournament, error) {
	return s.store.ListTournaments(ctx, s.listLimit)
}

// Reasons returns the reason catalogue offered by forms.
func (s *Service) Reasons() []string {
	return reason.Catalog()
}
