package service

import (
	"context"

	"github.com/okian/rallylog/internal/adapters/repository"
	"github.com/okian/rallylog/internal/config"
	"github.com/okian/rallylog/internal/domain/aggregate"
	"github.com/okian/rallylog/internal/domain/dedupe"
	"github.com/okian/rallylog/pkg/logger"
)

// OpenStore opens the configured database.
func OpenStore(ctx context.Context, cfg *config.Config) (*repository.GormStore, error) {
	return repository.Open(ctx, cfg.DBDriver, cfg.DBDSN,
		repository.WithLogger(logger.Named("store")),
		repository.WithSlowThreshold(cfg.SlowQueryThreshold()),
		repository.WithMaxAnalysisMatches(cfg.MaxAnalysisMatches),
	)
}

// OptionsFromConfig maps the configuration onto service options.
func OptionsFromConfig(cfg *config.Config) []Option {
	return []Option{
		WithRefreshInterval(cfg.StatsRefreshInterval()),
		WithDeduper(dedupe.NewInMemoryDeduper(
			dedupe.WithMaxSize(cfg.DedupeSize),
			dedupe.WithTTL(cfg.DedupeTTL()),
		)),
		WithAggregateOptions(
			aggregate.WithTopN(cfg.TopReasons),
			aggregate.WithOpponentLimit(cfg.OpponentLimit),
			aggregate.WithExcludedWinReasons(cfg.ExcludedWinReasons...),
		),
	}
}
