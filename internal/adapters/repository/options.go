package repository

import (
	"time"

	"github.com/okian/rallylog/pkg/logger"
)

// Option applies a configuration option to the GormStore.
type Option func(*GormStore)

// WithLogger sets the logger used for store and SQL logging.
func WithLogger(l logger.Logger) Option {
	return func(s *GormStore) {
		if l != nil {
			s.log = l
		}
	}
}

// WithSlowThreshold sets the duration above which SQL statements are logged as slow.
func WithSlowThreshold(d time.Duration) Option {
	return func(s *GormStore) {
		if d > 0 {
			s.slowThreshold = d
		}
	}
}

// WithMaxAnalysisMatches caps how many matches ListRollups returns.
func WithMaxAnalysisMatches(n int) Option {
	return func(s *GormStore) {
		if n > 0 {
			s.maxAnalysisMatches = n
		}
	}
}

// WithClock overrides the time source used for created_at values.
func WithClock(now func() time.Time) Option {
	return func(s *GormStore) {
		if now != nil {
			s.now = now
		}
	}
}
