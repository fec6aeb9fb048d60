package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/okian/rallylog/pkg/logger"
	"github.com/okian/rallylog/pkg/metrics"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

const (
	defaultSlowThreshold      = 200 * time.Millisecond
	defaultMaxAnalysisMatches = 200
)

// GormStore implements Store on top of gorm.
type GormStore struct {
	db     *gorm.DB
	driver string

	log                logger.Logger
	slowThreshold      time.Duration
	maxAnalysisMatches int
	now                func() time.Time
}

var _ Store = (*GormStore)(nil)

// Open connects to the database, migrates the schema and returns a store.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*GormStore, error) {
	s := &GormStore{
		driver:             driver,
		slowThreshold:      defaultSlowThreshold,
		maxAnalysisMatches: defaultMaxAnalysisMatches,
		now:                time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Named("repository")
	}

	dialector, err := dialectorFor(driver, dsn)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  newGormLogger(s.log, s.slowThreshold),
		NowFunc: func() time.Time { return s.now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		// One writer at a time; concurrent transactions would fail with SQLITE_BUSY.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", driver, err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	s.db = db
	if err := s.migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	s.log.Info(ctx, "store opened", logger.String("driver", driver))
	return s, nil
}

func dialectorFor(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case DriverSQLite:
		return sqlite.Open(dsn), nil
	case DriverPostgres:
		return postgres.Open(dsn), nil
	case DriverMySQL:
		return mysql.Open(dsn), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

func (s *GormStore) migrate(ctx context.Context) error {
	err := s.db.WithContext(ctx).AutoMigrate(
		&opponentEntity{},
		&tournamentEntity{},
		&matchEntity{},
		&rallyEntity{},
	)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Counts returns the number of stored rows per entity.
func (s *GormStore) Counts(ctx context.Context) (Counts, error) {
	defer s.observe("counts", time.Now())
	var c Counts
	db := s.db.WithContext(ctx)
	for _, q := range []struct {
		model any
		dst   *int64
	}{
		{&matchEntity{}, &c.Matches},
		{&rallyEntity{}, &c.Rallies},
		{&opponentEntity{}, &c.Opponents},
		{&tournamentEntity{}, &c.Tournaments},
	} {
		if err := db.Model(q.model).Count(q.dst).Error; err != nil {
			return Counts{}, s.fail("counts", err)
		}
	}
	return c, nil
}

func (s *GormStore) observe(op string, start time.Time) {
	metrics.RecordStoreQuery(op, float64(time.Since(start).Microseconds())/1000)
}

// fail wraps err with the operation name. gorm.ErrRecordNotFound becomes
// ErrNotFound; only failures that are not caller mistakes count as store errors.
func (s *GormStore) fail(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if !isNotFound(err) && !isInvalid(err) {
		metrics.RecordStoreError(op)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *GormStore) newID() string { return uuid.NewString() }

func (s *GormStore) timestamp() time.Time { return s.now().UTC() }
