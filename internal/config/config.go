// Package config defines service configuration and its loading.
//
// Values are layered: defaults from New, then an optional .env file, then an
// optional YAML file, then RALLYLOG_* environment variables.
package config

import "time"

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat is "text" or "json".
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBDriver selects the gorm dialector: sqlite, postgres or mysql.
	DBDriver string `koanf:"db_driver"`

	// DBDSN is the driver specific data source name. For sqlite it is a file path.
	DBDSN string `koanf:"db_dsn"`

	// DBSlowQueryMS marks queries slower than this as warnings.
	DBSlowQueryMS int `koanf:"db_slow_query_ms"`

	// TopReasons is how many reasons get a per-match series on the analysis page.
	TopReasons int `koanf:"top_reasons"`

	// OpponentLimit caps the opponent table on the analysis page.
	OpponentLimit int `koanf:"opponent_limit"`

	// MaxAnalysisMatches caps how many matches one analysis reads.
	MaxAnalysisMatches int `koanf:"max_analysis_matches"`

	// ExcludedWinReasons are left out of win-reason shares.
	ExcludedWinReasons []string `koanf:"excluded_win_reasons"`

	// StatsRefreshSeconds is the period of the inventory gauge job.
	StatsRefreshSeconds int `koanf:"stats_refresh_seconds"`

	// DedupeSize caps remembered rally submission keys; <= 0 is unbounded.
	DedupeSize int `koanf:"dedupe_size"`

	// DedupeTTLSeconds is how long a submission key is remembered.
	DedupeTTLSeconds int `koanf:"dedupe_ttl_seconds"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		DBDriver:            DriverSQLite,
		DBDSN:               "rallylog.db",
		DBSlowQueryMS:       200,
		TopReasons:          5,
		OpponentLimit:       10,
		MaxAnalysisMatches:  200,
		ExcludedWinReasons:  []string{},
		StatsRefreshSeconds: 30,
		DedupeSize:          50000,
		DedupeTTLSeconds:    600,
	}
}

// SlowQueryThreshold is DBSlowQueryMS as a duration.
func (c *Config) SlowQueryThreshold() time.Duration {
	return time.Duration(c.DBSlowQueryMS) * time.Millisecond
}

// StatsRefreshInterval is StatsRefreshSeconds as a duration.
func (c *Config) StatsRefreshInterval() time.Duration {
	return time.Duration(c.StatsRefreshSeconds) * time.Second
}

// DedupeTTL is DedupeTTLSeconds as a duration.
func (c *Config) DedupeTTL() time.Duration {
	return time.Duration(c.DedupeTTLSeconds) * time.Second
}
