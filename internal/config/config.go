// Package config defines process configuration and its loading hooks.
//
// Conventions:
// - New() returns a Config populated with defaults.
// - Load(ctx) layers defaults, an optional YAML file and BULLSEYE_ env vars.
// - Validation failures wrap ErrInvalidConfig.
package config

import "time"

// Filter store backends.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogJSON switches log output to JSON lines.
	LogJSON bool `koanf:"log_json"`

	// Addr configures the control API listen address, e.g. ":9180".
	Addr string `koanf:"addr"`

	// BackendURL is the base URL of the scoring backend.
	BackendURL string `koanf:"backend_url"`

	// HTTPTimeoutMS bounds every backend round trip.
	HTTPTimeoutMS int `koanf:"http_timeout_ms"`

	// DebounceMS is the quiet period applied to interactive filter changes.
	DebounceMS int `koanf:"debounce_ms"`

	// FilterStore selects the persisted filter backend: memory, sqlite, postgres.
	FilterStore string `koanf:"filter_store"`

	// SQLitePath is the database file used by the sqlite filter store.
	SQLitePath string `koanf:"sqlite_path"`

	// PostgresDSN is the connection string used by the postgres filter store.
	PostgresDSN string `koanf:"postgres_dsn"`

	// FilterKey names the single persisted filter record.
	FilterKey string `koanf:"filter_key"`

	// AnalyticsPath is the page path published URLs are rewritten onto.
	AnalyticsPath string `koanf:"analytics_path"`

	// QueueSize bounds the command queue in front of the dispatcher.
	QueueSize int `koanf:"queue_size"`

	// NoticeLimit caps the user-facing message list.
	NoticeLimit int `koanf:"notice_limit"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:      "info",
		Addr:          ":9180",
		BackendURL:    "http://localhost:5000",
		HTTPTimeoutMS: 15_000,
		DebounceMS:    300,
		FilterStore:   StoreMemory,
		SQLitePath:    "bullseye.db",
		FilterKey:     "analyticsFilters",
		AnalyticsPath: "/analytics",
		QueueSize:     64,
		NoticeLimit:   20,
	}
}

// HTTPTimeout returns the backend timeout as a duration.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutMS) * time.Millisecond
}

// Debounce returns the filter debounce quiet period.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}
