package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig holds all application-level configuration loaded from environment variables.
type AppConfig struct {
	// Port is the HTTP server port. Defaults to 8870.
	Port int `envconfig:"PORT" default:"8870"`

	// DataDir is the root data directory. Defaults to ~/.matchday.
	DataDir string `envconfig:"MATCHDAY_DATA_DIR"`

	// LogLevel sets the minimum log level (debug, info, warn, error). Defaults to info.
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// UpstreamBaseURL is the sports data API endpoint.
	UpstreamBaseURL string `envconfig:"MATCHDAY_UPSTREAM_URL" default:"https://api.sportsdata.example.com/v2"`

	// UpstreamAPIKey authenticates requests to the upstream API.
	UpstreamAPIKey string `envconfig:"MATCHDAY_UPSTREAM_API_KEY"`

	// UpstreamTimeoutSeconds bounds each upstream request.
	UpstreamTimeoutSeconds int `envconfig:"MATCHDAY_UPSTREAM_TIMEOUT_SECONDS" default:"10"`

	// PollIntervalSeconds is the detection cycle cadence.
	PollIntervalSeconds int `envconfig:"MATCHDAY_POLL_INTERVAL_SECONDS" default:"60"`

	// UpcomingLookaheadMinutes is how far ahead of kickoff an upcoming-fixture
	// notification fires.
	UpcomingLookaheadMinutes int `envconfig:"MATCHDAY_UPCOMING_LOOKAHEAD_MINUTES" default:"30"`

	// NotificationCap bounds the notification inbox.
	NotificationCap int `envconfig:"MATCHDAY_NOTIFICATION_CAP" default:"50"`

	// NotificationTTLHours is how long an inbox entry lives before eviction.
	NotificationTTLHours int `envconfig:"MATCHDAY_NOTIFICATION_TTL_HOURS" default:"48"`

	// SearchIndexMaxAgeHours is how long a persisted search index snapshot
	// stays usable.
	SearchIndexMaxAgeHours int `envconfig:"MATCHDAY_SEARCH_INDEX_MAX_AGE_HOURS" default:"24"`

	// CORSOrigins lists allowed browser origins for the dashboard frontend.
	CORSOrigins []string `envconfig:"MATCHDAY_CORS_ORIGINS" default:"http://localhost:5173"`
}

// Load reads AppConfig from environment variables using envconfig.
// DataDir defaults to ~/.matchday if not set.
func Load() (*AppConfig, error) {
	var c AppConfig
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		c.DataDir = filepath.Join(home, ".matchday")
	}
	return &c, nil
}

// SlogLevel converts the LogLevel string to a slog.Level.
// Unknown values default to slog.LevelInfo.
func (c *AppConfig) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogDir returns the path to the log directory (~/.matchday/logs).
func (c *AppConfig) LogDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// DBPath returns the path to the SQLite database file.
func (c *AppConfig) DBPath() string {
	return filepath.Join(c.DataDir, "matchday.db")
}

// StateDir returns the legacy file-per-key state directory, migrated into
// SQLite on startup.
func (c *AppConfig) StateDir() string {
	return filepath.Join(c.DataDir, "state")
}

// LeaguesFile returns the path to the league registry YAML file.
func (c *AppConfig) LeaguesFile() string {
	return filepath.Join(c.DataDir, "leagues.yaml")
}

// UpstreamTimeout returns the per-request upstream timeout.
func (c *AppConfig) UpstreamTimeout() time.Duration {
	return time.Duration(c.UpstreamTimeoutSeconds) * time.Second
}

// PollInterval returns the detection cycle cadence.
func (c *AppConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// UpcomingLookahead returns the upcoming-fixture window.
func (c *AppConfig) UpcomingLookahead() time.Duration {
	return time.Duration(c.UpcomingLookaheadMinutes) * time.Minute
}

// NotificationTTL returns the inbox entry lifetime.
func (c *AppConfig) NotificationTTL() time.Duration {
	return time.Duration(c.NotificationTTLHours) * time.Hour
}

// SearchIndexMaxAge returns the search index snapshot lifetime.
func (c *AppConfig) SearchIndexMaxAge() time.Duration {
	return time.Duration(c.SearchIndexMaxAgeHours) * time.Hour
}
