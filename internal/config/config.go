// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers a YAML file and PLACAR_* environment variables on top.
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/placar/internal/domain/match"
	"github.com/okian/placar/internal/domain/roster"
)

// Roster sources.
const (
	RosterStatic = "static"
	RosterHTTP   = "http"
	RosterSQLite = "sqlite"
)

// ModalityConfig is one entry of the modality metadata.
type ModalityConfig struct {
	HasScore bool `koanf:"has_score"`
	HasSets  bool `koanf:"has_sets"`
}

// TeamConfig is one team of a static roster.
type TeamConfig struct {
	ID    string `koanf:"id"`
	Label string `koanf:"label"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// CommandQueueSize bounds the backlog of each form session.
	CommandQueueSize int `koanf:"command_queue_size"`

	// DedupeSize is how many change ids a session remembers.
	DedupeSize int `koanf:"dedupe_size"`

	// Session lifetime, in seconds.
	SessionIdleTimeoutS   int `koanf:"session_idle_timeout_s"`
	SessionMaxAgeS        int `koanf:"session_max_age_s"`
	SessionSweepIntervalS int `koanf:"session_sweep_interval_s"`

	// RosterSource selects static, http or sqlite.
	RosterSource        string `koanf:"roster_source"`
	RosterURL           string `koanf:"roster_url"`
	RosterTimeoutMS     int    `koanf:"roster_timeout_ms"`
	RosterRetryAttempts int    `koanf:"roster_retry_attempts"`
	RosterBackoffMS     int    `koanf:"roster_backoff_ms"`
	RosterDSN           string `koanf:"roster_dsn"`

	// MetricsEnabled turns the prometheus recorders on or off.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// MetricsRefreshIntervalS is how often the system gauges are refreshed.
	MetricsRefreshIntervalS int `koanf:"metrics_refresh_interval_s"`

	// Modalities is the modality metadata offered to every form.
	Modalities map[string]ModalityConfig `koanf:"modalities"`

	// Rosters feeds the static roster source, keyed by championship id.
	Rosters map[string][]TeamConfig `koanf:"rosters"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:                "info",
		LogFormat:               "text",
		Addr:                    ":9080",
		CommandQueueSize:        64,
		DedupeSize:              1024,
		SessionIdleTimeoutS:     1800,
		SessionMaxAgeS:          43200,
		SessionSweepIntervalS:   60,
		RosterSource:            RosterStatic,
		RosterTimeoutMS:         3000,
		RosterRetryAttempts:     3,
		RosterBackoffMS:         200,
		MetricsEnabled:          true,
		MetricsRefreshIntervalS: 10,
		Modalities: map[string]ModalityConfig{
			"futebol":       {HasScore: true},
			"futsal":        {HasScore: true},
			"handebol":      {HasScore: true},
			"basquete":      {HasScore: true},
			"voleibol":      {HasScore: true, HasSets: true},
			"tenis_de_mesa": {HasScore: true, HasSets: true},
			"xadrez":        {},
		},
		Rosters: map[string][]TeamConfig{},
	}
}

// Validate checks the settings that would otherwise fail late.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.CommandQueueSize < 1:
		return fmt.Errorf("%w: command_queue_size must be positive", ErrInvalidConfig)
	case c.MetricsRefreshIntervalS < 1:
		return fmt.Errorf("%w: metrics_refresh_interval_s must be positive", ErrInvalidConfig)
	}
	switch c.RosterSource {
	case RosterStatic:
	case RosterHTTP:
		if c.RosterURL == "" {
			return fmt.Errorf("%w: roster_url is required for the http roster source", ErrInvalidConfig)
		}
	case RosterSQLite:
		if c.RosterDSN == "" {
			return fmt.Errorf("%w: roster_dsn is required for the sqlite roster source", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown roster_source %q", ErrInvalidConfig, c.RosterSource)
	}
	return nil
}

// Metadata converts the modality table.
func (c *Config) Metadata() match.Metadata {
	mods := make([]match.Modality, 0, len(c.Modalities))
	for id, m := range c.Modalities {
		mods = append(mods, match.Modality{ID: match.ModalityID(id), HasScore: m.HasScore, HasSets: m.HasSets})
	}
	return match.NewMetadata(mods...)
}

// StaticRosters converts the static roster table.
func (c *Config) StaticRosters() map[string][]roster.Team {
	out := make(map[string][]roster.Team, len(c.Rosters))
	for id, teams := range c.Rosters {
		list := make([]roster.Team, 0, len(teams))
		for _, t := range teams {
			list = append(list, roster.Team{ID: t.ID, Label: t.Label})
		}
		out[id] = list
	}
	return out
}

// SessionIdleTimeout is how long an untouched session lives.
func (c *Config) SessionIdleTimeout() time.Duration {
	return time.Duration(c.SessionIdleTimeoutS) * time.Second
}

// SessionMaxAge caps a session's lifetime.
func (c *Config) SessionMaxAge() time.Duration {
	return time.Duration(c.SessionMaxAgeS) * time.Second
}

// SessionSweepInterval is how often expired sessions are evicted.
func (c *Config) SessionSweepInterval() time.Duration {
	return time.Duration(c.SessionSweepIntervalS) * time.Second
}

// RosterTimeout bounds one roster fetch.
func (c *Config) RosterTimeout() time.Duration {
	return time.Duration(c.RosterTimeoutMS) * time.Millisecond
}

// RosterBackoff is the base retry delay.
func (c *Config) RosterBackoff() time.Duration {
	return time.Duration(c.RosterBackoffMS) * time.Millisecond
}

// MetricsRefreshInterval is the system gauge refresh period.
func (c *Config) MetricsRefreshInterval() time.Duration {
	return time.Duration(c.MetricsRefreshIntervalS) * time.Second
}
