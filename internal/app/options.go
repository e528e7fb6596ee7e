package service

import (
	"time"

	"github.com/okian/placar/internal/config"
	"github.com/okian/placar/internal/domain/match"
	"github.com/okian/placar/internal/domain/roster"
	"github.com/okian/placar/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig copies queue, dedupe, session and modality settings from cfg.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg == nil {
			return
		}
		WithQueueSize(cfg.CommandQueueSize)(s)
		WithDedupeSize(cfg.DedupeSize)(s)
		WithSessionTimeouts(cfg.SessionIdleTimeout(), cfg.SessionMaxAge(), cfg.SessionSweepInterval())(s)
		s.meta = cfg.Metadata()
	}
}

// WithQueueSize sets the per-session command backlog.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many change ids each session remembers.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithSessionTimeouts sets idle expiry, maximum age and sweep cadence.
func WithSessionTimeouts(idle, maxAge, sweep time.Duration) Option {
	return func(s *Service) {
		if idle > 0 {
			s.idleTimeout = idle
		}
		if maxAge > 0 {
			s.maxAge = maxAge
		}
		if sweep > 0 {
			s.sweepInterval = sweep
		}
	}
}

// WithMetadata sets the modality metadata offered to new forms.
func WithMetadata(meta match.Metadata) Option {
	return func(s *Service) {
		s.meta = meta
	}
}

// WithProvider sets the roster source.
func WithProvider(p roster.Provider) Option {
	return func(s *Service) {
		if p != nil {
			s.provider = p
		}
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
