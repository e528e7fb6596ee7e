package provider

import (
	"context"
	"fmt"

	"github.com/okian/placar/internal/config"
	"github.com/okian/placar/internal/domain/roster"
	"github.com/okian/placar/pkg/logger"
)

// FromConfig builds the configured roster source wrapped with retries and
// metrics. The returned close function releases any underlying resources.
func FromConfig(ctx context.Context, cfg *config.Config, l logger.Logger) (roster.Provider, func() error, error) {
	var (
		base    roster.Provider
		closeFn = func() error { return nil }
	)
	switch cfg.RosterSource {
	case config.RosterStatic:
		base = NewStatic(cfg.StaticRosters())
	case config.RosterHTTP:
		base = NewHTTP(HTTPConfig{URL: cfg.RosterURL, Timeout: cfg.RosterTimeout()})
	case config.RosterSQLite:
		db, err := OpenSQLite(ctx, cfg.RosterDSN)
		if err != nil {
			return nil, nil, err
		}
		// Seed from the static table so a fresh database is usable.
		for id, teams := range cfg.StaticRosters() {
			if err := db.Upsert(ctx, id, teams); err != nil {
				_ = db.Close()
				return nil, nil, err
			}
		}
		base, closeFn = db, db.Close
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownSource, cfg.RosterSource)
	}
	if cfg.RosterSource != config.RosterStatic {
		base = NewRetrying(base, l, cfg.RosterRetryAttempts, cfg.RosterBackoff())
	}
	return Instrument(base), closeFn, nil
}
