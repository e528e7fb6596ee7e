package provider

import (
	"context"
	"time"

	"github.com/okian/placar/internal/domain/roster"
	"github.com/okian/placar/pkg/logger"
)

const (
	defaultRetryAttempts = 3
	defaultBackoff       = 200 * time.Millisecond
)

type backoffFunc func(attempt int) time.Duration

// retrying wraps a provider with attempt-scaled backoff.
type retrying struct {
	inner       roster.Provider
	logger      logger.Logger
	maxAttempts int
	backoffFn   backoffFunc
}

// NewRetrying wraps inner with retries. Non-positive values use defaults.
func NewRetrying(inner roster.Provider, l logger.Logger, maxAttempts int, backoff time.Duration) roster.Provider {
	if maxAttempts <= 0 {
		maxAttempts = defaultRetryAttempts
	}
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	if l == nil {
		l = logger.Get().Named("roster")
	}
	return &retrying{
		inner:       inner,
		logger:      l,
		maxAttempts: maxAttempts,
		backoffFn: func(attempt int) time.Duration {
			return time.Duration(attempt) * backoff
		},
	}
}

func (r *retrying) Teams(ctx context.Context, championshipID string) ([]roster.Team, error) {
	var lastErr error

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		teams, err := r.inner.Teams(ctx, championshipID)
		if err == nil {
			return teams, nil
		}
		lastErr = err

		if attempt == r.maxAttempts {
			break
		}

		r.logger.Warn(ctx, "roster fetch retry",
			logger.Int("attempt", attempt),
			logger.Int("max_attempts", r.maxAttempts),
			logger.Error(err),
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.backoffFn(attempt)):
		}
	}

	r.logger.Warn(ctx, "roster fetch failed",
		logger.Int("attempts", r.maxAttempts),
		logger.Error(lastErr),
	)
	return nil, lastErr
}
