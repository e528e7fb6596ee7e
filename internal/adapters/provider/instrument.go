package provider

import (
	"context"
	"time"

	"github.com/okian/placar/internal/domain/roster"
	"github.com/okian/placar/pkg/metrics"
)

// instrumented records fetch outcomes and skips the fetch for an empty
// championship id.
type instrumented struct {
	inner roster.Provider
}

// Instrument wraps p with fetch metrics.
func Instrument(p roster.Provider) roster.Provider {
	return &instrumented{inner: p}
}

func (i *instrumented) Teams(ctx context.Context, championshipID string) ([]roster.Team, error) {
	if championshipID == "" {
		return nil, nil
	}
	start := time.Now()
	teams, err := i.inner.Teams(ctx, championshipID)
	latency := float64(time.Since(start).Milliseconds())
	if err != nil {
		metrics.RecordRosterFetch("error", latency)
		metrics.RecordErrorByComponent("roster", "fetch_failed")
		return nil, err
	}
	metrics.RecordRosterFetch("ok", latency)
	return teams, nil
}
