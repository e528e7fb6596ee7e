// Package provider implements roster.Provider over configuration, an HTTP
// endpoint or a SQLite table, plus retrying and instrumented wrappers.
package provider

import (
	"context"
	"slices"

	"github.com/okian/placar/internal/domain/roster"
)

// Static serves rosters from memory.
type Static struct {
	rosters map[string][]roster.Team
}

// NewStatic copies rosters keyed by championship id.
func NewStatic(rosters map[string][]roster.Team) *Static {
	s := &Static{rosters: make(map[string][]roster.Team, len(rosters))}
	for id, teams := range rosters {
		s.rosters[id] = slices.Clone(teams)
	}
	return s
}

// Teams implements roster.Provider. Unknown championships have no teams.
func (s *Static) Teams(_ context.Context, championshipID string) ([]roster.Team, error) {
	return slices.Clone(s.rosters[championshipID]), nil
}
