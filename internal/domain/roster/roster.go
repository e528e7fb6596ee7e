// Package roster describes the teams eligible for a championship and how a
// reloaded team list is reconciled with the current selections.
package roster

import (
	"context"
	"slices"
)

// Team is one selectable option.
type Team struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Provider returns the teams of a championship in display order.
type Provider interface {
	Teams(ctx context.Context, championshipID string) ([]Team, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, championshipID string) ([]Team, error)

// Teams implements Provider.
func (f ProviderFunc) Teams(ctx context.Context, championshipID string) ([]Team, error) {
	return f(ctx, championshipID)
}

// Contains reports whether id is one of the teams.
func Contains(teams []Team, id string) bool {
	return slices.ContainsFunc(teams, func(t Team) bool { return t.ID == id })
}

// Keep returns the selection to retain after a reload: the current id when it
// is still offered, otherwise empty.
func Keep(teams []Team, current string) string {
	if current != "" && Contains(teams, current) {
		return current
	}
	return ""
}
