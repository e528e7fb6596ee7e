package form

import (
	"github.com/okian/placar/internal/domain/match"
	"github.com/okian/placar/internal/domain/roster"
	"github.com/okian/placar/internal/domain/visibility"
)

// Accessor is the controller's handle on one live input.
type Accessor interface {
	Get() string
	Set(value string)
	Render(state visibility.FieldState)
}

// OptionsAccessor is a select whose options come from the roster.
type OptionsAccessor interface {
	Accessor
	SetOptions(teams []roster.Team)
}

// Bindings maps every form field to its input. The controller touches the
// surface only through this table.
type Bindings map[match.Field]Accessor

// Get returns the raw value of f, empty when f is unbound.
func (b Bindings) Get(f match.Field) string {
	if a, ok := b[f]; ok && a != nil {
		return a.Get()
	}
	return ""
}

// Snapshot reads the current values.
func (b Bindings) Snapshot() match.Snapshot {
	return match.Read(b.Get)
}

// Validate reports the first field without an accessor.
func (b Bindings) Validate() error {
	for _, f := range match.AllFields {
		if a, ok := b[f]; !ok || a == nil {
			return &UnboundError{Field: f}
		}
	}
	return nil
}
