// Package surface is an in-memory rendition of the match-entry form: the
// values, presentation flags and select options a browser would hold.
package surface

import (
	"maps"
	"sync"

	"github.com/okian/placar/internal/app/form"
	"github.com/okian/placar/internal/domain/match"
	"github.com/okian/placar/internal/domain/roster"
	"github.com/okian/placar/internal/domain/visibility"
)

// Form holds one input per field.
type Form struct {
	mu      sync.RWMutex
	values  map[match.Field]string
	states  map[match.Field]visibility.FieldState
	options []roster.Team
	writes  int
}

// New returns a form seeded with initial raw values. Unknown keys are ignored.
func New(initial map[match.Field]string) *Form {
	f := &Form{
		values: make(map[match.Field]string, len(match.AllFields)),
		states: make(map[match.Field]visibility.FieldState, len(match.AllFields)),
	}
	for k, v := range initial {
		if k.Known() {
			f.values[k] = v
		}
	}
	return f
}

// Bindings returns the accessor table the controller drives.
func (f *Form) Bindings() form.Bindings {
	b := make(form.Bindings, len(match.AllFields))
	for _, field := range match.AllFields {
		in := &input{form: f, field: field}
		if field.IsTeam() {
			b[field] = &teamSelect{input: in}
			continue
		}
		b[field] = in
	}
	return b
}

// View is a copy of everything the operator would see.
type View struct {
	Values  map[string]string                `json:"values"`
	Fields  map[string]visibility.FieldState `json:"fields"`
	Options []roster.Team                    `json:"team_options"`
}

// View copies the current state.
func (f *Form) View() View {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v := View{
		Values:  make(map[string]string, len(f.values)),
		Fields:  make(map[string]visibility.FieldState, len(match.ManagedFields)),
		Options: append([]roster.Team(nil), f.options...),
	}
	for k, val := range f.values {
		v.Values[string(k)] = val
	}
	for _, k := range match.ManagedFields {
		v.Fields[string(k)] = f.states[k]
	}
	return v
}

// Values copies the raw values.
func (f *Form) Values() map[match.Field]string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return maps.Clone(f.values)
}

// Value returns one raw value.
func (f *Form) Value(field match.Field) string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.values[field]
}

// State returns the presentation of one field.
func (f *Form) State(field match.Field) visibility.FieldState {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.states[field]
}

// Options returns the current team options.
func (f *Form) Options() []roster.Team {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]roster.Team(nil), f.options...)
}

// Writes counts value writes that changed something.
func (f *Form) Writes() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.writes
}

type input struct {
	form  *Form
	field match.Field
}

func (in *input) Get() string {
	return in.form.Value(in.field)
}

func (in *input) Set(value string) {
	in.form.mu.Lock()
	defer in.form.mu.Unlock()
	if in.form.values[in.field] == value {
		return
	}
	if value == "" {
		delete(in.form.values, in.field)
	} else {
		in.form.values[in.field] = value
	}
	in.form.writes++
}

func (in *input) Render(state visibility.FieldState) {
	in.form.mu.Lock()
	defer in.form.mu.Unlock()
	in.form.states[in.field] = state
}

// teamSelect shares one option list across the four team selects, which the
// roster always fills together.
type teamSelect struct {
	*input
}

func (s *teamSelect) SetOptions(teams []roster.Team) {
	s.form.mu.Lock()
	defer s.form.mu.Unlock()
	s.form.options = append([]roster.Team(nil), teams...)
}
