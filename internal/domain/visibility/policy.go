// Package visibility derives which form fields are shown, required and
// locked from a match snapshot and the modality metadata.
package visibility

import (
	"strings"

	"github.com/okian/placar/internal/domain/match"
)

// FieldState is the presentation of a single field. The zero value is
// hidden, optional and editable.
type FieldState struct {
	Visible  bool `json:"visible"`
	Required bool `json:"required"`
	ReadOnly bool `json:"read_only"`
}

func (s FieldState) String() string {
	if !s.Visible {
		return "hidden"
	}
	parts := []string{"visible"}
	if s.Required {
		parts = append(parts, "required")
	}
	if s.ReadOnly {
		parts = append(parts, "read-only")
	}
	return strings.Join(parts, ",")
}

// Policy maps fields to their state. Absent fields are hidden.
type Policy struct {
	fields map[match.Field]FieldState
}

// State returns the state of f.
func (p Policy) State(f match.Field) FieldState {
	return p.fields[f]
}

// Visible lists visible fields in form order.
func (p Policy) Visible() []match.Field {
	var out []match.Field
	for _, f := range match.ManagedFields {
		if p.fields[f].Visible {
			out = append(out, f)
		}
	}
	return out
}

// Map returns a copy keyed by wire name, covering every managed field.
func (p Policy) Map() map[string]FieldState {
	out := make(map[string]FieldState, len(match.ManagedFields))
	for _, f := range match.ManagedFields {
		out[string(f)] = p.fields[f]
	}
	return out
}

// Equal compares two policies field by field.
func (p Policy) Equal(other Policy) bool {
	for _, f := range match.ManagedFields {
		if p.fields[f] != other.fields[f] {
			return false
		}
	}
	return true
}

func (p *Policy) show(f match.Field, required bool) {
	if p.fields == nil {
		p.fields = make(map[match.Field]FieldState, len(match.ManagedFields))
	}
	st := p.fields[f]
	st.Visible = true
	st.Required = st.Required || required
	p.fields[f] = st
}

func (p *Policy) lock(f match.Field) {
	st := p.fields[f]
	st.ReadOnly = true
	p.fields[f] = st
}
