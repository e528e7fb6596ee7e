package match

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ModalityID identifies a sport/competition format.
type ModalityID string

// Modality describes which scoring inputs a format uses.
type Modality struct {
	ID       ModalityID `json:"id"`
	HasScore bool       `json:"has_score"`
	HasSets  bool       `json:"has_sets"`
}

// Metadata is the read-only modality lookup built once per form.
// The zero value is an empty mapping.
type Metadata struct {
	modalities map[ModalityID]Modality
}

// NewMetadata indexes the given modalities by id. Later duplicates win.
func NewMetadata(mods ...Modality) Metadata {
	m := Metadata{modalities: make(map[ModalityID]Modality, len(mods))}
	for _, mod := range mods {
		m.modalities[mod.ID] = mod
	}
	return m
}

// Lookup returns the modality; unknown ids have neither score nor sets.
func (m Metadata) Lookup(id ModalityID) Modality {
	if mod, ok := m.modalities[id]; ok {
		return mod
	}
	return Modality{ID: id}
}

// Len returns the number of configured modalities.
func (m Metadata) Len() int { return len(m.modalities) }

// List returns the modalities sorted by id.
func (m Metadata) List() []Modality {
	out := make([]Modality, 0, len(m.modalities))
	for _, mod := range m.modalities {
		out = append(out, mod)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ParseMetadata builds Metadata from the two JSON maps the back office embeds
// (modality id -> has score, modality id -> has sets). A malformed or empty
// map is treated as empty; the returned error is informational only and the
// Metadata is always usable.
func ParseMetadata(hasScoreJSON, hasSetsJSON []byte) (Metadata, error) {
	scores, errScore := parseFlagMap(hasScoreJSON)
	if errScore != nil {
		errScore = fmt.Errorf("has score map: %w", errScore)
	}
	sets, errSets := parseFlagMap(hasSetsJSON)
	if errSets != nil {
		errSets = fmt.Errorf("has sets map: %w", errSets)
	}

	ids := make(map[ModalityID]struct{}, len(scores)+len(sets))
	for id := range scores {
		ids[id] = struct{}{}
	}
	for id := range sets {
		ids[id] = struct{}{}
	}
	mods := make([]Modality, 0, len(ids))
	for id := range ids {
		mods = append(mods, Modality{ID: id, HasScore: scores[id], HasSets: sets[id]})
	}
	return NewMetadata(mods...), errors.Join(errScore, errSets)
}

func parseFlagMap(raw []byte) (map[ModalityID]bool, error) {
	out := map[ModalityID]bool{}
	if len(raw) == 0 {
		return out, nil
	}
	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return map[ModalityID]bool{}, fmt.Errorf("%w: %w", ErrMalformedMetadata, err)
	}
	for id, v := range generic {
		out[ModalityID(id)] = truthy(v)
	}
	return out, nil
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return ParseBool(t)
	default:
		return false
	}
}
