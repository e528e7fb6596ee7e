// Package scenario replays scripted field changes through the real form
// controller and checks the rendered result.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/placar/internal/domain/match"
)

// Sentinel kinds for scenario loading and replay.
var (
	ErrLoad     = errors.New("load scenario failed")
	ErrScenario = errors.New("invalid scenario")
)

// Modality flags one modality of the scenario's metadata.
type Modality struct {
	HasScore bool `koanf:"has_score"`
	HasSets  bool `koanf:"has_sets"`
}

// Expect lists what must hold after a render. Empty lists are not checked.
type Expect struct {
	Outcome  string            `koanf:"outcome"`
	State    string            `koanf:"state"`
	Visible  []string          `koanf:"visible"`
	Hidden   []string          `koanf:"hidden"`
	Required []string          `koanf:"required"`
	Optional []string          `koanf:"optional"`
	ReadOnly []string          `koanf:"read_only"`
	Values   map[string]string `koanf:"values"`
	Alerts   int               `koanf:"alerts"`
	Prompts  []string          `koanf:"prompts"`
}

// Step is one attempted write. Confirm answers any prompt it raises; when
// absent a prompt is declined.
type Step struct {
	Field   string `koanf:"field"`
	Value   string `koanf:"value"`
	Confirm *bool  `koanf:"confirm"`
	Expect  Expect `koanf:"expect"`
}

// Scenario is a starting form plus the steps applied to it.
type Scenario struct {
	Name        string              `koanf:"name"`
	Description string              `koanf:"description"`
	Modalities  map[string]Modality `koanf:"modalities"`
	Values      map[string]string   `koanf:"values"`
	Initial     Expect              `koanf:"initial"`
	Steps       []Step              `koanf:"steps"`

	path string
}

// Path returns the file the scenario was loaded from.
func (s *Scenario) Path() string { return s.path }

// Metadata builds the modality metadata of the scenario.
func (s *Scenario) Metadata() match.Metadata {
	mods := make([]match.Modality, 0, len(s.Modalities))
	for id, m := range s.Modalities {
		mods = append(mods, match.Modality{ID: match.ModalityID(id), HasScore: m.HasScore, HasSets: m.HasSets})
	}
	return match.NewMetadata(mods...)
}

// Validate checks that every field the scenario names exists.
func (s *Scenario) Validate() error {
	check := func(where string, names ...string) error {
		for _, n := range names {
			if _, err := match.ParseField(n); err != nil {
				return fmt.Errorf("%w: %s: %w", ErrScenario, where, err)
			}
		}
		return nil
	}
	checkExpect := func(where string, e Expect) error {
		for _, list := range [][]string{e.Visible, e.Hidden, e.Required, e.Optional, e.ReadOnly} {
			if err := check(where, list...); err != nil {
				return err
			}
		}
		for k := range e.Values {
			if err := check(where, k); err != nil {
				return err
			}
		}
		return nil
	}

	for k := range s.Values {
		if err := check("values", k); err != nil {
			return err
		}
	}
	if err := checkExpect("initial", s.Initial); err != nil {
		return err
	}
	for i, st := range s.Steps {
		where := fmt.Sprintf("step %d", i+1)
		if err := check(where, st.Field); err != nil {
			return err
		}
		if err := checkExpect(where, st.Expect); err != nil {
			return err
		}
	}
	return nil
}

// Load reads one YAML scenario.
func Load(path string) (*Scenario, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoad, path, err)
	}
	var s Scenario
	if err := k.UnmarshalWithConf("", &s, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoad, path, err)
	}
	if s.Name == "" {
		s.Name = filepath.Base(path)
	}
	s.path = path
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &s, nil
}

// LoadAll loads every path; a directory contributes its *.yaml files in
// name order.
func LoadAll(paths ...string) ([]*Scenario, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoad, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(p, "*.yaml"))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoad, err)
		}
		sort.Strings(matches)
		files = append(files, matches...)
	}

	out := make([]*Scenario, 0, len(files))
	for _, f := range files {
		s, err := Load(f)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
