// Package condition models timed status effects (blinded, poisoned, slowed, ...)
// applied to units during a battle. Durations are measured in ticks; damage and
// healing over time land once every PulseInterval ticks.
package condition

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// PulseInterval is the number of ticks between damage/heal-over-time pulses.
const PulseInterval = 10

// Well-known condition ids referenced by the engine.
const (
	Blinded      = "blinded"
	Poisoned     = "poisoned"
	Slowed       = "slowed"
	Stunned      = "stunned"
	Inspired     = "inspired"
	Regenerating = "regenerating"
	Suppressed   = "suppressed"
)

// ConditionDef is the static definition of a condition, loaded from YAML.
type ConditionDef struct {
	ID             string `yaml:"id"`
	Name           string `yaml:"name"`
	Description    string `yaml:"description"`
	MaxStacks      int    `yaml:"max_stacks"` // 0 = unstackable
	AimPenalty     int    `yaml:"aim_penalty"`
	AimBonus       int    `yaml:"aim_bonus"`
	DodgePenalty   int    `yaml:"dodge_penalty"`
	SpeedPenalty   int    `yaml:"speed_penalty"`
	DamagePerPulse int    `yaml:"damage_per_pulse"`
	HealPerPulse   int    `yaml:"heal_per_pulse"`
	SkipTurn       bool   `yaml:"skip_turn"`
}

// Validate checks the definition's invariants.
func (d *ConditionDef) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("ID must not be empty"))
	}
	if d.Name == "" {
		errs = append(errs, errors.New("Name must not be empty"))
	}
	if d.MaxStacks < 0 {
		errs = append(errs, errors.New("MaxStacks must be >= 0"))
	}
	if d.DamagePerPulse < 0 || d.HealPerPulse < 0 {
		errs = append(errs, errors.New("per-pulse amounts must be >= 0"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("condition validation failed: %v", errs)
	}
	return nil
}

// Registry holds all known ConditionDefs keyed by ID.
type Registry struct {
	defs map[string]*ConditionDef
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*ConditionDef)}
}

// Register adds def to the registry, overwriting any existing entry with the same ID.
// Precondition: def must not be nil and def.ID must not be empty.
func (r *Registry) Register(def *ConditionDef) {
	r.defs[def.ID] = def
}

// Get returns the ConditionDef for id, or (nil, false) if not found.
func (r *Registry) Get(id string) (*ConditionDef, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// All returns every registered ConditionDef sorted by ID.
func (r *Registry) All() []*ConditionDef {
	out := make([]*ConditionDef, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LoadDirectory reads every *.yaml file in dir and returns a populated Registry.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a non-nil Registry, or an error if any file fails to parse or validate.
func LoadDirectory(dir string) (*Registry, error) {
	return loadFS(os.DirFS(dir), ".", dir)
}

// Builtin returns the registry of conditions compiled into the binary.
func Builtin() *Registry {
	reg, err := loadFS(builtinFS, "builtin", "builtin")
	if err != nil {
		panic("condition: builtin definitions are invalid: " + err.Error())
	}
	return reg
}

func loadFS(fsys fs.FS, dir, label string) (*Registry, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("reading condition dir %q: %w", label, err)
	}
	reg := NewRegistry()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		p := path.Join(dir, e.Name())
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", p, err)
		}
		var def ConditionDef
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", p, err)
		}
		if err := def.Validate(); err != nil {
			return nil, fmt.Errorf("invalid condition in %q: %w", p, err)
		}
		reg.Register(&def)
	}
	return reg, nil
}
