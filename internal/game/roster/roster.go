// Package roster loads squad definitions from YAML and expands them into the
// units handed to the battle simulator.
package roster

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/skirmish/internal/game/catalog"
	"github.com/cory-johannsen/skirmish/internal/game/unit"
)

// Class is a reusable unit archetype shared by the members of a squad file.
type Class struct {
	Stats   unit.Stats   `yaml:"stats"`
	Skills  []string     `yaml:"skills"`
	Tactics unit.Tactics `yaml:"tactics"`
}

// Member is one squad entry. Stats left at zero fall back to the member's
// class; skills are the class skills followed by the member's own. Count
// expands the entry into that many units with ids suffixed -1, -2, ...
type Member struct {
	ID      string        `yaml:"id"`
	Name    string        `yaml:"name"`
	Class   string        `yaml:"class"`
	Level   int           `yaml:"level"`
	Count   int           `yaml:"count"`
	Stats   unit.Stats    `yaml:"stats"`
	Skills  []string      `yaml:"skills"`
	Tactics *unit.Tactics `yaml:"tactics"`
}

// Squad is a named list of members loaded from one YAML file.
type Squad struct {
	Name    string            `yaml:"name"`
	Classes map[string]*Class `yaml:"classes"`
	Members []*Member         `yaml:"members"`
}

// Validate checks the squad against cat.
//
// Precondition: s and cat must not be nil.
// Postcondition: Returns nil iff the squad has a name, every member has an id
// and a known class or positive HP, counts and levels are non-negative, ids are
// unique after expansion, and every skill id resolves in cat. Otherwise returns
// every violation joined.
func (s *Squad) Validate(cat *catalog.Catalog) error {
	var errs []error
	if s.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	for name, c := range s.Classes {
		if c == nil {
			errs = append(errs, fmt.Errorf("class %q is empty", name))
			continue
		}
		for _, id := range c.Skills {
			if _, ok := cat.Get(id); !ok {
				errs = append(errs, fmt.Errorf("class %q: unknown skill %q", name, id))
			}
		}
	}
	seen := make(map[string]bool)
	for i, m := range s.Members {
		if m == nil || m.ID == "" {
			errs = append(errs, fmt.Errorf("member %d: id must not be empty", i))
			continue
		}
		if m.Count < 0 || m.Level < 0 {
			errs = append(errs, fmt.Errorf("member %q: count and level must be >= 0", m.ID))
		}
		var class *Class
		if m.Class != "" {
			class = s.Classes[m.Class]
			if class == nil {
				errs = append(errs, fmt.Errorf("member %q: unknown class %q", m.ID, m.Class))
			}
		}
		if m.Stats.HP <= 0 && (class == nil || class.Stats.HP <= 0) {
			errs = append(errs, fmt.Errorf("member %q: hp must be > 0", m.ID))
		}
		for _, id := range m.Skills {
			if _, ok := cat.Get(id); !ok {
				errs = append(errs, fmt.Errorf("member %q: unknown skill %q", m.ID, id))
			}
		}
		for _, id := range m.ids() {
			if seen[id] {
				errs = append(errs, fmt.Errorf("duplicate unit id %q", id))
			}
			seen[id] = true
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("squad %q: %w", s.Name, errors.Join(errs...))
	}
	return nil
}

func (m *Member) ids() []string {
	if m.Count <= 1 {
		return []string{m.ID}
	}
	out := make([]string, m.Count)
	for i := range out {
		out[i] = fmt.Sprintf("%s-%d", m.ID, i+1)
	}
	return out
}

// Units expands the squad into fresh units in member order.
//
// Precondition: s.Validate returned nil.
// Postcondition: Each call returns newly allocated units.
func (s *Squad) Units() []*unit.Unit {
	var out []*unit.Unit
	for _, m := range s.Members {
		class := s.Classes[m.Class]
		ids := m.ids()
		for i, id := range ids {
			u := &unit.Unit{
				ID:    id,
				Name:  m.Name,
				Class: m.Class,
				Level: max(1, m.Level),
				Stats: merge(m.Stats, class),
			}
			if u.Name == "" {
				u.Name = id
			} else if len(ids) > 1 {
				u.Name = fmt.Sprintf("%s %d", m.Name, i+1)
			}
			if class != nil {
				u.Tactics = class.Tactics
				for _, sk := range class.Skills {
					u.Skills = append(u.Skills, &unit.SkillRef{ID: sk})
				}
			}
			if m.Tactics != nil {
				u.Tactics = *m.Tactics
			}
			for _, sk := range m.Skills {
				u.Skills = append(u.Skills, &unit.SkillRef{ID: sk})
			}
			out = append(out, u)
		}
	}
	return out
}

// merge overlays the member's non-zero stats on the class stats.
func merge(own unit.Stats, class *Class) unit.Stats {
	if class == nil {
		return own
	}
	s := class.Stats
	pick := func(dst *int, v int) {
		if v != 0 {
			*dst = v
		}
	}
	pick(&s.HP, own.HP)
	pick(&s.MaxHP, own.MaxHP)
	pick(&s.Initiative, own.Initiative)
	pick(&s.Speed, own.Speed)
	pick(&s.Aim, own.Aim)
	pick(&s.Dodge, own.Dodge)
	pick(&s.Armor, own.Armor)
	pick(&s.CritChance, own.CritChance)
	pick(&s.Damage, own.Damage)
	pick(&s.Aggro, own.Aggro)
	pick(&s.RecoveryMod, own.RecoveryMod)
	pick(&s.ReloadBonus, own.ReloadBonus)
	pick(&s.DeploymentLimitBonus, own.DeploymentLimitBonus)
	if own.Range != 0 {
		s.Range = own.Range
	}
	return s
}

// LoadSquadFromBytes parses and validates a single squad.
//
// Precondition: data must be valid YAML for a single Squad.
// Postcondition: Returns a validated *Squad, or an error.
func LoadSquadFromBytes(data []byte, cat *catalog.Catalog) (*Squad, error) {
	var s Squad
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing squad YAML: %w", err)
	}
	if err := s.Validate(cat); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadSquad reads one squad file.
func LoadSquad(path string, cat *catalog.Catalog) (*Squad, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}
	s, err := LoadSquadFromBytes(data, cat)
	if err != nil {
		return nil, fmt.Errorf("loading %q: %w", path, err)
	}
	return s, nil
}

// LoadSquads reads all *.yaml files in dir.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns every squad keyed by file name without extension, or
// the first error.
func LoadSquads(dir string, cat *catalog.Catalog) (map[string]*Squad, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading squad dir %q: %w", dir, err)
	}
	out := make(map[string]*Squad)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		s, err := LoadSquad(filepath.Join(dir, entry.Name()), cat)
		if err != nil {
			return nil, err
		}
		out[strings.TrimSuffix(entry.Name(), ".yaml")] = s
	}
	return out, nil
}
