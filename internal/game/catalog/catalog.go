package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// UnarmedID is the implicit weapon every unit falls back to.
const UnarmedID = "unarmed"

// Well-known skill ids the engine itself interprets, outside the hook registry.
const (
	SkillScouting = "scouting" // +1 deployment limit for the squad
	SkillAirdrop  = "airdrop"  // deploys for free
	SkillEvasive  = "evasive"  // +25 dodge while moving
)

var unarmed = &Ability{
	ID:   UnarmedID,
	Name: "Bare Hands",
	Kind: KindWeapon,
	Weapon: &WeaponStats{
		Range:    30,
		Melee:    true,
		Recovery: 8,
	},
}

// Unarmed returns the implicit unarmed weapon. Its base damage is zero; the
// wielder's own Damage attribute supplies the hit.
func Unarmed() *Ability { return unarmed }

// Catalog holds every ability definition indexed by ID. It is read-only once
// built and may be shared between battles.
type Catalog struct {
	abilities map[string]*Ability
}

// New returns an empty Catalog.
func New() *Catalog {
	return &Catalog{abilities: make(map[string]*Ability)}
}

// Register validates a and adds it to the catalog.
//
// Precondition: a must not be nil.
// Postcondition: Get(a.ID) returns a; returns error if a is invalid or a.ID already registered.
func (c *Catalog) Register(a *Ability) error {
	if err := a.Validate(); err != nil {
		return fmt.Errorf("catalog: Register: %w", err)
	}
	if _, exists := c.abilities[a.ID]; exists {
		return fmt.Errorf("catalog: Register: ability ID %q already registered", a.ID)
	}
	c.abilities[a.ID] = a
	return nil
}

// Get returns the ability for id. The unarmed weapon is always resolvable.
func (c *Catalog) Get(id string) (*Ability, bool) {
	if a, ok := c.abilities[id]; ok {
		return a, true
	}
	if id == UnarmedID {
		return unarmed, true
	}
	return nil, false
}

// Weapon returns the weapon ability for id, or false if id is unknown or not a weapon.
func (c *Catalog) Weapon(id string) (*Ability, bool) {
	a, ok := c.Get(id)
	if !ok || a.Kind != KindWeapon {
		return nil, false
	}
	return a, true
}

// Len returns the number of registered abilities.
func (c *Catalog) Len() int { return len(c.abilities) }

// All returns every registered ability sorted by ID.
func (c *Catalog) All() []*Ability {
	out := make([]*Ability, 0, len(c.abilities))
	for _, a := range c.abilities {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Merge registers every ability of other into c, replacing entries with the
// same ID.
func (c *Catalog) Merge(other *Catalog) {
	for id, a := range other.abilities {
		c.abilities[id] = a
	}
}

type catalogFile struct {
	Abilities []*Ability `yaml:"abilities"`
}

// LoadDirectory reads every *.yaml file in dir. Each file holds an
// `abilities:` list.
//
// Precondition: dir is a readable directory path.
// Postcondition: returns a populated Catalog or the first encountered error.
func LoadDirectory(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("LoadDirectory: cannot read directory %q: %w", dir, err)
	}
	c := New()
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		p := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("LoadDirectory: cannot read file %q: %w", p, err)
		}
		if err := c.load(data, p); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Builtin returns the default catalog compiled into the binary.
func Builtin() *Catalog {
	entries, err := fs.ReadDir(builtinFS, "builtin")
	if err != nil {
		panic("catalog: builtin directory missing: " + err.Error())
	}
	c := New()
	for _, e := range entries {
		p := path.Join("builtin", e.Name())
		data, err := fs.ReadFile(builtinFS, p)
		if err != nil {
			panic("catalog: reading builtin " + p + ": " + err.Error())
		}
		if err := c.load(data, p); err != nil {
			panic(err.Error())
		}
	}
	return c
}

func (c *Catalog) load(data []byte, name string) error {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("LoadDirectory: cannot parse file %q: %w", name, err)
	}
	for _, a := range f.Abilities {
		if err := c.Register(a); err != nil {
			return fmt.Errorf("LoadDirectory: invalid ability in %q: %w", name, err)
		}
	}
	return nil
}
