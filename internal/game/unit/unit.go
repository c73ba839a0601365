// Package unit defines the combat unit data model shared by the deployment
// rules, the battle engine and the skill hooks.
package unit

import (
	"github.com/cory-johannsen/skirmish/internal/game/catalog"
	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/geom"
)

// Team identifies a side of the battle.
type Team string

const (
	TeamA Team = "A"
	TeamB Team = "B"
)

// Opponent returns the other team.
func (t Team) Opponent() Team {
	if t == TeamA {
		return TeamB
	}
	return TeamA
}

// Region is a hit location.
type Region string

const (
	Head  Region = "head"
	Torso Region = "torso"
	Arm   Region = "arm"
	Leg   Region = "leg"
)

// Stats are a unit's combat attributes.
type Stats struct {
	HP                   int     `yaml:"hp" json:"hp"`
	MaxHP                int     `yaml:"max_hp" json:"maxHp"`
	Initiative           int     `yaml:"initiative" json:"initiative"`
	Speed                int     `yaml:"speed" json:"speed"`
	Aim                  int     `yaml:"aim" json:"aim"`
	Dodge                int     `yaml:"dodge" json:"dodge"`
	Armor                int     `yaml:"armor" json:"armor"`
	CritChance           int     `yaml:"crit_chance" json:"critChance"`
	Damage               int     `yaml:"damage" json:"damage"`
	Range                float64 `yaml:"range" json:"range"`
	Aggro                int     `yaml:"aggro" json:"aggro"`
	RecoveryMod          int     `yaml:"recovery_mod" json:"recoveryMod"`
	ReloadBonus          int     `yaml:"reload_bonus" json:"reloadBonus"`
	DeploymentLimitBonus int     `yaml:"deployment_limit_bonus" json:"deploymentLimitBonus"`
}

// Apply adds m to the stats. MaxHP and HP grow together.
func (s *Stats) Apply(m catalog.Modifiers) {
	s.MaxHP += m.HP
	s.HP += m.HP
	s.Initiative += m.Initiative
	s.Speed += m.Speed
	s.Aim += m.Aim
	s.Dodge += m.Dodge
	s.Armor += m.Armor
	s.CritChance += m.CritChance
	s.Damage += m.Damage
	s.Range += m.Range
	s.Aggro += m.Aggro
	s.RecoveryMod += m.RecoveryMod
	s.ReloadBonus += m.ReloadBonus
	s.DeploymentLimitBonus += m.DeploymentLimitBonus
	if s.MaxHP < 1 {
		s.MaxHP = 1
	}
	s.HP = max(0, min(s.HP, s.MaxHP))
}

// SkillRef is one equipped ability with its runtime counters.
type SkillRef struct {
	ID   string `yaml:"id" json:"id"`
	Ammo int    `yaml:"ammo" json:"ammo"` // rounds loaded, weapons only
	Uses int    `yaml:"uses" json:"uses"` // remaining uses, grenades and equipment only
}

// Vehicle absorbs damage for its pilot while it has HP.
type Vehicle struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	HP     int    `json:"hp"`
	MaxHP  int    `json:"maxHp"`
	Armor  int    `json:"armor"`
	Cost   int    `json:"cost"`
	Weapon string `json:"weapon,omitempty"`
}

// Alive reports whether the vehicle can still intercept damage.
func (v *Vehicle) Alive() bool { return v != nil && v.HP > 0 }

// Priority is a target selection rule.
type Priority string

const (
	Closest   Priority = "closest"
	Weakest   Priority = "weakest"
	Strongest Priority = "strongest"
	Random    Priority = "random"
)

// BodyPart is an aimed-shot preference.
type BodyPart string

const (
	AnyPart   BodyPart = ""
	HeadPart  BodyPart = "head"
	HeartPart BodyPart = "heart"
	LimbPart  BodyPart = "limb"
)

// Tactics are the unit's standing orders.
type Tactics struct {
	Priority       Priority `yaml:"priority" json:"priority"`
	BodyPart       BodyPart `yaml:"body_part" json:"bodyPart"`
	FavoriteWeapon string   `yaml:"favorite_weapon" json:"favoriteWeapon"`
}

// Burst is an in-progress multi-shot volley.
type Burst struct {
	WeaponID  string
	TargetID  string
	Remaining int
}

// Transient holds per-shot bonuses written by before-attack hooks and cleared
// after the shot resolves.
type Transient struct {
	AimBonus   int
	CritBonus  int
	DamageMult float64 // 0 means 1
}

// NoSwitch is the LastSwitch value of a unit that never switched weapons.
const NoSwitch = -1 << 30

// Unit is a combatant. During a battle the engine owns every Unit exclusively.
type Unit struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Class string `json:"class"`
	Level int    `json:"level"`
	Team  Team   `json:"team"`
	Stats
	Skills  []*SkillRef `json:"skills"`
	Tactics Tactics     `json:"tactics"`
	Vehicle *Vehicle    `json:"vehicle,omitempty"`

	Pos         geom.Vec2 `json:"pos"`
	Weapon      string    `json:"weapon"`
	Recovery    int       `json:"-"`
	ActionTimer int       `json:"-"`
	Burst       *Burst    `json:"-"`
	Moving      bool      `json:"-"`
	LastSwitch  int       `json:"-"`
	Transient   Transient `json:"-"`
	Dead        bool      `json:"dead"`

	Wounds     map[Region]bool      `json:"wounds,omitempty"`
	Disarmed   map[string]bool      `json:"disarmed,omitempty"`
	Conditions *condition.ActiveSet `json:"-"`
	used       map[string]bool
}

// Alive reports whether the unit has HP left.
func (u *Unit) Alive() bool { return !u.Dead }

// ApplyDamage subtracts n HP, flooring at zero, and returns the HP actually lost.
//
// Precondition: n >= 0.
// Postcondition: 0 <= HP <= MaxHP; Dead == (HP == 0).
func (u *Unit) ApplyDamage(n int) int {
	if u.Dead || n <= 0 {
		return 0
	}
	lost := min(n, u.HP)
	u.HP -= lost
	if u.HP == 0 {
		u.Dead = true
	}
	return lost
}

// Heal restores up to n HP, capped at MaxHP, and returns the HP gained.
// Dead units cannot be healed.
func (u *Unit) Heal(n int) int {
	if u.Dead || n <= 0 {
		return 0
	}
	gained := min(n, u.MaxHP-u.HP)
	u.HP += gained
	return gained
}

// Revive brings a dead unit back with hp health.
//
// Precondition: 0 < hp <= MaxHP.
func (u *Unit) Revive(hp int) {
	u.HP = max(1, min(hp, u.MaxHP))
	u.Dead = false
}

// Skill returns the first equipped reference to id, or nil.
func (u *Unit) Skill(id string) *SkillRef {
	for _, s := range u.Skills {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// HasSkill reports whether id is equipped.
func (u *Unit) HasSkill(id string) bool { return u.Skill(id) != nil }

// CountSkill returns how many times id is equipped.
func (u *Unit) CountSkill(id string) int {
	n := 0
	for _, s := range u.Skills {
		if s.ID == id {
			n++
		}
	}
	return n
}

// Wound registers a wound on r and reports whether r was already wounded.
func (u *Unit) Wound(r Region) bool {
	if u.Wounds == nil {
		u.Wounds = make(map[Region]bool)
	}
	was := u.Wounds[r]
	u.Wounds[r] = true
	return was
}

// Wounded reports whether r carries a wound.
func (u *Unit) Wounded(r Region) bool { return u.Wounds[r] }

// Disarm marks weaponID unusable for the rest of the battle.
func (u *Unit) Disarm(weaponID string) {
	if u.Disarmed == nil {
		u.Disarmed = make(map[string]bool)
	}
	u.Disarmed[weaponID] = true
}

// IsDisarmed reports whether weaponID was knocked out of the unit's hands.
func (u *Unit) IsDisarmed(weaponID string) bool { return u.Disarmed[weaponID] }

// Once returns true the first time it is called with key and false afterwards.
func (u *Unit) Once(key string) bool {
	if u.used == nil {
		u.used = make(map[string]bool)
	}
	if u.used[key] {
		return false
	}
	u.used[key] = true
	return true
}

// Mounted reports whether the unit is inside a working vehicle.
func (u *Unit) Mounted() bool { return u.Vehicle.Alive() }

// Power is the "strongest" target score.
func (u *Unit) Power() int {
	p := u.HP + u.Damage*2 + u.Aim + u.Armor*3 + u.Level*5
	if u.Vehicle.Alive() {
		p += u.Vehicle.HP/2 + u.Vehicle.Armor*3
	}
	return p
}

// Clone returns a deep copy. Condition definitions are shared.
func (u *Unit) Clone() *Unit {
	cp := *u
	cp.Skills = make([]*SkillRef, len(u.Skills))
	for i, s := range u.Skills {
		sc := *s
		cp.Skills[i] = &sc
	}
	if u.Vehicle != nil {
		v := *u.Vehicle
		cp.Vehicle = &v
	}
	if u.Burst != nil {
		b := *u.Burst
		cp.Burst = &b
	}
	cp.Wounds = cloneMap(u.Wounds)
	cp.Disarmed = cloneMap(u.Disarmed)
	cp.used = cloneMap(u.used)
	if u.Conditions != nil {
		cp.Conditions = u.Conditions.Clone()
	}
	return &cp
}

func cloneMap[K comparable](m map[K]bool) map[K]bool {
	if m == nil {
		return nil
	}
	out := make(map[K]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
