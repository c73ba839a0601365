// Package catalog holds the static, read-only ability definitions that units
// reference by id: weapons, grenades, vehicles, equipment and passive skills.
package catalog

import (
	"errors"
	"fmt"
)

// Kind discriminates the variant of an Ability. Exactly one stat block matching
// the kind is populated; the engine dispatches on Kind rather than on types.
type Kind string

const (
	KindWeapon    Kind = "weapon"
	KindGrenade   Kind = "grenade"
	KindVehicle   Kind = "vehicle"
	KindEquipment Kind = "equipment"
	KindPassive   Kind = "passive"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindWeapon, KindGrenade, KindVehicle, KindEquipment, KindPassive:
		return true
	}
	return false
}

// Vehicle types with engine-level behaviour.
const (
	VehicleJeep       = "jeep"
	VehicleTank       = "tank"
	VehicleHelicopter = "helicopter"
	VehicleMech       = "mech"
)

// Grenade effects that are not plain conditions.
const (
	EffectDisarm = "disarm"
	EffectHeal   = "heal"
)

// Modifiers are flat stat changes applied once when a battle starts.
type Modifiers struct {
	HP                   int     `yaml:"hp"`
	Initiative           int     `yaml:"initiative"`
	Speed                int     `yaml:"speed"`
	Aim                  int     `yaml:"aim"`
	Dodge                int     `yaml:"dodge"`
	Armor                int     `yaml:"armor"`
	CritChance           int     `yaml:"crit_chance"`
	Damage               int     `yaml:"damage"`
	Range                float64 `yaml:"range"`
	Aggro                int     `yaml:"aggro"`
	RecoveryMod          int     `yaml:"recovery_mod"`
	ReloadBonus          int     `yaml:"reload_bonus"`
	DeploymentLimitBonus int     `yaml:"deployment_limit_bonus"`
}

// WeaponStats describes a firearm or melee weapon.
type WeaponStats struct {
	Damage         int     `yaml:"damage"`
	DamageSpread   string  `yaml:"damage_spread"` // optional dice expression added per shot
	Range          float64 `yaml:"range"`
	MinRange       float64 `yaml:"min_range"`
	Aim            int     `yaml:"aim"` // accuracy percentage; 0 means 100
	Crit           int     `yaml:"crit"`
	CritMultiplier float64 `yaml:"crit_multiplier"` // 0 means 2
	Capacity       int     `yaml:"capacity"`        // 0 = never needs ammo
	Burst          int     `yaml:"burst"`           // shots per trigger pull; 0 means 1
	Recovery       int     `yaml:"recovery"`
	ReloadTime     int     `yaml:"reload_time"`
	Area           float64 `yaml:"area"` // blast radius; 0 = single target
	Melee          bool    `yaml:"melee"`
	AntiVehicle    bool    `yaml:"anti_vehicle"`
	Knockback      float64 `yaml:"knockback"`
}

// GrenadeStats describes a thrown consumable.
type GrenadeStats struct {
	Damage         int     `yaml:"damage"`
	Range          float64 `yaml:"range"`
	Area           float64 `yaml:"area"`
	Uses           int     `yaml:"uses"`
	Effect         string  `yaml:"effect"` // condition id, "disarm" or "heal"
	EffectDuration int     `yaml:"effect_duration"`
	HealAmount     int     `yaml:"heal_amount"`
	Knockback      float64 `yaml:"knockback"`
	Recovery       int     `yaml:"recovery"`
}

// VehicleStats describes a vehicle that absorbs damage for its pilot.
type VehicleStats struct {
	Type   string `yaml:"type"`
	HP     int    `yaml:"hp"`
	Armor  int    `yaml:"armor"`
	Cost   int    `yaml:"cost"`
	Weapon string `yaml:"weapon"` // optional mounted weapon id
}

// EquipmentStats describes a consumable piece of kit.
type EquipmentStats struct {
	Uses   int `yaml:"uses"`
	Amount int `yaml:"amount"`
}

// Ability is one catalog entry.
type Ability struct {
	ID          string          `yaml:"id"`
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Kind        Kind            `yaml:"kind"`
	Script      bool            `yaml:"script"`
	Modifiers   *Modifiers      `yaml:"modifiers"`
	Weapon      *WeaponStats    `yaml:"weapon"`
	Grenade     *GrenadeStats   `yaml:"grenade"`
	Vehicle     *VehicleStats   `yaml:"vehicle"`
	Equipment   *EquipmentStats `yaml:"equipment"`
}

// Validate checks that the ability satisfies its invariants.
//
// Postcondition: returns nil iff the stat block matches Kind and all values are in range.
func (a *Ability) Validate() error {
	var errs []error
	if a.ID == "" {
		errs = append(errs, errors.New("ID must not be empty"))
	}
	if a.Name == "" {
		errs = append(errs, errors.New("Name must not be empty"))
	}
	if !a.Kind.Valid() {
		errs = append(errs, fmt.Errorf("unknown kind %q", a.Kind))
	}
	blocks := []struct {
		kind    Kind
		present bool
	}{
		{KindWeapon, a.Weapon != nil},
		{KindGrenade, a.Grenade != nil},
		{KindVehicle, a.Vehicle != nil},
		{KindEquipment, a.Equipment != nil},
	}
	for _, b := range blocks {
		if b.present && b.kind != a.Kind {
			errs = append(errs, fmt.Errorf("%s block not allowed on %s ability", b.kind, a.Kind))
		}
	}
	switch a.Kind {
	case KindWeapon:
		if a.Weapon == nil {
			errs = append(errs, errors.New("weapon block required"))
			break
		}
		w := a.Weapon
		if w.Range <= 0 {
			errs = append(errs, errors.New("weapon Range must be > 0"))
		}
		if w.MinRange < 0 || (w.Range > 0 && w.MinRange >= w.Range) {
			errs = append(errs, errors.New("weapon MinRange must be in [0, Range)"))
		}
		if w.Capacity < 0 || w.Burst < 0 || w.Damage < 0 {
			errs = append(errs, errors.New("weapon Damage, Capacity and Burst must be >= 0"))
		}
		if w.CritMultiplier != 0 && (w.CritMultiplier < 1 || w.CritMultiplier > 50) {
			errs = append(errs, errors.New("weapon CritMultiplier must be in [1, 50]"))
		}
	case KindGrenade:
		if a.Grenade == nil {
			errs = append(errs, errors.New("grenade block required"))
			break
		}
		if a.Grenade.Uses <= 0 || a.Grenade.Range <= 0 || a.Grenade.Area <= 0 {
			errs = append(errs, errors.New("grenade Uses, Range and Area must be > 0"))
		}
	case KindVehicle:
		if a.Vehicle == nil {
			errs = append(errs, errors.New("vehicle block required"))
			break
		}
		if a.Vehicle.HP <= 0 || a.Vehicle.Cost < 0 {
			errs = append(errs, errors.New("vehicle HP must be > 0 and Cost >= 0"))
		}
	case KindEquipment:
		if a.Equipment == nil {
			errs = append(errs, errors.New("equipment block required"))
			break
		}
		if a.Equipment.Uses <= 0 {
			errs = append(errs, errors.New("equipment Uses must be > 0"))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("ability %q validation failed: %v", a.ID, errs)
	}
	return nil
}

// CritMult returns the effective critical multiplier.
func (w *WeaponStats) CritMult() float64 {
	if w.CritMultiplier == 0 {
		return 2
	}
	return w.CritMultiplier
}

// Accuracy returns the effective accuracy percentage.
func (w *WeaponStats) Accuracy() int {
	if w.Aim == 0 {
		return 100
	}
	return w.Aim
}

// Shots returns the number of shots per trigger pull.
func (w *WeaponStats) Shots() int {
	if w.Burst <= 0 {
		return 1
	}
	return w.Burst
}
