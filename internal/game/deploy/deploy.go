// Package deploy holds the squad deployment economy: how many units a squad
// may field at once and what each unit costs. The functions are pure so that
// squad-building screens can call them without running a battle. Limit and
// Cost read equipped state, so raw roster units go through Resolve first.
package deploy

import (
	"github.com/cory-johannsen/skirmish/internal/game/catalog"
	"github.com/cory-johannsen/skirmish/internal/game/unit"
)

const (
	// BaseLimit is the deployment capacity of a squad with no scouts.
	BaseLimit = 4
	// MaxLimit caps the capacity regardless of bonuses.
	MaxLimit = 20
)

// Limit returns the squad's deployment capacity: BaseLimit, plus one per
// equipped scouting skill and each unit's DeploymentLimitBonus, capped at MaxLimit.
//
// Postcondition: BaseLimit <= result <= MaxLimit when no bonus is negative.
func Limit(squad []*unit.Unit) int {
	limit := BaseLimit
	for _, u := range squad {
		limit += u.CountSkill(catalog.SkillScouting)
		limit += u.DeploymentLimitBonus
	}
	return max(1, min(limit, MaxLimit))
}

// Equip attaches u's vehicle and applies the stat modifiers of its equipped
// skills, both read from cat. The first vehicle skill becomes u.Vehicle unless
// one is already attached. Returns the skill ids cat does not know.
//
// Precondition: u and cat must not be nil; Equip runs once per unit.
func Equip(u *unit.Unit, cat *catalog.Catalog) []string {
	var unknown []string
	for _, s := range u.Skills {
		a, ok := cat.Get(s.ID)
		if !ok {
			unknown = append(unknown, s.ID)
			continue
		}
		if a.Kind == catalog.KindVehicle && a.Vehicle != nil && u.Vehicle == nil {
			vs := a.Vehicle
			u.Vehicle = &unit.Vehicle{ID: a.ID, Type: vs.Type, HP: vs.HP, MaxHP: vs.HP, Armor: vs.Armor, Cost: vs.Cost, Weapon: vs.Weapon}
		}
		if a.Modifiers != nil {
			u.Stats.Apply(*a.Modifiers)
		}
	}
	return unknown
}

// Resolve returns copies of squad equipped the way a battle fields them:
// Equip, then modify when it is not nil. Nil units and units without HP are
// left out, as the simulator drops them. Limit and Cost of the result are the
// capacity and prices the simulator charges.
//
// Precondition: cat must not be nil.
// Postcondition: squad is not modified.
func Resolve(squad []*unit.Unit, cat *catalog.Catalog, modify func(*unit.Unit)) []*unit.Unit {
	out := make([]*unit.Unit, 0, len(squad))
	for _, in := range squad {
		if in == nil || in.HP <= 0 {
			continue
		}
		u := in.Clone()
		Equip(u, cat)
		if modify != nil {
			modify(u)
		}
		out = append(out, u)
	}
	return out
}

// Cost returns the capacity a unit consumes while deployed: zero with the
// airdrop skill, the vehicle's declared cost when mounted, otherwise one.
func Cost(u *unit.Unit) int {
	if u.HasSkill(catalog.SkillAirdrop) {
		return 0
	}
	if u.Vehicle != nil {
		return u.Vehicle.Cost
	}
	return 1
}

// ActiveCost sums the cost of the living units in deployed.
func ActiveCost(deployed []*unit.Unit) int {
	total := 0
	for _, u := range deployed {
		if u.Alive() {
			total += Cost(u)
		}
	}
	return total
}

// WaveSize returns how many units from the head of reserve fit into the
// remaining capacity, stopping at the first unit that would overflow.
//
// Postcondition: ActiveCost(deployed) + sum(Cost(reserve[:n])) <= limit.
func WaveSize(reserve []*unit.Unit, activeCost, limit int) int {
	n := 0
	for _, u := range reserve {
		c := Cost(u)
		if activeCost+c > limit {
			break
		}
		activeCost += c
		n++
	}
	return n
}
