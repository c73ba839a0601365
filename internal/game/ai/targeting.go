// Package ai implements target selection for battle units: filtering the
// living enemies by aggro and ranking them by the unit's priority rule.
package ai

import "github.com/cory-johannsen/skirmish/internal/game/unit"

// Picker draws random indices for the "random" priority.
type Picker interface {
	Intn(n int) int
}

// Field is the set of units a chooser can see when it picks a target.
//
// Invariant: Self must not be nil.
type Field struct {
	Self  *unit.Unit
	Units []*unit.Unit
}

// EnemiesOf returns the living units on the other team, in field order.
//
// Postcondition: the result contains no dead units and no units of Self's team.
func (f *Field) EnemiesOf() []*unit.Unit {
	var out []*unit.Unit
	for _, u := range f.Units {
		if u.Alive() && u.Team != f.Self.Team {
			out = append(out, u)
		}
	}
	return out
}

// AlliesOf returns the living units on Self's team, excluding Self.
func (f *Field) AlliesOf() []*unit.Unit {
	var out []*unit.Unit
	for _, u := range f.Units {
		if u.Alive() && u.Team == f.Self.Team && u != f.Self {
			out = append(out, u)
		}
	}
	return out
}

// Candidates applies the aggro rule: when any enemy has positive aggro only
// those enemies may be targeted.
func (f *Field) Candidates() []*unit.Unit {
	enemies := f.EnemiesOf()
	var taunting []*unit.Unit
	for _, e := range enemies {
		if e.Aggro > 0 {
			taunting = append(taunting, e)
		}
	}
	if len(taunting) > 0 {
		return taunting
	}
	return enemies
}

// Closest returns the candidate nearest to Self; the first one found wins ties.
func Closest(self *unit.Unit, cands []*unit.Unit) *unit.Unit {
	var best *unit.Unit
	bestD := 0.0
	for _, c := range cands {
		d := self.Pos.Dist(c.Pos)
		if best == nil || d < bestD {
			best, bestD = c, d
		}
	}
	return best
}

// Weakest returns the candidate with the lowest HP; ties go to the first found.
func Weakest(cands []*unit.Unit) *unit.Unit {
	var best *unit.Unit
	for _, c := range cands {
		if best == nil || c.HP < best.HP {
			best = c
		}
	}
	return best
}

// Strongest returns the candidate with the highest power score; ties go to the first found.
func Strongest(cands []*unit.Unit) *unit.Unit {
	var best *unit.Unit
	for _, c := range cands {
		if best == nil || c.Power() > best.Power() {
			best = c
		}
	}
	return best
}

// SelectTarget picks a target for f.Self according to its tactics. The
// default priority is closest.
//
// Postcondition: nil iff there is no living enemy.
func SelectTarget(f *Field, pick Picker) *unit.Unit {
	cands := f.Candidates()
	if len(cands) == 0 {
		return nil
	}
	switch f.Self.Tactics.Priority {
	case unit.Weakest:
		return Weakest(cands)
	case unit.Strongest:
		return Strongest(cands)
	case unit.Random:
		return cands[pick.Intn(len(cands))]
	default:
		return Closest(f.Self, cands)
	}
}
