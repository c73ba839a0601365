package battle

import "github.com/cory-johannsen/skirmish/internal/game/unit"

// HookSet is the skill hook surface the engine dispatches into. Each method
// walks the unit's skill list in order; the turn-claiming methods stop at the
// first hook that returns true.
type HookSet interface {
	// ModifyStats adjusts u's attributes once before the battle.
	ModifyStats(u *unit.Unit)
	// TeamBattleStart runs once per team before any unit-level hook; roster is
	// the team's full squad.
	TeamBattleStart(team unit.Team, roster []*unit.Unit, ctx *Context)
	BattleStart(u *unit.Unit, ctx *Context)
	Deploy(u *unit.Unit, ctx *Context)
	// TurnStart may claim the whole turn.
	TurnStart(u *unit.Unit, ctx *Context) bool
	// TurnAction may claim the turn when no primary action fired.
	TurnAction(u *unit.Unit, ctx *Context) bool
	BeforeAttack(attacker, target *unit.Unit, w *Weapon, ctx *Context)
	Hit(attacker, target *unit.Unit, damage int, ctx *Context)
	DamageTaken(victim, attacker *unit.Unit, damage int, ctx *Context)
	TurnEnd(u *unit.Unit, ctx *Context)
}

// NoHooks is a HookSet that does nothing.
type NoHooks struct{}

func (NoHooks) ModifyStats(*unit.Unit) {}
func (NoHooks) TeamBattleStart(unit.Team, []*unit.Unit, *Context) {}
func (NoHooks) BattleStart(*unit.Unit, *Context) {}
func (NoHooks) Deploy(*unit.Unit, *Context) {}
func (NoHooks) TurnStart(*unit.Unit, *Context) bool { return false }
func (NoHooks) TurnAction(*unit.Unit, *Context) bool { return false }
func (NoHooks) BeforeAttack(*unit.Unit, *unit.Unit, *Weapon, *Context) {}
func (NoHooks) Hit(*unit.Unit, *unit.Unit, int, *Context) {}
func (NoHooks) DamageTaken(*unit.Unit, *unit.Unit, int, *Context) {}
func (NoHooks) TurnEnd(*unit.Unit, *Context) {}
