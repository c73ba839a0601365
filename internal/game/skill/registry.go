// Package skill maps equipped skill ids to battle hooks. A Registry is an
// explicit value handed to the simulator through battle.Options.Hooks; it
// holds the built-in hooks and, optionally, Lua-scripted ones.
package skill

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/battle"
	"github.com/cory-johannsen/skirmish/internal/game/unit"
)

// Hooks is the set of callbacks one skill contributes. Nil fields are skipped.
type Hooks struct {
	ModifyStats func(u *unit.Unit)
	// OnTeamBattleStart runs once per team holding the skill, before any
	// unit-level hook. holders are the team's units carrying it.
	OnTeamBattleStart func(team unit.Team, holders []*unit.Unit, ctx *battle.Context)
	OnBattleStart     func(u *unit.Unit, ctx *battle.Context)
	OnDeploy          func(u *unit.Unit, ctx *battle.Context)
	OnTurnStart       func(u *unit.Unit, ctx *battle.Context) bool
	OnTurnAction      func(u *unit.Unit, ctx *battle.Context) bool
	OnBeforeAttack    func(attacker, target *unit.Unit, w *battle.Weapon, ctx *battle.Context)
	OnHit             func(attacker, target *unit.Unit, damage int, ctx *battle.Context)
	OnDamageTaken     func(victim, attacker *unit.Unit, damage int, ctx *battle.Context)
	OnTurnEnd         func(u *unit.Unit, ctx *battle.Context)
}

// Registry dispatches battle hooks to the skills a unit has equipped, in
// equip order. A skill equipped twice is dispatched once. Skills without
// registered hooks are skipped.
//
// A Registry is read-only once built and may be shared between battles.
type Registry struct {
	hooks  map[string]*Hooks
	logger *zap.Logger
}

var _ battle.HookSet = (*Registry)(nil)

// NewRegistry returns an empty Registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{hooks: make(map[string]*Hooks), logger: logger}
}

// Register adds hooks for skill id.
//
// Precondition: h must not be nil.
// Postcondition: Lookup(id) returns h; returns error if id is already registered.
func (r *Registry) Register(id string, h *Hooks) error {
	if h == nil {
		return fmt.Errorf("skill: Register %q: hooks must not be nil", id)
	}
	if _, exists := r.hooks[id]; exists {
		return fmt.Errorf("skill: Register: skill %q already registered", id)
	}
	r.hooks[id] = h
	return nil
}

// Lookup returns the hooks registered for id.
func (r *Registry) Lookup(id string) (*Hooks, bool) {
	h, ok := r.hooks[id]
	return h, ok
}

// Len returns the number of registered skills.
func (r *Registry) Len() int { return len(r.hooks) }

// each calls fn with u's registered hooks in equip order, stopping when fn
// returns true.
func (r *Registry) each(u *unit.Unit, fn func(*Hooks) bool) bool {
	seen := make(map[string]bool, len(u.Skills))
	for _, s := range u.Skills {
		if seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		if h, ok := r.hooks[s.ID]; ok && fn(h) {
			return true
		}
	}
	return false
}

func (r *Registry) ModifyStats(u *unit.Unit) {
	r.each(u, func(h *Hooks) bool {
		if h.ModifyStats != nil {
			h.ModifyStats(u)
		}
		return false
	})
}

// TeamBattleStart runs each team-level hook once, for skills in order of
// first appearance across roster.
func (r *Registry) TeamBattleStart(team unit.Team, roster []*unit.Unit, ctx *battle.Context) {
	var order []string
	holders := make(map[string][]*unit.Unit)
	for _, u := range roster {
		seen := make(map[string]bool)
		for _, s := range u.Skills {
			if seen[s.ID] {
				continue
			}
			seen[s.ID] = true
			if _, ok := holders[s.ID]; !ok {
				order = append(order, s.ID)
			}
			holders[s.ID] = append(holders[s.ID], u)
		}
	}
	for _, id := range order {
		if h, ok := r.hooks[id]; ok && h.OnTeamBattleStart != nil {
			r.logger.Debug("team hook", zap.String("team", string(team)), zap.String("skill", id))
			h.OnTeamBattleStart(team, holders[id], ctx)
		}
	}
}

func (r *Registry) BattleStart(u *unit.Unit, ctx *battle.Context) {
	r.each(u, func(h *Hooks) bool {
		if h.OnBattleStart != nil {
			h.OnBattleStart(u, ctx)
		}
		return false
	})
}

func (r *Registry) Deploy(u *unit.Unit, ctx *battle.Context) {
	r.each(u, func(h *Hooks) bool {
		if h.OnDeploy != nil {
			h.OnDeploy(u, ctx)
		}
		return false
	})
}

// TurnStart returns true when a skill claimed u's turn.
func (r *Registry) TurnStart(u *unit.Unit, ctx *battle.Context) bool {
	return r.each(u, func(h *Hooks) bool {
		return h.OnTurnStart != nil && h.OnTurnStart(u, ctx)
	})
}

// TurnAction returns true when a skill acted in place of a primary action.
func (r *Registry) TurnAction(u *unit.Unit, ctx *battle.Context) bool {
	return r.each(u, func(h *Hooks) bool {
		return h.OnTurnAction != nil && h.OnTurnAction(u, ctx)
	})
}

func (r *Registry) BeforeAttack(attacker, target *unit.Unit, w *battle.Weapon, ctx *battle.Context) {
	r.each(attacker, func(h *Hooks) bool {
		if h.OnBeforeAttack != nil {
			h.OnBeforeAttack(attacker, target, w, ctx)
		}
		return false
	})
}

func (r *Registry) Hit(attacker, target *unit.Unit, damage int, ctx *battle.Context) {
	r.each(attacker, func(h *Hooks) bool {
		if h.OnHit != nil {
			h.OnHit(attacker, target, damage, ctx)
		}
		return false
	})
}

func (r *Registry) DamageTaken(victim, attacker *unit.Unit, damage int, ctx *battle.Context) {
	r.each(victim, func(h *Hooks) bool {
		if h.OnDamageTaken != nil {
			h.OnDamageTaken(victim, attacker, damage, ctx)
		}
		return false
	})
}

func (r *Registry) TurnEnd(u *unit.Unit, ctx *battle.Context) {
	r.each(u, func(h *Hooks) bool {
		if h.OnTurnEnd != nil && u.Alive() {
			h.OnTurnEnd(u, ctx)
		}
		return false
	})
}
