package skill

import (
	"embed"
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/battle"
	"github.com/cory-johannsen/skirmish/internal/game/catalog"
	"github.com/cory-johannsen/skirmish/internal/game/unit"
	"github.com/cory-johannsen/skirmish/internal/scripting"
)

// Scripts holds the Lua scripts shipped with the binary, under scripts/.
//
//go:embed scripts/*.lua
var Scripts embed.FS

// Lua hook name suffixes. A script for skill id defines globals named
// id + suffix, e.g. vampiric_on_hit.
const (
	suffixModifyStats = "_modify_stats"
	suffixBattleStart = "_on_battle_start"
	suffixDeploy      = "_on_deploy"
	suffixTurnStart   = "_on_turn_start"
	suffixTurnAction  = "_on_turn_action"
	suffixHit         = "_on_hit"
	suffixDamageTaken = "_on_damage_taken"
	suffixTurnEnd     = "_on_turn_end"
)

// scripted adapts Lua globals to Hooks. A Lua hook that deals damage can
// trigger further hooks in the same battle; those nested scripted calls are
// skipped because the VM is already busy with the outer call.
type scripted struct {
	mgr    *scripting.Manager
	logger *zap.Logger

	mu     sync.Mutex
	active map[*battle.Context]bool
}

// RegisterScripted registers Lua-backed hooks for every catalog ability marked
// script: true. Only the hook functions the loaded scripts define are wired.
//
// Precondition: mgr has its scripts loaded.
// Postcondition: returns error if a scripted id already has registered hooks.
func RegisterScripted(r *Registry, cat *catalog.Catalog, mgr *scripting.Manager) error {
	s := &scripted{mgr: mgr, logger: r.logger, active: make(map[*battle.Context]bool)}
	for _, a := range cat.All() {
		if !a.Script {
			continue
		}
		if err := r.Register(a.ID, s.hooks(a.ID)); err != nil {
			return fmt.Errorf("skill: RegisterScripted: %w", err)
		}
	}
	return nil
}

func (s *scripted) hooks(id string) *Hooks {
	h := &Hooks{}
	if s.mgr.HasHook(id + suffixModifyStats) {
		h.ModifyStats = func(u *unit.Unit) { s.modifyStats(id+suffixModifyStats, u) }
	}
	if name := id + suffixBattleStart; s.mgr.HasHook(name) {
		h.OnBattleStart = func(u *unit.Unit, ctx *battle.Context) { s.call(ctx, u, name, lua.LString(u.ID)) }
	}
	if name := id + suffixDeploy; s.mgr.HasHook(name) {
		h.OnDeploy = func(u *unit.Unit, ctx *battle.Context) { s.call(ctx, u, name, lua.LString(u.ID)) }
	}
	if name := id + suffixTurnStart; s.mgr.HasHook(name) {
		h.OnTurnStart = func(u *unit.Unit, ctx *battle.Context) bool {
			return lua.LVAsBool(s.call(ctx, u, name, lua.LString(u.ID)))
		}
	}
	if name := id + suffixTurnAction; s.mgr.HasHook(name) {
		h.OnTurnAction = func(u *unit.Unit, ctx *battle.Context) bool {
			return lua.LVAsBool(s.call(ctx, u, name, lua.LString(u.ID)))
		}
	}
	if name := id + suffixHit; s.mgr.HasHook(name) {
		h.OnHit = func(attacker, target *unit.Unit, damage int, ctx *battle.Context) {
			s.call(ctx, attacker, name, lua.LString(attacker.ID), lua.LString(target.ID), lua.LNumber(damage))
		}
	}
	if name := id + suffixDamageTaken; s.mgr.HasHook(name) {
		h.OnDamageTaken = func(victim, attacker *unit.Unit, damage int, ctx *battle.Context) {
			var by lua.LValue = lua.LNil
			if attacker != nil {
				by = lua.LString(attacker.ID)
			}
			s.call(ctx, victim, name, lua.LString(victim.ID), by, lua.LNumber(damage))
		}
	}
	if name := id + suffixTurnEnd; s.mgr.HasHook(name) {
		h.OnTurnEnd = func(u *unit.Unit, ctx *battle.Context) { s.call(ctx, u, name, lua.LString(u.ID)) }
	}
	return h
}

// call runs one Lua hook owned by u with engine.* bound to ctx.
func (s *scripted) call(ctx *battle.Context, u *unit.Unit, hook string, args ...lua.LValue) lua.LValue {
	s.mu.Lock()
	if s.active[ctx] {
		s.mu.Unlock()
		s.logger.Debug("nested script hook skipped", zap.String("hook", hook), zap.String("unit", u.ID))
		return lua.LNil
	}
	s.active[ctx] = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.active, ctx)
		s.mu.Unlock()
	}()

	ret, err := s.mgr.CallHook(bindings(ctx, u), hook, args...)
	if err != nil {
		s.logger.Warn("script hook failed", zap.String("hook", hook), zap.Error(err))
		return lua.LNil
	}
	return ret
}

// modifyStats applies the modifier table returned by a Lua stat hook.
func (s *scripted) modifyStats(hook string, u *unit.Unit) {
	ret, err := s.mgr.CallHook(nil, hook, lua.LString(u.ID), lua.LNumber(u.Level))
	if err != nil {
		s.logger.Warn("script hook failed", zap.String("hook", hook), zap.Error(err))
		return
	}
	tbl, ok := ret.(*lua.LTable)
	if !ok {
		return
	}
	var m catalog.Modifiers
	ints := map[string]*int{
		"hp":                     &m.HP,
		"initiative":             &m.Initiative,
		"speed":                  &m.Speed,
		"aim":                    &m.Aim,
		"dodge":                  &m.Dodge,
		"armor":                  &m.Armor,
		"crit_chance":            &m.CritChance,
		"damage":                 &m.Damage,
		"aggro":                  &m.Aggro,
		"recovery_mod":           &m.RecoveryMod,
		"reload_bonus":           &m.ReloadBonus,
		"deployment_limit_bonus": &m.DeploymentLimitBonus,
	}
	tbl.ForEach(func(k, v lua.LValue) {
		n, isNum := v.(lua.LNumber)
		if !isNum {
			return
		}
		if k.String() == "range" {
			m.Range = float64(n)
			return
		}
		if p, known := ints[k.String()]; known {
			*p = int(n)
		}
	})
	u.Stats.Apply(m)
}

// bindings exposes ctx to a Lua hook owned by owner. Damage and healing done
// by the script are attributed to owner.
func bindings(ctx *battle.Context, owner *unit.Unit) *scripting.Bindings {
	ids := func(us []*unit.Unit) []string {
		out := make([]string, len(us))
		for i, u := range us {
			out[i] = u.ID
		}
		return out
	}
	return &scripting.Bindings{
		HP: func(id string) (int, int, bool) {
			u := ctx.Unit(id)
			if u == nil {
				return 0, 0, false
			}
			return u.HP, u.MaxHP, true
		},
		Damage: func(id string, amount int, label string) int {
			if u := ctx.Unit(id); u != nil {
				return ctx.Damage(u, owner, amount, label)
			}
			return 0
		},
		Heal: func(id string, amount int, label string) int {
			if u := ctx.Unit(id); u != nil && u.Alive() {
				return ctx.Heal(u, owner, amount, label)
			}
			return 0
		},
		Log: func(actorID, message string) {
			e := battle.Entry{ActorID: owner.ID, ActorName: owner.Name, Action: battle.ActSkill, Message: message}
			if u := ctx.Unit(actorID); u != nil {
				e.ActorID, e.ActorName = u.ID, u.Name
			}
			ctx.Emit(e)
		},
		ApplyStatus: func(id, status string, ticks int) bool {
			if u := ctx.Unit(id); u != nil {
				return ctx.ApplyStatus(u, status, ticks, owner)
			}
			return false
		},
		Enemies: func(id string) []string {
			if u := ctx.Unit(id); u != nil {
				return ids(ctx.Enemies(u))
			}
			return nil
		},
		Allies: func(id string) []string {
			if u := ctx.Unit(id); u != nil {
				return ids(ctx.Allies(u))
			}
			return nil
		},
		Distance: func(a, b string) (float64, bool) {
			ua, ub := ctx.Unit(a), ctx.Unit(b)
			if ua == nil || ub == nil {
				return 0, false
			}
			return ua.Pos.Dist(ub.Pos), true
		},
		Tick:   ctx.Tick,
		Source: ctx.Roll().Source(),
	}
}
