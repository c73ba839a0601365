package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers the engine module into L and rebinds math.random
// to the battle's random source.
//
// The engine module:
//
//	engine.hp(id)                         -> hp, max_hp | nil
//	engine.damage(target, amount[, src])  -> dealt
//	engine.heal(target, amount[, src])    -> gained
//	engine.log(actor, message)
//	engine.apply_status(target, id, ticks)-> bool
//	engine.enemies(id) / engine.allies(id)-> array of ids
//	engine.distance(a, b)                 -> number | nil
//	engine.random([m[, n]])               -> same contract as math.random
//	engine.tick()                         -> current tick
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"hp":           m.luaHP,
		"damage":       m.luaDamage,
		"heal":         m.luaHeal,
		"log":          m.luaLog,
		"apply_status": m.luaApplyStatus,
		"enemies":      m.luaEnemies,
		"allies":       m.luaAllies,
		"distance":     m.luaDistance,
		"random":       m.luaRandom,
		"tick":         m.luaTick,
	})
	L.SetGlobal("engine", engine)
	if math, ok := L.GetGlobal("math").(*lua.LTable); ok {
		math.RawSetString("random", L.NewFunction(m.luaRandom))
	}
}

func (m *Manager) luaHP(L *lua.LState) int {
	b := m.current
	if b == nil || b.HP == nil {
		L.Push(lua.LNil)
		return 1
	}
	hp, maxHP, ok := b.HP(L.CheckString(1))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(hp))
	L.Push(lua.LNumber(maxHP))
	return 2
}

func (m *Manager) luaDamage(L *lua.LState) int {
	target, amount := L.CheckString(1), L.CheckInt(2)
	label := L.OptString(3, "script")
	b := m.current
	if b == nil || b.Damage == nil {
		L.Push(lua.LNumber(0))
		return 1
	}
	L.Push(lua.LNumber(b.Damage(target, amount, label)))
	return 1
}

func (m *Manager) luaHeal(L *lua.LState) int {
	target, amount := L.CheckString(1), L.CheckInt(2)
	label := L.OptString(3, "script")
	b := m.current
	if b == nil || b.Heal == nil {
		L.Push(lua.LNumber(0))
		return 1
	}
	L.Push(lua.LNumber(b.Heal(target, amount, label)))
	return 1
}

func (m *Manager) luaLog(L *lua.LState) int {
	actor, msg := L.CheckString(1), L.CheckString(2)
	m.logger.Debug("script log", zap.String("actor", actor), zap.String("message", msg))
	if b := m.current; b != nil && b.Log != nil {
		b.Log(actor, msg)
	}
	return 0
}

func (m *Manager) luaApplyStatus(L *lua.LState) int {
	target, status, ticks := L.CheckString(1), L.CheckString(2), L.CheckInt(3)
	b := m.current
	ok := b != nil && b.ApplyStatus != nil && b.ApplyStatus(target, status, ticks)
	L.Push(lua.LBool(ok))
	return 1
}

func (m *Manager) luaEnemies(L *lua.LState) int {
	var ids []string
	if b := m.current; b != nil && b.Enemies != nil {
		ids = b.Enemies(L.CheckString(1))
	}
	L.Push(idTable(L, ids))
	return 1
}

func (m *Manager) luaAllies(L *lua.LState) int {
	var ids []string
	if b := m.current; b != nil && b.Allies != nil {
		ids = b.Allies(L.CheckString(1))
	}
	L.Push(idTable(L, ids))
	return 1
}

func idTable(L *lua.LState, ids []string) *lua.LTable {
	t := L.CreateTable(len(ids), 0)
	for _, id := range ids {
		t.Append(lua.LString(id))
	}
	return t
}

func (m *Manager) luaDistance(L *lua.LState) int {
	a, bID := L.CheckString(1), L.CheckString(2)
	b := m.current
	if b == nil || b.Distance == nil {
		L.Push(lua.LNil)
		return 1
	}
	d, ok := b.Distance(a, bID)
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(d))
	return 1
}

// luaRandom follows math.random: no argument yields [0,1), one argument n
// yields [1,n] and two arguments yield [m,n].
func (m *Manager) luaRandom(L *lua.LState) int {
	b := m.current
	if b == nil || b.Source == nil {
		L.RaiseError("random: no random source bound")
		return 0
	}
	switch L.GetTop() {
	case 0:
		L.Push(lua.LNumber(b.Source.Float64()))
	case 1:
		n := L.CheckInt(1)
		if n < 1 {
			L.ArgError(1, "interval is empty")
		}
		L.Push(lua.LNumber(1 + b.Source.Intn(n)))
	default:
		lo, hi := L.CheckInt(1), L.CheckInt(2)
		if hi < lo {
			L.ArgError(2, "interval is empty")
		}
		L.Push(lua.LNumber(lo + b.Source.Intn(hi-lo+1)))
	}
	return 1
}

func (m *Manager) luaTick(L *lua.LState) int {
	if b := m.current; b != nil && b.Tick != nil {
		L.Push(lua.LNumber(b.Tick()))
		return 1
	}
	L.Push(lua.LNumber(0))
	return 1
}
