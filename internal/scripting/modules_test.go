package scripting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/scripting"
)

type fakeBattle struct {
	hp      map[string]int
	logged  []string
	damaged map[string]int
	healed  map[string]int
	status  map[string]string
}

func newFakeBattle() *fakeBattle {
	return &fakeBattle{
		hp:      map[string]int{"a1": 40, "b1": 25, "b2": 10},
		damaged: map[string]int{},
		healed:  map[string]int{},
		status:  map[string]string{},
	}
}

func (f *fakeBattle) bindings(seed int64) *scripting.Bindings {
	return &scripting.Bindings{
		HP: func(id string) (int, int, bool) {
			hp, ok := f.hp[id]
			return hp, 50, ok
		},
		Damage: func(id string, n int, _ string) int {
			f.damaged[id] += n
			return n
		},
		Heal: func(id string, n int, _ string) int {
			f.healed[id] += n
			return n
		},
		Log:         func(actor, msg string) { f.logged = append(f.logged, actor+": "+msg) },
		ApplyStatus: func(id, status string, _ int) bool { f.status[id] = status; return true },
		Enemies:     func(string) []string { return []string{"b1", "b2"} },
		Allies:      func(string) []string { return nil },
		Distance: func(a, b string) (float64, bool) {
			if a == "a1" && b == "b1" {
				return 125, true
			}
			return 0, false
		},
		Tick:   func() int { return 77 },
		Source: dice.NewSeededSource(seed),
	}
}

func call(t *testing.T, mgr *scripting.Manager, b *scripting.Bindings, hook string, args ...lua.LValue) lua.LValue {
	t.Helper()
	ret, err := mgr.CallHook(b, hook, args...)
	require.NoError(t, err)
	return ret
}

func TestEngine_HPAndDistance(t *testing.T) {
	mgr, _ := newTestManager(t)
	load(t, mgr, `
		function hp_of(id) local hp, max = engine.hp(id) return hp end
		function max_of(id) local hp, max = engine.hp(id) return max end
		function dist(a, b) return engine.distance(a, b) end
	`)
	b := newFakeBattle().bindings(1)
	assert.Equal(t, lua.LNumber(40), call(t, mgr, b, "hp_of", lua.LString("a1")))
	assert.Equal(t, lua.LNumber(50), call(t, mgr, b, "max_of", lua.LString("a1")))
	assert.Equal(t, lua.LNil, call(t, mgr, b, "hp_of", lua.LString("ghost")))
	assert.Equal(t, lua.LNumber(125), call(t, mgr, b, "dist", lua.LString("a1"), lua.LString("b1")))
	assert.Equal(t, lua.LNil, call(t, mgr, b, "dist", lua.LString("a1"), lua.LString("zz")))
}

func TestEngine_DamageHealStatusLog(t *testing.T) {
	mgr, _ := newTestManager(t)
	load(t, mgr, `
		function strike(self)
			local total = 0
			for _, id in ipairs(engine.enemies(self)) do
				total = total + engine.damage(id, 3, "test")
			end
			engine.heal(self, total)
			engine.apply_status("b1", "poisoned", 30)
			engine.log(self, "struck " .. total .. " at " .. engine.tick())
			return total
		end
	`)
	f := newFakeBattle()
	ret := call(t, mgr, f.bindings(1), "strike", lua.LString("a1"))

	assert.Equal(t, lua.LNumber(6), ret)
	assert.Equal(t, map[string]int{"b1": 3, "b2": 3}, f.damaged)
	assert.Equal(t, 6, f.healed["a1"])
	assert.Equal(t, "poisoned", f.status["b1"])
	assert.Equal(t, []string{"a1: struck 6 at 77"}, f.logged)
}

func TestEngine_NilBindingsAreNoOps(t *testing.T) {
	mgr, _ := newTestManager(t)
	load(t, mgr, `
		function inert()
			assert(engine.hp("x") == nil)
			assert(engine.damage("x", 5) == 0)
			assert(engine.heal("x", 5) == 0)
			assert(#engine.enemies("x") == 0)
			assert(engine.apply_status("x", "stunned", 5) == false)
			assert(engine.tick() == 0)
			engine.log("x", "nothing")
			return true
		end
	`)
	assert.Equal(t, lua.LTrue, call(t, mgr, &scripting.Bindings{}, "inert"))
	assert.Equal(t, lua.LTrue, call(t, mgr, nil, "inert"))
}

func TestEngine_RandomUsesBoundSource(t *testing.T) {
	mgr, _ := newTestManager(t)
	load(t, mgr, `
		function roll_math() return math.random(6) end
		function roll_engine() return engine.random(6) end
	`)
	first := call(t, mgr, newFakeBattle().bindings(42), "roll_math")
	second := call(t, mgr, newFakeBattle().bindings(42), "roll_engine")
	assert.Equal(t, first, second)
}

func TestEngine_RandomWithoutSourceFails(t *testing.T) {
	mgr, logs := newTestManager(t)
	load(t, mgr, `function roll() return math.random(6) end`)
	assert.Equal(t, lua.LNil, call(t, mgr, nil, "roll"))
	assert.Equal(t, 1, logs.FilterMessage("scripting: Lua runtime error").Len())
}

func TestProperty_EngineRandomInRange(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.Load(writeTempLua(t, "r.lua", `
		function between(lo, hi) return engine.random(lo, hi) end
		function unit() return engine.random() end
	`), 0))
	rapid.Check(t, func(rt *rapid.T) {
		lo := rapid.IntRange(-100, 100).Draw(rt, "lo")
		hi := rapid.IntRange(lo, lo+200).Draw(rt, "hi")
		b := newFakeBattle().bindings(rapid.Int64().Draw(rt, "seed"))

		ret, err := mgr.CallHook(b, "between", lua.LNumber(lo), lua.LNumber(hi))
		require.NoError(rt, err)
		n := int(ret.(lua.LNumber))
		assert.GreaterOrEqual(rt, n, lo)
		assert.LessOrEqual(rt, n, hi)

		ret, err = mgr.CallHook(b, "unit")
		require.NoError(rt, err)
		f := float64(ret.(lua.LNumber))
		assert.GreaterOrEqual(rt, f, 0.0)
		assert.Less(rt, f, 1.0)
	})
}
