package battle_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/skirmish/internal/game/battle"
	"github.com/cory-johannsen/skirmish/internal/game/catalog"
	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/unit"
)

func TestSplashDamage(t *testing.T) {
	assert.Equal(t, 100, battle.SplashDamage(100, 0, 50))
	assert.Equal(t, 75, battle.SplashDamage(100, 25, 50))
	assert.Equal(t, 50, battle.SplashDamage(100, 50, 50))
	assert.Equal(t, 0, battle.SplashDamage(100, 51, 50))
	assert.Equal(t, 0, battle.SplashDamage(100, 0, 0))
	assert.Equal(t, 0, battle.SplashDamage(0, 10, 50))
}

func TestSplashDamage_NonIncreasingInDistance(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		base := rapid.IntRange(0, 500).Draw(rt, "base")
		r := rapid.Float64Range(1, 200).Draw(rt, "radius")
		d1 := rapid.Float64Range(0, r).Draw(rt, "d1")
		d2 := rapid.Float64Range(d1, r*1.5).Draw(rt, "d2")
		near, far := battle.SplashDamage(base, d1, r), battle.SplashDamage(base, d2, r)
		assert.GreaterOrEqual(rt, near, far)
		assert.LessOrEqual(rt, near, base)
		assert.GreaterOrEqual(rt, far, 0)
	})
}

func rifle() *battle.Weapon {
	a, _ := catalog.Builtin().Get("assault_rifle")
	return battle.NewWeapon(a)
}

func TestHitChance(t *testing.T) {
	shooter := &unit.Unit{ID: "s", Stats: unit.Stats{Aim: 80}, Conditions: condition.NewActiveSet()}
	target := &unit.Unit{ID: "t", Stats: unit.Stats{Dodge: 10}, Conditions: condition.NewActiveSet()}
	w := rifle()

	assert.InDelta(t, 62.0, battle.HitChance(shooter, target, w, 100), 1e-9)

	shooter.Tactics.BodyPart = unit.HeadPart
	assert.InDelta(t, 39.5, battle.HitChance(shooter, target, w, 100), 1e-9)

	shooter.Tactics.BodyPart = unit.LimbPart
	assert.InDelta(t, 53.0, battle.HitChance(shooter, target, w, 100), 1e-9)
}

func TestHitChance_EvasiveOnlyWhileMoving(t *testing.T) {
	shooter := &unit.Unit{ID: "s", Stats: unit.Stats{Aim: 100}, Conditions: condition.NewActiveSet()}
	target := &unit.Unit{ID: "t", Skills: []*unit.SkillRef{{ID: catalog.SkillEvasive}}, Conditions: condition.NewActiveSet()}
	w := rifle()

	still := battle.HitChance(shooter, target, w, 100)
	target.Moving = true
	assert.InDelta(t, still-battle.EvasiveDodge, battle.HitChance(shooter, target, w, 100), 1e-9)
}

func TestHitChance_MinRangePenalty(t *testing.T) {
	a, _ := catalog.Builtin().Get("sniper_rifle")
	w := battle.NewWeapon(a)
	shooter := &unit.Unit{ID: "s", Stats: unit.Stats{Aim: 100}, Conditions: condition.NewActiveSet()}
	target := &unit.Unit{ID: "t", Conditions: condition.NewActiveSet()}

	far := battle.HitChance(shooter, target, w, 400)
	near := battle.HitChance(shooter, target, w, 100)
	assert.InDelta(t, float64(battle.MinRangePenalty)*float64(w.Aim)/100, far-near, 1e-9)
}

func TestHitChance_Conditions(t *testing.T) {
	reg := condition.Builtin()
	blinded, _ := reg.Get(condition.Blinded)
	slowed, _ := reg.Get(condition.Slowed)

	shooter := &unit.Unit{ID: "s", Stats: unit.Stats{Aim: 100}, Conditions: condition.NewActiveSet()}
	target := &unit.Unit{ID: "t", Stats: unit.Stats{Dodge: 20}, Conditions: condition.NewActiveSet()}
	w := rifle()
	base := battle.HitChance(shooter, target, w, 100)

	assert.NoError(t, shooter.Conditions.Apply(blinded, 1, 10))
	assert.Less(t, battle.HitChance(shooter, target, w, 100), base)

	shooter.Conditions.Remove(condition.Blinded)
	assert.NoError(t, target.Conditions.Apply(slowed, 1, 10))
	assert.Greater(t, battle.HitChance(shooter, target, w, 100), base)
}

func TestWeapon_SafeAt(t *testing.T) {
	cat := catalog.Builtin()
	rocket, _ := cat.Get("rocket_launcher")
	w := battle.NewWeapon(rocket)
	assert.False(t, w.SafeAt(50))
	assert.False(t, w.SafeAt(70))
	assert.True(t, w.SafeAt(100))

	frag, _ := cat.Get("frag_grenade")
	g := battle.NewGrenade(frag)
	assert.True(t, g.Thrown)
	assert.False(t, g.SafeAt(70))
	assert.True(t, g.SafeAt(71))
	assert.True(t, rifle().SafeAt(1))
}
