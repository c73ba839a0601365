package skill_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/battle"
	"github.com/cory-johannsen/skirmish/internal/game/skill"
	"github.com/cory-johannsen/skirmish/internal/game/unit"
)

func trooper(id string, hp int, skills ...string) *unit.Unit {
	u := withSkills(id, skills...)
	u.Stats = unit.Stats{HP: hp, MaxHP: hp, Speed: 40, Initiative: 10, Aim: 80, Dodge: 5}
	return u
}

// dummy never deals damage and outlasts any test battle.
func dummy(id string) *unit.Unit {
	return &unit.Unit{ID: id, Name: id, Stats: unit.Stats{HP: 100000, MaxHP: 100000}}
}

func entries(log []battle.Entry, action battle.Action) []battle.Entry {
	var out []battle.Entry
	for _, e := range log {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

func simulate(t *testing.T, a, b []*unit.Unit, seed int64, maxTicks int) *battle.Result {
	t.Helper()
	res, err := battle.Simulate(a, b, battle.Options{
		Seed:     seed,
		Hooks:    skill.Builtin(zap.NewNop()),
		MaxTicks: maxTicks,
	})
	require.NoError(t, err)
	return res
}

func TestBuiltin_RegistersEverySkill(t *testing.T) {
	r := skill.Builtin(nil)
	for _, id := range []string{
		skill.Medic, skill.Medkit, skill.Infiltrator, skill.Sabotage, skill.Comms,
		skill.Officer, skill.Veteran, skill.ExplosiveShells, skill.Counterattack,
		skill.LastStand, skill.Adrenaline, skill.Grenadier, skill.Marksman,
		skill.Executioner, skill.QuickHands, skill.Regeneration, skill.Mechanic,
	} {
		_, ok := r.Lookup(id)
		assert.True(t, ok, id)
	}
	assert.Equal(t, 17, r.Len())
}

func TestBuiltin_VeteranScalesWithLevel(t *testing.T) {
	u := trooper("v", 50, skill.Veteran)
	u.Level = 3
	skill.Builtin(nil).ModifyStats(u)
	assert.Equal(t, 83, u.Aim)
	assert.Equal(t, 65, u.MaxHP)
	assert.Equal(t, 65, u.HP)
}

func TestBuiltin_MarksmanOnlyAgainstStationaryTargets(t *testing.T) {
	r := skill.Builtin(nil)
	shooter := trooper("m", 50, skill.Marksman)
	target := trooper("t", 50)

	r.BeforeAttack(shooter, target, nil, nil)
	assert.Equal(t, 20, shooter.Transient.AimBonus)

	shooter.Transient = unit.Transient{}
	target.Moving = true
	r.BeforeAttack(shooter, target, nil, nil)
	assert.Zero(t, shooter.Transient.AimBonus)
}

func TestBuiltin_ExecutionerAgainstBadlyWoundedTargets(t *testing.T) {
	r := skill.Builtin(nil)
	shooter := trooper("e", 50, skill.Executioner)
	target := trooper("t", 100)

	r.BeforeAttack(shooter, target, nil, nil)
	assert.Zero(t, shooter.Transient.DamageMult)

	target.HP = 24
	r.BeforeAttack(shooter, target, nil, nil)
	assert.InDelta(t, 1.5, shooter.Transient.DamageMult, 1e-9)
}

func TestBuiltin_OfficerBuffsTeamOnce(t *testing.T) {
	a := []*unit.Unit{trooper("o1", 50, "pistol", skill.Officer), trooper("o2", 50, "pistol", skill.Officer)}
	res := simulate(t, a, []*unit.Unit{dummy("d")}, 11, 5)

	buffs := entries(res.Log, battle.ActBuff)
	require.Len(t, buffs, 1)
	assert.Equal(t, "o1", buffs[0].ActorID)
	assert.Equal(t, "A", buffs[0].Data["team"])
	assert.Equal(t, "10", buffs[0].Data["aim"])
	assert.Equal(t, 0, buffs[0].Time)
}

func TestBuiltin_SabotageJamsEnemyWeapons(t *testing.T) {
	saboteurs := []*unit.Unit{
		trooper("s1", 50, "pistol", skill.Sabotage),
		trooper("s2", 50, "pistol", skill.Sabotage),
	}
	var b []*unit.Unit
	for i := 0; i < 3; i++ {
		b = append(b, trooper(fmt.Sprintf("b%d", i), 50, "pistol", "smg"))
	}
	b[0].Skills = append(b[0].Skills, &unit.SkillRef{ID: skill.Comms})

	res := simulate(t, saboteurs, b, 5, 5)
	jams := entries(res.Log, battle.ActJam)
	require.Len(t, jams, 1)
	assert.Contains(t, []string{"b0", "b1", "b2"}, jams[0].TargetID)
	assert.NotEmpty(t, jams[0].WeaponID)
}

func TestBuiltin_CommsCancelsSabotage(t *testing.T) {
	a := []*unit.Unit{trooper("s1", 50, "pistol", skill.Sabotage)}
	b := []*unit.Unit{trooper("b1", 50, "pistol", skill.Comms)}
	res := simulate(t, a, b, 5, 5)
	assert.Empty(t, entries(res.Log, battle.ActJam))
}

func TestBuiltin_LastStandRevivesOnce(t *testing.T) {
	a := []*unit.Unit{trooper("hero", 30, "pistol", skill.LastStand)}
	var b []*unit.Unit
	for i := 0; i < 4; i++ {
		g := trooper(fmt.Sprintf("g%d", i), 300, "lmg")
		g.Aim = 100
		g.Armor = 2
		b = append(b, g)
	}
	res := simulate(t, a, b, 9, 0)

	revives := entries(res.Log, battle.ActRevive)
	require.Len(t, revives, 1)
	assert.Equal(t, "hero", revives[0].ActorID)
	deaths := entries(res.Log, battle.ActDeath)
	require.Len(t, deaths, 1)
	assert.GreaterOrEqual(t, deaths[0].Time, revives[0].Time)
	assert.Equal(t, battle.WinnerB, res.Winner)
}

func TestBuiltin_MedicHealsWoundedAlly(t *testing.T) {
	medic := trooper("medic", 80, "combat_knife", skill.Medic)
	patient := trooper("patient", 100, "combat_knife")
	patient.HP = 20
	res := simulate(t, []*unit.Unit{medic, patient}, []*unit.Unit{dummy("d")}, 3, 1500)

	var healed int
	for _, e := range entries(res.Log, battle.ActHeal) {
		if e.Message == skill.Medic {
			assert.Equal(t, "medic", e.ActorID)
			assert.Equal(t, "patient", e.TargetID)
			healed += e.Heal
		}
	}
	assert.Positive(t, healed)
}

func TestBuiltin_InfiltratorDeploysForward(t *testing.T) {
	a := []*unit.Unit{trooper("inf", 50, "pistol", skill.Infiltrator)}
	b := []*unit.Unit{trooper("binf", 50, "pistol", skill.Infiltrator)}
	res := simulate(t, a, b, 21, 1)

	skills := entries(res.Log, battle.ActSkill)
	require.Len(t, skills, 2)
	for _, e := range skills {
		require.NotNil(t, e.TargetPos)
		switch e.ActorID {
		case "inf":
			assert.GreaterOrEqual(t, e.TargetPos.X, 600.0)
			assert.Less(t, e.TargetPos.X, 850.0)
		case "binf":
			assert.GreaterOrEqual(t, e.TargetPos.X, 150.0)
			assert.Less(t, e.TargetPos.X, 400.0)
		}
	}
}
