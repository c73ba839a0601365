package skill_test

import (
	"fmt"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/skirmish/internal/game/battle"
	"github.com/cory-johannsen/skirmish/internal/game/catalog"
	"github.com/cory-johannsen/skirmish/internal/game/deploy"
	"github.com/cory-johannsen/skirmish/internal/game/skill"
	"github.com/cory-johannsen/skirmish/internal/game/unit"
	"github.com/cory-johannsen/skirmish/internal/scripting"
)

func scriptedRegistry(t *testing.T) *skill.Registry {
	t.Helper()
	logger := zaptest.NewLogger(t)
	mgr := scripting.NewManager(logger)
	t.Cleanup(mgr.Close)
	require.NoError(t, mgr.LoadFS(skill.Scripts, "scripts", scripting.DefaultInstructionLimit))

	r := skill.Builtin(logger)
	require.NoError(t, skill.RegisterScripted(r, catalog.Builtin(), mgr))
	return r
}

func TestRegisterScripted_WiresDefinedHooksOnly(t *testing.T) {
	r := scriptedRegistry(t)
	h, ok := r.Lookup("vampiric")
	require.True(t, ok)
	assert.NotNil(t, h.ModifyStats)
	assert.NotNil(t, h.OnHit)
	assert.Nil(t, h.OnTurnStart)
	assert.Nil(t, h.OnDamageTaken)
}

func TestRegisterScripted_DuplicateID(t *testing.T) {
	mgr := scripting.NewManager(zap.NewNop())
	require.NoError(t, mgr.LoadFS(skill.Scripts, "scripts", 0))
	r := skill.NewRegistry(nil)
	require.NoError(t, r.Register("vampiric", &skill.Hooks{}))
	assert.Error(t, skill.RegisterScripted(r, catalog.Builtin(), mgr))
}

func TestScripted_ModifyStatsAppliesReturnedTable(t *testing.T) {
	r := scriptedRegistry(t)
	u := trooper("v", 50, "vampiric")
	u.Level = 2
	r.ModifyStats(u)
	assert.Equal(t, 40, u.MaxHP)
	assert.Equal(t, 40, u.HP)
	assert.Equal(t, 82, u.Aim)
}

func TestScripted_VampiricDrainsOnHit(t *testing.T) {
	r := scriptedRegistry(t)
	v := trooper("vamp", 100, "lmg", "vampiric")
	v.HP = 20
	v.Aim = 100

	res, err := battle.Simulate([]*unit.Unit{v}, []*unit.Unit{dummy("d")}, battle.Options{
		Seed:     17,
		Hooks:    r,
		MaxTicks: 600,
	})
	require.NoError(t, err)

	var drained int
	for _, e := range res.Log {
		if e.Action == battle.ActHeal && e.Message == "vampiric" {
			assert.Equal(t, "vamp", e.ActorID)
			assert.Equal(t, "vamp", e.TargetID)
			drained += e.Heal
		}
	}
	assert.Positive(t, drained)

	var narrated bool
	for _, e := range entries(res.Log, battle.ActSkill) {
		narrated = narrated || strings.HasPrefix(e.Message, "drains ")
	}
	assert.True(t, narrated)
}

func TestScripted_NestedDamageDoesNotDeadlock(t *testing.T) {
	mgr := scripting.NewManager(zap.NewNop())
	t.Cleanup(mgr.Close)
	require.NoError(t, mgr.LoadFS(fstest.MapFS{"s/thorns.lua": {Data: []byte(`
		function thorns_on_damage_taken(self, attacker, damage)
			if attacker ~= nil then
				engine.damage(attacker, 1, "thorns")
			end
		end
		function thorns_on_hit(self, target, damage)
			engine.damage(target, 1, "thorns")
		end
	`)}}, "s", 0))

	cat := catalog.Builtin()
	require.NoError(t, cat.Register(&catalog.Ability{ID: "thorns", Name: "Thorns", Kind: catalog.KindPassive, Script: true}))
	r := skill.NewRegistry(nil)
	require.NoError(t, skill.RegisterScripted(r, cat, mgr))

	a := []*unit.Unit{trooper("a1", 60, "pistol", "thorns")}
	b := []*unit.Unit{trooper("b1", 60, "pistol", "thorns")}
	res, err := battle.Simulate(a, b, battle.Options{Seed: 4, Hooks: r, Catalog: cat})
	require.NoError(t, err)

	var thorns int
	for _, e := range entries(res.Log, battle.ActDamage) {
		if e.Message == "thorns" {
			thorns++
		}
	}
	assert.Positive(t, thorns)
}

func TestScripted_ModifyStatsRaisesDeploymentLimit(t *testing.T) {
	mgr := scripting.NewManager(zap.NewNop())
	t.Cleanup(mgr.Close)
	require.NoError(t, mgr.LoadFS(fstest.MapFS{"s/quartermaster.lua": {Data: []byte(`
		function quartermaster_modify_stats(self, level)
			return { deployment_limit_bonus = 2, speed = 5 }
		end
	`)}}, "s", 0))

	cat := catalog.Builtin()
	require.NoError(t, cat.Register(&catalog.Ability{ID: "quartermaster", Name: "Quartermaster", Kind: catalog.KindPassive, Script: true}))
	r := skill.NewRegistry(nil)
	require.NoError(t, skill.RegisterScripted(r, cat, mgr))

	u := trooper("q", 50, "quartermaster")
	r.ModifyStats(u)
	assert.Equal(t, 2, u.DeploymentLimitBonus)
	assert.Equal(t, 45, u.Speed)

	var squad []*unit.Unit
	for i := 0; i < 8; i++ {
		squad = append(squad, trooper(fmt.Sprintf("a%d", i), 50, "pistol"))
	}
	squad[0].Skills = append(squad[0].Skills, &unit.SkillRef{ID: "quartermaster"})
	assert.Equal(t, 6, deploy.Limit(deploy.Resolve(squad, cat, r.ModifyStats)))

	res, err := battle.Simulate(squad, []*unit.Unit{dummy("d")}, battle.Options{Seed: 2, Hooks: r, Catalog: cat, MaxTicks: 1})
	require.NoError(t, err)
	var tickZero int
	for _, e := range entries(res.Log, battle.ActDeploy) {
		if e.Time == 0 && e.ActorID != "d" {
			tickZero++
		}
	}
	assert.Equal(t, 6, tickZero)
}
