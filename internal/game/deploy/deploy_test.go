package deploy_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/skirmish/internal/game/catalog"
	"github.com/cory-johannsen/skirmish/internal/game/deploy"
	"github.com/cory-johannsen/skirmish/internal/game/unit"
)

func grunt(id string, skills ...string) *unit.Unit {
	u := &unit.Unit{ID: id, Stats: unit.Stats{HP: 10, MaxHP: 10}}
	for _, s := range skills {
		u.Skills = append(u.Skills, &unit.SkillRef{ID: s})
	}
	return u
}

func TestLimit_Base(t *testing.T) {
	assert.Equal(t, 4, deploy.Limit([]*unit.Unit{grunt("a"), grunt("b")}))
	assert.Equal(t, 4, deploy.Limit(nil))
}

func TestLimit_ScoutsAndBonus(t *testing.T) {
	squad := []*unit.Unit{grunt("a", "scouting"), grunt("b", "scouting", "scouting")}
	squad[1].DeploymentLimitBonus = 2
	assert.Equal(t, 9, deploy.Limit(squad))
}

func TestLimit_Capped(t *testing.T) {
	var squad []*unit.Unit
	for i := 0; i < 30; i++ {
		squad = append(squad, grunt(fmt.Sprint(i), "scouting"))
	}
	assert.Equal(t, deploy.MaxLimit, deploy.Limit(squad))
}

func TestCost(t *testing.T) {
	assert.Equal(t, 1, deploy.Cost(grunt("a")))
	assert.Equal(t, 0, deploy.Cost(grunt("a", "airdrop")))

	tank := grunt("t")
	tank.Vehicle = &unit.Vehicle{ID: "tank", HP: 400, Cost: 4}
	assert.Equal(t, 4, deploy.Cost(tank))

	tank.Skills = append(tank.Skills, &unit.SkillRef{ID: "airdrop"})
	assert.Equal(t, 0, deploy.Cost(tank))
}

func TestActiveCost_IgnoresDead(t *testing.T) {
	a, b := grunt("a"), grunt("b")
	b.ApplyDamage(100)
	assert.Equal(t, 1, deploy.ActiveCost([]*unit.Unit{a, b}))
}

func TestWaveSize_StopsAtFirstOverflow(t *testing.T) {
	heavy := grunt("h")
	heavy.Vehicle = &unit.Vehicle{Cost: 3}
	reserve := []*unit.Unit{grunt("a"), heavy, grunt("b")}
	// a fits (1), heavy would make 4 > 3 so the wave stops even though b would fit.
	assert.Equal(t, 1, deploy.WaveSize(reserve, 1, 3))
	assert.Equal(t, 3, deploy.WaveSize(reserve, 0, 5))
}

func TestWaveSize_NeverExceedsLimit_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		costs := rapid.SliceOf(rapid.IntRange(0, 5)).Draw(rt, "costs")
		limit := rapid.IntRange(1, 20).Draw(rt, "limit")
		active := rapid.IntRange(0, limit).Draw(rt, "active")
		var reserve []*unit.Unit
		for i, c := range costs {
			u := grunt(fmt.Sprint(i))
			u.Vehicle = &unit.Vehicle{Cost: c}
			reserve = append(reserve, u)
		}
		n := deploy.WaveSize(reserve, active, limit)
		total := active
		for _, u := range reserve[:n] {
			total += deploy.Cost(u)
		}
		assert.LessOrEqual(rt, total, limit)
		if n < len(reserve) {
			assert.Greater(rt, total+deploy.Cost(reserve[n]), limit)
		}
	})
}

func TestResolve_VehicleCostFromCatalog(t *testing.T) {
	crew := grunt("crew", "tank", "pistol", "mechanic")
	assert.Equal(t, 1, deploy.Cost(crew), "raw roster unit carries no vehicle yet")

	resolved := deploy.Resolve([]*unit.Unit{crew, grunt("a"), grunt("b")}, catalog.Builtin(), nil)
	require.Len(t, resolved, 3)
	require.NotNil(t, resolved[0].Vehicle)
	assert.Equal(t, "tank", resolved[0].Vehicle.ID)
	assert.Equal(t, 4, deploy.Cost(resolved[0]))
	assert.Equal(t, 1, deploy.WaveSize(resolved, 0, deploy.Limit(resolved)))
	assert.Nil(t, crew.Vehicle, "input squad is not modified")
}

func TestResolve_LogisticsRaisesLimit(t *testing.T) {
	squad := []*unit.Unit{grunt("a", "logistics"), grunt("b")}
	assert.Equal(t, 4, deploy.Limit(squad))
	assert.Equal(t, 5, deploy.Limit(deploy.Resolve(squad, catalog.Builtin(), nil)))
	assert.Equal(t, 0, squad[0].DeploymentLimitBonus)
}

func TestResolve_RunsModifyAfterCatalog(t *testing.T) {
	squad := []*unit.Unit{grunt("a", "logistics")}
	var seen int
	resolved := deploy.Resolve(squad, catalog.Builtin(), func(u *unit.Unit) {
		seen = u.DeploymentLimitBonus
		u.DeploymentLimitBonus += 2
	})
	assert.Equal(t, 1, seen)
	assert.Equal(t, 7, deploy.Limit(resolved))
}

func TestResolve_DropsUnitsWithoutHP(t *testing.T) {
	dead := grunt("dead")
	dead.HP = 0
	resolved := deploy.Resolve([]*unit.Unit{nil, dead, grunt("a")}, catalog.Builtin(), nil)
	require.Len(t, resolved, 1)
	assert.Equal(t, "a", resolved[0].ID)
}

func TestEquip_ReportsUnknownSkills(t *testing.T) {
	u := grunt("a", "jeep", "tank", "no_such_skill")
	unknown := deploy.Equip(u, catalog.Builtin())
	assert.Equal(t, []string{"no_such_skill"}, unknown)
	require.NotNil(t, u.Vehicle)
	assert.Equal(t, "jeep", u.Vehicle.ID, "first vehicle skill wins")
	assert.Equal(t, 2, deploy.Cost(u))
}
