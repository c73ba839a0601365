package battle

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/catalog"
	"github.com/cory-johannsen/skirmish/internal/game/deploy"
	"github.com/cory-johannsen/skirmish/internal/game/geom"
	"github.com/cory-johannsen/skirmish/internal/game/unit"
)

// zoneWidth is the depth of each team's deployment zone along x.
const zoneWidth = 150.0

// deployTeam runs the per-tick reinforcement check for team.
func (c *Context) deployTeam(team unit.Team) {
	if c.opts.Reinforcement == Wave && len(c.Deployed(team)) > 0 {
		return
	}
	c.deployWave(team)
}

// reinforce pulls an immediate wave for team regardless of policy. It is
// called when a unit finds no enemy mid-tick.
func (c *Context) reinforce(team unit.Team) int {
	n := c.deployWave(team)
	if n > 0 {
		c.logger.Debug("reinforced", zap.String("team", string(team)), zap.Int("tick", c.tick), zap.Int("units", n))
	}
	return n
}

// deployWave deploys units from the head of team's reserve while they fit in
// the remaining capacity. A head unit that cannot fit even into an empty
// field is stranded so the queue behind it can move.
//
// Postcondition: deploy.ActiveCost(deployed) <= limit.
func (c *Context) deployWave(team unit.Team) int {
	limit := c.limits[team]
	for {
		reserve := c.reserve[team]
		if len(reserve) == 0 {
			return 0
		}
		active := deploy.ActiveCost(c.deployed[team])
		n := deploy.WaveSize(reserve, active, limit)
		if n > 0 {
			wave := reserve[:n]
			c.reserve[team] = reserve[n:]
			for _, u := range wave {
				c.place(u)
			}
			return n
		}
		if active > 0 {
			return 0
		}
		head := reserve[0]
		c.reserve[team] = reserve[1:]
		c.stranded[team] = append(c.stranded[team], head)
		c.Emit(Entry{
			ActorID:   head.ID,
			ActorName: head.Name,
			Action:    ActStranded,
			Data: map[string]string{
				"cost":  strconv.Itoa(deploy.Cost(head)),
				"limit": strconv.Itoa(limit),
			},
		})
	}
}

// place puts u on the field at a random point of its team's zone with fresh
// combat state.
func (c *Context) place(u *unit.Unit) {
	x := c.roll.Range(0, zoneWidth)
	if u.Team == unit.TeamB {
		x = c.roll.Range(geom.Width-zoneWidth, geom.Width)
	}
	u.Pos = geom.V(x, c.roll.Range(0, geom.Height))
	u.ActionTimer = c.roll.Intn(ActionThreshold)
	c.arm(u)

	c.deployed[u.Team] = append(c.deployed[u.Team], u)
	p := u.Pos
	c.Emit(Entry{ActorID: u.ID, ActorName: u.Name, Action: ActDeploy, TargetPos: &p, WeaponID: u.Weapon})
	c.opts.Metrics.UnitDeployed(c.ctx, u.Team)
	c.opts.Hooks.Deploy(u, c)
}

// arm loads u's magazines and consumables and resets its turn state.
func (c *Context) arm(u *unit.Unit) {
	for _, s := range u.Skills {
		a, ok := c.opts.Catalog.Get(s.ID)
		if !ok {
			continue
		}
		switch a.Kind {
		case catalog.KindWeapon:
			s.Ammo = a.Weapon.Capacity
		case catalog.KindGrenade:
			s.Uses = a.Grenade.Uses
		case catalog.KindEquipment:
			s.Uses = a.Equipment.Uses
		}
	}
	u.Recovery = 0
	u.Burst = nil
	u.Moving = false
	u.LastSwitch = unit.NoSwitch
	u.Weapon = c.initialWeapon(u)
}
