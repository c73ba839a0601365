package battle

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/deploy"
	"github.com/cory-johannsen/skirmish/internal/game/unit"
)

// Result is the outcome of one battle. It is never modified after Simulate
// returns: the log is a copy and survivors are clones.
type Result struct {
	Winner     Winner
	Log        []Entry
	SurvivorsA []*unit.Unit
	SurvivorsB []*unit.Unit
	Ticks      int
	// TimedOut is set when the tick ceiling ended a battle both teams survived.
	TimedOut bool
	Seed     int64
}

// Simulate runs a battle between squadA and squadB to completion.
//
// The input squads are not modified. With the same squads, options and seed
// the result is identical.
func Simulate(squadA, squadB []*unit.Unit, opts Options) (*Result, error) {
	return SimulateContext(context.Background(), squadA, squadB, opts)
}

// SimulateContext is Simulate with cancellation, checked once per tick.
func SimulateContext(ctx context.Context, squadA, squadB []*unit.Unit, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	c := newContext(ctx, opts)

	seen := make(map[string]bool)
	for i, squad := range [][]*unit.Unit{squadA, squadB} {
		team := teams[i]
		for _, in := range squad {
			if in == nil {
				continue
			}
			if seen[in.ID] {
				return nil, fmt.Errorf("battle: Simulate: duplicate unit id %q", in.ID)
			}
			seen[in.ID] = true
			if u := c.prepare(in, team); u != nil {
				c.roster[team] = append(c.roster[team], u)
			}
		}
		c.limits[team] = deploy.Limit(c.roster[team])
		c.reserve[team] = append([]*unit.Unit(nil), c.roster[team]...)
	}

	c.logger.Info("battle started",
		zap.Int64("seed", opts.Seed),
		zap.Int("squad_a", len(c.roster[unit.TeamA])),
		zap.Int("squad_b", len(c.roster[unit.TeamB])),
		zap.Int("limit_a", c.limits[unit.TeamA]),
		zap.Int("limit_b", c.limits[unit.TeamB]),
		zap.String("reinforcement", string(opts.Reinforcement)),
	)

	for _, t := range teams {
		opts.Hooks.TeamBattleStart(t, c.roster[t], c)
	}
	for _, t := range teams {
		for _, u := range c.roster[t] {
			opts.Hooks.BattleStart(u, c)
		}
	}

	ended := false
	for c.tick = 0; c.tick < opts.MaxTicks; c.tick++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("battle: Simulate: %w", err)
		}
		for _, t := range teams {
			c.deployTeam(t)
		}
		if c.exhausted(unit.TeamA) || c.exhausted(unit.TeamB) {
			ended = true
			break
		}
		if err := c.runTick(); err != nil {
			return nil, fmt.Errorf("battle: Simulate: tick %d: %w", c.tick, err)
		}
		c.cleanup()
	}

	res := &Result{
		Log:        c.log.Entries(),
		SurvivorsA: c.survivors(unit.TeamA),
		SurvivorsB: c.survivors(unit.TeamB),
		Ticks:      c.tick,
		Seed:       opts.Seed,
	}
	switch a, b := len(res.SurvivorsA), len(res.SurvivorsB); {
	case a > 0 && b == 0:
		res.Winner = WinnerA
	case b > 0 && a == 0:
		res.Winner = WinnerB
	default:
		res.Winner = Draw
		res.TimedOut = !ended && a > 0
	}

	opts.Metrics.BattleFinished(ctx, res.Winner, res.Ticks, len(res.Log))
	c.logger.Info("battle finished",
		zap.String("winner", string(res.Winner)),
		zap.Int("ticks", res.Ticks),
		zap.Bool("timed_out", res.TimedOut),
		zap.Int("entries", len(res.Log)),
	)
	return res, nil
}

// prepare clones in onto team and applies the pre-battle stat pipeline:
// deploy.Equip, then the ModifyStats hooks. Units with no HP are dropped.
func (c *Context) prepare(in *unit.Unit, team unit.Team) *unit.Unit {
	u := in.Clone()
	u.Team = team
	u.Dead = false
	if u.Conditions == nil {
		u.Conditions = condition.NewActiveSet()
	}
	if u.MaxHP <= 0 {
		u.MaxHP = u.HP
	}
	u.HP = min(u.HP, u.MaxHP)
	if u.HP <= 0 {
		c.logger.Debug("unit dropped", zap.String("unit", u.ID), zap.String("reason", "no hp"))
		return nil
	}

	for _, id := range deploy.Equip(u, c.opts.Catalog) {
		c.logger.Debug("unknown skill", zap.String("unit", u.ID), zap.String("skill", id))
	}
	c.opts.Hooks.ModifyStats(u)
	u.HP = max(1, min(u.HP, u.MaxHP))
	return u
}

func (c *Context) runTick() error {
	aborted := make(map[unit.Team]bool, len(teams))
	for _, u := range c.Units() {
		if aborted[u.Team] {
			continue
		}
		err := c.takeTurn(u)
		if errors.Is(err, ErrNoTargetAvailable) {
			c.logger.Debug("no target available", zap.String("team", string(u.Team)), zap.Int("tick", c.tick), zap.Error(err))
			aborted[u.Team] = true
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *Context) cleanup() {
	for _, t := range teams {
		c.deployed[t] = living(c.deployed[t])
	}
}

func (c *Context) exhausted(team unit.Team) bool {
	return len(c.Deployed(team)) == 0 && len(c.reserve[team]) == 0
}

// survivors returns clones of team's living deployed units plus every unit
// that never reached the field, stranded ones included.
func (c *Context) survivors(team unit.Team) []*unit.Unit {
	var out []*unit.Unit
	for _, u := range c.Deployed(team) {
		out = append(out, u.Clone())
	}
	for _, u := range c.reserve[team] {
		out = append(out, u.Clone())
	}
	for _, u := range c.stranded[team] {
		out = append(out, u.Clone())
	}
	return out
}
