package battle

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/ai"
	"github.com/cory-johannsen/skirmish/internal/game/catalog"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/geom"
	"github.com/cory-johannsen/skirmish/internal/game/unit"
)

var teams = [2]unit.Team{unit.TeamA, unit.TeamB}

// Context is the state of one running battle. It is passed by reference into
// every hook and resolver call and is never shared between battles.
type Context struct {
	ctx      context.Context
	opts     Options
	tick     int
	log      *Log
	roll     *dice.Roller
	logger   *zap.Logger
	roster   map[unit.Team][]*unit.Unit
	deployed map[unit.Team][]*unit.Unit
	reserve  map[unit.Team][]*unit.Unit
	stranded map[unit.Team][]*unit.Unit
	limits   map[unit.Team]int
	jammed   map[string]map[string]bool
	weapons  map[string]*Weapon
	reacting int
}

func newContext(ctx context.Context, opts Options) *Context {
	return &Context{
		ctx:      ctx,
		opts:     opts,
		log:      NewLog(opts.Logger),
		roll:     dice.NewLoggedRoller(opts.Source, opts.Logger),
		logger:   opts.Logger,
		roster:   make(map[unit.Team][]*unit.Unit),
		deployed: make(map[unit.Team][]*unit.Unit),
		reserve:  make(map[unit.Team][]*unit.Unit),
		stranded: make(map[unit.Team][]*unit.Unit),
		limits:   make(map[unit.Team]int),
		jammed:   make(map[string]map[string]bool),
		weapons:  make(map[string]*Weapon),
	}
}

// NewContext returns an empty battle on opts, for running rules and skill
// hooks outside Simulate. Units join it through Place.
func NewContext(ctx context.Context, opts Options) *Context {
	return newContext(ctx, opts.withDefaults())
}

// Place fields a prepared copy of in for team at pos with full magazines,
// without a deploy entry or deploy hooks.
//
// Postcondition: Returns the fielded copy, or nil if in has no HP.
func (c *Context) Place(in *unit.Unit, team unit.Team, pos geom.Vec2) *unit.Unit {
	u := c.prepare(in, team)
	if u == nil {
		return nil
	}
	u.Pos = geom.Clamp(pos)
	c.arm(u)
	c.roster[team] = append(c.roster[team], u)
	c.deployed[team] = append(c.deployed[team], u)
	return u
}

// Entries returns the log written so far.
func (c *Context) Entries() []Entry { return c.log.Entries() }

// Tick returns the current tick.
func (c *Context) Tick() int { return c.tick }

// Roll returns the battle's random roller.
func (c *Context) Roll() *dice.Roller { return c.roll }

// Catalog returns the ability catalog.
func (c *Context) Catalog() *catalog.Catalog { return c.opts.Catalog }

// Logger returns the battle logger.
func (c *Context) Logger() *zap.Logger { return c.logger }

// Emit appends e to the battle log stamped with the current tick.
func (c *Context) Emit(e Entry) {
	e.Time = c.tick
	c.log.Append(e)
}

// Reacting reports whether the running hit or damage-taken hook was itself
// triggered by damage dealt from another such hook. Hooks that deal damage
// check it to avoid chain reactions.
func (c *Context) Reacting() bool { return c.reacting > 1 }

func (c *Context) react(fn func()) {
	if c.reacting > 2 {
		return
	}
	c.reacting++
	defer func() { c.reacting-- }()
	fn()
}

// Roster returns the full squad of team, deployed or not.
func (c *Context) Roster(team unit.Team) []*unit.Unit { return c.roster[team] }

// Deployed returns the living deployed units of team.
func (c *Context) Deployed(team unit.Team) []*unit.Unit {
	return living(c.deployed[team])
}

// Reserve returns the units of team still waiting to deploy.
func (c *Context) Reserve(team unit.Team) []*unit.Unit { return c.reserve[team] }

// Units returns every living deployed unit, team A first.
func (c *Context) Units() []*unit.Unit {
	return append(c.Deployed(unit.TeamA), c.Deployed(unit.TeamB)...)
}

// Enemies returns the living deployed units opposing u.
func (c *Context) Enemies(u *unit.Unit) []*unit.Unit {
	return c.Deployed(u.Team.Opponent())
}

// Allies returns u's living deployed teammates, excluding u.
func (c *Context) Allies(u *unit.Unit) []*unit.Unit {
	var out []*unit.Unit
	for _, a := range c.deployed[u.Team] {
		if a != u && a.Alive() {
			out = append(out, a)
		}
	}
	return out
}

// Unit returns the deployed unit with id, alive or not.
func (c *Context) Unit(id string) *unit.Unit {
	for _, t := range teams {
		for _, u := range c.deployed[t] {
			if u.ID == id {
				return u
			}
		}
	}
	return nil
}

// SelectTarget picks u's target among the living enemies.
func (c *Context) SelectTarget(u *unit.Unit) *unit.Unit {
	f := &ai.Field{Self: u, Units: c.Units()}
	return ai.SelectTarget(f, c.roll)
}

// Jam renders weaponID unusable for u. by may be nil.
func (c *Context) Jam(u *unit.Unit, weaponID string, by *unit.Unit) {
	if c.jammed[u.ID] == nil {
		c.jammed[u.ID] = make(map[string]bool)
	}
	if c.jammed[u.ID][weaponID] {
		return
	}
	c.jammed[u.ID][weaponID] = true
	e := Entry{Action: ActJam, TargetID: u.ID, TargetName: u.Name, WeaponID: weaponID}
	if by != nil {
		e.ActorID, e.ActorName = by.ID, by.Name
	}
	c.Emit(e)
}

// IsJammed reports whether weaponID was jammed on u.
func (c *Context) IsJammed(u *unit.Unit, weaponID string) bool {
	return c.jammed[u.ID][weaponID]
}

// Weapon returns the firing profile for a weapon or grenade id.
func (c *Context) Weapon(id string) (*Weapon, bool) {
	if w, ok := c.weapons[id]; ok {
		return w, true
	}
	a, ok := c.opts.Catalog.Get(id)
	if !ok {
		return nil, false
	}
	var w *Weapon
	switch a.Kind {
	case catalog.KindWeapon:
		w = NewWeapon(a)
	case catalog.KindGrenade:
		w = NewGrenade(a)
	default:
		return nil, false
	}
	c.weapons[id] = w
	return w, true
}

// WeaponIDs returns u's weapons in skill order, followed by its vehicle's
// mounted weapon while the vehicle is intact. Grenades are not included.
func (c *Context) WeaponIDs(u *unit.Unit) []string {
	var out []string
	for _, s := range u.Skills {
		if _, ok := c.opts.Catalog.Weapon(s.ID); ok {
			out = append(out, s.ID)
		}
	}
	if u.Mounted() && u.Vehicle.Weapon != "" {
		if _, ok := c.opts.Catalog.Weapon(u.Vehicle.Weapon); ok {
			out = append(out, u.Vehicle.Weapon)
		}
	}
	return out
}

// ApplyStatus applies condition id to u for ticks ticks. Unknown ids are ignored.
func (c *Context) ApplyStatus(u *unit.Unit, id string, ticks int, source *unit.Unit) bool {
	def, ok := c.opts.Conditions.Get(id)
	if !ok || !u.Alive() {
		c.logger.Debug("status skipped", zap.String("status", id), zap.String("unit", u.ID))
		return false
	}
	if err := u.Conditions.Apply(def, 1, ticks); err != nil {
		c.logger.Debug("status rejected", zap.Error(err))
		return false
	}
	e := Entry{Action: ActStatus, TargetID: u.ID, TargetName: u.Name, Message: id, Data: map[string]string{"status": id}}
	if source != nil {
		e.ActorID, e.ActorName = source.ID, source.Name
	}
	c.Emit(e)
	return true
}

// Heal restores up to amount HP to target and logs it. Returns HP gained.
func (c *Context) Heal(target, healer *unit.Unit, amount int, source string) int {
	gained := target.Heal(amount)
	if gained == 0 {
		return 0
	}
	e := Entry{Action: ActHeal, TargetID: target.ID, TargetName: target.Name, Heal: gained, Message: source}
	if healer != nil {
		e.ActorID, e.ActorName = healer.ID, healer.Name
	}
	c.Emit(e)
	return gained
}

// Damage deals amount to victim, routed through its vehicle and armor, and
// logs it as a damage entry. Returns the damage applied.
func (c *Context) Damage(victim, attacker *unit.Unit, amount int, source string) int {
	if !victim.Alive() || amount <= 0 {
		return 0
	}
	dealt, toVehicle := c.mitigate(victim, amount, false)
	e := Entry{Action: ActDamage, TargetID: victim.ID, TargetName: victim.Name, Damage: dealt, Message: source}
	if attacker != nil {
		e.ActorID, e.ActorName = attacker.ID, attacker.Name
	}
	c.Emit(e)
	return c.apply(victim, attacker, dealt, toVehicle)
}

// Reload refills u's magazine for weaponID and logs it. Returns false when
// the weapon has no magazine or is already full.
func (c *Context) Reload(u *unit.Unit, weaponID string) bool {
	w, ok := c.Weapon(weaponID)
	ref := u.Skill(weaponID)
	if !ok || ref == nil || w.Capacity == 0 || ref.Ammo >= w.Capacity {
		return false
	}
	ref.Ammo = w.Capacity
	c.Emit(Entry{ActorID: u.ID, ActorName: u.Name, Action: ActReload, WeaponID: weaponID, Data: map[string]string{"ammo": strconv.Itoa(ref.Ammo)}})
	return true
}

// Move relocates u toward dest by at most step units and logs the move under
// action. The unit counts as moving until its next action.
func (c *Context) Move(u *unit.Unit, dest geom.Vec2, step float64, action Action) {
	next := geom.Clamp(geom.Toward(u.Pos, dest, step))
	u.Pos = next
	u.Moving = true
	p := next
	c.Emit(Entry{ActorID: u.ID, ActorName: u.Name, Action: action, TargetPos: &p})
}

func living(us []*unit.Unit) []*unit.Unit {
	out := make([]*unit.Unit, 0, len(us))
	for _, u := range us {
		if u.Alive() {
			out = append(out, u)
		}
	}
	return out
}
