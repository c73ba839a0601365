package battle

import (
	"math"
	"strconv"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/catalog"
	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/geom"
	"github.com/cory-johannsen/skirmish/internal/game/unit"
)

// Shot is the outcome of one resolved attack.
type Shot struct {
	Target     *unit.Unit // unit actually struck or aimed at after obstruction
	Hit        bool
	Crit       bool
	Obstructed bool
	Damage     int
	Region     unit.Region
	Impact     geom.Vec2
}

// HitChance returns the percentage chance for attacker to hit target with w
// at distance d, before the obstruction rule.
//
// chance = (aim - part penalty - min range penalty) * accuracy/100 - dodge
func HitChance(attacker, target *unit.Unit, w *Weapon, d float64) float64 {
	aim := attacker.Aim + attacker.Transient.AimBonus
	if attacker.Conditions != nil {
		aim += condition.AimModifier(attacker.Conditions)
	}
	penalty := 0
	if w.Area == 0 && !w.Thrown {
		penalty += partPenalty(attacker.Tactics.BodyPart)
	}
	if w.MinRange > 0 && d < w.MinRange {
		penalty += MinRangePenalty
	}
	dodge := target.Dodge
	if target.Conditions != nil {
		dodge -= condition.DodgePenalty(target.Conditions)
	}
	if target.Moving && target.HasSkill(catalog.SkillEvasive) {
		dodge += EvasiveDodge
	}
	return float64(aim-penalty)*float64(w.Aim)/100 - float64(dodge)
}

func partPenalty(p unit.BodyPart) int {
	switch p {
	case unit.HeadPart, unit.HeartPart:
		return 25
	case unit.LimbPart:
		return 10
	}
	return 0
}

// SplashDamage returns the pre-armor damage dealt at distance d from the
// impact of a blast with radius r: base * (0.5 + 0.5*(1 - d/r)).
//
// Postcondition: non-increasing in d on [0, r]; 0 beyond r.
func SplashDamage(base int, d, r float64) int {
	if r <= 0 || d > r || base <= 0 {
		return 0
	}
	falloff := 0.5 + 0.5*(1-d/r)
	return int(math.Round(float64(base) * falloff))
}

// Attack resolves one shot from attacker at target with w, running the
// before-attack and hit hooks. Transient per-shot bonuses are cleared after.
func (c *Context) Attack(attacker, target *unit.Unit, w *Weapon) Shot {
	c.opts.Hooks.BeforeAttack(attacker, target, w, c)
	defer func() { attacker.Transient = unit.Transient{} }()
	return c.resolve(attacker, target, w)
}

func (c *Context) resolve(attacker, target *unit.Unit, w *Weapon) Shot {
	dist := attacker.Pos.Dist(target.Pos)
	dir := target.Pos.Sub(attacker.Pos).Norm()
	chance := HitChance(attacker, target, w, dist)

	shot := Shot{Target: target}
	if !w.Melee && !w.Thrown {
		if ob := c.obstruction(attacker, target); ob != nil {
			shot.Target, shot.Obstructed, shot.Hit = ob, true, true
		}
	}
	if !shot.Obstructed {
		shot.Hit = c.roll.Chance("hit", chance)
		if w.Melee && target.Mounted() && target.Vehicle.Type == catalog.VehicleHelicopter {
			shot.Hit = false
		}
	}
	if shot.Hit {
		critChance := float64(w.Crit + attacker.CritChance + attacker.Transient.CritBonus)
		shot.Crit = c.roll.Chance("crit", critChance)
	}

	base := c.baseDamage(attacker, w)
	if w.Area > 0 {
		c.resolveArea(attacker, target, w, base, &shot)
		return shot
	}
	if !shot.Hit {
		shot.Impact = geom.Clamp(attacker.Pos.Add(dir.Scale(dist + MissOvershoot)))
		c.emitShot(attacker, shot, w, 0)
		return shot
	}

	victim := shot.Target
	shot.Region = c.hitRegion(attacker, shot.Obstructed)
	mult := 1.0
	switch {
	case shot.Region == unit.Head:
		mult = 2
	case attacker.Tactics.BodyPart == unit.HeartPart && !shot.Obstructed:
		mult = 1.5
	}
	if victim.Wounded(shot.Region) {
		mult += 1
	}
	if shot.Crit {
		mult *= w.CritMult
	}
	raw := int(math.Round(float64(base) * mult))
	dealt, toVehicle := c.mitigate(victim, raw, w.AntiVehicle)
	shot.Damage = dealt
	shot.Impact = victim.Pos
	c.emitShot(attacker, shot, w, dealt)
	applied := c.apply(victim, attacker, dealt, toVehicle)
	if !toVehicle && applied > 0 && victim.Alive() {
		victim.Wound(shot.Region)
		if shot.Region == unit.Arm && victim.Weapon != "" && victim.Weapon != catalog.UnarmedID && !victim.IsDisarmed(victim.Weapon) {
			victim.Disarm(victim.Weapon)
			c.Emit(Entry{ActorID: victim.ID, ActorName: victim.Name, Action: ActDisarm, WeaponID: victim.Weapon, Message: "arm wound"})
		}
	}
	if dealt > 0 {
		c.react(func() { c.opts.Hooks.Hit(attacker, victim, dealt, c) })
	}
	if w.Knockback > 0 && victim.Alive() && !toVehicle {
		c.knock(victim, victim.Pos.Sub(attacker.Pos), w.Knockback)
	}
	return shot
}

func (c *Context) resolveArea(attacker, target *unit.Unit, w *Weapon, base int, shot *Shot) {
	var direct *unit.Unit
	if shot.Hit {
		direct = shot.Target
		shot.Impact = direct.Pos
		raw := base
		if shot.Crit {
			raw = int(math.Round(float64(base) * w.CritMult))
		}
		dealt, toVehicle := 0, false
		if w.Effect != catalog.EffectHeal {
			dealt, toVehicle = c.mitigate(direct, raw, w.AntiVehicle)
		}
		shot.Damage = dealt
		c.emitShot(attacker, *shot, w, dealt)
		c.apply(direct, attacker, dealt, toVehicle)
		c.effect(attacker, direct, w)
		if dealt > 0 {
			c.react(func() { c.opts.Hooks.Hit(attacker, direct, dealt, c) })
		}
	} else {
		angle := c.roll.Range(0, 2*math.Pi)
		off := c.roll.Range(Hitbox, Hitbox+w.Area)
		shot.Impact = geom.Clamp(target.Pos.Add(geom.V(math.Cos(angle), math.Sin(angle)).Scale(off)))
		c.emitShot(attacker, *shot, w, 0)
	}
	c.blast(attacker, shot.Impact, w, base, direct)
}

// blast applies splash, knockback and grenade effects around impact to every
// living unit except skip.
func (c *Context) blast(attacker *unit.Unit, impact geom.Vec2, w *Weapon, base int, skip *unit.Unit) {
	for _, u := range c.Units() {
		if u == skip || !u.Alive() {
			continue
		}
		d := impact.Dist(u.Pos)
		if d > w.Area {
			continue
		}
		if w.Effect != catalog.EffectHeal {
			raw := SplashDamage(base, d, w.Area)
			dealt, toVehicle := c.mitigate(u, raw, w.AntiVehicle)
			if dealt > 0 {
				p := u.Pos
				c.Emit(Entry{
					ActorID: attacker.ID, ActorName: attacker.Name, Action: ActSplash,
					TargetID: u.ID, TargetName: u.Name, Damage: dealt, TargetPos: &p, WeaponID: w.ID,
				})
				c.apply(u, attacker, dealt, toVehicle)
			}
		}
		if w.Knockback > 0 && u.Alive() && !u.Mounted() {
			c.knock(u, u.Pos.Sub(impact), w.Knockback*(1-d/w.Area))
		}
		c.effect(attacker, u, w)
	}
}

// Splash deals a radial blast of damage around center on behalf of attacker,
// sparing exclude. Used by skills that add area damage to ordinary hits.
func (c *Context) Splash(attacker *unit.Unit, center geom.Vec2, radius float64, damage int, source string, exclude *unit.Unit) {
	w := &Weapon{ID: source, Name: source, Area: radius}
	c.blast(attacker, center, w, damage, exclude)
}

func (c *Context) effect(attacker, u *unit.Unit, w *Weapon) {
	if w.Effect == "" || !u.Alive() {
		return
	}
	switch w.Effect {
	case catalog.EffectHeal:
		if u.Team == attacker.Team {
			c.Heal(u, attacker, w.HealAmount, w.ID)
		}
	case catalog.EffectDisarm:
		if u.Weapon != "" && u.Weapon != catalog.UnarmedID && !u.IsDisarmed(u.Weapon) {
			u.Disarm(u.Weapon)
			c.Emit(Entry{ActorID: u.ID, ActorName: u.Name, Action: ActDisarm, WeaponID: u.Weapon, Message: w.ID})
		}
	default:
		dur := w.EffectDuration
		if dur <= 0 {
			dur = 50
		}
		c.ApplyStatus(u, w.Effect, dur, attacker)
	}
}

func (c *Context) knock(u *unit.Unit, away geom.Vec2, dist float64) {
	if dist <= 0 {
		return
	}
	dir := away.Norm()
	if dir.Len() == 0 {
		dir = geom.V(1, 0)
		if u.Team == unit.TeamA {
			dir = geom.V(-1, 0)
		}
	}
	u.Pos = geom.Clamp(u.Pos.Add(dir.Scale(dist)))
}

func (c *Context) baseDamage(attacker *unit.Unit, w *Weapon) int {
	base := w.Damage
	if !w.Thrown {
		base += attacker.Damage
	}
	if w.Spread != nil {
		base += c.roll.Roll(*w.Spread).Total()
	}
	if m := attacker.Transient.DamageMult; m > 0 {
		base = int(math.Round(float64(base) * m))
	}
	return max(0, base)
}

// obstruction returns the living unit nearest the shooter whose hitbox
// intersects the firing line strictly before the target, or nil.
func (c *Context) obstruction(attacker, target *unit.Unit) *unit.Unit {
	dist := attacker.Pos.Dist(target.Pos)
	var best *unit.Unit
	bestAlong := 0.0
	for _, u := range c.Units() {
		if u == attacker || u == target {
			continue
		}
		along, off := geom.Project(attacker.Pos, target.Pos, u.Pos)
		if along <= 0 || along >= dist || off > Hitbox {
			continue
		}
		if best == nil || along < bestAlong {
			best, bestAlong = u, along
		}
	}
	return best
}

// hitRegion picks the hit location. Aimed shots strike the aimed part unless
// the shot was obstructed; otherwise head 10%, torso 50%, arm 20%, leg 20%.
func (c *Context) hitRegion(attacker *unit.Unit, obstructed bool) unit.Region {
	if !obstructed {
		switch attacker.Tactics.BodyPart {
		case unit.HeadPart:
			return unit.Head
		case unit.HeartPart:
			return unit.Torso
		case unit.LimbPart:
			if c.roll.Intn(2) == 0 {
				return unit.Arm
			}
			return unit.Leg
		}
	}
	r := c.roll.Intn(100)
	switch {
	case r < 10:
		return unit.Head
	case r < 60:
		return unit.Torso
	case r < 80:
		return unit.Arm
	default:
		return unit.Leg
	}
}

// mitigate converts raw damage into the amount the victim (or its vehicle)
// actually takes. Vehicles double anti-vehicle damage and use their own armor.
func (c *Context) mitigate(victim *unit.Unit, raw int, antiVehicle bool) (int, bool) {
	if raw <= 0 {
		return 0, false
	}
	if victim.Mounted() {
		if antiVehicle {
			raw *= 2
		}
		return max(0, raw-victim.Vehicle.Armor), true
	}
	return max(0, raw-victim.Armor), false
}

// apply commits mitigated damage. Vehicle damage may destroy the vehicle and
// injure the pilot with crash damage. Returns the pilot HP lost.
func (c *Context) apply(victim, attacker *unit.Unit, amount int, toVehicle bool) int {
	if amount <= 0 || !victim.Alive() {
		return 0
	}
	if !toVehicle {
		return c.injure(victim, attacker, amount)
	}
	v := victim.Vehicle
	v.HP = max(0, v.HP-amount)
	if v.HP > 0 {
		return 0
	}
	crash := victim.MaxHP / 4
	if v.Type == catalog.VehicleHelicopter {
		crash = victim.MaxHP / 2
	}
	c.Emit(Entry{ActorID: victim.ID, ActorName: victim.Name, Action: ActVehicleDestroyed, Damage: crash, Message: v.ID})
	c.logger.Debug("vehicle destroyed", zap.String("unit", victim.ID), zap.String("vehicle", v.ID))
	if victim.Weapon == v.Weapon && v.Weapon != "" {
		c.forceSwitch(victim)
	}
	return c.injure(victim, attacker, crash)
}

// injure removes HP, runs damage-taken hooks and logs a death if the unit is
// still dead afterwards.
func (c *Context) injure(victim, attacker *unit.Unit, amount int) int {
	if !victim.Alive() {
		return 0
	}
	lost := victim.ApplyDamage(amount)
	if lost > 0 {
		c.react(func() { c.opts.Hooks.DamageTaken(victim, attacker, lost, c) })
	}
	if victim.Dead {
		victim.Burst = nil
		e := Entry{ActorID: victim.ID, ActorName: victim.Name, Action: ActDeath}
		if attacker != nil {
			e.TargetID, e.TargetName = attacker.ID, attacker.Name
		}
		c.Emit(e)
	}
	return lost
}

func (c *Context) emitShot(attacker *unit.Unit, s Shot, w *Weapon, dealt int) {
	action := ActAttack
	switch {
	case w.Thrown:
		action = ActGrenade
	case w.Melee:
		action = ActMelee
	}
	p := s.Impact
	e := Entry{
		ActorID:    attacker.ID,
		ActorName:  attacker.Name,
		Action:     action,
		TargetID:   s.Target.ID,
		TargetName: s.Target.Name,
		Damage:     dealt,
		TargetPos:  &p,
		Crit:       s.Crit,
		Miss:       !s.Hit,
		WeaponID:   w.ID,
	}
	if s.Region != "" || s.Obstructed {
		e.Data = map[string]string{}
		if s.Region != "" {
			e.Data["location"] = string(s.Region)
		}
		if s.Obstructed {
			e.Data["obstructed"] = strconv.FormatBool(true)
		}
	}
	c.Emit(e)
}
