package battle

import (
	"fmt"
	"math"

	"github.com/cory-johannsen/skirmish/internal/game/catalog"
	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/geom"
	"github.com/cory-johannsen/skirmish/internal/game/unit"
)

// takeTurn runs one tick of u: status effects, recovery, burst continuation
// and, once the action timer fills, one decision.
func (c *Context) takeTurn(u *unit.Unit) error {
	if !u.Alive() {
		return nil
	}
	c.tickStatus(u)
	if !u.Alive() || condition.SkipsTurn(u.Conditions) {
		return nil
	}
	if u.Recovery > 0 {
		u.Recovery--
		return nil
	}
	if u.Burst != nil {
		c.continueBurst(u)
		return nil
	}
	u.ActionTimer += max(1, u.Speed+u.Initiative-condition.SpeedPenalty(u.Conditions))
	if u.ActionTimer < ActionThreshold {
		return nil
	}
	u.ActionTimer -= ActionThreshold
	if err := c.act(u); err != nil {
		return err
	}
	if u.Alive() {
		c.opts.Hooks.TurnEnd(u, c)
	}
	return nil
}

// tickStatus pulses damage and healing over time and expires conditions.
func (c *Context) tickStatus(u *unit.Unit) {
	if u.Conditions.Len() == 0 {
		return
	}
	if c.tick%condition.PulseInterval == 0 {
		if n := condition.PulseDamage(u.Conditions); n > 0 {
			c.Emit(Entry{Action: ActDamage, TargetID: u.ID, TargetName: u.Name, Damage: min(n, u.HP), Message: "status"})
			c.injure(u, nil, n)
		}
		if n := condition.PulseHeal(u.Conditions); n > 0 && u.Alive() {
			c.Heal(u, nil, n, "status")
		}
	}
	for _, id := range u.Conditions.Tick() {
		c.Emit(Entry{ActorID: u.ID, ActorName: u.Name, Action: ActStatusEnd, Message: id, Data: map[string]string{"status": id}})
	}
}

func (c *Context) act(u *unit.Unit) error {
	u.Moving = false
	if c.opts.Hooks.TurnStart(u, c) {
		if u.Recovery == 0 {
			c.setRecovery(u, RecoveryHook)
		}
		return nil
	}

	target := c.SelectTarget(u)
	if target == nil {
		c.reinforce(u.Team.Opponent())
		target = c.SelectTarget(u)
	}
	if target == nil {
		return fmt.Errorf("unit %s: %w", u.ID, ErrNoTargetAvailable)
	}

	if !c.Usable(u, u.Weapon) {
		c.forceSwitch(u)
	}
	dist := u.Pos.Dist(target.Pos)

	if fav := u.Tactics.FavoriteWeapon; fav != "" && fav != u.Weapon && c.Usable(u, fav) &&
		c.tick-u.LastSwitch >= c.opts.SwitchCooldown {
		if fw, ok := c.Weapon(fav); ok && fw.SafeAt(dist) && dist <= c.reach(u, fw) {
			c.switchTo(u, fav, "favorite")
			c.setRecovery(u, RecoverySwitch)
			return nil
		}
	}

	if c.tryGrenade(u, target, dist) {
		return nil
	}

	w := c.current(u)
	if !w.SafeAt(dist) {
		if alt := c.pick(u, func(cw *Weapon) bool { return cw.SafeAt(dist) && dist <= c.reach(u, cw) }); alt != "" {
			c.switchTo(u, alt, "danger close")
			c.setRecovery(u, RecoverySwitch)
			return nil
		}
		if dist <= MeleeRange {
			c.Melee(u, target)
			return nil
		}
		c.retreat(u, target)
		return nil
	}

	if dist <= c.reach(u, w) && c.hasAmmo(u, w) {
		if c.friendlyInLine(u, target, dist) {
			if c.roll.Chance("reposition", RepositionChance) {
				c.reposition(u)
				return nil
			}
			c.Emit(Entry{ActorID: u.ID, ActorName: u.Name, Action: ActWait, TargetID: target.ID, TargetName: target.Name, Message: "line blocked"})
			c.setRecovery(u, RecoveryWait)
			return nil
		}
		c.fire(u, target, w)
		return nil
	}
	if c.opts.Hooks.TurnAction(u, c) {
		if u.Recovery == 0 {
			c.setRecovery(u, RecoveryHook)
		}
		return nil
	}

	if alt := c.pick(u, func(cw *Weapon) bool {
		return cw.ID != w.ID && cw.SafeAt(dist) && dist <= c.reach(u, cw) && c.hasAmmo(u, cw)
	}); alt != "" {
		c.switchTo(u, alt, "better weapon")
		c.setRecovery(u, RecoverySwitch)
		return nil
	}

	if ref := u.Skill(w.ID); ref != nil && w.Capacity > 0 && ref.Ammo < w.Capacity && (ref.Ammo == 0 || dist > c.reach(u, w)) {
		c.Reload(u, w.ID)
		c.setRecovery(u, max(0, w.ReloadTime-u.ReloadBonus))
		return nil
	}

	if dist <= MeleeRange {
		c.Melee(u, target)
		return nil
	}

	stop := c.reach(u, w) * 0.9
	if step := math.Min(float64(u.Speed), dist-stop); step > 0 {
		c.Move(u, target.Pos, step, ActMove)
		c.setRecovery(u, RecoveryMove)
		return nil
	}

	c.Emit(Entry{ActorID: u.ID, ActorName: u.Name, Action: ActWait, TargetID: target.ID, TargetName: target.Name})
	c.setRecovery(u, RecoveryWait)
	return nil
}

// fire takes the first shot of a trigger pull. Multi-shot weapons continue as
// a burst on the following ticks.
func (c *Context) fire(u, target *unit.Unit, w *Weapon) {
	c.shoot(u, target, w)
	if rem := w.Shots - 1; rem > 0 && target.Alive() && c.hasAmmo(u, w) {
		u.Burst = &unit.Burst{WeaponID: w.ID, TargetID: target.ID, Remaining: rem}
		return
	}
	c.setRecovery(u, w.Recovery)
}

// continueBurst fires the next shot of u's burst. The burst closes with the
// weapon's recovery as soon as it cannot continue, including when an ally
// steps into the firing line.
func (c *Context) continueBurst(u *unit.Unit) {
	b := u.Burst
	w, ok := c.Weapon(b.WeaponID)
	if !ok {
		u.Burst = nil
		return
	}
	target := c.Unit(b.TargetID)
	if target == nil || !target.Alive() || u.Weapon != b.WeaponID || !c.Usable(u, w.ID) || !c.hasAmmo(u, w) ||
		c.friendlyInLine(u, target, u.Pos.Dist(target.Pos)) {
		u.Burst = nil
		c.setRecovery(u, w.Recovery)
		return
	}
	c.shoot(u, target, w)
	b.Remaining--
	if b.Remaining <= 0 {
		u.Burst = nil
		c.setRecovery(u, w.Recovery)
	}
}

func (c *Context) shoot(u, target *unit.Unit, w *Weapon) Shot {
	if ref := u.Skill(w.ID); ref != nil && w.Capacity > 0 {
		ref.Ammo--
	}
	return c.Attack(u, target, w)
}

// Melee strikes target with u's best usable melee weapon, bare hands if none,
// without changing the equipped weapon.
func (c *Context) Melee(u, target *unit.Unit) Shot {
	w := c.MeleeWeapon(u)
	shot := c.Attack(u, target, w)
	rec := w.Recovery
	if rec == 0 {
		rec = RecoveryMelee
	}
	c.setRecovery(u, rec)
	return shot
}

// MeleeWeapon returns u's hardest-hitting usable melee weapon, or bare hands.
func (c *Context) MeleeWeapon(u *unit.Unit) *Weapon {
	var best *Weapon
	for _, id := range c.WeaponIDs(u) {
		w, ok := c.Weapon(id)
		if !ok || !w.Melee || !c.Usable(u, id) {
			continue
		}
		if best == nil || w.Damage > best.Damage {
			best = w
		}
	}
	if best == nil {
		best, _ = c.Weapon(catalog.UnarmedID)
	}
	return best
}

// tryGrenade throws the first grenade with uses left that suits the
// situation, subject to the throw chance.
func (c *Context) tryGrenade(u, target *unit.Unit, dist float64) bool {
	for _, s := range u.Skills {
		if s.Uses <= 0 {
			continue
		}
		g, ok := c.Weapon(s.ID)
		if !ok || !g.Thrown {
			continue
		}
		at, d := target, dist
		if g.Effect == catalog.EffectHeal {
			if at = c.mostWounded(u, g.Range); at == nil {
				continue
			}
			d = u.Pos.Dist(at.Pos)
		} else if !g.SafeAt(d) {
			continue
		}
		if d > g.Range {
			continue
		}
		if !c.roll.Chance("grenade", GrenadeChance) {
			return false
		}
		return c.ThrowGrenade(u, at, s.ID)
	}
	return false
}

// ThrowGrenade throws grenade id from u's kit at target, spending one use.
// Returns false when u has no use of it left.
func (c *Context) ThrowGrenade(u, target *unit.Unit, id string) bool {
	ref := u.Skill(id)
	g, ok := c.Weapon(id)
	if ref == nil || ref.Uses <= 0 || !ok || !g.Thrown {
		return false
	}
	ref.Uses--
	c.Attack(u, target, g)
	c.setRecovery(u, g.Recovery)
	return true
}

// mostWounded returns u's ally (u included) lowest in HP fraction below 70%
// within reach, or nil.
func (c *Context) mostWounded(u *unit.Unit, reach float64) *unit.Unit {
	var best *unit.Unit
	bestFrac := 0.7
	for _, a := range append([]*unit.Unit{u}, c.Allies(u)...) {
		if u.Pos.Dist(a.Pos) > reach {
			continue
		}
		if f := float64(a.HP) / float64(a.MaxHP); f < bestFrac {
			best, bestFrac = a, f
		}
	}
	return best
}

func (c *Context) retreat(u, from *unit.Unit) {
	away := u.Pos.Sub(from.Pos).Norm()
	if away.Len() == 0 {
		away = geom.V(-1, 0)
		if u.Team == unit.TeamB {
			away = geom.V(1, 0)
		}
	}
	step := float64(max(1, u.Speed))
	c.Move(u, u.Pos.Add(away.Scale(step)), step, ActRetreat)
	c.setRecovery(u, RecoveryMove)
}

// reposition sidesteps perpendicular to the firing line to clear it.
func (c *Context) reposition(u *unit.Unit) {
	side := geom.V(0, 1)
	if c.roll.Intn(2) == 0 {
		side = geom.V(0, -1)
	}
	step := float64(max(Hitbox, u.Speed))
	dest := u.Pos.Add(side.Scale(step))
	if !geom.InArena(dest) {
		dest = u.Pos.Sub(side.Scale(step))
	}
	c.Move(u, dest, step, ActReposition)
	c.setRecovery(u, RecoveryMove)
}

// friendlyInLine reports whether an ally's hitbox sits on the firing line
// strictly between u and target.
func (c *Context) friendlyInLine(u, target *unit.Unit, dist float64) bool {
	for _, a := range c.Allies(u) {
		along, off := geom.Project(u.Pos, target.Pos, a.Pos)
		if along > 0 && along < dist && off <= Hitbox {
			return true
		}
	}
	return false
}

// Usable reports whether u can fire weaponID right now: it is equipped (or
// mounted on a working vehicle) and neither jammed nor disarmed. Bare hands
// are always usable.
func (c *Context) Usable(u *unit.Unit, weaponID string) bool {
	if weaponID == catalog.UnarmedID {
		return true
	}
	if weaponID == "" || u.IsDisarmed(weaponID) || c.IsJammed(u, weaponID) {
		return false
	}
	if u.Skill(weaponID) == nil && !(u.Mounted() && u.Vehicle.Weapon == weaponID) {
		return false
	}
	_, ok := c.opts.Catalog.Weapon(weaponID)
	return ok
}

func (c *Context) hasAmmo(u *unit.Unit, w *Weapon) bool {
	if w.Capacity == 0 {
		return true
	}
	ref := u.Skill(w.ID)
	return ref == nil || ref.Ammo > 0
}

// reach is the effective range of w for u. Melee reach ignores range bonuses.
func (c *Context) reach(u *unit.Unit, w *Weapon) float64 {
	if w.Melee {
		return w.Range
	}
	return w.Range + u.Range
}

func (c *Context) current(u *unit.Unit) *Weapon {
	if w, ok := c.Weapon(u.Weapon); ok && !w.Thrown {
		return w
	}
	w, _ := c.Weapon(catalog.UnarmedID)
	return w
}

// pick returns the first usable weapon accepted by ok, favorite first.
func (c *Context) pick(u *unit.Unit, ok func(*Weapon) bool) string {
	ids := c.WeaponIDs(u)
	if fav := u.Tactics.FavoriteWeapon; fav != "" {
		ids = append([]string{fav}, ids...)
	}
	for _, id := range ids {
		if id == u.Weapon || !c.Usable(u, id) {
			continue
		}
		if w, found := c.Weapon(id); found && ok(w) {
			return id
		}
	}
	return ""
}

func (c *Context) initialWeapon(u *unit.Unit) string {
	if fav := u.Tactics.FavoriteWeapon; fav != "" && c.Usable(u, fav) {
		return fav
	}
	for _, id := range c.WeaponIDs(u) {
		if c.Usable(u, id) {
			return id
		}
	}
	return catalog.UnarmedID
}

// forceSwitch replaces an unusable current weapon with the next usable one,
// or bare hands.
func (c *Context) forceSwitch(u *unit.Unit) {
	next := c.pick(u, func(*Weapon) bool { return true })
	if next == "" {
		next = catalog.UnarmedID
	}
	if next != u.Weapon {
		c.switchTo(u, next, "forced")
	}
}

func (c *Context) switchTo(u *unit.Unit, weaponID, reason string) {
	from := u.Weapon
	u.Weapon = weaponID
	u.LastSwitch = c.tick
	u.Burst = nil
	c.Emit(Entry{
		ActorID:   u.ID,
		ActorName: u.Name,
		Action:    ActSwitch,
		WeaponID:  weaponID,
		Message:   reason,
		Data:      map[string]string{"from": from},
	})
}

// setRecovery sets u's recovery to base scaled by its recovery modifier.
func (c *Context) setRecovery(u *unit.Unit, base int) {
	u.Recovery = max(0, base*(100-u.RecoveryMod)/100)
}
