package skill

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/battle"
	"github.com/cory-johannsen/skirmish/internal/game/catalog"
	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/geom"
	"github.com/cory-johannsen/skirmish/internal/game/unit"
)

// Built-in skill ids with hooks.
const (
	Medic           = "medic"
	Medkit          = "medkit"
	Infiltrator     = "infiltrator"
	Sabotage        = "sabotage"
	Comms           = "comms"
	Officer         = "officer"
	Veteran         = "veteran"
	ExplosiveShells = "explosive_shells"
	Counterattack   = "counterattack"
	LastStand       = "last_stand"
	Adrenaline      = "adrenaline"
	Grenadier       = "grenadier"
	Marksman        = "marksman"
	Executioner     = "executioner"
	QuickHands      = "quick_hands"
	Regeneration    = "regeneration"
	Mechanic        = "mechanic"
)

// Tuning for the built-in hooks.
const (
	medicRange         = 200.0
	medicThreshold     = 0.7
	medkitThreshold    = 0.4
	officerAim         = 10
	shellRadius        = 40.0
	counterChance      = 30.0
	adrenalineTicks    = 100
	adrenalineFraction = 0.3
	marksmanAim        = 20
	executeFraction    = 0.25
	executeMult        = 1.5
	regenAmount        = 2
	mechanicRepair     = 5
)

// Builtin returns a Registry holding every built-in skill hook.
func Builtin(logger *zap.Logger) *Registry {
	r := NewRegistry(logger)
	for id, h := range map[string]*Hooks{
		Medic:           {OnTurnStart: medic},
		Medkit:          {OnTurnStart: medkit},
		Infiltrator:     {OnDeploy: infiltrate},
		Sabotage:        {OnTeamBattleStart: sabotage},
		Comms:           {},
		Officer:         {OnTeamBattleStart: officer},
		Veteran:         {ModifyStats: veteran},
		ExplosiveShells: {OnHit: explosiveShells},
		Counterattack:   {OnDamageTaken: counterattack},
		LastStand:       {OnDamageTaken: lastStand},
		Adrenaline:      {OnDamageTaken: adrenaline},
		Grenadier:       {OnTurnAction: grenadier},
		Marksman:        {OnBeforeAttack: marksman},
		Executioner:     {OnBeforeAttack: executioner},
		QuickHands:      {OnTurnEnd: quickHands},
		Regeneration:    {OnTurnEnd: regenerate},
		Mechanic:        {OnBattleStart: tuneVehicle, OnTurnEnd: repairVehicle},
	} {
		if err := r.Register(id, h); err != nil {
			panic(err)
		}
	}
	return r
}

func skillEntry(u *unit.Unit, id string) battle.Entry {
	return battle.Entry{ActorID: u.ID, ActorName: u.Name, Action: battle.ActSkill, Message: id}
}

func fraction(u *unit.Unit) float64 {
	return float64(u.HP) / float64(u.MaxHP)
}

// medic spends the turn healing the most wounded nearby ally below 70% HP.
func medic(u *unit.Unit, ctx *battle.Context) bool {
	var patient *unit.Unit
	for _, a := range ctx.Allies(u) {
		if u.Pos.Dist(a.Pos) > medicRange || fraction(a) >= medicThreshold {
			continue
		}
		if patient == nil || fraction(a) < fraction(patient) {
			patient = a
		}
	}
	if patient == nil {
		return false
	}
	return ctx.Heal(patient, u, 20+2*u.Level, Medic) > 0
}

// medkit patches the carrier up once it drops below 40% HP.
func medkit(u *unit.Unit, ctx *battle.Context) bool {
	ref := u.Skill(Medkit)
	if ref == nil || ref.Uses <= 0 || fraction(u) >= medkitThreshold {
		return false
	}
	amount := 40
	if a, ok := ctx.Catalog().Get(Medkit); ok && a.Equipment != nil {
		amount = a.Equipment.Amount
	}
	ref.Uses--
	return ctx.Heal(u, u, amount, Medkit) > 0
}

// infiltrate moves a freshly deployed unit into the band just in front of the
// enemy deployment zone.
func infiltrate(u *unit.Unit, ctx *battle.Context) {
	x := ctx.Roll().Range(600, 850)
	if u.Team == unit.TeamB {
		x = ctx.Roll().Range(150, 400)
	}
	u.Pos = geom.V(x, ctx.Roll().Range(0, geom.Height))
	e := skillEntry(u, Infiltrator)
	p := u.Pos
	e.TargetPos = &p
	ctx.Emit(e)
}

// sabotage jams one random enemy weapon per sabotage skill on the team, less
// one per comms skill on the enemy team.
func sabotage(team unit.Team, holders []*unit.Unit, ctx *battle.Context) {
	jams := 0
	for _, h := range holders {
		jams += h.CountSkill(Sabotage)
	}
	for _, e := range ctx.Roster(team.Opponent()) {
		jams -= e.CountSkill(Comms)
	}
	if jams <= 0 {
		ctx.Logger().Debug("sabotage countered", zap.String("team", string(team)))
		return
	}
	for i := 0; i < jams; i++ {
		type slot struct {
			u  *unit.Unit
			id string
		}
		var slots []slot
		for _, e := range ctx.Roster(team.Opponent()) {
			for _, id := range ctx.WeaponIDs(e) {
				if !ctx.IsJammed(e, id) {
					slots = append(slots, slot{e, id})
				}
			}
		}
		if len(slots) == 0 {
			return
		}
		s := slots[ctx.Roll().Intn(len(slots))]
		ctx.Jam(s.u, s.id, holders[i%len(holders)])
	}
}

// officer steadies the whole team's aim once, however many officers it has.
func officer(team unit.Team, holders []*unit.Unit, ctx *battle.Context) {
	for _, u := range ctx.Roster(team) {
		u.Aim += officerAim
	}
	e := skillEntry(holders[0], Officer)
	e.Action = battle.ActBuff
	e.Data = map[string]string{"team": string(team), "aim": strconv.Itoa(officerAim)}
	ctx.Emit(e)
}

func veteran(u *unit.Unit) {
	u.Aim += u.Level
	u.MaxHP += 5 * u.Level
	u.HP += 5 * u.Level
}

// explosiveShells splashes 30% of a hit's damage onto units near the target.
func explosiveShells(attacker, target *unit.Unit, damage int, ctx *battle.Context) {
	if ctx.Reacting() {
		return
	}
	if splash := damage * 3 / 10; splash > 0 {
		ctx.Splash(attacker, target.Pos, shellRadius, splash, ExplosiveShells, target)
	}
}

// counterattack strikes back at an adjacent attacker.
func counterattack(victim, attacker *unit.Unit, _ int, ctx *battle.Context) {
	if ctx.Reacting() || attacker == nil || attacker.Team == victim.Team || !victim.Alive() || !attacker.Alive() {
		return
	}
	if victim.Pos.Dist(attacker.Pos) > battle.MeleeRange || !ctx.Roll().Chance(Counterattack, counterChance) {
		return
	}
	ctx.Emit(skillEntry(victim, Counterattack))
	ctx.Attack(victim, attacker, ctx.MeleeWeapon(victim))
}

// lastStand survives the first lethal blow of the battle at 1 HP.
func lastStand(victim, _ *unit.Unit, _ int, ctx *battle.Context) {
	if !victim.Dead || !victim.Once(LastStand) {
		return
	}
	victim.Revive(1)
	e := skillEntry(victim, LastStand)
	e.Action = battle.ActRevive
	e.Heal = 1
	ctx.Emit(e)
}

func adrenaline(victim, _ *unit.Unit, _ int, ctx *battle.Context) {
	if !victim.Alive() || fraction(victim) >= adrenalineFraction || !victim.Once(Adrenaline) {
		return
	}
	ctx.ApplyStatus(victim, condition.Inspired, adrenalineTicks, victim)
}

// grenadier throws a grenade whenever the primary weapon could not fire.
func grenadier(u *unit.Unit, ctx *battle.Context) bool {
	target := ctx.SelectTarget(u)
	if target == nil {
		return false
	}
	d := u.Pos.Dist(target.Pos)
	for _, s := range u.Skills {
		if s.Uses <= 0 {
			continue
		}
		g, ok := ctx.Weapon(s.ID)
		if !ok || !g.Thrown || g.Effect == catalog.EffectHeal || d > g.Range || !g.SafeAt(d) {
			continue
		}
		return ctx.ThrowGrenade(u, target, s.ID)
	}
	return false
}

func marksman(attacker, target *unit.Unit, _ *battle.Weapon, _ *battle.Context) {
	if !target.Moving {
		attacker.Transient.AimBonus += marksmanAim
	}
}

func executioner(attacker, target *unit.Unit, _ *battle.Weapon, _ *battle.Context) {
	if fraction(target) >= executeFraction {
		return
	}
	if attacker.Transient.DamageMult == 0 {
		attacker.Transient.DamageMult = 1
	}
	attacker.Transient.DamageMult *= executeMult
}

// quickHands reloads an empty magazine for free at the end of the turn.
func quickHands(u *unit.Unit, ctx *battle.Context) {
	ref := u.Skill(u.Weapon)
	if ref == nil || ref.Ammo > 0 || u.Burst != nil {
		return
	}
	ctx.Reload(u, u.Weapon)
}

func regenerate(u *unit.Unit, ctx *battle.Context) {
	ctx.Heal(u, u, regenAmount, Regeneration)
}

// tuneVehicle raises the vehicle's max HP by up to 25% before the battle.
func tuneVehicle(u *unit.Unit, ctx *battle.Context) {
	v := u.Vehicle
	if v == nil || v.MaxHP <= 0 {
		return
	}
	bonus := v.MaxHP * ctx.Roll().Intn(26) / 100
	v.MaxHP += bonus
	v.HP += bonus
	e := skillEntry(u, Mechanic)
	e.Data = map[string]string{"vehicle": v.ID, "bonus_hp": strconv.Itoa(bonus)}
	ctx.Emit(e)
}

// repairVehicle patches the working vehicle a little every turn.
func repairVehicle(u *unit.Unit, ctx *battle.Context) {
	v := u.Vehicle
	if !v.Alive() || v.HP >= v.MaxHP {
		return
	}
	gained := min(mechanicRepair, v.MaxHP-v.HP)
	v.HP += gained
	e := skillEntry(u, Mechanic)
	e.Heal = gained
	e.Data = map[string]string{"vehicle": v.ID}
	ctx.Emit(e)
}
