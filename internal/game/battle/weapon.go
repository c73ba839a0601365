package battle

import (
	"github.com/cory-johannsen/skirmish/internal/game/catalog"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

// Weapon is the resolved firing profile of a weapon or grenade ability.
type Weapon struct {
	ID             string
	Name           string
	Damage         int
	Spread         *dice.Expression
	Range          float64
	MinRange       float64
	Aim            int
	Crit           int
	CritMult       float64
	Capacity       int
	Shots          int
	Recovery       int
	ReloadTime     int
	Area           float64
	Knockback      float64
	Melee          bool
	AntiVehicle    bool
	Thrown         bool
	Effect         string
	EffectDuration int
	HealAmount     int
}

// NewWeapon builds a profile from a weapon ability. An unparseable damage
// spread is ignored.
//
// Precondition: a.Kind == catalog.KindWeapon.
func NewWeapon(a *catalog.Ability) *Weapon {
	ws := a.Weapon
	w := &Weapon{
		ID:          a.ID,
		Name:        a.Name,
		Damage:      ws.Damage,
		Range:       ws.Range,
		MinRange:    ws.MinRange,
		Aim:         ws.Accuracy(),
		Crit:        ws.Crit,
		CritMult:    ws.CritMult(),
		Capacity:    ws.Capacity,
		Shots:       ws.Shots(),
		Recovery:    ws.Recovery,
		ReloadTime:  ws.ReloadTime,
		Area:        ws.Area,
		Knockback:   ws.Knockback,
		Melee:       ws.Melee,
		AntiVehicle: ws.AntiVehicle,
	}
	if ws.DamageSpread != "" {
		if e, err := dice.Parse(ws.DamageSpread); err == nil {
			w.Spread = &e
		}
	}
	return w
}

// NewGrenade builds a thrown profile from a grenade ability.
//
// Precondition: a.Kind == catalog.KindGrenade.
func NewGrenade(a *catalog.Ability) *Weapon {
	g := a.Grenade
	return &Weapon{
		ID:             a.ID,
		Name:           a.Name,
		Damage:         g.Damage,
		Range:          g.Range,
		Aim:            100,
		CritMult:       2,
		Shots:          1,
		Recovery:       g.Recovery,
		Area:           g.Area,
		Knockback:      g.Knockback,
		Thrown:         true,
		Effect:         g.Effect,
		EffectDuration: g.EffectDuration,
		HealAmount:     g.HealAmount,
	}
}

// SafeAt reports whether firing at distance d keeps the shooter outside the
// blast radius and at or beyond the minimum range.
func (w *Weapon) SafeAt(d float64) bool {
	if w.Area > 0 && d <= w.Area {
		return false
	}
	if w.MinRange > 0 && d < w.MinRange {
		return false
	}
	return true
}
