// Package battle implements the deterministic tick-based battle simulator:
// deployment waves, the per-unit targeting AI, ballistics and the scheduler
// that ties them together.
package battle

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/catalog"
	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/unit"
)

// ErrNoTargetAvailable is returned by a unit's turn when it finds no living
// enemy even after the enemy squad was asked to reinforce. The scheduler
// treats it as "this team is done for the tick".
var ErrNoTargetAvailable = errors.New("no target available")

// Engine tuning constants.
const (
	DefaultMaxTicks       = 10000
	DefaultSwitchCooldown = 50

	ActionThreshold = 1000
	MeleeRange      = 30.0
	Hitbox          = 20.0
	MissOvershoot   = 200.0
	// GrenadeChance and RepositionChance are percentages.
	GrenadeChance    = 35.0
	RepositionChance = 30.0
	EvasiveDodge     = 25
	MinRangePenalty  = 50

	RecoverySwitch = 5
	RecoveryMove   = 5
	RecoveryWait   = 5
	RecoveryHook   = 3
	RecoveryMelee  = 8
)

// Reinforcement selects when a squad pulls units from its reserve.
type Reinforcement string

const (
	// Wave deploys only once the team's deployed units are all dead.
	Wave Reinforcement = "wave"
	// Backfill refills freed capacity every tick.
	Backfill Reinforcement = "backfill"
)

// Winner is the battle outcome.
type Winner string

const (
	WinnerA Winner = "A"
	WinnerB Winner = "B"
	Draw    Winner = "Draw"
)

// Recorder receives battle metrics. Implementations must not block.
type Recorder interface {
	UnitDeployed(ctx context.Context, team unit.Team)
	BattleFinished(ctx context.Context, winner Winner, ticks int, entries int)
}

type nopRecorder struct{}

func (nopRecorder) UnitDeployed(context.Context, unit.Team) {}
func (nopRecorder) BattleFinished(context.Context, Winner, int, int) {}

// Options configures one simulation. The zero value is usable: it simulates
// with the builtin catalog and conditions, no skill hooks, and a fresh seed.
type Options struct {
	Catalog    *catalog.Catalog
	Conditions *condition.Registry
	Hooks      HookSet
	// Source overrides the random source. When nil a seeded source is built
	// from Seed; a zero Seed draws a fresh one.
	Source   dice.Source
	Seed     int64
	Logger   *zap.Logger
	Metrics  Recorder
	MaxTicks int
	// SwitchCooldown is the minimum number of ticks between a weapon switch
	// and a switch back to the favorite weapon. 0 selects the default; a
	// negative value disables the window.
	SwitchCooldown int
	Reinforcement  Reinforcement
}

func (o Options) withDefaults() Options {
	if o.Catalog == nil {
		o.Catalog = catalog.Builtin()
	}
	if o.Conditions == nil {
		o.Conditions = condition.Builtin()
	}
	if o.Hooks == nil {
		o.Hooks = NoHooks{}
	}
	if o.Source == nil {
		if o.Seed == 0 {
			o.Seed = dice.NewSeed()
		}
		o.Source = dice.NewSeededSource(o.Seed)
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Metrics == nil {
		o.Metrics = nopRecorder{}
	}
	if o.MaxTicks <= 0 {
		o.MaxTicks = DefaultMaxTicks
	}
	if o.SwitchCooldown < 0 {
		o.SwitchCooldown = 0
	} else if o.SwitchCooldown == 0 {
		o.SwitchCooldown = DefaultSwitchCooldown
	}
	if o.Reinforcement != Backfill {
		o.Reinforcement = Wave
	}
	return o
}
