package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/cory-johannsen/skirmish/internal/game/battle"
	"github.com/cory-johannsen/skirmish/internal/game/unit"
)

const instrumentationName = "github.com/cory-johannsen/skirmish/internal/observability"

// Recorder reports battle metrics through the OpenTelemetry metric API.
type Recorder struct {
	battles  metric.Int64Counter
	deployed metric.Int64Counter
	ticks    metric.Int64Histogram
	entries  metric.Int64Histogram
}

var _ battle.Recorder = (*Recorder)(nil)

// NewRecorder creates the battle instruments on m. A nil m uses the global
// provider, which is a no-op unless one was installed.
//
// Postcondition: Returns a ready Recorder or an error naming the failed instrument.
func NewRecorder(m metric.Meter) (*Recorder, error) {
	if m == nil {
		m = otel.Meter(instrumentationName)
	}
	var (
		r   Recorder
		err error
	)
	if r.battles, err = m.Int64Counter("skirmish.battles",
		metric.WithDescription("Battles finished, by winner")); err != nil {
		return nil, fmt.Errorf("creating battles counter: %w", err)
	}
	if r.deployed, err = m.Int64Counter("skirmish.units.deployed",
		metric.WithDescription("Units deployed, by team")); err != nil {
		return nil, fmt.Errorf("creating deployed counter: %w", err)
	}
	if r.ticks, err = m.Int64Histogram("skirmish.battle.ticks",
		metric.WithDescription("Battle length in ticks")); err != nil {
		return nil, fmt.Errorf("creating ticks histogram: %w", err)
	}
	if r.entries, err = m.Int64Histogram("skirmish.battle.log_entries",
		metric.WithDescription("Battle log size")); err != nil {
		return nil, fmt.Errorf("creating entries histogram: %w", err)
	}
	return &r, nil
}

func (r *Recorder) UnitDeployed(ctx context.Context, team unit.Team) {
	r.deployed.Add(ctx, 1, metric.WithAttributes(attribute.String("team", string(team))))
}

func (r *Recorder) BattleFinished(ctx context.Context, winner battle.Winner, ticks, entries int) {
	attrs := metric.WithAttributes(attribute.String("winner", string(winner)))
	r.battles.Add(ctx, 1, attrs)
	r.ticks.Record(ctx, int64(ticks), attrs)
	r.entries.Record(ctx, int64(entries), attrs)
}
