// Package report turns a finished battle into an archivable report and renders
// it as text.
package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/cory-johannsen/skirmish/internal/game/battle"
	"github.com/cory-johannsen/skirmish/internal/game/unit"
)

// ErrNotFound is returned when a report lookup yields no results.
var ErrNotFound = errors.New("report not found")

// ErrExists is returned when saving a report whose id is already stored.
var ErrExists = errors.New("report already exists")

// Survivor is a unit still standing when the battle ended.
type Survivor struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Team  unit.Team `json:"team"`
	HP    int       `json:"hp"`
	MaxHP int       `json:"maxHp"`
}

// Report is one archived battle.
type Report struct {
	ID        uuid.UUID      `json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	SquadA    string         `json:"squadA"`
	SquadB    string         `json:"squadB"`
	Seed      int64          `json:"seed"`
	Winner    battle.Winner  `json:"winner"`
	Ticks     int            `json:"ticks"`
	TimedOut  bool           `json:"timedOut"`
	Survivors []Survivor     `json:"survivors"`
	Log       []battle.Entry `json:"log"`
}

// Summary is the listing view of a report, without its log.
type Summary struct {
	ID        uuid.UUID
	CreatedAt time.Time
	SquadA    string
	SquadB    string
	Winner    battle.Winner
	Ticks     int
	Entries   int
}

// Store archives reports. Save returns ErrExists for an id already stored
// and Get returns ErrNotFound for an unknown one.
type Store interface {
	Save(ctx context.Context, r *Report) error
	Get(ctx context.Context, id uuid.UUID) (*Report, error)
	List(ctx context.Context, limit int) ([]Summary, error)
}

// New builds a report for res with a fresh id.
//
// Precondition: res must not be nil.
// Postcondition: Returns a report whose Survivors list team A first.
func New(squadA, squadB string, res *battle.Result, now time.Time) *Report {
	r := &Report{
		ID:        uuid.New(),
		CreatedAt: now.UTC(),
		SquadA:    squadA,
		SquadB:    squadB,
		Seed:      res.Seed,
		Winner:    res.Winner,
		Ticks:     res.Ticks,
		TimedOut:  res.TimedOut,
		Log:       res.Log,
	}
	for _, us := range [][]*unit.Unit{res.SurvivorsA, res.SurvivorsB} {
		for _, u := range us {
			r.Survivors = append(r.Survivors, Survivor{ID: u.ID, Name: u.Name, Team: u.Team, HP: u.HP, MaxHP: u.MaxHP})
		}
	}
	return r
}

// Summary returns the listing view of r.
func (r *Report) Summary() Summary {
	return Summary{
		ID:        r.ID,
		CreatedAt: r.CreatedAt,
		SquadA:    r.SquadA,
		SquadB:    r.SquadB,
		Winner:    r.Winner,
		Ticks:     r.Ticks,
		Entries:   len(r.Log),
	}
}

// Headline describes the outcome in one line.
func (r *Report) Headline() string {
	switch r.Winner {
	case battle.WinnerA:
		return fmt.Sprintf("%s defeats %s after %d ticks", r.SquadA, r.SquadB, r.Ticks)
	case battle.WinnerB:
		return fmt.Sprintf("%s defeats %s after %d ticks", r.SquadB, r.SquadA, r.Ticks)
	}
	if r.TimedOut {
		return fmt.Sprintf("%s and %s fight to a standstill after %d ticks", r.SquadA, r.SquadB, r.Ticks)
	}
	return fmt.Sprintf("%s and %s wipe each other out after %d ticks", r.SquadA, r.SquadB, r.Ticks)
}

// Render writes r as text: the log unless quiet, then the outcome and the
// survivors.
func Render(w io.Writer, r *Report, quiet bool) error {
	ew := &errWriter{w: w}
	ew.printf("battle %s  seed %d\n", r.ID, r.Seed)
	ew.printf("%s (A) vs %s (B)\n\n", r.SquadA, r.SquadB)
	if !quiet {
		for _, e := range r.Log {
			ew.printf("%s\n", e)
		}
		ew.printf("\n")
	}
	ew.printf("%s\n", r.Headline())
	for _, s := range r.Survivors {
		ew.printf("  [%s] %-20s %4d/%d hp\n", s.Team, s.Name, s.HP, s.MaxHP)
	}
	return ew.err
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
