// Package sqlite archives battle reports in a single-file SQLite database
// through GORM, for runs that have no PostgreSQL server at hand.
package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cory-johannsen/skirmish/internal/game/battle"
	"github.com/cory-johannsen/skirmish/internal/game/report"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// record is the battle_reports row.
type record struct {
	ID        string         `gorm:"primaryKey;size:36"`
	CreatedAt time.Time      `gorm:"index;not null"`
	SquadA    string         `gorm:"size:128;not null"`
	SquadB    string         `gorm:"size:128;not null"`
	Seed      int64          `gorm:"not null"`
	Winner    string         `gorm:"size:8;not null"`
	Ticks     int            `gorm:"not null"`
	TimedOut  bool           `gorm:"not null;default:false"`
	Entries   int            `gorm:"not null"`
	Survivors datatypes.JSON `gorm:"not null"`
	Log       datatypes.JSON `gorm:"not null"`
}

func (record) TableName() string { return "battle_reports" }

// Store implements report.Store on SQLite.
type Store struct {
	db *gorm.DB
}

var _ report.Store = (*Store)(nil)

// Open opens or creates the database at path and migrates the schema.
//
// Precondition: path is a writable file path or MemoryPath.
// Postcondition: Returns a ready Store or a non-nil error.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", path, err)
	}
	if path == MemoryPath {
		// every pooled connection would otherwise see its own empty database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("accessing sql interface: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(&record{}); err != nil {
		return nil, fmt.Errorf("migrating battle_reports: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Save inserts r.
//
// Postcondition: Returns nil, report.ErrExists, or a wrapped database error.
func (s *Store) Save(ctx context.Context, r *report.Report) error {
	survivors, err := json.Marshal(r.Survivors)
	if err != nil {
		return fmt.Errorf("encoding survivors: %w", err)
	}
	log, err := json.Marshal(r.Log)
	if err != nil {
		return fmt.Errorf("encoding log: %w", err)
	}
	rec := record{
		ID:        r.ID.String(),
		CreatedAt: r.CreatedAt.UTC(),
		SquadA:    r.SquadA,
		SquadB:    r.SquadB,
		Seed:      r.Seed,
		Winner:    string(r.Winner),
		Ticks:     r.Ticks,
		TimedOut:  r.TimedOut,
		Entries:   len(r.Log),
		Survivors: datatypes.JSON(survivors),
		Log:       datatypes.JSON(log),
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&record{}).Where("id = ?", rec.ID).Count(&n).Error; err != nil {
			return fmt.Errorf("checking report %s: %w", rec.ID, err)
		}
		if n > 0 {
			return report.ErrExists
		}
		if err := tx.Create(&rec).Error; err != nil {
			return fmt.Errorf("inserting report: %w", err)
		}
		return nil
	})
}

// Get retrieves a report by id.
//
// Postcondition: Returns the report or report.ErrNotFound.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*report.Report, error) {
	var rec record
	err := s.db.WithContext(ctx).Where("id = ?", id.String()).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, report.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying report: %w", err)
	}
	r := &report.Report{
		ID:        id,
		CreatedAt: rec.CreatedAt.UTC(),
		SquadA:    rec.SquadA,
		SquadB:    rec.SquadB,
		Seed:      rec.Seed,
		Winner:    battle.Winner(rec.Winner),
		Ticks:     rec.Ticks,
		TimedOut:  rec.TimedOut,
	}
	if err := json.Unmarshal(rec.Survivors, &r.Survivors); err != nil {
		return nil, fmt.Errorf("decoding survivors: %w", err)
	}
	if err := json.Unmarshal(rec.Log, &r.Log); err != nil {
		return nil, fmt.Errorf("decoding log: %w", err)
	}
	return r, nil
}

// List returns up to limit summaries, newest first. limit <= 0 means all.
func (s *Store) List(ctx context.Context, limit int) ([]report.Summary, error) {
	var recs []record
	q := s.db.WithContext(ctx).
		Select("id", "created_at", "squad_a", "squad_b", "winner", "ticks", "entries").
		Order("created_at DESC").Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	out := make([]report.Summary, 0, len(recs))
	for _, rec := range recs {
		id, err := uuid.Parse(rec.ID)
		if err != nil {
			return nil, fmt.Errorf("parsing report id %q: %w", rec.ID, err)
		}
		out = append(out, report.Summary{
			ID:        id,
			CreatedAt: rec.CreatedAt.UTC(),
			SquadA:    rec.SquadA,
			SquadB:    rec.SquadB,
			Winner:    battle.Winner(rec.Winner),
			Ticks:     rec.Ticks,
			Entries:   rec.Entries,
		})
	}
	return out, nil
}
