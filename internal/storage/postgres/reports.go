package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/skirmish/internal/game/battle"
	"github.com/cory-johannsen/skirmish/internal/game/report"
)

// ReportRepository archives battle reports in PostgreSQL.
type ReportRepository struct {
	db *pgxpool.Pool
}

var _ report.Store = (*ReportRepository)(nil)

// NewReportRepository creates a ReportRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewReportRepository(db *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{db: db}
}

// Save inserts r.
//
// Precondition: r.ID must be set.
// Postcondition: Returns nil on success or report.ErrExists on a duplicate id.
func (r *ReportRepository) Save(ctx context.Context, rep *report.Report) error {
	survivors, err := json.Marshal(rep.Survivors)
	if err != nil {
		return fmt.Errorf("encoding survivors: %w", err)
	}
	log, err := json.Marshal(rep.Log)
	if err != nil {
		return fmt.Errorf("encoding log: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO battle_reports
			(id, created_at, squad_a, squad_b, seed, winner, ticks, timed_out, entries, survivors, log)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		rep.ID, rep.CreatedAt, rep.SquadA, rep.SquadB, rep.Seed, string(rep.Winner),
		rep.Ticks, rep.TimedOut, len(rep.Log), survivors, log,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return report.ErrExists
		}
		return fmt.Errorf("inserting report: %w", err)
	}
	return nil
}

// Get retrieves a report by id.
//
// Postcondition: Returns the report or report.ErrNotFound.
func (r *ReportRepository) Get(ctx context.Context, id uuid.UUID) (*report.Report, error) {
	var (
		rep             report.Report
		winner          string
		survivors, logs []byte
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, created_at, squad_a, squad_b, seed, winner, ticks, timed_out, survivors, log
		FROM battle_reports WHERE id = $1`,
		id,
	).Scan(
		&rep.ID, &rep.CreatedAt, &rep.SquadA, &rep.SquadB, &rep.Seed, &winner,
		&rep.Ticks, &rep.TimedOut, &survivors, &logs,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, report.ErrNotFound
		}
		return nil, fmt.Errorf("querying report: %w", err)
	}
	rep.Winner = battle.Winner(winner)
	if err := json.Unmarshal(survivors, &rep.Survivors); err != nil {
		return nil, fmt.Errorf("decoding survivors: %w", err)
	}
	if err := json.Unmarshal(logs, &rep.Log); err != nil {
		return nil, fmt.Errorf("decoding log: %w", err)
	}
	return &rep, nil
}

// List returns up to limit summaries, newest first. limit <= 0 means all.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *ReportRepository) List(ctx context.Context, limit int) ([]report.Summary, error) {
	query := `
		SELECT id, created_at, squad_a, squad_b, winner, ticks, entries
		FROM battle_reports ORDER BY created_at DESC, id ASC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	defer rows.Close()

	out := make([]report.Summary, 0)
	for rows.Next() {
		var (
			s      report.Summary
			winner string
		)
		if err := rows.Scan(&s.ID, &s.CreatedAt, &s.SquadA, &s.SquadB, &winner, &s.Ticks, &s.Entries); err != nil {
			return nil, fmt.Errorf("scanning report row: %w", err)
		}
		s.Winner = battle.Winner(winner)
		out = append(out, s)
	}
	return out, rows.Err()
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	// pgx wraps PostgreSQL errors; check for SQLSTATE 23505 (unique_violation)
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
