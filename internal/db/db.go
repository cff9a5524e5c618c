package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"crossing-simulator/internal/signal"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// ErrUnknownJunction is returned when a junction id has no row.
var ErrUnknownJunction = errors.New("unknown junction")

func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

func Ping(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}

// Repository reads and writes junction recordings in Postgres.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository { return &Repository{db: db} }

func (r *Repository) ListJunctions(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT junction_id FROM junctions ORDER BY junction_id`)
	if err != nil {
		return nil, fmt.Errorf("query junctions: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// LoadSnapshot reads everything recorded for a junction in one consistent
// read-only transaction.
func (r *Repository) LoadSnapshot(ctx context.Context, junctionID string) (signal.Snapshot, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true, Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return signal.Snapshot{}, fmt.Errorf("begin snapshot: %w", err)
	}
	defer tx.Rollback()

	s := signal.Snapshot{JunctionID: junctionID}
	q := `SELECT name, cycle_duration, cycle_offset, fold_offset, journeys FROM junctions WHERE junction_id = $1`
	err = tx.QueryRowContext(ctx, q, junctionID).Scan(&s.Name, &s.Cycle.Duration, &s.Cycle.Offset, &s.FoldOffset, &s.JourneyText)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return signal.Snapshot{}, fmt.Errorf("%w: %s", ErrUnknownJunction, junctionID)
		}
		return signal.Snapshot{}, fmt.Errorf("query junction: %w", err)
	}

	if s.Crossings, err = fetchCrossings(ctx, tx, junctionID); err != nil {
		return signal.Snapshot{}, err
	}
	if s.Transitions, err = fetchTransitions(ctx, tx, junctionID); err != nil {
		return signal.Snapshot{}, err
	}
	return s, nil
}

func fetchCrossings(ctx context.Context, tx *sql.Tx, junctionID string) ([]signal.Crossing, error) {
	q := `SELECT crossing_id, name, walk_time, green_at, red_at
          FROM crossings WHERE junction_id = $1 ORDER BY position, crossing_id`
	rows, err := tx.QueryContext(ctx, q, junctionID)
	if err != nil {
		return nil, fmt.Errorf("query crossings: %w", err)
	}
	defer rows.Close()
	var out []signal.Crossing
	for rows.Next() {
		var c signal.Crossing
		var walk, green, red sql.NullInt64
		if err := rows.Scan(&c.ID, &c.Name, &walk, &green, &red); err != nil {
			return nil, err
		}
		c.WalkTime = nullSec(walk)
		c.Chosen = signal.Representative{Green: nullSec(green), Red: nullSec(red)}
		out = append(out, c)
	}
	return out, rows.Err()
}

func fetchTransitions(ctx context.Context, tx *sql.Tx, junctionID string) ([]signal.Transition, error) {
	q := `SELECT crossing_id, color, at_sec FROM transitions WHERE junction_id = $1 ORDER BY id`
	rows, err := tx.QueryContext(ctx, q, junctionID)
	if err != nil {
		return nil, fmt.Errorf("query transitions: %w", err)
	}
	defer rows.Close()
	var out []signal.Transition
	for rows.Next() {
		var t signal.Transition
		var color string
		if err := rows.Scan(&t.Crossing, &color, &t.At); err != nil {
			return nil, err
		}
		if t.Color, err = signal.ParseColor(color); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func nullSec(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	return signal.Sec(int(v.Int64))
}

// RecordTransitions appends observed transitions to a junction's recording.
func (r *Repository) RecordTransitions(ctx context.Context, junctionID string, ts []signal.Transition) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record: %w", err)
	}
	defer tx.Rollback()
	for _, t := range ts {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO transitions (junction_id, crossing_id, color, at_sec) VALUES ($1, $2, $3, $4)`,
			junctionID, string(t.Crossing), string(t.Color), t.At)
		if err != nil {
			return fmt.Errorf("insert transition: %w", err)
		}
	}
	if err := touch(ctx, tx, junctionID); err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateCycle stores the chosen cycle for a junction.
func (r *Repository) UpdateCycle(ctx context.Context, junctionID string, c signal.Cycle) error {
	if err := c.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE junctions SET cycle_duration = $2, cycle_offset = $3, updated_at = now() WHERE junction_id = $1`,
		junctionID, c.Duration, c.Offset)
	if err != nil {
		return fmt.Errorf("update cycle: %w", err)
	}
	return expectRow(res, junctionID)
}

// UpdateJourneys replaces the free-text journey list of a junction.
func (r *Repository) UpdateJourneys(ctx context.Context, junctionID, text string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE junctions SET journeys = $2, updated_at = now() WHERE junction_id = $1`, junctionID, text)
	if err != nil {
		return fmt.Errorf("update journeys: %w", err)
	}
	return expectRow(res, junctionID)
}

func touch(ctx context.Context, tx *sql.Tx, junctionID string) error {
	res, err := tx.ExecContext(ctx, `UPDATE junctions SET updated_at = now() WHERE junction_id = $1`, junctionID)
	if err != nil {
		return fmt.Errorf("touch junction: %w", err)
	}
	return expectRow(res, junctionID)
}

func expectRow(res sql.Result, junctionID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownJunction, junctionID)
	}
	return nil
}
