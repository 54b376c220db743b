package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	rounds "lantern-backend/internal/rounds/domain"
)

const roundColumns = `round_id, start_time, end_time, is_active, started_at, ended_at`

// RoundRepository stores rounds in lantern_rounds. A partial unique index on
// is_active keeps at most one active row.
type RoundRepository struct {
	db DBTX
}

// NewRoundRepository constructs a repository.
func NewRoundRepository(db DBTX) *RoundRepository {
	return &RoundRepository{db: db}
}

// Create inserts a round. A zero RoundID is assigned by the sequence.
func (r *RoundRepository) Create(ctx context.Context, round *rounds.Round) error {
	if r == nil || r.db == nil {
		return errors.New("round repo: nil db")
	}
	if round == nil {
		return errors.New("round repo: nil round")
	}
	var err error
	if round.RoundID == 0 {
		err = r.db.QueryRowContext(ctx, `
INSERT INTO lantern_rounds (start_time, end_time)
VALUES ($1, $2)
RETURNING round_id`, nullableTime(round.StartTime), nullableTime(round.EndTime)).Scan(&round.RoundID)
	} else {
		_, err = r.db.ExecContext(ctx, `
INSERT INTO lantern_rounds (round_id, start_time, end_time)
VALUES ($1, $2, $3)`, round.RoundID, nullableTime(round.StartTime), nullableTime(round.EndTime))
		if err == nil {
			// keep the sequence ahead of explicit ids
			_, err = r.db.ExecContext(ctx, `
SELECT setval(pg_get_serial_sequence('lantern_rounds', 'round_id'), (SELECT MAX(round_id) FROM lantern_rounds))`)
		}
	}
	if err != nil {
		return err
	}
	round.IsActive = false
	round.StartedAt = nil
	round.EndedAt = nil
	return nil
}

// Get loads a round. A missing round yields nil, nil.
func (r *RoundRepository) Get(ctx context.Context, roundID int64) (*rounds.Round, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("round repo: nil db")
	}
	return scanRound(r.db.QueryRowContext(ctx, `SELECT `+roundColumns+` FROM lantern_rounds WHERE round_id = $1`, roundID))
}

// List returns rounds ordered by id.
func (r *RoundRepository) List(ctx context.Context) ([]rounds.Round, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("round repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+roundColumns+` FROM lantern_rounds ORDER BY round_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []rounds.Round
	for rows.Next() {
		round, err := scanRound(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *round)
	}
	return list, rows.Err()
}

// Active returns the active round or nil.
func (r *RoundRepository) Active(ctx context.Context) (*rounds.Round, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("round repo: nil db")
	}
	return scanRound(r.db.QueryRowContext(ctx, `SELECT `+roundColumns+` FROM lantern_rounds WHERE is_active LIMIT 1`))
}

// Activate starts a pending round while no other round is active.
func (r *RoundRepository) Activate(ctx context.Context, roundID int64, at time.Time) (*rounds.Round, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("round repo: nil db")
	}
	round, err := scanRound(r.db.QueryRowContext(ctx, `
UPDATE lantern_rounds
SET is_active = TRUE, started_at = $2
WHERE round_id = $1
	AND NOT is_active
	AND ended_at IS NULL
	AND NOT EXISTS (SELECT 1 FROM lantern_rounds WHERE is_active)
RETURNING `+roundColumns, roundID, at.UTC()))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, rounds.ErrRoundConflict
		}
		return nil, err
	}
	if round != nil {
		return round, nil
	}

	current, err := r.Get(ctx, roundID)
	if err != nil {
		return nil, err
	}
	switch {
	case current == nil:
		return nil, rounds.ErrRoundNotFound
	case current.EndedAt != nil:
		return nil, rounds.ErrRoundEnded
	default:
		return nil, rounds.ErrRoundConflict
	}
}

// Deactivate ends the active round and returns it, or nil when none is active.
func (r *RoundRepository) Deactivate(ctx context.Context, at time.Time) (*rounds.Round, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("round repo: nil db")
	}
	return scanRound(r.db.QueryRowContext(ctx, `
UPDATE lantern_rounds
SET is_active = FALSE, ended_at = $1
WHERE is_active
RETURNING `+roundColumns, at.UTC()))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRound(row rowScanner) (*rounds.Round, error) {
	var (
		round     rounds.Round
		startTime sql.NullTime
		endTime   sql.NullTime
		startedAt sql.NullTime
		endedAt   sql.NullTime
	)
	if err := row.Scan(&round.RoundID, &startTime, &endTime, &round.IsActive, &startedAt, &endedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if startTime.Valid {
		round.StartTime = startTime.Time.UTC()
	}
	if endTime.Valid {
		round.EndTime = endTime.Time.UTC()
	}
	if startedAt.Valid {
		value := startedAt.Time.UTC()
		round.StartedAt = &value
	}
	if endedAt.Valid {
		value := endedAt.Time.UTC()
		round.EndedAt = &value
	}
	return &round, nil
}

func nullableTime(value time.Time) any {
	if value.IsZero() {
		return nil
	}
	return value.UTC()
}
