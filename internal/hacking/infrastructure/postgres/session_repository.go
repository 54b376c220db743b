package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	hacking "lantern-backend/internal/hacking/domain"
)

// SessionRepository stores hack sessions in lantern_hack_sessions.
type SessionRepository struct {
	db DBTX
}

// NewSessionRepository constructs a repository.
func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

// Upsert inserts or replaces the owner's session.
func (r *SessionRepository) Upsert(ctx context.Context, session *hacking.HackSession) error {
	if r == nil || r.db == nil {
		return errors.New("session repo: nil db")
	}
	if session == nil {
		return errors.New("session repo: nil session")
	}
	if err := session.Validate(); err != nil {
		return err
	}
	users, err := json.Marshal(session.GameUsers)
	if err != nil {
		return err
	}
	passwords, err := json.Marshal(session.Passwords)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO lantern_hack_sessions (owner, station_id, tries_left, game_users, passwords, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (owner)
DO UPDATE SET
	station_id = EXCLUDED.station_id,
	tries_left = EXCLUDED.tries_left,
	game_users = EXCLUDED.game_users,
	passwords = EXCLUDED.passwords,
	created_at = EXCLUDED.created_at`,
		session.Owner, session.StationID, session.TriesLeft, users, passwords, session.CreatedAt)
	return err
}

// Get loads the owner's session. A missing session yields nil, nil.
func (r *SessionRepository) Get(ctx context.Context, owner string) (*hacking.HackSession, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("session repo: nil db")
	}
	var (
		session   hacking.HackSession
		users     []byte
		passwords []byte
	)
	err := r.db.QueryRowContext(ctx, `
SELECT owner, station_id, tries_left, game_users, passwords, created_at
FROM lantern_hack_sessions
WHERE owner = $1`, owner).Scan(
		&session.Owner,
		&session.StationID,
		&session.TriesLeft,
		&users,
		&passwords,
		&session.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(users, &session.GameUsers); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(passwords, &session.Passwords); err != nil {
		return nil, err
	}
	session.CreatedAt = session.CreatedAt.UTC()
	return &session, nil
}

// DecrementTries lowers tries of the keyed session while above zero.
func (r *SessionRepository) DecrementTries(ctx context.Context, key hacking.SessionKey) (int, bool, error) {
	if r == nil || r.db == nil {
		return 0, false, errors.New("session repo: nil db")
	}
	var remaining int
	err := r.db.QueryRowContext(ctx, `
UPDATE lantern_hack_sessions
SET tries_left = tries_left - 1
WHERE owner = $1 AND station_id = $2 AND created_at = $3 AND tries_left > 0
RETURNING tries_left`, key.Owner, key.StationID, key.CreatedAt.UTC()).Scan(&remaining)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return remaining, true, nil
}

// Claim removes the keyed live session.
func (r *SessionRepository) Claim(ctx context.Context, key hacking.SessionKey) (bool, error) {
	if r == nil || r.db == nil {
		return false, errors.New("session repo: nil db")
	}
	res, err := r.db.ExecContext(ctx, `
DELETE FROM lantern_hack_sessions
WHERE owner = $1 AND station_id = $2 AND created_at = $3 AND tries_left > 0`, key.Owner, key.StationID, key.CreatedAt.UTC())
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// DeleteExhausted removes the owner's session once tries are spent.
func (r *SessionRepository) DeleteExhausted(ctx context.Context, owner string) error {
	if r == nil || r.db == nil {
		return errors.New("session repo: nil db")
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM lantern_hack_sessions WHERE owner = $1 AND tries_left <= 0`, owner)
	return err
}
