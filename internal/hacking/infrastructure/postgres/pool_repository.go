package postgres

import (
	"context"
	"encoding/json"
	"errors"

	hacking "lantern-backend/internal/hacking/domain"
)

// PoolRepository reads lantern_game_users and lantern_fake_passwords.
type PoolRepository struct {
	db DBTX
}

// NewPoolRepository constructs a repository.
func NewPoolRepository(db DBTX) *PoolRepository {
	return &PoolRepository{db: db}
}

// ListGameUsers returns game users bound to stationID.
func (r *PoolRepository) ListGameUsers(ctx context.Context, stationID int) ([]hacking.GameUser, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("pool repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT user_name, station_id, passwords
FROM lantern_game_users
WHERE station_id = $1
ORDER BY user_name`, stationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []hacking.GameUser
	for rows.Next() {
		var (
			user      hacking.GameUser
			passwords []byte
		)
		if err := rows.Scan(&user.UserName, &user.StationID, &passwords); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(passwords, &user.Passwords); err != nil {
			return nil, err
		}
		list = append(list, user)
	}
	return list, rows.Err()
}

// ListFakePasswords returns the decoy pool.
func (r *PoolRepository) ListFakePasswords(ctx context.Context) ([]string, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("pool repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `SELECT password FROM lantern_fake_passwords`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []string
	for rows.Next() {
		var password string
		if err := rows.Scan(&password); err != nil {
			return nil, err
		}
		list = append(list, password)
	}
	return list, rows.Err()
}

// SaveGameUser upserts a seeded game user.
func (r *PoolRepository) SaveGameUser(ctx context.Context, user hacking.GameUser) error {
	if r == nil || r.db == nil {
		return errors.New("pool repo: nil db")
	}
	if err := user.Validate(); err != nil {
		return err
	}
	passwords, err := json.Marshal(user.Passwords)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO lantern_game_users (user_name, station_id, passwords)
VALUES ($1, $2, $3)
ON CONFLICT (user_name, station_id)
DO UPDATE SET passwords = EXCLUDED.passwords`, user.UserName, user.StationID, passwords)
	return err
}

// SaveFakePasswords inserts decoys, ignoring ones already present.
func (r *PoolRepository) SaveFakePasswords(ctx context.Context, passwords []string) error {
	if r == nil || r.db == nil {
		return errors.New("pool repo: nil db")
	}
	for _, password := range passwords {
		if password == "" {
			continue
		}
		if _, err := r.db.ExecContext(ctx, `INSERT INTO lantern_fake_passwords (password) VALUES ($1) ON CONFLICT DO NOTHING`, password); err != nil {
			return err
		}
	}
	return nil
}
