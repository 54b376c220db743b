package postgres

import (
	"context"
	"database/sql"
	"errors"

	rounds "lantern-backend/internal/rounds/domain"
)

// TeamRepository stores teams in lantern_teams keyed by short_name.
type TeamRepository struct {
	db DBTX
}

// NewTeamRepository constructs a repository.
func NewTeamRepository(db DBTX) *TeamRepository {
	return &TeamRepository{db: db}
}

// Create inserts a team.
func (r *TeamRepository) Create(ctx context.Context, team *rounds.Team) error {
	if r == nil || r.db == nil {
		return errors.New("team repo: nil db")
	}
	if team == nil {
		return errors.New("team repo: nil team")
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO lantern_teams (short_name, team_name, is_active, points)
VALUES ($1, $2, $3, $4)`, team.ShortName, team.TeamName, team.IsActive, team.Points)
	if isUniqueViolation(err) {
		return rounds.ErrTeamExists
	}
	return err
}

// Get loads a team. A missing team yields nil, nil.
func (r *TeamRepository) Get(ctx context.Context, shortName string) (*rounds.Team, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("team repo: nil db")
	}
	var team rounds.Team
	err := r.db.QueryRowContext(ctx, `
SELECT short_name, team_name, is_active, points
FROM lantern_teams
WHERE short_name = $1`, shortName).Scan(&team.ShortName, &team.TeamName, &team.IsActive, &team.Points)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &team, nil
}

// List returns teams ordered by points, then short name.
func (r *TeamRepository) List(ctx context.Context) ([]rounds.Team, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("team repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT short_name, team_name, is_active, points
FROM lantern_teams
ORDER BY points DESC, short_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []rounds.Team
	for rows.Next() {
		var team rounds.Team
		if err := rows.Scan(&team.ShortName, &team.TeamName, &team.IsActive, &team.Points); err != nil {
			return nil, err
		}
		list = append(list, team)
	}
	return list, rows.Err()
}

// Update applies patch in a single statement. reset_points overrides points.
func (r *TeamRepository) Update(ctx context.Context, shortName string, patch rounds.TeamPatch) (*rounds.Team, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("team repo: nil db")
	}
	var (
		name   sql.NullString
		active sql.NullBool
		points sql.NullInt64
	)
	if patch.TeamName != nil {
		name = sql.NullString{String: *patch.TeamName, Valid: true}
	}
	if patch.IsActive != nil {
		active = sql.NullBool{Bool: *patch.IsActive, Valid: true}
	}
	if patch.Points != nil {
		points = sql.NullInt64{Int64: int64(*patch.Points), Valid: true}
	}
	var team rounds.Team
	err := r.db.QueryRowContext(ctx, `
UPDATE lantern_teams
SET team_name = COALESCE(TRIM($2), team_name),
	is_active = COALESCE($3, is_active),
	points = CASE WHEN $4 THEN 0 ELSE COALESCE($5, points) END
WHERE short_name = $1
RETURNING short_name, team_name, is_active, points`,
		shortName, name, active, patch.ResetPoints, points,
	).Scan(&team.ShortName, &team.TeamName, &team.IsActive, &team.Points)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, rounds.ErrTeamNotFound
		}
		return nil, err
	}
	return &team, nil
}
