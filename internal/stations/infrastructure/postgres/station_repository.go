package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	stations "lantern-backend/internal/stations/domain"
)

const defaultStationsTable = "lantern_stations"

// StationRepository is a Postgres implementation for stations.
type StationRepository struct {
	db    DBTX
	table string
}

// StationOption configures the repository.
type StationOption func(*StationRepository)

// WithStationTable overrides the default table name.
func WithStationTable(table string) StationOption {
	return func(repo *StationRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// NewStationRepository constructs a repository.
func NewStationRepository(db DBTX, opts ...StationOption) *StationRepository {
	repo := &StationRepository{db: db, table: defaultStationsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// List loads every station ordered by id.
func (r *StationRepository) List(ctx context.Context) ([]stations.Station, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("station repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT station_id, station_name, signal_value, is_active, COALESCE(owner, ''), updated_at
FROM %s
ORDER BY station_id`, r.table)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []stations.Station
	for rows.Next() {
		var station stations.Station
		if err := rows.Scan(
			&station.StationID,
			&station.StationName,
			&station.SignalValue,
			&station.IsActive,
			&station.Owner,
			&station.UpdatedAt,
		); err != nil {
			return nil, err
		}
		station.UpdatedAt = station.UpdatedAt.UTC()
		list = append(list, station)
	}
	return list, rows.Err()
}

// Get loads a station by id. A missing station yields nil, nil.
func (r *StationRepository) Get(ctx context.Context, stationID int) (*stations.Station, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("station repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT station_id, station_name, signal_value, is_active, COALESCE(owner, ''), updated_at
FROM %s
WHERE station_id = $1
LIMIT 1`, r.table)

	var station stations.Station
	if err := r.db.QueryRowContext(ctx, query, stationID).Scan(
		&station.StationID,
		&station.StationName,
		&station.SignalValue,
		&station.IsActive,
		&station.Owner,
		&station.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	station.UpdatedAt = station.UpdatedAt.UTC()
	return &station, nil
}

// Save upserts a station.
func (r *StationRepository) Save(ctx context.Context, station *stations.Station) error {
	if r == nil || r.db == nil {
		return errors.New("station repo: nil db")
	}
	if station == nil {
		return errors.New("station repo: nil station")
	}
	if err := station.Validate(); err != nil {
		return err
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	station_id,
	station_name,
	signal_value,
	is_active,
	owner
) VALUES (
	$1, $2, $3, $4, NULLIF($5, '')
)
ON CONFLICT (station_id)
DO UPDATE SET
	station_name = EXCLUDED.station_name,
	signal_value = EXCLUDED.signal_value,
	is_active = EXCLUDED.is_active,
	owner = EXCLUDED.owner,
	updated_at = NOW()`, r.table)

	if _, err := r.db.ExecContext(
		ctx,
		query,
		station.StationID,
		station.StationName,
		station.SignalValue,
		station.IsActive,
		station.Owner,
	); err != nil {
		return err
	}
	station.UpdatedAt = time.Now().UTC()
	return nil
}

// CompareAndSetSignal updates the signal only if it still holds expected.
func (r *StationRepository) CompareAndSetSignal(ctx context.Context, stationID, expected, next int) (bool, error) {
	if r == nil || r.db == nil {
		return false, errors.New("station repo: nil db")
	}
	query := fmt.Sprintf(`
UPDATE %s
SET signal_value = $3, updated_at = NOW()
WHERE station_id = $1 AND signal_value = $2`, r.table)

	res, err := r.db.ExecContext(ctx, query, stationID, expected, next)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// ResetSignals sets every station to value.
func (r *StationRepository) ResetSignals(ctx context.Context, value int) error {
	if r == nil || r.db == nil {
		return errors.New("station repo: nil db")
	}
	query := fmt.Sprintf(`UPDATE %s SET signal_value = $1, updated_at = NOW() WHERE signal_value <> $1`, r.table)
	_, err := r.db.ExecContext(ctx, query, value)
	return err
}
