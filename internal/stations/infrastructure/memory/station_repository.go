package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	stations "lantern-backend/internal/stations/domain"
)

// StationRepository is an in-memory station store for demo/testing.
type StationRepository struct {
	mu   sync.RWMutex
	data map[int]stations.Station
}

// NewStationRepository constructs a repository seeded with list.
func NewStationRepository(list ...stations.Station) *StationRepository {
	repo := &StationRepository{data: make(map[int]stations.Station, len(list))}
	for _, station := range list {
		repo.data[station.StationID] = station
	}
	return repo
}

// List returns stations ordered by id.
func (r *StationRepository) List(ctx context.Context) ([]stations.Station, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]stations.Station, 0, len(r.data))
	for _, station := range r.data {
		list = append(list, station)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].StationID < list[j].StationID })
	return list, nil
}

// Get loads a station by id.
func (r *StationRepository) Get(ctx context.Context, stationID int) (*stations.Station, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	station, ok := r.data[stationID]
	if !ok {
		return nil, nil
	}
	return &station, nil
}

// Save upserts a station.
func (r *StationRepository) Save(ctx context.Context, station *stations.Station) error {
	_ = ctx
	if station == nil {
		return errors.New("station repo: nil station")
	}
	if err := station.Validate(); err != nil {
		return err
	}
	station.UpdatedAt = time.Now().UTC()
	r.mu.Lock()
	r.data[station.StationID] = *station
	r.mu.Unlock()
	return nil
}

// CompareAndSetSignal updates the signal only if it still holds expected.
func (r *StationRepository) CompareAndSetSignal(ctx context.Context, stationID, expected, next int) (bool, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	station, ok := r.data[stationID]
	if !ok || station.SignalValue != expected {
		return false, nil
	}
	station.SignalValue = next
	station.UpdatedAt = time.Now().UTC()
	r.data[stationID] = station
	return true, nil
}

// ResetSignals sets every station to value.
func (r *StationRepository) ResetSignals(ctx context.Context, value int) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	for id, station := range r.data {
		if station.SignalValue == value {
			continue
		}
		station.SignalValue = value
		station.UpdatedAt = now
		r.data[id] = station
	}
	return nil
}
