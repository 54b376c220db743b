package stations

import (
	"context"
	"errors"
	"time"
)

// Station is a persistent game object with a bounded signal value.
type Station struct {
	StationID   int       `json:"stationId" yaml:"station_id"`
	StationName string    `json:"stationName" yaml:"station_name"`
	SignalValue int       `json:"signalValue" yaml:"signal_value"`
	IsActive    bool      `json:"isActive" yaml:"is_active"`
	Owner       string    `json:"owner,omitempty" yaml:"owner"`
	UpdatedAt   time.Time `json:"updatedAt" yaml:"-"`
}

// Validate checks station invariants.
func (s Station) Validate() error {
	if s.StationID <= 0 {
		return errors.New("station: invalid id")
	}
	if s.StationName == "" {
		return errors.New("station: empty name")
	}
	return nil
}

// Repository manages station persistence.
// CompareAndSetSignal writes next only while the stored value still equals expected.
type Repository interface {
	List(ctx context.Context) ([]Station, error)
	Get(ctx context.Context, stationID int) (*Station, error)
	Save(ctx context.Context, station *Station) error
	CompareAndSetSignal(ctx context.Context, stationID, expected, next int) (bool, error)
	ResetSignals(ctx context.Context, value int) error
}
