package application

import (
	"context"
	"errors"
	"log"

	"lantern-backend/internal/broadcast"
	"lantern-backend/internal/gameerr"
	"lantern-backend/internal/observability/metrics"
	"lantern-backend/internal/signal"
	stations "lantern-backend/internal/stations/domain"
)

const maxBoostAttempts = 5

// ReportQueue mirrors signal values to the external reporting endpoint.
type ReportQueue interface {
	Enqueue(stationID, boost int)
}

// BoostResult describes an applied boost.
type BoostResult struct {
	StationID   int    `json:"stationId"`
	Previous    int    `json:"previous"`
	SignalValue int    `json:"signalValue"`
	Direction   string `json:"boosted"`
}

// Service owns station reads and signal writes.
type Service struct {
	repo     stations.Repository
	settings signal.Settings
	emitter  broadcast.Emitter
	reports  ReportQueue
	logger   *log.Logger
}

// ServiceOption customizes the station service.
type ServiceOption func(*Service)

// WithEmitter assigns the broadcast emitter.
func WithEmitter(emitter broadcast.Emitter) ServiceOption {
	return func(s *Service) {
		if emitter != nil {
			s.emitter = emitter
		}
	}
}

// WithReportQueue assigns the wrecking mirror.
func WithReportQueue(reports ReportQueue) ServiceOption {
	return func(s *Service) {
		if reports != nil {
			s.reports = reports
		}
	}
}

// WithLogger assigns a logger.
func WithLogger(logger *log.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService constructs a station service.
func NewService(repo stations.Repository, settings signal.Settings, opts ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, errors.New("stations: nil repo")
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	s := &Service{
		repo:     repo,
		settings: settings,
		emitter:  broadcast.Nop{},
		reports:  noopReports{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Settings returns the signal tuning in use.
func (s *Service) Settings() signal.Settings {
	return s.settings
}

// ListStations returns every station.
func (s *Service) ListStations(ctx context.Context) ([]stations.Station, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, gameerr.Database(err)
	}
	if list == nil {
		list = []stations.Station{}
	}
	return list, nil
}

// GetStation loads one station or fails with DoesNotExist.
func (s *Service) GetStation(ctx context.Context, stationID int) (*stations.Station, error) {
	station, err := s.repo.Get(ctx, stationID)
	if err != nil {
		return nil, gameerr.Database(err)
	}
	if station == nil {
		return nil, gameerr.DoesNotExist("station")
	}
	return station, nil
}

// ApplyBoost moves a station's signal after a successful hack. The write is a
// compare-and-set retried against fresh reads, so concurrent decay ticks are not lost.
func (s *Service) ApplyBoost(ctx context.Context, stationID int, boosting bool) (*BoostResult, error) {
	for attempt := 0; attempt < maxBoostAttempts; attempt++ {
		station, err := s.GetStation(ctx, stationID)
		if err != nil {
			return nil, err
		}
		next := signal.Boost(station.SignalValue, boosting, s.settings)
		if next != station.SignalValue {
			ok, err := s.repo.CompareAndSetSignal(ctx, stationID, station.SignalValue, next)
			if err != nil {
				return nil, gameerr.Database(err)
			}
			if !ok {
				metrics.IncSignalConflict(metrics.SourceHack)
				continue
			}
			metrics.IncSignalUpdate(metrics.SourceHack)
		}
		s.reports.Enqueue(stationID, next)
		s.BroadcastStations(ctx)
		return &BoostResult{
			StationID:   stationID,
			Previous:    station.SignalValue,
			SignalValue: next,
			Direction:   signal.Direction(boosting),
		}, nil
	}
	return nil, gameerr.Conflict("station signal changed concurrently")
}

// ResetSignals moves every station back to the default value.
func (s *Service) ResetSignals(ctx context.Context) error {
	if err := s.repo.ResetSignals(ctx, s.settings.Default); err != nil {
		return gameerr.Database(err)
	}
	metrics.IncSignalUpdate(metrics.SourceRound)
	s.BroadcastStations(ctx)
	return nil
}

// BroadcastStations pushes the full station list to clients.
func (s *Service) BroadcastStations(ctx context.Context) {
	list, err := s.repo.List(ctx)
	if err != nil {
		if s.logger != nil {
			s.logger.Printf("stations broadcast error: %v", err)
		}
		return
	}
	if list == nil {
		list = []stations.Station{}
	}
	s.emitter.Emit(ctx, broadcast.EventStations, list)
}

// Seed stores stations with their signal clamped into range.
func (s *Service) Seed(ctx context.Context, list []stations.Station) error {
	for i := range list {
		station := list[i]
		if station.SignalValue == 0 {
			station.SignalValue = s.settings.Default
		}
		station.SignalValue = signal.Clamp(station.SignalValue, s.settings)
		if err := s.repo.Save(ctx, &station); err != nil {
			return gameerr.Database(err)
		}
	}
	return nil
}

type noopReports struct{}

func (noopReports) Enqueue(int, int) {}
