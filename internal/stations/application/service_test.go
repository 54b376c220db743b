package application

import (
	"context"
	"errors"
	"sync"
	"testing"

	"lantern-backend/internal/gameerr"
	"lantern-backend/internal/signal"
	stations "lantern-backend/internal/stations/domain"
	"lantern-backend/internal/stations/infrastructure/memory"
)

type recordingEmitter struct {
	mu     sync.Mutex
	events []string
}

func (e *recordingEmitter) Emit(_ context.Context, event string, _ any) {
	e.mu.Lock()
	e.events = append(e.events, event)
	e.mu.Unlock()
}

type recordingReports struct {
	mu     sync.Mutex
	values [][2]int
}

func (r *recordingReports) Enqueue(stationID, boost int) {
	r.mu.Lock()
	r.values = append(r.values, [2]int{stationID, boost})
	r.mu.Unlock()
}

// conflictingRepo loses the first CAS attempts to a concurrent writer.
type conflictingRepo struct {
	*memory.StationRepository
	losses int
}

func (r *conflictingRepo) CompareAndSetSignal(ctx context.Context, stationID, expected, next int) (bool, error) {
	if r.losses > 0 {
		r.losses--
		if _, err := r.StationRepository.CompareAndSetSignal(ctx, stationID, expected, expected+1); err != nil {
			return false, err
		}
		return false, nil
	}
	return r.StationRepository.CompareAndSetSignal(ctx, stationID, expected, next)
}

func TestApplyBoostUpdatesAndNotifies(t *testing.T) {
	repo := memory.NewStationRepository(stations.Station{StationID: 1, StationName: "North", SignalValue: 140, IsActive: true})
	emitter := &recordingEmitter{}
	reports := &recordingReports{}
	service, err := NewService(repo, signal.DefaultSettings(), WithEmitter(emitter), WithReportQueue(reports))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	result, err := service.ApplyBoost(context.Background(), 1, true)
	if err != nil {
		t.Fatalf("apply boost: %v", err)
	}
	if result.Previous != 140 || result.SignalValue != 142 || result.Direction != "boost" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(emitter.events) != 1 || len(reports.values) != 1 || reports.values[0] != [2]int{1, 142} {
		t.Fatalf("unexpected side effects: events=%v reports=%v", emitter.events, reports.values)
	}
}

func TestApplyBoostRetriesLostCompareAndSet(t *testing.T) {
	repo := &conflictingRepo{
		StationRepository: memory.NewStationRepository(stations.Station{StationID: 1, StationName: "North", SignalValue: 100, IsActive: true}),
		losses:            2,
	}
	service, err := NewService(repo, signal.DefaultSettings())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	result, err := service.ApplyBoost(context.Background(), 1, true)
	if err != nil {
		t.Fatalf("apply boost: %v", err)
	}
	// Two concurrent writers moved 100 to 102 before our write landed.
	if result.Previous != 102 || result.SignalValue != signal.Boost(102, true, signal.DefaultSettings()) {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestApplyBoostGivesUpAfterRepeatedConflicts(t *testing.T) {
	repo := &conflictingRepo{
		StationRepository: memory.NewStationRepository(stations.Station{StationID: 1, StationName: "North", SignalValue: 100, IsActive: true}),
		losses:            maxBoostAttempts,
	}
	service, err := NewService(repo, signal.DefaultSettings())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if _, err := service.ApplyBoost(context.Background(), 1, true); !errors.Is(err, gameerr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestApplyBoostMissingStation(t *testing.T) {
	service, err := NewService(memory.NewStationRepository(), signal.DefaultSettings())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if _, err := service.ApplyBoost(context.Background(), 7, true); !errors.Is(err, gameerr.ErrDoesNotExist) {
		t.Fatalf("expected does not exist, got %v", err)
	}
}

func TestResetAndSeed(t *testing.T) {
	repo := memory.NewStationRepository()
	emitter := &recordingEmitter{}
	service, err := NewService(repo, signal.DefaultSettings(), WithEmitter(emitter))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()
	err = service.Seed(ctx, []stations.Station{
		{StationID: 1, StationName: "North"},
		{StationID: 2, StationName: "South", SignalValue: 400},
		{StationID: 3, StationName: "East", SignalValue: 60},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	list, err := service.ListStations(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []int{100, 150, 60}
	for i, station := range list {
		if station.SignalValue != want[i] {
			t.Fatalf("station %d: expected %d, got %d", station.StationID, want[i], station.SignalValue)
		}
	}

	if err := service.ResetSignals(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	list, _ = service.ListStations(ctx)
	for _, station := range list {
		if station.SignalValue != 100 {
			t.Fatalf("station %d not reset: %d", station.StationID, station.SignalValue)
		}
	}
	if len(emitter.events) != 1 {
		t.Fatalf("expected one broadcast, got %v", emitter.events)
	}
}

func TestListStationsEmpty(t *testing.T) {
	service, err := NewService(memory.NewStationRepository(), signal.DefaultSettings())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	list, err := service.ListStations(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", list)
	}
}
