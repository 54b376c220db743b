package application

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"lantern-backend/internal/gameerr"
	stations "lantern-backend/internal/stations/domain"
	"lantern-backend/internal/stations/infrastructure/memory"
)

type stubGate struct {
	active atomic.Bool
	err    error
}

func (g *stubGate) HasActiveRound(context.Context) (bool, error) {
	return g.active.Load(), g.err
}

type countingBroadcaster struct {
	calls atomic.Int32
}

func (b *countingBroadcaster) BroadcastStations(context.Context) {
	b.calls.Add(1)
}

type recordingReports struct {
	mu     sync.Mutex
	values map[int]int
}

func (r *recordingReports) Enqueue(stationID, boost int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.values == nil {
		r.values = map[int]int{}
	}
	r.values[stationID] = boost
}

// flakyRepo fails CAS for one station and loses the race for another.
type flakyRepo struct {
	*memory.StationRepository
	failID int
	loseID int
}

func (r *flakyRepo) CompareAndSetSignal(ctx context.Context, stationID, expected, next int) (bool, error) {
	switch stationID {
	case r.failID:
		return false, errors.New("connection reset")
	case r.loseID:
		return false, nil
	}
	return r.StationRepository.CompareAndSetSignal(ctx, stationID, expected, next)
}

func newScheduler(t *testing.T, repo stations.Repository, gate RoundGate, interval time.Duration, opts ...Option) *Scheduler {
	t.Helper()
	scheduler, err := NewScheduler(repo, gate, 100, interval, opts...)
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	return scheduler
}

func activeGate() *stubGate {
	gate := &stubGate{}
	gate.active.Store(true)
	return gate
}

func TestTickAtDefaultIsNoop(t *testing.T) {
	repo := memory.NewStationRepository(stations.Station{StationID: 1, StationName: "North", SignalValue: 100})
	broadcaster := &countingBroadcaster{}
	scheduler := newScheduler(t, repo, activeGate(), time.Second, WithBroadcaster(broadcaster))

	result, err := scheduler.Tick(context.Background())
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if result.Updated != 0 || result.Skipped || broadcaster.calls.Load() != 0 {
		t.Fatalf("unexpected result %+v broadcasts=%d", result, broadcaster.calls.Load())
	}
}

func TestTickMovesTowardDefault(t *testing.T) {
	repo := memory.NewStationRepository(
		stations.Station{StationID: 1, StationName: "North", SignalValue: 120},
		stations.Station{StationID: 2, StationName: "South", SignalValue: 80},
		stations.Station{StationID: 3, StationName: "East", SignalValue: 100},
	)
	broadcaster := &countingBroadcaster{}
	reports := &recordingReports{}
	scheduler := newScheduler(t, repo, activeGate(), time.Second, WithBroadcaster(broadcaster), WithReportQueue(reports))

	result, err := scheduler.Tick(context.Background())
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if result.Updated != 2 || result.Failed != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	north, _ := repo.Get(context.Background(), 1)
	south, _ := repo.Get(context.Background(), 2)
	if north.SignalValue != 119 || south.SignalValue != 81 {
		t.Fatalf("unexpected values: north=%d south=%d", north.SignalValue, south.SignalValue)
	}
	if broadcaster.calls.Load() != 1 {
		t.Fatalf("expected one broadcast, got %d", broadcaster.calls.Load())
	}
	if reports.values[1] != 119 || reports.values[2] != 81 || len(reports.values) != 2 {
		t.Fatalf("unexpected reports: %v", reports.values)
	}
}

func TestTickConvergesWithoutOvershoot(t *testing.T) {
	repo := memory.NewStationRepository(stations.Station{StationID: 1, StationName: "North", SignalValue: 105})
	scheduler := newScheduler(t, repo, activeGate(), time.Second)
	for i := 0; i < 10; i++ {
		if _, err := scheduler.Tick(context.Background()); err != nil {
			t.Fatalf("tick: %v", err)
		}
	}
	station, _ := repo.Get(context.Background(), 1)
	if station.SignalValue != 100 {
		t.Fatalf("expected convergence to 100, got %d", station.SignalValue)
	}
}

func TestTickSkipsWithoutActiveRoundOrInterval(t *testing.T) {
	repo := memory.NewStationRepository(stations.Station{StationID: 1, StationName: "North", SignalValue: 130})

	result, err := newScheduler(t, repo, &stubGate{}, time.Second).Tick(context.Background())
	if err != nil || !result.Skipped {
		t.Fatalf("expected skip without round, got %+v err=%v", result, err)
	}
	result, err = newScheduler(t, repo, activeGate(), 0).Tick(context.Background())
	if err != nil || !result.Skipped {
		t.Fatalf("expected skip with zero interval, got %+v err=%v", result, err)
	}
	station, _ := repo.Get(context.Background(), 1)
	if station.SignalValue != 130 {
		t.Fatalf("skipped ticks must not write, got %d", station.SignalValue)
	}
}

func TestTickContinuesAfterStationFailure(t *testing.T) {
	repo := &flakyRepo{
		StationRepository: memory.NewStationRepository(
			stations.Station{StationID: 1, StationName: "North", SignalValue: 120},
			stations.Station{StationID: 2, StationName: "South", SignalValue: 120},
			stations.Station{StationID: 3, StationName: "East", SignalValue: 120},
		),
		failID: 1,
		loseID: 2,
	}
	broadcaster := &countingBroadcaster{}
	scheduler := newScheduler(t, repo, activeGate(), time.Second, WithBroadcaster(broadcaster))

	result, err := scheduler.Tick(context.Background())
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if result.Updated != 1 || result.Failed != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	east, _ := repo.Get(context.Background(), 3)
	if east.SignalValue != 119 || broadcaster.calls.Load() != 1 {
		t.Fatalf("expected east decayed and one broadcast, got %d / %d", east.SignalValue, broadcaster.calls.Load())
	}
}

func TestTickPropagatesGateError(t *testing.T) {
	gate := &stubGate{err: gameerr.Database(errors.New("timeout"))}
	scheduler := newScheduler(t, memory.NewStationRepository(), gate, time.Second)
	if _, err := scheduler.Tick(context.Background()); !errors.Is(err, gameerr.ErrDatabase) {
		t.Fatalf("expected database error, got %v", err)
	}
}

func TestStartReconfigureStop(t *testing.T) {
	repo := memory.NewStationRepository(stations.Station{StationID: 1, StationName: "North", SignalValue: 150})
	broadcaster := &countingBroadcaster{}
	scheduler := newScheduler(t, repo, activeGate(), 5*time.Millisecond, WithBroadcaster(broadcaster))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	scheduler.Start(ctx)
	if !scheduler.Running() {
		t.Fatalf("expected running loop")
	}

	deadline := time.Now().Add(2 * time.Second)
	for broadcaster.calls.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if broadcaster.calls.Load() < 3 {
		t.Fatalf("expected ticks to run")
	}

	if err := scheduler.Reconfigure(0); err != nil {
		t.Fatalf("reconfigure: %v", err)
	}
	if scheduler.Running() {
		t.Fatalf("zero interval must disarm the loop")
	}
	before := broadcaster.calls.Load()
	time.Sleep(30 * time.Millisecond)
	if broadcaster.calls.Load() != before {
		t.Fatalf("disarmed loop kept ticking")
	}

	if err := scheduler.Reconfigure(time.Hour); err != nil {
		t.Fatalf("reconfigure: %v", err)
	}
	if !scheduler.Running() || scheduler.Interval() != time.Hour {
		t.Fatalf("expected re-armed loop with new interval")
	}
	if err := scheduler.Reconfigure(-time.Second); !errors.Is(err, gameerr.ErrInvalidData) {
		t.Fatalf("expected invalid data, got %v", err)
	}

	scheduler.Stop()
	if scheduler.Running() {
		t.Fatalf("expected stopped loop")
	}
	if err := scheduler.Reconfigure(time.Millisecond); err != nil {
		t.Fatalf("reconfigure after stop: %v", err)
	}
	if scheduler.Running() {
		t.Fatalf("reconfigure after stop must not re-arm")
	}
}

func TestReconfigureConcurrentlyKeepsSingleLoop(t *testing.T) {
	repo := memory.NewStationRepository()
	scheduler := newScheduler(t, repo, activeGate(), time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	scheduler.Start(ctx)

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(ms int) {
			defer wg.Done()
			_ = scheduler.Reconfigure(time.Duration(ms) * time.Millisecond)
		}(i)
	}
	wg.Wait()

	scheduler.mu.Lock()
	running := scheduler.done != nil
	scheduler.mu.Unlock()
	if !running {
		t.Fatalf("expected one armed loop")
	}
	scheduler.Stop()
}

func TestNewSchedulerValidates(t *testing.T) {
	if _, err := NewScheduler(nil, &stubGate{}, 100, time.Second); err == nil {
		t.Fatalf("expected nil repo error")
	}
	if _, err := NewScheduler(memory.NewStationRepository(), nil, 100, time.Second); err == nil {
		t.Fatalf("expected nil gate error")
	}
	if _, err := NewScheduler(memory.NewStationRepository(), &stubGate{}, 100, -time.Second); err == nil {
		t.Fatalf("expected negative interval error")
	}
}
