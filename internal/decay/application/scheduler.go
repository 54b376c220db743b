package application

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"lantern-backend/internal/gameerr"
	"lantern-backend/internal/observability/metrics"
	"lantern-backend/internal/signal"
	stations "lantern-backend/internal/stations/domain"
)

// RoundGate reports whether decay should run.
type RoundGate interface {
	HasActiveRound(ctx context.Context) (bool, error)
}

// StationBroadcaster pushes the station list to clients.
type StationBroadcaster interface {
	BroadcastStations(ctx context.Context)
}

// ReportQueue mirrors signal values to the external reporting endpoint.
type ReportQueue interface {
	Enqueue(stationID, boost int)
}

// TickResult summarizes one decay step.
type TickResult struct {
	Skipped bool `json:"skipped"`
	Updated int  `json:"updated"`
	Failed  int  `json:"failed"`
}

// Scheduler nudges every station toward the default signal while a round is active.
// At most one loop runs at a time; Reconfigure replaces it.
type Scheduler struct {
	stations     stations.Repository
	rounds       RoundGate
	broadcaster  StationBroadcaster
	reports      ReportQueue
	defaultValue int
	logger       *log.Logger

	interval atomic.Int64

	mu     sync.Mutex
	parent context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// Option customizes the scheduler.
type Option func(*Scheduler)

// WithBroadcaster assigns the station broadcaster.
func WithBroadcaster(broadcaster StationBroadcaster) Option {
	return func(s *Scheduler) {
		if broadcaster != nil {
			s.broadcaster = broadcaster
		}
	}
}

// WithReportQueue assigns the wrecking mirror.
func WithReportQueue(reports ReportQueue) Option {
	return func(s *Scheduler) {
		if reports != nil {
			s.reports = reports
		}
	}
}

// WithLogger assigns a logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// NewScheduler constructs a decay scheduler. An interval of 0 disables decay.
func NewScheduler(repo stations.Repository, rounds RoundGate, defaultValue int, interval time.Duration, opts ...Option) (*Scheduler, error) {
	if repo == nil {
		return nil, errors.New("decay: nil station repo")
	}
	if rounds == nil {
		return nil, errors.New("decay: nil round gate")
	}
	if interval < 0 {
		return nil, errors.New("decay: negative interval")
	}
	s := &Scheduler{
		stations:     repo,
		rounds:       rounds,
		broadcaster:  nopBroadcaster{},
		reports:      nopReports{},
		defaultValue: defaultValue,
	}
	s.interval.Store(int64(interval))
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Interval returns the configured tick interval.
func (s *Scheduler) Interval() time.Duration {
	return time.Duration(s.interval.Load())
}

// Running reports whether a tick loop is armed.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done != nil
}

// Start arms the loop under ctx. Calling Start again replaces the running loop.
func (s *Scheduler) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.parent = ctx
	s.armLocked()
}

// Reconfigure swaps the interval, waiting for the old loop to exit before arming
// a new one. Zero disarms the loop until the next Reconfigure.
func (s *Scheduler) Reconfigure(interval time.Duration) error {
	if interval < 0 {
		return gameerr.InvalidData("decay interval must not be negative")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.interval.Store(int64(interval))
	if s.parent != nil {
		s.armLocked()
	}
	if s.logger != nil {
		s.logger.Printf("decay reconfigured: interval=%s", interval)
	}
	return nil
}

// Stop cancels the loop and waits for it to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.parent = nil
}

func (s *Scheduler) armLocked() {
	interval := s.Interval()
	if interval <= 0 || s.parent.Err() != nil {
		return
	}
	ctx, cancel := context.WithCancel(s.parent)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	go s.loop(ctx, interval, done)
}

func (s *Scheduler) stopLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil
}

func (s *Scheduler) loop(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Tick(ctx); err != nil && s.logger != nil && ctx.Err() == nil {
				s.logger.Printf("decay tick error: %v", err)
			}
		}
	}
}

// Tick runs one decay step. Per-station failures are counted and logged
// without aborting the batch; a lost compare-and-set is skipped.
func (s *Scheduler) Tick(ctx context.Context) (TickResult, error) {
	start := time.Now()
	result, err := s.tick(ctx)
	label := metrics.ResultSuccess
	switch {
	case err != nil:
		label = metrics.ResultError
	case result.Skipped:
		label = metrics.ResultSkipped
	}
	metrics.ObserveDecayTick(label, time.Since(start))
	return result, err
}

func (s *Scheduler) tick(ctx context.Context) (TickResult, error) {
	if s.Interval() == 0 {
		return TickResult{Skipped: true}, nil
	}
	active, err := s.rounds.HasActiveRound(ctx)
	if err != nil {
		return TickResult{}, err
	}
	if !active {
		return TickResult{Skipped: true}, nil
	}
	list, err := s.stations.List(ctx)
	if err != nil {
		return TickResult{}, gameerr.Database(err)
	}

	var result TickResult
	for _, station := range list {
		next := signal.DecayStep(station.SignalValue, s.defaultValue)
		if next == station.SignalValue {
			continue
		}
		ok, err := s.stations.CompareAndSetSignal(ctx, station.StationID, station.SignalValue, next)
		if err != nil {
			result.Failed++
			if s.logger != nil {
				s.logger.Printf("decay station error: station=%d err=%v", station.StationID, err)
			}
			continue
		}
		if !ok {
			metrics.IncSignalConflict(metrics.SourceDecay)
			continue
		}
		metrics.IncSignalUpdate(metrics.SourceDecay)
		s.reports.Enqueue(station.StationID, next)
		result.Updated++
	}
	if result.Updated > 0 {
		s.broadcaster.BroadcastStations(ctx)
	}
	return result, nil
}

type nopBroadcaster struct{}

func (nopBroadcaster) BroadcastStations(context.Context) {}

type nopReports struct{}

func (nopReports) Enqueue(int, int) {}
