package wrecking

import (
	"context"
	"log"
	"sync"
	"time"

	"lantern-backend/internal/gameerr"
	"lantern-backend/internal/observability/metrics"
)

// Report is one queued signal mirror.
type Report struct {
	StationID int
	Boost     int
}

// Mirror delivers reports in the background. Enqueue never blocks; failures
// are logged and never retried.
type Mirror struct {
	reporter Reporter
	logger   *log.Logger
	timeout  time.Duration
	queue    chan Report

	mu      sync.Mutex
	closed  bool
	started bool
	done    chan struct{}
}

// MirrorOption configures the mirror.
type MirrorOption func(*Mirror)

// WithQueueSize overrides the pending report capacity.
func WithQueueSize(size int) MirrorOption {
	return func(m *Mirror) {
		if size > 0 {
			m.queue = make(chan Report, size)
		}
	}
}

// WithRequestTimeout bounds each delivery.
func WithRequestTimeout(timeout time.Duration) MirrorOption {
	return func(m *Mirror) {
		if timeout > 0 {
			m.timeout = timeout
		}
	}
}

// NewMirror constructs a mirror. A nil reporter yields a mirror that drops everything.
func NewMirror(reporter Reporter, logger *log.Logger, opts ...MirrorOption) *Mirror {
	m := &Mirror{
		reporter: reporter,
		logger:   logger,
		timeout:  5 * time.Second,
		queue:    make(chan Report, 256),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start launches the delivery worker.
func (m *Mirror) Start() {
	if m == nil || m.reporter == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started || m.closed {
		return
	}
	m.started = true
	go m.run()
}

// Enqueue schedules a report.
func (m *Mirror) Enqueue(stationID, boost int) {
	if m == nil || m.reporter == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	select {
	case m.queue <- Report{StationID: stationID, Boost: boost}:
	default:
		metrics.IncReport(metrics.ReportDropped)
		if m.logger != nil {
			m.logger.Printf("wrecking report dropped: station=%d boost=%d", stationID, boost)
		}
	}
}

// Close drains pending reports and stops the worker.
func (m *Mirror) Close() {
	if m == nil {
		return
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	started := m.started
	close(m.queue)
	m.mu.Unlock()
	if started {
		<-m.done
	}
}

func (m *Mirror) run() {
	defer close(m.done)
	for report := range m.queue {
		m.deliver(report)
	}
}

func (m *Mirror) deliver(report Report) {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()
	if err := m.reporter.ReportBoost(ctx, report.StationID, report.Boost); err != nil {
		metrics.IncReport(metrics.ReportFailed)
		if m.logger != nil {
			m.logger.Printf("wrecking report error: station=%d boost=%d err=%v", report.StationID, report.Boost, gameerr.External(err))
		}
		return
	}
	metrics.IncReport(metrics.ReportDelivered)
}
