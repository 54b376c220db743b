package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "lantern_"

	resultSuccess = "success"
	resultError   = "error"
	resultSkipped = "skipped"
)

var (
	registerOnce sync.Once

	hackRequests  *prometheus.CounterVec
	hackGuesses   *prometheus.CounterVec
	hackLatency   *prometheus.HistogramVec
	decayTicks    *prometheus.CounterVec
	decayLatency  prometheus.Histogram
	signalUpdates *prometheus.CounterVec
	casConflicts  *prometheus.CounterVec
	reportResults *prometheus.CounterVec
	broadcasts    *prometheus.CounterVec
	roundEvents   *prometheus.CounterVec
)

// Init registers lantern metrics and DB-backed gauges. It is safe to call more than once.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		hackRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "hack_requests_total",
				Help: "Total hack puzzle requests by outcome",
			},
			[]string{"outcome"},
		)
		hackGuesses = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "hack_guesses_total",
				Help: "Total hack guesses by outcome",
			},
			[]string{"outcome"},
		)
		hackLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "hack_guess_latency_seconds",
				Help:    "Hack guess evaluation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		)
		decayTicks = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "decay_ticks_total",
				Help: "Total decay ticks by result",
			},
			[]string{"result"},
		)
		decayLatency = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "decay_tick_latency_seconds",
				Help:    "Decay tick latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
		)
		signalUpdates = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "signal_updates_total",
				Help: "Total station signal writes by source",
			},
			[]string{"source"},
		)
		casConflicts = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "signal_conflicts_total",
				Help: "Total lost compare-and-set signal writes by source",
			},
			[]string{"source"},
		)
		reportResults = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "wrecking_reports_total",
				Help: "Total wrecking report deliveries by result",
			},
			[]string{"result"},
		)
		broadcasts = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "broadcast_events_total",
				Help: "Total broadcast events by event name",
			},
			[]string{"event"},
		)
		roundEvents = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "round_events_total",
				Help: "Total round lifecycle events by type",
			},
			[]string{"event"},
		)

		prometheus.MustRegister(
			hackRequests,
			hackGuesses,
			hackLatency,
			decayTicks,
			decayLatency,
			signalUpdates,
			casConflicts,
			reportResults,
			broadcasts,
			roundEvents,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// IncHackRequest increments hack request counters.
func IncHackRequest(outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	if hackRequests != nil {
		hackRequests.WithLabelValues(outcome).Inc()
	}
}

// ObserveHackGuess records guess outcome and latency.
func ObserveHackGuess(outcome string, duration time.Duration) {
	if outcome == "" {
		outcome = "unknown"
	}
	if hackGuesses != nil {
		hackGuesses.WithLabelValues(outcome).Inc()
	}
	if hackLatency != nil {
		hackLatency.WithLabelValues(outcome).Observe(duration.Seconds())
	}
}

// ObserveDecayTick records tick result and latency.
func ObserveDecayTick(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if decayTicks != nil {
		decayTicks.WithLabelValues(result).Inc()
	}
	if decayLatency != nil && result != resultSkipped {
		decayLatency.Observe(duration.Seconds())
	}
}

// IncSignalUpdate increments signal write counters.
func IncSignalUpdate(source string) {
	if signalUpdates != nil {
		signalUpdates.WithLabelValues(source).Inc()
	}
}

// IncSignalConflict increments lost compare-and-set counters.
func IncSignalConflict(source string) {
	if casConflicts != nil {
		casConflicts.WithLabelValues(source).Inc()
	}
}

// IncReport increments wrecking report counters.
func IncReport(result string) {
	if result == "" {
		result = "unknown"
	}
	if reportResults != nil {
		reportResults.WithLabelValues(result).Inc()
	}
}

// IncBroadcast increments broadcast counters.
func IncBroadcast(event string) {
	if broadcasts != nil {
		broadcasts.WithLabelValues(event).Inc()
	}
}

// IncRoundEvent increments round lifecycle counters.
func IncRoundEvent(event string) {
	if roundEvents != nil {
		roundEvents.WithLabelValues(event).Inc()
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
	ResultSkipped = resultSkipped

	SourceDecay = "decay"
	SourceHack  = "hack"
	SourceRound = "round"

	ReportDelivered = "delivered"
	ReportFailed    = "failed"
	ReportDropped   = "dropped"
)
