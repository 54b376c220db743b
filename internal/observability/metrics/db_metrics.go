package metrics

import (
	"database/sql"
	"log"

	"github.com/prometheus/client_golang/prometheus"
)

func registerDBMetrics(db *sql.DB, logger *log.Logger) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "hack_sessions_live",
			Help: "Live hack sessions",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM lantern_hack_sessions WHERE tries_left > 0")
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "rounds_active",
			Help: "Rounds currently marked active",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM lantern_rounds WHERE is_active")
		},
	))
}

func queryCount(db *sql.DB, logger *log.Logger, query string) float64 {
	if db == nil {
		return 0
	}
	var count int64
	if err := db.QueryRow(query).Scan(&count); err != nil {
		if logger != nil {
			logger.Printf("metrics query failed: %v", err)
		}
		return 0
	}
	if count < 0 {
		return 0
	}
	return float64(count)
}
