package main

import (
	"encoding/json"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

type report struct {
	Station int    `json:"station"`
	Boost   int    `json:"boost"`
	Key     string `json:"key"`
}

type fakeWreckingServer struct {
	start    time.Time
	latency  time.Duration
	failRate float64
	key      string

	mu         sync.Mutex
	lastBoost  map[int]int
	byStation  map[int]int64
	rejected   int64
	totalCalls int64
}

func main() {
	addr := getenvDefault("FAKE_WRECKING_ADDR", ":18090")
	latencyMs := getenvIntDefault("FAKE_WRECKING_LATENCY_MS", 0)
	failRate := getenvFloatDefault("FAKE_WRECKING_FAIL_RATE", 0)

	srv := &fakeWreckingServer{
		start:     time.Now().UTC(),
		latency:   time.Duration(latencyMs) * time.Millisecond,
		failRate:  failRate,
		key:       os.Getenv("FAKE_WRECKING_KEY"),
		lastBoost: make(map[int]int),
		byStation: make(map[int]int64),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", srv.handleHealth)
	mux.HandleFunc("/metrics", srv.handleMetrics)
	mux.HandleFunc("/reports/set_boost", srv.handleSetBoost)

	log.Printf("fake wrecking server listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal(err)
	}
}

func (s *fakeWreckingServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *fakeWreckingServer) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stations := make(map[string]any, len(s.lastBoost))
	for id, boost := range s.lastBoost {
		stations[strconv.Itoa(id)] = map[string]any{
			"boost": boost,
			"calls": s.byStation[id],
		}
	}
	writeJSON(w, map[string]any{
		"started_at": s.start.Format(time.RFC3339),
		"total":      atomic.LoadInt64(&s.totalCalls),
		"rejected":   atomic.LoadInt64(&s.rejected),
		"stations":   stations,
	})
}

func (s *fakeWreckingServer) handleSetBoost(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	atomic.AddInt64(&s.totalCalls, 1)
	if s.latency > 0 {
		time.Sleep(s.latency)
	}

	var payload report
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if payload.Station <= 0 {
		http.Error(w, "station required", http.StatusBadRequest)
		return
	}
	if s.key != "" && payload.Key != s.key {
		atomic.AddInt64(&s.rejected, 1)
		http.Error(w, "invalid key", http.StatusUnauthorized)
		return
	}
	if s.failRate > 0 && rand.Float64() < s.failRate {
		http.Error(w, "fake wrecking failure", http.StatusBadGateway)
		return
	}

	s.mu.Lock()
	s.lastBoost[payload.Station] = payload.Boost
	s.byStation[payload.Station]++
	s.mu.Unlock()

	writeJSON(w, map[string]any{"station": payload.Station, "boost": payload.Boost})
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvFloatDefault(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
