package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lantern-backend/internal/audit"
	"lantern-backend/internal/auth"
	"lantern-backend/internal/broadcast"
	"lantern-backend/internal/config"
	decayapp "lantern-backend/internal/decay/application"
	decayhttp "lantern-backend/internal/decay/interfaces/http"
	hackapp "lantern-backend/internal/hacking/application"
	hacking "lantern-backend/internal/hacking/domain"
	hackmemory "lantern-backend/internal/hacking/infrastructure/memory"
	hackrepo "lantern-backend/internal/hacking/infrastructure/postgres"
	hackhttp "lantern-backend/internal/hacking/interfaces/http"
	"lantern-backend/internal/observability/metrics"
	roundapp "lantern-backend/internal/rounds/application"
	rounds "lantern-backend/internal/rounds/domain"
	roundmemory "lantern-backend/internal/rounds/infrastructure/memory"
	roundrepo "lantern-backend/internal/rounds/infrastructure/postgres"
	roundhttp "lantern-backend/internal/rounds/interfaces/http"
	"lantern-backend/internal/seed"
	stationapp "lantern-backend/internal/stations/application"
	stations "lantern-backend/internal/stations/domain"
	stationmemory "lantern-backend/internal/stations/infrastructure/memory"
	stationrepo "lantern-backend/internal/stations/infrastructure/postgres"
	stationhttp "lantern-backend/internal/stations/interfaces/http"
	"lantern-backend/internal/wrecking"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

type poolStore interface {
	hacking.PoolRepository
	seed.PoolSeeder
}

type stores struct {
	stations stations.Repository
	sessions hacking.SessionRepository
	pools    poolStore
	rounds   rounds.RoundRepository
	teams    rounds.TeamRepository
	audit    audit.Logger
}

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)
	if err := config.LoadDotenv(); err != nil {
		logger.Fatalf("dotenv error: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db *sql.DB
	var st stores
	switch cfg.Store {
	case config.StorePostgres:
		db, err = sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("db open error: %v", err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			logger.Fatalf("db ping error: %v", err)
		}
		st = stores{
			stations: stationrepo.NewStationRepository(db),
			sessions: hackrepo.NewSessionRepository(db),
			pools:    hackrepo.NewPoolRepository(db),
			rounds:   roundrepo.NewRoundRepository(db),
			teams:    roundrepo.NewTeamRepository(db),
			audit:    audit.NewRepository(db),
		}
	default:
		st = stores{
			stations: stationmemory.NewStationRepository(),
			sessions: hackmemory.NewSessionRepository(),
			pools:    hackmemory.NewPoolRepository(nil, nil),
			rounds:   roundmemory.NewRoundRepository(),
			teams:    roundmemory.NewTeamRepository(),
			audit:    audit.NewLogLogger(logger),
		}
	}
	logger.Printf("store: %s", cfg.Store)

	metrics.Init(db, logger)

	broker := broadcast.NewBroker()
	var emitter broadcast.Emitter = broker
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer client.Close()
		relay, err := broadcast.NewRedisRelay(client, cfg.RedisChannel, broker, logger)
		if err != nil {
			logger.Fatalf("redis relay error: %v", err)
		}
		emitter = relay
		go func() {
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Printf("redis relay stopped: %v", err)
			}
		}()
	}

	var reporter wrecking.Reporter
	if cfg.WreckingBaseURL != "" {
		client, err := wrecking.NewClient(cfg.WreckingBaseURL, cfg.WreckingKey,
			wrecking.WithHTTPClient(&http.Client{Timeout: cfg.WreckingTimeout}))
		if err != nil {
			logger.Fatalf("wrecking client error: %v", err)
		}
		reporter = client
	}
	mirror := wrecking.NewMirror(reporter, logger, wrecking.WithRequestTimeout(cfg.WreckingTimeout))
	mirror.Start()
	defer mirror.Close()

	stationService, err := stationapp.NewService(st.stations, cfg.Game.Signal,
		stationapp.WithEmitter(emitter),
		stationapp.WithReportQueue(mirror),
		stationapp.WithLogger(logger),
	)
	if err != nil {
		logger.Fatalf("station service error: %v", err)
	}

	result, err := seed.Apply(ctx, cfg.Game.Seed, seed.Targets{
		Stations: stationService,
		Pools:    st.pools,
		Teams:    st.teams,
		Rounds:   st.rounds,
	}, logger)
	if err != nil {
		logger.Fatalf("seed error: %v", err)
	}
	logger.Printf("seed applied: stations=%d game_users=%d fakes=%d teams=%d rounds=%d",
		result.Stations, result.GameUsers, result.Fakes, result.Teams, result.Rounds)

	generator, err := hackapp.NewGenerator(st.pools, hackapp.WithDecoyCount(cfg.Game.DecoyCount))
	if err != nil {
		logger.Fatalf("puzzle generator error: %v", err)
	}
	hackService, err := hackapp.NewService(st.sessions, generator, stationService,
		hackapp.WithTries(cfg.Game.Tries),
		hackapp.WithLogger(logger),
	)
	if err != nil {
		logger.Fatalf("hack service error: %v", err)
	}

	roundService, err := roundapp.NewService(st.rounds, st.teams, stationService,
		roundapp.WithEmitter(emitter),
		roundapp.WithAuditLogger(st.audit),
		roundapp.WithLogger(logger),
	)
	if err != nil {
		logger.Fatalf("round service error: %v", err)
	}

	scheduler, err := decayapp.NewScheduler(st.stations, roundService, cfg.Game.Signal.Default, cfg.Game.DecayInterval(),
		decayapp.WithBroadcaster(stationService),
		decayapp.WithReportQueue(mirror),
		decayapp.WithLogger(logger),
	)
	if err != nil {
		logger.Fatalf("decay scheduler error: %v", err)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	authorizer, err := auth.NewAuthorizer([]byte(cfg.JWTSecret), auth.NewDefaultPolicy(nil))
	if err != nil {
		logger.Fatalf("authorizer error: %v", err)
	}
	guard := auth.NewMiddleware(authorizer)

	stationHandler, err := stationhttp.NewHandler(stationService)
	if err != nil {
		logger.Fatalf("station handler error: %v", err)
	}
	hackHandler, err := hackhttp.NewHandler(hackService, guard)
	if err != nil {
		logger.Fatalf("hack handler error: %v", err)
	}
	roundHandler, err := roundhttp.NewHandler(roundService, guard)
	if err != nil {
		logger.Fatalf("round handler error: %v", err)
	}
	decayHandler, err := decayhttp.NewHandler(scheduler, guard, st.audit)
	if err != nil {
		logger.Fatalf("decay handler error: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/api/v1/lantern/stations", stationHandler)
	mux.Handle("/api/v1/lantern/hack", hackHandler)
	mux.Handle("/api/v1/lantern/rounds", roundHandler)
	mux.Handle("/api/v1/lantern/rounds/", roundHandler)
	mux.Handle("/api/v1/lantern/teams", roundHandler)
	mux.Handle("/api/v1/lantern/teams/", roundHandler)
	mux.Handle("/api/v1/lantern/decay", decayHandler)
	mux.Handle("/api/v1/lantern/stream", broadcast.NewStreamHandler(broker))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				http.Error(w, "db unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(mux, logger)}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Printf("http listening on %s", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Printf("http server error: %v", err)
	}
	logger.Printf("shutdown complete")
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Flush keeps the event stream usable behind the access log.
func (w *statusWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
