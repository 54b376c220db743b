package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"lantern-backend/internal/auth"
	"lantern-backend/internal/config"
	hackrepo "lantern-backend/internal/hacking/infrastructure/postgres"
	roundrepo "lantern-backend/internal/rounds/infrastructure/postgres"
	"lantern-backend/internal/seed"
	stationapp "lantern-backend/internal/stations/application"
	stationrepo "lantern-backend/internal/stations/infrastructure/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	if err := config.LoadDotenv(); err != nil {
		log.Fatalf("dotenv: %v", err)
	}
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	var err error
	switch os.Args[1] {
	case "token":
		err = runToken(os.Args[2:])
	case "seed":
		err = runSeed(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: lanternctl token|seed [flags]")
}

func runToken(args []string) error {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	secret := fs.String("secret", envOrDefault("AUTH_JWT_SECRET", ""), "HS256 signing secret")
	user := fs.String("user", "", "user id placed in the sub claim")
	role := fs.String("role", string(auth.RolePlayer), "player, moderator or admin")
	ttl := fs.Duration("ttl", envOrDuration("TOKEN_TTL", 12*time.Hour), "token lifetime")
	_ = fs.Parse(args)

	if *secret == "" {
		return fmt.Errorf("secret is required")
	}
	if *user == "" {
		return fmt.Errorf("user is required")
	}
	normalized, ok := auth.NormalizeRole(*role)
	if !ok {
		return fmt.Errorf("unknown role %q", *role)
	}
	token, err := auth.IssueJWT([]byte(*secret), *user, normalized, *ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func runSeed(args []string) error {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	dsn := fs.String("pg-dsn", envOrDefault("PG_DSN", envOrDefault("DATABASE_URL", "")), "Postgres DSN")
	path := fs.String("config", envOrDefault("LANTERN_CONFIG", ""), "game YAML file holding the seed section")
	timeout := fs.Duration("timeout", 30*time.Second, "overall timeout")
	_ = fs.Parse(args)

	if *dsn == "" {
		return fmt.Errorf("PG_DSN or DATABASE_URL is required")
	}
	if *path == "" {
		return fmt.Errorf("config is required")
	}
	game, err := config.LoadGame(*path)
	if err != nil {
		return fmt.Errorf("load game: %w", err)
	}

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping db: %w", err)
	}

	logger := log.New(os.Stdout, "", log.LstdFlags)
	stationService, err := stationapp.NewService(stationrepo.NewStationRepository(db), game.Signal, stationapp.WithLogger(logger))
	if err != nil {
		return err
	}
	result, err := seed.Apply(ctx, game.Seed, seed.Targets{
		Stations: stationService,
		Pools:    hackrepo.NewPoolRepository(db),
		Teams:    roundrepo.NewTeamRepository(db),
		Rounds:   roundrepo.NewRoundRepository(db),
	}, logger)
	if err != nil {
		return err
	}
	logger.Printf("seeded stations=%d game_users=%d fakes=%d teams=%d rounds=%d",
		result.Stations, result.GameUsers, result.Fakes, result.Teams, result.Rounds)
	return nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envOrDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	if parsed, err := time.ParseDuration(value); err == nil {
		return parsed
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}
