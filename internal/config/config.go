// Package config loads process configuration from the environment and the game file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config is the process configuration.
type Config struct {
	DatabaseURL     string
	HTTPAddr        string
	JWTSecret       string
	Store           string
	RedisAddr       string
	RedisPassword   string
	RedisChannel    string
	WreckingBaseURL string
	WreckingKey     string
	WreckingTimeout time.Duration
	GamePath        string
	Game            Game
}

// LoadDotenv loads .env style files into the environment. Missing files are ignored.
func LoadDotenv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("config: load %s: %w", path, err)
		}
	}
	return nil
}

// Load reads the environment and the optional LANTERN_CONFIG game file.
func Load() (Config, error) {
	cfg := Config{
		DatabaseURL:     getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:        getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:       getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		Store:           strings.ToLower(getenvDefault("STORE", "")),
		RedisAddr:       getenvDefault("REDIS_ADDR", ""),
		RedisPassword:   getenvDefault("REDIS_PASSWORD", ""),
		RedisChannel:    getenvDefault("REDIS_CHANNEL", "lantern:broadcast"),
		WreckingBaseURL: getenvDefault("WRECKING_BASE_URL", ""),
		WreckingKey:     getenvDefault("WRECKING_KEY", ""),
		WreckingTimeout: getenvDuration("WRECKING_TIMEOUT", 5*time.Second),
		GamePath:        getenvDefault("LANTERN_CONFIG", ""),
	}
	if cfg.Store == "" {
		cfg.Store = StoreMemory
		if cfg.DatabaseURL != "" {
			cfg.Store = StorePostgres
		}
	}

	game, err := LoadGame(cfg.GamePath)
	if err != nil {
		return cfg, err
	}
	if seconds := getenvIntDefault("DECAY_INTERVAL_SECONDS", -1); seconds >= 0 {
		game.DecayIntervalSeconds = seconds
	}
	cfg.Game = game

	return cfg, cfg.Validate()
}

// Validate checks required settings.
func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL or PG_DSN is required for the postgres store")
		}
	default:
		return fmt.Errorf("config: unknown STORE %q", c.Store)
	}
	if c.JWTSecret == "" {
		return errors.New("config: AUTH_JWT_SECRET is required")
	}
	return c.Game.Validate()
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

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
