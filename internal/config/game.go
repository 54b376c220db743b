package config

import (
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	hacking "lantern-backend/internal/hacking/domain"
	rounds "lantern-backend/internal/rounds/domain"
	"lantern-backend/internal/signal"
	stations "lantern-backend/internal/stations/domain"
)

// Game holds gameplay tuning and optional seed data.
type Game struct {
	Signal               signal.Settings `yaml:"signal"`
	Tries                int             `yaml:"tries"`
	DecoyCount           int             `yaml:"decoy_count"`
	DecayIntervalSeconds int             `yaml:"decay_interval_seconds"`
	Seed                 Seed            `yaml:"seed"`
}

// Seed is loaded into the stores at boot.
type Seed struct {
	Stations      []stations.Station `yaml:"stations"`
	GameUsers     []hacking.GameUser `yaml:"game_users"`
	FakePasswords []string           `yaml:"fake_passwords"`
	Teams         []rounds.Team      `yaml:"teams"`
	Rounds        []rounds.Round     `yaml:"rounds"`
}

// DefaultGame returns the stock tuning with no seed data.
func DefaultGame() Game {
	return Game{
		Signal:               signal.DefaultSettings(),
		Tries:                4,
		DecoyCount:           13,
		DecayIntervalSeconds: 60,
	}
}

// LoadGame reads path over the defaults. An empty path yields the defaults.
func LoadGame(path string) (Game, error) {
	game := DefaultGame()
	if path == "" {
		return game, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return game, err
	}
	if err := yaml.Unmarshal(data, &game); err != nil {
		return game, err
	}
	return game, game.Validate()
}

// Validate checks tuning values.
func (g Game) Validate() error {
	if err := g.Signal.Validate(); err != nil {
		return err
	}
	if g.Tries <= 0 {
		return errors.New("config: tries must be positive")
	}
	if g.DecoyCount < 0 {
		return errors.New("config: decoy_count must not be negative")
	}
	if g.DecayIntervalSeconds < 0 {
		return errors.New("config: decay_interval_seconds must not be negative")
	}
	return nil
}

// DecayInterval returns the decay tick interval.
func (g Game) DecayInterval() time.Duration {
	return time.Duration(g.DecayIntervalSeconds) * time.Second
}
