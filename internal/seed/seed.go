// Package seed loads configured game data into the stores at boot.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log"

	"lantern-backend/internal/config"
	hacking "lantern-backend/internal/hacking/domain"
	rounds "lantern-backend/internal/rounds/domain"
	stations "lantern-backend/internal/stations/domain"
)

// StationSeeder stores stations with clamped signal values.
type StationSeeder interface {
	Seed(ctx context.Context, list []stations.Station) error
}

// PoolSeeder stores game users and decoy passwords.
type PoolSeeder interface {
	SaveGameUser(ctx context.Context, user hacking.GameUser) error
	SaveFakePasswords(ctx context.Context, passwords []string) error
}

// Targets are the stores a seed is applied to. Nil targets are skipped.
type Targets struct {
	Stations StationSeeder
	Pools    PoolSeeder
	Teams    rounds.TeamRepository
	Rounds   rounds.RoundRepository
}

// Result counts applied records.
type Result struct {
	Stations  int
	GameUsers int
	Fakes     int
	Teams     int
	Rounds    int
}

// Apply writes data into targets. Existing teams and rounds are left untouched.
func Apply(ctx context.Context, data config.Seed, targets Targets, logger *log.Logger) (Result, error) {
	var result Result

	if targets.Stations != nil && len(data.Stations) > 0 {
		if err := targets.Stations.Seed(ctx, data.Stations); err != nil {
			return result, fmt.Errorf("seed stations: %w", err)
		}
		result.Stations = len(data.Stations)
	}

	if targets.Pools != nil {
		for _, user := range data.GameUsers {
			if err := targets.Pools.SaveGameUser(ctx, user); err != nil {
				return result, fmt.Errorf("seed game user %s: %w", user.UserName, err)
			}
			result.GameUsers++
		}
		if len(data.FakePasswords) > 0 {
			if err := targets.Pools.SaveFakePasswords(ctx, data.FakePasswords); err != nil {
				return result, fmt.Errorf("seed fake passwords: %w", err)
			}
			result.Fakes = len(data.FakePasswords)
		}
	}

	if targets.Teams != nil {
		for i := range data.Teams {
			team := data.Teams[i]
			if err := team.Validate(); err != nil {
				return result, fmt.Errorf("seed team %s: %w", team.ShortName, err)
			}
			if err := targets.Teams.Create(ctx, &team); err != nil {
				if errors.Is(err, rounds.ErrTeamExists) {
					continue
				}
				return result, fmt.Errorf("seed team %s: %w", team.ShortName, err)
			}
			result.Teams++
		}
	}

	if targets.Rounds != nil {
		for i := range data.Rounds {
			round := data.Rounds[i]
			if round.RoundID > 0 {
				existing, err := targets.Rounds.Get(ctx, round.RoundID)
				if err != nil {
					return result, fmt.Errorf("seed round %d: %w", round.RoundID, err)
				}
				if existing != nil {
					continue
				}
			}
			if err := round.Validate(); err != nil {
				return result, fmt.Errorf("seed round %d: %w", round.RoundID, err)
			}
			if err := targets.Rounds.Create(ctx, &round); err != nil {
				return result, fmt.Errorf("seed round %d: %w", round.RoundID, err)
			}
			result.Rounds++
		}
	}

	if logger != nil {
		logger.Printf("seed applied: stations=%d game_users=%d fakes=%d teams=%d rounds=%d",
			result.Stations, result.GameUsers, result.Fakes, result.Teams, result.Rounds)
	}
	return result, nil
}
