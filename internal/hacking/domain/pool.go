package hacking

import (
	"context"
	"errors"
)

// GamePassword is one candidate password of a game user.
type GamePassword struct {
	Value string `json:"value" yaml:"value"`
	Type  string `json:"type" yaml:"type"`
}

// GameUser is a seeded identity tied to a station.
type GameUser struct {
	UserName  string         `json:"userName" yaml:"user_name"`
	StationID int            `json:"stationId" yaml:"station_id"`
	Passwords []GamePassword `json:"passwords" yaml:"passwords"`
}

// Validate checks game user invariants.
func (u GameUser) Validate() error {
	if u.UserName == "" {
		return errors.New("game user: empty user name")
	}
	if u.StationID <= 0 {
		return errors.New("game user: invalid station id")
	}
	for _, password := range u.Passwords {
		if password.Value != "" {
			return nil
		}
	}
	return errors.New("game user: no passwords")
}

// PoolRepository reads the read-only puzzle pools.
type PoolRepository interface {
	ListGameUsers(ctx context.Context, stationID int) ([]GameUser, error)
	ListFakePasswords(ctx context.Context) ([]string, error)
}
