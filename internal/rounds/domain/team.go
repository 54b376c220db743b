package rounds

import (
	"context"
	"errors"
	"strings"
)

// Team is a scoring group.
type Team struct {
	TeamName  string `json:"teamName" yaml:"team_name"`
	ShortName string `json:"shortName" yaml:"short_name"`
	IsActive  bool   `json:"isActive" yaml:"is_active"`
	Points    int    `json:"points" yaml:"points"`
}

// Validate checks team invariants.
func (t Team) Validate() error {
	if strings.TrimSpace(t.TeamName) == "" {
		return errors.New("team: empty name")
	}
	if strings.TrimSpace(t.ShortName) == "" {
		return errors.New("team: empty short name")
	}
	if t.Points < 0 {
		return errors.New("team: negative points")
	}
	return nil
}

// TeamPatch is a partial team update. ResetPoints wins over Points.
type TeamPatch struct {
	TeamName    *string `json:"teamName,omitempty"`
	IsActive    *bool   `json:"isActive,omitempty"`
	Points      *int    `json:"points,omitempty"`
	ResetPoints bool    `json:"resetPoints,omitempty"`
}

// Validate checks patch values.
func (p TeamPatch) Validate() error {
	if p.TeamName != nil && strings.TrimSpace(*p.TeamName) == "" {
		return errors.New("team patch: empty name")
	}
	if p.Points != nil && *p.Points < 0 {
		return errors.New("team patch: negative points")
	}
	return nil
}

// Empty reports whether the patch changes nothing.
func (p TeamPatch) Empty() bool {
	return p.TeamName == nil && p.IsActive == nil && p.Points == nil && !p.ResetPoints
}

// Apply returns team with the patch applied.
func (p TeamPatch) Apply(team Team) Team {
	if p.TeamName != nil {
		team.TeamName = strings.TrimSpace(*p.TeamName)
	}
	if p.IsActive != nil {
		team.IsActive = *p.IsActive
	}
	switch {
	case p.ResetPoints:
		team.Points = 0
	case p.Points != nil:
		team.Points = *p.Points
	}
	return team
}

// TeamRepository manages teams keyed by short name.
// Update applies the patch atomically and returns the stored team.
type TeamRepository interface {
	Create(ctx context.Context, team *Team) error
	Get(ctx context.Context, shortName string) (*Team, error)
	List(ctx context.Context) ([]Team, error)
	Update(ctx context.Context, shortName string, patch TeamPatch) (*Team, error)
}
