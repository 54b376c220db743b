package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	rounds "lantern-backend/internal/rounds/domain"
)

// TeamRepository is an in-memory team store.
type TeamRepository struct {
	mu   sync.RWMutex
	data map[string]rounds.Team
}

// NewTeamRepository constructs a repository.
func NewTeamRepository() *TeamRepository {
	return &TeamRepository{data: make(map[string]rounds.Team)}
}

// Create stores a new team.
func (r *TeamRepository) Create(ctx context.Context, team *rounds.Team) error {
	_ = ctx
	if team == nil {
		return errors.New("team repo: nil team")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.data[team.ShortName]; exists {
		return rounds.ErrTeamExists
	}
	r.data[team.ShortName] = *team
	return nil
}

// Get loads a team.
func (r *TeamRepository) Get(ctx context.Context, shortName string) (*rounds.Team, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	team, ok := r.data[shortName]
	if !ok {
		return nil, nil
	}
	return &team, nil
}

// List returns teams ordered by points, then short name.
func (r *TeamRepository) List(ctx context.Context) ([]rounds.Team, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]rounds.Team, 0, len(r.data))
	for _, team := range r.data {
		list = append(list, team)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Points != list[j].Points {
			return list[i].Points > list[j].Points
		}
		return list[i].ShortName < list[j].ShortName
	})
	return list, nil
}

// Update applies patch to the stored team.
func (r *TeamRepository) Update(ctx context.Context, shortName string, patch rounds.TeamPatch) (*rounds.Team, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	team, ok := r.data[shortName]
	if !ok {
		return nil, rounds.ErrTeamNotFound
	}
	team = patch.Apply(team)
	r.data[shortName] = team
	return &team, nil
}
