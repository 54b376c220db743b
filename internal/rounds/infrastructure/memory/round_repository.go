package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	rounds "lantern-backend/internal/rounds/domain"
)

// RoundRepository is an in-memory round store. The active round is tracked
// by a single pointer so two rounds can never be active together.
type RoundRepository struct {
	mu     sync.Mutex
	data   map[int64]rounds.Round
	active int64
	nextID int64
}

// NewRoundRepository constructs a repository.
func NewRoundRepository() *RoundRepository {
	return &RoundRepository{data: make(map[int64]rounds.Round)}
}

// Create stores a new round, assigning an id when missing.
func (r *RoundRepository) Create(ctx context.Context, round *rounds.Round) error {
	_ = ctx
	if round == nil {
		return errors.New("round repo: nil round")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if round.RoundID == 0 {
		r.nextID++
		for {
			if _, taken := r.data[r.nextID]; !taken {
				break
			}
			r.nextID++
		}
		round.RoundID = r.nextID
	}
	if _, exists := r.data[round.RoundID]; exists {
		return errors.New("round repo: duplicate round id")
	}
	round.IsActive = false
	round.StartedAt = nil
	round.EndedAt = nil
	r.data[round.RoundID] = *round
	return nil
}

// Get loads a round.
func (r *RoundRepository) Get(ctx context.Context, roundID int64) (*rounds.Round, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	round, ok := r.data[roundID]
	if !ok {
		return nil, nil
	}
	return &round, nil
}

// List returns rounds ordered by id.
func (r *RoundRepository) List(ctx context.Context) ([]rounds.Round, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	list := make([]rounds.Round, 0, len(r.data))
	for _, round := range r.data {
		list = append(list, round)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].RoundID < list[j].RoundID })
	return list, nil
}

// Active returns the active round or nil.
func (r *RoundRepository) Active(ctx context.Context) (*rounds.Round, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == 0 {
		return nil, nil
	}
	round := r.data[r.active]
	return &round, nil
}

// Activate starts a pending round.
func (r *RoundRepository) Activate(ctx context.Context, roundID int64, at time.Time) (*rounds.Round, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	round, ok := r.data[roundID]
	if !ok {
		return nil, rounds.ErrRoundNotFound
	}
	if round.EndedAt != nil {
		return nil, rounds.ErrRoundEnded
	}
	if r.active != 0 {
		return nil, rounds.ErrRoundConflict
	}
	started := at.UTC()
	round.IsActive = true
	round.StartedAt = &started
	r.data[roundID] = round
	r.active = roundID
	return &round, nil
}

// Deactivate ends the active round.
func (r *RoundRepository) Deactivate(ctx context.Context, at time.Time) (*rounds.Round, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == 0 {
		return nil, nil
	}
	round := r.data[r.active]
	ended := at.UTC()
	round.IsActive = false
	round.EndedAt = &ended
	r.data[round.RoundID] = round
	r.active = 0
	return &round, nil
}
