package rounds

import (
	"context"
	"errors"
	"time"
)

// Round status values.
const (
	StatusPending = "pending"
	StatusActive  = "active"
	StatusEnded   = "ended"
)

// Round is a time-boxed window during which the decay loop runs.
type Round struct {
	RoundID   int64      `json:"roundId" yaml:"round_id"`
	StartTime time.Time  `json:"startTime" yaml:"start_time"`
	EndTime   time.Time  `json:"endTime" yaml:"end_time"`
	IsActive  bool       `json:"isActive" yaml:"-"`
	StartedAt *time.Time `json:"startedAt,omitempty" yaml:"-"`
	EndedAt   *time.Time `json:"endedAt,omitempty" yaml:"-"`
}

// Status derives the lifecycle state.
func (r Round) Status() string {
	switch {
	case r.IsActive:
		return StatusActive
	case r.EndedAt != nil:
		return StatusEnded
	default:
		return StatusPending
	}
}

// Validate checks round invariants.
func (r Round) Validate() error {
	if !r.StartTime.IsZero() && !r.EndTime.IsZero() && !r.EndTime.After(r.StartTime) {
		return errors.New("round: end time must be after start time")
	}
	return nil
}

// RoundRepository manages rounds.
//
// Activate flips a pending round to active only while no other round is
// active; it fails with ErrRoundConflict, ErrRoundEnded or ErrRoundNotFound.
// Deactivate ends the active round and returns it, or nil when none is active.
type RoundRepository interface {
	Create(ctx context.Context, round *Round) error
	Get(ctx context.Context, roundID int64) (*Round, error)
	List(ctx context.Context) ([]Round, error)
	Active(ctx context.Context) (*Round, error)
	Activate(ctx context.Context, roundID int64, at time.Time) (*Round, error)
	Deactivate(ctx context.Context, at time.Time) (*Round, error)
}
