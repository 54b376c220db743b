package application

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"lantern-backend/internal/audit"
	"lantern-backend/internal/auth"
	"lantern-backend/internal/broadcast"
	"lantern-backend/internal/gameerr"
	"lantern-backend/internal/observability/metrics"
	rounds "lantern-backend/internal/rounds/domain"
)

// BoardResetter re-levels every station when a round starts.
type BoardResetter interface {
	ResetSignals(ctx context.Context) error
}

// RoundInput creates a round.
type RoundInput struct {
	RoundID   int64     `json:"roundId"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

// Service coordinates rounds and teams.
type Service struct {
	rounds  rounds.RoundRepository
	teams   rounds.TeamRepository
	board   BoardResetter
	emitter broadcast.Emitter
	audit   audit.Logger
	logger  *log.Logger
	now     func() time.Time
}

// Option customizes the service.
type Option func(*Service)

// WithEmitter assigns the broadcast emitter.
func WithEmitter(emitter broadcast.Emitter) Option {
	return func(s *Service) {
		if emitter != nil {
			s.emitter = emitter
		}
	}
}

// WithAuditLogger assigns the audit logger.
func WithAuditLogger(logger audit.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.audit = logger
		}
	}
}

// WithLogger assigns a logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService constructs a round/team coordinator.
func NewService(roundRepo rounds.RoundRepository, teamRepo rounds.TeamRepository, board BoardResetter, opts ...Option) (*Service, error) {
	if roundRepo == nil {
		return nil, errors.New("rounds: nil round repo")
	}
	if teamRepo == nil {
		return nil, errors.New("rounds: nil team repo")
	}
	if board == nil {
		return nil, errors.New("rounds: nil board resetter")
	}
	s := &Service{
		rounds:  roundRepo,
		teams:   teamRepo,
		board:   board,
		emitter: broadcast.Nop{},
		audit:   audit.Nop{},
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CreateRound stores a pending round.
func (s *Service) CreateRound(ctx context.Context, input RoundInput) (*rounds.Round, error) {
	if input.RoundID < 0 {
		return nil, gameerr.InvalidData("round id must be positive")
	}
	round := &rounds.Round{RoundID: input.RoundID, StartTime: input.StartTime.UTC(), EndTime: input.EndTime.UTC()}
	if err := round.Validate(); err != nil {
		return nil, gameerr.InvalidData(err.Error())
	}
	if err := s.rounds.Create(ctx, round); err != nil {
		return nil, gameerr.Database(err)
	}
	metrics.IncRoundEvent("create")
	s.record(ctx, audit.ActionRoundCreate, "round", strconv.FormatInt(round.RoundID, 10), round)
	return round, nil
}

// StartRound activates a pending round and re-levels the board.
func (s *Service) StartRound(ctx context.Context, roundID int64) (*rounds.Round, error) {
	if roundID <= 0 {
		return nil, gameerr.InvalidData("round id required")
	}
	round, err := s.rounds.Activate(ctx, roundID, s.now())
	if err != nil {
		if s.logger != nil {
			s.logger.Printf("round start rejected: round=%d err=%v", roundID, err)
		}
		return nil, gameerr.Database(err)
	}
	// the round is already live; a failed reset leaves the board as it was
	if err := s.board.ResetSignals(ctx); err != nil && s.logger != nil {
		s.logger.Printf("round start reset error: round=%d err=%v", roundID, err)
	}
	metrics.IncRoundEvent("start")
	s.emitter.Emit(ctx, broadcast.EventRound, round)
	s.record(ctx, audit.ActionRoundStart, "round", strconv.FormatInt(round.RoundID, 10), round)
	if s.logger != nil {
		s.logger.Printf("round started: round=%d", round.RoundID)
	}
	return round, nil
}

// EndRound ends the active round.
func (s *Service) EndRound(ctx context.Context) (*rounds.Round, error) {
	round, err := s.rounds.Deactivate(ctx, s.now())
	if err != nil {
		return nil, gameerr.Database(err)
	}
	if round == nil {
		return nil, gameerr.DoesNotExist("active round")
	}
	metrics.IncRoundEvent("end")
	s.emitter.Emit(ctx, broadcast.EventRound, round)
	s.record(ctx, audit.ActionRoundEnd, "round", strconv.FormatInt(round.RoundID, 10), round)
	if s.logger != nil {
		s.logger.Printf("round ended: round=%d", round.RoundID)
	}
	return round, nil
}

// ActiveRound returns the active round or DoesNotExist.
func (s *Service) ActiveRound(ctx context.Context) (*rounds.Round, error) {
	round, err := s.rounds.Active(ctx)
	if err != nil {
		return nil, gameerr.Database(err)
	}
	if round == nil {
		return nil, gameerr.DoesNotExist("active round")
	}
	return round, nil
}

// HasActiveRound reports whether a round is running.
func (s *Service) HasActiveRound(ctx context.Context) (bool, error) {
	round, err := s.rounds.Active(ctx)
	if err != nil {
		return false, gameerr.Database(err)
	}
	return round != nil, nil
}

// GetRound loads one round.
func (s *Service) GetRound(ctx context.Context, roundID int64) (*rounds.Round, error) {
	round, err := s.rounds.Get(ctx, roundID)
	if err != nil {
		return nil, gameerr.Database(err)
	}
	if round == nil {
		return nil, rounds.ErrRoundNotFound
	}
	return round, nil
}

// ListRounds returns every round.
func (s *Service) ListRounds(ctx context.Context) ([]rounds.Round, error) {
	list, err := s.rounds.List(ctx)
	if err != nil {
		return nil, gameerr.Database(err)
	}
	if list == nil {
		list = []rounds.Round{}
	}
	return list, nil
}

// CreateTeam stores a new team.
func (s *Service) CreateTeam(ctx context.Context, team rounds.Team) (*rounds.Team, error) {
	team.TeamName = strings.TrimSpace(team.TeamName)
	team.ShortName = strings.TrimSpace(team.ShortName)
	if err := team.Validate(); err != nil {
		return nil, gameerr.InvalidData(err.Error())
	}
	if err := s.teams.Create(ctx, &team); err != nil {
		return nil, gameerr.Database(err)
	}
	s.record(ctx, audit.ActionTeamCreate, "team", team.ShortName, team)
	s.BroadcastTeams(ctx)
	return &team, nil
}

// UpdateTeam applies a partial update.
func (s *Service) UpdateTeam(ctx context.Context, shortName string, patch rounds.TeamPatch) (*rounds.Team, error) {
	shortName = strings.TrimSpace(shortName)
	if shortName == "" {
		return nil, gameerr.InvalidData("short name required")
	}
	if err := patch.Validate(); err != nil {
		return nil, gameerr.InvalidData(err.Error())
	}
	if patch.Empty() {
		return nil, gameerr.InvalidData("empty team update")
	}
	if patch.ResetPoints {
		patch.Points = nil
	}
	team, err := s.teams.Update(ctx, shortName, patch)
	if err != nil {
		return nil, gameerr.Database(err)
	}
	s.record(ctx, audit.ActionTeamUpdate, "team", team.ShortName, patch)
	s.BroadcastTeams(ctx)
	return team, nil
}

// ListTeams returns teams ordered by standing.
func (s *Service) ListTeams(ctx context.Context) ([]rounds.Team, error) {
	list, err := s.teams.List(ctx)
	if err != nil {
		return nil, gameerr.Database(err)
	}
	if list == nil {
		list = []rounds.Team{}
	}
	return list, nil
}

// BroadcastTeams pushes the team list to clients.
func (s *Service) BroadcastTeams(ctx context.Context) {
	list, err := s.ListTeams(ctx)
	if err != nil {
		if s.logger != nil {
			s.logger.Printf("teams broadcast error: %v", err)
		}
		return
	}
	s.emitter.Emit(ctx, broadcast.EventTeams, list)
}

func (s *Service) record(ctx context.Context, action, resourceType, resourceID string, metadata any) {
	identity, _ := auth.IdentityFromContext(ctx)
	err := s.audit.Log(ctx, audit.Entry{
		Actor:        identity.UserID,
		Role:         string(identity.Role),
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Metadata:     audit.Metadata(metadata),
	})
	if err != nil && s.logger != nil {
		s.logger.Printf("audit write failed: action=%s err=%v", action, err)
	}
}
