package application

import (
	"context"
	"errors"
	"log"
	"time"

	"lantern-backend/internal/gameerr"
	hacking "lantern-backend/internal/hacking/domain"
	"lantern-backend/internal/observability/metrics"
	stationapp "lantern-backend/internal/stations/application"
	stations "lantern-backend/internal/stations/domain"
)

const defaultTries = 4

// outcomeLost labels a correct guess whose boost could not be applied.
const outcomeLost = "lost"

// StationGateway reads stations and applies boosts.
type StationGateway interface {
	GetStation(ctx context.Context, stationID int) (*stations.Station, error)
	ApplyBoost(ctx context.Context, stationID int, boosting bool) (*stationapp.BoostResult, error)
}

// GuessRequest is one password guess.
type GuessRequest struct {
	Owner          string
	Password       string
	BoostingSignal bool
}

// MatchFeedback reports how many guess characters occur in the correct password.
type MatchFeedback struct {
	Amount int `json:"amount"`
}

// GuessOutcome is returned to the guessing player.
type GuessOutcome struct {
	Success     bool           `json:"success"`
	Boosted     string         `json:"boosted,omitempty"`
	SignalValue *int           `json:"signalValue,omitempty"`
	TriesLeft   *int           `json:"triesLeft,omitempty"`
	Matches     *MatchFeedback `json:"matches,omitempty"`
}

// Service runs hack session lifecycles.
type Service struct {
	sessions  hacking.SessionRepository
	generator *Generator
	stations  StationGateway
	tries     int
	logger    *log.Logger
}

// ServiceOption customizes the hack service.
type ServiceOption func(*Service)

// WithTries overrides the tries budget of new sessions.
func WithTries(tries int) ServiceOption {
	return func(s *Service) {
		if tries > 0 {
			s.tries = tries
		}
	}
}

// WithLogger assigns a logger.
func WithLogger(logger *log.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService constructs a hack service.
func NewService(sessions hacking.SessionRepository, generator *Generator, stationGateway StationGateway, opts ...ServiceOption) (*Service, error) {
	if sessions == nil {
		return nil, errors.New("hacking: nil session repo")
	}
	if generator == nil {
		return nil, errors.New("hacking: nil generator")
	}
	if stationGateway == nil {
		return nil, errors.New("hacking: nil station gateway")
	}
	s := &Service{
		sessions:  sessions,
		generator: generator,
		stations:  stationGateway,
		tries:     defaultTries,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// RequestHack returns owner's puzzle for stationID, generating a new one when
// the owner has no live session or is switching stations.
func (s *Service) RequestHack(ctx context.Context, owner string, stationID int) (*HackView, error) {
	if owner == "" {
		return nil, gameerr.InvalidData("owner required")
	}
	if stationID <= 0 {
		return nil, gameerr.InvalidData("station id required")
	}
	station, err := s.stations.GetStation(ctx, stationID)
	if err != nil {
		return nil, err
	}
	if !station.IsActive {
		metrics.IncHackRequest("inactive")
		return nil, gameerr.NotAllowed("station is not active")
	}

	existing, err := s.sessions.Get(ctx, owner)
	if err != nil {
		return nil, gameerr.Database(err)
	}
	if existing != nil && existing.StationID == stationID && existing.TriesLeft > 0 {
		metrics.IncHackRequest("existing")
		view := CreateHackView(*existing)
		return &view, nil
	}

	session, err := s.generator.CreateHackData(ctx, stationID, owner, s.tries)
	if err != nil {
		metrics.IncHackRequest(metrics.ResultError)
		return nil, err
	}
	if err := s.sessions.Upsert(ctx, session); err != nil {
		metrics.IncHackRequest(metrics.ResultError)
		return nil, gameerr.Database(err)
	}
	metrics.IncHackRequest("created")
	view := CreateHackView(*session)
	return &view, nil
}

// SubmitGuess evaluates a guess against owner's live session.
func (s *Service) SubmitGuess(ctx context.Context, req GuessRequest) (*GuessOutcome, error) {
	start := time.Now()
	outcome, label, err := s.submitGuess(ctx, req)
	if err != nil && label == "" {
		label = metrics.ResultError
	}
	metrics.ObserveHackGuess(label, time.Since(start))
	return outcome, err
}

func (s *Service) submitGuess(ctx context.Context, req GuessRequest) (*GuessOutcome, string, error) {
	if req.Owner == "" {
		return nil, "", gameerr.InvalidData("owner required")
	}
	guess := hacking.NormalizeGuess(req.Password)
	if guess == "" {
		return nil, "", gameerr.InvalidData("password required")
	}

	session, err := s.sessions.Get(ctx, req.Owner)
	if err != nil {
		return nil, "", gameerr.Database(err)
	}
	if session == nil {
		return nil, "", gameerr.DoesNotExist("hack session")
	}
	if session.TriesLeft <= 0 {
		if err := s.sessions.DeleteExhausted(ctx, req.Owner); err != nil {
			return nil, "", gameerr.Database(err)
		}
		return nil, "", gameerr.DoesNotExist("hack session")
	}
	correct, ok := session.Correct()
	if !ok {
		return nil, "", gameerr.Database(errors.New("hack session without correct entry"))
	}

	if guess == hacking.NormalizeGuess(correct.Password) {
		claimed, err := s.sessions.Claim(ctx, session.Key())
		if err != nil {
			return nil, "", gameerr.Database(err)
		}
		if !claimed {
			return nil, "", gameerr.DoesNotExist("hack session")
		}
		result, err := s.stations.ApplyBoost(ctx, session.StationID, req.BoostingSignal)
		if err != nil {
			// the session is already claimed, so this correct guess cannot be replayed
			if s.logger != nil {
				s.logger.Printf("hack boost lost: owner=%s station=%d boosting=%t err=%v", req.Owner, session.StationID, req.BoostingSignal, err)
			}
			return nil, outcomeLost, err
		}
		if s.logger != nil {
			s.logger.Printf("hack success: owner=%s station=%d %s %d->%d", req.Owner, session.StationID, result.Direction, result.Previous, result.SignalValue)
		}
		value := result.SignalValue
		return &GuessOutcome{Success: true, Boosted: result.Direction, SignalValue: &value}, "success", nil
	}

	remaining, ok, err := s.sessions.DecrementTries(ctx, session.Key())
	if err != nil {
		return nil, "", gameerr.Database(err)
	}
	if !ok {
		return nil, "", gameerr.DoesNotExist("hack session")
	}
	if remaining > 0 {
		return &GuessOutcome{
			Success:   false,
			TriesLeft: &remaining,
			Matches:   &MatchFeedback{Amount: hacking.Matches(guess, correct.Password)},
		}, "wrong", nil
	}

	if err := s.sessions.DeleteExhausted(ctx, req.Owner); err != nil {
		return nil, "", gameerr.Database(err)
	}
	zero := 0
	return &GuessOutcome{Success: false, TriesLeft: &zero}, "exhausted", nil
}
