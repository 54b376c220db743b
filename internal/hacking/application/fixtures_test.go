package application

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"lantern-backend/internal/gameerr"
	hacking "lantern-backend/internal/hacking/domain"
	"lantern-backend/internal/hacking/infrastructure/memory"
	"lantern-backend/internal/signal"
	stationapp "lantern-backend/internal/stations/application"
	stations "lantern-backend/internal/stations/domain"
	stationmemory "lantern-backend/internal/stations/infrastructure/memory"
)

// fixedRandom never reorders and always picks index 0.
type fixedRandom struct{}

func (fixedRandom) Intn(int) int                { return 0 }
func (fixedRandom) Shuffle(int, func(i, j int)) {}

func gameUsers() []hacking.GameUser {
	return []hacking.GameUser{
		{UserName: "ada", StationID: 1, Passwords: []hacking.GamePassword{{Value: "lantern", Type: "pet"}}},
		{UserName: "bram", StationID: 1, Passwords: []hacking.GamePassword{{Value: "harbor", Type: "city"}}},
		{UserName: "cleo", StationID: 1, Passwords: []hacking.GamePassword{{Value: "kestrel", Type: "bird"}}},
		{UserName: "dane", StationID: 2, Passwords: []hacking.GamePassword{{Value: "quartz", Type: "stone"}}},
		{UserName: "ezra", StationID: 2, Passwords: []hacking.GamePassword{{Value: "saffron", Type: "spice"}}},
		{UserName: "solo", StationID: 3, Passwords: []hacking.GamePassword{{Value: "single", Type: "word"}}},
	}
}

func fakePasswords(n int) []string {
	list := make([]string, 0, n)
	for i := 0; i < n; i++ {
		list = append(list, fmt.Sprintf("decoy%02d", i))
	}
	return list
}

type harness struct {
	stations *stationmemory.StationRepository
	sessions *memory.SessionRepository
	gateway  *stationapp.Service
	service  *Service
}

func newHarness(fakes []string, stationList ...stations.Station) (*harness, error) {
	if len(stationList) == 0 {
		stationList = []stations.Station{
			{StationID: 1, StationName: "North", SignalValue: 100, IsActive: true},
			{StationID: 2, StationName: "South", SignalValue: 100, IsActive: true},
			{StationID: 3, StationName: "Lonely", SignalValue: 100, IsActive: true},
			{StationID: 4, StationName: "Dark", SignalValue: 100, IsActive: false},
		}
	}
	stationRepo := stationmemory.NewStationRepository(stationList...)
	gateway, err := stationapp.NewService(stationRepo, signal.DefaultSettings())
	if err != nil {
		return nil, err
	}
	generator, err := NewGenerator(memory.NewPoolRepository(gameUsers(), fakes), WithRandom(fixedRandom{}))
	if err != nil {
		return nil, err
	}
	sessions := memory.NewSessionRepository()
	service, err := NewService(sessions, generator, gateway)
	if err != nil {
		return nil, err
	}
	return &harness{stations: stationRepo, sessions: sessions, gateway: gateway, service: service}, nil
}

type failingPools struct{}

func (failingPools) ListGameUsers(context.Context, int) ([]hacking.GameUser, error) {
	return nil, errors.New("connection refused")
}

func (failingPools) ListFakePasswords(context.Context) ([]string, error) {
	return nil, errors.New("connection refused")
}

// countingGateway records boosts applied through it.
type countingGateway struct {
	mu     sync.Mutex
	inner  StationGateway
	boosts int
}

func (g *countingGateway) GetStation(ctx context.Context, stationID int) (*stations.Station, error) {
	return g.inner.GetStation(ctx, stationID)
}

func (g *countingGateway) ApplyBoost(ctx context.Context, stationID int, boosting bool) (*stationapp.BoostResult, error) {
	g.mu.Lock()
	g.boosts++
	g.mu.Unlock()
	return g.inner.ApplyBoost(ctx, stationID, boosting)
}

func (g *countingGateway) Boosts() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.boosts
}

// swappingSessions replaces the owner's session right after the first Get,
// as a concurrent RequestHack for another station would.
type swappingSessions struct {
	*memory.SessionRepository
	once        sync.Once
	replacement hacking.HackSession
}

func (r *swappingSessions) Get(ctx context.Context, owner string) (*hacking.HackSession, error) {
	session, err := r.SessionRepository.Get(ctx, owner)
	r.once.Do(func() {
		replacement := r.replacement
		_ = r.SessionRepository.Upsert(ctx, &replacement)
	})
	return session, err
}

// conflictGateway loses every boost.
type conflictGateway struct {
	inner StationGateway
}

func (g conflictGateway) GetStation(ctx context.Context, stationID int) (*stations.Station, error) {
	return g.inner.GetStation(ctx, stationID)
}

func (conflictGateway) ApplyBoost(context.Context, int, bool) (*stationapp.BoostResult, error) {
	return nil, gameerr.Conflict("signal changed concurrently")
}
