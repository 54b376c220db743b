package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"lantern-backend/internal/audit"
	"lantern-backend/internal/auth"
	"lantern-backend/internal/broadcast"
	"lantern-backend/internal/gameerr"
	rounds "lantern-backend/internal/rounds/domain"
	"lantern-backend/internal/rounds/infrastructure/memory"
)

type recordingEmitter struct {
	mu     sync.Mutex
	events []string
}

func (e *recordingEmitter) Emit(_ context.Context, event string, _ any) {
	e.mu.Lock()
	e.events = append(e.events, event)
	e.mu.Unlock()
}

func (e *recordingEmitter) Count(event string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	count := 0
	for _, got := range e.events {
		if got == event {
			count++
		}
	}
	return count
}

type recordingAudit struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (a *recordingAudit) Log(_ context.Context, entry audit.Entry) error {
	a.mu.Lock()
	a.entries = append(a.entries, entry)
	a.mu.Unlock()
	return nil
}

type countingBoard struct {
	mu     sync.Mutex
	resets int
	err    error
}

func (b *countingBoard) ResetSignals(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resets++
	return b.err
}

type fixture struct {
	service *Service
	emitter *recordingEmitter
	audit   *recordingAudit
	board   *countingBoard
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{emitter: &recordingEmitter{}, audit: &recordingAudit{}, board: &countingBoard{}}
	service, err := NewService(memory.NewRoundRepository(), memory.NewTeamRepository(), f.board,
		WithEmitter(f.emitter), WithAuditLogger(f.audit))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	f.service = service
	return f
}

func adminContext() context.Context {
	return auth.WithIdentity(context.Background(), auth.Identity{UserID: "admin-1", Role: auth.RoleAdmin})
}

func TestRoundLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := adminContext()

	round, err := f.service.CreateRound(ctx, RoundInput{})
	if err != nil {
		t.Fatalf("create round: %v", err)
	}
	if round.RoundID != 1 || round.Status() != rounds.StatusPending {
		t.Fatalf("unexpected round: %+v", round)
	}
	if active, _ := f.service.HasActiveRound(ctx); active {
		t.Fatalf("no round should be active yet")
	}

	started, err := f.service.StartRound(ctx, round.RoundID)
	if err != nil {
		t.Fatalf("start round: %v", err)
	}
	if !started.IsActive || started.StartedAt == nil {
		t.Fatalf("unexpected started round: %+v", started)
	}
	if f.board.resets != 1 || f.emitter.Count(broadcast.EventRound) != 1 {
		t.Fatalf("expected board reset and round broadcast")
	}
	active, err := f.service.ActiveRound(ctx)
	if err != nil || active.RoundID != round.RoundID {
		t.Fatalf("unexpected active round: %+v err=%v", active, err)
	}

	ended, err := f.service.EndRound(ctx)
	if err != nil {
		t.Fatalf("end round: %v", err)
	}
	if ended.IsActive || ended.EndedAt == nil || ended.Status() != rounds.StatusEnded {
		t.Fatalf("unexpected ended round: %+v", ended)
	}
	if _, err := f.service.ActiveRound(ctx); !errors.Is(err, gameerr.ErrDoesNotExist) {
		t.Fatalf("expected no active round, got %v", err)
	}
	if _, err := f.service.StartRound(ctx, round.RoundID); !errors.Is(err, rounds.ErrRoundEnded) {
		t.Fatalf("expected ended round rejection, got %v", err)
	}

	actions := make([]string, 0, len(f.audit.entries))
	for _, entry := range f.audit.entries {
		if entry.Actor != "admin-1" || entry.Role != "admin" {
			t.Fatalf("unexpected audit actor: %+v", entry)
		}
		actions = append(actions, entry.Action)
	}
	want := []string{audit.ActionRoundCreate, audit.ActionRoundStart, audit.ActionRoundEnd}
	if len(actions) != len(want) {
		t.Fatalf("expected actions %v, got %v", want, actions)
	}
	for i := range want {
		if actions[i] != want[i] {
			t.Fatalf("expected actions %v, got %v", want, actions)
		}
	}
}

func TestStartRoundRejectsSecondActiveRound(t *testing.T) {
	f := newFixture(t)
	ctx := adminContext()
	first, _ := f.service.CreateRound(ctx, RoundInput{})
	second, _ := f.service.CreateRound(ctx, RoundInput{})
	if _, err := f.service.StartRound(ctx, first.RoundID); err != nil {
		t.Fatalf("start first: %v", err)
	}
	if _, err := f.service.StartRound(ctx, second.RoundID); !errors.Is(err, gameerr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if f.board.resets != 1 {
		t.Fatalf("rejected start must not reset the board")
	}
}

func TestConcurrentStartsActivateOneRound(t *testing.T) {
	f := newFixture(t)
	ctx := adminContext()
	ids := make([]int64, 0, 6)
	for i := 0; i < 6; i++ {
		round, err := f.service.CreateRound(ctx, RoundInput{})
		if err != nil {
			t.Fatalf("create round: %v", err)
		}
		ids = append(ids, round.RoundID)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		started int
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			if _, err := f.service.StartRound(ctx, id); err == nil {
				mu.Lock()
				started++
				mu.Unlock()
			}
		}(id)
	}
	wg.Wait()

	if started != 1 {
		t.Fatalf("expected exactly one started round, got %d", started)
	}
	list, _ := f.service.ListRounds(ctx)
	active := 0
	for _, round := range list {
		if round.IsActive {
			active++
		}
	}
	if active != 1 {
		t.Fatalf("expected one active round, got %d", active)
	}
}

func TestRoundErrors(t *testing.T) {
	f := newFixture(t)
	ctx := adminContext()
	if _, err := f.service.StartRound(ctx, 0); !errors.Is(err, gameerr.ErrInvalidData) {
		t.Fatalf("expected invalid data, got %v", err)
	}
	if _, err := f.service.StartRound(ctx, 99); !errors.Is(err, gameerr.ErrDoesNotExist) {
		t.Fatalf("expected does not exist, got %v", err)
	}
	if _, err := f.service.EndRound(ctx); !errors.Is(err, gameerr.ErrDoesNotExist) {
		t.Fatalf("expected does not exist, got %v", err)
	}
	if _, err := f.service.GetRound(ctx, 5); !errors.Is(err, gameerr.ErrDoesNotExist) {
		t.Fatalf("expected does not exist, got %v", err)
	}
	now := time.Now()
	if _, err := f.service.CreateRound(ctx, RoundInput{StartTime: now, EndTime: now.Add(-time.Minute)}); !errors.Is(err, gameerr.ErrInvalidData) {
		t.Fatalf("expected invalid data, got %v", err)
	}
}

func TestStartRoundSurvivesResetFailure(t *testing.T) {
	f := newFixture(t)
	f.board.err = gameerr.Database(errors.New("connection reset"))
	ctx := adminContext()
	round, _ := f.service.CreateRound(ctx, RoundInput{})

	started, err := f.service.StartRound(ctx, round.RoundID)
	if err != nil {
		t.Fatalf("start round: %v", err)
	}
	if !started.IsActive || f.board.resets != 1 {
		t.Fatalf("unexpected start: round=%+v resets=%d", started, f.board.resets)
	}
	if f.emitter.Count(broadcast.EventRound) != 1 {
		t.Fatalf("expected round broadcast despite reset failure")
	}
	if len(f.audit.entries) != 2 || f.audit.entries[1].Action != audit.ActionRoundStart {
		t.Fatalf("expected start audit entry, got %+v", f.audit.entries)
	}
	if active, _ := f.service.HasActiveRound(ctx); !active {
		t.Fatalf("round should stay active")
	}
}

func TestUpdateTeamResetPointsWins(t *testing.T) {
	f := newFixture(t)
	ctx := adminContext()
	if _, err := f.service.CreateTeam(ctx, rounds.Team{TeamName: "Owls", ShortName: "owl", IsActive: true, Points: 120}); err != nil {
		t.Fatalf("create team: %v", err)
	}
	points := 500
	team, err := f.service.UpdateTeam(ctx, "owl", rounds.TeamPatch{ResetPoints: true, Points: &points})
	if err != nil {
		t.Fatalf("update team: %v", err)
	}
	if team.Points != 0 || !team.IsActive {
		t.Fatalf("unexpected team: %+v", team)
	}
	if f.emitter.Count(broadcast.EventTeams) != 2 {
		t.Fatalf("expected team broadcasts on create and update")
	}
}

func TestUpdateTeamPartial(t *testing.T) {
	f := newFixture(t)
	ctx := adminContext()
	if _, err := f.service.CreateTeam(ctx, rounds.Team{TeamName: "Owls", ShortName: "owl", IsActive: true}); err != nil {
		t.Fatalf("create team: %v", err)
	}
	points := 75
	inactive := false
	if _, err := f.service.UpdateTeam(ctx, "owl", rounds.TeamPatch{Points: &points}); err != nil {
		t.Fatalf("update points: %v", err)
	}
	team, err := f.service.UpdateTeam(ctx, "owl", rounds.TeamPatch{IsActive: &inactive})
	if err != nil {
		t.Fatalf("update active: %v", err)
	}
	if team.Points != 75 || team.IsActive {
		t.Fatalf("unexpected team: %+v", team)
	}
}

func TestTeamErrors(t *testing.T) {
	f := newFixture(t)
	ctx := adminContext()
	if _, err := f.service.CreateTeam(ctx, rounds.Team{TeamName: "Owls", ShortName: "owl"}); err != nil {
		t.Fatalf("create team: %v", err)
	}
	negative := -5
	cases := []struct {
		name string
		run  func() error
		want error
	}{
		{name: "duplicate", run: func() error {
			_, err := f.service.CreateTeam(ctx, rounds.Team{TeamName: "Other", ShortName: "owl"})
			return err
		}, want: gameerr.ErrConflict},
		{name: "blank name", run: func() error {
			_, err := f.service.CreateTeam(ctx, rounds.Team{TeamName: " ", ShortName: "x"})
			return err
		}, want: gameerr.ErrInvalidData},
		{name: "negative points", run: func() error {
			_, err := f.service.UpdateTeam(ctx, "owl", rounds.TeamPatch{Points: &negative})
			return err
		}, want: gameerr.ErrInvalidData},
		{name: "empty patch", run: func() error {
			_, err := f.service.UpdateTeam(ctx, "owl", rounds.TeamPatch{})
			return err
		}, want: gameerr.ErrInvalidData},
		{name: "missing team", run: func() error {
			_, err := f.service.UpdateTeam(ctx, "bat", rounds.TeamPatch{ResetPoints: true})
			return err
		}, want: gameerr.ErrDoesNotExist},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.run(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestListTeamsOrdersByPoints(t *testing.T) {
	f := newFixture(t)
	ctx := adminContext()
	for _, team := range []rounds.Team{
		{TeamName: "Bats", ShortName: "bat", Points: 10},
		{TeamName: "Owls", ShortName: "owl", Points: 30},
		{TeamName: "Cats", ShortName: "cat", Points: 10},
	} {
		if _, err := f.service.CreateTeam(ctx, team); err != nil {
			t.Fatalf("create team: %v", err)
		}
	}
	list, err := f.service.ListTeams(ctx)
	if err != nil {
		t.Fatalf("list teams: %v", err)
	}
	got := []string{list[0].ShortName, list[1].ShortName, list[2].ShortName}
	if got[0] != "owl" || got[1] != "bat" || got[2] != "cat" {
		t.Fatalf("unexpected order: %v", got)
	}
}

func TestNewServiceValidatesDependencies(t *testing.T) {
	board := &countingBoard{}
	if _, err := NewService(nil, memory.NewTeamRepository(), board); err == nil {
		t.Fatalf("expected nil round repo error")
	}
	if _, err := NewService(memory.NewRoundRepository(), nil, board); err == nil {
		t.Fatalf("expected nil team repo error")
	}
	if _, err := NewService(memory.NewRoundRepository(), memory.NewTeamRepository(), nil); err == nil {
		t.Fatalf("expected nil board error")
	}
}
