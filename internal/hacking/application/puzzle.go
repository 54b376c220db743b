package application

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"lantern-backend/internal/gameerr"
	hacking "lantern-backend/internal/hacking/domain"
)

const defaultDecoyCount = 13

// Random is the source of puzzle randomness.
type Random interface {
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

type globalRandom struct{}

func (globalRandom) Intn(n int) int                     { return rand.Intn(n) }
func (globalRandom) Shuffle(n int, swap func(i, j int)) { rand.Shuffle(n, swap) }

// HackView is the client-facing projection of a session. It never reveals
// which entry is correct beyond the disclosed identity and hint.
type HackView struct {
	Passwords    []string             `json:"passwords"`
	TriesLeft    int                  `json:"triesLeft"`
	UserName     string               `json:"userName"`
	PasswordType string               `json:"passwordType"`
	PasswordHint hacking.PasswordHint `json:"passwordHint"`
	StationID    int                  `json:"stationId"`
}

// Generator builds hack puzzles from the seeded pools.
type Generator struct {
	pools  hacking.PoolRepository
	decoys int
	random Random
	now    func() time.Time
}

// GeneratorOption customizes the generator.
type GeneratorOption func(*Generator)

// WithDecoyCount overrides the number of decoy passwords shown.
func WithDecoyCount(count int) GeneratorOption {
	return func(g *Generator) {
		if count >= 0 {
			g.decoys = count
		}
	}
}

// WithRandom overrides the randomness source.
func WithRandom(random Random) GeneratorOption {
	return func(g *Generator) {
		if random != nil {
			g.random = random
		}
	}
}

// NewGenerator constructs a puzzle generator.
func NewGenerator(pools hacking.PoolRepository, opts ...GeneratorOption) (*Generator, error) {
	if pools == nil {
		return nil, errors.New("hacking: nil pool repo")
	}
	g := &Generator{
		pools:  pools,
		decoys: defaultDecoyCount,
		random: globalRandom{},
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// CreateHackData builds a fresh session for owner on stationID. The first
// selected game user is the correct one.
func (g *Generator) CreateHackData(ctx context.Context, stationID int, owner string, tries int) (*hacking.HackSession, error) {
	users, err := g.pools.ListGameUsers(ctx, stationID)
	if err != nil {
		return nil, gameerr.Database(err)
	}
	candidates := make([]hacking.GameUser, 0, len(users))
	for _, user := range users {
		if user.Validate() == nil {
			candidates = append(candidates, user)
		}
	}
	if len(candidates) < hacking.GameUsersPerSession {
		return nil, gameerr.DoesNotExist("game users for station")
	}

	g.random.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	entries := make([]hacking.GameUserEntry, 0, hacking.GameUsersPerSession)
	for i, user := range candidates[:hacking.GameUsersPerSession] {
		entry := g.pickEntry(user)
		entry.IsCorrect = i == 0
		entries = append(entries, entry)
	}

	passwords, err := g.displayPasswords(ctx, entries)
	if err != nil {
		return nil, err
	}

	return &hacking.HackSession{
		Owner:     owner,
		StationID: stationID,
		TriesLeft: tries,
		GameUsers: entries,
		Passwords: passwords,
		CreatedAt: g.now(),
	}, nil
}

func (g *Generator) pickEntry(user hacking.GameUser) hacking.GameUserEntry {
	options := make([]hacking.GamePassword, 0, len(user.Passwords))
	for _, password := range user.Passwords {
		if password.Value != "" {
			options = append(options, password)
		}
	}
	chosen := options[g.random.Intn(len(options))]
	runes := []rune(chosen.Value)
	index := g.random.Intn(len(runes))
	return hacking.GameUserEntry{
		UserName:     user.UserName,
		Password:     chosen.Value,
		PasswordType: chosen.Type,
		PasswordHint: hacking.PasswordHint{Index: index, Character: string(runes[index])},
	}
}

func (g *Generator) displayPasswords(ctx context.Context, entries []hacking.GameUserEntry) ([]string, error) {
	fakes, err := g.pools.ListFakePasswords(ctx)
	if err != nil {
		return nil, gameerr.Database(err)
	}
	genuine := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		genuine[hacking.NormalizeGuess(entry.Password)] = struct{}{}
	}
	seen := make(map[string]struct{}, len(fakes))
	decoys := make([]string, 0, len(fakes))
	for _, fake := range fakes {
		key := hacking.NormalizeGuess(fake)
		if key == "" {
			continue
		}
		if _, ok := genuine[key]; ok {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		decoys = append(decoys, fake)
	}
	g.random.Shuffle(len(decoys), func(i, j int) {
		decoys[i], decoys[j] = decoys[j], decoys[i]
	})
	if len(decoys) > g.decoys {
		decoys = decoys[:g.decoys]
	}

	passwords := make([]string, 0, len(decoys)+len(entries))
	passwords = append(passwords, decoys...)
	for _, entry := range entries {
		passwords = append(passwords, entry.Password)
	}
	g.random.Shuffle(len(passwords), func(i, j int) {
		passwords[i], passwords[j] = passwords[j], passwords[i]
	})
	return passwords, nil
}

// CreateHackView projects a session for the client.
func CreateHackView(session hacking.HackSession) HackView {
	view := HackView{
		Passwords: append([]string(nil), session.Passwords...),
		TriesLeft: session.TriesLeft,
		StationID: session.StationID,
	}
	if correct, ok := session.Correct(); ok {
		view.UserName = correct.UserName
		view.PasswordType = correct.PasswordType
		view.PasswordHint = correct.PasswordHint
	}
	return view
}
