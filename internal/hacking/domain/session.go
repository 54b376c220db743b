package hacking

import (
	"context"
	"errors"
	"strings"
	"time"
)

// GameUsersPerSession is the number of identities offered in one puzzle.
const GameUsersPerSession = 2

// PasswordHint discloses one character of a password. Index counts runes.
type PasswordHint struct {
	Index     int    `json:"index"`
	Character string `json:"character"`
}

// GameUserEntry is one identity offered in a hack session.
type GameUserEntry struct {
	UserName     string       `json:"userName"`
	Password     string       `json:"password"`
	PasswordType string       `json:"passwordType"`
	PasswordHint PasswordHint `json:"passwordHint"`
	IsCorrect    bool         `json:"isCorrect"`
}

// HackSession is one player's live attempt on a station.
type HackSession struct {
	Owner     string          `json:"owner"`
	StationID int             `json:"stationId"`
	TriesLeft int             `json:"triesLeft"`
	GameUsers []GameUserEntry `json:"gameUsers"`
	Passwords []string        `json:"passwords"`
	CreatedAt time.Time       `json:"createdAt"`
}

// SessionKey identifies one issued session. Re-issuing a session for the
// same owner yields a new key.
type SessionKey struct {
	Owner     string
	StationID int
	CreatedAt time.Time
}

// Key returns the session's identity.
func (s HackSession) Key() SessionKey {
	return SessionKey{Owner: s.Owner, StationID: s.StationID, CreatedAt: s.CreatedAt}
}

// Matches reports whether session is the one identified by k.
func (k SessionKey) Matches(session HackSession) bool {
	return session.Owner == k.Owner && session.StationID == k.StationID && session.CreatedAt.Equal(k.CreatedAt)
}

// Validate checks session invariants.
func (s HackSession) Validate() error {
	if s.Owner == "" {
		return errors.New("hack session: empty owner")
	}
	if s.StationID <= 0 {
		return errors.New("hack session: invalid station id")
	}
	if s.TriesLeft < 0 {
		return errors.New("hack session: negative tries")
	}
	if len(s.GameUsers) != GameUsersPerSession {
		return errors.New("hack session: expected two game users")
	}
	correct := 0
	for _, entry := range s.GameUsers {
		if entry.IsCorrect {
			correct++
		}
		runes := []rune(entry.Password)
		if entry.PasswordHint.Index < 0 || entry.PasswordHint.Index >= len(runes) {
			return errors.New("hack session: hint index out of range")
		}
		if string(runes[entry.PasswordHint.Index]) != entry.PasswordHint.Character {
			return errors.New("hack session: hint does not match password")
		}
	}
	if correct != 1 {
		return errors.New("hack session: expected exactly one correct game user")
	}
	return nil
}

// Correct returns the correct entry.
func (s HackSession) Correct() (GameUserEntry, bool) {
	for _, entry := range s.GameUsers {
		if entry.IsCorrect {
			return entry, true
		}
	}
	return GameUserEntry{}, false
}

// NormalizeGuess trims and lower-cases a guess for comparison.
func NormalizeGuess(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// Matches counts guess characters that appear anywhere in password.
func Matches(guess, password string) int {
	guess = NormalizeGuess(guess)
	password = NormalizeGuess(password)
	amount := 0
	for _, r := range guess {
		if strings.ContainsRune(password, r) {
			amount++
		}
	}
	return amount
}

// SessionRepository manages hack sessions keyed by owner.
//
// Upsert inserts or replaces the owner's session. DecrementTries lowers
// tries_left of the keyed session by one only while it is above zero and
// returns the new value; ok is false when that session is gone, spent or
// replaced. Claim deletes the keyed live session and reports whether this
// caller removed it. DeleteExhausted removes the owner's session only once
// its tries are spent.
type SessionRepository interface {
	Upsert(ctx context.Context, session *HackSession) error
	Get(ctx context.Context, owner string) (*HackSession, error)
	DecrementTries(ctx context.Context, key SessionKey) (remaining int, ok bool, err error)
	Claim(ctx context.Context, key SessionKey) (bool, error)
	DeleteExhausted(ctx context.Context, owner string) error
}
