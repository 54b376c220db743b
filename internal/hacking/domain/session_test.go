package hacking

import (
	"testing"
	"time"
)

func TestMatches(t *testing.T) {
	cases := []struct {
		guess    string
		password string
		want     int
	}{
		{guess: "apple", password: "apple", want: 5},
		{guess: "APPLE", password: "apple", want: 5},
		{guess: "xyz", password: "apple", want: 0},
		{guess: "paper", password: "apple", want: 4},
		{guess: "  le ", password: "apple", want: 2},
	}
	for _, tc := range cases {
		if got := Matches(tc.guess, tc.password); got != tc.want {
			t.Fatalf("Matches(%q, %q) = %d, want %d", tc.guess, tc.password, got, tc.want)
		}
	}
}

func TestHackSessionValidate(t *testing.T) {
	session := HackSession{
		Owner:     "user-1",
		StationID: 1,
		TriesLeft: 3,
		GameUsers: []GameUserEntry{
			{UserName: "alice", Password: "sunshine", PasswordHint: PasswordHint{Index: 1, Character: "u"}, IsCorrect: true},
			{UserName: "bob", Password: "rover", PasswordHint: PasswordHint{Index: 0, Character: "r"}},
		},
	}
	if err := session.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	twoCorrect := session
	twoCorrect.GameUsers = []GameUserEntry{session.GameUsers[0], session.GameUsers[0]}
	if err := twoCorrect.Validate(); err == nil {
		t.Fatal("expected error for two correct entries")
	}

	badHint := session
	badHint.GameUsers = []GameUserEntry{
		{UserName: "alice", Password: "sunshine", PasswordHint: PasswordHint{Index: 1, Character: "x"}, IsCorrect: true},
		session.GameUsers[1],
	}
	if err := badHint.Validate(); err == nil {
		t.Fatal("expected error for mismatched hint")
	}
}

func TestGameUserValidate(t *testing.T) {
	user := GameUser{UserName: "alice", StationID: 2, Passwords: []GamePassword{{Value: ""}, {Value: "rose", Type: "flower"}}}
	if err := user.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	user.Passwords = []GamePassword{{Value: ""}}
	if err := user.Validate(); err == nil {
		t.Fatal("expected error for user without passwords")
	}
}

func TestSessionKeyMatches(t *testing.T) {
	created := time.Date(2026, 10, 14, 18, 0, 0, 0, time.UTC)
	session := HackSession{Owner: "player-1", StationID: 1, CreatedAt: created}
	key := session.Key()
	if !key.Matches(session) {
		t.Fatalf("key must match its own session")
	}
	if !key.Matches(HackSession{Owner: "player-1", StationID: 1, CreatedAt: created.In(time.FixedZone("x", 3600))}) {
		t.Fatalf("same instant in another zone must match")
	}
	for _, other := range []HackSession{
		{Owner: "player-1", StationID: 2, CreatedAt: created},
		{Owner: "player-1", StationID: 1, CreatedAt: created.Add(time.Microsecond)},
		{Owner: "player-2", StationID: 1, CreatedAt: created},
	} {
		if key.Matches(other) {
			t.Fatalf("key must not match %+v", other)
		}
	}
}
