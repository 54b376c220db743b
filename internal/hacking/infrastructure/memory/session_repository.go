package memory

import (
	"context"
	"errors"
	"sync"

	hacking "lantern-backend/internal/hacking/domain"
)

// SessionRepository is an in-memory hack session store for demo/testing.
type SessionRepository struct {
	mu   sync.Mutex
	data map[string]hacking.HackSession
}

// NewSessionRepository constructs a repository.
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{data: make(map[string]hacking.HackSession)}
}

// Upsert inserts or replaces the owner's session.
func (r *SessionRepository) Upsert(ctx context.Context, session *hacking.HackSession) error {
	_ = ctx
	if session == nil {
		return errors.New("session repo: nil session")
	}
	if err := session.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	r.data[session.Owner] = cloneSession(*session)
	r.mu.Unlock()
	return nil
}

// Get loads the owner's session.
func (r *SessionRepository) Get(ctx context.Context, owner string) (*hacking.HackSession, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.data[owner]
	if !ok {
		return nil, nil
	}
	clone := cloneSession(session)
	return &clone, nil
}

// DecrementTries lowers tries of the keyed session while above zero.
func (r *SessionRepository) DecrementTries(ctx context.Context, key hacking.SessionKey) (int, bool, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.data[key.Owner]
	if !ok || !key.Matches(session) || session.TriesLeft <= 0 {
		return 0, false, nil
	}
	session.TriesLeft--
	r.data[key.Owner] = session
	return session.TriesLeft, true, nil
}

// Claim removes the keyed live session.
func (r *SessionRepository) Claim(ctx context.Context, key hacking.SessionKey) (bool, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.data[key.Owner]
	if !ok || !key.Matches(session) || session.TriesLeft <= 0 {
		return false, nil
	}
	delete(r.data, key.Owner)
	return true, nil
}

// DeleteExhausted removes the owner's session once tries are spent.
func (r *SessionRepository) DeleteExhausted(ctx context.Context, owner string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok := r.data[owner]; ok && session.TriesLeft <= 0 {
		delete(r.data, owner)
	}
	return nil
}

// Len returns the number of stored sessions.
func (r *SessionRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.data)
}

func cloneSession(session hacking.HackSession) hacking.HackSession {
	session.GameUsers = append([]hacking.GameUserEntry(nil), session.GameUsers...)
	session.Passwords = append([]string(nil), session.Passwords...)
	return session
}
