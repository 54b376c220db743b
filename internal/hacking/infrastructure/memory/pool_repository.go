package memory

import (
	"context"
	"sync"

	hacking "lantern-backend/internal/hacking/domain"
)

// PoolRepository holds seeded game users and decoy passwords.
type PoolRepository struct {
	mu    sync.RWMutex
	users []hacking.GameUser
	fakes []string
}

// NewPoolRepository constructs a repository.
func NewPoolRepository(users []hacking.GameUser, fakes []string) *PoolRepository {
	return &PoolRepository{
		users: append([]hacking.GameUser(nil), users...),
		fakes: append([]string(nil), fakes...),
	}
}

// ListGameUsers returns game users bound to stationID.
func (r *PoolRepository) ListGameUsers(ctx context.Context, stationID int) ([]hacking.GameUser, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	var list []hacking.GameUser
	for _, user := range r.users {
		if user.StationID == stationID {
			user.Passwords = append([]hacking.GamePassword(nil), user.Passwords...)
			list = append(list, user)
		}
	}
	return list, nil
}

// ListFakePasswords returns the decoy pool.
func (r *PoolRepository) ListFakePasswords(ctx context.Context) ([]string, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.fakes...), nil
}

// SaveGameUser upserts a game user keyed by user name and station.
func (r *PoolRepository) SaveGameUser(ctx context.Context, user hacking.GameUser) error {
	_ = ctx
	if err := user.Validate(); err != nil {
		return err
	}
	user.Passwords = append([]hacking.GamePassword(nil), user.Passwords...)
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.users {
		if existing.UserName == user.UserName && existing.StationID == user.StationID {
			r.users[i] = user
			return nil
		}
	}
	r.users = append(r.users, user)
	return nil
}

// SaveFakePasswords adds decoys not already present.
func (r *PoolRepository) SaveFakePasswords(ctx context.Context, passwords []string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[string]struct{}, len(r.fakes))
	for _, fake := range r.fakes {
		seen[fake] = struct{}{}
	}
	for _, password := range passwords {
		if password == "" {
			continue
		}
		if _, ok := seen[password]; ok {
			continue
		}
		seen[password] = struct{}{}
		r.fakes = append(r.fakes, password)
	}
	return nil
}
