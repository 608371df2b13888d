package auth

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/MSC-0013/FOREVER/internal/ids"
)

// InMemoryUserStore is a dev/test fallback when DB is not configured.
type InMemoryUserStore struct {
	mu         sync.Mutex
	byID       map[string]User
	byUsername map[string]string // lowercase username -> id
}

// NewInMemoryUserStore constructs an empty in-memory UserStore.
func NewInMemoryUserStore() *InMemoryUserStore {
	return &InMemoryUserStore{
		byID:       make(map[string]User),
		byUsername: make(map[string]string),
	}
}

// Close closes the store (noop for in-memory).
func (s *InMemoryUserStore) Close() error { return nil }

// CreateUser inserts a new account, allocating an id when absent.
func (s *InMemoryUserStore) CreateUser(ctx context.Context, u User) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	u.Username = strings.TrimSpace(u.Username)
	if u.Username == "" {
		return User{}, errors.New("auth: empty username")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(u.Username)
	if _, taken := s.byUsername[key]; taken {
		return User{}, ErrUsernameTaken
	}

	if u.ID == "" {
		id, err := ids.NewULID(time.Now().UTC())
		if err != nil {
			return User{}, err
		}
		u.ID = id
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	s.byID[u.ID] = u
	s.byUsername[key] = u.ID
	return u, nil
}

// UserByUsername returns the account or ErrUserNotFound.
func (s *InMemoryUserStore) UserByUsername(ctx context.Context, username string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byUsername[strings.ToLower(strings.TrimSpace(username))]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return s.byID[id], nil
}

// UserByID returns the account or ErrUserNotFound.
func (s *InMemoryUserStore) UserByID(ctx context.Context, id string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

// SearchUsers returns accounts matching the username prefix, excluding
// excludeID, sorted by username.
func (s *InMemoryUserStore) SearchUsers(ctx context.Context, prefix, excludeID string, limit int) ([]User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if limit <= 0 {
		limit = 20
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []User
	for _, u := range s.byID {
		if u.ID == excludeID {
			continue
		}
		if strings.HasPrefix(strings.ToLower(u.Username), prefix) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
