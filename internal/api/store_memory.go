package api

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryContactStore is a dev/test fallback when DB is not configured.
type InMemoryContactStore struct {
	mu    sync.Mutex
	links map[string]map[string]time.Time // user id -> contact id -> added at
}

// NewInMemoryContactStore constructs an empty in-memory ContactStore.
func NewInMemoryContactStore() *InMemoryContactStore {
	return &InMemoryContactStore{
		links: make(map[string]map[string]time.Time),
	}
}

// Close closes the store (noop for in-memory).
func (s *InMemoryContactStore) Close() error { return nil }

// AddContact stores both directions of the link.
func (s *InMemoryContactStore) AddContact(ctx context.Context, userID, contactID string, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.links[userID][contactID]; exists {
		return ErrContactExists
	}
	s.addLocked(userID, contactID, now)
	s.addLocked(contactID, userID, now)
	return nil
}

func (s *InMemoryContactStore) addLocked(a, b string, now time.Time) {
	set := s.links[a]
	if set == nil {
		set = make(map[string]time.Time)
		s.links[a] = set
	}
	set[b] = now
}

// ContactsOf returns the sorted contact ids of the user.
func (s *InMemoryContactStore) ContactsOf(ctx context.Context, userID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.links[userID]
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}
