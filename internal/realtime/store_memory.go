package realtime

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

const memMaxMessagesPerPair = 10_000

// InMemoryStore is a dev/test fallback when DB is not configured.
// Messages are kept per user pair, ordered by append time.
type InMemoryStore struct {
	mu    sync.Mutex
	pairs map[string][]ChatMessage
}

// NewInMemoryStore constructs an in-memory MessageStore implementation.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		pairs: make(map[string][]ChatMessage),
	}
}

// Close closes the store (noop for in-memory).
func (s *InMemoryStore) Close() error { return nil }

// SaveMessage assigns a server id + timestamp and appends the message.
func (s *InMemoryStore) SaveMessage(ctx context.Context, in SaveMessageInput) (ChatMessage, error) {
	if in.Sender == "" || in.Recipient == "" || in.Content == "" {
		return ChatMessage{}, errors.New("invalid input")
	}
	if err := ctx.Err(); err != nil {
		return ChatMessage{}, err
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	id, err := NewMessageID(now)
	if err != nil {
		return ChatMessage{}, err
	}

	ct := in.ContentType
	if ct == "" {
		ct = "text"
	}

	msg := ChatMessage{
		ID:          id,
		Sender:      in.Sender,
		Recipient:   in.Recipient,
		Content:     in.Content,
		ContentType: ct,
		CreatedAt:   now,
	}

	key := pairKey(in.Sender, in.Recipient)

	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := append(s.pairs[key], msg)
	if len(msgs) > memMaxMessagesPerPair {
		msgs = msgs[len(msgs)-memMaxMessagesPerPair:]
	}
	s.pairs[key] = msgs

	return msg, nil
}

// History returns messages between two users ordered by created_at ASC,
// windowed by Before + Limit.
func (s *InMemoryStore) History(ctx context.Context, in HistoryInput) (HistoryResult, error) {
	if in.UserA == "" || in.UserB == "" {
		return HistoryResult{}, errors.New("invalid input")
	}
	if err := ctx.Err(); err != nil {
		return HistoryResult{}, err
	}

	limit := in.Limit
	if limit <= 0 {
		limit = 50
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.pairs[pairKey(in.UserA, in.UserB)]

	// Messages are appended in time order, so the window is a suffix scan.
	eligible := all
	if !in.Before.IsZero() {
		cut := len(all)
		for cut > 0 && !all[cut-1].CreatedAt.Before(in.Before) {
			cut--
		}
		eligible = all[:cut]
	}

	hasMore := false
	if len(eligible) > limit {
		hasMore = true
		eligible = eligible[len(eligible)-limit:]
	}

	out := make([]ChatMessage, len(eligible))
	copy(out, eligible)
	return HistoryResult{Messages: out, HasMore: hasMore}, nil
}

// pairKey canonicalizes a two-user conversation key.
func pairKey(a, b string) string {
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	return a + "\x00" + b
}
