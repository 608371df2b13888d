package realtime

import (
	"context"
	"time"
)

// ChatMessage is the canonical persisted message representation.
// ID and CreatedAt are assigned by the store, never by the relay.
type ChatMessage struct {
	ID          string
	Sender      string
	Recipient   string
	Content     string
	ContentType string
	CreatedAt   time.Time
}

// MessageStore persists and queries messages.
//
// Requirements:
//   - SaveMessage returns the durable record (server id + timestamp) or an error;
//     the relay fans out only what the store acknowledged.
//   - History returns the two-party conversation ordered by created_at ASC.
type MessageStore interface {
	SaveMessage(ctx context.Context, in SaveMessageInput) (ChatMessage, error)
	History(ctx context.Context, in HistoryInput) (HistoryResult, error)
	Close() error
}

// SaveMessageInput describes a message persistence request.
type SaveMessageInput struct {
	Sender      string
	Recipient   string
	Content     string
	ContentType string
	Now         time.Time
}

// HistoryInput describes a history query between two users.
type HistoryInput struct {
	UserA  string
	UserB  string
	Before time.Time // zero means "latest"
	Limit  int
}

// HistoryResult contains the retrieved history window.
type HistoryResult struct {
	Messages []ChatMessage
	HasMore  bool
}
