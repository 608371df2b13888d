package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	v1 "github.com/MSC-0013/FOREVER/contracts/chat/v1"

	json "github.com/goccy/go-json"
)

// MessageRelay accepts outbound messages from connected senders, persists
// them through the external store, and fans the durable record out to the
// recipient's connections plus an echo to the sender's own connections.
//
// The echo makes the push channel the single source of truth for "what was
// actually sent" instead of client-side optimistic state.
type MessageRelay struct {
	log   *slog.Logger
	reg   *Registry
	store MessageStore
}

// NewMessageRelay constructs a relay over the given registry and store.
func NewMessageRelay(log *slog.Logger, reg *Registry, store MessageStore) *MessageRelay {
	return &MessageRelay{log: log, reg: reg, store: store}
}

// Send validates, persists, and fans out one message.
//
// Failure modes:
//   - empty/over-long content or unknown content type: ErrInvalidMessage,
//     no persistence attempt.
//   - store rejection: ErrPersistenceFailure, zero fan-out. A message that
//     failed to persist must never appear as sent on any connection.
//
// On success both fan-out legs run even when one set is empty, and a failed
// delivery to one connection never blocks the others.
func (m *MessageRelay) Send(ctx context.Context, sender, recipient, content, contentType string) (ChatMessage, error) {
	if m == nil || m.store == nil {
		return ChatMessage{}, ErrPersistenceFailure
	}

	content = strings.TrimRight(content, "\n")
	if strings.TrimSpace(content) == "" {
		metricMessagesFailed.WithLabelValues("invalid").Inc()
		return ChatMessage{}, fmt.Errorf("%w: empty content", ErrInvalidMessage)
	}
	if len([]rune(content)) > maxContentChars {
		metricMessagesFailed.WithLabelValues("invalid").Inc()
		return ChatMessage{}, fmt.Errorf("%w: content too long (max %d chars)", ErrInvalidMessage, maxContentChars)
	}
	if contentType == "" {
		contentType = v1.ContentText
	}
	if !v1.ValidContentType(contentType) {
		metricMessagesFailed.WithLabelValues("invalid").Inc()
		return ChatMessage{}, fmt.Errorf("%w: unknown content type %q", ErrInvalidMessage, contentType)
	}
	if strings.TrimSpace(recipient) == "" {
		metricMessagesFailed.WithLabelValues("invalid").Inc()
		return ChatMessage{}, fmt.Errorf("%w: missing recipient", ErrInvalidMessage)
	}

	stored, err := m.store.SaveMessage(ctx, SaveMessageInput{
		Sender:      sender,
		Recipient:   recipient,
		Content:     content,
		ContentType: contentType,
		Now:         time.Now().UTC(),
	})
	if err != nil {
		metricMessagesFailed.WithLabelValues("persistence").Inc()
		m.log.Error("relay.persist.fail", "sender", sender, "recipient", recipient, "err", err)
		return ChatMessage{}, fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
	}

	m.fanOut(stored)
	metricMessagesRelayed.Inc()
	return stored, nil
}

// fanOut pushes the persisted record to recipient connections and echoes it
// to sender connections. When sender == recipient each connection still
// receives the frame exactly once.
func (m *MessageRelay) fanOut(msg ChatMessage) {
	payload, _ := json.Marshal(v1.MessagePayload{
		ID:          msg.ID,
		Sender:      msg.Sender,
		Recipient:   msg.Recipient,
		Content:     msg.Content,
		ContentType: msg.ContentType,
		CreatedAt:   msg.CreatedAt,
	})
	env := newEnvelope(v1.TypeMessage, payload, msg.CreatedAt)

	seen := make(map[string]struct{}, 4)
	for _, c := range m.reg.ConnectionsFor(msg.Recipient) {
		seen[c.ConnID] = struct{}{}
		deliver(m.log, c, env)
	}
	for _, c := range m.reg.ConnectionsFor(msg.Sender) {
		if _, dup := seen[c.ConnID]; dup {
			continue
		}
		deliver(m.log, c, env)
	}
}
