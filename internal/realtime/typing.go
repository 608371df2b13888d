package realtime

import (
	"log/slog"
	"time"

	v1 "github.com/MSC-0013/FOREVER/contracts/chat/v1"

	json "github.com/goccy/go-json"
)

// TypingRelay is a stateless pass-through for ephemeral typing indicators.
// Signals are never stored, never queued, and carry no ordering guarantee;
// the receiving client applies last-write-wins.
type TypingRelay struct {
	log *slog.Logger
	reg *Registry
}

// NewTypingRelay constructs a typing relay over the given registry.
func NewTypingRelay(log *slog.Logger, reg *Registry) *TypingRelay {
	return &TypingRelay{log: log, reg: reg}
}

// Relay forwards a typing signal to every live connection of toUser.
// A recipient with no live connection silently drops the signal; typing state
// is best-effort and stale by design. Debounce is the client's job.
func (t *TypingRelay) Relay(fromUser, toUser string, isTyping bool) {
	if t == nil || fromUser == "" || toUser == "" {
		return
	}

	conns := t.reg.ConnectionsFor(toUser)
	if len(conns) == 0 {
		return
	}

	payload, _ := json.Marshal(v1.TypingPayload{FromUser: fromUser, IsTyping: isTyping})
	env := newEnvelope(v1.TypeTyping, payload, time.Now().UTC())

	for _, c := range conns {
		deliver(t.log, c, env)
	}
	metricTypingSignals.Inc()
}
