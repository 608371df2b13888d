package realtime

import (
	"log/slog"
	"time"

	v1 "github.com/MSC-0013/FOREVER/contracts/chat/v1"

	json "github.com/goccy/go-json"
)

// PresenceBroadcaster publishes the online-user snapshot to every live
// connection. It holds no state of its own; the snapshot is derived from the
// Registry on each publish and is always a full list, never a delta.
type PresenceBroadcaster struct {
	log *slog.Logger
	reg *Registry
}

// NewPresenceBroadcaster constructs a broadcaster over the given registry.
func NewPresenceBroadcaster(log *slog.Logger, reg *Registry) *PresenceBroadcaster {
	return &PresenceBroadcaster{log: log, reg: reg}
}

// Publish sends the current snapshot to all registered connections.
//
// The gateway calls this only on user-level online/offline transitions, not
// on every extra device connect. A connection that cannot accept the frame is
// torn down on its own; the publish continues to the rest.
func (b *PresenceBroadcaster) Publish() {
	if b == nil || b.reg == nil {
		return
	}

	users := b.reg.OnlineUsers()
	payload, _ := json.Marshal(v1.PresencePayload{OnlineUsers: users})
	env := newEnvelope(v1.TypePresence, payload, time.Now().UTC())

	conns := b.reg.AllConnections()
	for _, c := range conns {
		deliver(b.log, c, env)
	}

	metricPresenceBroadcasts.Inc()
	b.log.Debug("presence.publish", "online", len(users), "connections", len(conns))
}
