package realtime

import (
	"log/slog"
	"time"

	v1 "github.com/MSC-0013/FOREVER/contracts/chat/v1"

	json "github.com/goccy/go-json"
)

// newEnvelope wraps a payload in the canonical wire envelope.
func newEnvelope(typ string, payload json.RawMessage, ts time.Time) v1.Envelope {
	id, _ := newULID(ts)
	return v1.Envelope{
		V:       v1.Version,
		Type:    typ,
		ID:      id,
		TS:      ts,
		Payload: payload,
	}
}

// deliver enqueues an envelope on one connection without blocking.
//
// A full queue means the consumer stopped draining; the connection is closed
// so its own gateway loop runs the deregistration path. Failure here never
// propagates to the caller's other deliveries.
func deliver(log *slog.Logger, c *Client, env v1.Envelope) bool {
	if c == nil {
		return false
	}

	select {
	case <-c.Done():
		metricDroppedSends.Inc()
		return false
	default:
	}

	select {
	case c.Send <- env:
		return true
	default:
		metricDroppedSends.Inc()
		log.Info("realtime.send.drop", "conn_id", c.ConnID, "user_id", c.UserID, "type", env.Type)
		c.Close()
		return false
	}
}
