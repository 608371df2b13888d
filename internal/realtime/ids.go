package realtime

import (
	"time"

	"github.com/MSC-0013/FOREVER/internal/ids"
)

// NewMessageID returns a ULID used as a server-assigned message id.
func NewMessageID(now time.Time) (string, error) {
	return ids.NewULID(now)
}

// NewConnID returns a ULID used as a websocket connection id.
func NewConnID(now time.Time) (string, error) {
	return ids.NewULID(now)
}

func newULID(now time.Time) (string, error) {
	return ids.NewULID(now)
}
