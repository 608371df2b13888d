package realtime

import "errors"

// Relay error taxonomy. Validation and persistence failures are surfaced
// synchronously to the sending connection; delivery failures are contained
// and resolved by tearing the affected connection down.
var (
	// ErrInvalidMessage marks a send rejected before any persistence attempt.
	ErrInvalidMessage = errors.New("realtime: invalid message")

	// ErrPersistenceFailure marks a send the external store did not accept.
	// No fan-out happens; the sender must be told to retry.
	ErrPersistenceFailure = errors.New("realtime: persistence failure")
)
