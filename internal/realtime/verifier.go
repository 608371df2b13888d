package realtime

import (
	"context"
	"time"
)

// Identity is a verified user identity supplied at connection establishment.
// The relay never issues or re-validates credentials; it only consumes the
// stable user id resolved by the auth collaborator.
type Identity struct {
	UserID   string
	Username string
}

// IdentityVerifier resolves a handshake token to an Identity.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string, now time.Time) (Identity, error)
}
