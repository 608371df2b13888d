package api

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrContactExists reports a duplicate contact add.
	ErrContactExists = errors.New("api: contact already added")
)

// Contact links two users. Adds are bidirectional: both directions are stored
// so each side sees the other in their list.
type Contact struct {
	UserID    string
	ContactID string
	CreatedAt time.Time
}

// ContactStore persists the contact graph.
type ContactStore interface {
	// AddContact stores both directions of the link; ErrContactExists when
	// the pair is already linked.
	AddContact(ctx context.Context, userID, contactID string, now time.Time) error
	// ContactsOf returns the ids the user has added.
	ContactsOf(ctx context.Context, userID string) ([]string, error)
	Close() error
}
