package auth

import (
	"context"
	"time"
)

// User is the stored account record. PasswordHash never leaves this package.
type User struct {
	ID           string
	Username     string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
}

// UserStore persists and queries user accounts.
type UserStore interface {
	// CreateUser inserts a new account; ErrUsernameTaken on conflict.
	CreateUser(ctx context.Context, u User) (User, error)
	// UserByUsername returns the account or ErrUserNotFound.
	UserByUsername(ctx context.Context, username string) (User, error)
	// UserByID returns the account or ErrUserNotFound.
	UserByID(ctx context.Context, id string) (User, error)
	// SearchUsers returns accounts whose username starts with prefix,
	// excluding excludeID, capped at limit.
	SearchUsers(ctx context.Context, prefix, excludeID string, limit int) ([]User, error)
	Close() error
}
