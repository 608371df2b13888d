package auth

import "errors"

var (
	// ErrUsernameTaken reports a register attempt with an existing username.
	ErrUsernameTaken = errors.New("auth: username taken")

	// ErrUserNotFound reports a lookup miss.
	ErrUserNotFound = errors.New("auth: user not found")

	// ErrInvalidCredentials covers both unknown-user and bad-password so the
	// login response does not leak which one happened.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrInvalidToken reports a token that failed verification.
	ErrInvalidToken = errors.New("auth: invalid token")

	// ErrInvalidHash reports a malformed or unsupported password hash string.
	ErrInvalidHash = errors.New("auth: invalid password hash")
)
