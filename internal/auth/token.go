package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MSC-0013/FOREVER/internal/realtime"

	"github.com/golang-jwt/jwt/v5"
)

const defaultIssuer = "forever"

// Claims are the token claims carried by access tokens.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username,omitempty"`
}

// TokenManager issues and verifies HMAC-signed access tokens.
// The signing key is process-local; the realtime gateway consumes only the
// realtime.IdentityVerifier side of it.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokenManager constructs a TokenManager. The secret must be at least 32 bytes.
func NewTokenManager(secret []byte, issuer string, ttl time.Duration) (*TokenManager, error) {
	if len(secret) < 32 {
		return nil, errors.New("auth: token secret must be at least 32 bytes")
	}
	if strings.TrimSpace(issuer) == "" {
		issuer = defaultIssuer
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{secret: secret, issuer: issuer, ttl: ttl}, nil
}

// Issue returns a signed token for the user and its expiry.
func (m *TokenManager) Issue(userID, username string, now time.Time) (string, time.Time, error) {
	if strings.TrimSpace(userID) == "" {
		return "", time.Time{}, errors.New("auth: empty user id")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	exp := now.Add(m.ttl)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Username: username,
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign: %w", err)
	}
	return signed, exp, nil
}

// Verify parses and validates a token, returning its claims.
func (m *TokenManager) Verify(tokenString string, now time.Time) (Claims, error) {
	tokenString = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(tokenString), "Bearer "))
	if tokenString == "" {
		return Claims{}, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims,
		func(t *jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return Claims{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}

// IdentityVerifier adapts the TokenManager to the realtime gateway contract.
func (m *TokenManager) IdentityVerifier() realtime.IdentityVerifier {
	return verifierFunc(func(_ context.Context, token string, now time.Time) (realtime.Identity, error) {
		claims, err := m.Verify(token, now)
		if err != nil {
			return realtime.Identity{}, err
		}
		return realtime.Identity{UserID: claims.Subject, Username: claims.Username}, nil
	})
}

type verifierFunc func(ctx context.Context, token string, now time.Time) (realtime.Identity, error)

func (f verifierFunc) Verify(ctx context.Context, token string, now time.Time) (realtime.Identity, error) {
	return f(ctx, token, now)
}
