package auth

import (
	"context"
	"net/http"
	"time"
)

type ctxKey uint8

const claimsKey ctxKey = 0

// RequireUser rejects requests without a valid bearer token and injects the
// verified claims into the request context.
func (m *TokenManager) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := m.Verify(r.Header.Get("Authorization"), time.Now().UTC())
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid or missing token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}

// ClaimsFromContext returns the claims injected by RequireUser, if any.
func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(claimsKey).(Claims)
	return c, ok
}
