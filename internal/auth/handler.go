// Package auth owns account creation, login, and access token verification.
// The realtime relay consumes only the IdentityVerifier side of this package.
package auth

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxAuthBodyBytes = 16 << 10 // 16 KiB

	minUsernameLen = 3
	maxUsernameLen = 32
	minPasswordLen = 8
	maxPasswordLen = 256
)

// Handler serves /api/auth endpoints.
type Handler struct {
	log      *slog.Logger
	users    UserStore
	tokens   *TokenManager
	pwParams Argon2idParams
	throttle *LoginThrottle
}

// NewHandler constructs the auth HTTP handler.
func NewHandler(log *slog.Logger, users UserStore, tokens *TokenManager, throttle *LoginThrottle) *Handler {
	return &Handler{
		log:      log,
		users:    users,
		tokens:   tokens,
		pwParams: DefaultArgon2idParams(),
		throttle: throttle,
	}
}

// Register mounts auth routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/register", h.handleRegister)
	mux.HandleFunc("POST /api/auth/login", h.handleLogin)
	mux.HandleFunc("GET /api/auth/me", h.handleMe)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, maxAuthBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	username := strings.TrimSpace(req.Username)
	if n := utf8.RuneCountInString(username); n < minUsernameLen || n > maxUsernameLen {
		writeError(w, http.StatusBadRequest, "invalid_username", "username must be 3-32 characters")
		return
	}
	if n := len(req.Password); n < minPasswordLen || n > maxPasswordLen {
		writeError(w, http.StatusBadRequest, "invalid_password", "password must be 8-256 characters")
		return
	}

	hash, err := HashPassword(h.pwParams, req.Password)
	if err != nil {
		h.log.Error("auth.register.hash.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "could not create account")
		return
	}

	u, err := h.users.CreateUser(r.Context(), User{
		Username:     username,
		DisplayName:  strings.TrimSpace(req.DisplayName),
		PasswordHash: hash,
	})
	if errors.Is(err, ErrUsernameTaken) {
		writeError(w, http.StatusConflict, "username_taken", "username is already in use")
		return
	}
	if err != nil {
		h.log.Error("auth.register.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "could not create account")
		return
	}

	now := time.Now().UTC()
	token, exp, err := h.tokens.Issue(u.ID, u.Username, now)
	if err != nil {
		h.log.Error("auth.register.token.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "could not issue token")
		return
	}

	h.log.Info("auth.register", "user_id", u.ID, "username", u.Username)
	writeJSON(w, http.StatusCreated, tokenResponse{Token: token, ExpiresAt: exp, User: toUserResponse(u)})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	if !h.throttle.Allow(remoteIP(r), now) {
		writeError(w, http.StatusTooManyRequests, "rate_limited", "too many attempts")
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, maxAuthBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	u, err := h.users.UserByUsername(r.Context(), req.Username)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		h.log.Error("auth.login.lookup.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "login failed")
		return
	}

	// Verify against a dummy hash on unknown users to keep timing flat.
	hash := u.PasswordHash
	if errors.Is(err, ErrUserNotFound) || hash == "" {
		hash, _ = HashPassword(h.pwParams, "forever-dummy-password")
		u = User{}
	}

	ok, verr := VerifyPassword(h.pwParams, hash, req.Password)
	if verr != nil || !ok || u.ID == "" {
		h.log.Info("auth.login.rejected", "username", strings.TrimSpace(req.Username), "remote", remoteIP(r))
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid username or password")
		return
	}

	token, exp, err := h.tokens.Issue(u.ID, u.Username, now)
	if err != nil {
		h.log.Error("auth.login.token.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "could not issue token")
		return
	}

	h.log.Info("auth.login", "user_id", u.ID)
	writeJSON(w, http.StatusOK, tokenResponse{Token: token, ExpiresAt: exp, User: toUserResponse(u)})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	claims, err := h.tokens.Verify(r.Header.Get("Authorization"), time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "invalid or missing token")
		return
	}

	u, err := h.users.UserByID(r.Context(), claims.Subject)
	if errors.Is(err, ErrUserNotFound) {
		writeError(w, http.StatusUnauthorized, "unauthorized", "account no longer exists")
		return
	}
	if err != nil {
		h.log.Error("auth.me.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(u))
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}
