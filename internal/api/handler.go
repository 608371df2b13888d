// Package api serves the request/response side of Forever: message history,
// contacts, and user search. Live relay traffic stays on the websocket; this
// package is plain authenticated CRUD.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MSC-0013/FOREVER/internal/auth"
	"github.com/MSC-0013/FOREVER/internal/realtime"
)

const (
	maxBodyBytes = 16 << 10

	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// Handler serves /api/messages, /api/contacts, and /api/users routes.
type Handler struct {
	log      *slog.Logger
	messages realtime.MessageStore
	users    auth.UserStore
	contacts ContactStore
	tokens   *auth.TokenManager
}

// NewHandler constructs the API handler.
func NewHandler(log *slog.Logger, messages realtime.MessageStore, users auth.UserStore, contacts ContactStore, tokens *auth.TokenManager) *Handler {
	return &Handler{
		log:      log,
		messages: messages,
		users:    users,
		contacts: contacts,
		tokens:   tokens,
	}
}

// Register mounts API routes on the mux behind the bearer-token middleware.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.Handle("GET /api/messages/{userID}", h.tokens.RequireUser(http.HandlerFunc(h.handleHistory)))
	mux.Handle("GET /api/contacts", h.tokens.RequireUser(http.HandlerFunc(h.handleListContacts)))
	mux.Handle("POST /api/contacts", h.tokens.RequireUser(http.HandlerFunc(h.handleAddContact)))
	mux.Handle("GET /api/users/search", h.tokens.RequireUser(http.HandlerFunc(h.handleSearchUsers)))
}

// ---- messages ----

type historyMessage struct {
	ID          string    `json:"id"`
	Sender      string    `json:"sender"`
	Recipient   string    `json:"recipient"`
	Content     string    `json:"content"`
	ContentType string    `json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
}

type historyResponse struct {
	Messages []historyMessage `json:"messages"`
	HasMore  bool             `json:"has_more"`
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())

	peer := strings.TrimSpace(r.PathValue("userID"))
	if peer == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "missing user id")
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "bad_request", "invalid limit")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	var before time.Time
	if raw := r.URL.Query().Get("before"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "invalid before timestamp")
			return
		}
		before = t
	}

	res, err := h.messages.History(r.Context(), realtime.HistoryInput{
		UserA:  claims.Subject,
		UserB:  peer,
		Before: before,
		Limit:  limit,
	})
	if err != nil {
		h.log.Error("api.history.fail", "user_id", claims.Subject, "peer", peer, "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "history fetch failed")
		return
	}

	msgs := make([]historyMessage, 0, len(res.Messages))
	for _, m := range res.Messages {
		msgs = append(msgs, historyMessage{
			ID:          m.ID,
			Sender:      m.Sender,
			Recipient:   m.Recipient,
			Content:     m.Content,
			ContentType: m.ContentType,
			CreatedAt:   m.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, historyResponse{Messages: msgs, HasMore: res.HasMore})
}

// ---- contacts ----

type addContactRequest struct {
	ContactID string `json:"contact_id"`
}

type contactResponse struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`
}

func (h *Handler) handleListContacts(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())

	ids, err := h.contacts.ContactsOf(r.Context(), claims.Subject)
	if err != nil {
		h.log.Error("api.contacts.list.fail", "user_id", claims.Subject, "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "contact list failed")
		return
	}

	out := make([]contactResponse, 0, len(ids))
	for _, id := range ids {
		u, err := h.users.UserByID(r.Context(), id)
		if errors.Is(err, auth.ErrUserNotFound) {
			continue // deleted account, skip rather than fail the list
		}
		if err != nil {
			h.log.Error("api.contacts.lookup.fail", "contact_id", id, "err", err)
			writeError(w, http.StatusInternalServerError, "internal", "contact list failed")
			return
		}
		out = append(out, contactResponse{ID: u.ID, Username: u.Username, DisplayName: u.DisplayName})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleAddContact(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())

	var req addContactRequest
	if err := decodeJSON(w, r, maxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	contactID := strings.TrimSpace(req.ContactID)
	if contactID == "" || contactID == claims.Subject {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid contact id")
		return
	}

	u, err := h.users.UserByID(r.Context(), contactID)
	if errors.Is(err, auth.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "user not found")
		return
	}
	if err != nil {
		h.log.Error("api.contacts.add.lookup.fail", "contact_id", contactID, "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "contact add failed")
		return
	}

	err = h.contacts.AddContact(r.Context(), claims.Subject, contactID, time.Now().UTC())
	if errors.Is(err, ErrContactExists) {
		writeError(w, http.StatusConflict, "contact_exists", "contact already added")
		return
	}
	if err != nil {
		h.log.Error("api.contacts.add.fail", "user_id", claims.Subject, "contact_id", contactID, "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "contact add failed")
		return
	}

	h.log.Info("api.contacts.add", "user_id", claims.Subject, "contact_id", contactID)
	writeJSON(w, http.StatusCreated, contactResponse{ID: u.ID, Username: u.Username, DisplayName: u.DisplayName})
}

// ---- users ----

func (h *Handler) handleSearchUsers(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())

	q := strings.TrimSpace(r.URL.Query().Get("username"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "search query is required")
		return
	}

	users, err := h.users.SearchUsers(r.Context(), q, claims.Subject, 20)
	if err != nil {
		h.log.Error("api.users.search.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "search failed")
		return
	}

	out := make([]contactResponse, 0, len(users))
	for _, u := range users {
		out = append(out, contactResponse{ID: u.ID, Username: u.Username, DisplayName: u.DisplayName})
	}
	writeJSON(w, http.StatusOK, out)
}
