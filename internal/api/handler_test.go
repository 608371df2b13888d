package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MSC-0013/FOREVER/internal/auth"
	"github.com/MSC-0013/FOREVER/internal/realtime"
)

type testEnv struct {
	srv      *httptest.Server
	users    *auth.InMemoryUserStore
	messages *realtime.InMemoryStore
	tokens   *auth.TokenManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := auth.NewInMemoryUserStore()
	messages := realtime.NewInMemoryStore()
	contacts := NewInMemoryContactStore()

	tokens, err := auth.NewTokenManager([]byte("0123456789abcdef0123456789abcdef"), "forever", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}

	h := NewHandler(log, messages, users, contacts, tokens)
	mux := http.NewServeMux()
	h.Register(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, users: users, messages: messages, tokens: tokens}
}

// createUser seeds an account and returns (id, bearer token).
func (e *testEnv) createUser(t *testing.T, username string) (string, string) {
	t.Helper()

	u, err := e.users.CreateUser(context.Background(), auth.User{
		Username:     username,
		PasswordHash: "x",
	})
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", username, err)
	}
	token, _, err := e.tokens.Issue(u.ID, u.Username, time.Now().UTC())
	if err != nil {
		t.Fatalf("Issue(%s): %v", username, err)
	}
	return u.ID, token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestAPI_RequiresToken(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/messages/u-2", "/api/contacts", "/api/users/search?username=a"} {
		resp := env.do(t, http.MethodGet, path, "", nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("GET %s without token: status = %d, want 401", path, resp.StatusCode)
		}
	}
}

func TestAPI_HistoryReturnsConversation(t *testing.T) {
	env := newTestEnv(t)

	aliceID, aliceToken := env.createUser(t, "alice")
	bobID, _ := env.createUser(t, "bob")
	_, carolToken := env.createUser(t, "carol")

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if _, err := env.messages.SaveMessage(context.Background(), realtime.SaveMessageInput{
			Sender:    aliceID,
			Recipient: bobID,
			Content:   fmt.Sprintf("msg %d", i),
			Now:       start.Add(time.Duration(i) * time.Second),
		}); err != nil {
			t.Fatalf("SaveMessage: %v", err)
		}
	}

	resp := env.do(t, http.MethodGet, "/api/messages/"+bobID, aliceToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("history: status = %d, want 200", resp.StatusCode)
	}
	got := decodeBody[struct {
		Messages []struct {
			Sender  string `json:"sender"`
			Content string `json:"content"`
		} `json:"messages"`
		HasMore bool `json:"has_more"`
	}](t, resp)
	if len(got.Messages) != 3 || got.HasMore {
		t.Fatalf("history = %d messages hasMore=%v, want 3 false", len(got.Messages), got.HasMore)
	}
	if got.Messages[0].Content != "msg 0" {
		t.Fatalf("history not ascending: first = %q", got.Messages[0].Content)
	}

	// The conversation is scoped to the caller; a third party sees nothing.
	resp = env.do(t, http.MethodGet, "/api/messages/"+bobID, carolToken, nil)
	empty := decodeBody[struct {
		Messages []json.RawMessage `json:"messages"`
	}](t, resp)
	if len(empty.Messages) != 0 {
		t.Fatalf("third party sees %d messages, want 0", len(empty.Messages))
	}
}

func TestAPI_HistoryValidatesQuery(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.createUser(t, "alice")

	for _, q := range []string{"?limit=0", "?limit=abc", "?before=not-a-time"} {
		resp := env.do(t, http.MethodGet, "/api/messages/u-2"+q, token, nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("GET %s: status = %d, want 400", q, resp.StatusCode)
		}
	}
}

func TestAPI_ContactsAddListRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	_, aliceToken := env.createUser(t, "alice")
	bobID, bobToken := env.createUser(t, "bob")

	resp := env.do(t, http.MethodPost, "/api/contacts", aliceToken, map[string]string{"contact_id": bobID})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add contact: status = %d, want 201", resp.StatusCode)
	}

	// Adds are bidirectional: both sides list each other.
	resp = env.do(t, http.MethodGet, "/api/contacts", aliceToken, nil)
	aliceList := decodeBody[[]struct {
		Username string `json:"username"`
	}](t, resp)
	if len(aliceList) != 1 || aliceList[0].Username != "bob" {
		t.Fatalf("alice contacts = %+v, want [bob]", aliceList)
	}

	resp = env.do(t, http.MethodGet, "/api/contacts", bobToken, nil)
	bobList := decodeBody[[]struct {
		Username string `json:"username"`
	}](t, resp)
	if len(bobList) != 1 || bobList[0].Username != "alice" {
		t.Fatalf("bob contacts = %+v, want [alice]", bobList)
	}
}

func TestAPI_ContactsRejectInvalidAdds(t *testing.T) {
	env := newTestEnv(t)

	aliceID, aliceToken := env.createUser(t, "alice")
	bobID, _ := env.createUser(t, "bob")

	// Self.
	resp := env.do(t, http.MethodPost, "/api/contacts", aliceToken, map[string]string{"contact_id": aliceID})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("self add: status = %d, want 400", resp.StatusCode)
	}

	// Unknown user.
	resp = env.do(t, http.MethodPost, "/api/contacts", aliceToken, map[string]string{"contact_id": "u-ghost"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown add: status = %d, want 404", resp.StatusCode)
	}

	// Duplicate.
	env.do(t, http.MethodPost, "/api/contacts", aliceToken, map[string]string{"contact_id": bobID})
	resp = env.do(t, http.MethodPost, "/api/contacts", aliceToken, map[string]string{"contact_id": bobID})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate add: status = %d, want 409", resp.StatusCode)
	}
}

func TestAPI_UserSearchExcludesCaller(t *testing.T) {
	env := newTestEnv(t)

	_, token := env.createUser(t, "anna")
	env.createUser(t, "annabel")
	env.createUser(t, "bob")

	resp := env.do(t, http.MethodGet, "/api/users/search?username=ann", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("search: status = %d, want 200", resp.StatusCode)
	}
	got := decodeBody[[]struct {
		Username string `json:"username"`
	}](t, resp)
	if len(got) != 1 || got[0].Username != "annabel" {
		t.Fatalf("search = %+v, want [annabel] (caller excluded)", got)
	}

	resp = env.do(t, http.MethodGet, "/api/users/search", token, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty query: status = %d, want 400", resp.StatusCode)
	}
}
