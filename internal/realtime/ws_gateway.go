// Package realtime contains Forever's websocket gateway and the in-memory
// session/relay layer: connection registry, presence broadcasting, typing
// relay, and message relay over an external persistence store.
package realtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	v1 "github.com/MSC-0013/FOREVER/contracts/chat/v1"

	"github.com/coder/websocket"
	json "github.com/goccy/go-json"
)

const (
	wsSubprotocolV1 = "forever.chat.v1"

	wsDefaultSendQueueSize = 256
	wsMinSendQueueSize     = 32

	wsDefaultWriteTimeout = 5 * time.Second
	wsDefaultReadIdle     = 2 * time.Minute
	wsDefaultHandshake    = 10 * time.Second
	wsCloseGrace          = 1 * time.Second

	wsMaxPingFailures = 3

	// Security defaults:
	// - Origin is required by default.
	// - Only localhost is allowed by default (secure-by-default for dev).
	wsDefaultOriginRequired = true
	wsDefaultAllowedOrigins = "http://localhost,http://127.0.0.1"
)

// WSGateway is the websocket entrypoint for the relay.
//
// It authenticates the handshake through the external verifier, binds the
// connection to the registry, and dispatches validated frames to the typing
// and message relays. Each connection runs as its own set of goroutines; the
// registry is the only shared-write state behind them.
type WSGateway struct {
	log      *slog.Logger
	reg      *Registry
	presence *PresenceBroadcaster
	typing   *TypingRelay
	relay    *MessageRelay
	verifier IdentityVerifier

	devInsecure    bool
	originRequired bool
	allowedOrigins []string

	// Derived for websocket.Accept origin checks.
	// Accept() authorizes same-host origins by default, but for cross-origin it requires OriginPatterns.
	originPatterns []string

	writeTimeout     time.Duration
	readIdleTimeout  time.Duration
	handshakeTimeout time.Duration
	sendQueueSize    int

	heartbeatEvery   time.Duration
	heartbeatTimeout time.Duration

	rateEvents int
	rateWindow time.Duration
}

// NewWSGateway constructs a gateway with secure defaults.
// When store is nil it falls back to the in-memory implementation for dev.
func NewWSGateway(log *slog.Logger, reg *Registry, store MessageStore, verifier IdentityVerifier) *WSGateway {
	if log == nil {
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	if reg == nil {
		reg = NewRegistry()
	}
	if store == nil {
		store = NewInMemoryStore()
	}

	g := &WSGateway{
		log:      log,
		reg:      reg,
		presence: NewPresenceBroadcaster(log, reg),
		typing:   NewTypingRelay(log, reg),
		relay:    NewMessageRelay(log, reg, store),
		verifier: verifier,
	}

	// NOTE: InsecureSkipVerify is a dev-only knob (TLS verification). It is not an origin policy.
	g.devInsecure = envBoolWS("FOREVER_WS_DEV_INSECURE", false)

	g.originRequired = envBoolWS("FOREVER_WS_ORIGIN_REQUIRED", wsDefaultOriginRequired)
	g.allowedOrigins = envCSVWS("FOREVER_WS_ALLOWED_ORIGINS", wsDefaultAllowedOrigins)
	g.originPatterns = deriveOriginPatterns(g.allowedOrigins)

	g.writeTimeout = envDurationWS("FOREVER_WS_WRITE_TIMEOUT", wsDefaultWriteTimeout)
	g.readIdleTimeout = envDurationWS("FOREVER_WS_READ_IDLE_TIMEOUT", wsDefaultReadIdle)
	g.handshakeTimeout = envDurationWS("FOREVER_WS_HANDSHAKE_TIMEOUT", wsDefaultHandshake)

	g.sendQueueSize = envIntWS("FOREVER_WS_SEND_QUEUE", wsDefaultSendQueueSize)
	if g.sendQueueSize < wsMinSendQueueSize {
		g.sendQueueSize = wsMinSendQueueSize
	}

	g.heartbeatEvery = envDurationWS("FOREVER_WS_HEARTBEAT_INTERVAL", heartbeatInterval)
	g.heartbeatTimeout = envDurationWS("FOREVER_WS_HEARTBEAT_TIMEOUT", heartbeatTimeout)

	g.rateEvents = envIntWS("FOREVER_WS_RATE_EVENTS", rateLimitEvents)
	g.rateWindow = envDurationWS("FOREVER_WS_RATE_WINDOW", rateLimitWindow)

	return g
}

// ServeHTTP adapter so it can be mounted as http.Handler.
func (g *WSGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.HandleWS(w, r)
}

// HandleWS upgrades an HTTP request to a websocket session and runs the relay loop.
//
// Connection state machine: Unauthenticated -> Authenticated -> Closed.
// The identity must verify before any registry interaction; an unverifiable
// handshake closes with 401 and touches nothing.
func (g *WSGateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	if err := g.enforceOrigin(r); err != nil {
		g.log.Info("ws.reject.origin", "err", err, "origin", r.Header.Get("Origin"), "remote", r.RemoteAddr)
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	authCtx, authCancel := context.WithTimeout(r.Context(), g.handshakeTimeout)
	identity, err := g.authenticate(authCtx, r)
	authCancel()
	if err != nil {
		g.log.Info("ws.reject.auth", "err", err, "remote", r.RemoteAddr)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:       []string{wsSubprotocolV1},
		OriginPatterns:     g.originPatterns,
		InsecureSkipVerify: g.devInsecure,
	})
	if err != nil {
		g.log.Error("ws.accept.fail", "err", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "bye") }()

	if sp := conn.Subprotocol(); sp != wsSubprotocolV1 {
		g.log.Info("ws.reject.subprotocol", "got", sp, "want", wsSubprotocolV1)
		_ = conn.Close(websocket.StatusProtocolError, "subprotocol required")
		return
	}

	conn.SetReadLimit(maxFrameBytes)

	connID, err := NewConnID(time.Now().UTC())
	if err != nil {
		g.log.Error("ws.connid.fail", "err", err)
		_ = conn.Close(websocket.StatusInternalError, "id generation failed")
		return
	}
	client := NewClient(identity.UserID, connID, g.sendQueueSize)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Authenticated: bind to the registry, announce presence on an actual
	// offline -> online transition (not on every extra device).
	if g.reg.Register(client) {
		g.presence.Publish()
	}
	g.log.Info("ws.connect", "conn_id", connID, "user_id", identity.UserID)

	// shutdown is idempotent and guards the single deregistration per close
	// event. It does NOT close client.Send; fan-out stays panic-safe.
	var closeOnce sync.Once
	shutdown := func(code websocket.StatusCode, reason string) {
		closeOnce.Do(func() {
			if g.reg.Deregister(identity.UserID, connID) {
				g.presence.Publish()
			}
			client.Close()
			_ = conn.Close(code, reason)
			cancel()
			g.log.Info("ws.disconnect", "conn_id", connID, "user_id", identity.UserID, "reason", reason)
		})
	}

	rl := NewRateLimiter(g.rateEvents, g.rateWindow)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)

		for {
			select {
			case <-ctx.Done():
				return
			case <-client.Done():
				return
			case env := <-client.Send:
				if err := writeEnvelope(ctx, conn, env, g.writeTimeout); err != nil {
					g.log.Info("ws.write.fail", "conn_id", connID, "close_status", websocket.CloseStatus(err), "err", err)
					shutdown(websocket.StatusAbnormalClosure, "write failed")
					return
				}
			}
		}
	}()

	heartbeatDone := make(chan struct{})
	go func() {
		defer close(heartbeatDone)

		t := time.NewTicker(g.heartbeatEvery)
		defer t.Stop()

		failures := 0
		for {
			select {
			case <-ctx.Done():
				return
			case <-client.Done():
				return
			case <-t.C:
				hbCtx, hbCancel := context.WithTimeout(ctx, g.heartbeatTimeout)
				err := conn.Ping(hbCtx)
				hbCancel()

				if err != nil {
					failures++
					g.log.Info("ws.ping.fail", "conn_id", connID, "failures", failures, "err", err)
					if failures >= wsMaxPingFailures {
						shutdown(websocket.StatusGoingAway, "heartbeat failed")
						return
					}
					continue
				}
				failures = 0
			}
		}
	}()

readLoop:
	for {
		// The relay's teardown path also runs through client.Close without a
		// websocket event (e.g. a full send queue); notice it here.
		select {
		case <-client.Done():
			shutdown(websocket.StatusGoingAway, "client closed")
			break readLoop
		default:
		}

		readCtx, readCancel := context.WithTimeout(ctx, g.readIdleTimeout)
		env, err := readEnvelope(readCtx, conn)
		readCancel()

		if err != nil {
			switch classifyReadErr(err) {
			case readErrClose:
				shutdown(websocket.StatusNormalClosure, "peer closed")
				break readLoop
			case readErrCtxDone:
				shutdown(websocket.StatusNormalClosure, "context done")
				break readLoop
			case readErrConnClosed:
				shutdown(websocket.StatusAbnormalClosure, "conn closed")
				break readLoop
			case readErrBadJSON:
				g.trySendError(ctx, client, "bad_json", "invalid JSON")
				continue readLoop
			default:
				g.log.Info("ws.read.fail", "conn_id", connID, "err", err)
				shutdown(websocket.StatusAbnormalClosure, "read failed")
				break readLoop
			}
		}

		now := time.Now().UTC()
		if !rl.Allow(now) {
			g.trySendError(ctx, client, "rate_limited", "too many events")
			shutdown(websocket.StatusPolicyViolation, "rate limited")
			break readLoop
		}

		if err := env.Validate(); err != nil {
			g.trySendError(ctx, client, "bad_envelope", err.Error())
			continue readLoop
		}

		switch env.Type {
		case v1.TypeTyping:
			g.onTyping(identity, env)

		case v1.TypeMessageSend:
			g.onMessageSend(ctx, client, identity, env, now)

		case v1.TypeLogout:
			shutdown(websocket.StatusNormalClosure, "logout")
			break readLoop

		default:
			g.trySendError(ctx, client, "unsupported", fmt.Sprintf("unsupported type: %s", env.Type))
		}
	}

	shutdown(websocket.StatusNormalClosure, "bye")
	<-writerDone

	select {
	case <-heartbeatDone:
	case <-time.After(wsCloseGrace):
	}
}

// ---- handshake auth ----

// authenticate resolves the pre-verified identity for the connection.
// The token travels as ?token= or an Authorization bearer header.
func (g *WSGateway) authenticate(ctx context.Context, r *http.Request) (Identity, error) {
	if g.verifier == nil {
		return Identity{}, errors.New("no identity verifier configured")
	}

	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		auth := strings.TrimSpace(r.Header.Get("Authorization"))
		token = strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	if token == "" {
		return Identity{}, errors.New("missing token")
	}

	id, err := g.verifier.Verify(ctx, token, time.Now().UTC())
	if err != nil {
		return Identity{}, err
	}
	if strings.TrimSpace(id.UserID) == "" {
		return Identity{}, errors.New("verifier returned empty user id")
	}
	return id, nil
}

// ---- frame handlers ----

func (g *WSGateway) onTyping(identity Identity, env v1.Envelope) {
	var p v1.TypingPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		// Typing is best-effort; a malformed signal is dropped, not errored.
		return
	}
	g.typing.Relay(identity.UserID, strings.TrimSpace(p.ToUser), p.IsTyping)
}

// onMessageSend runs one send through the relay and reports the result (ack
// or error) only to the originating connection. The persisted-record push to
// sender/recipient connections happens inside the relay fan-out.
func (g *WSGateway) onMessageSend(ctx context.Context, client *Client, identity Identity, env v1.Envelope, now time.Time) {
	var p v1.MessageSendPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		g.trySendMessageError(ctx, client, "bad_payload", "invalid payload", "")
		return
	}

	stored, err := g.relay.Send(ctx, identity.UserID, strings.TrimSpace(p.ToUser), p.Content, p.ContentType)
	if err != nil {
		code := "send_failed"
		switch {
		case errors.Is(err, ErrInvalidMessage):
			code = "invalid_message"
		case errors.Is(err, ErrPersistenceFailure):
			code = "persistence_failure"
		}
		g.trySendMessageError(ctx, client, code, err.Error(), p.ClientMsgID)
		return
	}

	ackPayload, _ := json.Marshal(v1.MessagePayload{
		ID:          stored.ID,
		Sender:      stored.Sender,
		Recipient:   stored.Recipient,
		Content:     stored.Content,
		ContentType: stored.ContentType,
		CreatedAt:   stored.CreatedAt,
		ClientMsgID: p.ClientMsgID,
	})
	g.enqueue(ctx, client, newEnvelope(v1.TypeMessageAck, ackPayload, now))
}

// ---- send helpers ----

func (g *WSGateway) trySendError(ctx context.Context, client *Client, code, msg string) {
	p, _ := json.Marshal(v1.ErrorPayload{Code: code, Message: msg})
	g.enqueue(ctx, client, newEnvelope(v1.TypeError, p, time.Now().UTC()))
}

func (g *WSGateway) trySendMessageError(ctx context.Context, client *Client, code, msg, clientMsgID string) {
	p, _ := json.Marshal(v1.MessageErrorPayload{Code: code, Message: msg, ClientMsgID: clientMsgID})
	g.enqueue(ctx, client, newEnvelope(v1.TypeMessageError, p, time.Now().UTC()))
}

func (g *WSGateway) enqueue(ctx context.Context, client *Client, env v1.Envelope) bool {
	select {
	case <-ctx.Done():
		return false
	case <-client.Done():
		return false
	case client.Send <- env:
		return true
	default:
		return false
	}
}

// ---- envelope IO ----

func readEnvelope(ctx context.Context, conn *websocket.Conn) (v1.Envelope, error) {
	mt, data, err := conn.Read(ctx)
	if err != nil {
		return v1.Envelope{}, err
	}
	if mt != websocket.MessageText && mt != websocket.MessageBinary {
		return v1.Envelope{}, fmt.Errorf("unsupported message type: %v", mt)
	}
	var env v1.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return v1.Envelope{}, err
	}
	return env, nil
}

func writeEnvelope(parent context.Context, conn *websocket.Conn, env v1.Envelope, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, b)
}

// ---- read error classification ----

type readErrKind uint8

const (
	readErrUnknown readErrKind = iota
	readErrClose
	readErrCtxDone
	readErrConnClosed
	readErrBadJSON
)

func classifyReadErr(err error) readErrKind {
	if websocket.CloseStatus(err) != -1 {
		return readErrClose
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return readErrCtxDone
	}
	if errors.Is(err, net.ErrClosed) || errors.Is(err, io.EOF) {
		return readErrConnClosed
	}

	// JSON decode errors are typically returned by json.Unmarshal, not conn.Read.
	// This fallback exists for robustness when error strings are propagated.
	s := err.Error()
	if strings.Contains(s, "unexpected end of JSON input") || strings.Contains(s, "invalid character") {
		return readErrBadJSON
	}
	return readErrUnknown
}

// ---- origin policy ----

func (g *WSGateway) enforceOrigin(r *http.Request) error {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		if g.originRequired {
			return errors.New("missing origin")
		}
		return nil
	}

	if len(g.allowedOrigins) == 0 {
		return errors.New("origin not allowed (no allowlist)")
	}

	originHost := originHostOnly(origin)

	for _, a := range g.allowedOrigins {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if a == "*" {
			// Strongly discouraged, but honored if explicitly configured.
			return nil
		}
		if origin == a {
			return nil
		}
		// Host match fallback (ignores port/scheme).
		if originHost != "" && originHost == originHostOnly(a) {
			return nil
		}
	}

	return fmt.Errorf("origin not allowed: %s", origin)
}

func originHostOnly(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	if strings.Contains(s, "://") {
		u, err := url.Parse(s)
		if err != nil {
			return ""
		}
		h := strings.TrimSpace(u.Host)
		if h == "" {
			return ""
		}
		if host, _, err := net.SplitHostPort(h); err == nil {
			return strings.ToLower(host)
		}
		return strings.ToLower(h)
	}

	if host, _, err := net.SplitHostPort(s); err == nil {
		return strings.ToLower(host)
	}
	return strings.ToLower(s)
}

// deriveOriginPatterns extracts host patterns for websocket.Accept from the
// allowlist, so both origin layers agree on what is acceptable.
func deriveOriginPatterns(allowed []string) []string {
	seen := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		h := originHostOnly(a)
		if h == "" || h == "*" {
			continue
		}
		seen[h] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for h := range seen {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}

// ---- env helpers ----

func envBoolWS(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envIntWS(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envDurationWS(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func envCSVWS(key string, def string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		raw = def
	}
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
