// Package app wires the Forever server runtime: config, logging, HTTP routes,
// the auth and history APIs, and the realtime websocket gateway.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/MSC-0013/FOREVER/internal/api"
	"github.com/MSC-0013/FOREVER/internal/auth"
	"github.com/MSC-0013/FOREVER/internal/realtime"

	"github.com/jackc/pgx/v5/pgxpool"
)

// App is the Forever server runtime: it owns HTTP server wiring and the
// storage lifecycle behind the relay and APIs.
type App struct {
	cfg Config
	log Logger

	dbPool    *pgxpool.Pool
	dbEnabled bool

	messages realtime.MessageStore
	users    auth.UserStore
	contacts api.ContactStore

	ws          *realtime.WSGateway
	authHandler *auth.Handler
	apiHandler  *api.Handler
}

// New constructs a fully wired App instance from config and logger.
func New(cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel)
	}

	if len(cfg.TokenSecret) < 32 {
		return nil, errors.New("app: FOREVER_TOKEN_SECRET must be set (>= 32 bytes)")
	}
	tokens, err := auth.NewTokenManager([]byte(cfg.TokenSecret), cfg.TokenIssuer, cfg.TokenTTL)
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, log: log}
	if err := a.initStores(context.Background()); err != nil {
		return nil, err
	}

	throttle := auth.NewLoginThrottle(cfg.LoginRatePerSec, cfg.LoginBurst, 10*time.Minute)

	reg := realtime.NewRegistry()
	a.ws = realtime.NewWSGateway(log, reg, a.messages, tokens.IdentityVerifier())
	a.authHandler = auth.NewHandler(log, a.users, tokens, throttle)
	a.apiHandler = api.NewHandler(log, a.messages, a.users, a.contacts, tokens)

	return a, nil
}

// initStores decides between Postgres-backed persistence and in-memory dev stores.
func (a *App) initStores(ctx context.Context) error {
	if a.cfg.DatabaseURL == "" {
		a.log.Info("db.disabled.inmemory_stores")
		a.messages = realtime.NewInMemoryStore()
		a.users = auth.NewInMemoryUserStore()
		a.contacts = api.NewInMemoryContactStore()
		return nil
	}

	pool, err := NewDBPool(ctx, a.cfg)
	if err != nil {
		return err
	}

	messages, err := realtime.NewPostgresStore(pool)
	if err != nil {
		pool.Close()
		return err
	}
	users, err := auth.NewPostgresUserStore(pool)
	if err != nil {
		pool.Close()
		return err
	}
	contacts, err := api.NewPostgresContactStore(pool)
	if err != nil {
		pool.Close()
		return err
	}

	a.log.Info("db.enabled.postgres_stores")
	a.dbPool = pool
	a.dbEnabled = true
	a.messages = messages
	a.users = users
	a.contacts = contacts
	return nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal server error.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.cfg, a.dbPool, a.dbEnabled, a.ws, a.authHandler, a.apiHandler)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           WithRequestLogging(mux, a.log),
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.dbEnabled)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	a.closeStores()
	a.log.Info("server.stopped")
	return nil
}

func (a *App) closeStores() {
	if a.messages != nil {
		_ = a.messages.Close()
	}
	if a.users != nil {
		_ = a.users.Close()
	}
	if a.contacts != nil {
		_ = a.contacts.Close()
	}
	if a.dbPool != nil {
		a.dbPool.Close()
	}
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
