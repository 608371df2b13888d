package app

import "time"

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr string
	LogLevel string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// If true, /readyz returns 503 unless DB is configured and reachable.
	ReadinessRequireDB bool

	// Token signing. Secret must be >= 32 bytes; when empty the app refuses
	// to start (tokens gate every endpoint, there is no insecure fallback).
	TokenSecret string
	TokenIssuer string
	TokenTTL    time.Duration

	// Per-IP login throttle.
	LoginRatePerSec float64
	LoginBurst      int
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr: EnvString("FOREVER_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel: EnvString("FOREVER_LOG_LEVEL", "info"),

		ReadHeaderTimeout: EnvDuration("FOREVER_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("FOREVER_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("FOREVER_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("FOREVER_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("FOREVER_HTTP_MAX_HEADER_BYTES", 1<<20),

		DatabaseURL: EnvString("FOREVER_DATABASE_URL", ""),
		DBMaxConns:  EnvInt32("FOREVER_DB_MAX_CONNS", 10),
		DBMinConns:  EnvInt32("FOREVER_DB_MIN_CONNS", 0),

		ReadinessRequireDB: EnvBool("FOREVER_READINESS_REQUIRE_DB", false),

		TokenSecret: EnvString("FOREVER_TOKEN_SECRET", ""),
		TokenIssuer: EnvString("FOREVER_TOKEN_ISSUER", "forever"),
		TokenTTL:    EnvDuration("FOREVER_TOKEN_TTL", 24*time.Hour),

		LoginRatePerSec: EnvFloat("FOREVER_LOGIN_RATE_PER_SEC", 1),
		LoginBurst:      EnvInt("FOREVER_LOGIN_BURST", 5),
	}
}
