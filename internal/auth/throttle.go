package auth

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LoginThrottle applies a token bucket per client key (usually remote IP)
// and periodically evicts idle entries.
type LoginThrottle struct {
	limit   rate.Limit
	burst   int
	mu      sync.Mutex
	byKey   map[string]*throttleEntry
	hits    uint64
	idleTTL time.Duration
}

type throttleEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLoginThrottle creates a key-based limiter; returns nil if args are invalid.
// A nil throttle allows everything, so callers can pass it through unchecked.
func NewLoginThrottle(rps float64, burst int, idleTTL time.Duration) *LoginThrottle {
	if rps <= 0 || burst <= 0 {
		return nil
	}
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}
	return &LoginThrottle{
		limit:   rate.Limit(rps),
		burst:   burst,
		byKey:   make(map[string]*throttleEntry),
		idleTTL: idleTTL,
	}
}

// Allow reports whether one token can be consumed for the key at now.
func (l *LoginThrottle) Allow(key string, now time.Time) bool {
	if l == nil {
		return true
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.byKey[key]
	if !ok {
		e = &throttleEntry{
			limiter:  rate.NewLimiter(l.limit, l.burst),
			lastSeen: now,
		}
		l.byKey[key] = e
	}
	e.lastSeen = now
	allowed := e.limiter.AllowN(now, 1)

	l.hits++
	if l.hits%512 == 0 {
		cutoff := now.Add(-l.idleTTL)
		for k, v := range l.byKey {
			if v.lastSeen.Before(cutoff) {
				delete(l.byKey, k)
			}
		}
	}

	return allowed
}
