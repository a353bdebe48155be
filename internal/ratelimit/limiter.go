// SPDX-License-Identifier: MIT

// Package ratelimit admits download requests per client IP.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ManuGH/vidfetch/internal/metrics"
	"golang.org/x/time/rate"
)

// Config holds rate limiting configuration.
type Config struct {
	// Global limits across all clients.
	GlobalRate  rate.Limit
	GlobalBurst int

	// Per-IP limits.
	PerIPRate  rate.Limit
	PerIPBurst int

	// Idle per-IP limiters are dropped after IdleTTL.
	IdleTTL time.Duration
}

// DefaultConfig returns defaults for the download route.
func DefaultConfig() Config {
	return Config{
		GlobalRate:  20,
		GlobalBurst: 40,
		PerIPRate:   1,
		PerIPBurst:  3,
		IdleTTL:     10 * time.Minute,
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter is a global plus per-IP token bucket.
type Limiter struct {
	config Config
	global *rate.Limiter
	now    func() time.Time

	mu          sync.Mutex
	perIP       map[string]*visitor
	lastCleanup time.Time
}

// New creates a limiter with the given config.
func New(config Config) *Limiter {
	return &Limiter{
		config:      config,
		global:      rate.NewLimiter(config.GlobalRate, config.GlobalBurst),
		now:         time.Now,
		perIP:       make(map[string]*visitor),
		lastCleanup: time.Now(),
	}
}

// Allow reports whether a request from clientIP may proceed.
func (l *Limiter) Allow(clientIP string) bool {
	now := l.now()

	l.mu.Lock()
	v := l.visitor(clientIP, now)
	l.maybeCleanup(now)
	l.mu.Unlock()

	// Per-IP first so one noisy client does not drain the global bucket.
	if !v.limiter.AllowN(now, 1) {
		metrics.IncRateLimitRejected("per_ip")
		return false
	}
	if !l.global.AllowN(now, 1) {
		metrics.IncRateLimitRejected("global")
		return false
	}
	return true
}

// Tracked returns the number of client IPs currently held.
func (l *Limiter) Tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.perIP)
}

func (l *Limiter) visitor(ip string, now time.Time) *visitor {
	v, ok := l.perIP[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.config.PerIPRate, l.config.PerIPBurst)}
		l.perIP[ip] = v
	}
	v.lastSeen = now
	return v
}

// maybeCleanup drops visitors idle for longer than IdleTTL. Caller holds mu.
func (l *Limiter) maybeCleanup(now time.Time) {
	if l.config.IdleTTL <= 0 || now.Sub(l.lastCleanup) < l.config.IdleTTL {
		return
	}
	for ip, v := range l.perIP {
		if now.Sub(v.lastSeen) >= l.config.IdleTTL {
			delete(l.perIP, ip)
		}
	}
	l.lastCleanup = now
}

// ClientIP extracts the client IP. Forwarding headers are honoured only when
// trustProxy is set.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			// "client, proxy1, proxy2": the first entry is the original client.
			first, _, _ := strings.Cut(xff, ",")
			if first = strings.TrimSpace(first); first != "" {
				return first
			}
		}
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			return xri
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
