// SPDX-License-Identifier: MIT

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ManuGH/vidfetch/internal/metrics"
	"github.com/go-chi/httprate"
)

// RateLimitMessage is the body message of a 429 response.
const RateLimitMessage = "Too many requests. Please try again later."

// RateLimitConfig holds configuration for rate limiting middleware.
type RateLimitConfig struct {
	// RequestLimit is the maximum number of requests allowed in the window
	RequestLimit int
	// WindowSize is the time window for rate limiting
	WindowSize time.Duration
	// TrustXFF keys by X-Forwarded-For / X-Real-IP instead of the peer address.
	TrustXFF bool
}

// RateLimit creates a sliding-window rate limiter keyed by client IP.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	keyFunc := httprate.KeyByIP
	if cfg.TrustXFF {
		keyFunc = httprate.KeyByRealIP
	}

	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowSize,
		httprate.WithKeyFuncs(keyFunc),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.IncRateLimitRejected("api")
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", strconv.Itoa(int(cfg.WindowSize.Seconds())))
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"message":"` + RateLimitMessage + `"}`))
		}),
	)
}
