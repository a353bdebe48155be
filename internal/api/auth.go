// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"net/http"

	"github.com/ManuGH/vidfetch/internal/api/middleware"
	"github.com/ManuGH/vidfetch/internal/auth"
	"github.com/ManuGH/vidfetch/internal/log"
	"github.com/ManuGH/vidfetch/internal/ratelimit"
)

// requireAuth enforces a valid, unrevoked bearer token and stores the
// principal in the request context. Verification failures that are not token
// errors (revocation store down) fail closed with a 500.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.WithComponentFromContext(r.Context(), "auth")

		token, err := auth.ExtractBearer(r)
		if err != nil {
			logger.Debug().Str(log.FieldEvent, "auth.missing_header").Msg("authorization header missing")
			writeError(w, r, err, msgAuthError)
			return
		}

		p, err := s.auth.Verify(r.Context(), token)
		if err != nil {
			logger.Debug().Err(err).Str(log.FieldEvent, "auth.rejected").Msg("token rejected")
			writeError(w, r, err, msgAuthError)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.ContextWithPrincipal(r.Context(), p)))
	})
}

// admitDownload applies per-IP download admission ahead of spawning a process.
func (s *Server) admitDownload(next http.Handler) http.Handler {
	if s.downloads == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ratelimit.ClientIP(r, s.trustProxy)
		if !s.downloads.Allow(ip) {
			logger := log.WithComponentFromContext(r.Context(), "ratelimit")
			logger.Warn().
				Str(log.FieldRemote, ip).
				Str(log.FieldEvent, "download.rate_limited").
				Msg("download admission denied")
			w.Header().Set("Retry-After", "1")
			writeMessage(w, r, http.StatusTooManyRequests, middleware.RateLimitMessage)
			return
		}
		next.ServeHTTP(w, r)
	})
}
