// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api provides the public HTTP surface of vidfetch.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/ManuGH/vidfetch/internal/api/middleware"
	"github.com/ManuGH/vidfetch/internal/auth"
	"github.com/ManuGH/vidfetch/internal/download"
	"github.com/ManuGH/vidfetch/internal/health"
	"github.com/ManuGH/vidfetch/internal/ratelimit"
	"github.com/go-chi/chi/v5"
)

// BasePath is the prefix of every API route.
const BasePath = "/api/v1"

const defaultMaxBodyBytes = 1 << 20

// InfoFetcher returns the raw extractor metadata document for a URL.
type InfoFetcher interface {
	Metadata(ctx context.Context, url string) ([]byte, error)
}

// AuthService is the account and session surface used by the handlers.
type AuthService interface {
	auth.Authenticator
	auth.Verifier
	SignUp(ctx context.Context, email, password string) error
	SignOut(ctx context.Context, p *auth.Principal) error
}

// RouteLimit configures the sliding-window limiter on BasePath.
type RouteLimit struct {
	Enabled  bool
	Requests int
	Window   time.Duration
}

// Deps are the collaborators of a Server.
type Deps struct {
	Extractor InfoFetcher
	Streamer  *download.Streamer
	Auth      AuthService
	Health    *health.Manager

	// DownloadLimiter admits download starts per client IP. Nil disables it.
	DownloadLimiter *ratelimit.Limiter

	Stack        middleware.StackConfig
	RateLimit    RouteLimit
	TrustProxy   bool
	MaxBodyBytes int64
}

// Server serves the vidfetch API.
type Server struct {
	extractor    InfoFetcher
	streamer     *download.Streamer
	auth         AuthService
	health       *health.Manager
	downloads    *ratelimit.Limiter
	stack        middleware.StackConfig
	rateLimit    RouteLimit
	trustProxy   bool
	maxBodyBytes int64
}

// New returns a Server.
func New(deps Deps) *Server {
	if deps.MaxBodyBytes <= 0 {
		deps.MaxBodyBytes = defaultMaxBodyBytes
	}
	if deps.Health == nil {
		deps.Health = health.NewManager("")
	}
	return &Server{
		extractor:    deps.Extractor,
		streamer:     deps.Streamer,
		auth:         deps.Auth,
		health:       deps.Health,
		downloads:    deps.DownloadLimiter,
		stack:        deps.Stack,
		rateLimit:    deps.RateLimit,
		trustProxy:   deps.TrustProxy,
		maxBodyBytes: deps.MaxBodyBytes,
	}
}

// Handler builds the routed handler with the middleware stack applied.
func (s *Server) Handler() http.Handler {
	r := middleware.NewRouter(s.stack)

	r.Get("/healthz", s.health.ServeHealth)
	r.Get("/readyz", s.health.ServeReady)

	r.Route(BasePath, func(r chi.Router) {
		if s.rateLimit.Enabled && s.rateLimit.Requests > 0 && s.rateLimit.Window > 0 {
			r.Use(middleware.RateLimit(middleware.RateLimitConfig{
				RequestLimit: s.rateLimit.Requests,
				WindowSize:   s.rateLimit.Window,
				TrustXFF:     s.trustProxy,
			}))
		}

		r.Route("/user", func(r chi.Router) {
			r.Post("/signup", s.handleSignUp)
			r.Post("/signin", s.handleSignIn)
			r.With(s.requireAuth).Post("/signout", s.handleSignOut)
		})

		r.Route("/video", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/info", s.handleVideoInfo)
			r.With(s.admitDownload).Get("/download", s.handleDownload)
		})
	})

	return r
}
