// SPDX-License-Identifier: MIT

// Package daemon wires the vidfetch components together and manages the
// server lifecycle.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ManuGH/vidfetch/internal/api"
	"github.com/ManuGH/vidfetch/internal/api/middleware"
	"github.com/ManuGH/vidfetch/internal/auth"
	"github.com/ManuGH/vidfetch/internal/cache"
	"github.com/ManuGH/vidfetch/internal/config"
	"github.com/ManuGH/vidfetch/internal/download"
	"github.com/ManuGH/vidfetch/internal/extractor"
	"github.com/ManuGH/vidfetch/internal/health"
	"github.com/ManuGH/vidfetch/internal/log"
	"github.com/ManuGH/vidfetch/internal/persistence/sqlite"
	"github.com/ManuGH/vidfetch/internal/ratelimit"
	"github.com/ManuGH/vidfetch/internal/telemetry"
	"github.com/ManuGH/vidfetch/internal/users"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

const (
	serviceName          = "vidfetch"
	cacheCleanupInterval = time.Minute
)

// Runtime is the assembled application: the handlers to serve and the
// resources to release on shutdown.
type Runtime struct {
	Handler        http.Handler
	MetricsHandler http.Handler
	Health         *health.Manager

	hooks []namedHook
}

// RegisterShutdownHooks hands the runtime's resources to m. Hooks run LIFO,
// so the user store closes before the cache and tracing flushes last.
func (rt *Runtime) RegisterShutdownHooks(m Manager) {
	for _, h := range rt.hooks {
		m.RegisterShutdownHook(h.name, h.hook)
	}
}

// Close releases every resource immediately, in reverse order.
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error
	for i := len(rt.hooks) - 1; i >= 0; i-- {
		if err := rt.hooks[i].hook(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", rt.hooks[i].name, err))
		}
	}
	return errors.Join(errs...)
}

func (rt *Runtime) onShutdown(name string, hook ShutdownHook) {
	rt.hooks = append(rt.hooks, namedHook{name: name, hook: hook})
}

// Bootstrap builds every component from the holder's current configuration.
// On error, anything already opened is released.
func Bootstrap(ctx context.Context, holder *config.Holder) (_ *Runtime, err error) {
	cfg := holder.Get()
	logger := log.WithComponent("bootstrap")
	rt := &Runtime{}

	defer func() {
		if err != nil {
			_ = rt.Close(context.WithoutCancel(ctx))
		}
	}()

	holder.OnReload(func(old, updated config.AppConfig) {
		if old.LogLevel == updated.LogLevel {
			return
		}
		if err := log.SetLevel(updated.LogLevel); err != nil {
			logger.Warn().Err(err).Str("level", updated.LogLevel).Msg("ignoring invalid log level")
		}
	})

	provider, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    serviceName,
		ServiceVersion: cfg.Version,
		ExporterType:   cfg.Tracing.Exporter,
		Endpoint:       cfg.Tracing.Endpoint,
		SamplingRate:   cfg.Tracing.SamplingRate,
	})
	if err != nil {
		// Tracing is optional; the service runs without it.
		logger.Warn().Err(err).Msg("telemetry initialization failed, continuing without tracing")
	} else {
		rt.onShutdown("telemetry", provider.Shutdown)
	}

	revocations, err := newCache(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	rt.onShutdown("cache", func(context.Context) error { return revocations.Close() })

	store, err := users.NewSqliteStore(ctx, cfg.Auth.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open user store: %w", err)
	}
	rt.onShutdown("user-store", func(context.Context) error { return store.Close() })

	problems, err := sqlite.VerifyIntegrity(ctx, store.DB, false)
	if err != nil {
		return nil, fmt.Errorf("verify user store: %w", err)
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("user store integrity check failed: %s", strings.Join(problems, "; "))
	}

	authService := auth.NewService(
		store,
		auth.NewSigner(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		auth.NewRevocationStore(revocations),
	)

	client := extractor.NewClient(extractor.Options{
		Bin:             cfg.Extractor.Bin,
		CookiesFile:     holder.CookiesFile,
		MetadataTimeout: cfg.Extractor.MetadataTimeout,
		Runner:          extractor.NewExecRunner(cfg.Extractor.KillGrace),
	})

	rt.Health = health.NewManager(cfg.Version)
	rt.Health.RegisterChecker(health.NewPingChecker("extractor", client.Check))
	rt.Health.RegisterChecker(health.NewPingChecker("user_store", store.Ping))
	rt.Health.RegisterChecker(health.NewPingChecker("cache", revocations.Ping))
	rt.Health.RegisterChecker(health.NewFileChecker("cookies", holder.CookiesFile, true))

	tracingService := ""
	if cfg.Tracing.Enabled {
		tracingService = serviceName + "-api"
	}

	server := api.New(api.Deps{
		Extractor:       client,
		Streamer:        download.NewStreamer(client),
		Auth:            authService,
		Health:          rt.Health,
		DownloadLimiter: newDownloadLimiter(cfg.RateLimit),
		Stack: middleware.StackConfig{
			EnableCORS:            true,
			AllowedOrigins:        cfg.AllowedOrigins,
			EnableSecurityHeaders: true,
			CSP:                   middleware.DefaultCSP,
			EnableMetrics:         true,
			TracingService:        tracingService,
			EnableLogging:         true,
		},
		RateLimit: api.RouteLimit{
			Enabled:  cfg.RateLimit.Enabled,
			Requests: cfg.RateLimit.Requests,
			Window:   cfg.RateLimit.Window,
		},
		TrustProxy:   cfg.RateLimit.TrustProxy,
		MaxBodyBytes: cfg.API.MaxBodyBytes,
	})
	rt.Handler = server.Handler()

	if cfg.Metrics.Enabled {
		rt.MetricsHandler = promhttp.Handler()
	}

	logger.Info().
		Str("extractor", cfg.Extractor.Bin).
		Str("db_path", cfg.Auth.DBPath).
		Bool("redis", cfg.Redis.Addr != "").
		Bool("tracing", cfg.Tracing.Enabled).
		Msg("components initialized")

	return rt, nil
}

// newCache selects Redis when an address is configured, else the in-process cache.
func newCache(ctx context.Context, cfg config.RedisConfig) (cache.Cache, error) {
	if cfg.Addr == "" {
		return cache.NewMemoryCache(cacheCleanupInterval), nil
	}
	c, err := cache.NewRedisCache(ctx, cache.RedisConfig{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}, log.WithComponent("cache"))
	if err != nil {
		return nil, fmt.Errorf("connect revocation cache: %w", err)
	}
	return c, nil
}

// newDownloadLimiter returns nil when rate limiting is disabled.
func newDownloadLimiter(cfg config.RateLimitConfig) *ratelimit.Limiter {
	if !cfg.Enabled || cfg.DownloadRPS <= 0 {
		return nil
	}
	lc := ratelimit.DefaultConfig()
	lc.PerIPRate = rate.Limit(cfg.DownloadRPS)
	if cfg.DownloadBurst > 0 {
		lc.PerIPBurst = cfg.DownloadBurst
	}
	return ratelimit.New(lc)
}
