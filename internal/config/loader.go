// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variable names. Every key is prefixed with VIDFETCH_.
const (
	EnvListen          = "VIDFETCH_LISTEN"
	EnvLogLevel        = "VIDFETCH_LOG_LEVEL"
	EnvDataDir         = "VIDFETCH_DATA"
	EnvAllowedOrigins  = "VIDFETCH_ALLOWED_ORIGINS"
	EnvShutdownTimeout = "VIDFETCH_SHUTDOWN_TIMEOUT"

	EnvExtractorBin    = "VIDFETCH_YTDLP_BIN"
	EnvCookiesFile     = "VIDFETCH_COOKIES_FILE"
	EnvMetadataTimeout = "VIDFETCH_METADATA_TIMEOUT"
	EnvKillGrace       = "VIDFETCH_KILL_GRACE"

	EnvJWTSecret = "VIDFETCH_JWT_SECRET"
	EnvTokenTTL  = "VIDFETCH_TOKEN_TTL"
	EnvDBPath    = "VIDFETCH_DB_PATH"

	EnvRedisAddr     = "VIDFETCH_REDIS_ADDR"
	EnvRedisPassword = "VIDFETCH_REDIS_PASSWORD"
	EnvRedisDB       = "VIDFETCH_REDIS_DB"

	EnvMetricsEnabled = "VIDFETCH_METRICS_ENABLED"
	EnvMetricsAddr    = "VIDFETCH_METRICS_ADDR"

	EnvTracingEnabled      = "VIDFETCH_TRACING_ENABLED"
	EnvTracingExporter     = "VIDFETCH_TRACING_EXPORTER"
	EnvTracingEndpoint     = "VIDFETCH_TRACING_ENDPOINT"
	EnvTracingSamplingRate = "VIDFETCH_TRACING_SAMPLING_RATE"

	EnvRateLimitEnabled       = "VIDFETCH_RATELIMIT_ENABLED"
	EnvRateLimitRequests      = "VIDFETCH_RATELIMIT_REQUESTS"
	EnvRateLimitWindow        = "VIDFETCH_RATELIMIT_WINDOW"
	EnvRateLimitDownloadRPS   = "VIDFETCH_RATELIMIT_DOWNLOAD_RPS"
	EnvRateLimitDownloadBurst = "VIDFETCH_RATELIMIT_DOWNLOAD_BURST"
	EnvRateLimitTrustProxy    = "VIDFETCH_RATELIMIT_TRUST_PROXY"
)

// Loader handles configuration loading with precedence
type Loader struct {
	configPath string
	version    string
}

// NewLoader creates a new configuration loader
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath: configPath,
		version:    version,
	}
}

// Path returns the config file path, empty when running from ENV only.
func (l *Loader) Path() string {
	return l.configPath
}

// Load loads configuration with precedence: ENV > File > Defaults
// It enforces Strict Validated Order: Parse File (Strict) -> Apply Env -> Validate
func (l *Loader) Load() (AppConfig, error) {
	cfg := Default()

	if l.configPath != "" {
		if err := l.loadFile(l.configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	mergeEnv(&cfg)
	cfg.resolvePaths()
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile decodes the YAML file over the defaults in cfg with STRICT parsing.
// Unknown fields cause an error to prevent silent misconfiguration.
func (l *Loader) loadFile(path string, cfg *AppConfig) error {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return fmt.Errorf("%w: %v", ErrUnknownConfigField, err)
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return ErrMultipleDocuments
	}
	return nil
}

// mergeEnv overrides cfg with VIDFETCH_* environment variables.
func mergeEnv(cfg *AppConfig) {
	cfg.API.ListenAddr = ParseString(EnvListen, cfg.API.ListenAddr)
	cfg.API.ShutdownTimeout = ParseDuration(EnvShutdownTimeout, cfg.API.ShutdownTimeout)
	cfg.LogLevel = ParseString(EnvLogLevel, cfg.LogLevel)
	cfg.DataDir = ParseString(EnvDataDir, cfg.DataDir)
	cfg.AllowedOrigins = ParseList(EnvAllowedOrigins, cfg.AllowedOrigins)

	cfg.Extractor.Bin = ParseString(EnvExtractorBin, cfg.Extractor.Bin)
	cfg.Extractor.CookiesFile = ParseString(EnvCookiesFile, cfg.Extractor.CookiesFile)
	cfg.Extractor.MetadataTimeout = ParseDuration(EnvMetadataTimeout, cfg.Extractor.MetadataTimeout)
	cfg.Extractor.KillGrace = ParseDuration(EnvKillGrace, cfg.Extractor.KillGrace)

	cfg.Auth.JWTSecret = ParseString(EnvJWTSecret, cfg.Auth.JWTSecret)
	cfg.Auth.TokenTTL = ParseDuration(EnvTokenTTL, cfg.Auth.TokenTTL)
	cfg.Auth.DBPath = ParseString(EnvDBPath, cfg.Auth.DBPath)

	cfg.Redis.Addr = ParseString(EnvRedisAddr, cfg.Redis.Addr)
	cfg.Redis.Password = ParseString(EnvRedisPassword, cfg.Redis.Password)
	cfg.Redis.DB = ParseInt(EnvRedisDB, cfg.Redis.DB)

	cfg.Metrics.Enabled = ParseBool(EnvMetricsEnabled, cfg.Metrics.Enabled)
	cfg.Metrics.ListenAddr = ParseString(EnvMetricsAddr, cfg.Metrics.ListenAddr)

	cfg.Tracing.Enabled = ParseBool(EnvTracingEnabled, cfg.Tracing.Enabled)
	cfg.Tracing.Exporter = ParseString(EnvTracingExporter, cfg.Tracing.Exporter)
	cfg.Tracing.Endpoint = ParseString(EnvTracingEndpoint, cfg.Tracing.Endpoint)
	cfg.Tracing.SamplingRate = ParseFloat(EnvTracingSamplingRate, cfg.Tracing.SamplingRate)

	cfg.RateLimit.Enabled = ParseBool(EnvRateLimitEnabled, cfg.RateLimit.Enabled)
	cfg.RateLimit.Requests = ParseInt(EnvRateLimitRequests, cfg.RateLimit.Requests)
	cfg.RateLimit.Window = ParseDuration(EnvRateLimitWindow, cfg.RateLimit.Window)
	cfg.RateLimit.DownloadRPS = ParseFloat(EnvRateLimitDownloadRPS, cfg.RateLimit.DownloadRPS)
	cfg.RateLimit.DownloadBurst = ParseInt(EnvRateLimitDownloadBurst, cfg.RateLimit.DownloadBurst)
	cfg.RateLimit.TrustProxy = ParseBool(EnvRateLimitTrustProxy, cfg.RateLimit.TrustProxy)
}
