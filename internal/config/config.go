// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads, validates and hot-reloads the vidfetch configuration.
package config

import (
	"path/filepath"
	"time"
)

// AppConfig is the fully resolved configuration.
type AppConfig struct {
	// Version is injected from the binary, never read from file.
	Version string `yaml:"-"`

	LogLevel       string   `yaml:"logLevel"`
	DataDir        string   `yaml:"dataDir"`
	AllowedOrigins []string `yaml:"allowedOrigins"`

	API       APIConfig       `yaml:"api"`
	Extractor ExtractorConfig `yaml:"extractor"`
	Auth      AuthConfig      `yaml:"auth"`
	Redis     RedisConfig     `yaml:"redis"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Tracing   TracingConfig   `yaml:"tracing"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
}

// APIConfig configures the public HTTP listener.
type APIConfig struct {
	ListenAddr      string        `yaml:"listenAddr"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	IdleTimeout     time.Duration `yaml:"idleTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	MaxBodyBytes    int64         `yaml:"maxBodyBytes"`
}

// ExtractorConfig configures the yt-dlp invocation.
type ExtractorConfig struct {
	Bin             string        `yaml:"bin"`
	CookiesFile     string        `yaml:"cookiesFile"`
	MetadataTimeout time.Duration `yaml:"metadataTimeout"`
	KillGrace       time.Duration `yaml:"killGrace"`
}

// AuthConfig configures token issuance and the user store.
type AuthConfig struct {
	JWTSecret string        `yaml:"jwtSecret"`
	TokenTTL  time.Duration `yaml:"tokenTTL"`
	DBPath    string        `yaml:"dbPath"`
}

// RedisConfig selects the Redis-backed revocation cache when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MetricsConfig configures the Prometheus listener.
type MetricsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listenAddr"`
}

// TracingConfig configures the OpenTelemetry exporter.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"` // grpc or http
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"samplingRate"`
}

// RateLimitConfig configures the route limiter and per-IP download admission.
type RateLimitConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Requests      int           `yaml:"requests"`
	Window        time.Duration `yaml:"window"`
	DownloadRPS   float64       `yaml:"downloadRPS"`
	DownloadBurst int           `yaml:"downloadBurst"`
	// TrustProxy makes X-Forwarded-For / X-Real-IP authoritative for the client IP.
	TrustProxy bool `yaml:"trustProxy"`
}

const (
	DefaultListenAddr      = ":3000"
	DefaultMetricsAddr     = ":9090"
	DefaultDataDir         = "/tmp/vidfetch"
	DefaultExtractorBin    = "yt-dlp"
	DefaultMetadataTimeout = 60 * time.Second
	DefaultKillGrace       = 2 * time.Second
	DefaultTokenTTL        = time.Hour
	DefaultShutdownTimeout = 15 * time.Second
	DefaultMaxBodyBytes    = 1 << 20

	cookiesFileName = "cookies.txt"
	usersDBName     = "users.db"
)

// Default returns the built-in configuration. Derived paths (cookies file,
// user database) are left empty and resolved against DataDir after loading.
func Default() AppConfig {
	return AppConfig{
		LogLevel:       "info",
		DataDir:        DefaultDataDir,
		AllowedOrigins: []string{"*"},
		API: APIConfig{
			ListenAddr:      DefaultListenAddr,
			ReadTimeout:     60 * time.Second,
			WriteTimeout:    0, // downloads have no server-side deadline
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: DefaultShutdownTimeout,
			MaxBodyBytes:    DefaultMaxBodyBytes,
		},
		Extractor: ExtractorConfig{
			Bin:             DefaultExtractorBin,
			MetadataTimeout: DefaultMetadataTimeout,
			KillGrace:       DefaultKillGrace,
		},
		Auth: AuthConfig{
			TokenTTL: DefaultTokenTTL,
		},
		Metrics: MetricsConfig{
			Enabled:    true,
			ListenAddr: DefaultMetricsAddr,
		},
		Tracing: TracingConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
		},
		RateLimit: RateLimitConfig{
			Enabled:       true,
			Requests:      600,
			Window:        time.Minute,
			DownloadRPS:   1,
			DownloadBurst: 3,
		},
	}
}

// resolvePaths fills derived file locations from DataDir.
func (c *AppConfig) resolvePaths() {
	if abs, err := filepath.Abs(c.DataDir); err == nil {
		c.DataDir = abs
	}
	if c.Extractor.CookiesFile == "" {
		c.Extractor.CookiesFile = filepath.Join(c.DataDir, cookiesFileName)
	}
	if c.Auth.DBPath == "" {
		c.Auth.DBPath = filepath.Join(c.DataDir, usersDBName)
	}
}
