// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"github.com/ManuGH/vidfetch/internal/validate"
)

// Validate checks a resolved configuration. All problems are reported at once.
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.OneOf("logLevel", cfg.LogLevel, validate.LogLevels)
	v.NotEmpty("dataDir", cfg.DataDir)

	v.ListenAddr("api.listenAddr", cfg.API.ListenAddr)
	v.PositiveDuration("api.shutdownTimeout", cfg.API.ShutdownTimeout)
	if cfg.API.WriteTimeout < 0 {
		v.AddError("api.writeTimeout", "cannot be negative", cfg.API.WriteTimeout)
	}
	if cfg.API.MaxBodyBytes <= 0 {
		v.AddError("api.maxBodyBytes", "must be positive", cfg.API.MaxBodyBytes)
	}

	v.NotEmpty("extractor.bin", cfg.Extractor.Bin)
	v.PositiveDuration("extractor.metadataTimeout", cfg.Extractor.MetadataTimeout)
	v.PositiveDuration("extractor.killGrace", cfg.Extractor.KillGrace)

	v.NotEmpty("auth.jwtSecret", cfg.Auth.JWTSecret)
	v.PositiveDuration("auth.tokenTTL", cfg.Auth.TokenTTL)
	v.NotEmpty("auth.dbPath", cfg.Auth.DBPath)

	if cfg.Metrics.Enabled {
		v.ListenAddr("metrics.listenAddr", cfg.Metrics.ListenAddr)
	}

	if cfg.Tracing.Enabled {
		v.OneOf("tracing.exporter", cfg.Tracing.Exporter, []string{"grpc", "http"})
		v.NotEmpty("tracing.endpoint", cfg.Tracing.Endpoint)
		if cfg.Tracing.SamplingRate < 0 || cfg.Tracing.SamplingRate > 1 {
			v.AddError("tracing.samplingRate", "must be between 0 and 1", cfg.Tracing.SamplingRate)
		}
	}

	if cfg.RateLimit.Enabled {
		v.Positive("rateLimit.requests", cfg.RateLimit.Requests)
		v.PositiveDuration("rateLimit.window", cfg.RateLimit.Window)
		if cfg.RateLimit.DownloadRPS <= 0 {
			v.AddError("rateLimit.downloadRPS", "must be positive", cfg.RateLimit.DownloadRPS)
		}
		v.Positive("rateLimit.downloadBurst", cfg.RateLimit.DownloadBurst)
	}

	if len(cfg.AllowedOrigins) == 0 {
		v.AddError("allowedOrigins", "at least one origin is required (use * for any)", cfg.AllowedOrigins)
	}

	return v.Err()
}
