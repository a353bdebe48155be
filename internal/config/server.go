// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"time"
)

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	// ListenAddr is the address to listen on (e.g., ":3000")
	ListenAddr string

	// ReadTimeout is the maximum duration for reading the entire request
	ReadTimeout time.Duration

	// WriteTimeout is the maximum duration before timing out writes of the response.
	// Zero disables it so long downloads are not cut off.
	WriteTimeout time.Duration

	// IdleTimeout is the maximum amount of time to wait for the next request
	IdleTimeout time.Duration

	// MaxHeaderBytes controls the maximum number of bytes the server will read parsing the request header's keys and values
	MaxHeaderBytes int

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown
	ShutdownTimeout time.Duration
}

const (
	defaultMaxHeaderBytes = 1 << 20
	minShutdownTimeout    = 3 * time.Second
)

// Server derives the HTTP server settings from the API section.
func (c AppConfig) Server() ServerConfig {
	shutdown := c.API.ShutdownTimeout
	if shutdown < minShutdownTimeout {
		shutdown = minShutdownTimeout
	}
	return ServerConfig{
		ListenAddr:      c.API.ListenAddr,
		ReadTimeout:     c.API.ReadTimeout,
		WriteTimeout:    c.API.WriteTimeout,
		IdleTimeout:     c.API.IdleTimeout,
		MaxHeaderBytes:  defaultMaxHeaderBytes,
		ShutdownTimeout: shutdown,
	}
}
