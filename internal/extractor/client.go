// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package extractor

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/ManuGH/vidfetch/internal/core/urlutil"
	"github.com/ManuGH/vidfetch/internal/log"
	"github.com/ManuGH/vidfetch/internal/metrics"
	"github.com/ManuGH/vidfetch/internal/telemetry"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultMetadataTimeout = 60 * time.Second

// Options configures a Client.
type Options struct {
	// Bin is the extractor binary name or path.
	Bin string
	// CookiesFile returns the configured cookie file path. It is consulted on
	// every invocation so a reloaded config takes effect immediately.
	CookiesFile func() string
	// MetadataTimeout bounds a metadata run. Downloads are not bounded.
	MetadataTimeout time.Duration
	Runner          Runner
}

// Client builds extractor commands and runs them.
type Client struct {
	bin             string
	cookiesFile     func() string
	metadataTimeout time.Duration
	runner          Runner
	tracer          trace.Tracer
}

// NewClient returns a Client. A nil Runner selects an ExecRunner.
func NewClient(opts Options) *Client {
	if opts.Bin == "" {
		opts.Bin = "yt-dlp"
	}
	if opts.MetadataTimeout <= 0 {
		opts.MetadataTimeout = defaultMetadataTimeout
	}
	if opts.CookiesFile == nil {
		opts.CookiesFile = func() string { return "" }
	}
	if opts.Runner == nil {
		opts.Runner = NewExecRunner(defaultKillGrace)
	}
	return &Client{
		bin:             opts.Bin,
		cookiesFile:     opts.CookiesFile,
		metadataTimeout: opts.MetadataTimeout,
		runner:          opts.Runner,
		tracer:          telemetry.Tracer("vidfetch/extractor"),
	}
}

// Metadata returns the raw -J document for url.
func (c *Client) Metadata(ctx context.Context, url string) ([]byte, error) {
	safeURL := urlutil.SanitizeURL(url)
	ctx, span := c.tracer.Start(ctx, "extractor.metadata",
		trace.WithAttributes(telemetry.ExtractorAttributes(ModeMetadata, safeURL)...))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.metadataTimeout)
	defer cancel()

	start := time.Now()
	out, err := c.runner.Output(ctx, Command{
		Bin:  c.bin,
		Args: MetadataArgs(url, CookieFile(c.cookiesFile())),
	})
	result := resultLabel(err)
	metrics.ObserveExtractorRun(ModeMetadata, result, time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, result)
		span.SetAttributes(telemetry.ErrorAttributes(result)...)
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			span.SetAttributes(telemetry.ExitCodeAttribute(exitErr.Code))
		}
		logger := log.WithComponentFromContext(ctx, "extractor")
		logger.Warn().
			Err(err).
			Str(log.FieldURL, safeURL).
			Str("result", result).
			Msg("metadata extraction failed")
		return nil, err
	}
	return out, nil
}

// Download starts streaming formatID of url merged into ext.
func (c *Client) Download(ctx context.Context, url, formatID, ext string) (*Process, error) {
	safeURL := urlutil.SanitizeURL(url)
	_, span := c.tracer.Start(ctx, "extractor.download.start",
		trace.WithAttributes(telemetry.ExtractorAttributes(ModeDownload, safeURL)...),
		trace.WithAttributes(telemetry.DownloadAttributes(formatID, ext)...))
	defer span.End()

	p, err := c.runner.Start(ctx, Command{
		Bin:  c.bin,
		Args: DownloadArgs(url, formatID, ext, CookieFile(c.cookiesFile())),
	})
	if err != nil {
		metrics.ObserveExtractorRun(ModeDownload, "start_failed", 0)
		span.RecordError(err)
		span.SetStatus(codes.Error, "start_failed")
		return nil, err
	}
	return p, nil
}

// Check verifies the extractor binary can be resolved. Used by readiness probes.
func (c *Client) Check(context.Context) error {
	if _, err := exec.LookPath(c.bin); err != nil {
		return fmt.Errorf("extractor binary %q: %w", c.bin, err)
	}
	return nil
}

func resultLabel(err error) string {
	var exitErr *ExitError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUpstreamRejected):
		return "rejected"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrStart):
		return "start_failed"
	case errors.As(err, &exitErr):
		return "exit_error"
	default:
		return "error"
	}
}
