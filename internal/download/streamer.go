// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package download streams extractor stdout to an HTTP client and ties the
// child process's lifetime to the request.
package download

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ManuGH/vidfetch/internal/core/urlutil"
	"github.com/ManuGH/vidfetch/internal/extractor"
	"github.com/ManuGH/vidfetch/internal/log"
	"github.com/ManuGH/vidfetch/internal/metrics"
	"github.com/ManuGH/vidfetch/internal/telemetry"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrProcessStart means the extractor could not be launched; nothing was sent.
	ErrProcessStart = errors.New("failed to start download process")
	// ErrProcessFailed means the extractor exited non-zero before any byte was sent.
	ErrProcessFailed = errors.New("download process failed")
	// ErrAborted means the transfer failed after the response was committed.
	// The only correct reaction is to abort the connection.
	ErrAborted = errors.New("download aborted after response was committed")
	// ErrClientGone means the client disconnected; there is nobody to answer.
	ErrClientGone = errors.New("client disconnected")
)

const (
	defaultChunkSize = 32 * 1024
	stderrTailLines  = 10
)

// Starter launches a streaming extractor run.
type Starter interface {
	Download(ctx context.Context, url, formatID, ext string) (*extractor.Process, error)
}

// Streamer proxies extractor output to HTTP clients.
type Streamer struct {
	starter   Starter
	now       func() time.Time
	chunkSize int
}

// NewStreamer returns a Streamer backed by starter.
func NewStreamer(starter Starter) *Streamer {
	return &Streamer{
		starter:   starter,
		now:       time.Now,
		chunkSize: defaultChunkSize,
	}
}

// Stream validates req, runs the extractor and forwards its stdout to w.
//
// Status and headers are committed on the first forwarded byte, so any error
// other than ErrAborted or ErrClientGone leaves w untouched and the caller
// may still answer with an error body. On ErrAborted the caller must abort
// the connection.
//
// The process is killed at most once: when the request context ends or a
// write to the client fails, whichever happens first.
func (s *Streamer) Stream(w http.ResponseWriter, r *http.Request, req Request) error {
	if err := req.Validate(); err != nil {
		return err
	}

	logger := log.WithComponentFromContext(r.Context(), "download").With().
		Str(log.FieldURL, urlutil.SanitizeURL(req.URL)).
		Str(log.FieldFormatID, req.FormatID).
		Str(log.FieldExtension, req.Ext).
		Logger()

	// Single cancellation token for both client disconnect and write failure.
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	start := time.Now()
	proc, err := s.starter.Download(ctx, req.URL, req.FormatID, req.Ext)
	if err != nil {
		metrics.IncDownloadOutcome(metrics.DownloadStartFailed)
		logger.Error().Err(err).Str(log.FieldEvent, "download.start_failed").Msg("failed to start extractor")
		return fmt.Errorf("%w: %w", ErrProcessStart, err)
	}
	defer func() { _ = proc.Close() }()
	logger = logger.With().Int(log.FieldPID, proc.PID()).Logger()
	logger.Info().Str(log.FieldEvent, "download.started").Msg("download started")

	stopKill := context.AfterFunc(ctx, func() {
		metrics.IncDownloadKill()
		if err := proc.Kill(); err != nil {
			logger.Warn().Err(err).Msg("failed to kill extractor process group")
		}
	})

	metrics.DownloadsActive.Inc()
	defer metrics.DownloadsActive.Dec()

	h := w.Header()
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", req.Filename(s.now())))
	h.Set("Content-Type", req.ContentType())
	h.Set("X-Content-Type-Options", "nosniff")

	sent, writeErr := s.pump(w, proc, cancel)
	waitErr := proc.Wait()
	killed := !stopKill()

	metrics.ObserveExtractorRun(extractor.ModeDownload, result(waitErr, killed), time.Since(start))
	trace.SpanFromContext(r.Context()).SetAttributes(telemetry.BytesAttribute(sent))
	evt := logger.With().Int64(log.FieldBytes, sent).Dur(log.FieldDuration, time.Since(start)).Logger()

	switch {
	case writeErr != nil:
		metrics.IncDownloadOutcome(metrics.DownloadAborted)
		evt.Warn().Err(writeErr).Str(log.FieldEvent, "download.write_failed").Msg("client write failed, extractor killed")
		return fmt.Errorf("%w: %w", ErrAborted, writeErr)

	case killed:
		metrics.IncDownloadOutcome(metrics.DownloadDisconnected)
		evt.Info().Str(log.FieldEvent, "download.client_gone").Msg("client disconnected, extractor killed")
		return ErrClientGone

	case waitErr != nil:
		tail := proc.StderrTail(stderrTailLines)
		if sent == 0 {
			clearDownloadHeaders(h)
			metrics.IncDownloadOutcome(metrics.DownloadFailed)
			evt.Error().Err(waitErr).Strs(log.FieldStderr, tail).Str(log.FieldEvent, "download.failed").Msg("extractor failed before sending data")
			return fmt.Errorf("%w: %w", ErrProcessFailed, waitErr)
		}
		metrics.IncDownloadOutcome(metrics.DownloadAborted)
		evt.Error().Err(waitErr).Strs(log.FieldStderr, tail).Str(log.FieldEvent, "download.failed_midstream").Msg("extractor failed mid-stream")
		return fmt.Errorf("%w: %w", ErrAborted, waitErr)
	}

	if sent == 0 {
		w.WriteHeader(http.StatusOK)
	}
	metrics.IncDownloadOutcome(metrics.DownloadCompleted)
	evt.Info().Str(log.FieldEvent, "download.completed").Msg("download completed")
	return nil
}

// pump copies stdout to w, flushing every chunk. A failed write or flush
// cancels the token and stops the copy.
func (s *Streamer) pump(w http.ResponseWriter, proc *extractor.Process, cancel context.CancelFunc) (int64, error) {
	rc := http.NewResponseController(w)
	buf := make([]byte, s.chunkSize)
	var sent int64

	for {
		n, readErr := proc.Stdout.Read(buf)
		if n > 0 {
			if sent == 0 {
				w.WriteHeader(http.StatusOK)
			}
			written, err := w.Write(buf[:n])
			sent += int64(written)
			metrics.AddDownloadBytes(written)
			if err == nil {
				err = rc.Flush()
				if errors.Is(err, http.ErrNotSupported) {
					err = nil
				}
			}
			if err != nil {
				cancel()
				return sent, err
			}
		}
		if readErr != nil {
			// io.EOF on normal exit; a closed pipe after a kill.
			return sent, nil
		}
	}
}

func clearDownloadHeaders(h http.Header) {
	h.Del("Content-Disposition")
	h.Del("Content-Type")
	h.Del("X-Content-Type-Options")
}

func result(waitErr error, killed bool) string {
	switch {
	case killed:
		return "killed"
	case waitErr != nil:
		return "exit_error"
	default:
		return "ok"
	}
}
