// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

//go:build unix

package download

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ManuGH/vidfetch/internal/extractor"
	"github.com/ManuGH/vidfetch/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const videoURL = "https://www.youtube.com/watch?v=abc"

func fakeBin(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "yt-dlp")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

type countingStarter struct {
	inner Starter
	calls atomic.Int32
}

func (c *countingStarter) Download(ctx context.Context, url, formatID, ext string) (*extractor.Process, error) {
	c.calls.Add(1)
	return c.inner.Download(ctx, url, formatID, ext)
}

func newStreamer(t *testing.T, script string) (*Streamer, *countingStarter) {
	t.Helper()
	client := extractor.NewClient(extractor.Options{
		Bin:    fakeBin(t, script),
		Runner: extractor.NewExecRunner(200 * time.Millisecond),
	})
	starter := &countingStarter{inner: client}
	s := NewStreamer(starter)
	s.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return s, starter
}

func validRequest() Request {
	return Request{URL: videoURL, FormatID: "22", Ext: "mp4"}
}

func TestStreamSuccess(t *testing.T) {
	// Echo the argv so the test can see how the extractor was invoked.
	s, _ := newStreamer(t, `printf '%s|' "$@"; printf 'MEDIA'`)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/video/download", nil)

	require.NoError(t, s.Stream(rec, req, validRequest()))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="video_download_1700000000000.mp4"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "video/mp4", rec.Header().Get("Content-Type"))
	assert.Equal(t, "-f|22|-o|-|--merge-output-format|mp4|--|"+videoURL+"|MEDIA", rec.Body.String())
	assert.True(t, rec.Flushed)
}

func TestStreamSurvivesLongProgressOutput(t *testing.T) {
	// Carriage-return progress with no newline, well past 64KB of stderr.
	s, _ := newStreamer(t, `i=0
while [ $i -lt 2000 ]; do
  printf '\r[download] %3d.0%% of 10.00MiB at 1.00MiB/s ETA 00:01' "$i" >&2
  i=$((i+1))
done
printf 'MEDIA'`)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	require.NoError(t, s.Stream(rec, req, validRequest()))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MEDIA", rec.Body.String())
}

func TestStreamEmptyOutputCommits(t *testing.T) {
	s, _ := newStreamer(t, `exit 0`)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	require.NoError(t, s.Stream(rec, req, validRequest()))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
}

func TestStreamValidationSpawnsNothing(t *testing.T) {
	s, starter := newStreamer(t, `printf 'MEDIA'`)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	err := s.Stream(rec, req, Request{URL: videoURL, Ext: "mp4"})
	assert.ErrorIs(t, err, ErrMissingParameter)
	assert.Zero(t, starter.calls.Load())
	assert.Empty(t, rec.Header())
	assert.False(t, rec.Flushed)
}

func TestStreamStartFailure(t *testing.T) {
	client := extractor.NewClient(extractor.Options{
		Bin:    filepath.Join(t.TempDir(), "missing"),
		Runner: extractor.NewExecRunner(0),
	})
	s := NewStreamer(client)

	before := testutil.ToFloat64(metrics.DownloadsActive)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	err := s.Stream(rec, req, validRequest())
	assert.ErrorIs(t, err, ErrProcessStart)
	assert.Empty(t, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, before, testutil.ToFloat64(metrics.DownloadsActive))
}

func TestStreamFailureBeforeFirstByte(t *testing.T) {
	s, _ := newStreamer(t, `echo "ERROR: Requested format is not available" >&2; exit 1`)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	err := s.Stream(rec, req, validRequest())
	require.ErrorIs(t, err, ErrProcessFailed)

	var exitErr *extractor.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 1, exitErr.Code)

	// Nothing committed: the caller can still send a JSON error.
	assert.False(t, rec.Flushed)
	assert.Empty(t, rec.Body.Bytes())
	assert.Empty(t, rec.Header().Get("Content-Disposition"))
	assert.Empty(t, rec.Header().Get("Content-Type"))
}

func TestStreamFailureAfterBytes(t *testing.T) {
	s, _ := newStreamer(t, `printf 'PARTIAL'; exit 1`)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	err := s.Stream(rec, req, validRequest())
	assert.ErrorIs(t, err, ErrAborted)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "PARTIAL", rec.Body.String())
}

// streamWriter is a ResponseWriter safe for concurrent inspection.
type streamWriter struct {
	mu        sync.Mutex
	header    http.Header
	status    int
	body      bytes.Buffer
	writes    int
	failAfter int // fail every write after this many; <0 never

	firstByte chan struct{}
	once      sync.Once
}

func newStreamWriter(failAfter int) *streamWriter {
	return &streamWriter{header: http.Header{}, failAfter: failAfter, firstByte: make(chan struct{})}
}

func (w *streamWriter) Header() http.Header { return w.header }

func (w *streamWriter) WriteHeader(code int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.status == 0 {
		w.status = code
	}
}

func (w *streamWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failAfter >= 0 && w.writes >= w.failAfter {
		return 0, errors.New("broken pipe")
	}
	w.writes++
	w.once.Do(func() { close(w.firstByte) })
	return w.body.Write(p)
}

func (w *streamWriter) Flush() {}

func TestStreamClientDisconnectKillsOnce(t *testing.T) {
	s, _ := newStreamer(t, `printf 'MEDIA'; while :; do sleep 0.05; done`)

	kills := testutil.ToFloat64(metrics.DownloadKillsTotal)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := newStreamWriter(-1)
	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)

	done := make(chan error, 1)
	go func() { done <- s.Stream(w, req, validRequest()) }()

	select {
	case <-w.firstByte:
	case <-time.After(5 * time.Second):
		t.Fatal("no bytes forwarded")
	}
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrClientGone)
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not stop after disconnect")
	}
	assert.Equal(t, kills+1, testutil.ToFloat64(metrics.DownloadKillsTotal))
	assert.Equal(t, http.StatusOK, w.status)
}

func TestStreamWriteFailureKillsProcess(t *testing.T) {
	s, _ := newStreamer(t, `while :; do printf 'MEDIA'; sleep 0.05; done`)

	kills := testutil.ToFloat64(metrics.DownloadKillsTotal)
	w := newStreamWriter(1)
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	done := make(chan error, 1)
	go func() { done <- s.Stream(w, req, validRequest()) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrAborted)
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not stop after write failure")
	}
	assert.Equal(t, kills+1, testutil.ToFloat64(metrics.DownloadKillsTotal))
}
