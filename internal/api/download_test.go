// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

//go:build unix

package api

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ManuGH/vidfetch/internal/download"
	"github.com/ManuGH/vidfetch/internal/extractor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scriptStreamer(t *testing.T, script string) *download.Streamer {
	t.Helper()
	bin := filepath.Join(t.TempDir(), "yt-dlp")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"+script+"\n"), 0o755))
	return download.NewStreamer(extractor.NewClient(extractor.Options{
		Bin:    bin,
		Runner: extractor.NewExecRunner(200 * time.Millisecond),
	}))
}

func TestDownloadStreamsThroughStack(t *testing.T) {
	h := newTestServer(t, Deps{Streamer: scriptStreamer(t, `printf 'MEDIA-BYTES'`)})

	rec := do(h, http.MethodGet, "/api/v1/video/download?url="+videoURL+"&formatId=22&ext=webm", "", testToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MEDIA-BYTES", rec.Body.String())
	assert.Equal(t, "video/webm", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `attachment; filename="video_download_`)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestDownloadFailsBeforeBytes(t *testing.T) {
	h := newTestServer(t, Deps{Streamer: scriptStreamer(t, `echo 'ERROR: Requested format is not available' >&2; exit 1`)})

	rec := do(h, http.MethodGet, "/api/v1/video/download?url="+videoURL+"&formatId=999&ext=mp4", "", testToken)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Video download process failed unexpectedly.", messageOf(t, rec))
	assert.Empty(t, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestDownloadStartFailure(t *testing.T) {
	streamer := download.NewStreamer(extractor.NewClient(extractor.Options{
		Bin:    filepath.Join(t.TempDir(), "missing-yt-dlp"),
		Runner: extractor.NewExecRunner(200 * time.Millisecond),
	}))
	h := newTestServer(t, Deps{Streamer: streamer})

	rec := do(h, http.MethodGet, "/api/v1/video/download?url="+videoURL+"&formatId=22&ext=mp4", "", testToken)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to start video download process on the server.", messageOf(t, rec))
}
