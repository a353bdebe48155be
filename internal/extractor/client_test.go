// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package extractor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRunner struct {
	cmds     []Command
	out      []byte
	err      error
	deadline bool
}

func (r *recordingRunner) Output(ctx context.Context, c Command) ([]byte, error) {
	r.cmds = append(r.cmds, c)
	_, r.deadline = ctx.Deadline()
	return r.out, r.err
}

func (r *recordingRunner) Start(_ context.Context, c Command) (*Process, error) {
	r.cmds = append(r.cmds, c)
	return nil, r.err
}

func TestClientMetadataBuildsCommand(t *testing.T) {
	cookies := filepath.Join(t.TempDir(), "cookies.txt")
	runner := &recordingRunner{out: []byte(`{}`)}
	c := NewClient(Options{
		Bin:             "/usr/local/bin/yt-dlp",
		CookiesFile:     func() string { return cookies },
		MetadataTimeout: time.Second,
		Runner:          runner,
	})

	_, err := c.Metadata(context.Background(), "https://youtu.be/a")
	require.NoError(t, err)
	require.Len(t, runner.cmds, 1)
	assert.Equal(t, "/usr/local/bin/yt-dlp", runner.cmds[0].Bin)
	assert.Equal(t, []string{"-J", "--", "https://youtu.be/a"}, runner.cmds[0].Args, "absent cookie file is not passed")
	assert.True(t, runner.deadline, "metadata runs are bounded")

	// Cookie file appears later (config hot reload or operator upload).
	require.NoError(t, os.WriteFile(cookies, []byte("#"), 0o600))
	_, err = c.Metadata(context.Background(), "https://youtu.be/a")
	require.NoError(t, err)
	assert.Equal(t, []string{"--cookies", cookies, "-J", "--", "https://youtu.be/a"}, runner.cmds[1].Args)
}

func TestClientMetadataPropagatesErrors(t *testing.T) {
	runner := &recordingRunner{err: classify(&ExitError{Code: 1, Stderr: "ERROR: Unsupported URL"})}
	c := NewClient(Options{Runner: runner})

	_, err := c.Metadata(context.Background(), "https://example.com")
	assert.ErrorIs(t, err, ErrUpstreamRejected)
}

func TestClientDownloadBuildsCommand(t *testing.T) {
	runner := &recordingRunner{err: ErrStart}
	c := NewClient(Options{Runner: runner})

	_, err := c.Download(context.Background(), "https://youtu.be/a", "22", "mp4")
	assert.ErrorIs(t, err, ErrStart)
	require.Len(t, runner.cmds, 1)
	assert.Equal(t, "yt-dlp", runner.cmds[0].Bin)
	assert.Equal(t, DownloadArgs("https://youtu.be/a", "22", "mp4", ""), runner.cmds[0].Args)
}

func TestClientCheck(t *testing.T) {
	c := NewClient(Options{Bin: filepath.Join(t.TempDir(), "missing-yt-dlp")})
	assert.Error(t, c.Check(context.Background()))

	c = NewClient(Options{Bin: "sh"})
	assert.NoError(t, c.Check(context.Background()))
}

func TestResultLabel(t *testing.T) {
	assert.Equal(t, "ok", resultLabel(nil))
	assert.Equal(t, "rejected", resultLabel(classify(&ExitError{Stderr: "No video formats found."})))
	assert.Equal(t, "timeout", resultLabel(ErrTimeout))
	assert.Equal(t, "start_failed", resultLabel(ErrStart))
	assert.Equal(t, "exit_error", resultLabel(&ExitError{Code: 1}))
	assert.Equal(t, "error", resultLabel(errors.New("boom")))
}
