// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/ManuGH/vidfetch/internal/log"
	"github.com/ManuGH/vidfetch/internal/procgroup"
	"github.com/rs/zerolog"
)

const (
	defaultKillGrace   = 2 * time.Second
	defaultStderrLines = 64
	stderrDrainTimeout = time.Second
)

// Runner executes extractor commands.
type Runner interface {
	// Output runs c to completion and returns its stdout.
	// A non-zero exit yields an *ExitError, possibly wrapped with ErrUpstreamRejected.
	Output(ctx context.Context, c Command) ([]byte, error)
	// Start launches c in streaming mode. The caller owns the returned Process.
	Start(ctx context.Context, c Command) (*Process, error)
}

// ExecRunner runs commands as real child processes in their own process group.
type ExecRunner struct {
	// KillGrace is the delay between SIGTERM and SIGKILL.
	KillGrace time.Duration
	// StderrLines bounds how much stderr is retained per process.
	StderrLines int
}

// NewExecRunner returns an ExecRunner with the given kill grace period.
func NewExecRunner(killGrace time.Duration) *ExecRunner {
	if killGrace <= 0 {
		killGrace = defaultKillGrace
	}
	return &ExecRunner{KillGrace: killGrace, StderrLines: defaultStderrLines}
}

func (r *ExecRunner) newCmd(c Command) *exec.Cmd {
	// #nosec G204 -- binary comes from operator config; args are built by MetadataArgs/DownloadArgs
	cmd := exec.Command(c.Bin, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	procgroup.Set(cmd)
	return cmd
}

// Output implements Runner. Context cancellation kills the whole process group.
func (r *ExecRunner) Output(ctx context.Context, c Command) ([]byte, error) {
	// #nosec G204 -- see newCmd
	cmd := exec.CommandContext(ctx, c.Bin, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	procgroup.Set(cmd)
	cmd.Cancel = func() error {
		return procgroup.Kill(cmd, syscall.SIGKILL)
	}
	cmd.WaitDelay = r.KillGrace

	var stdout bytes.Buffer
	stderr := NewLineRing(r.StderrLines)
	cmd.Stdout = &stdout
	cmd.Stderr = stderr

	logger := log.WithComponentFromContext(ctx, "extractor")
	err := cmd.Run()
	stderr.Flush()

	if err == nil {
		return stdout.Bytes(), nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %w", ErrTimeout, ctxErr)
		}
		return nil, ctxErr
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		xerr := &ExitError{Code: exitErr.ExitCode(), Stderr: stderr.String()}
		logStderr(logger, stderr, xerr.Code)
		return nil, classify(xerr)
	}
	return nil, fmt.Errorf("%w: %w", ErrStart, err)
}

// Start implements Runner. The process is not bound to ctx; its lifetime is
// ended by the caller via Process.Kill.
func (r *ExecRunner) Start(ctx context.Context, c Command) (*Process, error) {
	cmd := r.newCmd(c)

	// Plain os.Pipe instead of StdoutPipe: cmd.Wait must not close the read
	// side while buffered media is still being forwarded.
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdout pipe: %w", ErrStart, err)
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		_ = stdoutR.Close()
		_ = stdoutW.Close()
		return nil, fmt.Errorf("%w: stderr pipe: %w", ErrStart, err)
	}
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	if err := cmd.Start(); err != nil {
		for _, f := range []*os.File{stdoutR, stdoutW, stderrR, stderrW} {
			_ = f.Close()
		}
		return nil, fmt.Errorf("%w: %w", ErrStart, err)
	}
	// The child holds its own copies of the write ends.
	_ = stdoutW.Close()
	_ = stderrW.Close()

	p := newProcess(cmd, stdoutR, stderrR, r.StderrLines, r.KillGrace, log.WithComponentFromContext(ctx, "extractor"))
	return p, nil
}

func logStderr(logger zerolog.Logger, ring *LineRing, code int) {
	lines := ring.LastN(10)
	if len(lines) == 0 {
		return
	}
	logger.Warn().
		Int(log.FieldExitCode, code).
		Strs(log.FieldStderr, lines).
		Msg("extractor exited with error")
}
