// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package extractor

import (
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/ManuGH/vidfetch/internal/log"
	"github.com/ManuGH/vidfetch/internal/procgroup"
	"github.com/rs/zerolog"
)

// Process is a running extractor in streaming mode.
//
// Stdout yields the media bytes. Wait blocks until the process has exited and
// returns nil or an *ExitError. Kill terminates the process group; it runs at
// most once and is a no-op after the process has exited.
type Process struct {
	Stdout io.Reader

	cmd    *exec.Cmd
	stdout *os.File
	stderr *LineRing
	grace  time.Duration
	logger zerolog.Logger

	stderrDone chan struct{}
	exited     chan struct{}
	waitErr    error

	killOnce sync.Once
	killErr  error
}

func newProcess(cmd *exec.Cmd, stdout, stderr *os.File, stderrLines int, grace time.Duration, logger zerolog.Logger) *Process {
	p := &Process{
		Stdout:     stdout,
		cmd:        cmd,
		stdout:     stdout,
		stderr:     NewLineRing(stderrLines),
		grace:      grace,
		logger:     logger.With().Int(log.FieldPID, cmd.Process.Pid).Logger(),
		stderrDone: make(chan struct{}),
		exited:     make(chan struct{}),
	}
	p.stderr.OnLine = func(line string) {
		p.logger.Debug().Str(log.FieldStderr, line).Msg("extractor stderr")
	}
	go p.drainStderr(stderr)
	go p.wait()
	return p
}

func (p *Process) drainStderr(r *os.File) {
	defer close(p.stderrDone)
	defer func() { _ = r.Close() }()

	// The read end stays open until EOF; closing it early would SIGPIPE the child.
	if _, err := io.Copy(p.stderr, r); err != nil {
		p.logger.Debug().Err(err).Msg("stderr drain stopped")
		_, _ = io.Copy(io.Discard, r)
	}
}

func (p *Process) wait() {
	err := p.cmd.Wait()

	// Grandchildren may still hold stderr; do not wait on them forever.
	select {
	case <-p.stderrDone:
	case <-time.After(stderrDrainTimeout):
	}
	p.stderr.Flush()

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		p.waitErr = &ExitError{Code: exitErr.ExitCode(), Stderr: p.stderr.String()}
	default:
		p.waitErr = err
	}
	close(p.exited)
}

// PID returns the operating system process id.
func (p *Process) PID() int {
	return p.cmd.Process.Pid
}

// Wait blocks until the process exits.
func (p *Process) Wait() error {
	<-p.exited
	return p.waitErr
}

// Done is closed once the process has exited.
func (p *Process) Done() <-chan struct{} {
	return p.exited
}

// Kill terminates the process group (SIGTERM, then SIGKILL after the grace
// period) and waits for the process to exit. Only the first call acts.
func (p *Process) Kill() error {
	p.killOnce.Do(func() {
		select {
		case <-p.exited:
			return
		default:
		}
		p.logger.Info().Str(log.FieldEvent, "extractor.kill").Msg("terminating extractor process group")
		p.killErr = procgroup.Terminate(p.cmd, p.exited, p.grace)
	})
	return p.killErr
}

// StderrTail returns up to n of the most recent stderr lines.
func (p *Process) StderrTail(n int) []string {
	return p.stderr.LastN(n)
}

// Close releases the stdout reader. It does not stop the process.
func (p *Process) Close() error {
	return p.stdout.Close()
}
