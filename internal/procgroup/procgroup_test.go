// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

//go:build unix

package procgroup

import (
	"errors"
	"os/exec"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func start(t *testing.T, script string) (*exec.Cmd, <-chan struct{}, *error) {
	t.Helper()
	cmd := exec.Command("sh", "-c", script)
	Set(cmd)
	require.NoError(t, cmd.Start())

	var waitErr error
	exited := make(chan struct{})
	go func() {
		waitErr = cmd.Wait()
		close(exited)
	}()
	return cmd, exited, &waitErr
}

func TestSetMakesGroupLeader(t *testing.T) {
	cmd, exited, _ := start(t, "sleep 5")
	defer func() { _ = Terminate(cmd, exited, 10*time.Millisecond) }()

	pgid, err := syscall.Getpgid(cmd.Process.Pid)
	require.NoError(t, err)
	assert.Equal(t, cmd.Process.Pid, pgid, "PID should be PGID leader")
}

func TestTerminateKillsWholeGroup(t *testing.T) {
	cmd, exited, _ := start(t, "sleep 100 & sleep 100")
	pgid := cmd.Process.Pid

	require.NoError(t, Terminate(cmd, exited, 200*time.Millisecond))

	select {
	case <-exited:
	case <-time.After(2 * time.Second):
		t.Fatal("process did not exit")
	}

	// Give the kernel a moment to reap the orphaned sleeper.
	time.Sleep(50 * time.Millisecond)
	err := syscall.Kill(-pgid, syscall.Signal(0))
	assert.ErrorIs(t, err, syscall.ESRCH, "process group should be gone")
}

func TestTerminateEscalatesToSIGKILL(t *testing.T) {
	cmd, exited, waitErr := start(t, "trap '' TERM; sleep 100")

	require.NoError(t, Terminate(cmd, exited, 100*time.Millisecond))

	var exitErr *exec.ExitError
	require.True(t, errors.As(*waitErr, &exitErr))
	status, ok := exitErr.Sys().(syscall.WaitStatus)
	require.True(t, ok)
	assert.True(t, status.Signaled())
}

func TestTerminateAlreadyExited(t *testing.T) {
	cmd, exited, _ := start(t, "exit 0")
	<-exited

	assert.NoError(t, Terminate(cmd, exited, time.Second))
}

func TestKillAfterExitIsNoop(t *testing.T) {
	cmd, exited, _ := start(t, "exit 0")
	<-exited

	assert.NoError(t, Kill(cmd, syscall.SIGKILL))
}

func TestKillNilCommand(t *testing.T) {
	assert.NoError(t, Kill(nil, syscall.SIGTERM))
	assert.NoError(t, Terminate(nil, nil, time.Second))
}
