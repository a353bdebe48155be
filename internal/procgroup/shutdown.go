// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package procgroup

import (
	"os/exec"
	"syscall"
	"time"

	"github.com/ManuGH/vidfetch/internal/metrics"
)

// Terminate stops a process group: SIGTERM, then SIGKILL if exited is not
// closed within grace. exited must be closed by whoever owns cmd.Wait.
// It is safe to call on nil or already exited commands.
func Terminate(cmd *exec.Cmd, exited <-chan struct{}, grace time.Duration) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}

	select {
	case <-exited:
		metrics.IncProcTerminate("SIGTERM", "already_exited")
		return nil
	default:
	}

	if err := signal(cmd, sigTerm, "SIGTERM"); err != nil {
		return err
	}

	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case <-exited:
		metrics.IncProcWait("exit_after_term")
		return nil
	case <-timer.C:
	}

	if err := signal(cmd, sigKill, "SIGKILL"); err != nil {
		return err
	}
	<-exited
	metrics.IncProcWait("exit_after_kill")
	return nil
}

func signal(cmd *exec.Cmd, sig syscall.Signal, name string) error {
	if err := Kill(cmd, sig); err != nil {
		metrics.IncProcTerminate(name, "error")
		return err
	}
	metrics.IncProcTerminate(name, "sent")
	return nil
}
