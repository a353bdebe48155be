// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package procgroup spawns child processes in their own process group and
// tears the whole group down with SIGTERM followed by SIGKILL.
package procgroup

import (
	"os/exec"
)

// Set configures the command to start in a new process group.
// Mandatory for Kill and Terminate to reach grandchildren (ffmpeg spawned by yt-dlp).
func Set(cmd *exec.Cmd) {
	set(cmd)
}
