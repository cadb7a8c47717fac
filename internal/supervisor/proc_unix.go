// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build !windows
// +build !windows

package supervisor

import (
	"context"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

func shellCommand(ctx context.Context, tmpl []string, line string) *exec.Cmd {
	args := append(append([]string(nil), tmpl[1:]...), line)
	return exec.CommandContext(ctx, tmpl[0], args...)
}

// detach puts the server in its own process group so terminate reaches any
// children it spawns.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// terminate sends SIGTERM to the process group, falling back to the process.
func terminate(cmd *exec.Cmd) error {
	pid := cmd.Process.Pid
	if err := unix.Kill(-pid, unix.SIGTERM); err == nil {
		return nil
	}
	return cmd.Process.Signal(unix.SIGTERM)
}
