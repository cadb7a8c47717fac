// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build windows
// +build windows

package supervisor

import (
	"context"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/sys/windows"
)

// cmd.exe parses its own command line, so the line is passed verbatim
// instead of being quoted as a single argument.
func shellCommand(ctx context.Context, tmpl []string, line string) *exec.Cmd {
	base := strings.ToLower(strings.TrimSuffix(filepath.Base(tmpl[0]), ".exe"))
	if base == "cmd" {
		cmd := exec.CommandContext(ctx, tmpl[0])
		cmd.SysProcAttr = &syscall.SysProcAttr{
			CmdLine: strings.Join(tmpl, " ") + " " + line,
		}
		return cmd
	}
	args := append(append([]string(nil), tmpl[1:]...), line)
	return exec.CommandContext(ctx, tmpl[0], args...)
}

func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: windows.CREATE_NEW_PROCESS_GROUP | windows.CREATE_NO_WINDOW,
	}
}

// terminate kills the process; Windows has no SIGTERM.
func terminate(cmd *exec.Cmd) error {
	return cmd.Process.Kill()
}
