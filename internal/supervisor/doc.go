// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package supervisor spawns and tracks the external processes a session
// uses: one-shot foreground shell commands, package installs with streamed
// output, and at most one long-lived background file server.
//
// # Key Types
//
//   - Supervisor: owns the background process handle
//   - ManagedProcess: identity of the running background server
//   - Result: captured output and exit code of a foreground command
//
// # Failure Semantics
//
// Every operation is a single attempt. A process that cannot be started is
// reported as a shellerr.KindSpawnFailed error carrying the OS message.
// StopBackground clears the stored handle even when exit is not observed
// within the grace period.
//
// # Usage
//
//	sup := supervisor.New(supervisor.Options{...})
//	res, err := sup.RunForeground(ctx, "ls -la", dir, false)
//	proc, err := sup.StartBackground(8000, dir)
//	stop, err := sup.StopBackground()
package supervisor
