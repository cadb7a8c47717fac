// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the per-terminal state the command router depends on.
//
// # Key Types
//
//   - Session: working directory, history with its recall cursor, mode flags,
//     and the completion vocabulary
//   - Modes: the independent advanced/tutorial/timestamps/line-wrap/split-view flags
//
// # History Recall
//
// The cursor is -1 when not browsing and 0 for the most recent entry.
// RecallOlder walks back until the oldest entry; RecallNewer walks forward
// and, from the most recent entry, leaves browsing with an empty buffer.
//
//	s.RecallOlder()  // "git status", true
//	s.RecallNewer()  // "", true  (cursor back to -1)
//
// # Concurrency
//
// All methods are safe for concurrent use. The router is the only writer of
// the working directory; front-ends read it for prompts.
package session
