// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists submitted command lines across runs.
//
// History is kept in a SQLite database (pure Go driver, no cgo) so that
// several terminals can append at once and a new session can preload the
// most recent distinct lines.
//
// # Key Types
//
//   - HistoryStore: append-only command history backed by SQLite
//   - Entry: one recorded line with its session and directory
//
// # Usage
//
//	store, err := storage.OpenHistory(path)
//	defer store.Close()
//	err = store.Record(ctx, sessionID, "git status", dir)
//	lines, err := store.RecentLines(ctx, 50)
//
// # Storage Location
//
// The database lives at ~/.mops/history.db unless configured otherwise.
package storage
