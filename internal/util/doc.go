// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across mopsterm.
//
// # Key Functions
//
// File Operations:
//   - AtomicWriteFile: Crash-safe file writing with fsync
//   - ExpandHome: Resolve a leading "~" to the user's home directory
//
// Display Width:
//   - PadRight: Pad a string to a display width (wide runes count as 2)
//   - TruncateWidth: Cut a string to a display width with an ellipsis
//
// # Usage
//
//	// Write files atomically to prevent data loss
//	err := util.AtomicWriteFile(path, data, 0644)
//
//	// Align a column of keys
//	fmt.Println(util.PadRight(key, 20), cmd)
package util
