// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package output defines what the command core emits: lines of text tagged
// with a severity, plus a few control events (clear, exit, new session).
//
// The core never renders anything. A front-end implements Sink and decides
// how each Severity looks; the text itself is passed through unchanged.
package output
