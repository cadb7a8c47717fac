// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package fileserver serves a directory over HTTP.
//
// It backs the "serve" built-in: the supervisor launches this executable's
// hidden serve-files subcommand as a detached child, which runs a Server
// until it receives SIGTERM (or Ctrl+Break on Windows).
//
// Middleware applied to every request:
//   - Panic recovery
//   - Security headers (nosniff, frame and referrer policy)
//   - Request logging via zerolog
//   - Per-client rate limiting (golang.org/x/time/rate)
package fileserver
