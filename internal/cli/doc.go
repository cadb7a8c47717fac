// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides the mopsterm command line.
//
// # Commands
//
//	mopsterm                 full-screen terminal (line REPL when not a TTY)
//	mopsterm --plain         line REPL with history and tab completion
//	mopsterm exec <line>     run one line and print its output
//	mopsterm config show     print the effective configuration
//	mopsterm config init     write the default config file
//	mopsterm config path     print the config file location
//	mopsterm version         print version information
//
// The hidden serve-files command is the background file server that the
// "serve" built-in launches.
//
// # Shared State
//
// App owns everything shared between sessions of one process: the
// configuration, the process supervisor, the favorites store and the
// history database. Each session gets its own Router from App.NewRouter.
package cli
