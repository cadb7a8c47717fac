// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands routes typed lines to built-in handlers or to the shell.
//
// # Key Types
//
//   - Classification: result of Classify (built-in verb, rich shell, plain shell)
//   - Rule: one entry of the ordered classification table
//   - Command / Registry: built-in verbs with help text and handlers
//   - Router: the single entry point front-ends call with a submitted line
//
// # Classification
//
// Rules are checked in the order returned by Rules; the first match wins.
// Matching looks only at the first word of the lowercased, NFKC-normalized
// line, so "tree src 2" is the tree verb while "treehouse" is not. Lines
// matching no rule go to the rich shell when they contain a rich keyword
// (pipes, variables, cmdlet verbs) and to the plain shell otherwise.
//
// # Errors
//
// Handlers return errors instead of printing them. Dispatch turns any error
// into exactly one output line whose severity depends on the shellerr kind.
//
// # Usage
//
//	r := commands.NewRouter(env)
//	if err := r.Submit(ctx, "calc 6*7"); errors.Is(err, commands.ErrBusy) {
//	    // a command is still running
//	}
package commands
