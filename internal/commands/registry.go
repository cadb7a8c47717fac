// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"sort"

	"github.com/jeranaias/mopsterm/internal/session"
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// HandlerFunc runs a built-in. tail is the argument text with original
// casing. Errors are rendered by Dispatch, not by the handler.
type HandlerFunc func(ctx context.Context, env *Env, tail string) error

// Command defines a built-in verb.
type Command struct {
	// Name is the verb Classify reports (e.g., "serve").
	Name string

	// Aliases are extra first words accepted for the verb.
	Aliases []string

	// Usage shows the syntax in help output.
	Usage string

	// Description is one line for help output.
	Description string

	// Category groups the command in help output.
	Category string

	// Tip is shown after the command runs in tutorial mode.
	Tip string

	// Handler runs the command.
	Handler HandlerFunc
}

// Help categories in display order.
const (
	CategoryNavigation = "Navigation & System"
	CategoryFiles      = "File Operations"
	CategoryUtilities  = "Utilities"
	CategoryServer     = "Server & Packages"
	CategoryFeatures   = "Terminal Features"
	CategoryControl    = "Terminal Control"
)

var categoryOrder = []string{
	CategoryNavigation,
	CategoryFiles,
	CategoryUtilities,
	CategoryServer,
	CategoryFeatures,
	CategoryControl,
}

// =============================================================================
// REGISTRY
// =============================================================================

// Registry holds built-in commands by name. It is populated once at
// construction and read-only afterwards.
type Registry struct {
	commands map[string]*Command
	aliases  map[string]string
	order    []string
}

// NewRegistry creates a registry with every built-in registered.
func NewRegistry() *Registry {
	r := &Registry{
		commands: make(map[string]*Command),
		aliases:  make(map[string]string),
	}
	r.registerBuiltins()
	return r
}

// Register adds cmd, replacing any command of the same name.
func (r *Registry) Register(cmd *Command) {
	if _, exists := r.commands[cmd.Name]; !exists {
		r.order = append(r.order, cmd.Name)
	}
	r.commands[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		r.aliases[alias] = cmd.Name
	}
}

// Get looks up a command by name or alias.
func (r *Registry) Get(name string) *Command {
	if cmd, ok := r.commands[name]; ok {
		return cmd
	}
	if canonical, ok := r.aliases[name]; ok {
		return r.commands[canonical]
	}
	return nil
}

// All returns commands in registration order.
func (r *Registry) All() []*Command {
	out := make([]*Command, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.commands[name])
	}
	return out
}

// ByCategory groups commands by category, each group in registration order.
func (r *Registry) ByCategory() map[string][]*Command {
	out := make(map[string][]*Command)
	for _, cmd := range r.All() {
		out[cmd.Category] = append(out[cmd.Category], cmd)
	}
	return out
}

// Categories returns the categories that have commands, in display order.
// Unknown categories sort after the known ones.
func (r *Registry) Categories() []string {
	groups := r.ByCategory()
	var out []string
	for _, c := range categoryOrder {
		if len(groups[c]) > 0 {
			out = append(out, c)
		}
	}
	var extra []string
	for c := range groups {
		if !contains(categoryOrder, c) {
			extra = append(extra, c)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

// shellWords are common shell commands offered for completion alongside
// the built-ins.
var shellWords = []string{
	"mops install", "echo", "mkdir", "copy", "del", "type", "open",
	"whoami", "ipconfig", "systeminfo", "tasklist", "cat", "rm", "cp", "mv",
}

// Vocabulary returns the verbs offered for completion: every built-in name
// and alias followed by common shell commands.
func (r *Registry) Vocabulary() []string {
	out := make([]string, 0, len(r.order)+len(r.aliases)+len(shellWords))
	for _, cmd := range r.All() {
		out = append(out, cmd.Name)
		out = append(out, cmd.Aliases...)
	}
	return append(out, shellWords...)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// =============================================================================
// BUILT-IN COMMANDS
// =============================================================================

// registerBuiltins registers every built-in. Aliases come from the
// classification rules so the two tables cannot disagree.
func (r *Registry) registerBuiltins() {
	register := func(cmd *Command) {
		cmd.Aliases = ruleAliases(cmd.Name)
		r.Register(cmd)
	}

	// Navigation & System
	register(&Command{
		Name:        "cd",
		Usage:       "cd <path>",
		Description: "Change directory (~ expands to home)",
		Category:    CategoryNavigation,
		Tip:         "'cd ..' goes up one level; 'cd' alone prints where you are.",
		Handler:     handleCd,
	})
	register(&Command{
		Name:        "pwd",
		Usage:       "pwd",
		Description: "Print the current directory",
		Category:    CategoryNavigation,
		Handler:     handlePwd,
	})
	register(&Command{
		Name:        "ls",
		Usage:       "ls",
		Description: "List the current directory",
		Category:    CategoryNavigation,
		Tip:         "Directories end with a path separator.",
		Handler:     handleLs,
	})
	register(&Command{
		Name:        "wifcode",
		Usage:       "wifcode [--show]",
		Description: "Show saved Wi-Fi profiles (Windows)",
		Category:    CategoryNavigation,
		Handler:     handleWifcode,
	})

	// File Operations
	register(&Command{
		Name:        "tree",
		Usage:       "tree [path] [depth]",
		Description: "Show a directory tree",
		Category:    CategoryFiles,
		Tip:         "Add a number to limit depth, e.g. 'tree src 2'.",
		Handler:     handleTree,
	})
	register(&Command{
		Name:        "search",
		Usage:       "search <text>",
		Description: "Find text in files below the current directory",
		Category:    CategoryFiles,
		Tip:         "Search ignores case and skips binary files.",
		Handler:     handleSearch,
	})
	register(&Command{
		Name:        "mkcd",
		Usage:       "mkcd <dir>",
		Description: "Create a directory and enter it",
		Category:    CategoryFiles,
		Handler:     handleMkcd,
	})
	register(&Command{
		Name:        "extract",
		Usage:       "extract <archive>",
		Description: "Unpack a zip or tar archive here",
		Category:    CategoryFiles,
		Tip:         "Supported: .zip .tar .tar.gz .tgz .tar.bz2 .tar.zst",
		Handler:     handleExtract,
	})

	// Utilities
	register(&Command{
		Name:        "calc",
		Usage:       "calc <expression>",
		Description: "Evaluate an arithmetic expression",
		Category:    CategoryUtilities,
		Tip:         "Try 'calc 2**10' or 'calc 7 // 2'.",
		Handler:     handleCalc,
	})

	// Server & Packages
	register(&Command{
		Name:        "serve",
		Usage:       "serve [port]",
		Description: "Serve the current directory over HTTP (default 8000)",
		Category:    CategoryServer,
		Tip:         "Stop it again with 'stopserve'.",
		Handler:     handleServe,
	})
	register(&Command{
		Name:        "stopserve",
		Usage:       "stopserve",
		Description: "Stop the background server",
		Category:    CategoryServer,
		Handler:     handleStopServe,
	})
	register(&Command{
		Name:        "mops",
		Usage:       "mops install <package>",
		Description: "Install a package",
		Category:    CategoryServer,
		Handler:     handleMops,
	})

	// Terminal Features
	register(&Command{
		Name:        "newwindow",
		Usage:       "newwindow",
		Description: "Open another session",
		Category:    CategoryFeatures,
		Handler:     handleNewWindow,
	})
	register(&Command{
		Name:        "splitview",
		Usage:       "splitview",
		Description: "Toggle the side panel",
		Category:    CategoryFeatures,
		Handler:     handleSplitView,
	})
	register(&Command{
		Name:        "favorite",
		Usage:       "favorite <command>",
		Description: "Save a command to favorites",
		Category:    CategoryFeatures,
		Tip:         "List saved commands with 'favorites'.",
		Handler:     handleFavorite,
	})
	register(&Command{
		Name:        "favorites",
		Usage:       "favorites",
		Description: "List saved favorites",
		Category:    CategoryFeatures,
		Handler:     handleFavorites,
	})
	register(&Command{
		Name:        "history",
		Usage:       "history",
		Description: "Show this session's command history",
		Category:    CategoryFeatures,
		Tip:         "Up and Down recall earlier commands.",
		Handler:     handleHistory,
	})
	register(&Command{
		Name:        "advanced",
		Usage:       "advanced [on|off]",
		Description: "Show exit codes and timings",
		Category:    CategoryFeatures,
		Handler:     modeHandler("advanced", "Advanced mode", func(m *session.Modes) *bool { return &m.Advanced }),
	})
	register(&Command{
		Name:        "tutorial",
		Usage:       "tutorial [on|off]",
		Description: "Show tips after commands",
		Category:    CategoryFeatures,
		Handler:     modeHandler("tutorial", "Tutorial mode", func(m *session.Modes) *bool { return &m.Tutorial }),
	})
	register(&Command{
		Name:        "timestamps",
		Usage:       "timestamps [on|off]",
		Description: "Prefix output with the time",
		Category:    CategoryFeatures,
		Handler:     modeHandler("timestamps", "Timestamps", func(m *session.Modes) *bool { return &m.Timestamps }),
	})
	register(&Command{
		Name:        "linewrap",
		Usage:       "linewrap [on|off]",
		Description: "Wrap long output lines",
		Category:    CategoryFeatures,
		Handler:     modeHandler("linewrap", "Line wrap", func(m *session.Modes) *bool { return &m.LineWrap }),
	})

	// Terminal Control
	register(&Command{
		Name:        "help",
		Usage:       "help",
		Description: "Show this help",
		Category:    CategoryControl,
		Handler:     handleHelp,
	})
	register(&Command{
		Name:        "clear",
		Usage:       "clear",
		Description: "Clear the screen",
		Category:    CategoryControl,
		Handler:     handleClear,
	})
	register(&Command{
		Name:        "exit",
		Usage:       "exit",
		Description: "Quit",
		Category:    CategoryControl,
		Handler:     handleExit,
	})
}
