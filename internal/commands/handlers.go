// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/jeranaias/mopsterm/internal/archive"
	"github.com/jeranaias/mopsterm/internal/calc"
	"github.com/jeranaias/mopsterm/internal/fsops"
	"github.com/jeranaias/mopsterm/internal/logging"
	"github.com/jeranaias/mopsterm/internal/output"
	"github.com/jeranaias/mopsterm/internal/session"
	"github.com/jeranaias/mopsterm/internal/shellerr"
	"github.com/jeranaias/mopsterm/internal/util"
)

// =============================================================================
// NAVIGATION
// =============================================================================

func handleCd(_ context.Context, env *Env, tail string) error {
	dir, err := env.Session.Chdir(tail)
	if err != nil {
		return err
	}
	env.Out.Success(dir)
	env.refreshVocabulary()
	logging.L().Debug().Str("dir", dir).Msg("SESSION_CHDIR")
	return nil
}

func handlePwd(_ context.Context, env *Env, _ string) error {
	env.Out.Success(env.Session.Dir())
	return nil
}

func handleLs(_ context.Context, env *Env, _ string) error {
	entries, err := fsops.List(env.Session.Dir())
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		env.Out.Muted("(empty)")
		return nil
	}
	for _, e := range entries {
		env.Out.Normal(e.Display())
	}
	return nil
}

// =============================================================================
// FILE OPERATIONS
// =============================================================================

// parseTreeArgs splits "tree [path] [depth]". With two or more fields a
// trailing number is the depth; a lone number is the depth only when isDir
// rejects it as a path. Depths above maxDepth are clamped.
func parseTreeArgs(tail string, maxDepth int, isDir func(string) bool) (string, int) {
	fields := strings.Fields(tail)
	depth := maxDepth
	if n := len(fields); n > 0 {
		d, err := strconv.Atoi(fields[n-1])
		if err == nil && d >= 0 && (n > 1 || isDir == nil || !isDir(fields[0])) {
			depth = min(d, maxDepth)
			fields = fields[:n-1]
		}
	}
	path := strings.Join(fields, " ")
	if path == "" {
		path = "."
	}
	return path, depth
}

func handleTree(_ context.Context, env *Env, tail string) error {
	path, depth := parseTreeArgs(tail, env.treeDepth(), func(p string) bool {
		abs, err := env.Session.Resolve(p)
		if err != nil {
			return false
		}
		info, err := os.Stat(abs)
		return err == nil && info.IsDir()
	})
	root, err := env.Session.Resolve(path)
	if err != nil {
		return err
	}

	env.Out.Success(root)
	return fsops.Tree(root, depth,
		func(line string, _ bool) { env.Out.Normal(line) },
		func(err error) { env.Out.Error("Tree error: " + err.Error()) },
	)
}

func handleSearch(_ context.Context, env *Env, tail string) error {
	n, err := fsops.Search(env.Session.Dir(), tail, func(m fsops.Match) {
		env.Out.Normal(m.String())
	})
	if err != nil {
		return err
	}
	if n == 0 {
		env.Out.Muted("No matches found.")
	}
	return nil
}

func handleMkcd(ctx context.Context, env *Env, tail string) error {
	target, err := env.Session.Resolve(tail)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(target, 0755); err != nil {
		return shellerr.Wrap(shellerr.KindIOError, err, "mkcd error")
	}
	return handleCd(ctx, env, target)
}

func handleExtract(_ context.Context, env *Env, tail string) error {
	src, err := env.Session.Resolve(tail)
	if err != nil {
		return err
	}
	res, err := archive.Extract(src, env.Session.Dir())
	if err != nil {
		return err
	}
	if res.Format.IsZip() {
		env.Out.Success("Extracted zip archive.")
	} else {
		env.Out.Success("Extracted tar archive.")
	}
	logging.L().Info().Str("src", src).Int("files", res.Files).Msg("ARCHIVE_EXTRACTED")
	env.refreshVocabulary()
	return nil
}

// =============================================================================
// UTILITIES
// =============================================================================

func handleCalc(_ context.Context, env *Env, tail string) error {
	v, err := calc.Eval(tail)
	if err != nil {
		return shellerr.New(shellerr.KindEvalError, "Calc error: %s", err)
	}
	env.Out.Success(v.String())
	return nil
}

// =============================================================================
// SERVER & PACKAGES
// =============================================================================

func handleServe(_ context.Context, env *Env, tail string) error {
	port := env.defaultPort()
	if fields := strings.Fields(tail); len(fields) > 0 {
		// Non-numeric arguments fall back to the default port.
		if p, err := strconv.Atoi(fields[0]); err == nil {
			if p < 1 || p > 65535 {
				env.Out.Warning("Usage: serve [port] (1-65535)")
				return nil
			}
			port = p
		}
	}

	dir := env.Session.Dir()
	p, err := env.Supervisor.StartBackground(port, dir)
	if err != nil {
		return err
	}
	env.Out.Success(fmt.Sprintf("Serving %s at http://localhost:%d/ (pid %d)", dir, p.Port, p.PID))
	return nil
}

func handleStopServe(_ context.Context, env *Env, _ string) error {
	res, err := env.Supervisor.StopBackground()
	if err != nil {
		return err
	}
	if !res.Confirmed {
		env.Out.Warning(fmt.Sprintf("Server (pid %d) did not exit in time; stopped tracking it.", res.PID))
		return nil
	}
	env.Out.Success("Server stopped.")
	return nil
}

// packageArg extracts the package from "install <pkg>" or "<pkg>".
func packageArg(tail string) (string, bool) {
	fields := strings.Fields(tail)
	switch {
	case len(fields) >= 2 && strings.EqualFold(fields[0], "install"):
		return fields[1], true
	case len(fields) >= 1 && !strings.EqualFold(fields[0], "install"):
		return fields[0], true
	}
	return "", false
}

func handleMops(ctx context.Context, env *Env, tail string) error {
	pkg, ok := packageArg(tail)
	if !ok {
		env.Out.Warning("Usage: mops install <package>")
		return nil
	}

	env.Out.Normal(fmt.Sprintf("Installing %s...", pkg))
	code, err := env.Supervisor.RunInstall(ctx, pkg, func(line string) {
		env.Out.Line(output.ClassifyShellLine(line), line)
	})
	if err != nil {
		return err
	}
	if code != 0 {
		env.Out.Error(fmt.Sprintf("Installation failed (exit %d).", code))
		return nil
	}
	env.Out.Success(fmt.Sprintf("Installed %s.", pkg))
	return nil
}

func handleWifcode(ctx context.Context, env *Env, tail string) error {
	if runtime.GOOS != "windows" {
		env.Out.Error("wifcode is only supported on Windows.")
		return nil
	}

	dir := env.Session.Dir()
	res, err := env.Supervisor.RunForeground(ctx, "netsh wlan show profiles", dir, false)
	if err != nil {
		return err
	}
	names := ParseWifiProfiles(res.Stdout)
	if len(names) == 0 {
		env.Out.Warning("No saved Wi-Fi profiles found.")
		return nil
	}

	reveal := wantsReveal(tail)
	for _, name := range names {
		key := "<hidden> (use 'wifcode --show')"
		if reveal {
			key = "<no password or open network>"
			detail, err := env.Supervisor.RunForeground(ctx,
				fmt.Sprintf(`netsh wlan show profile name="%s" key=clear`, name), dir, false)
			if err != nil {
				return err
			}
			if k, ok := ParseWifiKey(detail.Stdout); ok {
				key = k
			}
		}
		env.Out.Normal(name + ": " + key)
	}
	return nil
}

// =============================================================================
// TERMINAL FEATURES
// =============================================================================

func handleNewWindow(_ context.Context, env *Env, _ string) error {
	env.Out.Control(output.EventNewSession)
	return nil
}

func handleSplitView(_ context.Context, env *Env, _ string) error {
	m := env.Session.UpdateModes(func(m *session.Modes) { m.SplitView = !m.SplitView })
	env.Out.Success("Split view " + onOff(m.SplitView) + ".")
	return nil
}

func handleFavorite(_ context.Context, env *Env, tail string) error {
	if env.Favorites == nil {
		return shellerr.New(shellerr.KindIOError, "Favorites are not available.")
	}
	if _, err := env.Favorites.Add(tail); err != nil {
		return err
	}
	env.Out.Success("✓ Added to favorites: " + tail)
	return nil
}

func handleFavorites(_ context.Context, env *Env, _ string) error {
	if env.Favorites == nil || env.Favorites.Len() == 0 {
		env.Out.Warning("No favorites yet. Use 'favorite [command]' to add one.")
		return nil
	}
	env.Out.Success("Favorites")
	for _, e := range env.Favorites.Entries() {
		env.Out.Normal("  " + util.PadRight(e.Key, 20) + " → " + e.Command)
	}
	return nil
}

func handleHistory(_ context.Context, env *Env, _ string) error {
	hist := env.Session.History()
	if len(hist) == 0 {
		env.Out.Muted("No history yet.")
		return nil
	}
	for i, line := range hist {
		env.Out.Muted(fmt.Sprintf("%4d  %s", i+1, line))
	}
	return nil
}

// modeHandler builds the handler for an on/off mode flag. No argument
// toggles.
func modeHandler(verb, label string, field func(*session.Modes) *bool) HandlerFunc {
	return func(_ context.Context, env *Env, tail string) error {
		arg := strings.ToLower(strings.TrimSpace(tail))
		if arg != "" && arg != "on" && arg != "off" {
			env.Out.Warning("Usage: " + verb + " [on|off]")
			return nil
		}

		before := env.Session.Modes()
		after := env.Session.UpdateModes(func(m *session.Modes) {
			f := field(m)
			switch arg {
			case "on":
				*f = true
			case "off":
				*f = false
			default:
				*f = !*f
			}
		})

		msg := label + " " + onOff(*field(&after)) + "."
		if before.Tutorial && !after.Tutorial && after.Advanced && !before.Advanced {
			msg = label + " on (tutorial off)."
		}
		env.Out.Success(msg)
		return nil
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// =============================================================================
// TERMINAL CONTROL
// =============================================================================

func handleHelp(_ context.Context, env *Env, _ string) error {
	groups := env.Registry.ByCategory()
	for _, cat := range env.Registry.Categories() {
		env.Out.Success(cat)
		for _, cmd := range groups[cat] {
			env.Out.Normal("  " + util.PadRight(cmd.Usage, 24) + cmd.Description)
		}
	}
	env.Out.Muted("Anything else runs in your shell; pipes and cmdlets use " + filepath.Base(richShellName(env)) + ".")
	return nil
}

func richShellName(env *Env) string {
	if env.Config != nil && len(env.Config.Shell.Rich) > 0 {
		return env.Config.Shell.Rich[0]
	}
	return "the rich shell"
}

func handleClear(_ context.Context, env *Env, _ string) error {
	env.Out.Control(output.EventClear)
	return nil
}

func handleExit(_ context.Context, env *Env, _ string) error {
	env.Out.Control(output.EventExit)
	return nil
}
