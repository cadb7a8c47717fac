// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/mopsterm/internal/config"
	"github.com/jeranaias/mopsterm/internal/output"
	"github.com/jeranaias/mopsterm/internal/session"
)

// isolate points every mopsterm path at a temp dir and disables colors.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("MOPS_HOME", home)
	t.Setenv("MOPS_FAVORITES", filepath.Join(home, "favorites.json"))
	t.Setenv("MOPS_NO_HISTORY", "1")
	ForceColorsEnabled(false)
	return home
}

func runRoot(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	require.NoError(t, root.ExecuteContext(context.Background()))
	return out.String()
}

func TestExec_Calc(t *testing.T) {
	isolate(t)
	out := runRoot(t, "exec", "calc", "6*7")
	assert.Equal(t, "> calc 6*7\n42\n", out)
}

func TestExec_Dir(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	out := runRoot(t, "exec", "--dir", dir, "pwd")
	assert.Contains(t, out, dir)
}

func TestExec_VerboseLogsToStderr(t *testing.T) {
	isolate(t)
	var stdout, stderr bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs([]string{"exec", "--verbose", "calc", "1+1"})
	require.NoError(t, root.ExecuteContext(context.Background()))

	assert.Equal(t, "> calc 1+1\n2\n", stdout.String())
	assert.Contains(t, stderr.String(), "COMMAND_SUBMIT")
}

func TestConfigPath(t *testing.T) {
	home := isolate(t)
	out := runRoot(t, "config", "path")
	assert.Equal(t, filepath.Join(home, "config.toml")+"\n", out)
}

func TestConfigShow(t *testing.T) {
	isolate(t)
	out := runRoot(t, "config", "show")
	assert.Contains(t, out, "default_port = 8000")
	assert.Contains(t, out, "[shell]")
}

func TestConfigInit(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "config.toml")

	out := runRoot(t, "config", "init")
	assert.Equal(t, "Wrote "+path+"\n", out)
	assert.FileExists(t, path)

	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"config", "init"})
	err := root.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	runRoot(t, "config", "init", "--force")

	cfg, err := config.LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, 10000, cfg.History.MaxEntries)
}

// newTestApp builds an App whose serve command is a harmless sleep.
func newTestApp(t *testing.T) *App {
	t.Helper()
	home := isolate(t)
	config.ResetGlobalForTesting()
	t.Cleanup(config.ResetGlobalForTesting)

	cfg := config.Default()
	cfg.Serve.Command = []string{"sleep", "30"}
	cfg.Serve.StopGraceSecs = 1
	path := filepath.Join(home, "config.toml")
	require.NoError(t, config.SaveTOML(cfg, path))

	app, err := NewApp(context.Background(), AppOptions{ConfigPath: path, NoHistory: true})
	require.NoError(t, err)
	return app
}

func TestNewApp_PublishesGlobalConfig(t *testing.T) {
	app := newTestApp(t)
	defer app.Close()
	assert.Same(t, app.Config, config.Global())
}

func TestApp_CloseStopsServer(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sleep")
	}
	app := newTestApp(t)
	router, err := app.NewRouter("", &printer{w: io.Discard, onExit: app.RequestExit})
	require.NoError(t, err)

	require.NoError(t, router.Submit(context.Background(), "serve 9131"))
	proc, ok := app.Supervisor.Background()
	require.True(t, ok)

	app.Close()
	_, ok = app.Supervisor.Background()
	assert.False(t, ok)
	assert.False(t, proc.Alive())
}

func TestApp_ExitLeavesServerRunning(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sleep")
	}
	app := newTestApp(t)
	t.Cleanup(app.Supervisor.Shutdown)
	p := &printer{w: io.Discard, onExit: app.RequestExit}
	router, err := app.NewRouter("", p)
	require.NoError(t, err)

	require.NoError(t, router.Submit(context.Background(), "serve 9132"))
	proc, ok := app.Supervisor.Background()
	require.True(t, ok)

	require.NoError(t, router.Submit(context.Background(), "exit"))
	require.True(t, p.exit.Load())

	app.Close()
	_, ok = app.Supervisor.Background()
	assert.True(t, ok)
	assert.True(t, proc.Alive())
}

func TestVersion(t *testing.T) {
	out := runRoot(t, "version")
	assert.True(t, strings.HasPrefix(out, "mopsterm "+Version))
}

func TestRenderLine(t *testing.T) {
	ForceColorsEnabled(false)
	l := output.Line{Text: "hello", Severity: output.Error, Time: time.Date(2025, 1, 2, 13, 4, 5, 0, time.Local)}

	assert.Equal(t, "hello", RenderLine(l, false))
	assert.Equal(t, "[13:04:05] hello", RenderLine(l, true))
}

func TestStyleFor_Distinct(t *testing.T) {
	assert.Equal(t, ErrorStyle.GetForeground(), StyleFor(output.Error).GetForeground())
	assert.Equal(t, MutedStyle.GetForeground(), StyleFor(output.Muted).GetForeground())
	assert.Equal(t, NormalStyle.GetForeground(), StyleFor(output.Normal).GetForeground())
}

func TestPrinter_Events(t *testing.T) {
	ForceColorsEnabled(false)
	var buf bytes.Buffer
	p := &printer{w: &buf, version: "test"}

	p.Emit(output.Event{Kind: output.EventLine, Line: output.Line{Text: "one"}})
	p.Emit(output.Event{Kind: output.EventClear})
	p.Emit(output.Event{Kind: output.EventNewSession})
	assert.False(t, p.exit.Load())
	p.Emit(output.Event{Kind: output.EventExit})
	assert.True(t, p.exit.Load())

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "one\n"))
	assert.Contains(t, out, "mopsterm test")
	assert.Contains(t, out, "newwindow")
}

func TestCompleteLine(t *testing.T) {
	sess, err := session.New(session.Options{Dir: t.TempDir()})
	require.NoError(t, err)
	sess.RebuildVocabulary([]string{"serve", "stopserve", "search", "mops install", "calc"})

	tests := []struct {
		line string
		want []string
	}{
		{"", nil},
		{"se", []string{"serve", "search"}},
		{"mops i", []string{"mops install"}},
		{"sudo ca", []string{"sudo calc"}},
		{"serve", nil},
	}
	for _, tt := range tests {
		got := completeLine(sess, tt.line)
		assert.Equal(t, tt.want, got, "completeLine(%q)", tt.line)
	}
}

func TestPrompt(t *testing.T) {
	assert.Equal(t, "mops proj> ", prompt(filepath.Join("home", "proj")))
}
