// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/mopsterm/internal/config"
	"github.com/jeranaias/mopsterm/internal/favorites"
	"github.com/jeranaias/mopsterm/internal/output"
	"github.com/jeranaias/mopsterm/internal/session"
	"github.com/jeranaias/mopsterm/internal/supervisor"
	"github.com/jeranaias/mopsterm/internal/util"
)

// =============================================================================
// HELPERS
// =============================================================================

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX sh")
	}
}

type memoryHistory struct {
	mu    sync.Mutex
	lines []string
}

func (m *memoryHistory) Record(_ context.Context, _, line, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = append(m.lines, line)
	return nil
}

type harness struct {
	dir     string
	rec     *output.Recorder
	router  *Router
	env     *Env
	history *memoryHistory
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()

	sess, err := session.New(session.Options{Dir: dir})
	require.NoError(t, err)

	sup := supervisor.New(supervisor.Options{
		PlainShell:     []string{"sh", "-c"},
		RichShell:      []string{"sh", "-c"},
		ServeCommand:   []string{"sleep", "30"},
		InstallCommand: []string{"sh", "-c", `echo "collecting $0"; echo "ERROR: bad wheel" 1>&2`},
		StopGrace:      2 * time.Second,
	})
	t.Cleanup(sup.Shutdown)

	favs, err := favorites.Open(filepath.Join(t.TempDir(), "favorites.json"))
	require.NoError(t, err)

	rec := &output.Recorder{}
	env := &Env{
		Session:    sess,
		Supervisor: sup,
		Favorites:  favs,
		Config:     config.Default(),
		Out:        output.NewWriter(rec),
	}
	hist := &memoryHistory{}
	return &harness{dir: dir, rec: rec, router: NewRouter(env, hist), env: env, history: hist}
}

// submit runs line and returns the lines it produced after the echo.
func (h *harness) submit(t *testing.T, line string) []output.Line {
	t.Helper()
	h.rec.Reset()
	require.NoError(t, h.router.Submit(context.Background(), line))
	lines := h.rec.Lines()
	require.NotEmpty(t, lines)
	require.Equal(t, output.Echo, lines[0].Severity)
	require.Equal(t, "> "+strings.TrimSpace(line), lines[0].Text)
	return lines[1:]
}

func texts(lines []output.Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}

// =============================================================================
// ROUTER BEHAVIOR
// =============================================================================

func TestSubmit_EmptyIsNoop(t *testing.T) {
	h := newHarness(t)
	for _, in := range []string{"", "   ", "\t\n"} {
		require.NoError(t, h.router.Submit(context.Background(), in))
	}
	assert.Empty(t, h.rec.Events())
	assert.Empty(t, h.env.Session.History())
	assert.Empty(t, h.history.lines)
}

func TestSubmit_Calc(t *testing.T) {
	h := newHarness(t)
	lines := h.submit(t, "calc 6*7")
	require.Len(t, lines, 1)
	assert.Equal(t, output.Success, lines[0].Severity)
	assert.Equal(t, "42", lines[0].Text)

	lines = h.submit(t, "calc 7/2")
	assert.Equal(t, "3.5", lines[0].Text)

	lines = h.submit(t, "calc 1/0")
	require.Len(t, lines, 1)
	assert.Equal(t, output.Error, lines[0].Severity)
	assert.True(t, strings.HasPrefix(lines[0].Text, "Calc error:"))
}

func TestSubmit_CdMissingLeavesDirectory(t *testing.T) {
	h := newHarness(t)
	lines := h.submit(t, "cd nope")

	require.Len(t, lines, 1, "exactly one error line")
	assert.Equal(t, output.Error, lines[0].Severity)
	assert.Equal(t, "Error: directory is as real as my girlfriend nope", lines[0].Text)
	assert.Equal(t, h.dir, h.env.Session.Dir())
}

func TestSubmit_CdAndPwd(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.Mkdir(filepath.Join(h.dir, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, "sub", "inner.txt"), nil, 0644))

	lines := h.submit(t, "cd sub")
	want := filepath.Join(h.dir, "sub")
	require.Len(t, lines, 1)
	assert.Equal(t, output.Success, lines[0].Severity)
	assert.Equal(t, want, lines[0].Text)
	assert.Contains(t, h.env.Session.Vocabulary(), "inner.txt")

	lines = h.submit(t, "cd")
	assert.Equal(t, []string{want}, texts(lines))
}

func TestSubmit_Mkcd(t *testing.T) {
	h := newHarness(t)
	h.submit(t, "mkcd proj")

	want := filepath.Join(h.dir, "proj")
	assert.Equal(t, want, h.env.Session.Dir())
	info, err := os.Stat(want)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestSubmit_SearchNoMatches(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, "a.txt"), []byte("hello\n"), 0644))

	lines := h.submit(t, "search nosuchtoken")
	require.Len(t, lines, 1)
	assert.Equal(t, output.Muted, lines[0].Severity)
	assert.Equal(t, "No matches found.", lines[0].Text)

	lines = h.submit(t, "search HELLO")
	assert.Equal(t, []string{"a.txt:1: hello"}, texts(lines))
}

func TestSubmit_LsAndTree(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, []string{"(empty)"}, texts(h.submit(t, "ls")))

	require.NoError(t, os.MkdirAll(filepath.Join(h.dir, "a", "b"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, "z.txt"), nil, 0644))

	sep := string(filepath.Separator)
	assert.Equal(t, []string{"a" + sep, "z.txt"}, texts(h.submit(t, "dir")))

	lines := texts(h.submit(t, "tree . 0"))
	assert.Equal(t, []string{h.dir, "├── a/", "└── z.txt"}, lines)
}

func TestSubmit_TreeNumericDirectory(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.MkdirAll(filepath.Join(h.dir, "2024", "inner"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, "top.txt"), nil, 0644))

	lines := texts(h.submit(t, "tree 2024"))
	assert.Equal(t, []string{filepath.Join(h.dir, "2024"), "└── inner/"}, lines)

	lines = texts(h.submit(t, "tree 0"))
	assert.Equal(t, []string{h.dir, "├── 2024/", "└── top.txt"}, lines)
}

func TestSubmit_ServeTwiceThenStop(t *testing.T) {
	skipOnWindows(t)
	h := newHarness(t)

	lines := h.submit(t, "serve 9123")
	require.Len(t, lines, 1)
	assert.Equal(t, output.Success, lines[0].Severity)
	assert.Contains(t, lines[0].Text, "http://localhost:9123/")

	p, ok := h.env.Supervisor.Background()
	require.True(t, ok)

	lines = h.submit(t, "serve")
	require.Len(t, lines, 1)
	assert.Equal(t, output.Warning, lines[0].Severity)
	assert.Equal(t, fmt.Sprintf("Server already running (pid %d).", p.PID), lines[0].Text)

	lines = h.submit(t, "stopserve")
	assert.Equal(t, []string{"Server stopped."}, texts(lines))

	lines = h.submit(t, "stopserve")
	require.Len(t, lines, 1)
	assert.Equal(t, output.Muted, lines[0].Severity)
	assert.Equal(t, "No server running.", lines[0].Text)
}

func TestSubmit_ServeBadPort(t *testing.T) {
	h := newHarness(t)
	lines := h.submit(t, "serve 99999")
	require.Len(t, lines, 1)
	assert.Equal(t, output.Warning, lines[0].Severity)
	_, ok := h.env.Supervisor.Background()
	assert.False(t, ok)
}

func TestSubmit_ServeNonNumericUsesDefaultPort(t *testing.T) {
	skipOnWindows(t)
	h := newHarness(t)

	lines := h.submit(t, "serve abc")
	require.Len(t, lines, 1)
	assert.Equal(t, output.Success, lines[0].Severity)
	assert.Contains(t, lines[0].Text, "http://localhost:8000/")

	p, ok := h.env.Supervisor.Background()
	require.True(t, ok)
	assert.Equal(t, 8000, p.Port)
}

func TestSubmit_ShellPassthrough(t *testing.T) {
	skipOnWindows(t)
	h := newHarness(t)

	tests := []struct {
		input string
		want  []output.Line
	}{
		{"echo hello", []output.Line{{Text: "hello", Severity: output.Normal}}},
		{"echo build failed", []output.Line{{Text: "build failed", Severity: output.Error}}},
		{"echo Warning: low disk", []output.Line{{Text: "Warning: low disk", Severity: output.Warning}}},
		{"echo oops 1>&2", []output.Line{{Text: "oops", Severity: output.Error}}},
		{"true", []output.Line{{Text: "[Command executed]", Severity: output.Muted}}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			lines := h.submit(t, tt.input)
			require.Len(t, lines, len(tt.want))
			for i := range tt.want {
				assert.Equal(t, tt.want[i].Text, lines[i].Text)
				assert.Equal(t, tt.want[i].Severity, lines[i].Severity)
			}
		})
	}
}

func TestSubmit_ShellRunsInSessionDir(t *testing.T) {
	skipOnWindows(t)
	h := newHarness(t)
	require.NoError(t, os.Mkdir(filepath.Join(h.dir, "w"), 0755))
	h.submit(t, "cd w")
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, "w", "marker"), nil, 0644))

	lines := h.submit(t, "ls marker")
	assert.Equal(t, []string{"marker"}, texts(lines))
}

func TestSubmit_DidYouMean(t *testing.T) {
	skipOnWindows(t)
	h := newHarness(t)
	lines := h.submit(t, "stopserv")
	require.NotEmpty(t, lines)
	last := lines[len(lines)-1]
	assert.Equal(t, output.Muted, last.Severity)
	assert.Equal(t, "Did you mean 'stopserve'?", last.Text)
}

func TestSubmit_AdvancedMode(t *testing.T) {
	skipOnWindows(t)
	h := newHarness(t)
	h.submit(t, "advanced on")

	lines := h.submit(t, "true")
	require.Len(t, lines, 2)
	assert.Equal(t, output.Muted, lines[1].Severity)
	assert.True(t, strings.HasPrefix(lines[1].Text, "exit 0 · "), lines[1].Text)

	lines = h.submit(t, "false")
	assert.True(t, strings.HasPrefix(lines[len(lines)-1].Text, "exit 1 · "))
}

func TestSubmit_TutorialTips(t *testing.T) {
	h := newHarness(t)
	lines := h.submit(t, "tutorial")
	assert.Equal(t, []string{"Tutorial mode on."}, texts(lines))

	lines = h.submit(t, "calc 2+2")
	require.Len(t, lines, 2)
	assert.Equal(t, "4", lines[0].Text)
	assert.Equal(t, output.Muted, lines[1].Severity)
	assert.True(t, strings.HasPrefix(lines[1].Text, "tip: "))

	lines = h.submit(t, "advanced")
	assert.Equal(t, []string{"Advanced mode on (tutorial off)."}, texts(lines))
	assert.False(t, h.env.Session.Modes().Tutorial)
}

func TestSubmit_ModeArguments(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, []string{"Timestamps on."}, texts(h.submit(t, "timestamps on")))
	assert.Equal(t, []string{"Timestamps on."}, texts(h.submit(t, "timestamps ON")))
	assert.Equal(t, []string{"Timestamps off."}, texts(h.submit(t, "timestamps")))

	lines := h.submit(t, "linewrap maybe")
	require.Len(t, lines, 1)
	assert.Equal(t, output.Warning, lines[0].Severity)
	assert.Equal(t, "Usage: linewrap [on|off]", lines[0].Text)

	h.submit(t, "splitview")
	assert.True(t, h.env.Session.Modes().SplitView)
}

func TestSubmit_ControlEvents(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		input string
		want  output.EventKind
	}{
		{"clear", output.EventClear},
		{"cls", output.EventClear},
		{"exit", output.EventExit},
		{"newwindow", output.EventNewSession},
	}
	for _, tt := range tests {
		h.rec.Reset()
		require.NoError(t, h.router.Submit(context.Background(), tt.input))
		events := h.rec.Events()
		require.Len(t, events, 2, tt.input)
		assert.Equal(t, output.EventLine, events[0].Kind)
		assert.Equal(t, tt.want, events[1].Kind, tt.input)
	}
}

func TestSubmit_Favorites(t *testing.T) {
	h := newHarness(t)
	lines := h.submit(t, "favorites")
	assert.Equal(t, []string{"No favorites yet. Use 'favorite [command]' to add one."}, texts(lines))

	lines = h.submit(t, "favorite git status")
	assert.Equal(t, []string{"✓ Added to favorites: git status"}, texts(lines))

	lines = h.submit(t, "favorites")
	require.Len(t, lines, 2)
	assert.Equal(t, "Favorites", lines[0].Text)
	assert.Equal(t, "  "+util.PadRight("git", 20)+" → git status", lines[1].Text)
}

func TestSubmit_Extract(t *testing.T) {
	h := newHarness(t)
	lines := h.submit(t, "extract missing.zip")
	require.Len(t, lines, 1)
	assert.Equal(t, output.Error, lines[0].Severity)
	assert.Equal(t, "File is not real.", lines[0].Text)

	require.NoError(t, os.WriteFile(filepath.Join(h.dir, "x.rar"), []byte("x"), 0644))
	lines = h.submit(t, "extract x.rar")
	require.Len(t, lines, 1)
	assert.Equal(t, output.Warning, lines[0].Severity)
	assert.Equal(t, "Unsupported archive type.", lines[0].Text)
}

func TestSubmit_Mops(t *testing.T) {
	skipOnWindows(t)
	h := newHarness(t)

	lines := h.submit(t, "mops install")
	assert.Equal(t, []string{"Usage: mops install <package>"}, texts(lines))

	lines = h.submit(t, "mops install requests")
	require.Len(t, lines, 4)
	assert.Equal(t, "Installing requests...", lines[0].Text)
	got := texts(lines[1:3])
	assert.ElementsMatch(t, []string{"collecting requests", "ERROR: bad wheel"}, got)
	assert.Equal(t, output.Success, lines[3].Severity)
	assert.Equal(t, "Installed requests.", lines[3].Text)
}

func TestSubmit_HelpAndHistory(t *testing.T) {
	h := newHarness(t)
	lines := h.submit(t, "help")
	require.NotEmpty(t, lines)
	assert.Equal(t, output.Success, lines[0].Severity)
	assert.Equal(t, CategoryNavigation, lines[0].Text)

	h.submit(t, "pwd")
	h.submit(t, "pwd")
	lines = h.submit(t, "history")
	assert.Equal(t, []string{"   1  help", "   2  pwd"}, texts(lines))
}

func TestSubmit_RecordsHistory(t *testing.T) {
	h := newHarness(t)
	h.submit(t, "calc 1+1")
	h.submit(t, "cd nope")

	assert.Equal(t, []string{"calc 1+1", "cd nope"}, h.env.Session.History())
	assert.Equal(t, []string{"calc 1+1", "cd nope"}, h.history.lines)
	assert.Equal(t, -1, h.env.Session.Cursor())
	assert.Contains(t, h.env.Session.Vocabulary(), "calc 1+1")
}

func TestSubmit_BusyRejected(t *testing.T) {
	h := newHarness(t)
	h.router.mu.Lock()
	err := h.router.Submit(context.Background(), "calc 1+1")
	h.router.mu.Unlock()

	assert.ErrorIs(t, err, ErrBusy)
	assert.Empty(t, h.rec.Events())
	assert.Empty(t, h.env.Session.History())
}

func TestSubmit_IndependentSessions(t *testing.T) {
	a := newHarness(t)
	b := newHarness(t)
	require.NoError(t, os.Mkdir(filepath.Join(a.dir, "only-a"), 0755))

	a.submit(t, "cd only-a")
	assert.Equal(t, b.dir, b.env.Session.Dir())
	assert.Empty(t, b.env.Session.History())
}
