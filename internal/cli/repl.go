// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/peterh/liner"

	"github.com/jeranaias/mopsterm/internal/commands"
	"github.com/jeranaias/mopsterm/internal/output"
	"github.com/jeranaias/mopsterm/internal/session"
)

// =============================================================================
// PRINTER SINK
// =============================================================================

// printer renders router events to a plain terminal.
type printer struct {
	w       io.Writer
	version string
	modes   func() session.Modes
	onExit  func()
	exit    atomic.Bool
}

func (p *printer) Emit(ev output.Event) {
	switch ev.Kind {
	case output.EventLine:
		fmt.Fprintln(p.w, RenderLine(ev.Line, p.modes != nil && p.modes().Timestamps))
	case output.EventClear:
		if ColorsEnabled() {
			fmt.Fprint(p.w, "\033[H\033[2J")
		}
		fmt.Fprintln(p.w, RenderBanner(p.version, GetTerminalWidth()))
	case output.EventExit:
		p.exit.Store(true)
		if p.onExit != nil {
			p.onExit()
		}
	case output.EventNewSession:
		fmt.Fprintln(p.w, RenderLine(output.Line{
			Text:     "newwindow needs the full-screen terminal; start another mopsterm instead.",
			Severity: output.Warning,
		}, false))
	}
}

// =============================================================================
// COMPLETION
// =============================================================================

// completeLine offers completions for the last word of line from the
// session vocabulary. Multi-word vocabulary entries replace the whole line.
func completeLine(sess *session.Session, line string) []string {
	if strings.TrimSpace(line) == "" {
		return nil
	}
	head, word := "", line
	if i := strings.LastIndexAny(line, " \t"); i >= 0 {
		head, word = line[:i+1], line[i+1:]
	}

	var out []string
	seen := make(map[string]bool)
	for _, cand := range sess.Vocabulary() {
		var full string
		switch {
		case strings.HasPrefix(strings.ToLower(cand), strings.ToLower(line)):
			full = cand
		case word != "" && strings.HasPrefix(strings.ToLower(cand), strings.ToLower(word)):
			full = head + cand
		default:
			continue
		}
		if !seen[full] && full != line {
			seen[full] = true
			out = append(out, full)
		}
	}
	return out
}

// =============================================================================
// REPL
// =============================================================================

// RunREPL runs a line-editing loop until exit, Ctrl+C or EOF.
func RunREPL(ctx context.Context, app *App, w io.Writer, version string) error {
	p := &printer{w: w, version: version, onExit: app.RequestExit}
	router, err := app.NewRouter("", p)
	if err != nil {
		return err
	}
	sess := router.Env().Session
	p.modes = sess.Modes

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetTabCompletionStyle(liner.TabPrints)
	line.SetCompleter(func(l string) []string { return completeLine(sess, l) })
	for _, h := range sess.History() {
		line.AppendHistory(h)
	}

	if app.Config.UI.Banner {
		fmt.Fprintln(w, RenderBanner(version, GetTerminalWidth()))
	}
	for _, msg := range app.Warnings() {
		fmt.Fprintln(w, RenderLine(output.Line{Text: msg, Severity: output.Warning}, false))
	}

	for !p.exit.Load() {
		input, err := line.Prompt(prompt(sess.Dir()))
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(w)
				return nil
			}
			return err
		}
		if strings.TrimSpace(input) == "" {
			continue
		}
		line.AppendHistory(input)

		if err := router.Submit(ctx, input); err != nil && !errors.Is(err, commands.ErrBusy) {
			return err
		}
	}
	return nil
}

// prompt is kept free of escape codes; liner measures it by runes.
func prompt(dir string) string {
	return "mops " + filepath.Base(dir) + "> "
}
