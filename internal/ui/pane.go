// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"

	"github.com/jeranaias/mopsterm/internal/commands"
	"github.com/jeranaias/mopsterm/internal/output"
	"github.com/jeranaias/mopsterm/internal/session"
)

// maxScrollback bounds how many lines a pane keeps.
const maxScrollback = 5000

// pane is one independent session: its router, its scrollback and the
// viewport that shows it.
type pane struct {
	id       int
	router   *commands.Router
	lines    []output.Line
	viewport viewport.Model

	busy    bool
	started time.Time
}

func newPane(id int, router *commands.Router) *pane {
	return &pane{
		id:       id,
		router:   router,
		viewport: viewport.New(0, 0),
	}
}

func (p *pane) session() *session.Session {
	return p.router.Env().Session
}

// title is the label shown in the tab strip.
func (p *pane) title() string {
	return filepath.Base(p.session().Dir())
}

func (p *pane) append(l output.Line) {
	p.lines = append(p.lines, l)
	if over := len(p.lines) - maxScrollback; over > 0 {
		p.lines = append(p.lines[:0:0], p.lines[over:]...)
	}
}

func (p *pane) clear() {
	p.lines = nil
	p.viewport.GotoTop()
}

// lastOutput returns the text produced by the most recent command: every
// line after the last echoed input. Empty when nothing has run yet.
func (p *pane) lastOutput() string {
	start := -1
	for i := len(p.lines) - 1; i >= 0; i-- {
		if p.lines[i].Severity == output.Echo {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return ""
	}
	var rows []string
	for _, l := range p.lines[start:] {
		rows = append(rows, plainLine(l, false))
	}
	return strings.Join(rows, "\n")
}
