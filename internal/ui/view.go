// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/mopsterm/internal/session"
	"github.com/jeranaias/mopsterm/internal/ui/styles"
	"github.com/jeranaias/mopsterm/internal/util"
)

// Layout: header (1) + pane border (2) + viewport + input (1) + status (1).
const (
	headerHeight    = 1
	paneChrome      = 2
	inputHeight     = 1
	statusBarHeight = 1
	sidePanelWidth  = 34
)

// syncLayout sizes the focused pane's viewport and refreshes its content.
// A pane scrolled to the bottom stays at the bottom.
func (m *Model) syncLayout() {
	if len(m.panes) == 0 {
		return
	}
	p := m.current()
	modes := p.session().Modes()

	vpWidth := m.width - paneChrome
	if m.showSidePanel(modes) {
		vpWidth -= sidePanelWidth
	}
	vpHeight := m.height - headerHeight - paneChrome - inputHeight - statusBarHeight
	p.viewport.Width = max(vpWidth, 1)
	p.viewport.Height = max(vpHeight, 1)

	follow := p.viewport.AtBottom()
	p.viewport.SetContent(renderLines(m.theme, p.lines, modes, p.viewport.Width))
	if follow {
		p.viewport.GotoBottom()
	}

	m.input.Prompt = "mops " + p.title() + "> "
	m.input.Width = max(m.width-lipgloss.Width(m.input.Prompt)-2, 10)
}

func (m *Model) showSidePanel(modes session.Modes) bool {
	return modes.SplitView && styles.LayoutFor(m.width) != styles.LayoutNarrow
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the whole screen.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	p := m.current()
	modes := p.session().Modes()

	body := m.theme.PaneFocused.Render(p.viewport.View())
	if m.showSidePanel(modes) {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, m.renderSidePanel(p, p.viewport.Height+paneChrome))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(modes),
		body,
		m.input.View(),
		m.renderStatusBar(p),
	)
}

func (m Model) renderHeader(modes session.Modes) string {
	title := m.theme.HeaderTitle.Render("mopsterm")
	if m.opts.Version != "" {
		title += " " + m.theme.Muted.Render(m.opts.Version)
	}

	tabs := make([]string, 0, len(m.panes))
	for i, p := range m.panes {
		label := fmt.Sprintf("%d:%s", i+1, p.title())
		if p.busy {
			label += "*"
		}
		if i == m.focus {
			tabs = append(tabs, m.theme.TabActive.Render(label))
		} else {
			tabs = append(tabs, m.theme.Tab.Render(label))
		}
	}

	left := title + "  " + strings.Join(tabs, "")
	right := m.theme.Muted.Render(modeFlags(modes))
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		return m.theme.Header.Width(m.width).Render(left)
	}
	return m.theme.Header.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

// modeFlags lists the modes that are on, in a fixed order.
func modeFlags(modes session.Modes) string {
	var flags []string
	if modes.Advanced {
		flags = append(flags, "ADV")
	}
	if modes.Tutorial {
		flags = append(flags, "TUT")
	}
	if modes.Timestamps {
		flags = append(flags, "TS")
	}
	if modes.LineWrap {
		flags = append(flags, "WRAP")
	}
	if modes.SplitView {
		flags = append(flags, "SPLIT")
	}
	return strings.Join(flags, " ")
}

func (m Model) renderStatusBar(p *pane) string {
	var text string
	switch {
	case p.busy:
		text = m.spinner.View() + " running " + time.Since(p.started).Truncate(100*time.Millisecond).String()
	case m.status != "" && m.statusErr:
		text = m.theme.Error.Render(styles.StatusIndicators.Error + " " + m.status)
	case m.status != "":
		text = m.status
	default:
		text = styles.StatusIndicators.Ready + " ctrl+n new · ctrl+o switch · ctrl+w close · ctrl+y copy · ctrl+q quit"
	}
	return m.theme.StatusBar.Width(m.width).Render(util.TruncateWidth(text, max(m.width-2, 1)))
}

// renderSidePanel lists favorites and the newest history entries.
func (m Model) renderSidePanel(p *pane, height int) string {
	inner := sidePanelWidth - 2
	rows := []string{m.theme.SideTitle.Render("Favorites")}

	var favs []string
	if m.opts.Favorites != nil {
		for _, e := range m.opts.Favorites.Entries() {
			favs = append(favs, util.TruncateWidth(e.Key+" → "+e.Command, inner))
		}
	}
	if len(favs) == 0 {
		favs = []string{m.theme.Muted.Render("(none)")}
	}
	rows = append(rows, favs...)
	rows = append(rows, "", m.theme.SideTitle.Render("Recent"))

	history := p.session().History()
	room := height - len(rows)
	for i := len(history) - 1; i >= 0 && room > 0; i-- {
		rows = append(rows, m.theme.Muted.Render(util.TruncateWidth(history[i], inner)))
		room--
	}
	if len(history) == 0 {
		rows = append(rows, m.theme.Muted.Render("(empty)"))
	}

	return m.theme.SidePanel.Width(sidePanelWidth - 1).Height(height).MaxHeight(height).Render(strings.Join(rows, "\n"))
}
