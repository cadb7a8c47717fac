// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/mopsterm/internal/output"
	"github.com/jeranaias/mopsterm/internal/session"
	"github.com/jeranaias/mopsterm/internal/ui/styles"
	"github.com/jeranaias/mopsterm/internal/util"
)

// =============================================================================
// LINE FORMATTING
// =============================================================================

const tabWidth = 4

// plainLine returns the text of l as it is laid out, without styling:
// tabs expanded and the timestamp prefix added when enabled.
func plainLine(l output.Line, timestamps bool) string {
	text := strings.ReplaceAll(l.Text, "\t", strings.Repeat(" ", tabWidth))
	text = strings.TrimRight(text, "\r")
	if timestamps && !l.Time.IsZero() {
		text = "[" + l.Time.Format("15:04:05") + "] " + text
	}
	return text
}

// layoutLine splits l into the rows it occupies at width. With line wrap
// off, long lines are truncated instead.
func layoutLine(l output.Line, modes session.Modes, width int) []string {
	text := plainLine(l, modes.Timestamps)
	if !modes.LineWrap {
		return []string{util.TruncateWidth(text, width)}
	}
	return wrapText(text, width)
}

// renderLines lays out and styles every line for a viewport of width.
func renderLines(theme *styles.Theme, lines []output.Line, modes session.Modes, width int) string {
	var b strings.Builder
	for i, l := range lines {
		style := theme.ForSeverity(l.Severity)
		for j, row := range layoutLine(l, modes, width) {
			if i > 0 || j > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(style.Render(row))
		}
	}
	return b.String()
}

// =============================================================================
// WRAPPING
// =============================================================================

// wrapText breaks s into rows of at most width display columns, preferring
// to break at spaces. Wide runes are never split.
func wrapText(s string, width int) []string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return []string{s}
	}

	var rows []string
	for runewidth.StringWidth(s) > width {
		cut := cutAt(s, width)
		if cut < len(s) && s[cut] != ' ' {
			if sp := strings.LastIndexByte(s[:cut], ' '); sp > 0 {
				cut = sp
			}
		}
		rows = append(rows, strings.TrimRight(s[:cut], " "))
		s = strings.TrimLeft(s[cut:], " ")
	}
	if s != "" {
		rows = append(rows, s)
	}
	return rows
}

// cutAt returns the byte offset of the first rune that would overflow width.
// At least one rune is always kept so wrapping makes progress.
func cutAt(s string, width int) int {
	w := 0
	for i, r := range s {
		rw := runewidth.RuneWidth(r)
		if w+rw > width {
			if i == 0 {
				return len(string(r))
			}
			return i
		}
		w += rw
	}
	return len(s)
}
