// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/mopsterm/internal/output"
)

// =============================================================================
// SEVERITY STYLES
// =============================================================================

var (
	// EchoStyle marks the user's own submitted line.
	EchoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")). // Cyan
			Bold(true)

	// NormalStyle is plain command output.
	NormalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")) // Off-white

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")) // Green

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // Yellow/Orange

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // Red

	MutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242")) // Dim gray

	BannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)
)

// StyleFor returns the style a severity is rendered with.
func StyleFor(sev output.Severity) lipgloss.Style {
	switch sev {
	case output.Echo:
		return EchoStyle
	case output.Success:
		return SuccessStyle
	case output.Warning:
		return WarningStyle
	case output.Error:
		return ErrorStyle
	case output.Muted:
		return MutedStyle
	default:
		return NormalStyle
	}
}

// RenderLine formats one output line for a plain terminal. Colors are
// applied only when ColorsEnabled.
func RenderLine(l output.Line, timestamps bool) string {
	text := l.Text
	if timestamps && !l.Time.IsZero() {
		text = "[" + l.Time.Format("15:04:05") + "] " + text
	}
	if !ColorsEnabled() {
		return text
	}
	return StyleFor(l.Severity).Render(text)
}

// =============================================================================
// BANNER
// =============================================================================

// WelcomeLines is the greeting shown at startup and after clear.
func WelcomeLines(version string) []string {
	return []string{
		"mopsterm " + version,
		"Type 'help' for built-in commands. Anything else runs in your shell.",
	}
}

// RenderBanner renders the welcome text with a separator underneath.
func RenderBanner(version string, width int) string {
	lines := WelcomeLines(version)
	if width <= 0 {
		width = DefaultTerminalWidth
	}
	sep := strings.Repeat("─", min(width, 70))
	if !ColorsEnabled() {
		return strings.Join(lines, "\n") + "\n" + sep
	}
	return BannerStyle.Render(lines[0]) + "\n" + MutedStyle.Render(lines[1]) + "\n" + MutedStyle.Render(sep)
}
