// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/mopsterm/internal/output"
)

// Theme holds all the styled components for the full-screen terminal.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// ==========================================================================
	// CHROME
	// ==========================================================================

	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	Tab         lipgloss.Style
	TabActive   lipgloss.Style
	StatusBar   lipgloss.Style
	Prompt      lipgloss.Style
	Hint        lipgloss.Style

	// ==========================================================================
	// PANES
	// ==========================================================================

	Pane        lipgloss.Style
	PaneFocused lipgloss.Style
	SidePanel   lipgloss.Style
	SideTitle   lipgloss.Style

	// ==========================================================================
	// OUTPUT LINES
	// ==========================================================================

	Normal    lipgloss.Style
	Echo      lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Muted     lipgloss.Style
	Timestamp lipgloss.Style
}

// NewTheme creates a new theme with all styles configured.
func NewTheme() *Theme {
	colorProfile := termenv.ColorProfile()
	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)

	t.Tab = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Padding(0, 1)

	t.TabActive = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true).
		Underline(true).
		Padding(0, 1)

	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(SurfaceDim).
		Padding(0, 1)

	t.Prompt = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.Hint = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.Pane = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(OverlayDim)

	t.PaneFocused = t.Pane.
		BorderForeground(Purple)

	t.SidePanel = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderTop(false).
		BorderRight(false).
		BorderBottom(false).
		BorderForeground(Overlay).
		PaddingLeft(1)

	t.SideTitle = lipgloss.NewStyle().
		Foreground(Purple).
		Bold(true)

	t.Normal = lipgloss.NewStyle().Foreground(TextPrimary)
	t.Echo = lipgloss.NewStyle().Foreground(Cyan).Bold(true)
	t.Success = lipgloss.NewStyle().Foreground(Emerald)
	t.Warning = lipgloss.NewStyle().Foreground(Amber)
	t.Error = lipgloss.NewStyle().Foreground(Rose).Bold(true)
	t.Muted = lipgloss.NewStyle().Foreground(TextMuted)
	t.Timestamp = lipgloss.NewStyle().Foreground(TextMuted)
}

// ForSeverity returns the style a line of the given severity is drawn with.
func (t *Theme) ForSeverity(sev output.Severity) lipgloss.Style {
	switch sev {
	case output.Echo:
		return t.Echo
	case output.Success:
		return t.Success
	case output.Warning:
		return t.Warning
	case output.Error:
		return t.Error
	case output.Muted:
		return t.Muted
	default:
		return t.Normal
	}
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)

// LayoutFor returns the layout mode for a terminal width. The side panel is
// only drawn in LayoutWide and LayoutMedium.
func LayoutFor(width int) LayoutMode {
	if width < 60 {
		return LayoutNarrow
	}
	if width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}
