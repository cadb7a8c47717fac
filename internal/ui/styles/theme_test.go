// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/jeranaias/mopsterm/internal/output"
)

func TestForSeverity(t *testing.T) {
	theme := NewTheme()
	tests := []struct {
		sev  output.Severity
		want lipgloss.TerminalColor
	}{
		{output.Normal, TextPrimary},
		{output.Echo, Cyan},
		{output.Success, Emerald},
		{output.Warning, Amber},
		{output.Error, Rose},
		{output.Muted, TextMuted},
		{output.Severity(99), TextPrimary},
	}
	for _, tt := range tests {
		t.Run(tt.sev.String(), func(t *testing.T) {
			got := theme.ForSeverity(tt.sev).GetForeground()
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestForSeverity_EchoIsBold(t *testing.T) {
	theme := NewTheme()
	assert.True(t, theme.ForSeverity(output.Echo).GetBold())
	assert.False(t, theme.ForSeverity(output.Normal).GetBold())
}

func TestLayoutFor(t *testing.T) {
	tests := []struct {
		width int
		want  LayoutMode
	}{
		{0, LayoutNarrow},
		{59, LayoutNarrow},
		{60, LayoutMedium},
		{99, LayoutMedium},
		{100, LayoutWide},
		{240, LayoutWide},
	}
	for _, tt := range tests {
		if got := LayoutFor(tt.width); got != tt.want {
			t.Errorf("LayoutFor(%d) = %v, want %v", tt.width, got, tt.want)
		}
	}
}

func TestStatusIndicators_ASCII(t *testing.T) {
	for _, s := range []string{StatusIndicators.Ready, StatusIndicators.Busy, StatusIndicators.Error, StatusIndicators.Copied} {
		for _, r := range s {
			if r > 127 {
				t.Errorf("indicator %q contains non-ASCII rune %q", s, r)
			}
		}
	}
}
