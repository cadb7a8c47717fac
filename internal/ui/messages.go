// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/mopsterm/internal/output"
)

// =============================================================================
// MESSAGES
// =============================================================================

// paneEventMsg carries one router event into the update loop.
type paneEventMsg struct {
	pane int
	ev   output.Event
}

// submitDoneMsg is sent when a Submit call returns.
type submitDoneMsg struct {
	pane    int
	err     error
	elapsed time.Duration
}

// waitForEvent blocks until the next router event or until the program has
// stopped. It is re-issued after every paneEventMsg.
func waitForEvent(events <-chan paneEventMsg, done <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case ev := <-events:
			return ev
		case <-done:
			return nil
		}
	}
}
