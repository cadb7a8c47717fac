// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/mopsterm/internal/logging"
)

// Run shows the full-screen front-end until the user quits, a session asks
// to exit, or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	m, err := newModel(ctx, opts)
	if err != nil {
		return err
	}
	defer close(m.done)

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),       // Use alternate screen buffer
		tea.WithMouseCellMotion(), // Mouse wheel scrolls the viewport
		tea.WithContext(ctx),
	)

	logging.L().Info().Msg("UI_START")
	_, err = p.Run()
	logging.L().Info().Err(err).Msg("UI_STOP")
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
