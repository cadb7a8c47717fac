// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"errors"

	"github.com/jeranaias/mopsterm/internal/config"
	"github.com/jeranaias/mopsterm/internal/favorites"
	"github.com/jeranaias/mopsterm/internal/logging"
	"github.com/jeranaias/mopsterm/internal/output"
	"github.com/jeranaias/mopsterm/internal/session"
	"github.com/jeranaias/mopsterm/internal/shellerr"
	"github.com/jeranaias/mopsterm/internal/supervisor"
)

// Env is what a handler can touch. One Env belongs to one session; the
// Supervisor and Favorites store may be shared between sessions.
type Env struct {
	Session    *session.Session
	Supervisor *supervisor.Supervisor
	Favorites  *favorites.Store
	Config     *config.Config
	Registry   *Registry
	Out        *output.Writer
}

// Dispatch runs cmd and renders a returned error as exactly one line.
func Dispatch(ctx context.Context, env *Env, cmd *Command, tail string) {
	err := cmd.Handler(ctx, env, tail)
	if err == nil {
		return
	}
	logging.L().Debug().Err(err).Str("cmd", cmd.Name).Str("kind", shellerr.KindOf(err).String()).Msg("COMMAND_ERROR")
	env.Out.Line(SeverityOf(err), ErrorText(err))
}

// SeverityOf maps an error's kind to the severity it is shown with.
func SeverityOf(err error) output.Severity {
	switch shellerr.KindOf(err) {
	case shellerr.KindAlreadyRunning, shellerr.KindUnsupportedFormat:
		return output.Warning
	case shellerr.KindNotRunning:
		return output.Muted
	default:
		return output.Error
	}
}

// ErrorText is the user-facing text for err. Kinds whose message already
// says everything drop the underlying cause.
func ErrorText(err error) string {
	var se *shellerr.Error
	if !errors.As(err, &se) {
		return err.Error()
	}
	switch se.Kind {
	case shellerr.KindNotFound, shellerr.KindAlreadyRunning,
		shellerr.KindNotRunning, shellerr.KindUnsupportedFormat:
		return se.Message
	}
	return se.Error()
}

func (e *Env) treeDepth() int {
	if e.Config != nil && e.Config.Tree.MaxDepth > 0 {
		return e.Config.Tree.MaxDepth
	}
	return 4
}

func (e *Env) defaultPort() int {
	if e.Config != nil && e.Config.Serve.DefaultPort > 0 {
		return e.Config.Serve.DefaultPort
	}
	return 8000
}

func (e *Env) refreshVocabulary() {
	if e.Registry != nil {
		e.Session.RebuildVocabulary(e.Registry.Vocabulary())
	}
}
