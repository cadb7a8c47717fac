// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/mopsterm/internal/config"
	"github.com/jeranaias/mopsterm/internal/logging"
	"github.com/jeranaias/mopsterm/internal/output"
)

// ErrBusy is returned by Submit while another command is still running.
var ErrBusy = errors.New("a command is already running")

// HistoryRecorder persists submitted lines beyond the session.
type HistoryRecorder interface {
	Record(ctx context.Context, sessionID, line, dir string) error
}

// Router is the single entry point for submitted lines. One Router serves
// one session and runs at most one command at a time.
type Router struct {
	env     *Env
	history HistoryRecorder

	mu sync.Mutex
}

// NewRouter creates a router for env. history may be nil. A nil
// env.Registry is replaced with the built-in registry.
func NewRouter(env *Env, history HistoryRecorder) *Router {
	if env.Registry == nil {
		env.Registry = NewRegistry()
	}
	if env.Out == nil {
		env.Out = output.NewWriter(nil)
	}
	env.refreshVocabulary()
	return &Router{env: env, history: history}
}

// Env returns the router's environment.
func (r *Router) Env() *Env { return r.env }

// Submit runs one line. Empty input is ignored. While another Submit is in
// flight it returns ErrBusy without touching the session.
func (r *Router) Submit(ctx context.Context, raw string) error {
	line := strings.TrimSpace(raw)
	if line == "" {
		return nil
	}
	if !r.mu.TryLock() {
		return ErrBusy
	}
	defer r.mu.Unlock()

	env := r.env
	env.Out.Line(output.Echo, "> "+line)

	c := Classify(line, r.richKeywords())
	logging.L().Debug().
		Str("session", env.Session.ID()).
		Str("kind", c.Kind.String()).
		Str("verb", c.Verb).
		Msg("COMMAND_SUBMIT")

	if c.Kind == KindBuiltin {
		r.runBuiltin(ctx, c)
	} else {
		r.runShell(ctx, c)
	}

	r.afterCommand(ctx, line)
	return nil
}

func (r *Router) runBuiltin(ctx context.Context, c Classification) {
	env := r.env
	cmd := env.Registry.Get(c.Verb)
	if cmd == nil {
		env.Out.Error("Unknown command: " + c.Verb)
		return
	}
	Dispatch(ctx, env, cmd, c.Tail)
	if cmd.Tip != "" && env.Session.Modes().Tutorial {
		env.Out.Muted("tip: " + cmd.Tip)
	}
}

func (r *Router) runShell(ctx context.Context, c Classification) {
	env := r.env
	res, err := env.Supervisor.RunForeground(ctx, c.Raw, env.Session.Dir(), c.Kind == KindRichShell)
	if err != nil {
		env.Out.Line(SeverityOf(err), ErrorText(err))
		return
	}

	for _, l := range res.Stdout {
		env.Out.Line(output.ClassifyShellLine(l), l)
	}
	for _, l := range res.Stderr {
		env.Out.Error(l)
	}
	if len(res.Stdout) == 0 && len(res.Stderr) == 0 {
		env.Out.Muted("[Command executed]")
	}

	if isCommandNotFound(res.ExitCode) {
		first, _ := splitFirst(c.Raw)
		if s, ok := Suggest(first, env.Registry.Vocabulary()); ok {
			env.Out.Muted(fmt.Sprintf("Did you mean '%s'?", s))
		}
	}
	if env.Session.Modes().Advanced {
		env.Out.Muted(fmt.Sprintf("exit %d · %s", res.ExitCode, res.Duration.Round(time.Millisecond)))
	}
	logging.L().Debug().Int("exit", res.ExitCode).Dur("duration", res.Duration).Msg("COMMAND_SHELL_DONE")
}

func (r *Router) afterCommand(ctx context.Context, line string) {
	env := r.env
	env.Session.AppendHistory(line)
	env.Session.ResetCursor()
	if r.history != nil {
		if err := r.history.Record(ctx, env.Session.ID(), line, env.Session.Dir()); err != nil {
			logging.L().Warn().Err(err).Msg("HISTORY_PERSIST_FAILED")
		}
	}
	env.refreshVocabulary()
}

func (r *Router) richKeywords() []string {
	if r.env.Config != nil && len(r.env.Config.Shell.RichKeywords) > 0 {
		return r.env.Config.Shell.RichKeywords
	}
	return config.DefaultRichKeywords
}
