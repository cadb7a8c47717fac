// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/jeranaias/mopsterm/internal/commands"
	"github.com/jeranaias/mopsterm/internal/config"
	"github.com/jeranaias/mopsterm/internal/favorites"
	"github.com/jeranaias/mopsterm/internal/logging"
	"github.com/jeranaias/mopsterm/internal/output"
	"github.com/jeranaias/mopsterm/internal/session"
	"github.com/jeranaias/mopsterm/internal/storage"
	"github.com/jeranaias/mopsterm/internal/supervisor"
)

// App holds state shared by every session in this process.
type App struct {
	Config     *config.Config
	Supervisor *supervisor.Supervisor
	Favorites  *favorites.Store
	History    *storage.HistoryStore

	registry  *commands.Registry
	preload   []string
	warnings  []string
	logCloser io.Closer
	exiting   atomic.Bool
}

// AppOptions tune NewApp.
type AppOptions struct {
	// ConfigPath overrides the default config location.
	ConfigPath string
	// NoHistory disables the history database for this run.
	NoHistory bool
}

// NewApp loads configuration and opens shared resources. Problems that
// still allow a usable terminal (a broken config file, an unreadable
// favorites file, a locked history database) become warnings instead of
// errors.
func NewApp(ctx context.Context, opts AppOptions) (*App, error) {
	a := &App{registry: commands.NewRegistry()}

	cfg, err := loadConfig(opts.ConfigPath)
	if cfg == nil {
		return nil, err
	}
	if err != nil {
		a.warn("Config error, using defaults: %v", err)
	}
	a.Config = cfg
	config.SetGlobal(cfg)
	a.logCloser = setupLogging()

	serveCmd := cfg.Serve.Command
	if len(serveCmd) == 0 {
		if serveCmd, err = supervisor.DefaultServeCommand(); err != nil {
			a.warn("serve is unavailable: %v", err)
		}
	}
	a.Supervisor = supervisor.New(supervisor.Options{
		PlainShell:     cfg.Shell.Plain,
		RichShell:      cfg.Shell.Rich,
		ServeCommand:   serveCmd,
		InstallCommand: cfg.Install.Command,
		StopGrace:      cfg.StopGrace(),
	})

	if favPath, err := cfg.FavoritesPath(); err != nil {
		a.warn("Favorites unavailable: %v", err)
	} else {
		store, err := favorites.Open(favPath)
		if err != nil {
			a.warn("Favorites file could not be read, starting empty: %v", err)
		}
		a.Favorites = store
		if err := store.Watch(nil); err != nil {
			logging.L().Warn().Err(err).Msg("FAVORITES_WATCH_FAILED")
		}
	}

	if cfg.History.Persist && !opts.NoHistory {
		a.openHistory(ctx)
	}

	logging.L().Info().Int("warnings", len(a.warnings)).Msg("APP_START")
	return a, nil
}

// setupLogging opens the log file named by the global config. On failure
// logging keeps its default output and nil is returned.
func setupLogging() io.Closer {
	cfg := config.Global()
	logPath, err := cfg.LogPath()
	if err != nil {
		return nil
	}
	closer, err := logging.Setup(logPath, cfg.Log.Level)
	if err != nil {
		return nil
	}
	return closer
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

func (a *App) openHistory(ctx context.Context) {
	dbPath, err := a.Config.HistoryDBPath()
	if err != nil {
		a.warn("History disabled: %v", err)
		return
	}
	store, err := storage.OpenHistory(dbPath)
	if err != nil {
		a.warn("History disabled: %v", err)
		return
	}
	a.History = store
	if keep := a.Config.History.MaxEntries; keep > 0 {
		if n, err := store.Prune(ctx, keep); err != nil {
			logging.L().Warn().Err(err).Msg("HISTORY_PRUNE_FAILED")
		} else if n > 0 {
			logging.L().Info().Int64("removed", n).Int("keep", keep).Msg("HISTORY_PRUNED")
		}
	}
	if count, err := store.Count(ctx); err == nil {
		logging.L().Debug().Str("path", store.Path()).Int("entries", count).Msg("HISTORY_OPEN")
	}
	if n := a.Config.History.Preload; n > 0 {
		lines, err := store.RecentLines(ctx, n)
		if err != nil {
			logging.L().Warn().Err(err).Msg("HISTORY_PRELOAD_FAILED")
		}
		a.preload = lines
	}
}

func (a *App) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	a.warnings = append(a.warnings, msg)
	logging.L().Warn().Msg(msg)
}

// Warnings returns startup problems worth showing to the user.
func (a *App) Warnings() []string {
	return append([]string(nil), a.warnings...)
}

// NewRouter creates an independent session rooted at dir (empty = process
// working directory) whose output goes to sink.
func (a *App) NewRouter(dir string, sink output.Sink) (*commands.Router, error) {
	ui := a.Config.UI
	sess, err := session.New(session.Options{
		Dir: dir,
		Modes: session.Modes{
			Advanced:   ui.Advanced,
			Tutorial:   ui.Tutorial && !ui.Advanced,
			Timestamps: ui.Timestamps,
			LineWrap:   ui.LineWrap,
		},
		CompletionWindow: a.Config.History.CompletionWindow,
		History:          a.preload,
	})
	if err != nil {
		return nil, err
	}

	env := &commands.Env{
		Session:    sess,
		Supervisor: a.Supervisor,
		Favorites:  a.Favorites,
		Config:     a.Config,
		Registry:   a.registry,
		Out:        output.NewWriter(sink),
	}

	var recorder commands.HistoryRecorder
	if a.History != nil {
		recorder = a.History
	}
	logging.L().Info().Str("session", sess.ID()).Str("dir", sess.Dir()).Msg("SESSION_START")
	return commands.NewRouter(env, recorder), nil
}

// RequestExit records that a session ran the exit built-in. Close then
// leaves a running background server alone.
func (a *App) RequestExit() {
	a.exiting.Store(true)
}

// Close releases shared resources. The background server is stopped unless
// RequestExit was called.
func (a *App) Close() {
	if !a.exiting.Load() {
		a.Supervisor.Shutdown()
	} else if p, ok := a.Supervisor.Background(); ok {
		logging.L().Warn().Int("pid", p.PID).Int("port", p.Port).Msg("SERVER_LEFT_RUNNING")
	}
	if a.Favorites != nil {
		a.Favorites.Close()
	}
	if a.History != nil {
		a.History.Close()
	}
	logging.L().Info().Bool("exit", a.exiting.Load()).Msg("APP_STOP")
	if a.logCloser != nil {
		a.logCloser.Close()
	}
}
