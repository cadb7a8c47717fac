// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/jeranaias/mopsterm/internal/commands"
	"github.com/jeranaias/mopsterm/internal/config"
	"github.com/jeranaias/mopsterm/internal/fileserver"
	"github.com/jeranaias/mopsterm/internal/logging"
	"github.com/jeranaias/mopsterm/internal/output"
	"github.com/jeranaias/mopsterm/internal/ui"
)

// Version information (set at build time).
var (
	Version   = "1.0.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// rootFlags are shared by all subcommands.
type rootFlags struct {
	configPath string
	plain      bool
	noHistory  bool
}

// NewRootCmd builds the mopsterm command tree.
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "mopsterm",
		Short:         "A friendlier shell front-end",
		Long:          "mopsterm runs your shell commands alongside built-ins for navigation, search, archives, a calculator and a background file server.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			lipgloss.SetColorProfile(GetColorProfile())
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := NewApp(cmd.Context(), AppOptions{ConfigPath: flags.configPath, NoHistory: flags.noHistory})
			if err != nil {
				return err
			}
			defer app.Close()

			if flags.plain || !IsTTY() || !IsStdoutTTY() {
				return RunREPL(cmd.Context(), app, cmd.OutOrStdout(), Version)
			}
			return ui.Run(cmd.Context(), ui.Options{
				NewRouter: func(sink output.Sink) (*commands.Router, error) {
					return app.NewRouter("", sink)
				},
				Favorites: app.Favorites,
				Version:   Version,
				Banner:    app.Config.UI.Banner,
				Welcome:   WelcomeLines(Version),
				Warnings:  app.Warnings(),
				OnExit:    app.RequestExit,
			})
		},
	}

	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default ~/.mops/config.toml)")
	root.PersistentFlags().BoolVar(&flags.noHistory, "no-history", false, "do not read or write the history database")
	root.Flags().BoolVar(&flags.plain, "plain", false, "use the line REPL instead of the full-screen terminal")

	root.AddCommand(
		newExecCmd(flags),
		newServeFilesCmd(),
		newConfigCmd(flags),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, RenderLine(output.Line{Text: "Error: " + err.Error(), Severity: output.Error}, false))
		return 1
	}
	return 0
}

// =============================================================================
// EXEC
// =============================================================================

func newExecCmd(flags *rootFlags) *cobra.Command {
	var (
		dir     string
		verbose bool
	)
	cmd := &cobra.Command{
		Use:   "exec <line>",
		Short: "Run one line and print its output",
		Example: `  mopsterm exec calc 2**10
  mopsterm exec "search TODO"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp(cmd.Context(), AppOptions{ConfigPath: flags.configPath, NoHistory: flags.noHistory})
			if err != nil {
				return err
			}
			defer app.Close()
			if verbose {
				if err := logging.SetOutput(cmd.ErrOrStderr(), "debug"); err != nil {
					return err
				}
			}

			p := &printer{w: cmd.OutOrStdout(), version: Version, onExit: app.RequestExit}
			router, err := app.NewRouter(dir, p)
			if err != nil {
				return err
			}
			p.modes = router.Env().Session.Modes
			return router.Submit(cmd.Context(), strings.Join(args, " "))
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "working directory (default current)")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "write debug logs to stderr")
	return cmd
}

// =============================================================================
// SERVE-FILES
// =============================================================================

func newServeFilesCmd() *cobra.Command {
	var (
		port int
		dir  string
	)
	cmd := &cobra.Command{
		Use:    "serve-files",
		Short:  "Serve a directory over HTTP until terminated",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if closer := setupLogging(); closer != nil {
				defer closer.Close()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv, err := fileserver.New(fileserver.Options{
				Dir:    dir,
				Addr:   fmt.Sprintf(":%d", port),
				Logger: *logging.L(),
			})
			if err != nil {
				return err
			}
			return srv.ListenAndServe(ctx)
		},
	}
	cmd.Flags().IntVar(&port, "port", 8000, "port to listen on")
	cmd.Flags().StringVar(&dir, "dir", ".", "directory to serve")
	return cmd
}

// =============================================================================
// CONFIG
// =============================================================================

func newConfigCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags.configPath)
			if cfg == nil {
				return err
			}
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", err)
			}
			return toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := flags.configPath
			if path == "" {
				var err error
				if path, err = config.ConfigPathTOML(); err != nil {
					return err
				}
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if flags.configPath == "" {
				if err := config.Save(config.Default()); err != nil {
					return err
				}
			} else if err := config.SaveTOML(config.Default(), path); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Wrote", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.AddCommand(initCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := flags.configPath
			if path == "" {
				var err error
				if path, err = config.ConfigPathTOML(); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})
	return cmd
}

// =============================================================================
// VERSION
// =============================================================================

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mopsterm %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
		},
	}
}
