// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/jeranaias/mopsterm/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete mopsterm configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	Shell     ShellConfig     `toml:"shell" json:"shell"`
	Serve     ServeConfig     `toml:"serve" json:"serve"`
	Install   InstallConfig   `toml:"install" json:"install"`
	Tree      TreeConfig      `toml:"tree" json:"tree"`
	History   HistoryConfig   `toml:"history" json:"history"`
	Favorites FavoritesConfig `toml:"favorites" json:"favorites"`
	UI        UIConfig        `toml:"ui" json:"ui"`
	Log       LogConfig       `toml:"log" json:"log"`
}

// ShellConfig describes how external commands are launched. Each template is
// an argv prefix; the raw command line is appended as the final argument.
type ShellConfig struct {
	// Plain runs ordinary commands, e.g. ["sh", "-c"] or ["cmd", "/C"].
	Plain []string `toml:"plain" json:"plain"`
	// Rich runs commands that use pipelines or PowerShell cmdlets.
	Rich []string `toml:"rich" json:"rich"`
	// RichKeywords route a line to the rich shell when any is a substring of
	// the lowercased line.
	RichKeywords []string `toml:"rich_keywords" json:"rich_keywords"`
}

// ServeConfig configures the background file server.
type ServeConfig struct {
	DefaultPort int `toml:"default_port" json:"default_port"`
	// StopGraceSecs bounds how long stopserve waits for exit.
	StopGraceSecs int `toml:"stop_grace_secs" json:"stop_grace_secs"`
	// Command overrides the server argv. "{port}" and "{dir}" are substituted.
	// Empty means run this binary's own serve-files subcommand.
	Command []string `toml:"command" json:"command"`
}

// InstallConfig configures the package install command.
type InstallConfig struct {
	// Command is the argv prefix; the package name is appended.
	Command []string `toml:"command" json:"command"`
}

// TreeConfig configures the tree listing.
type TreeConfig struct {
	MaxDepth int `toml:"max_depth" json:"max_depth"`
}

// HistoryConfig configures command history.
type HistoryConfig struct {
	// CompletionWindow is how many recent history entries feed completion.
	CompletionWindow int `toml:"completion_window" json:"completion_window"`
	// Persist stores every submitted line in a SQLite database.
	Persist bool `toml:"persist" json:"persist"`
	// DBPath is the history database (empty = ~/.mops/history.db).
	DBPath string `toml:"db_path" json:"db_path"`
	// Preload seeds new sessions with this many stored lines (0 = none).
	Preload int `toml:"preload" json:"preload"`
	// MaxEntries caps the database; older lines are pruned at startup
	// (0 = unlimited).
	MaxEntries int `toml:"max_entries" json:"max_entries"`
}

// FavoritesConfig configures the shared favorites file.
type FavoritesConfig struct {
	Path string `toml:"path" json:"path"`
}

// UIConfig holds the initial mode flags for new sessions.
type UIConfig struct {
	Timestamps bool `toml:"timestamps" json:"timestamps"`
	LineWrap   bool `toml:"line_wrap" json:"line_wrap"`
	Advanced   bool `toml:"advanced" json:"advanced"`
	Tutorial   bool `toml:"tutorial" json:"tutorial"`
	// Banner shows the welcome text when a session opens.
	Banner bool `toml:"banner" json:"banner"`
}

// LogConfig configures the diagnostic log file.
type LogConfig struct {
	// Path is the log file (empty = ~/.mops/mops.log).
	Path string `toml:"path" json:"path"`
	// Level is one of trace, debug, info, warn, error, disabled.
	Level string `toml:"level" json:"level"`
}

// DefaultRichKeywords trigger the rich shell.
var DefaultRichKeywords = []string{
	"get-", "set-", "$", "select-object", "where-object",
	"foreach-object", "invoke-", "test-path", "|",
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	plain, rich := defaultShells()
	return &Config{
		Version: "1.0.0",
		Shell: ShellConfig{
			Plain:        plain,
			Rich:         rich,
			RichKeywords: append([]string(nil), DefaultRichKeywords...),
		},
		Serve: ServeConfig{
			DefaultPort:   8000,
			StopGraceSecs: 5,
		},
		Install: InstallConfig{
			Command: defaultInstallCommand(),
		},
		Tree: TreeConfig{
			MaxDepth: 4,
		},
		History: HistoryConfig{
			CompletionWindow: 50,
			Persist:          true,
			MaxEntries:       10000,
		},
		UI: UIConfig{
			LineWrap: true,
			Tutorial: false,
			Banner:   true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func defaultShells() (plain, rich []string) {
	if runtime.GOOS == "windows" {
		return []string{"cmd", "/C"}, []string{"powershell", "-NoProfile", "-Command"}
	}
	plain = []string{"sh", "-c"}
	if path, err := lookPath("pwsh"); err == nil {
		return plain, []string{path, "-NoProfile", "-Command"}
	}
	return plain, []string{"bash", "-c"}
}

func defaultInstallCommand() []string {
	if runtime.GOOS == "windows" {
		return []string{"python", "-m", "pip", "install"}
	}
	return []string{"python3", "-m", "pip", "install"}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the mopsterm configuration directory path.
func ConfigDir() (string, error) {
	if dir := os.Getenv("MOPS_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".mops"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// FavoritesPath resolves the favorites file, defaulting to
// ~/.mops_favorites.json.
func (c *Config) FavoritesPath() (string, error) {
	if c.Favorites.Path != "" {
		return util.ExpandHome(c.Favorites.Path)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".mops_favorites.json"), nil
}

// HistoryDBPath resolves the history database path.
func (c *Config) HistoryDBPath() (string, error) {
	if c.History.DBPath != "" {
		return util.ExpandHome(c.History.DBPath)
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// LogPath resolves the log file path.
func (c *Config) LogPath() (string, error) {
	if c.Log.Path != "" {
		return util.ExpandHome(c.Log.Path)
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "mops.log"), nil
}

// StopGrace returns the stopserve grace period.
func (c *Config) StopGrace() time.Duration {
	return time.Duration(c.Serve.StopGraceSecs) * time.Second
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last. A file that fails to parse is
// reported alongside the defaults rather than aborting startup.
func Load() (*Config, error) {
	var loadErr error

	if tomlPath, err := ConfigPathTOML(); err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			cfg, err := LoadFromPath(tomlPath)
			if err == nil {
				return cfg, nil
			}
			loadErr = err
		}
	}

	if loadErr == nil {
		if jsonPath, err := ConfigPathJSON(); err == nil {
			if _, statErr := os.Stat(jsonPath); statErr == nil {
				cfg, err := LoadFromPath(jsonPath)
				if err == nil {
					return cfg, nil
				}
				loadErr = err
			}
		}
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, loadErr
}

// LoadTOML decodes a TOML file into cfg and fills unset fields.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	fillDefaults(cfg)
	return nil
}

// LoadJSON decodes a JSON file into cfg and fills unset fields.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	fillDefaults(cfg)
	return nil
}

// LoadFromPath loads configuration from a specific file path with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := &Config{}

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}

	// Shell
	if len(cfg.Shell.Plain) == 0 {
		cfg.Shell.Plain = defaults.Shell.Plain
	}
	if len(cfg.Shell.Rich) == 0 {
		cfg.Shell.Rich = defaults.Shell.Rich
	}
	if cfg.Shell.RichKeywords == nil {
		cfg.Shell.RichKeywords = defaults.Shell.RichKeywords
	}

	// Serve
	if cfg.Serve.DefaultPort == 0 {
		cfg.Serve.DefaultPort = defaults.Serve.DefaultPort
	}
	if cfg.Serve.StopGraceSecs == 0 {
		cfg.Serve.StopGraceSecs = defaults.Serve.StopGraceSecs
	}

	// Install
	if len(cfg.Install.Command) == 0 {
		cfg.Install.Command = defaults.Install.Command
	}

	// Tree
	if cfg.Tree.MaxDepth == 0 {
		cfg.Tree.MaxDepth = defaults.Tree.MaxDepth
	}

	// History
	if cfg.History.CompletionWindow == 0 {
		cfg.History.CompletionWindow = defaults.History.CompletionWindow
	}

	// Log
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration as TOML with a short header.
func SaveTOML(cfg *Config, path string) error {
	var b strings.Builder
	b.WriteString("# mopsterm configuration file\n")
	b.WriteString("# Generated by mopsterm - edit with care\n\n")

	if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true, "disabled": true,
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if len(c.Shell.Plain) == 0 {
		errs = append(errs, ValidationError{Field: "shell.plain", Message: "must name a program"})
	}
	if len(c.Shell.Rich) == 0 {
		errs = append(errs, ValidationError{Field: "shell.rich", Message: "must name a program"})
	}
	if c.Serve.DefaultPort < 1 || c.Serve.DefaultPort > 65535 {
		errs = append(errs, ValidationError{
			Field:   "serve.default_port",
			Message: fmt.Sprintf("port %d out of range 1-65535", c.Serve.DefaultPort),
		})
	}
	if c.Serve.StopGraceSecs < 0 || c.Serve.StopGraceSecs > 300 {
		errs = append(errs, ValidationError{
			Field:   "serve.stop_grace_secs",
			Message: fmt.Sprintf("%d out of range 0-300", c.Serve.StopGraceSecs),
		})
	}
	if len(c.Install.Command) == 0 {
		errs = append(errs, ValidationError{Field: "install.command", Message: "must name a program"})
	}
	if c.Tree.MaxDepth < 0 {
		errs = append(errs, ValidationError{Field: "tree.max_depth", Message: "must not be negative"})
	}
	if c.History.CompletionWindow < 0 {
		errs = append(errs, ValidationError{Field: "history.completion_window", Message: "must not be negative"})
	}
	if c.History.Preload < 0 {
		errs = append(errs, ValidationError{Field: "history.preload", Message: "must not be negative"})
	}
	if c.History.MaxEntries < 0 {
		errs = append(errs, ValidationError{Field: "history.max_entries", Message: "must not be negative"})
	}
	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: trace, debug, info, warn, error, disabled", c.Log.Level),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - MOPS_SERVE_PORT: overrides serve.default_port
//   - MOPS_FAVORITES: overrides favorites.path
//   - MOPS_HISTORY_DB: overrides history.db_path
//   - MOPS_NO_HISTORY: set to "1" or "true" to disable persistent history
//   - MOPS_LOG_LEVEL: overrides log.level
//   - MOPS_ADVANCED: set to "1" or "true" to start in advanced mode
func (c *Config) ApplyEnvOverrides() {
	if port := os.Getenv("MOPS_SERVE_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil {
			c.Serve.DefaultPort = n
		}
	}
	if path := os.Getenv("MOPS_FAVORITES"); path != "" {
		c.Favorites.Path = path
	}
	if path := os.Getenv("MOPS_HISTORY_DB"); path != "" {
		c.History.DBPath = path
	}
	if v := os.Getenv("MOPS_NO_HISTORY"); v != "" {
		c.History.Persist = !envTrue(v)
	}
	if level := os.Getenv("MOPS_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if v := os.Getenv("MOPS_ADVANCED"); v != "" {
		c.UI.Advanced = envTrue(v)
	}
}

func envTrue(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		}
		if cfg == nil {
			cfg = Default()
		}
		globalConfigMu.Lock()
		globalConfig = cfg
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigOnce.Do(func() {})
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
