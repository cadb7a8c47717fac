// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Valid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 8000, cfg.Serve.DefaultPort)
	assert.Equal(t, 5, cfg.Serve.StopGraceSecs)
	assert.Equal(t, 4, cfg.Tree.MaxDepth)
	assert.Equal(t, 50, cfg.History.CompletionWindow)
	assert.Contains(t, cfg.Shell.RichKeywords, "|")
	assert.Contains(t, cfg.Shell.RichKeywords, "get-")
}

func TestDefaultShells_FallBackToBash(t *testing.T) {
	orig := lookPath
	t.Cleanup(func() { lookPath = orig })
	lookPath = func(string) (string, error) { return "", errors.New("not found") }

	plain, rich := defaultShells()
	if len(plain) == 0 || len(rich) == 0 {
		t.Fatal("shell templates must not be empty")
	}
	if rich[0] == "pwsh" {
		t.Errorf("rich shell should not be pwsh when lookup fails")
	}
}

func TestLoadFromPath_TOMLFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[serve]
default_port = 9090

[tree]
max_depth = 2

[log]
level = "debug"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Serve.DefaultPort)
	assert.Equal(t, 2, cfg.Tree.MaxDepth)
	assert.Equal(t, "debug", cfg.Log.Level)
	// unset fields take defaults
	assert.Equal(t, 5, cfg.Serve.StopGraceSecs)
	assert.NotEmpty(t, cfg.Shell.Plain)
	assert.NotEmpty(t, cfg.Install.Command)
}

func TestLoadFromPath_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"history":{"completion_window":10}}`), 0644))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.History.CompletionWindow)
	assert.Equal(t, 8000, cfg.Serve.DefaultPort)
}

func TestLoadFromPath_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[serve]\ndefault_port = 70000\n"), 0644))

	_, err := LoadFromPath(path)
	require.Error(t, err)

	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "serve.default_port", verrs[0].Field)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("MOPS_HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default().Serve.DefaultPort, cfg.Serve.DefaultPort)
}

func TestLoad_BrokenFileReportsErrorWithDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MOPS_HOME", dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("not = [valid"), 0644))

	cfg, err := Load()
	require.Error(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, 8000, cfg.Serve.DefaultPort)
}

func TestSaveTOML_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "config.toml")
	cfg := Default()
	cfg.Serve.DefaultPort = 8123
	cfg.UI.Advanced = true

	require.NoError(t, SaveTOML(cfg, path))

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, 8123, loaded.Serve.DefaultPort)
	assert.True(t, loaded.UI.Advanced)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("MOPS_SERVE_PORT", "8181")
	t.Setenv("MOPS_FAVORITES", "/tmp/favs.json")
	t.Setenv("MOPS_NO_HISTORY", "true")
	t.Setenv("MOPS_LOG_LEVEL", "warn")
	t.Setenv("MOPS_ADVANCED", "1")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	assert.Equal(t, 8181, cfg.Serve.DefaultPort)
	assert.Equal(t, "/tmp/favs.json", cfg.Favorites.Path)
	assert.False(t, cfg.History.Persist)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.True(t, cfg.UI.Advanced)

	p, err := cfg.FavoritesPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/favs.json", p)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad port", func(c *Config) { c.Serve.DefaultPort = 0 }, "serve.default_port"},
		{"bad grace", func(c *Config) { c.Serve.StopGraceSecs = -1 }, "serve.stop_grace_secs"},
		{"no plain shell", func(c *Config) { c.Shell.Plain = nil }, "shell.plain"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"negative depth", func(c *Config) { c.Tree.MaxDepth = -2 }, "tree.max_depth"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			var verrs ValidateErrors
			require.True(t, errors.As(err, &verrs))
			assert.Equal(t, tt.field, verrs[0].Field)
		})
	}
}

func TestGlobal_LoadsOnceThenHonorsSetGlobal(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MOPS_HOME", dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[serve]\ndefault_port = 8222\n"), 0644))
	ResetGlobalForTesting()
	t.Cleanup(ResetGlobalForTesting)

	assert.Equal(t, 8222, Global().Serve.DefaultPort)

	cfg := Default()
	SetGlobal(cfg)
	assert.Same(t, cfg, Global())
}

// TestConfig_ConcurrentAccess tests that Global() and SetGlobal() can be
// safely called concurrently.
// Run with: go test -race -v ./internal/config/
func TestConfig_ConcurrentAccess(t *testing.T) {
	t.Setenv("MOPS_HOME", t.TempDir())
	ResetGlobalForTesting()
	t.Cleanup(ResetGlobalForTesting)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetGlobal(Default())
		}()
		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
	}
	wg.Wait()
}
