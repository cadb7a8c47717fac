// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "mops.log")

	closer, err := Setup(path, "debug")
	require.NoError(t, err)

	L().Info().Str("verb", "cd").Msg("COMMAND_BUILTIN")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "COMMAND_BUILTIN")
	assert.Contains(t, string(data), "verb=cd")
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SetOutput(&buf, "warn"))
	t.Cleanup(func() { _ = Close() })

	L().Info().Msg("QUIET")
	L().Warn().Msg("LOUD")

	out := buf.String()
	assert.False(t, strings.Contains(out, "QUIET"))
	assert.True(t, strings.Contains(out, "LOUD"))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
		ok   bool
	}{
		{"", zerolog.InfoLevel, true},
		{"DEBUG", zerolog.DebugLevel, true},
		{"disabled", zerolog.Disabled, true},
		{"shouty", zerolog.NoLevel, false},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("ParseLevel(%q) err = %v, want ok=%v", tt.in, err, tt.ok)
			continue
		}
		if tt.ok && got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
