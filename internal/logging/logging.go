// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging routes diagnostic logs to a file so they never mix with
// interactive command output.
//
// Messages use an upper-case event name (COMMAND_SUBMIT, SERVER_START, ...)
// with structured fields attached:
//
//	logging.L().Info().Str("verb", "cd").Msg("COMMAND_BUILTIN")
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

var (
	mu      sync.RWMutex
	logger  = zerolog.Nop()
	logFile *os.File
)

// Setup opens path for appending and makes it the log destination. The
// returned closer restores a no-op logger and closes the file.
func Setup(path, level string) (io.Closer, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	writer := zerolog.ConsoleWriter{Out: f, NoColor: true}
	l := zerolog.New(writer).Level(lvl).With().Timestamp().Logger()

	mu.Lock()
	logger = l
	logFile = f
	mu.Unlock()

	// Libraries that log through the global zerolog logger land here too.
	zlog.Logger = l
	zerolog.DefaultContextLogger = &l

	return closerFunc(Close), nil
}

// SetOutput points the logger at w. Used by tests and the one-shot exec
// command when --verbose is given.
func SetOutput(w io.Writer, level string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	l := zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	mu.Lock()
	logger = l
	mu.Unlock()
	return nil
}

// Close detaches the file sink.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	logger = zerolog.Nop()
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

// L returns the current logger.
func L() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := logger
	return &l
}

// ParseLevel accepts the config spellings of a level.
func ParseLevel(level string) (zerolog.Level, error) {
	if level == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
