// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package favorites persists saved commands keyed by their first word.
//
// The file is a JSON object shared by every open session. Each mutation
// rewrites the whole file atomically, so concurrent sessions resolve to
// last-writer-wins. Watch reloads the in-memory copy when another session
// writes.
package favorites

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jeranaias/mopsterm/internal/logging"
	"github.com/jeranaias/mopsterm/internal/shellerr"
	"github.com/jeranaias/mopsterm/internal/util"
)

// Entry is one saved command.
type Entry struct {
	Key     string
	Command string
}

// Store is an ordered key→command map backed by a JSON file.
type Store struct {
	mu   sync.RWMutex
	path string
	keys []string
	cmds map[string]string

	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
}

// Open loads the store at path. A missing or unreadable file yields an empty
// store; the returned error only describes why the file was ignored.
func Open(path string) (*Store, error) {
	s := &Store{path: path, cmds: make(map[string]string)}
	err := s.Reload()
	return s, err
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// KeyOf returns the first whitespace-delimited token of command.
func KeyOf(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Add saves command under its first token, overwriting any previous command
// for that key, then writes the file. An existing key keeps its position.
func (s *Store) Add(command string) (string, error) {
	command = strings.TrimSpace(command)
	key := KeyOf(command)
	if key == "" {
		return "", shellerr.New(shellerr.KindIOError, "Usage: favorite <command>")
	}

	s.mu.Lock()
	if _, ok := s.cmds[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.cmds[key] = command
	data, err := s.encodeLocked()
	s.mu.Unlock()
	if err != nil {
		return key, shellerr.Wrap(shellerr.KindIOError, err, "could not encode favorites")
	}

	if err := util.AtomicWriteFile(s.path, data, 0644); err != nil {
		return key, shellerr.Wrap(shellerr.KindIOError, err, "could not save favorites")
	}
	logging.L().Debug().Str("key", key).Str("path", s.path).Msg("FAVORITE_SAVED")
	return key, nil
}

// Get returns the command stored for key.
func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cmd, ok := s.cmds[key]
	return cmd, ok
}

// Entries returns all favorites in insertion order.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, 0, len(s.keys))
	for _, k := range s.keys {
		out = append(out, Entry{Key: k, Command: s.cmds[k]})
	}
	return out
}

// Len returns the number of favorites.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}

// Reload replaces the in-memory copy with the file's contents. On any read
// or parse failure the store becomes empty and the cause is returned.
func (s *Store) Reload() error {
	keys, cmds, err := readFile(s.path)

	s.mu.Lock()
	s.keys, s.cmds = keys, cmds
	s.mu.Unlock()

	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func readFile(path string) ([]string, map[string]string, error) {
	empty := make(map[string]string)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, empty, err
	}
	keys, cmds, err := decodeOrdered(data)
	if err != nil {
		return nil, empty, fmt.Errorf("favorites file %s is corrupt: %w", path, err)
	}
	return keys, cmds, nil
}

// decodeOrdered reads a JSON object of strings keeping key order.
func decodeOrdered(data []byte) ([]string, map[string]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, errors.New("expected a JSON object")
	}

	var keys []string
	cmds := make(map[string]string)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, errors.New("expected a string key")
		}
		var cmd string
		if err := dec.Decode(&cmd); err != nil {
			return nil, nil, fmt.Errorf("value for %q: %w", key, err)
		}
		if _, dup := cmds[key]; !dup {
			keys = append(keys, key)
		}
		cmds[key] = cmd
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, nil, errors.New("trailing data after object")
	}
	return keys, cmds, nil
}

func (s *Store) encodeLocked() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{")
	for i, k := range s.keys {
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(s.cmds[k])
		if err != nil {
			return nil, err
		}
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n  ")
		buf.Write(kb)
		buf.WriteString(": ")
		buf.Write(vb)
	}
	if len(s.keys) > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("}")
	return buf.Bytes(), nil
}

// =============================================================================
// WATCHER
// =============================================================================

// Watch reloads the store whenever the backing file changes on disk and
// then calls onChange (which may be nil). The parent directory is watched
// because atomic saves replace the file rather than writing it in place.
func (s *Store) Watch(onChange func()) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create favorites directory: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.watcher = w
	s.cancel = cancel
	s.mu.Unlock()

	go s.processEvents(ctx, w, onChange)
	return nil
}

func (s *Store) processEvents(ctx context.Context, w *fsnotify.Watcher, onChange func()) {
	defer func() {
		if r := recover(); r != nil {
			logging.L().Error().Interface("panic", r).Msg("FAVORITES_WATCH_PANIC")
		}
	}()

	target := filepath.Clean(s.path)
	const debounce = 50 * time.Millisecond
	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case <-fire:
			if err := s.Reload(); err != nil {
				logging.L().Warn().Err(err).Msg("FAVORITES_RELOAD_FAILED")
			}
			if onChange != nil {
				onChange()
			}

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logging.L().Warn().Err(err).Msg("FAVORITES_WATCH_ERROR")
		}
	}
}

// Close stops watching. The store stays usable.
func (s *Store) Close() error {
	s.mu.Lock()
	w, cancel := s.watcher, s.cancel
	s.watcher, s.cancel = nil, nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if w != nil {
		return w.Close()
	}
	return nil
}
