// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/mopsterm/internal/shellerr"
	"github.com/jeranaias/mopsterm/internal/util"
)

// =============================================================================
// SESSION
// =============================================================================

// Modes are independent boolean flags toggled by built-in commands.
type Modes struct {
	Advanced   bool
	Tutorial   bool
	Timestamps bool
	LineWrap   bool
	SplitView  bool
}

// Options configure a new Session.
type Options struct {
	// Dir is the starting directory (empty = process working directory).
	Dir string
	// Modes are the initial mode flags.
	Modes Modes
	// CompletionWindow caps how many recent history lines feed completion.
	CompletionWindow int
	// History seeds the history (oldest first), e.g. from persistent storage.
	History []string
}

// Session is the state of one interactive terminal.
type Session struct {
	mu sync.RWMutex

	id        string
	startTime time.Time

	dir     string
	history []string
	seen    map[string]struct{}
	cursor  int
	modes   Modes

	window int
	vocab  []string
}

// New creates a Session rooted at opts.Dir, which must be an existing directory.
func New(opts Options) (*Session, error) {
	dir := opts.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("could not determine working directory: %w", err)
		}
		dir = wd
	}
	abs, err := resolveDir("", dir)
	if err != nil {
		return nil, err
	}

	window := opts.CompletionWindow
	if window <= 0 {
		window = 50
	}

	s := &Session{
		id:        uuid.New().String(),
		startTime: time.Now(),
		dir:       abs,
		seen:      make(map[string]struct{}),
		cursor:    -1,
		modes:     opts.Modes,
		window:    window,
	}
	for _, line := range opts.History {
		s.appendLocked(line)
	}
	return s, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// StartTime returns when the session was created.
func (s *Session) StartTime() time.Time { return s.startTime }

// =============================================================================
// WORKING DIRECTORY
// =============================================================================

// Dir returns the current working directory.
func (s *Session) Dir() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dir
}

// Resolve turns path into an absolute path relative to the working directory.
// A leading "~" expands to the home directory.
func (s *Session) Resolve(path string) (string, error) {
	s.mu.RLock()
	base := s.dir
	s.mu.RUnlock()
	return resolvePath(base, path)
}

// Chdir moves the session to path. The target is checked before the change
// is committed; on failure the working directory is left untouched and a
// KindNotFound error is returned.
func (s *Session) Chdir(path string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	abs, err := resolveDir(s.dir, path)
	if err != nil {
		return "", err
	}
	s.dir = abs
	return abs, nil
}

func resolvePath(base, path string) (string, error) {
	expanded, err := util.ExpandHome(strings.TrimSpace(path))
	if err != nil {
		return "", shellerr.Wrap(shellerr.KindIOError, err, "cannot resolve %s", path)
	}
	if !filepath.IsAbs(expanded) {
		expanded = filepath.Join(base, expanded)
	}
	return filepath.Clean(expanded), nil
}

func resolveDir(base, path string) (string, error) {
	abs, err := resolvePath(base, path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", &shellerr.Error{
			Kind:    shellerr.KindNotFound,
			Message: "Error: directory is as real as my girlfriend " + path,
			Cause:   err,
		}
	}
	return abs, nil
}

// =============================================================================
// HISTORY
// =============================================================================

// AppendHistory records line unless it is already present in the history.
// It reports whether the history grew.
func (s *Session) AppendHistory(line string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(line)
}

func (s *Session) appendLocked(line string) bool {
	if strings.TrimSpace(line) == "" {
		return false
	}
	if _, dup := s.seen[line]; dup {
		return false
	}
	s.seen[line] = struct{}{}
	s.history = append(s.history, line)
	return true
}

// History returns a copy of the history, oldest first.
func (s *Session) History() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.history))
	copy(out, s.history)
	return out
}

// Cursor returns the recall cursor: -1 when not browsing, 0 for the most
// recent entry.
func (s *Session) Cursor() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursor
}

// ResetCursor leaves browsing mode.
func (s *Session) ResetCursor() {
	s.mu.Lock()
	s.cursor = -1
	s.mu.Unlock()
}

// RecallOlder moves one entry back. It returns the entry now under the
// cursor and whether the cursor moved.
func (s *Session) RecallOlder() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor >= len(s.history)-1 {
		return s.entryLocked(), false
	}
	s.cursor++
	return s.entryLocked(), true
}

// RecallNewer moves one entry forward. From the most recent entry it leaves
// browsing and returns "" so the caller clears its input buffer. From -1 it
// is a no-op.
func (s *Session) RecallNewer() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.cursor > 0:
		s.cursor--
		return s.entryLocked(), true
	case s.cursor == 0:
		s.cursor = -1
		return "", true
	default:
		return "", false
	}
}

func (s *Session) entryLocked() string {
	if s.cursor < 0 || s.cursor >= len(s.history) {
		return ""
	}
	return s.history[len(s.history)-1-s.cursor]
}

// =============================================================================
// MODES
// =============================================================================

// Modes returns a snapshot of the mode flags.
func (s *Session) Modes() Modes {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modes
}

// UpdateModes applies fn to the mode flags under lock and returns the result.
// Turning advanced mode on also turns tutorial mode off.
func (s *Session) UpdateModes(fn func(*Modes)) Modes {
	s.mu.Lock()
	defer s.mu.Unlock()
	wasAdvanced := s.modes.Advanced
	fn(&s.modes)
	if s.modes.Advanced && !wasAdvanced {
		s.modes.Tutorial = false
	}
	return s.modes
}

// =============================================================================
// COMPLETION VOCABULARY
// =============================================================================

// RebuildVocabulary recomputes the completion set from verbs, the most recent
// history entries and the working directory's children. Duplicates are
// dropped keeping the first occurrence. An unreadable directory contributes
// nothing.
func (s *Session) RebuildVocabulary(verbs []string) []string {
	s.mu.RLock()
	dir := s.dir
	start := len(s.history) - s.window
	if start < 0 {
		start = 0
	}
	recent := append([]string(nil), s.history[start:]...)
	s.mu.RUnlock()

	var children []string
	if entries, err := os.ReadDir(dir); err == nil {
		for _, e := range entries {
			children = append(children, e.Name())
		}
		sort.Strings(children)
	}

	vocab := dedupe(verbs, recent, children)

	s.mu.Lock()
	s.vocab = vocab
	s.mu.Unlock()
	return vocab
}

// Vocabulary returns the last computed completion set.
func (s *Session) Vocabulary() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.vocab))
	copy(out, s.vocab)
	return out
}

// Suggest returns vocabulary words containing fragment, case-insensitively,
// in vocabulary order.
func (s *Session) Suggest(fragment string) []string {
	needle := strings.ToLower(fragment)
	var out []string
	for _, w := range s.Vocabulary() {
		if strings.Contains(strings.ToLower(w), needle) {
			out = append(out, w)
		}
	}
	return out
}

func dedupe(groups ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, g := range groups {
		for _, w := range g {
			if _, ok := seen[w]; ok {
				continue
			}
			seen[w] = struct{}{}
			out = append(out, w)
		}
	}
	return out
}
