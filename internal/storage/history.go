// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("history store is closed")

// schema is applied on every open; statements are idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS history (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT    NOT NULL,
	line       TEXT    NOT NULL,
	dir        TEXT    NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_history_line ON history(line);
CREATE INDEX IF NOT EXISTS idx_history_session ON history(session_id);
`

// =============================================================================
// TYPES
// =============================================================================

// Entry is one recorded command line.
type Entry struct {
	ID        int64
	SessionID string
	Line      string
	Dir       string
	CreatedAt time.Time
}

// HistoryStore is an append-only command history. Safe for concurrent use.
type HistoryStore struct {
	mu   sync.RWMutex
	db   *sql.DB
	path string
	now  func() time.Time
}

// =============================================================================
// OPEN / CLOSE
// =============================================================================

// OpenHistory opens (creating if needed) the database at path.
func OpenHistory(path string) (*HistoryStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &HistoryStore{db: db, path: path, now: time.Now}, nil
}

// Path returns the database file path.
func (s *HistoryStore) Path() string { return s.path }

// Close releases the database. Further calls return ErrClosed.
func (s *HistoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// =============================================================================
// WRITE
// =============================================================================

// Record appends line. Blank lines are ignored.
func (s *HistoryStore) Record(ctx context.Context, sessionID, line, dir string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return ErrClosed
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO history (session_id, line, dir, created_at) VALUES (?, ?, ?, ?)",
		sessionID, line, dir, s.now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to record history: %w", err)
	}
	return nil
}

// Prune deletes all but the newest keep entries and returns how many were
// removed.
func (s *HistoryStore) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return 0, ErrClosed
	}

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM history WHERE id NOT IN (SELECT id FROM history ORDER BY id DESC LIMIT ?)", keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}
	return res.RowsAffected()
}

// =============================================================================
// READ
// =============================================================================

// Recent returns up to n entries, oldest first.
func (s *HistoryStore) Recent(ctx context.Context, n int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, session_id, line, dir, created_at FROM history ORDER BY id DESC LIMIT ?", n)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var ts int64
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Line, &e.Dir, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		e.CreatedAt = time.Unix(0, ts)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	reverse(out)
	return out, nil
}

// RecentLines returns up to n distinct lines ordered by their most recent
// use, oldest first. Suitable for seeding a new session's history.
func (s *HistoryStore) RecentLines(ctx context.Context, n int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT line FROM history GROUP BY line ORDER BY MAX(id) DESC LIMIT ?", n)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		out = append(out, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	reverse(out)
	return out, nil
}

// Count returns the number of recorded entries.
func (s *HistoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return 0, ErrClosed
	}
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM history").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count history: %w", err)
	}
	return n, nil
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
