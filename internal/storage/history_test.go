// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *HistoryStore {
	t.Helper()
	store, err := OpenHistory(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestHistoryStore_RecordAndRecent(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	require.NoError(t, store.Record(ctx, "s1", "ls", "/tmp"))
	require.NoError(t, store.Record(ctx, "s1", "  calc 1+1  ", "/tmp"))
	require.NoError(t, store.Record(ctx, "s2", "   ", "/tmp"))

	entries, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "ls", entries[0].Line)
	assert.Equal(t, "calc 1+1", entries[1].Line)
	assert.Equal(t, "s1", entries[1].SessionID)
	assert.Equal(t, "/tmp", entries[1].Dir)
	assert.False(t, entries[0].CreatedAt.IsZero())

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestHistoryStore_RecentLimit(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	for _, l := range []string{"a", "b", "c", "d"} {
		require.NoError(t, store.Record(ctx, "s", l, ""))
	}

	entries, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "c", entries[0].Line)
	assert.Equal(t, "d", entries[1].Line)
}

func TestHistoryStore_RecentLinesDistinct(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	for _, l := range []string{"ls", "pwd", "ls", "git status", "pwd"} {
		require.NoError(t, store.Record(ctx, "s", l, ""))
	}

	lines, err := store.RecentLines(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"ls", "git status", "pwd"}, lines)

	lines, err = store.RecentLines(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"git status", "pwd"}, lines)
}

func TestHistoryStore_Prune(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	for _, l := range []string{"a", "b", "c"} {
		require.NoError(t, store.Record(ctx, "s", l, ""))
	}

	removed, err := store.Prune(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	entries, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "c", entries[0].Line)
}

func TestHistoryStore_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	store, err := OpenHistory(path)
	require.NoError(t, err)
	require.NoError(t, store.Record(ctx, "s", "echo hi", ""))
	require.NoError(t, store.Close())

	store, err = OpenHistory(path)
	require.NoError(t, err)
	defer store.Close()
	lines, err := store.RecentLines(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"echo hi"}, lines)
}

func TestHistoryStore_Closed(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	assert.ErrorIs(t, store.Record(context.Background(), "s", "x", ""), ErrClosed)
	_, err := store.Recent(context.Background(), 1)
	assert.ErrorIs(t, err, ErrClosed)
}
