// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package shellerr

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorsIsMatchesKind(t *testing.T) {
	err := New(KindNotFound, "directory %s missing", "/nope")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrIO))

	wrapped := fmt.Errorf("cd: %w", err)
	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.Equal(t, KindNotFound, KindOf(wrapped))
}

func TestWrapKeepsCause(t *testing.T) {
	err := Wrap(KindIOError, fs.ErrPermission, "cannot read %s", "x")
	assert.True(t, errors.Is(err, fs.ErrPermission))
	assert.Equal(t, "cannot read x: permission denied", err.Error())
}

func TestAlreadyRunningCarriesPID(t *testing.T) {
	err := AlreadyRunning(4242)
	require.Equal(t, 4242, err.PID)
	assert.Equal(t, "Server already running (pid 4242).", err.Error())

	var e *Error
	require.True(t, errors.As(fmt.Errorf("serve: %w", err), &e))
	assert.Equal(t, 4242, e.PID)
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(errors.New("boom")))
	assert.False(t, Is(nil, KindNotFound))
	assert.Equal(t, "eval error", KindEvalError.String())
}
