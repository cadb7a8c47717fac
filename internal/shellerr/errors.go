// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package shellerr holds the error taxonomy shared by the command handlers
// and the process supervisor.
package shellerr

import (
	"errors"
	"fmt"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// Kind categorizes errors so the router can pick a severity.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindAlreadyRunning
	KindNotRunning
	KindSpawnFailed
	KindEvalError
	KindUnsupportedFormat
	KindIOError
)

var kindNames = map[Kind]string{
	KindUnknown:           "unknown",
	KindNotFound:          "not found",
	KindAlreadyRunning:    "already running",
	KindNotRunning:        "not running",
	KindSpawnFailed:       "spawn failed",
	KindEvalError:         "eval error",
	KindUnsupportedFormat: "unsupported format",
	KindIOError:           "io error",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Error is a categorized error. Message is user-facing; Cause is optional.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
	// PID is set for KindAlreadyRunning.
	PID int
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same Kind, so errors.Is works with the
// sentinels below.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinel errors for errors.Is checks.
var (
	ErrNotFound          = &Error{Kind: KindNotFound, Message: "not found"}
	ErrAlreadyRunning    = &Error{Kind: KindAlreadyRunning, Message: "already running"}
	ErrNotRunning        = &Error{Kind: KindNotRunning, Message: "not running"}
	ErrSpawnFailed       = &Error{Kind: KindSpawnFailed, Message: "spawn failed"}
	ErrEval              = &Error{Kind: KindEvalError, Message: "eval error"}
	ErrUnsupportedFormat = &Error{Kind: KindUnsupportedFormat, Message: "unsupported format"}
	ErrIO                = &Error{Kind: KindIOError, Message: "io error"}
)

// =============================================================================
// CONSTRUCTORS
// =============================================================================

// New returns an *Error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an *Error of the given kind with cause attached.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// AlreadyRunning reports a live background process.
func AlreadyRunning(pid int) *Error {
	return &Error{
		Kind:    KindAlreadyRunning,
		Message: fmt.Sprintf("Server already running (pid %d).", pid),
		PID:     pid,
	}
}

// KindOf returns the Kind of err, or KindUnknown when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
