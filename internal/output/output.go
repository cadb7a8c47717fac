// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package output

import (
	"strings"
	"sync"
	"time"
)

// =============================================================================
// SEVERITY
// =============================================================================

// Severity tags a line for presentation.
type Severity int

const (
	Normal Severity = iota
	Echo            // the user's own submitted line
	Success
	Warning
	Error
	Muted
)

var severityNames = [...]string{"normal", "highlightEcho", "success", "warning", "error", "muted"}

// String returns the lowercase name used in logs and tests.
func (s Severity) String() string {
	if int(s) < 0 || int(s) >= len(severityNames) {
		return "unknown"
	}
	return severityNames[s]
}

// ClassifyShellLine picks a severity for one line of external command
// stdout. Case-insensitive: "error" or "failed" wins over "warning".
func ClassifyShellLine(text string) Severity {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "error"), strings.Contains(lower, "failed"):
		return Error
	case strings.Contains(lower, "warning"):
		return Warning
	default:
		return Normal
	}
}

// =============================================================================
// EVENTS
// =============================================================================

// Line is one unit of output.
type Line struct {
	Text     string
	Severity Severity
	Time     time.Time
}

// EventKind distinguishes output lines from control requests.
type EventKind int

const (
	EventLine EventKind = iota
	// EventClear asks the front-end to wipe its output area.
	EventClear
	// EventExit asks the host to terminate immediately.
	EventExit
	// EventNewSession asks the host to open another independent session.
	EventNewSession
)

// Event is what a Sink receives.
type Event struct {
	Kind EventKind
	Line Line
}

// Sink consumes events in the order they are produced.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// Emit calls f(ev).
func (f SinkFunc) Emit(ev Event) { f(ev) }

// =============================================================================
// WRITER
// =============================================================================

// Writer wraps a Sink with convenience emitters.
type Writer struct {
	sink Sink
	now  func() time.Time
}

// NewWriter returns a Writer emitting to sink. A nil sink discards.
func NewWriter(sink Sink) *Writer {
	if sink == nil {
		sink = SinkFunc(func(Event) {})
	}
	return &Writer{sink: sink, now: time.Now}
}

// Line emits text with the given severity.
func (w *Writer) Line(sev Severity, text string) {
	w.sink.Emit(Event{Kind: EventLine, Line: Line{Text: text, Severity: sev, Time: w.now()}})
}

func (w *Writer) Normal(text string)  { w.Line(Normal, text) }
func (w *Writer) Success(text string) { w.Line(Success, text) }
func (w *Writer) Warning(text string) { w.Line(Warning, text) }
func (w *Writer) Error(text string)   { w.Line(Error, text) }
func (w *Writer) Muted(text string)   { w.Line(Muted, text) }

// Control emits a non-line event.
func (w *Writer) Control(kind EventKind) {
	w.sink.Emit(Event{Kind: kind, Line: Line{Time: w.now()}})
}

// =============================================================================
// RECORDER
// =============================================================================

// Recorder is a Sink that keeps every event. Safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Emit appends ev.
func (r *Recorder) Emit(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Lines returns only the line events.
func (r *Recorder) Lines() []Line {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Line
	for _, ev := range r.events {
		if ev.Kind == EventLine {
			out = append(out, ev.Line)
		}
	}
	return out
}

// Reset drops recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}
