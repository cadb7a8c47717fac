// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui is the full-screen front-end. It hosts one or more independent
// sessions ("panes"), each driven by its own command router, and renders
// their output with Bubble Tea.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/mopsterm/internal/commands"
	"github.com/jeranaias/mopsterm/internal/favorites"
	"github.com/jeranaias/mopsterm/internal/logging"
	"github.com/jeranaias/mopsterm/internal/output"
	"github.com/jeranaias/mopsterm/internal/ui/styles"
)

// Options configure the full-screen front-end.
type Options struct {
	// NewRouter creates a fresh session whose events go to sink. It is
	// called once at startup and again for every new pane.
	NewRouter func(sink output.Sink) (*commands.Router, error)
	// Favorites feeds the split-view side panel. May be nil.
	Favorites *favorites.Store
	Version   string
	// Banner shows Welcome at the top of each new or cleared pane.
	Banner  bool
	Welcome []string
	// Warnings are shown once in the first pane.
	Warnings []string
	// OnExit runs when a session asks the process to exit.
	OnExit func()
}

// eventBuffer is how many router events may queue before emitters block.
const eventBuffer = 1024

// writeClipboard is swapped out in tests.
var writeClipboard = clipboard.WriteAll

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the full-screen front-end.
type Model struct {
	ctx   context.Context
	opts  Options
	theme *styles.Theme

	events chan paneEventMsg
	done   chan struct{}

	panes  []*pane
	focus  int
	nextID int

	input   textinput.Model
	spinner spinner.Model

	width  int
	height int

	status    string
	statusErr bool

	// Tab completion cycling state.
	completions []string
	compIndex   int
	compHead    string
}

func newModel(ctx context.Context, opts Options) (Model, error) {
	if opts.NewRouter == nil {
		return Model{}, errors.New("ui: NewRouter is required")
	}

	ti := textinput.New()
	ti.Placeholder = "type a command, or 'help'"
	ti.CharLimit = 4096
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:     ctx,
		opts:    opts,
		theme:   styles.NewTheme(),
		events:  make(chan paneEventMsg, eventBuffer),
		done:    make(chan struct{}),
		input:   ti,
		spinner: sp,
	}
	m.input.PromptStyle = m.theme.Prompt
	m.spinner.Style = m.theme.Prompt

	if err := m.openPane(); err != nil {
		return Model{}, err
	}
	for _, w := range opts.Warnings {
		m.panes[0].append(output.Line{Text: w, Severity: output.Warning, Time: time.Now()})
	}
	m.syncLayout()
	return m, nil
}

// sinkFor returns the sink a pane's router emits into. Emitting never blocks
// once the program has stopped.
func (m *Model) sinkFor(id int) output.Sink {
	events, done := m.events, m.done
	return output.SinkFunc(func(ev output.Event) {
		select {
		case events <- paneEventMsg{pane: id, ev: ev}:
		case <-done:
		}
	})
}

// openPane starts a new session and focuses it.
func (m *Model) openPane() error {
	id := m.nextID
	router, err := m.opts.NewRouter(m.sinkFor(id))
	if err != nil {
		return err
	}
	m.nextID++

	p := newPane(id, router)
	m.showBanner(p)
	m.panes = append(m.panes, p)
	m.focus = len(m.panes) - 1
	logging.L().Debug().Int("pane", id).Int("panes", len(m.panes)).Msg("PANE_OPEN")
	return nil
}

func (m *Model) closePane(i int) {
	if len(m.panes) <= 1 || i < 0 || i >= len(m.panes) {
		return
	}
	logging.L().Debug().Int("pane", m.panes[i].id).Msg("PANE_CLOSE")
	m.panes = append(m.panes[:i], m.panes[i+1:]...)
	if m.focus >= len(m.panes) {
		m.focus = len(m.panes) - 1
	}
}

func (m *Model) showBanner(p *pane) {
	if !m.opts.Banner {
		return
	}
	now := time.Now()
	for i, text := range m.opts.Welcome {
		sev := output.Muted
		if i == 0 {
			sev = output.Success
		}
		p.append(output.Line{Text: text, Severity: sev, Time: now})
	}
}

func (m *Model) current() *pane {
	return m.panes[m.focus]
}

func (m *Model) paneByID(id int) *pane {
	for _, p := range m.panes {
		if p.id == id {
			return p
		}
	}
	return nil
}

func (m *Model) anyBusy() bool {
	for _, p := range m.panes {
		if p.busy {
			return true
		}
	}
	return false
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

// =============================================================================
// BUBBLE TEA
// =============================================================================

// Init starts the cursor blink and the event listener.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForEvent(m.events, m.done))
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case paneEventMsg:
		cmd = tea.Batch(m.handleEvent(msg), waitForEvent(m.events, m.done))

	case submitDoneMsg:
		m.handleSubmitDone(msg)

	case spinner.TickMsg:
		if m.anyBusy() {
			m.spinner, cmd = m.spinner.Update(msg)
		}

	case tea.KeyMsg:
		var model tea.Model
		model, cmd = m.handleKey(msg)
		m = model.(Model)

	default:
		var inputCmd, vpCmd tea.Cmd
		m.input, inputCmd = m.input.Update(msg)
		p := m.current()
		p.viewport, vpCmd = p.viewport.Update(msg)
		cmd = tea.Batch(inputCmd, vpCmd)
	}

	m.syncLayout()
	return m, cmd
}

// handleEvent applies one router event. Events for closed panes are dropped.
func (m *Model) handleEvent(msg paneEventMsg) tea.Cmd {
	p := m.paneByID(msg.pane)
	if p == nil {
		return nil
	}
	switch msg.ev.Kind {
	case output.EventLine:
		p.append(msg.ev.Line)
	case output.EventClear:
		p.clear()
		m.showBanner(p)
	case output.EventExit:
		logging.L().Info().Int("pane", p.id).Msg("UI_EXIT_REQUESTED")
		if m.opts.OnExit != nil {
			m.opts.OnExit()
		}
		return tea.Quit
	case output.EventNewSession:
		if err := m.openPane(); err != nil {
			p.append(output.Line{Text: "Could not open a new session: " + err.Error(), Severity: output.Error, Time: time.Now()})
		}
	}
	return nil
}

func (m *Model) handleSubmitDone(msg submitDoneMsg) {
	p := m.paneByID(msg.pane)
	if p == nil {
		return
	}
	p.busy = false
	switch {
	case errors.Is(msg.err, commands.ErrBusy):
		m.setStatus("A command is still running.", true)
	case msg.err != nil:
		m.setStatus(msg.err.Error(), true)
	default:
		m.setStatus("", false)
	}
	logging.L().Debug().Int("pane", p.id).Dur("elapsed", msg.elapsed).Msg("UI_SUBMIT_DONE")
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key != "tab" {
		m.resetCompletion()
	}

	switch key {
	case "ctrl+c", "ctrl+q":
		return m, tea.Quit

	case "ctrl+n":
		if err := m.openPane(); err != nil {
			m.setStatus("Could not open a new session: "+err.Error(), true)
		}
		return m, nil

	case "ctrl+o":
		m.focus = (m.focus + 1) % len(m.panes)
		return m, nil

	case "ctrl+w":
		m.closePane(m.focus)
		return m, nil

	case "ctrl+y":
		m.copyLastOutput()
		return m, nil

	case "pgup":
		m.current().viewport.HalfViewUp()
		return m, nil

	case "pgdown":
		m.current().viewport.HalfViewDown()
		return m, nil

	case "up":
		if text, ok := m.current().session().RecallOlder(); ok {
			m.input.SetValue(text)
			m.input.CursorEnd()
		}
		return m, nil

	case "down":
		if text, ok := m.current().session().RecallNewer(); ok {
			m.input.SetValue(text)
			m.input.CursorEnd()
		}
		return m, nil

	case "tab":
		m.complete()
		return m, nil

	case "enter":
		return m, m.submit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit hands the input line to the focused pane's router. The router runs
// in a command goroutine; its output arrives as paneEventMsg.
func (m *Model) submit() tea.Cmd {
	line := m.input.Value()
	m.input.Reset()
	if strings.TrimSpace(line) == "" {
		return nil
	}

	p := m.current()
	if p.busy {
		m.setStatus("A command is still running.", true)
		return nil
	}
	p.busy = true
	p.started = time.Now()
	p.viewport.GotoBottom()
	m.setStatus("", false)

	ctx, router, id, started := m.ctx, p.router, p.id, p.started
	run := func() tea.Msg {
		err := router.Submit(ctx, line)
		return submitDoneMsg{pane: id, err: err, elapsed: time.Since(started)}
	}
	return tea.Batch(run, m.spinner.Tick)
}

// =============================================================================
// COMPLETION
// =============================================================================

// complete replaces the last word of the input with a vocabulary match.
// Repeated presses cycle through the matches.
func (m *Model) complete() {
	if len(m.completions) > 0 {
		m.compIndex = (m.compIndex + 1) % len(m.completions)
		m.setInput(m.compHead + m.completions[m.compIndex])
		m.setStatus(fmt.Sprintf("%d/%d matches", m.compIndex+1, len(m.completions)), false)
		return
	}

	value := m.input.Value()
	head, word := "", value
	if i := strings.LastIndexAny(value, " \t"); i >= 0 {
		head, word = value[:i+1], value[i+1:]
	}
	if word == "" {
		return
	}

	var matches []string
	for _, cand := range m.current().session().Suggest(word) {
		if cand != word {
			matches = append(matches, cand)
		}
	}
	switch len(matches) {
	case 0:
		m.setStatus("No completions.", false)
	case 1:
		m.setInput(head + matches[0])
	default:
		m.completions, m.compIndex, m.compHead = matches, 0, head
		m.setInput(head + matches[0])
		m.setStatus(fmt.Sprintf("1/%d matches (tab for next)", len(matches)), false)
	}
}

func (m *Model) resetCompletion() {
	m.completions, m.compIndex, m.compHead = nil, 0, ""
}

func (m *Model) setInput(text string) {
	m.input.SetValue(text)
	m.input.CursorEnd()
}

// =============================================================================
// CLIPBOARD
// =============================================================================

func (m *Model) copyLastOutput() {
	text := m.current().lastOutput()
	if text == "" {
		m.setStatus("Nothing to copy.", false)
		return
	}
	if err := writeClipboard(text); err != nil {
		logging.L().Warn().Err(err).Msg("CLIPBOARD_WRITE_FAILED")
		m.setStatus("Failed to copy: "+err.Error(), true)
		return
	}
	n := strings.Count(text, "\n") + 1
	m.setStatus(fmt.Sprintf("%s Copied %d line(s) to clipboard", styles.StatusIndicators.Copied, n), false)
}
