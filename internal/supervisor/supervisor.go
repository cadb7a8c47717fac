// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package supervisor

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/mopsterm/internal/logging"
	"github.com/jeranaias/mopsterm/internal/shellerr"
)

// =============================================================================
// TYPES
// =============================================================================

// Options configure a Supervisor. Command templates are argv prefixes.
type Options struct {
	// PlainShell runs ordinary lines; the line is appended as one argument.
	PlainShell []string
	// RichShell runs lines that need pipelines or cmdlets.
	RichShell []string
	// ServeCommand starts the background server. "{port}" and "{dir}" are
	// substituted in every element.
	ServeCommand []string
	// InstallCommand installs a package; the package name is appended.
	InstallCommand []string
	// StopGrace bounds how long StopBackground waits for exit.
	StopGrace time.Duration
}

// DefaultStopGrace is used when Options.StopGrace is zero.
const DefaultStopGrace = 5 * time.Second

// Result is the outcome of a foreground command.
type Result struct {
	Stdout   []string
	Stderr   []string
	ExitCode int
	Duration time.Duration
}

// ManagedProcess identifies the background server.
type ManagedProcess struct {
	PID       int
	Port      int
	Dir       string
	StartedAt time.Time

	cmd  *exec.Cmd
	done chan struct{}
}

// Alive polls the process without blocking.
func (p *ManagedProcess) Alive() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// StopResult reports what StopBackground observed.
type StopResult struct {
	PID int
	// Confirmed is false when the process had not exited by the end of the
	// grace period. The handle is released either way.
	Confirmed bool
}

// Supervisor owns the background process handle. Safe for concurrent use.
type Supervisor struct {
	opts Options

	mu sync.Mutex
	bg *ManagedProcess
}

// New creates a Supervisor.
func New(opts Options) *Supervisor {
	if opts.StopGrace <= 0 {
		opts.StopGrace = DefaultStopGrace
	}
	return &Supervisor{opts: opts}
}

// DefaultServeCommand runs this executable's serve-files subcommand.
func DefaultServeCommand() ([]string, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("could not locate executable: %w", err)
	}
	return []string{exe, "serve-files", "--port", "{port}", "--dir", "{dir}"}, nil
}

// =============================================================================
// FOREGROUND
// =============================================================================

// RunForeground runs line through the plain or rich shell in dir and blocks
// until it exits. A non-zero exit is not an error; only a failure to start
// the process is.
func (s *Supervisor) RunForeground(ctx context.Context, line, dir string, rich bool) (*Result, error) {
	tmpl := s.opts.PlainShell
	if rich {
		tmpl = s.opts.RichShell
	}
	if len(tmpl) == 0 {
		return nil, shellerr.New(shellerr.KindSpawnFailed, "no shell configured")
	}

	cmd := shellCommand(ctx, tmpl, line)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	logging.L().Debug().Str("line", line).Bool("rich", rich).Str("dir", dir).Msg("FOREGROUND_START")

	if err := cmd.Start(); err != nil {
		logging.L().Warn().Err(err).Str("shell", tmpl[0]).Msg("FOREGROUND_SPAWN_FAILED")
		return nil, shellerr.Wrap(shellerr.KindSpawnFailed, err, "failed to start %s", tmpl[0])
	}

	exitCode := 0
	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, shellerr.Wrap(shellerr.KindIOError, err, "command failed")
		}
		exitCode = exitErr.ExitCode()
	}

	res := &Result{
		Stdout:   SplitLines(stdout.String()),
		Stderr:   SplitLines(stderr.String()),
		ExitCode: exitCode,
		Duration: time.Since(start),
	}
	logging.L().Debug().Int("exit", exitCode).Dur("duration", res.Duration).Msg("FOREGROUND_DONE")
	return res, nil
}

// SplitLines splits captured output into lines, dropping carriage returns
// and the empty string after a final newline.
func SplitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.TrimSuffix(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	return strings.Split(s, "\n")
}

// =============================================================================
// BACKGROUND
// =============================================================================

// StartBackground launches the file server on port with dir as its root.
// If a live server is already tracked it returns a KindAlreadyRunning error
// carrying that server's PID. It does not wait for the port to open.
func (s *Supervisor) StartBackground(port int, dir string) (*ManagedProcess, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bg != nil {
		if s.bg.Alive() {
			return s.bg, shellerr.AlreadyRunning(s.bg.PID)
		}
		s.bg = nil
	}

	if len(s.opts.ServeCommand) == 0 {
		return nil, shellerr.New(shellerr.KindSpawnFailed, "no serve command configured")
	}
	argv := expandServe(s.opts.ServeCommand, port, dir)

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = dir
	detach(cmd)

	if err := cmd.Start(); err != nil {
		logging.L().Warn().Err(err).Str("cmd", argv[0]).Msg("SERVER_SPAWN_FAILED")
		return nil, shellerr.Wrap(shellerr.KindSpawnFailed, err, "failed to start server")
	}

	p := &ManagedProcess{
		PID:       cmd.Process.Pid,
		Port:      port,
		Dir:       dir,
		StartedAt: time.Now(),
		cmd:       cmd,
		done:      make(chan struct{}),
	}
	go func() {
		_ = cmd.Wait()
		close(p.done)
	}()

	s.bg = p
	logging.L().Info().Int("pid", p.PID).Int("port", port).Str("dir", dir).Msg("SERVER_START")
	return p, nil
}

// StopBackground asks the tracked server to terminate and waits up to the
// grace period. The handle is cleared whether or not exit was observed.
func (s *Supervisor) StopBackground() (*StopResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.bg
	if p == nil {
		return nil, shellerr.New(shellerr.KindNotRunning, "No server running.")
	}
	defer func() { s.bg = nil }()

	if p.Alive() {
		if err := terminate(p.cmd); err != nil {
			logging.L().Warn().Err(err).Int("pid", p.PID).Msg("SERVER_TERMINATE_FAILED")
		}
	}

	res := &StopResult{PID: p.PID}
	select {
	case <-p.done:
		res.Confirmed = true
	case <-time.After(s.opts.StopGrace):
	}
	logging.L().Info().Int("pid", p.PID).Bool("confirmed", res.Confirmed).Msg("SERVER_STOP")
	return res, nil
}

// Background returns the tracked server if it is still alive.
func (s *Supervisor) Background() (*ManagedProcess, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bg == nil || !s.bg.Alive() {
		return nil, false
	}
	return s.bg, true
}

// Shutdown stops the background server if one is tracked. Used by hosts
// that close normally; the exit built-in does not call it.
func (s *Supervisor) Shutdown() {
	if _, err := s.StopBackground(); err != nil && !shellerr.Is(err, shellerr.KindNotRunning) {
		logging.L().Warn().Err(err).Msg("SUPERVISOR_SHUTDOWN")
	}
}

func expandServe(tmpl []string, port int, dir string) []string {
	r := strings.NewReplacer("{port}", strconv.Itoa(port), "{dir}", dir)
	out := make([]string, len(tmpl))
	for i, a := range tmpl {
		out[i] = r.Replace(a)
	}
	return out
}

// =============================================================================
// INSTALL
// =============================================================================

// RunInstall installs pkg with the configured package manager, calling
// onLine for each line of merged stdout and stderr as it is produced. It
// runs in the process's own working directory and returns the exit code.
func (s *Supervisor) RunInstall(ctx context.Context, pkg string, onLine func(string)) (int, error) {
	if len(s.opts.InstallCommand) == 0 {
		return -1, shellerr.New(shellerr.KindSpawnFailed, "no install command configured")
	}
	argv := append(append([]string(nil), s.opts.InstallCommand...), pkg)

	pr, pw, err := os.Pipe()
	if err != nil {
		return -1, shellerr.Wrap(shellerr.KindIOError, err, "failed to create pipe")
	}
	defer pr.Close()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = pw
	cmd.Stderr = pw

	logging.L().Info().Str("pkg", pkg).Strs("argv", argv).Msg("INSTALL_START")
	if err := cmd.Start(); err != nil {
		pw.Close()
		return -1, shellerr.Wrap(shellerr.KindSpawnFailed, err, "failed to start %s", argv[0])
	}
	// The child holds its own copy; closing ours lets the scanner see EOF.
	pw.Close()

	sc := bufio.NewScanner(pr)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		if onLine != nil {
			onLine(strings.TrimRight(sc.Text(), "\r"))
		}
	}

	exitCode := 0
	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return -1, shellerr.Wrap(shellerr.KindIOError, err, "install failed")
		}
		exitCode = exitErr.ExitCode()
	}
	logging.L().Info().Str("pkg", pkg).Int("exit", exitCode).Msg("INSTALL_DONE")
	return exitCode, nil
}
