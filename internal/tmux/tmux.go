// Package tmux drives the external tmux server that owns all window
// state. orc keeps every agent in a window of one shared session; this
// package is the only place that shells out to tmux.
package tmux

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// DefaultSession is the name of the shared tmux session that holds one
// window per room.
const DefaultSession = "orc"

// CommandError reports a tmux command that ran and failed. A window or
// session that simply does not exist is a boolean outcome, never a
// CommandError.
type CommandError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("tmux %s: %s", strings.Join(e.Args, " "), msg)
}

func (e *CommandError) Unwrap() error { return e.Err }

// RunFunc executes a tmux command and returns its stdout. Swappable so
// callers can be exercised without a tmux server.
type RunFunc func(args ...string) (string, error)

func runTmux(args ...string) (string, error) {
	cmd := exec.Command("tmux", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if execErr, ok := err.(*exec.Error); ok && errors.Is(execErr.Err, exec.ErrNotFound) {
			return "", &CommandError{Args: args, Err: fmt.Errorf("tmux binary not found: %w", err)}
		}
		return "", &CommandError{Args: args, Stderr: stderr.String(), Err: err}
	}
	return stdout.String(), nil
}

// Session is a handle on the shared tmux session. It holds no state of
// its own: every method reflects the live tmux server at call time,
// since agents and operators mutate windows concurrently.
type Session struct {
	name string
	run  RunFunc
}

func NewSession(name string) *Session {
	return NewSessionWith(name, runTmux)
}

// NewSessionWith builds a Session over a custom command runner.
func NewSessionWith(name string, run RunFunc) *Session {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultSession
	}
	return &Session{name: name, run: run}
}

// Name returns the tmux session name.
func (s *Session) Name() string { return s.name }

// Exists reports whether the shared session is running. A missing tmux
// server counts as not running.
func (s *Session) Exists() bool {
	_, err := s.run("has-session", "-t", s.name)
	return err == nil
}

// Ensure creates the shared session, detached and rooted at dir, if it
// is not already running.
func (s *Session) Ensure(dir string) error {
	if s.Exists() {
		return nil
	}
	args := []string{"new-session", "-d", "-s", s.name}
	if dir != "" {
		args = append(args, "-c", dir)
	}
	_, err := s.run(args...)
	return err
}

// WindowExists reports whether a window with the given name exists in
// the shared session. Any failure, including tmux not running, reads as
// "no such window" — callers treat absence as a normal outcome.
func (s *Session) WindowExists(name string) bool {
	out, err := s.run("list-windows", "-t", s.name, "-F", "#{window_name}")
	if err != nil {
		return false
	}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if strings.TrimSpace(line) == name {
			return true
		}
	}
	return false
}

// ListWindows returns the names of all windows in the shared session,
// or nil if the session is not running.
func (s *Session) ListWindows() []string {
	out, err := s.run("list-windows", "-t", s.name, "-F", "#{window_name}")
	if err != nil {
		return nil
	}
	var names []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// Window returns a handle for the named window. The window need not
// exist yet.
func (s *Session) Window(name string) Window {
	return Window{sess: s, name: name}
}

// AttachCommand returns the argv that attaches a terminal to the named
// window. The bridge execs this under a fresh PTY, one client per
// process, mirroring tmux's native multi-attach semantics.
func (s *Session) AttachCommand(window string) []string {
	return []string{"tmux", "attach-session", "-t", s.name + ":" + window}
}

// Capture returns the current contents of a window's pane with escape
// sequences preserved. scrollback > 0 includes that many lines of
// history above the visible pane.
func (s *Session) Capture(window string, scrollback int) (string, error) {
	args := []string{"capture-pane", "-t", s.name + ":" + window, "-p", "-e"}
	if scrollback > 0 {
		args = append(args, "-S", "-"+strconv.Itoa(scrollback))
	}
	return s.run(args...)
}

// WindowName derives the canonical window name for a room:
// ("demo", "@main") -> "demo-main", ("demo", "feature-x") -> "demo-feature-x".
func WindowName(project, room string) string {
	return project + "-" + strings.TrimLeft(room, "@")
}
