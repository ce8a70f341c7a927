//go:build unix

package bridge

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
)

// attachment pairs a PTY controller descriptor with the child process
// attached to it. The two live and die together: the child is signaled
// before the descriptor closes, and a Wait goroutine started at spawn
// reaps the child whenever it exits.
type attachment struct {
	ptmx *os.File
	cmd  *exec.Cmd
	done chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// spawn starts argv under a fresh PTY pair sized rows x cols. The child
// becomes a session leader with the PTY follower as its controlling
// terminal and as stdin/stdout/stderr; the follower is then closed on
// our side. An exec failure inside the child surfaces as immediate
// child exit, not as an error here.
func spawn(argv []string, rows, cols uint16) (*attachment, error) {
	if len(argv) == 0 {
		return nil, errors.New("bridge: empty attach command")
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: rows, Cols: cols})
	if err != nil {
		return nil, fmt.Errorf("bridge: start %q under pty: %w", argv[0], err)
	}

	a := &attachment{
		ptmx: ptmx,
		cmd:  cmd,
		done: make(chan struct{}),
	}

	go func() {
		_ = cmd.Wait()
		close(a.done)
	}()

	return a, nil
}

// readChunk reads whatever the child has written, waiting at most
// timeout. A deadline expiry returns (0, nil); any other error means
// the child hung up or the descriptor died.
func (a *attachment) readChunk(buf []byte, timeout time.Duration) (int, error) {
	if err := a.ptmx.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return 0, err
	}
	n, err := a.ptmx.Read(buf)
	if err != nil && errors.Is(err, os.ErrDeadlineExceeded) {
		return n, nil
	}
	return n, err
}

// write delivers client bytes to the child as terminal input.
func (a *attachment) write(p []byte) (int, error) {
	return a.ptmx.Write(p)
}

// resize updates the PTY window size and notifies the child with
// SIGWINCH so the attached program re-wraps its output.
func (a *attachment) resize(rows, cols uint16) error {
	if err := pty.Setsize(a.ptmx, &pty.Winsize{Rows: rows, Cols: cols}); err != nil {
		return fmt.Errorf("bridge: resize pty: %w", err)
	}
	if a.cmd.Process != nil {
		_ = a.cmd.Process.Signal(syscall.SIGWINCH)
	}
	return nil
}

// exited reports whether the child has been reaped.
func (a *attachment) exited() bool {
	select {
	case <-a.done:
		return true
	default:
		return false
	}
}

// close terminates the child if it is still running and closes the
// controller descriptor exactly once. Safe to call from both pumps
// concurrently.
func (a *attachment) close() error {
	a.closeOnce.Do(func() {
		if !a.exited() && a.cmd.Process != nil {
			_ = a.cmd.Process.Signal(syscall.SIGTERM)
		}
		a.closeErr = a.ptmx.Close()
	})
	return a.closeErr
}
