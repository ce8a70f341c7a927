// Package bridge gives remote websocket clients byte-level interactive
// access to tmux windows. Each connection forks its own tmux client
// attached through a fresh PTY pair, so several browsers can share one
// window the same way several tmux clients natively can.
package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"

	"github.com/user/orc/internal/tmux"
)

// Multiplexer is the slice of the tmux layer the bridge consumes: a
// live window probe and the argv that attaches a terminal to a window.
type Multiplexer interface {
	WindowExists(name string) bool
	AttachCommand(window string) []string
}

// ConnectionRecord describes one bridge connection for the activity log.
type ConnectionRecord struct {
	ID          string
	Project     string
	Room        string
	Window      string
	RemoteAddr  string
	ConnectedAt time.Time
}

// Recorder persists connection lifecycle records. Recording failures
// never affect the connection itself.
type Recorder interface {
	ConnectionOpened(ctx context.Context, rec ConnectionRecord) error
	ConnectionClosed(ctx context.Context, id, reason string) error
}

// Handler serves /terminal/{project}/{room}. Setup errors close the
// socket with a reason before any PTY or child process exists;
// steady-state errors tear the connection down silently.
type Handler struct {
	Mux      Multiplexer
	Recorder Recorder // optional
	Logger   *slog.Logger
}

const closeReasonBadPath = "invalid path: use /terminal/{project}/{room}"

func (h *Handler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	project := r.PathValue("project")
	room := r.PathValue("room")

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger().Warn("websocket accept failed", "error", err)
		return
	}

	if !validName(project) || !validName(room) {
		ws.Close(websocket.StatusPolicyViolation, closeReasonBadPath)
		return
	}

	window := tmux.WindowName(project, room)
	if !h.Mux.WindowExists(window) {
		ws.Close(websocket.StatusPolicyViolation,
			fmt.Sprintf("room %q window not found", room))
		return
	}

	rows, cols := sizeHint(r.URL.Query())
	att, err := spawn(h.Mux.AttachCommand(window), rows, cols)
	if err != nil {
		h.logger().Error("terminal attach failed", "window", window, "error", err)
		ws.Close(websocket.StatusInternalError, "failed to attach terminal")
		return
	}

	id := uuid.NewString()
	log := h.logger().With("conn", id, "project", project, "room", room)
	if h.Recorder != nil {
		rec := ConnectionRecord{
			ID:          id,
			Project:     project,
			Room:        room,
			Window:      window,
			RemoteAddr:  r.RemoteAddr,
			ConnectedAt: time.Now().UTC(),
		}
		if err := h.Recorder.ConnectionOpened(r.Context(), rec); err != nil {
			log.Warn("activity record failed", "error", err)
		}
	}
	log.Info("terminal connected", "window", window, "remote", r.RemoteAddr)

	c := &conn{ws: ws, att: att, log: log}
	reason := c.run(r.Context())

	if h.Recorder != nil {
		// The request context may already be dead at this point.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := h.Recorder.ConnectionClosed(ctx, id, reason); err != nil {
			log.Warn("activity record failed", "error", err)
		}
	}
	log.Info("terminal disconnected", "reason", reason)
}

// validName rejects addressing that could never name a window or would
// corrupt a tmux target string.
func validName(name string) bool {
	if name == "" || strings.TrimLeft(name, "@") == "" {
		return false
	}
	return !strings.ContainsAny(name, ": \t\n")
}

// sizeHint reads optional ?rows=&cols= from the request; anything
// absent or unusable falls back to the defaults rather than erroring.
func sizeHint(q url.Values) (rows, cols uint16) {
	rows, cols = defaultRows, defaultCols
	if v, err := strconv.ParseUint(q.Get("rows"), 10, 16); err == nil && v > 0 {
		rows = uint16(v)
	}
	if v, err := strconv.ParseUint(q.Get("cols"), 10, 16); err == nil && v > 0 {
		cols = uint16(v)
	}
	return rows, cols
}
