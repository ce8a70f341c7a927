package bridge

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"nhooyr.io/websocket"
)

const (
	defaultRows = 40
	defaultCols = 120

	// pollInterval bounds every PTY read so the output pump stays
	// responsive to cancellation; nothing in a connection blocks longer
	// than this.
	pollInterval = 20 * time.Millisecond

	readBufferSize = 32 * 1024
)

// Close reasons recorded in the activity log.
const (
	reasonClientClosed = "client closed"
	reasonHangup       = "attach process hangup"
)

// resizeMessage is the one structured control envelope a client may
// send; everything else is raw keystrokes.
type resizeMessage struct {
	Type string `json:"type"`
	Rows uint16 `json:"rows"`
	Cols uint16 `json:"cols"`
}

// conn runs one client's bridge lifecycle: two pumps over a shared
// attachment, then teardown. Each conn owns its PTY pair and child
// exclusively; no state is shared across connections.
type conn struct {
	ws  *websocket.Conn
	att *attachment
	log *slog.Logger
}

// run drives both pumps until either side hangs up, then tears the
// attachment down and closes the socket. Returns the close reason.
// Teardown is idempotent: both pumps may race into it.
func (c *conn) run(ctx context.Context) string {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	inputDone := make(chan string, 1)
	go func() {
		reason := c.inputPump(ctx)
		cancel()
		inputDone <- reason
	}()

	outReason := c.outputPump(ctx)
	cancel()
	_ = c.att.close()

	// Cancellation unblocks the websocket read within one poll interval.
	inReason := <-inputDone

	c.ws.Close(websocket.StatusNormalClosure, "")

	if outReason != "" {
		return outReason
	}
	return inReason
}

// outputPump forwards PTY output to the client verbatim as binary
// messages, preserving all escape sequences. A read error or zero-byte
// read means the attach process exited.
func (c *conn) outputPump(ctx context.Context) string {
	buf := make([]byte, readBufferSize)
	for ctx.Err() == nil {
		n, err := c.att.readChunk(buf, pollInterval)
		if n > 0 {
			if werr := c.ws.Write(ctx, websocket.MessageBinary, buf[:n]); werr != nil {
				return reasonClientClosed
			}
		}
		if err != nil {
			return reasonHangup
		}
	}
	return ""
}

// inputPump writes client messages byte-for-byte to the PTY, except
// for a text frame carrying a resize envelope, which updates the PTY
// size and signals the child instead. A resize may interleave with an
// in-flight output read in either order; neither corrupts the stream.
func (c *conn) inputPump(ctx context.Context) string {
	for {
		typ, data, err := c.ws.Read(ctx)
		if err != nil {
			return reasonClientClosed
		}

		if typ == websocket.MessageText && len(data) > 0 && data[0] == '{' {
			var msg resizeMessage
			if jerr := json.Unmarshal(data, &msg); jerr == nil && msg.Type == "resize" {
				rows, cols := msg.Rows, msg.Cols
				if rows == 0 {
					rows = defaultRows
				}
				if cols == 0 {
					cols = defaultCols
				}
				if rerr := c.att.resize(rows, cols); rerr != nil {
					c.log.Warn("terminal resize failed", "error", rerr)
				}
				continue
			}
			// Not a control envelope: falls through as keystrokes.
		}

		if _, err := c.att.write(data); err != nil {
			return reasonHangup
		}
	}
}
