package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/user/orc/internal/bridge"
)

// Connection is one row of the terminal_connections table.
type Connection struct {
	ID             string     `json:"id"`
	Project        string     `json:"project"`
	Room           string     `json:"room"`
	Window         string     `json:"window"`
	RemoteAddr     string     `json:"remote_addr"`
	ConnectedAt    time.Time  `json:"connected_at"`
	DisconnectedAt *time.Time `json:"disconnected_at,omitempty"`
	CloseReason    string     `json:"close_reason,omitempty"`
}

// timestampFormat pads nanoseconds to fixed width so that the stored
// strings sort lexicographically in time order; RFC3339Nano drops
// trailing zeros, which breaks ORDER BY within a second.
const timestampFormat = "2006-01-02T15:04:05.000000000Z07:00"

// ActivityRepo records bridge connection lifecycles. It satisfies
// bridge.Recorder.
type ActivityRepo struct {
	db *sql.DB
}

func NewActivityRepo(db *sql.DB) *ActivityRepo {
	return &ActivityRepo{db: db}
}

func (r *ActivityRepo) ConnectionOpened(ctx context.Context, rec bridge.ConnectionRecord) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO terminal_connections (id, project, room, window, remote_addr, connected_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Project, rec.Room, rec.Window, rec.RemoteAddr,
		rec.ConnectedAt.UTC().Format(timestampFormat),
	)
	if err != nil {
		return fmt.Errorf("failed to record connection open: %w", err)
	}
	return nil
}

func (r *ActivityRepo) ConnectionClosed(ctx context.Context, id, reason string) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE terminal_connections
SET disconnected_at = ?, close_reason = ?
WHERE id = ?`,
		time.Now().UTC().Format(timestampFormat), reason, id,
	)
	if err != nil {
		return fmt.Errorf("failed to record connection close: %w", err)
	}
	return nil
}

// Recent returns the newest connections first, up to limit.
func (r *ActivityRepo) Recent(ctx context.Context, limit int) ([]*Connection, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, project, room, window, remote_addr, connected_at, disconnected_at, close_reason
FROM terminal_connections
ORDER BY connected_at DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	defer rows.Close()

	var conns []*Connection
	for rows.Next() {
		var c Connection
		var connectedAt string
		var disconnectedAt sql.NullString
		if err := rows.Scan(&c.ID, &c.Project, &c.Room, &c.Window, &c.RemoteAddr,
			&connectedAt, &disconnectedAt, &c.CloseReason); err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, connectedAt); err == nil {
			c.ConnectedAt = t
		}
		if disconnectedAt.Valid {
			if t, err := time.Parse(time.RFC3339Nano, disconnectedAt.String); err == nil {
				c.DisconnectedAt = &t
			}
		}
		conns = append(conns, &c)
	}
	return conns, rows.Err()
}
