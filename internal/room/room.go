// Package room manages the per-room state directories under .orc/.
// Rooms coordinate through plain JSON files so agents, the CLI and the
// dashboard can all read and write them without a daemon in the middle.
package room

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Agent is the contents of a room's agent.json.
type Agent struct {
	Role     string   `json:"role"`
	Backend  string   `json:"backend,omitempty"`
	Model    string   `json:"model,omitempty"`
	Sessions []string `json:"sessions"`
}

// Status values a room moves through.
const (
	StatusActive  = "active"
	StatusReady   = "ready"
	StatusWorking = "working"
	StatusBlocked = "blocked"
	StatusDone    = "done"
	StatusExited  = "exited"
)

// Message is one inbox.json entry.
type Message struct {
	From    string `json:"from"`
	Message string `json:"message"`
	Read    bool   `json:"read"`
	Ts      string `json:"ts"`
}

// Atom is a single unit of work inside a molecule.
type Atom struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	Status       string   `json:"status"`
	Dependencies []string `json:"dependencies,omitempty"`
}

// Molecule is a work item file in a room's molecules/ directory.
type Molecule struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title,omitempty"`
	Atoms []Atom `json:"atoms"`
}

// Room is a handle on one room directory. Like everything else in the
// .orc/ tree it carries no in-process state; each call reflects the
// files as they are now.
type Room struct {
	orcDir string
	name   string
}

func New(orcDir, name string) *Room {
	return &Room{orcDir: orcDir, name: name}
}

func (r *Room) Name() string { return r.name }

// Path returns the room's directory.
func (r *Room) Path() string { return filepath.Join(r.orcDir, r.name) }

// Exists reports whether the room has been created: its directory and
// agent.json must both be present.
func (r *Room) Exists() bool {
	if info, err := os.Stat(r.Path()); err != nil || !info.IsDir() {
		return false
	}
	_, err := os.Stat(filepath.Join(r.Path(), "agent.json"))
	return err == nil
}

// Create lays down the room's directory structure and initial files.
func (r *Room) Create(role, status string) error {
	if err := os.MkdirAll(filepath.Join(r.Path(), "molecules"), 0o755); err != nil {
		return fmt.Errorf("create room %q: %w", r.name, err)
	}
	if err := r.writeJSON("agent.json", Agent{Role: role, Sessions: []string{}}); err != nil {
		return err
	}
	if err := r.writeJSON("status.json", map[string]string{"status": status}); err != nil {
		return err
	}
	return r.writeJSON("inbox.json", []Message{})
}

// Delete removes the room directory and everything in it.
func (r *Room) Delete() error {
	return os.RemoveAll(r.Path())
}

// ReadAgent returns the room's agent.json, or a zero Agent if the file
// is missing or unreadable.
func (r *Room) ReadAgent() Agent {
	var a Agent
	r.readJSON("agent.json", &a)
	return a
}

// ReadStatus returns the room's current status, or "unknown".
func (r *Room) ReadStatus() string {
	var s struct {
		Status string `json:"status"`
	}
	if err := r.readJSON("status.json", &s); err != nil || s.Status == "" {
		return "unknown"
	}
	return s.Status
}

// SetStatus overwrites status.json.
func (r *Room) SetStatus(status string) error {
	return r.writeJSON("status.json", map[string]string{"status": status})
}

// ReadInbox returns the room's inbox messages, oldest first. A missing
// or malformed inbox reads as empty.
func (r *Room) ReadInbox() []Message {
	var msgs []Message
	if err := r.readJSON("inbox.json", &msgs); err != nil {
		return nil
	}
	return msgs
}

// AppendInbox adds a message to the room's inbox with a UTC timestamp.
func (r *Room) AppendInbox(from, text string) error {
	if !r.Exists() {
		return fmt.Errorf("room %q not found", r.name)
	}
	msgs := r.ReadInbox()
	msgs = append(msgs, Message{
		From:    from,
		Message: text,
		Ts:      time.Now().UTC().Format(time.RFC3339),
	})
	return r.writeJSON("inbox.json", msgs)
}

// Molecules returns the room's work items sorted by filename.
func (r *Room) Molecules() []Molecule {
	dir := filepath.Join(r.Path(), "molecules")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var mols []Molecule
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		var m Molecule
		if err := json.Unmarshal(data, &m); err != nil {
			continue
		}
		mols = append(mols, m)
	}
	return mols
}

// MoleculeCount returns the number of molecule files without parsing
// them.
func (r *Room) MoleculeCount() int {
	entries, err := os.ReadDir(filepath.Join(r.Path(), "molecules"))
	if err != nil {
		return 0
	}
	n := 0
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".json") {
			n++
		}
	}
	return n
}

// Clean drops read inbox messages and deletes molecules whose atoms are
// all done. Returns (messages removed, molecules removed).
func (r *Room) Clean() (int, int, error) {
	messages := 0
	inbox := r.ReadInbox()
	unread := inbox[:0]
	for _, m := range inbox {
		if !m.Read {
			unread = append(unread, m)
		}
	}
	if removed := len(inbox) - len(unread); removed > 0 {
		if err := r.writeJSON("inbox.json", unread); err != nil {
			return 0, 0, err
		}
		messages = removed
	}

	molecules := 0
	dir := filepath.Join(r.Path(), "molecules")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return messages, 0, nil
	}
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var m Molecule
		if err := json.Unmarshal(data, &m); err != nil {
			continue
		}
		if len(m.Atoms) == 0 {
			continue
		}
		done := true
		for _, a := range m.Atoms {
			if a.Status != "done" {
				done = false
				break
			}
		}
		if done {
			if err := os.Remove(path); err == nil {
				molecules++
			}
		}
	}
	return messages, molecules, nil
}

func (r *Room) readJSON(filename string, v any) error {
	data, err := os.ReadFile(filepath.Join(r.Path(), filename))
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (r *Room) writeJSON(filename string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s for room %q: %w", filename, r.name, err)
	}
	data = append(data, '\n')
	path := filepath.Join(r.Path(), filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s for room %q: %w", filename, r.name, err)
	}
	return nil
}

// List returns the names of all created rooms under orcDir, sorted.
// Dotted entries (.roles, .worktrees) are never rooms.
func List(orcDir string) []string {
	entries, err := os.ReadDir(orcDir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if New(orcDir, e.Name()).Exists() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}
