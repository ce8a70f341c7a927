// Package service is the shared business layer behind the CLI and the
// dashboard API: room summaries, agent launch, terminal snapshots and
// cross-project messaging.
package service

import (
	"fmt"
	"time"

	"github.com/user/orc/internal/backend"
	"github.com/user/orc/internal/project"
	"github.com/user/orc/internal/room"
	"github.com/user/orc/internal/tmux"
	"github.com/user/orc/internal/universe"
)

// DefaultStartupDelay is how long agent CLIs usually need before they
// accept typed input.
const DefaultStartupDelay = 3 * time.Second

type Service struct {
	Tmux           *tmux.Session
	Universe       *universe.Universe
	Backends       *backend.Registry
	DefaultBackend string
	Sandbox        bool

	// StartupDelay is how long AttachRoom waits after launching an
	// agent before typing an initial message at it, giving the CLI
	// time to come up.
	StartupDelay time.Duration
}

// RoomInfo is one row of a project's room summary.
type RoomInfo struct {
	Name          string `json:"name"`
	Role          string `json:"role"`
	Backend       string `json:"backend,omitempty"`
	Model         string `json:"model,omitempty"`
	Status        string `json:"status"`
	WindowAlive   bool   `json:"tmux"`
	InboxCount    int    `json:"inbox_count"`
	UnreadCount   int    `json:"unread_count"`
	MoleculeCount int    `json:"molecule_count"`
}

// DiscoverProjects returns name -> path for every registered,
// initialised project.
func (s *Service) DiscoverProjects() map[string]string {
	return s.Universe.Discover()
}

// Rooms summarises every room of a project, including whether its tmux
// window is currently alive.
func (s *Service) Rooms(projectPath string) []RoomInfo {
	p := project.New(projectPath)
	var infos []RoomInfo
	for _, name := range p.Rooms() {
		r := p.Room(name)
		agent := r.ReadAgent()
		inbox := r.ReadInbox()
		unread := 0
		for _, m := range inbox {
			if !m.Read {
				unread++
			}
		}
		infos = append(infos, RoomInfo{
			Name:          name,
			Role:          orDefault(agent.Role, "unknown"),
			Backend:       agent.Backend,
			Model:         agent.Model,
			Status:        r.ReadStatus(),
			WindowAlive:   s.Tmux.WindowExists(tmux.WindowName(p.Name, name)),
			InboxCount:    len(inbox),
			UnreadCount:   unread,
			MoleculeCount: r.MoleculeCount(),
		})
	}
	return infos
}

// AttachOptions carries the optional inputs to AttachRoom.
type AttachOptions struct {
	Role    string // role for a room created on demand; default worker
	Model   string // overrides the room's configured model
	Message string // typed at the agent once it has started
}

// AttachRoom makes sure a room exists, the shared session is running,
// the room's window is alive and an agent is started in it. It is the
// headless ensure step; actually attaching a terminal is the caller's
// business (CLI exec or the bridge).
func (s *Service) AttachRoom(projectPath, roomName string, opts AttachOptions) error {
	p := project.New(projectPath)
	r := p.Room(roomName)

	if !r.Exists() {
		role := orDefault(opts.Role, "worker")
		if roomName == project.MainRoom {
			if err := r.Create("orchestrator", room.StatusActive); err != nil {
				return err
			}
		} else if err := p.AddRoom(roomName, role); err != nil {
			return fmt.Errorf("failed to create room %q: %w", roomName, err)
		}
	}

	if err := s.Tmux.Ensure(p.Root); err != nil {
		return err
	}

	w := s.Tmux.Window(tmux.WindowName(p.Name, roomName))
	if w.Alive() {
		return nil
	}

	cwd := p.RoomCwd(roomName)
	agent := r.ReadAgent()
	role := orDefault(agent.Role, "worker")
	model := opts.Model
	if model == "" {
		model = agent.Model
	}

	b := s.Backends.Resolve(agent.Backend, s.DefaultBackend)
	cmdline, err := b.BuildCommand(backend.CommandOptions{
		RolePrompt: p.RolePrompt(role),
		Model:      model,
		Cwd:        cwd,
		Sandbox:    s.Sandbox,
	})
	if err != nil {
		return err
	}
	if err := b.CopySettings(p.Root, cwd); err != nil {
		return err
	}

	if err := w.Create(cwd); err != nil {
		return err
	}
	if err := w.LaunchAgent(cmdline); err != nil {
		return err
	}
	if err := r.SetStatus(room.StatusWorking); err != nil {
		return err
	}

	if opts.Message != "" {
		time.Sleep(s.StartupDelay)
		return w.SendKeys(opts.Message)
	}
	return nil
}

// CaptureTerminal returns a snapshot of a room's pane for the
// dashboard's initial render, plus whether the window is alive. The
// live stream afterwards goes through the bridge, not this path.
func (s *Service) CaptureTerminal(projectName, roomName string) (string, bool) {
	window := tmux.WindowName(projectName, roomName)
	if !s.Tmux.WindowExists(window) {
		return "", false
	}
	content, err := s.Tmux.Capture(window, 500)
	if err != nil {
		return "", true
	}
	return content, true
}

// SendInboxMessage appends a message to a room's inbox in any
// registered project.
func (s *Service) SendInboxMessage(from, toProject, toRoom, text string) error {
	return s.Universe.SendMessage(from, toProject, toRoom, text)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
