// Package project manages a single orc-initialised git repository: its
// .orc/ state tree, per-room git worktrees, and the rooms' tmux
// windows.
package project

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/user/orc/internal/git"
	"github.com/user/orc/internal/room"
	"github.com/user/orc/internal/tmux"
)

const (
	// RolesDir holds role prompt files inside .orc/.
	RolesDir = ".roles"
	// WorktreesDir holds per-room git worktrees inside .orc/.
	WorktreesDir = ".worktrees"
	// MainRoom is the orchestrator's room, rooted at the project itself.
	MainRoom = "@main"
)

// FindRoot walks up from start (or the working directory) to the
// enclosing git repository root. Returns "" when there is none.
func FindRoot(start string) string {
	path := start
	if path == "" {
		path, _ = os.Getwd()
	}
	path, err := filepath.Abs(path)
	if err != nil {
		return ""
	}
	for {
		if info, err := os.Stat(filepath.Join(path, ".git")); err == nil && info.IsDir() {
			return path
		}
		parent := filepath.Dir(path)
		if parent == path {
			return ""
		}
		path = parent
	}
}

// Project is one orc-managed repository.
type Project struct {
	Root string
	Name string
}

func New(root string) *Project {
	return &Project{Root: root, Name: filepath.Base(root)}
}

// OrcDir returns the project's .orc/ state directory.
func (p *Project) OrcDir() string { return filepath.Join(p.Root, ".orc") }

// Initialized reports whether .orc/ exists.
func (p *Project) Initialized() bool {
	info, err := os.Stat(p.OrcDir())
	return err == nil && info.IsDir()
}

// Init creates the .orc/ tree: the @main room, default role prompts,
// the worktrees directory and a gitignore entry for it. With force it
// reinitialises over an existing tree.
func (p *Project) Init(force bool) error {
	if p.Initialized() && !force {
		return fmt.Errorf("%s already exists (use force to reinitialize)", p.OrcDir())
	}
	if err := os.MkdirAll(p.OrcDir(), 0o755); err != nil {
		return fmt.Errorf("init project: %w", err)
	}

	main := room.New(p.OrcDir(), MainRoom)
	if !main.Exists() || force {
		if err := main.Create("orchestrator", room.StatusActive); err != nil {
			return err
		}
	}

	rolesDir := filepath.Join(p.OrcDir(), RolesDir)
	if err := os.MkdirAll(rolesDir, 0o755); err != nil {
		return fmt.Errorf("init roles dir: %w", err)
	}
	for _, name := range []string{"orchestrator", "worker"} {
		path := filepath.Join(rolesDir, name+".md")
		if _, err := os.Stat(path); err == nil && !force {
			continue
		}
		if err := os.WriteFile(path, []byte(DefaultRoleContent(name)), 0o644); err != nil {
			return fmt.Errorf("write role %s: %w", name, err)
		}
	}

	if err := os.MkdirAll(filepath.Join(p.OrcDir(), WorktreesDir), 0o755); err != nil {
		return fmt.Errorf("init worktrees dir: %w", err)
	}
	return p.ensureGitignore()
}

func (p *Project) ensureGitignore() error {
	path := filepath.Join(p.Root, ".gitignore")
	entry := ".orc/" + WorktreesDir + "/"

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	content := string(data)
	if strings.Contains(content, entry) {
		return nil
	}
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += entry + "\n"
	return os.WriteFile(path, []byte(content), 0o644)
}

// ValidateRoomName rejects names that would collide with @main or break
// window naming.
func ValidateRoomName(name string) error {
	if strings.HasPrefix(name, "@") {
		return fmt.Errorf("room names cannot start with '@' (reserved for %s)", MainRoom)
	}
	if name == "" || strings.ContainsAny(name, " \t") {
		return fmt.Errorf("room name %q must be non-empty and contain no spaces", name)
	}
	return nil
}

// AddRoom creates the room's files and a dedicated git worktree on a
// new branch named after the room. The room files are rolled back if
// the worktree cannot be created.
func (p *Project) AddRoom(name, role string) error {
	if err := ValidateRoomName(name); err != nil {
		return err
	}
	r := room.New(p.OrcDir(), name)
	if r.Exists() {
		return fmt.Errorf("room %q already exists", name)
	}
	if err := r.Create(role, room.StatusReady); err != nil {
		return err
	}

	worktree := filepath.Join(p.OrcDir(), WorktreesDir, name)
	if err := git.AddWorktree(p.Root, worktree, name); err != nil {
		_ = r.Delete()
		return fmt.Errorf("create worktree for %q: %w", name, err)
	}

	return nil
}

// RemoveRoom kills the room's window, removes its worktree and deletes
// its files. @main cannot be removed.
func (p *Project) RemoveRoom(sess *tmux.Session, name string) error {
	if name == MainRoom {
		return fmt.Errorf("cannot remove %s", MainRoom)
	}
	r := room.New(p.OrcDir(), name)
	if !r.Exists() {
		return fmt.Errorf("room %q does not exist", name)
	}

	if err := sess.Window(tmux.WindowName(p.Name, name)).Kill(); err != nil {
		return err
	}

	worktree := filepath.Join(p.OrcDir(), WorktreesDir, name)
	if err := git.RemoveWorktree(p.Root, worktree); err != nil {
		return err
	}

	return r.Delete()
}

// RoomCwd is where a room's agent runs: the project root for @main,
// otherwise the room's worktree.
func (p *Project) RoomCwd(name string) string {
	if name == MainRoom {
		return p.Root
	}
	return filepath.Join(p.OrcDir(), WorktreesDir, name)
}

// RolePrompt reads the prompt file for a role, or "" when none exists.
func (p *Project) RolePrompt(role string) string {
	data, err := os.ReadFile(filepath.Join(p.OrcDir(), RolesDir, role+".md"))
	if err != nil {
		return ""
	}
	return string(data)
}

// Rooms lists the project's created rooms.
func (p *Project) Rooms() []string {
	return room.List(p.OrcDir())
}

// Room returns a handle on one of the project's rooms.
func (p *Project) Room(name string) *room.Room {
	return room.New(p.OrcDir(), name)
}

// Tell sends text to a running room's window. Returns false without
// error when the room exists but its window is not running.
func (p *Project) Tell(sess *tmux.Session, name, text string) (bool, error) {
	r := room.New(p.OrcDir(), name)
	if !r.Exists() {
		return false, fmt.Errorf("room %q does not exist", name)
	}
	w := sess.Window(tmux.WindowName(p.Name, name))
	if !w.Alive() {
		return false, nil
	}
	if err := w.SendKeys(text); err != nil {
		return false, err
	}
	return true, nil
}

// TellAll sends text to every running room and returns the rooms that
// received it.
func (p *Project) TellAll(sess *tmux.Session, text string) ([]string, error) {
	var sent []string
	for _, name := range p.Rooms() {
		w := sess.Window(tmux.WindowName(p.Name, name))
		if !w.Alive() {
			continue
		}
		if err := w.SendKeys(text); err != nil {
			return sent, err
		}
		sent = append(sent, name)
	}
	return sent, nil
}
