// Package universe tracks every project orc knows about. The registry
// is a directory of symlinks pointing at project roots, so adding and
// removing projects never touches the projects themselves.
package universe

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/user/orc/internal/room"
)

type Universe struct {
	dir string
}

func New(dir string) *Universe {
	return &Universe{dir: dir}
}

// Dir returns the registry directory.
func (u *Universe) Dir() string { return u.dir }

func (u *Universe) ensureDir() error {
	return os.MkdirAll(u.dir, 0o755)
}

// Discover returns name -> absolute path for every registered project
// that has been orc-initialised.
func (u *Universe) Discover() map[string]string {
	return u.scan(true)
}

// All returns name -> absolute path for every registered project,
// initialised or not.
func (u *Universe) All() map[string]string {
	return u.scan(false)
}

func (u *Universe) scan(initializedOnly bool) map[string]string {
	projects := make(map[string]string)
	entries, err := os.ReadDir(u.dir)
	if err != nil {
		return projects
	}
	for _, e := range entries {
		real, err := filepath.EvalSymlinks(filepath.Join(u.dir, e.Name()))
		if err != nil {
			continue
		}
		info, err := os.Stat(real)
		if err != nil || !info.IsDir() {
			continue
		}
		if initializedOnly {
			if orcInfo, err := os.Stat(filepath.Join(real, ".orc")); err != nil || !orcInfo.IsDir() {
				continue
			}
		}
		projects[e.Name()] = real
	}
	return projects
}

// Names returns the sorted names of registered, initialised projects.
func (u *Universe) Names() []string {
	projects := u.Discover()
	names := make([]string, 0, len(projects))
	for name := range projects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Add registers a project by symlinking its path into the registry.
// The path must be an existing git repository. Returns the registered
// name.
func (u *Universe) Add(path, name string) (string, error) {
	real, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", fmt.Errorf("path does not exist: %s", path)
	}
	if info, err := os.Stat(real); err != nil || !info.IsDir() {
		return "", fmt.Errorf("path does not exist: %s", path)
	}
	if info, err := os.Stat(filepath.Join(real, ".git")); err != nil || !info.IsDir() {
		return "", fmt.Errorf("not a git repository: %s", path)
	}

	if name == "" {
		name = filepath.Base(real)
	}
	if err := u.ensureDir(); err != nil {
		return "", err
	}

	link := filepath.Join(u.dir, name)
	if _, err := os.Lstat(link); err == nil {
		return "", fmt.Errorf("project %q already exists in the universe", name)
	}
	if err := os.Symlink(real, link); err != nil {
		return "", fmt.Errorf("register project %q: %w", name, err)
	}
	return name, nil
}

// Remove unregisters a project. Only symlinks are removed; anything
// else in the registry directory is left for the operator, to avoid
// data loss.
func (u *Universe) Remove(name string) error {
	link := filepath.Join(u.dir, name)
	info, err := os.Lstat(link)
	if err != nil {
		return fmt.Errorf("project %q not in the universe", name)
	}
	if info.Mode()&os.ModeSymlink == 0 {
		return fmt.Errorf("%q is not a symlink; remove manually to avoid data loss", name)
	}
	return os.Remove(link)
}

// Resolve returns the absolute path of a registered, initialised
// project.
func (u *Universe) Resolve(name string) (string, error) {
	real, err := filepath.EvalSymlinks(filepath.Join(u.dir, name))
	if err != nil {
		return "", fmt.Errorf("project %q not found or not initialized", name)
	}
	if info, err := os.Stat(filepath.Join(real, ".orc")); err != nil || !info.IsDir() {
		return "", fmt.Errorf("project %q not found or not initialized", name)
	}
	return real, nil
}

// SendMessage appends a message to a room's inbox in any registered
// project.
func (u *Universe) SendMessage(from, toProject, toRoom, text string) error {
	path, err := u.Resolve(toProject)
	if err != nil {
		return err
	}
	r := room.New(filepath.Join(path, ".orc"), toRoom)
	if !r.Exists() {
		return fmt.Errorf("room %q not found in project %q", toRoom, toProject)
	}
	return r.AppendInbox(from, text)
}
