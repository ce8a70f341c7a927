package backend

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/user/orc/configs"
)

// Registry holds the loaded backend definitions. Definitions live as
// YAML files in a directory; the shipped defaults are seeded there on
// first use so operators can edit or extend them.
type Registry struct {
	dir      string
	backends map[string]*Backend
	mu       sync.RWMutex
}

func NewRegistry(dir string) (*Registry, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("backends dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create backends dir: %w", err)
	}
	if err := ensureDefaults(dir); err != nil {
		return nil, err
	}

	r := &Registry{dir: dir, backends: make(map[string]*Backend)}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) Reload() error {
	loaded, err := loadDir(r.dir)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.backends = loaded
	r.mu.Unlock()
	return nil
}

// Get returns a backend by name, or nil.
func (r *Registry) Get(name string) *Backend {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.backends[name]
	if !ok {
		return nil
	}
	out := *b
	out.SettingsFiles = append([]string(nil), b.SettingsFiles...)
	return &out
}

// List returns all backends sorted by name.
func (r *Registry) List() []*Backend {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*Backend, 0, len(r.backends))
	for _, b := range r.backends {
		out := *b
		out.SettingsFiles = append([]string(nil), b.SettingsFiles...)
		result = append(result, &out)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Resolve picks the backend for a room. Resolution order: the room's
// own setting, then the configured default, then "claude". Unknown
// names get a bare pass-through backend so experimental CLIs still
// launch.
func (r *Registry) Resolve(roomBackend, defaultBackend string) *Backend {
	name := roomBackend
	if name == "" {
		name = defaultBackend
	}
	if name == "" {
		name = "claude"
	}
	if b := r.Get(name); b != nil {
		return b
	}
	return &Backend{Name: name, Command: name}
}

func ensureDefaults(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read backends dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.ToLower(entry.Name())
		if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
			return nil
		}
	}

	files, err := configs.BackendDefaults.ReadDir("backends")
	if err != nil {
		return fmt.Errorf("read embedded backend defaults: %w", err)
	}
	for _, f := range files {
		content, err := configs.BackendDefaults.ReadFile(filepath.Join("backends", f.Name()))
		if err != nil {
			return fmt.Errorf("read embedded default %q: %w", f.Name(), err)
		}
		path := filepath.Join(dir, f.Name())
		if err := os.WriteFile(path, content, 0o644); err != nil {
			return fmt.Errorf("write default %q: %w", path, err)
		}
	}
	return nil
}

func loadDir(dir string) (map[string]*Backend, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read backends dir: %w", err)
	}

	loaded := make(map[string]*Backend)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.ToLower(entry.Name())
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read backend config %q: %w", path, err)
		}
		var b Backend
		if err := yaml.Unmarshal(data, &b); err != nil {
			return nil, fmt.Errorf("parse backend config %q: %w", path, err)
		}
		if err := validate(&b); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if _, exists := loaded[b.Name]; exists {
			return nil, fmt.Errorf("duplicate backend name %q", b.Name)
		}
		loaded[b.Name] = &b
	}
	return loaded, nil
}
