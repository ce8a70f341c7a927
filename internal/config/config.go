// Package config loads orc's settings from a plain key=value file
// merged with command-line flags.
package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type Config struct {
	Port           int
	TmuxSession    string
	ProjectsDir    string
	BackendsDir    string
	DBPath         string
	DefaultBackend string
	Sandbox        bool
	ConfigPath     string
}

// Default returns the built-in configuration rooted under the user's
// home directory.
func Default() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	dataDir := filepath.Join(homeDir, ".orc")
	return &Config{
		Port:           7777,
		TmuxSession:    "orc",
		ProjectsDir:    filepath.Join(dataDir, "projects"),
		BackendsDir:    filepath.Join(dataDir, "backends"),
		DBPath:         filepath.Join(dataDir, "orc.db"),
		DefaultBackend: "claude",
		ConfigPath:     filepath.Join(homeDir, ".config", "orc", "config"),
	}, nil
}

// Load builds the configuration for the daemon: defaults, then the
// config file, then command-line flags.
func Load() (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}
	if err := cfg.LoadFile(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	flag.IntVar(&cfg.Port, "port", cfg.Port, "server port (1-65535)")
	flag.StringVar(&cfg.TmuxSession, "session", cfg.TmuxSession, "shared tmux session name")
	flag.StringVar(&cfg.ProjectsDir, "projects-dir", cfg.ProjectsDir, "project registry directory")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "activity database path")
	flag.StringVar(&cfg.DefaultBackend, "backend", cfg.DefaultBackend, "default agent backend")
	flag.BoolVar(&cfg.Sandbox, "sandbox", cfg.Sandbox, "pass sandbox flags to agent backends")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be between 1 and 65535", c.Port)
	}
	if strings.TrimSpace(c.TmuxSession) == "" {
		return fmt.Errorf("tmux session name must not be empty")
	}
	return nil
}

// LoadFile reads the key=value config file at ConfigPath. Unknown keys
// are ignored so older binaries tolerate newer files.
func (c *Config) LoadFile() error {
	data, err := os.ReadFile(c.ConfigPath)
	if err != nil {
		return err
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		switch key {
		case "Port":
			var port int
			if _, err := fmt.Sscanf(value, "%d", &port); err != nil {
				return fmt.Errorf("invalid Port value %q: %w", value, err)
			}
			c.Port = port
		case "TmuxSession":
			c.TmuxSession = value
		case "ProjectsDir":
			c.ProjectsDir = value
		case "BackendsDir":
			c.BackendsDir = value
		case "DBPath":
			c.DBPath = value
		case "DefaultBackend":
			c.DefaultBackend = value
		case "Sandbox":
			c.Sandbox = value == "true" || value == "1"
		}
	}
	return nil
}
