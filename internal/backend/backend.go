// Package backend describes the agent CLIs orc can launch inside a
// room (claude, codex, aider, or user-defined ones) and assembles
// their launch command lines.
package backend

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kballard/go-shellquote"
)

// Prompt injection strategies. CLIs differ in how a role prompt reaches
// the agent: some take a flag, some read a well-known file from the
// working directory.
const (
	PromptModeFlag       = "flag"
	PromptModeAgentsFile = "agents-file"
	PromptModeReadFile   = "read-file"
)

// Backend is one agent CLI definition, loadable from YAML.
type Backend struct {
	Name          string   `yaml:"name"`
	Command       string   `yaml:"command"`
	ModelFlag     string   `yaml:"model_flag,omitempty"`
	PromptMode    string   `yaml:"prompt_mode,omitempty"`
	PromptFlag    string   `yaml:"prompt_flag,omitempty"`
	PromptFile    string   `yaml:"prompt_file,omitempty"`
	SandboxFlag   string   `yaml:"sandbox_flag,omitempty"`
	SettingsFiles []string `yaml:"settings_files,omitempty"`
}

// CommandOptions carries the per-launch inputs to BuildCommand.
type CommandOptions struct {
	RolePrompt string
	Model      string
	Cwd        string
	Sandbox    bool
}

// BuildCommand assembles the shell command line that starts this
// backend in a room. Every argument is shell-quoted, since the line is
// typed into the room's window and executed by its shell. Prompt-file
// modes write the role prompt into the room's working directory as a
// side effect.
func (b *Backend) BuildCommand(opts CommandOptions) (string, error) {
	args := []string{b.Command}

	if opts.Model != "" && b.ModelFlag != "" {
		args = append(args, b.ModelFlag, opts.Model)
	}
	if opts.Sandbox && b.SandboxFlag != "" {
		args = append(args, b.SandboxFlag)
	}

	if opts.RolePrompt != "" {
		switch b.PromptMode {
		case PromptModeFlag:
			args = append(args, b.PromptFlag, opts.RolePrompt)
		case PromptModeAgentsFile:
			file := b.PromptFile
			if file == "" {
				file = "AGENTS.md"
			}
			if err := writePromptFile(opts.Cwd, file, opts.RolePrompt); err != nil {
				return "", err
			}
		case PromptModeReadFile:
			file := b.PromptFile
			if file == "" {
				file = ".orc-system-prompt.md"
			}
			if err := writePromptFile(opts.Cwd, file, opts.RolePrompt); err != nil {
				return "", err
			}
			args = append(args, b.PromptFlag, file)
		}
	}

	return shellquote.Join(args...), nil
}

// CopySettings mirrors this backend's settings files (relative paths
// like ".claude/settings.local.json") from the project root into a
// room's worktree, so agents start with the same local grants. Files
// absent at the source are skipped.
func (b *Backend) CopySettings(srcRoot, dstDir string) error {
	if srcRoot == "" || dstDir == "" || srcRoot == dstDir {
		return nil
	}
	for _, rel := range b.SettingsFiles {
		data, err := os.ReadFile(filepath.Join(srcRoot, rel))
		if err != nil {
			continue
		}
		dst := filepath.Join(dstDir, rel)
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return fmt.Errorf("copy settings file %q: %w", rel, err)
		}
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return fmt.Errorf("copy settings file %q: %w", rel, err)
		}
	}
	return nil
}

func writePromptFile(cwd, name, prompt string) error {
	if cwd == "" {
		return nil
	}
	path := filepath.Join(cwd, name)
	if err := os.WriteFile(path, []byte(prompt), 0o644); err != nil {
		return fmt.Errorf("write prompt file %q: %w", path, err)
	}
	return nil
}

func validate(b *Backend) error {
	if strings.TrimSpace(b.Name) == "" {
		return fmt.Errorf("backend name is required")
	}
	if strings.TrimSpace(b.Command) == "" {
		return fmt.Errorf("backend %q: command is required", b.Name)
	}
	switch b.PromptMode {
	case "", PromptModeAgentsFile:
	case PromptModeFlag, PromptModeReadFile:
		if strings.TrimSpace(b.PromptFlag) == "" {
			return fmt.Errorf("backend %q: prompt_mode %q needs prompt_flag", b.Name, b.PromptMode)
		}
	default:
		return fmt.Errorf("backend %q: unknown prompt_mode %q", b.Name, b.PromptMode)
	}
	return nil
}
