package backend

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kballard/go-shellquote"
)

func TestBuildCommandFlagMode(t *testing.T) {
	b := &Backend{
		Name:       "claude",
		Command:    "claude",
		ModelFlag:  "--model",
		PromptMode: PromptModeFlag,
		PromptFlag: "--append-system-prompt",
	}

	cmd, err := b.BuildCommand(CommandOptions{
		RolePrompt: "You're the orchestrator; don't panic.",
		Model:      "opus",
	})
	if err != nil {
		t.Fatalf("BuildCommand() error = %v", err)
	}
	if !strings.HasPrefix(cmd, "claude --model opus --append-system-prompt ") {
		t.Errorf("command = %q", cmd)
	}

	// The quoting must survive a shell's own word splitting, single
	// quote in the prompt included.
	words, err := shellquote.Split(cmd)
	if err != nil {
		t.Fatalf("Split(%q) error = %v", cmd, err)
	}
	if got := words[len(words)-1]; got != "You're the orchestrator; don't panic." {
		t.Errorf("prompt after round-trip = %q", got)
	}
}

func TestBuildCommandSandboxFlag(t *testing.T) {
	b := &Backend{Name: "claude", Command: "claude", SandboxFlag: "--dangerously-skip-permissions"}

	with, err := b.BuildCommand(CommandOptions{Sandbox: true})
	if err != nil {
		t.Fatal(err)
	}
	if with != "claude --dangerously-skip-permissions" {
		t.Errorf("sandboxed command = %q", with)
	}

	without, err := b.BuildCommand(CommandOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if without != "claude" {
		t.Errorf("plain command = %q", without)
	}
}

func TestBuildCommandAgentsFileMode(t *testing.T) {
	cwd := t.TempDir()
	b := &Backend{Name: "codex", Command: "codex", PromptMode: PromptModeAgentsFile}

	cmd, err := b.BuildCommand(CommandOptions{RolePrompt: "worker instructions", Cwd: cwd})
	if err != nil {
		t.Fatalf("BuildCommand() error = %v", err)
	}
	if cmd != "codex" {
		t.Errorf("command = %q, want bare codex", cmd)
	}
	data, err := os.ReadFile(filepath.Join(cwd, "AGENTS.md"))
	if err != nil {
		t.Fatalf("AGENTS.md not written: %v", err)
	}
	if string(data) != "worker instructions" {
		t.Errorf("AGENTS.md = %q", data)
	}
}

func TestBuildCommandReadFileMode(t *testing.T) {
	cwd := t.TempDir()
	b := &Backend{
		Name:       "aider",
		Command:    "aider",
		PromptMode: PromptModeReadFile,
		PromptFlag: "--read",
		PromptFile: ".orc-system-prompt.md",
	}

	cmd, err := b.BuildCommand(CommandOptions{RolePrompt: "worker instructions", Cwd: cwd})
	if err != nil {
		t.Fatalf("BuildCommand() error = %v", err)
	}
	if cmd != "aider --read .orc-system-prompt.md" {
		t.Errorf("command = %q", cmd)
	}
	if _, err := os.Stat(filepath.Join(cwd, ".orc-system-prompt.md")); err != nil {
		t.Errorf("prompt file not written: %v", err)
	}
}

func TestCopySettings(t *testing.T) {
	b := &Backend{
		Name:          "claude",
		Command:       "claude",
		SettingsFiles: []string{".claude/settings.local.json", ".claude/missing.json"},
	}

	src := t.TempDir()
	dst := t.TempDir()
	if err := os.MkdirAll(filepath.Join(src, ".claude"), 0o755); err != nil {
		t.Fatal(err)
	}
	grants := []byte(`{"permissions":{"allow":["Bash(git:*)"]}}`)
	if err := os.WriteFile(filepath.Join(src, ".claude", "settings.local.json"), grants, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := b.CopySettings(src, dst); err != nil {
		t.Fatalf("CopySettings() error = %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dst, ".claude", "settings.local.json"))
	if err != nil {
		t.Fatalf("settings not copied: %v", err)
	}
	if string(got) != string(grants) {
		t.Errorf("copied settings = %q", got)
	}
	if _, err := os.Stat(filepath.Join(dst, ".claude", "missing.json")); !os.IsNotExist(err) {
		t.Errorf("absent source file was materialised, err = %v", err)
	}

	// Same-directory copies are a no-op, not an overwrite loop.
	if err := b.CopySettings(src, src); err != nil {
		t.Fatalf("CopySettings() same dir error = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		b       Backend
		wantErr bool
	}{
		{"ok", Backend{Name: "x", Command: "x"}, false},
		{"no name", Backend{Command: "x"}, true},
		{"no command", Backend{Name: "x"}, true},
		{"flag mode without flag", Backend{Name: "x", Command: "x", PromptMode: PromptModeFlag}, true},
		{"unknown mode", Backend{Name: "x", Command: "x", PromptMode: "telepathy"}, true},
	}
	for _, tt := range tests {
		if err := validate(&tt.b); (err != nil) != tt.wantErr {
			t.Errorf("%s: validate() error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}
