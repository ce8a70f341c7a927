package project

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func gitInit(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skipf("git not available: %v", err)
	}
	root := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = root
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=orc", "GIT_AUTHOR_EMAIL=orc@test",
			"GIT_COMMITTER_NAME=orc", "GIT_COMMITTER_EMAIL=orc@test",
		)
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}
	run("init")
	if err := os.WriteFile(filepath.Join(root, "README.md"), []byte("test\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	run("add", ".")
	run("commit", "-m", "initial")
	return root
}

func TestFindRoot(t *testing.T) {
	root := gitInit(t)
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	if got := FindRoot(nested); got != root {
		t.Fatalf("FindRoot(%q) = %q, want %q", nested, got, root)
	}
	if got := FindRoot(t.TempDir()); got != "" {
		t.Fatalf("FindRoot outside a repo = %q, want empty", got)
	}
}

func TestInitCreatesStateTree(t *testing.T) {
	root := gitInit(t)
	p := New(root)

	if err := p.Init(false); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if !p.Initialized() {
		t.Fatal("Initialized() = false after Init")
	}
	if !p.Room(MainRoom).Exists() {
		t.Error("@main room missing after Init")
	}
	for _, role := range []string{"orchestrator", "worker"} {
		if p.RolePrompt(role) == "" {
			t.Errorf("role prompt for %s missing", role)
		}
	}

	gi, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		t.Fatalf("read .gitignore: %v", err)
	}
	if !strings.Contains(string(gi), ".orc/.worktrees/") {
		t.Errorf(".gitignore = %q, want worktrees entry", gi)
	}

	if err := p.Init(false); err == nil {
		t.Error("second Init() without force succeeded")
	}
}

func TestValidateRoomName(t *testing.T) {
	if err := ValidateRoomName("feature-x"); err != nil {
		t.Errorf("ValidateRoomName(feature-x) = %v", err)
	}
	for _, bad := range []string{"@other", "", "has space"} {
		if err := ValidateRoomName(bad); err == nil {
			t.Errorf("ValidateRoomName(%q) = nil, want error", bad)
		}
	}
}

func TestAddRoomCreatesWorktree(t *testing.T) {
	root := gitInit(t)
	p := New(root)
	if err := p.Init(false); err != nil {
		t.Fatal(err)
	}

	if err := p.AddRoom("feature-x", "worker"); err != nil {
		t.Fatalf("AddRoom() error = %v", err)
	}
	if !p.Room("feature-x").Exists() {
		t.Error("room files missing")
	}
	worktree := filepath.Join(p.OrcDir(), WorktreesDir, "feature-x")
	if _, err := os.Stat(worktree); err != nil {
		t.Errorf("worktree missing: %v", err)
	}
	if got := p.RoomCwd("feature-x"); got != worktree {
		t.Errorf("RoomCwd() = %q, want %q", got, worktree)
	}
	if got := p.RoomCwd(MainRoom); got != root {
		t.Errorf("RoomCwd(@main) = %q, want project root", got)
	}

	if err := p.AddRoom("feature-x", "worker"); err == nil {
		t.Error("duplicate AddRoom() succeeded")
	}
}

func TestAddRoomRollsBackOnWorktreeFailure(t *testing.T) {
	// A directory that is not a git repository: worktree creation fails
	// and the room files must not survive.
	root := t.TempDir()
	p := New(root)
	if err := os.MkdirAll(p.OrcDir(), 0o755); err != nil {
		t.Fatal(err)
	}
	if _, err := exec.LookPath("git"); err != nil {
		t.Skipf("git not available: %v", err)
	}

	if err := p.AddRoom("doomed", "worker"); err == nil {
		t.Fatal("AddRoom() in a non-repo succeeded")
	}
	if p.Room("doomed").Exists() {
		t.Fatal("room files left behind after worktree failure")
	}
}
