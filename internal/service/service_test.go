package service

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/user/orc/internal/backend"
	"github.com/user/orc/internal/room"
	"github.com/user/orc/internal/tmux"
	"github.com/user/orc/internal/universe"
)

// scriptedTmux emulates just enough of a tmux server for the service
// layer: a session flag, a window set and a pane capture string.
type scriptedTmux struct {
	session bool
	windows map[string]bool
	pane    string
	calls   [][]string
}

func (f *scriptedTmux) run(args ...string) (string, error) {
	f.calls = append(f.calls, args)
	switch args[0] {
	case "has-session":
		if f.session {
			return "", nil
		}
		return "", &tmux.CommandError{Args: args, Stderr: "no server running"}
	case "new-session":
		f.session = true
		return "", nil
	case "list-windows":
		if !f.session {
			return "", &tmux.CommandError{Args: args, Stderr: "no server running"}
		}
		var names []string
		for name := range f.windows {
			names = append(names, name)
		}
		return strings.Join(names, "\n") + "\n", nil
	case "new-window":
		for i, a := range args {
			if a == "-n" {
				f.windows[args[i+1]] = true
			}
		}
		return "", nil
	case "send-keys":
		return "", nil
	case "capture-pane":
		return f.pane, nil
	}
	return "", nil
}

func newTestService(t *testing.T, f *scriptedTmux) (*Service, string) {
	t.Helper()
	repo := t.TempDir()
	if err := os.MkdirAll(filepath.Join(repo, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(repo, ".orc"), 0o755); err != nil {
		t.Fatal(err)
	}

	u := universe.New(filepath.Join(t.TempDir(), "projects"))
	if _, err := u.Add(repo, "demo"); err != nil {
		t.Fatal(err)
	}

	backends, err := backend.NewRegistry(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	svc := &Service{
		Tmux:     tmux.NewSessionWith("orc", f.run),
		Universe: u,
		Backends: backends,
	}
	return svc, repo
}

func TestRoomsSummaries(t *testing.T) {
	f := &scriptedTmux{session: true, windows: map[string]bool{}}
	svc, repo := newTestService(t, f)
	orcDir := filepath.Join(repo, ".orc")

	main := room.New(orcDir, "@main")
	if err := main.Create("orchestrator", room.StatusActive); err != nil {
		t.Fatal(err)
	}
	if err := main.AppendInbox("cli", "hello"); err != nil {
		t.Fatal(err)
	}
	if err := room.New(orcDir, "worker").Create("worker", room.StatusReady); err != nil {
		t.Fatal(err)
	}

	// repo dir name is random; @main's window key uses its base name.
	f.windows[filepath.Base(repo)+"-main"] = true

	infos := svc.Rooms(repo)
	if len(infos) != 2 {
		t.Fatalf("len(Rooms()) = %d, want 2", len(infos))
	}
	byName := map[string]RoomInfo{}
	for _, info := range infos {
		byName[info.Name] = info
	}

	mainInfo := byName["@main"]
	if mainInfo.Role != "orchestrator" || !mainInfo.WindowAlive {
		t.Errorf("@main info = %+v", mainInfo)
	}
	if mainInfo.InboxCount != 1 || mainInfo.UnreadCount != 1 {
		t.Errorf("@main inbox counts = %+v", mainInfo)
	}
	workerInfo := byName["worker"]
	if workerInfo.WindowAlive {
		t.Errorf("worker window alive = true, want false")
	}
	if workerInfo.Status != room.StatusReady {
		t.Errorf("worker status = %q", workerInfo.Status)
	}
}

func TestAttachRoomLaunchesAgent(t *testing.T) {
	f := &scriptedTmux{windows: map[string]bool{}}
	svc, repo := newTestService(t, f)
	orcDir := filepath.Join(repo, ".orc")

	main := room.New(orcDir, "@main")
	if err := main.Create("orchestrator", room.StatusActive); err != nil {
		t.Fatal(err)
	}

	if err := svc.AttachRoom(repo, "@main", AttachOptions{}); err != nil {
		t.Fatalf("AttachRoom() error = %v", err)
	}

	if !f.session {
		t.Error("shared session not created")
	}
	window := filepath.Base(repo) + "-main"
	if !f.windows[window] {
		t.Errorf("window %q not created; calls: %v", window, f.calls)
	}

	var launched string
	for _, call := range f.calls {
		if call[0] == "send-keys" && len(call) > 2 && call[len(call)-2] == "--" {
			launched = call[len(call)-1]
		}
	}
	if !strings.HasPrefix(launched, "claude") {
		t.Errorf("launched command = %q, want claude backend", launched)
	}
	if got := main.ReadStatus(); got != room.StatusWorking {
		t.Errorf("status after attach = %q, want %q", got, room.StatusWorking)
	}
}

func TestAttachRoomCopiesBackendSettingsIntoWorktree(t *testing.T) {
	f := &scriptedTmux{windows: map[string]bool{}}
	svc, repo := newTestService(t, f)
	orcDir := filepath.Join(repo, ".orc")

	// An existing worker room whose worktree is already checked out;
	// attach must not recreate it, only launch the agent there.
	if err := room.New(orcDir, "worker").Create("worker", room.StatusReady); err != nil {
		t.Fatal(err)
	}
	worktree := filepath.Join(orcDir, ".worktrees", "worker")
	if err := os.MkdirAll(worktree, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(repo, ".claude"), 0o755); err != nil {
		t.Fatal(err)
	}
	grants := []byte(`{"permissions":{"allow":["Bash(make:*)"]}}`)
	if err := os.WriteFile(filepath.Join(repo, ".claude", "settings.local.json"), grants, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := svc.AttachRoom(repo, "worker", AttachOptions{}); err != nil {
		t.Fatalf("AttachRoom() error = %v", err)
	}

	got, err := os.ReadFile(filepath.Join(worktree, ".claude", "settings.local.json"))
	if err != nil {
		t.Fatalf("settings not copied into worktree: %v", err)
	}
	if string(got) != string(grants) {
		t.Errorf("copied settings = %q", got)
	}
}

func TestAttachRoomIsIdempotentWhileWindowAlive(t *testing.T) {
	f := &scriptedTmux{session: true, windows: map[string]bool{}}
	svc, repo := newTestService(t, f)

	main := room.New(filepath.Join(repo, ".orc"), "@main")
	if err := main.Create("orchestrator", room.StatusActive); err != nil {
		t.Fatal(err)
	}
	f.windows[filepath.Base(repo)+"-main"] = true

	if err := svc.AttachRoom(repo, "@main", AttachOptions{}); err != nil {
		t.Fatalf("AttachRoom() error = %v", err)
	}
	for _, call := range f.calls {
		if call[0] == "new-window" || call[0] == "send-keys" {
			t.Fatalf("live window was touched: %v", call)
		}
	}
}

func TestCaptureTerminal(t *testing.T) {
	f := &scriptedTmux{session: true, windows: map[string]bool{"demo-main": true}, pane: "$ ls\nREADME.md\n"}
	svc, _ := newTestService(t, f)

	content, alive := svc.CaptureTerminal("demo", "@main")
	if !alive {
		t.Fatal("alive = false, want true")
	}
	if !strings.Contains(content, "README.md") {
		t.Errorf("content = %q", content)
	}

	if _, alive := svc.CaptureTerminal("demo", "ghost"); alive {
		t.Error("missing window reported alive")
	}
}
