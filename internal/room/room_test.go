package room

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestCreateAndExists(t *testing.T) {
	orcDir := t.TempDir()
	r := New(orcDir, "@main")

	if r.Exists() {
		t.Fatal("Exists() before Create = true")
	}
	if err := r.Create("orchestrator", StatusActive); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !r.Exists() {
		t.Fatal("Exists() after Create = false")
	}

	agent := r.ReadAgent()
	if agent.Role != "orchestrator" {
		t.Errorf("Role = %q, want orchestrator", agent.Role)
	}
	if r.ReadStatus() != StatusActive {
		t.Errorf("ReadStatus() = %q, want %q", r.ReadStatus(), StatusActive)
	}
}

func TestDirectoryWithoutAgentFileIsNotARoom(t *testing.T) {
	orcDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(orcDir, "stray"), 0o755); err != nil {
		t.Fatal(err)
	}
	if New(orcDir, "stray").Exists() {
		t.Fatal("bare directory counted as a room")
	}
}

func TestInboxAppendAndRead(t *testing.T) {
	orcDir := t.TempDir()
	r := New(orcDir, "worker")
	if err := r.Create("worker", StatusReady); err != nil {
		t.Fatal(err)
	}

	if err := r.AppendInbox("@main", "start on the parser"); err != nil {
		t.Fatalf("AppendInbox() error = %v", err)
	}
	if err := r.AppendInbox("@main", "second task"); err != nil {
		t.Fatalf("AppendInbox() error = %v", err)
	}

	msgs := r.ReadInbox()
	if len(msgs) != 2 {
		t.Fatalf("len(inbox) = %d, want 2", len(msgs))
	}
	if msgs[0].From != "@main" || msgs[0].Message != "start on the parser" {
		t.Errorf("first message = %+v", msgs[0])
	}
	if msgs[0].Read {
		t.Error("new message marked read")
	}
	if msgs[0].Ts == "" {
		t.Error("message has no timestamp")
	}
}

func TestAppendInboxMissingRoom(t *testing.T) {
	r := New(t.TempDir(), "ghost")
	if err := r.AppendInbox("cli", "hello"); err == nil {
		t.Fatal("AppendInbox() on missing room succeeded")
	}
}

func TestCleanRemovesReadMessagesAndDoneMolecules(t *testing.T) {
	orcDir := t.TempDir()
	r := New(orcDir, "worker")
	if err := r.Create("worker", StatusReady); err != nil {
		t.Fatal(err)
	}

	msgs := []Message{
		{From: "@main", Message: "old", Read: true, Ts: "2026-01-01T00:00:00Z"},
		{From: "@main", Message: "new", Read: false, Ts: "2026-01-02T00:00:00Z"},
	}
	if err := r.writeJSON("inbox.json", msgs); err != nil {
		t.Fatal(err)
	}

	writeMolecule := func(name string, m Molecule) {
		data, _ := json.Marshal(m)
		path := filepath.Join(r.Path(), "molecules", name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	writeMolecule("done.json", Molecule{Atoms: []Atom{{ID: "a", Status: "done"}}})
	writeMolecule("open.json", Molecule{Atoms: []Atom{{ID: "b", Status: "todo"}}})

	removedMsgs, removedMols, err := r.Clean()
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if removedMsgs != 1 || removedMols != 1 {
		t.Fatalf("Clean() = (%d, %d), want (1, 1)", removedMsgs, removedMols)
	}

	if got := r.ReadInbox(); len(got) != 1 || got[0].Message != "new" {
		t.Errorf("inbox after clean = %+v", got)
	}
	if r.MoleculeCount() != 1 {
		t.Errorf("MoleculeCount() = %d, want 1", r.MoleculeCount())
	}
}

func TestListSkipsDotDirectories(t *testing.T) {
	orcDir := t.TempDir()
	for _, name := range []string{"@main", "worker"} {
		if err := New(orcDir, name).Create("worker", StatusReady); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.MkdirAll(filepath.Join(orcDir, ".worktrees"), 0o755); err != nil {
		t.Fatal(err)
	}

	got := List(orcDir)
	if len(got) != 2 || got[0] != "@main" || got[1] != "worker" {
		t.Fatalf("List() = %v, want [@main worker]", got)
	}
}
