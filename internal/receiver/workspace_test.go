package receiver

import (
	"errors"
	"os"
	"testing"
	"time"
)

func TestWorkspaceCreateSuffixesCollisions(t *testing.T) {
	ws, err := NewWorkspace(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ws.now = func() time.Time { return time.UnixMilli(42) }

	want := []string{"task-a-b-42", "task-a-b-42-2", "task-a-b-42-3"}
	for _, w := range want {
		got, err := ws.Create("task-a/b")
		if err != nil {
			t.Fatal(err)
		}
		if got != w {
			t.Errorf("Create = %q, want %q", got, w)
		}
		if _, err := os.Stat(ws.dir(got)); err != nil {
			t.Errorf("run dir %q: %v", got, err)
		}
	}
}

func TestWorkspaceRemove(t *testing.T) {
	ws, err := NewWorkspace(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runID, err := ws.Create("task-1")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(ws.dir(runID)+"/README.md", []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ws.Remove(runID); err != nil {
		t.Fatal(err)
	}
	if _, err := ws.DeployURL(runID); !errors.Is(err, ErrUnknownRun) {
		t.Errorf("DeployURL after Remove: %v", err)
	}
	if err := ws.Remove("../escape"); !errors.Is(err, ErrUnknownRun) {
		t.Errorf("Remove traversal: %v", err)
	}
}
