package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestNewWatcher_RejectsNilCallback(t *testing.T) {
	w, err := NewWatcher(100*time.Millisecond, nil, nil, nil)
	if err == nil {
		t.Fatal("expected error for nil callback")
	}
	if !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("expected os.ErrInvalid, got %v", err)
	}
	if w != nil {
		t.Fatal("expected nil watcher when callback is invalid")
	}
}

func TestWatcher(t *testing.T) {
	tmpDir, _ := os.MkdirTemp("", "watchertest")
	defer os.RemoveAll(tmpDir)

	changedFiles := make(chan []string, 4)
	w, err := NewWatcher(100*time.Millisecond, []string{".git"}, []string{"*.bak"}, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch(tmpDir); err != nil {
		t.Fatal(err)
	}

	// An entry point write must reach the callback.
	entryPoint := filepath.Join(tmpDir, "__init__.py")
	os.WriteFile(entryPoint, []byte("__all__ = []\n"), 0644)

	select {
	case paths := <-changedFiles:
		found := false
		for _, p := range paths {
			if p == entryPoint {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected to find %s in changed files %v", entryPoint, paths)
		}
	case <-time.After(2 * time.Second):
		t.Error("Timed out waiting for entry point change event")
	}

	// Helper modules never alter the report and must stay silent.
	helperFile := filepath.Join(tmpDir, "helpers.py")
	os.WriteFile(helperFile, []byte("x = 1\n"), 0644)

	select {
	case paths := <-changedFiles:
		t.Errorf("helper module triggered event: %v", paths)
	case <-time.After(500 * time.Millisecond):
		// Expected
	}

	// A new subpackage should be recursively watched after create.
	subdir := filepath.Join(tmpDir, "sub")
	if err := os.MkdirAll(subdir, 0755); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(subdir, "__init__.py")
	if err := os.WriteFile(nested, []byte("__all__ = []\n"), 0644); err != nil {
		t.Fatal(err)
	}

	foundNested := false
	timeout := time.After(2 * time.Second)
	for !foundNested {
		select {
		case paths := <-changedFiles:
			for _, p := range paths {
				if p == nested {
					foundNested = true
					break
				}
			}
		case <-timeout:
			t.Fatal("timed out waiting for nested entry point in newly created subpackage")
		}
	}
}

func TestWatcher_UnderscoreDirStaysSilent(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "watcher-underscore")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	changedFiles := make(chan []string, 4)
	w, err := NewWatcher(50*time.Millisecond, nil, nil, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch(tmpDir); err != nil {
		t.Fatal(err)
	}

	private := filepath.Join(tmpDir, "_private")
	if err := os.MkdirAll(private, 0755); err != nil {
		t.Fatal(err)
	}
	// Give the create event time to land before writing inside.
	time.Sleep(200 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(private, "__init__.py"), []byte("__all__ = []\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case paths := <-changedFiles:
		t.Fatalf("private subpackage triggered event: %v", paths)
	case <-time.After(500 * time.Millisecond):
		// Expected
	}
}

func TestWatcher_RemovedSubpackageTriggersChange(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "watcher-remove")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	subdir := filepath.Join(tmpDir, "sub")
	if err := os.MkdirAll(subdir, 0755); err != nil {
		t.Fatal(err)
	}

	changedFiles := make(chan []string, 8)
	w, err := NewWatcher(100*time.Millisecond, nil, nil, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch(tmpDir); err != nil {
		t.Fatal(err)
	}

	if err := os.Remove(subdir); err != nil {
		t.Fatal(err)
	}

	timeout := time.After(2 * time.Second)
	for {
		select {
		case paths := <-changedFiles:
			for _, p := range paths {
				if p == subdir {
					return
				}
			}
		case <-timeout:
			t.Fatalf("timed out waiting for subpackage removal event for %s", subdir)
		}
	}
}

func TestWatcher_RenameTriggersChange(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "watcher-rename")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	changedFiles := make(chan []string, 8)
	w, err := NewWatcher(100*time.Millisecond, nil, nil, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	oldPath := filepath.Join(tmpDir, "__init__.py")
	if err := os.WriteFile(oldPath, []byte("__all__ = []\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := w.Watch(tmpDir); err != nil {
		t.Fatal(err)
	}

	newPath := filepath.Join(tmpDir, "init_disabled.py")
	if err := os.Rename(oldPath, newPath); err != nil {
		t.Fatal(err)
	}

	timeout := time.After(2 * time.Second)
	for {
		select {
		case paths := <-changedFiles:
			for _, p := range paths {
				if p == oldPath {
					return
				}
			}
		case <-timeout:
			t.Fatalf("timed out waiting for rename event for %s", oldPath)
		}
	}
}

func TestWatcher_Relevance(t *testing.T) {
	w, err := NewWatcher(10*time.Millisecond, nil, []string{"*.bak"}, func([]string) {})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	cases := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"entry point write", fsnotify.Event{Name: "pkg/__init__.py", Op: fsnotify.Write}, true},
		{"helper module write", fsnotify.Event{Name: "pkg/helpers.py", Op: fsnotify.Write}, false},
		{"backup file write", fsnotify.Event{Name: "pkg/__init__.py.bak", Op: fsnotify.Write}, false},
		{"directory removal", fsnotify.Event{Name: "pkg/sub", Op: fsnotify.Remove}, true},
		{"private directory removal", fsnotify.Event{Name: "pkg/_private", Op: fsnotify.Remove}, false},
		{"helper module removal", fsnotify.Event{Name: "pkg/helpers.py", Op: fsnotify.Remove}, false},
		{"extensionless write", fsnotify.Event{Name: "pkg/README", Op: fsnotify.Write}, false},
	}

	for _, tc := range cases {
		if got := w.isRelevant(tc.event); got != tc.want {
			t.Errorf("%s: isRelevant(%v) = %v, want %v", tc.name, tc.event, got, tc.want)
		}
	}
}
