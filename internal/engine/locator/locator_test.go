package locator

import (
	"os"
	"path/filepath"
	"testing"

	"reexmap/internal/core/errors"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestDiscover(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"langchain/__init__.py":              "",
		"langchain/agents/__init__.py":       "",
		"langchain/agents/loading.py":        "",
		"langchain/chains/llm/__init__.py":   "",
		"langchain/utils.py":                 "",
		"langchain-0.1.0.dist-info/METADATA": "Version: 0.1.0",
	})

	l, err := New(tmpDir, "langchain", nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	entries, err := l.Discover()
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}

	want := []string{"langchain", "langchain.agents", "langchain.chains.llm"}
	if len(entries) != len(want) {
		t.Fatalf("Expected %d entry points, got %d: %+v", len(want), len(entries), entries)
	}
	for i, modulePath := range want {
		if entries[i].ModulePath != modulePath {
			t.Errorf("Expected entry %d to be %s, got %s", i, modulePath, entries[i].ModulePath)
		}
	}
}

func TestDiscoverSkipsPrivateSubpackages(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"pkg/__init__.py":                  "",
		"pkg/_internal/__init__.py":        "",
		"pkg/_internal/nested/__init__.py": "",
		"pkg/public/__init__.py":           "",
		"pkg/public/_private/__init__.py":  "",
	})

	l, err := New(tmpDir, "pkg", nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	entries, err := l.Discover()
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}

	want := []string{"pkg", "pkg.public"}
	if len(entries) != len(want) {
		t.Fatalf("Expected %v, got %+v", want, entries)
	}
	for i, modulePath := range want {
		if entries[i].ModulePath != modulePath {
			t.Errorf("Expected entry %d to be %s, got %s", i, modulePath, entries[i].ModulePath)
		}
	}
}

func TestDiscoverExcludeGlobs(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"pkg/__init__.py":             "",
		"pkg/tests/__init__.py":       "",
		"pkg/integration/__init__.py": "",
	})

	l, err := New(tmpDir, "pkg", []string{"tests"}, nil)
	if err != nil {
		t.Fatal(err)
	}

	entries, err := l.Discover()
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}

	for _, e := range entries {
		if e.ModulePath == "pkg.tests" {
			t.Error("Expected pkg.tests to be excluded")
		}
	}
	if len(entries) != 2 {
		t.Errorf("Expected 2 entry points, got %+v", entries)
	}
}

func TestDiscoverDirectPackageLayout(t *testing.T) {
	tmpDir := t.TempDir()
	pkgDir := filepath.Join(tmpDir, "mypkg")
	writeTree(t, tmpDir, map[string]string{
		"mypkg/__init__.py":      "",
		"mypkg/core/__init__.py": "",
	})

	// Tree root pointing at the package directory itself.
	l, err := New(pkgDir, "mypkg", nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	entries, err := l.Discover()
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if len(entries) != 2 || entries[0].ModulePath != "mypkg" || entries[1].ModulePath != "mypkg.core" {
		t.Errorf("Unexpected entries: %+v", entries)
	}
}

func TestDiscoverMissingPackage(t *testing.T) {
	l, err := New(t.TempDir(), "ghost", nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	_, err = l.Discover()
	if err == nil {
		t.Fatal("Expected error for missing package")
	}
	if !errors.IsCode(err, errors.CodeSourceUnavailable) {
		t.Errorf("Expected SOURCE_UNAVAILABLE, got %v", err)
	}
}

func TestNewRejectsBadGlob(t *testing.T) {
	_, err := New(t.TempDir(), "pkg", []string{"["}, nil)
	if err == nil {
		t.Fatal("Expected error for invalid glob pattern")
	}
	if !errors.IsCode(err, errors.CodeConfigError) {
		t.Errorf("Expected CONFIG_ERROR, got %v", err)
	}
}
