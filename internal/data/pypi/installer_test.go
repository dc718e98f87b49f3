package pypi

import (
	"os"
	"path/filepath"
	"testing"

	"reexmap/internal/core/errors"
)

func TestParseIndexVersions(t *testing.T) {
	out := `langchain (0.3.27)
Available versions: 0.3.27, 0.3.26, 0.3.25
`
	if v := parseIndexVersions("langchain", out); v != "0.3.27" {
		t.Errorf("Expected 0.3.27, got %q", v)
	}
}

func TestParseIndexVersionsPrefersLatestLine(t *testing.T) {
	out := `langchain-core (0.3.29)
Available versions: 0.3.29, 0.3.28
  INSTALLED: 0.3.28
  LATEST:    0.3.29
`
	if v := parseIndexVersions("langchain_core", out); v != "0.3.29" {
		t.Errorf("Expected 0.3.29, got %q", v)
	}
}

func TestParseIndexVersionsNoMatch(t *testing.T) {
	out := "WARNING: pip index is currently an experimental command.\n"
	if v := parseIndexVersions("langchain", out); v != "" {
		t.Errorf("Expected empty version, got %q", v)
	}
}

func TestInstalledVersion(t *testing.T) {
	target := t.TempDir()
	distInfo := filepath.Join(target, "langchain_core-0.3.29.dist-info")
	if err := os.MkdirAll(distInfo, 0o755); err != nil {
		t.Fatal(err)
	}
	metadata := "Metadata-Version: 2.1\nName: langchain-core\nVersion: 0.3.29\n\nSome description.\n"
	if err := os.WriteFile(filepath.Join(distInfo, "METADATA"), []byte(metadata), 0o644); err != nil {
		t.Fatal(err)
	}

	i := NewInstaller("python3", 0)
	v, err := i.InstalledVersion(target, "langchain-core")
	if err != nil {
		t.Fatalf("InstalledVersion failed: %v", err)
	}
	if v != "0.3.29" {
		t.Errorf("Expected 0.3.29, got %q", v)
	}
}

func TestInstalledVersionFallsBackToDirName(t *testing.T) {
	target := t.TempDir()
	// dist-info without a METADATA file.
	if err := os.MkdirAll(filepath.Join(target, "mypkg-1.2.3.dist-info"), 0o755); err != nil {
		t.Fatal(err)
	}

	i := NewInstaller("python3", 0)
	v, err := i.InstalledVersion(target, "mypkg")
	if err != nil {
		t.Fatalf("InstalledVersion failed: %v", err)
	}
	if v != "1.2.3" {
		t.Errorf("Expected 1.2.3, got %q", v)
	}
}

func TestInstalledVersionMissing(t *testing.T) {
	i := NewInstaller("python3", 0)
	_, err := i.InstalledVersion(t.TempDir(), "ghost")
	if err == nil {
		t.Fatal("Expected error for missing dist-info")
	}
	if !errors.IsCode(err, errors.CodeSourceUnavailable) {
		t.Errorf("Expected SOURCE_UNAVAILABLE, got %v", err)
	}
}

func TestImportName(t *testing.T) {
	if got := ImportName("langchain-core"); got != "langchain_core" {
		t.Errorf("Expected langchain_core, got %s", got)
	}
	if got := ImportName("requests"); got != "requests" {
		t.Errorf("Expected requests, got %s", got)
	}
}

func TestNormalizeDistName(t *testing.T) {
	cases := map[string]string{
		"Langchain-Core": "langchain_core",
		"zope.interface": "zope_interface",
		"my__weird--pkg": "my_weird_pkg",
		"plain":          "plain",
	}
	for in, want := range cases {
		if got := NormalizeDistName(in); got != want {
			t.Errorf("NormalizeDistName(%q) = %q, want %q", in, got, want)
		}
	}
}
