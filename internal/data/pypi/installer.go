package pypi

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"reexmap/internal/core/errors"
)

// Installer materializes PyPI packages into local source trees through
// the host Python toolchain. Every invocation runs `python -m pip` so
// the interpreter choice controls which environment pip operates on.
type Installer struct {
	python  string
	timeout time.Duration
}

func NewInstaller(python string, timeout time.Duration) *Installer {
	return &Installer{python: python, timeout: timeout}
}

// LatestVersion asks the package index for the newest release of pkg.
func (i *Installer) LatestVersion(ctx context.Context, pkg string) (string, error) {
	out, err := i.runPip(ctx, "index", "versions", pkg)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeAcquireFailed, fmt.Sprintf("version lookup for %s failed", pkg))
	}

	version := parseIndexVersions(pkg, out)
	if version == "" {
		return "", errors.New(errors.CodeAcquireFailed, fmt.Sprintf("no release found for %s", pkg))
	}
	return version, nil
}

// Install places one release of pkg into target without dependencies.
// The target directory ends up holding the import package plus its
// dist-info metadata, which is all the analysis needs.
func (i *Installer) Install(ctx context.Context, pkg, version, target string) error {
	if err := os.MkdirAll(target, 0o755); err != nil {
		return errors.Wrap(err, errors.CodeAcquireFailed, "create install target")
	}

	requirement := pkg
	if version != "" {
		requirement = pkg + "==" + version
	}

	_, err := i.runPip(ctx, "install", "--no-deps", "--quiet", "--target", target, requirement)
	if err != nil {
		wrapped := errors.Wrap(err, errors.CodeAcquireFailed, fmt.Sprintf("pip install %s failed", requirement))
		return errors.AddContext(wrapped, errors.CtxPath, target)
	}
	return nil
}

// InstalledVersion reads the release version out of the dist-info
// METADATA that pip wrote next to the package sources.
func (i *Installer) InstalledVersion(target, pkg string) (string, error) {
	entries, err := os.ReadDir(target)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeSourceUnavailable, "read install target")
	}

	prefix := NormalizeDistName(pkg) + "-"
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasSuffix(entry.Name(), ".dist-info") {
			continue
		}
		if !strings.HasPrefix(NormalizeDistName(entry.Name()), prefix) {
			continue
		}

		if version := metadataVersion(filepath.Join(target, entry.Name(), "METADATA")); version != "" {
			return version, nil
		}
		// Fall back to the version encoded in the directory name.
		name := strings.TrimSuffix(entry.Name(), ".dist-info")
		if idx := strings.LastIndex(name, "-"); idx > 0 {
			return name[idx+1:], nil
		}
	}

	return "", errors.New(errors.CodeSourceUnavailable, fmt.Sprintf("no dist-info for %s under %s", pkg, target))
}

func (i *Installer) runPip(ctx context.Context, args ...string) (string, error) {
	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, i.python, append([]string{"-m", "pip"}, args...)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return "", fmt.Errorf("%s -m pip %s: %s", i.python, strings.Join(args, " "), lastLine(detail))
	}
	return stdout.String(), nil
}

// parseIndexVersions extracts a release from `pip index versions` output.
// The first line carries "name (version)"; newer pips also print an
// explicit "LATEST:" line which wins when present.
func parseIndexVersions(pkg, out string) string {
	normalized := NormalizeDistName(pkg)
	fallback := ""

	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if rest, ok := strings.CutPrefix(line, "LATEST:"); ok {
			if v := strings.TrimSpace(rest); v != "" {
				return v
			}
		}

		open := strings.IndexByte(line, '(')
		closing := strings.IndexByte(line, ')')
		if open <= 0 || closing <= open {
			continue
		}
		name := strings.TrimSpace(line[:open])
		if NormalizeDistName(name) != normalized {
			continue
		}
		if fallback == "" {
			fallback = strings.TrimSpace(line[open+1 : closing])
		}
	}
	return fallback
}

func metadataVersion(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if rest, ok := strings.CutPrefix(line, "Version:"); ok {
			return strings.TrimSpace(rest)
		}
		// Headers end at the first blank line.
		if strings.TrimSpace(line) == "" {
			return ""
		}
	}
	return ""
}

// ImportName maps a distribution name onto the directory pip installs,
// which is how the package is imported ("langchain-core" imports as
// "langchain_core").
func ImportName(pkg string) string {
	return strings.ReplaceAll(pkg, "-", "_")
}

// NormalizeDistName lowercases and folds runs of separator characters so
// distribution names compare the way the index treats them.
func NormalizeDistName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	prevSep := false
	for _, r := range strings.ToLower(name) {
		if r == '-' || r == '_' || r == '.' {
			if !prevSep {
				b.WriteByte('_')
			}
			prevSep = true
			continue
		}
		prevSep = false
		b.WriteRune(r)
	}
	return b.String()
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
