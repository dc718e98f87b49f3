package locator

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"reexmap/internal/core/errors"
)

const entryPointName = "__init__.py"

// EntryPoint identifies one public package initializer inside a source tree.
type EntryPoint struct {
	FilePath   string // absolute path to the __init__.py file
	ModulePath string // dotted module path including the package root
}

// Locator discovers public entry-point modules beneath a package root.
//
// A module is public when no directory segment strictly between the
// package root and the file starts with an underscore. The package root
// itself is exempt from that rule.
type Locator struct {
	treeRoot  string
	pkg       string
	dirGlobs  []glob.Glob
	fileGlobs []glob.Glob
}

func New(treeRoot, pkg string, excludeDirs, excludeFiles []string) (*Locator, error) {
	dirGlobs := make([]glob.Glob, 0, len(excludeDirs))
	for _, p := range excludeDirs {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeConfigError, fmt.Sprintf("invalid exclude dir pattern %q", p))
		}
		dirGlobs = append(dirGlobs, g)
	}

	fileGlobs := make([]glob.Glob, 0, len(excludeFiles))
	for _, p := range excludeFiles {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeConfigError, fmt.Sprintf("invalid exclude file pattern %q", p))
		}
		fileGlobs = append(fileGlobs, g)
	}

	return &Locator{
		treeRoot:  treeRoot,
		pkg:       pkg,
		dirGlobs:  dirGlobs,
		fileGlobs: fileGlobs,
	}, nil
}

// PackageRoot resolves the directory holding the package's own modules.
// Both layouts are accepted: a tree containing <pkg>/ (pip --target
// installs) and a tree that is the package directory itself.
func (l *Locator) PackageRoot() (string, error) {
	nested := filepath.Join(l.treeRoot, l.pkg)
	if isPackageDir(nested) {
		return nested, nil
	}
	if filepath.Base(filepath.Clean(l.treeRoot)) == l.pkg && isPackageDir(l.treeRoot) {
		return filepath.Clean(l.treeRoot), nil
	}

	err := errors.New(errors.CodeSourceUnavailable, fmt.Sprintf("package %q not found under %s", l.pkg, l.treeRoot))
	return "", errors.AddContext(err, errors.CtxPath, l.treeRoot)
}

// Discover walks the package tree and returns every public entry-point
// module, sorted by dotted module path.
func (l *Locator) Discover() ([]EntryPoint, error) {
	pkgRoot, err := l.PackageRoot()
	if err != nil {
		return nil, err
	}

	var entries []EntryPoint
	walkErr := filepath.WalkDir(pkgRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Warn("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		base := filepath.Base(path)
		if d.IsDir() {
			if path == pkgRoot {
				return nil
			}
			if strings.HasPrefix(base, "_") {
				return filepath.SkipDir
			}
			for _, g := range l.dirGlobs {
				if g.Match(base) {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if base != entryPointName {
			return nil
		}
		for _, g := range l.fileGlobs {
			if g.Match(base) {
				return nil
			}
		}

		modulePath, err := l.modulePath(pkgRoot, path)
		if err != nil {
			return err
		}
		entries = append(entries, EntryPoint{FilePath: path, ModulePath: modulePath})
		return nil
	})
	if walkErr != nil {
		return nil, errors.Wrap(walkErr, errors.CodeSourceUnavailable, "package tree walk failed")
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].ModulePath < entries[j].ModulePath })
	return entries, nil
}

// modulePath converts an entry-point file path into its dotted module
// path, rooted at the package name (e.g. "langchain.agents").
func (l *Locator) modulePath(pkgRoot, filePath string) (string, error) {
	rel, err := filepath.Rel(pkgRoot, filePath)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "entry point outside package root")
	}

	parts := strings.Split(rel, string(os.PathSeparator))
	// Drop the __init__.py segment; the directory is the module.
	parts = parts[:len(parts)-1]
	parts = append([]string{l.pkg}, parts...)
	return strings.Join(parts, "."), nil
}

func isPackageDir(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, entryPointName))
	return err == nil && !info.IsDir()
}
