package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"reexmap/internal/core/errors"
	"reexmap/internal/data/pypi"
	"reexmap/internal/shared/observability"
)

// Sources holds the resolved inputs of an analysis run: where the
// downstream tree lives and which versions the report is about.
type Sources struct {
	DownstreamRoot    string
	DownstreamVersion string
	UpstreamVersion   string
	Warnings          []string
}

// EnsureSources resolves roots and versions once per process. Watch-mode
// rescans reuse the cached result; pip never runs twice for one session.
func (a *App) EnsureSources(ctx context.Context) (Sources, error) {
	a.sourcesMu.Lock()
	defer a.sourcesMu.Unlock()
	if a.sources != nil {
		return *a.sources, nil
	}

	var s Sources
	if err := a.prepareDownstream(ctx, &s); err != nil {
		return Sources{}, err
	}
	a.prepareUpstream(ctx, &s)

	a.sources = &s
	return s, nil
}

// prepareDownstream locates or installs the downstream tree. Failure
// here is fatal: without the tree there is nothing to analyze.
func (a *App) prepareDownstream(ctx context.Context, s *Sources) error {
	pkgs := a.Config.Packages

	if root := strings.TrimSpace(pkgs.DownstreamRoot); root != "" {
		s.DownstreamRoot = root
		s.DownstreamVersion = pkgs.DownstreamVersion
		if s.DownstreamVersion == "" {
			if v, err := a.Acquirer.InstalledVersion(root, pkgs.Downstream); err == nil {
				s.DownstreamVersion = v
			} else {
				s.DownstreamVersion = versionUnknown
				s.Warnings = append(s.Warnings, fmt.Sprintf("downstream version unknown: no metadata under %s", root))
			}
		}
		return nil
	}

	if !a.Config.Acquire.IsEnabled() {
		return errors.New(errors.CodeConfigError, "acquisition disabled and no downstream root configured")
	}

	root, version, err := a.materialize(ctx, pkgs.Downstream, pkgs.DownstreamVersion)
	if err != nil {
		return errors.AddContext(err, errors.CtxPackage, pkgs.Downstream)
	}
	s.DownstreamRoot = root
	s.DownstreamVersion = version
	return nil
}

// prepareUpstream resolves the upstream version. The analysis only
// needs the upstream identifier, so every failure here degrades to
// version "unknown" instead of aborting the run.
func (a *App) prepareUpstream(ctx context.Context, s *Sources) {
	pkgs := a.Config.Packages

	if pkgs.UpstreamVersion != "" {
		s.UpstreamVersion = pkgs.UpstreamVersion
		return
	}

	if root := strings.TrimSpace(pkgs.UpstreamRoot); root != "" {
		if v, err := a.Acquirer.InstalledVersion(root, pkgs.Upstream); err == nil {
			s.UpstreamVersion = v
			return
		}
		s.UpstreamVersion = versionUnknown
		s.Warnings = append(s.Warnings, fmt.Sprintf("upstream version unknown: no metadata under %s", root))
		slog.Warn("upstream version not detectable from root", "package", pkgs.Upstream, "root", root)
		return
	}

	if !a.Config.Acquire.IsEnabled() {
		s.UpstreamVersion = versionUnknown
		return
	}

	_, version, err := a.materialize(ctx, pkgs.Upstream, "")
	if err != nil {
		s.UpstreamVersion = versionUnknown
		s.Warnings = append(s.Warnings, fmt.Sprintf("upstream package unavailable: %v", err))
		slog.Warn("upstream acquisition failed, recording version as unknown", "package", pkgs.Upstream, "error", err)
		return
	}
	s.UpstreamVersion = version
}

// materialize ensures workdir/<pkg>/<version> holds an installed copy
// of pkg and returns that directory with the effective version. An
// already-populated target is reused without touching the network.
func (a *App) materialize(ctx context.Context, pkg, pin string) (string, string, error) {
	version := pin
	if version == "" {
		started := time.Now()
		v, err := a.Acquirer.LatestVersion(ctx, pkg)
		observability.AcquireDuration.WithLabelValues("resolve").Observe(time.Since(started).Seconds())
		if err != nil {
			return "", "", err
		}
		version = v
	}

	target := filepath.Join(a.Config.Packages.Workdir, pypi.NormalizeDistName(pkg), version)
	if v, err := a.Acquirer.InstalledVersion(target, pkg); err == nil {
		slog.Debug("using cached package", "package", pkg, "version", v, "path", target)
		return target, v, nil
	}

	slog.Info("installing package", "package", pkg, "version", version, "target", target)
	started := time.Now()
	err := a.Acquirer.Install(ctx, pkg, version, target)
	observability.AcquireDuration.WithLabelValues("install").Observe(time.Since(started).Seconds())
	if err != nil {
		return "", "", err
	}
	return target, version, nil
}
