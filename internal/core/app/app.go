package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"reexmap/internal/core/config"
	"reexmap/internal/core/errors"
	"reexmap/internal/core/ports"
	"reexmap/internal/core/watcher"
	"reexmap/internal/data/history"
	"reexmap/internal/data/pypi"
	"reexmap/internal/engine/locator"
	"reexmap/internal/engine/parser"
	"reexmap/internal/engine/resolver"
	"reexmap/internal/shared/util"
)

const versionUnknown = "unknown"

// Update carries the outcome of one completed analysis to subscribers.
type Update struct {
	Report   resolver.PackageReport
	Written  []string
	Duration time.Duration
}

type App struct {
	Config   *config.Config
	Acquirer ports.Acquirer
	History  ports.HistoryStore

	parser           *parser.Parser
	downstreamImport string
	upstreamImport   string

	sourcesMu sync.Mutex
	sources   *Sources

	// Serializes full pipeline runs so watch rescans never overlap.
	analysisMu sync.Mutex

	updateMu   sync.RWMutex
	onUpdate   func(Update)
	lastUpdate *Update

	activeWatcher *watcher.Watcher
	rescanLimiter *util.Limiter
}

var _ ports.HistoryStore = (*history.Store)(nil)

func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New(errors.CodeConfigError, "config is required")
	}

	upstreamImport := pypi.ImportName(cfg.Packages.Upstream)
	a := &App{
		Config:           cfg,
		Acquirer:         pypi.NewInstaller(cfg.Acquire.Python, cfg.Acquire.Timeout),
		parser:           parser.NewParser(upstreamImport),
		downstreamImport: pypi.ImportName(cfg.Packages.Downstream),
		upstreamImport:   upstreamImport,
		rescanLimiter:    util.NewLimiter(float64(cfg.Watch.MaxRescansPerMinute)/60.0, 1),
	}

	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path, cfg.History.BusyTimeout)
		if err != nil {
			slog.Warn("history store unavailable", "path", cfg.History.Path, "error", err)
		} else {
			a.History = store
		}
	}

	return a, nil
}

// UpstreamImport returns the upstream import identifier bindings are
// matched against (the PyPI name with dashes folded to underscores).
func (a *App) UpstreamImport() string {
	return a.upstreamImport
}

// PackageRoot resolves the directory holding the downstream package's
// top-level __init__.py, acquiring sources first if needed.
func (a *App) PackageRoot(ctx context.Context) (string, error) {
	sources, err := a.EnsureSources(ctx)
	if err != nil {
		return "", err
	}
	loc, err := locator.New(sources.DownstreamRoot, a.downstreamImport, a.Config.Exclude.Dirs, a.Config.Exclude.Files)
	if err != nil {
		return "", err
	}
	return loc.PackageRoot()
}

func (a *App) SetUpdateHandler(handler func(Update)) {
	a.updateMu.Lock()
	defer a.updateMu.Unlock()
	a.onUpdate = handler
}

func (a *App) emitUpdate(update Update) {
	a.updateMu.Lock()
	a.lastUpdate = &update
	handler := a.onUpdate
	a.updateMu.Unlock()
	if handler != nil {
		handler(update)
	}
}

// CurrentUpdate returns the most recent completed analysis, or false
// when none has run yet.
func (a *App) CurrentUpdate() (Update, bool) {
	a.updateMu.RLock()
	defer a.updateMu.RUnlock()
	if a.lastUpdate == nil {
		return Update{}, false
	}
	return *a.lastUpdate, true
}

func (a *App) Close() error {
	if a.activeWatcher != nil {
		if err := a.activeWatcher.Close(); err != nil {
			slog.Warn("failed to close watcher", "error", err)
		}
		a.activeWatcher = nil
	}
	if store, ok := a.History.(*history.Store); ok && store != nil {
		return store.Close()
	}
	return nil
}
