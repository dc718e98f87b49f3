package app

import (
	"context"
	"log/slog"
	"time"

	"reexmap/internal/core/watcher"
	"reexmap/internal/shared/observability"
)

// StartWatcher begins watching the downstream package tree. Each
// debounced change batch triggers a rate-limited reanalysis that
// rewrites the configured outputs and notifies subscribers.
func (a *App) StartWatcher() error {
	pkgRoot, err := a.PackageRoot(context.Background())
	if err != nil {
		return err
	}

	w, err := watcher.NewWatcher(
		a.Config.Watch.Debounce,
		a.Config.Exclude.Dirs,
		a.Config.Exclude.Files,
		a.handleChanges,
	)
	if err != nil {
		return err
	}
	a.activeWatcher = w
	slog.Info("watching package tree", "root", pkgRoot, "debounce", a.Config.Watch.Debounce)
	return w.Watch(pkgRoot)
}

// handleChanges reruns the pipeline after a debounced change batch.
// History rows are not written here; rescans are transient state.
func (a *App) handleChanges(paths []string) {
	if !a.rescanLimiter.Allow() {
		observability.RescansThrottledTotal.Inc()
		slog.Debug("rescan throttled", "pending_changes", len(paths))
		return
	}
	observability.RescansTotal.Inc()
	slog.Info("change detected, reanalyzing", "changes", len(paths))

	started := time.Now()
	result, err := a.Analyze(context.Background())
	if err != nil {
		slog.Error("reanalysis failed", "error", err)
		return
	}
	written, err := a.WriteOutputs(result)
	if err != nil {
		slog.Error("failed to rewrite outputs", "error", err)
	}
	duration := time.Since(started)

	a.PrintSummary(result, written, nil, duration)
	a.emitUpdate(Update{Report: result, Written: written, Duration: duration})
}
