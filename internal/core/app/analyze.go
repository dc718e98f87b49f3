package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"reexmap/internal/core/errors"
	"reexmap/internal/engine/locator"
	"reexmap/internal/engine/resolver"
	"reexmap/internal/shared/observability"
)

// Analyze runs the full pipeline: resolve sources, discover entry
// points, extract facts in parallel, and assemble the report. Only the
// complete absence of the downstream tree aborts; per-module failures
// end up as error markers inside the report.
func (a *App) Analyze(ctx context.Context) (resolver.PackageReport, error) {
	a.analysisMu.Lock()
	defer a.analysisMu.Unlock()

	sources, err := a.EnsureSources(ctx)
	if err != nil {
		return resolver.PackageReport{}, err
	}

	loc, err := locator.New(sources.DownstreamRoot, a.downstreamImport, a.Config.Exclude.Dirs, a.Config.Exclude.Files)
	if err != nil {
		return resolver.PackageReport{}, err
	}

	started := time.Now()
	entries, err := loc.Discover()
	observability.AnalysisDuration.WithLabelValues("locate").Observe(time.Since(started).Seconds())
	if err != nil {
		return resolver.PackageReport{}, err
	}
	slog.Debug("entry points discovered", "count", len(entries), "root", sources.DownstreamRoot)

	started = time.Now()
	analyses, err := a.extractAll(ctx, entries)
	observability.AnalysisDuration.WithLabelValues("extract").Observe(time.Since(started).Seconds())
	if err != nil {
		return resolver.PackageReport{}, err
	}

	started = time.Now()
	report := resolver.BuildReport(resolver.Metadata{
		DownstreamPackage: a.Config.Packages.Downstream,
		DownstreamVersion: sources.DownstreamVersion,
		UpstreamPackage:   a.Config.Packages.Upstream,
		UpstreamVersion:   sources.UpstreamVersion,
	}, analyses)
	observability.AnalysisDuration.WithLabelValues("resolve").Observe(time.Since(started).Seconds())

	observability.ReexportsLastRun.Set(float64(report.Summary.TotalReexports))
	observability.ModulesWithReexportsLastRun.Set(float64(report.Summary.ModulesWithReexports))

	return report, nil
}

// extractAll fans entry points out to a bounded worker pool and
// collects per-module analyses. Completion order is irrelevant; the
// report assembler sorts by module path.
func (a *App) extractAll(ctx context.Context, entries []locator.EntryPoint) ([]resolver.ModuleAnalysis, error) {
	workers := a.Config.Analysis.WorkerCount()
	if workers > len(entries) {
		workers = len(entries)
	}

	jobs := make(chan locator.EntryPoint)
	results := make(chan resolver.ModuleAnalysis, len(entries))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range jobs {
				results <- a.analyzeEntryPoint(entry)
			}
		}()
	}

feed:
	for _, entry := range entries {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- entry:
		}
	}
	close(jobs)
	wg.Wait()
	close(results)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	analyses := make([]resolver.ModuleAnalysis, 0, len(entries))
	for analysis := range results {
		analyses = append(analyses, analysis)
	}
	return analyses, nil
}

// analyzeEntryPoint processes one module: read, extract, intersect.
// Failures produce an error-marked analysis, never an aborted run.
func (a *App) analyzeEntryPoint(entry locator.EntryPoint) resolver.ModuleAnalysis {
	started := time.Now()
	defer func() {
		observability.ExtractionDuration.Observe(time.Since(started).Seconds())
	}()
	observability.ModulesScannedTotal.Inc()

	content, err := os.ReadFile(entry.FilePath)
	if err != nil {
		observability.ParseFailuresTotal.Inc()
		slog.Warn("failed to read entry point", "path", entry.FilePath, "error", err)
		return resolver.Failed(entry.ModulePath, fmt.Sprintf("read failed: %v", err))
	}

	facts, err := a.parser.ExtractModule(entry.FilePath, entry.ModulePath, content)
	if err != nil {
		observability.ParseFailuresTotal.Inc()
		slog.Warn("failed to extract module facts", "module", entry.ModulePath, "error", err)
		return resolver.Failed(entry.ModulePath, errors.Reason(err))
	}

	return resolver.Resolve(entry.ModulePath, facts.Bindings, facts.Exports)
}
