package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"reexmap/internal/core/errors"
	"reexmap/internal/core/ports"
	"reexmap/internal/data/history"
	"reexmap/internal/engine/resolver"
	"reexmap/internal/shared/observability"
)

type analysisService struct {
	app *App
}

var _ ports.AnalysisService = (*analysisService)(nil)

func NewAnalysisService(app *App) ports.AnalysisService {
	return &analysisService{app: app}
}

func (s *analysisService) Unwrap() *App {
	return s.app
}

func (s *analysisService) Close(ctx context.Context) error {
	if s == nil || s.app == nil {
		return nil
	}
	return s.app.Close()
}

func (a *App) AnalysisService() ports.AnalysisService {
	return NewAnalysisService(a)
}

func (s *analysisService) RunAnalysis(ctx context.Context, req ports.AnalyzeRequest) (ports.AnalyzeResult, error) {
	ctx, span := observability.Tracer.Start(ctx, "analysisService.RunAnalysis", trace.WithAttributes())
	defer span.End()

	if err := ctx.Err(); err != nil {
		return ports.AnalyzeResult{}, err
	}
	if s.app == nil {
		return ports.AnalyzeResult{}, fmt.Errorf("app is required")
	}
	if s.app.Config == nil {
		return ports.AnalyzeResult{}, fmt.Errorf("config is required")
	}

	started := time.Now()
	result, err := s.app.Analyze(ctx)
	if err != nil {
		return ports.AnalyzeResult{}, errors.AddContext(err, errors.CtxOperation, "analyze")
	}

	written, err := s.app.WriteOutputs(result)
	if err != nil {
		return ports.AnalyzeResult{}, errors.AddContext(err, errors.CtxOperation, "write_outputs")
	}
	duration := time.Since(started)

	sources, err := s.app.EnsureSources(ctx)
	if err != nil {
		return ports.AnalyzeResult{}, err
	}

	if result.Summary.ModulesWithReexports == 0 {
		slog.Warn("no re-exports found across the scanned modules",
			"downstream", result.Metadata.DownstreamPackage,
			"upstream", result.Metadata.UpstreamPackage,
			"modules", result.Metadata.TotalModulesScanned)
	}

	if req.RecordHistory {
		s.recordRun(result, written, started, duration)
	}

	update := Update{Report: result, Written: written, Duration: duration}
	s.app.emitUpdate(update)

	return ports.AnalyzeResult{
		Report:   result,
		Written:  written,
		Warnings: append([]string(nil), sources.Warnings...),
		Duration: duration,
	}, nil
}

// recordRun persists one run row. Storage failures only warn; the
// report already exists on disk at this point.
func (s *analysisService) recordRun(result resolver.PackageReport, written []string, started time.Time, duration time.Duration) {
	if s.app.History == nil {
		return
	}

	reportPath := ""
	if len(written) > 0 {
		reportPath = written[0]
	}

	run := history.Run{
		StartedAt:            started.UTC(),
		DurationMS:           duration.Milliseconds(),
		DownstreamPackage:    result.Metadata.DownstreamPackage,
		DownstreamVersion:    result.Metadata.DownstreamVersion,
		UpstreamPackage:      result.Metadata.UpstreamPackage,
		UpstreamVersion:      result.Metadata.UpstreamVersion,
		ModulesScanned:       result.Metadata.TotalModulesScanned,
		ModulesWithReexports: result.Summary.ModulesWithReexports,
		TotalReexports:       result.Summary.TotalReexports,
		ParseFailures:        result.ParseFailures(),
		ReportPath:           reportPath,
	}
	if err := s.app.History.SaveRun(run); err != nil {
		slog.Warn("failed to record run history", "error", err)
	}
}

func (s *analysisService) ListRuns(ctx context.Context, limit int) ([]history.Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.app == nil {
		return nil, fmt.Errorf("app is required")
	}
	if s.app.History == nil {
		return nil, errors.New(errors.CodeStorageError, "history store is not enabled")
	}

	runs, err := s.app.History.LoadRuns(limit)
	if err != nil {
		return nil, errors.AddContext(err, errors.CtxOperation, "load_runs")
	}
	return runs, nil
}

func (s *analysisService) PrintSummary(ctx context.Context, req ports.SummaryPrintRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.app == nil {
		return fmt.Errorf("app is required")
	}

	s.app.PrintSummary(req.Result.Report, req.Result.Written, req.Result.Warnings, req.Result.Duration)
	return nil
}

func (s *analysisService) WatchService() ports.WatchService {
	return &watchService{app: s.app}
}

type watchService struct {
	app *App
}

var _ ports.WatchService = (*watchService)(nil)

func (s *watchService) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.app == nil {
		return fmt.Errorf("app is required")
	}
	return s.app.StartWatcher()
}

func (s *watchService) CurrentUpdate(ctx context.Context) (ports.WatchUpdate, error) {
	if err := ctx.Err(); err != nil {
		return ports.WatchUpdate{}, err
	}
	if s.app == nil {
		return ports.WatchUpdate{}, fmt.Errorf("app is required")
	}

	update, ok := s.app.CurrentUpdate()
	if !ok {
		return ports.WatchUpdate{}, fmt.Errorf("no analysis has completed yet")
	}
	return toWatchUpdate(update), nil
}

func (s *watchService) Subscribe(ctx context.Context, handler func(ports.WatchUpdate)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.app == nil {
		return fmt.Errorf("app is required")
	}
	if handler == nil {
		return fmt.Errorf("handler is required")
	}

	s.app.SetUpdateHandler(func(update Update) {
		if ctx.Err() != nil {
			return
		}
		handler(toWatchUpdate(update))
	})
	return nil
}

func toWatchUpdate(update Update) ports.WatchUpdate {
	return ports.WatchUpdate{
		Report:   update.Report,
		Written:  append([]string(nil), update.Written...),
		Duration: update.Duration,
	}
}
