package ports

import (
	"context"
	"time"

	"reexmap/internal/data/history"
	"reexmap/internal/engine/resolver"
)

// Acquirer abstracts fetching downstream/upstream package sources from the
// package index.
type Acquirer interface {
	LatestVersion(ctx context.Context, pkg string) (string, error)
	Install(ctx context.Context, pkg, version, target string) error
	InstalledVersion(target, pkg string) (string, error)
}

// HistoryStore abstracts run persistence for history/trend workflows.
type HistoryStore interface {
	SaveRun(run history.Run) error
	LoadRuns(limit int) ([]history.Run, error)
}

// AnalyzeRequest defines a full-pipeline analysis request for driving adapters.
type AnalyzeRequest struct {
	RecordHistory bool
}

// AnalyzeResult summarizes a completed analysis.
type AnalyzeResult struct {
	Report   resolver.PackageReport
	Written  []string
	Warnings []string
	Duration time.Duration
}

// SummaryPrintRequest captures terminal-summary rendering inputs.
type SummaryPrintRequest struct {
	Result AnalyzeResult
}

// WatchUpdate contains state emitted to driving adapters after a
// watch-triggered reanalysis.
type WatchUpdate struct {
	Report   resolver.PackageReport
	Written  []string
	Duration time.Duration
}

// WatchService exposes watch lifecycle and updates for driving adapters.
type WatchService interface {
	Start(ctx context.Context) error
	CurrentUpdate(ctx context.Context) (WatchUpdate, error)
	Subscribe(ctx context.Context, handler func(WatchUpdate)) error
}

// AnalysisService defines the driving-port surface over the acquire,
// extract, and resolve use cases.
type AnalysisService interface {
	RunAnalysis(ctx context.Context, req AnalyzeRequest) (AnalyzeResult, error)
	ListRuns(ctx context.Context, limit int) ([]history.Run, error)
	PrintSummary(ctx context.Context, req SummaryPrintRequest) error
	WatchService() WatchService
}
