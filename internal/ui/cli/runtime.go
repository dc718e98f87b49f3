package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	coreapp "reexmap/internal/core/app"
	"reexmap/internal/core/config"
	"reexmap/internal/core/ports"
	"reexmap/internal/shared/observability"
	"reexmap/internal/shared/version"
	"reexmap/internal/ui/report"
)

func Run(args []string) int {
	opts, err := parseOptions(args)
	if err != nil {
		return 2
	}

	if opts.version {
		fmt.Printf("reexmap v%s\n", version.Version)
		return 0
	}

	levelVar, cleanupLogs := configureLogging(opts.ui, initialLogLevel(opts))
	defer cleanupLogs()

	cwd, err := os.Getwd()
	if err != nil {
		slog.Error("failed to detect working directory", "error", err)
		return 1
	}

	cfg, cfgPath, err := loadConfig(opts.configPath, cwd)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}
	if cfgPath != "" {
		slog.Debug("loaded config", "path", cfgPath)
	}

	if err := applyModeOptions(&opts, cfg); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	if err := applyFlagOverrides(opts, cfg); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	if err := config.Validate(cfg); err != nil {
		slog.Error("invalid configuration", "error", err)
		return 1
	}

	// Flags beat the config file for log level; otherwise the file decides.
	if opts.logLevel == "" && !opts.verbose {
		levelVar.Set(parseLogLevel(cfg.Logging.Level))
	}

	if opts.ui {
		terminalSummary := false
		cfg.Alerts.Terminal = &terminalSummary
	}

	if endpoint := strings.TrimSpace(cfg.Observability.OTLPEndpoint); endpoint != "" {
		shutdown, err := observability.SetupTracing(context.Background(), endpoint, version.Version)
		if err != nil {
			slog.Warn("tracing disabled", "endpoint", endpoint, "error", err)
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					slog.Warn("failed to flush traces", "error", err)
				}
			}()
		}
	}

	analysis, err := initializeAnalysis(cfg, coreAnalysisFactory{})
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		return 1
	}
	appRef := unwrapApp(analysis)
	if appRef != nil {
		defer appRef.Close()
	}

	if stop, code := runSingleCommand(analysis, opts); stop {
		return code
	}

	res, err := analysis.RunAnalysis(context.Background(), ports.AnalyzeRequest{RecordHistory: true})
	if err != nil {
		slog.Error("analysis failed", "error", err)
		return 1
	}

	if !opts.ui {
		if err := analysis.PrintSummary(context.Background(), ports.SummaryPrintRequest{Result: res}); err != nil {
			slog.Error("failed to print summary", "error", err)
			return 1
		}
	}

	if !opts.watch {
		return 0
	}

	watch := analysis.WatchService()
	if watch == nil {
		slog.Error("watch service unavailable")
		return 1
	}
	if err := watch.Start(context.Background()); err != nil {
		slog.Error("failed to start watcher", "error", err)
		return 1
	}

	if addr := strings.TrimSpace(cfg.Observability.MetricsAddr); addr != "" {
		if appRef == nil {
			slog.Warn("metrics server skipped: core app unavailable")
		} else {
			server := NewObservabilityServer(addr, coreapp.NewHealthService(appRef))
			if err := server.Start(context.Background()); err != nil {
				slog.Error("failed to start observability server", "error", err)
				return 1
			}
			defer func() { _ = server.Stop(context.Background()) }()
		}
	}

	if opts.ui {
		if err := runUI(analysis, appRef); err != nil {
			slog.Error("failed to run UI", "error", err)
			return 1
		}
		return 0
	}

	select {}
}

func runSingleCommand(analysis ports.AnalysisService, opts cliOptions) (bool, int) {
	if analysis == nil {
		fmt.Fprintln(os.Stderr, "analysis service unavailable")
		return true, 1
	}

	if opts.history {
		runs, err := analysis.ListRuns(context.Background(), opts.historyLimit)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			return true, 1
		}
		if len(runs) == 0 {
			fmt.Println("History: no recorded runs yet.")
			return true, 0
		}
		fmt.Println(report.RenderRunsTable(runs))
		return true, 0
	}

	return false, 0
}

func loadConfig(path, cwd string) (*config.Config, string, error) {
	if path != defaultConfigPath {
		cfg, err := config.LoadFile(path)
		if err != nil {
			return nil, "", err
		}
		return cfg, path, nil
	}

	candidates, err := discoverDefaultConfig(cwd)
	if err != nil {
		return nil, "", err
	}

	for _, candidate := range candidates {
		cfg, loadErr := config.LoadFile(candidate)
		if loadErr == nil {
			return cfg, candidate, nil
		}
		if os.IsNotExist(loadErr) {
			continue
		}
		return nil, "", loadErr
	}

	cfg := config.Default()
	config.ApplyEnvOverrides(cfg)
	return cfg, "", nil
}

func discoverDefaultConfig(cwd string) ([]string, error) {
	if strings.TrimSpace(cwd) == "" {
		return nil, fmt.Errorf("cwd must not be empty")
	}
	return []string{
		filepath.Clean(filepath.Join(cwd, "reexmap.toml")),
		filepath.Clean(filepath.Join(cwd, "data/config/reexmap.toml")),
	}, nil
}

func applyModeOptions(opts *cliOptions, cfg *config.Config) error {
	if opts.ui {
		opts.watch = true
	}

	if opts.history && opts.watch {
		return fmt.Errorf("-history cannot be combined with -watch or -ui")
	}

	if len(opts.args) > 1 {
		return fmt.Errorf("at most one positional argument is supported: reexmap [flags] [downstream-root]")
	}
	if len(opts.args) == 1 {
		cfg.Packages.DownstreamRoot = opts.args[0]
	}

	if _, err := parseFormats(opts.formats); err != nil {
		return err
	}
	return nil
}

func applyFlagOverrides(opts cliOptions, cfg *config.Config) error {
	if opts.downstream != "" {
		cfg.Packages.Downstream = opts.downstream
	}
	if opts.upstream != "" {
		cfg.Packages.Upstream = opts.upstream
	}
	if opts.downstreamRoot != "" {
		cfg.Packages.DownstreamRoot = opts.downstreamRoot
	}
	if opts.upstreamRoot != "" {
		cfg.Packages.UpstreamRoot = opts.upstreamRoot
	}
	if opts.outputRoot != "" {
		cfg.Output.Root = opts.outputRoot
	}
	if opts.workers > 0 {
		cfg.Analysis.Workers = opts.workers
	}
	if opts.metricsAddr != "" {
		cfg.Observability.MetricsAddr = opts.metricsAddr
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}

	// Roots set by flags imply package names exactly like configured roots do.
	if cfg.Packages.Downstream == "" && cfg.Packages.DownstreamRoot != "" {
		cfg.Packages.Downstream = filepath.Base(filepath.Clean(cfg.Packages.DownstreamRoot))
	}
	if cfg.Packages.Upstream == "" && cfg.Packages.UpstreamRoot != "" {
		cfg.Packages.Upstream = filepath.Base(filepath.Clean(cfg.Packages.UpstreamRoot))
	}

	formats, err := parseFormats(opts.formats)
	if err != nil {
		return err
	}
	if formats["markdown"] && strings.TrimSpace(cfg.Output.Markdown) == "" {
		cfg.Output.Markdown = "reexport_report.md"
	}
	if formats["tsv"] && strings.TrimSpace(cfg.Output.TSV) == "" {
		cfg.Output.TSV = "reexports.tsv"
	}
	return nil
}

func parseFormats(raw string) (map[string]bool, error) {
	formats := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		switch name {
		case "":
		case "md":
			formats["markdown"] = true
		case "json", "markdown", "tsv":
			formats[name] = true
		default:
			return nil, fmt.Errorf("-format must list json, markdown, or tsv entries, got %q", part)
		}
	}
	return formats, nil
}

func initialLogLevel(opts cliOptions) slog.Level {
	if opts.verbose {
		return slog.LevelDebug
	}
	if opts.logLevel != "" {
		return parseLogLevel(opts.logLevel)
	}
	return slog.LevelInfo
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func configureLogging(uiMode bool, level slog.Level) (*slog.LevelVar, func()) {
	levelVar := new(slog.LevelVar)
	levelVar.Set(level)

	output := os.Stderr
	var closeFn func() = func() {}
	if uiMode {
		logPath := resolveLogPath()
		if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to create log dir for %s: %v\n", logPath, err)
		} else {
			if fi, err := os.Lstat(logPath); err == nil && (fi.Mode()&os.ModeSymlink) != 0 {
				fmt.Fprintf(os.Stderr, "warning: refusing to write logs to symlink path %s\n", logPath)
			} else {
				f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
				if err == nil {
					output = f
					closeFn = func() { _ = f.Close() }
				} else {
					fmt.Fprintf(os.Stderr, "warning: failed to open log file %s: %v\n", logPath, err)
				}
			}
		}
	}

	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: levelVar}))
	slog.SetDefault(logger)
	return levelVar, closeFn
}

func resolveLogPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "reexmap", "reexmap.log")
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "reexmap", "reexmap.log")
	}

	return "reexmap.log"
}
