package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: REEXMAP_[SECTION]_[KEY] (e.g., REEXMAP_ANALYSIS_WORKERS).
func ApplyEnvOverrides(cfg *Config) {
	// Packages
	setEnvString(&cfg.Packages.Downstream, "REEXMAP_PACKAGES_DOWNSTREAM")
	setEnvString(&cfg.Packages.Upstream, "REEXMAP_PACKAGES_UPSTREAM")
	setEnvString(&cfg.Packages.DownstreamVersion, "REEXMAP_PACKAGES_DOWNSTREAM_VERSION")
	setEnvString(&cfg.Packages.UpstreamVersion, "REEXMAP_PACKAGES_UPSTREAM_VERSION")
	setEnvString(&cfg.Packages.DownstreamRoot, "REEXMAP_PACKAGES_DOWNSTREAM_ROOT")
	setEnvString(&cfg.Packages.UpstreamRoot, "REEXMAP_PACKAGES_UPSTREAM_ROOT")
	setEnvString(&cfg.Packages.Workdir, "REEXMAP_PACKAGES_WORKDIR")

	// Acquire
	setEnvString(&cfg.Acquire.Python, "REEXMAP_ACQUIRE_PYTHON")
	setEnvDuration(&cfg.Acquire.Timeout, "REEXMAP_ACQUIRE_TIMEOUT")

	// Analysis
	setEnvInt(&cfg.Analysis.Workers, "REEXMAP_ANALYSIS_WORKERS")

	// Output
	setEnvString(&cfg.Output.Root, "REEXMAP_OUTPUT_ROOT")
	setEnvString(&cfg.Output.JSON, "REEXMAP_OUTPUT_JSON")
	setEnvString(&cfg.Output.Markdown, "REEXMAP_OUTPUT_MARKDOWN")
	setEnvString(&cfg.Output.TSV, "REEXMAP_OUTPUT_TSV")

	// History
	setEnvBool(&cfg.History.Enabled, "REEXMAP_HISTORY_ENABLED")
	setEnvString(&cfg.History.Path, "REEXMAP_HISTORY_PATH")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "REEXMAP_WATCH_DEBOUNCE")

	// Observability
	setEnvString(&cfg.Observability.MetricsAddr, "REEXMAP_OBSERVABILITY_METRICS_ADDR")
	setEnvString(&cfg.Observability.OTLPEndpoint, "REEXMAP_OBSERVABILITY_OTLP_ENDPOINT")

	// Logging
	setEnvString(&cfg.Logging.Level, "REEXMAP_LOGGING_LEVEL")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key)
		*target = val
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.ParseBool(val)
		if err != nil {
			slog.Warn("ignoring invalid env override", "key", key, "value", val)
			return
		}
		slog.Debug("applying env override", "key", key)
		*target = parsed
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			slog.Warn("ignoring invalid env override", "key", key, "value", val)
			return
		}
		slog.Debug("applying env override", "key", key)
		*target = parsed
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		parsed, err := time.ParseDuration(val)
		if err != nil {
			slog.Warn("ignoring invalid env override", "key", key, "value", val)
			return
		}
		slog.Debug("applying env override", "key", key)
		*target = parsed
	}
}
