package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Version       int           `toml:"version"`
	Packages      Packages      `toml:"packages"`
	Acquire       Acquire       `toml:"acquire"`
	Analysis      Analysis      `toml:"analysis"`
	Exclude       Exclude       `toml:"exclude"`
	Output        Output        `toml:"output"`
	History       History       `toml:"history"`
	Watch         Watch         `toml:"watch"`
	Observability Observability `toml:"observability"`
	Logging       Logging       `toml:"logging"`
	Alerts        Alerts        `toml:"alerts"`
}

type Packages struct {
	Downstream        string `toml:"downstream"`
	Upstream          string `toml:"upstream"`
	DownstreamVersion string `toml:"downstream_version"`
	UpstreamVersion   string `toml:"upstream_version"`
	DownstreamRoot    string `toml:"downstream_root"`
	UpstreamRoot      string `toml:"upstream_root"`
	Workdir           string `toml:"workdir"`
}

type Acquire struct {
	Enabled *bool         `toml:"enabled"`
	Python  string        `toml:"python"`
	Timeout time.Duration `toml:"timeout"`
}

type Analysis struct {
	Workers int `toml:"workers"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Output struct {
	Root     string `toml:"root"`
	JSON     string `toml:"json"`
	Markdown string `toml:"markdown"`
	TSV      string `toml:"tsv"`
}

type History struct {
	Enabled     bool          `toml:"enabled"`
	Path        string        `toml:"path"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
}

type Watch struct {
	Debounce            time.Duration `toml:"debounce"`
	MaxRescansPerMinute int           `toml:"max_rescans_per_minute"`
}

type Observability struct {
	MetricsAddr  string `toml:"metrics_addr"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
}

type Logging struct {
	Level string `toml:"level"`
}

type Alerts struct {
	Beep     bool  `toml:"beep"`
	Terminal *bool `toml:"terminal"`
}

const maxWorkers = 8

// IsEnabled reports whether package acquisition may shell out to pip.
// Unset means enabled; explicit roots bypass acquisition regardless.
func (a Acquire) IsEnabled() bool {
	if a.Enabled == nil {
		return true
	}
	return *a.Enabled
}

// TerminalEnabled reports whether the run summary prints to the
// terminal. Unset means enabled; UI mode turns it off.
func (a Alerts) TerminalEnabled() bool {
	if a.Terminal == nil {
		return true
	}
	return *a.Terminal
}

// WorkerCount resolves the effective extraction worker count.
// Zero means auto: GOMAXPROCS capped at 8.
func (a Analysis) WorkerCount() int {
	if a.Workers > 0 {
		return a.Workers
	}
	n := runtime.GOMAXPROCS(0)
	if n > maxWorkers {
		n = maxWorkers
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Resolve joins a configured output path with the output root unless absolute.
func (o Output) Resolve(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(o.Root, name)
}

func Load(path string) (*Config, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFile parses a config file and applies defaults and environment
// overrides without validating. Callers that layer flag overrides on
// top revalidate through Validate once every source is applied.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	ApplyEnvOverrides(&cfg)

	return &cfg, nil
}

// Default returns the built-in configuration used when no config file exists.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

// Validate runs every section validator. Callers that mutate a loaded
// config (flag overrides) revalidate through this before use.
func Validate(cfg *Config) error {
	if err := validateVersion(cfg); err != nil {
		return err
	}
	if err := validatePackages(cfg); err != nil {
		return err
	}
	if err := validateAnalysis(cfg); err != nil {
		return err
	}
	if err := validateOutput(cfg); err != nil {
		return err
	}
	if err := validateHistory(cfg); err != nil {
		return err
	}
	if err := validateWatch(cfg); err != nil {
		return err
	}
	if err := validateLogging(cfg); err != nil {
		return err
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	// Explicit roots imply the package name when none is configured.
	if strings.TrimSpace(cfg.Packages.Downstream) == "" && strings.TrimSpace(cfg.Packages.DownstreamRoot) != "" {
		cfg.Packages.Downstream = filepath.Base(filepath.Clean(cfg.Packages.DownstreamRoot))
	}
	if strings.TrimSpace(cfg.Packages.Upstream) == "" && strings.TrimSpace(cfg.Packages.UpstreamRoot) != "" {
		cfg.Packages.Upstream = filepath.Base(filepath.Clean(cfg.Packages.UpstreamRoot))
	}

	if strings.TrimSpace(cfg.Packages.Workdir) == "" {
		cfg.Packages.Workdir = "data/packages"
	}

	if strings.TrimSpace(cfg.Acquire.Python) == "" {
		cfg.Acquire.Python = "python3"
	}
	if cfg.Acquire.Timeout <= 0 {
		cfg.Acquire.Timeout = 2 * time.Minute
	}

	if len(cfg.Exclude.Dirs) == 0 {
		cfg.Exclude.Dirs = []string{".git", ".venv", ".tox", ".eggs", "node_modules"}
	}

	if strings.TrimSpace(cfg.Output.Root) == "" {
		cfg.Output.Root = "."
	}
	if strings.TrimSpace(cfg.Output.JSON) == "" {
		cfg.Output.JSON = "import_mappings.json"
	}

	if strings.TrimSpace(cfg.History.Path) == "" {
		cfg.History.Path = "data/history/runs.db"
	}
	if cfg.History.BusyTimeout <= 0 {
		cfg.History.BusyTimeout = 2 * time.Second
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.MaxRescansPerMinute <= 0 {
		cfg.Watch.MaxRescansPerMinute = 12
	}

	if strings.TrimSpace(cfg.Logging.Level) == "" {
		cfg.Logging.Level = "info"
	}
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; only version 1 is supported", cfg.Version)
	}
	return nil
}

func validatePackages(cfg *Config) error {
	downstream := strings.TrimSpace(cfg.Packages.Downstream)
	if downstream == "" && strings.TrimSpace(cfg.Packages.DownstreamRoot) == "" {
		return fmt.Errorf("packages.downstream or packages.downstream_root must be set")
	}
	upstream := strings.TrimSpace(cfg.Packages.Upstream)
	if upstream == "" && strings.TrimSpace(cfg.Packages.UpstreamRoot) == "" {
		return fmt.Errorf("packages.upstream or packages.upstream_root must be set")
	}
	if err := validatePackageName("packages.downstream", downstream); err != nil {
		return err
	}
	if err := validatePackageName("packages.upstream", upstream); err != nil {
		return err
	}
	if strings.TrimSpace(cfg.Packages.Workdir) == "" {
		return fmt.Errorf("packages.workdir must not be empty")
	}
	return nil
}

func validatePackageName(ref, name string) error {
	if name == "" {
		return nil
	}
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9' && i > 0, r == '-' && i > 0, r == '.' && i > 0:
		default:
			return fmt.Errorf("%s contains invalid character %q", ref, r)
		}
	}
	return nil
}

func validateAnalysis(cfg *Config) error {
	if cfg.Analysis.Workers < 0 {
		return fmt.Errorf("analysis.workers must be >= 0, got %d", cfg.Analysis.Workers)
	}
	if cfg.Analysis.Workers > 64 {
		return fmt.Errorf("analysis.workers must be <= 64, got %d", cfg.Analysis.Workers)
	}
	return nil
}

func validateOutput(cfg *Config) error {
	if strings.TrimSpace(cfg.Output.Root) == "" {
		return fmt.Errorf("output.root must not be empty")
	}
	if strings.TrimSpace(cfg.Output.JSON) == "" {
		return fmt.Errorf("output.json must not be empty")
	}
	return nil
}

func validateHistory(cfg *Config) error {
	if !cfg.History.Enabled {
		return nil
	}
	if strings.TrimSpace(cfg.History.Path) == "" {
		return fmt.Errorf("history.path must not be empty when history.enabled=true")
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must be >= 0")
	}
	if cfg.Watch.MaxRescansPerMinute < 1 || cfg.Watch.MaxRescansPerMinute > 600 {
		return fmt.Errorf("watch.max_rescans_per_minute must be between 1 and 600, got %d", cfg.Watch.MaxRescansPerMinute)
	}
	return nil
}

func validateLogging(cfg *Config) error {
	level := strings.ToLower(strings.TrimSpace(cfg.Logging.Level))
	switch level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
}
