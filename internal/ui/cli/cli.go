package cli

import "flag"

const defaultConfigPath = "./reexmap.toml"

type cliOptions struct {
	configPath     string
	downstream     string
	upstream       string
	downstreamRoot string
	upstreamRoot   string
	outputRoot     string
	formats        string
	workers        int
	watch          bool
	ui             bool
	history        bool
	historyLimit   int
	metricsAddr    string
	logLevel       string
	verbose        bool
	version        bool
	args           []string
}

func parseOptions(args []string) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("reexmap", flag.ContinueOnError)

	fs.StringVar(&opts.configPath, "config", defaultConfigPath, "Path to config file")
	fs.StringVar(&opts.downstream, "downstream", "", "Downstream package whose re-exports are mapped")
	fs.StringVar(&opts.upstream, "upstream", "", "Upstream package the re-exported names originate from")
	fs.StringVar(&opts.downstreamRoot, "downstream-root", "", "Use an existing downstream source tree instead of installing from the package index")
	fs.StringVar(&opts.upstreamRoot, "upstream-root", "", "Use an existing upstream source tree instead of installing from the package index")
	fs.StringVar(&opts.outputRoot, "output", "", "Directory for report files")
	fs.StringVar(&opts.formats, "format", "", "Additional report formats to write, comma-separated (markdown, tsv; JSON is always written)")
	fs.IntVar(&opts.workers, "workers", 0, "Extraction worker count (0 = auto)")
	fs.BoolVar(&opts.watch, "watch", false, "Watch the downstream tree and reanalyze on change")
	fs.BoolVar(&opts.ui, "ui", false, "Enable terminal UI mode (implies -watch)")
	fs.BoolVar(&opts.history, "history", false, "List recent runs from the history store and exit")
	fs.IntVar(&opts.historyLimit, "history-limit", 10, "Maximum runs listed by -history")
	fs.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus /metrics and /health on this address while watching")
	fs.StringVar(&opts.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}

	opts.args = fs.Args()
	return opts, nil
}
