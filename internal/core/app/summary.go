package app

import (
	"fmt"
	"strings"
	"time"

	"reexmap/internal/engine/resolver"
	"reexmap/internal/ui/report"
)

// PrintSummary renders the terminal summary of one analysis run.
func (a *App) PrintSummary(result resolver.PackageReport, written, warnings []string, duration time.Duration) {
	if !a.Config.Alerts.TerminalEnabled() {
		return
	}

	meta := result.Metadata
	fmt.Println(strings.Repeat("-", 40))
	fmt.Printf("%s %s -> %s %s: %d modules in %v\n",
		meta.DownstreamPackage, meta.DownstreamVersion,
		meta.UpstreamPackage, meta.UpstreamVersion,
		meta.TotalModulesScanned, duration.Round(time.Millisecond))

	if result.Summary.TotalReexports > 0 {
		fmt.Println(report.RenderSummaryTable(result))
	}

	if result.Summary.ModulesWithReexports == 0 {
		fmt.Printf("⚠️  NO RE-EXPORTS FOUND: no module both imports from %q and lists the name in its export declaration.\n",
			meta.UpstreamPackage)
	} else {
		fmt.Printf("✅ %d re-exports across %d modules.\n",
			result.Summary.TotalReexports, result.Summary.ModulesWithReexports)
	}

	if failures := result.ParseFailures(); failures > 0 {
		fmt.Printf("⚠️  %d MODULES FAILED TO PARSE:\n", failures)
		for _, m := range result.Modules {
			if m.Error != nil {
				fmt.Printf("   %s: %s\n", m.ModulePath, *m.Error)
			}
		}
	} else {
		fmt.Println("✅ All modules parsed cleanly.")
	}

	for _, warning := range warnings {
		fmt.Printf("⚠️  %s\n", warning)
	}

	if len(written) > 0 {
		fmt.Printf("Outputs: %s\n", strings.Join(written, ", "))
	}
	fmt.Println(strings.Repeat("-", 40))

	if a.Config.Alerts.Beep && (result.ParseFailures() > 0 || result.Summary.ModulesWithReexports == 0) {
		fmt.Print("\a")
	}
}
