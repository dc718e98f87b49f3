package cli

import (
	"fmt"
	"strings"

	"reexmap/internal/data/history"
	"reexmap/internal/shared/util"
	"reexmap/internal/ui/report"
)

func renderHelp(m model) string {
	keys := "Keys: tab panel | / filter | enter details | esc back | t run history | o open source | q quit"
	if m.mode == panelFailures {
		keys = "Keys: tab panel | / filter | t run history | q quit"
	}
	return statusStyle.Render(keys)
}

func renderModulePanel(m model) string {
	summary := m.moduleList.View()
	details := renderModuleSummary(m)
	if m.hasModuleDetails {
		details = renderModuleDetails(m)
	}
	return summary + "\n\n" + details
}

func renderModuleSummary(m model) string {
	if len(m.report.Modules) == 0 {
		return statusStyle.Render("No modules scanned yet.")
	}
	idx := m.moduleList.Index()
	if idx < 0 || idx >= len(m.report.Modules) {
		idx = 0
	}
	selected := m.report.Modules[idx]
	if selected.Error != nil {
		return strings.Join([]string{
			"Selected Module",
			fmt.Sprintf("  Path: %s", selected.ModulePath),
			failureStyle.Render("  Parse failure: " + *selected.Error),
		}, "\n")
	}
	return strings.Join([]string{
		"Selected Module",
		fmt.Sprintf("  Path: %s", selected.ModulePath),
		fmt.Sprintf("  Re-exports: %d", len(selected.Reexports)),
		fmt.Sprintf("  Imports from upstream: %d", len(selected.Imports)),
		fmt.Sprintf("  Declared exports: %d", len(selected.Exports)),
		"  Press enter for the re-export table.",
	}, "\n")
}

func renderModuleDetails(m model) string {
	d := m.moduleDetails
	if d.Error != nil {
		return strings.Join([]string{
			fmt.Sprintf("Module Detail: %s", d.ModulePath),
			failureStyle.Render("  Parse failure: " + *d.Error),
			"  Press esc to exit details.",
		}, "\n")
	}

	lines := []string{
		fmt.Sprintf("Module Detail: %s", d.ModulePath),
		fmt.Sprintf("  Re-exports (%d):", len(d.Reexports)),
	}
	for _, local := range util.SortedStringKeys(d.Reexports) {
		origin := d.Reexports[local]
		lines = append(lines, fmt.Sprintf("    %s <- %s.%s", local, origin.OriginModule, origin.OriginalName))
	}
	if len(d.Reexports) == 0 {
		lines = append(lines, "    none")
	}

	imported := util.SortedStringKeys(d.Imports)
	lines = append(lines, fmt.Sprintf("  Imports from upstream (%d): %s", len(imported), strings.Join(imported, ", ")))
	lines = append(lines, fmt.Sprintf("  Declared exports (%d): %s", len(d.Exports), strings.Join(d.Exports, ", ")))
	lines = append(lines, "  Press esc to exit details, o to open the module source.")
	return strings.Join(lines, "\n")
}

func renderRunsOverlay(runs []history.Run) string {
	if len(runs) == 0 {
		return statusStyle.Render("Run history unavailable (enable history in config to record runs).")
	}
	return "Run History\n" + report.RenderRunsTable(runs)
}
