package report

import (
	"fmt"
	"strings"

	"reexmap/internal/engine/resolver"
	"reexmap/internal/shared/util"
)

type MarkdownGenerator struct{}

func NewMarkdownGenerator() *MarkdownGenerator {
	return &MarkdownGenerator{}
}

// Generate renders the human-readable report: summary metrics, one
// section per module with re-exports, and a parse-failure table. The
// document carries no timestamp so reruns on unchanged input are
// byte-identical.
func (m *MarkdownGenerator) Generate(result resolver.PackageReport) (string, error) {
	meta := result.Metadata

	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("title: Re-export Map\n")
	b.WriteString("downstream: " + packageLabel(meta.DownstreamPackage, meta.DownstreamVersion) + "\n")
	b.WriteString("upstream: " + packageLabel(meta.UpstreamPackage, meta.UpstreamVersion) + "\n")
	b.WriteString("---\n\n")

	b.WriteString("# Re-export Map\n\n")
	b.WriteString(fmt.Sprintf("Public names in `%s` that originate in `%s`.\n\n",
		meta.DownstreamPackage, meta.UpstreamPackage))

	b.WriteString("## Summary\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("| --- | --- |\n")
	b.WriteString(fmt.Sprintf("| Modules Scanned | %d |\n", meta.TotalModulesScanned))
	b.WriteString(fmt.Sprintf("| Modules With Re-exports | %d |\n", result.Summary.ModulesWithReexports))
	b.WriteString(fmt.Sprintf("| Total Re-exports | %d |\n", result.Summary.TotalReexports))
	b.WriteString(fmt.Sprintf("| Parse Failures | %d |\n\n", result.ParseFailures()))

	m.writeModules(&b, result.Modules)
	m.writeFailures(&b, result.Modules)

	return b.String(), nil
}

func (m *MarkdownGenerator) writeModules(b *strings.Builder, modules []resolver.ModuleAnalysis) {
	b.WriteString("## Re-exports\n")

	any := false
	for _, module := range modules {
		if len(module.Reexports) == 0 {
			continue
		}
		any = true

		b.WriteString(fmt.Sprintf("### `%s`\n", module.ModulePath))
		b.WriteString("| Local Name | Origin Module | Original Name |\n")
		b.WriteString("| --- | --- | --- |\n")
		for _, name := range util.SortedStringKeys(module.Reexports) {
			origin := module.Reexports[name]
			b.WriteString(fmt.Sprintf("| `%s` | `%s` | `%s` |\n", name, origin.OriginModule, origin.OriginalName))
		}
		b.WriteString("\n")
	}

	if !any {
		b.WriteString("No re-exports detected.\n\n")
	}
}

func (m *MarkdownGenerator) writeFailures(b *strings.Builder, modules []resolver.ModuleAnalysis) {
	failed := make([]resolver.ModuleAnalysis, 0)
	for _, module := range modules {
		if module.Error != nil {
			failed = append(failed, module)
		}
	}
	if len(failed) == 0 {
		return
	}

	b.WriteString("## Parse Failures\n")
	b.WriteString("| Module | Error |\n")
	b.WriteString("| --- | --- |\n")
	for _, module := range failed {
		b.WriteString(fmt.Sprintf("| `%s` | %s |\n", module.ModulePath, *module.Error))
	}
	b.WriteString("\n")
}

func packageLabel(name, version string) string {
	if version == "" {
		return name
	}
	return name + " " + version
}
