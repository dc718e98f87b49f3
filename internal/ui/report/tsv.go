package report

import (
	"fmt"
	"strings"

	"reexmap/internal/engine/resolver"
	"reexmap/internal/shared/util"
)

// TSVGenerator flattens re-exports into one row per mapping, modules in
// report order and names sorted within each module.
type TSVGenerator struct{}

func NewTSVGenerator() *TSVGenerator {
	return &TSVGenerator{}
}

func (t *TSVGenerator) Generate(result resolver.PackageReport) (string, error) {
	var buf strings.Builder

	buf.WriteString("module_path\tlocal_name\torigin_module\toriginal_name\n")
	for _, module := range result.Modules {
		for _, name := range util.SortedStringKeys(module.Reexports) {
			origin := module.Reexports[name]
			buf.WriteString(fmt.Sprintf("%s\t%s\t%s\t%s\n",
				module.ModulePath, name, origin.OriginModule, origin.OriginalName))
		}
	}

	return buf.String(), nil
}
