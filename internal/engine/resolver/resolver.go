package resolver

import (
	"sort"

	"reexmap/internal/engine/parser"
)

// Origin names where a re-exported symbol actually lives upstream.
type Origin struct {
	OriginModule string `json:"origin_module"`
	OriginalName string `json:"original_name"`
}

// ModuleAnalysis is the immutable per-module result: what the module
// imports from upstream, what it declares public, and the intersection.
type ModuleAnalysis struct {
	ModulePath string            `json:"module_path"`
	Error      *string           `json:"error"`
	Imports    map[string]Origin `json:"imports_from_upstream"`
	Exports    []string          `json:"declared_public_exports"`
	Reexports  map[string]Origin `json:"reexports"`
}

// Summary aggregates re-export counts across all scanned modules.
type Summary struct {
	TotalReexports       int `json:"total_reexports"`
	ModulesWithReexports int `json:"modules_with_reexports"`
}

// Metadata identifies the package pair a report was produced from.
type Metadata struct {
	DownstreamPackage   string `json:"downstream_package"`
	DownstreamVersion   string `json:"downstream_version"`
	UpstreamPackage     string `json:"upstream_package"`
	UpstreamVersion     string `json:"upstream_version"`
	TotalModulesScanned int    `json:"total_modules_scanned"`
}

// PackageReport is the complete result of one analysis run, ordered by
// module path so identical inputs serialize identically.
type PackageReport struct {
	Metadata Metadata         `json:"metadata"`
	Modules  []ModuleAnalysis `json:"modules"`
	Summary  Summary          `json:"summary"`
}

// Resolve intersects a module's upstream import bindings with its
// declared export list.
//
// Bindings apply in source order, so a local name bound twice resolves
// to its final binding. A name is a re-export exactly when it appears in
// both sets; export names with no matching binding stay local-only, and
// duplicate export entries collapse onto one re-export entry.
func Resolve(modulePath string, bindings []parser.ImportBinding, exports []string) ModuleAnalysis {
	imports := make(map[string]Origin, len(bindings))
	for _, b := range bindings {
		imports[b.LocalName] = Origin{
			OriginModule: b.OriginModule,
			OriginalName: b.OriginalName,
		}
	}

	declared := make([]string, 0, len(exports))
	declared = append(declared, exports...)

	reexports := make(map[string]Origin)
	for _, name := range exports {
		if origin, ok := imports[name]; ok {
			reexports[name] = origin
		}
	}

	return ModuleAnalysis{
		ModulePath: modulePath,
		Imports:    imports,
		Exports:    declared,
		Reexports:  reexports,
	}
}

// Failed records a module whose source could not be analyzed. Both sets
// stay empty; the error marker carries the reason into the report.
func Failed(modulePath, reason string) ModuleAnalysis {
	return ModuleAnalysis{
		ModulePath: modulePath,
		Error:      &reason,
		Imports:    map[string]Origin{},
		Exports:    []string{},
		Reexports:  map[string]Origin{},
	}
}

// BuildReport assembles per-module analyses into a deterministic report:
// modules sorted by path, summary counters reduced from the sorted set.
func BuildReport(meta Metadata, analyses []ModuleAnalysis) PackageReport {
	modules := make([]ModuleAnalysis, len(analyses))
	copy(modules, analyses)
	sort.Slice(modules, func(i, j int) bool { return modules[i].ModulePath < modules[j].ModulePath })

	summary := Summary{}
	for _, m := range modules {
		summary.TotalReexports += len(m.Reexports)
		if len(m.Reexports) > 0 {
			summary.ModulesWithReexports++
		}
	}

	meta.TotalModulesScanned = len(modules)
	return PackageReport{
		Metadata: meta,
		Modules:  modules,
		Summary:  summary,
	}
}

// ParseFailures counts modules that carry an error marker.
func (r PackageReport) ParseFailures() int {
	n := 0
	for _, m := range r.Modules {
		if m.Error != nil {
			n++
		}
	}
	return n
}
