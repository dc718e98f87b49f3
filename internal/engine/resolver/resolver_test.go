package resolver

import (
	"testing"

	"reexmap/internal/engine/parser"
)

func TestResolveAliasedReexport(t *testing.T) {
	bindings := []parser.ImportBinding{
		{LocalName: "Chain", OriginModule: "upstream.chains", OriginalName: "LLMChain"},
	}
	exports := []string{"Chain", "Other"}

	analysis := Resolve("downstream", bindings, exports)

	if len(analysis.Reexports) != 1 {
		t.Fatalf("Expected 1 reexport, got %d", len(analysis.Reexports))
	}
	origin, ok := analysis.Reexports["Chain"]
	if !ok {
		t.Fatal("Expected reexport keyed by local name Chain")
	}
	if origin.OriginModule != "upstream.chains" || origin.OriginalName != "LLMChain" {
		t.Errorf("Unexpected origin: %+v", origin)
	}

	if _, ok := analysis.Reexports["Other"]; ok {
		t.Error("Export without matching import must not become a reexport")
	}
	if len(analysis.Exports) != 2 {
		t.Errorf("Declared exports must be kept verbatim, got %v", analysis.Exports)
	}
}

func TestResolveSubsetInvariant(t *testing.T) {
	bindings := []parser.ImportBinding{
		{LocalName: "A", OriginModule: "up.a", OriginalName: "A"},
		{LocalName: "B", OriginModule: "up.b", OriginalName: "B"},
		{LocalName: "unexported", OriginModule: "up.c", OriginalName: "unexported"},
	}
	exports := []string{"A", "B", "local_only"}

	analysis := Resolve("downstream", bindings, exports)

	for name := range analysis.Reexports {
		if _, ok := analysis.Imports[name]; !ok {
			t.Errorf("Reexport %s missing from imports", name)
		}
		found := false
		for _, e := range analysis.Exports {
			if e == name {
				found = true
			}
		}
		if !found {
			t.Errorf("Reexport %s missing from declared exports", name)
		}
	}
	if len(analysis.Reexports) != 2 {
		t.Errorf("Expected 2 reexports, got %d", len(analysis.Reexports))
	}
	if _, ok := analysis.Imports["unexported"]; !ok {
		t.Error("Import without export must still appear in imports")
	}
}

func TestResolveLastBindingWins(t *testing.T) {
	bindings := []parser.ImportBinding{
		{LocalName: "Thing", OriginModule: "up.old", OriginalName: "Thing"},
		{LocalName: "Thing", OriginModule: "up.new", OriginalName: "NewThing"},
	}
	exports := []string{"Thing"}

	analysis := Resolve("downstream", bindings, exports)

	origin := analysis.Reexports["Thing"]
	if origin.OriginModule != "up.new" || origin.OriginalName != "NewThing" {
		t.Errorf("Expected last binding to win, got %+v", origin)
	}
	if len(analysis.Imports) != 1 {
		t.Errorf("Rebinding must not duplicate import entries, got %d", len(analysis.Imports))
	}
}

func TestResolveDuplicateExportsCollapse(t *testing.T) {
	bindings := []parser.ImportBinding{
		{LocalName: "A", OriginModule: "up", OriginalName: "A"},
	}
	exports := []string{"A", "A"}

	analysis := Resolve("downstream", bindings, exports)

	if len(analysis.Reexports) != 1 {
		t.Errorf("Duplicate export entries must collapse, got %d reexports", len(analysis.Reexports))
	}
	if len(analysis.Exports) != 2 {
		t.Errorf("Declared list preserves duplicates, got %v", analysis.Exports)
	}
}

func TestResolveEmptySets(t *testing.T) {
	analysis := Resolve("downstream.empty", nil, nil)

	if analysis.Error != nil {
		t.Error("Expected no error marker for empty module")
	}
	if analysis.Imports == nil || analysis.Exports == nil || analysis.Reexports == nil {
		t.Error("Empty module must still carry non-nil sets")
	}
	if len(analysis.Imports) != 0 || len(analysis.Exports) != 0 || len(analysis.Reexports) != 0 {
		t.Errorf("Expected empty sets, got %+v", analysis)
	}
}

func TestFailed(t *testing.T) {
	analysis := Failed("downstream.broken", "syntax error at line 3, column 1")

	if analysis.Error == nil || *analysis.Error == "" {
		t.Fatal("Expected error marker")
	}
	if len(analysis.Imports) != 0 || len(analysis.Exports) != 0 || len(analysis.Reexports) != 0 {
		t.Error("Failed module must have empty sets")
	}
}

func TestBuildReport(t *testing.T) {
	analyses := []ModuleAnalysis{
		Resolve("pkg.zeta", []parser.ImportBinding{
			{LocalName: "Z", OriginModule: "up", OriginalName: "Z"},
		}, []string{"Z"}),
		Resolve("pkg", []parser.ImportBinding{
			{LocalName: "A", OriginModule: "up.mod", OriginalName: "A"},
			{LocalName: "B", OriginModule: "up.mod", OriginalName: "B"},
		}, []string{"A", "B", "C"}),
		Failed("pkg.broken", "syntax error"),
		Resolve("pkg.alpha", nil, []string{"local"}),
	}

	meta := Metadata{
		DownstreamPackage: "pkg",
		DownstreamVersion: "1.0.0",
		UpstreamPackage:   "up",
		UpstreamVersion:   "2.0.0",
	}
	report := BuildReport(meta, analyses)

	wantOrder := []string{"pkg", "pkg.alpha", "pkg.broken", "pkg.zeta"}
	if len(report.Modules) != len(wantOrder) {
		t.Fatalf("Expected %d modules, got %d", len(wantOrder), len(report.Modules))
	}
	for i, modulePath := range wantOrder {
		if report.Modules[i].ModulePath != modulePath {
			t.Errorf("Expected module %d to be %s, got %s", i, modulePath, report.Modules[i].ModulePath)
		}
	}

	if report.Summary.TotalReexports != 3 {
		t.Errorf("Expected 3 total reexports, got %d", report.Summary.TotalReexports)
	}
	if report.Summary.ModulesWithReexports != 2 {
		t.Errorf("Expected 2 modules with reexports, got %d", report.Summary.ModulesWithReexports)
	}
	if report.Metadata.TotalModulesScanned != 4 {
		t.Errorf("Expected 4 modules scanned, got %d", report.Metadata.TotalModulesScanned)
	}
	if report.ParseFailures() != 1 {
		t.Errorf("Expected 1 parse failure, got %d", report.ParseFailures())
	}
}

func TestBuildReportDoesNotMutateInput(t *testing.T) {
	analyses := []ModuleAnalysis{
		Resolve("pkg.b", nil, nil),
		Resolve("pkg.a", nil, nil),
	}

	BuildReport(Metadata{}, analyses)

	if analyses[0].ModulePath != "pkg.b" {
		t.Error("BuildReport must sort a copy, not the caller's slice")
	}
}
