package report

import (
	"encoding/json"
	"fmt"

	"reexmap/internal/engine/resolver"
)

// JSONGenerator renders the canonical report document. The output is
// deterministic for identical inputs: struct fields serialize in
// declaration order, map keys sort, and no timestamp ever enters the
// document.
type JSONGenerator struct{}

func NewJSONGenerator() *JSONGenerator {
	return &JSONGenerator{}
}

func (g *JSONGenerator) Generate(result resolver.PackageReport) (string, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal package report: %w", err)
	}
	return string(data) + "\n", nil
}
