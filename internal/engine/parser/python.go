package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// ReexportExtractor collects upstream import bindings and __all__ export
// declarations from a Python module in one tree walk.
//
// Only absolute from-imports whose origin is the upstream package itself
// or one of its submodules produce bindings. Relative imports, wildcard
// imports, and plain import statements never do.
type ReexportExtractor struct {
	Upstream string
}

func (e *ReexportExtractor) Extract(root *sitter.Node, source []byte, filePath, modulePath string) (*Facts, error) {
	facts := &Facts{
		Path:       filePath,
		ModulePath: modulePath,
	}

	ctx := &ExtractionContext{Source: source, Facts: facts}
	engine := NewExtractorEngine(map[string]NodeHandler{
		"import_from_statement": e.extractFromImport,
		"assignment":            e.extractExportList,
		"augmented_assignment":  e.extractExportList,
	})
	engine.Walk(ctx, root)

	return facts, nil
}

func (e *ReexportExtractor) extractFromImport(ctx *ExtractionContext, node *sitter.Node) bool {
	module := node.ChildByFieldName("module_name")
	if module == nil || module.Kind() == "relative_import" {
		return true
	}

	origin := ctx.Text(module)
	if !e.originMatchesUpstream(origin) {
		return true
	}

	// Imported names follow the anonymous "import" keyword child.
	seenImportKeyword := false
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "import":
			seenImportKeyword = true
		case "wildcard_import":
			// Star imports carry no nameable bindings.
			return true
		case "dotted_name", "identifier":
			if !seenImportKeyword {
				continue
			}
			name := ctx.Text(child)
			ctx.Facts.Bindings = append(ctx.Facts.Bindings, ImportBinding{
				LocalName:    name,
				OriginModule: origin,
				OriginalName: name,
				Location:     ctx.Location(child),
			})
		case "aliased_import":
			name := ctx.Text(child.ChildByFieldName("name"))
			alias := ctx.Text(child.ChildByFieldName("alias"))
			if name == "" {
				continue
			}
			local := alias
			if local == "" {
				local = name
			}
			ctx.Facts.Bindings = append(ctx.Facts.Bindings, ImportBinding{
				LocalName:    local,
				OriginModule: origin,
				OriginalName: name,
				Location:     ctx.Location(child),
			})
		}
	}
	return true
}

// originMatchesUpstream accepts the upstream package itself and any of its
// submodules, comparing whole dotted segments so that a package named
// "upstream_extras" never matches "upstream".
func (e *ReexportExtractor) originMatchesUpstream(origin string) bool {
	if e.Upstream == "" {
		return false
	}
	return origin == e.Upstream || strings.HasPrefix(origin, e.Upstream+".")
}

// extractExportList handles `__all__ = [...]` and `__all__ += [...]`.
// Repeated declarations append in source order. Only list and tuple
// literals of plain string constants contribute entries; anything else
// is skipped without failing the module.
func (e *ReexportExtractor) extractExportList(ctx *ExtractionContext, node *sitter.Node) bool {
	left := node.ChildByFieldName("left")
	if left == nil || left.Kind() != "identifier" || ctx.Text(left) != "__all__" {
		return false
	}

	right := node.ChildByFieldName("right")
	if right == nil {
		// Bare annotation (`__all__: list[str]`) declares nothing.
		return true
	}

	if right.Kind() != "list" && right.Kind() != "tuple" {
		return true
	}

	for i := uint(0); i < right.ChildCount(); i++ {
		if name, ok := e.stringConstant(ctx, right.Child(i)); ok {
			ctx.Facts.Exports = append(ctx.Facts.Exports, name)
		}
	}
	return true
}

// stringConstant resolves a node to a plain string constant. F-strings,
// byte strings, and interpolations are not constants and are rejected.
// Adjacent string literals concatenate the way Python evaluates them.
func (e *ReexportExtractor) stringConstant(ctx *ExtractionContext, node *sitter.Node) (string, bool) {
	if node == nil {
		return "", false
	}

	switch node.Kind() {
	case "string":
		var b strings.Builder
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			switch child.Kind() {
			case "string_start":
				prefix := strings.ToLower(ctx.Text(child))
				if strings.ContainsAny(prefix, "fb") {
					return "", false
				}
			case "string_content", "escape_sequence":
				b.WriteString(ctx.Text(child))
			case "interpolation":
				return "", false
			}
		}
		return b.String(), true
	case "concatenated_string":
		var b strings.Builder
		for i := uint(0); i < node.ChildCount(); i++ {
			part, ok := e.stringConstant(ctx, node.Child(i))
			if !ok {
				return "", false
			}
			b.WriteString(part)
		}
		return b.String(), true
	}
	return "", false
}
