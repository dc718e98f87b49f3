package parser

import (
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"reexmap/internal/core/errors"
)

// PythonLanguage returns the tree-sitter Python grammar.
func PythonLanguage() *sitter.Language {
	return sitter.NewLanguage(tree_sitter_python.Language())
}

// Parser extracts re-export facts from Python entry-point modules.
// It is stateless apart from its parser pool and safe for concurrent use.
type Parser struct {
	upstream string
	pool     *ParserPool
}

func NewParser(upstream string) *Parser {
	return &Parser{
		upstream: upstream,
		pool:     NewParserPool(PythonLanguage()),
	}
}

// ExtractModule parses one module and collects its upstream import bindings
// and declared export list. A tree containing syntax errors fails with a
// PARSE_FAILURE so the caller can record the module and keep going.
func (p *Parser) ExtractModule(filePath, modulePath string, content []byte) (*Facts, error) {
	sp := p.pool.Get()
	defer p.pool.Put(sp)

	tree := sp.Parse(content, nil)
	if tree == nil {
		err := errors.New(errors.CodeParseFailure, "parser produced no tree")
		return nil, errors.AddContext(err, errors.CtxPath, filePath)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		loc := firstSyntaxError(root)
		msg := "syntax error"
		if loc != nil {
			msg = fmt.Sprintf("syntax error at line %d, column %d", int(loc.StartPosition().Row)+1, int(loc.StartPosition().Column)+1)
		}
		err := errors.New(errors.CodeParseFailure, msg)
		err = errors.AddContext(err, errors.CtxPath, filePath)
		return nil, errors.AddContext(err, errors.CtxModule, modulePath)
	}

	extractor := &ReexportExtractor{Upstream: p.upstream}
	facts, err := extractor.Extract(root, content, filePath, modulePath)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeParseFailure, "extraction failed")
	}
	return facts, nil
}

// PoolStats exposes the number of leased parsers for diagnostics.
func (p *Parser) PoolStats() int {
	return p.pool.Stats()
}

// firstSyntaxError locates the shallowest ERROR or missing node so parse
// failures can name a position instead of just the file.
func firstSyntaxError(node *sitter.Node) *sitter.Node {
	if node == nil {
		return nil
	}
	if node.IsError() || node.IsMissing() {
		return node
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || !child.HasError() {
			continue
		}
		if found := firstSyntaxError(child); found != nil {
			return found
		}
	}
	return nil
}
