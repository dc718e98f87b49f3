package parser

// Facts holds everything extracted from one entry-point module in a
// single pass over its syntax tree.
type Facts struct {
	Path       string // source file path, for diagnostics
	ModulePath string // dotted module path including the package root
	Bindings   []ImportBinding
	Exports    []string // names declared in __all__, in declaration order
}

// ImportBinding records one local name introduced by a from-import whose
// origin lies inside the upstream package.
type ImportBinding struct {
	LocalName    string // name usable inside the module (alias if present)
	OriginModule string // dotted module the name was imported from
	OriginalName string // name as declared in the origin module
	Location     Location
}

type Location struct {
	File   string
	Line   int
	Column int
}
