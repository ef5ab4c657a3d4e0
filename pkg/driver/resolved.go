package driver

import (
	"sort"

	"yuho/core-go/pkg/ast"
)

// ResolvedProgram is a main program together with every module it reaches
// through imports, keyed by absolute file path.
type ResolvedProgram struct {
	Main     *ast.Program
	MainPath string
	Modules  map[string]*ast.Program
	// Symbols maps each imported name to the path of the module defining it.
	Symbols map[string]string
	// Origins records the file each node was parsed from.
	Origins map[ast.Node]string
}

func newResolvedProgram(main *ast.Program, mainPath string) *ResolvedProgram {
	resolved := &ResolvedProgram{
		Main:     main,
		MainPath: mainPath,
		Modules:  make(map[string]*ast.Program),
		Symbols:  make(map[string]string),
		Origins:  make(map[ast.Node]string),
	}
	ast.AnnotateOrigins(main, mainPath, resolved.Origins)
	return resolved
}

// ModulePaths returns the imported module paths in sorted order.
func (r *ResolvedProgram) ModulePaths() []string {
	paths := make([]string, 0, len(r.Modules))
	for path := range r.Modules {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// SymbolProgram returns the module that defines an imported symbol.
func (r *ResolvedProgram) SymbolProgram(name string) (*ast.Program, bool) {
	path, ok := r.Symbols[name]
	if !ok {
		return nil, false
	}
	program, ok := r.Modules[path]
	return program, ok
}

// AllPrograms returns the imported modules in path order followed by main.
func (r *ResolvedProgram) AllPrograms() []*ast.Program {
	out := make([]*ast.Program, 0, len(r.Modules)+1)
	for _, path := range r.ModulePaths() {
		out = append(out, r.Modules[path])
	}
	return append(out, r.Main)
}
