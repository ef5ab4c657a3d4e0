package driver

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/go-logr/logr"

	"yuho/core-go/pkg/ast"
)

// ModuleExtension is the file suffix probed for every imported module name.
const ModuleExtension = ".yh"

// ModuleResolver loads a main file and everything it imports, failing fast
// on missing modules, unreadable files and import cycles.
type ModuleResolver struct {
	root        string
	parser      Parser
	log         logr.Logger
	searchPaths []string
	cache       map[string]*ast.Program
	stack       []string
}

// ResolverOption configures a ModuleResolver.
type ResolverOption func(*ModuleResolver)

// WithLogger attaches a logger for module loading events.
func WithLogger(log logr.Logger) ResolverOption {
	return func(r *ModuleResolver) {
		r.log = log
	}
}

// WithSearchPaths appends extra search paths, relative to the root unless absolute.
func WithSearchPaths(paths ...string) ResolverOption {
	return func(r *ModuleResolver) {
		for _, p := range paths {
			r.AddSearchPath(p)
		}
	}
}

// NewModuleResolver constructs a resolver rooted at root. The default search
// paths are root, root/lib and root/stdlib, in that order.
func NewModuleResolver(root string, parser Parser, opts ...ResolverOption) *ModuleResolver {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	if parser == nil {
		parser = JSONParser{}
	}
	r := &ModuleResolver{
		root:        root,
		parser:      parser,
		log:         logr.Discard(),
		searchPaths: []string{root, filepath.Join(root, "lib"), filepath.Join(root, "stdlib")},
		cache:       make(map[string]*ast.Program),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Root returns the absolute resolver root.
func (r *ModuleResolver) Root() string {
	return r.root
}

// SearchPaths returns the search paths in probe order.
func (r *ModuleResolver) SearchPaths() []string {
	return slices.Clone(r.searchPaths)
}

// AddSearchPath appends a search path, relative to the root unless absolute.
func (r *ModuleResolver) AddSearchPath(path string) {
	if path == "" {
		return
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.root, path)
	}
	path = filepath.Clean(path)
	if slices.Contains(r.searchPaths, path) {
		return
	}
	r.searchPaths = append(r.searchPaths, path)
}

// Resolve parses mainFile (relative to the root unless absolute) and every
// module reachable from its imports. Each module is parsed once per call;
// nothing is cached across calls.
func (r *ModuleResolver) Resolve(mainFile string) (*ResolvedProgram, error) {
	mainPath := mainFile
	if !filepath.IsAbs(mainPath) {
		mainPath = filepath.Join(r.root, mainPath)
	}
	mainPath = filepath.Clean(mainPath)
	defer func() {
		r.stack = r.stack[:0]
		clear(r.cache)
	}()

	program, err := r.load(mainPath)
	if err != nil {
		return nil, err
	}
	resolved := newResolvedProgram(program, mainPath)
	r.stack = append(r.stack[:0], mainPath)
	if err := r.resolveImports(program, resolved); err != nil {
		return nil, err
	}
	r.log.V(1).Info("resolved program", "main", mainPath, "modules", len(resolved.Modules), "symbols", len(resolved.Symbols))
	return resolved, nil
}

// resolveImports walks the import graph depth first. A module on the stack
// is still being processed, so reaching it again closes a cycle.
func (r *ModuleResolver) resolveImports(program *ast.Program, resolved *ResolvedProgram) error {
	for _, imp := range program.Imports {
		modulePath, err := r.findModule(imp.From)
		if err != nil {
			return err
		}
		if slices.Contains(r.stack, modulePath) {
			cycle := make([]string, 0, len(r.stack)+1)
			for _, p := range r.stack {
				cycle = append(cycle, r.displayPath(p))
			}
			cycle = append(cycle, r.displayPath(modulePath))
			return &ResolveError{Kind: CircularImport, Path: modulePath, Module: imp.From, Cycle: cycle}
		}

		module, done := resolved.Modules[modulePath]
		if !done {
			module, err = r.load(modulePath)
			if err != nil {
				return err
			}
			resolved.Modules[modulePath] = module
			ast.AnnotateOrigins(module, modulePath, resolved.Origins)

			r.stack = append(r.stack, modulePath)
			if err := r.resolveImports(module, resolved); err != nil {
				return err
			}
			r.stack = r.stack[:len(r.stack)-1]
		}

		if err := verifySymbols(imp, module); err != nil {
			return err
		}
		for _, name := range imp.Names {
			if existing, ok := resolved.Symbols[name]; ok && existing != modulePath {
				return &ResolveError{
					Kind:   AmbiguousImport,
					Symbol: name,
					Module: imp.From,
					Paths:  []string{r.displayPath(existing), r.displayPath(modulePath)},
				}
			}
			resolved.Symbols[name] = modulePath
		}
	}
	return nil
}

// findModule probes every search path for <name>.yh, then the root-relative
// form for nested module names such as "common/person".
func (r *ModuleResolver) findModule(name string) (string, error) {
	file := filepath.FromSlash(name) + ModuleExtension
	searched := make([]string, 0, len(r.searchPaths)+1)
	for _, dir := range r.searchPaths {
		candidate := filepath.Join(dir, file)
		searched = append(searched, candidate)
		if isFile(candidate) {
			return candidate, nil
		}
	}
	nested := filepath.Join(r.root, filepath.FromSlash(name)) + ModuleExtension
	if !slices.Contains(searched, nested) {
		searched = append(searched, nested)
		if isFile(nested) {
			return nested, nil
		}
	}
	return "", &ResolveError{Kind: ModuleNotFound, Module: name, Searched: searched}
}

func (r *ModuleResolver) load(path string) (*ast.Program, error) {
	if program, ok := r.cache[path]; ok {
		return program, nil
	}
	source, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			r.log.V(1).Info("module file missing", "path", path)
		}
		return nil, &ResolveError{Kind: FileReadError, Path: path, Err: err}
	}
	program, err := r.parser.ParseProgram(path, source)
	if err != nil {
		return nil, &ResolveError{Kind: ParseError, Path: path, Err: err}
	}
	if program == nil {
		return nil, &ResolveError{Kind: ParseError, Path: path, Err: fmt.Errorf("parser returned no program")}
	}
	r.cache[path] = program
	r.log.V(2).Info("parsed module", "path", path, "items", len(program.Items))
	return program, nil
}

// verifySymbols checks every requested name is a top-level struct, enum,
// function or scope of the target module.
func verifySymbols(imp *ast.ImportStatement, module *ast.Program) error {
	available := make(map[string]struct{}, len(module.Items))
	for _, item := range module.Items {
		switch it := item.(type) {
		case *ast.StructDefinition:
			available[it.Name] = struct{}{}
		case *ast.EnumDefinition:
			available[it.Name] = struct{}{}
		case *ast.FunctionDefinition:
			available[it.Name] = struct{}{}
		case *ast.Scope:
			available[it.Name] = struct{}{}
		}
	}
	for _, name := range imp.Names {
		if _, ok := available[name]; !ok {
			return &ResolveError{Kind: SymbolNotFound, Symbol: name, Module: imp.From}
		}
	}
	return nil
}

func (r *ModuleResolver) displayPath(path string) string {
	if rel, err := filepath.Rel(r.root, path); err == nil && !filepath.IsAbs(rel) && rel != "" && rel[0] != '.' {
		return filepath.ToSlash(rel)
	}
	return path
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
