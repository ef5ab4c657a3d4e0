package typechecker

import (
	"github.com/go-logr/logr"

	"yuho/core-go/pkg/ast"
	"yuho/core-go/pkg/dates"
	"yuho/core-go/pkg/driver"
)

// Checker validates Yuho programs and records diagnostics. A Checker can be
// reused; every check pass starts from a fresh symbol table.
type Checker struct {
	symbols     *SymbolTable
	dates       *dates.Parser
	log         logr.Logger
	origins     map[ast.Node]string
	currentPath string
}

// Option configures a Checker.
type Option func(*Checker)

// WithDateParser overrides the date formats accepted in ValidDate, Temporal
// and date constraints.
func WithDateParser(parser *dates.Parser) Option {
	return func(c *Checker) {
		if parser != nil {
			c.dates = parser
		}
	}
}

// WithLogger attaches a logger for pass-level tracing.
func WithLogger(log logr.Logger) Option {
	return func(c *Checker) {
		c.log = log
	}
}

// New returns a checker instance.
func New(opts ...Option) *Checker {
	c := &Checker{
		symbols: NewSymbolTable(),
		dates:   dates.Default(),
		log:     logr.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetNodeOrigins configures a lookup table used to annotate diagnostics with
// source file paths.
func (c *Checker) SetNodeOrigins(origins map[ast.Node]string) {
	c.origins = origins
}

// Symbols exposes the symbol table populated by the most recent check pass.
func (c *Checker) Symbols() *SymbolTable {
	return c.symbols
}

func (c *Checker) reset() {
	c.symbols = NewSymbolTable()
	c.currentPath = ""
}

// CheckProgram validates a single program and returns every diagnostic found.
func (c *Checker) CheckProgram(program *ast.Program) []Diagnostic {
	c.reset()
	if program == nil {
		return nil
	}
	diags := c.collectDefinitions(program.Items)
	diags = append(diags, c.checkItems(program.Items)...)
	c.log.V(1).Info("checked program", "items", len(program.Items), "diagnostics", len(diags))
	return diags
}

// CheckWithImports validates a resolved module graph. Definitions from every
// imported module are collected before the main program's, so imported
// structs and enums are visible everywhere. Module-level declarations are
// checked in a scope of their own per file.
func (c *Checker) CheckWithImports(resolved *driver.ResolvedProgram) []Diagnostic {
	c.reset()
	if resolved == nil || resolved.Main == nil {
		return nil
	}
	if resolved.Origins != nil {
		c.origins = resolved.Origins
	}
	paths := resolved.ModulePaths()

	var diags []Diagnostic
	for _, path := range paths {
		c.currentPath = path
		diags = append(diags, c.collectDefinitions(resolved.Modules[path].Items)...)
	}
	c.currentPath = resolved.MainPath
	diags = append(diags, c.collectDefinitions(resolved.Main.Items)...)

	for _, path := range paths {
		c.currentPath = path
		c.symbols.PushScope()
		diags = append(diags, c.checkItems(resolved.Modules[path].Items)...)
		c.symbols.PopScope()
	}
	c.currentPath = resolved.MainPath
	diags = append(diags, c.checkItems(resolved.Main.Items)...)
	c.log.V(1).Info("checked module graph", "modules", len(paths)+1, "diagnostics", len(diags))
	return diags
}

// collectDefinitions registers every top-level definition so bodies may refer
// to items declared later in the file.
func (c *Checker) collectDefinitions(items []ast.Item) []Diagnostic {
	var diags []Diagnostic
	for _, item := range items {
		switch it := item.(type) {
		case *ast.Scope:
			diags = append(diags, c.collectDefinitions(it.Items)...)
		case *ast.StructDefinition:
			info := &StructInfo{Name: it.Name, TypeParams: it.TypeParams, Extends: it.Extends, Node: it}
			for _, field := range it.Fields {
				info.Fields = append(info.Fields, FieldInfo{
					Name:        field.Name,
					Type:        field.FieldType,
					Constraints: field.Constraints,
					Node:        field,
				})
			}
			if err := c.symbols.DefineStruct(info); err != nil {
				diags = append(diags, c.duplicate(it, it.Name))
			}
		case *ast.EnumDefinition:
			info := &EnumInfo{Name: it.Name, Variants: it.Variants, MutuallyExclusive: it.MutuallyExclusive, Node: it}
			if err := c.symbols.DefineEnum(info); err != nil {
				diags = append(diags, c.duplicate(it, it.Name))
			}
		case *ast.FunctionDefinition:
			info := &FunctionInfo{Name: it.Name, TypeParams: it.TypeParams, Params: it.Params, Return: it.ReturnType, Node: it}
			if err := c.symbols.DefineFunction(info); err != nil {
				diags = append(diags, c.duplicate(it, it.Name))
			}
		case *ast.TypeAliasDefinition:
			info := &TypeAliasInfo{Name: it.Name, Params: it.TypeParams, Target: it.Target, Node: it}
			if err := c.symbols.DefineTypeAlias(info); err != nil {
				diags = append(diags, c.duplicate(it, it.Name))
			}
		case *ast.LegalTestDefinition:
			info := &LegalTestInfo{Name: it.Name, Node: it}
			for _, req := range it.Requirements {
				info.Requirements = append(info.Requirements, RequirementInfo{Name: req.Name, Type: req.RequirementType})
			}
			if err := c.symbols.DefineLegalTest(info); err != nil {
				diags = append(diags, c.duplicate(it, it.Name))
			}
		}
	}
	return diags
}

func (c *Checker) checkItems(items []ast.Item) []Diagnostic {
	var diags []Diagnostic
	for _, item := range items {
		diags = append(diags, c.checkItem(item)...)
	}
	return diags
}

func (c *Checker) checkItem(item ast.Item) []Diagnostic {
	switch it := item.(type) {
	case *ast.Scope:
		c.symbols.PushScope()
		defer c.symbols.PopScope()
		return c.checkItems(it.Items)
	case *ast.StructDefinition:
		return c.checkStructDefinition(it)
	case *ast.EnumDefinition:
		return nil
	case *ast.FunctionDefinition:
		return c.checkFunction(it)
	case *ast.Declaration:
		return c.checkDeclaration(it)
	case *ast.TypeAliasDefinition:
		c.symbols.PushTypeParams(it.TypeParams)
		defer c.symbols.PopTypeParams()
		return c.checkType(it.Target)
	case *ast.LegalTestDefinition:
		return c.checkLegalTest(it)
	case *ast.PrincipleDefinition:
		return c.checkExpr(it.Body)
	case *ast.ProvisoDefinition:
		return c.checkProviso(it)
	case *ast.ConflictCheck:
		return nil
	default:
		return nil
	}
}

func (c *Checker) checkStructDefinition(def *ast.StructDefinition) []Diagnostic {
	var diags []Diagnostic
	if def.Extends != "" {
		if _, ok := c.symbols.Struct(def.Extends); !ok {
			diags = append(diags, c.undefined(def, def.Extends, "parent struct '%s' not found", def.Extends))
		}
	}
	c.symbols.PushTypeParams(def.TypeParams)
	defer c.symbols.PopTypeParams()
	seen := make(map[string]bool, len(def.Fields))
	for _, field := range def.Fields {
		if seen[field.Name] {
			diags = append(diags, c.duplicate(field, field.Name))
		}
		seen[field.Name] = true
		diags = append(diags, c.checkType(field.FieldType)...)
		for _, constraint := range field.Constraints {
			diags = append(diags, c.validateConstraint(constraint, field.FieldType)...)
		}
	}
	return diags
}

func (c *Checker) checkFunction(fn *ast.FunctionDefinition) []Diagnostic {
	var diags []Diagnostic
	c.symbols.PushScope()
	c.symbols.PushTypeParams(fn.TypeParams)
	defer func() {
		c.symbols.PopTypeParams()
		c.symbols.PopScope()
	}()
	for _, param := range fn.Params {
		diags = append(diags, c.checkType(param.ParamType)...)
		if err := c.symbols.Define(param.Name, param.ParamType); err != nil {
			diags = append(diags, c.duplicate(param, param.Name))
		}
	}
	if fn.ReturnType != nil {
		diags = append(diags, c.checkType(fn.ReturnType)...)
	}
	if fn.Requires != nil {
		diags = append(diags, c.checkExpr(fn.Requires)...)
	}
	for _, stmt := range fn.Body {
		diags = append(diags, c.checkStatement(stmt)...)
	}
	return diags
}

func (c *Checker) checkLegalTest(test *ast.LegalTestDefinition) []Diagnostic {
	var diags []Diagnostic
	for _, req := range test.Requirements {
		diags = append(diags, c.checkType(req.RequirementType)...)
		if !isBoolType(req.RequirementType) {
			diags = append(diags, c.typeMismatch(req, "bool", ast.TypeString(req.RequirementType)))
		}
	}
	return diags
}

func (c *Checker) checkProviso(proviso *ast.ProvisoDefinition) []Diagnostic {
	diags := c.checkExpr(proviso.Condition)
	if proviso.AppliesTo != "" && !c.isKnownDefinition(proviso.AppliesTo) {
		diags = append(diags, c.undefined(proviso, proviso.AppliesTo, "proviso applies to unknown definition '%s'", proviso.AppliesTo))
	}
	c.symbols.PushScope()
	defer c.symbols.PopScope()
	for _, stmt := range proviso.Exception {
		diags = append(diags, c.checkStatement(stmt)...)
	}
	return diags
}

func (c *Checker) isKnownDefinition(name string) bool {
	if _, ok := c.symbols.Struct(name); ok {
		return true
	}
	if _, ok := c.symbols.Enum(name); ok {
		return true
	}
	if _, ok := c.symbols.Function(name); ok {
		return true
	}
	if _, ok := c.symbols.LegalTest(name); ok {
		return true
	}
	_, ok := c.symbols.Lookup(name)
	return ok
}

func (c *Checker) checkStatement(stmt ast.Statement) []Diagnostic {
	switch s := stmt.(type) {
	case *ast.Declaration:
		return c.checkDeclaration(s)
	case *ast.Assignment:
		var diags []Diagnostic
		if _, ok := c.symbols.Lookup(s.Target); !ok {
			diags = append(diags, c.undefined(s, s.Target, "undefined variable '%s'", s.Target))
		}
		return append(diags, c.checkExpr(s.Value)...)
	case *ast.ReturnStatement:
		if s.Argument == nil {
			return nil
		}
		return c.checkExpr(s.Argument)
	case *ast.MatchExpression:
		return c.checkMatch(s)
	case *ast.PassStatement:
		return nil
	default:
		return nil
	}
}

func (c *Checker) checkDeclaration(decl *ast.Declaration) []Diagnostic {
	typeDiags := c.checkType(decl.DeclType)
	diags := append([]Diagnostic(nil), typeDiags...)
	if decl.Value != nil {
		diags = append(diags, c.checkExpr(decl.Value)...)
		if len(typeDiags) == 0 {
			if implied := c.impliedConstraints(decl.DeclType); len(implied) > 0 {
				diags = append(diags, c.checkConstraintsSatisfied(decl.Value, implied, decl.Name)...)
			}
		}
	}
	if err := c.symbols.Define(decl.Name, decl.DeclType); err != nil {
		diags = append(diags, c.duplicate(decl, decl.Name))
	}
	return diags
}
