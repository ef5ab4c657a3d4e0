package typechecker

import (
	"errors"
	"fmt"

	"yuho/core-go/pkg/ast"
)

// ErrDuplicate is wrapped by every redefinition error the symbol table returns.
var ErrDuplicate = errors.New("duplicate definition")

type FieldInfo struct {
	Name        string
	Type        ast.TypeExpression
	Constraints []ast.Constraint
	Node        *ast.FieldDefinition
}

type StructInfo struct {
	Name       string
	Fields     []FieldInfo
	TypeParams []string
	Extends    string
	Node       *ast.StructDefinition
}

// Field returns the named field declared directly on the struct.
func (s *StructInfo) Field(name string) (FieldInfo, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldInfo{}, false
}

type EnumInfo struct {
	Name              string
	Variants          []string
	MutuallyExclusive bool
	Node              *ast.EnumDefinition
}

// HasVariant reports whether name is one of the enum's variants.
func (e *EnumInfo) HasVariant(name string) bool {
	for _, v := range e.Variants {
		if v == name {
			return true
		}
	}
	return false
}

type FunctionInfo struct {
	Name       string
	TypeParams []string
	Params     []*ast.Parameter
	Return     ast.TypeExpression
	Node       *ast.FunctionDefinition
}

type TypeAliasInfo struct {
	Name   string
	Params []string
	Target ast.TypeExpression
	Node   *ast.TypeAliasDefinition
}

type RequirementInfo struct {
	Name string
	Type ast.TypeExpression
}

type LegalTestInfo struct {
	Name         string
	Requirements []RequirementInfo
	Node         *ast.LegalTestDefinition
}

type quantifierBinding struct {
	name string
	typ  ast.TypeExpression
}

// SymbolTable tracks lexical scopes, in-scope type parameters, quantifier-bound
// variables and the flat namespaces for top-level definitions.
type SymbolTable struct {
	root        *Environment
	scope       *Environment
	typeParams  [][]string
	quantifiers []quantifierBinding

	structs    map[string]*StructInfo
	enums      map[string]*EnumInfo
	enumOrder  []string
	functions  map[string]*FunctionInfo
	aliases    map[string]*TypeAliasInfo
	legalTests map[string]*LegalTestInfo
}

// NewSymbolTable returns a table holding a single root scope.
func NewSymbolTable() *SymbolTable {
	root := NewEnvironment(nil)
	return &SymbolTable{
		root:       root,
		scope:      root,
		structs:    make(map[string]*StructInfo),
		enums:      make(map[string]*EnumInfo),
		functions:  make(map[string]*FunctionInfo),
		aliases:    make(map[string]*TypeAliasInfo),
		legalTests: make(map[string]*LegalTestInfo),
	}
}

func (s *SymbolTable) PushScope() {
	s.scope = s.scope.Extend()
}

// PopScope discards the innermost scope. Popping the root scope is a
// programming error.
func (s *SymbolTable) PopScope() {
	if s.scope.Parent() == nil {
		panic("typechecker: pop of root scope")
	}
	s.scope = s.scope.Parent()
}

// Depth returns the number of open scopes, counting the root.
func (s *SymbolTable) Depth() int {
	depth := 0
	for env := s.scope; env != nil; env = env.Parent() {
		depth++
	}
	return depth
}

// Define binds name in the innermost scope. Shadowing an outer binding is allowed.
func (s *SymbolTable) Define(name string, typ ast.TypeExpression) error {
	if !s.scope.Define(name, typ) {
		return fmt.Errorf("%w: '%s'", ErrDuplicate, name)
	}
	return nil
}

func (s *SymbolTable) Lookup(name string) (ast.TypeExpression, bool) {
	return s.scope.Lookup(name)
}

func (s *SymbolTable) PushTypeParams(names []string) {
	frame := append([]string(nil), names...)
	s.typeParams = append(s.typeParams, frame)
}

func (s *SymbolTable) PopTypeParams() {
	if len(s.typeParams) == 0 {
		return
	}
	s.typeParams = s.typeParams[:len(s.typeParams)-1]
}

// IsTypeParamInScope searches every open type-parameter frame.
func (s *SymbolTable) IsTypeParamInScope(name string) bool {
	for i := len(s.typeParams) - 1; i >= 0; i-- {
		for _, param := range s.typeParams[i] {
			if param == name {
				return true
			}
		}
	}
	return false
}

func (s *SymbolTable) PushQuantifierVar(name string, typ ast.TypeExpression) {
	s.quantifiers = append(s.quantifiers, quantifierBinding{name: name, typ: typ})
}

func (s *SymbolTable) PopQuantifierVar() {
	if len(s.quantifiers) == 0 {
		return
	}
	s.quantifiers = s.quantifiers[:len(s.quantifiers)-1]
}

// LookupQuantifierVar returns the innermost quantifier binding for name.
func (s *SymbolTable) LookupQuantifierVar(name string) (ast.TypeExpression, bool) {
	for i := len(s.quantifiers) - 1; i >= 0; i-- {
		if s.quantifiers[i].name == name {
			return s.quantifiers[i].typ, true
		}
	}
	return nil, false
}

func (s *SymbolTable) DefineStruct(info *StructInfo) error {
	if _, exists := s.structs[info.Name]; exists {
		return fmt.Errorf("%w: struct '%s'", ErrDuplicate, info.Name)
	}
	s.structs[info.Name] = info
	return nil
}

func (s *SymbolTable) DefineEnum(info *EnumInfo) error {
	if _, exists := s.enums[info.Name]; exists {
		return fmt.Errorf("%w: enum '%s'", ErrDuplicate, info.Name)
	}
	s.enums[info.Name] = info
	s.enumOrder = append(s.enumOrder, info.Name)
	return nil
}

func (s *SymbolTable) DefineFunction(info *FunctionInfo) error {
	if _, exists := s.functions[info.Name]; exists {
		return fmt.Errorf("%w: function '%s'", ErrDuplicate, info.Name)
	}
	s.functions[info.Name] = info
	return nil
}

func (s *SymbolTable) DefineTypeAlias(info *TypeAliasInfo) error {
	if _, exists := s.aliases[info.Name]; exists {
		return fmt.Errorf("%w: type alias '%s'", ErrDuplicate, info.Name)
	}
	s.aliases[info.Name] = info
	return nil
}

func (s *SymbolTable) DefineLegalTest(info *LegalTestInfo) error {
	if _, exists := s.legalTests[info.Name]; exists {
		return fmt.Errorf("%w: legal test '%s'", ErrDuplicate, info.Name)
	}
	s.legalTests[info.Name] = info
	return nil
}

func (s *SymbolTable) Struct(name string) (*StructInfo, bool) {
	info, ok := s.structs[name]
	return info, ok
}

func (s *SymbolTable) Enum(name string) (*EnumInfo, bool) {
	info, ok := s.enums[name]
	return info, ok
}

func (s *SymbolTable) Function(name string) (*FunctionInfo, bool) {
	info, ok := s.functions[name]
	return info, ok
}

func (s *SymbolTable) TypeAlias(name string) (*TypeAliasInfo, bool) {
	info, ok := s.aliases[name]
	return info, ok
}

func (s *SymbolTable) LegalTest(name string) (*LegalTestInfo, bool) {
	info, ok := s.legalTests[name]
	return info, ok
}

// EnumForVariant returns the first enum, in declaration order, that
// declares the given variant.
func (s *SymbolTable) EnumForVariant(variant string) (*EnumInfo, bool) {
	for _, name := range s.enumOrder {
		if info := s.enums[name]; info.HasVariant(variant) {
			return info, true
		}
	}
	return nil, false
}

// EnumsForVariant returns every enum declaring the variant, in declaration
// order.
func (s *SymbolTable) EnumsForVariant(variant string) []*EnumInfo {
	var out []*EnumInfo
	for _, name := range s.enumOrder {
		if info := s.enums[name]; info.HasVariant(variant) {
			out = append(out, info)
		}
	}
	return out
}

// StructFields returns the struct's fields with inherited fields first,
// following the extends chain until it ends or loops.
func (s *SymbolTable) StructFields(name string) []FieldInfo {
	var chain []*StructInfo
	seen := make(map[string]bool)
	for current := name; current != "" && !seen[current]; {
		seen[current] = true
		info, ok := s.structs[current]
		if !ok {
			break
		}
		chain = append(chain, info)
		current = info.Extends
	}
	var fields []FieldInfo
	for i := len(chain) - 1; i >= 0; i-- {
		fields = append(fields, chain[i].Fields...)
	}
	return fields
}
