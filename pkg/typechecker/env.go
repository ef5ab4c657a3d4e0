package typechecker

import "yuho/core-go/pkg/ast"

// Environment represents a lexical scope used during typechecking. A nil
// type records a binding whose type is unknown.
type Environment struct {
	parent  *Environment
	symbols map[string]ast.TypeExpression
}

// NewEnvironment creates a new environment with an optional parent.
func NewEnvironment(parent *Environment) *Environment {
	return &Environment{
		parent:  parent,
		symbols: make(map[string]ast.TypeExpression),
	}
}

// Define binds a name in the current scope. It reports false when the name
// is already bound in this scope.
func (e *Environment) Define(name string, typ ast.TypeExpression) bool {
	if _, exists := e.symbols[name]; exists {
		return false
	}
	e.symbols[name] = typ
	return true
}

// Lookup searches for a name in the current scope chain.
func (e *Environment) Lookup(name string) (ast.TypeExpression, bool) {
	if typ, ok := e.symbols[name]; ok {
		return typ, true
	}
	if e.parent != nil {
		return e.parent.Lookup(name)
	}
	return nil, false
}

// Extend returns a child environment.
func (e *Environment) Extend() *Environment {
	return NewEnvironment(e)
}

// Parent returns the enclosing environment, or nil at the root.
func (e *Environment) Parent() *Environment {
	return e.parent
}
