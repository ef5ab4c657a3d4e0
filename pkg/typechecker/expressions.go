package typechecker

import "yuho/core-go/pkg/ast"

func (c *Checker) checkExpr(expr ast.Expression) []Diagnostic {
	switch e := expr.(type) {
	case nil:
		return nil
	case *ast.Literal:
		return nil
	case *ast.Identifier:
		if c.isBoundIdentifier(e.Name) {
			return nil
		}
		return []Diagnostic{c.undefined(e, e.Name, "undefined identifier '%s'", e.Name)}
	case *ast.BinaryExpression:
		return append(c.checkExpr(e.Left), c.checkExpr(e.Right)...)
	case *ast.UnaryExpression:
		return c.checkExpr(e.Operand)
	case *ast.CallExpression:
		var diags []Diagnostic
		if fn, ok := c.symbols.Function(e.Callee); !ok {
			diags = append(diags, c.undefined(e, e.Callee, "undefined function '%s'", e.Callee))
		} else if len(fn.Params) != len(e.Arguments) {
			d := c.diag(TypeMismatch, e, "function '%s' expects %d argument(s), got %d", e.Callee, len(fn.Params), len(e.Arguments))
			d.Name = e.Callee
			d.ExpectedArity = len(fn.Params)
			d.GotArity = len(e.Arguments)
			diags = append(diags, d)
		}
		for _, arg := range e.Arguments {
			diags = append(diags, c.checkExpr(arg)...)
		}
		return diags
	case *ast.FieldAccess:
		diags := c.checkExpr(e.Object)
		if len(diags) > 0 {
			return diags
		}
		objType := c.inferExprType(e.Object)
		if structName, ok := c.structNameOf(objType); ok {
			if _, found := c.lookupField(structName, e.Field); !found {
				diags = append(diags, c.invalidField(e, structName, e.Field))
			}
		}
		return diags
	case *ast.StructLiteral:
		return c.checkStructInit(e)
	case *ast.MatchExpression:
		return c.checkMatch(e)
	case *ast.QuantifierExpression:
		diags := c.checkType(e.VarType)
		c.symbols.PushScope()
		c.symbols.PushQuantifierVar(e.Var, e.VarType)
		defer func() {
			c.symbols.PopQuantifierVar()
			c.symbols.PopScope()
		}()
		if err := c.symbols.Define(e.Var, e.VarType); err != nil {
			diags = append(diags, c.duplicate(e, e.Var))
		}
		return append(diags, c.checkExpr(e.Body)...)
	default:
		return nil
	}
}

// isBoundIdentifier accepts variables, quantifier-bound names, enum names and
// enum variants.
func (c *Checker) isBoundIdentifier(name string) bool {
	if _, ok := c.symbols.Lookup(name); ok {
		return true
	}
	if _, ok := c.symbols.LookupQuantifierVar(name); ok {
		return true
	}
	if _, ok := c.symbols.Enum(name); ok {
		return true
	}
	_, ok := c.symbols.EnumForVariant(name)
	return ok
}

// inferExprType is deliberately narrow: identifiers resolve through the
// symbol table, struct literals name their struct, and field access follows
// the owning struct's field list.
func (c *Checker) inferExprType(expr ast.Expression) ast.TypeExpression {
	switch e := expr.(type) {
	case *ast.Identifier:
		if typ, ok := c.symbols.Lookup(e.Name); ok {
			return typ
		}
		if typ, ok := c.symbols.LookupQuantifierVar(e.Name); ok {
			return typ
		}
		if _, ok := c.symbols.Enum(e.Name); ok {
			return ast.Named(e.Name)
		}
		// A variant shared by several enums has no single type.
		if enums := c.symbols.EnumsForVariant(e.Name); len(enums) == 1 {
			return ast.Named(enums[0].Name)
		}
	case *ast.StructLiteral:
		if e.StructName != "" {
			return ast.Named(e.StructName)
		}
	case *ast.FieldAccess:
		structName, ok := c.structNameOf(c.inferExprType(e.Object))
		if !ok {
			return nil
		}
		if field, found := c.lookupField(structName, e.Field); found {
			return field.Type
		}
	}
	return nil
}

// lookupField finds a field on a struct or any struct it extends.
func (c *Checker) lookupField(structName, field string) (FieldInfo, bool) {
	for _, f := range c.symbols.StructFields(structName) {
		if f.Name == field {
			return f, true
		}
	}
	return FieldInfo{}, false
}
