package typechecker

import (
	"unicode"

	"yuho/core-go/pkg/ast"
)

// checkType validates a type expression against the current symbol table.
func (c *Checker) checkType(t ast.TypeExpression) []Diagnostic {
	switch typ := t.(type) {
	case nil:
		return nil
	case *ast.PrimitiveType, *ast.MoneyWithCurrencyType:
		return nil
	case *ast.NamedType:
		if c.isDeclaredTypeName(typ.Name) || c.symbols.IsTypeParamInScope(typ.Name) {
			return nil
		}
		return []Diagnostic{c.undefined(typ, typ.Name, "undefined type '%s'", typ.Name)}
	case *ast.UnionType:
		return append(c.checkType(typ.Left), c.checkType(typ.Right)...)
	case *ast.BoundedIntType:
		if typ.Min >= typ.Max {
			return []Diagnostic{c.invalidRange(typ, typ.Min, typ.Max)}
		}
		return nil
	case *ast.NonEmptyType:
		return c.checkType(typ.Inner)
	case *ast.ArrayType:
		return c.checkType(typ.Element)
	case *ast.PositiveType:
		if !isPositiveInner(c.resolveAlias(typ.Inner)) {
			return []Diagnostic{c.invalidConstraint(typ, "Positive requires a numeric type, got %s", ast.TypeString(typ.Inner))}
		}
		return nil
	case *ast.ValidDateType:
		return c.checkDateWindow(typ, typ.After, typ.Before, "ValidDate")
	case *ast.TemporalValueType:
		diags := c.checkType(typ.Inner)
		return append(diags, c.checkDateWindow(typ, typ.ValidFrom, typ.ValidUntil, "Temporal")...)
	case *ast.CitationType:
		var diags []Diagnostic
		for _, part := range []struct{ label, value string }{
			{"section", typ.Section},
			{"subsection", typ.Subsection},
			{"act", typ.Act},
		} {
			if part.value == "" {
				diags = append(diags, c.invalidConstraint(typ, "Citation %s must not be empty", part.label))
			}
		}
		return diags
	case *ast.GenericType:
		return c.checkGenericType(typ)
	case *ast.TypeVariable:
		var diags []Diagnostic
		if !c.symbols.IsTypeParamInScope(typ.Name) {
			d := c.diag(UnboundTypeVariable, typ, "unbound type variable '%s'", typ.Name)
			d.Name = typ.Name
			diags = append(diags, d)
		}
		if !startsUpper(typ.Name) {
			d := c.invalidConstraint(typ, "type variable '%s' should start with an uppercase letter", typ.Name)
			d.Severity = SeverityWarning
			d.Name = typ.Name
			diags = append(diags, d)
		}
		return diags
	default:
		return nil
	}
}

func (c *Checker) checkGenericType(typ *ast.GenericType) []Diagnostic {
	var diags []Diagnostic
	if info, ok := c.symbols.Struct(typ.Name); ok {
		if len(info.TypeParams) != len(typ.Arguments) {
			diags = append(diags, c.arityMismatch(typ, typ.Name, len(info.TypeParams), len(typ.Arguments)))
		}
	} else if alias, ok := c.symbols.TypeAlias(typ.Name); ok {
		if len(alias.Params) != len(typ.Arguments) {
			diags = append(diags, c.arityMismatch(typ, typ.Name, len(alias.Params), len(typ.Arguments)))
		}
	} else if _, ok := c.symbols.Enum(typ.Name); ok {
		d := c.typeMismatch(typ, "generic struct", "enum "+typ.Name)
		d.Message = "typechecker: enum '" + typ.Name + "' does not take type arguments"
		d.Name = typ.Name
		diags = append(diags, d)
	} else {
		diags = append(diags, c.undefined(typ, typ.Name, "undefined generic type '%s'", typ.Name))
	}
	for _, arg := range typ.Arguments {
		diags = append(diags, c.checkType(arg)...)
	}
	return diags
}

func (c *Checker) checkDateWindow(node ast.Node, from, until *string, label string) []Diagnostic {
	var diags []Diagnostic
	var parsed [2]bool
	for i, raw := range []*string{from, until} {
		if raw == nil {
			continue
		}
		if _, err := c.dates.Parse(*raw); err != nil {
			diags = append(diags, c.invalidConstraint(node, "%s: %v", label, err))
			continue
		}
		parsed[i] = true
	}
	if parsed[0] && parsed[1] {
		cmp, err := c.dates.Compare(*from, *until)
		if err == nil && cmp >= 0 {
			diags = append(diags, c.invalidConstraint(node, "%s: %s must be before %s", label, *from, *until))
		}
	}
	return diags
}

func (c *Checker) isDeclaredTypeName(name string) bool {
	if _, ok := c.symbols.Struct(name); ok {
		return true
	}
	if _, ok := c.symbols.Enum(name); ok {
		return true
	}
	_, ok := c.symbols.TypeAlias(name)
	return ok
}

// resolveAlias follows non-generic type aliases to their target.
func (c *Checker) resolveAlias(t ast.TypeExpression) ast.TypeExpression {
	seen := make(map[string]bool)
	for {
		named, ok := t.(*ast.NamedType)
		if !ok || seen[named.Name] {
			return t
		}
		seen[named.Name] = true
		alias, ok := c.symbols.TypeAlias(named.Name)
		if !ok || len(alias.Params) > 0 {
			return t
		}
		t = alias.Target
	}
}

// structNameOf returns the struct a type refers to, looking through aliases.
func (c *Checker) structNameOf(t ast.TypeExpression) (string, bool) {
	switch typ := c.resolveAlias(t).(type) {
	case *ast.NamedType:
		if _, ok := c.symbols.Struct(typ.Name); ok {
			return typ.Name, true
		}
	case *ast.GenericType:
		if _, ok := c.symbols.Struct(typ.Name); ok {
			return typ.Name, true
		}
	}
	return "", false
}

func isBoolType(t ast.TypeExpression) bool {
	prim, ok := t.(*ast.PrimitiveType)
	return ok && prim.Kind == ast.PrimitiveBool
}

func isPositiveInner(t ast.TypeExpression) bool {
	switch typ := t.(type) {
	case *ast.PrimitiveType:
		switch typ.Kind {
		case ast.PrimitiveInt, ast.PrimitiveFloat, ast.PrimitiveMoney, ast.PrimitivePercent:
			return true
		}
	case *ast.MoneyWithCurrencyType:
		return true
	}
	return false
}

// isOrderedType reports whether ordering comparisons are meaningful for t.
func isOrderedType(t ast.TypeExpression) bool {
	switch typ := t.(type) {
	case *ast.PrimitiveType:
		switch typ.Kind {
		case ast.PrimitiveInt, ast.PrimitiveFloat, ast.PrimitiveMoney, ast.PrimitiveDate,
			ast.PrimitiveDuration, ast.PrimitivePercent:
			return true
		}
	case *ast.MoneyWithCurrencyType, *ast.BoundedIntType, *ast.PositiveType, *ast.ValidDateType:
		return true
	case *ast.TemporalValueType:
		return isOrderedType(typ.Inner)
	}
	return false
}

// isRangeType reports whether `in min..max` is meaningful for t.
func isRangeType(t ast.TypeExpression) bool {
	switch typ := t.(type) {
	case *ast.PrimitiveType:
		switch typ.Kind {
		case ast.PrimitiveInt, ast.PrimitiveFloat, ast.PrimitiveMoney, ast.PrimitivePercent:
			return true
		}
	case *ast.MoneyWithCurrencyType, *ast.BoundedIntType, *ast.PositiveType:
		return true
	}
	return false
}

// takesTemporalConstraint reports whether before, after and between may
// constrain a field of type t. A TemporalValue qualifies whatever it wraps.
func takesTemporalConstraint(t ast.TypeExpression) bool {
	switch typ := t.(type) {
	case *ast.PrimitiveType:
		return typ.Kind == ast.PrimitiveDate
	case *ast.ValidDateType, *ast.TemporalValueType:
		return true
	}
	return false
}

func startsUpper(name string) bool {
	for _, r := range name {
		return unicode.IsUpper(r)
	}
	return false
}
