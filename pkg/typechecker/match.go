package typechecker

import "yuho/core-go/pkg/ast"

// checkMatch reports every case after the first wildcard as unreachable and
// a match with no wildcard at all as non-exhaustive.
func (c *Checker) checkMatch(match *ast.MatchExpression) []Diagnostic {
	diags := c.checkExpr(match.Scrutinee)
	scrutineeType := c.inferExprType(match.Scrutinee)
	seenWildcard := false
	for _, mc := range match.Cases {
		if seenWildcard {
			diags = append(diags, c.diag(UnreachableCase, mc, "unreachable case after wildcard"))
		}
		c.symbols.PushScope()
		diags = append(diags, c.checkPattern(mc.Pattern, scrutineeType)...)
		if mc.Guard != nil {
			diags = append(diags, c.checkExpr(mc.Guard)...)
		}
		diags = append(diags, c.checkExpr(mc.Consequence)...)
		c.symbols.PopScope()
		if _, ok := mc.Pattern.(*ast.WildcardPattern); ok {
			seenWildcard = true
		}
	}
	if !seenWildcard {
		diags = append(diags, c.diag(NonExhaustiveMatch, match, "non-exhaustive match: add a wildcard case"))
	}
	return diags
}

func (c *Checker) checkPattern(pattern ast.Pattern, scrutineeType ast.TypeExpression) []Diagnostic {
	switch p := pattern.(type) {
	case *ast.SatisfiesPattern:
		if _, ok := c.symbols.LegalTest(p.Test); !ok {
			return []Diagnostic{c.undefined(p, p.Test, "undefined legal test '%s'", p.Test)}
		}
	case *ast.IdentifierPattern:
		if _, ok := c.symbols.EnumForVariant(p.Name); ok {
			return nil
		}
		// Any other name binds the scrutinee for the rest of the case.
		if err := c.symbols.Define(p.Name, scrutineeType); err != nil {
			return []Diagnostic{c.duplicate(p, p.Name)}
		}
	}
	return nil
}
