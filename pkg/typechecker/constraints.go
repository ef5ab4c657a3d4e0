package typechecker

import (
	"strings"

	"yuho/core-go/pkg/ast"
)

// validateConstraint checks that a where-clause constraint is meaningful for
// the declared field type.
func (c *Checker) validateConstraint(constraint ast.Constraint, fieldType ast.TypeExpression) []Diagnostic {
	resolved := c.resolveAlias(fieldType)
	switch con := constraint.(type) {
	case *ast.ComparisonConstraint:
		diags := c.checkExpr(con.Value)
		equality := con.Operator == ast.CmpEqual || con.Operator == ast.CmpNotEqual
		if !isOrderedType(resolved) && !equality {
			diags = append(diags, c.invalidConstraint(con, "comparison '%s' requires a numeric or comparable type, got %s", con.Operator, ast.TypeString(fieldType)))
		}
		return diags
	case *ast.InRangeConstraint:
		diags := append(c.checkExpr(con.Min), c.checkExpr(con.Max)...)
		if !isRangeType(resolved) {
			diags = append(diags, c.invalidConstraint(con, "range constraint requires a numeric type, got %s", ast.TypeString(fieldType)))
		}
		lo, okLo := tryEvalConst(con.Min)
		hi, okHi := tryEvalConst(con.Max)
		if okLo && okHi {
			if cmp, ok := c.compareLiterals(lo, hi); ok && cmp > 0 {
				diags = append(diags, c.invalidConstraint(con, "empty range %s", ast.ConstraintString(con)))
			}
		}
		return diags
	case *ast.AndConstraint:
		return append(c.validateConstraint(con.Left, fieldType), c.validateConstraint(con.Right, fieldType)...)
	case *ast.OrConstraint:
		return append(c.validateConstraint(con.Left, fieldType), c.validateConstraint(con.Right, fieldType)...)
	case *ast.NotConstraint:
		return c.validateConstraint(con.Inner, fieldType)
	case *ast.BeforeConstraint:
		return c.validateDateConstraint(con, fieldType, con.Date)
	case *ast.AfterConstraint:
		return c.validateDateConstraint(con, fieldType, con.Date)
	case *ast.BetweenConstraint:
		diags := c.validateDateConstraint(con, fieldType, con.Start, con.End)
		start, okStart := tryEvalConst(con.Start)
		end, okEnd := tryEvalConst(con.End)
		if okStart && okEnd {
			if cmp, ok := c.compareLiterals(start, end); ok && cmp > 0 {
				diags = append(diags, c.invalidConstraint(con, "%s: start is after end", ast.ConstraintString(con)))
			}
		}
		return diags
	case *ast.CustomConstraint:
		return nil
	default:
		return nil
	}
}

func (c *Checker) validateDateConstraint(node ast.Constraint, fieldType ast.TypeExpression, bounds ...ast.Expression) []Diagnostic {
	var diags []Diagnostic
	for _, bound := range bounds {
		diags = append(diags, c.checkExpr(bound)...)
		if lit, ok := bound.(*ast.Literal); ok && (lit.Kind == ast.LiteralDate || lit.Kind == ast.LiteralString) {
			if _, err := c.dates.Parse(lit.Text); err != nil {
				diags = append(diags, c.invalidConstraint(node, "%v", err))
			}
		}
	}
	if !takesTemporalConstraint(c.resolveAlias(fieldType)) {
		diags = append(diags, c.invalidConstraint(node, "temporal constraint requires a date type, got %s", ast.TypeString(fieldType)))
	}
	return diags
}

// impliedConstraints returns the value constraints a refinement type carries.
func (c *Checker) impliedConstraints(t ast.TypeExpression) []ast.Constraint {
	switch typ := c.resolveAlias(t).(type) {
	case *ast.BoundedIntType:
		return []ast.Constraint{ast.InRange(ast.Int(typ.Min), ast.Int(typ.Max))}
	case *ast.PositiveType:
		return []ast.Constraint{ast.Gt(ast.Int(0))}
	case *ast.TemporalValueType:
		return c.impliedConstraints(typ.Inner)
	}
	return nil
}

// checkConstraintsSatisfied folds value to a constant and evaluates every
// constraint against it. Values that do not fold are not checked.
func (c *Checker) checkConstraintsSatisfied(value ast.Expression, constraints []ast.Constraint, context string) []Diagnostic {
	lit, ok := tryEvalConst(value)
	if !ok {
		return nil
	}
	var diags []Diagnostic
	for _, constraint := range constraints {
		if c.evalConstraint(lit, constraint) {
			continue
		}
		d := c.diag(ConstraintViolation, value, "constraint violation: value %s for '%s' violates constraint %s",
			ast.FormatLiteral(lit), context, ast.ConstraintString(constraint))
		d.Name = context
		d.Got = ast.FormatLiteral(lit)
		d.Expected = ast.ConstraintString(constraint)
		diags = append(diags, d)
	}
	return diags
}

// evalConstraint reports whether lit satisfies constraint. Anything that
// cannot be decided statically counts as satisfied.
func (c *Checker) evalConstraint(lit *ast.Literal, constraint ast.Constraint) bool {
	switch con := constraint.(type) {
	case *ast.ComparisonConstraint:
		bound, ok := tryEvalConst(con.Value)
		if !ok {
			return true
		}
		cmp, ok := c.compareLiterals(lit, bound)
		if !ok {
			return true
		}
		switch con.Operator {
		case ast.CmpGreater:
			return cmp > 0
		case ast.CmpLess:
			return cmp < 0
		case ast.CmpGreaterEqual:
			return cmp >= 0
		case ast.CmpLessEqual:
			return cmp <= 0
		case ast.CmpEqual:
			return cmp == 0
		case ast.CmpNotEqual:
			return cmp != 0
		}
		return true
	case *ast.InRangeConstraint:
		return c.withinBounds(lit, con.Min, con.Max)
	case *ast.AndConstraint:
		return c.evalConstraint(lit, con.Left) && c.evalConstraint(lit, con.Right)
	case *ast.OrConstraint:
		return c.evalConstraint(lit, con.Left) || c.evalConstraint(lit, con.Right)
	case *ast.NotConstraint:
		return !c.evalConstraint(lit, con.Inner)
	case *ast.BeforeConstraint:
		bound, ok := tryEvalConst(con.Date)
		if !ok {
			return true
		}
		cmp, ok := c.compareLiterals(lit, bound)
		return !ok || cmp < 0
	case *ast.AfterConstraint:
		bound, ok := tryEvalConst(con.Date)
		if !ok {
			return true
		}
		cmp, ok := c.compareLiterals(lit, bound)
		return !ok || cmp > 0
	case *ast.BetweenConstraint:
		return c.withinBounds(lit, con.Start, con.End)
	default:
		return true
	}
}

func (c *Checker) withinBounds(lit *ast.Literal, minExpr, maxExpr ast.Expression) bool {
	if lo, ok := tryEvalConst(minExpr); ok {
		if cmp, ok := c.compareLiterals(lit, lo); ok && cmp < 0 {
			return false
		}
	}
	if hi, ok := tryEvalConst(maxExpr); ok {
		if cmp, ok := c.compareLiterals(lit, hi); ok && cmp > 0 {
			return false
		}
	}
	return true
}

// compareLiterals orders two literals of compatible kinds. Numeric kinds
// compare by value, strings and bools lexically, dates on the calendar.
func (c *Checker) compareLiterals(a, b *ast.Literal) (int, bool) {
	if a.Kind == ast.LiteralInt && b.Kind == ast.LiteralInt {
		return compareInt(a.Int, b.Int), true
	}
	if av, ok := numericValue(a); ok {
		if bv, ok := numericValue(b); ok {
			return compareFloat(av, bv), true
		}
		return 0, false
	}
	switch a.Kind {
	case ast.LiteralString:
		if b.Kind == ast.LiteralString {
			return strings.Compare(a.Text, b.Text), true
		}
		if b.Kind == ast.LiteralDate {
			return c.compareDates(a.Text, b.Text)
		}
	case ast.LiteralBool:
		if b.Kind == ast.LiteralBool {
			return compareBool(a.Bool, b.Bool), true
		}
	case ast.LiteralDate:
		if b.Kind == ast.LiteralDate || b.Kind == ast.LiteralString {
			return c.compareDates(a.Text, b.Text)
		}
	case ast.LiteralDuration:
		if b.Kind == ast.LiteralDuration && a.Text == b.Text {
			return 0, true
		}
	}
	return 0, false
}

func (c *Checker) compareDates(a, b string) (int, bool) {
	cmp, err := c.dates.Compare(a, b)
	if err != nil {
		return 0, false
	}
	return cmp, true
}

func numericValue(lit *ast.Literal) (float64, bool) {
	switch lit.Kind {
	case ast.LiteralInt:
		return float64(lit.Int), true
	case ast.LiteralFloat, ast.LiteralMoney, ast.LiteralPercent:
		return lit.Float, true
	}
	return 0, false
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}
