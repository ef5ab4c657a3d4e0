package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatLiteral renders a literal the way it would appear in source.
func FormatLiteral(lit *Literal) string {
	if lit == nil {
		return "<nil>"
	}
	switch lit.Kind {
	case LiteralInt:
		return strconv.FormatInt(lit.Int, 10)
	case LiteralFloat:
		return strconv.FormatFloat(lit.Float, 'g', -1, 64)
	case LiteralBool:
		return strconv.FormatBool(lit.Bool)
	case LiteralString:
		return strconv.Quote(lit.Text)
	case LiteralMoney:
		return "$" + strconv.FormatFloat(lit.Float, 'f', 2, 64)
	case LiteralPercent:
		return strconv.FormatFloat(lit.Float, 'g', -1, 64) + "%"
	case LiteralDate, LiteralDuration:
		return lit.Text
	case LiteralPass:
		return "pass"
	default:
		return fmt.Sprintf("<%s>", lit.Kind)
	}
}

// ExprString renders an expression in source syntax. Nested binary
// expressions are parenthesized.
func ExprString(expr Expression) string {
	switch e := expr.(type) {
	case nil:
		return "<nil>"
	case *Literal:
		return FormatLiteral(e)
	case *Identifier:
		return e.Name
	case *BinaryExpression:
		return fmt.Sprintf("(%s %s %s)", ExprString(e.Left), e.Operator, ExprString(e.Right))
	case *UnaryExpression:
		return string(e.Operator) + ExprString(e.Operand)
	case *CallExpression:
		args := make([]string, len(e.Arguments))
		for i, arg := range e.Arguments {
			args[i] = ExprString(arg)
		}
		return fmt.Sprintf("%s(%s)", e.Callee, strings.Join(args, ", "))
	case *FieldAccess:
		return ExprString(e.Object) + "." + e.Field
	case *StructLiteral:
		fields := make([]string, len(e.Fields))
		for i, f := range e.Fields {
			fields[i] = fmt.Sprintf("%s := %s", f.Name, ExprString(f.Value))
		}
		return fmt.Sprintf("%s { %s }", e.StructName, strings.Join(fields, ", "))
	case *MatchExpression:
		return fmt.Sprintf("match %s { %d cases }", ExprString(e.Scrutinee), len(e.Cases))
	case *QuantifierExpression:
		return fmt.Sprintf("%s %s: %s, %s", e.Kind, e.Var, TypeString(e.VarType), ExprString(e.Body))
	default:
		return fmt.Sprintf("%T", expr)
	}
}

// ConstraintString renders a where-clause constraint.
func ConstraintString(c Constraint) string {
	switch con := c.(type) {
	case nil:
		return "<nil>"
	case *ComparisonConstraint:
		return fmt.Sprintf("%s %s", con.Operator, ExprString(con.Value))
	case *InRangeConstraint:
		return fmt.Sprintf("in %s..%s", ExprString(con.Min), ExprString(con.Max))
	case *AndConstraint:
		return fmt.Sprintf("(%s && %s)", ConstraintString(con.Left), ConstraintString(con.Right))
	case *OrConstraint:
		return fmt.Sprintf("(%s || %s)", ConstraintString(con.Left), ConstraintString(con.Right))
	case *NotConstraint:
		return "!" + ConstraintString(con.Inner)
	case *BeforeConstraint:
		return "before " + ExprString(con.Date)
	case *AfterConstraint:
		return "after " + ExprString(con.Date)
	case *BetweenConstraint:
		return fmt.Sprintf("between %s and %s", ExprString(con.Start), ExprString(con.End))
	case *CustomConstraint:
		return con.Predicate
	default:
		return fmt.Sprintf("%T", c)
	}
}
