package smt

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"yuho/core-go/pkg/ast"
)

// ExplainPrinciple renders a principle as indented prose. Each quantifier
// opens a new line and indents its body one level further.
func ExplainPrinciple(principle *ast.PrincipleDefinition) string {
	if principle == nil {
		return ""
	}
	return fmt.Sprintf("Principle '%s' states that:\n\n%s", principle.Name, explainExpr(principle.Body, 0))
}

func explainExpr(expr ast.Expression, depth int) string {
	switch e := expr.(type) {
	case *ast.QuantifierExpression:
		indent := strings.Repeat("  ", depth+1)
		body := explainExpr(e.Body, depth+1)
		if e.Kind == ast.QuantifierExists {
			return fmt.Sprintf("%sThere exists a %s of type %s such that\n%s", indent, e.Var, typeName(e.VarType), body)
		}
		return fmt.Sprintf("%sFor all %s of type %s,\n%s", indent, e.Var, typeName(e.VarType), body)
	default:
		return strings.Repeat("  ", depth+1) + statement(expr)
	}
}

// statement renders a top-level expression without outer parentheses.
func statement(expr ast.Expression) string {
	if bin, ok := expr.(*ast.BinaryExpression); ok {
		return proseBinary(bin)
	}
	return prose(expr)
}

func typeName(t ast.TypeExpression) string {
	if prim, ok := t.(*ast.PrimitiveType); ok {
		switch prim.Kind {
		case ast.PrimitiveInt:
			return "integer"
		case ast.PrimitiveBool:
			return "boolean"
		case ast.PrimitiveFloat:
			return "floating-point number"
		}
	}
	return ast.TypeString(t)
}

func proseBinary(e *ast.BinaryExpression) string {
	op := string(e.Operator)
	switch e.Operator {
	case ast.OpAnd:
		op = "and"
	case ast.OpOr:
		op = "or"
	}
	return fmt.Sprintf("%s %s %s", prose(e.Left), op, prose(e.Right))
}

func prose(expr ast.Expression) string {
	switch e := expr.(type) {
	case *ast.BinaryExpression:
		return "(" + proseBinary(e) + ")"
	case *ast.UnaryExpression:
		if e.Operator == ast.OpNot {
			return "not " + prose(e.Operand)
		}
		return "-" + prose(e.Operand)
	case *ast.QuantifierExpression:
		if e.Kind == ast.QuantifierExists {
			return fmt.Sprintf("(there exists a %s of type %s such that %s)", e.Var, typeName(e.VarType), prose(e.Body))
		}
		return fmt.Sprintf("(for all %s of type %s, %s)", e.Var, typeName(e.VarType), prose(e.Body))
	default:
		return ast.ExprString(expr)
	}
}

// ExplainCounterexample lists the assignment that falsifies the principle
// and evaluates each top-level conjunct of its body under it.
func ExplainCounterexample(principle *ast.PrincipleDefinition, model *Model) string {
	var b strings.Builder
	b.WriteString("counterexample:\n")
	if model == nil || len(model.Assignments) == 0 {
		b.WriteString("  (no free variables)\n")
	}
	if model != nil {
		for _, a := range model.Assignments {
			fmt.Fprintf(&b, "  %s = %s\n", a.Name, valueText(a.Value))
		}
	}
	if principle == nil || principle.Body == nil {
		return b.String()
	}
	b.WriteString("because:\n")
	for _, part := range splitConjunction(principle.Body, nil) {
		fmt.Fprintf(&b, "  - %s %s\n", statement(part), outcome(part, model))
	}
	return b.String()
}

func splitConjunction(expr ast.Expression, out []ast.Expression) []ast.Expression {
	if bin, ok := expr.(*ast.BinaryExpression); ok && bin.Operator == ast.OpAnd {
		out = splitConjunction(bin.Left, out)
		return splitConjunction(bin.Right, out)
	}
	return append(out, expr)
}

func outcome(part ast.Expression, model *Model) string {
	term, err := newTranslator(false, nil).boolean(part)
	if err != nil {
		return "cannot be evaluated"
	}
	value, ok := model.Eval(term)
	switch {
	case !ok:
		return "cannot be decided under this assignment"
	case value.Bool:
		return "holds"
	default:
		return "is false"
	}
}

// Eval evaluates t under the model's assignments. Quantified variables range
// over the candidate values t mentions.
func (m *Model) Eval(t *Term) (Value, bool) {
	s := &search{
		ctx:        context.Background(),
		env:        make(map[string]Value),
		exactQuant: make(map[*Term]bool),
		budget:     DefaultSearchBudget,
		domains:    candidateDomains([]*Term{t}),
	}
	if m != nil {
		for _, a := range m.Assignments {
			s.env[a.Name] = a.Value
		}
	}
	return s.eval(t)
}

// valueText renders a model value in source syntax rather than SMT-LIB.
func valueText(v Value) string {
	switch v.Sort {
	case SortInt:
		return strconv.FormatInt(v.Int, 10)
	case SortReal:
		r := v.rat()
		if r.IsInt() {
			return r.Num().String()
		}
		f, _ := r.Float64()
		return strconv.FormatFloat(f, 'g', -1, 64)
	case SortBool:
		return strconv.FormatBool(v.Bool)
	case SortString:
		return strconv.Quote(v.Str)
	default:
		return v.String()
	}
}
