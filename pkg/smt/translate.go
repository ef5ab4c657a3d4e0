package smt

import (
	"yuho/core-go/pkg/ast"
)

// TranslatePrinciple renders a principle body as an SMT-LIB2 formula.
func TranslatePrinciple(principle *ast.PrincipleDefinition) (string, error) {
	term, _, err := translatePrinciple(principle)
	if err != nil {
		return "", err
	}
	return term.String(), nil
}

func translatePrinciple(principle *ast.PrincipleDefinition) (*Term, *translator, error) {
	if principle == nil || principle.Body == nil {
		return nil, nil, errorf(TranslationError, "principle has no body")
	}
	tr := newTranslator(false, nil)
	term, err := tr.boolean(principle.Body)
	if err != nil {
		return nil, nil, err
	}
	return term, tr, nil
}

type boundVar struct {
	name string
	sort Sort
}

// translator turns expressions into terms, inferring the sort of free
// identifiers from the context they appear in. In strict mode operand sorts
// must agree and only directly solvable forms are accepted.
type translator struct {
	strict   bool
	declared map[string]Sort
	bound    []boundVar
	free     map[string]Sort
}

func newTranslator(strict bool, declared map[string]Sort) *translator {
	return &translator{strict: strict, declared: declared, free: make(map[string]Sort)}
}

func (tr *translator) boolean(expr ast.Expression) (*Term, error) {
	term, err := tr.expr(expr, SortBool)
	if err != nil {
		return nil, err
	}
	if term.Sort != SortBool {
		return nil, errorf(TranslationError, "expected boolean expression, got %s", sortName(term.Sort))
	}
	return term, nil
}

func (tr *translator) lookup(name string) (Sort, bool) {
	for i := len(tr.bound) - 1; i >= 0; i-- {
		if tr.bound[i].name == name {
			return tr.bound[i].sort, true
		}
	}
	if sort, ok := tr.declared[name]; ok {
		return sort, true
	}
	sort, ok := tr.free[name]
	return sort, ok
}

func (tr *translator) variable(name string, want Sort) (*Term, error) {
	if sort, ok := tr.lookup(name); ok {
		return Var(name, sort), nil
	}
	if want != "" {
		tr.free[name] = want
	}
	return Var(name, want), nil
}

func (tr *translator) expr(expr ast.Expression, want Sort) (*Term, error) {
	switch e := expr.(type) {
	case *ast.QuantifierExpression:
		return tr.quantifier(e)
	case *ast.BinaryExpression:
		return tr.binary(e, want)
	case *ast.UnaryExpression:
		switch e.Operator {
		case ast.OpNot:
			operand, err := tr.expr(e.Operand, SortBool)
			if err != nil {
				return nil, err
			}
			if tr.strict && operand.Sort != SortBool {
				return nil, errorf(UnsupportedExpression, "'!' applied to %s", sortName(operand.Sort))
			}
			return Not(operand), nil
		case ast.OpNeg:
			operand, err := tr.expr(e.Operand, want)
			if err != nil {
				return nil, err
			}
			if operand.Sort == "" {
				if operand, err = tr.expr(e.Operand, SortInt); err != nil {
					return nil, err
				}
			}
			if tr.strict && !operand.Sort.numeric() {
				return nil, errorf(UnsupportedExpression, "'-' applied to %s", sortName(operand.Sort))
			}
			return Neg(operand), nil
		}
		return nil, errorf(UnsupportedExpression, "unary operator '%s'", e.Operator)
	case *ast.Identifier:
		return tr.variable(e.Name, want)
	case *ast.Literal:
		return tr.literal(e, want)
	case *ast.FieldAccess:
		if tr.strict {
			path, ok := fieldPath(e)
			if !ok {
				return nil, errorf(UnsupportedExpression, "field access on %s", ast.ExprString(e.Object))
			}
			if want == "" {
				if _, known := tr.lookup(path); !known {
					want = SortInt
				}
			}
			return tr.variable(path, want)
		}
		base, err := tr.expr(e.Object, "")
		if err != nil {
			return nil, err
		}
		t := Select(base, e.Field)
		t.Sort = want
		return t, nil
	case *ast.CallExpression:
		if tr.strict {
			return nil, errorf(UnsupportedExpression, "call to '%s' cannot be solved directly", e.Callee)
		}
		args := make([]*Term, 0, len(e.Arguments))
		for _, arg := range e.Arguments {
			t, err := tr.expr(arg, "")
			if err != nil {
				return nil, err
			}
			if t.Sort == "" {
				if t, err = tr.expr(arg, SortInt); err != nil {
					return nil, err
				}
			}
			args = append(args, t)
		}
		return App(e.Callee, want, args...), nil
	case nil:
		return nil, errorf(TranslationError, "missing expression")
	default:
		return nil, errorf(UnsupportedExpression, "expression type not supported: %s", expr.NodeType())
	}
}

func (tr *translator) quantifier(q *ast.QuantifierExpression) (*Term, error) {
	sort, err := quantifierSort(q.VarType)
	if err != nil {
		return nil, err
	}
	tr.bound = append(tr.bound, boundVar{name: q.Var, sort: sort})
	body, err := tr.expr(q.Body, SortBool)
	tr.bound = tr.bound[:len(tr.bound)-1]
	if err != nil {
		return nil, err
	}
	if q.Kind == ast.QuantifierExists {
		return Exists(q.Var, sort, body), nil
	}
	return Forall(q.Var, sort, body), nil
}

// quantifierSort maps a declared binder type onto a solver sort.
func quantifierSort(t ast.TypeExpression) (Sort, error) {
	switch typ := t.(type) {
	case *ast.PrimitiveType:
		switch typ.Kind {
		case ast.PrimitiveInt:
			return SortInt, nil
		case ast.PrimitiveBool:
			return SortBool, nil
		case ast.PrimitiveFloat, ast.PrimitiveMoney, ast.PrimitivePercent:
			return SortReal, nil
		case ast.PrimitiveString:
			return SortString, nil
		}
	case *ast.BoundedIntType:
		return SortInt, nil
	case *ast.PositiveType:
		if inner, err := quantifierSort(typ.Inner); err == nil && inner == SortReal {
			return SortReal, nil
		}
		return SortInt, nil
	case *ast.MoneyWithCurrencyType:
		return SortReal, nil
	}
	return "", errorf(UnsupportedType, "type not supported in solver translation: %s", ast.TypeString(t))
}

func (tr *translator) literal(lit *ast.Literal, want Sort) (*Term, error) {
	switch lit.Kind {
	case ast.LiteralInt:
		if want == SortReal {
			return RealConst(lit.Int, 1), nil
		}
		return IntConst(lit.Int), nil
	case ast.LiteralFloat, ast.LiteralMoney, ast.LiteralPercent:
		return FloatConst(lit.Float), nil
	case ast.LiteralBool:
		return BoolConst(lit.Bool), nil
	case ast.LiteralString:
		return StringConst(lit.Text), nil
	case ast.LiteralPass:
		if !tr.strict {
			return App("null", want), nil
		}
	}
	return nil, errorf(UnsupportedExpression, "literal type not supported: %s", lit.Kind)
}

func (tr *translator) binary(e *ast.BinaryExpression, want Sort) (*Term, error) {
	switch e.Operator {
	case ast.OpAnd, ast.OpOr:
		l, err := tr.expr(e.Left, SortBool)
		if err != nil {
			return nil, err
		}
		r, err := tr.expr(e.Right, SortBool)
		if err != nil {
			return nil, err
		}
		if tr.strict && (l.Sort != SortBool || r.Sort != SortBool) {
			return nil, tr.mismatch(e, l, r)
		}
		if e.Operator == ast.OpAnd {
			return And(l, r), nil
		}
		return Or(l, r), nil
	case ast.OpEq, ast.OpNeq:
		l, r, err := tr.operands(e, "")
		if err != nil {
			return nil, err
		}
		if e.Operator == ast.OpEq {
			return Eq(l, r), nil
		}
		return Distinct(l, r), nil
	case ast.OpLt, ast.OpGt, ast.OpLte, ast.OpGte:
		l, r, err := tr.operands(e, "")
		if err != nil {
			return nil, err
		}
		if tr.strict && !l.Sort.numeric() {
			return nil, tr.mismatch(e, l, r)
		}
		switch e.Operator {
		case ast.OpLt:
			return Lt(l, r), nil
		case ast.OpGt:
			return Gt(l, r), nil
		case ast.OpLte:
			return Le(l, r), nil
		default:
			return Ge(l, r), nil
		}
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod:
		if want == SortBool {
			want = ""
		}
		l, r, err := tr.operands(e, want)
		if err != nil {
			return nil, err
		}
		if tr.strict && (!l.Sort.numeric() || (e.Operator == ast.OpMod && l.Sort != SortInt)) {
			return nil, tr.mismatch(e, l, r)
		}
		switch e.Operator {
		case ast.OpAdd:
			return Add(l, r), nil
		case ast.OpSub:
			return Sub(l, r), nil
		case ast.OpMul:
			return Mul(l, r), nil
		case ast.OpDiv:
			return Div(l, r), nil
		default:
			return Mod(l, r), nil
		}
	}
	return nil, errorf(UnsupportedExpression, "binary operator '%s'", e.Operator)
}

// operands translates both sides so that an identifier of unknown sort takes
// the sort of the other side, defaulting to Int.
func (tr *translator) operands(e *ast.BinaryExpression, want Sort) (*Term, *Term, error) {
	l, err := tr.expr(e.Left, want)
	if err != nil {
		return nil, nil, err
	}
	r, err := tr.expr(e.Right, l.Sort)
	if err != nil {
		return nil, nil, err
	}
	if l.Sort == "" {
		target := r.Sort
		if target == "" {
			target = SortInt
		}
		if l, err = tr.expr(e.Left, target); err != nil {
			return nil, nil, err
		}
		if r.Sort == "" {
			if r, err = tr.expr(e.Right, target); err != nil {
				return nil, nil, err
			}
		}
	}
	l, r = promote(l, r)
	if tr.strict && l.Sort != r.Sort {
		return nil, nil, tr.mismatch(e, l, r)
	}
	return l, r, nil
}

// promote lifts an Int constant facing a Real operand.
func promote(l, r *Term) (*Term, *Term) {
	if l.Sort == SortInt && r.Sort == SortReal && l.Op == OpConst {
		l = RealConst(l.Value.Int, 1)
	}
	if r.Sort == SortInt && l.Sort == SortReal && r.Op == OpConst {
		r = RealConst(r.Value.Int, 1)
	}
	return l, r
}

func (tr *translator) mismatch(e *ast.BinaryExpression, l, r *Term) error {
	return errorf(UnsupportedExpression, "binary operation '%s' with mismatched sorts %s and %s", e.Operator, sortName(l.Sort), sortName(r.Sort))
}

func sortName(s Sort) string {
	if s == "" {
		return "unknown"
	}
	return string(s)
}

// fieldPath flattens a.b.c into a single variable name.
func fieldPath(e ast.Expression) (string, bool) {
	switch x := e.(type) {
	case *ast.Identifier:
		return x.Name, true
	case *ast.FieldAccess:
		base, ok := fieldPath(x.Object)
		if !ok {
			return "", false
		}
		return base + "." + x.Field, true
	}
	return "", false
}
