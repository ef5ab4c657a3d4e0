package typechecker

import "yuho/core-go/pkg/ast"

// tryEvalConst folds literal arithmetic and unary operators into a single
// literal. It reports false for anything that depends on runtime values.
func tryEvalConst(expr ast.Expression) (*ast.Literal, bool) {
	switch e := expr.(type) {
	case *ast.Literal:
		return e, true
	case *ast.UnaryExpression:
		operand, ok := tryEvalConst(e.Operand)
		if !ok {
			return nil, false
		}
		return foldUnary(e.Operator, operand)
	case *ast.BinaryExpression:
		left, ok := tryEvalConst(e.Left)
		if !ok {
			return nil, false
		}
		right, ok := tryEvalConst(e.Right)
		if !ok {
			return nil, false
		}
		return foldBinary(e.Operator, left, right)
	default:
		return nil, false
	}
}

func foldUnary(op ast.UnaryOperator, operand *ast.Literal) (*ast.Literal, bool) {
	switch op {
	case ast.OpNeg:
		switch operand.Kind {
		case ast.LiteralInt:
			return ast.Int(-operand.Int), true
		case ast.LiteralFloat:
			return ast.Flt(-operand.Float), true
		case ast.LiteralMoney:
			return ast.Money(-operand.Float), true
		case ast.LiteralPercent:
			return ast.Percent(-operand.Float), true
		}
	case ast.OpNot:
		if operand.Kind == ast.LiteralBool {
			return ast.Bool(!operand.Bool), true
		}
	}
	return nil, false
}

func foldBinary(op ast.BinaryOperator, left, right *ast.Literal) (*ast.Literal, bool) {
	switch {
	case left.Kind == ast.LiteralInt && right.Kind == ast.LiteralInt:
		a, b := left.Int, right.Int
		switch op {
		case ast.OpAdd:
			return ast.Int(a + b), true
		case ast.OpSub:
			return ast.Int(a - b), true
		case ast.OpMul:
			return ast.Int(a * b), true
		case ast.OpDiv:
			if b == 0 {
				return nil, false
			}
			return ast.Int(a / b), true
		case ast.OpMod:
			if b == 0 {
				return nil, false
			}
			return ast.Int(a % b), true
		}
	case left.Kind == ast.LiteralFloat && right.Kind == ast.LiteralFloat:
		a, b := left.Float, right.Float
		switch op {
		case ast.OpAdd:
			return ast.Flt(a + b), true
		case ast.OpSub:
			return ast.Flt(a - b), true
		case ast.OpMul:
			return ast.Flt(a * b), true
		case ast.OpDiv:
			if b == 0 {
				return nil, false
			}
			return ast.Flt(a / b), true
		}
	}
	return nil, false
}
