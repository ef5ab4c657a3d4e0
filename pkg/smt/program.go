package smt

import (
	"context"

	"yuho/core-go/pkg/ast"
)

// PrincipleResult is the outcome of checking one principle for validity.
type PrincipleResult struct {
	Name    string
	Formula string
	Valid   bool
	// Counterexample is set when Valid is false.
	Counterexample *Model
	// Explanation walks through the counterexample in prose.
	Explanation string
}

// VerifyPrinciple decides whether the principle body holds for every
// assignment of its free variables.
func (v *VerificationContext) VerifyPrinciple(ctx context.Context, principle *ast.PrincipleDefinition) (*PrincipleResult, error) {
	term, _, err := translatePrinciple(principle)
	if err != nil {
		return nil, err
	}
	if Uninterpreted(term) {
		return nil, errorf(UnsupportedExpression, "principle '%s' uses calls or field access that cannot be decided", principle.Name)
	}
	result := &PrincipleResult{Name: principle.Name, Formula: term.String()}
	model, err := v.modelOf(ctx, "principle "+principle.Name, Not(term))
	if err != nil {
		return nil, err
	}
	if model == nil {
		result.Valid = true
		return result, nil
	}
	result.Counterexample = model
	result.Explanation = ExplainCounterexample(principle, model)
	return result, nil
}

// VerifyProgram runs every applicable check over the program, descending
// into scopes, and returns one message per failure.
func (v *VerificationContext) VerifyProgram(ctx context.Context, program *ast.Program) []string {
	if program == nil {
		return nil
	}
	var errs []string
	report := func(err error) {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	var visit func(items []ast.Item)
	visit = func(items []ast.Item) {
		for _, item := range items {
			switch it := item.(type) {
			case *ast.Scope:
				visit(it.Items)
			case *ast.StructDefinition:
				for _, field := range it.Fields {
					report(v.verifyFieldType(ctx, it.Name+"."+field.Name, field.FieldType))
				}
			case *ast.Declaration:
				report(v.verifyDeclaration(ctx, it))
			case *ast.LegalTestDefinition:
				report(v.VerifyLegalTest(ctx, it))
			case *ast.EnumDefinition:
				report(v.VerifyEnumExclusive(ctx, it))
			}
		}
	}
	visit(program.Items)
	return errs
}

// verifyFieldType checks that a refined field type admits at least one value.
func (v *VerificationContext) verifyFieldType(ctx context.Context, field string, t ast.TypeExpression) error {
	switch typ := t.(type) {
	case *ast.BoundedIntType:
		x := Var(field, SortInt)
		ok, err := v.decide(ctx, "bounded field", And(Ge(x, IntConst(typ.Min)), Le(x, IntConst(typ.Max))))
		if err != nil {
			return err
		}
		if !ok {
			return errorf(TranslationError, "invalid BoundedInt range for field '%s': min (%d) > max (%d)", field, typ.Min, typ.Max)
		}
	case *ast.ValidDateType:
		return v.verifyWindow(ctx, field, typ.After, typ.Before)
	case *ast.TemporalValueType:
		if err := v.verifyWindow(ctx, field, typ.ValidFrom, typ.ValidUntil); err != nil {
			return err
		}
		return v.verifyFieldType(ctx, field, typ.Inner)
	case *ast.NonEmptyType:
		return v.verifyFieldType(ctx, field, typ.Inner)
	case *ast.PositiveType:
		return v.verifyFieldType(ctx, field, typ.Inner)
	}
	return nil
}

func (v *VerificationContext) verifyWindow(ctx context.Context, field string, from, until *string) error {
	ok, err := v.VerifyTemporalWindow(ctx, from, until)
	if err != nil {
		return err
	}
	if !ok {
		return errorf(TranslationError, "invalid date window for '%s': %s is not before %s", field, *from, *until)
	}
	return nil
}

// verifyDeclaration checks literal initializers against refined types.
func (v *VerificationContext) verifyDeclaration(ctx context.Context, decl *ast.Declaration) error {
	lit, ok := literalValue(decl.Value)
	if !ok {
		return nil
	}
	switch typ := decl.DeclType.(type) {
	case *ast.BoundedIntType:
		if lit.Kind != ast.LiteralInt {
			return nil
		}
		ok, err := v.VerifyBoundedInt(ctx, lit.Int, typ.Min, typ.Max)
		if err != nil {
			return err
		}
		if !ok {
			return errorf(TranslationError, "'%s': value %d violates BoundedInt<%d, %d> constraint", decl.Name, lit.Int, typ.Min, typ.Max)
		}
	case *ast.PositiveType:
		var (
			ok  bool
			err error
		)
		switch lit.Kind {
		case ast.LiteralInt:
			ok, err = v.VerifyPositive(ctx, lit.Int)
		case ast.LiteralFloat, ast.LiteralMoney, ast.LiteralPercent:
			ok, err = v.VerifyPositiveFloat(ctx, lit.Float)
		default:
			return nil
		}
		if err != nil {
			return err
		}
		if !ok {
			return errorf(TranslationError, "'%s': value %s violates Positive constraint", decl.Name, ast.FormatLiteral(lit))
		}
	case *ast.ValidDateType:
		if lit.Kind != ast.LiteralDate && lit.Kind != ast.LiteralString {
			return nil
		}
		ok, err := v.VerifyDateInTemporalWindow(ctx, lit.Text, typ.After, typ.Before)
		if err != nil {
			return err
		}
		if !ok {
			return errorf(TranslationError, "'%s': date %s is outside the valid window", decl.Name, lit.Text)
		}
	}
	return nil
}

// literalValue folds a literal, or a negated numeric literal, into one value.
func literalValue(expr ast.Expression) (*ast.Literal, bool) {
	switch e := expr.(type) {
	case *ast.Literal:
		return e, true
	case *ast.UnaryExpression:
		if e.Operator != ast.OpNeg {
			return nil, false
		}
		inner, ok := literalValue(e.Operand)
		if !ok {
			return nil, false
		}
		folded := *inner
		switch inner.Kind {
		case ast.LiteralInt:
			folded.Int = -inner.Int
		case ast.LiteralFloat, ast.LiteralMoney, ast.LiteralPercent:
			folded.Float = -inner.Float
		default:
			return nil, false
		}
		return &folded, true
	}
	return nil, false
}
