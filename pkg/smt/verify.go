package smt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"yuho/core-go/pkg/ast"
	"yuho/core-go/pkg/dates"
)

// DefaultTimeout bounds a single point check.
const DefaultTimeout = 5 * time.Second

// DefaultMaxModels caps EnumerateModels when the caller passes zero.
const DefaultMaxModels = 16

// VerificationContext runs solver-backed checks against one Solver session.
// It is not safe for concurrent use.
type VerificationContext struct {
	solver  Solver
	dates   *dates.Parser
	timeout time.Duration
	log     logr.Logger
	vars    map[string]Sort
}

// Option configures a VerificationContext.
type Option func(*VerificationContext)

// WithTimeout bounds every individual check; zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(v *VerificationContext) {
		v.timeout = d
	}
}

func WithLogger(log logr.Logger) Option {
	return func(v *VerificationContext) {
		v.log = log
	}
}

func WithDateParser(parser *dates.Parser) Option {
	return func(v *VerificationContext) {
		if parser != nil {
			v.dates = parser
		}
	}
}

// NewVerificationContext wraps solver, defaulting to a MemorySolver.
func NewVerificationContext(solver Solver, opts ...Option) *VerificationContext {
	if solver == nil {
		solver = NewMemorySolver()
	}
	v := &VerificationContext{
		solver:  solver,
		dates:   dates.Default(),
		timeout: DefaultTimeout,
		log:     logr.Discard(),
		vars:    make(map[string]Sort),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *VerificationContext) Solver() Solver {
	return v.solver
}

func (v *VerificationContext) Close() error {
	return v.solver.Close()
}

// DeclareVar fixes the sort of a free identifier used in later expressions.
func (v *VerificationContext) DeclareVar(name string, sort Sort) error {
	if existing, ok := v.vars[name]; ok && existing != sort {
		return errorf(TranslationError, "'%s' declared as %s, redeclared as %s", name, existing, sort)
	}
	if err := v.solver.Declare(name, sort); err != nil {
		return err
	}
	v.vars[name] = sort
	return nil
}

// Assume adds expr as a background assertion for every later check.
func (v *VerificationContext) Assume(expr ast.Expression) error {
	term, err := v.typed(expr)
	if err != nil {
		return err
	}
	return v.solver.Assert(term)
}

// typed translates a boolean expression in strict mode and remembers the
// sorts inferred for new identifiers.
func (v *VerificationContext) typed(expr ast.Expression) (*Term, error) {
	tr := newTranslator(true, v.vars)
	term, err := tr.boolean(expr)
	if err != nil {
		return nil, err
	}
	for name, sort := range tr.free {
		v.vars[name] = sort
	}
	return term, nil
}

// check asserts terms in a scratch frame and runs one bounded check.
func (v *VerificationContext) check(ctx context.Context, what string, terms ...*Term) (Result, *Model, error) {
	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}
	v.solver.Push()
	defer func() {
		if err := v.solver.Pop(); err != nil {
			v.log.Error(err, "solver pop failed", "check", what)
		}
	}()
	for _, t := range terms {
		if err := v.solver.Assert(t); err != nil {
			return Unknown, nil, err
		}
	}
	result, err := v.solver.Check(ctx)
	v.log.V(1).Info("solver check", "check", what, "result", result.String())
	if err != nil {
		var smtErr *Error
		if errors.As(err, &smtErr) {
			return Unknown, nil, err
		}
		return Unknown, nil, wrapError(SolverError, err, "%s", what)
	}
	if result != Sat {
		return result, nil, nil
	}
	model, err := v.solver.Model()
	if err != nil {
		return result, nil, err
	}
	return result, model, nil
}

// decide maps Sat to true and Unsat to false; Unknown is an error.
func (v *VerificationContext) decide(ctx context.Context, what string, terms ...*Term) (bool, error) {
	result, _, err := v.check(ctx, what, terms...)
	if err != nil {
		return false, err
	}
	switch result {
	case Sat:
		return true, nil
	case Unsat:
		return false, nil
	default:
		return false, errorf(SolverError, "solver returned unknown result for %s", what)
	}
}

func (v *VerificationContext) VerifyBoundedInt(ctx context.Context, value, min, max int64) (bool, error) {
	if min > max {
		return false, errorf(TranslationError, "invalid range: min (%d) > max (%d)", min, max)
	}
	val := IntConst(value)
	return v.decide(ctx, "bounded int", And(Ge(val, IntConst(min)), Le(val, IntConst(max))))
}

func (v *VerificationContext) VerifyPositive(ctx context.Context, value int64) (bool, error) {
	return v.decide(ctx, "positive", Gt(IntConst(value), IntConst(0)))
}

func (v *VerificationContext) VerifyPositiveFloat(ctx context.Context, value float64) (bool, error) {
	return v.decide(ctx, "positive float", Gt(FloatConst(value), RealConst(0, 1)))
}

func (v *VerificationContext) VerifyNonEmpty(ctx context.Context, length int) (bool, error) {
	return v.decide(ctx, "non-empty", Gt(IntConst(int64(length)), IntConst(0)))
}

// VerifyCitation checks only that every part of the citation is present.
func (v *VerificationContext) VerifyCitation(section, subsection, act string) (bool, error) {
	return section != "" && subsection != "" && act != "", nil
}

// VerifyTemporalWindow reports whether validFrom precedes validUntil. A
// window missing either bound is always valid.
func (v *VerificationContext) VerifyTemporalWindow(ctx context.Context, validFrom, validUntil *string) (bool, error) {
	from, err := v.dayNumber(validFrom, "from")
	if err != nil {
		return false, err
	}
	until, err := v.dayNumber(validUntil, "until")
	if err != nil {
		return false, err
	}
	if from == nil || until == nil {
		return true, nil
	}
	return v.decide(ctx, "temporal window", Lt(from, until))
}

// VerifyDateInTemporalWindow reports whether date lies within the inclusive window.
func (v *VerificationContext) VerifyDateInTemporalWindow(ctx context.Context, date string, validFrom, validUntil *string) (bool, error) {
	day, err := v.dayNumber(&date, "")
	if err != nil {
		return false, err
	}
	from, err := v.dayNumber(validFrom, "from")
	if err != nil {
		return false, err
	}
	until, err := v.dayNumber(validUntil, "until")
	if err != nil {
		return false, err
	}
	var terms []*Term
	if from != nil {
		terms = append(terms, Ge(day, from))
	}
	if until != nil {
		terms = append(terms, Le(day, until))
	}
	if len(terms) == 0 {
		return true, nil
	}
	return v.decide(ctx, "date in temporal window", And(terms...))
}

// dayNumber parses a date into days since the Unix epoch.
func (v *VerificationContext) dayNumber(text *string, label string) (*Term, error) {
	if text == nil {
		return nil, nil
	}
	t, err := v.dates.Parse(*text)
	if err != nil {
		if label != "" {
			return nil, wrapError(TranslationError, err, "invalid %s date", label)
		}
		return nil, wrapError(TranslationError, err, "invalid date")
	}
	return IntConst(t.Unix() / 86400), nil
}

// Requirement is one named boolean condition of a legal test and the value
// it is required to take.
type Requirement struct {
	Name  string
	Value bool
}

// VerifyLegalTestSatisfiable reports whether all requirements can hold together.
func (v *VerificationContext) VerifyLegalTestSatisfiable(ctx context.Context, requirements []Requirement) (bool, error) {
	if len(requirements) == 0 {
		return true, nil
	}
	terms := make([]*Term, 0, len(requirements))
	for _, req := range requirements {
		t := Var(req.Name, SortBool)
		if !req.Value {
			t = Not(t)
		}
		terms = append(terms, t)
	}
	return v.decide(ctx, "legal test", And(terms...))
}

// VerifyLegalTest requires boolean requirements whose conjunction is satisfiable.
func (v *VerificationContext) VerifyLegalTest(ctx context.Context, test *ast.LegalTestDefinition) error {
	reqs := make([]Requirement, 0, len(test.Requirements))
	for _, req := range test.Requirements {
		if prim, ok := req.RequirementType.(*ast.PrimitiveType); !ok || prim.Kind != ast.PrimitiveBool {
			return errorf(TranslationError, "legal test '%s' requirement '%s' must be boolean, got %s", test.Name, req.Name, ast.TypeString(req.RequirementType))
		}
		reqs = append(reqs, Requirement{Name: test.Name + "." + req.Name, Value: true})
	}
	ok, err := v.VerifyLegalTestSatisfiable(ctx, reqs)
	if err != nil {
		return err
	}
	if !ok {
		return errorf(TranslationError, "legal test '%s' requirements are contradictory", test.Name)
	}
	return nil
}

// VerifyEnumExclusive checks that "at most one variant holds" is a
// consistent constraint for enums marked mutually exclusive.
func (v *VerificationContext) VerifyEnumExclusive(ctx context.Context, enum *ast.EnumDefinition) error {
	if !enum.MutuallyExclusive {
		return nil
	}
	if len(enum.Variants) < 2 {
		return errorf(TranslationError, "mutually exclusive enum '%s' must have at least 2 variants", enum.Name)
	}
	vars := make([]*Term, len(enum.Variants))
	for i, variant := range enum.Variants {
		vars[i] = Var(enum.Name+"."+variant, SortBool)
	}
	ok, err := v.decide(ctx, "enum exclusivity", atMostOne(enum.Name, vars)...)
	if err != nil {
		return err
	}
	if !ok {
		return errorf(TranslationError, "mutually exclusive constraints for enum '%s' are contradictory", enum.Name)
	}
	return nil
}

// pairwiseLimit is the largest variant count encoded with pairwise clauses.
const pairwiseLimit = 32

// atMostOne constrains at most one of vars to hold. Small sets use pairwise
// exclusion; larger ones a sequential counter whose auxiliary variable
// prefix@seenI holds once any of vars[0..I] does.
func atMostOne(prefix string, vars []*Term) []*Term {
	if len(vars) <= pairwiseLimit {
		var terms []*Term
		for i := range vars {
			for j := i + 1; j < len(vars); j++ {
				terms = append(terms, Or(Not(vars[i]), Not(vars[j])))
			}
		}
		return terms
	}
	terms := make([]*Term, 0, 3*len(vars))
	var prev *Term
	for i, x := range vars {
		seen := Var(fmt.Sprintf("%s@seen%d", prefix, i), SortBool)
		terms = append(terms, Implies(x, seen))
		if prev != nil {
			terms = append(terms, Implies(prev, seen), Implies(prev, Not(x)))
		}
		prev = seen
	}
	return terms
}

// CheckSat reports whether expr is satisfiable together with any assumptions.
func (v *VerificationContext) CheckSat(ctx context.Context, expr ast.Expression) (bool, error) {
	term, err := v.typed(expr)
	if err != nil {
		return false, err
	}
	return v.decide(ctx, "check-sat", term)
}

// GetModel returns a satisfying assignment for expr, or nil when none exists.
func (v *VerificationContext) GetModel(ctx context.Context, expr ast.Expression) (*Model, error) {
	term, err := v.typed(expr)
	if err != nil {
		return nil, err
	}
	return v.modelOf(ctx, "get-model", term)
}

// GetCounterexample returns an assignment falsifying expr, or nil when expr
// is valid.
func (v *VerificationContext) GetCounterexample(ctx context.Context, expr ast.Expression) (*Model, error) {
	term, err := v.typed(expr)
	if err != nil {
		return nil, err
	}
	return v.modelOf(ctx, "counterexample", Not(term))
}

func (v *VerificationContext) modelOf(ctx context.Context, what string, term *Term) (*Model, error) {
	result, model, err := v.check(ctx, what, term)
	if err != nil {
		return nil, err
	}
	switch result {
	case Sat:
		return model, nil
	case Unsat:
		return nil, nil
	default:
		return nil, errorf(SolverError, "solver returned unknown result for %s", what)
	}
}

// EnumerateModels returns up to max distinct models of expr, excluding each
// one found with a blocking clause before searching again.
func (v *VerificationContext) EnumerateModels(ctx context.Context, expr ast.Expression, max int) ([]*Model, error) {
	if max <= 0 {
		max = DefaultMaxModels
	}
	term, err := v.typed(expr)
	if err != nil {
		return nil, err
	}
	v.solver.Push()
	defer func() {
		if err := v.solver.Pop(); err != nil {
			v.log.Error(err, "solver pop failed", "check", "enumerate")
		}
	}()
	if err := v.solver.Assert(term); err != nil {
		return nil, err
	}
	var models []*Model
	for len(models) < max {
		result, model, err := v.check(ctx, "enumerate")
		if err != nil {
			return models, err
		}
		if result == Unsat {
			break
		}
		if result != Sat {
			return models, errorf(SolverError, "solver returned unknown result after %d model(s)", len(models))
		}
		models = append(models, model)
		block := model.blockingClause()
		if block == nil {
			break
		}
		if err := v.solver.Assert(block); err != nil {
			return models, err
		}
	}
	return models, nil
}

// VerifyWhereClause reports whether value can satisfy constraint.
func (v *VerificationContext) VerifyWhereClause(ctx context.Context, constraint ast.Constraint, value ast.Expression) (bool, error) {
	w := &whereClause{tr: newTranslator(true, v.vars), value: value}
	term, err := v.constraintTerm(w, constraint)
	if err != nil {
		return false, err
	}
	return v.decide(ctx, "where clause", term)
}

// whereClause translates the constrained value on first use. Temporal
// constraints read the value as a day number instead.
type whereClause struct {
	tr      *translator
	value   ast.Expression
	subject *Term
}

func (w *whereClause) term() (*Term, error) {
	if w.subject != nil {
		return w.subject, nil
	}
	subject, err := w.tr.expr(w.value, "")
	if err != nil {
		return nil, err
	}
	if subject.Sort == "" {
		if subject, err = w.tr.expr(w.value, SortInt); err != nil {
			return nil, err
		}
	}
	w.subject = subject
	return subject, nil
}

func (v *VerificationContext) constraintTerm(w *whereClause, c ast.Constraint) (*Term, error) {
	switch con := c.(type) {
	case *ast.ComparisonConstraint:
		subject, err := w.term()
		if err != nil {
			return nil, err
		}
		rhs, err := w.tr.expr(con.Value, subject.Sort)
		if err != nil {
			return nil, err
		}
		l, r := promote(subject, rhs)
		if l.Sort != r.Sort {
			return nil, errorf(TranslationError, "type mismatch in comparison: %s vs %s", sortName(l.Sort), sortName(r.Sort))
		}
		switch con.Operator {
		case ast.CmpGreater:
			return Gt(l, r), nil
		case ast.CmpLess:
			return Lt(l, r), nil
		case ast.CmpGreaterEqual:
			return Ge(l, r), nil
		case ast.CmpLessEqual:
			return Le(l, r), nil
		case ast.CmpEqual:
			return Eq(l, r), nil
		case ast.CmpNotEqual:
			return Distinct(l, r), nil
		}
		return nil, errorf(TranslationError, "unknown operator: %s", con.Operator)
	case *ast.InRangeConstraint:
		lo, err := v.constraintTerm(w, ast.Ge(con.Min))
		if err != nil {
			return nil, err
		}
		hi, err := v.constraintTerm(w, ast.Le(con.Max))
		if err != nil {
			return nil, err
		}
		return And(lo, hi), nil
	case *ast.AndConstraint:
		l, r, err := v.constraintPair(w, con.Left, con.Right)
		if err != nil {
			return nil, err
		}
		return And(l, r), nil
	case *ast.OrConstraint:
		l, r, err := v.constraintPair(w, con.Left, con.Right)
		if err != nil {
			return nil, err
		}
		return Or(l, r), nil
	case *ast.NotConstraint:
		inner, err := v.constraintTerm(w, con.Inner)
		if err != nil {
			return nil, err
		}
		return Not(inner), nil
	case *ast.BeforeConstraint, *ast.AfterConstraint, *ast.BetweenConstraint:
		return v.temporalTerm(w.tr, con, w.value)
	case *ast.CustomConstraint:
		return nil, errorf(UnsupportedExpression, "custom constraint '%s' cannot be verified", con.Predicate)
	}
	return nil, errorf(UnsupportedExpression, "constraint not supported: %s", ast.ConstraintString(c))
}

func (v *VerificationContext) constraintPair(w *whereClause, left, right ast.Constraint) (*Term, *Term, error) {
	l, err := v.constraintTerm(w, left)
	if err != nil {
		return nil, nil, err
	}
	r, err := v.constraintTerm(w, right)
	if err != nil {
		return nil, nil, err
	}
	return l, r, nil
}

// temporalTerm compares dates as day numbers.
func (v *VerificationContext) temporalTerm(tr *translator, c ast.Constraint, value ast.Expression) (*Term, error) {
	day, err := v.dateTerm(tr, value)
	if err != nil {
		return nil, err
	}
	switch con := c.(type) {
	case *ast.BeforeConstraint:
		bound, err := v.dateTerm(tr, con.Date)
		if err != nil {
			return nil, err
		}
		return Lt(day, bound), nil
	case *ast.AfterConstraint:
		bound, err := v.dateTerm(tr, con.Date)
		if err != nil {
			return nil, err
		}
		return Gt(day, bound), nil
	default:
		between := c.(*ast.BetweenConstraint)
		start, err := v.dateTerm(tr, between.Start)
		if err != nil {
			return nil, err
		}
		end, err := v.dateTerm(tr, between.End)
		if err != nil {
			return nil, err
		}
		return And(Ge(day, start), Le(day, end)), nil
	}
}

func (v *VerificationContext) dateTerm(tr *translator, expr ast.Expression) (*Term, error) {
	if lit, ok := expr.(*ast.Literal); ok && (lit.Kind == ast.LiteralDate || lit.Kind == ast.LiteralString) {
		return v.dayNumber(&lit.Text, "")
	}
	term, err := tr.expr(expr, SortInt)
	if err != nil {
		return nil, err
	}
	if term.Sort != SortInt {
		return nil, errorf(TranslationError, "date operand must be a date, got %s", sortName(term.Sort))
	}
	return term, nil
}
