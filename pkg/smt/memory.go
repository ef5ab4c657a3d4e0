package smt

import (
	"context"
	"fmt"
	"math/big"
	"slices"

	"github.com/go-logr/logr"
)

// DefaultSearchBudget bounds the number of evaluation steps in one Check.
const DefaultSearchBudget = 1 << 20

// MemorySolver decides assertions by backtracking over candidate values.
// Booleans are searched exhaustively. Numeric and string variables range
// over breakpoints derived from the constants in the problem, which is exact
// while every atom compares a variable with a ground term. Anything else can
// still be found Sat, but an exhausted search then reports Unknown.
// Top-level conjuncts are evaluated only when a variable they mention is
// assigned, and boolean unit conjuncts fix their variable before the search.
type MemorySolver struct {
	decls  *declarations
	frames [][]*Term
	log    logr.Logger
	budget int
	last   Result
	model  *Model
}

// MemoryOption configures a MemorySolver.
type MemoryOption func(*MemorySolver)

func WithMemoryLogger(log logr.Logger) MemoryOption {
	return func(s *MemorySolver) {
		s.log = log
	}
}

// WithSearchBudget overrides DefaultSearchBudget.
func WithSearchBudget(steps int) MemoryOption {
	return func(s *MemorySolver) {
		if steps > 0 {
			s.budget = steps
		}
	}
}

func NewMemorySolver(opts ...MemoryOption) *MemorySolver {
	s := &MemorySolver{
		decls:  newDeclarations(),
		frames: [][]*Term{nil},
		log:    logr.Discard(),
		budget: DefaultSearchBudget,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemorySolver) Declare(name string, sort Sort) error {
	_, err := s.decls.declare(name, sort)
	return err
}

func (s *MemorySolver) Assert(term *Term) error {
	if term == nil {
		return errorf(TranslationError, "cannot assert an empty term")
	}
	if term.Sort != SortBool {
		return errorf(TranslationError, "assertion must be Bool, got %s", term.Sort)
	}
	for _, fv := range FreeVars(term) {
		if _, err := s.decls.declare(fv.Name, fv.Sort); err != nil {
			return err
		}
	}
	top := len(s.frames) - 1
	s.frames[top] = append(s.frames[top], term)
	return nil
}

func (s *MemorySolver) Push() {
	s.decls.push()
	s.frames = append(s.frames, nil)
}

func (s *MemorySolver) Pop() error {
	if err := s.decls.pop(); err != nil {
		return err
	}
	s.frames = s.frames[:len(s.frames)-1]
	return nil
}

func (s *MemorySolver) Close() error {
	return nil
}

func (s *MemorySolver) Model() (*Model, error) {
	if s.last != Sat || s.model == nil {
		return nil, errorf(SolverError, "model unavailable: last check was %s", s.last)
	}
	return s.model, nil
}

func (s *MemorySolver) Check(ctx context.Context) (Result, error) {
	var assertions []*Term
	for _, frame := range s.frames {
		assertions = append(assertions, frame...)
	}
	vars := s.decls.all()
	search := newSearch(ctx, assertions, vars, s.budget)
	result := search.run()
	s.last = result
	s.model = nil
	if result == Sat {
		s.model = search.model()
	}
	s.log.V(1).Info("memory solver check", "vars", len(vars), "assertions", len(assertions), "result", result.String(), "steps", search.steps)
	return result, nil
}

type search struct {
	ctx        context.Context
	vars       []FreeVar
	domains    map[Sort][]Value
	exactVars  bool
	exactQuant map[*Term]bool
	env        map[string]Value
	budget     int
	steps      int
	exhausted  bool
	sawUnknown bool
	found      []Value

	// clauses are the top-level conjuncts; watch[i] lists the clauses that
	// mention vars[i].
	clauses  []clause
	watch    [][]int
	fixed    map[string]Value
	conflict bool
}

// clause is one conjunct of the assertions. last is the highest index in
// vars it mentions, or -1 for a ground clause.
type clause struct {
	term *Term
	last int
}

func newSearch(ctx context.Context, assertions []*Term, vars []FreeVar, budget int) *search {
	s := &search{
		ctx:        ctx,
		vars:       vars,
		exactQuant: make(map[*Term]bool),
		env:        make(map[string]Value),
		budget:     budget,
		exactVars:  true,
		watch:      make([][]int, len(vars)),
		fixed:      make(map[string]Value),
	}
	s.domains = candidateDomains(assertions)
	for _, v := range vars {
		if v.Sort == SortBool {
			continue
		}
		for _, a := range assertions {
			if !exactFor(v.Name, a) {
				s.exactVars = false
				break
			}
		}
	}
	index := make(map[string]int, len(vars))
	for i, v := range vars {
		index[v.Name] = i
	}
	for _, a := range assertions {
		for _, c := range conjuncts(a, nil) {
			s.addClause(c, index)
		}
	}
	return s
}

// addClause fixes boolean unit literals and indexes every other clause by
// the variables it mentions.
func (s *search) addClause(t *Term, index map[string]int) {
	if name, value, ok := unitLiteral(t); ok {
		if prev, seen := s.fixed[name]; seen && prev.Bool != value {
			s.conflict = true
		}
		s.fixed[name] = BoolValue(value)
		return
	}
	k := len(s.clauses)
	last := -1
	undeclared := false
	for _, fv := range FreeVars(t) {
		i, ok := index[fv.Name]
		if !ok {
			undeclared = true
			continue
		}
		s.watch[i] = append(s.watch[i], k)
		last = max(last, i)
	}
	if undeclared && len(s.vars) > 0 && last < len(s.vars)-1 {
		last = len(s.vars) - 1
		s.watch[last] = append(s.watch[last], k)
	}
	s.clauses = append(s.clauses, clause{term: t, last: last})
}

func conjuncts(t *Term, out []*Term) []*Term {
	if t.Op == OpAnd {
		for _, arg := range t.Args {
			out = conjuncts(arg, out)
		}
		return out
	}
	return append(out, t)
}

// unitLiteral recognizes b and (not b) for a boolean variable b.
func unitLiteral(t *Term) (string, bool, bool) {
	switch {
	case t.Op == OpVar && t.Sort == SortBool:
		return t.Name, true, true
	case t.Op == OpNot && t.Args[0].Op == OpVar && t.Args[0].Sort == SortBool:
		return t.Args[0].Name, false, true
	}
	return "", false, false
}

func (s *search) run() Result {
	if s.conflict {
		return Unsat
	}
	unsettled := false
	for _, c := range s.clauses {
		if c.last >= 0 {
			continue
		}
		v, ok := s.eval(c.term)
		if !ok {
			unsettled = true
			continue
		}
		if !v.Bool {
			return Unsat
		}
	}
	if s.assign(0, unsettled) {
		return Sat
	}
	if s.exhausted || s.sawUnknown || !s.exactVars {
		return Unknown
	}
	return Unsat
}

func (s *search) model() *Model {
	m := &Model{}
	for i, v := range s.vars {
		m.Assignments = append(m.Assignments, Assignment{Name: v.Name, Value: s.found[i]})
	}
	return m
}

func (s *search) candidates(v FreeVar) []Value {
	if value, ok := s.fixed[v.Name]; ok {
		return []Value{value}
	}
	return s.domains[v.Sort]
}

// assign tries every candidate for vars[i:], pruning on definite falsity.
// unsettled is set once a clause with all its variables assigned still
// evaluates to unknown.
func (s *search) assign(i int, unsettled bool) bool {
	if s.exhausted {
		return false
	}
	if i == len(s.vars) {
		if unsettled {
			s.sawUnknown = true
			return false
		}
		s.found = make([]Value, len(s.vars))
		for j, v := range s.vars {
			s.found[j] = s.env[v.Name]
		}
		return true
	}
	v := s.vars[i]
	for _, candidate := range s.candidates(v) {
		s.env[v.Name] = candidate
		verdict := s.settle(i)
		if verdict != triFalse && s.assign(i+1, unsettled || verdict == triUnknown) {
			return true
		}
		if s.exhausted {
			break
		}
	}
	delete(s.env, v.Name)
	return false
}

type tri int

const (
	triUnknown tri = iota
	triTrue
	triFalse
)

// settle evaluates the clauses that mention vars[i]. Only a clause whose
// last variable is vars[i] makes the verdict unknown; the others are
// revisited when their last variable is assigned.
func (s *search) settle(i int) tri {
	verdict := triTrue
	for _, k := range s.watch[i] {
		c := s.clauses[k]
		v, ok := s.eval(c.term)
		if !ok {
			if c.last == i {
				verdict = triUnknown
			}
			continue
		}
		if !v.Bool {
			return triFalse
		}
	}
	return verdict
}

func (s *search) tick() bool {
	s.steps++
	if s.steps > s.budget {
		s.exhausted = true
	}
	if s.steps&1023 == 0 && s.ctx.Err() != nil {
		s.exhausted = true
	}
	return !s.exhausted
}

// eval returns the value of t under the current assignment, or ok=false when
// it depends on something unassigned or uninterpreted.
func (s *search) eval(t *Term) (Value, bool) {
	if !s.tick() {
		return Value{}, false
	}
	switch t.Op {
	case OpConst:
		return t.Value, true
	case OpVar:
		v, ok := s.env[t.Name]
		return v, ok
	case OpNot:
		v, ok := s.eval(t.Args[0])
		if !ok {
			return Value{}, false
		}
		return BoolValue(!v.Bool), true
	case OpAnd, OpOr:
		return s.evalJunction(t)
	case OpImplies:
		return s.evalJunction(Or(Not(t.Args[0]), t.Args[1]))
	case OpEq, OpDistinct, OpLt, OpLe, OpGt, OpGe:
		l, lok := s.eval(t.Args[0])
		r, rok := s.eval(t.Args[1])
		if !lok || !rok {
			return Value{}, false
		}
		return compareValues(t.Op, l, r)
	case OpNeg:
		v, ok := s.eval(t.Args[0])
		if !ok {
			return Value{}, false
		}
		if v.Sort == SortInt {
			return IntValue(-v.Int), true
		}
		return RealValue(new(big.Rat).Neg(v.rat())), true
	case OpAdd, OpSub, OpMul, OpDiv, OpMod:
		l, lok := s.eval(t.Args[0])
		r, rok := s.eval(t.Args[1])
		if !lok || !rok {
			return Value{}, false
		}
		return arithmetic(t.Op, l, r)
	case OpForall, OpExists:
		return s.evalQuantifier(t)
	default:
		return Value{}, false
	}
}

func (s *search) evalJunction(t *Term) (Value, bool) {
	isAnd := t.Op == OpAnd
	unknown := false
	for _, arg := range t.Args {
		v, ok := s.eval(arg)
		if !ok {
			unknown = true
			continue
		}
		if v.Bool != isAnd {
			return BoolValue(!isAnd), true
		}
	}
	if unknown {
		return Value{}, false
	}
	return BoolValue(isAnd), true
}

func (s *search) evalQuantifier(t *Term) (Value, bool) {
	isForall := t.Op == OpForall
	previous, shadowed := s.env[t.Name]
	defer func() {
		if shadowed {
			s.env[t.Name] = previous
		} else {
			delete(s.env, t.Name)
		}
	}()
	unknown := false
	for _, candidate := range s.domains[t.VarSort] {
		s.env[t.Name] = candidate
		v, ok := s.eval(t.Args[0])
		if !ok {
			unknown = true
			continue
		}
		if v.Bool != isForall {
			return BoolValue(!isForall), true
		}
	}
	if unknown || !s.quantifierExact(t) {
		return Value{}, false
	}
	return BoolValue(isForall), true
}

func (s *search) quantifierExact(t *Term) bool {
	if t.VarSort == SortBool {
		return true
	}
	exact, ok := s.exactQuant[t]
	if !ok {
		exact = exactFor(t.Name, t.Args[0])
		s.exactQuant[t] = exact
	}
	return exact
}

func compareValues(op Op, l, r Value) (Value, bool) {
	if op == OpEq || op == OpDistinct {
		if l.Sort != r.Sort && !(l.Sort.numeric() && r.Sort.numeric()) {
			return Value{}, false
		}
		eq := l.Equal(r)
		return BoolValue(eq == (op == OpEq)), true
	}
	if !l.Sort.numeric() || !r.Sort.numeric() {
		return Value{}, false
	}
	var cmp int
	if l.Sort == SortInt && r.Sort == SortInt {
		cmp = compareInt(l.Int, r.Int)
	} else {
		cmp = l.rat().Cmp(r.rat())
	}
	switch op {
	case OpLt:
		return BoolValue(cmp < 0), true
	case OpLe:
		return BoolValue(cmp <= 0), true
	case OpGt:
		return BoolValue(cmp > 0), true
	default:
		return BoolValue(cmp >= 0), true
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

// arithmetic follows SMT-LIB semantics: integer div and mod are Euclidean,
// and division by zero is left uninterpreted.
func arithmetic(op Op, l, r Value) (Value, bool) {
	if !l.Sort.numeric() || !r.Sort.numeric() {
		return Value{}, false
	}
	if l.Sort == SortInt && r.Sort == SortInt {
		a, b := l.Int, r.Int
		switch op {
		case OpAdd:
			return IntValue(a + b), true
		case OpSub:
			return IntValue(a - b), true
		case OpMul:
			return IntValue(a * b), true
		case OpDiv, OpMod:
			if b == 0 {
				return Value{}, false
			}
			q, m := euclid(a, b)
			if op == OpDiv {
				return IntValue(q), true
			}
			return IntValue(m), true
		}
		return Value{}, false
	}
	a, b := l.rat(), r.rat()
	out := new(big.Rat)
	switch op {
	case OpAdd:
		out.Add(a, b)
	case OpSub:
		out.Sub(a, b)
	case OpMul:
		out.Mul(a, b)
	case OpDiv:
		if b.Sign() == 0 {
			return Value{}, false
		}
		out.Quo(a, b)
	default:
		return Value{}, false
	}
	return RealValue(out), true
}

func euclid(a, b int64) (int64, int64) {
	q, m := a/b, a%b
	if m < 0 {
		if b > 0 {
			q--
			m += b
		} else {
			q++
			m -= b
		}
	}
	return q, m
}

// exactFor reports whether every occurrence of name in t is compared
// directly against a ground term.
func exactFor(name string, t *Term) bool {
	switch t.Op {
	case OpVar:
		return t.Name != name
	case OpConst:
		return true
	case OpForall, OpExists:
		if t.Name == name {
			return true
		}
		return exactFor(name, t.Args[0])
	case OpEq, OpDistinct, OpLt, OpLe, OpGt, OpGe:
		l, r := t.Args[0], t.Args[1]
		if isVarNamed(l, name) {
			return ground(r)
		}
		if isVarNamed(r, name) {
			return ground(l)
		}
	}
	for _, arg := range t.Args {
		if !exactFor(name, arg) {
			return false
		}
	}
	return true
}

func isVarNamed(t *Term, name string) bool {
	return t.Op == OpVar && t.Name == name
}

func ground(t *Term) bool {
	switch t.Op {
	case OpVar, OpApp, OpSelect, OpForall, OpExists:
		return false
	}
	for _, arg := range t.Args {
		if !ground(arg) {
			return false
		}
	}
	return true
}

// candidateDomains derives the values searched for each sort.
func candidateDomains(assertions []*Term) map[Sort][]Value {
	var numbers []*big.Rat
	var strs []string
	var collect func(t *Term)
	collect = func(t *Term) {
		if t.Op == OpConst {
			switch t.Value.Sort {
			case SortInt, SortReal:
				numbers = append(numbers, t.Value.rat())
			case SortString:
				strs = append(strs, t.Value.Str)
			}
		}
		if ground(t) && t.Op != OpConst && t.Sort.numeric() {
			if v, ok := evalGround(t); ok {
				numbers = append(numbers, v.rat())
			}
		}
		for _, arg := range t.Args {
			collect(arg)
		}
	}
	for _, a := range assertions {
		collect(a)
	}

	return map[Sort][]Value{
		SortBool:   {BoolValue(false), BoolValue(true)},
		SortInt:    intCandidates(numbers),
		SortReal:   realCandidates(numbers),
		SortString: stringCandidates(strs),
	}
}

func evalGround(t *Term) (Value, bool) {
	s := &search{ctx: context.Background(), env: map[string]Value{}, budget: DefaultSearchBudget, exactQuant: map[*Term]bool{}}
	return s.eval(t)
}

func intCandidates(numbers []*big.Rat) []Value {
	set := map[int64]bool{0: true}
	for _, n := range numbers {
		if !n.Num().IsInt64() || !n.Denom().IsInt64() {
			continue
		}
		floor := new(big.Int).Div(n.Num(), n.Denom()).Int64()
		if n.IsInt() {
			set[floor-1], set[floor], set[floor+1] = true, true, true
			continue
		}
		set[floor], set[floor+1] = true, true
	}
	keys := make([]int64, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]Value, len(keys))
	for i, k := range keys {
		out[i] = IntValue(k)
	}
	return out
}

func realCandidates(numbers []*big.Rat) []Value {
	points := []*big.Rat{new(big.Rat)}
	points = append(points, numbers...)
	slices.SortFunc(points, func(a, b *big.Rat) int { return a.Cmp(b) })
	points = slices.CompactFunc(points, func(a, b *big.Rat) bool { return a.Cmp(b) == 0 })

	out := []Value{RealValue(new(big.Rat).Sub(points[0], big.NewRat(1, 1)))}
	for i, p := range points {
		out = append(out, RealValue(p))
		if i+1 < len(points) {
			mid := new(big.Rat).Add(p, points[i+1])
			mid.Quo(mid, big.NewRat(2, 1))
			out = append(out, RealValue(mid))
		}
	}
	out = append(out, RealValue(new(big.Rat).Add(points[len(points)-1], big.NewRat(1, 1))))
	return out
}

func stringCandidates(strs []string) []Value {
	slices.Sort(strs)
	strs = slices.Compact(strs)
	out := make([]Value, 0, len(strs)+1)
	for _, s := range strs {
		out = append(out, StringValue(s))
	}
	fresh := ""
	for i := 0; slices.Contains(strs, fresh); i++ {
		fresh = fmt.Sprintf("s%d", i)
	}
	return append(out, StringValue(fresh))
}
