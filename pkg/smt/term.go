package smt

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Sort is an SMT-LIB sort name.
type Sort string

const (
	SortInt    Sort = "Int"
	SortReal   Sort = "Real"
	SortBool   Sort = "Bool"
	SortString Sort = "String"
)

func (s Sort) numeric() bool {
	return s == SortInt || s == SortReal
}

// Op identifies the shape of a Term.
type Op string

const (
	OpConst    Op = "const"
	OpVar      Op = "var"
	OpNot      Op = "not"
	OpNeg      Op = "neg"
	OpAnd      Op = "and"
	OpOr       Op = "or"
	OpImplies  Op = "=>"
	OpEq       Op = "="
	OpDistinct Op = "distinct"
	OpLt       Op = "<"
	OpLe       Op = "<="
	OpGt       Op = ">"
	OpGe       Op = ">="
	OpAdd      Op = "+"
	OpSub      Op = "-"
	OpMul      Op = "*"
	OpDiv      Op = "div"
	OpMod      Op = "mod"
	OpForall   Op = "forall"
	OpExists   Op = "exists"
	OpApp      Op = "app"
	OpSelect   Op = "select"
)

// Value is a constant of one of the supported sorts.
type Value struct {
	Sort Sort
	Int  int64
	Real *big.Rat
	Bool bool
	Str  string
}

func IntValue(n int64) Value        { return Value{Sort: SortInt, Int: n} }
func BoolValue(b bool) Value        { return Value{Sort: SortBool, Bool: b} }
func StringValue(s string) Value    { return Value{Sort: SortString, Str: s} }
func RealValue(r *big.Rat) Value    { return Value{Sort: SortReal, Real: new(big.Rat).Set(r)} }
func RatValue(num, den int64) Value { return Value{Sort: SortReal, Real: big.NewRat(num, den)} }

// FloatValue converts f exactly; NaN and infinities become zero.
func FloatValue(f float64) Value {
	r := new(big.Rat)
	if r.SetFloat64(f) == nil {
		r.SetInt64(0)
	}
	return Value{Sort: SortReal, Real: r}
}

func (v Value) rat() *big.Rat {
	if v.Sort == SortReal && v.Real != nil {
		return v.Real
	}
	return new(big.Rat).SetInt64(v.Int)
}

// Equal compares two values of compatible sorts.
func (v Value) Equal(o Value) bool {
	switch {
	case v.Sort.numeric() && o.Sort.numeric():
		if v.Sort == SortInt && o.Sort == SortInt {
			return v.Int == o.Int
		}
		return v.rat().Cmp(o.rat()) == 0
	case v.Sort != o.Sort:
		return false
	case v.Sort == SortBool:
		return v.Bool == o.Bool
	default:
		return v.Str == o.Str
	}
}

// String renders the value as an SMT-LIB literal.
func (v Value) String() string {
	switch v.Sort {
	case SortInt:
		if v.Int < 0 {
			return fmt.Sprintf("(- %s)", strconv.FormatUint(uint64(-(v.Int+1))+1, 10))
		}
		return strconv.FormatInt(v.Int, 10)
	case SortReal:
		r := v.rat()
		neg := r.Sign() < 0
		abs := new(big.Rat).Abs(r)
		text := abs.Num().String() + ".0"
		if !abs.IsInt() {
			text = fmt.Sprintf("(/ %s.0 %s.0)", abs.Num().String(), abs.Denom().String())
		}
		if neg {
			return "(- " + text + ")"
		}
		return text
	case SortBool:
		return strconv.FormatBool(v.Bool)
	case SortString:
		return `"` + strings.ReplaceAll(v.Str, `"`, `""`) + `"`
	default:
		return "?"
	}
}

// Term is an SMT-LIB expression tree.
type Term struct {
	Op      Op
	Sort    Sort
	Name    string
	Value   Value
	Args    []*Term
	VarSort Sort // binder sort of a quantifier
}

func Const(v Value) *Term            { return &Term{Op: OpConst, Sort: v.Sort, Value: v} }
func IntConst(n int64) *Term         { return Const(IntValue(n)) }
func RealConst(num, den int64) *Term { return Const(RatValue(num, den)) }
func FloatConst(f float64) *Term     { return Const(FloatValue(f)) }
func BoolConst(b bool) *Term         { return Const(BoolValue(b)) }
func StringConst(s string) *Term     { return Const(StringValue(s)) }

func Var(name string, sort Sort) *Term {
	return &Term{Op: OpVar, Sort: sort, Name: name}
}

func Not(t *Term) *Term { return &Term{Op: OpNot, Sort: SortBool, Args: []*Term{t}} }
func Neg(t *Term) *Term { return &Term{Op: OpNeg, Sort: t.Sort, Args: []*Term{t}} }

func And(ts ...*Term) *Term { return &Term{Op: OpAnd, Sort: SortBool, Args: ts} }
func Or(ts ...*Term) *Term  { return &Term{Op: OpOr, Sort: SortBool, Args: ts} }

func Implies(a, b *Term) *Term  { return &Term{Op: OpImplies, Sort: SortBool, Args: []*Term{a, b}} }
func Eq(a, b *Term) *Term       { return &Term{Op: OpEq, Sort: SortBool, Args: []*Term{a, b}} }
func Distinct(a, b *Term) *Term { return &Term{Op: OpDistinct, Sort: SortBool, Args: []*Term{a, b}} }
func Lt(a, b *Term) *Term       { return &Term{Op: OpLt, Sort: SortBool, Args: []*Term{a, b}} }
func Le(a, b *Term) *Term       { return &Term{Op: OpLe, Sort: SortBool, Args: []*Term{a, b}} }
func Gt(a, b *Term) *Term       { return &Term{Op: OpGt, Sort: SortBool, Args: []*Term{a, b}} }
func Ge(a, b *Term) *Term       { return &Term{Op: OpGe, Sort: SortBool, Args: []*Term{a, b}} }

func Add(a, b *Term) *Term { return arith(OpAdd, a, b) }
func Sub(a, b *Term) *Term { return arith(OpSub, a, b) }
func Mul(a, b *Term) *Term { return arith(OpMul, a, b) }
func Div(a, b *Term) *Term { return arith(OpDiv, a, b) }
func Mod(a, b *Term) *Term { return arith(OpMod, a, b) }

func arith(op Op, a, b *Term) *Term {
	sort := a.Sort
	if sort == "" || b.Sort == SortReal {
		sort = b.Sort
	}
	return &Term{Op: op, Sort: sort, Args: []*Term{a, b}}
}

func Forall(name string, sort Sort, body *Term) *Term {
	return &Term{Op: OpForall, Sort: SortBool, Name: name, VarSort: sort, Args: []*Term{body}}
}

func Exists(name string, sort Sort, body *Term) *Term {
	return &Term{Op: OpExists, Sort: SortBool, Name: name, VarSort: sort, Args: []*Term{body}}
}

// App applies an uninterpreted function. With no arguments it is a bare symbol.
func App(name string, sort Sort, args ...*Term) *Term {
	return &Term{Op: OpApp, Sort: sort, Name: name, Args: args}
}

// Select reads a named field from a record-like base term.
func Select(base *Term, field string) *Term {
	return &Term{Op: OpSelect, Name: field, Args: []*Term{base}}
}

// String renders the term in SMT-LIB2 syntax.
func (t *Term) String() string {
	var b strings.Builder
	t.write(&b)
	return b.String()
}

func (t *Term) write(b *strings.Builder) {
	switch t.Op {
	case OpConst:
		b.WriteString(t.Value.String())
	case OpVar:
		b.WriteString(Symbol(t.Name))
	case OpNeg:
		t.writeApp(b, "-", t.Args)
	case OpAnd, OpOr:
		if len(t.Args) == 0 {
			b.WriteString(strconv.FormatBool(t.Op == OpAnd))
			return
		}
		if len(t.Args) == 1 {
			t.Args[0].write(b)
			return
		}
		t.writeApp(b, string(t.Op), t.Args)
	case OpDiv:
		if t.Sort == SortReal {
			t.writeApp(b, "/", t.Args)
			return
		}
		t.writeApp(b, "div", t.Args)
	case OpForall, OpExists:
		fmt.Fprintf(b, "(%s ((%s %s)) ", t.Op, Symbol(t.Name), t.VarSort)
		t.Args[0].write(b)
		b.WriteByte(')')
	case OpApp:
		if len(t.Args) == 0 {
			b.WriteString(Symbol(t.Name))
			return
		}
		t.writeApp(b, Symbol(t.Name), t.Args)
	case OpSelect:
		b.WriteString("(select ")
		t.Args[0].write(b)
		b.WriteByte(' ')
		b.WriteString(Symbol(t.Name))
		b.WriteByte(')')
	default:
		t.writeApp(b, string(t.Op), t.Args)
	}
}

func (t *Term) writeApp(b *strings.Builder, head string, args []*Term) {
	b.WriteByte('(')
	b.WriteString(head)
	for _, arg := range args {
		b.WriteByte(' ')
		arg.write(b)
	}
	b.WriteByte(')')
}

// Symbol quotes name with |...| unless it is a simple SMT-LIB symbol.
func Symbol(name string) string {
	if name == "" {
		return "||"
	}
	simple := true
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				simple = false
			}
		case strings.ContainsRune("~!@$%^&*_-+=<>.?/", r):
		default:
			simple = false
		}
	}
	if simple {
		return name
	}
	return "|" + strings.ReplaceAll(name, "|", "") + "|"
}

// FreeVar is a variable occurring unbound in a term.
type FreeVar struct {
	Name string
	Sort Sort
}

// FreeVars lists the unbound variables of t in first-occurrence order.
func FreeVars(terms ...*Term) []FreeVar {
	var out []FreeVar
	seen := make(map[string]bool)
	var walk func(t *Term, bound map[string]int)
	walk = func(t *Term, bound map[string]int) {
		if t == nil {
			return
		}
		switch t.Op {
		case OpVar:
			if bound[t.Name] == 0 && !seen[t.Name] {
				seen[t.Name] = true
				out = append(out, FreeVar{Name: t.Name, Sort: t.Sort})
			}
			return
		case OpForall, OpExists:
			bound[t.Name]++
			walk(t.Args[0], bound)
			bound[t.Name]--
			return
		}
		for _, arg := range t.Args {
			walk(arg, bound)
		}
	}
	for _, t := range terms {
		walk(t, make(map[string]int))
	}
	return out
}

// Uninterpreted reports whether t applies functions or selects fields that
// no declaration covers.
func Uninterpreted(t *Term) bool {
	if t == nil {
		return false
	}
	if t.Op == OpApp || t.Op == OpSelect {
		return true
	}
	for _, arg := range t.Args {
		if Uninterpreted(arg) {
			return true
		}
	}
	return false
}
