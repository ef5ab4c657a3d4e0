package smt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTermRendering(t *testing.T) {
	x := Var("x", SortInt)
	r := Var("rate", SortReal)
	cases := []struct {
		name string
		term *Term
		want string
	}{
		{"negative int", IntConst(-5), "(- 5)"},
		{"integral real", RealConst(3, 1), "3.0"},
		{"fractional real", RealConst(-1, 2), "(- (/ 1.0 2.0))"},
		{"string escape", StringConst(`say "hi"`), `"say ""hi"""`},
		{"empty and", And(), "true"},
		{"empty or", Or(), "false"},
		{"single and", And(Gt(x, IntConst(0))), "(> x 0)"},
		{"int division", Div(x, IntConst(2)), "(div x 2)"},
		{"real division", Div(r, RealConst(2, 1)), "(/ rate 2.0)"},
		{"negation", Neg(x), "(- x)"},
		{"implication", Implies(BoolConst(true), Distinct(x, IntConst(1))), "(=> true (distinct x 1))"},
		{"forall", Forall("y", SortReal, Ge(Var("y", SortReal), RealConst(0, 1))), "(forall ((y Real)) (>= y 0.0))"},
		{"nullary app", App("null", ""), "null"},
		{"select", Select(Var("p", ""), "age"), "(select p age)"},
		{"quoted symbol", Var("has space", SortBool), "|has space|"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.term.String())
		})
	}
}

func TestArithmeticSortPromotion(t *testing.T) {
	assert.Equal(t, SortInt, Add(IntConst(1), IntConst(2)).Sort)
	assert.Equal(t, SortReal, Mul(IntConst(1), RealConst(1, 2)).Sort)
}

func TestFreeVarsOrderAndBinding(t *testing.T) {
	body := And(
		Gt(Var("b", SortInt), IntConst(0)),
		Forall("x", SortInt, Lt(Var("x", SortInt), Var("a", SortInt))),
		Eq(Var("b", SortInt), IntConst(3)),
	)
	got := FreeVars(body)
	require.Len(t, got, 2)
	assert.Equal(t, FreeVar{Name: "b", Sort: SortInt}, got[0])
	assert.Equal(t, FreeVar{Name: "a", Sort: SortInt}, got[1])
}

func TestUninterpreted(t *testing.T) {
	assert.False(t, Uninterpreted(Gt(Var("x", SortInt), IntConst(0))))
	assert.True(t, Uninterpreted(Not(App("eligible", SortBool, Var("x", SortInt)))))
	assert.True(t, Uninterpreted(Eq(Select(Var("p", ""), "age"), IntConst(1))))
}

func TestModelRendering(t *testing.T) {
	m := &Model{Assignments: []Assignment{
		{Name: "x", Value: IntValue(42)},
		{Name: "ok", Value: BoolValue(false)},
	}}
	assert.Equal(t, "(\n  (define-fun x () Int 42)\n  (define-fun ok () Bool false)\n)", m.String())
	assert.Equal(t, "  x = 42\n  ok = false\n", m.Format())

	v, ok := m.Lookup("ok")
	require.True(t, ok)
	assert.Equal(t, BoolValue(false), v)
	_, ok = m.Lookup("missing")
	assert.False(t, ok)

	assert.Equal(t, "(or (distinct x 42) (distinct ok false))", m.blockingClause().String())
	assert.Nil(t, (&Model{}).blockingClause())
}

func TestValueEquality(t *testing.T) {
	assert.True(t, FloatValue(0.5).Equal(RatValue(1, 2)))
	assert.False(t, IntValue(1).Equal(IntValue(2)))
	assert.True(t, StringValue("a").Equal(StringValue("a")))
}
