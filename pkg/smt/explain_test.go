package smt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"yuho/core-go/pkg/ast"
)

func TestExplainPrinciple(t *testing.T) {
	simple := ast.Principle("AllPositive",
		ast.Forall("x", ast.IntT(), ast.Bin(ast.OpGt, ast.ID("x"), ast.Int(0))))
	assert.Equal(t, "Principle 'AllPositive' states that:\n\n  For all x of type integer,\n    x > 0",
		ExplainPrinciple(simple))

	nested := ast.Principle("nested",
		ast.Forall("x", ast.IntT(), ast.Exists("y", ast.BoolT(),
			ast.Bin(ast.OpAnd, ast.Bin(ast.OpGt, ast.ID("x"), ast.Int(0)), ast.Not(ast.ID("y"))))))
	assert.Equal(t, "Principle 'nested' states that:\n\n"+
		"  For all x of type integer,\n"+
		"    There exists a y of type boolean such that\n"+
		"      (x > 0) and not y",
		ExplainPrinciple(nested))

	named := ast.Principle("named", ast.Forall("p", ast.Named("Person"), ast.Field(ast.ID("p"), "adult")))
	assert.Contains(t, ExplainPrinciple(named), "For all p of type Person,\n    p.adult")
	assert.Empty(t, ExplainPrinciple(nil))
}

func TestExplainCounterexample(t *testing.T) {
	principle := ast.Principle("range", ast.Bin(ast.OpAnd,
		ast.Bin(ast.OpGte, ast.ID("age"), ast.Int(18)),
		ast.Bin(ast.OpAnd,
			ast.Bin(ast.OpLte, ast.ID("age"), ast.Int(120)),
			ast.Call("eligible", ast.ID("age")))))
	model := &Model{Assignments: []Assignment{{Name: "age", Value: IntValue(12)}}}

	assert.Equal(t, "counterexample:\n"+
		"  age = 12\n"+
		"because:\n"+
		"  - age >= 18 is false\n"+
		"  - age <= 120 holds\n"+
		"  - eligible(age) cannot be decided under this assignment\n",
		ExplainCounterexample(principle, model))

	closed := ast.Principle("all_positive",
		ast.Forall("x", ast.IntT(), ast.Bin(ast.OpGt, ast.ID("x"), ast.Int(0))))
	out := ExplainCounterexample(closed, &Model{})
	assert.Contains(t, out, "counterexample:\n  (no free variables)\nbecause:\n")
	assert.Contains(t, out, "  - (for all x of type integer, x > 0) ")
}

func TestModelEval(t *testing.T) {
	m := &Model{Assignments: []Assignment{
		{Name: "x", Value: IntValue(-3)},
		{Name: "half", Value: RatValue(1, 2)},
	}}
	v, ok := m.Eval(Lt(Var("x", SortInt), Var("half", SortReal)))
	assert.True(t, ok)
	assert.True(t, v.Bool)

	_, ok = m.Eval(Gt(Var("missing", SortInt), IntConst(0)))
	assert.False(t, ok)

	assert.Equal(t, "-3", valueText(IntValue(-3)))
	assert.Equal(t, "0.5", valueText(RatValue(1, 2)))
	assert.Equal(t, "4", valueText(RatValue(8, 2)))
	assert.Equal(t, `"r. 415"`, valueText(StringValue("r. 415")))
}
