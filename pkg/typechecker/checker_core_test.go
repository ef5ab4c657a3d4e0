package typechecker

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yuho/core-go/pkg/ast"
)

func personStruct() *ast.StructDefinition {
	return ast.StructDef("Person",
		ast.FieldDef("name", ast.StringT()),
		ast.FieldDef("age", ast.IntT()),
	)
}

func TestPersonDeclarationChecksCleanly(t *testing.T) {
	program := ast.Prog(
		personStruct(),
		ast.Decl("p", ast.Named("Person"), ast.StructLit("Person",
			ast.Init("name", ast.Str("Alice")),
			ast.Init("age", ast.Int(30)),
		)),
	)
	diags := New().CheckProgram(program)
	assert.Empty(t, diags)
}

func TestPersonMissingAgeReportsExactlyOneMissingField(t *testing.T) {
	program := ast.Prog(
		personStruct(),
		ast.Decl("p", ast.Named("Person"), ast.StructLit("Person",
			ast.Init("name", ast.Str("Alice")),
		)),
	)
	diags := New().CheckProgram(program)
	require.Len(t, diags, 1, "diagnostics: %v", diags)
	assert.Equal(t, MissingField, diags[0].Kind)
	assert.Equal(t, "Person", diags[0].StructName)
	assert.Equal(t, "age", diags[0].Field)
	assert.Contains(t, diags[0].Message, "typechecker: ")
}

func TestReversedBoundedIntReportsExactlyOneRangeError(t *testing.T) {
	program := ast.Prog(ast.Decl("x", ast.Bounded(100, 0), ast.Int(50)))
	diags := New().CheckProgram(program)
	require.Len(t, diags, 1, "diagnostics: %v", diags)
	assert.Equal(t, InvalidBoundedIntRange, diags[0].Kind)
	assert.Equal(t, int64(100), diags[0].Min)
	assert.Equal(t, int64(0), diags[0].Max)
}

func TestBoundedIntRangeProperty(t *testing.T) {
	for min := int64(-3); min <= 3; min++ {
		for max := int64(-3); max <= 3; max++ {
			t.Run(fmt.Sprintf("%d..%d", min, max), func(t *testing.T) {
				diags := New().checkType(ast.Bounded(min, max))
				ranged := FilterKind(diags, InvalidBoundedIntRange)
				if min >= max {
					assert.Len(t, ranged, 1)
				} else {
					assert.Empty(t, ranged)
				}
			})
		}
	}
}

func TestForwardReferencesAcrossItems(t *testing.T) {
	program := ast.Prog(
		ast.Decl("c", ast.Named("Case"), ast.StructLit("Case",
			ast.Init("verdict", ast.ID("Guilty")),
		)),
		ast.StructDef("Case", ast.FieldDef("verdict", ast.Named("Verdict"))),
		ast.EnumDef("Verdict", "Guilty", "NotGuilty"),
	)
	assert.Empty(t, New().CheckProgram(program))
}

func TestDuplicateDefinitionsAreCollectedWithoutStopping(t *testing.T) {
	program := ast.Prog(
		ast.StructDef("Person"),
		ast.StructDef("Person"),
		ast.EnumDef("Status", "A"),
		ast.EnumDef("Status", "B"),
		ast.Decl("x", ast.IntT(), ast.Int(1)),
		ast.Decl("x", ast.IntT(), ast.Int(2)),
		ast.Decl("y", ast.Named("Unknown"), ast.Int(3)),
	)
	diags := New().CheckProgram(program)
	assert.Len(t, FilterKind(diags, Duplicate), 3)
	assert.Len(t, FilterKind(diags, Undefined), 1)
}

func TestDefinitionsInsideScopesAreCollected(t *testing.T) {
	program := ast.Prog(
		ast.ScopeDef("penal_code",
			ast.StructDef("Offence", ast.FieldDef("section", ast.StringT())),
			ast.Decl("local", ast.IntT(), ast.Int(1)),
		),
		ast.Decl("o", ast.Named("Offence"), ast.StructLit("Offence", ast.Init("section", ast.Str("378")))),
		ast.Decl("again", ast.IntT(), ast.ID("local")),
	)
	diags := New().CheckProgram(program)
	require.Len(t, diags, 1, "diagnostics: %v", diags)
	assert.Equal(t, Undefined, diags[0].Kind)
	assert.Equal(t, "local", diags[0].Name)
}

func TestFunctionScopesAreBalanced(t *testing.T) {
	fn := ast.FnDef("penalty", []*ast.Parameter{
		ast.Param("amount", ast.MoneyT()),
		ast.Param("amount", ast.MoneyT()),
	}, ast.MoneyT(),
		ast.Decl("doubled", ast.MoneyT(), ast.Bin(ast.OpMul, ast.ID("amount"), ast.Int(2))),
		ast.Assign("missing", ast.Int(1)),
		ast.Ret(ast.ID("doubled")),
	)
	checker := New()
	diags := checker.CheckProgram(ast.Prog(fn, ast.Decl("after", ast.IntT(), ast.ID("doubled"))))

	assert.Len(t, FilterKind(diags, Duplicate), 1)
	undefined := FilterKind(diags, Undefined)
	require.Len(t, undefined, 2)
	assert.Equal(t, "missing", undefined[0].Name)
	assert.Equal(t, "doubled", undefined[1].Name, "function locals do not leak")
	assert.Equal(t, 1, checker.Symbols().Depth())
}

func TestCallsRequireKnownFunctionsAndArity(t *testing.T) {
	program := ast.Prog(
		ast.FnDef("fine", []*ast.Parameter{ast.Param("x", ast.IntT())}, ast.IntT(), ast.Ret(ast.ID("x"))),
		ast.Decl("a", ast.IntT(), ast.Call("fine", ast.Int(1))),
		ast.Decl("b", ast.IntT(), ast.Call("fine")),
		ast.Decl("c", ast.IntT(), ast.Call("jail", ast.Int(1))),
	)
	diags := New().CheckProgram(program)
	require.Len(t, diags, 2, "diagnostics: %v", diags)
	assert.Equal(t, TypeMismatch, diags[0].Kind)
	assert.Equal(t, 1, diags[0].ExpectedArity)
	assert.Equal(t, 0, diags[0].GotArity)
	assert.Equal(t, Undefined, diags[1].Kind)
	assert.Equal(t, "jail", diags[1].Name)
}

func TestLegalTestRequirementsMustBeBool(t *testing.T) {
	program := ast.Prog(ast.LegalTest("theft",
		ast.Req("dishonest", ast.BoolT()),
		ast.Req("value", ast.MoneyT()),
		ast.Req("movable", ast.BoolT()),
	))
	diags := New().CheckProgram(program)
	require.Len(t, diags, 1)
	assert.Equal(t, TypeMismatch, diags[0].Kind)
	assert.Equal(t, "bool", diags[0].Expected)
	assert.Equal(t, "money", diags[0].Got)
}

func TestQuantifierVariablesResolveInsideBody(t *testing.T) {
	program := ast.Prog(
		ast.Principle("adults", ast.Forall("age", ast.IntT(),
			ast.Bin(ast.OpOr, ast.Bin(ast.OpLt, ast.ID("age"), ast.Int(18)), ast.ID("capable")),
		)),
		ast.Principle("leak", ast.ID("age")),
	)
	diags := New().CheckProgram(program)
	require.Len(t, diags, 2, "diagnostics: %v", diags)
	assert.Equal(t, "capable", diags[0].Name)
	assert.Equal(t, "age", diags[1].Name)
}

func TestFieldAccessValidatesAgainstInferredStruct(t *testing.T) {
	program := ast.Prog(
		personStruct(),
		ast.StructDef("Case", ast.FieldDef("accused", ast.Named("Person"))),
		ast.Decl("c", ast.Named("Case"), ast.StructLit("Case",
			ast.Init("accused", ast.StructLit("Person", ast.Init("name", ast.Str("Bob")), ast.Init("age", ast.Int(40)))),
		)),
		ast.Decl("n", ast.StringT(), ast.Field(ast.Field(ast.ID("c"), "accused"), "name")),
		ast.Decl("bad", ast.StringT(), ast.Field(ast.Field(ast.ID("c"), "accused"), "nickname")),
		ast.Decl("lit", ast.IntT(), ast.Field(ast.StructLit("Person", ast.Init("name", ast.Str("x")), ast.Init("age", ast.Int(1))), "height")),
	)
	diags := New().CheckProgram(program)
	require.Len(t, diags, 2, "diagnostics: %v", diags)
	for _, d := range diags {
		assert.Equal(t, InvalidField, d.Kind)
		assert.Equal(t, "Person", d.StructName)
	}
	assert.Equal(t, "nickname", diags[0].Field)
	assert.Equal(t, "height", diags[1].Field)
}

func TestExtendsRequiresDeclaredParent(t *testing.T) {
	child := ast.NewStructDefinition("Accused", nil, []*ast.FieldDefinition{ast.FieldDef("charge", ast.StringT())}, "Party")
	diags := New().CheckProgram(ast.Prog(child))
	require.Len(t, diags, 1)
	assert.Equal(t, Undefined, diags[0].Kind)
	assert.Equal(t, "Party", diags[0].Name)
}

func TestProvisoChecksConditionAndTarget(t *testing.T) {
	program := ast.Prog(
		ast.LegalTest("theft", ast.Req("dishonest", ast.BoolT())),
		ast.Proviso(ast.Bool(true), "theft", ast.Decl("note", ast.StringT(), ast.Str("exception"))),
		ast.Proviso(ast.ID("unknown"), "robbery"),
	)
	diags := New().CheckProgram(program)
	require.Len(t, diags, 2, "diagnostics: %v", diags)
	assert.Equal(t, "unknown", diags[0].Name)
	assert.Equal(t, "robbery", diags[1].Name)
}

func TestDescribeDiagnosticIncludesPathAndSpan(t *testing.T) {
	decl := ast.WithSpan(ast.Decl("x", ast.Bounded(5, 1), ast.Int(2)), 10, 30)
	ast.WithSpan(decl.DeclType.(*ast.BoundedIntType), 12, 28)
	program := ast.Prog(decl)
	origins := make(map[ast.Node]string)
	ast.AnnotateOrigins(program, "main.yh", origins)

	checker := New()
	checker.SetNodeOrigins(origins)
	diags := checker.CheckProgram(program)
	require.Len(t, diags, 1)
	assert.Equal(t, "main.yh", diags[0].Path)
	assert.Equal(t, "typechecker: invalid BoundedInt range: min 5 must be less than max 1 (main.yh:12-28)", DescribeDiagnostic(diags[0]))
	assert.True(t, HasErrors(diags))
}

func TestConflictCheckItemsAreNotTypeChecked(t *testing.T) {
	program := ast.Prog(
		ast.Conflict("a.yh", "b.yh"),
		ast.ScopeDef("penal", ast.Conflict("c.yh", "d.yh")),
	)
	assert.Empty(t, New().CheckProgram(program))
}
