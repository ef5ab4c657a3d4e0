package typechecker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yuho/core-go/pkg/ast"
	"yuho/core-go/pkg/dates"
)

func checkTypeIn(t *testing.T, program *ast.Program, typ ast.TypeExpression) []Diagnostic {
	t.Helper()
	checker := New()
	require.Empty(t, checker.CheckProgram(program))
	return checker.checkType(typ)
}

func TestPositiveRequiresNumericInner(t *testing.T) {
	for _, inner := range []ast.TypeExpression{ast.IntT(), ast.FloatT(), ast.MoneyT(), ast.PercentT(), ast.MoneyIn("SGD")} {
		assert.Empty(t, New().checkType(ast.Positive(inner)), ast.TypeString(inner))
	}
	for _, inner := range []ast.TypeExpression{ast.StringT(), ast.BoolT(), ast.DateT(), ast.Bounded(0, 5)} {
		diags := New().checkType(ast.Positive(inner))
		require.Len(t, diags, 1, ast.TypeString(inner))
		assert.Equal(t, InvalidConstraint, diags[0].Kind)
	}
}

func TestPositiveSeesThroughAliases(t *testing.T) {
	program := ast.Prog(ast.Alias("Amount", nil, ast.MoneyT()))
	assert.Empty(t, checkTypeIn(t, program, ast.Positive(ast.Named("Amount"))))
}

func TestValidDateParsesEveryAcceptedFormat(t *testing.T) {
	checker := New()
	assert.Empty(t, checker.checkType(ast.ValidDate("01-01-2020", "2021-06-30")))
	assert.Empty(t, checker.checkType(ast.ValidDate("", "12/31/2030")))
	assert.Empty(t, checker.checkType(ast.ValidDate("", "")))

	diags := checker.checkType(ast.ValidDate("31-02-2020x", ""))
	require.Len(t, diags, 1)
	assert.Equal(t, InvalidConstraint, diags[0].Kind)
	assert.Contains(t, diags[0].Message, "invalid date format")
}

func TestValidDateRequiresOrderedBounds(t *testing.T) {
	checker := New()
	diags := checker.checkType(ast.ValidDate("01-01-2022", "01-01-2020"))
	require.Len(t, diags, 1)
	assert.Equal(t, InvalidConstraint, diags[0].Kind)

	diags = checker.checkType(ast.ValidDate("01-01-2020", "01-01-2020"))
	assert.Len(t, diags, 1, "equal bounds leave an empty window")
}

func TestTemporalChecksInnerAndWindow(t *testing.T) {
	checker := New()
	assert.Empty(t, checker.checkType(ast.Temporal(ast.MoneyT(), "01-01-2019", "31-12-2019")))

	diags := checker.checkType(ast.Temporal(ast.Bounded(9, 1), "31-12-2019", "01-01-2019"))
	require.Len(t, diags, 2)
	assert.Equal(t, InvalidBoundedIntRange, diags[0].Kind)
	assert.Equal(t, InvalidConstraint, diags[1].Kind)
}

func TestCustomDateFormatsNarrowAcceptedInput(t *testing.T) {
	parser, err := dates.NewParser(dates.YearMonthDay)
	require.NoError(t, err)
	checker := New(WithDateParser(parser))
	assert.Empty(t, checker.checkType(ast.ValidDate("2020-01-01", "")))
	assert.Len(t, checker.checkType(ast.ValidDate("01-01-2020", "")), 1)
}

func TestCitationRequiresAllParts(t *testing.T) {
	checker := New()
	assert.Empty(t, checker.checkType(ast.Citation("378", "1", "Penal Code")))
	diags := checker.checkType(ast.Citation("", "1", ""))
	require.Len(t, diags, 2)
	assert.Contains(t, diags[0].Message, "section")
	assert.Contains(t, diags[1].Message, "act")
}

func TestGenericArityMustMatchStruct(t *testing.T) {
	program := ast.Prog(
		ast.GenericStructDef("Pair", []string{"A", "B"},
			ast.FieldDef("first", ast.TVar("A")),
			ast.FieldDef("second", ast.TVar("B")),
		),
		ast.EnumDef("Verdict", "Guilty", "NotGuilty"),
	)
	assert.Empty(t, checkTypeIn(t, program, ast.Gen("Pair", ast.IntT(), ast.StringT())))

	diags := checkTypeIn(t, program, ast.Gen("Pair", ast.IntT()))
	require.Len(t, diags, 1)
	assert.Equal(t, GenericArityMismatch, diags[0].Kind)
	assert.Equal(t, 2, diags[0].ExpectedArity)
	assert.Equal(t, 1, diags[0].GotArity)

	diags = checkTypeIn(t, program, ast.Gen("Verdict", ast.IntT()))
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "does not take type arguments")

	diags = checkTypeIn(t, program, ast.Gen("Missing", ast.Named("Nope")))
	require.Len(t, diags, 2)
	assert.Equal(t, Undefined, diags[0].Kind)
	assert.Equal(t, "Nope", diags[1].Name)
}

func TestTypeVariablesMustBeBound(t *testing.T) {
	program := ast.Prog(
		ast.GenericStructDef("Box", []string{"T"}, ast.FieldDef("value", ast.TVar("T"))),
		ast.StructDef("Loose", ast.FieldDef("value", ast.TVar("U"))),
	)
	diags := New().CheckProgram(program)
	require.Len(t, diags, 1)
	assert.Equal(t, UnboundTypeVariable, diags[0].Kind)
	assert.Equal(t, "U", diags[0].Name)
}

func TestLowercaseTypeVariableIsOnlyAWarning(t *testing.T) {
	program := ast.Prog(ast.GenericStructDef("Box", []string{"t"}, ast.FieldDef("value", ast.TVar("t"))))
	diags := New().CheckProgram(program)
	require.Len(t, diags, 1)
	assert.Equal(t, InvalidConstraint, diags[0].Kind)
	assert.Equal(t, SeverityWarning, diags[0].Severity)
	assert.False(t, HasErrors(diags))
	assert.Contains(t, DescribeDiagnostic(diags[0]), "warning: ")
}

func TestStructuralTypesRecurse(t *testing.T) {
	checker := New()
	diags := checker.checkType(ast.Union(ast.Array(ast.Named("A")), ast.NonEmpty(ast.Bounded(3, 3))))
	require.Len(t, diags, 2)
	assert.Equal(t, Undefined, diags[0].Kind)
	assert.Equal(t, InvalidBoundedIntRange, diags[1].Kind)
}

func TestGenericAliasTypeParamsAreScoped(t *testing.T) {
	program := ast.Prog(
		ast.GenericStructDef("Pair", []string{"A", "B"}, ast.FieldDef("a", ast.TVar("A")), ast.FieldDef("b", ast.TVar("B"))),
		ast.Alias("Same", []string{"T"}, ast.Gen("Pair", ast.TVar("T"), ast.TVar("T"))),
		ast.Alias("Broken", nil, ast.Gen("Pair", ast.TVar("T"), ast.IntT())),
	)
	diags := New().CheckProgram(program)
	require.Len(t, diags, 1)
	assert.Equal(t, UnboundTypeVariable, diags[0].Kind)
}
