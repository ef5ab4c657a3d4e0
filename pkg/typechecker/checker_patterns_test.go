package typechecker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yuho/core-go/pkg/ast"
)

func verdictProgram(match *ast.MatchExpression) *ast.Program {
	return ast.Prog(
		ast.EnumDef("Verdict", "Guilty", "NotGuilty"),
		ast.LegalTest("theft", ast.Req("dishonest", ast.BoolT())),
		ast.Decl("v", ast.Named("Verdict"), ast.ID("Guilty")),
		ast.Decl("outcome", ast.StringT(), match),
	)
}

func TestMatchWithTrailingWildcardIsClean(t *testing.T) {
	match := ast.Match(ast.ID("v"),
		ast.Case(ast.IdentPat("Guilty"), ast.Str("convict")),
		ast.Case(ast.Wild(), ast.Str("acquit")),
	)
	assert.Empty(t, New().CheckProgram(verdictProgram(match)))
}

func TestMatchWithoutWildcardIsNonExhaustive(t *testing.T) {
	match := ast.Match(ast.ID("v"),
		ast.Case(ast.IdentPat("Guilty"), ast.Str("convict")),
		ast.Case(ast.IdentPat("NotGuilty"), ast.Str("acquit")),
	)
	diags := New().CheckProgram(verdictProgram(match))
	require.Len(t, diags, 1)
	assert.Equal(t, NonExhaustiveMatch, diags[0].Kind)
}

func TestEveryCaseAfterFirstWildcardIsUnreachable(t *testing.T) {
	for trailing := 0; trailing <= 3; trailing++ {
		cases := []*ast.MatchCase{
			ast.Case(ast.LitPat(ast.Int(1)), ast.Str("one")),
			ast.Case(ast.Wild(), ast.Str("other")),
		}
		for i := 0; i < trailing; i++ {
			if i%2 == 0 {
				cases = append(cases, ast.Case(ast.Wild(), ast.Str("again")))
			} else {
				cases = append(cases, ast.Case(ast.LitPat(ast.Int(int64(i))), ast.Str("late")))
			}
		}
		diags := New().CheckProgram(verdictProgram(ast.Match(ast.ID("v"), cases...)))
		assert.Len(t, FilterKind(diags, UnreachableCase), trailing)
		assert.Empty(t, FilterKind(diags, NonExhaustiveMatch))
	}
}

func TestSatisfiesPatternRequiresLegalTest(t *testing.T) {
	match := ast.Match(ast.ID("v"),
		ast.Case(ast.Satisfies("theft"), ast.Str("theft")),
		ast.Case(ast.Satisfies("robbery"), ast.Str("robbery")),
		ast.Case(ast.Wild(), ast.Str("none")),
	)
	diags := New().CheckProgram(verdictProgram(match))
	require.Len(t, diags, 1)
	assert.Equal(t, Undefined, diags[0].Kind)
	assert.Equal(t, "robbery", diags[0].Name)
}

func TestIdentifierPatternsBindWithinTheirCase(t *testing.T) {
	match := ast.Match(ast.ID("v"),
		ast.CaseIf(ast.IdentPat("other"), ast.Bin(ast.OpNeq, ast.ID("other"), ast.ID("Guilty")), ast.Str("bound")),
		ast.Case(ast.Wild(), ast.ID("other")),
	)
	diags := New().CheckProgram(verdictProgram(match))
	require.Len(t, diags, 1)
	assert.Equal(t, Undefined, diags[0].Kind)
	assert.Equal(t, "other", diags[0].Name)
}

func TestMatchStatementInsideFunction(t *testing.T) {
	fn := ast.FnDef("decide", []*ast.Parameter{ast.Param("v", ast.Named("Verdict"))}, ast.StringT(),
		ast.Match(ast.ID("v"), ast.Case(ast.IdentPat("Guilty"), ast.Str("convict"))),
	)
	diags := New().CheckProgram(ast.Prog(ast.EnumDef("Verdict", "Guilty", "NotGuilty"), fn))
	require.Len(t, diags, 1)
	assert.Equal(t, NonExhaustiveMatch, diags[0].Kind)
}

func TestRebindingPatternNameInOneScopeIsDuplicate(t *testing.T) {
	checker := New()
	checker.symbols.PushScope()
	defer checker.symbols.PopScope()

	assert.Empty(t, checker.checkPattern(ast.IdentPat("charge"), ast.Named("Verdict")))
	diags := checker.checkPattern(ast.IdentPat("charge"), ast.StringT())
	require.Len(t, diags, 1)
	assert.Equal(t, Duplicate, diags[0].Kind)
	assert.Equal(t, "charge", diags[0].Name)
}

func TestVariantSharedByTwoEnumsStaysAVariant(t *testing.T) {
	program := ast.Prog(
		ast.EnumDef("Appeal", "Pending", "Allowed"),
		ast.EnumDef("Trial", "Pending", "Concluded"),
		ast.Decl("status", ast.Named("Trial"), ast.ID("Concluded")),
		ast.Decl("label", ast.StringT(), ast.Match(ast.ID("status"),
			ast.Case(ast.IdentPat("Pending"), ast.Str("open")),
			ast.Case(ast.Wild(), ast.Str("closed")),
		)),
	)
	assert.Empty(t, New().CheckProgram(program))
}
