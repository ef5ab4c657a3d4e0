package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePersonProgram() *Program {
	person := StructDef("Person",
		FieldDef("name", StringT()),
		FieldDef("age", Bounded(0, 150), Ge(Int(18))),
	)
	SetSpan(person, Span{Start: 0, End: 42})
	decl := Decl("p", Named("Person"), StructLit("Person",
		Init("name", Str("Alice")),
		Init("age", Int(30)),
	))
	principle := Principle("AdultsOnly", Forall("x", IntT(),
		Bin(OpOr, Bin(OpGte, ID("x"), Int(18)), Not(Bool(true))),
	))
	return ProgWithImports([]*ImportStatement{Import("common", "Status")},
		person,
		decl,
		ExclusiveEnumDef("Verdict", "Guilty", "NotGuilty"),
		principle,
	)
}

func TestDecodeProgramRestoresEncodedTree(t *testing.T) {
	original := samplePersonProgram()
	data, err := EncodeProgram(original)
	require.NoError(t, err)

	decoded, err := DecodeProgram(data)
	require.NoError(t, err)

	require.Len(t, decoded.Imports, 1)
	assert.Equal(t, "common", decoded.Imports[0].From)
	assert.Equal(t, []string{"Status"}, decoded.Imports[0].Names)

	require.Len(t, decoded.Items, 4)
	person, ok := decoded.Items[0].(*StructDefinition)
	require.True(t, ok, "expected struct definition, got %T", decoded.Items[0])
	assert.Equal(t, Span{Start: 0, End: 42}, person.Span())
	require.Len(t, person.Fields, 2)
	bounded, ok := person.Fields[1].FieldType.(*BoundedIntType)
	require.True(t, ok)
	assert.Equal(t, int64(150), bounded.Max)
	require.Len(t, person.Fields[1].Constraints, 1)
	cmp, ok := person.Fields[1].Constraints[0].(*ComparisonConstraint)
	require.True(t, ok)
	assert.Equal(t, CmpGreaterEqual, cmp.Operator)
	assert.Equal(t, int64(18), cmp.Value.(*Literal).Int)

	decl, ok := decoded.Items[1].(*Declaration)
	require.True(t, ok)
	lit, ok := decl.Value.(*StructLiteral)
	require.True(t, ok)
	assert.Equal(t, "Person", lit.StructName)
	assert.Equal(t, "Alice", lit.Fields[0].Value.(*Literal).Text)

	enum := decoded.Items[2].(*EnumDefinition)
	assert.True(t, enum.MutuallyExclusive)

	principle := decoded.Items[3].(*PrincipleDefinition)
	quant, ok := principle.Body.(*QuantifierExpression)
	require.True(t, ok)
	assert.Equal(t, QuantifierForall, quant.Kind)
	assert.Equal(t, "x", quant.Var)
}

func TestDecodeProgramRejectsUnknownNodes(t *testing.T) {
	_, err := DecodeProgram([]byte(`{"type":"Program","items":[{"type":"Mystery"}]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Mystery")

	_, err = DecodeProgram([]byte(`{"type":"Module"}`))
	require.Error(t, err)
}

func TestAnnotateOriginsCoversNestedNodes(t *testing.T) {
	program := samplePersonProgram()
	origins := make(map[Node]string)
	AnnotateOrigins(program, "main.yh", origins)

	person := program.Items[0].(*StructDefinition)
	assert.Equal(t, "main.yh", origins[person])
	assert.Equal(t, "main.yh", origins[person.Fields[1].FieldType])
	assert.Equal(t, "main.yh", origins[person.Fields[1].Constraints[0]])

	// First writer wins.
	AnnotateOrigins(program, "other.yh", origins)
	assert.Equal(t, "main.yh", origins[person])
}

func TestTypeStringRendersDependentTypes(t *testing.T) {
	assert.Equal(t, "BoundedInt<0, 100>", TypeString(Bounded(0, 100)))
	assert.Equal(t, "Positive<money>", TypeString(Positive(MoneyT())))
	assert.Equal(t, "ValidDate<01-01-2020, _>", TypeString(ValidDate("01-01-2020", "")))
	assert.Equal(t, "Pair<int, T>", TypeString(Gen("Pair", IntT(), TVar("T"))))
	assert.Equal(t, "[string]", TypeString(Array(StringT())))
}
