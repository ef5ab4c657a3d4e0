package ast

// Literal and identifier helpers.

func ID(name string) *Identifier {
	return NewIdentifier(name)
}

func Int(value int64) *Literal {
	lit := NewLiteral(LiteralInt)
	lit.Int = value
	return lit
}

func Flt(value float64) *Literal {
	lit := NewLiteral(LiteralFloat)
	lit.Float = value
	return lit
}

func Bool(value bool) *Literal {
	lit := NewLiteral(LiteralBool)
	lit.Bool = value
	return lit
}

func Str(value string) *Literal {
	lit := NewLiteral(LiteralString)
	lit.Text = value
	return lit
}

func Money(value float64) *Literal {
	lit := NewLiteral(LiteralMoney)
	lit.Float = value
	return lit
}

func Percent(value float64) *Literal {
	lit := NewLiteral(LiteralPercent)
	lit.Float = value
	return lit
}

func Date(value string) *Literal {
	lit := NewLiteral(LiteralDate)
	lit.Text = value
	return lit
}

func Duration(value string) *Literal {
	lit := NewLiteral(LiteralDuration)
	lit.Text = value
	return lit
}

func Pass() *Literal {
	return NewLiteral(LiteralPass)
}

// Expression helpers.

func Bin(op BinaryOperator, left, right Expression) *BinaryExpression {
	return NewBinaryExpression(op, left, right)
}

func Not(operand Expression) *UnaryExpression {
	return NewUnaryExpression(OpNot, operand)
}

func Neg(operand Expression) *UnaryExpression {
	return NewUnaryExpression(OpNeg, operand)
}

func Call(callee string, args ...Expression) *CallExpression {
	return NewCallExpression(callee, args)
}

func Field(object Expression, field string) *FieldAccess {
	return NewFieldAccess(object, field)
}

func StructLit(name string, fields ...*FieldInitializer) *StructLiteral {
	return NewStructLiteral(name, fields)
}

func Init(name string, value Expression) *FieldInitializer {
	return NewFieldInitializer(name, value)
}

func Match(scrutinee Expression, cases ...*MatchCase) *MatchExpression {
	return NewMatchExpression(scrutinee, cases)
}

func Case(pattern Pattern, consequence Expression) *MatchCase {
	return NewMatchCase(pattern, nil, consequence)
}

func CaseIf(pattern Pattern, guard Expression, consequence Expression) *MatchCase {
	return NewMatchCase(pattern, guard, consequence)
}

func Forall(name string, varType TypeExpression, body Expression) *QuantifierExpression {
	return NewQuantifierExpression(QuantifierForall, name, varType, body)
}

func Exists(name string, varType TypeExpression, body Expression) *QuantifierExpression {
	return NewQuantifierExpression(QuantifierExists, name, varType, body)
}

// Pattern helpers.

func Wild() *WildcardPattern {
	return NewWildcardPattern()
}

func LitPat(literal *Literal) *LiteralPattern {
	return NewLiteralPattern(literal)
}

func IdentPat(name string) *IdentifierPattern {
	return NewIdentifierPattern(name)
}

func Satisfies(test string) *SatisfiesPattern {
	return NewSatisfiesPattern(test)
}

// Type expression helpers.

func IntT() *PrimitiveType      { return NewPrimitiveType(PrimitiveInt) }
func FloatT() *PrimitiveType    { return NewPrimitiveType(PrimitiveFloat) }
func BoolT() *PrimitiveType     { return NewPrimitiveType(PrimitiveBool) }
func StringT() *PrimitiveType   { return NewPrimitiveType(PrimitiveString) }
func MoneyT() *PrimitiveType    { return NewPrimitiveType(PrimitiveMoney) }
func DateT() *PrimitiveType     { return NewPrimitiveType(PrimitiveDate) }
func DurationT() *PrimitiveType { return NewPrimitiveType(PrimitiveDuration) }
func PercentT() *PrimitiveType  { return NewPrimitiveType(PrimitivePercent) }
func PassT() *PrimitiveType     { return NewPrimitiveType(PrimitivePass) }

func Named(name string) *NamedType {
	return NewNamedType(name)
}

func Union(left, right TypeExpression) *UnionType {
	return NewUnionType(left, right)
}

func Bounded(min, max int64) *BoundedIntType {
	return NewBoundedIntType(min, max)
}

func NonEmpty(inner TypeExpression) *NonEmptyType {
	return NewNonEmptyType(inner)
}

func Positive(inner TypeExpression) *PositiveType {
	return NewPositiveType(inner)
}

// Opt returns a pointer to value, or nil for the empty string.
func Opt(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func ValidDate(after, before string) *ValidDateType {
	return NewValidDateType(Opt(after), Opt(before))
}

func Citation(section, subsection, act string) *CitationType {
	return NewCitationType(section, subsection, act)
}

func Temporal(inner TypeExpression, validFrom, validUntil string) *TemporalValueType {
	return NewTemporalValueType(inner, Opt(validFrom), Opt(validUntil))
}

func Array(element TypeExpression) *ArrayType {
	return NewArrayType(element)
}

func MoneyIn(currency string) *MoneyWithCurrencyType {
	return NewMoneyWithCurrencyType(currency)
}

func TVar(name string) *TypeVariable {
	return NewTypeVariable(name)
}

func Gen(name string, args ...TypeExpression) *GenericType {
	return NewGenericType(name, args)
}

// Constraint helpers.

func Gt(value Expression) *ComparisonConstraint { return NewComparisonConstraint(CmpGreater, value) }
func Lt(value Expression) *ComparisonConstraint { return NewComparisonConstraint(CmpLess, value) }
func Ge(value Expression) *ComparisonConstraint { return NewComparisonConstraint(CmpGreaterEqual, value) }
func Le(value Expression) *ComparisonConstraint { return NewComparisonConstraint(CmpLessEqual, value) }
func Eq(value Expression) *ComparisonConstraint { return NewComparisonConstraint(CmpEqual, value) }
func Ne(value Expression) *ComparisonConstraint { return NewComparisonConstraint(CmpNotEqual, value) }

func InRange(min, max Expression) *InRangeConstraint {
	return NewInRangeConstraint(min, max)
}

func AllOf(left, right Constraint) *AndConstraint {
	return NewAndConstraint(left, right)
}

func AnyOf(left, right Constraint) *OrConstraint {
	return NewOrConstraint(left, right)
}

func NoneOf(inner Constraint) *NotConstraint {
	return NewNotConstraint(inner)
}

func Before(date Expression) *BeforeConstraint {
	return NewBeforeConstraint(date)
}

func After(date Expression) *AfterConstraint {
	return NewAfterConstraint(date)
}

func Between(start, end Expression) *BetweenConstraint {
	return NewBetweenConstraint(start, end)
}

func Custom(predicate string) *CustomConstraint {
	return NewCustomConstraint(predicate)
}

// Item and statement helpers.

func Prog(items ...Item) *Program {
	return NewProgram(nil, items)
}

func ProgWithImports(imports []*ImportStatement, items ...Item) *Program {
	return NewProgram(imports, items)
}

func Import(from string, names ...string) *ImportStatement {
	return NewImportStatement(names, from)
}

func ScopeDef(name string, items ...Item) *Scope {
	return NewScope(name, items)
}

func StructDef(name string, fields ...*FieldDefinition) *StructDefinition {
	return NewStructDefinition(name, nil, fields, "")
}

func GenericStructDef(name string, typeParams []string, fields ...*FieldDefinition) *StructDefinition {
	return NewStructDefinition(name, typeParams, fields, "")
}

func FieldDef(name string, fieldType TypeExpression, constraints ...Constraint) *FieldDefinition {
	return NewFieldDefinition(name, fieldType, constraints, nil)
}

func EnumDef(name string, variants ...string) *EnumDefinition {
	return NewEnumDefinition(name, variants, false)
}

func ExclusiveEnumDef(name string, variants ...string) *EnumDefinition {
	return NewEnumDefinition(name, variants, true)
}

func FnDef(name string, params []*Parameter, returnType TypeExpression, body ...Statement) *FunctionDefinition {
	return NewFunctionDefinition(name, nil, params, returnType, body, nil)
}

func Param(name string, paramType TypeExpression) *Parameter {
	return NewParameter(name, paramType)
}

func Decl(name string, declType TypeExpression, value Expression) *Declaration {
	return NewDeclaration(name, declType, value)
}

func Alias(name string, typeParams []string, target TypeExpression) *TypeAliasDefinition {
	return NewTypeAliasDefinition(name, typeParams, target)
}

func LegalTest(name string, requirements ...*Requirement) *LegalTestDefinition {
	return NewLegalTestDefinition(name, requirements)
}

func Req(name string, requirementType TypeExpression) *Requirement {
	return NewRequirement(name, requirementType)
}

func Principle(name string, body Expression) *PrincipleDefinition {
	return NewPrincipleDefinition(name, body)
}

func Proviso(condition Expression, appliesTo string, exception ...Statement) *ProvisoDefinition {
	return NewProvisoDefinition(condition, exception, appliesTo)
}

func Conflict(file1, file2 string) *ConflictCheck {
	return NewConflictCheck(file1, file2)
}

func Assign(target string, value Expression) *Assignment {
	return NewAssignment(target, value)
}

func Ret(argument Expression) *ReturnStatement {
	return NewReturnStatement(argument)
}

func PassStmt() *PassStatement {
	return NewPassStatement()
}
