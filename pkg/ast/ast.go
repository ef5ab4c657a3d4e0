package ast

type NodeType string

const (
	NodeProgram             NodeType = "Program"
	NodeImportStatement     NodeType = "ImportStatement"
	NodeScope               NodeType = "Scope"
	NodeStructDefinition    NodeType = "StructDefinition"
	NodeFieldDefinition     NodeType = "FieldDefinition"
	NodeAnnotation          NodeType = "Annotation"
	NodeEnumDefinition      NodeType = "EnumDefinition"
	NodeFunctionDefinition  NodeType = "FunctionDefinition"
	NodeParameter           NodeType = "Parameter"
	NodeDeclaration         NodeType = "Declaration"
	NodeTypeAliasDefinition NodeType = "TypeAliasDefinition"
	NodeLegalTestDefinition NodeType = "LegalTestDefinition"
	NodeRequirement         NodeType = "Requirement"
	NodeConflictCheck       NodeType = "ConflictCheck"
	NodePrincipleDefinition NodeType = "PrincipleDefinition"
	NodeProvisoDefinition   NodeType = "ProvisoDefinition"
	NodeAssignment          NodeType = "Assignment"
	NodeReturnStatement     NodeType = "ReturnStatement"
	NodePassStatement       NodeType = "PassStatement"
	NodeLiteral             NodeType = "Literal"
	NodeIdentifier          NodeType = "Identifier"
	NodeBinaryExpression    NodeType = "BinaryExpression"
	NodeUnaryExpression     NodeType = "UnaryExpression"
	NodeCallExpression      NodeType = "CallExpression"
	NodeFieldAccess         NodeType = "FieldAccess"
	NodeStructLiteral       NodeType = "StructLiteral"
	NodeFieldInitializer    NodeType = "FieldInitializer"
	NodeMatchExpression     NodeType = "MatchExpression"
	NodeMatchCase           NodeType = "MatchCase"
	NodeQuantifier          NodeType = "QuantifierExpression"
	NodeLiteralPattern      NodeType = "LiteralPattern"
	NodeIdentifierPattern   NodeType = "IdentifierPattern"
	NodeWildcardPattern     NodeType = "WildcardPattern"
	NodeSatisfiesPattern    NodeType = "SatisfiesPattern"
)

type Node interface {
	NodeType() NodeType
	Span() Span
	isNode()
}

// Span holds byte offsets into the source file.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

type nodeImpl struct {
	Type     NodeType `json:"type"`
	Location Span     `json:"span"`
}

func newNodeImpl(kind NodeType) nodeImpl {
	return nodeImpl{Type: kind}
}

func (n nodeImpl) NodeType() NodeType { return n.Type }
func (n nodeImpl) Span() Span         { return n.Location }
func (nodeImpl) isNode()              {}
func (n *nodeImpl) setSpan(span Span) { n.Location = span }

type spanSetter interface {
	setSpan(Span)
}

// SetSpan assigns a span to any node created by this package.
func SetSpan(node Node, span Span) {
	if setter, ok := node.(spanSetter); ok {
		setter.setSpan(span)
	}
}

// WithSpan sets the span on node and returns it.
func WithSpan[T Node](node T, start, end int) T {
	SetSpan(node, Span{Start: start, End: end})
	return node
}

// Marker interfaces.

type Item interface {
	Node
	itemNode()
}

type itemMarker struct{}

func (itemMarker) itemNode() {}

type Statement interface {
	Node
	statementNode()
}

type statementMarker struct{}

func (statementMarker) statementNode() {}

type Expression interface {
	Node
	expressionNode()
}

type expressionMarker struct{}

func (expressionMarker) expressionNode() {}

// Program

type Program struct {
	nodeImpl

	Imports []*ImportStatement `json:"imports"`
	Items   []Item             `json:"items"`
}

func NewProgram(imports []*ImportStatement, items []Item) *Program {
	return &Program{nodeImpl: newNodeImpl(NodeProgram), Imports: imports, Items: items}
}

// ImportStatement is `referencing A, B from module`.
type ImportStatement struct {
	nodeImpl

	Names []string `json:"names"`
	From  string   `json:"from"`
}

func NewImportStatement(names []string, from string) *ImportStatement {
	return &ImportStatement{nodeImpl: newNodeImpl(NodeImportStatement), Names: names, From: from}
}

// Items

type Scope struct {
	nodeImpl
	itemMarker

	Name  string `json:"name"`
	Items []Item `json:"items"`
}

func NewScope(name string, items []Item) *Scope {
	return &Scope{nodeImpl: newNodeImpl(NodeScope), Name: name, Items: items}
}

type AnnotationKind string

const (
	AnnotationPresumed  AnnotationKind = "presumed"
	AnnotationPrecedent AnnotationKind = "precedent"
	AnnotationHierarchy AnnotationKind = "hierarchy"
	AnnotationAmended   AnnotationKind = "amended"
)

// Annotation is a field attribute such as @presumed(Guilty).
type Annotation struct {
	nodeImpl

	Kind AnnotationKind    `json:"kind"`
	Args map[string]string `json:"args,omitempty"`
}

func NewAnnotation(kind AnnotationKind, args map[string]string) *Annotation {
	return &Annotation{nodeImpl: newNodeImpl(NodeAnnotation), Kind: kind, Args: args}
}

type FieldDefinition struct {
	nodeImpl

	Name        string         `json:"name"`
	FieldType   TypeExpression `json:"fieldType"`
	Constraints []Constraint   `json:"constraints,omitempty"`
	Annotations []*Annotation  `json:"annotations,omitempty"`
}

func NewFieldDefinition(name string, fieldType TypeExpression, constraints []Constraint, annotations []*Annotation) *FieldDefinition {
	return &FieldDefinition{
		nodeImpl:    newNodeImpl(NodeFieldDefinition),
		Name:        name,
		FieldType:   fieldType,
		Constraints: constraints,
		Annotations: annotations,
	}
}

type StructDefinition struct {
	nodeImpl
	itemMarker

	Name       string             `json:"name"`
	TypeParams []string           `json:"typeParams,omitempty"`
	Fields     []*FieldDefinition `json:"fields"`
	Extends    string             `json:"extends,omitempty"`
}

func NewStructDefinition(name string, typeParams []string, fields []*FieldDefinition, extends string) *StructDefinition {
	return &StructDefinition{
		nodeImpl:   newNodeImpl(NodeStructDefinition),
		Name:       name,
		TypeParams: typeParams,
		Fields:     fields,
		Extends:    extends,
	}
}

type EnumDefinition struct {
	nodeImpl
	itemMarker

	Name              string   `json:"name"`
	Variants          []string `json:"variants"`
	MutuallyExclusive bool     `json:"mutuallyExclusive,omitempty"`
}

func NewEnumDefinition(name string, variants []string, mutuallyExclusive bool) *EnumDefinition {
	return &EnumDefinition{
		nodeImpl:          newNodeImpl(NodeEnumDefinition),
		Name:              name,
		Variants:          variants,
		MutuallyExclusive: mutuallyExclusive,
	}
}

type Parameter struct {
	nodeImpl

	Name      string         `json:"name"`
	ParamType TypeExpression `json:"paramType"`
}

func NewParameter(name string, paramType TypeExpression) *Parameter {
	return &Parameter{nodeImpl: newNodeImpl(NodeParameter), Name: name, ParamType: paramType}
}

type FunctionDefinition struct {
	nodeImpl
	itemMarker

	Name       string         `json:"name"`
	TypeParams []string       `json:"typeParams,omitempty"`
	Params     []*Parameter   `json:"params"`
	ReturnType TypeExpression `json:"returnType"`
	Body       []Statement    `json:"body"`
	Requires   Expression     `json:"requires,omitempty"`
}

func NewFunctionDefinition(name string, typeParams []string, params []*Parameter, returnType TypeExpression, body []Statement, requires Expression) *FunctionDefinition {
	return &FunctionDefinition{
		nodeImpl:   newNodeImpl(NodeFunctionDefinition),
		Name:       name,
		TypeParams: typeParams,
		Params:     params,
		ReturnType: returnType,
		Body:       body,
		Requires:   requires,
	}
}

// Declaration binds a typed name; it is both a top-level item and a statement.
type Declaration struct {
	nodeImpl
	itemMarker
	statementMarker

	Name     string         `json:"name"`
	DeclType TypeExpression `json:"declType"`
	Value    Expression     `json:"value"`
}

func NewDeclaration(name string, declType TypeExpression, value Expression) *Declaration {
	return &Declaration{nodeImpl: newNodeImpl(NodeDeclaration), Name: name, DeclType: declType, Value: value}
}

type TypeAliasDefinition struct {
	nodeImpl
	itemMarker

	Name       string         `json:"name"`
	TypeParams []string       `json:"typeParams,omitempty"`
	Target     TypeExpression `json:"target"`
}

func NewTypeAliasDefinition(name string, typeParams []string, target TypeExpression) *TypeAliasDefinition {
	return &TypeAliasDefinition{nodeImpl: newNodeImpl(NodeTypeAliasDefinition), Name: name, TypeParams: typeParams, Target: target}
}

type Requirement struct {
	nodeImpl

	Name            string         `json:"name"`
	RequirementType TypeExpression `json:"requirementType"`
}

func NewRequirement(name string, requirementType TypeExpression) *Requirement {
	return &Requirement{nodeImpl: newNodeImpl(NodeRequirement), Name: name, RequirementType: requirementType}
}

type LegalTestDefinition struct {
	nodeImpl
	itemMarker

	Name         string         `json:"name"`
	Requirements []*Requirement `json:"requirements"`
}

func NewLegalTestDefinition(name string, requirements []*Requirement) *LegalTestDefinition {
	return &LegalTestDefinition{nodeImpl: newNodeImpl(NodeLegalTestDefinition), Name: name, Requirements: requirements}
}

// ConflictCheck asks for a cross-file consistency check between two modules.
type ConflictCheck struct {
	nodeImpl
	itemMarker

	File1 string `json:"file1"`
	File2 string `json:"file2"`
}

func NewConflictCheck(file1, file2 string) *ConflictCheck {
	return &ConflictCheck{nodeImpl: newNodeImpl(NodeConflictCheck), File1: file1, File2: file2}
}

type PrincipleDefinition struct {
	nodeImpl
	itemMarker

	Name string     `json:"name"`
	Body Expression `json:"body"`
}

func NewPrincipleDefinition(name string, body Expression) *PrincipleDefinition {
	return &PrincipleDefinition{nodeImpl: newNodeImpl(NodePrincipleDefinition), Name: name, Body: body}
}

type ProvisoDefinition struct {
	nodeImpl
	itemMarker

	Condition Expression  `json:"condition"`
	Exception []Statement `json:"exception"`
	AppliesTo string      `json:"appliesTo,omitempty"`
}

func NewProvisoDefinition(condition Expression, exception []Statement, appliesTo string) *ProvisoDefinition {
	return &ProvisoDefinition{nodeImpl: newNodeImpl(NodeProvisoDefinition), Condition: condition, Exception: exception, AppliesTo: appliesTo}
}

// Statements

type Assignment struct {
	nodeImpl
	statementMarker

	Target string     `json:"target"`
	Value  Expression `json:"value"`
}

func NewAssignment(target string, value Expression) *Assignment {
	return &Assignment{nodeImpl: newNodeImpl(NodeAssignment), Target: target, Value: value}
}

type ReturnStatement struct {
	nodeImpl
	statementMarker

	Argument Expression `json:"argument"`
}

func NewReturnStatement(argument Expression) *ReturnStatement {
	return &ReturnStatement{nodeImpl: newNodeImpl(NodeReturnStatement), Argument: argument}
}

type PassStatement struct {
	nodeImpl
	statementMarker
}

func NewPassStatement() *PassStatement {
	return &PassStatement{nodeImpl: newNodeImpl(NodePassStatement)}
}

// Expressions

type LiteralKind string

const (
	LiteralInt      LiteralKind = "int"
	LiteralFloat    LiteralKind = "float"
	LiteralBool     LiteralKind = "bool"
	LiteralString   LiteralKind = "string"
	LiteralMoney    LiteralKind = "money"
	LiteralDate     LiteralKind = "date"
	LiteralDuration LiteralKind = "duration"
	LiteralPercent  LiteralKind = "percent"
	LiteralPass     LiteralKind = "pass"
)

// Literal carries one value; which field is meaningful depends on Kind.
// Money and Percent use Float, Date and Duration use Text.
type Literal struct {
	nodeImpl
	expressionMarker

	Kind  LiteralKind `json:"kind"`
	Int   int64       `json:"int,omitempty"`
	Float float64     `json:"float,omitempty"`
	Bool  bool        `json:"bool,omitempty"`
	Text  string      `json:"text,omitempty"`
}

func NewLiteral(kind LiteralKind) *Literal {
	return &Literal{nodeImpl: newNodeImpl(NodeLiteral), Kind: kind}
}

type Identifier struct {
	nodeImpl
	expressionMarker

	Name string `json:"name"`
}

func NewIdentifier(name string) *Identifier {
	return &Identifier{nodeImpl: newNodeImpl(NodeIdentifier), Name: name}
}

type BinaryOperator string

const (
	OpAdd BinaryOperator = "+"
	OpSub BinaryOperator = "-"
	OpMul BinaryOperator = "*"
	OpDiv BinaryOperator = "/"
	OpMod BinaryOperator = "%"
	OpEq  BinaryOperator = "=="
	OpNeq BinaryOperator = "!="
	OpLt  BinaryOperator = "<"
	OpGt  BinaryOperator = ">"
	OpLte BinaryOperator = "<="
	OpGte BinaryOperator = ">="
	OpAnd BinaryOperator = "&&"
	OpOr  BinaryOperator = "||"
)

type BinaryExpression struct {
	nodeImpl
	expressionMarker

	Operator BinaryOperator `json:"operator"`
	Left     Expression     `json:"left"`
	Right    Expression     `json:"right"`
}

func NewBinaryExpression(operator BinaryOperator, left, right Expression) *BinaryExpression {
	return &BinaryExpression{nodeImpl: newNodeImpl(NodeBinaryExpression), Operator: operator, Left: left, Right: right}
}

type UnaryOperator string

const (
	OpNot UnaryOperator = "!"
	OpNeg UnaryOperator = "-"
)

type UnaryExpression struct {
	nodeImpl
	expressionMarker

	Operator UnaryOperator `json:"operator"`
	Operand  Expression    `json:"operand"`
}

func NewUnaryExpression(operator UnaryOperator, operand Expression) *UnaryExpression {
	return &UnaryExpression{nodeImpl: newNodeImpl(NodeUnaryExpression), Operator: operator, Operand: operand}
}

type CallExpression struct {
	nodeImpl
	expressionMarker

	Callee    string       `json:"callee"`
	Arguments []Expression `json:"arguments"`
}

func NewCallExpression(callee string, arguments []Expression) *CallExpression {
	return &CallExpression{nodeImpl: newNodeImpl(NodeCallExpression), Callee: callee, Arguments: arguments}
}

type FieldAccess struct {
	nodeImpl
	expressionMarker

	Object Expression `json:"object"`
	Field  string     `json:"field"`
}

func NewFieldAccess(object Expression, field string) *FieldAccess {
	return &FieldAccess{nodeImpl: newNodeImpl(NodeFieldAccess), Object: object, Field: field}
}

type FieldInitializer struct {
	nodeImpl

	Name  string     `json:"name"`
	Value Expression `json:"value"`
}

func NewFieldInitializer(name string, value Expression) *FieldInitializer {
	return &FieldInitializer{nodeImpl: newNodeImpl(NodeFieldInitializer), Name: name, Value: value}
}

// StructLiteral with an empty StructName is anonymous.
type StructLiteral struct {
	nodeImpl
	expressionMarker

	StructName string              `json:"structName,omitempty"`
	Fields     []*FieldInitializer `json:"fields"`
}

func NewStructLiteral(structName string, fields []*FieldInitializer) *StructLiteral {
	return &StructLiteral{nodeImpl: newNodeImpl(NodeStructLiteral), StructName: structName, Fields: fields}
}

type MatchCase struct {
	nodeImpl

	Pattern     Pattern    `json:"pattern"`
	Guard       Expression `json:"guard,omitempty"`
	Consequence Expression `json:"consequence"`
}

func NewMatchCase(pattern Pattern, guard Expression, consequence Expression) *MatchCase {
	return &MatchCase{nodeImpl: newNodeImpl(NodeMatchCase), Pattern: pattern, Guard: guard, Consequence: consequence}
}

// MatchExpression is usable both as an expression and as a statement.
type MatchExpression struct {
	nodeImpl
	expressionMarker
	statementMarker

	Scrutinee Expression   `json:"scrutinee"`
	Cases     []*MatchCase `json:"cases"`
}

func NewMatchExpression(scrutinee Expression, cases []*MatchCase) *MatchExpression {
	return &MatchExpression{nodeImpl: newNodeImpl(NodeMatchExpression), Scrutinee: scrutinee, Cases: cases}
}

type QuantifierKind string

const (
	QuantifierForall QuantifierKind = "forall"
	QuantifierExists QuantifierKind = "exists"
)

type QuantifierExpression struct {
	nodeImpl
	expressionMarker

	Kind    QuantifierKind `json:"kind"`
	Var     string         `json:"var"`
	VarType TypeExpression `json:"varType"`
	Body    Expression     `json:"body"`
}

func NewQuantifierExpression(kind QuantifierKind, name string, varType TypeExpression, body Expression) *QuantifierExpression {
	return &QuantifierExpression{nodeImpl: newNodeImpl(NodeQuantifier), Kind: kind, Var: name, VarType: varType, Body: body}
}
