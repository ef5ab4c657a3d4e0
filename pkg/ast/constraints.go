package ast

const (
	NodeComparisonConstraint NodeType = "ComparisonConstraint"
	NodeInRangeConstraint    NodeType = "InRangeConstraint"
	NodeAndConstraint        NodeType = "AndConstraint"
	NodeOrConstraint         NodeType = "OrConstraint"
	NodeNotConstraint        NodeType = "NotConstraint"
	NodeBeforeConstraint     NodeType = "BeforeConstraint"
	NodeAfterConstraint      NodeType = "AfterConstraint"
	NodeBetweenConstraint    NodeType = "BetweenConstraint"
	NodeCustomConstraint     NodeType = "CustomConstraint"
)

// Constraints attached to struct fields through `where` clauses.

type Constraint interface {
	Node
	constraintNode()
}

type constraintMarker struct{}

func (constraintMarker) constraintNode() {}

type ComparisonOperator string

const (
	CmpGreater      ComparisonOperator = ">"
	CmpLess         ComparisonOperator = "<"
	CmpGreaterEqual ComparisonOperator = ">="
	CmpLessEqual    ComparisonOperator = "<="
	CmpEqual        ComparisonOperator = "=="
	CmpNotEqual     ComparisonOperator = "!="
)

type ComparisonConstraint struct {
	nodeImpl
	constraintMarker

	Operator ComparisonOperator `json:"operator"`
	Value    Expression         `json:"value"`
}

func NewComparisonConstraint(operator ComparisonOperator, value Expression) *ComparisonConstraint {
	return &ComparisonConstraint{nodeImpl: newNodeImpl(NodeComparisonConstraint), Operator: operator, Value: value}
}

type InRangeConstraint struct {
	nodeImpl
	constraintMarker

	Min Expression `json:"min"`
	Max Expression `json:"max"`
}

func NewInRangeConstraint(min, max Expression) *InRangeConstraint {
	return &InRangeConstraint{nodeImpl: newNodeImpl(NodeInRangeConstraint), Min: min, Max: max}
}

type AndConstraint struct {
	nodeImpl
	constraintMarker

	Left  Constraint `json:"left"`
	Right Constraint `json:"right"`
}

func NewAndConstraint(left, right Constraint) *AndConstraint {
	return &AndConstraint{nodeImpl: newNodeImpl(NodeAndConstraint), Left: left, Right: right}
}

type OrConstraint struct {
	nodeImpl
	constraintMarker

	Left  Constraint `json:"left"`
	Right Constraint `json:"right"`
}

func NewOrConstraint(left, right Constraint) *OrConstraint {
	return &OrConstraint{nodeImpl: newNodeImpl(NodeOrConstraint), Left: left, Right: right}
}

type NotConstraint struct {
	nodeImpl
	constraintMarker

	Inner Constraint `json:"inner"`
}

func NewNotConstraint(inner Constraint) *NotConstraint {
	return &NotConstraint{nodeImpl: newNodeImpl(NodeNotConstraint), Inner: inner}
}

type BeforeConstraint struct {
	nodeImpl
	constraintMarker

	Date Expression `json:"date"`
}

func NewBeforeConstraint(date Expression) *BeforeConstraint {
	return &BeforeConstraint{nodeImpl: newNodeImpl(NodeBeforeConstraint), Date: date}
}

type AfterConstraint struct {
	nodeImpl
	constraintMarker

	Date Expression `json:"date"`
}

func NewAfterConstraint(date Expression) *AfterConstraint {
	return &AfterConstraint{nodeImpl: newNodeImpl(NodeAfterConstraint), Date: date}
}

type BetweenConstraint struct {
	nodeImpl
	constraintMarker

	Start Expression `json:"start"`
	End   Expression `json:"end"`
}

func NewBetweenConstraint(start, end Expression) *BetweenConstraint {
	return &BetweenConstraint{nodeImpl: newNodeImpl(NodeBetweenConstraint), Start: start, End: end}
}

// CustomConstraint is an opaque predicate that is never checked statically.
type CustomConstraint struct {
	nodeImpl
	constraintMarker

	Predicate string `json:"predicate"`
}

func NewCustomConstraint(predicate string) *CustomConstraint {
	return &CustomConstraint{nodeImpl: newNodeImpl(NodeCustomConstraint), Predicate: predicate}
}
