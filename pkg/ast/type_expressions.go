package ast

import (
	"fmt"
	"strings"
)

const (
	NodePrimitiveType         NodeType = "PrimitiveType"
	NodeNamedType             NodeType = "NamedType"
	NodeUnionType             NodeType = "UnionType"
	NodeBoundedIntType        NodeType = "BoundedIntType"
	NodeNonEmptyType          NodeType = "NonEmptyType"
	NodePositiveType          NodeType = "PositiveType"
	NodeValidDateType         NodeType = "ValidDateType"
	NodeCitationType          NodeType = "CitationType"
	NodeTemporalValueType     NodeType = "TemporalValueType"
	NodeArrayType             NodeType = "ArrayType"
	NodeMoneyWithCurrencyType NodeType = "MoneyWithCurrencyType"
	NodeTypeVariable          NodeType = "TypeVariable"
	NodeGenericType           NodeType = "GenericType"
)

// Type expressions

type TypeExpression interface {
	Node
	typeExpressionNode()
}

type typeExpressionMarker struct{}

func (typeExpressionMarker) typeExpressionNode() {}

type PrimitiveKind string

const (
	PrimitiveInt      PrimitiveKind = "int"
	PrimitiveFloat    PrimitiveKind = "float"
	PrimitiveBool     PrimitiveKind = "bool"
	PrimitiveString   PrimitiveKind = "string"
	PrimitiveMoney    PrimitiveKind = "money"
	PrimitiveDate     PrimitiveKind = "date"
	PrimitiveDuration PrimitiveKind = "duration"
	PrimitivePercent  PrimitiveKind = "percent"
	PrimitivePass     PrimitiveKind = "pass"
)

type PrimitiveType struct {
	nodeImpl
	typeExpressionMarker

	Kind PrimitiveKind `json:"kind"`
}

func NewPrimitiveType(kind PrimitiveKind) *PrimitiveType {
	return &PrimitiveType{nodeImpl: newNodeImpl(NodePrimitiveType), Kind: kind}
}

type NamedType struct {
	nodeImpl
	typeExpressionMarker

	Name string `json:"name"`
}

func NewNamedType(name string) *NamedType {
	return &NamedType{nodeImpl: newNodeImpl(NodeNamedType), Name: name}
}

type UnionType struct {
	nodeImpl
	typeExpressionMarker

	Left  TypeExpression `json:"left"`
	Right TypeExpression `json:"right"`
}

func NewUnionType(left, right TypeExpression) *UnionType {
	return &UnionType{nodeImpl: newNodeImpl(NodeUnionType), Left: left, Right: right}
}

// BoundedIntType is the closed range BoundedInt<Min, Max>.
type BoundedIntType struct {
	nodeImpl
	typeExpressionMarker

	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

func NewBoundedIntType(min, max int64) *BoundedIntType {
	return &BoundedIntType{nodeImpl: newNodeImpl(NodeBoundedIntType), Min: min, Max: max}
}

type NonEmptyType struct {
	nodeImpl
	typeExpressionMarker

	Inner TypeExpression `json:"inner"`
}

func NewNonEmptyType(inner TypeExpression) *NonEmptyType {
	return &NonEmptyType{nodeImpl: newNodeImpl(NodeNonEmptyType), Inner: inner}
}

type PositiveType struct {
	nodeImpl
	typeExpressionMarker

	Inner TypeExpression `json:"inner"`
}

func NewPositiveType(inner TypeExpression) *PositiveType {
	return &PositiveType{nodeImpl: newNodeImpl(NodePositiveType), Inner: inner}
}

type ValidDateType struct {
	nodeImpl
	typeExpressionMarker

	After  *string `json:"after,omitempty"`
	Before *string `json:"before,omitempty"`
}

func NewValidDateType(after, before *string) *ValidDateType {
	return &ValidDateType{nodeImpl: newNodeImpl(NodeValidDateType), After: after, Before: before}
}

type CitationType struct {
	nodeImpl
	typeExpressionMarker

	Section    string `json:"section"`
	Subsection string `json:"subsection"`
	Act        string `json:"act"`
}

func NewCitationType(section, subsection, act string) *CitationType {
	return &CitationType{nodeImpl: newNodeImpl(NodeCitationType), Section: section, Subsection: subsection, Act: act}
}

type TemporalValueType struct {
	nodeImpl
	typeExpressionMarker

	Inner      TypeExpression `json:"inner"`
	ValidFrom  *string        `json:"validFrom,omitempty"`
	ValidUntil *string        `json:"validUntil,omitempty"`
}

func NewTemporalValueType(inner TypeExpression, validFrom, validUntil *string) *TemporalValueType {
	return &TemporalValueType{nodeImpl: newNodeImpl(NodeTemporalValueType), Inner: inner, ValidFrom: validFrom, ValidUntil: validUntil}
}

type ArrayType struct {
	nodeImpl
	typeExpressionMarker

	Element TypeExpression `json:"element"`
}

func NewArrayType(element TypeExpression) *ArrayType {
	return &ArrayType{nodeImpl: newNodeImpl(NodeArrayType), Element: element}
}

type MoneyWithCurrencyType struct {
	nodeImpl
	typeExpressionMarker

	Currency string `json:"currency"`
}

func NewMoneyWithCurrencyType(currency string) *MoneyWithCurrencyType {
	return &MoneyWithCurrencyType{nodeImpl: newNodeImpl(NodeMoneyWithCurrencyType), Currency: currency}
}

type TypeVariable struct {
	nodeImpl
	typeExpressionMarker

	Name string `json:"name"`
}

func NewTypeVariable(name string) *TypeVariable {
	return &TypeVariable{nodeImpl: newNodeImpl(NodeTypeVariable), Name: name}
}

type GenericType struct {
	nodeImpl
	typeExpressionMarker

	Name      string           `json:"name"`
	Arguments []TypeExpression `json:"arguments"`
}

func NewGenericType(name string, arguments []TypeExpression) *GenericType {
	return &GenericType{nodeImpl: newNodeImpl(NodeGenericType), Name: name, Arguments: arguments}
}

// TypeString renders a type expression in source syntax.
func TypeString(t TypeExpression) string {
	switch typ := t.(type) {
	case nil:
		return "<nil>"
	case *PrimitiveType:
		return string(typ.Kind)
	case *NamedType:
		return typ.Name
	case *UnionType:
		return fmt.Sprintf("%s | %s", TypeString(typ.Left), TypeString(typ.Right))
	case *BoundedIntType:
		return fmt.Sprintf("BoundedInt<%d, %d>", typ.Min, typ.Max)
	case *NonEmptyType:
		return fmt.Sprintf("NonEmpty<%s>", TypeString(typ.Inner))
	case *PositiveType:
		return fmt.Sprintf("Positive<%s>", TypeString(typ.Inner))
	case *ValidDateType:
		return fmt.Sprintf("ValidDate<%s, %s>", optionalString(typ.After), optionalString(typ.Before))
	case *CitationType:
		return fmt.Sprintf("Citation<%q, %q, %q>", typ.Section, typ.Subsection, typ.Act)
	case *TemporalValueType:
		return fmt.Sprintf("Temporal<%s, %s, %s>", TypeString(typ.Inner), optionalString(typ.ValidFrom), optionalString(typ.ValidUntil))
	case *ArrayType:
		return fmt.Sprintf("[%s]", TypeString(typ.Element))
	case *MoneyWithCurrencyType:
		return fmt.Sprintf("money<%s>", typ.Currency)
	case *TypeVariable:
		return typ.Name
	case *GenericType:
		args := make([]string, len(typ.Arguments))
		for i, arg := range typ.Arguments {
			args[i] = TypeString(arg)
		}
		return fmt.Sprintf("%s<%s>", typ.Name, strings.Join(args, ", "))
	default:
		return fmt.Sprintf("%T", t)
	}
}

func optionalString(value *string) string {
	if value == nil {
		return "_"
	}
	return *value
}
