package ast

// Patterns

type Pattern interface {
	Node
	patternNode()
}

type patternMarker struct{}

func (patternMarker) patternNode() {}

type WildcardPattern struct {
	nodeImpl
	patternMarker
}

func NewWildcardPattern() *WildcardPattern {
	return &WildcardPattern{nodeImpl: newNodeImpl(NodeWildcardPattern)}
}

type LiteralPattern struct {
	nodeImpl
	patternMarker

	Literal *Literal `json:"literal"`
}

func NewLiteralPattern(literal *Literal) *LiteralPattern {
	return &LiteralPattern{nodeImpl: newNodeImpl(NodeLiteralPattern), Literal: literal}
}

// IdentifierPattern matches an enum variant or binds a name.
type IdentifierPattern struct {
	nodeImpl
	patternMarker

	Name string `json:"name"`
}

func NewIdentifierPattern(name string) *IdentifierPattern {
	return &IdentifierPattern{nodeImpl: newNodeImpl(NodeIdentifierPattern), Name: name}
}

// SatisfiesPattern matches when the named legal test holds.
type SatisfiesPattern struct {
	nodeImpl
	patternMarker

	Test string `json:"test"`
}

func NewSatisfiesPattern(test string) *SatisfiesPattern {
	return &SatisfiesPattern{nodeImpl: newNodeImpl(NodeSatisfiesPattern), Test: test}
}
