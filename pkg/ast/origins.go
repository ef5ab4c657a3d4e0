package ast

import "reflect"

// Inspect walks the tree rooted at node in depth-first order, calling fn for
// every node. Children are skipped when fn returns false.
func Inspect(node Node, fn func(Node) bool) {
	if isNilNode(node) || !fn(node) {
		return
	}
	for _, child := range children(node) {
		Inspect(child, fn)
	}
}

// AnnotateOrigins records path as the origin of every node reachable from root.
// Existing entries are kept so the first file to claim a node wins.
func AnnotateOrigins(root Node, path string, table map[Node]string) {
	if root == nil || path == "" || table == nil {
		return
	}
	Inspect(root, func(n Node) bool {
		if _, ok := table[n]; !ok {
			table[n] = path
		}
		return true
	})
}

func isNilNode(node Node) bool {
	if node == nil {
		return true
	}
	val := reflect.ValueOf(node)
	return val.Kind() == reflect.Pointer && val.IsNil()
}

func children(node Node) []Node {
	var out []Node
	add := func(nodes ...Node) {
		for _, n := range nodes {
			if n != nil {
				out = append(out, n)
			}
		}
	}
	switch n := node.(type) {
	case *Program:
		for _, imp := range n.Imports {
			add(imp)
		}
		for _, item := range n.Items {
			add(item)
		}
	case *Scope:
		for _, item := range n.Items {
			add(item)
		}
	case *StructDefinition:
		for _, field := range n.Fields {
			add(field)
		}
	case *FieldDefinition:
		add(n.FieldType)
		for _, c := range n.Constraints {
			add(c)
		}
		for _, a := range n.Annotations {
			add(a)
		}
	case *FunctionDefinition:
		for _, p := range n.Params {
			add(p)
		}
		add(n.ReturnType)
		for _, stmt := range n.Body {
			add(stmt)
		}
		add(n.Requires)
	case *Parameter:
		add(n.ParamType)
	case *Declaration:
		add(n.DeclType, n.Value)
	case *TypeAliasDefinition:
		add(n.Target)
	case *LegalTestDefinition:
		for _, r := range n.Requirements {
			add(r)
		}
	case *Requirement:
		add(n.RequirementType)
	case *PrincipleDefinition:
		add(n.Body)
	case *ProvisoDefinition:
		add(n.Condition)
		for _, stmt := range n.Exception {
			add(stmt)
		}
	case *Assignment:
		add(n.Value)
	case *ReturnStatement:
		add(n.Argument)
	case *BinaryExpression:
		add(n.Left, n.Right)
	case *UnaryExpression:
		add(n.Operand)
	case *CallExpression:
		for _, arg := range n.Arguments {
			add(arg)
		}
	case *FieldAccess:
		add(n.Object)
	case *StructLiteral:
		for _, f := range n.Fields {
			add(f)
		}
	case *FieldInitializer:
		add(n.Value)
	case *MatchExpression:
		add(n.Scrutinee)
		for _, c := range n.Cases {
			add(c)
		}
	case *MatchCase:
		add(n.Pattern, n.Guard, n.Consequence)
	case *LiteralPattern:
		add(n.Literal)
	case *QuantifierExpression:
		add(n.VarType, n.Body)
	case *UnionType:
		add(n.Left, n.Right)
	case *NonEmptyType:
		add(n.Inner)
	case *PositiveType:
		add(n.Inner)
	case *TemporalValueType:
		add(n.Inner)
	case *ArrayType:
		add(n.Element)
	case *GenericType:
		for _, arg := range n.Arguments {
			add(arg)
		}
	case *ComparisonConstraint:
		add(n.Value)
	case *InRangeConstraint:
		add(n.Min, n.Max)
	case *AndConstraint:
		add(n.Left, n.Right)
	case *OrConstraint:
		add(n.Left, n.Right)
	case *NotConstraint:
		add(n.Inner)
	case *BeforeConstraint:
		add(n.Date)
	case *AfterConstraint:
		add(n.Date)
	case *BetweenConstraint:
		add(n.Start, n.End)
	}
	return out
}
