package ast

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// EncodeProgram serialises a program to the tagged JSON form read by DecodeProgram.
func EncodeProgram(program *Program) ([]byte, error) {
	if program == nil {
		return nil, fmt.Errorf("ast: nil program")
	}
	return json.MarshalIndent(program, "", "  ")
}

// DecodeProgram parses the tagged JSON form of a program.
func DecodeProgram(data []byte) (*Program, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var raw map[string]any
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("ast: decode program: %w", err)
	}
	if typ, _ := raw["type"].(string); typ != string(NodeProgram) {
		return nil, fmt.Errorf("ast: expected Program node, got %q", typ)
	}
	var imports []*ImportStatement
	for _, entry := range listField(raw, "imports") {
		node, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("ast: invalid import %T", entry)
		}
		imp := NewImportStatement(stringList(node, "names"), stringField(node, "from"))
		imp.setSpan(spanField(node))
		imports = append(imports, imp)
	}
	items, err := decodeItems(listField(raw, "items"))
	if err != nil {
		return nil, err
	}
	program := NewProgram(imports, items)
	program.setSpan(spanField(raw))
	return program, nil
}

func decodeItems(values []any) ([]Item, error) {
	items := make([]Item, 0, len(values))
	for _, raw := range values {
		node, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("ast: invalid item %T", raw)
		}
		item, err := decodeItem(node)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func decodeItem(node map[string]any) (Item, error) {
	typ, _ := node["type"].(string)
	var item Item
	switch NodeType(typ) {
	case NodeScope:
		inner, err := decodeItems(listField(node, "items"))
		if err != nil {
			return nil, err
		}
		item = NewScope(stringField(node, "name"), inner)
	case NodeStructDefinition:
		var fields []*FieldDefinition
		for _, raw := range listField(node, "fields") {
			fieldNode, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("ast: invalid struct field %T", raw)
			}
			field, err := decodeFieldDefinition(fieldNode)
			if err != nil {
				return nil, err
			}
			fields = append(fields, field)
		}
		item = NewStructDefinition(stringField(node, "name"), stringList(node, "typeParams"), fields, stringField(node, "extends"))
	case NodeEnumDefinition:
		exclusive, _ := node["mutuallyExclusive"].(bool)
		item = NewEnumDefinition(stringField(node, "name"), stringList(node, "variants"), exclusive)
	case NodeFunctionDefinition:
		var params []*Parameter
		for _, raw := range listField(node, "params") {
			paramNode, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("ast: invalid parameter %T", raw)
			}
			paramType, err := decodeTypeField(paramNode, "paramType")
			if err != nil {
				return nil, err
			}
			param := NewParameter(stringField(paramNode, "name"), paramType)
			param.setSpan(spanField(paramNode))
			params = append(params, param)
		}
		returnType, err := decodeOptionalTypeField(node, "returnType")
		if err != nil {
			return nil, err
		}
		body, err := decodeStatements(listField(node, "body"))
		if err != nil {
			return nil, err
		}
		requires, err := decodeOptionalExpression(node, "requires")
		if err != nil {
			return nil, err
		}
		item = NewFunctionDefinition(stringField(node, "name"), stringList(node, "typeParams"), params, returnType, body, requires)
	case NodeDeclaration:
		decl, err := decodeDeclaration(node)
		if err != nil {
			return nil, err
		}
		item = decl
	case NodeTypeAliasDefinition:
		target, err := decodeTypeField(node, "target")
		if err != nil {
			return nil, err
		}
		item = NewTypeAliasDefinition(stringField(node, "name"), stringList(node, "typeParams"), target)
	case NodeLegalTestDefinition:
		var reqs []*Requirement
		for _, raw := range listField(node, "requirements") {
			reqNode, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("ast: invalid requirement %T", raw)
			}
			reqType, err := decodeTypeField(reqNode, "requirementType")
			if err != nil {
				return nil, err
			}
			req := NewRequirement(stringField(reqNode, "name"), reqType)
			req.setSpan(spanField(reqNode))
			reqs = append(reqs, req)
		}
		item = NewLegalTestDefinition(stringField(node, "name"), reqs)
	case NodeConflictCheck:
		item = NewConflictCheck(stringField(node, "file1"), stringField(node, "file2"))
	case NodePrincipleDefinition:
		body, err := decodeExpressionField(node, "body")
		if err != nil {
			return nil, err
		}
		item = NewPrincipleDefinition(stringField(node, "name"), body)
	case NodeProvisoDefinition:
		condition, err := decodeExpressionField(node, "condition")
		if err != nil {
			return nil, err
		}
		exception, err := decodeStatements(listField(node, "exception"))
		if err != nil {
			return nil, err
		}
		item = NewProvisoDefinition(condition, exception, stringField(node, "appliesTo"))
	default:
		return nil, fmt.Errorf("ast: unsupported item type %q", typ)
	}
	SetSpan(item, spanField(node))
	return item, nil
}

func decodeFieldDefinition(node map[string]any) (*FieldDefinition, error) {
	fieldType, err := decodeTypeField(node, "fieldType")
	if err != nil {
		return nil, err
	}
	var constraints []Constraint
	for _, raw := range listField(node, "constraints") {
		constraintNode, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("ast: invalid constraint %T", raw)
		}
		constraint, err := decodeConstraint(constraintNode)
		if err != nil {
			return nil, err
		}
		constraints = append(constraints, constraint)
	}
	var annotations []*Annotation
	for _, raw := range listField(node, "annotations") {
		annNode, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("ast: invalid annotation %T", raw)
		}
		var args map[string]string
		if rawArgs, ok := annNode["args"].(map[string]any); ok {
			args = make(map[string]string, len(rawArgs))
			for k, v := range rawArgs {
				args[k] = fmt.Sprint(v)
			}
		}
		ann := NewAnnotation(AnnotationKind(stringField(annNode, "kind")), args)
		ann.setSpan(spanField(annNode))
		annotations = append(annotations, ann)
	}
	field := NewFieldDefinition(stringField(node, "name"), fieldType, constraints, annotations)
	field.setSpan(spanField(node))
	return field, nil
}

func decodeDeclaration(node map[string]any) (*Declaration, error) {
	declType, err := decodeTypeField(node, "declType")
	if err != nil {
		return nil, err
	}
	value, err := decodeExpressionField(node, "value")
	if err != nil {
		return nil, err
	}
	decl := NewDeclaration(stringField(node, "name"), declType, value)
	decl.setSpan(spanField(node))
	return decl, nil
}

func decodeStatements(values []any) ([]Statement, error) {
	stmts := make([]Statement, 0, len(values))
	for _, raw := range values {
		node, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("ast: invalid statement %T", raw)
		}
		stmt, err := decodeStatement(node)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

func decodeStatement(node map[string]any) (Statement, error) {
	typ, _ := node["type"].(string)
	switch NodeType(typ) {
	case NodeDeclaration:
		return decodeDeclaration(node)
	case NodeAssignment:
		value, err := decodeExpressionField(node, "value")
		if err != nil {
			return nil, err
		}
		stmt := NewAssignment(stringField(node, "target"), value)
		stmt.setSpan(spanField(node))
		return stmt, nil
	case NodeReturnStatement:
		arg, err := decodeExpressionField(node, "argument")
		if err != nil {
			return nil, err
		}
		stmt := NewReturnStatement(arg)
		stmt.setSpan(spanField(node))
		return stmt, nil
	case NodePassStatement:
		stmt := NewPassStatement()
		stmt.setSpan(spanField(node))
		return stmt, nil
	case NodeMatchExpression:
		expr, err := decodeExpression(node)
		if err != nil {
			return nil, err
		}
		return expr.(*MatchExpression), nil
	default:
		return nil, fmt.Errorf("ast: unsupported statement type %q", typ)
	}
}

func decodeExpressionField(node map[string]any, key string) (Expression, error) {
	raw, ok := node[key].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("ast: %s missing %s", stringField(node, "type"), key)
	}
	return decodeExpression(raw)
}

func decodeOptionalExpression(node map[string]any, key string) (Expression, error) {
	raw, ok := node[key].(map[string]any)
	if !ok {
		return nil, nil
	}
	return decodeExpression(raw)
}

func decodeExpression(node map[string]any) (Expression, error) {
	typ, _ := node["type"].(string)
	var expr Expression
	switch NodeType(typ) {
	case NodeLiteral:
		expr = decodeLiteral(node)
	case NodeIdentifier:
		expr = NewIdentifier(stringField(node, "name"))
	case NodeBinaryExpression:
		left, err := decodeExpressionField(node, "left")
		if err != nil {
			return nil, err
		}
		right, err := decodeExpressionField(node, "right")
		if err != nil {
			return nil, err
		}
		expr = NewBinaryExpression(BinaryOperator(stringField(node, "operator")), left, right)
	case NodeUnaryExpression:
		operand, err := decodeExpressionField(node, "operand")
		if err != nil {
			return nil, err
		}
		expr = NewUnaryExpression(UnaryOperator(stringField(node, "operator")), operand)
	case NodeCallExpression:
		var args []Expression
		for _, raw := range listField(node, "arguments") {
			argNode, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("ast: invalid call argument %T", raw)
			}
			arg, err := decodeExpression(argNode)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
		expr = NewCallExpression(stringField(node, "callee"), args)
	case NodeFieldAccess:
		object, err := decodeExpressionField(node, "object")
		if err != nil {
			return nil, err
		}
		expr = NewFieldAccess(object, stringField(node, "field"))
	case NodeStructLiteral:
		var fields []*FieldInitializer
		for _, raw := range listField(node, "fields") {
			fieldNode, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("ast: invalid field initializer %T", raw)
			}
			value, err := decodeExpressionField(fieldNode, "value")
			if err != nil {
				return nil, err
			}
			init := NewFieldInitializer(stringField(fieldNode, "name"), value)
			init.setSpan(spanField(fieldNode))
			fields = append(fields, init)
		}
		expr = NewStructLiteral(stringField(node, "structName"), fields)
	case NodeMatchExpression:
		scrutinee, err := decodeExpressionField(node, "scrutinee")
		if err != nil {
			return nil, err
		}
		var cases []*MatchCase
		for _, raw := range listField(node, "cases") {
			caseNode, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("ast: invalid match case %T", raw)
			}
			matchCase, err := decodeMatchCase(caseNode)
			if err != nil {
				return nil, err
			}
			cases = append(cases, matchCase)
		}
		expr = NewMatchExpression(scrutinee, cases)
	case NodeQuantifier:
		varType, err := decodeTypeField(node, "varType")
		if err != nil {
			return nil, err
		}
		body, err := decodeExpressionField(node, "body")
		if err != nil {
			return nil, err
		}
		expr = NewQuantifierExpression(QuantifierKind(stringField(node, "kind")), stringField(node, "var"), varType, body)
	default:
		return nil, fmt.Errorf("ast: unsupported expression type %q", typ)
	}
	SetSpan(expr, spanField(node))
	return expr, nil
}

func decodeLiteral(node map[string]any) *Literal {
	lit := NewLiteral(LiteralKind(stringField(node, "kind")))
	lit.Int = intField(node, "int")
	lit.Float = floatField(node, "float")
	lit.Bool, _ = node["bool"].(bool)
	lit.Text = stringField(node, "text")
	lit.setSpan(spanField(node))
	return lit
}

func decodeMatchCase(node map[string]any) (*MatchCase, error) {
	patternNode, ok := node["pattern"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("ast: match case missing pattern")
	}
	pattern, err := decodePattern(patternNode)
	if err != nil {
		return nil, err
	}
	guard, err := decodeOptionalExpression(node, "guard")
	if err != nil {
		return nil, err
	}
	consequence, err := decodeExpressionField(node, "consequence")
	if err != nil {
		return nil, err
	}
	matchCase := NewMatchCase(pattern, guard, consequence)
	matchCase.setSpan(spanField(node))
	return matchCase, nil
}

func decodePattern(node map[string]any) (Pattern, error) {
	typ, _ := node["type"].(string)
	var pattern Pattern
	switch NodeType(typ) {
	case NodeWildcardPattern:
		pattern = NewWildcardPattern()
	case NodeIdentifierPattern:
		pattern = NewIdentifierPattern(stringField(node, "name"))
	case NodeSatisfiesPattern:
		pattern = NewSatisfiesPattern(stringField(node, "test"))
	case NodeLiteralPattern:
		literalNode, ok := node["literal"].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("ast: literal pattern missing literal")
		}
		pattern = NewLiteralPattern(decodeLiteral(literalNode))
	default:
		return nil, fmt.Errorf("ast: unsupported pattern type %q", typ)
	}
	SetSpan(pattern, spanField(node))
	return pattern, nil
}

func decodeTypeField(node map[string]any, key string) (TypeExpression, error) {
	raw, ok := node[key].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("ast: %s missing %s", stringField(node, "type"), key)
	}
	return decodeTypeExpression(raw)
}

func decodeOptionalTypeField(node map[string]any, key string) (TypeExpression, error) {
	raw, ok := node[key].(map[string]any)
	if !ok {
		return nil, nil
	}
	return decodeTypeExpression(raw)
}

func decodeTypeExpression(node map[string]any) (TypeExpression, error) {
	typ, _ := node["type"].(string)
	var out TypeExpression
	switch NodeType(typ) {
	case NodePrimitiveType:
		out = NewPrimitiveType(PrimitiveKind(stringField(node, "kind")))
	case NodeNamedType:
		out = NewNamedType(stringField(node, "name"))
	case NodeUnionType:
		left, err := decodeTypeField(node, "left")
		if err != nil {
			return nil, err
		}
		right, err := decodeTypeField(node, "right")
		if err != nil {
			return nil, err
		}
		out = NewUnionType(left, right)
	case NodeBoundedIntType:
		out = NewBoundedIntType(intField(node, "min"), intField(node, "max"))
	case NodeNonEmptyType, NodePositiveType, NodeArrayType:
		key := "inner"
		if NodeType(typ) == NodeArrayType {
			key = "element"
		}
		inner, err := decodeTypeField(node, key)
		if err != nil {
			return nil, err
		}
		switch NodeType(typ) {
		case NodeNonEmptyType:
			out = NewNonEmptyType(inner)
		case NodePositiveType:
			out = NewPositiveType(inner)
		default:
			out = NewArrayType(inner)
		}
	case NodeValidDateType:
		out = NewValidDateType(optionalStringField(node, "after"), optionalStringField(node, "before"))
	case NodeCitationType:
		out = NewCitationType(stringField(node, "section"), stringField(node, "subsection"), stringField(node, "act"))
	case NodeTemporalValueType:
		inner, err := decodeTypeField(node, "inner")
		if err != nil {
			return nil, err
		}
		out = NewTemporalValueType(inner, optionalStringField(node, "validFrom"), optionalStringField(node, "validUntil"))
	case NodeMoneyWithCurrencyType:
		out = NewMoneyWithCurrencyType(stringField(node, "currency"))
	case NodeTypeVariable:
		out = NewTypeVariable(stringField(node, "name"))
	case NodeGenericType:
		var args []TypeExpression
		for _, raw := range listField(node, "arguments") {
			argNode, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("ast: invalid type argument %T", raw)
			}
			arg, err := decodeTypeExpression(argNode)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
		out = NewGenericType(stringField(node, "name"), args)
	default:
		return nil, fmt.Errorf("ast: unsupported type expression %q", typ)
	}
	SetSpan(out, spanField(node))
	return out, nil
}

func decodeConstraint(node map[string]any) (Constraint, error) {
	typ, _ := node["type"].(string)
	sub := func(key string) (Constraint, error) {
		raw, ok := node[key].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("ast: %s missing %s", typ, key)
		}
		return decodeConstraint(raw)
	}
	var out Constraint
	switch NodeType(typ) {
	case NodeComparisonConstraint:
		value, err := decodeExpressionField(node, "value")
		if err != nil {
			return nil, err
		}
		out = NewComparisonConstraint(ComparisonOperator(stringField(node, "operator")), value)
	case NodeInRangeConstraint:
		min, err := decodeExpressionField(node, "min")
		if err != nil {
			return nil, err
		}
		max, err := decodeExpressionField(node, "max")
		if err != nil {
			return nil, err
		}
		out = NewInRangeConstraint(min, max)
	case NodeAndConstraint, NodeOrConstraint:
		left, err := sub("left")
		if err != nil {
			return nil, err
		}
		right, err := sub("right")
		if err != nil {
			return nil, err
		}
		if NodeType(typ) == NodeAndConstraint {
			out = NewAndConstraint(left, right)
		} else {
			out = NewOrConstraint(left, right)
		}
	case NodeNotConstraint:
		inner, err := sub("inner")
		if err != nil {
			return nil, err
		}
		out = NewNotConstraint(inner)
	case NodeBeforeConstraint, NodeAfterConstraint:
		date, err := decodeExpressionField(node, "date")
		if err != nil {
			return nil, err
		}
		if NodeType(typ) == NodeBeforeConstraint {
			out = NewBeforeConstraint(date)
		} else {
			out = NewAfterConstraint(date)
		}
	case NodeBetweenConstraint:
		start, err := decodeExpressionField(node, "start")
		if err != nil {
			return nil, err
		}
		end, err := decodeExpressionField(node, "end")
		if err != nil {
			return nil, err
		}
		out = NewBetweenConstraint(start, end)
	case NodeCustomConstraint:
		out = NewCustomConstraint(stringField(node, "predicate"))
	default:
		return nil, fmt.Errorf("ast: unsupported constraint type %q", typ)
	}
	SetSpan(out, spanField(node))
	return out, nil
}

func stringField(node map[string]any, key string) string {
	val, _ := node[key].(string)
	return val
}

func optionalStringField(node map[string]any, key string) *string {
	val, ok := node[key].(string)
	if !ok {
		return nil
	}
	return &val
}

func listField(node map[string]any, key string) []any {
	val, _ := node[key].([]any)
	return val
}

func stringList(node map[string]any, key string) []string {
	values := listField(node, key)
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func intField(node map[string]any, key string) int64 {
	switch v := node[key].(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		if f, err := v.Float64(); err == nil {
			return int64(f)
		}
	case float64:
		return int64(v)
	}
	return 0
}

func floatField(node map[string]any, key string) float64 {
	switch v := node[key].(type) {
	case json.Number:
		f, _ := v.Float64()
		return f
	case float64:
		return v
	}
	return 0
}

func spanField(node map[string]any) Span {
	raw, ok := node["span"].(map[string]any)
	if !ok {
		return Span{}
	}
	return Span{Start: int(intField(raw, "start")), End: int(intField(raw, "end"))}
}
