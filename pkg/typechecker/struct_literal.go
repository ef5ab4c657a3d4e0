package typechecker

import "yuho/core-go/pkg/ast"

// checkStructInit reports one InvalidField per undeclared initializer and one
// MissingField per declared field left out. Unnamed literals are anonymous
// records and only have their values checked.
func (c *Checker) checkStructInit(lit *ast.StructLiteral) []Diagnostic {
	var diags []Diagnostic
	if lit.StructName == "" {
		for _, init := range lit.Fields {
			diags = append(diags, c.checkExpr(init.Value)...)
		}
		return diags
	}
	if _, ok := c.symbols.Struct(lit.StructName); !ok {
		diags = append(diags, c.undefined(lit, lit.StructName, "undefined struct '%s'", lit.StructName))
		for _, init := range lit.Fields {
			diags = append(diags, c.checkExpr(init.Value)...)
		}
		return diags
	}

	declared := c.symbols.StructFields(lit.StructName)
	byName := make(map[string]FieldInfo, len(declared))
	for _, field := range declared {
		byName[field.Name] = field
	}

	provided := make(map[string]bool, len(lit.Fields))
	for _, init := range lit.Fields {
		if provided[init.Name] {
			diags = append(diags, c.duplicate(init, init.Name))
		}
		provided[init.Name] = true
		diags = append(diags, c.checkExpr(init.Value)...)
		field, ok := byName[init.Name]
		if !ok {
			diags = append(diags, c.invalidField(init, lit.StructName, init.Name))
			continue
		}
		constraints := append(c.impliedConstraints(field.Type), field.Constraints...)
		if len(constraints) > 0 {
			diags = append(diags, c.checkConstraintsSatisfied(init.Value, constraints, lit.StructName+"."+init.Name)...)
		}
	}

	for _, field := range declared {
		if !provided[field.Name] {
			diags = append(diags, c.missingField(lit, lit.StructName, field.Name))
		}
	}
	return diags
}
