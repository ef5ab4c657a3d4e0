package typechecker

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"yuho/core-go/pkg/ast"
)

// Conflict describes one definition that two programs disagree on.
type Conflict struct {
	Kind        string
	Name        string
	Description string
	Location1   ast.Span
	Location2   ast.Span
}

// ConflictReport lists the conflicting definitions between two files.
type ConflictReport struct {
	File1     string
	File2     string
	Conflicts []Conflict
}

func (r ConflictReport) HasConflicts() bool {
	return len(r.Conflicts) > 0
}

// Format renders the report for terminal output.
func (r ConflictReport) Format() string {
	if !r.HasConflicts() {
		return fmt.Sprintf("No conflicts detected between %s and %s\n", r.File1, r.File2)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Conflicts between %s and %s: %d\n", r.File1, r.File2, len(r.Conflicts))
	for i, conflict := range r.Conflicts {
		fmt.Fprintf(&b, "  [%d] %s\n", i+1, conflict.Description)
		fmt.Fprintf(&b, "      %s at %d:%d\n", r.File1, conflict.Location1.Start, conflict.Location1.End)
		fmt.Fprintf(&b, "      %s at %d:%d\n", r.File2, conflict.Location2.Start, conflict.Location2.End)
	}
	return b.String()
}

type namedShape struct {
	members []string
	span    ast.Span
}

type definitionModel struct {
	enums      map[string]namedShape
	structs    map[string]namedShape
	legalTests map[string]namedShape
}

// DetectConflicts compares the enums, structs and legal tests two programs
// define under the same name. Conflicts are ordered by kind, then name.
func DetectConflicts(file1 string, prog1 *ast.Program, file2 string, prog2 *ast.Program) ConflictReport {
	report := ConflictReport{File1: file1, File2: file2}
	left := extractDefinitions(prog1)
	right := extractDefinitions(prog2)

	compare := func(kind string, a, b map[string]namedShape, describe func(name string, x, y []string) string) {
		names := make([]string, 0, len(a))
		for name := range a {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			other, ok := b[name]
			if !ok || slices.Equal(a[name].members, other.members) {
				continue
			}
			report.Conflicts = append(report.Conflicts, Conflict{
				Kind:        kind,
				Name:        name,
				Description: describe(name, a[name].members, other.members),
				Location1:   a[name].span,
				Location2:   other.span,
			})
		}
	}
	compare("enum", left.enums, right.enums, func(name string, x, y []string) string {
		return fmt.Sprintf("Enum '%s' has conflicting definitions: [%s] vs [%s]", name, strings.Join(x, ", "), strings.Join(y, ", "))
	})
	compare("struct", left.structs, right.structs, func(name string, _, _ []string) string {
		return fmt.Sprintf("Struct '%s' has conflicting field definitions", name)
	})
	compare("legal_test", left.legalTests, right.legalTests, func(name string, _, _ []string) string {
		return fmt.Sprintf("Legal test '%s' has conflicting requirements", name)
	})
	return report
}

func extractDefinitions(program *ast.Program) definitionModel {
	model := definitionModel{
		enums:      make(map[string]namedShape),
		structs:    make(map[string]namedShape),
		legalTests: make(map[string]namedShape),
	}
	if program == nil {
		return model
	}
	var visit func(items []ast.Item)
	visit = func(items []ast.Item) {
		for _, item := range items {
			switch it := item.(type) {
			case *ast.Scope:
				visit(it.Items)
			case *ast.EnumDefinition:
				model.enums[it.Name] = namedShape{members: append([]string(nil), it.Variants...), span: it.Span()}
			case *ast.StructDefinition:
				fields := make([]string, len(it.Fields))
				for i, f := range it.Fields {
					fields[i] = f.Name
				}
				model.structs[it.Name] = namedShape{members: fields, span: it.Span()}
			case *ast.LegalTestDefinition:
				reqs := make([]string, len(it.Requirements))
				for i, r := range it.Requirements {
					reqs[i] = r.Name
				}
				model.legalTests[it.Name] = namedShape{members: reqs, span: it.Span()}
			}
		}
	}
	visit(program.Items)
	return model
}
