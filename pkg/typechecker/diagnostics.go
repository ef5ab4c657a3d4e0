package typechecker

import (
	"fmt"
	"strings"

	"yuho/core-go/pkg/ast"
)

// ErrorKind classifies a checker diagnostic.
type ErrorKind string

const (
	TypeMismatch           ErrorKind = "TypeMismatch"
	Undefined              ErrorKind = "Undefined"
	Duplicate              ErrorKind = "Duplicate"
	InvalidField           ErrorKind = "InvalidField"
	MissingField           ErrorKind = "MissingField"
	NonExhaustiveMatch     ErrorKind = "NonExhaustiveMatch"
	UnreachableCase        ErrorKind = "UnreachableCase"
	InvalidBoundedIntRange ErrorKind = "InvalidBoundedIntRange"
	InvalidConstraint      ErrorKind = "InvalidConstraint"
	ConstraintViolation    ErrorKind = "ConstraintViolation"
	GenericArityMismatch   ErrorKind = "GenericArityMismatch"
	UnboundTypeVariable    ErrorKind = "UnboundTypeVariable"
)

// DiagnosticSeverity conveys the diagnostic level.
type DiagnosticSeverity string

const (
	SeverityError   DiagnosticSeverity = "error"
	SeverityWarning DiagnosticSeverity = "warning"
)

// Diagnostic represents a type-checking error or warning. Only the fields
// relevant to Kind are populated.
type Diagnostic struct {
	Kind     ErrorKind
	Severity DiagnosticSeverity
	Message  string
	Node     ast.Node
	Path     string

	Name       string
	StructName string
	Field      string
	Expected   string
	Got        string
	Min, Max   int64

	ExpectedArity int
	GotArity      int
}

func (d Diagnostic) Error() string { return d.Message }

// Span returns the source span of the offending node, if any.
func (d Diagnostic) Span() ast.Span {
	if d.Node == nil {
		return ast.Span{}
	}
	return d.Node.Span()
}

// HasErrors reports whether any diagnostic has error severity.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity != SeverityWarning {
			return true
		}
	}
	return false
}

// DescribeDiagnostic formats a diagnostic for human-readable output.
func DescribeDiagnostic(diag Diagnostic) string {
	message := diag.Message
	if diag.Severity == SeverityWarning {
		message = "warning: " + message
	}
	span := diag.Span()
	switch {
	case diag.Path != "" && span.End > 0:
		return fmt.Sprintf("%s (%s:%d-%d)", message, diag.Path, span.Start, span.End)
	case diag.Path != "":
		return fmt.Sprintf("%s (%s)", message, diag.Path)
	default:
		return message
	}
}

// FilterKind returns the diagnostics of the given kind.
func FilterKind(diags []Diagnostic, kind ErrorKind) []Diagnostic {
	var out []Diagnostic
	for _, d := range diags {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

func (c *Checker) diag(kind ErrorKind, node ast.Node, format string, args ...any) Diagnostic {
	msg := fmt.Sprintf(format, args...)
	if !strings.HasPrefix(msg, "typechecker: ") {
		msg = "typechecker: " + msg
	}
	d := Diagnostic{Kind: kind, Severity: SeverityError, Message: msg, Node: node}
	if node != nil {
		if path, ok := c.origins[node]; ok {
			d.Path = path
		}
	}
	if d.Path == "" {
		d.Path = c.currentPath
	}
	return d
}

func (c *Checker) typeMismatch(node ast.Node, expected, got string) Diagnostic {
	d := c.diag(TypeMismatch, node, "type mismatch: expected %s, got %s", expected, got)
	d.Expected = expected
	d.Got = got
	return d
}

func (c *Checker) undefined(node ast.Node, name string, format string, args ...any) Diagnostic {
	d := c.diag(Undefined, node, format, args...)
	d.Name = name
	return d
}

func (c *Checker) duplicate(node ast.Node, name string) Diagnostic {
	d := c.diag(Duplicate, node, "duplicate definition '%s'", name)
	d.Name = name
	return d
}

func (c *Checker) invalidField(node ast.Node, structName, field string) Diagnostic {
	d := c.diag(InvalidField, node, "struct '%s' has no field '%s'", structName, field)
	d.StructName = structName
	d.Field = field
	return d
}

func (c *Checker) missingField(node ast.Node, structName, field string) Diagnostic {
	d := c.diag(MissingField, node, "struct '%s' missing field '%s'", structName, field)
	d.StructName = structName
	d.Field = field
	return d
}

func (c *Checker) invalidRange(node ast.Node, min, max int64) Diagnostic {
	d := c.diag(InvalidBoundedIntRange, node, "invalid BoundedInt range: min %d must be less than max %d", min, max)
	d.Min = min
	d.Max = max
	return d
}

func (c *Checker) invalidConstraint(node ast.Node, format string, args ...any) Diagnostic {
	return c.diag(InvalidConstraint, node, "invalid constraint: "+format, args...)
}

func (c *Checker) arityMismatch(node ast.Node, name string, expected, got int) Diagnostic {
	d := c.diag(GenericArityMismatch, node, "type '%s' expects %d type argument(s), got %d", name, expected, got)
	d.Name = name
	d.ExpectedArity = expected
	d.GotArity = got
	return d
}
