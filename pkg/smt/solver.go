package smt

import (
	"context"
	"fmt"
	"strings"
)

// Result is the outcome of a satisfiability check.
type Result int

const (
	Unknown Result = iota
	Sat
	Unsat
)

func (r Result) String() string {
	switch r {
	case Sat:
		return "sat"
	case Unsat:
		return "unsat"
	default:
		return "unknown"
	}
}

// Solver is a session with an SMT backend. Assertions live in the innermost
// frame opened by Push and are discarded by the matching Pop.
type Solver interface {
	Declare(name string, sort Sort) error
	Assert(term *Term) error
	Check(ctx context.Context) (Result, error)
	// Model returns the assignment found by the last Check, which must have been Sat.
	Model() (*Model, error)
	Push()
	Pop() error
	Close() error
}

// Assignment binds one model variable.
type Assignment struct {
	Name  string
	Value Value
}

// Model is a satisfying assignment.
type Model struct {
	Assignments []Assignment
}

func (m *Model) Lookup(name string) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	for _, a := range m.Assignments {
		if a.Name == name {
			return a.Value, true
		}
	}
	return Value{}, false
}

// String renders the model the way SMT-LIB get-model does.
func (m *Model) String() string {
	var b strings.Builder
	b.WriteString("(\n")
	if m != nil {
		for _, a := range m.Assignments {
			fmt.Fprintf(&b, "  (define-fun %s () %s %s)\n", Symbol(a.Name), a.Value.Sort, a.Value)
		}
	}
	b.WriteString(")")
	return b.String()
}

// Format lists assignments one per line as "name = value".
func (m *Model) Format() string {
	var b strings.Builder
	if m == nil {
		return ""
	}
	for _, a := range m.Assignments {
		fmt.Fprintf(&b, "  %s = %s\n", a.Name, a.Value)
	}
	return b.String()
}

// blockingClause excludes exactly this assignment from future models.
func (m *Model) blockingClause() *Term {
	if m == nil || len(m.Assignments) == 0 {
		return nil
	}
	diffs := make([]*Term, 0, len(m.Assignments))
	for _, a := range m.Assignments {
		diffs = append(diffs, Distinct(Var(a.Name, a.Value.Sort), Const(a.Value)))
	}
	return Or(diffs...)
}

// declarations tracks declared names per frame so that Pop forgets them.
type declarations struct {
	frames []declFrame
}

type declFrame struct {
	names []string
	sorts map[string]Sort
}

func newDeclarations() *declarations {
	return &declarations{frames: []declFrame{{sorts: map[string]Sort{}}}}
}

func (d *declarations) lookup(name string) (Sort, bool) {
	for i := len(d.frames) - 1; i >= 0; i-- {
		if sort, ok := d.frames[i].sorts[name]; ok {
			return sort, true
		}
	}
	return "", false
}

// declare returns false when name is already declared with the same sort.
func (d *declarations) declare(name string, sort Sort) (bool, error) {
	if existing, ok := d.lookup(name); ok {
		if existing != sort {
			return false, errorf(TranslationError, "'%s' declared as %s, redeclared as %s", name, existing, sort)
		}
		return false, nil
	}
	top := &d.frames[len(d.frames)-1]
	top.names = append(top.names, name)
	top.sorts[name] = sort
	return true, nil
}

// all lists every visible declaration in declaration order.
func (d *declarations) all() []FreeVar {
	var out []FreeVar
	for _, frame := range d.frames {
		for _, name := range frame.names {
			out = append(out, FreeVar{Name: name, Sort: frame.sorts[name]})
		}
	}
	return out
}

func (d *declarations) push() {
	d.frames = append(d.frames, declFrame{sorts: map[string]Sort{}})
}

func (d *declarations) pop() error {
	if len(d.frames) == 1 {
		return errorf(SolverError, "pop without matching push")
	}
	d.frames = d.frames[:len(d.frames)-1]
	return nil
}
