package smt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/go-logr/logr"
)

// DefaultZ3Path is the executable looked up on PATH when none is configured.
const DefaultZ3Path = "z3"

// ProcessSolver drives an external SMT-LIB2 solver such as z3 in -in mode.
// Declarations and assertions are kept as script frames and replayed to a
// fresh solver process on every Check, so a hung or killed process never
// poisons later checks.
type ProcessSolver struct {
	path   string
	args   []string
	log    logr.Logger
	decls  *declarations
	frames [][]string
	last   Result
	model  *Model
}

// ProcessOption configures a ProcessSolver.
type ProcessOption func(*ProcessSolver)

func WithProcessLogger(log logr.Logger) ProcessOption {
	return func(s *ProcessSolver) {
		s.log = log
	}
}

// WithSolverArgs replaces the default "-in" argument list.
func WithSolverArgs(args ...string) ProcessOption {
	return func(s *ProcessSolver) {
		s.args = args
	}
}

func NewProcessSolver(path string, opts ...ProcessOption) *ProcessSolver {
	if path == "" {
		path = DefaultZ3Path
	}
	s := &ProcessSolver{
		path:   path,
		args:   []string{"-in"},
		log:    logr.Discard(),
		decls:  newDeclarations(),
		frames: [][]string{nil},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Available reports whether the solver executable can be found.
func (s *ProcessSolver) Available() bool {
	_, err := exec.LookPath(s.path)
	return err == nil
}

func (s *ProcessSolver) emit(command string) {
	top := len(s.frames) - 1
	s.frames[top] = append(s.frames[top], command)
}

func (s *ProcessSolver) Declare(name string, sort Sort) error {
	added, err := s.decls.declare(name, sort)
	if err != nil {
		return err
	}
	if added {
		s.emit(fmt.Sprintf("(declare-const %s %s)", Symbol(name), sort))
	}
	return nil
}

func (s *ProcessSolver) Assert(term *Term) error {
	if term == nil {
		return errorf(TranslationError, "cannot assert an empty term")
	}
	for _, fv := range FreeVars(term) {
		if err := s.Declare(fv.Name, fv.Sort); err != nil {
			return err
		}
	}
	s.emit("(assert " + term.String() + ")")
	return nil
}

func (s *ProcessSolver) Push() {
	s.decls.push()
	s.frames = append(s.frames, nil)
}

func (s *ProcessSolver) Pop() error {
	if err := s.decls.pop(); err != nil {
		return err
	}
	s.frames = s.frames[:len(s.frames)-1]
	return nil
}

func (s *ProcessSolver) Close() error {
	return nil
}

func (s *ProcessSolver) Model() (*Model, error) {
	if s.last != Sat || s.model == nil {
		return nil, errorf(SolverError, "model unavailable: last check was %s", s.last)
	}
	return s.model, nil
}

// Script renders the session as it will be sent on the next Check.
func (s *ProcessSolver) Script(timeout time.Duration) string {
	var b strings.Builder
	b.WriteString("(set-option :produce-models true)\n")
	if timeout > 0 {
		fmt.Fprintf(&b, "(set-option :timeout %d)\n", timeout.Milliseconds())
	}
	for _, frame := range s.frames {
		for _, command := range frame {
			b.WriteString(command)
			b.WriteByte('\n')
		}
	}
	b.WriteString("(check-sat)\n(get-model)\n(exit)\n")
	return b.String()
}

func (s *ProcessSolver) Check(ctx context.Context) (Result, error) {
	s.last, s.model = Unknown, nil
	var timeout time.Duration
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return Unknown, nil
		}
	}
	script := s.Script(timeout)

	cmd := exec.CommandContext(ctx, s.path, s.args...)
	cmd.Stdin = strings.NewReader(script)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	start := time.Now()
	stdout, runErr := cmd.Output()
	s.log.V(1).Info("solver round-trip", "path", s.path, "bytes", len(script), "duration", time.Since(start).String())

	if ctx.Err() != nil {
		return Unknown, nil
	}
	var execErr *exec.Error
	if errors.As(runErr, &execErr) {
		return Unknown, wrapError(SolverError, runErr, "cannot start solver '%s'", s.path)
	}

	exprs, parseErr := readSexprs(string(stdout))
	if len(exprs) == 0 || exprs[0].isList {
		if runErr != nil {
			return Unknown, wrapError(SolverError, runErr, "solver failed: %s", strings.TrimSpace(stderr.String()))
		}
		if parseErr != nil {
			return Unknown, wrapError(SolverError, parseErr, "unreadable solver output")
		}
		return Unknown, errorf(SolverError, "solver produced no result: %s", strings.TrimSpace(string(stdout)))
	}

	switch exprs[0].atom {
	case "sat":
		s.last = Sat
	case "unsat":
		s.last = Unsat
		return Unsat, nil
	case "unknown", "timeout":
		return Unknown, nil
	default:
		return Unknown, errorf(SolverError, "unexpected solver response '%s'", exprs[0].atom)
	}
	if len(exprs) < 2 {
		return Sat, errorf(SolverError, "solver returned sat without a model")
	}
	model, err := parseModel(exprs[1])
	if err != nil {
		return Sat, wrapError(SolverError, err, "unreadable model")
	}
	s.model = s.orderModel(model)
	return Sat, nil
}

// orderModel lists assignments in declaration order; the solver is free to
// print them in any order.
func (s *ProcessSolver) orderModel(model *Model) *Model {
	ordered := &Model{}
	for _, decl := range s.decls.all() {
		if v, ok := model.Lookup(decl.Name); ok {
			ordered.Assignments = append(ordered.Assignments, Assignment{Name: decl.Name, Value: v})
		}
	}
	return ordered
}
