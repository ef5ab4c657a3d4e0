package smt

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const z3Model = `sat
(
  (define-fun y () Real
    (/ 1.0 2.0))
  (define-fun x () Int
    (- 3))
  (define-fun |first name| () String "a""b")
  (define-fun f ((x!0 Int)) Int
    0)
)
`

func TestParseModel(t *testing.T) {
	exprs, err := readSexprs(z3Model)
	require.NoError(t, err)
	require.Len(t, exprs, 2)
	assert.Equal(t, "sat", exprs[0].atom)

	model, err := parseModel(exprs[1])
	require.NoError(t, err)
	require.Len(t, model.Assignments, 3)

	y, _ := model.Lookup("y")
	assert.True(t, y.Equal(RatValue(1, 2)))
	x, _ := model.Lookup("x")
	assert.Equal(t, int64(-3), x.Int)
	s, _ := model.Lookup("first name")
	assert.Equal(t, `a"b`, s.Str)
}

func TestParseModelRejectsBadValues(t *testing.T) {
	exprs, err := readSexprs(`((define-fun x () Int 1.5))`)
	require.NoError(t, err)
	_, err = parseModel(exprs[0])
	assert.Error(t, err)

	_, err = readSexprs(`(unterminated`)
	assert.Error(t, err)
}

func TestProcessSolverScript(t *testing.T) {
	s := NewProcessSolver("")
	x := Var("x", SortInt)
	require.NoError(t, s.Declare("x", SortInt))
	s.Push()
	require.NoError(t, s.Assert(And(Gt(x, IntConst(0)), Var("flag", SortBool))))

	assert.Equal(t, `(set-option :produce-models true)
(set-option :timeout 2000)
(declare-const x Int)
(declare-const flag Bool)
(assert (and (> x 0) flag))
(check-sat)
(get-model)
(exit)
`, s.Script(2*time.Second))

	require.NoError(t, s.Pop())
	assert.NotContains(t, s.Script(0), "flag")
	assert.NotContains(t, s.Script(0), ":timeout")
	assert.Error(t, s.Pop())

	require.Error(t, s.Declare("x", SortReal))
}

// fakeSolver writes a shell script that ignores its input and prints output.
func fakeSolver(t *testing.T, output string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "fake-z3")
	script := "#!/bin/sh\ncat >/dev/null\ncat <<'EOF'\n" + output + "EOF\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestProcessSolverCheck(t *testing.T) {
	ctx := context.Background()
	s := NewProcessSolver(fakeSolver(t, z3Model))
	require.NoError(t, s.Declare("x", SortInt))
	require.NoError(t, s.Declare("y", SortReal))

	result, err := s.Check(ctx)
	require.NoError(t, err)
	assert.Equal(t, Sat, result)
	model, err := s.Model()
	require.NoError(t, err)
	require.Len(t, model.Assignments, 2)
	assert.Equal(t, "x", model.Assignments[0].Name, "assignments follow declaration order")
	assert.Equal(t, "y", model.Assignments[1].Name)

	unsat := NewProcessSolver(fakeSolver(t, "unsat\n(error \"model is not available\")\n"))
	result, err = unsat.Check(ctx)
	require.NoError(t, err)
	assert.Equal(t, Unsat, result)
	_, err = unsat.Model()
	requireKind(t, err, SolverError)
}

func TestProcessSolverMissingExecutable(t *testing.T) {
	s := NewProcessSolver("yuho-no-such-solver")
	assert.False(t, s.Available())
	_, err := s.Check(context.Background())
	requireKind(t, err, SolverError)
	assert.Contains(t, err.Error(), "cannot start solver")
}

func TestVerificationAgainstProcessSolver(t *testing.T) {
	s := NewProcessSolver(DefaultZ3Path)
	if !s.Available() {
		t.Skip("z3 not installed")
	}
	v := NewVerificationContext(s)
	ok, err := v.VerifyBoundedInt(context.Background(), 5, 0, 10)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = v.VerifyLegalTestSatisfiable(context.Background(), []Requirement{{Name: "a", Value: true}, {Name: "a", Value: false}})
	require.NoError(t, err)
	assert.False(t, ok)
}
