package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yuho/core-go/pkg/ast"
)

func writeProgram(t *testing.T, dir, name string, program *ast.Program) {
	t.Helper()
	data, err := ast.EncodeProgram(program)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func commonModule() *ast.Program {
	return ast.Prog(
		ast.StructDef("Person", ast.FieldDef("name", ast.StringT()), ast.FieldDef("age", ast.IntT())),
		ast.EnumDef("Verdict", "Guilty", "NotGuilty"),
	)
}

func TestCheckCommand(t *testing.T) {
	root := t.TempDir()
	writeProgram(t, root, "common.yh", commonModule())
	writeProgram(t, root, "main.yh", ast.ProgWithImports(
		[]*ast.ImportStatement{ast.Import("common", "Person")},
		ast.Decl("p", ast.Named("Person"), ast.StructLit("Person",
			ast.Init("name", ast.Str("Alice")),
			ast.Init("age", ast.Int(30)),
		)),
	))
	writeProgram(t, root, "broken.yh", ast.Prog(
		ast.LegalTest("theft", ast.Req("value", ast.MoneyT())),
	))
	writeProgram(t, root, "orphan.yh", ast.ProgWithImports(
		[]*ast.ImportStatement{ast.Import("missing", "Thing")},
	))

	code, out, _ := runCLI(t, "check", "--root", root, "main.yh")
	assert.Equal(t, 0, code, out)
	assert.Equal(t, "main.yh: ok\n", out)

	code, out, _ = runCLI(t, "check", "--root", root, "--jobs", "2", "broken.yh", "main.yh", "orphan.yh")
	assert.Equal(t, 1, code)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3, out)
	assert.True(t, strings.HasPrefix(lines[0], "broken.yh: typechecker: "), lines[0])
	assert.Equal(t, "main.yh: ok", lines[1], "results keep entry order")
	assert.Contains(t, lines[2], "orphan.yh: resolver: module 'missing' not found")
}

func TestCheckCommandRunsConflictChecks(t *testing.T) {
	root := t.TempDir()
	writeProgram(t, root, "statutes/a.yh", ast.Prog(ast.EnumDef("Verdict", "Guilty", "NotGuilty")))
	writeProgram(t, root, "statutes/b.yh", ast.Prog(ast.EnumDef("Verdict", "Guilty", "Acquitted")))
	writeProgram(t, root, "statutes/main.yh", ast.Prog(ast.Conflict("a.yh", "b.yh")))

	code, out, _ := runCLI(t, "check", "--root", root, "statutes/main.yh")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "Conflicts between a.yh and b.yh: 1")
	assert.Contains(t, out, "Enum 'Verdict'")
	assert.NotContains(t, out, "ok")

	writeProgram(t, root, "statutes/b.yh", ast.Prog(ast.EnumDef("Verdict", "Guilty", "NotGuilty")))
	code, out, _ = runCLI(t, "check", "--root", root, "statutes/main.yh")
	assert.Equal(t, 0, code, out)
	assert.Equal(t, "statutes/main.yh: ok\n", out)
}

func TestCheckCommandValidatesCitations(t *testing.T) {
	root := t.TempDir()
	writeProgram(t, root, "cited.yh", ast.Prog(ast.ScopeDef("PenalCode",
		ast.StructDef("Charge",
			ast.FieldDef("provision", ast.Citation("0", "1", "PenalCode")),
			ast.FieldDef("evidence", ast.Citation("32", "", "EvidenceAct")),
		),
	)))

	code, out, _ := runCLI(t, "check", "--root", root, "cited.yh")
	assert.Equal(t, 1, code)
	assert.Equal(t, "cited.yh: citation: invalid section '0' of PenalCode in struct Charge.provision\n"+
		"cited.yh: citation: s32 EvidenceAct in struct Charge.evidence cites an act that is not defined\n", out)
}

func TestConflictsCommand(t *testing.T) {
	root := t.TempDir()
	writeProgram(t, root, "a.yh", commonModule())
	writeProgram(t, root, "b.yh", commonModule())

	code, out, _ := runCLI(t, "conflicts", "--root", root, "a.yh", "b.yh")
	assert.Equal(t, 0, code)
	assert.Equal(t, "No conflicts detected between a.yh and b.yh\n", out)

	writeProgram(t, root, "b.yh", ast.Prog(ast.StructDef("Person", ast.FieldDef("name", ast.StringT()))))
	code, out, _ = runCLI(t, "conflicts", "--root", root, "a.yh", "b.yh")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "Conflicts between a.yh and b.yh: 1")
}

func TestResolveCommand(t *testing.T) {
	root := t.TempDir()
	writeProgram(t, root, "common.yh", commonModule())
	writeProgram(t, root, "main.yh", ast.ProgWithImports(
		[]*ast.ImportStatement{ast.Import("common", "Verdict", "Person")},
	))

	code, out, _ := runCLI(t, "resolve", "--root", root, "main.yh")
	require.Equal(t, 0, code, out)
	assert.Equal(t, strings.Join([]string{
		"main: main.yh",
		"modules: 1",
		"  common.yh",
		"symbols: 2",
		"  Person -> common.yh",
		"  Verdict -> common.yh",
		"",
	}, "\n"), out)
}

func TestVerifyCommand(t *testing.T) {
	root := t.TempDir()
	writeProgram(t, root, "rules.yh", ast.Prog(ast.ScopeDef("doctrine",
		ast.Principle("trichotomy", ast.Forall("x", ast.IntT(), ast.Bin(ast.OpOr,
			ast.Bin(ast.OpGte, ast.ID("x"), ast.Int(0)),
			ast.Bin(ast.OpLt, ast.ID("x"), ast.Int(0))))),
		ast.Principle("opaque", ast.Call("eligible", ast.ID("x"))),
	)))
	writeProgram(t, root, "main.yh", ast.ProgWithImports(
		[]*ast.ImportStatement{ast.Import("rules", "doctrine")},
		ast.Decl("age", ast.Bounded(0, 120), ast.Int(30)),
		ast.ExclusiveEnumDef("Verdict", "Guilty", "NotGuilty"),
	))

	code, out, _ := runCLI(t, "verify", "--root", root, "main.yh")
	assert.Equal(t, 0, code, out)
	assert.Contains(t, out, "principle trichotomy: valid\n")
	assert.Contains(t, out, "principle opaque: skipped")
	assert.Contains(t, out, "main.yh: verified\n")

	writeProgram(t, root, "main.yh", ast.Prog(
		ast.Decl("age", ast.Bounded(0, 120), ast.Int(130)),
		ast.Principle("adult", ast.Bin(ast.OpGte, ast.ID("age"), ast.Int(18))),
	))
	code, out, _ = runCLI(t, "verify", "--root", root, "main.yh")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "error: 'age': value 130 violates BoundedInt<0, 120> constraint")
	assert.Contains(t, out, "principle adult: violated\ncounterexample:\n  age = ")
	assert.Contains(t, out, "because:\n  - age >= 18 is false\n")

	code, out, _ = runCLI(t, "verify", "--root", root, "--explain", "main.yh")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "Principle 'adult' states that:\n\n  age >= 18\n")
}

func TestTranslateCommand(t *testing.T) {
	root := t.TempDir()
	writeProgram(t, root, "rules.yh", ast.Prog(
		ast.ScopeDef("penal",
			ast.Principle("all_positive", ast.Forall("x", ast.IntT(), ast.Bin(ast.OpGt, ast.ID("x"), ast.Int(0))))),
	))

	code, out, _ := runCLI(t, "translate", filepath.Join(root, "rules.yh"))
	require.Equal(t, 0, code)
	assert.Equal(t, "; all_positive\n(forall ((x Int)) (> x 0))\n", out)

	code, _, errOut := runCLI(t, "translate", filepath.Join(root, "absent.yh"))
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "error: ")
}

func TestLibraryListWithoutLockfile(t *testing.T) {
	code, out, _ := runCLI(t, "library", "list", "--root", t.TempDir())
	assert.Equal(t, 0, code)
	assert.Equal(t, "no libraries installed\n", out)
}

func TestInvalidConfigIsReported(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "yuho.yml"), []byte("engine: z3\n"), 0o644))
	code, out, errOut := runCLI(t, "resolve", "--root", root, "main.yh")
	assert.Equal(t, 1, code)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "error: ")
	assert.Contains(t, errOut, "field engine not found")
}

func TestWatchDirs(t *testing.T) {
	root := filepath.FromSlash("/project")
	dirs := watchDirs(root, []string{"main.yh", "acts/penal.yh"}, nil)
	assert.Equal(t, []string{root, filepath.Join(root, "acts")}, dirs)
}
