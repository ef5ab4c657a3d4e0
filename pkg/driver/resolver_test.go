package driver

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"yuho/core-go/pkg/ast"
)

func TestResolverLoadsImportedModules(t *testing.T) {
	root := t.TempDir()
	writeModule(t, filepath.Join(root, "common.yh"), ast.Prog(
		ast.StructDef("Person", ast.FieldDef("name", ast.StringT()), ast.FieldDef("age", ast.IntT())),
		ast.EnumDef("Status", "Active", "Inactive"),
	))
	writeModule(t, filepath.Join(root, "main.yh"), ast.ProgWithImports(
		[]*ast.ImportStatement{ast.Import("common", "Person", "Status")},
		ast.Decl("p", ast.Named("Person"), ast.StructLit("Person",
			ast.Init("name", ast.Str("Alice")),
			ast.Init("age", ast.Int(30)),
		)),
	))

	resolver := NewModuleResolver(root, JSONParser{})
	resolved, err := resolver.Resolve("main.yh")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	commonPath := filepath.Join(root, "common.yh")
	if _, ok := resolved.Modules[commonPath]; !ok {
		t.Fatalf("expected %s to be loaded; modules: %v", commonPath, resolved.ModulePaths())
	}
	if got := resolved.Symbols["Person"]; got != commonPath {
		t.Fatalf("Person resolved to %q, want %q", got, commonPath)
	}
	if program, ok := resolved.SymbolProgram("Status"); !ok || program != resolved.Modules[commonPath] {
		t.Fatalf("SymbolProgram(Status) = %v, %v", program, ok)
	}
	if got := len(resolved.AllPrograms()); got != 2 {
		t.Fatalf("AllPrograms returned %d programs, want 2", got)
	}
	person := resolved.Modules[commonPath].Items[0]
	if origin := resolved.Origins[person]; origin != commonPath {
		t.Fatalf("origin of Person = %q, want %q", origin, commonPath)
	}
}

func TestResolverDetectsTwoFileCycle(t *testing.T) {
	root := t.TempDir()
	writeModule(t, filepath.Join(root, "a.yh"), ast.ProgWithImports(
		[]*ast.ImportStatement{ast.Import("b", "B")},
		ast.StructDef("A", ast.FieldDef("x", ast.IntT())),
	))
	writeModule(t, filepath.Join(root, "b.yh"), ast.ProgWithImports(
		[]*ast.ImportStatement{ast.Import("a", "A")},
		ast.StructDef("B", ast.FieldDef("y", ast.IntT())),
	))

	_, err := NewModuleResolver(root, nil).Resolve("a.yh")
	resolveErr := requireResolveError(t, err, CircularImport)
	if got := strings.Join(resolveErr.Cycle, " -> "); got != "a.yh -> b.yh -> a.yh" {
		t.Fatalf("cycle = %q", got)
	}
	if !strings.Contains(err.Error(), "circular import detected") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestResolverDetectsSelfImport(t *testing.T) {
	root := t.TempDir()
	writeModule(t, filepath.Join(root, "main.yh"), ast.ProgWithImports(
		[]*ast.ImportStatement{ast.Import("main", "Main")},
		ast.StructDef("Main"),
	))
	_, err := NewModuleResolver(root, nil).Resolve("main.yh")
	requireResolveError(t, err, CircularImport)
}

func TestResolverAllowsDiamondImports(t *testing.T) {
	root := t.TempDir()
	writeModule(t, filepath.Join(root, "base.yh"), ast.Prog(ast.EnumDef("Verdict", "Guilty", "NotGuilty")))
	writeModule(t, filepath.Join(root, "left.yh"), ast.ProgWithImports(
		[]*ast.ImportStatement{ast.Import("base", "Verdict")},
		ast.StructDef("Left"),
	))
	writeModule(t, filepath.Join(root, "right.yh"), ast.ProgWithImports(
		[]*ast.ImportStatement{ast.Import("base", "Verdict")},
		ast.StructDef("Right"),
	))
	writeModule(t, filepath.Join(root, "main.yh"), ast.ProgWithImports(
		[]*ast.ImportStatement{ast.Import("left", "Left"), ast.Import("right", "Right")},
	))

	resolved, err := NewModuleResolver(root, nil).Resolve("main.yh")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got := len(resolved.Modules); got != 3 {
		t.Fatalf("expected 3 modules, got %d: %v", got, resolved.ModulePaths())
	}
}

func TestResolverReportsMissingSymbol(t *testing.T) {
	root := t.TempDir()
	writeModule(t, filepath.Join(root, "b.yh"), ast.Prog(ast.StructDef("Present")))
	writeModule(t, filepath.Join(root, "a.yh"), ast.ProgWithImports(
		[]*ast.ImportStatement{ast.Import("b", "Absent")},
	))

	_, err := NewModuleResolver(root, nil).Resolve("a.yh")
	resolveErr := requireResolveError(t, err, SymbolNotFound)
	if resolveErr.Symbol != "Absent" || resolveErr.Module != "b" {
		t.Fatalf("unexpected error fields: %+v", resolveErr)
	}
}

func TestResolverReportsMissingModule(t *testing.T) {
	root := t.TempDir()
	writeModule(t, filepath.Join(root, "a.yh"), ast.ProgWithImports(
		[]*ast.ImportStatement{ast.Import("nowhere", "X")},
	))

	_, err := NewModuleResolver(root, nil).Resolve("a.yh")
	resolveErr := requireResolveError(t, err, ModuleNotFound)
	if len(resolveErr.Searched) != 3 {
		t.Fatalf("expected 3 searched paths, got %v", resolveErr.Searched)
	}
	if resolveErr.Searched[1] != filepath.Join(root, "lib", "nowhere.yh") {
		t.Fatalf("unexpected probe order: %v", resolveErr.Searched)
	}
}

func TestResolverSearchesLibAndNestedPaths(t *testing.T) {
	root := t.TempDir()
	mustMkdir(t, filepath.Join(root, "lib"))
	mustMkdir(t, filepath.Join(root, "common"))
	writeModule(t, filepath.Join(root, "lib", "penal.yh"), ast.Prog(ast.FnDef("sentence", nil, ast.IntT())))
	writeModule(t, filepath.Join(root, "common", "person.yh"), ast.Prog(ast.ScopeDef("people")))
	writeModule(t, filepath.Join(root, "main.yh"), ast.ProgWithImports(
		[]*ast.ImportStatement{ast.Import("penal", "sentence"), ast.Import("common/person", "people")},
	))

	resolved, err := NewModuleResolver(root, nil).Resolve(filepath.Join(root, "main.yh"))
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got := resolved.Symbols["sentence"]; got != filepath.Join(root, "lib", "penal.yh") {
		t.Fatalf("sentence resolved to %q", got)
	}
	if got := resolved.Symbols["people"]; got != filepath.Join(root, "common", "person.yh") {
		t.Fatalf("people resolved to %q", got)
	}
}

func TestResolverRejectsAmbiguousImports(t *testing.T) {
	root := t.TempDir()
	writeModule(t, filepath.Join(root, "one.yh"), ast.Prog(ast.StructDef("Shared")))
	writeModule(t, filepath.Join(root, "two.yh"), ast.Prog(ast.StructDef("Shared")))
	writeModule(t, filepath.Join(root, "main.yh"), ast.ProgWithImports(
		[]*ast.ImportStatement{ast.Import("one", "Shared"), ast.Import("two", "Shared")},
	))

	_, err := NewModuleResolver(root, nil).Resolve("main.yh")
	resolveErr := requireResolveError(t, err, AmbiguousImport)
	if resolveErr.Symbol != "Shared" {
		t.Fatalf("unexpected symbol %q", resolveErr.Symbol)
	}
}

func TestResolverWrapsParseErrors(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "main.yh")
	if err := os.WriteFile(path, []byte("{\n  \"type\": \"Program\",\n  oops\n}"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := NewModuleResolver(root, nil).Resolve("main.yh")
	requireResolveError(t, err, ParseError)
	var diagErr *ParserDiagnosticError
	if !errors.As(err, &diagErr) {
		t.Fatalf("expected parser diagnostic, got %T", errors.Unwrap(err))
	}
	if diagErr.Diagnostic.Location.Line != 3 {
		t.Fatalf("expected line 3, got %+v", diagErr.Diagnostic.Location)
	}
}

func TestResolverRereadsFilesOnEveryCall(t *testing.T) {
	root := t.TempDir()
	main := filepath.Join(root, "main.yh")
	common := filepath.Join(root, "common.yh")
	writeModule(t, common, ast.Prog(ast.StructDef("Person")))
	writeModule(t, main, ast.ProgWithImports(
		[]*ast.ImportStatement{ast.Import("common", "Person")},
		ast.StructDef("First"),
	))
	resolver := NewModuleResolver(root, nil)
	if _, err := resolver.Resolve("main.yh"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	writeModule(t, main, ast.ProgWithImports(
		[]*ast.ImportStatement{ast.Import("common", "Status")},
		ast.StructDef("Second"),
	))
	writeModule(t, common, ast.Prog(ast.EnumDef("Status", "Open", "Closed")))
	resolved, err := resolver.Resolve("main.yh")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if name := resolved.Main.Items[0].(*ast.StructDefinition).Name; name != "Second" {
		t.Fatalf("expected reparsed main, got %s", name)
	}
	if got := resolved.Symbols["Status"]; got != common {
		t.Fatalf("Status resolved to %q, want %q", got, common)
	}

	writeModule(t, common, ast.Prog(ast.StructDef("Person")))
	_, err = resolver.Resolve("main.yh")
	requireResolveError(t, err, SymbolNotFound)
}

func TestResolverParsesSharedModuleOncePerCall(t *testing.T) {
	root := t.TempDir()
	writeModule(t, filepath.Join(root, "common.yh"), ast.Prog(ast.EnumDef("Status", "Open", "Closed")))
	writeModule(t, filepath.Join(root, "a.yh"), ast.ProgWithImports(
		[]*ast.ImportStatement{ast.Import("common", "Status")}, ast.StructDef("A")))
	writeModule(t, filepath.Join(root, "b.yh"), ast.ProgWithImports(
		[]*ast.ImportStatement{ast.Import("common", "Status")}, ast.StructDef("B")))
	writeModule(t, filepath.Join(root, "main.yh"), ast.ProgWithImports(
		[]*ast.ImportStatement{ast.Import("a", "A"), ast.Import("b", "B")}))

	parsed := make(map[string]int)
	parser := ParserFunc(func(path string, source []byte) (*ast.Program, error) {
		parsed[filepath.Base(path)]++
		return JSONParser{}.ParseProgram(path, source)
	})
	resolver := NewModuleResolver(root, parser)
	for round := 1; round <= 2; round++ {
		if _, err := resolver.Resolve("main.yh"); err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if parsed["common.yh"] != round {
			t.Fatalf("round %d: common.yh parsed %d times", round, parsed["common.yh"])
		}
	}
}

func requireResolveError(t *testing.T, err error, kind ResolveErrorKind) *ResolveError {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	var resolveErr *ResolveError
	if !errors.As(err, &resolveErr) {
		t.Fatalf("expected *ResolveError, got %T: %v", err, err)
	}
	if resolveErr.Kind != kind {
		t.Fatalf("expected %s, got %s: %v", kind, resolveErr.Kind, err)
	}
	return resolveErr
}

func writeModule(t *testing.T, path string, program *ast.Program) {
	t.Helper()
	data, err := ast.EncodeProgram(program)
	if err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write file %s: %v", path, err)
	}
}

func mustMkdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
}
