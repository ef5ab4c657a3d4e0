package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"

	"yuho/core-go/pkg/ast"
	"yuho/core-go/pkg/config"
	"yuho/core-go/pkg/driver"
	"yuho/core-go/pkg/smt"
	"yuho/core-go/pkg/typechecker"
)

// app holds the state shared by every subcommand of one invocation.
type app struct {
	rootDir    string
	configPath string
	verbose    int

	stdout io.Writer
	stderr io.Writer

	cfg *config.Config
	log logr.Logger
}

func (a *app) init() error {
	cfg, err := config.Load(a.rootDir, a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	verbosity := cfg.LogVerbosity
	if a.verbose > verbosity {
		verbosity = a.verbose
	}
	stdr.SetVerbosity(verbosity)
	a.log = stdr.New(log.New(a.stderr, "yuho: ", log.LstdFlags)).WithName("yuho")
	return nil
}

func (a *app) newResolver() *driver.ModuleResolver {
	return driver.NewModuleResolver(a.cfg.Root, driver.JSONParser{},
		driver.WithLogger(a.log.WithName("resolver")),
		driver.WithSearchPaths(a.cfg.ModuleSearchPaths()...),
	)
}

func (a *app) newChecker() (*typechecker.Checker, error) {
	parser, err := a.cfg.DateParser()
	if err != nil {
		return nil, err
	}
	return typechecker.New(
		typechecker.WithDateParser(parser),
		typechecker.WithLogger(a.log.WithName("checker")),
	), nil
}

func (a *app) newSolver() smt.Solver {
	log := a.log.WithName("solver")
	if a.cfg.Solver.Backend == config.BackendZ3 {
		return smt.NewProcessSolver(a.cfg.Solver.Z3Path, smt.WithProcessLogger(log))
	}
	return smt.NewMemorySolver(smt.WithMemoryLogger(log))
}

func (a *app) newVerifier() (*smt.VerificationContext, error) {
	parser, err := a.cfg.DateParser()
	if err != nil {
		return nil, err
	}
	return smt.NewVerificationContext(a.newSolver(),
		smt.WithTimeout(a.cfg.Solver.Timeout),
		smt.WithLogger(a.log.WithName("verify")),
		smt.WithDateParser(parser),
	), nil
}

// loadProgram parses one file outside any import graph.
func (a *app) loadProgram(path string) (*ast.Program, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	program, err := driver.JSONParser{}.ParseProgram(path, source)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return program, nil
}

// principles lists principle definitions in source order, descending into scopes.
func principles(items []ast.Item) []*ast.PrincipleDefinition {
	var out []*ast.PrincipleDefinition
	for _, item := range items {
		switch it := item.(type) {
		case *ast.PrincipleDefinition:
			out = append(out, it)
		case *ast.Scope:
			out = append(out, principles(it.Items)...)
		}
	}
	return out
}
