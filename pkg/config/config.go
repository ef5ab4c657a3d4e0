// Package config loads project settings from yuho.yml, .env and YUHO_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"yuho/core-go/pkg/dates"
)

const (
	FileName    = "yuho.yml"
	EnvFileName = ".env"
	LibraryDir  = "lib"
)

// Solver backends.
const (
	BackendMemory = "memory"
	BackendZ3     = "z3"
)

const DefaultSolverTimeout = 5 * time.Second

// Environment overrides.
const (
	EnvSolver       = "YUHO_SOLVER"
	EnvZ3Path       = "YUHO_Z3_PATH"
	EnvTimeout      = "YUHO_SOLVER_TIMEOUT"
	EnvLogVerbosity = "YUHO_LOG_VERBOSITY"
)

// Config is the resolved project configuration.
type Config struct {
	// Path is empty when no yuho.yml was found.
	Path         string
	Root         string
	SearchPaths  []string
	Solver       SolverConfig
	Dates        DateConfig
	Libraries    []Library
	LogVerbosity int
}

type SolverConfig struct {
	Backend string
	Z3Path  string
	Timeout time.Duration
}

// DateConfig orders the notations accepted in date literals.
type DateConfig struct {
	Default string
	Allowed []string
}

// Library describes one git-hosted statute library. At most one of Rev, Tag
// and Branch pins the checkout; otherwise Version selects a semver tag.
type Library struct {
	Name    string
	Git     string
	Version string
	Tag     string
	Branch  string
	Rev     string
}

// ValidationError aggregates configuration problems.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "config: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("config validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// Default returns the configuration used when root has no yuho.yml.
func Default(root string) *Config {
	return &Config{
		Root:   root,
		Solver: SolverConfig{Backend: BackendMemory, Z3Path: "z3", Timeout: DefaultSolverTimeout},
		Dates:  DateConfig{Default: dates.DefaultFormats[0], Allowed: append([]string(nil), dates.DefaultFormats[1:]...)},
	}
}

// Load reads path (root/yuho.yml when empty), then .env in root, then the
// process environment. A missing yuho.yml yields defaults.
func Load(root, path string) (*Config, error) {
	if root == "" {
		root = "."
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", root, err)
	}
	explicit := path != ""
	if !explicit {
		path = filepath.Join(absRoot, FileName)
	}
	cfg, err := loadFile(absRoot, path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			cfg = Default(absRoot)
		} else {
			return nil, err
		}
	}
	if err := godotenv.Load(filepath.Join(absRoot, EnvFileName)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load %s: %w", EnvFileName, err)
	}
	issues := cfg.applyEnv(os.LookupEnv)
	if err := cfg.validate(issues); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(root, path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	var raw configFile
	if err := decoder.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", path, err)
	}
	cfg, err := raw.toConfig(root)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", abs, err)
	}
	cfg.Path = abs
	return cfg, nil
}

// applyEnv overlays YUHO_* variables, returning problems with their values.
func (c *Config) applyEnv(lookup func(string) (string, bool)) []string {
	var issues []string
	if v, ok := lookup(EnvSolver); ok && v != "" {
		c.Solver.Backend = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := lookup(EnvZ3Path); ok && v != "" {
		c.Solver.Z3Path = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvTimeout); ok && v != "" {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			issues = append(issues, fmt.Sprintf("%s: %v", EnvTimeout, err))
		} else {
			c.Solver.Timeout = d
		}
	}
	if v, ok := lookup(EnvLogVerbosity); ok && v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			issues = append(issues, fmt.Sprintf("%s: %q is not an integer", EnvLogVerbosity, v))
		} else {
			c.LogVerbosity = n
		}
	}
	return issues
}

func (c *Config) validate(issues []string) error {
	errs := ValidationError{Issues: issues}
	switch c.Solver.Backend {
	case BackendMemory:
	case BackendZ3:
		if c.Solver.Z3Path == "" {
			errs.Issues = append(errs.Issues, "solver.z3_path must be provided for the z3 backend")
		}
	default:
		errs.Issues = append(errs.Issues, fmt.Sprintf("solver.backend %q is not one of %s, %s", c.Solver.Backend, BackendMemory, BackendZ3))
	}
	if c.Solver.Timeout < 0 {
		errs.Issues = append(errs.Issues, "solver.timeout must not be negative")
	}
	if c.LogVerbosity < 0 {
		errs.Issues = append(errs.Issues, "log verbosity must not be negative")
	}
	if _, err := c.DateParser(); err != nil {
		errs.Issues = append(errs.Issues, fmt.Sprintf("date_formats: %v", err))
	}
	for i, p := range c.SearchPaths {
		if strings.TrimSpace(p) == "" {
			errs.Issues = append(errs.Issues, fmt.Sprintf("search_paths[%d] must be a non-empty path", i))
		}
	}
	seen := make(map[string]bool, len(c.Libraries))
	for i, lib := range c.Libraries {
		label := fmt.Sprintf("libraries[%d]", i)
		if lib.Name != "" {
			label = "libraries." + lib.Name
		}
		for _, issue := range lib.validate() {
			errs.Issues = append(errs.Issues, label+": "+issue)
		}
		if lib.Name != "" {
			if seen[lib.Name] {
				errs.Issues = append(errs.Issues, fmt.Sprintf("%s: declared more than once", label))
			}
			seen[lib.Name] = true
		}
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

func (l Library) validate() []string {
	var issues []string
	if l.Name == "" {
		issues = append(issues, "name must be provided")
	} else if strings.ContainsAny(l.Name, `/\`) || l.Name == "." || l.Name == ".." {
		issues = append(issues, fmt.Sprintf("name %q must be a single path segment", l.Name))
	}
	if l.Git == "" {
		issues = append(issues, "git must be provided")
	}
	pins := 0
	for _, pin := range []string{l.Rev, l.Tag, l.Branch} {
		if pin != "" {
			pins++
		}
	}
	if pins > 1 {
		issues = append(issues, "only one of rev, tag or branch may be set")
	}
	if l.Version != "" {
		if pins > 0 {
			issues = append(issues, "version cannot be combined with rev, tag or branch")
		}
		if _, err := semver.NewConstraint(l.Version); err != nil {
			issues = append(issues, fmt.Sprintf("version %q: %v", l.Version, err))
		}
	}
	return issues
}

// DateParser builds the parser for the configured notations, default first.
func (c *Config) DateParser() (*dates.Parser, error) {
	var formats []string
	if c.Dates.Default != "" {
		formats = append(formats, c.Dates.Default)
	}
	formats = append(formats, c.Dates.Allowed...)
	return dates.NewParser(formats...)
}

// ModuleSearchPaths lists extra resolver roots: configured search paths
// followed by the install directory of every library.
func (c *Config) ModuleSearchPaths() []string {
	var out []string
	for _, p := range c.SearchPaths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(c.Root, p)
		}
		out = append(out, filepath.Clean(p))
	}
	for _, lib := range c.Libraries {
		out = append(out, c.LibraryPath(lib.Name))
	}
	return out
}

// LibraryPath is where the named library is installed.
func (c *Config) LibraryPath(name string) string {
	return filepath.Join(c.Root, LibraryDir, name)
}

type configFile struct {
	SearchPaths []string      `yaml:"search_paths"`
	Solver      solverFile    `yaml:"solver"`
	DateFormats dateFile      `yaml:"date_formats"`
	Libraries   []libraryFile `yaml:"libraries"`
	Log         logFile       `yaml:"log"`
}

type solverFile struct {
	Backend string `yaml:"backend"`
	Z3Path  string `yaml:"z3_path"`
	Timeout string `yaml:"timeout"`
}

type dateFile struct {
	Default string   `yaml:"default"`
	Allowed []string `yaml:"allowed"`
}

type libraryFile struct {
	Name    string `yaml:"name"`
	Git     string `yaml:"git"`
	Version string `yaml:"version"`
	Tag     string `yaml:"tag"`
	Branch  string `yaml:"branch"`
	Rev     string `yaml:"rev"`
}

type logFile struct {
	Verbosity int `yaml:"verbosity"`
}

func (f configFile) toConfig(root string) (*Config, error) {
	cfg := Default(root)
	cfg.SearchPaths = append(cfg.SearchPaths, f.SearchPaths...)
	if f.Solver.Backend != "" {
		cfg.Solver.Backend = strings.ToLower(strings.TrimSpace(f.Solver.Backend))
	}
	if f.Solver.Z3Path != "" {
		cfg.Solver.Z3Path = strings.TrimSpace(f.Solver.Z3Path)
	}
	if f.Solver.Timeout != "" {
		d, err := time.ParseDuration(strings.TrimSpace(f.Solver.Timeout))
		if err != nil {
			return nil, fmt.Errorf("solver.timeout: %w", err)
		}
		cfg.Solver.Timeout = d
	}
	if f.DateFormats.Default != "" || len(f.DateFormats.Allowed) > 0 {
		cfg.Dates = DateConfig{Default: strings.TrimSpace(f.DateFormats.Default), Allowed: f.DateFormats.Allowed}
	}
	for _, lib := range f.Libraries {
		cfg.Libraries = append(cfg.Libraries, Library{
			Name:    strings.TrimSpace(lib.Name),
			Git:     strings.TrimSpace(lib.Git),
			Version: strings.TrimSpace(lib.Version),
			Tag:     strings.TrimSpace(lib.Tag),
			Branch:  strings.TrimSpace(lib.Branch),
			Rev:     strings.TrimSpace(lib.Rev),
		})
	}
	cfg.LogVerbosity = f.Log.Verbosity
	return cfg, nil
}
