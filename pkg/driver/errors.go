package driver

import (
	"fmt"
	"strings"
)

// ResolveErrorKind classifies why module resolution stopped.
type ResolveErrorKind string

const (
	FileReadError   ResolveErrorKind = "FileReadError"
	ParseError      ResolveErrorKind = "ParseError"
	CircularImport  ResolveErrorKind = "CircularImport"
	ModuleNotFound  ResolveErrorKind = "ModuleNotFound"
	SymbolNotFound  ResolveErrorKind = "SymbolNotFound"
	AmbiguousImport ResolveErrorKind = "AmbiguousImport"
)

// ResolveError is returned by ModuleResolver.Resolve. Only the fields
// relevant to Kind are populated.
type ResolveError struct {
	Kind     ResolveErrorKind
	Path     string
	Module   string
	Symbol   string
	Cycle    []string
	Searched []string
	Paths    []string
	Err      error
}

func (e *ResolveError) Error() string {
	switch e.Kind {
	case FileReadError:
		return fmt.Sprintf("resolver: failed to read file '%s': %v", e.Path, e.Err)
	case ParseError:
		return fmt.Sprintf("resolver: failed to parse file '%s': %v", e.Path, e.Err)
	case CircularImport:
		return fmt.Sprintf("resolver: circular import detected: %s", strings.Join(e.Cycle, " -> "))
	case ModuleNotFound:
		return fmt.Sprintf("resolver: module '%s' not found (searched: %s)", e.Module, strings.Join(e.Searched, ", "))
	case SymbolNotFound:
		return fmt.Sprintf("resolver: symbol '%s' not found in module '%s'", e.Symbol, e.Module)
	case AmbiguousImport:
		return fmt.Sprintf("resolver: symbol '%s' is imported from more than one module (%s)", e.Symbol, strings.Join(e.Paths, ", "))
	default:
		return fmt.Sprintf("resolver: %s", e.Kind)
	}
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}
