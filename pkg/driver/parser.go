package driver

import (
	"encoding/json"
	"errors"

	"yuho/core-go/pkg/ast"
)

// Parser turns the source of one .yh file into a program tree.
type Parser interface {
	ParseProgram(path string, source []byte) (*ast.Program, error)
}

// ParserFunc adapts a function to the Parser interface.
type ParserFunc func(path string, source []byte) (*ast.Program, error)

func (f ParserFunc) ParseProgram(path string, source []byte) (*ast.Program, error) {
	return f(path, source)
}

// JSONParser reads modules stored as serialized program trees, the format
// produced by ast.EncodeProgram.
type JSONParser struct{}

func (JSONParser) ParseProgram(path string, source []byte) (*ast.Program, error) {
	program, err := ast.DecodeProgram(source)
	if err == nil {
		return program, nil
	}
	diag := ParserDiagnostic{Severity: SeverityError, Message: err.Error(), Location: DiagnosticLocation{Path: path}}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		diag.Location = locationAt(path, source, syntaxErr.Offset)
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		diag.Location = locationAt(path, source, typeErr.Offset)
	}
	return nil, &ParserDiagnosticError{Diagnostic: diag}
}
