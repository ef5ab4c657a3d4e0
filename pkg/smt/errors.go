package smt

import "fmt"

// ErrorKind classifies translation and solver failures.
type ErrorKind string

const (
	TranslationError      ErrorKind = "TranslationError"
	UnsupportedType       ErrorKind = "UnsupportedType"
	UnsupportedExpression ErrorKind = "UnsupportedExpression"
	SolverError           ErrorKind = "SolverError"
)

func (k ErrorKind) describe() string {
	switch k {
	case TranslationError:
		return "translation error"
	case UnsupportedType:
		return "unsupported type"
	case UnsupportedExpression:
		return "unsupported expression"
	case SolverError:
		return "solver error"
	default:
		return string(k)
	}
}

// Error is returned by every translator and verification entry point.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("smt: %s: %s", e.Kind.describe(), e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrapError(kind ErrorKind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}
