// Package caterrors defines CatLang's closed error-kind taxonomy and the
// location-carrying error type every pipeline stage reports through.
//
// Grounded on internal/errors/errors.go's SentraError: a typed error with
// an attached SourceLocation and a human-readable rendering. Wrapping of
// underlying causes (a failed os.Open, a malformed chunk footer) goes
// through github.com/pkg/errors so the cause chain keeps a stack trace
// without CatLang inventing its own wrap/unwrap plumbing.
package caterrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is the closed set of error kinds spec.md §7 names.
type Kind string

const (
	LexError         Kind = "LexError"
	ParseError       Kind = "ParseError"
	TypeError        Kind = "TypeError"
	IoError          Kind = "IoError"
	RuntimeError     Kind = "RuntimeError"
	UserPanic        Kind = "UserPanic"
	AssertionFailure Kind = "AssertionFailure"
)

// Location is a 1-based source position used for every diagnostic.
type Location struct {
	File string
	Line int
	Col  int
}

func (l Location) String() string {
	if l.File == "" {
		return fmt.Sprintf("line %d, col %d", l.Line, l.Col)
	}
	return fmt.Sprintf("%s: line %d, col %d", l.File, l.Line, l.Col)
}

// CatError is the single error type produced by every CatLang stage.
type CatError struct {
	Kind    Kind
	Loc     Location
	Message string
	Lexeme  string // offending token text, when applicable
	Hint    string // short static hint catalogue entry, for ParseError
	cause   error
}

func (e *CatError) Error() string {
	if e.Kind == RuntimeError {
		// spec.md §4.7: "Runtime error in <source>: line L, col C: <message>"
		return fmt.Sprintf("Runtime error in %s: line %d, col %d: %s",
			e.Loc.File, e.Loc.Line, e.Loc.Col, e.Message)
	}
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Loc.Line != 0 {
		msg = fmt.Sprintf("%s at %s", msg, e.Loc)
	}
	if e.Hint != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Hint)
	}
	return msg
}

// Unwrap exposes the wrapped cause, if any, to errors.Is/As.
func (e *CatError) Unwrap() error { return e.cause }

// New builds a CatError with no wrapped cause.
func New(kind Kind, loc Location, format string, args ...interface{}) *CatError {
	return &CatError{Kind: kind, Loc: loc, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches kind/location context to an existing error, preserving a
// stack trace via github.com/pkg/errors.
func Wrap(kind Kind, loc Location, cause error, format string, args ...interface{}) *CatError {
	wrapped := errors.WithStack(cause)
	return &CatError{
		Kind:    kind,
		Loc:     loc,
		Message: fmt.Sprintf(format, args...),
		cause:   wrapped,
	}
}

// Runtime formats the §4.7 runtime-error rendering exactly:
// "Runtime error in <source>: line L, col C: <message>".
func Runtime(source string, line, col int, format string, args ...interface{}) *CatError {
	return &CatError{
		Kind:    RuntimeError,
		Loc:     Location{File: source, Line: line, Col: col},
		Message: fmt.Sprintf(format, args...),
	}
}
