// Package errors defines benzl's error taxonomy and source-position /
// call-stack reporting, shared by the parser, environment, evaluator and
// built-ins.
package errors

import (
	"fmt"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// Kind names one of the error categories from the language's taxonomy.
type Kind string

const (
	SyntaxError      Kind = "SyntaxError"
	Unbound          Kind = "Unbound"
	AlreadyDeclared  Kind = "AlreadyDeclared"
	TypeError        Kind = "TypeError"
	ArityError       Kind = "ArityError"
	RangeError       Kind = "RangeError"
	DivisionByZero   Kind = "DivisionByZero"
	Overflow         Kind = "Overflow"
	IOError          Kind = "IOError"
	MissingProperty  Kind = "MissingProperty"
	UnknownProperty  Kind = "UnknownProperty"
	CaughtError      Kind = "CaughtError"
)

// Position is a source location, copied onto every Value produced by the
// parser or synthesized by the evaluator.
type Position struct {
	Row    int
	Col    int
	Source string // optional source-file designator
}

func (p Position) String() string {
	file := p.Source
	if file == "" {
		file = "<input>"
	}
	return fmt.Sprintf("%s:%d:%d", file, p.Row, p.Col)
}

// Frame is a single call-stack entry attached to an error at creation time.
type Frame struct {
	Expr string
	Pos  Position
}

// Error is the single error value type threaded through the evaluator.
// Caught is false while the error is propagating uncaught; try rewrites it
// to true when it captures the error for a catch clause. Two Errors with
// equal Message and Trace compare equal regardless of Caught, except that
// Equal is only symmetric when the uncaught side is compared on the left
// (see spec.md §4.1, deep equality).
type Error struct {
	Kind   Kind
	Message string
	Pos    Position
	Trace  []Frame
	Caught bool
	cause  error // wrapped host error, if any (e.g. os.PathError)
}

func New(kind Kind, pos Position, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Pos: pos}
}

// Wrap attaches a host-level error (a file I/O failure, a SQL driver
// error, a websocket dial failure) as the cause of an IOError, keeping the
// original error's chain and stack available via %+v.
func Wrap(kind Kind, pos Position, cause error, context string) *Error {
	wrapped := pkgerrors.Wrap(cause, context)
	return &Error{Kind: kind, Message: wrapped.Error(), Pos: pos, cause: wrapped}
}

func (e *Error) Unwrap() error { return e.cause }

// Push appends a call-stack frame; the evaluator calls this once per
// active frame, in innermost-first order, when an error is first seen
// propagating uncaught, so Trace reads nearest-to-failure first.
func (e *Error) Push(expr string, pos Position) *Error {
	e.Trace = append(e.Trace, Frame{Expr: expr, Pos: pos})
	return e
}

// Catch returns a copy of e marked caught, as produced by a try form.
func (e *Error) Catch() *Error {
	c := *e
	c.Caught = true
	return &c
}

// Equal implements the deep-equality rule for errors: messages and traces
// must match; caught-ness does not matter except that an uncaught error
// may only be compared-equal to a caught one when the uncaught value is
// the left operand (spec.md §4.1).
func (e *Error) Equal(other *Error, leftUncaught bool) bool {
	if e == nil || other == nil {
		return e == other
	}
	if e.Message != other.Message {
		return false
	}
	if len(e.Trace) != len(other.Trace) {
		return false
	}
	for i := range e.Trace {
		if e.Trace[i] != other.Trace[i] {
			return false
		}
	}
	if e.Caught == other.Caught {
		return true
	}
	// one caught, one not: only valid when the uncaught one is on the left
	if !e.Caught {
		return leftUncaught
	}
	return !leftUncaught
}

// Error implements the standard error interface with the §7 user-visible
// format: "<message> at <file>:<row>:<col>" plus an optional trace.
func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)
	sb.WriteString(" at ")
	sb.WriteString(e.Pos.String())
	for _, f := range e.Trace {
		sb.WriteString("\n  at ")
		sb.WriteString(f.Expr)
		sb.WriteString(" ")
		sb.WriteString(f.Pos.String())
	}
	return sb.String()
}
