// Package errors provides the failure taxonomy for the scripting bridge.
// All error types support unwrapping via errors.As() and errors.Is().
package errors

import (
	"fmt"
)

// Position locates a failure inside a script source file. Line and Column
// are 1-based; a zero Position means the location is unknown.
type Position struct {
	Source string
	Line   int
	Column int
}

// Known reports whether the position carries location information.
func (p Position) Known() bool {
	return p.Line > 0
}

func (p Position) String() string {
	if !p.Known() {
		return "unknown position"
	}
	if p.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", p.Source, p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d", p.Source, p.Line)
}

// CompileError reports a script that failed to parse or compile. It is
// fatal at filter-registry build time and a recoverable per-call failure
// for hook invocations. Import-path violations (a script reaching outside
// the configured root) are also reported as CompileErrors.
type CompileError struct {
	Err     error
	Path    string
	Message string
	Pos     Position
}

func (e *CompileError) Error() string {
	if e.Pos.Known() {
		return fmt.Sprintf("compile %s: %s (%s)", e.Path, e.Message, e.Pos)
	}
	return fmt.Sprintf("compile %s: %s", e.Path, e.Message)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// ScriptNotFoundError reports a logical name that resolved to no file. On
// the if-exists path this is returned as a soft outcome, not an error; the
// required path promotes it to this error.
type ScriptNotFoundError struct {
	LogicalName string
	Path        string
}

func (e *ScriptNotFoundError) Error() string {
	return fmt.Sprintf("script %q not found (looked at %s)", e.LogicalName, e.Path)
}

// FunctionNotFoundError reports a script that exists but does not define
// the requested function.
type FunctionNotFoundError struct {
	LogicalName string
	Function    string
}

func (e *FunctionNotFoundError) Error() string {
	return fmt.Sprintf("script %q does not define function %q", e.LogicalName, e.Function)
}

// FilterNotFoundError reports a template referencing a filter that was
// never registered. This is a template-authoring bug, distinct from any
// script-level failure.
type FilterNotFoundError struct {
	Name string
}

func (e *FilterNotFoundError) Error() string {
	return fmt.Sprintf("no filter registered under %q", e.Name)
}

// RuntimeError reports a failure while a script was executing. Raised
// distinguishes failures the script signalled explicitly (a controlled
// rejection carrying a message or value) from interpreter faults such as
// calling a nil value or arithmetic on a non-number.
type RuntimeError struct {
	// RaisedValue holds the value passed to error() for explicit raises,
	// converted to a host value. Nil for interpreter faults.
	RaisedValue any

	// Message is the human-readable failure text. For an explicit raise of
	// a string this is exactly the raised string.
	Message string

	// Pos is the failure location when the interpreter reported one.
	Pos Position

	// Raised is true when the script signalled the failure itself.
	Raised bool
}

func (e *RuntimeError) Error() string {
	if e.Pos.Known() {
		return fmt.Sprintf("script runtime failure: %s (%s)", e.Message, e.Pos)
	}
	return fmt.Sprintf("script runtime failure: %s", e.Message)
}

// TypeMismatchError reports a value that could not be represented on the
// other side of the interpreter boundary, in either direction. This is a
// marshalling failure, distinct from a script-thrown error.
type TypeMismatchError struct {
	// Value is the offending value, host- or interpreter-side.
	Value any

	// Direction is "to script" or "to host".
	Direction string

	// Detail names what could not be converted.
	Detail string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("cannot marshal %s: %s", e.Direction, e.Detail)
}
