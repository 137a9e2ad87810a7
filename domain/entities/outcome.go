package entities

// OutcomeKind tags the result of a script invocation.
type OutcomeKind string

const (
	// OutcomeSuccess indicates the function ran and returned a value.
	OutcomeSuccess OutcomeKind = "success"

	// OutcomeScriptNotFound indicates the logical name resolved to no file.
	// This is a soft outcome on the if-exists path: callers typically fall
	// back to default behavior.
	OutcomeScriptNotFound OutcomeKind = "script_not_found"

	// OutcomeFunctionNotFound indicates the script exists but does not
	// define the requested function.
	OutcomeFunctionNotFound OutcomeKind = "function_not_found"

	// OutcomeRuntimeFailure indicates the script raised an error or hit an
	// interpreter fault while executing.
	OutcomeRuntimeFailure OutcomeKind = "runtime_failure"
)

// Outcome is the classified result of a single script invocation.
type Outcome struct {
	// Value holds the function's return value, converted to a host value.
	// Only set for OutcomeSuccess.
	Value any

	// Err holds the classified failure for OutcomeRuntimeFailure. It is a
	// *errors.RuntimeError, *errors.CompileError, or
	// *errors.TypeMismatchError from domain/errors.
	Err error

	// Kind tags which variant this outcome is.
	Kind OutcomeKind
}

// OK reports whether the invocation succeeded.
func (o Outcome) OK() bool {
	return o.Kind == OutcomeSuccess
}

// Soft reports whether this is a non-error outcome the caller may treat as
// "use default behavior".
func (o Outcome) Soft() bool {
	return o.Kind == OutcomeScriptNotFound || o.Kind == OutcomeFunctionNotFound
}

// Success wraps a returned value in a success outcome.
func Success(value any) Outcome {
	return Outcome{Kind: OutcomeSuccess, Value: value}
}

// Failure wraps a classified error in a runtime-failure outcome.
func Failure(err error) Outcome {
	return Outcome{Kind: OutcomeRuntimeFailure, Err: err}
}
