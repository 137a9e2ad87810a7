package entities

import (
	"strings"
	"time"
)

// FunctionDescriptor describes a top-level function found in a compiled
// script module. Descriptors are derived once per module during registration
// and are immutable afterwards.
type FunctionDescriptor struct {
	// Name is the function's global name inside the script.
	Name string

	// ParamCount is the declared parameter count. Variadic parameters are
	// not counted.
	ParamCount int

	// Variadic reports whether the function accepts extra arguments beyond
	// the declared parameters.
	Variadic bool

	// Public reports the function's visibility. Functions whose name starts
	// with an underscore follow the private-by-convention rule and are not
	// exposed to the host.
	Public bool
}

// FilterEligible reports whether the function may be registered as a
// template filter: public visibility and exactly one declared parameter.
func (d FunctionDescriptor) FilterEligible() bool {
	return d.Public && d.ParamCount == 1 && !d.Variadic
}

// IsPublicName reports the visibility derived from a function name.
func IsPublicName(name string) bool {
	return !strings.HasPrefix(name, "_")
}

// ScriptSource identifies a script file known to the module cache.
type ScriptSource struct {
	// LogicalName is the caller-facing identity: the path relative to the
	// script root with the extension stripped.
	LogicalName string

	// Path is the absolute file path.
	Path string

	// ModTime is the file's modification timestamp at compile time. A
	// cached module is served only while this still matches the file.
	ModTime time.Time
}
