package entities

// CallFrame carries the arguments of a single invocation across the
// interpreter boundary. A frame is created per call, owned by that call
// alone, and never reused: two concurrent invocations must not observe each
// other's named-argument mapping.
type CallFrame struct {
	// Primary is the call's main subject: the filter's piped value or the
	// hook's mutable context. It is bound under the reserved identifier
	// inside the script.
	Primary any

	// Named maps auxiliary argument names to values. For filter calls each
	// entry is bound both as a field of the vars table and as a standalone
	// top-level variable. Insertion order is irrelevant; keys are unique.
	Named map[string]any

	// Extra holds positional arguments appended to the target function
	// call. Used by hook calls only.
	Extra []any
}

// FilterFrame builds the frame for a filter call: by-value primary plus
// named arguments.
func FilterFrame(primary any, named map[string]any) CallFrame {
	return CallFrame{Primary: primary, Named: named}
}

// HookFrame builds the frame for a hook call: mutable primary plus
// positional extras.
func HookFrame(primary any, extra ...any) CallFrame {
	return CallFrame{Primary: primary, Extra: extra}
}
