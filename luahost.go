// Package luahost bridges hot-reloadable Lua scripts into a Go host
// application at two extension points: template-rendering filters and
// request-lifecycle hooks.
//
// Filters are pure value transformations registered once at startup from a
// script directory (see host.BuildFilters). Hooks are per-request business
// logic overrides invoked by logical name with a mutable context (see
// host.NewExecutor). This package holds the value helpers hosts use to
// consume script results.
package luahost

// Value represents a host-side value that crossed the interpreter
// boundary: nil, bool, int64, float64, string, []any, or map[string]any,
// recursively.
type Value = any

// Map is the host-side form of a script table with string keys.
type Map = map[string]any

// GetString safely extracts a string from a script-produced map.
// Returns the value and true if present and a string.
func GetString(m Map, key string) (string, bool) {
	v, ok := m[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetInt safely extracts an int from a script-produced map. Handles int,
// int64, and float64 (script numbers and JSON numbers both appear here).
func GetInt(m Map, key string) (int, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// GetFloat safely extracts a float64 from a script-produced map.
func GetFloat(m Map, key string) (float64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// GetBool safely extracts a bool from a script-produced map.
func GetBool(m Map, key string) (bool, bool) {
	v, ok := m[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// GetMap safely extracts a nested map from a script-produced map.
func GetMap(m Map, key string) (Map, bool) {
	v, ok := m[key]
	if !ok {
		return nil, false
	}
	nested, ok := v.(map[string]any)
	return nested, ok
}

// GetSlice safely extracts a sequence from a script-produced map.
func GetSlice(m Map, key string) ([]any, bool) {
	v, ok := m[key]
	if !ok {
		return nil, false
	}
	s, ok := v.([]any)
	return s, ok
}
