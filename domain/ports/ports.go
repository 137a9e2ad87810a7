// Package ports defines interfaces for the collaborators the bridge plugs
// into. The template engine, localization lookup, and host customization
// are consumed only through these abstractions.
package ports

// FilterFunc is the calling convention a registered filter exposes to the
// template engine: a primary (piped) value plus named arguments, returning
// one host value. Filters are pure from the host's point of view; only the
// return value is used.
type FilterFunc func(value any, args map[string]any) (any, error)

// FilterRegistrar is the template engine's filter-registration surface.
// The registry pushes every eligible script function through it at startup.
type FilterRegistrar interface {
	RegisterFilter(name string, fn FilterFunc)
}

// TranslateFunc is an injected localization lookup. It receives the lookup
// arguments (at minimum "key" and "lang") and returns the translated value.
// When supplied, it is exposed to filter scripts as the callable t().
type TranslateFunc func(args map[string]any) (any, error)

// Localizer supplies auxiliary localization values to scripts, exposed as
// a callable returning the value set for a language.
type Localizer interface {
	Load(lang string) (map[string]any, error)
}
