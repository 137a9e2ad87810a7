// Package host provides the application-facing surface of the scripting
// bridge.
//
// It abstracts the underlying interpreter (gopher-lua), manages the script
// lifecycle (compile, cache, hot reload), and exposes the two call
// protocols: template filters built once at startup, and request-lifecycle
// hooks invoked per call with a mutable context. This package also
// facilitates the registration of host functions, letting scripts securely
// call capabilities the host chooses to expose.
package host
