// Package entities provides core domain entities for the scripting bridge.
// These are the types shared between the interpreter adapter and the host
// facing layer. Host-application types (request contexts, view models)
// belong in consuming applications.
package entities
