// Package log provides structured logging (slog) for the scripting bridge.
// Records originating from scripts are tagged with their origin so host log
// pipelines can tell script output from host output.
package log

import (
	"context"
	"log/slog"
)

// ScriptHandler implements slog.Handler by delegating to an inner handler,
// tagging every record with the bridge component attribute and filtering by
// a script-specific level.
type ScriptHandler struct {
	inner slog.Handler
	opts  handlerConfig
}

// HandlerOption configures the ScriptHandler.
type HandlerOption func(*handlerConfig)

type handlerConfig struct {
	level     slog.Level
	component string
}

func defaultHandlerConfig() handlerConfig {
	return handlerConfig{
		level:     slog.LevelInfo,
		component: "scripting",
	}
}

// WithLevel sets the minimum log level to report. Records below this level
// are dropped even if the inner handler would accept them.
func WithLevel(level slog.Level) HandlerOption {
	return func(c *handlerConfig) {
		c.level = level
	}
}

// WithComponent overrides the component attribute attached to every record.
func WithComponent(name string) HandlerOption {
	return func(c *handlerConfig) {
		if name != "" {
			c.component = name
		}
	}
}

// NewHandler creates a ScriptHandler delegating to inner.
func NewHandler(inner slog.Handler, opts ...HandlerOption) *ScriptHandler {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &ScriptHandler{inner: inner, opts: cfg}
}

// NewLogger is a convenience wrapper returning a *slog.Logger suitable for
// passing to host.WithLogger.
func NewLogger(inner slog.Handler, opts ...HandlerOption) *slog.Logger {
	return slog.New(NewHandler(inner, opts...))
}

// Enabled reports whether the handler handles records at the given level.
func (h *ScriptHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.opts.level && h.inner.Enabled(ctx, level)
}

// Handle tags the record with the component attribute and forwards it.
func (h *ScriptHandler) Handle(ctx context.Context, record slog.Record) error {
	record.AddAttrs(slog.String("component", h.opts.component))
	return h.inner.Handle(ctx, record)
}

// WithAttrs returns a ScriptHandler whose inner handler includes the given
// attributes.
func (h *ScriptHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ScriptHandler{inner: h.inner.WithAttrs(attrs), opts: h.opts}
}

// WithGroup returns a ScriptHandler whose inner handler opens the given
// group.
func (h *ScriptHandler) WithGroup(name string) slog.Handler {
	return &ScriptHandler{inner: h.inner.WithGroup(name), opts: h.opts}
}
