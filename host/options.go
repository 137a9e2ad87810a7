package host

import (
	"log/slog"

	"github.com/luahost-dev/luahost/domain/ports"
	"github.com/luahost-dev/luahost/infrastructure/luavm"
)

// config holds shared construction settings for the executor and the
// filter registry. Unexported to enforce the functional options pattern.
type config struct {
	logger    *slog.Logger
	setup     func(*luavm.Engine)
	translate ports.TranslateFunc
	localizer ports.Localizer
	extension string
}

func defaultConfig() config {
	return config{
		logger:    slog.Default(),
		extension: luavm.DefaultExtension,
	}
}

// Option configures an Executor or FilterRegistry.
type Option func(*config)

// WithLogger routes bridge diagnostics and script print output through the
// given logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithSetup installs an engine-customization callback. It runs exactly once
// at construction time, before any script is compiled, and is the only
// point at which host-native functions may be registered. The interpreter
// configuration is immutable afterwards.
func WithSetup(setup func(*luavm.Engine)) Option {
	return func(c *config) {
		c.setup = setup
	}
}

// WithTranslator injects a localization lookup, exposed to scripts as the
// callable t(). Scripts may call t("key", "lang") or t{key=..., lang=...}.
func WithTranslator(fn ports.TranslateFunc) Option {
	return func(c *config) {
		c.translate = fn
	}
}

// WithLocalizer injects an auxiliary localization value provider, exposed
// to scripts as the callable locale(lang).
func WithLocalizer(l ports.Localizer) Option {
	return func(c *config) {
		c.localizer = l
	}
}

// WithExtension overrides the recognized script file extension. The default
// is ".lua".
func WithExtension(ext string) Option {
	return func(c *config) {
		if ext != "" {
			c.extension = ext
		}
	}
}

// buildEngine constructs and seals an engine from the collected settings.
// The ordering is fixed: host injections first, then the customization
// callback, then seal.
func (c config) buildEngine(root string) *luavm.Engine {
	engine := luavm.NewEngine(root, luavm.WithEngineLogger(c.logger))

	if c.translate != nil {
		translate := c.translate
		engine.Register("t", func(args []any) (any, error) {
			return translate(translateArgs(args))
		})
	}
	if c.localizer != nil {
		localizer := c.localizer
		engine.Register("locale", func(args []any) (any, error) {
			lang := ""
			if len(args) > 0 {
				if s, ok := args[0].(string); ok {
					lang = s
				}
			}
			values, err := localizer.Load(lang)
			if err != nil {
				return nil, err
			}
			return values, nil
		})
	}

	if c.setup != nil {
		c.setup(engine)
	}
	engine.Seal()
	return engine
}

// translateArgs normalizes the two accepted t() call forms into one
// argument map: t(key, lang) and t{key=..., lang=...}.
func translateArgs(args []any) map[string]any {
	if len(args) == 1 {
		if m, ok := args[0].(map[string]any); ok {
			return m
		}
	}
	m := make(map[string]any, 2)
	if len(args) > 0 {
		m["key"] = args[0]
	}
	if len(args) > 1 {
		m["lang"] = args[1]
	}
	return m
}
