package host

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/luahost-dev/luahost/domain/entities"
	scripterrors "github.com/luahost-dev/luahost/domain/errors"
	"github.com/luahost-dev/luahost/domain/ports"
	"github.com/luahost-dev/luahost/infrastructure/luavm"
)

// filterEntry binds a registered filter name to its owning module and
// function. Entries are immutable after the registry is built.
type filterEntry struct {
	module *luavm.Module
	fnName string
}

// FilterRegistry holds the filters extracted from a script directory. It is
// built once at startup and immutable afterwards; lookups and invocations
// are safe for concurrent use.
type FilterRegistry struct {
	engine  *luavm.Engine
	entries map[string]filterEntry
	logger  *slog.Logger
}

// BuildFilters walks the given directory and registers one filter per
// eligible function (public, exactly one declared parameter) found in the
// script files directly inside it. Sub-directories and files with a foreign
// extension are skipped. Any compile failure aborts the build: a malformed
// filter script must not let the system boot into a half-functional state.
//
// Files are processed in lexical order; when two files define filters with
// the same name, the later-loaded one wins deterministically.
func BuildFilters(dir string, opts ...Option) (*FilterRegistry, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("missing filter scripts directory %q: %w", dir, err)
	}

	engine := cfg.buildEngine(dir)
	cache := luavm.NewModuleCache(dir, cfg.extension)

	reg := &FilterRegistry{
		engine:  engine,
		entries: make(map[string]filterEntry),
		logger:  cfg.logger,
	}

	// os.ReadDir sorts by filename, which fixes the traversal order and
	// therefore the collision winner.
	for _, entry := range dirEntries {
		if entry.IsDir() {
			cfg.logger.Debug("skip dir", slog.String("name", entry.Name()))
			continue
		}
		if !strings.HasSuffix(entry.Name(), cfg.extension) {
			cfg.logger.Debug("skip non-script file", slog.String("name", entry.Name()))
			continue
		}

		mod, err := cache.Compile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("filter registration aborted: %w", err)
		}

		descs, err := engine.Inspect(mod)
		if err != nil {
			return nil, fmt.Errorf("filter registration aborted: %w", err)
		}

		for _, desc := range descs {
			if !desc.FilterEligible() {
				continue
			}
			reg.entries[desc.Name] = filterEntry{module: mod, fnName: desc.Name}
			cfg.logger.Info("register filter",
				slog.String("filter", desc.Name),
				slog.String("file", entry.Name()))
		}
	}

	return reg, nil
}

// Invoke runs the named filter with a primary value and named arguments and
// returns the transformed value. An unregistered name fails with
// *errors.FilterNotFoundError, distinct from any script-level failure.
func (r *FilterRegistry) Invoke(name string, value any, args map[string]any) (any, error) {
	entry, ok := r.entries[name]
	if !ok {
		return nil, &scripterrors.FilterNotFoundError{Name: name}
	}
	return r.engine.CallFilter(entry.module, entry.fnName, entities.FilterFrame(value, args))
}

// Names returns the registered filter names in sorted order.
func (r *FilterRegistry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether a filter is registered under the given name.
func (r *FilterRegistry) Has(name string) bool {
	_, ok := r.entries[name]
	return ok
}

// Install pushes every registered filter through the template engine's
// registration interface.
func (r *FilterRegistry) Install(registrar ports.FilterRegistrar) {
	for name := range r.entries {
		name := name
		registrar.RegisterFilter(name, func(value any, args map[string]any) (any, error) {
			return r.Invoke(name, value, args)
		})
	}
}

// FuncMap adapts the registry to text/template pipelines. Each filter
// becomes a function taking the piped value plus alternating key/value
// pairs for named arguments, so filters compose: the output of one feeds
// the next as primary value.
//
//	{{ .Stylesheets | count_css "strict" true }}
//
// Note that template pipelines pass the piped value as the LAST argument,
// so the adapter takes named-argument pairs first.
func (r *FilterRegistry) FuncMap() template.FuncMap {
	fm := make(template.FuncMap, len(r.entries))
	for name := range r.entries {
		name := name
		fm[name] = func(pairs ...any) (any, error) {
			if len(pairs) == 0 {
				return nil, fmt.Errorf("filter %s: missing piped value", name)
			}
			value := pairs[len(pairs)-1]
			pairs = pairs[:len(pairs)-1]
			if len(pairs)%2 != 0 {
				return nil, fmt.Errorf("filter %s: named arguments must come in key/value pairs", name)
			}
			args := make(map[string]any, len(pairs)/2)
			for i := 0; i < len(pairs); i += 2 {
				key, ok := pairs[i].(string)
				if !ok {
					return nil, fmt.Errorf("filter %s: argument name must be a string, got %T", name, pairs[i])
				}
				args[key] = pairs[i+1]
			}
			return r.Invoke(name, value, args)
		}
	}
	return fm
}
