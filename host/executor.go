package host

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/luahost-dev/luahost/domain/entities"
	scripterrors "github.com/luahost-dev/luahost/domain/errors"
	"github.com/luahost-dev/luahost/infrastructure/luavm"
)

// Executor is the per-request gateway for hook scripts. It resolves a
// script by logical name, resolves the target function, binds the mutable
// context under the reserved identifier, invokes, and returns a classified
// outcome. Executors are safe for concurrent use: compiled modules are
// shared read-only and every invocation runs in its own interpreter state.
type Executor struct {
	engine *luavm.Engine
	cache  *luavm.ModuleCache
	logger *slog.Logger
}

// NewExecutor creates an executor over the given script root directory.
func NewExecutor(root string, opts ...Option) (*Executor, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("missing scripts directory %q: %w", root, err)
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Executor{
		engine: cfg.buildEngine(root),
		cache:  luavm.NewModuleCache(root, cfg.extension),
		logger: cfg.logger,
	}, nil
}

// RunIfExists invokes fnName in the named script with data bound as the
// mutable context. A missing script or function is a soft outcome, not an
// error: the host decides whether absence means "use default behavior".
// data must be a pointer (to a struct or a map); mutations the script makes
// to the context are written back through it after the call returns,
// including when the call ultimately fails.
func (e *Executor) RunIfExists(ctx context.Context, logicalName string, data any, fnName string, extra ...any) entities.Outcome {
	mod, err := e.cache.Resolve(logicalName)
	if err != nil {
		if _, ok := err.(*scripterrors.ScriptNotFoundError); ok {
			e.logger.Debug("script not found", slog.String("script", logicalName))
			return entities.Outcome{Kind: entities.OutcomeScriptNotFound}
		}
		// A malformed hook script fails only the call that references it.
		return entities.Failure(err)
	}

	plain, err := contextToPlain(data)
	if err != nil {
		return entities.Failure(err)
	}

	e.logger.Debug("invoke hook",
		slog.String("script", logicalName),
		slog.String("function", fnName))

	result, primary, callErr := e.engine.CallHook(ctx, mod, fnName, entities.HookFrame(plain, extra...))

	if _, ok := callErr.(*scripterrors.FunctionNotFoundError); ok {
		return entities.Outcome{Kind: entities.OutcomeFunctionNotFound}
	}

	// Write mutations back regardless of the call's outcome: a script may
	// mutate state before failing.
	if err := writeContext(data, primary); err != nil && callErr == nil {
		callErr = err
	}

	if callErr != nil {
		e.logger.Debug("hook failed",
			slog.String("script", logicalName),
			slog.String("function", fnName),
			slog.Any("error", callErr))
		return entities.Failure(callErr)
	}
	return entities.Success(result)
}

// RunRequired is RunIfExists with absence promoted to an error: a missing
// script or function is reported instead of returned as a soft outcome.
func (e *Executor) RunRequired(ctx context.Context, logicalName string, data any, fnName string, extra ...any) (any, error) {
	mod, err := e.cache.Resolve(logicalName)
	if err != nil {
		return nil, err
	}

	plain, err := contextToPlain(data)
	if err != nil {
		return nil, err
	}

	result, primary, callErr := e.engine.CallHook(ctx, mod, fnName, entities.HookFrame(plain, extra...))

	if err := writeContext(data, primary); err != nil && callErr == nil {
		callErr = err
	}
	if callErr != nil {
		return nil, callErr
	}
	return result, nil
}

// contextToPlain converts the caller's context value into the plain
// (map/slice/scalar) form the marshaller understands, via a JSON round
// trip. This accepts any JSON-serializable struct or map.
func contextToPlain(data any) (any, error) {
	if data == nil {
		return nil, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, &scripterrors.TypeMismatchError{
			Value:     data,
			Direction: "to script",
			Detail:    err.Error(),
		}
	}
	var plain any
	if err := json.Unmarshal(raw, &plain); err != nil {
		return nil, &scripterrors.TypeMismatchError{
			Value:     data,
			Direction: "to script",
			Detail:    err.Error(),
		}
	}
	return plain, nil
}

// writeContext writes the possibly mutated primary value back through the
// caller's pointer.
func writeContext(data any, primary any) error {
	if data == nil || primary == nil {
		return nil
	}
	raw, err := json.Marshal(primary)
	if err != nil {
		return &scripterrors.TypeMismatchError{
			Value:     primary,
			Direction: "to host",
			Detail:    err.Error(),
		}
	}
	if err := json.Unmarshal(raw, data); err != nil {
		return &scripterrors.TypeMismatchError{
			Value:     primary,
			Direction: "to host",
			Detail:    err.Error(),
		}
	}
	return nil
}
