package luavm

import (
	"context"
	"errors"
	"regexp"
	"strconv"

	lua "github.com/yuin/gopher-lua"

	"github.com/luahost-dev/luahost/domain/entities"
	scripterrors "github.com/luahost-dev/luahost/domain/errors"
)

// CallFilter invokes a module function under the filter convention: the
// primary value is bound by value, the named arguments become both the vars
// table (the single call argument) and standalone globals. Only the return
// value flows back to the host; script-side mutation of the primary value
// is deliberately not propagated.
func (e *Engine) CallFilter(mod *Module, fnName string, frame entities.CallFrame) (any, error) {
	L := e.newState()
	defer L.Close()

	if err := runChunk(L, mod.Proto); err != nil {
		return nil, classifyCallError(err)
	}

	fn, ok := L.GetGlobal(fnName).(*lua.LFunction)
	if !ok {
		return nil, &scripterrors.FunctionNotFoundError{
			LogicalName: mod.Source.LogicalName,
			Function:    fnName,
		}
	}

	vars, err := bindFilterFrame(L, frame)
	if err != nil {
		return nil, err
	}

	L.Push(fn)
	L.Push(vars)
	if err := L.PCall(1, 1, nil); err != nil {
		return nil, classifyCallError(err)
	}

	ret := L.Get(-1)
	L.Pop(1)
	return FromLua(ret)
}

// CallHook invokes a module function under the hook convention: the primary
// value is bound live under the reserved identifier and read back after the
// call, so mutations reach the host even when the call fails. Extra
// arguments are passed positionally. The returned primary is valid whenever
// binding succeeded, regardless of the call's own outcome.
func (e *Engine) CallHook(ctx context.Context, mod *Module, fnName string, frame entities.CallFrame) (result any, primary any, err error) {
	L := e.newState()
	defer L.Close()
	if ctx != nil {
		L.SetContext(ctx)
	}

	if err := runChunk(L, mod.Proto); err != nil {
		return nil, frame.Primary, classifyCallError(err)
	}

	fn, ok := L.GetGlobal(fnName).(*lua.LFunction)
	if !ok {
		return nil, frame.Primary, &scripterrors.FunctionNotFoundError{
			LogicalName: mod.Source.LogicalName,
			Function:    fnName,
		}
	}

	extras, err := bindHookFrame(L, frame)
	if err != nil {
		return nil, frame.Primary, err
	}

	L.Push(fn)
	for _, lv := range extras {
		L.Push(lv)
	}
	callErr := L.PCall(len(extras), 1, nil)

	// Mutations must be observable even when the call failed, so the
	// primary value is read back before the failure is classified.
	primary, readErr := FromLua(L.GetGlobal(PrimaryIdentifier))
	if readErr != nil {
		primary = frame.Primary
	}

	if callErr != nil {
		return nil, primary, classifyCallError(callErr)
	}

	ret := L.Get(-1)
	L.Pop(1)
	result, err = FromLua(ret)
	return result, primary, err
}

// faultRe strips the "source:line: " prefix the interpreter prepends to
// fault messages, recovering the position.
var faultRe = regexp.MustCompile(`^(.+):(\d+):\s*(.*)$`)

// classifyCallError maps an interpreter-level failure onto the domain
// taxonomy. Values raised through error() become RuntimeErrors with Raised
// set; require() escapes become CompileErrors; everything else is an
// interpreter fault.
func classifyCallError(err error) error {
	var apiErr *lua.ApiError
	if !errors.As(err, &apiErr) {
		return &scripterrors.RuntimeError{Message: err.Error()}
	}

	if ud, ok := apiErr.Object.(*lua.LUserData); ok {
		switch tag := ud.Value.(type) {
		case *scriptRaise:
			return raisedError(tag)
		case *pathViolation:
			return &scripterrors.CompileError{
				Path:    tag.module,
				Message: "module " + strconv.Quote(tag.module) + " escapes script root " + tag.root,
			}
		}
	}

	msg := apiErr.Object.String()
	rt := &scripterrors.RuntimeError{Message: msg}
	if m := faultRe.FindStringSubmatch(msg); m != nil {
		if line, err := strconv.Atoi(m[2]); err == nil {
			rt.Pos = scripterrors.Position{Source: m[1], Line: line}
			rt.Message = m[3]
		}
	}
	return rt
}

// raisedError builds the RuntimeError for an explicit error() raise. A
// raised string keeps its exact text as the message; other values are
// converted to a host value and stringified for the message.
func raisedError(tag *scriptRaise) error {
	rt := &scripterrors.RuntimeError{
		Raised: true,
		Pos:    wherePosition(tag.where),
	}
	if s, ok := tag.value.(lua.LString); ok {
		rt.Message = string(s)
		rt.RaisedValue = string(s)
		return rt
	}
	rt.Message = tag.value.String()
	if hv, err := FromLua(tag.value); err == nil {
		rt.RaisedValue = hv
	}
	return rt
}
