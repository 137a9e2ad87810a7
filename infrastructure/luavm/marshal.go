package luavm

import (
	"fmt"
	"math"
	"reflect"

	lua "github.com/yuin/gopher-lua"

	"github.com/luahost-dev/luahost/domain/entities"
	scripterrors "github.com/luahost-dev/luahost/domain/errors"
)

// ToLua converts a host value into an interpreter value. Supported inputs
// are nil, booleans, integers, floats, strings, sequences, and string-keyed
// maps, recursively. Anything else fails with a TypeMismatchError.
func ToLua(L *lua.LState, v any) (lua.LValue, error) {
	switch val := v.(type) {
	case nil:
		return lua.LNil, nil
	case bool:
		return lua.LBool(val), nil
	case int:
		return lua.LNumber(val), nil
	case int8:
		return lua.LNumber(val), nil
	case int16:
		return lua.LNumber(val), nil
	case int32:
		return lua.LNumber(val), nil
	case int64:
		return lua.LNumber(val), nil
	case uint:
		return lua.LNumber(val), nil
	case uint8:
		return lua.LNumber(val), nil
	case uint16:
		return lua.LNumber(val), nil
	case uint32:
		return lua.LNumber(val), nil
	case uint64:
		return lua.LNumber(val), nil
	case float32:
		return lua.LNumber(val), nil
	case float64:
		return lua.LNumber(val), nil
	case string:
		return lua.LString(val), nil
	case []any:
		tbl := L.NewTable()
		for _, item := range val {
			lv, err := ToLua(L, item)
			if err != nil {
				return nil, err
			}
			tbl.Append(lv)
		}
		return tbl, nil
	case map[string]any:
		tbl := L.NewTable()
		for k, item := range val {
			lv, err := ToLua(L, item)
			if err != nil {
				return nil, err
			}
			L.SetField(tbl, k, lv)
		}
		return tbl, nil
	}

	// Typed slices and string-keyed maps outside the plain any forms.
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		tbl := L.NewTable()
		for i := 0; i < rv.Len(); i++ {
			lv, err := ToLua(L, rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			tbl.Append(lv)
		}
		return tbl, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, &scripterrors.TypeMismatchError{
				Value:     v,
				Direction: "to script",
				Detail:    fmt.Sprintf("map key type %s is not a string", rv.Type().Key()),
			}
		}
		tbl := L.NewTable()
		iter := rv.MapRange()
		for iter.Next() {
			lv, err := ToLua(L, iter.Value().Interface())
			if err != nil {
				return nil, err
			}
			L.SetField(tbl, iter.Key().String(), lv)
		}
		return tbl, nil
	}

	return nil, &scripterrors.TypeMismatchError{
		Value:     v,
		Direction: "to script",
		Detail:    fmt.Sprintf("unsupported host type %T", v),
	}
}

// FromLua converts an interpreter value into a host value. Tables become
// either a sequence (consecutive integer keys from 1) or a string-keyed
// map; functions, userdata, channels, and mixed-key tables fail with a
// TypeMismatchError. Integral numbers come back as int64, everything else
// as float64.
func FromLua(lv lua.LValue) (any, error) {
	return fromLua(lv, make(map[*lua.LTable]bool))
}

func fromLua(lv lua.LValue, seen map[*lua.LTable]bool) (any, error) {
	switch val := lv.(type) {
	case *lua.LNilType:
		return nil, nil
	case lua.LBool:
		return bool(val), nil
	case lua.LNumber:
		f := float64(val)
		if f == math.Trunc(f) && f >= math.MinInt64 && f <= math.MaxInt64 {
			return int64(f), nil
		}
		return f, nil
	case lua.LString:
		return string(val), nil
	case *lua.LTable:
		if seen[val] {
			return nil, &scripterrors.TypeMismatchError{
				Value:     lv,
				Direction: "to host",
				Detail:    "cyclic table",
			}
		}
		seen[val] = true
		defer delete(seen, val)
		return tableToHost(val, seen)
	}

	return nil, &scripterrors.TypeMismatchError{
		Value:     lv,
		Direction: "to host",
		Detail:    fmt.Sprintf("unsupported script value of type %s", lv.Type()),
	}
}

func tableToHost(tbl *lua.LTable, seen map[*lua.LTable]bool) (any, error) {
	strKeys := make(map[string]lua.LValue)
	intKeys := make(map[int]lua.LValue)
	maxIdx := 0

	var convErr error
	tbl.ForEach(func(k, v lua.LValue) {
		if convErr != nil {
			return
		}
		switch key := k.(type) {
		case lua.LString:
			strKeys[string(key)] = v
		case lua.LNumber:
			f := float64(key)
			if f == math.Trunc(f) && f >= 1 {
				idx := int(f)
				intKeys[idx] = v
				if idx > maxIdx {
					maxIdx = idx
				}
				return
			}
			convErr = &scripterrors.TypeMismatchError{
				Value:     k,
				Direction: "to host",
				Detail:    fmt.Sprintf("non-integer table key %v", key),
			}
		default:
			convErr = &scripterrors.TypeMismatchError{
				Value:     k,
				Direction: "to host",
				Detail:    fmt.Sprintf("table key of type %s", k.Type()),
			}
		}
	})
	if convErr != nil {
		return nil, convErr
	}

	// Pure sequence: consecutive integer keys starting at 1.
	if len(strKeys) == 0 && maxIdx == len(intKeys) && maxIdx > 0 {
		seq := make([]any, maxIdx)
		for i := 1; i <= maxIdx; i++ {
			hv, err := fromLua(intKeys[i], seen)
			if err != nil {
				return nil, err
			}
			seq[i-1] = hv
		}
		return seq, nil
	}

	if len(intKeys) > 0 && len(strKeys) > 0 {
		return nil, &scripterrors.TypeMismatchError{
			Value:     tbl,
			Direction: "to host",
			Detail:    "table mixes sequence and string keys",
		}
	}
	if len(intKeys) > 0 {
		return nil, &scripterrors.TypeMismatchError{
			Value:     tbl,
			Direction: "to host",
			Detail:    "sparse sequence table",
		}
	}

	m := make(map[string]any, len(strKeys))
	for k, v := range strKeys {
		hv, err := fromLua(v, seen)
		if err != nil {
			return nil, err
		}
		m[k] = hv
	}
	return m, nil
}

// bindFilterFrame installs a filter call's bindings into the state: the
// primary value under the reserved identifier (by value), every named
// argument as a standalone global, and the vars table holding all named
// arguments, which is the single argument passed to the filter function.
// Named arguments are bound after the reserved identifier; a named argument
// keyed like the reserved identifier shadows it.
func bindFilterFrame(L *lua.LState, frame entities.CallFrame) (*lua.LTable, error) {
	primary, err := ToLua(L, frame.Primary)
	if err != nil {
		return nil, err
	}
	L.SetGlobal(PrimaryIdentifier, primary)

	vars := L.NewTable()
	for k, v := range frame.Named {
		lv, err := ToLua(L, v)
		if err != nil {
			return nil, err
		}
		L.SetField(vars, k, lv)
		L.SetGlobal(k, lv)
	}
	return vars, nil
}

// bindHookFrame installs a hook call's bindings: the primary value under
// the reserved identifier as a live table the script may mutate, and the
// extra arguments marshalled for positional passing. The reserved global is
// read back after the call so mutations (including wholesale reassignment)
// reach the host.
func bindHookFrame(L *lua.LState, frame entities.CallFrame) ([]lua.LValue, error) {
	primary, err := ToLua(L, frame.Primary)
	if err != nil {
		return nil, err
	}
	L.SetGlobal(PrimaryIdentifier, primary)

	extras := make([]lua.LValue, 0, len(frame.Extra))
	for _, v := range frame.Extra {
		lv, err := ToLua(L, v)
		if err != nil {
			return nil, err
		}
		extras = append(extras, lv)
	}
	return extras, nil
}
