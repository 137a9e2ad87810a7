package luavm

import (
	"sort"

	lua "github.com/yuin/gopher-lua"

	"github.com/luahost-dev/luahost/domain/entities"
)

// Inspect enumerates the top-level functions a module defines and derives
// a descriptor for each. Functions declared local never surface as chunk
// globals and are naturally invisible; names shadowing reserved engine
// identifiers are skipped. The result is ordered by name and identical on
// every call for the same module.
func (e *Engine) Inspect(mod *Module) ([]entities.FunctionDescriptor, error) {
	L := e.newState()
	defer L.Close()

	if err := runChunk(L, mod.Proto); err != nil {
		return nil, classifyCallError(err)
	}

	var descs []entities.FunctionDescriptor
	L.G.Global.ForEach(func(k, v lua.LValue) {
		name, ok := k.(lua.LString)
		if !ok {
			return
		}
		if e.Reserved(string(name)) {
			return
		}
		fn, ok := v.(*lua.LFunction)
		if !ok || fn.IsG {
			return
		}
		descs = append(descs, entities.FunctionDescriptor{
			Name:       string(name),
			ParamCount: int(fn.Proto.NumParameters),
			Variadic:   fn.Proto.IsVarArg != 0,
			Public:     entities.IsPublicName(string(name)),
		})
	})

	sort.Slice(descs, func(i, j int) bool { return descs[i].Name < descs[j].Name })
	return descs, nil
}

// runChunk executes a module's top-level code in the given state, defining
// its globals there.
func runChunk(L *lua.LState, proto *lua.FunctionProto) error {
	L.Push(L.NewFunctionFromProto(proto))
	return L.PCall(0, 0, nil)
}
