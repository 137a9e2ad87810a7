// Package luavm adapts the gopher-lua interpreter to the scripting bridge.
// It owns compilation, state construction, value marshalling, and the
// classification of interpreter failures into the domain error taxonomy.
package luavm

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	lua "github.com/yuin/gopher-lua"

	scripterrors "github.com/luahost-dev/luahost/domain/errors"
)

// DefaultExtension is the recognized script file extension.
const DefaultExtension = ".lua"

// PrimaryIdentifier is the reserved name under which a call's primary value
// is bound inside the script.
const PrimaryIdentifier = "this"

// NativeFunc is a host-native function exposed to scripts. Arguments arrive
// as host values; the return value is marshalled back into the script.
type NativeFunc func(args []any) (any, error)

type native struct {
	name string
	fn   NativeFunc
}

// Engine holds the immutable interpreter configuration shared by all
// invocations: the script root, the host-native function table, and the set
// of reserved global identifiers. After Seal it must not be mutated; every
// invocation gets its own lua.LState built from this configuration.
type Engine struct {
	root     string
	logger   *slog.Logger
	natives  []native
	reserved map[string]struct{}
	sealed   bool
}

// EngineOption configures an Engine before it is sealed.
type EngineOption func(*Engine)

// WithEngineLogger routes script print/debug output and engine diagnostics
// through the given logger.
func WithEngineLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates an engine rooted at the given script directory. The
// returned engine is not yet sealed: host functions may still be registered.
func NewEngine(root string, opts ...EngineOption) *Engine {
	e := &Engine{
		root:   root,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Register exposes a host-native function to every script under the given
// name. Registration is only allowed before the engine is sealed.
func (e *Engine) Register(name string, fn NativeFunc) error {
	if e.sealed {
		return fmt.Errorf("engine already sealed, cannot register %q", name)
	}
	e.natives = append(e.natives, native{name: name, fn: fn})
	return nil
}

// Seal freezes the engine configuration and records the reserved global
// identifier set (interpreter builtins plus registered host functions).
// Scripts defining functions under reserved names are ignored by the
// inspector.
func (e *Engine) Seal() {
	if e.sealed {
		return
	}
	e.sealed = true

	L := e.newState()
	defer L.Close()
	e.reserved = make(map[string]struct{})
	L.G.Global.ForEach(func(k, _ lua.LValue) {
		if name, ok := k.(lua.LString); ok {
			e.reserved[string(name)] = struct{}{}
		}
	})
}

// Reserved reports whether a global name belongs to the engine rather than
// to scripts.
func (e *Engine) Reserved(name string) bool {
	_, ok := e.reserved[name]
	return ok
}

// Root returns the script root directory.
func (e *Engine) Root() string {
	return e.root
}

// newState builds a fresh interpreter state from the sealed configuration.
// Each invocation gets its own state, so no execution-time locking is
// needed and no call can observe another call's bindings.
func (e *Engine) newState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	// Safe stdlib subset only. io, os and debug stay closed.
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	lua.OpenPackage(L)

	L.SetGlobal("dofile", lua.LNil)
	L.SetGlobal("loadfile", lua.LNil)

	e.restrictRequire(L)
	e.installRaise(L)
	e.installPrint(L)

	for _, n := range e.natives {
		L.SetGlobal(n.name, L.NewFunction(e.wrapNative(n.name, n.fn)))
	}

	return L
}

// moduleNamePattern matches require() arguments that stay inside the script
// root: dotted identifier paths only, no separators, no parent references.
var moduleNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+(\.[A-Za-z0-9_]+)*$`)

// restrictRequire pins module resolution to the script root and rejects
// module names that could escape it. A violation raises a tagged error the
// classifier reports as a CompileError.
func (e *Engine) restrictRequire(L *lua.LState) {
	pkg := L.GetGlobal("package")
	L.SetField(pkg, "path", lua.LString(filepath.Join(e.root, "?.lua")))
	L.SetField(pkg, "cpath", lua.LString(""))

	orig := L.GetGlobal("require")
	L.SetGlobal("require", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		if !moduleNamePattern.MatchString(name) {
			raiseTagged(L, &pathViolation{module: name, root: e.root})
		}
		L.Push(orig)
		L.Push(lua.LString(name))
		L.Call(1, 1)
		return 1
	}))
}

// installRaise replaces the error() builtin so explicitly raised failures
// are distinguishable from interpreter faults. The raised value keeps its
// exact form; the raise site is recorded separately.
func (e *Engine) installRaise(L *lua.LState) {
	L.SetGlobal("error", L.NewFunction(func(L *lua.LState) int {
		raiseTagged(L, &scriptRaise{value: L.Get(1), where: L.Where(1)})
		return 0
	}))
}

// installPrint routes script print output to the host logger, one line per
// call, arguments joined by tabs. A debug() counterpart logs at Debug.
func (e *Engine) installPrint(L *lua.LState) {
	join := func(L *lua.LState) string {
		parts := make([]string, 0, L.GetTop())
		for i := 1; i <= L.GetTop(); i++ {
			parts = append(parts, L.Get(i).String())
		}
		return strings.Join(parts, "\t")
	}
	L.SetGlobal("print", L.NewFunction(func(L *lua.LState) int {
		e.logger.Info(join(L), slog.String("origin", "script"))
		return 0
	}))
	L.SetGlobal("debug", L.NewFunction(func(L *lua.LState) int {
		e.logger.Debug(join(L), slog.String("origin", "script"))
		return 0
	}))
}

// wrapNative adapts a host NativeFunc to the interpreter calling
// convention, marshalling arguments out and the result back in. A host-side
// error is raised into the script as an explicit failure, so the translator
// treats it like a script-signalled rejection.
func (e *Engine) wrapNative(name string, fn NativeFunc) lua.LGFunction {
	return func(L *lua.LState) int {
		args := make([]any, 0, L.GetTop())
		for i := 1; i <= L.GetTop(); i++ {
			v, err := FromLua(L.Get(i))
			if err != nil {
				L.RaiseError("%s: %v", name, err)
				return 0
			}
			args = append(args, v)
		}

		out, err := fn(args)
		if err != nil {
			raiseTagged(L, &scriptRaise{
				value: lua.LString(err.Error()),
				where: L.Where(1),
			})
			return 0
		}

		lv, err := ToLua(L, out)
		if err != nil {
			L.RaiseError("%s: %v", name, err)
			return 0
		}
		L.Push(lv)
		return 1
	}
}

// scriptRaise tags a value raised via error() so the classifier can tell a
// controlled script rejection from an interpreter fault.
type scriptRaise struct {
	value lua.LValue
	where string
}

// pathViolation tags a require() argument that tried to escape the script
// root.
type pathViolation struct {
	module string
	root   string
}

// raiseTagged raises a userdata-wrapped failure. A __tostring metamethod
// keeps script-side pcall output readable.
func raiseTagged(L *lua.LState, tag any) {
	ud := L.NewUserData()
	ud.Value = tag

	mt := L.NewTable()
	L.SetField(mt, "__tostring", L.NewFunction(func(L *lua.LState) int {
		u := L.CheckUserData(1)
		switch v := u.Value.(type) {
		case *scriptRaise:
			L.Push(lua.LString(v.value.String()))
		case *pathViolation:
			L.Push(lua.LString(fmt.Sprintf("module %q escapes script root", v.module)))
		default:
			L.Push(lua.LString("script error"))
		}
		return 1
	}))
	L.SetMetatable(ud, mt)

	L.Error(ud, 0)
}

// wherePosition parses the "source:line:" strings produced by the
// interpreter into a structured position.
var whereRe = regexp.MustCompile(`^(.*):(\d+):\s*$`)

func wherePosition(where string) scripterrors.Position {
	m := whereRe.FindStringSubmatch(where)
	if m == nil {
		return scripterrors.Position{}
	}
	var line int
	fmt.Sscanf(m[2], "%d", &line)
	return scripterrors.Position{Source: m[1], Line: line}
}
