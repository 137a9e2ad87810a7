package luavm

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"

	"github.com/luahost-dev/luahost/domain/entities"
	scripterrors "github.com/luahost-dev/luahost/domain/errors"
)

// Module is a compiled script: the shared, immutable function prototype
// plus its source identity. Modules are safe to share by reference across
// concurrent invocations and are replaced wholesale on recompilation.
type Module struct {
	Proto  *lua.FunctionProto
	Source entities.ScriptSource
}

// ModuleCache compiles script files and caches the result keyed by absolute
// path. A cached module is served only while the file's modification
// timestamp still matches; otherwise the file is recompiled and the entry
// swapped atomically. Reads proceed concurrently; recompiles take the write
// lock, and in-flight calls holding the old module keep working against it.
type ModuleCache struct {
	root    string
	ext     string
	mu      sync.RWMutex
	modules map[string]*Module
}

// NewModuleCache creates a cache rooted at the given directory for files
// with the given extension.
func NewModuleCache(root, ext string) *ModuleCache {
	if ext == "" {
		ext = DefaultExtension
	}
	return &ModuleCache{
		root:    root,
		ext:     ext,
		modules: make(map[string]*Module),
	}
}

// Resolve maps a logical name to its compiled module. The logical name is
// the path relative to the root with the extension stripped. Returns
// *errors.ScriptNotFoundError when no file exists, *errors.CompileError
// when the file does not compile.
func (c *ModuleCache) Resolve(logicalName string) (*Module, error) {
	path := filepath.Join(c.root, filepath.FromSlash(logicalName)+c.ext)

	info, err := os.Stat(path)
	if err != nil {
		return nil, &scripterrors.ScriptNotFoundError{LogicalName: logicalName, Path: path}
	}

	c.mu.RLock()
	mod, ok := c.modules[path]
	c.mu.RUnlock()
	if ok && mod.Source.ModTime.Equal(info.ModTime()) {
		return mod, nil
	}

	return c.compileAndStore(path, logicalName)
}

// Compile compiles the file at path, bypassing logical-name resolution.
// Used by the filter registry during its directory walk.
func (c *ModuleCache) Compile(path string) (*Module, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &scripterrors.CompileError{Err: err, Path: path, Message: err.Error()}
	}
	return c.compileAndStore(abs, c.logicalName(abs))
}

func (c *ModuleCache) compileAndStore(path, logicalName string) (*Module, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	info, err := os.Stat(path)
	if err != nil {
		return nil, &scripterrors.ScriptNotFoundError{LogicalName: logicalName, Path: path}
	}

	// Another writer may have recompiled while we waited for the lock.
	if mod, ok := c.modules[path]; ok && mod.Source.ModTime.Equal(info.ModTime()) {
		return mod, nil
	}

	proto, err := compileFile(path)
	if err != nil {
		return nil, err
	}

	mod := &Module{
		Proto: proto,
		Source: entities.ScriptSource{
			LogicalName: logicalName,
			Path:        path,
			ModTime:     info.ModTime(),
		},
	}
	c.modules[path] = mod
	return mod, nil
}

// logicalName derives the caller-facing identity from an absolute path.
func (c *ModuleCache) logicalName(path string) string {
	rel, err := filepath.Rel(c.root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	return filepath.ToSlash(strings.TrimSuffix(rel, c.ext))
}

// compileFile parses and compiles one script file into a shareable
// prototype. Compilation is deterministic for identical source bytes and
// touches no interpreter state.
func compileFile(path string) (*lua.FunctionProto, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &scripterrors.CompileError{Err: err, Path: path, Message: err.Error()}
	}
	defer f.Close()

	chunk, err := parse.Parse(f, path)
	if err != nil {
		ce := &scripterrors.CompileError{Err: err, Path: path, Message: err.Error()}
		if pe, ok := err.(*parse.Error); ok {
			ce.Message = pe.Error()
			ce.Pos = scripterrors.Position{
				Source: pe.Pos.Source,
				Line:   pe.Pos.Line,
				Column: pe.Pos.Column,
			}
		}
		return nil, ce
	}

	proto, err := lua.Compile(chunk, path)
	if err != nil {
		return nil, &scripterrors.CompileError{Err: err, Path: path, Message: err.Error()}
	}
	return proto, nil
}
