package luavm_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luahost-dev/luahost/domain/entities"
	scripterrors "github.com/luahost-dev/luahost/domain/errors"
	"github.com/luahost-dev/luahost/infrastructure/luavm"
	"github.com/luahost-dev/luahost/internal/testutil"
)

func TestResolve_LogicalNameToPath(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteScript(t, dir, "guards/check_user.lua", `
function before(action)
    return action
end
`)

	cache := luavm.NewModuleCache(dir, "")
	mod, err := cache.Resolve("guards/check_user")
	require.NoError(t, err)
	assert.Equal(t, "guards/check_user", mod.Source.LogicalName)
	assert.NotNil(t, mod.Proto)
}

func TestResolve_NotFound(t *testing.T) {
	cache := luavm.NewModuleCache(t.TempDir(), "")

	_, err := cache.Resolve("nope")
	var nf *scripterrors.ScriptNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "nope", nf.LogicalName)
}

func TestCompile_SyntaxErrorCarriesPosition(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteScript(t, dir, "broken.lua", "function oops(\nreturn end\n")

	cache := luavm.NewModuleCache(dir, "")
	_, err := cache.Compile(path)

	var ce *scripterrors.CompileError
	require.True(t, errors.As(err, &ce))
	assert.True(t, ce.Pos.Known(), "parse errors carry a source position")
	assert.NotEmpty(t, ce.Message)
}

func TestResolve_CacheHitAndInvalidation(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteScript(t, dir, "greet.lua", `
function greet(vars)
    return "old"
end
`)

	engine, _ := newTestEngine(t, dir)
	cache := luavm.NewModuleCache(dir, "")

	first, err := cache.Resolve("greet")
	require.NoError(t, err)
	again, err := cache.Resolve("greet")
	require.NoError(t, err)
	assert.Same(t, first, again, "unchanged file is served from cache")

	testutil.RewriteScript(t, path, `
function greet(vars)
    return "new"
end
`)

	replaced, err := cache.Resolve("greet")
	require.NoError(t, err)
	assert.NotSame(t, first, replaced, "changed timestamp forces recompilation")

	// An in-flight call holding the old module keeps the old behavior.
	out, err := engine.CallFilter(first, "greet", entities.FilterFrame(nil, nil))
	require.NoError(t, err)
	assert.Equal(t, "old", out)

	out, err = engine.CallFilter(replaced, "greet", entities.FilterFrame(nil, nil))
	require.NoError(t, err)
	assert.Equal(t, "new", out)
}

func TestResolve_ConcurrentReaders(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteScript(t, dir, "shared.lua", `
function id(vars)
    return vars
end
`)

	cache := luavm.NewModuleCache(dir, "")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				mod, err := cache.Resolve("shared")
				if err != nil || mod == nil {
					t.Error("concurrent resolve failed")
					return
				}
			}
		}()
	}
	wg.Wait()
}
