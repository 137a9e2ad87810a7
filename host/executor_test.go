package host

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luahost-dev/luahost/domain/entities"
	scripterrors "github.com/luahost-dev/luahost/domain/errors"
	"github.com/luahost-dev/luahost/internal/testutil"
)

type userContext struct {
	Name     string `json:"name"`
	Attempts int    `json:"attempts"`
	Allowed  bool   `json:"allowed"`
}

func TestNewExecutor_MissingRoot(t *testing.T) {
	_, err := NewExecutor("/does/not/exist")
	assert.Error(t, err)
}

func TestRunIfExists_Success(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteScript(t, dir, "guards/check_user.lua", `
function before(action)
    this.attempts = this.attempts + 1
    this.allowed = this.name ~= "bob"
    return action .. ":checked"
end
`)

	exec, err := NewExecutor(dir)
	require.NoError(t, err)

	user := userContext{Name: "alice", Attempts: 1}
	out := exec.RunIfExists(context.Background(), "guards/check_user", &user, "before", "login")
	require.True(t, out.OK(), "unexpected outcome: %v", out.Err)

	assert.Equal(t, "login:checked", out.Value)
	assert.Equal(t, 2, user.Attempts)
	assert.True(t, user.Allowed)
}

func TestRunIfExists_MissingScriptIsSoft(t *testing.T) {
	exec, err := NewExecutor(t.TempDir())
	require.NoError(t, err)

	out := exec.RunIfExists(context.Background(), "absent", nil, "before")
	assert.True(t, out.Soft())
	assert.Equal(t, entities.OutcomeScriptNotFound, out.Kind)
	assert.NoError(t, out.Err)
	assert.Nil(t, out.Value)
}

func TestRunIfExists_MissingFunctionIsSoft(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteScript(t, dir, "partial.lua", `
function other()
    return 1
end
`)

	exec, err := NewExecutor(dir)
	require.NoError(t, err)

	out := exec.RunIfExists(context.Background(), "partial", nil, "before")
	assert.True(t, out.Soft())
	assert.Equal(t, entities.OutcomeFunctionNotFound, out.Kind)
}

func TestRunIfExists_MalformedScriptFailsTheCall(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteScript(t, dir, "broken.lua", "function oops(\nreturn end\n")

	exec, err := NewExecutor(dir)
	require.NoError(t, err)

	out := exec.RunIfExists(context.Background(), "broken", nil, "before")
	require.False(t, out.OK())
	var ce *scripterrors.CompileError
	assert.True(t, errors.As(out.Err, &ce))
}

func TestRunIfExists_MutationSurvivesFailure(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteScript(t, dir, "guards/check_user.lua", `
function before(action)
    this.attempts = this.attempts + 1
    if this.name == "bob" then
        error("The user " .. this.name .. " has been black-listed!")
    end
    this.allowed = true
end
`)

	exec, err := NewExecutor(dir)
	require.NoError(t, err)

	user := userContext{Name: "bob"}
	out := exec.RunIfExists(context.Background(), "guards/check_user", &user, "before", "login")

	require.False(t, out.OK())
	var rt *scripterrors.RuntimeError
	require.True(t, errors.As(out.Err, &rt))
	assert.True(t, rt.Raised)
	assert.Equal(t, "The user bob has been black-listed!", rt.Message)

	assert.Equal(t, 1, user.Attempts, "mutations made before the failure persist")
	assert.False(t, user.Allowed)
}

func TestRunIfExists_MapContext(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteScript(t, dir, "enrich.lua", `
function before()
    this.stage = "enriched"
end
`)

	exec, err := NewExecutor(dir)
	require.NoError(t, err)

	data := map[string]any{"stage": "raw"}
	out := exec.RunIfExists(context.Background(), "enrich", &data, "before")
	require.True(t, out.OK())
	assert.Equal(t, "enriched", data["stage"])
}

func TestRunRequired_PromotesAbsence(t *testing.T) {
	exec, err := NewExecutor(t.TempDir())
	require.NoError(t, err)

	_, err = exec.RunRequired(context.Background(), "absent", nil, "before")
	var nf *scripterrors.ScriptNotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestRunRequired_ReturnsResult(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteScript(t, dir, "calc.lua", `
function total(a, b)
    return a + b
end
`)

	exec, err := NewExecutor(dir)
	require.NoError(t, err)

	result, err := exec.RunRequired(context.Background(), "calc", nil, "total", 2, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(5), result)
}

func TestRunIfExists_TranslatorConversion(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteScript(t, dir, "guards/check_user.lua", `
function before()
    if this.name == "bob" then
        error("The user bob has been black-listed!")
    end
end
`)

	exec, err := NewExecutor(dir)
	require.NoError(t, err)

	errUnauthorized := errors.New("unauthorized")
	translator := scripterrors.NewTranslator(func(message string, raised any) error {
		return errUnauthorized
	})

	user := userContext{Name: "bob"}
	out := exec.RunIfExists(context.Background(), "guards/check_user", &user, "before")
	require.False(t, out.OK())

	converted := translator.Translate(out.Err)
	assert.ErrorIs(t, converted, errUnauthorized, "script-raised failures map to the host error")
}

func TestRunIfExists_HotReload(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteScript(t, dir, "greet.lua", `
function hello()
    return "v1"
end
`)

	exec, err := NewExecutor(dir)
	require.NoError(t, err)

	out := exec.RunIfExists(context.Background(), "greet", nil, "hello")
	require.True(t, out.OK())
	assert.Equal(t, "v1", out.Value)

	testutil.RewriteScript(t, path, `
function hello()
    return "v2"
end
`)

	out = exec.RunIfExists(context.Background(), "greet", nil, "hello")
	require.True(t, out.OK())
	assert.Equal(t, "v2", out.Value, "edits are picked up without restarting the host")
}

func TestTranslateArgs(t *testing.T) {
	args := translateArgs([]any{"greeting", "de"})
	assert.Equal(t, map[string]any{"key": "greeting", "lang": "de"}, args)

	args = translateArgs([]any{map[string]any{"key": "greeting", "lang": "fr"}})
	assert.Equal(t, map[string]any{"key": "greeting", "lang": "fr"}, args)

	assert.Empty(t, translateArgs(nil))
}
