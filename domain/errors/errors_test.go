package errors

import (
	stdErrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPosition(t *testing.T) {
	assert.False(t, Position{}.Known())
	assert.Equal(t, "unknown position", Position{}.String())

	p := Position{Source: "check.lua", Line: 7}
	assert.True(t, p.Known())
	assert.Equal(t, "check.lua:7", p.String())

	p.Column = 3
	assert.Equal(t, "check.lua:7:3", p.String())
}

func TestCompileError(t *testing.T) {
	inner := stdErrors.New("unexpected symbol")
	err := &CompileError{
		Err:     inner,
		Path:    "/scripts/broken.lua",
		Message: "unexpected symbol near ')'",
		Pos:     Position{Source: "broken.lua", Line: 2},
	}
	assert.Contains(t, err.Error(), "broken.lua:2")
	assert.ErrorIs(t, err, inner)
}

func TestRuntimeError(t *testing.T) {
	err := &RuntimeError{Message: "boom", Raised: true}
	assert.Equal(t, "script runtime failure: boom", err.Error())

	err.Pos = Position{Source: "hook.lua", Line: 4}
	assert.Contains(t, err.Error(), "hook.lua:4")
}

func TestNotFoundErrors(t *testing.T) {
	assert.Contains(t, (&ScriptNotFoundError{LogicalName: "guards/check", Path: "/x"}).Error(), "guards/check")
	assert.Contains(t, (&FunctionNotFoundError{LogicalName: "guards/check", Function: "before"}).Error(), "before")
	assert.Contains(t, (&FilterNotFoundError{Name: "shout"}).Error(), "shout")
}

func TestTranslate_RaisedGoesThroughConverter(t *testing.T) {
	hostErr := stdErrors.New("unauthorized")
	tr := NewTranslator(func(message string, raised any) error {
		assert.Equal(t, "blocked", message)
		return hostErr
	})

	got := tr.Translate(&RuntimeError{Message: "blocked", Raised: true})
	assert.ErrorIs(t, got, hostErr)
}

func TestTranslate_FaultBecomesInternal(t *testing.T) {
	tr := NewTranslator(func(message string, raised any) error {
		t.Fatal("converter must not see interpreter faults")
		return nil
	})

	fault := &RuntimeError{Message: "attempt to index a nil value"}
	got := tr.Translate(fault)

	var internal *InternalError
	assert.True(t, stdErrors.As(got, &internal))
	assert.ErrorIs(t, got, fault)
}

func TestTranslate_FaultConversionOptIn(t *testing.T) {
	hostErr := stdErrors.New("mapped")
	tr := NewTranslator(func(message string, raised any) error {
		return hostErr
	}, WithFaultConversion())

	got := tr.Translate(&RuntimeError{Message: "fault"})
	assert.ErrorIs(t, got, hostErr)
}

func TestTranslate_NilAndForeignErrors(t *testing.T) {
	tr := NewTranslator(func(message string, raised any) error { return nil })

	assert.NoError(t, tr.Translate(nil))

	foreign := &CompileError{Path: "x.lua", Message: "bad"}
	var internal *InternalError
	assert.True(t, stdErrors.As(tr.Translate(foreign), &internal))
}
