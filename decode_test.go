package luahost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type verdict struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason" validate:"required_unless=Allowed true"`
}

func TestDecodeInto(t *testing.T) {
	value := map[string]any{"allowed": false, "reason": "black-listed"}

	var v verdict
	require.NoError(t, DecodeInto(value, &v))
	assert.False(t, v.Allowed)
	assert.Equal(t, "black-listed", v.Reason)
}

func TestDecodeInto_ValidationFailure(t *testing.T) {
	value := map[string]any{"allowed": false}

	var v verdict
	err := DecodeInto(value, &v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestDecodeInto_ShapeMismatch(t *testing.T) {
	var v verdict
	assert.Error(t, DecodeInto("not a table", &v))
}
