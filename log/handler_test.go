package log

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_TagsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(slog.NewTextHandler(&buf, nil))

	logger.Info("filter registered", slog.String("filter", "shout"))

	out := buf.String()
	assert.Contains(t, out, "component=scripting")
	assert.Contains(t, out, "filter=shout")
}

func TestHandler_ComponentOverride(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(slog.NewTextHandler(&buf, nil), WithComponent("hooks"))

	logger.Info("hello")
	assert.Contains(t, buf.String(), "component=hooks")
}

func TestHandler_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	inner := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := NewLogger(inner, WithLevel(slog.LevelWarn))

	logger.Debug("dropped")
	logger.Info("dropped too")
	assert.Empty(t, buf.String())

	logger.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(slog.NewTextHandler(&buf, nil))

	logger.With(slog.String("script", "guards/check_user")).
		WithGroup("call").
		Info("invoked", slog.String("function", "before"))

	out := buf.String()
	require.NotEmpty(t, out)
	assert.Contains(t, out, "script=guards/check_user")
	assert.Contains(t, out, "call.function=before")
}
