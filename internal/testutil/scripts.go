// Package testutil provides common test fixtures and assertions for bridge
// tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// WriteScript writes a script file under dir and returns its path. Parent
// directories are created as needed.
func WriteScript(t *testing.T, dir, name, source string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	return path
}

// RewriteScript replaces a script file's content and bumps its modification
// timestamp far enough forward that mtime-based cache invalidation cannot
// miss the change on coarse-grained filesystems.
func RewriteScript(t *testing.T, path, source string) {
	t.Helper()

	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))
}

// AssertMapContains asserts that a map contains all expected key-value
// pairs.
func AssertMapContains(t *testing.T, expected, actual map[string]any, msgAndArgs ...any) {
	t.Helper()

	for key, want := range expected {
		got, ok := actual[key]
		assert.True(t, ok, "map should contain key %q", key)
		assert.Equal(t, want, got, msgAndArgs...)
	}
}
