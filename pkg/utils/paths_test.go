package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveAndEnsureDBPath_CreatesParent(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "dir", "memorynet.db")

	resolved, err := ResolveAndEnsureDBPath(target)
	require.NoError(t, err)
	assert.Equal(t, target, resolved)

	info, err := os.Stat(filepath.Dir(target))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestResolveAndEnsureDBPath_InMemory(t *testing.T) {
	resolved, err := ResolveAndEnsureDBPath(":memory:")
	require.NoError(t, err)
	assert.Equal(t, ":memory:", resolved)
}

func TestGetDefaultDBPathOnly(t *testing.T) {
	assert.Equal(t, "memorynet.db", filepath.Base(GetDefaultDBPathOnly()))
}
