package fileurl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "nested", "dir", "identity.yaml")
	assert.False(t, IsExist(dst))

	require.NoError(t, WriteFileAtomic(dst, []byte("username: ada\n"), 0o600))
	assert.True(t, IsExist(dst))
	require.NoError(t, WriteFileAtomic(dst, []byte("username: grace\n"), 0o600))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "username: grace\n", string(data))

	entries, err := os.ReadDir(filepath.Dir(dst))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestCreatePath(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "a", "b", "config.yaml")
	require.NoError(t, CreatePath(dst, 0o755))
	assert.True(t, IsExist(filepath.Dir(dst)))
	assert.False(t, IsExist(dst))
}
