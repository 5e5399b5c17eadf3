package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabaseHonoursHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("DICTHUB_HOME", home)

	assert.Equal(t, home, DataDir())
	assert.Equal(t, filepath.Join(home, DatabaseFile), Database())
}

func TestFindConfig(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()

	_, ok := FindConfig(first, second)
	assert.False(t, ok)

	toml := filepath.Join(second, "dicthub.toml")
	require.NoError(t, os.WriteFile(toml, []byte(""), 0o600))
	got, ok := FindConfig(first, second)
	require.True(t, ok)
	assert.Equal(t, toml, got)

	// yaml wins over toml in the same directory, and earlier directories win.
	yaml := filepath.Join(second, "dicthub.yaml")
	require.NoError(t, os.WriteFile(yaml, []byte(""), 0o600))
	got, _ = FindConfig(first, second)
	assert.Equal(t, yaml, got)

	require.NoError(t, os.Mkdir(filepath.Join(first, "dicthub.yml"), 0o700))
	got, _ = FindConfig(first, second)
	assert.Equal(t, yaml, got, "directories are skipped")
}

func TestEnsureDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", DatabaseFile)
	require.NoError(t, EnsureDir(path))

	info, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
