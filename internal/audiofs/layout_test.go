// SPDX-License-Identifier: MIT

package audiofs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFilenameShape(t *testing.T) {
	name := filepath.Base(BuildFilename("/tmp/x", "007", "Bob", "m1", "alloy"))
	parts := strings.SplitN(strings.TrimSuffix(name, ".mp3"), "_", 5)
	require.Len(t, parts, 5)
	assert.Equal(t, "007", parts[0])
	assert.Equal(t, "Bob", parts[1])
	assert.Equal(t, "m1", parts[2])
	assert.Equal(t, "alloy", parts[3])
	assert.NotEmpty(t, parts[4])
}

func TestArchiveEmptiesButKeepsActiveDir(t *testing.T) {
	l := NewLayout(t.TempDir())
	active := l.ActiveDir("K")
	require.NoError(t, os.MkdirAll(active, 0o755))
	for _, f := range []string{"001_a.mp3", "002_b.mp3", "003_c.mp3"} {
		require.NoError(t, os.WriteFile(filepath.Join(active, f), []byte("mp3"), 0o644))
	}

	require.NoError(t, l.Archive("K"))

	// Active directory still exists but is empty.
	entries, err := os.ReadDir(active)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// One timestamped inactive dir holds all three files.
	inactive, err := os.ReadDir(filepath.Join(l.root, "inactive"))
	require.NoError(t, err)
	require.Len(t, inactive, 1)
	assert.True(t, strings.HasPrefix(inactive[0].Name(), "K_"))
	moved, err := os.ReadDir(filepath.Join(l.root, "inactive", inactive[0].Name()))
	require.NoError(t, err)
	assert.Len(t, moved, 3)
}

func TestArchiveMissingDirIsNoop(t *testing.T) {
	l := NewLayout(t.TempDir())
	require.NoError(t, l.Archive("nope"))
}

func TestDeleteActiveAndActiveKeys(t *testing.T) {
	l := NewLayout(t.TempDir())
	require.NoError(t, os.MkdirAll(l.ActiveDir("K1"), 0o755))
	require.NoError(t, os.MkdirAll(l.ActiveDir("K2"), 0o755))

	keys, err := l.ActiveKeys()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"K1", "K2"}, keys)

	require.NoError(t, l.DeleteActive("K1"))
	keys, err = l.ActiveKeys()
	require.NoError(t, err)
	assert.Equal(t, []string{"K2"}, keys)
}

func TestWriteFileCreatesDirs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "active", "K", "001_x.mp3")
	require.NoError(t, WriteFile(path, []byte("audio")))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("audio"), data)
}
