package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePath_RejectsTraversal(t *testing.T) {
	repo := NewFilesystemRepository(t.TempDir())

	cases := []string{
		"",
		"../escape.json",
		"../../etc/passwd",
		"nested/state.json",
	}
	for _, filename := range cases {
		_, err := repo.ResolvePath(filename)
		assert.Error(t, err, "filename %q must be rejected", filename)
	}
}

func TestResolvePath_DirectChild(t *testing.T) {
	root := t.TempDir()
	repo := NewFilesystemRepository(root)

	path, err := repo.ResolvePath(StateFile)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, TicklistDir, StateFile), path)
}

func TestInitialize_CreatesPrivateDir(t *testing.T) {
	root := t.TempDir()
	repo := NewFilesystemRepository(root)

	require.NoError(t, repo.Initialize())
	assert.True(t, repo.IsInitialized())

	info, err := os.Stat(filepath.Join(root, TicklistDir))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
}

func TestWriteState_RoundTrip(t *testing.T) {
	repo := NewFilesystemRepository(t.TempDir())
	require.NoError(t, repo.Initialize())

	require.NoError(t, repo.WriteState([]byte(`{"version":2,"tasks":[]}`)))

	data, err := repo.ReadState()
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":2,"tasks":[]}`, string(data))

	path, _ := repo.ResolvePath(StateFile)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestWriteState_LeavesNoTempFile(t *testing.T) {
	root := t.TempDir()
	repo := NewFilesystemRepository(root)
	require.NoError(t, repo.Initialize())

	require.NoError(t, repo.WriteState([]byte(`{"version":2,"tasks":[]}`)))
	require.NoError(t, repo.WriteState([]byte(`{"version":2,"tasks":[],"last_save_time":"2026-03-10T12:00:00Z"}`)))

	entries, err := os.ReadDir(filepath.Join(root, TicklistDir))
	require.NoError(t, err)
	require.Len(t, entries, 1, "only the state file may remain after a write")
	assert.Equal(t, StateFile, entries[0].Name())

	data, err := repo.ReadState()
	require.NoError(t, err)
	assert.Contains(t, string(data), "last_save_time", "the rename must install the newest document")
}

func TestReadState_MissingFile(t *testing.T) {
	repo := NewFilesystemRepository(t.TempDir())
	require.NoError(t, repo.Initialize())

	_, err := repo.ReadState()
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}
