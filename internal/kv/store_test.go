package kv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()

	fileStore, err := NewFileStore(filepath.Join(t.TempDir(), "data"), nil)
	require.NoError(t, err)

	sqliteStore, err := NewSQLiteStore(filepath.Join(t.TempDir(), "attendance.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqliteStore.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"file":   fileStore,
		"sqlite": sqliteStore,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := store.Get("attendanceData")
			require.NoError(t, err)
			assert.False(t, ok, "fresh store should not have the key")

			require.NoError(t, store.Set("attendanceData", []byte(`{"Math":{"records":[]}}`)))
			got, ok, err := store.Get("attendanceData")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, `{"Math":{"records":[]}}`, string(got))

			require.NoError(t, store.Set("attendanceData", []byte(`{}`)))
			got, _, err = store.Get("attendanceData")
			require.NoError(t, err)
			assert.Equal(t, `{}`, string(got))

			require.NoError(t, store.Delete("attendanceData"))
			_, ok, err = store.Get("attendanceData")
			require.NoError(t, err)
			assert.False(t, ok)

			// deleting again is fine
			require.NoError(t, store.Delete("attendanceData"))
		})
	}
}

func TestStoreKeysAreIndependent(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Set("attendanceData", []byte(`{"a":1}`)))
			require.NoError(t, store.Set("dailyAttendance", []byte(`{"b":2}`)))
			require.NoError(t, store.Delete("attendanceData"))

			got, ok, err := store.Get("dailyAttendance")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, `{"b":2}`, string(got))
		})
	}
}

func TestFileStoreKeepsBackup(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, nil)
	require.NoError(t, err)

	require.NoError(t, store.Set("dailyAttendance", []byte(`{"v":1}`)))
	require.NoError(t, store.Set("dailyAttendance", []byte(`{"v":2}`)))

	backup, err := os.ReadFile(filepath.Join(dir, "dailyAttendance.json.backup"))
	require.NoError(t, err)
	assert.Equal(t, `{"v":1}`, string(backup))

	_, err = os.Stat(filepath.Join(dir, "dailyAttendance.json.tmp"))
	assert.True(t, os.IsNotExist(err), "tmp file should be renamed away")
}

func TestInvalidKey(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), nil)
	require.NoError(t, err)

	for _, key := range []string{"", "../escape", "a/b", "with space"} {
		_, _, err := store.Get(key)
		assert.ErrorIs(t, err, ErrInvalidKey, "key %q", key)
		assert.ErrorIs(t, store.Set(key, []byte("x")), ErrInvalidKey, "key %q", key)
	}
}
