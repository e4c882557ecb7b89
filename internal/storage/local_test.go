package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/musicjacker/backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDriver(t *testing.T, ttl time.Duration) Driver {
	t.Helper()
	d, err := NewLocalDriver(t.TempDir(), ttl, logger.NewNopLogger())
	require.NoError(t, err)
	return d
}

func TestLocalDriver_SaveExistsDelete(t *testing.T) {
	d := newTestDriver(t, time.Hour)

	path, err := d.Save("session1/track.mp3", []byte("audio"))
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.True(t, d.Exists("session1/track.mp3"))

	require.NoError(t, d.Delete("session1/track.mp3"))
	assert.False(t, d.Exists("session1/track.mp3"))

	// idempotent
	require.NoError(t, d.Delete("session1/track.mp3"))
}

func TestLocalDriver_RejectsTraversal(t *testing.T) {
	d := newTestDriver(t, time.Hour)

	for _, key := range []string{
		"../outside.txt",
		"session/../../outside.txt",
		"",
	} {
		_, err := d.Save(key, []byte("x"))
		assert.ErrorIs(t, err, ErrInvalidKey, "key %q", key)
		assert.False(t, d.Exists(key))
	}

	// keys with dot segments that stay inside the base are normalized
	path, err := d.PathFor("a/../b.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(d.Base(), "b.txt"), path)
}

func TestLocalDriver_Sweep(t *testing.T) {
	d := newTestDriver(t, time.Minute)

	oldPath, err := d.Save("old/file.mp3", []byte("x"))
	require.NoError(t, err)
	_, err = d.Save("fresh/file.mp3", []byte("y"))
	require.NoError(t, err)

	stale := time.Now().Add(-2 * time.Minute)
	require.NoError(t, os.Chtimes(filepath.Dir(oldPath), stale, stale))

	removed, err := d.Sweep()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.False(t, d.Exists("old/file.mp3"))
	assert.True(t, d.Exists("fresh/file.mp3"))
}
