package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRotatingWriterAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")

	w, err := NewRotatingWriter(path, 1024, 2)
	require.NoError(t, err)

	_, err = w.Write([]byte("first\n"))
	require.NoError(t, err)
	_, err = w.Write([]byte("second\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(data))
}

func TestRotatingWriterRotates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")

	// Each line is 10 bytes; cap at 25 so the third write forces a rotation.
	w, err := NewRotatingWriter(path, 25, 2)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	line := strings.Repeat("x", 9) + "\n"
	for i := 0; i < 3; i++ {
		_, err = w.Write([]byte(line))
		require.NoError(t, err)
	}

	// Current file holds only the post-rotation line.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, line, string(data))

	// The first two lines moved to the newest backup.
	backup, err := os.ReadFile(path + ".1")
	require.NoError(t, err)
	assert.Equal(t, line+line, string(backup))
}

func TestRotatingWriterDropsOldestBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")

	w, err := NewRotatingWriter(path, 5, 1)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	for _, s := range []string{"aaaa\n", "bbbb\n", "cccc\n"} {
		_, err = w.Write([]byte(s))
		require.NoError(t, err)
	}

	// Only one backup is kept; the oldest content is gone.
	backup, err := os.ReadFile(path + ".1")
	require.NoError(t, err)
	assert.Equal(t, "bbbb\n", string(backup))

	_, err = os.Stat(path + ".2")
	assert.True(t, os.IsNotExist(err))
}

func TestRotatingWriterResumesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	require.NoError(t, os.WriteFile(path, []byte("existing\n"), 0600))

	w, err := NewRotatingWriter(path, 1024, 2)
	require.NoError(t, err)

	_, err = w.Write([]byte("appended\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "existing\nappended\n", string(data))
}
