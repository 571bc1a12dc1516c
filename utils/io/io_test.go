package io

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestFileLock(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "dir")

	first := NewFileLock(dir)
	require.NoError(t, first.Lock())
	assert.FileExists(t, first.Path())

	t.Run("second holder fails fast", func(t *testing.T) {
		second := NewFileLock(dir)
		err := second.Lock()
		require.ErrorIs(t, err, ErrLocked)
	})

	require.NoError(t, first.Unlock())

	t.Run("lock can be taken after release", func(t *testing.T) {
		again := NewFileLock(dir)
		require.NoError(t, again.Lock())
		require.NoError(t, again.Unlock())
	})
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "out.json")

	require.NoError(t, WriteFileAtomic(path, []byte("first"), 0644))
	require.NoError(t, WriteFileAtomic(path, []byte("second"), 0644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	// no temporary files are left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "out.json", entries[0].Name())
}

func TestAppendLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.jsonl")

	require.NoError(t, AppendLine(path, []byte(`{"n":1}`), 0644))
	require.NoError(t, AppendLine(path, []byte(`{"n":2}`), 0644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\"n\":1}\n{\"n\":2}\n", string(data))
}

// TestAppendLineRapid checks that any sequence of appended lines reads back in order.
func TestAppendLineRapid(t *testing.T) {
	dir := t.TempDir()
	run := 0

	rapid.Check(t, func(t *rapid.T) {
		run++
		path := filepath.Join(dir, fmt.Sprintf("history-%d.jsonl", run))
		lines := rapid.SliceOf(rapid.StringMatching(`[^\n]*`)).Draw(t, "lines")

		for _, line := range lines {
			require.NoError(t, AppendLine(path, []byte(line), 0644))
		}

		if len(lines) == 0 {
			assert.NoFileExists(t, path)
			return
		}
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, strings.Join(lines, "\n")+"\n", string(data))
	})
}
