package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerSaveFile(t *testing.T) {
	dir := t.TempDir()
	manager, err := NewManager(dir)
	require.NoError(t, err)

	assert.Equal(t, 0, manager.GetDownloadedCount())
	assert.False(t, manager.IsDownloaded("abc.jpg"))

	n, err := manager.SaveFile(bytes.NewReader([]byte("jpeg bytes")), "abc.jpg")
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)

	data, err := os.ReadFile(filepath.Join(dir, "abc.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(data))

	assert.True(t, manager.IsDownloaded("abc.jpg"))
	assert.Equal(t, 1, manager.GetDownloadedCount())
	assert.NoFileExists(t, filepath.Join(dir, "abc.jpg.tmp"))
}

func TestManagerCreatesNestedDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "downloads", "abc")
	manager, err := NewManager(dir)
	require.NoError(t, err)
	assert.DirExists(t, dir)
	assert.Equal(t, dir, manager.GetOutputDir())
}

func TestManagerScansExistingFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old_01.jpg"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old_02.mp4"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "partial.jpg.tmp"), []byte("x"), 0644))

	manager, err := NewManager(dir)
	require.NoError(t, err)

	assert.True(t, manager.IsDownloaded("old_01.jpg"))
	assert.True(t, manager.IsDownloaded("old_02.mp4"))
	assert.False(t, manager.IsDownloaded("partial.jpg.tmp"))
	assert.NoFileExists(t, filepath.Join(dir, "partial.jpg.tmp"))
}

func TestManagerDetectsFilesWrittenLater(t *testing.T) {
	dir := t.TempDir()
	manager, err := NewManager(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "late.jpg"), []byte("x"), 0644))
	assert.True(t, manager.IsDownloaded("late.jpg"))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestManagerSaveFileFailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	manager, err := NewManager(dir)
	require.NoError(t, err)

	_, err = manager.SaveFile(failingReader{}, "broken.mp4")
	require.Error(t, err)

	assert.NoFileExists(t, filepath.Join(dir, "broken.mp4"))
	assert.NoFileExists(t, filepath.Join(dir, "broken.mp4.tmp"))
	assert.False(t, manager.IsDownloaded("broken.mp4"))
}

func TestManagerRejectsPathTraversal(t *testing.T) {
	manager, err := NewManager(t.TempDir())
	require.NoError(t, err)

	_, err = manager.SaveFile(bytes.NewReader(nil), "../escape.jpg")
	assert.Error(t, err)
	_, err = manager.SaveFile(bytes.NewReader(nil), "")
	assert.Error(t, err)
}

func TestManagerConcurrentSaves(t *testing.T) {
	manager, err := NewManager(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := filepath.Base(filepath.Join("x", string(rune('a'+i))+".jpg"))
			_, err := manager.SaveFile(bytes.NewReader([]byte{byte(i)}), name)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, manager.GetDownloadedCount())
}
