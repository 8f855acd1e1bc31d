package watcher

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWatcher(t *testing.T, debounce time.Duration) *FileWatcher {
	t.Helper()
	fw, err := NewFileWatcher(debounce)
	require.NoError(t, err)
	t.Cleanup(func() { _ = fw.Close() })
	return fw
}

func TestFileWatcher_TriggersOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: a\n"), 0o644))

	fw := newTestWatcher(t, 20*time.Millisecond)
	changed := make(chan string, 4)
	require.NoError(t, fw.Watch([]string{path}, func(p string) { changed <- p }))
	fw.Start()

	require.NoError(t, os.WriteFile(path, []byte("name: b\n"), 0o644))

	select {
	case got := <-changed:
		absPath, _ := filepath.Abs(path)
		assert.Equal(t, absPath, got)
	case <-time.After(5 * time.Second):
		t.Fatal("Expected a change notification")
	}
}

func TestFileWatcher_Debounces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.toml")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0o644))

	fw := newTestWatcher(t, 300*time.Millisecond)
	var calls atomic.Int32
	require.NoError(t, fw.Watch([]string{path}, func(string) { calls.Add(1) }))
	fw.Start()

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte{byte('a' + i)}, 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 5*time.Second, 20*time.Millisecond)
	time.Sleep(500 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load(), "a burst of writes collapses into one callback")
}

func TestFileWatcher_IgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "watched.json")
	sibling := filepath.Join(dir, "other.json")
	require.NoError(t, os.WriteFile(watched, []byte("{}"), 0o644))

	fw := newTestWatcher(t, 10*time.Millisecond)
	var calls atomic.Int32
	require.NoError(t, fw.Watch([]string{watched}, func(string) { calls.Add(1) }))
	fw.Start()

	require.NoError(t, os.WriteFile(sibling, []byte("{}"), 0o644))
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}

func TestFileWatcher_MissingDirectory(t *testing.T) {
	fw := newTestWatcher(t, 10*time.Millisecond)
	err := fw.Watch([]string{filepath.Join(t.TempDir(), "absent", "scene.yaml")}, func(string) {})
	assert.Error(t, err)
}
