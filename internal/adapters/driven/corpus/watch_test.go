package corpus

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoChunks = `[{"id": "a", "text": "one"}, {"id": "b", "text": "two"}]`

const threeChunks = `[{"id": "a", "text": "one"}, {"id": "b", "text": "two"}, {"id": "c", "text": "three"}]`

func TestWatcher_IsArtifactChange(t *testing.T) {
	dir := t.TempDir()
	indexPath := filepath.Join(dir, "vector.index")
	metaPath := filepath.Join(dir, "metadata.json")
	w := NewWatcher(indexPath, metaPath, nil)

	tests := []struct {
		name     string
		event    fsnotify.Event
		expected bool
	}{
		{name: "index written", event: fsnotify.Event{Name: indexPath, Op: fsnotify.Write}, expected: true},
		{name: "metadata created", event: fsnotify.Event{Name: metaPath, Op: fsnotify.Create}, expected: true},
		{name: "combined ops", event: fsnotify.Event{Name: metaPath, Op: fsnotify.Write | fsnotify.Chmod}, expected: true},
		{name: "unclean path", event: fsnotify.Event{Name: dir + "/./vector.index", Op: fsnotify.Write}, expected: true},
		{name: "removed", event: fsnotify.Event{Name: indexPath, Op: fsnotify.Remove}, expected: false},
		{name: "renamed away", event: fsnotify.Event{Name: indexPath, Op: fsnotify.Rename}, expected: false},
		{name: "chmod only", event: fsnotify.Event{Name: indexPath, Op: fsnotify.Chmod}, expected: false},
		{name: "other file", event: fsnotify.Event{Name: filepath.Join(dir, "notes.txt"), Op: fsnotify.Write}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, w.isArtifactChange(tt.event))
		})
	}
}

func TestWatcher_Dirs(t *testing.T) {
	same := NewWatcher("/data/vector.index", "/data/metadata.json", nil)
	assert.Equal(t, []string{"/data"}, same.dirs())

	split := NewWatcher("/data/index/vector.index", "/data/meta/metadata.db", nil)
	assert.Equal(t, []string{"/data/index", "/data/meta"}, split.dirs())
}

// runWatcher starts w and returns a stop function that waits for Run.
func runWatcher(t *testing.T, w *Watcher) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Let Run register its watches before the test writes.
	time.Sleep(100 * time.Millisecond)

	return func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("watcher did not stop")
		}
	}
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	indexPath := writeIndex(t, dir, 2)
	metaPath := writeFile(t, dir, "metadata.json", twoChunks)

	reloaded := make(chan *Corpus, 1)
	w := NewWatcher(indexPath, metaPath, func(c *Corpus) error {
		reloaded <- c
		return nil
	})
	w.debounce = 50 * time.Millisecond
	stop := runWatcher(t, w)
	defer stop()

	writeIndex(t, dir, 3)
	writeFile(t, dir, "metadata.json", threeChunks)

	select {
	case c := <-reloaded:
		defer c.Close()
		assert.Equal(t, 3, c.Index.Len())
		assert.Equal(t, 3, c.Metadata.Len())
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for reload")
	}
}

func TestWatcher_KeepsCorpusWhenArtifactsMismatch(t *testing.T) {
	dir := t.TempDir()
	indexPath := writeIndex(t, dir, 2)
	metaPath := writeFile(t, dir, "metadata.json", twoChunks)

	reloaded := make(chan *Corpus, 1)
	w := NewWatcher(indexPath, metaPath, func(c *Corpus) error {
		reloaded <- c
		return nil
	})
	w.debounce = 50 * time.Millisecond
	stop := runWatcher(t, w)
	defer stop()

	// Index grows but metadata does not: the pair is rejected at load.
	writeIndex(t, dir, 3)

	select {
	case <-reloaded:
		t.Fatal("mismatched artifacts must not be reloaded")
	case <-time.After(500 * time.Millisecond):
	}
}

func TestWatcher_RejectedReload(t *testing.T) {
	dir := t.TempDir()
	indexPath := writeIndex(t, dir, 2)
	metaPath := writeFile(t, dir, "metadata.json", twoChunks)

	attempts := make(chan struct{}, 4)
	w := NewWatcher(indexPath, metaPath, func(*Corpus) error {
		attempts <- struct{}{}
		return errors.New("dimension mismatch")
	})
	w.debounce = 50 * time.Millisecond
	stop := runWatcher(t, w)
	defer stop()

	writeFile(t, dir, "metadata.json", twoChunks)

	select {
	case <-attempts:
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for reload attempt")
	}
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w := NewWatcher("/non/existent/vector.index", "/non/existent/metadata.json", nil)

	err := w.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "watch /non/existent")
}

func TestWatcher_RunAfterClose(t *testing.T) {
	w := NewWatcher("vector.index", "metadata.json", nil)
	require.NoError(t, w.Close())

	err := w.Run(context.Background())

	assert.ErrorIs(t, err, ErrWatcherClosed)
}
