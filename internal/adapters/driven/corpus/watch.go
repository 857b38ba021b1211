package corpus

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docrag/internal/logger"
)

// DefaultDebounce is how long the watcher waits after the last change to
// an artifact before reloading. Indexers usually write the index and the
// metadata back to back.
const DefaultDebounce = 500 * time.Millisecond

// ErrWatcherClosed is returned by Run after Close.
var ErrWatcherClosed = errors.New("corpus watcher closed")

// ReloadFunc receives a freshly loaded corpus. Returning an error rejects
// it; the watcher then closes the rejected corpus.
type ReloadFunc func(*Corpus) error

// Watcher reloads the corpus when its artifacts are rewritten on disk.
// A reload that fails to load or is rejected leaves the current corpus in
// place.
type Watcher struct {
	indexPath    string
	metadataPath string
	onReload     ReloadFunc
	debounce     time.Duration

	mu     sync.Mutex
	closed bool
}

// NewWatcher creates a watcher for the given artifact paths.
func NewWatcher(indexPath, metadataPath string, onReload ReloadFunc) *Watcher {
	return &Watcher{
		indexPath:    filepath.Clean(indexPath),
		metadataPath: filepath.Clean(metadataPath),
		onReload:     onReload,
		debounce:     DefaultDebounce,
	}
}

// Run watches until ctx is cancelled. The parent directories are watched
// rather than the files, so atomic replace-by-rename is seen.
func (w *Watcher) Run(ctx context.Context) error {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return ErrWatcherClosed
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	for _, dir := range w.dirs() {
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		logger.Debug("Watching %s for corpus changes", dir)
	}

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.isArtifactChange(event) {
				continue
			}
			logger.Debug("Corpus artifact changed: %s (%s)", event.Name, event.Op)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			pending = timer.C

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Corpus watcher error: %v", err)

		case <-pending:
			pending = nil
			w.reload()
		}
	}
}

// Close stops future Run calls. A running Run stops with its context.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *Watcher) dirs() []string {
	indexDir := filepath.Dir(w.indexPath)
	metadataDir := filepath.Dir(w.metadataPath)
	if indexDir == metadataDir {
		return []string{indexDir}
	}
	return []string{indexDir, metadataDir}
}

// isArtifactChange reports whether event creates or writes one of the
// watched artifacts. Removals are ignored: a replaced file shows up as a
// create.
func (w *Watcher) isArtifactChange(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return false
	}
	name := filepath.Clean(event.Name)
	return name == w.indexPath || name == w.metadataPath
}

func (w *Watcher) reload() {
	logger.Info("Reloading corpus from %s", w.indexPath)
	c, err := Load(w.indexPath, w.metadataPath)
	if err != nil {
		logger.Warn("Corpus reload failed, keeping current corpus: %v", err)
		return
	}
	if err := w.onReload(c); err != nil {
		logger.Warn("Corpus reload rejected, keeping current corpus: %v", err)
		if cerr := c.Close(); cerr != nil {
			logger.Warn("Closing rejected corpus: %v", cerr)
		}
		return
	}
	logger.Info("Corpus reloaded: %d chunks", c.Index.Len())
}
