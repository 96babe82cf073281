package tokenstore

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dashlink/dashlink/pkg/logging"
)

const defaultWatchDebounce = 200 * time.Millisecond

// Watcher invalidates a FileStore's cached document when the file is
// changed by another process.
type Watcher struct {
	store    *FileStore
	debounce time.Duration

	mu    sync.Mutex
	timer *time.Timer

	invalidations atomic.Int32
}

// NewWatcher creates a watcher for store. A zero debounce defaults to
// 200ms.
func NewWatcher(store *FileStore, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = defaultWatchDebounce
	}
	return &Watcher{store: store, debounce: debounce}
}

// Invalidations returns how many times the cache was dropped.
func (w *Watcher) Invalidations() int {
	return int(w.invalidations.Load())
}

// Run watches the store's directory until ctx is cancelled. The directory
// is watched rather than the file because atomic replacement changes the
// file's inode.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Close()

	dir := filepath.Dir(w.store.Path())
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	logging.Info("TokenStore", "Watching %s for external changes", w.store.Path())

	target := filepath.Clean(w.store.Path())
	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.schedule()
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logging.Error("TokenStore", err, "File watcher error")
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.store.Invalidate()
		w.invalidations.Add(1)
		logging.Debug("TokenStore", "Token file changed, cache invalidated")
	})
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}
