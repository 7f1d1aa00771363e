package service

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ─────────────────────────────────────────────────────────────
// StoreWatcher — reloads when another process rewrites the store file
// ─────────────────────────────────────────────────────────────

// StoreWatcher watches the file backend's JSON file and calls reload after
// writes settle. The parent directory is watched rather than the file, since
// atomic rewrites replace the file by rename.
type StoreWatcher struct {
	path     string
	debounce time.Duration
	reload   func(ctx context.Context)

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	timer   *time.Timer
}

// NewStoreWatcher creates a watcher for path.
func NewStoreWatcher(path string, debounce time.Duration, reload func(ctx context.Context)) *StoreWatcher {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &StoreWatcher{path: path, debounce: debounce, reload: reload}
}

// Start begins watching. Calling Start on a running watcher restarts it.
func (w *StoreWatcher) Start(ctx context.Context) error {
	w.Stop()

	absPath, err := filepath.Abs(w.path)
	if err != nil {
		return fmt.Errorf("store watcher: bad path %q: %w", w.path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("store watcher: create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return fmt.Errorf("store watcher: watch dir %q: %w", filepath.Dir(absPath), err)
	}

	watchCtx, cancel := context.WithCancel(ctx)

	w.mu.Lock()
	w.watcher = watcher
	w.cancel = cancel
	w.mu.Unlock()

	go w.loop(watchCtx, watcher, absPath)
	log.Printf("store watcher: watching %s", absPath)
	return nil
}

func (w *StoreWatcher) loop(ctx context.Context, watcher *fsnotify.Watcher, absPath string) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			name, _ := filepath.Abs(event.Name)
			if name != absPath {
				continue
			}
			w.schedule(ctx)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("store watcher: error: %v", err)
		}
	}
}

func (w *StoreWatcher) schedule(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		if ctx.Err() != nil {
			return
		}
		log.Printf("store watcher: %s changed, reloading", w.path)
		w.reload(ctx)
	})
}

// Stop tears down the watcher. Safe to call when not started.
func (w *StoreWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	if w.watcher != nil {
		w.watcher.Close()
		w.watcher = nil
	}
}
