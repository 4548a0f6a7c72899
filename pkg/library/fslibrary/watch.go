package fslibrary

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/lumenapp/lumen/pkg/library"
	"github.com/lumenapp/lumen/pkg/lumen/logging"
)

// debounceWindow coalesces bursts of filesystem events into a single
// change notification. Importing a batch of photos touches hundreds of
// files; subscribers only need to hear about it once.
const debounceWindow = 250 * time.Millisecond

// watcher watches the library root recursively and publishes a change
// event on the hub after activity settles.
type watcher struct {
	fsw    *fsnotify.Watcher
	hub    *library.Hub
	paths  map[string]bool
	mu     sync.Mutex
	closed bool
}

// newWatcher creates a watcher covering root and all its subdirectories.
// Symlinks are not followed to avoid loops.
func newWatcher(root string, hub *library.Hub) (*watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &watcher{
		fsw:   fsw,
		hub:   hub,
		paths: make(map[string]bool),
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil //nolint:nilerr // Skip entries with errors
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if d.IsDir() {
			if isDotName(d.Name()) && path != root {
				return fs.SkipDir
			}
			return w.addWatch(path)
		}
		return nil
	})
	if err != nil {
		_ = fsw.Close()
		return nil, err
	}

	return w, nil
}

// run is the event loop. It blocks until the context is cancelled or
// the watcher is closed.
func (w *watcher) run(ctx context.Context) {
	log := logging.Get("fslibrary")

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.handleEvent(event)
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
				fire = timer.C
			} else {
				if !timer.Stop() {
					<-timer.C
				}
				timer.Reset(debounceWindow)
			}

		case <-fire:
			timer = nil
			fire = nil
			w.hub.Publish(library.Event{Time: time.Now()})

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Error("watch error", "error", err)
		}
	}
}

// relevant filters out events on hidden files and directories. Sidecar
// edits are relevant even though sidecars are dot-files, since they
// change asset metadata.
func (w *watcher) relevant(event fsnotify.Event) bool {
	name := filepath.Base(event.Name)
	if name == SidecarName {
		return true
	}
	return !isDotName(name)
}

// handleEvent keeps the recursive watch set in sync with directory
// creation and removal.
func (w *watcher) handleEvent(event fsnotify.Event) {
	switch {
	case event.Op&fsnotify.Create != 0:
		w.handleCreate(event.Name)
	case event.Op&fsnotify.Remove != 0, event.Op&fsnotify.Rename != 0:
		w.handleRemove(event.Name)
	}
}

func (w *watcher) handleCreate(path string) {
	info, err := os.Lstat(path)
	if err != nil {
		return // Already gone
	}
	if info.Mode()&fs.ModeSymlink != 0 || !info.IsDir() {
		return
	}

	// Walk in case subdirectories were created along with it.
	_ = filepath.WalkDir(path, func(subpath string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil //nolint:nilerr // Skip entries with errors
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if d.IsDir() {
			_ = w.addWatch(subpath)
		}
		return nil
	})
}

func (w *watcher) handleRemove(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.paths[path] {
		_ = w.fsw.Remove(path)
		delete(w.paths, path)
	}
	for child := range w.paths {
		if isSubPath(child, path) {
			_ = w.fsw.Remove(child)
			delete(w.paths, child)
		}
	}
}

func (w *watcher) addWatch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || w.paths[path] {
		return nil
	}
	if err := w.fsw.Add(path); err != nil {
		logging.Get("fslibrary").Warn("failed to add watch", "path", path, "error", err)
		return err
	}
	w.paths[path] = true
	return nil
}

func (w *watcher) close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	w.paths = make(map[string]bool)
	return w.fsw.Close()
}

// isSubPath checks if path is under parent directory.
func isSubPath(path, parent string) bool {
	return len(path) > len(parent) && path[:len(parent)+1] == parent+string(filepath.Separator)
}
