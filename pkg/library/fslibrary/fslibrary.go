// Package fslibrary implements the library boundary on top of a plain
// directory of image files, so the index daemon can run against any
// photo folder. Top-level directories double as place groupings and
// per-directory sidecar files supply the metadata a real photo library
// would carry (flags, GPS, people).
package fslibrary

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gobwas/glob"

	"github.com/lumenapp/lumen/pkg/library"
	"github.com/lumenapp/lumen/pkg/lumen/logging"
)

// Options configures a filesystem library.
type Options struct {
	// Root is the photo directory. Asset ids are slash-separated paths
	// relative to it.
	Root string

	// Exclude contains glob patterns matched against relative paths;
	// matching files and directories are invisible to the library.
	Exclude []string

	// CacheDir holds the dimension cache. Empty keeps the cache in
	// memory only.
	CacheDir string
}

// Library is a filesystem-backed photo library.
type Library struct {
	root    string
	exclude []glob.Glob
	cache   *metaCache
	hub     *library.Hub
	watcher *watcher

	mu      sync.RWMutex
	catalog map[string]library.Asset // includes hidden assets
	places  map[string][]string
	people  map[string][]string
}

// Open creates a library over opts.Root. The root must exist.
func Open(opts Options) (*Library, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("library root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("library root %s is not a directory", root)
	}

	var excludes []glob.Glob
	for _, pattern := range opts.Exclude {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("exclude pattern %q: %w", pattern, err)
		}
		excludes = append(excludes, g)
	}

	cache, err := openMetaCache(opts.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("opening dimension cache: %w", err)
	}

	return &Library{
		root:    root,
		exclude: excludes,
		cache:   cache,
		hub:     library.NewHub(),
	}, nil
}

// Root returns the absolute library root.
func (l *Library) Root() string {
	return l.root
}

// Images returns every non-hidden image asset, refreshing the catalog
// from disk.
func (l *Library) Images(ctx context.Context) ([]library.Asset, error) {
	if err := l.refresh(ctx); err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]library.Asset, 0, len(l.catalog))
	for _, a := range l.catalog {
		if !a.Hidden {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Resolve builds a live asset from disk. Deleted files do not resolve.
func (l *Library) Resolve(_ context.Context, id string) (library.Asset, bool) {
	rel := filepath.FromSlash(id)
	path := filepath.Join(l.root, rel)
	if !strings.HasPrefix(path, l.root+string(filepath.Separator)) {
		return library.Asset{}, false
	}
	if l.excluded(id) || !isImagePath(path) {
		return library.Asset{}, false
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return library.Asset{}, false
	}

	a, err := l.buildAsset(id, path, info)
	if err != nil {
		return library.Asset{}, false
	}
	return a, true
}

// Groupings lists place or person groupings with at least one member.
func (l *Library) Groupings(ctx context.Context, kind library.GroupKind) ([]string, error) {
	if err := l.refreshIfEmpty(ctx); err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	var names []string
	for name, ids := range l.groupsFor(kind) {
		if len(ids) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Members returns the asset ids of a named grouping; unknown names
// yield an empty slice.
func (l *Library) Members(ctx context.Context, kind library.GroupKind, name string) ([]string, error) {
	if err := l.refreshIfEmpty(ctx); err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.groupsFor(kind)[name]...), nil
}

// groupsFor must be called with l.mu held.
func (l *Library) groupsFor(kind library.GroupKind) map[string][]string {
	if kind == library.GroupPerson {
		return l.people
	}
	return l.places
}

// Changes returns the notification hub. Events fire only while the
// watcher is running.
func (l *Library) Changes() *library.Hub {
	return l.hub
}

// StartWatching begins publishing change notifications for filesystem
// events under the root until ctx is cancelled.
func (l *Library) StartWatching(ctx context.Context) error {
	w, err := newWatcher(l.root, l.hub)
	if err != nil {
		return err
	}
	l.watcher = w
	go w.run(ctx)
	return nil
}

// Close releases the watcher, the dimension cache, and the hub.
func (l *Library) Close() error {
	if l.watcher != nil {
		l.watcher.close()
	}
	l.hub.Close()
	return l.cache.close()
}

// refreshIfEmpty scans only when no catalog exists yet, so grouping
// lookups on a fresh library work without an explicit Images call.
func (l *Library) refreshIfEmpty(ctx context.Context) error {
	l.mu.RLock()
	empty := l.catalog == nil
	l.mu.RUnlock()
	if !empty {
		return nil
	}
	return l.refresh(ctx)
}

// refresh rescans the root and swaps the catalog and groupings.
func (l *Library) refresh(ctx context.Context) error {
	res, err := l.scan(ctx)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.catalog = res.assets
	l.places = res.places
	l.people = res.people
	l.mu.Unlock()

	logging.Get("fslibrary").Debug("catalog refreshed",
		"assets", len(res.assets), "places", len(res.places), "people", len(res.people))
	return nil
}

// excluded reports whether a relative slash path matches any exclude
// pattern.
func (l *Library) excluded(rel string) bool {
	for _, g := range l.exclude {
		if g.Match(rel) {
			return true
		}
	}
	return false
}
