// Package librarytest provides an in-memory Library implementation for
// tests. State is mutated directly and change notifications are fired
// explicitly, so tests control exactly when the index observes what.
package librarytest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lumenapp/lumen/pkg/library"
)

// Fake is an in-memory photo library.
type Fake struct {
	mu     sync.RWMutex
	assets map[string]library.Asset
	groups map[library.GroupKind]map[string][]string
	hub    *library.Hub

	imagesErr error
}

// New creates an empty fake library.
func New() *Fake {
	return &Fake{
		assets: make(map[string]library.Asset),
		groups: map[library.GroupKind]map[string][]string{
			library.GroupPlace:  {},
			library.GroupPerson: {},
		},
		hub: library.NewHub(),
	}
}

// Put inserts or replaces an asset.
func (f *Fake) Put(a library.Asset) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assets[a.ID] = a
}

// Remove deletes an asset.
func (f *Fake) Remove(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.assets, id)
}

// SetGroup assigns the member ids of a named grouping.
func (f *Fake) SetGroup(kind library.GroupKind, name string, ids ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.groups[kind][name] = ids
}

// SetImagesErr sets or clears a simulated fetch failure returned by
// Images.
func (f *Fake) SetImagesErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.imagesErr = err
}

// NotifyChange publishes a change event on the hub.
func (f *Fake) NotifyChange() {
	f.hub.Publish(library.Event{Time: time.Now()})
}

// Images returns every non-hidden image asset.
func (f *Fake) Images(_ context.Context) ([]library.Asset, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.imagesErr != nil {
		return nil, f.imagesErr
	}

	out := make([]library.Asset, 0, len(f.assets))
	for _, a := range f.assets {
		if a.Hidden || a.Type != library.MediaImage {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Resolve looks up a live asset by id.
func (f *Fake) Resolve(_ context.Context, id string) (library.Asset, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	a, ok := f.assets[id]
	return a, ok
}

// Groupings lists grouping names that have at least one member.
func (f *Fake) Groupings(_ context.Context, kind library.GroupKind) ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var names []string
	for name, ids := range f.groups[kind] {
		if len(ids) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Members returns the asset ids of a named grouping.
func (f *Fake) Members(_ context.Context, kind library.GroupKind, name string) ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]string(nil), f.groups[kind][name]...), nil
}

// Changes returns the fake's notification hub.
func (f *Fake) Changes() *library.Hub {
	return f.hub
}
