// Package indexer runs full builds: a complete rescan and rescoring of
// the photo library, replacing the index wholesale.
package indexer

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/lumenapp/lumen/pkg/daemon/store"
	"github.com/lumenapp/lumen/pkg/library"
	"github.com/lumenapp/lumen/pkg/lumen/logging"
)

// RebuildInterval is how old the last full build may get before the
// periodic staleness check forces another one.
const RebuildInterval = 30 * 24 * time.Hour

// Result describes a completed (or dropped) full build.
type Result struct {
	// Skipped is true when another build was already in flight and
	// this request was dropped.
	Skipped bool

	// Assets is the post-build filtered result set, in fetch order.
	// The synchronizer uses it as its new diff baseline.
	Assets []library.Asset

	Entries  int
	Duration time.Duration
}

// Indexer builds the index from the library. A single in-flight guard
// drops concurrent build requests; they are neither queued nor merged.
type Indexer struct {
	lib      library.Library
	store    *store.Store
	building atomic.Bool
}

// New creates an indexer over the given library and store.
func New(lib library.Library, s *store.Store) *Indexer {
	return &Indexer{lib: lib, store: s}
}

// Building reports whether a build is currently in flight.
func (ix *Indexer) Building() bool {
	return ix.building.Load()
}

// Build fetches every non-hidden image asset, scores each one, and
// replaces the store mapping atomically. On success the store is ready.
func (ix *Indexer) Build(ctx context.Context) (*Result, error) {
	log := logging.Get("indexer")

	if !ix.building.CompareAndSwap(false, true) {
		log.Debug("full build already in progress, request dropped")
		return &Result{Skipped: true}, nil
	}
	defer ix.building.Store(false)

	start := time.Now()

	assets, err := ix.lib.Images(ctx)
	if err != nil {
		log.Error("full build fetch failed", "error", err)
		return nil, err
	}

	entries := make(map[string]store.Entry, len(assets))
	for _, a := range assets {
		entries[a.ID] = store.FromAsset(a)
	}

	ix.store.ReplaceAll(entries)

	res := &Result{
		Assets:   assets,
		Entries:  len(entries),
		Duration: time.Since(start),
	}
	log.Info("full build complete", "entries", res.Entries, "duration", res.Duration)
	return res, nil
}
