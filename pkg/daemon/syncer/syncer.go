// Package syncer patches the index incrementally in response to
// library change notifications, without a full rescan.
package syncer

import (
	"context"
	"sync"

	"github.com/lumenapp/lumen/pkg/daemon/store"
	"github.com/lumenapp/lumen/pkg/library"
	"github.com/lumenapp/lumen/pkg/lumen/logging"
)

// PatchFunc is invoked after a non-empty patch lands in the store, with
// the diff total. The service hooks persistence and metrics here.
type PatchFunc func(total int)

// Syncer tracks the last observed filtered result set and reconciles
// the store against the library whenever a change notification fires.
// Everything is best-effort: no error ever reaches a caller.
type Syncer struct {
	lib   library.Library
	store *store.Store

	mu       sync.Mutex
	baseline []library.Asset
	hasBase  bool

	onPatch PatchFunc
}

// New creates a syncer. onPatch may be nil.
func New(lib library.Library, s *store.Store, onPatch PatchFunc) *Syncer {
	return &Syncer{lib: lib, store: s, onPatch: onPatch}
}

// Rebase replaces the tracked result set. Called after every full
// build; until the first Rebase, change notifications are no-ops.
func (sy *Syncer) Rebase(assets []library.Asset) {
	sy.mu.Lock()
	defer sy.mu.Unlock()
	sy.baseline = assets
	sy.hasBase = true
}

// HasBaseline reports whether a diffable result set is being tracked.
func (sy *Syncer) HasBaseline() bool {
	sy.mu.Lock()
	defer sy.mu.Unlock()
	return sy.hasBase
}

// HandleChange reconciles the store with the library's current state.
// It returns the number of index mutations applied. A notification
// arriving before any baseline exists is dropped; the next full build
// restores correctness.
func (sy *Syncer) HandleChange(ctx context.Context) int {
	log := logging.Get("syncer")

	sy.mu.Lock()
	defer sy.mu.Unlock()

	if !sy.hasBase {
		log.Debug("change notification before baseline, dropped")
		return 0
	}

	curr, err := sy.lib.Images(ctx)
	if err != nil {
		// Keep the old baseline; the next notification or full build
		// catches up.
		log.Warn("refetch failed, change skipped", "error", err)
		return 0
	}

	diff := library.Compute(sy.baseline, curr)
	sy.baseline = curr

	if diff.Empty() {
		return 0
	}

	var m store.Mutation
	for _, a := range diff.Added {
		m.Upserts = append(m.Upserts, store.FromAsset(a))
	}
	for _, a := range diff.Changed {
		m.Upserts = append(m.Upserts, store.FromAsset(a))
	}
	// Removed assets can no longer be fetched; their ids come from the
	// pre-change result set carried in the diff.
	for _, a := range diff.Removed {
		m.Deletes = append(m.Deletes, a.ID)
	}

	sy.store.Apply(m)
	log.Info("incremental patch applied",
		"added", len(diff.Added), "removed", len(diff.Removed), "changed", len(diff.Changed))

	if sy.onPatch != nil {
		sy.onPatch(diff.Total())
	}
	return diff.Total()
}
