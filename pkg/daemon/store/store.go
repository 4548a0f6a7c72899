package store

import (
	"maps"
	"sync"
	"sync/atomic"
)

// Mutation is an atomic batch of entry replacements and deletions.
type Mutation struct {
	Upserts []Entry
	Deletes []string
}

// Empty reports whether the mutation does nothing.
func (m Mutation) Empty() bool {
	return len(m.Upserts) == 0 && len(m.Deletes) == 0
}

// Snapshot is an independent point-in-time copy of the index. Once
// taken it needs no further synchronization; readers own the copy.
type Snapshot struct {
	Entries map[string]Entry
}

// Store owns the authoritative assetId -> Entry mapping. A single
// worker goroutine is the only code that touches the map; exported
// methods post work onto its op channel and wait, which totally orders
// full builds, incremental patches, and snapshot capture.
type Store struct {
	ops       chan func()
	quit      chan struct{}
	closeOnce sync.Once

	ready atomic.Bool
	size  atomic.Int64

	// entries is owned by the run loop. Nothing else may read or write
	// it, including through retained references: ReplaceAll takes
	// ownership of its argument and Snapshot hands out copies.
	entries map[string]Entry
}

// Open creates a store and starts its worker.
func Open() *Store {
	s := &Store{
		ops:     make(chan func()),
		quit:    make(chan struct{}),
		entries: make(map[string]Entry),
	}
	go s.run()
	return s
}

func (s *Store) run() {
	for {
		select {
		case fn := <-s.ops:
			fn()
		case <-s.quit:
			return
		}
	}
}

// exec runs fn on the worker and waits for it. Returns false when the
// store is closed and fn did not run.
func (s *Store) exec(fn func()) bool {
	done := make(chan struct{})
	select {
	case s.ops <- func() {
		fn()
		close(done)
	}:
		<-done
		return true
	case <-s.quit:
		return false
	}
}

// Ready reports whether the first successful load or build completed.
func (s *Store) Ready() bool {
	return s.ready.Load()
}

// Len returns the current entry count.
func (s *Store) Len() int {
	return int(s.size.Load())
}

// ReplaceAll swaps the whole mapping atomically and marks the store
// ready. The store takes ownership of entries; callers must not use
// the map afterwards. Entries missing an AssetID key are normalized
// from the map key.
func (s *Store) ReplaceAll(entries map[string]Entry) {
	if entries == nil {
		entries = make(map[string]Entry)
	}
	s.exec(func() {
		for id, e := range entries {
			if e.AssetID != id {
				e.AssetID = id
				entries[id] = e
			}
		}
		s.entries = entries
		s.size.Store(int64(len(entries)))
		s.ready.Store(true)
	})
}

// Apply applies a batch of upserts and deletes atomically. It returns
// the number of entries actually written or removed.
func (s *Store) Apply(m Mutation) int {
	var applied int
	s.exec(func() {
		for _, e := range m.Upserts {
			s.entries[e.AssetID] = e
			applied++
		}
		for _, id := range m.Deletes {
			if _, ok := s.entries[id]; ok {
				delete(s.entries, id)
				applied++
			}
		}
		s.size.Store(int64(len(s.entries)))
	})
	return applied
}

// Snapshot returns an independent copy of the mapping. An empty
// snapshot is returned if the store is already closed.
func (s *Store) Snapshot() Snapshot {
	var snap Snapshot
	ok := s.exec(func() {
		snap.Entries = maps.Clone(s.entries)
	})
	if !ok || snap.Entries == nil {
		snap.Entries = make(map[string]Entry)
	}
	return snap
}

// Close stops the worker. Pending operations after Close are dropped;
// in-flight operations run to completion.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		close(s.quit)
	})
}
