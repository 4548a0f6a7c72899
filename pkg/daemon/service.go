// Package daemon wires the index components into the long-running
// lumend process: build and sync orchestration, the HTTP API over a
// Unix socket, and process lifecycle files.
package daemon

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lumenapp/lumen/pkg/daemon/indexer"
	"github.com/lumenapp/lumen/pkg/daemon/query"
	"github.com/lumenapp/lumen/pkg/daemon/store"
	"github.com/lumenapp/lumen/pkg/daemon/syncer"
	"github.com/lumenapp/lumen/pkg/library"
	"github.com/lumenapp/lumen/pkg/lumen/logging"
)

// State is the index lifecycle state.
type State int32

const (
	StateNotBuilt State = iota
	StateBuilding
	StateReady
)

// String returns the state name used in logs and the status API.
func (s State) String() string {
	switch s {
	case StateBuilding:
		return "building"
	case StateReady:
		return "ready"
	default:
		return "not_built"
	}
}

// ServiceOptions tunes the service. Zero values pick the defaults.
type ServiceOptions struct {
	// RebuildInterval is how old the last full build may get before
	// the staleness check forces another one.
	RebuildInterval time.Duration

	// CheckInterval is how often staleness is checked.
	CheckInterval time.Duration
}

// Service owns the index for one library and keeps it current: it
// restores the persisted index on startup, runs full builds, applies
// incremental patches on library change notifications, and persists
// after every index change.
type Service struct {
	lib       library.Library
	store     *store.Store
	persister *store.Persister
	indexer   *indexer.Indexer
	syncer    *syncer.Syncer
	queries   *query.Engine

	rebuildEvery time.Duration
	checkEvery   time.Duration
	startTime    time.Time

	state   atomic.Int32
	builtMu sync.Mutex
	builtAt time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
	sub    *library.Subscription
}

// NewService creates a service over the given library, persisting the
// index at indexPath.
func NewService(lib library.Library, indexPath string, opts ServiceOptions) *Service {
	if opts.RebuildInterval <= 0 {
		opts.RebuildInterval = indexer.RebuildInterval
	}
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = time.Hour
	}

	s := &Service{
		lib:          lib,
		store:        store.Open(),
		persister:    store.NewPersister(indexPath),
		rebuildEvery: opts.RebuildInterval,
		checkEvery:   opts.CheckInterval,
		startTime:    time.Now(),
	}
	s.indexer = indexer.New(lib, s.store)
	s.syncer = syncer.New(lib, s.store, s.onPatch)
	s.queries = query.New(lib, s.store)
	return s
}

// Queries returns the query engine over the service's index.
func (s *Service) Queries() *query.Engine {
	return s.queries
}

// State returns the current index lifecycle state.
func (s *Service) State() State {
	return State(s.state.Load())
}

// Entries returns the current index size.
func (s *Service) Entries() int {
	return s.store.Len()
}

// BuiltAt returns the time of the last completed full build. On
// startup it is restored from the persisted index; zero means no
// build ever completed.
func (s *Service) BuiltAt() time.Time {
	s.builtMu.Lock()
	defer s.builtMu.Unlock()
	return s.builtAt
}

// Uptime returns how long the service has been running.
func (s *Service) Uptime() time.Duration {
	return time.Since(s.startTime)
}

// Start restores or builds the index and begins watching for changes.
// It returns once startup is underway; a cold build completes in the
// background.
func (s *Service) Start(ctx context.Context) {
	log := logging.Get("daemon")
	ctx, s.cancel = context.WithCancel(ctx)

	entries, builtAt, err := s.persister.Load()
	if err == nil {
		s.store.ReplaceAll(entries)
		s.setBuiltAt(builtAt)
		s.state.Store(int32(StateReady))
		metricIndexEntries.Set(float64(len(entries)))
		metricIndexBuiltAt.Set(float64(builtAt.Unix()))
		log.Info("index restored", "entries", len(entries), "built_at", builtAt)
	} else {
		log.Info("no usable persisted index, building", "reason", err)
		_ = s.persister.Remove()
		s.runAsync(func(ctx context.Context) { s.fullBuild(ctx) }, ctx)
	}

	s.sub = s.lib.Changes().Subscribe()
	if s.sub != nil {
		s.runAsync(s.watchChanges, ctx)
	}
	s.runAsync(s.watchStaleness, ctx)
}

// TriggerRebuild requests a full build. Returns false when a build is
// already in flight and the request was dropped.
func (s *Service) TriggerRebuild(ctx context.Context) bool {
	if s.indexer.Building() {
		metricRebuildsDropped.Inc()
		return false
	}
	s.runAsync(func(ctx context.Context) { s.fullBuild(ctx) }, ctx)
	return true
}

// Stop shuts the service down, persisting the index a last time when
// it is ready.
func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.sub != nil {
		s.lib.Changes().Unsubscribe(s.sub.ID)
	}
	s.wg.Wait()

	if s.State() == StateReady {
		if err := s.persister.Save(s.store.Snapshot(), s.BuiltAt()); err != nil {
			logging.Get("daemon").Error("final persist failed", "error", err)
		}
	}
	s.store.Close()
}

func (s *Service) runAsync(fn func(context.Context), ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(ctx)
	}()
}

// fullBuild runs one full build and, on success, rebases the syncer
// and persists.
func (s *Service) fullBuild(ctx context.Context) {
	log := logging.Get("daemon")

	if s.State() != StateReady {
		s.state.Store(int32(StateBuilding))
	}

	result, err := s.indexer.Build(ctx)
	if err != nil {
		log.Error("full build failed", "error", err)
		if s.State() == StateBuilding {
			s.state.Store(int32(StateNotBuilt))
		}
		return
	}
	if result.Skipped {
		metricRebuildsDropped.Inc()
		return
	}

	now := time.Now()
	s.syncer.Rebase(result.Assets)
	s.setBuiltAt(now)
	s.state.Store(int32(StateReady))

	metricRebuildsTotal.Inc()
	metricIndexEntries.Set(float64(result.Entries))
	metricIndexBuiltAt.Set(float64(now.Unix()))

	s.persist()
	log.Info("full build complete", "entries", result.Entries, "duration", result.Duration)
}

// watchChanges applies an incremental patch for every library change
// notification.
func (s *Service) watchChanges(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-s.sub.Events:
			if !ok {
				return
			}
			s.syncer.HandleChange(ctx)
		}
	}
}

// watchStaleness forces a full build once the index is older than the
// rebuild interval.
func (s *Service) watchStaleness(ctx context.Context) {
	ticker := time.NewTicker(s.checkEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			builtAt := s.BuiltAt()
			if builtAt.IsZero() {
				// Not ready with no recorded build means the first
				// build failed; give it another attempt. The in-flight
				// guard drops the request when one is still running.
				if s.State() == StateReady {
					continue
				}
				logging.Get("daemon").Info("index never built, retrying full build")
			} else {
				if time.Since(builtAt) < s.rebuildEvery {
					continue
				}
				logging.Get("daemon").Info("index stale, rebuilding", "built_at", builtAt)
			}
			s.fullBuild(ctx)
		}
	}
}

// onPatch runs after every applied incremental patch.
func (s *Service) onPatch(total int) {
	metricSyncPatches.Inc()
	metricSyncAssets.Add(float64(total))
	metricIndexEntries.Set(float64(s.store.Len()))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.persist()
	}()
}

// persist writes the current snapshot to disk.
func (s *Service) persist() {
	if err := s.persister.Save(s.store.Snapshot(), s.BuiltAt()); err != nil {
		metricPersistErrors.Inc()
		logging.Get("daemon").Error("persisting index failed", "error", err)
	}
}

func (s *Service) setBuiltAt(t time.Time) {
	s.builtMu.Lock()
	s.builtAt = t
	s.builtMu.Unlock()
}
