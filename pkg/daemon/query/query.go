// Package query serves ranked and listing queries over index
// snapshots. Every query copies the store first and then works on the
// copy, so reads never block or race writers. Queries do not fail:
// a not-ready index, an unknown grouping, or an unresolvable id all
// degrade to fewer (or zero) results.
package query

import (
	"context"
	"sort"

	"github.com/lumenapp/lumen/pkg/daemon/store"
	"github.com/lumenapp/lumen/pkg/library"
	"github.com/lumenapp/lumen/pkg/lumen/logging"
)

// DefaultLimit caps ranked queries when the caller passes limit <= 0.
const DefaultLimit = 10

// Item is one ranked result: the index entry's id and score together
// with the resolved live asset.
type Item struct {
	ID    string        `json:"id"`
	Score int64         `json:"score"`
	Asset library.Asset `json:"asset"`
}

// Engine answers queries from store snapshots, resolving surviving ids
// back to live assets through the library.
type Engine struct {
	lib   library.Library
	store *store.Store
}

// New creates a query engine.
func New(lib library.Library, s *store.Store) *Engine {
	return &Engine{lib: lib, store: s}
}

// TopForYear returns the highest-scored visible image entries created
// in the given year, at most limit of them.
func (e *Engine) TopForYear(ctx context.Context, year, limit int) []Item {
	snap := e.store.Snapshot()
	return e.rank(ctx, snap, limit, func(entry store.Entry) bool {
		return entry.CreationYear == year
	})
}

// TopForPlace ranks the members of the named place grouping. An
// unknown name yields an empty result.
func (e *Engine) TopForPlace(ctx context.Context, name string, limit int) []Item {
	return e.topForGroup(ctx, library.GroupPlace, name, limit)
}

// TopForPerson ranks the members of the named person grouping. An
// unknown name yields an empty result.
func (e *Engine) TopForPerson(ctx context.Context, name string, limit int) []Item {
	return e.topForGroup(ctx, library.GroupPerson, name, limit)
}

func (e *Engine) topForGroup(ctx context.Context, kind library.GroupKind, name string, limit int) []Item {
	ids, err := e.lib.Members(ctx, kind, name)
	if err != nil {
		logging.Get("query").Warn("grouping lookup failed", "kind", kind, "name", name, "error", err)
		return []Item{}
	}
	if len(ids) == 0 {
		return []Item{}
	}

	members := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		members[id] = struct{}{}
	}

	snap := e.store.Snapshot()
	return e.rank(ctx, snap, limit, func(entry store.Entry) bool {
		_, ok := members[entry.AssetID]
		return ok
	})
}

// rank applies the shared filter/sort/limit/resolve pipeline.
func (e *Engine) rank(ctx context.Context, snap store.Snapshot, limit int, match func(store.Entry) bool) []Item {
	if limit <= 0 {
		limit = DefaultLimit
	}

	var candidates []store.Entry
	for _, entry := range snap.Entries {
		if entry.Qualifies() && match(entry) {
			candidates = append(candidates, entry)
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	items := make([]Item, 0, len(candidates))
	for _, entry := range candidates {
		// Only the top limit candidates are resolved. Stale entries
		// whose asset no longer resolves are dropped silently, so the
		// result may hold fewer than limit items; the next sync or
		// rebuild removes them.
		asset, ok := e.lib.Resolve(ctx, entry.AssetID)
		if !ok {
			continue
		}
		items = append(items, Item{ID: entry.AssetID, Score: entry.Score, Asset: asset})
	}
	return items
}

// Years returns the distinct creation years across qualifying entries,
// most recent first.
func (e *Engine) Years(_ context.Context) []int {
	snap := e.store.Snapshot()

	seen := make(map[int]struct{})
	for _, entry := range snap.Entries {
		if entry.Qualifies() {
			seen[entry.CreationYear] = struct{}{}
		}
	}

	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}

// Places lists the library's place groupings that have at least one
// member, alphabetically.
func (e *Engine) Places(ctx context.Context) []string {
	return e.groupings(ctx, library.GroupPlace)
}

// People lists the library's person groupings that have at least one
// member, alphabetically.
func (e *Engine) People(ctx context.Context) []string {
	return e.groupings(ctx, library.GroupPerson)
}

func (e *Engine) groupings(ctx context.Context, kind library.GroupKind) []string {
	names, err := e.lib.Groupings(ctx, kind)
	if err != nil {
		logging.Get("query").Warn("grouping enumeration failed", "kind", kind, "error", err)
		return []string{}
	}
	if names == nil {
		names = []string{}
	}
	sort.Strings(names)
	return names
}
